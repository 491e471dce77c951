package authcore

import "context"

type clientAddrContextKey struct{}

// WithClientAddr attaches the caller's network address to ctx. The engine
// uses it for per-address rate limiting, the last-login origin stamp, and
// audit events. Operations work without it; the address-keyed guards are
// simply skipped.
func WithClientAddr(ctx context.Context, addr string) context.Context {
	return context.WithValue(ctx, clientAddrContextKey{}, addr)
}

func clientAddrFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}

	addr, _ := ctx.Value(clientAddrContextKey{}).(string)
	return addr
}
