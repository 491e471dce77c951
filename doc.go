// Package authcore implements the credential and session lifecycle engine for
// a multi-role identity service: signed access/refresh token pairs, a single
// live refresh token per subject, revocation blacklisting, one-time-passcode
// challenges, fixed-window rate limiting, and time-boxed account lockout.
//
// The package is designed for concurrent server workloads: Engine methods are
// safe to call from multiple goroutines after initialization through
// [Builder.Build]. All cross-request state lives in Redis; the engine itself
// holds no locks and no global mutable state.
//
// # Architecture boundaries
//
// authcore is the public surface. It exposes [Engine], [Builder], [Config],
// and the result/error types the transport layer maps to responses. Reusable
// mechanics live in subpackages (jwt, password, otp, ratelimit, token,
// session, notify) and non-public machinery under internal/.
//
// Durable identity storage and message delivery are collaborators, not
// responsibilities: callers supply an [IdentityStore] and a
// [notify.Deliverer]. The pgstore and notify/sesdeliver packages are
// reference implementations of those interfaces.
//
// # Failure posture
//
// The rate limiter fails open (an unreachable store never blocks traffic,
// but the degraded mode is audited). The token blacklist check fails closed:
// if the store cannot be reached during access-token validation, the request
// is treated as unauthorized.
package authcore
