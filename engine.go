package authcore

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/hallgard/authcore/internal/audit"
	"github.com/hallgard/authcore/internal/metrics"
	"github.com/hallgard/authcore/jwt"
	"github.com/hallgard/authcore/notify"
	"github.com/hallgard/authcore/otp"
	"github.com/hallgard/authcore/password"
	"github.com/hallgard/authcore/ratelimit"
	"github.com/hallgard/authcore/session"
	"github.com/hallgard/authcore/token"
)

// Engine coordinates the credential and session lifecycle. Build one with
// [New] and treat it as immutable; all methods are safe for concurrent use.
type Engine struct {
	config Config

	store     IdentityStore
	redis     redis.UniversalClient
	jwts      *jwt.Manager
	tokens    *token.Service
	otps      *otp.Manager
	sessions  *session.Store
	limiter   *ratelimit.Limiter
	guard     *loginGuard
	hasher    *password.Hasher
	deliverer notify.Deliverer

	audit   *audit.Dispatcher
	metrics *metrics.Metrics

	now func() time.Time
}

// Close flushes the audit dispatcher. The engine must not be used after
// Close returns.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	if e.audit != nil {
		e.audit.Close()
	}
}

// AuditDropped reports how many audit events were discarded because the
// dispatcher buffer was full.
func (e *Engine) AuditDropped() uint64 {
	if e == nil || e.audit == nil {
		return 0
	}
	return e.audit.Dropped()
}

// MetricsSnapshot returns a copy of every engine counter.
func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil || e.metrics == nil {
		return MetricsSnapshot{Counters: map[MetricID]uint64{}}
	}
	return e.metrics.Snapshot()
}

// emit records an audit event, stamping time and client origin.
func (e *Engine) emit(ctx context.Context, event AuditEvent) {
	if e.audit == nil {
		return
	}
	event.Timestamp = e.now()
	if event.Origin == "" {
		event.Origin = clientAddrFromContext(ctx)
	}
	e.audit.Emit(ctx, event)
}

// saveSnapshot rewrites the subject's advisory session record.
func (e *Engine) saveSnapshot(ctx context.Context, identity *Identity) error {
	return e.sessions.Save(ctx, session.Snapshot{
		Subject: identity.ID,
		Role:    string(identity.Role),
		LoginAt: e.now(),
		Origin:  clientAddrFromContext(ctx),
	})
}

// checkLimit enforces one fixed-window budget. The limiter degrades open:
// if the store cannot be reached the request is admitted and the degraded
// counter bumped. Exceeding the budget surfaces as a *RateLimitedError.
func (e *Engine) checkLimit(ctx context.Context, op, key string, wl WindowLimit) error {
	if key == "" {
		return nil
	}
	res, err := e.limiter.Check(ctx, "rl:"+op+":"+key, wl.Limit, wl.Window)
	if err != nil {
		e.metrics.Inc(metrics.MetricRateLimitDegraded)
		e.emit(ctx, AuditEvent{
			EventType: AuditRateLimitDegraded,
			Success:   false,
			Error:     err.Error(),
			Metadata:  map[string]string{"operation": op},
		})
		return nil
	}
	if !res.Allowed {
		e.emit(ctx, AuditEvent{
			EventType: AuditRateLimited,
			Success:   false,
			Metadata:  map[string]string{"operation": op},
		})
		return &RateLimitedError{RetryAfter: res.RetryAfter}
	}
	return nil
}

// resetLimit clears one fixed-window counter after the guarded operation
// succeeds. Best effort; an unreachable store just leaves the window to
// expire on its own.
func (e *Engine) resetLimit(ctx context.Context, op, key string) {
	if key == "" {
		return
	}
	_ = e.limiter.Reset(ctx, "rl:"+op+":"+key)
}
