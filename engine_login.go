package authcore

import (
	"context"
	"errors"
	"fmt"

	"github.com/hallgard/authcore/internal/metrics"
	"github.com/hallgard/authcore/token"
)

// Login authenticates identifier/secret and mints a fresh token pair. The
// new refresh token replaces any previously issued one for the subject, and
// the subject's session snapshot is rewritten.
//
// Failure modes, in evaluation order: rate limit, unknown identifier,
// account state (inactive, unapproved, locked), bad password. Unknown
// identifiers and bad passwords both surface as ErrInvalidCredentials.
func (e *Engine) Login(ctx context.Context, identifier, secret string) (*LoginResult, error) {
	if err := e.checkLimit(ctx, "login", identifier, e.config.RateLimit.Login); err != nil {
		e.metrics.Inc(metrics.MetricLoginRateLimited)
		return nil, err
	}

	identity, err := e.store.FindByIdentifier(ctx, identifier)
	if err != nil {
		if errors.Is(err, ErrIdentityNotFound) {
			e.metrics.Inc(metrics.MetricLoginFailure)
			e.emit(ctx, AuditEvent{EventType: AuditLogin, Success: false, Error: "unknown identifier"})
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	if err := e.guard.attempt(ctx, identity, secret, clientAddrFromContext(ctx)); err != nil {
		if errors.Is(err, ErrAccountLocked) {
			e.metrics.Inc(metrics.MetricLoginLocked)
		} else {
			e.metrics.Inc(metrics.MetricLoginFailure)
		}
		e.emit(ctx, AuditEvent{
			EventType: AuditLogin,
			SubjectID: identity.ID,
			Success:   false,
			Error:     err.Error(),
		})
		return nil, err
	}

	// Successful authentication ends the abuse window for this identifier.
	e.resetLimit(ctx, "login", identifier)

	pair, err := e.tokens.Issue(ctx, identity.ID, string(identity.Role))
	if err != nil {
		return nil, e.mapTokenErr(err)
	}

	// The snapshot is an advisory cache; a write failure does not unwind
	// the login.
	_ = e.saveSnapshot(ctx, identity)

	e.metrics.Inc(metrics.MetricLoginSuccess)
	e.emit(ctx, AuditEvent{EventType: AuditLogin, SubjectID: identity.ID, Success: true})

	return &LoginResult{
		TokenPair: TokenPair{
			AccessToken:  pair.AccessToken,
			RefreshToken: pair.RefreshToken,
			TokenType:    "bearer",
			ExpiresIn:    pair.ExpiresIn,
		},
		SubjectID: identity.ID,
		Role:      identity.Role,
		Verified:  identity.Verified,
	}, nil
}

func (e *Engine) mapTokenErr(err error) error {
	switch {
	case errors.Is(err, token.ErrUnavailable):
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	case errors.Is(err, token.ErrRejected):
		return fmt.Errorf("%w: %v", ErrUnauthorized, err)
	default:
		return err
	}
}
