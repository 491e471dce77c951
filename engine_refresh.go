package authcore

import (
	"context"
	"errors"
	"fmt"

	"github.com/hallgard/authcore/internal/metrics"
)

// Refresh exchanges a live refresh token for a fresh access token. The
// refresh token itself is not rotated; it stays valid until it expires or
// the subject logs in or out.
//
// The subject's account state is re-checked on every refresh, so a
// deactivated, suspended, or locked account stops minting access tokens
// even while holding a cryptographically valid refresh token.
func (e *Engine) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	if err := e.checkLimit(ctx, "refresh", clientAddrFromContext(ctx), e.config.RateLimit.Refresh); err != nil {
		return nil, err
	}

	claims, err := e.tokens.ValidateRefresh(ctx, refreshToken)
	if err != nil {
		e.metrics.Inc(metrics.MetricRefreshFailure)
		e.emit(ctx, AuditEvent{EventType: AuditRefresh, Success: false, Error: err.Error()})
		return nil, e.mapTokenErr(err)
	}

	identity, err := e.store.FindByID(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, ErrIdentityNotFound) {
			e.metrics.Inc(metrics.MetricRefreshFailure)
			return nil, ErrUnauthorized
		}
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	if !identity.Active || identity.RegistrationStatus != RegistrationApproved || identity.Locked(e.now()) {
		e.metrics.Inc(metrics.MetricRefreshFailure)
		e.emit(ctx, AuditEvent{
			EventType: AuditRefresh,
			SubjectID: identity.ID,
			Success:   false,
			Error:     "account not in good standing",
		})
		return nil, ErrUnauthorized
	}

	pair, err := e.tokens.RotateAccess(identity.ID, string(identity.Role), refreshToken)
	if err != nil {
		return nil, err
	}

	_ = e.saveSnapshot(ctx, identity)

	e.metrics.Inc(metrics.MetricRefreshSuccess)
	e.emit(ctx, AuditEvent{EventType: AuditRefresh, SubjectID: identity.ID, Success: true})

	return &TokenPair{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		TokenType:    "bearer",
		ExpiresIn:    pair.ExpiresIn,
	}, nil
}
