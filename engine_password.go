package authcore

import (
	"context"
	"errors"
	"fmt"

	"github.com/hallgard/authcore/internal/metrics"
	"github.com/hallgard/authcore/otp"
)

// RequestPasswordReset issues a reset code to the identity behind identifier.
// Unknown identifiers return nil without issuing anything, so the call does
// not confirm whether an account exists.
func (e *Engine) RequestPasswordReset(ctx context.Context, identifier string) error {
	if err := e.checkLimit(ctx, "password_reset", identifier, e.config.RateLimit.PasswordReset); err != nil {
		return err
	}

	identity, err := e.store.FindByIdentifier(ctx, identifier)
	if err != nil {
		if errors.Is(err, ErrIdentityNotFound) {
			return nil
		}
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	if _, err := e.otps.Issue(ctx, otp.PurposePasswordReset, identifier); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	e.metrics.Inc(metrics.MetricOTPIssued)
	e.emit(ctx, AuditEvent{
		EventType: AuditOTPIssued,
		SubjectID: identity.ID,
		Success:   true,
		Metadata:  map[string]string{"purpose": otp.PurposePasswordReset},
	})
	return nil
}

// ResetPassword consumes a reset code and replaces the identity's password.
// Every outstanding session for the subject is revoked, and any failure
// streak or lockout is cleared alongside the new credential.
func (e *Engine) ResetPassword(ctx context.Context, identifier, code, newPassword string) error {
	if err := e.config.Password.Policy.Validate(newPassword); err != nil {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}

	outcome, err := e.otps.Verify(ctx, otp.PurposePasswordReset, identifier, code)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	switch outcome {
	case otp.OutcomeVerified:
	case otp.OutcomeInvalid:
		e.metrics.Inc(metrics.MetricOTPFailed)
		return ErrOTPInvalid
	case otp.OutcomeExhausted:
		e.metrics.Inc(metrics.MetricOTPExhausted)
		return ErrOTPExhausted
	default:
		return ErrOTPNotFound
	}

	identity, err := e.store.FindByIdentifier(ctx, identifier)
	if err != nil {
		if errors.Is(err, ErrIdentityNotFound) {
			return err
		}
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	hash, err := e.hasher.Hash(newPassword)
	if err != nil {
		return err
	}

	now := e.now()
	identity.PasswordHash = hash
	identity.FailedAttempts = 0
	identity.LockoutUntil = nil
	identity.UpdatedAt = now
	if err := e.store.Update(ctx, identity); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	// Whoever held a session before the reset does not keep it.
	if err := e.tokens.RevokeAll(ctx, identity.ID); err != nil {
		return e.mapTokenErr(err)
	}
	_ = e.sessions.Delete(ctx, identity.ID)

	e.metrics.Inc(metrics.MetricOTPVerified)
	e.metrics.Inc(metrics.MetricPasswordReset)
	e.emit(ctx, AuditEvent{
		EventType: AuditOTPVerified,
		SubjectID: identity.ID,
		Success:   true,
		Metadata:  map[string]string{"purpose": otp.PurposePasswordReset},
	})
	e.emit(ctx, AuditEvent{EventType: AuditPasswordReset, SubjectID: identity.ID, Success: true})
	return nil
}
