package authcore

import (
	"context"
	"fmt"
	"time"

	"github.com/hallgard/authcore/password"
)

// loginGuard applies the credential check and the failure-streak lockout.
// The failed-attempt counter and the lockout deadline live on the identity
// record and are written back in a single Update per attempt.
type loginGuard struct {
	store  IdentityStore
	hasher *password.Hasher
	cfg    LockoutConfig
	now    func() time.Time
}

// attempt verifies secret against the identity and records the outcome.
// The account-state checks run before the password comparison so a locked
// or unapproved account never burns bcrypt time or leaks whether the
// password was right.
func (g *loginGuard) attempt(ctx context.Context, identity *Identity, secret, origin string) error {
	if !identity.Active {
		return &LockedError{Reason: "account deactivated"}
	}

	switch identity.RegistrationStatus {
	case RegistrationApproved:
	case RegistrationPending:
		return &LockedError{Reason: "registration pending approval"}
	case RegistrationRejected:
		return &LockedError{Reason: "registration rejected"}
	case RegistrationSuspended:
		return &LockedError{Reason: "account suspended"}
	default:
		return &LockedError{Reason: "registration " + string(identity.RegistrationStatus)}
	}

	now := g.now()
	if identity.Locked(now) {
		return &LockedError{Reason: "temporarily locked", Until: *identity.LockoutUntil}
	}

	if !g.hasher.Verify(secret, identity.PasswordHash) {
		// The counter survives the lockout window; only a successful login
		// clears it, so a wrong password right after the window elapses
		// re-locks immediately. The locking attempt itself reports plain
		// invalid credentials so callers cannot observe the exact threshold.
		identity.FailedAttempts++
		if identity.FailedAttempts >= g.cfg.MaxFailedAttempts {
			until := now.Add(g.cfg.Duration)
			identity.LockoutUntil = &until
		}
		identity.UpdatedAt = now
		if uerr := g.store.Update(ctx, identity); uerr != nil {
			return fmt.Errorf("recording failed attempt: %w", uerr)
		}
		return ErrInvalidCredentials
	}

	identity.FailedAttempts = 0
	identity.LockoutUntil = nil
	identity.LastLoginAt = &now
	identity.LastLoginOrigin = origin
	identity.UpdatedAt = now
	if err := g.store.Update(ctx, identity); err != nil {
		return fmt.Errorf("recording login: %w", err)
	}
	return nil
}
