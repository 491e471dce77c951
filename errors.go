package authcore

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrUnauthorized covers every token-shaped failure on protected paths:
	// bad signature, expired, blacklisted, or superseded. Callers must not
	// distinguish "token does not exist" from "token is wrong".
	ErrUnauthorized = errors.New("unauthorized")
	// ErrInvalidCredentials is returned for unknown identifiers and password
	// mismatches alike.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrIdentityNotFound is returned by IdentityStore lookups.
	ErrIdentityNotFound = errors.New("identity not found")
	// ErrIdentifierTaken rejects registration with an email or phone that is
	// already bound to an identity.
	ErrIdentifierTaken = errors.New("identifier already registered")
	// ErrRateLimited is the target for errors.Is on *RateLimitedError.
	ErrRateLimited = errors.New("rate limited")
	// ErrAccountLocked is the target for errors.Is on *LockedError.
	ErrAccountLocked = errors.New("account locked")
	// ErrNotAdmin rejects field-executive creation and approval transitions
	// attempted by non-admin callers.
	ErrNotAdmin = errors.New("admin role required")
	// ErrOTPInvalid means the submitted code did not match the live challenge.
	ErrOTPInvalid = errors.New("invalid verification code")
	// ErrOTPExhausted means the challenge burned through its attempt budget
	// and is permanently invalid.
	ErrOTPExhausted = errors.New("verification attempts exceeded")
	// ErrOTPNotFound means no live challenge exists for the identifier.
	ErrOTPNotFound = errors.New("verification code not found or expired")
	// ErrValidation covers malformed input rejected before any store access.
	ErrValidation = errors.New("invalid request")
	// ErrStoreUnavailable wraps transport failures talking to Redis.
	ErrStoreUnavailable = errors.New("state store unavailable")
	// ErrEngineNotReady is returned by Builder.Build when a required
	// dependency (the Redis client or the identity store) was not supplied.
	ErrEngineNotReady = errors.New("engine not initialized")
)

// RateLimitedError is returned when a fixed-window counter is over budget.
// RetryAfter is the remaining window, suitable for a Retry-After header.
type RateLimitedError struct {
	RetryAfter time.Duration
}

func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("rate limited, retry after %ds", int(e.RetryAfter.Seconds()))
}

// Is makes errors.Is(err, ErrRateLimited) hold for *RateLimitedError.
func (e *RateLimitedError) Is(target error) bool {
	return target == ErrRateLimited
}

// LockedError is returned when an identity cannot log in because of its
// registration state, deactivation, or a failure-streak lockout. Reason is
// safe to surface to the caller. Until is zero for non-temporal blocks
// (pending approval, suspended, deactivated).
type LockedError struct {
	Reason string
	Until  time.Time
}

func (e *LockedError) Error() string {
	return e.Reason
}

// Is makes errors.Is(err, ErrAccountLocked) hold for *LockedError.
func (e *LockedError) Is(target error) bool {
	return target == ErrAccountLocked
}
