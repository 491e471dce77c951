package authcore

import (
	"errors"
	"time"

	"github.com/hallgard/authcore/password"
)

// Config is the full engine configuration. Zero values are filled in from
// defaultConfig by the Builder; Validate rejects combinations the engine
// cannot run with.
type Config struct {
	Token     TokenConfig
	OTP       OTPConfig
	Lockout   LockoutConfig
	RateLimit RateLimitConfig
	Password  PasswordConfig
	Audit     AuditConfig
	Metrics   MetricsConfig
}

// TokenConfig controls token minting and verification.
type TokenConfig struct {
	AccessTTL  time.Duration
	RefreshTTL time.Duration

	// SigningMethod is "hs256" (default) or "ed25519".
	SigningMethod string
	// SecretKey is the HMAC key for hs256.
	SecretKey []byte
	// PrivateKey/PublicKey are the Ed25519 key pair (raw or PEM).
	PrivateKey []byte
	PublicKey  []byte

	Issuer string
	Leeway time.Duration
}

// OTPConfig controls one-time-passcode challenges.
type OTPConfig struct {
	Digits      int
	TTL         time.Duration
	MaxAttempts int
}

// LockoutConfig controls the failure-streak account lockout applied by the
// login guard. The counter lives on the identity record, not in Redis, so a
// lockout survives store flushes.
type LockoutConfig struct {
	MaxFailedAttempts int
	Duration          time.Duration
}

// WindowLimit is one fixed-window budget: Limit hits per Window.
type WindowLimit struct {
	Limit  int
	Window time.Duration
}

// RateLimitConfig holds the coarse per-operation abuse guards enforced by
// the session coordinator. Address-keyed checks are skipped when the caller
// did not attach a client address to the context.
type RateLimitConfig struct {
	Login         WindowLimit
	Refresh       WindowLimit
	Registration  WindowLimit
	OTPResend     WindowLimit
	PasswordReset WindowLimit
}

// PasswordConfig holds the bcrypt cost and the acceptance policy applied
// before hashing.
type PasswordConfig struct {
	BcryptCost int
	Policy     password.Policy
}

// AuditConfig controls the asynchronous audit dispatcher.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

// MetricsConfig controls the in-process counters.
type MetricsConfig struct {
	Enabled bool
}

// DefaultConfig returns the configuration the Builder starts from. Mutate a
// copy and pass it to [Builder.WithConfig] to change a few fields without
// restating the rest. The signing key is not defaulted.
func DefaultConfig() Config {
	return defaultConfig()
}

func defaultConfig() Config {
	return Config{
		Token: TokenConfig{
			AccessTTL:     15 * time.Minute,
			RefreshTTL:    7 * 24 * time.Hour,
			SigningMethod: "hs256",
			Issuer:        "authcore",
			Leeway:        30 * time.Second,
		},
		OTP: OTPConfig{
			Digits:      6,
			TTL:         10 * time.Minute,
			MaxAttempts: 3,
		},
		Lockout: LockoutConfig{
			MaxFailedAttempts: 5,
			Duration:          30 * time.Minute,
		},
		RateLimit: RateLimitConfig{
			Login:         WindowLimit{Limit: 10, Window: 15 * time.Minute},
			Refresh:       WindowLimit{Limit: 30, Window: time.Minute},
			Registration:  WindowLimit{Limit: 5, Window: time.Hour},
			OTPResend:     WindowLimit{Limit: 3, Window: 10 * time.Minute},
			PasswordReset: WindowLimit{Limit: 3, Window: time.Hour},
		},
		Password: PasswordConfig{
			BcryptCost: 0, // bcrypt.DefaultCost
			Policy:     password.DefaultPolicy(),
		},
		Audit: AuditConfig{
			Enabled:    true,
			BufferSize: 256,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled: true,
		},
	}
}

// Validate checks invariants the Builder cannot repair.
func (c *Config) Validate() error {
	if c.Token.AccessTTL <= 0 || c.Token.RefreshTTL <= 0 {
		return errors.New("token TTLs must be positive")
	}
	if c.Token.RefreshTTL <= c.Token.AccessTTL {
		return errors.New("refresh TTL must exceed access TTL")
	}
	switch c.Token.SigningMethod {
	case "hs256":
		if len(c.Token.SecretKey) < 32 {
			return errors.New("hs256 requires a secret key of at least 32 bytes")
		}
	case "ed25519":
		if len(c.Token.PrivateKey) == 0 || len(c.Token.PublicKey) == 0 {
			return errors.New("ed25519 requires both private and public keys")
		}
	default:
		return errors.New("unsupported signing method")
	}
	if c.OTP.Digits < 4 || c.OTP.Digits > 10 {
		return errors.New("otp digits must be between 4 and 10")
	}
	if c.OTP.TTL <= 0 {
		return errors.New("otp TTL must be positive")
	}
	if c.OTP.MaxAttempts <= 0 {
		return errors.New("otp max attempts must be positive")
	}
	if c.Lockout.MaxFailedAttempts <= 0 {
		return errors.New("lockout threshold must be positive")
	}
	if c.Lockout.Duration <= 0 {
		return errors.New("lockout duration must be positive")
	}
	for _, wl := range []WindowLimit{c.RateLimit.Login, c.RateLimit.Refresh, c.RateLimit.Registration, c.RateLimit.OTPResend, c.RateLimit.PasswordReset} {
		if wl.Limit <= 0 || wl.Window <= 0 {
			return errors.New("rate limit budgets must be positive")
		}
	}
	return nil
}

// cloneConfig deep-copies key material so callers cannot mutate a built
// engine through a retained Config value.
func cloneConfig(cfg Config) Config {
	out := cfg
	out.Token.SecretKey = append([]byte(nil), cfg.Token.SecretKey...)
	out.Token.PrivateKey = append([]byte(nil), cfg.Token.PrivateKey...)
	out.Token.PublicKey = append([]byte(nil), cfg.Token.PublicKey...)
	return out
}
