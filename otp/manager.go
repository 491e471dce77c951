// Package otp manages short-lived one-time-passcode challenges keyed by
// (purpose, identifier). A challenge is single-use, attempt-bounded, and
// self-destructs via TTL; issuing again for the same key overwrites the
// prior challenge.
package otp

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/hallgard/authcore/internal/randx"
	"github.com/hallgard/authcore/notify"
)

// Purposes used by the engine. Callers may define their own; the purpose is
// part of the storage key, so distinct purposes never share a challenge.
const (
	PurposeRegistration  = "email_verification"
	PurposePasswordReset = "password_reset"
)

// ErrUnavailable wraps transport failures talking to the backing store.
var ErrUnavailable = errors.New("otp backend unavailable")

// Outcome is the result of a verification attempt.
type Outcome int

const (
	// OutcomeVerified: the code matched and the challenge was consumed.
	OutcomeVerified Outcome = iota
	// OutcomeInvalid: mismatch; the challenge remains live.
	OutcomeInvalid
	// OutcomeExhausted: the attempt budget is spent and the challenge was
	// deleted, regardless of what the submitted code was.
	OutcomeExhausted
	// OutcomeNotFound: no live challenge for the key.
	OutcomeNotFound
)

func (o Outcome) String() string {
	switch o {
	case OutcomeVerified:
		return "verified"
	case OutcomeInvalid:
		return "invalid"
	case OutcomeExhausted:
		return "exhausted"
	default:
		return "not_found"
	}
}

// Config holds challenge parameters.
type Config struct {
	Digits      int
	TTL         time.Duration
	MaxAttempts int
}

// Manager issues and verifies challenges. The optional deliverer is invoked
// after a challenge is stored; delivery failure never rolls the challenge
// back.
type Manager struct {
	redis     redis.UniversalClient
	config    Config
	deliverer notify.Deliverer
}

func NewManager(redisClient redis.UniversalClient, cfg Config, deliverer notify.Deliverer) *Manager {
	return &Manager{
		redis:     redisClient,
		config:    cfg,
		deliverer: deliverer,
	}
}

func codeKey(purpose, identifier string) string {
	return "otp:" + purpose + ":" + identifier
}

func attemptsKey(purpose, identifier string) string {
	return "otp_attempts:" + purpose + ":" + identifier
}

// Issue generates a fresh code for (purpose, identifier), resets the
// attempt counter, and overwrites any prior live challenge. The code is
// returned so transports that deliver in-band (tests, development consoles)
// can use it; production callers rely on the deliverer.
func (m *Manager) Issue(ctx context.Context, purpose, identifier string) (string, error) {
	code, err := randx.NumericCode(m.config.Digits)
	if err != nil {
		return "", err
	}

	if err := m.redis.Set(ctx, codeKey(purpose, identifier), code, m.config.TTL).Err(); err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if err := m.redis.Set(ctx, attemptsKey(purpose, identifier), 0, m.config.TTL).Err(); err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	if m.deliverer != nil {
		msg := notify.Message{
			Channel: channelFor(identifier),
			To:      identifier,
			Subject: "Your verification code",
			Body:    "Your verification code is " + code + ". It expires in " + m.config.TTL.String() + ".",
		}
		if err := m.deliverer.Deliver(ctx, msg); err != nil {
			// The challenge stays valid; the caller may re-trigger delivery.
			log.Printf("authcore: otp delivery failed for %s: %v", purpose, err)
		}
	}

	return code, nil
}

// Verify consumes one attempt against the live challenge. The attempt is
// counted before the code comparison, so stale or garbage input still burns
// budget. A verified or exhausted challenge is deleted; an invalid attempt
// leaves it live until the budget or TTL runs out.
func (m *Manager) Verify(ctx context.Context, purpose, identifier, submitted string) (Outcome, error) {
	ck := codeKey(purpose, identifier)
	ak := attemptsKey(purpose, identifier)

	attempts, err := m.redis.Incr(ctx, ak).Result()
	if err != nil {
		return OutcomeNotFound, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	if attempts >= int64(m.config.MaxAttempts) {
		if err := m.redis.Del(ctx, ck, ak).Err(); err != nil {
			return OutcomeNotFound, fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
		return OutcomeExhausted, nil
	}

	stored, err := m.redis.Get(ctx, ck).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			// The code expired (or never existed); drop the stray counter
			// the INCR above may have created.
			_ = m.redis.Del(ctx, ak).Err()
			return OutcomeNotFound, nil
		}
		return OutcomeNotFound, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	if subtle.ConstantTimeCompare([]byte(stored), []byte(submitted)) == 1 {
		if err := m.redis.Del(ctx, ck, ak).Err(); err != nil {
			return OutcomeNotFound, fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
		return OutcomeVerified, nil
	}

	return OutcomeInvalid, nil
}

func channelFor(identifier string) notify.Channel {
	if strings.Contains(identifier, "@") {
		return notify.ChannelEmail
	}
	return notify.ChannelSMS
}
