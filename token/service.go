// Package token owns the lifetime of minted credential pairs: the single
// refresh pointer each subject may hold, and the revocation blacklist.
//
// Two storage postures apply. The refresh pointer and blacklist are both
// read fail-closed: if the store cannot answer, the token is rejected. A
// forged-but-unverifiable token is worse than a bounced legitimate one.
package token

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/hallgard/authcore/internal/randx"
	"github.com/hallgard/authcore/jwt"
)

var (
	// ErrRejected means the token failed verification: bad signature,
	// expired, wrong type, blacklisted, or superseded by a newer issue.
	ErrRejected = errors.New("token rejected")
	// ErrUnavailable wraps transport failures talking to the backing store.
	ErrUnavailable = errors.New("token backend unavailable")
)

// Pair is a freshly minted access/refresh pair.
type Pair struct {
	AccessToken  string
	RefreshToken string
	ExpiresIn    int64 // access token lifetime, seconds
}

// Service mints pairs and enforces the single-refresh-pointer and blacklist
// invariants.
type Service struct {
	redis      redis.UniversalClient
	jwts       *jwt.Manager
	accessTTL  time.Duration
	refreshTTL time.Duration

	now func() time.Time
}

func NewService(redisClient redis.UniversalClient, jwts *jwt.Manager, accessTTL, refreshTTL time.Duration) *Service {
	return &Service{
		redis:      redisClient,
		jwts:       jwts,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		now:        time.Now,
	}
}

func pointerKey(subject string) string {
	return "refresh_token:" + subject
}

func blacklistKey(tokenStr string) string {
	return "blacklist:" + randx.TokenDigest(tokenStr)
}

// Issue mints a new pair for subject and overwrites the subject's refresh
// pointer. Any previously issued refresh token stops validating from this
// point, even though its signature is still good.
func (s *Service) Issue(ctx context.Context, subject, role string) (Pair, error) {
	access, err := s.jwts.MintAccess(subject, role)
	if err != nil {
		return Pair{}, err
	}
	refresh, err := s.jwts.MintRefresh(subject)
	if err != nil {
		return Pair{}, err
	}

	if err := s.redis.Set(ctx, pointerKey(subject), refresh, s.refreshTTL).Err(); err != nil {
		return Pair{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	return Pair{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresIn:    int64(s.accessTTL.Seconds()),
	}, nil
}

// ValidateRefresh verifies a presented refresh token end to end: signature
// and expiry, type discriminator, blacklist membership, and byte equality
// with the subject's live pointer. Storage faults on either read reject the
// token.
func (s *Service) ValidateRefresh(ctx context.Context, tokenStr string) (*jwt.Claims, error) {
	claims, err := s.jwts.Parse(tokenStr)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRejected, err)
	}
	if claims.TokenType != jwt.TypeRefresh {
		return nil, fmt.Errorf("%w: not a refresh token", ErrRejected)
	}

	listed, err := s.IsBlacklisted(ctx, tokenStr)
	if err != nil {
		return nil, err
	}
	if listed {
		return nil, fmt.Errorf("%w: revoked", ErrRejected)
	}

	current, err := s.redis.Get(ctx, pointerKey(claims.Subject)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, fmt.Errorf("%w: no live refresh token", ErrRejected)
		}
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if subtle.ConstantTimeCompare([]byte(current), []byte(tokenStr)) != 1 {
		return nil, fmt.Errorf("%w: superseded", ErrRejected)
	}

	return claims, nil
}

// ValidateAccess verifies a presented access token: signature and expiry,
// type discriminator, and blacklist membership. A storage fault on the
// blacklist read rejects the token.
func (s *Service) ValidateAccess(ctx context.Context, tokenStr string) (*jwt.Claims, error) {
	claims, err := s.jwts.Parse(tokenStr)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRejected, err)
	}
	if claims.TokenType != jwt.TypeAccess {
		return nil, fmt.Errorf("%w: not an access token", ErrRejected)
	}

	listed, err := s.IsBlacklisted(ctx, tokenStr)
	if err != nil {
		return nil, err
	}
	if listed {
		return nil, fmt.Errorf("%w: revoked", ErrRejected)
	}

	return claims, nil
}

// RotateAccess mints a fresh access token against an already-validated
// refresh token. The refresh token and its pointer are left untouched; it
// remains usable until it expires or the subject logs in again.
func (s *Service) RotateAccess(subject, role, refreshToken string) (Pair, error) {
	access, err := s.jwts.MintAccess(subject, role)
	if err != nil {
		return Pair{}, err
	}
	return Pair{
		AccessToken:  access,
		RefreshToken: refreshToken,
		ExpiresIn:    int64(s.accessTTL.Seconds()),
	}, nil
}

// IsBlacklisted reports whether the token's digest is on the blacklist.
// Callers must treat a returned error as "assume revoked".
func (s *Service) IsBlacklisted(ctx context.Context, tokenStr string) (bool, error) {
	n, err := s.redis.Exists(ctx, blacklistKey(tokenStr)).Result()
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return n > 0, nil
}

// Blacklist records the token's digest for the remainder of the token's own
// lifetime. Expired and unparseable tokens are skipped: they already fail
// signature or expiry checks, so listing them would only grow the set.
func (s *Service) Blacklist(ctx context.Context, tokenStr string) error {
	if tokenStr == "" {
		return nil
	}
	claims, err := s.jwts.ParseForRevocation(tokenStr)
	if err != nil {
		return nil
	}
	remaining := claims.ExpiresAt.Time.Sub(s.now())
	if remaining <= 0 {
		return nil
	}
	if err := s.redis.Set(ctx, blacklistKey(tokenStr), 1, remaining).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

// Revoke ends one session: both presented tokens go on the blacklist and
// the subject's refresh pointer is dropped. Each step is attempted even if
// an earlier one failed; the first failure is reported.
func (s *Service) Revoke(ctx context.Context, subject, accessToken, refreshToken string) error {
	var firstErr error
	if err := s.Blacklist(ctx, accessToken); err != nil {
		firstErr = err
	}
	if err := s.Blacklist(ctx, refreshToken); err != nil && firstErr == nil {
		firstErr = err
	}
	if err := s.redis.Del(ctx, pointerKey(subject)).Err(); err != nil && firstErr == nil {
		firstErr = fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return firstErr
}

// RevokeAll drops the subject's refresh pointer, killing every outstanding
// refresh token at once. Already-minted access tokens keep working until
// they expire unless individually blacklisted. Idempotent.
func (s *Service) RevokeAll(ctx context.Context, subject string) error {
	if err := s.redis.Del(ctx, pointerKey(subject)).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}
