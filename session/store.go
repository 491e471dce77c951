// Package session caches a small per-subject snapshot of the most recent
// login. The cache is advisory: token validation never depends on it, and a
// missing snapshot is not an error.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrUnavailable wraps transport failures talking to the backing store.
var ErrUnavailable = errors.New("session backend unavailable")

// Snapshot describes the live session for a subject.
type Snapshot struct {
	Subject string    `json:"subject"`
	Role    string    `json:"role"`
	LoginAt time.Time `json:"login_at"`
	Origin  string    `json:"origin,omitempty"`
}

// Store persists snapshots keyed by subject with a fixed TTL.
type Store struct {
	redis redis.UniversalClient
	ttl   time.Duration
}

func NewStore(redisClient redis.UniversalClient, ttl time.Duration) *Store {
	return &Store{redis: redisClient, ttl: ttl}
}

func key(subject string) string {
	return "session:" + subject
}

// Save writes the snapshot for its subject, replacing any prior one.
func (s *Store) Save(ctx context.Context, snap Snapshot) error {
	raw, err := json.Marshal(snap)
	if err != nil {
		return err
	}
	if err := s.redis.Set(ctx, key(snap.Subject), raw, s.ttl).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

// Get returns the snapshot for subject, or (nil, nil) when none exists.
func (s *Store) Get(ctx context.Context, subject string) (*Snapshot, error) {
	raw, err := s.redis.Get(ctx, key(subject)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	var snap Snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return nil, err
	}
	return &snap, nil
}

// Delete removes the snapshot for subject. Deleting a missing snapshot is
// not an error.
func (s *Store) Delete(ctx context.Context, subject string) error {
	if err := s.redis.Del(ctx, key(subject)).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}
