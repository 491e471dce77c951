package authcore_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/hallgard/authcore"
	"github.com/hallgard/authcore/memstore"
	"github.com/hallgard/authcore/password"
)

const (
	testSecretKey = "0123456789abcdef0123456789abcdef"
	testPassword  = "Sup3rSecret!pw"
)

// fakeClock is a manually advanced time source shared with the engine.
type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Now()}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

type fixture struct {
	engine *authcore.Engine
	mr     *miniredis.Miniredis
	store  *memstore.Store
	clock  *fakeClock
	rdb    *redis.Client
}

// newFixture builds an engine over miniredis and an in-memory identity
// store. mutate may adjust the config before the engine is built.
func newFixture(t *testing.T, mutate func(*authcore.Config)) *fixture {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis.Run failed: %v", err)
	}
	t.Cleanup(mr.Close)

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	cfg := authcore.DefaultConfig()
	cfg.Token.SecretKey = []byte(testSecretKey)
	cfg.Password.BcryptCost = 4 // MinCost, keeps the suite fast
	if mutate != nil {
		mutate(&cfg)
	}

	store := memstore.New()
	clock := newFakeClock()

	engine, err := authcore.New().
		WithConfig(cfg).
		WithRedis(rdb).
		WithIdentityStore(store).
		WithClock(clock.Now).
		Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	t.Cleanup(engine.Close)

	return &fixture{engine: engine, mr: mr, store: store, clock: clock, rdb: rdb}
}

// seedIdentity creates an account directly in the store and returns its id.
func (f *fixture) seedIdentity(t *testing.T, email string, role authcore.Role, status authcore.RegistrationStatus) string {
	t.Helper()

	hasher, err := password.NewHasher(4)
	if err != nil {
		t.Fatalf("NewHasher failed: %v", err)
	}
	hash, err := hasher.Hash(testPassword)
	if err != nil {
		t.Fatalf("Hash failed: %v", err)
	}

	identity := &authcore.Identity{
		ID:                 uuid.NewString(),
		Email:              email,
		PasswordHash:       hash,
		Role:               role,
		Active:             true,
		Verified:           true,
		RegistrationStatus: status,
		CreatedAt:          f.clock.Now(),
		UpdatedAt:          f.clock.Now(),
	}
	if err := f.store.Create(context.Background(), identity); err != nil {
		t.Fatalf("seeding identity: %v", err)
	}
	return identity.ID
}

// login is a shorthand for a login expected to succeed.
func (f *fixture) login(t *testing.T, identifier string) *authcore.LoginResult {
	t.Helper()

	res, err := f.engine.Login(context.Background(), identifier, testPassword)
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	return res
}
