package authcore_test

import (
	"errors"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/hallgard/authcore"
	"github.com/hallgard/authcore/memstore"
)

func TestBuild_MissingRedis(t *testing.T) {
	cfg := authcore.DefaultConfig()
	cfg.Token.SecretKey = []byte(testSecretKey)

	_, err := authcore.New().
		WithConfig(cfg).
		WithIdentityStore(memstore.New()).
		Build()
	if !errors.Is(err, authcore.ErrEngineNotReady) {
		t.Fatalf("expected ErrEngineNotReady, got %v", err)
	}
}

func TestBuild_MissingIdentityStore(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis.Run failed: %v", err)
	}
	t.Cleanup(mr.Close)

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	cfg := authcore.DefaultConfig()
	cfg.Token.SecretKey = []byte(testSecretKey)

	_, err = authcore.New().
		WithConfig(cfg).
		WithRedis(rdb).
		Build()
	if !errors.Is(err, authcore.ErrEngineNotReady) {
		t.Fatalf("expected ErrEngineNotReady, got %v", err)
	}
}

func TestBuild_RejectsShortSecretKey(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis.Run failed: %v", err)
	}
	t.Cleanup(mr.Close)

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	_, err = authcore.New().
		WithSecretKey([]byte("short")).
		WithRedis(rdb).
		WithIdentityStore(memstore.New()).
		Build()
	if err == nil {
		t.Fatal("expected Build to reject a short hs256 key")
	}
}
