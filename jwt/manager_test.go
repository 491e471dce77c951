package jwt

import (
	"crypto/ed25519"
	"crypto/rand"
	"errors"
	"testing"
	"time"
)

const testKey = "0123456789abcdef0123456789abcdef"

func testConfig() Config {
	return Config{
		AccessTTL:     15 * time.Minute,
		RefreshTTL:    7 * 24 * time.Hour,
		SigningMethod: MethodHS256,
		SecretKey:     []byte(testKey),
		Issuer:        "jwt-test",
	}
}

func newTestManager(t *testing.T, cfg Config) *Manager {
	t.Helper()
	m, err := NewManager(cfg)
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}
	return m
}

func TestMintAccess_RoundTrip(t *testing.T) {
	m := newTestManager(t, testConfig())

	tokenStr, err := m.MintAccess("subj-1", "agent")
	if err != nil {
		t.Fatalf("MintAccess failed: %v", err)
	}

	claims, err := m.Parse(tokenStr)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if claims.Subject != "subj-1" {
		t.Fatalf("subject = %q, want subj-1", claims.Subject)
	}
	if claims.Role != "agent" {
		t.Fatalf("role = %q, want agent", claims.Role)
	}
	if claims.TokenType != TypeAccess {
		t.Fatalf("type = %q, want access", claims.TokenType)
	}
	if claims.ExpiresAt == nil || time.Until(claims.ExpiresAt.Time) > 15*time.Minute {
		t.Fatal("access expiry should be at most the access TTL away")
	}
}

func TestMintRefresh_CarriesNoRole(t *testing.T) {
	m := newTestManager(t, testConfig())

	tokenStr, err := m.MintRefresh("subj-1")
	if err != nil {
		t.Fatalf("MintRefresh failed: %v", err)
	}

	claims, err := m.Parse(tokenStr)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if claims.TokenType != TypeRefresh {
		t.Fatalf("type = %q, want refresh", claims.TokenType)
	}
	if claims.Role != "" {
		t.Fatalf("refresh token carries role %q", claims.Role)
	}
}

func TestParse_RejectsWrongKey(t *testing.T) {
	m := newTestManager(t, testConfig())

	other := testConfig()
	other.SecretKey = []byte("ffffffffffffffffffffffffffffffff")
	forger := newTestManager(t, other)

	tokenStr, err := forger.MintAccess("subj-1", "admin")
	if err != nil {
		t.Fatalf("MintAccess failed: %v", err)
	}
	if _, err := m.Parse(tokenStr); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("expected ErrTokenInvalid for foreign signature, got %v", err)
	}
}

func TestParse_RejectsWrongIssuer(t *testing.T) {
	m := newTestManager(t, testConfig())

	other := testConfig()
	other.Issuer = "someone-else"
	minter := newTestManager(t, other)

	tokenStr, err := minter.MintAccess("subj-1", "agent")
	if err != nil {
		t.Fatalf("MintAccess failed: %v", err)
	}
	if _, err := m.Parse(tokenStr); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("expected ErrTokenInvalid for wrong issuer, got %v", err)
	}
}

func TestParse_RejectsGarbage(t *testing.T) {
	m := newTestManager(t, testConfig())

	for _, tokenStr := range []string{"", "x", "a.b.c"} {
		if _, err := m.Parse(tokenStr); !errors.Is(err, ErrTokenInvalid) {
			t.Fatalf("Parse(%q): expected ErrTokenInvalid, got %v", tokenStr, err)
		}
	}
}

func TestParseForRevocation_AcceptsExpired(t *testing.T) {
	cfg := testConfig()
	cfg.AccessTTL = time.Millisecond
	m := newTestManager(t, cfg)

	tokenStr, err := m.MintAccess("subj-1", "agent")
	if err != nil {
		t.Fatalf("MintAccess failed: %v", err)
	}
	time.Sleep(5 * time.Millisecond)

	if _, err := m.Parse(tokenStr); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("expected Parse to reject the expired token, got %v", err)
	}

	claims, err := m.ParseForRevocation(tokenStr)
	if err != nil {
		t.Fatalf("ParseForRevocation failed: %v", err)
	}
	if claims.Subject != "subj-1" {
		t.Fatalf("subject = %q, want subj-1", claims.Subject)
	}
}

func mustEdKeyPair(t *testing.T) (pub, priv []byte) {
	t.Helper()
	pubKey, privKey, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("generating ed25519 keys: %v", err)
	}
	return pubKey, privKey
}

func TestEd25519_RoundTrip(t *testing.T) {
	pub, priv := mustEdKeyPair(t)

	cfg := testConfig()
	cfg.SigningMethod = MethodEd25519
	cfg.SecretKey = nil
	cfg.PrivateKey = priv
	cfg.PublicKey = pub
	m := newTestManager(t, cfg)

	tokenStr, err := m.MintAccess("subj-1", "owner")
	if err != nil {
		t.Fatalf("MintAccess failed: %v", err)
	}
	claims, err := m.Parse(tokenStr)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if claims.Role != "owner" {
		t.Fatalf("role = %q, want owner", claims.Role)
	}
}
