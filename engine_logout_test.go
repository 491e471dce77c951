package authcore_test

import (
	"context"
	"errors"
	"testing"

	"github.com/hallgard/authcore"
	"github.com/hallgard/authcore/internal/randx"
)

func TestLogout_RevokesBothTokens(t *testing.T) {
	f := newFixture(t, nil)
	id := f.seedIdentity(t, "alice@example.com", authcore.RoleAgent, authcore.RegistrationApproved)

	res := f.login(t, "alice@example.com")

	ctx := context.Background()
	if err := f.engine.Logout(ctx, res.AccessToken, res.RefreshToken); err != nil {
		t.Fatalf("Logout failed: %v", err)
	}

	if _, err := f.engine.ValidateAccess(ctx, res.AccessToken); !errors.Is(err, authcore.ErrUnauthorized) {
		t.Fatalf("access token after logout: expected ErrUnauthorized, got %v", err)
	}
	if _, err := f.engine.Refresh(ctx, res.RefreshToken); !errors.Is(err, authcore.ErrUnauthorized) {
		t.Fatalf("refresh token after logout: expected ErrUnauthorized, got %v", err)
	}

	for _, tok := range []string{res.AccessToken, res.RefreshToken} {
		key := "blacklist:" + randx.TokenDigest(tok)
		if !f.mr.Exists(key) {
			t.Fatalf("expected %s to exist", key)
		}
		if f.mr.TTL(key) <= 0 {
			t.Fatalf("blacklist entry %s must carry a TTL", key)
		}
	}
	if f.mr.Exists("refresh_token:" + id) {
		t.Fatal("refresh pointer should be gone after logout")
	}
	if f.mr.Exists("session:" + id) {
		t.Fatal("session snapshot should be gone after logout")
	}
}

func TestLogout_Idempotent(t *testing.T) {
	f := newFixture(t, nil)
	f.seedIdentity(t, "alice@example.com", authcore.RoleAgent, authcore.RegistrationApproved)

	res := f.login(t, "alice@example.com")

	ctx := context.Background()
	if err := f.engine.Logout(ctx, res.AccessToken, res.RefreshToken); err != nil {
		t.Fatalf("first Logout failed: %v", err)
	}
	if err := f.engine.Logout(ctx, res.AccessToken, res.RefreshToken); err != nil {
		t.Fatalf("repeated Logout failed: %v", err)
	}
}

func TestLogout_UnverifiableTokensAreNoOp(t *testing.T) {
	f := newFixture(t, nil)

	if err := f.engine.Logout(context.Background(), "garbage", "also-garbage"); err != nil {
		t.Fatalf("Logout with unverifiable tokens should succeed, got %v", err)
	}
}

func TestLogoutAll_KillsAllRefreshTokens(t *testing.T) {
	f := newFixture(t, nil)
	id := f.seedIdentity(t, "alice@example.com", authcore.RoleAgent, authcore.RegistrationApproved)

	res := f.login(t, "alice@example.com")

	ctx := context.Background()
	if err := f.engine.LogoutAll(ctx, id); err != nil {
		t.Fatalf("LogoutAll failed: %v", err)
	}

	if _, err := f.engine.Refresh(ctx, res.RefreshToken); !errors.Is(err, authcore.ErrUnauthorized) {
		t.Fatalf("refresh after LogoutAll: expected ErrUnauthorized, got %v", err)
	}
	if f.mr.Exists("session:" + id) {
		t.Fatal("session snapshot should be gone")
	}

	// Already-minted access tokens survive until expiry.
	if _, err := f.engine.ValidateAccess(ctx, res.AccessToken); err != nil {
		t.Fatalf("access token should remain valid after LogoutAll: %v", err)
	}

	// Repeating is harmless.
	if err := f.engine.LogoutAll(ctx, id); err != nil {
		t.Fatalf("repeated LogoutAll failed: %v", err)
	}
}
