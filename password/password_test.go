package password

import (
	"errors"
	"testing"
)

func TestPolicy_Validate(t *testing.T) {
	policy := DefaultPolicy()

	tests := []struct {
		name      string
		candidate string
		ok        bool
	}{
		{"acceptable", "Sup3rSecret", true},
		{"too short", "Ab1x", false},
		{"no upper", "sup3rsecret", false},
		{"no lower", "SUP3RSECRET", false},
		{"no digit", "SuperSecret", false},
		{"empty", "", false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := policy.Validate(tc.candidate)
			if tc.ok && err != nil {
				t.Fatalf("Validate(%q) = %v, want nil", tc.candidate, err)
			}
			if !tc.ok && !errors.Is(err, ErrPolicy) {
				t.Fatalf("Validate(%q) = %v, want ErrPolicy", tc.candidate, err)
			}
		})
	}
}

func TestPolicy_RequireSpecial(t *testing.T) {
	policy := DefaultPolicy()
	policy.RequireSpecial = true

	if err := policy.Validate("Sup3rSecret"); !errors.Is(err, ErrPolicy) {
		t.Fatalf("expected ErrPolicy without a special char, got %v", err)
	}
	if err := policy.Validate("Sup3rSecret!"); err != nil {
		t.Fatalf("Validate with special char failed: %v", err)
	}
}

func TestHasher_HashAndVerify(t *testing.T) {
	hasher, err := NewHasher(4)
	if err != nil {
		t.Fatalf("NewHasher failed: %v", err)
	}

	hash, err := hasher.Hash("Sup3rSecret")
	if err != nil {
		t.Fatalf("Hash failed: %v", err)
	}
	if hash == "Sup3rSecret" {
		t.Fatal("hash must not equal the plaintext")
	}

	if !hasher.Verify("Sup3rSecret", hash) {
		t.Fatal("correct password should verify")
	}
	if hasher.Verify("wrong", hash) {
		t.Fatal("wrong password should not verify")
	}
	if hasher.Verify("Sup3rSecret", "not-a-bcrypt-hash") {
		t.Fatal("malformed hash should not verify")
	}
}

func TestNewHasher_CostBounds(t *testing.T) {
	if _, err := NewHasher(0); err != nil {
		t.Fatalf("zero cost should default, got %v", err)
	}
	if _, err := NewHasher(99); err == nil {
		t.Fatal("out-of-range cost should be rejected")
	}
}
