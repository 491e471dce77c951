// Package password provides bcrypt credential hashing and the acceptance
// policy applied before a password is ever hashed.
package password

import (
	"errors"
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/crypto/bcrypt"
)

// ErrPolicy is the target for errors.Is on policy rejections. The wrapped
// message names the first failed rule and is safe to surface.
var ErrPolicy = errors.New("password policy violation")

// Policy is the set of acceptance rules. Zero value accepts everything;
// use DefaultPolicy for the service defaults.
type Policy struct {
	MinLength      int
	RequireUpper   bool
	RequireLower   bool
	RequireDigit   bool
	RequireSpecial bool
}

// DefaultPolicy matches the service's account-security baseline.
func DefaultPolicy() Policy {
	return Policy{
		MinLength:    8,
		RequireUpper: true,
		RequireLower: true,
		RequireDigit: true,
	}
}

const specialChars = "!@#$%^&*()_+-=[]{}|;:,.<>?"

// Validate checks candidate against the policy.
func (p Policy) Validate(candidate string) error {
	if len(candidate) < p.MinLength {
		return fmt.Errorf("%w: must be at least %d characters", ErrPolicy, p.MinLength)
	}

	var hasUpper, hasLower, hasDigit, hasSpecial bool
	for _, r := range candidate {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsDigit(r):
			hasDigit = true
		}
		if strings.ContainsRune(specialChars, r) {
			hasSpecial = true
		}
	}

	if p.RequireUpper && !hasUpper {
		return fmt.Errorf("%w: must contain an uppercase letter", ErrPolicy)
	}
	if p.RequireLower && !hasLower {
		return fmt.Errorf("%w: must contain a lowercase letter", ErrPolicy)
	}
	if p.RequireDigit && !hasDigit {
		return fmt.Errorf("%w: must contain a digit", ErrPolicy)
	}
	if p.RequireSpecial && !hasSpecial {
		return fmt.Errorf("%w: must contain a special character", ErrPolicy)
	}

	return nil
}

// Hasher wraps bcrypt with a fixed cost. The zero cost means
// bcrypt.DefaultCost.
type Hasher struct {
	cost int
}

func NewHasher(cost int) (*Hasher, error) {
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		return nil, errors.New("bcrypt cost out of range")
	}
	return &Hasher{cost: cost}, nil
}

// Hash returns the bcrypt hash of plaintext.
func (h *Hasher) Hash(plaintext string) (string, error) {
	out, err := bcrypt.GenerateFromPassword([]byte(plaintext), h.cost)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// Verify reports whether plaintext matches hash. Malformed hashes verify
// false without error detail: on the login path every mismatch looks alike.
func (h *Hasher) Verify(plaintext, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext)) == nil
}
