// Package randx holds the engine's crypto-random helpers.
package randx

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"math/big"
	"strings"
)

var ten = big.NewInt(10)

// NumericCode returns a crypto-random numeric string of the given length.
// Each digit is drawn independently so the code is uniform over 10^digits.
func NumericCode(digits int) (string, error) {
	if digits < 4 || digits > 10 {
		return "", errors.New("invalid code length")
	}

	var b strings.Builder
	b.Grow(digits)

	for i := 0; i < digits; i++ {
		n, err := rand.Int(rand.Reader, ten)
		if err != nil {
			return "", err
		}
		b.WriteByte(byte('0' + n.Int64()))
	}

	return b.String(), nil
}

// TokenDigest returns the hex SHA-256 of a token string. Tokens are stored
// and looked up in the blacklist by digest, never by value.
func TokenDigest(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
