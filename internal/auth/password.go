// Package auth holds credential hashing, bearer token issuance and the
// request guard that turns a token back into a user.
package auth

import (
	"errors"
	"unicode/utf8"

	"peeps/internal/models"

	"golang.org/x/crypto/bcrypt"
)

var errInvalidEncoding = errors.New("password is not valid UTF-8")

// PasswordHasher hashes and verifies passwords with bcrypt.
type PasswordHasher struct {
	cost int
}

// NewPasswordHasher returns a hasher using cost, or bcrypt.DefaultCost when
// cost is out of bcrypt's accepted range.
func NewPasswordHasher(cost int) *PasswordHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &PasswordHasher{cost: cost}
}

// Hash returns a salted bcrypt hash of plaintext. Failures are hashing
// errors, never authentication failures.
func (h *PasswordHasher) Hash(plaintext string) (string, error) {
	if !utf8.ValidString(plaintext) {
		return "", models.NewHashingError(errInvalidEncoding)
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(plaintext), h.cost)
	if err != nil {
		return "", models.NewHashingError(err)
	}
	return string(hashed), nil
}

// Verify reports whether plaintext matches hash. A malformed hash is a mismatch.
func (h *PasswordHasher) Verify(plaintext, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext)) == nil
}
