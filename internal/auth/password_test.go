package auth

import (
	"strings"
	"testing"

	"peeps/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestPasswordHasher_RoundTrip(t *testing.T) {
	t.Parallel()
	h := NewPasswordHasher(bcrypt.MinCost)

	for _, plaintext := range []string{"abc123", "correct horse battery staple", "пароль", " "} {
		hash, err := h.Hash(plaintext)
		require.NoError(t, err)
		assert.NotEqual(t, plaintext, hash)
		assert.True(t, h.Verify(plaintext, hash), "plaintext %q", plaintext)
		assert.False(t, h.Verify(plaintext+"x", hash))
	}
}

func TestPasswordHasher_SaltsEachHash(t *testing.T) {
	t.Parallel()
	h := NewPasswordHasher(bcrypt.MinCost)

	first, err := h.Hash("same-input")
	require.NoError(t, err)
	second, err := h.Hash("same-input")
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
	assert.True(t, h.Verify("same-input", first))
	assert.True(t, h.Verify("same-input", second))
}

func TestPasswordHasher_MalformedHashIsMismatch(t *testing.T) {
	t.Parallel()
	h := NewPasswordHasher(bcrypt.MinCost)

	for _, hash := range []string{"", "not-a-hash", "$2a$04$short", strings.Repeat("$", 60)} {
		assert.False(t, h.Verify("abc123", hash), "hash %q", hash)
	}
}

func TestPasswordHasher_HashingErrors(t *testing.T) {
	t.Parallel()
	h := NewPasswordHasher(bcrypt.MinCost)

	_, err := h.Hash(string([]byte{0xff, 0xfe, 0xfd}))
	require.Error(t, err)
	assert.True(t, models.HasCode(err, models.CodeHashing))

	_, err = h.Hash(strings.Repeat("a", 73))
	require.Error(t, err)
	assert.True(t, models.HasCode(err, models.CodeHashing))
	assert.ErrorIs(t, err, bcrypt.ErrPasswordTooLong)
}

func TestNewPasswordHasher_DefaultsOutOfRangeCost(t *testing.T) {
	t.Parallel()
	assert.Equal(t, bcrypt.DefaultCost, NewPasswordHasher(0).cost)
	assert.Equal(t, bcrypt.DefaultCost, NewPasswordHasher(bcrypt.MaxCost+1).cost)
	assert.Equal(t, bcrypt.MinCost, NewPasswordHasher(bcrypt.MinCost).cost)
}
