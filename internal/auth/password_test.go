package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestHashPassword(t *testing.T) {
	first, err := HashPassword("secret1", bcrypt.MinCost)
	require.NoError(t, err)
	second, err := HashPassword("secret1", bcrypt.MinCost)
	require.NoError(t, err)

	assert.NotEqual(t, "secret1", first)
	assert.NotEqual(t, first, second)
	assert.NoError(t, ComparePassword(first, "secret1"))
	assert.ErrorIs(t, ComparePassword(first, "secret2"), ErrPasswordMismatch)
}

func TestHashPasswordClampsInvalidCost(t *testing.T) {
	hashed, err := HashPassword("secret1", 0)
	require.NoError(t, err)

	cost, err := bcrypt.Cost([]byte(hashed))
	require.NoError(t, err)
	assert.Equal(t, bcrypt.DefaultCost, cost)
}

func TestComparePasswordMalformedHash(t *testing.T) {
	err := ComparePassword("plain-text", "plain-text")
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrPasswordMismatch)
}
