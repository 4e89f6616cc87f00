package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestBcryptHasher(t *testing.T) {
	h := NewBcryptHasher(bcrypt.MinCost)

	hash, err := h.Hash("Str0ng!Pw")
	require.NoError(t, err)
	assert.NotEqual(t, "Str0ng!Pw", hash)
	assert.True(t, h.Compare("Str0ng!Pw", hash))
	assert.False(t, h.Compare("str0ng!Pw", hash))
	assert.False(t, h.Compare("Str0ng!Pw", "not-a-hash"))

	again, err := h.Hash("Str0ng!Pw")
	require.NoError(t, err)
	assert.NotEqual(t, hash, again, "hashes must be salted")

	_, err = h.Hash("")
	assert.Error(t, err)
}

func TestNewBcryptHasherCost(t *testing.T) {
	assert.Equal(t, bcrypt.DefaultCost, NewBcryptHasher(0).cost)
	assert.Equal(t, bcrypt.DefaultCost, NewBcryptHasher(bcrypt.MaxCost+1).cost)
	assert.Equal(t, 12, NewBcryptHasher(12).cost)

	h := NewBcryptHasher(bcrypt.DefaultCost)
	hash, err := h.Hash("Str0ng!Pw")
	require.NoError(t, err)
	cost, err := bcrypt.Cost([]byte(hash))
	require.NoError(t, err)
	assert.Equal(t, 10, cost)
}
