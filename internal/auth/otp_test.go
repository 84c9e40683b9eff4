package auth

import (
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashOTPHex_consistency(t *testing.T) {
	email, code, salt := "ada@example.com", "123456", "test-salt"
	h1 := hashOTPHex(email, code, salt)
	h2 := hashOTPHex(email, code, salt)
	assert.Equal(t, h1, h2, "hash should be deterministic")

	decoded, err := hex.DecodeString(h1)
	require.NoError(t, err)
	assert.Len(t, decoded, 32)
}

func TestHashOTPHex_differentInputsDifferentHash(t *testing.T) {
	salt := "salt"
	h1 := hashOTPHex("ada@example.com", "123456", salt)
	h2 := hashOTPHex("bob@example.com", "123456", salt)
	h3 := hashOTPHex("ada@example.com", "654321", salt)
	h4 := hashOTPHex("ada@example.com", "123456", "other-salt")
	assert.NotEqual(t, h1, h2)
	assert.NotEqual(t, h1, h3)
	assert.NotEqual(t, h1, h4)
}

func TestHashesEqual(t *testing.T) {
	assert.True(t, hashesEqual("same", "same"))
	assert.False(t, hashesEqual("same", "diff"))
	assert.False(t, hashesEqual("a", "ab"))
	assert.False(t, hashesEqual("", "x"))
}

func TestRandomCode(t *testing.T) {
	for i := 0; i < 200; i++ {
		code, err := RandomCode()
		require.NoError(t, err)
		require.Len(t, code, 6)
		for _, c := range code {
			require.True(t, c >= '0' && c <= '9', code)
		}
		assert.NotEqual(t, byte('0'), code[0])
	}
}

func TestHasher(t *testing.T) {
	h := NewHasher(4)
	hash, err := h.Hash("secret1")
	require.NoError(t, err)
	assert.NotEqual(t, "secret1", hash)
	assert.True(t, h.Matches(hash, "secret1"))
	assert.False(t, h.Matches(hash, "secret2"))
	assert.False(t, h.Matches("not-a-hash", "secret1"))

	assert.Equal(t, 31, NewHasher(99).Cost)
}
