package crypto

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashAndCheck(t *testing.T) {
	hash, err := HashPasswordAsBcrypt("s3cret")
	require.NoError(t, err)

	assert.NotEqual(t, "s3cret", hash)
	assert.True(t, CheckPasswordHash(hash, "s3cret"))
	assert.False(t, CheckPasswordHash(hash, "S3cret"))
	assert.False(t, CheckPasswordHash("not-a-hash", "s3cret"))
}

func TestHashIsSalted(t *testing.T) {
	a, err := HashPasswordAsBcrypt("same")
	require.NoError(t, err)
	b, err := HashPasswordAsBcrypt("same")
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestDeriveKey(t *testing.T) {
	secret := []byte("master")

	k1, err := DeriveKey(secret, "cookie-hash", 64)
	require.NoError(t, err)
	k2, err := DeriveKey(secret, "cookie-hash", 64)
	require.NoError(t, err)
	k3, err := DeriveKey(secret, "cookie-block", 64)
	require.NoError(t, err)

	assert.Len(t, k1, 64)
	assert.Equal(t, k1, k2)
	assert.NotEqual(t, k1, k3)
}
