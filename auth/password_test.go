package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashPassword(t *testing.T) {
	digest, err := HashPassword("pw1")
	require.NoError(t, err)

	assert.NotEmpty(t, digest)
	assert.NotEqual(t, "pw1", digest, "digest must never equal the plaintext")
}

func TestHashPassword_SaltUniqueness(t *testing.T) {
	first, err := HashPassword("same-password")
	require.NoError(t, err)
	second, err := HashPassword("same-password")
	require.NoError(t, err)

	assert.NotEqual(t, first, second, "two hashes of the same input must differ")
	assert.True(t, VerifyPassword(first, "same-password"))
	assert.True(t, VerifyPassword(second, "same-password"))
}

func TestVerifyPassword(t *testing.T) {
	digest, err := HashPassword("correct horse")
	require.NoError(t, err)

	assert.True(t, VerifyPassword(digest, "correct horse"))
	assert.False(t, VerifyPassword(digest, "wrong horse"))
	assert.False(t, VerifyPassword(digest, ""))
}

func TestVerifyPassword_MalformedDigestFailsClosed(t *testing.T) {
	assert.False(t, VerifyPassword("", "anything"))
	assert.False(t, VerifyPassword("not-a-bcrypt-digest", "anything"))
	assert.False(t, VerifyPassword("$2a$broken", "anything"))
}
