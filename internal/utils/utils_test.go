package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestPasswordRoundTrip(t *testing.T) {
	hash, err := HashPassword("s3cret", bcrypt.MinCost)
	require.NoError(t, err)
	assert.True(t, VerifyPassword(hash, "s3cret"))
	assert.False(t, VerifyPassword(hash, "S3cret"))

	// out of range cost still hashes
	_, err = HashPassword("s3cret", 99)
	assert.NoError(t, err)
}

func TestAccessToken(t *testing.T) {
	now := time.Now()
	tok, err := NewAccessToken("k", 42, "ada", time.Minute, now)
	require.NoError(t, err)
	assert.WithinDuration(t, now.Add(time.Minute), tok.Exp, time.Second)

	id, name, err := ParseAccessToken("k", tok.Token)
	require.NoError(t, err)
	assert.Equal(t, uint64(42), id)
	assert.Equal(t, "ada", name)

	_, _, err = ParseAccessToken("other", tok.Token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	old, err := NewAccessToken("k", 42, "ada", time.Minute, now.Add(-time.Hour))
	require.NoError(t, err)
	_, _, err = ParseAccessToken("k", old.Token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, _, err = ParseAccessToken("k", "not-a-jwt")
	assert.ErrorIs(t, err, ErrInvalidToken)
}
