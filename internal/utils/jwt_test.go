package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTRoundTrip(t *testing.T) {
	token, err := GenerateJWT("secret", "admin", time.Hour)
	require.NoError(t, err)

	claims, err := ValidateJWT("secret", token)
	require.NoError(t, err)
	assert.Equal(t, "admin", claims.Username)

	_, err = ValidateJWT("other-secret", token)
	assert.Error(t, err)
}

func TestJWTExpired(t *testing.T) {
	token, err := GenerateJWT("secret", "admin", -time.Minute)
	require.NoError(t, err)

	_, err = ValidateJWT("secret", token)
	assert.Error(t, err)
}
