package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/GTDGit/costchecker/internal/utils"
)

func TestAdminLogin(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("pa55"), bcrypt.MinCost)
	require.NoError(t, err)
	svc := NewAdminAuthService("admin", string(hash), "secret", time.Hour)

	token, err := svc.Login("admin", "pa55")
	require.NoError(t, err)
	claims, err := utils.ValidateJWT("secret", token)
	require.NoError(t, err)
	assert.Equal(t, "admin", claims.Username)

	_, err = svc.Login("admin", "wrong")
	assert.ErrorIs(t, err, utils.ErrInvalidCredentials)

	_, err = svc.Login("root", "pa55")
	assert.ErrorIs(t, err, utils.ErrInvalidCredentials)
}

func TestAdminLoginDisabledWithoutHash(t *testing.T) {
	_, err := NewAdminAuthService("admin", "", "secret", 0).Login("admin", "x")
	assert.ErrorIs(t, err, utils.ErrNoCredentials)
}

func TestHashPassword(t *testing.T) {
	hash, err := HashPassword("pa55")
	require.NoError(t, err)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(hash), []byte("pa55")))
}
