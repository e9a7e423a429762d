package service

import (
	"crypto/subtle"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"

	"github.com/GTDGit/costchecker/internal/utils"
)

// AdminAuthService authenticates the single analytics admin account.
type AdminAuthService struct {
	username     string
	passwordHash string
	jwtSecret    string
	tokenTTL     time.Duration
}

func NewAdminAuthService(username, passwordHash, jwtSecret string, tokenTTL time.Duration) *AdminAuthService {
	if tokenTTL <= 0 {
		tokenTTL = 24 * time.Hour
	}
	return &AdminAuthService{
		username:     username,
		passwordHash: passwordHash,
		jwtSecret:    jwtSecret,
		tokenTTL:     tokenTTL,
	}
}

// Login verifies the bcrypt password and returns a signed token. It returns
// utils.ErrNoCredentials when no admin password is configured.
func (s *AdminAuthService) Login(username, password string) (string, error) {
	if s.passwordHash == "" {
		log.Warn().Msg("Admin login attempted but ADMIN_PASSWORD_HASH is not set")
		return "", utils.ErrNoCredentials
	}

	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(s.username)) == 1
	if err := bcrypt.CompareHashAndPassword([]byte(s.passwordHash), []byte(password)); err != nil || !userOK {
		log.Warn().Str("username", username).Msg("Admin login failed")
		return "", utils.ErrInvalidCredentials
	}

	log.Info().Str("username", username).Msg("Login successful")
	return utils.GenerateJWT(s.jwtSecret, username, s.tokenTTL)
}

// HashPassword returns a bcrypt hash suitable for ADMIN_PASSWORD_HASH.
func HashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}
