package utils

import "errors"

// Common application errors used across services.
var (
	ErrInvalidToken       = errors.New("INVALID_TOKEN")
	ErrInvalidCredentials = errors.New("INVALID_CREDENTIALS")
	ErrProductNotFound    = errors.New("PRODUCT_NOT_FOUND")
	ErrPriceNotFound      = errors.New("PRICE_NOT_FOUND")
	ErrSessionNotFound    = errors.New("SESSION_NOT_FOUND")
	ErrNoCredentials      = errors.New("NO_CREDENTIALS")
)
