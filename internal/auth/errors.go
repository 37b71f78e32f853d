package auth

import (
	"errors"
	"fmt"
)

// Validation errors are caller bugs and map to 400.
var (
	ErrEmptyPassword = errors.New("password cannot be empty")
	ErrInvalidSalt   = errors.New("salt is not valid base64")
)

// Authentication failures are expected outcomes and map to 401.
var (
	ErrMissingCredentials    = errors.New("authentication required")
	ErrMalformedToken        = errors.New("invalid token format")
	ErrInvalidSignature      = errors.New("invalid signature")
	ErrVerificationFailed    = errors.New("token verification failed")
	ErrTokenExpired          = errors.New("token expired")
	ErrInvalidOrExpiredToken = errors.New("invalid or expired token")
)

// Environment failures are operator facing and map to 500.
var (
	ErrServerMisconfigured = errors.New("server configuration error")
	ErrCryptoUnavailable   = errors.New("cryptographic primitive unavailable")
)

// IsEnvironmentError reports whether err was caused by the server's own
// setup rather than by the client.
func IsEnvironmentError(err error) bool {
	return errors.Is(err, ErrServerMisconfigured) || errors.Is(err, ErrCryptoUnavailable)
}

var messages = []struct {
	err error
	msg string
}{
	{ErrMissingCredentials, "Authentication required"},
	{ErrServerMisconfigured, "Server configuration error"},
	{ErrCryptoUnavailable, "Server configuration error"},
	{ErrMalformedToken, "Invalid token format"},
	{ErrInvalidSignature, "Invalid signature"},
	{ErrTokenExpired, "Token expired"},
	{ErrVerificationFailed, "Token verification failed"},
	{ErrInvalidOrExpiredToken, "Invalid token"},
}

// Message returns the client facing text for an auth error. The most
// specific known reason wins.
func Message(err error) string {
	for _, m := range messages {
		if errors.Is(err, m.err) {
			return m.msg
		}
	}
	return "Invalid token"
}

func environmentError(base error, cause error) error {
	return fmt.Errorf("%w: %w", base, cause)
}
