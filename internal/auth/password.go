// Package auth holds the credential hasher, the stateless bearer token
// service and the guard that protected routes run on every request.
package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"fmt"

	"golang.org/x/crypto/pbkdf2"
)

// PBKDF2 parameters. Changing any of them invalidates every stored hash.
const (
	pbkdf2Iterations = 100000
	pbkdf2KeyLen     = 32 // bytes
	saltLen          = 16 // bytes
)

// GenerateSalt returns saltLen random bytes in standard base64.
func GenerateSalt() (string, error) {
	salt := make([]byte, saltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", environmentError(ErrCryptoUnavailable, err)
	}
	return base64.StdEncoding.EncodeToString(salt), nil
}

// HashPassword derives the PBKDF2-HMAC-SHA256 hash of password under the
// base64 encoded salt and returns it in standard base64.
func HashPassword(password, salt string) (string, error) {
	key, err := deriveKey(password, salt)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(key), nil
}

// VerifyPassword reports whether password hashes to storedHash under salt.
// Any decode failure counts as a mismatch.
func VerifyPassword(password, storedHash, salt string) bool {
	want, err := base64.StdEncoding.DecodeString(storedHash)
	if err != nil || len(want) != pbkdf2KeyLen {
		return false
	}
	got, err := deriveKey(password, salt)
	if err != nil {
		return false
	}
	return subtle.ConstantTimeCompare(got, want) == 1
}

func deriveKey(password, salt string) ([]byte, error) {
	if password == "" {
		return nil, ErrEmptyPassword
	}
	raw, err := base64.StdEncoding.DecodeString(salt)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSalt, err)
	}
	return pbkdf2.Key([]byte(password), raw, pbkdf2Iterations, pbkdf2KeyLen, sha256.New), nil
}
