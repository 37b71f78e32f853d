package auth_test

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/pvptracker/internal/auth"
)

func TestGenerateSalt(t *testing.T) {
	t.Run("16 random bytes in std base64", func(t *testing.T) {
		salt, err := auth.GenerateSalt()
		require.NoError(t, err)

		raw, err := base64.StdEncoding.DecodeString(salt)
		require.NoError(t, err)
		assert.Len(t, raw, 16)
	})

	t.Run("two calls differ", func(t *testing.T) {
		a, err := auth.GenerateSalt()
		require.NoError(t, err)
		b, err := auth.GenerateSalt()
		require.NoError(t, err)
		assert.NotEqual(t, a, b)
	})
}

func TestHashPassword(t *testing.T) {
	const salt = "c2FsdHNhbHRzYWx0c2FsdA==" // "saltsaltsaltsalt"

	t.Run("matches known PBKDF2-HMAC-SHA256 output", func(t *testing.T) {
		hash, err := auth.HashPassword("correct horse battery", salt)
		require.NoError(t, err)
		assert.Equal(t, "sdYydF5He40GlJg95GSPyzajb/2JdMQM4fwtggzGaZc=", hash)
	})

	t.Run("deterministic for same password and salt", func(t *testing.T) {
		h1, err := auth.HashPassword("hunter22", salt)
		require.NoError(t, err)
		h2, err := auth.HashPassword("hunter22", salt)
		require.NoError(t, err)
		assert.Equal(t, h1, h2)
	})

	t.Run("different passwords produce different hashes", func(t *testing.T) {
		h1, err := auth.HashPassword("password1", salt)
		require.NoError(t, err)
		h2, err := auth.HashPassword("password2", salt)
		require.NoError(t, err)
		assert.NotEqual(t, h1, h2)
	})

	t.Run("output is 32 bytes", func(t *testing.T) {
		hash, err := auth.HashPassword("password1", salt)
		require.NoError(t, err)
		raw, err := base64.StdEncoding.DecodeString(hash)
		require.NoError(t, err)
		assert.Len(t, raw, 32)
	})

	t.Run("rejects empty password", func(t *testing.T) {
		_, err := auth.HashPassword("", salt)
		assert.ErrorIs(t, err, auth.ErrEmptyPassword)
	})

	t.Run("rejects undecodable salt", func(t *testing.T) {
		_, err := auth.HashPassword("password1", "not base64!")
		assert.ErrorIs(t, err, auth.ErrInvalidSalt)
	})
}

func TestVerifyPassword(t *testing.T) {
	salt, err := auth.GenerateSalt()
	require.NoError(t, err)
	hash, err := auth.HashPassword("correctpassword", salt)
	require.NoError(t, err)

	tests := []struct {
		name     string
		password string
		hash     string
		salt     string
		want     bool
	}{
		{name: "correct password", password: "correctpassword", hash: hash, salt: salt, want: true},
		{name: "wrong password", password: "wrongpassword", hash: hash, salt: salt, want: false},
		{name: "empty password", password: "", hash: hash, salt: salt, want: false},
		{name: "other salt", password: "correctpassword", hash: hash, salt: "c2FsdHNhbHRzYWx0c2FsdA==", want: false},
		{name: "garbage hash", password: "correctpassword", hash: "%%%", salt: salt, want: false},
		{name: "garbage salt", password: "correctpassword", hash: hash, salt: "%%%", want: false},
		{name: "truncated hash", password: "correctpassword", hash: hash[:20], salt: salt, want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, auth.VerifyPassword(tt.password, tt.hash, tt.salt))
		})
	}
}
