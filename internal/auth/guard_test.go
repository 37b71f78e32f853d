package auth_test

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/pvptracker/internal/auth"
)

func signRaw(t *testing.T, signingInput, secret string) string {
	t.Helper()
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(signingInput))
	return signingInput + "." + base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}

func TestGuard_Authenticate(t *testing.T) {
	tokens := auth.NewTokenService(auth.WithClock(fixedClock(issuedAt)))
	token, err := tokens.Create(auth.Claims{"userId": 9, "email": "p@vp.gg"}, "s3cret")
	require.NoError(t, err)

	t.Run("valid bearer token", func(t *testing.T) {
		g := auth.NewGuard("s3cret", tokens)
		id, err := g.Authenticate("Bearer " + token)
		require.NoError(t, err)
		assert.Equal(t, auth.Identity{UserID: 9, Email: "p@vp.gg"}, id)
	})

	rejections := []struct {
		name      string
		secret    string
		header    string
		wantErr   error
		wantMsg   string
		serverErr bool
	}{
		{name: "no header", secret: "s3cret", header: "", wantErr: auth.ErrMissingCredentials, wantMsg: "Authentication required"},
		{name: "basic scheme", secret: "s3cret", header: "Basic dXNlcjpwYXNz", wantErr: auth.ErrMissingCredentials, wantMsg: "Authentication required"},
		{name: "lowercase bearer", secret: "s3cret", header: "bearer " + token, wantErr: auth.ErrMissingCredentials, wantMsg: "Authentication required"},
		{name: "bearer without space", secret: "s3cret", header: "Bearer" + token, wantErr: auth.ErrMissingCredentials, wantMsg: "Authentication required"},
		{name: "missing secret", secret: "", header: "Bearer " + token, wantErr: auth.ErrServerMisconfigured, wantMsg: "Server configuration error", serverErr: true},
		{name: "wrong secret", secret: "other", header: "Bearer " + token, wantErr: auth.ErrInvalidSignature, wantMsg: "Invalid signature"},
		{name: "malformed token", secret: "s3cret", header: "Bearer abc", wantErr: auth.ErrMalformedToken, wantMsg: "Invalid token format"},
		{name: "empty token", secret: "s3cret", header: "Bearer ", wantErr: auth.ErrMalformedToken, wantMsg: "Invalid token format"},
	}
	for _, tt := range rejections {
		t.Run(tt.name, func(t *testing.T) {
			g := auth.NewGuard(tt.secret, tokens)
			id, err := g.Authenticate(tt.header)
			assert.Zero(t, id)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Equal(t, tt.wantMsg, auth.Message(err))
			assert.Equal(t, tt.serverErr, auth.IsEnvironmentError(err))
		})
	}
}

func TestGuard_TokenFailuresAreInvalidOrExpired(t *testing.T) {
	issuer := auth.NewTokenService(auth.WithClock(fixedClock(issuedAt)))
	token, err := issuer.Create(auth.Claims{"userId": 9, "email": "p@vp.gg"}, "s3cret")
	require.NoError(t, err)

	later := auth.NewTokenService(auth.WithClock(fixedClock(issuedAt + 8*24*3600)))
	_, err = auth.NewGuard("s3cret", later).Authenticate("Bearer " + token)
	assert.ErrorIs(t, err, auth.ErrInvalidOrExpiredToken)
	assert.ErrorIs(t, err, auth.ErrTokenExpired)
	assert.Equal(t, "Token expired", auth.Message(err))
}

func TestGuard_RejectsTokenWithoutIdentity(t *testing.T) {
	issuer := auth.NewTokenService(auth.WithClock(fixedClock(issuedAt)))
	token, err := issuer.Create(auth.Claims{"role": "admin"}, "s3cret")
	require.NoError(t, err)

	_, err = auth.NewGuard("s3cret", issuer).Authenticate("Bearer " + token)
	assert.ErrorIs(t, err, auth.ErrInvalidOrExpiredToken)
}

func TestGuard_NilTokenServiceUsesDefault(t *testing.T) {
	token, err := auth.CreateToken(auth.Claims{"userId": 1, "email": "a@b.com"}, "k")
	require.NoError(t, err)

	id, err := auth.NewGuard("k", nil).Authenticate("Bearer " + token)
	require.NoError(t, err)
	assert.Equal(t, int64(1), id.UserID)
}
