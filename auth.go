package main

import (
	"context"
	"net/http"
	"regexp"
	"strings"
	"unicode/utf16"

	"github.com/example/pvptracker/internal/auth"
)

const minPasswordLen = 8

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// passwordLen counts UTF-16 code units so length rules agree with browser
// clients.
func passwordLen(password string) int {
	return len(utf16.Encode([]rune(password)))
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// newCredential salts and hashes a password for storage.
func newCredential(password string) (hash, salt string, err error) {
	salt, err = auth.GenerateSalt()
	if err != nil {
		return "", "", err
	}
	hash, err = auth.HashPassword(password, salt)
	if err != nil {
		return "", "", err
	}
	return hash, salt, nil
}

func (a *App) issueToken(u *User) (string, error) {
	return a.tokens.Create(auth.Claims{"userId": u.ID, "email": u.Email}, a.jwtSecret)
}

type identityKey struct{}

func withIdentity(ctx context.Context, id auth.Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

func identityFrom(ctx context.Context) (auth.Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(auth.Identity)
	return id, ok
}

// RequireAuth runs the guard and stores the identity in the request context.
func (a *App) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, err := a.guard.Authenticate(r.Header.Get("Authorization"))
		if err != nil {
			if auth.IsEnvironmentError(err) {
				loggerFrom(r.Context()).Error("auth guard misconfigured", "err", err)
			} else {
				loggerFrom(r.Context()).Debug("auth rejected", "reason", auth.Message(err))
			}
			writeAuthError(w, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(withIdentity(r.Context(), id)))
	})
}
