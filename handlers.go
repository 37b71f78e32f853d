package main

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/example/pvptracker/internal/auth"
)

type creds struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type userBody struct {
	ID    int64  `json:"id"`
	Email string `json:"email"`
}

type authResponse struct {
	Success bool     `json:"success"`
	Token   string   `json:"token"`
	User    userBody `json:"user"`
}

func (a *App) HandleRegister(w http.ResponseWriter, r *http.Request) {
	log := loggerFrom(r.Context())
	var c creds
	if err := json.NewDecoder(r.Body).Decode(&c); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid request body")
		return
	}
	email := normalizeEmail(c.Email)
	if email == "" || c.Password == "" {
		writeError(w, http.StatusBadRequest, "INVALID_REQUEST", "Email and password are required")
		return
	}
	if !emailPattern.MatchString(email) {
		writeError(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid email format")
		return
	}
	if passwordLen(c.Password) < minPasswordLen {
		writeError(w, http.StatusBadRequest, "INVALID_REQUEST", "Password must be at least 8 characters")
		return
	}

	existing, err := a.DB.GetUserByEmail(email)
	if err != nil {
		log.Error("lookup user", "err", err)
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to register user")
		return
	}
	if existing != nil {
		writeError(w, http.StatusConflict, "USER_EXISTS", "Email already registered")
		return
	}

	hash, salt, err := newCredential(c.Password)
	if err != nil {
		log.Error("hash password", "err", err)
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to process password")
		return
	}
	user, err := a.DB.CreateUser(email, hash, salt)
	if errors.Is(err, ErrUserExists) {
		writeError(w, http.StatusConflict, "USER_EXISTS", "Email already registered")
		return
	}
	if err != nil {
		log.Error("create user", "err", err)
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to register user")
		return
	}

	token, err := a.issueToken(user)
	if err != nil {
		log.Error("issue token", "err", err)
		writeAuthError(w, err)
		return
	}
	log.Info("user registered", "user_id", user.ID)
	writeJSON(w, http.StatusCreated, authResponse{
		Success: true,
		Token:   token,
		User:    userBody{ID: user.ID, Email: user.Email},
	})
}

func (a *App) HandleLogin(w http.ResponseWriter, r *http.Request) {
	log := loggerFrom(r.Context())
	var c creds
	if err := json.NewDecoder(r.Body).Decode(&c); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid request body")
		return
	}
	if c.Email == "" || c.Password == "" {
		writeError(w, http.StatusBadRequest, "INVALID_REQUEST", "Email and password are required")
		return
	}

	user, err := a.DB.GetUserByEmail(normalizeEmail(c.Email))
	if err != nil {
		log.Error("lookup user", "err", err)
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to log in")
		return
	}
	if user == nil || !auth.VerifyPassword(c.Password, user.PasswordHash, user.Salt) {
		writeError(w, http.StatusUnauthorized, "INVALID_CREDENTIALS", "Invalid email or password")
		return
	}

	token, err := a.issueToken(user)
	if err != nil {
		log.Error("issue token", "err", err)
		writeAuthError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, authResponse{
		Success: true,
		Token:   token,
		User:    userBody{ID: user.ID, Email: user.Email},
	})
}

// HandleLogout exists for clients that call it. Tokens are stateless, so
// the client discarding its token is the whole logout.
func (a *App) HandleLogout(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Logged out successfully",
	})
}

func (a *App) HandleMe(w http.ResponseWriter, r *http.Request) {
	id, _ := identityFrom(r.Context())
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"user": userBody{ID: id.UserID, Email: id.Email},
	})
}
