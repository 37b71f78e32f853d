package main

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/example/pvptracker/internal/auth"
)

// APIError represents a structured API error response
type APIError struct {
	Message string `json:"error"`
	Code    string `json:"error_code"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("write json", "err", err)
	}
}

// writeError writes a structured error response
func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, APIError{Code: code, Message: message})
}

// writeAuthError maps a guard or token failure onto 401 or 500.
func writeAuthError(w http.ResponseWriter, err error) {
	switch {
	case auth.IsEnvironmentError(err):
		writeError(w, http.StatusInternalServerError, "SERVER_MISCONFIGURED", auth.Message(err))
	case errors.Is(err, auth.ErrMissingCredentials):
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", auth.Message(err))
	default:
		writeError(w, http.StatusUnauthorized, "INVALID_TOKEN", auth.Message(err))
	}
}
