package main

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
)

const (
	defaultMatchLimit = 50
	maxMatchLimit     = 1000
)

var (
	errBadStartDate = errors.New("invalid start_date")
	errBadEndDate   = errors.New("invalid end_date")
	errBadLimit     = errors.New("limit out of range")
)

// filterMessage is the client text for a parseFilter error.
func filterMessage(err error) string {
	switch {
	case errors.Is(err, errBadStartDate):
		return "Invalid start_date"
	case errors.Is(err, errBadEndDate):
		return "Invalid end_date"
	case errors.Is(err, errBadLimit):
		return fmt.Sprintf("limit must be between 1 and %d", maxMatchLimit)
	}
	return "Invalid query"
}

type createMatchRequest struct {
	OpponentName string `json:"opponent_name"`
	Result       string `json:"result"`
	Timestamp    string `json:"timestamp"`
	Notes        string `json:"notes"`
}

// parseDate accepts RFC 3339 or YYYY-MM-DD. A date-only end bound covers
// the whole day.
func parseDate(s string, endOfDay bool) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return time.Time{}, err
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return t, nil
}

// parseFilter reads start_date and end_date. limit is read only when
// defaultLimit > 0.
func parseFilter(q url.Values, defaultLimit int) (MatchFilter, error) {
	var f MatchFilter
	if s := q.Get("start_date"); s != "" {
		t, err := parseDate(s, false)
		if err != nil {
			return f, fmt.Errorf("%w: %w", errBadStartDate, err)
		}
		f.Start = t
	}
	if s := q.Get("end_date"); s != "" {
		t, err := parseDate(s, true)
		if err != nil {
			return f, fmt.Errorf("%w: %w", errBadEndDate, err)
		}
		f.End = t
	}
	if defaultLimit <= 0 {
		return f, nil
	}
	f.Limit = defaultLimit
	if s := q.Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 || n > maxMatchLimit {
			return f, fmt.Errorf("%w: %q", errBadLimit, s)
		}
		f.Limit = n
	}
	return f, nil
}

func (a *App) HandleListMatches(w http.ResponseWriter, r *http.Request) {
	id, _ := identityFrom(r.Context())
	f, err := parseFilter(r.URL.Query(), defaultMatchLimit)
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_REQUEST", filterMessage(err))
		return
	}
	matches, err := a.DB.ListMatches(id.UserID, f)
	if err != nil {
		loggerFrom(r.Context()).Error("list matches", "err", err)
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to list matches")
		return
	}
	if matches == nil {
		matches = []*Match{}
	}
	writeJSON(w, http.StatusOK, matches)
}

func (a *App) HandleCreateMatch(w http.ResponseWriter, r *http.Request) {
	id, _ := identityFrom(r.Context())
	var req createMatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid request body")
		return
	}
	req.OpponentName = strings.TrimSpace(req.OpponentName)
	if req.OpponentName == "" || req.Result == "" {
		writeError(w, http.StatusBadRequest, "INVALID_REQUEST", "Missing required fields")
		return
	}
	result := MatchResult(req.Result)
	if !result.Valid() {
		writeError(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid result value")
		return
	}

	ts := a.now().UTC()
	if req.Timestamp != "" {
		t, err := time.Parse(time.RFC3339Nano, req.Timestamp)
		if err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid timestamp")
			return
		}
		ts = t.UTC()
	}

	m, err := a.DB.CreateMatch(&Match{
		UserID:       id.UserID,
		Timestamp:    ts,
		OpponentName: req.OpponentName,
		Result:       result,
		Notes:        strings.TrimSpace(req.Notes),
	})
	if err != nil {
		loggerFrom(r.Context()).Error("create match", "err", err)
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to save match")
		return
	}
	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"success": true,
		"id":      m.ID,
	})
}

func (a *App) HandleDeleteMatch(w http.ResponseWriter, r *http.Request) {
	id, _ := identityFrom(r.Context())
	matchID, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil || matchID <= 0 {
		writeError(w, http.StatusBadRequest, "INVALID_REQUEST", "Match ID required")
		return
	}
	err = a.DB.DeleteMatch(id.UserID, matchID)
	if errors.Is(err, ErrNotFound) {
		writeError(w, http.StatusNotFound, "NOT_FOUND", "Match not found")
		return
	}
	if err != nil {
		loggerFrom(r.Context()).Error("delete match", "err", err, "match_id", matchID)
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to delete match")
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// HandleExportMatches streams the filtered matches as CSV.
func (a *App) HandleExportMatches(w http.ResponseWriter, r *http.Request) {
	id, _ := identityFrom(r.Context())
	f, err := parseFilter(r.URL.Query(), 0)
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_REQUEST", filterMessage(err))
		return
	}
	matches, err := a.DB.ListMatches(id.UserID, f)
	if err != nil {
		loggerFrom(r.Context()).Error("export matches", "err", err)
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to export matches")
		return
	}

	filename := "minecraft-pvp-stats-" + a.now().UTC().Format(time.DateOnly) + ".csv"
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.WriteHeader(http.StatusOK)

	bw := bufio.NewWriter(w)
	bw.WriteString("Date,Opponent,Result,Notes\n")
	for _, m := range matches {
		bw.WriteString(csvRow(m.Timestamp.UTC().Format(time.RFC3339Nano), m.OpponentName, string(m.Result), m.Notes))
	}
	if err := bw.Flush(); err != nil {
		loggerFrom(r.Context()).Warn("export flush", "err", err)
	}
}

// csvRow quotes every field and doubles embedded quotes.
func csvRow(fields ...string) string {
	var b strings.Builder
	for i, f := range fields {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteByte('"')
		b.WriteString(strings.ReplaceAll(f, `"`, `""`))
		b.WriteByte('"')
	}
	b.WriteByte('\n')
	return b.String()
}
