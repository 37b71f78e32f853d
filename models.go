package main

import (
	"encoding/json"
	"time"

	"github.com/example/pvptracker/internal/stats"
)

// User represents a user in the system
type User struct {
	ID           int64
	Email        string
	PasswordHash string
	Salt         string
	CreatedAt    time.Time
}

// MatchResult is the outcome of a single match.
type MatchResult string

const (
	ResultWin          MatchResult = stats.Win
	ResultLoss         MatchResult = stats.Loss
	ResultInconclusive MatchResult = stats.Inconclusive
)

func (r MatchResult) Valid() bool {
	switch r {
	case ResultWin, ResultLoss, ResultInconclusive:
		return true
	}
	return false
}

// Match is one recorded fight, owned by the user who logged it.
type Match struct {
	ID           int64
	UserID       int64
	Timestamp    time.Time
	OpponentName string
	Result       MatchResult
	Notes        string
	CreatedAt    time.Time
}

func (m *Match) MarshalJSON() ([]byte, error) {
	var notes *string
	if m.Notes != "" {
		notes = &m.Notes
	}
	return json.Marshal(struct {
		ID           int64       `json:"id"`
		Timestamp    string      `json:"timestamp"`
		OpponentName string      `json:"opponent_name"`
		Result       MatchResult `json:"result"`
		Notes        *string     `json:"notes"`
	}{
		ID:           m.ID,
		Timestamp:    m.Timestamp.UTC().Format(time.RFC3339Nano),
		OpponentName: m.OpponentName,
		Result:       m.Result,
		Notes:        notes,
	})
}

// MatchFilter narrows ListMatches. Zero Start/End mean unbounded, both
// bounds are inclusive. Limit <= 0 means no limit.
type MatchFilter struct {
	Start time.Time
	End   time.Time
	Limit int
}

func (f MatchFilter) includes(t time.Time) bool {
	if !f.Start.IsZero() && t.Before(f.Start) {
		return false
	}
	if !f.End.IsZero() && t.After(f.End) {
		return false
	}
	return true
}

func outcomes(matches []*Match) []stats.Outcome {
	out := make([]stats.Outcome, len(matches))
	for i, m := range matches {
		out[i] = stats.Outcome{Result: string(m.Result), Timestamp: m.Timestamp}
	}
	return out
}
