package main

import (
	"net/http"

	"github.com/example/pvptracker/internal/stats"
)

// HandleStats summarizes every match in the requested window. No limit is
// applied so the totals cover the whole range.
func (a *App) HandleStats(w http.ResponseWriter, r *http.Request) {
	id, _ := identityFrom(r.Context())
	f, err := parseFilter(r.URL.Query(), 0)
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_REQUEST", filterMessage(err))
		return
	}
	matches, err := a.DB.ListMatches(id.UserID, f)
	if err != nil {
		loggerFrom(r.Context()).Error("load matches for stats", "err", err)
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to compute stats")
		return
	}
	writeJSON(w, http.StatusOK, stats.Summarize(outcomes(matches)))
}
