package api

import (
	"net/http"
	"strconv"
)

// LeaderboardDependencies defines the interface for ranking reads.
type LeaderboardDependencies interface {
	Rank() []Entry
}

// LeaderboardHandler handles leaderboard requests.
type LeaderboardHandler struct {
	deps LeaderboardDependencies
}

// NewLeaderboardHandler creates a new leaderboard handler.
func NewLeaderboardHandler(deps LeaderboardDependencies) *LeaderboardHandler {
	return &LeaderboardHandler{deps: deps}
}

// HandleGetLeaderboard handles GET /leaderboard[?limit=N]. Without a limit
// the whole ranking is returned.
func (h *LeaderboardHandler) HandleGetLeaderboard(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	entries := h.deps.Rank()
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		n, err := strconv.Atoi(limitStr)
		if err != nil || n < 1 {
			writeError(w, ErrBadRequest)
			return
		}
		if n < len(entries) {
			entries = entries[:n]
		}
	}
	writeJSON(w, http.StatusOK, entries)
}
