package api

import (
	"net/http"
	"strings"

	"github.com/okian/apex/internal/domain/model"
)

// RankDependencies defines the interface for per-collaborator reads.
type RankDependencies interface {
	Rank() []Entry
	Actions(name string) (string, []model.Action, error)
}

// RankHandler handles rank requests.
type RankHandler struct {
	deps RankDependencies
}

// NewRankHandler creates a new rank handler.
func NewRankHandler(deps RankDependencies) *RankHandler {
	return &RankHandler{deps: deps}
}

type rankResponse struct {
	Entry
	Actions []model.Action `json:"actions"`
}

// HandleGetRank handles GET /rank/{name} requests. The name is matched the
// same way as check-ins, so word order and case do not matter.
func (h *RankHandler) HandleGetRank(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	raw := strings.TrimPrefix(r.URL.Path, "/rank/")
	if strings.TrimSpace(raw) == "" || strings.Contains(raw, "/") {
		writeError(w, ErrBadRequest)
		return
	}
	name, actions, err := h.deps.Actions(raw)
	if err != nil {
		writeError(w, err)
		return
	}
	resp := rankResponse{Entry: Entry{Name: name}, Actions: actions}
	for _, e := range h.deps.Rank() {
		if e.Name == name {
			resp.Entry = e
			break
		}
	}
	writeJSON(w, http.StatusOK, resp)
}
