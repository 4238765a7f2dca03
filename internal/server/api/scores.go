package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/ayusman/superimpose/internal/store"
)

// ScoresHandler serves the session's game results.
//
//	GET    /api/scores          results, best first, and the high score
//	GET    /api/scores/{id}     one result
//	DELETE /api/scores          reset the high score
type ScoresHandler struct {
	store *store.Store
}

// NewScoresHandler creates a ScoresHandler over s.
func NewScoresHandler(s *store.Store) *ScoresHandler {
	return &ScoresHandler{store: s}
}

type scoresResponse struct {
	HighScore int             `json:"high_score"`
	Count     int             `json:"count"`
	Results   []*store.Result `json:"results"`
}

// ServeHTTP implements the http.Handler interface.
func (h *ScoresHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(strings.TrimPrefix(r.URL.Path, "/api/scores"), "/")

	if id != "" {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		h.get(w, id)
		return
	}

	switch r.Method {
	case http.MethodGet:
		h.list(w, r)
	case http.MethodDelete:
		h.reset(w)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *ScoresHandler) list(w http.ResponseWriter, r *http.Request) {
	limit, ok := limitParam(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "limit must be a non-negative integer")
		return
	}

	results := h.store.Results()
	list, err := results.List(limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list scores")
		return
	}
	high, err := results.HighScore()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get high score")
		return
	}
	count, err := results.Count()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to count scores")
		return
	}

	if list == nil {
		list = []*store.Result{}
	}
	writeJSON(w, http.StatusOK, scoresResponse{HighScore: high, Count: count, Results: list})
}

func (h *ScoresHandler) get(w http.ResponseWriter, id string) {
	res, err := h.store.Results().GetByID(id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Score not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to get score")
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *ScoresHandler) reset(w http.ResponseWriter) {
	if err := h.store.Results().Reset(); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to reset scores")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
