package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/ayusman/superimpose/internal/store"
)

// CalibrationsHandler serves the body profiles measured this session.
//
//	GET /api/calibrations         every calibration, newest first
//	GET /api/calibrations/latest  the profile currently in use
type CalibrationsHandler struct {
	store *store.Store
}

// NewCalibrationsHandler creates a CalibrationsHandler over s.
func NewCalibrationsHandler(s *store.Store) *CalibrationsHandler {
	return &CalibrationsHandler{store: s}
}

type calibrationsResponse struct {
	Calibrations []*store.Calibration `json:"calibrations"`
}

// ServeHTTP implements the http.Handler interface.
func (h *CalibrationsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	switch strings.TrimPrefix(strings.TrimPrefix(r.URL.Path, "/api/calibrations"), "/") {
	case "":
		h.list(w)
	case "latest":
		h.latest(w)
	default:
		writeError(w, http.StatusNotFound, "Not found")
	}
}

func (h *CalibrationsHandler) list(w http.ResponseWriter) {
	list, err := h.store.Calibrations().List()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list calibrations")
		return
	}
	if list == nil {
		list = []*store.Calibration{}
	}
	writeJSON(w, http.StatusOK, calibrationsResponse{Calibrations: list})
}

func (h *CalibrationsHandler) latest(w http.ResponseWriter) {
	c, err := h.store.Calibrations().Latest()
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "No calibration yet")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to get calibration")
		return
	}
	writeJSON(w, http.StatusOK, c)
}
