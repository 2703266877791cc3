package api

import (
	"encoding/json"
	"net/http"
)

// StatusHandler serves GET /api/status.
type StatusHandler struct {
	ctl Controller
}

// NewStatusHandler creates a StatusHandler.
func NewStatusHandler(ctl Controller) *StatusHandler {
	return &StatusHandler{ctl: ctl}
}

func (h *StatusHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	writeJSON(w, http.StatusOK, h.ctl.Status())
}

// RecognitionHandler serves GET and PUT /api/recognition.
type RecognitionHandler struct {
	ctl Controller
}

// NewRecognitionHandler creates a RecognitionHandler.
func NewRecognitionHandler(ctl Controller) *RecognitionHandler {
	return &RecognitionHandler{ctl: ctl}
}

type recognitionResponse struct {
	Enabled   bool    `json:"enabled"`
	Threshold float64 `json:"threshold"`
}

type updateRecognitionRequest struct {
	Enabled   *bool    `json:"enabled"`
	Threshold *float64 `json:"threshold"`
}

func (h *RecognitionHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.get(w)
	case http.MethodPut:
		h.update(w, r)
	default:
		methodNotAllowed(w)
	}
}

func (h *RecognitionHandler) get(w http.ResponseWriter) {
	writeJSON(w, http.StatusOK, recognitionResponse{
		Enabled:   h.ctl.Status().Enabled,
		Threshold: h.ctl.Table().Threshold(),
	})
}

func (h *RecognitionHandler) update(w http.ResponseWriter, r *http.Request) {
	var req updateRecognitionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	if req.Threshold != nil && !h.ctl.SetThreshold(*req.Threshold) {
		writeError(w, http.StatusBadRequest, "threshold must be in [0, 1)")
		return
	}
	if req.Enabled != nil {
		h.ctl.SetEnabled(*req.Enabled)
	}

	h.get(w)
}
