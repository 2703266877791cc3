package api

import (
	"net/http"
	"strconv"

	"github.com/ayusman/mudra/internal/classifier"
	"github.com/ayusman/mudra/internal/store"
)

// MaxEventLimit caps the limit query parameter of /api/events.
const MaxEventLimit = 500

// EventHandler serves GET /api/events.
type EventHandler struct {
	store *store.Store
}

// NewEventHandler creates an EventHandler.
func NewEventHandler(s *store.Store) *EventHandler {
	return &EventHandler{store: s}
}

type eventResponse struct {
	ID         string   `json:"id"`
	Seq        uint64   `json:"seq"`
	Label      string   `json:"label"`
	Confidence *float64 `json:"confidence"`
	Symbol     string   `json:"symbol"`
	Command    string   `json:"command"`
	CreatedAt  string   `json:"created_at"`
}

type listEventsResponse struct {
	Events []eventResponse `json:"events"`
	Total  int             `json:"total"`
}

func toEventResponse(e *store.Event) eventResponse {
	resp := eventResponse{
		ID:        e.ID,
		Seq:       e.Seq,
		Label:     e.Label,
		Symbol:    e.Symbol,
		Command:   e.Command,
		CreatedAt: e.CreatedAt.Format(timeFormat),
	}
	if classifier.IsFinite(e.Confidence) {
		c := e.Confidence
		resp.Confidence = &c
	}
	return resp
}

func (h *EventHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}

	limit := store.DefaultEventLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = min(n, MaxEventLimit)
	}

	events, err := h.store.Events().List(limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list events")
		return
	}
	total, err := h.store.Events().Count()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to count events")
		return
	}

	resp := listEventsResponse{
		Events: make([]eventResponse, 0, len(events)),
		Total:  total,
	}
	for _, e := range events {
		resp.Events = append(resp.Events, toEventResponse(e))
	}
	writeJSON(w, http.StatusOK, resp)
}
