package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/ayusman/mudra/internal/gesture"
	"github.com/ayusman/mudra/internal/store"
)

// BindingHandler serves the label table at /api/bindings. Changes apply to
// the live table immediately and are persisted when a store is set.
type BindingHandler struct {
	table *gesture.Table
	store *store.Store
}

// NewBindingHandler creates a BindingHandler. s may be nil.
func NewBindingHandler(table *gesture.Table, s *store.Store) *BindingHandler {
	return &BindingHandler{table: table, store: s}
}

type putBindingRequest struct {
	Symbol string `json:"symbol"`
}

type bindingResponse struct {
	Label  string `json:"label"`
	Symbol string `json:"symbol"`
	Glyph  string `json:"glyph"`
}

type listBindingsResponse struct {
	Threshold float64           `json:"threshold"`
	Bindings  []bindingResponse `json:"bindings"`
}

func toBindingResponse(b gesture.Binding) bindingResponse {
	return bindingResponse{
		Label:  b.Label,
		Symbol: b.Symbol.String(),
		Glyph:  b.Symbol.Glyph(),
	}
}

func (h *BindingHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	label := itemPath(r, "/api/bindings")

	if label == "" {
		if r.Method != http.MethodGet {
			methodNotAllowed(w)
			return
		}
		h.list(w)
		return
	}

	switch r.Method {
	case http.MethodPut:
		h.put(w, r, label)
	case http.MethodDelete:
		h.delete(w, label)
	default:
		methodNotAllowed(w)
	}
}

// list handles GET /api/bindings.
func (h *BindingHandler) list(w http.ResponseWriter) {
	bindings := h.table.Bindings()
	resp := listBindingsResponse{
		Threshold: h.table.Threshold(),
		Bindings:  make([]bindingResponse, 0, len(bindings)),
	}
	for _, b := range bindings {
		resp.Bindings = append(resp.Bindings, toBindingResponse(b))
	}
	writeJSON(w, http.StatusOK, resp)
}

// put handles PUT /api/bindings/{label}.
func (h *BindingHandler) put(w http.ResponseWriter, r *http.Request, label string) {
	var req putBindingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	symbol, err := gesture.ParseSymbol(req.Symbol)
	if err != nil || symbol == gesture.Unknown {
		writeError(w, http.StatusBadRequest, "symbol must be one of fist, open-hand, checkmark")
		return
	}

	if h.store != nil {
		if err := h.store.Bindings().Put(&store.Binding{Label: label, Symbol: symbol.String()}); err != nil {
			writeError(w, http.StatusInternalServerError, "Failed to save binding")
			return
		}
	}
	h.table.Bind(label, symbol)

	writeJSON(w, http.StatusOK, toBindingResponse(gesture.Binding{Label: label, Symbol: symbol}))
}

// delete handles DELETE /api/bindings/{label}.
func (h *BindingHandler) delete(w http.ResponseWriter, label string) {
	if h.store != nil {
		if err := h.store.Bindings().Delete(label); err != nil && !errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusInternalServerError, "Failed to delete binding")
			return
		}
	}
	if !h.table.Unbind(label) {
		writeError(w, http.StatusNotFound, "Binding not found")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
