package api

import (
	"errors"
	"net/http"

	"github.com/ayusman/mudra/internal/app"
	"github.com/ayusman/mudra/internal/gesture"
	"github.com/ayusman/mudra/internal/log"
)

// TransportHandler serves POST /api/transport/{play|pause|stop}.
// Commands are applied by the app's UI goroutine.
type TransportHandler struct {
	ctl Controller
}

// NewTransportHandler creates a TransportHandler.
func NewTransportHandler(ctl Controller) *TransportHandler {
	return &TransportHandler{ctl: ctl}
}

func (h *TransportHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}

	cmd, err := gesture.ParseCommand(itemPath(r, "/api/transport"))
	if err != nil || cmd == gesture.None {
		writeError(w, http.StatusNotFound, "Unknown transport command")
		return
	}

	if err := h.ctl.Dispatch(r.Context(), cmd); err != nil {
		if errors.Is(err, app.ErrNotRunning) {
			writeError(w, http.StatusServiceUnavailable, "Recognition is not running")
			return
		}
		log.Warn("transport command failed", "command", cmd, "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to apply command")
		return
	}

	writeJSON(w, http.StatusOK, h.ctl.Status())
}
