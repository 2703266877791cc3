package api

import (
	"context"

	"github.com/ayusman/mudra/internal/app"
	"github.com/ayusman/mudra/internal/gesture"
)

// Controller is the running recognition app as seen by the HTTP API.
type Controller interface {
	Status() app.Status
	Dispatch(ctx context.Context, cmd gesture.Command) error
	SetEnabled(enabled bool)
	SetThreshold(threshold float64) bool
	Table() *gesture.Table
}
