package api

import (
	"context"
	"path/filepath"
	"sync"
	"testing"

	"github.com/ayusman/mudra/internal/app"
	"github.com/ayusman/mudra/internal/gesture"
	"github.com/ayusman/mudra/internal/store"
)

// newTestStore creates a Store with a temporary database.
func newTestStore(t *testing.T) *store.Store {
	t.Helper()

	s, err := store.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() {
		s.Close()
	})
	return s
}

// fakeController records dispatched commands.
type fakeController struct {
	mu          sync.Mutex
	table       *gesture.Table
	enabled     bool
	dispatched  []gesture.Command
	dispatchErr error
}

func newFakeController() *fakeController {
	return &fakeController{table: gesture.DefaultTable(), enabled: true}
}

func (c *fakeController) Status() app.Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return app.Status{Enabled: c.enabled, Symbol: gesture.Unknown, Glyph: gesture.Unknown.Glyph()}
}

func (c *fakeController) Dispatch(_ context.Context, cmd gesture.Command) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.dispatchErr != nil {
		return c.dispatchErr
	}
	c.dispatched = append(c.dispatched, cmd)
	return nil
}

func (c *fakeController) SetEnabled(enabled bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.enabled = enabled
}

func (c *fakeController) SetThreshold(threshold float64) bool {
	if threshold < 0 || threshold >= 1 {
		return false
	}
	c.table.SetThreshold(threshold)
	return true
}

func (c *fakeController) Table() *gesture.Table {
	return c.table
}

func (c *fakeController) commands() []gesture.Command {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]gesture.Command(nil), c.dispatched...)
}
