package plugin

import (
	"context"
	"errors"
	"fmt"
)

// ErrUnsupportedAction is returned when a plugin does not declare an action.
var ErrUnsupportedAction = errors.New("action not supported by plugin")

// Host resolves plugins by name and runs them.
type Host struct {
	manager  *Manager
	executor *Executor
}

// NewHost creates a Host over manager and executor.
func NewHost(manager *Manager, executor *Executor) *Host {
	return &Host{manager: manager, executor: executor}
}

// Manager returns the plugin manager.
func (h *Host) Manager() *Manager {
	return h.manager
}

// Run executes req.Action on the named plugin. A plugin that reports
// failure is returned as an error.
func (h *Host) Run(ctx context.Context, name string, req *Request) (*Response, error) {
	plugin, err := h.manager.Get(name)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	if !plugin.Manifest.Supports(req.Action) {
		return nil, fmt.Errorf("%s/%s: %w", name, req.Action, ErrUnsupportedAction)
	}

	resp, err := h.executor.Execute(ctx, plugin, req)
	if err != nil {
		return nil, err
	}
	if !resp.Success {
		return resp, fmt.Errorf("%s/%s: %s", name, req.Action, resp.Error)
	}
	return resp, nil
}
