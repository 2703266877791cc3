// Package app wires frame capture, classification, gesture decisions and the
// audio deck together.
//
// Two schedules run concurrently. The pipeline goroutine polls the frame
// source at a fixed rate and hands frames to a bounded set of classification
// goroutines. Every outcome is delivered over a channel to the UI goroutine,
// which is the only code that mutates presentation, transport and decision
// state.
package app

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ayusman/mudra/internal/capture"
	"github.com/ayusman/mudra/internal/classifier"
	"github.com/ayusman/mudra/internal/deck"
	"github.com/ayusman/mudra/internal/gesture"
	"github.com/ayusman/mudra/internal/log"
	"github.com/ayusman/mudra/internal/plugin"
	"github.com/ayusman/mudra/internal/store"
)

// Defaults applied to zero Config fields.
const (
	DefaultFPS              = 15
	DefaultMaxInFlight      = 1
	DefaultPositionInterval = 100 * time.Millisecond
	DefaultHookQueue        = 16
)

var (
	// ErrNotRunning is returned by Dispatch when the app has not been started.
	ErrNotRunning = errors.New("app is not running")
	// ErrMissingDependency is returned by New when a required field is nil.
	ErrMissingDependency = errors.New("missing dependency")
)

// EventRecorder persists symbol transitions.
type EventRecorder interface {
	Create(e *store.Event) error
}

// HookSource lists the hooks bound to a symbol.
type HookSource interface {
	ListEnabled(symbol string) ([]*store.Hook, error)
}

// PluginRunner executes a plugin action.
type PluginRunner interface {
	Run(ctx context.Context, name string, req *plugin.Request) (*plugin.Response, error)
}

// SettingsWriter persists runtime settings changed through the app.
type SettingsWriter interface {
	SetBool(key string, value bool) error
	SetFloat(key string, value float64) error
}

// Config holds the app's collaborators and tuning. Source, Classifier, Deck
// and Table are required.
type Config struct {
	Source     capture.Source
	Classifier classifier.Classifier
	Deck       *deck.Deck
	Table      *gesture.Table
	Presenter  Presenter

	// Optional persistence and hooks.
	Events   EventRecorder
	Hooks    HookSource
	Plugins  PluginRunner
	Settings SettingsWriter

	// Motion, when set, skips frames that have not changed.
	Motion *capture.MotionGate

	FPS              int
	MaxInFlight      int
	PositionInterval time.Duration
	HookQueue        int
	Disabled         bool
}

// App runs the recognition pipeline and the UI schedule.
type App struct {
	cfg Config

	outcomes    chan outcome
	commands    chan commandRequest
	transitions chan transition
	slots       chan struct{}

	enabled atomic.Bool
	counts  counters

	// Owned by the UI goroutine.
	ui uiState

	// Owned by the pipeline goroutine. Kept across Stop and Start so new
	// outcomes always sort after ui.lastApplied.
	seq uint64

	statusMu sync.RWMutex
	status   Status

	runMu  sync.Mutex
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates an App. It does not start any goroutines.
func New(cfg Config) (*App, error) {
	switch {
	case cfg.Source == nil:
		return nil, errors.Join(ErrMissingDependency, errors.New("frame source"))
	case cfg.Classifier == nil:
		return nil, errors.Join(ErrMissingDependency, errors.New("classifier"))
	case cfg.Deck == nil:
		return nil, errors.Join(ErrMissingDependency, errors.New("deck"))
	case cfg.Table == nil:
		return nil, errors.Join(ErrMissingDependency, errors.New("gesture table"))
	}

	if cfg.FPS <= 0 {
		cfg.FPS = DefaultFPS
	}
	if cfg.MaxInFlight <= 0 {
		cfg.MaxInFlight = DefaultMaxInFlight
	}
	if cfg.PositionInterval <= 0 {
		cfg.PositionInterval = DefaultPositionInterval
	}
	if cfg.HookQueue <= 0 {
		cfg.HookQueue = DefaultHookQueue
	}
	if cfg.Presenter == nil {
		cfg.Presenter = NewLogPresenter()
	}

	a := &App{
		cfg:         cfg,
		outcomes:    make(chan outcome, cfg.MaxInFlight),
		commands:    make(chan commandRequest),
		transitions: make(chan transition, cfg.HookQueue),
		slots:       make(chan struct{}, cfg.MaxInFlight),
	}
	a.enabled.Store(!cfg.Disabled)
	a.status = Status{
		Symbol:    gesture.Unknown,
		Glyph:     gesture.Unknown.Glyph(),
		Transport: cfg.Deck.State(),
		Length:    cfg.Deck.Length().Seconds(),
		PlayTime:  deck.FormatPlayTime(0),
	}
	return a, nil
}

// Start launches the pipeline, UI and hook goroutines. They stop when ctx is
// done or Stop is called. Starting a running app does nothing.
func (a *App) Start(ctx context.Context) error {
	a.runMu.Lock()
	defer a.runMu.Unlock()

	if a.cancel != nil {
		return nil
	}

	a.ctx, a.cancel = context.WithCancel(ctx)

	a.wg.Add(3)
	go a.runUI(a.ctx)
	go a.runHooks(a.ctx)
	go a.runPipeline(a.ctx)

	log.Info("recognition started",
		"fps", a.cfg.FPS,
		"max_in_flight", a.cfg.MaxInFlight,
		"threshold", a.cfg.Table.Threshold(),
		"enabled", a.IsEnabled(),
	)
	return nil
}

// Stop cancels all goroutines and waits for them, including in-flight
// classifications, to finish.
func (a *App) Stop() {
	a.runMu.Lock()
	cancel := a.cancel
	a.cancel = nil
	a.runMu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	a.wg.Wait()

	log.Info("recognition stopped")
}

// Running reports whether Start has been called without a matching Stop.
func (a *App) Running() bool {
	a.runMu.Lock()
	defer a.runMu.Unlock()
	return a.cancel != nil
}

// SetEnabled turns frame submission on or off. Outcomes already in flight
// are still applied.
func (a *App) SetEnabled(enabled bool) {
	if a.enabled.Swap(enabled) == enabled {
		return
	}
	log.Info("recognition toggled", "enabled", enabled)

	if a.cfg.Settings != nil {
		if err := a.cfg.Settings.SetBool(store.SettingEnabled, enabled); err != nil {
			log.Warn("persisting enabled setting", "error", err)
		}
	}
}

// IsEnabled reports whether frames are being submitted.
func (a *App) IsEnabled() bool {
	return a.enabled.Load()
}

// SetThreshold changes the decision threshold. Values outside [0, 1) are
// ignored and false is returned.
func (a *App) SetThreshold(threshold float64) bool {
	if threshold < 0 || threshold >= 1 {
		return false
	}
	a.cfg.Table.SetThreshold(threshold)

	if a.cfg.Settings != nil {
		if err := a.cfg.Settings.SetFloat(store.SettingThreshold, threshold); err != nil {
			log.Warn("persisting threshold setting", "error", err)
		}
	}
	return true
}

// Table returns the gesture decision table.
func (a *App) Table() *gesture.Table {
	return a.cfg.Table
}

// Source returns the frame source.
func (a *App) Source() capture.Source {
	return a.cfg.Source
}

// Status returns a snapshot of the current recognition and transport state.
func (a *App) Status() Status {
	a.statusMu.RLock()
	s := a.status
	a.statusMu.RUnlock()

	s.Enabled = a.IsEnabled()
	s.Counters = a.counts.snapshot()
	return s
}

func (a *App) updateStatus(fn func(*Status)) {
	a.statusMu.Lock()
	defer a.statusMu.Unlock()
	fn(&a.status)
	a.status.UpdatedAt = time.Now()
}
