package app

import (
	"context"
	"time"

	"github.com/ayusman/mudra/internal/classifier"
	"github.com/ayusman/mudra/internal/gesture"
	"github.com/ayusman/mudra/internal/log"
	"github.com/ayusman/mudra/internal/plugin"
	"github.com/ayusman/mudra/internal/store"
)

// transition is a change of recognised symbol.
type transition struct {
	seq      uint64
	at       time.Time
	decision gesture.Decision
}

// queueTransition hands t to the hook goroutine without blocking the UI.
func (a *App) queueTransition(t transition) {
	if a.cfg.Events == nil && (a.cfg.Hooks == nil || a.cfg.Plugins == nil) {
		return
	}

	select {
	case a.transitions <- t:
	default:
		a.counts.hooksLost.Add(1)
		log.Warn("transition queue full, dropping", "seq", t.seq, "symbol", t.decision.Symbol)
	}
}

// runHooks records transitions and fires the hooks bound to each new symbol.
func (a *App) runHooks(ctx context.Context) {
	defer a.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case t := <-a.transitions:
			a.record(t)
			a.fire(ctx, t)
		}
	}
}

func (a *App) record(t transition) {
	if a.cfg.Events == nil {
		return
	}

	at := t.at
	if at.IsZero() {
		at = time.Now()
	}
	e := &store.Event{
		Seq:        t.seq,
		Label:      t.decision.Top.Label,
		Confidence: t.decision.Top.Confidence,
		Symbol:     t.decision.Symbol.String(),
		Command:    t.decision.Command.String(),
		CreatedAt:  at,
	}
	if err := a.cfg.Events.Create(e); err != nil {
		log.Warn("recording gesture event", "seq", t.seq, "error", err)
	}
}

func (a *App) fire(ctx context.Context, t transition) {
	if a.cfg.Hooks == nil || a.cfg.Plugins == nil {
		return
	}

	symbol := t.decision.Symbol
	hooks, err := a.cfg.Hooks.ListEnabled(symbol.String())
	if err != nil {
		log.Warn("listing hooks", "symbol", symbol, "error", err)
		return
	}

	for _, h := range hooks {
		req := &plugin.Request{
			Action:  h.ActionName,
			Symbol:  symbol.String(),
			Glyph:   symbol.Glyph(),
			Label:   t.decision.Top.Label,
			Command: t.decision.Command.String(),
			Seq:     t.seq,
			Config:  h.Config,
		}
		if c := t.decision.Top.Confidence; classifier.IsFinite(c) {
			req.Confidence = &c
		}

		if _, err := a.cfg.Plugins.Run(ctx, h.PluginName, req); err != nil {
			log.Warn("hook failed",
				"hook", h.ID,
				"plugin", h.PluginName,
				"action", h.ActionName,
				"error", err,
			)
			continue
		}
		log.Debug("hook fired", "hook", h.ID, "plugin", h.PluginName, "symbol", symbol)
	}
}
