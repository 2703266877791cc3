package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ayusman/mudra/internal/classifier"
	"github.com/ayusman/mudra/internal/deck"
	"github.com/ayusman/mudra/internal/gesture"
	"github.com/ayusman/mudra/internal/log"
)

// uiState is read and written only by the UI goroutine.
type uiState struct {
	lastApplied uint64
	symbol      gesture.Symbol
}

type commandRequest struct {
	cmd  gesture.Command
	done chan error
}

// runUI is the single writer of presentation, transport and decision state.
// Outcomes are applied in arrival order; an outcome older than the last one
// applied is discarded.
func (a *App) runUI(ctx context.Context) {
	defer a.wg.Done()

	ticker := time.NewTicker(a.cfg.PositionInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case o := <-a.outcomes:
			a.handleOutcome(o)
		case req := <-a.commands:
			req.done <- a.applyCommand(req.cmd)
		case <-ticker.C:
			a.showPosition()
		}
	}
}

// handleOutcome applies one classification outcome.
func (a *App) handleOutcome(o outcome) {
	if o.seq <= a.ui.lastApplied {
		a.counts.stale.Add(1)
		log.Debug("discarding stale result", "seq", o.seq, "last_applied", a.ui.lastApplied)
		return
	}
	a.ui.lastApplied = o.seq

	if o.err != nil {
		if errors.Is(o.err, context.Canceled) {
			return
		}
		a.counts.failed.Add(1)
		log.Warn("classification failed", "seq", o.seq, "error", o.err)
		return
	}

	if o.result.Empty() {
		a.counts.empty.Add(1)
		log.Debug("classification returned no predictions", "seq", o.seq)
		return
	}

	decision, _ := a.cfg.Table.Decide(o.result)

	a.cfg.Presenter.ShowPredictions(decision.Summary)
	a.cfg.Presenter.ShowSymbol(decision.Symbol)

	if err := a.cfg.Deck.Apply(decision.Command); err != nil {
		log.Warn("applying transport command", "command", decision.Command, "error", err)
	}
	a.counts.applied.Add(1)

	var confidence *float64
	if classifier.IsFinite(decision.Top.Confidence) {
		c := decision.Top.Confidence
		confidence = &c
	}
	a.updateStatus(func(s *Status) {
		s.Symbol = decision.Symbol
		s.Glyph = decision.Symbol.Glyph()
		s.Summary = decision.Summary
		s.TopLabel = decision.Top.Label
		s.TopConfidence = confidence
		s.Seq = o.seq
		s.Transport = a.cfg.Deck.State()
	})

	if decision.Symbol != a.ui.symbol {
		log.Info("gesture changed",
			"from", a.ui.symbol,
			"to", decision.Symbol,
			"label", decision.Top.Label,
			"confidence", decision.Top.Confidence,
			"seq", o.seq,
		)
		a.ui.symbol = decision.Symbol
		a.queueTransition(transition{seq: o.seq, at: o.capturedAt, decision: decision})
	}
}

// applyCommand runs a manually issued transport command.
func (a *App) applyCommand(cmd gesture.Command) error {
	err := a.cfg.Deck.Apply(cmd)
	a.showPosition()
	return err
}

func (a *App) showPosition() {
	pos := a.cfg.Deck.Position()
	a.cfg.Presenter.ShowPosition(pos)

	a.updateStatus(func(s *Status) {
		s.Transport = a.cfg.Deck.State()
		s.Position = pos.Seconds()
		s.PlayTime = deck.FormatPlayTime(pos)
	})
}

// Dispatch sends a transport command to the UI goroutine and waits for it
// to be applied.
func (a *App) Dispatch(ctx context.Context, cmd gesture.Command) error {
	a.runMu.Lock()
	appCtx := a.ctx
	running := a.cancel != nil
	a.runMu.Unlock()

	if !running {
		return ErrNotRunning
	}

	req := commandRequest{cmd: cmd, done: make(chan error, 1)}
	select {
	case a.commands <- req:
	case <-ctx.Done():
		return ctx.Err()
	case <-appCtx.Done():
		return ErrNotRunning
	}

	select {
	case err := <-req.done:
		if err != nil {
			return fmt.Errorf("%s: %w", cmd, err)
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
