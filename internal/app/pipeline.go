package app

import (
	"context"
	"time"

	"github.com/ayusman/mudra/internal/capture"
	"github.com/ayusman/mudra/internal/classifier"
)

// outcome is a finished classification on its way to the UI goroutine.
type outcome struct {
	seq        uint64
	capturedAt time.Time
	result     *classifier.Result
	err        error
}

// runPipeline polls the frame source at a fixed rate until ctx is done.
//
// Each tick:
//  1. Skip while recognition is disabled.
//  2. Skip when no frame is available, or the frame was already seen.
//  3. Skip when a motion gate is configured and the frame did not change.
//  4. Drop the frame when MaxInFlight classifications are already running.
//  5. Otherwise stamp a sequence number and classify on a new goroutine.
func (a *App) runPipeline(ctx context.Context) {
	defer a.wg.Done()

	ticker := time.NewTicker(time.Second / time.Duration(a.cfg.FPS))
	defer ticker.Stop()

	p := &poller{app: a}
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.tick(ctx)
		}
	}
}

// poller holds the pipeline goroutine's private state.
type poller struct {
	app       *App
	lastFrame uint64
}

func (p *poller) tick(ctx context.Context) {
	a := p.app

	if !a.IsEnabled() {
		return
	}

	frame := a.cfg.Source.CurrentFrame()
	if frame == nil {
		a.counts.skipped.Add(1)
		return
	}
	if frame.Seq != 0 && frame.Seq == p.lastFrame {
		frame.Close()
		a.counts.skipped.Add(1)
		return
	}
	p.lastFrame = frame.Seq

	if a.cfg.Motion != nil {
		if moved, _ := a.cfg.Motion.Admit(&frame.Mat); !moved {
			frame.Close()
			a.counts.skipped.Add(1)
			return
		}
	}

	select {
	case a.slots <- struct{}{}:
	default:
		frame.Close()
		a.counts.dropped.Add(1)
		return
	}

	a.seq++
	a.counts.submitted.Add(1)

	a.wg.Add(1)
	go a.classify(ctx, a.seq, frame)
}

// classify runs one classification and delivers its outcome. The in-flight
// slot is released only after the outcome is queued, so the outcome channel
// never holds more than MaxInFlight entries.
func (a *App) classify(ctx context.Context, seq uint64, frame *capture.Frame) {
	defer a.wg.Done()
	defer func() { <-a.slots }()

	result, err := a.cfg.Classifier.Classify(ctx, &frame.Mat)
	o := outcome{
		seq:        seq,
		capturedAt: frame.CapturedAt,
		result:     result,
		err:        err,
	}
	frame.Close()

	select {
	case a.outcomes <- o:
	case <-ctx.Done():
	}
}
