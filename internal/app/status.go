package app

import (
	"sync/atomic"
	"time"

	"github.com/ayusman/mudra/internal/deck"
	"github.com/ayusman/mudra/internal/gesture"
)

// Status is a point-in-time view of the app, safe to share across goroutines.
type Status struct {
	Enabled       bool           `json:"enabled"`
	Symbol        gesture.Symbol `json:"symbol"`
	Glyph         string         `json:"glyph"`
	Summary       string         `json:"summary"`
	TopLabel      string         `json:"top_label,omitempty"`
	TopConfidence *float64       `json:"top_confidence,omitempty"`
	Transport     deck.State     `json:"transport"`
	Position      float64        `json:"position_seconds"`
	Length        float64        `json:"length_seconds"`
	PlayTime      string         `json:"play_time"`
	Seq           uint64         `json:"seq"`
	Counters      Counters       `json:"counters"`
	UpdatedAt     time.Time      `json:"updated_at"`
}

// Counters tracks what happened to polled frames and their outcomes.
type Counters struct {
	Submitted uint64 `json:"submitted"`
	Skipped   uint64 `json:"skipped"`
	Dropped   uint64 `json:"dropped"`
	Failed    uint64 `json:"failed"`
	Empty     uint64 `json:"empty"`
	Stale     uint64 `json:"stale"`
	Applied   uint64 `json:"applied"`
	HooksLost uint64 `json:"hooks_lost"`
}

type counters struct {
	submitted atomic.Uint64
	skipped   atomic.Uint64
	dropped   atomic.Uint64
	failed    atomic.Uint64
	empty     atomic.Uint64
	stale     atomic.Uint64
	applied   atomic.Uint64
	hooksLost atomic.Uint64
}

func (c *counters) snapshot() Counters {
	return Counters{
		Submitted: c.submitted.Load(),
		Skipped:   c.skipped.Load(),
		Dropped:   c.dropped.Load(),
		Failed:    c.failed.Load(),
		Empty:     c.empty.Load(),
		Stale:     c.stale.Load(),
		Applied:   c.applied.Load(),
		HooksLost: c.hooksLost.Load(),
	}
}
