package app

import (
	"time"

	"github.com/ayusman/mudra/internal/gesture"
	"github.com/ayusman/mudra/internal/log"
)

// Presenter displays recognition output. All methods are called from the UI
// goroutine only.
type Presenter interface {
	// ShowPredictions displays the formatted top predictions.
	ShowPredictions(summary string)
	// ShowSymbol displays the current gesture symbol.
	ShowSymbol(s gesture.Symbol)
	// ShowPosition displays the playback position.
	ShowPosition(pos time.Duration)
}

// MultiPresenter forwards to every presenter in order.
type MultiPresenter []Presenter

func (m MultiPresenter) ShowPredictions(summary string) {
	for _, p := range m {
		p.ShowPredictions(summary)
	}
}

func (m MultiPresenter) ShowSymbol(s gesture.Symbol) {
	for _, p := range m {
		p.ShowSymbol(s)
	}
}

func (m MultiPresenter) ShowPosition(pos time.Duration) {
	for _, p := range m {
		p.ShowPosition(pos)
	}
}

// LogPresenter writes symbol changes to the log. It is the presenter used
// when running headless.
type LogPresenter struct {
	last gesture.Symbol
	seen bool
}

// NewLogPresenter creates a LogPresenter.
func NewLogPresenter() *LogPresenter {
	return &LogPresenter{}
}

func (p *LogPresenter) ShowPredictions(summary string) {
	log.Debug("predictions", "summary", summary)
}

func (p *LogPresenter) ShowSymbol(s gesture.Symbol) {
	if p.seen && s == p.last {
		return
	}
	p.last, p.seen = s, true
	log.Info("symbol", "glyph", s.Glyph(), "symbol", s)
}

func (p *LogPresenter) ShowPosition(time.Duration) {}
