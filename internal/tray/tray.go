// Package tray shows the recognised gesture and playback position in the
// system tray.
package tray

import (
	"strings"
	"sync"
	"time"

	"github.com/getlantern/systray"

	"github.com/ayusman/mudra/internal/deck"
	"github.com/ayusman/mudra/internal/gesture"
)

// predictionLines is the number of menu rows reserved for the summary,
// including its heading.
const predictionLines = 4

// Tray is an app.Presenter backed by the system tray. The title shows the
// current glyph and the menu lists the top predictions and play time.
type Tray struct {
	mu       sync.RWMutex
	onToggle func(enabled bool)
	onOpen   func()
	onQuit   func()
	enabled  bool
	ready    bool

	// Last shown values, replayed when the menu becomes ready.
	glyph    string
	lines    []string
	playTime string

	menuToggle      *systray.MenuItem
	menuPredictions []*systray.MenuItem
	menuPlayTime    *systray.MenuItem
}

// New creates a Tray. enabled is the initial recognition state.
func New(enabled bool) *Tray {
	return &Tray{
		enabled:  enabled,
		glyph:    gesture.Unknown.Glyph(),
		playTime: deck.FormatPlayTime(0),
	}
}

// OnToggle sets the callback run when recognition is switched on or off.
func (t *Tray) OnToggle(fn func(enabled bool)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onToggle = fn
}

// OnOpen sets the callback run when the control panel item is clicked.
func (t *Tray) OnOpen(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onOpen = fn
}

// OnQuit sets the callback run when Quit is clicked.
func (t *Tray) OnQuit(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onQuit = fn
}

// Run starts the tray. It must be called from the main goroutine and blocks
// until Quit.
func (t *Tray) Run() {
	systray.Run(t.onReady, func() {})
}

// Quit closes the tray, making Run return.
func (t *Tray) Quit() {
	systray.Quit()
}

func (t *Tray) onReady() {
	systray.SetTooltip("mudra gesture control")

	t.mu.Lock()
	t.menuToggle = systray.AddMenuItem(toggleTitle(t.enabled), "Toggle gesture recognition")
	systray.AddSeparator()

	t.menuPredictions = make([]*systray.MenuItem, predictionLines)
	for i := range t.menuPredictions {
		item := systray.AddMenuItem("", "Top predictions")
		item.Disable()
		t.menuPredictions[i] = item
	}
	systray.AddSeparator()

	t.menuPlayTime = systray.AddMenuItem("", "Playback position")
	t.menuPlayTime.Disable()
	systray.AddSeparator()

	menuOpen := systray.AddMenuItem("Open Control Panel...", "Open the control panel in a browser")
	menuQuit := systray.AddMenuItem("Quit", "Quit mudra")

	t.ready = true
	t.renderLocked()
	t.mu.Unlock()

	go func() {
		for {
			select {
			case <-t.menuToggle.ClickedCh:
				t.toggle()
			case <-menuOpen.ClickedCh:
				t.callback(func() func() { return t.onOpen })
			case <-menuQuit.ClickedCh:
				t.callback(func() func() { return t.onQuit })
				systray.Quit()
				return
			}
		}
	}()
}

// renderLocked pushes the stored values to the menu. t.mu must be held.
func (t *Tray) renderLocked() {
	if !t.ready {
		return
	}
	systray.SetTitle(t.glyph)
	for i, item := range t.menuPredictions {
		if i < len(t.lines) {
			item.SetTitle(t.lines[i])
			item.Show()
		} else {
			item.Hide()
		}
	}
	t.menuPlayTime.SetTitle(t.playTime)
}

func (t *Tray) callback(get func() func()) {
	t.mu.RLock()
	fn := get()
	t.mu.RUnlock()
	if fn != nil {
		fn()
	}
}

func (t *Tray) toggle() {
	t.mu.Lock()
	t.enabled = !t.enabled
	enabled := t.enabled
	if t.menuToggle != nil {
		t.menuToggle.SetTitle(toggleTitle(enabled))
	}
	fn := t.onToggle
	t.mu.Unlock()

	if fn != nil {
		fn(enabled)
	}
}

func toggleTitle(enabled bool) string {
	if enabled {
		return "● Enabled"
	}
	return "○ Disabled"
}

// IsEnabled returns the toggle state shown in the menu.
func (t *Tray) IsEnabled() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.enabled
}

// ShowPredictions displays the prediction summary, one menu row per line.
func (t *Tray) ShowPredictions(summary string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.lines = summaryLines(summary, predictionLines)
	t.renderLocked()
}

// ShowSymbol shows the symbol's glyph as the tray title.
func (t *Tray) ShowSymbol(s gesture.Symbol) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if glyph := s.Glyph(); glyph != t.glyph {
		t.glyph = glyph
		t.renderLocked()
	}
}

// ShowPosition shows the playback position.
func (t *Tray) ShowPosition(pos time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if pt := deck.FormatPlayTime(pos); pt != t.playTime {
		t.playTime = pt
		t.renderLocked()
	}
}

// summaryLines splits summary into at most n trimmed, non-empty lines.
func summaryLines(summary string, n int) []string {
	var lines []string
	for line := range strings.SplitSeq(summary, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		lines = append(lines, line)
		if len(lines) == n {
			break
		}
	}
	return lines
}
