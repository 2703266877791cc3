// Package deck provides the audio transport that gestures control.
package deck

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ayusman/mudra/internal/gesture"
)

// ErrNoOutput is returned when a Deck is created without an output.
var ErrNoOutput = errors.New("deck has no output")

// State is the transport state.
type State int

const (
	// Stopped means not playing, positioned at the start.
	Stopped State = iota
	// Playing means audio is being rendered.
	Playing
	// Paused means not playing, keeping the position.
	Paused
)

// String returns the state's name.
func (s State) String() string {
	switch s {
	case Stopped:
		return "stopped"
	case Playing:
		return "playing"
	case Paused:
		return "paused"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// MarshalText implements encoding.TextMarshaler.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *State) UnmarshalText(text []byte) error {
	for _, st := range []State{Stopped, Playing, Paused} {
		if st.String() == string(text) {
			*s = st
			return nil
		}
	}
	return fmt.Errorf("unknown transport state %q", text)
}

// Output renders one decoded audio track.
type Output interface {
	// SetPaused suspends or resumes rendering.
	SetPaused(paused bool)
	// Seek moves the playhead.
	Seek(pos time.Duration) error
	// Position returns the playhead.
	Position() time.Duration
	// Length returns the track duration, or 0 when unknown.
	Length() time.Duration
	// Close releases the track.
	Close() error
}

// Deck applies transport commands to an Output.
// Commands are idempotent: repeating one is never an error.
type Deck struct {
	out   Output
	state State
	mu    sync.Mutex
}

// New creates a stopped Deck over out.
func New(out Output) (*Deck, error) {
	if out == nil {
		return nil, ErrNoOutput
	}
	out.SetPaused(true)
	return &Deck{out: out, state: Stopped}, nil
}

// Play starts or resumes playback. A finished track restarts from zero.
func (d *Deck) Play() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.state == Playing && !d.finishedLocked() {
		return nil
	}

	if d.finishedLocked() {
		if err := d.out.Seek(0); err != nil {
			return fmt.Errorf("rewind finished track: %w", err)
		}
	}

	d.out.SetPaused(false)
	d.state = Playing
	return nil
}

// Pause suspends playback without resetting the position.
// Pausing a stopped or paused deck does nothing.
func (d *Deck) Pause() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.state != Playing {
		return nil
	}

	d.out.SetPaused(true)
	d.state = Paused
	return nil
}

// Stop halts playback and rewinds to zero.
func (d *Deck) Stop() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.out.SetPaused(true)
	if err := d.out.Seek(0); err != nil {
		return fmt.Errorf("rewind: %w", err)
	}
	d.state = Stopped
	return nil
}

// Apply executes a gesture command. None is a no-op.
func (d *Deck) Apply(cmd gesture.Command) error {
	switch cmd {
	case gesture.Play:
		return d.Play()
	case gesture.Pause:
		return d.Pause()
	case gesture.Stop:
		return d.Stop()
	case gesture.None:
		return nil
	default:
		return fmt.Errorf("unsupported command %v", cmd)
	}
}

// State returns the transport state. A track that played to its end
// reports Stopped.
func (d *Deck) State() State {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.state == Playing && d.finishedLocked() {
		return Stopped
	}
	return d.state
}

// Position returns the playhead.
func (d *Deck) Position() time.Duration {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.out.Position()
}

// Length returns the track duration.
func (d *Deck) Length() time.Duration {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.out.Length()
}

// Close stops rendering and releases the output.
func (d *Deck) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.out.SetPaused(true)
	d.state = Stopped
	return d.out.Close()
}

// finishedLocked must be called with d.mu held.
func (d *Deck) finishedLocked() bool {
	length := d.out.Length()
	return length > 0 && d.out.Position() >= length
}

// FormatPlayTime renders a position the way the play-time label shows it,
// rounded to a tenth of a second.
func FormatPlayTime(pos time.Duration) string {
	return fmt.Sprintf("Music Play time:%.1f", pos.Round(100*time.Millisecond).Seconds())
}
