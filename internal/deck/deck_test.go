package deck

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ayusman/mudra/internal/gesture"
)

// fakeClock is a manually advanced time source.
type fakeClock struct {
	t time.Time
}

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestDeck(t *testing.T, length time.Duration) (*Deck, *ClockOutput, *fakeClock) {
	t.Helper()

	clock := &fakeClock{t: time.Unix(1700000000, 0)}
	out := NewClockOutput(length)
	out.now = clock.Now

	d, err := New(out)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return d, out, clock
}

func TestNew_NilOutput(t *testing.T) {
	if _, err := New(nil); !errors.Is(err, ErrNoOutput) {
		t.Errorf("New(nil) error = %v, want ErrNoOutput", err)
	}
}

func TestDeck_InitialState(t *testing.T) {
	d, out, _ := newTestDeck(t, time.Minute)

	if d.State() != Stopped {
		t.Errorf("State() = %v, want stopped", d.State())
	}
	if !out.Paused() {
		t.Error("output should start paused")
	}
	if d.Position() != 0 {
		t.Errorf("Position() = %v, want 0", d.Position())
	}
}

func TestDeck_PlayPauseStop(t *testing.T) {
	d, out, clock := newTestDeck(t, time.Minute)

	if err := d.Play(); err != nil {
		t.Fatalf("Play() error = %v", err)
	}
	if d.State() != Playing || out.Paused() {
		t.Fatalf("after Play: state %v, paused %v", d.State(), out.Paused())
	}

	clock.Advance(3 * time.Second)

	if err := d.Pause(); err != nil {
		t.Fatalf("Pause() error = %v", err)
	}
	if d.State() != Paused {
		t.Errorf("after Pause: state %v, want paused", d.State())
	}
	if got := d.Position(); got != 3*time.Second {
		t.Errorf("Position() after pause = %v, want 3s", got)
	}

	clock.Advance(10 * time.Second)
	if got := d.Position(); got != 3*time.Second {
		t.Errorf("paused position moved to %v", got)
	}

	if err := d.Play(); err != nil {
		t.Fatalf("Play() error = %v", err)
	}
	clock.Advance(2 * time.Second)
	if got := d.Position(); got != 5*time.Second {
		t.Errorf("Position() after resume = %v, want 5s", got)
	}

	if err := d.Stop(); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}
	if d.State() != Stopped {
		t.Errorf("after Stop: state %v, want stopped", d.State())
	}
	if got := d.Position(); got != 0 {
		t.Errorf("Position() after stop = %v, want 0", got)
	}
	if !out.Paused() {
		t.Error("output should be paused after Stop")
	}
}

func TestDeck_Idempotent(t *testing.T) {
	d, _, clock := newTestDeck(t, time.Minute)

	for i := 0; i < 2; i++ {
		if err := d.Play(); err != nil {
			t.Fatalf("Play() #%d error = %v", i+1, err)
		}
		clock.Advance(time.Second)
	}
	if d.State() != Playing {
		t.Errorf("State() after Play twice = %v, want playing", d.State())
	}
	if got := d.Position(); got != 2*time.Second {
		t.Errorf("second Play should not restart, position = %v", got)
	}

	for i := 0; i < 2; i++ {
		if err := d.Stop(); err != nil {
			t.Fatalf("Stop() #%d error = %v", i+1, err)
		}
	}
	if d.State() != Stopped {
		t.Errorf("State() after Stop twice = %v", d.State())
	}
}

func TestDeck_PauseWhileStopped(t *testing.T) {
	d, out, _ := newTestDeck(t, time.Minute)

	if err := d.Pause(); err != nil {
		t.Fatalf("Pause() error = %v", err)
	}
	if d.State() != Stopped {
		t.Errorf("Pause on stopped deck changed state to %v", d.State())
	}
	if !out.Paused() {
		t.Error("output should stay paused")
	}
}

func TestDeck_PlayAfterEnd(t *testing.T) {
	d, _, clock := newTestDeck(t, 10*time.Second)

	d.Play()
	clock.Advance(15 * time.Second)

	if d.State() != Stopped {
		t.Errorf("finished track should report stopped, got %v", d.State())
	}
	if got := d.Position(); got != 10*time.Second {
		t.Errorf("Position() = %v, want clamped to 10s", got)
	}

	if err := d.Play(); err != nil {
		t.Fatalf("Play() error = %v", err)
	}
	if got := d.Position(); got != 0 {
		t.Errorf("Play after end should rewind, position = %v", got)
	}
	if d.State() != Playing {
		t.Errorf("State() = %v, want playing", d.State())
	}
}

func TestDeck_Apply(t *testing.T) {
	d, _, _ := newTestDeck(t, time.Minute)

	steps := []struct {
		cmd  gesture.Command
		want State
	}{
		{gesture.None, Stopped},
		{gesture.Play, Playing},
		{gesture.None, Playing},
		{gesture.Pause, Paused},
		{gesture.Play, Playing},
		{gesture.Stop, Stopped},
	}

	for _, step := range steps {
		if err := d.Apply(step.cmd); err != nil {
			t.Fatalf("Apply(%v) error = %v", step.cmd, err)
		}
		if got := d.State(); got != step.want {
			t.Errorf("after Apply(%v): state %v, want %v", step.cmd, got, step.want)
		}
	}

	if err := d.Apply(gesture.Command(99)); err == nil {
		t.Error("expected error for unsupported command")
	}
}

func TestDeck_Close(t *testing.T) {
	d, out, _ := newTestDeck(t, time.Minute)
	d.Play()

	if err := d.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if !out.closed {
		t.Error("output should be closed")
	}
	if d.State() != Stopped {
		t.Errorf("State() after Close = %v", d.State())
	}
}

func TestFormatPlayTime(t *testing.T) {
	tests := []struct {
		pos  time.Duration
		want string
	}{
		{0, "Music Play time:0.0"},
		{12340 * time.Millisecond, "Music Play time:12.3"},
		{1960 * time.Millisecond, "Music Play time:2.0"},
	}
	for _, tt := range tests {
		if got := FormatPlayTime(tt.pos); got != tt.want {
			t.Errorf("FormatPlayTime(%v) = %q, want %q", tt.pos, got, tt.want)
		}
	}
}

func TestOpenFile_Errors(t *testing.T) {
	dir := t.TempDir()

	t.Run("missing asset", func(t *testing.T) {
		if _, err := OpenFile(filepath.Join(dir, "music.mp3")); err == nil {
			t.Error("expected error for missing asset")
		}
	})

	t.Run("unsupported extension", func(t *testing.T) {
		path := filepath.Join(dir, "music.ogg")
		if err := os.WriteFile(path, []byte("OggS"), 0o644); err != nil {
			t.Fatal(err)
		}
		if _, err := OpenFile(path); err == nil {
			t.Error("expected error for unsupported format")
		}
	})

	t.Run("corrupt wav", func(t *testing.T) {
		path := filepath.Join(dir, "music.wav")
		if err := os.WriteFile(path, []byte("not a wav file"), 0o644); err != nil {
			t.Fatal(err)
		}
		if _, err := OpenFile(path); err == nil {
			t.Error("expected error for corrupt asset")
		}
	})
}

func TestState_TextRoundTrip(t *testing.T) {
	for _, st := range []State{Stopped, Playing, Paused} {
		text, err := st.MarshalText()
		if err != nil {
			t.Fatalf("MarshalText(%v): %v", st, err)
		}
		var got State
		if err := got.UnmarshalText(text); err != nil {
			t.Fatalf("UnmarshalText(%q): %v", text, err)
		}
		if got != st {
			t.Errorf("round trip %v -> %v", st, got)
		}
	}

	var s State
	if err := s.UnmarshalText([]byte("rewinding")); err == nil {
		t.Error("expected error for unknown state")
	}
}
