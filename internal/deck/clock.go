package deck

import (
	"sync"
	"time"
)

// ClockOutput is an Output that renders nothing and advances its playhead
// with the wall clock. It stands in for the speaker in tests and headless runs.
type ClockOutput struct {
	length  time.Duration
	now     func() time.Time
	mu      sync.Mutex
	paused  bool
	offset  time.Duration // playhead when last paused or seeked
	resumed time.Time     // when rendering last resumed
	closed  bool
}

// NewClockOutput creates a paused ClockOutput for a track of the given length.
func NewClockOutput(length time.Duration) *ClockOutput {
	return &ClockOutput{
		length: length,
		now:    time.Now,
		paused: true,
	}
}

// SetPaused suspends or resumes the playhead.
func (o *ClockOutput) SetPaused(paused bool) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if paused == o.paused {
		return
	}
	if paused {
		o.offset = o.positionLocked()
	} else {
		o.resumed = o.now()
	}
	o.paused = paused
}

// Seek moves the playhead, clamped to the track.
func (o *ClockOutput) Seek(pos time.Duration) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if pos < 0 {
		pos = 0
	}
	if o.length > 0 && pos > o.length {
		pos = o.length
	}
	o.offset = pos
	o.resumed = o.now()
	return nil
}

// Position returns the playhead.
func (o *ClockOutput) Position() time.Duration {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.positionLocked()
}

// Length returns the track length.
func (o *ClockOutput) Length() time.Duration {
	return o.length
}

// Paused reports whether the playhead is suspended.
func (o *ClockOutput) Paused() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.paused
}

// Close marks the output closed.
func (o *ClockOutput) Close() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.closed = true
	return nil
}

func (o *ClockOutput) positionLocked() time.Duration {
	pos := o.offset
	if !o.paused {
		pos += o.now().Sub(o.resumed)
	}
	if o.length > 0 && pos > o.length {
		pos = o.length
	}
	return pos
}
