package capture

import (
	"errors"
	"sync"
	"time"

	"gocv.io/x/gocv"
)

// ErrNoMoreFrames is returned by MockCamera when playback has finished.
var ErrNoMoreFrames = errors.New("no more frames")

// MockCamera plays back pre-recorded frames for testing
type MockCamera struct {
	frames  []*gocv.Mat
	index   int
	loop    bool
	fps     int
	mu      sync.Mutex
	running bool
}

// NewMockCamera creates a MockCamera over frames, optionally looping.
func NewMockCamera(frames []*gocv.Mat, loop bool) *MockCamera {
	return &MockCamera{
		frames: frames,
		loop:   loop,
		fps:    DefaultFPS,
	}
}

func (c *MockCamera) Open() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.running = true
	c.index = 0
	return nil
}

func (c *MockCamera) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.running = false
	return nil
}

func (c *MockCamera) ReadFrame() (*gocv.Mat, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.running {
		return nil, ErrCameraNotOpen
	}

	if len(c.frames) == 0 {
		return nil, ErrNoMoreFrames
	}

	if c.index >= len(c.frames) {
		if !c.loop {
			return nil, ErrNoMoreFrames
		}
		c.index = 0
	}

	// Clone the frame so the original isn't modified
	frame := c.frames[c.index].Clone()
	c.index++

	return &frame, nil
}

func (c *MockCamera) SetFPS(fps int) {
	if fps <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fps = fps
}

func (c *MockCamera) FPS() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.fps
}

func (c *MockCamera) IsOpen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.running
}

// SetFrames replaces the frame sequence
func (c *MockCamera) SetFrames(frames []*gocv.Mat) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.frames = frames
	c.index = 0
}

// Reset restarts playback from the beginning
func (c *MockCamera) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.index = 0
}

// MockSource is a Source that hands out a fresh blank frame on every call,
// or nothing while empty is set.
type MockSource struct {
	mu     sync.Mutex
	seq    uint64
	rows   int
	cols   int
	empty  bool
	repeat bool
	calls  int
}

// NewMockSource creates a MockSource producing rows x cols BGR frames.
func NewMockSource(rows, cols int) *MockSource {
	return &MockSource{rows: rows, cols: cols}
}

// SetEmpty makes CurrentFrame return nil while empty is true.
func (s *MockSource) SetEmpty(empty bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.empty = empty
}

// SetRepeat makes CurrentFrame keep returning the same sequence number,
// as a camera does when no new image has been captured.
func (s *MockSource) SetRepeat(repeat bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.repeat = repeat
}

// Calls returns how many times CurrentFrame has been invoked.
func (s *MockSource) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

// CurrentFrame returns a new blank frame or nil.
func (s *MockSource) CurrentFrame() *Frame {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.calls++
	if s.empty {
		return nil
	}
	if !s.repeat || s.seq == 0 {
		s.seq++
	}

	return &Frame{
		Mat:        gocv.NewMatWithSize(s.rows, s.cols, gocv.MatTypeCV8UC3),
		Seq:        s.seq,
		CapturedAt: time.Now(),
	}
}
