package capture

import (
	"context"
	"sync"
	"time"

	"github.com/ayusman/mudra/internal/log"
	"gocv.io/x/gocv"
)

// retryDelay is how long the grabber waits after a failed read.
const retryDelay = 100 * time.Millisecond

// Frame is a captured image with its capture order and time.
type Frame struct {
	Mat        gocv.Mat
	Seq        uint64
	CapturedAt time.Time
}

// Close releases the frame's image.
func (f *Frame) Close() error {
	if f == nil {
		return nil
	}
	return f.Mat.Close()
}

// Source yields the most recently captured frame without blocking.
type Source interface {
	// CurrentFrame returns a copy of the latest frame, or nil when none is
	// available yet. The caller must Close the returned frame.
	CurrentFrame() *Frame
}

// Grabber continuously reads a Camera in the background and keeps only the
// most recent frame, turning a blocking camera into a Source.
type Grabber struct {
	camera Camera

	mu      sync.Mutex
	latest  *Frame
	seq     uint64
	cancel  context.CancelFunc
	done    chan struct{}
	readErr error
}

// NewGrabber creates a Grabber over camera. Start must be called before
// frames become available.
func NewGrabber(camera Camera) *Grabber {
	return &Grabber{camera: camera}
}

// Start opens the camera and begins grabbing frames.
// Calling Start on a running Grabber does nothing.
func (g *Grabber) Start() error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.cancel != nil {
		return nil
	}

	if err := g.camera.Open(); err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	g.cancel = cancel
	g.done = make(chan struct{})
	go g.run(ctx, g.done)

	return nil
}

// Stop halts grabbing, closes the camera and drops the cached frame.
func (g *Grabber) Stop() {
	g.mu.Lock()
	cancel, done := g.cancel, g.done
	g.cancel, g.done = nil, nil
	g.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done

	if err := g.camera.Close(); err != nil {
		log.Warn("closing camera", "error", err)
	}

	g.mu.Lock()
	g.latest.Close()
	g.latest = nil
	g.mu.Unlock()
}

// CurrentFrame returns a clone of the latest frame, or nil.
func (g *Grabber) CurrentFrame() *Frame {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.latest == nil {
		return nil
	}

	return &Frame{
		Mat:        g.latest.Mat.Clone(),
		Seq:        g.latest.Seq,
		CapturedAt: g.latest.CapturedAt,
	}
}

// Camera returns the underlying camera.
func (g *Grabber) Camera() Camera {
	return g.camera
}

// Err returns the last read error, or nil after a successful read.
func (g *Grabber) Err() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.readErr
}

func (g *Grabber) run(ctx context.Context, done chan struct{}) {
	defer close(done)

	var next time.Time
	for {
		// Reads are paced to the camera's frame rate so that sources which
		// return immediately do not spin.
		wait := time.Until(next)
		if wait < 0 {
			wait = 0
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(wait):
		}
		next = time.Now().Add(frameInterval(g.camera.FPS()))

		mat, err := g.camera.ReadFrame()
		if err != nil {
			g.mu.Lock()
			first := g.readErr == nil
			g.readErr = err
			g.mu.Unlock()
			if first {
				log.Warn("reading frame", "error", err)
			}

			select {
			case <-ctx.Done():
				return
			case <-time.After(retryDelay):
			}
			continue
		}

		g.store(mat)
	}
}

func frameInterval(fps int) time.Duration {
	if fps <= 0 {
		fps = DefaultFPS
	}
	return time.Second / time.Duration(fps)
}

func (g *Grabber) store(mat *gocv.Mat) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.seq++
	g.latest.Close()
	g.latest = &Frame{Mat: *mat, Seq: g.seq, CapturedAt: time.Now()}
	g.readErr = nil
}
