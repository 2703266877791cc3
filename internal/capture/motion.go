package capture

import (
	"image"
	"sync"

	"gocv.io/x/gocv"
)

const (
	// blurKernel is the Gaussian blur kernel size applied before differencing.
	blurKernel = 21
	// pixelDelta is the per-pixel intensity change counted as movement.
	pixelDelta = 25
)

// MotionGate decides whether a frame differs enough from the last frame it
// let through to be worth classifying. Threshold is the percentage of pixels
// that must change.
type MotionGate struct {
	mu        sync.Mutex
	threshold float64
	baseline  gocv.Mat
	primed    bool
}

// NewMotionGate creates a MotionGate. A threshold of 1.0 means 1% of pixels.
func NewMotionGate(threshold float64) *MotionGate {
	return &MotionGate{
		threshold: threshold,
		baseline:  gocv.NewMat(),
	}
}

// Admit reports whether frame should be classified, along with the
// percentage of pixels that changed. The first frame is always admitted.
// The baseline only advances on admitted frames so that slow drift still
// accumulates into a change.
func (g *MotionGate) Admit(frame *gocv.Mat) (bool, float64) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if frame == nil || frame.Empty() {
		return false, 0
	}

	gray := gocv.NewMat()
	defer gray.Close()
	if frame.Channels() > 1 {
		gocv.CvtColor(*frame, &gray, gocv.ColorBGRToGray)
	} else {
		frame.CopyTo(&gray)
	}

	blurred := gocv.NewMat()
	defer blurred.Close()
	gocv.GaussianBlur(gray, &blurred, image.Point{X: blurKernel, Y: blurKernel}, 0, 0, gocv.BorderDefault)

	if !g.primed || blurred.Rows() != g.baseline.Rows() || blurred.Cols() != g.baseline.Cols() {
		blurred.CopyTo(&g.baseline)
		g.primed = true
		return true, 100
	}

	diff := gocv.NewMat()
	defer diff.Close()
	gocv.AbsDiff(blurred, g.baseline, &diff)

	mask := gocv.NewMat()
	defer mask.Close()
	gocv.Threshold(diff, &mask, pixelDelta, 255, gocv.ThresholdBinary)

	total := mask.Rows() * mask.Cols()
	if total == 0 {
		return false, 0
	}
	changed := float64(gocv.CountNonZero(mask)) / float64(total) * 100

	if changed <= g.threshold {
		return false, changed
	}
	blurred.CopyTo(&g.baseline)
	return true, changed
}

// Threshold returns the change percentage above which frames are admitted.
func (g *MotionGate) Threshold() float64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.threshold
}

// SetThreshold changes the threshold. Values outside (0, 100] are ignored.
func (g *MotionGate) SetThreshold(threshold float64) {
	if threshold <= 0 || threshold > 100 {
		return
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.threshold = threshold
}

// Reset forgets the baseline so the next frame is admitted.
func (g *MotionGate) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.resetLocked()
}

// Close releases the baseline image. The gate is reusable afterwards.
func (g *MotionGate) Close() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.resetLocked()
}

func (g *MotionGate) resetLocked() {
	if !g.baseline.Empty() {
		g.baseline.Close()
		g.baseline = gocv.NewMat()
	}
	g.primed = false
}
