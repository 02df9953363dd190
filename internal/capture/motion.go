package capture

import (
	"image"
	"sync"
	"time"

	"gocv.io/x/gocv"
)

// Motion gate constants
const (
	// GaussianBlurSize is the kernel size for Gaussian blur (21x21)
	GaussianBlurSize = 21
	// DiffThreshold is the binary threshold for difference detection
	DiffThreshold = 25

	// IdleFPS is the capture rate while the scene is still.
	IdleFPS = 5
	// ActiveFPS is the capture rate while something is moving.
	ActiveFPS = 30
	// DefaultHold is how long the gate stays active after the last motion.
	DefaultHold = 2 * time.Second
	// DefaultMotionThreshold is the percentage of changed pixels that counts as motion.
	DefaultMotionThreshold = 1.0
)

// MotionGate decides whether frames are worth sending to the landmark
// detector. It compares each frame with the previous one and stays open
// for a hold period after the last motion, so a player standing still
// mid-game is not dropped immediately.
type MotionGate struct {
	threshold  float64
	hold       time.Duration
	prevGray   gocv.Mat
	primed     bool
	lastMotion time.Time
	mu         sync.Mutex
}

// NewMotionGate creates a gate. threshold is the percentage of pixels that
// must change; hold is how long the gate stays open afterwards. Non-positive
// values take the defaults.
func NewMotionGate(threshold float64, hold time.Duration) *MotionGate {
	if threshold <= 0 {
		threshold = DefaultMotionThreshold
	}
	if hold <= 0 {
		hold = DefaultHold
	}
	return &MotionGate{
		threshold: threshold,
		hold:      hold,
		prevGray:  gocv.NewMat(),
	}
}

// Detect compares frame with the previous frame and reports whether
// motion was seen and the percentage of pixels that changed. The first
// frame only primes the baseline.
func (m *MotionGate) Detect(frame *gocv.Mat) (bool, float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.detect(frame)
}

func (m *MotionGate) detect(frame *gocv.Mat) (bool, float64) {
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
	gocv.GaussianBlur(gray, &blurred, image.Point{X: GaussianBlurSize, Y: GaussianBlurSize}, 0, 0, gocv.BorderDefault)

	if !m.primed {
		blurred.CopyTo(&m.prevGray)
		m.primed = true
		return false, 0
	}

	diff := gocv.NewMat()
	defer diff.Close()
	gocv.AbsDiff(blurred, m.prevGray, &diff)

	thresh := gocv.NewMat()
	defer thresh.Close()
	gocv.Threshold(diff, &thresh, DiffThreshold, 255, gocv.ThresholdBinary)

	nonZero := gocv.CountNonZero(thresh)
	total := thresh.Rows() * thresh.Cols()
	changed := float64(nonZero) / float64(total) * 100.0

	blurred.CopyTo(&m.prevGray)

	return changed > m.threshold, changed
}

// Observe runs motion detection on frame and returns whether the gate is
// open at now.
func (m *MotionGate) Observe(frame *gocv.Mat, now time.Time) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if moved, _ := m.detect(frame); moved {
		m.lastMotion = now
	}
	return m.openAt(now)
}

// Open reports whether motion was seen within the hold period before now.
func (m *MotionGate) Open(now time.Time) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.openAt(now)
}

func (m *MotionGate) openAt(now time.Time) bool {
	return !m.lastMotion.IsZero() && now.Sub(m.lastMotion) <= m.hold
}

// FPS returns the capture rate to use at now.
func (m *MotionGate) FPS(now time.Time) int {
	if m.Open(now) {
		return ActiveFPS
	}
	return IdleFPS
}

// Reset forgets the baseline frame and the last motion.
func (m *MotionGate) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.prevGray.Empty() {
		m.prevGray.Close()
		m.prevGray = gocv.NewMat()
	}
	m.primed = false
	m.lastMotion = time.Time{}
}

// Close releases resources used by the gate.
func (m *MotionGate) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.prevGray.Close()
	m.prevGray = gocv.NewMat()
	m.primed = false
}
