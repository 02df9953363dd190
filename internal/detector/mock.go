package detector

import (
	"sync"

	"gocv.io/x/gocv"
)

// MockDetector is a test implementation of the Detector interface.
// It allows tests to control the detection results.
type MockDetector struct {
	mu    sync.Mutex
	frame Frame
	err   error
	calls int
}

// NewMockDetector creates a new MockDetector instance.
func NewMockDetector() *MockDetector {
	return &MockDetector{}
}

// SetFrame sets the frame that will be returned by Detect.
func (m *MockDetector) SetFrame(f Frame) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.frame = f
}

// SetError sets the error that will be returned by Detect.
func (m *MockDetector) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Calls returns how many times Detect has been called.
func (m *MockDetector) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// Detect returns the pre-configured frame or error.
func (m *MockDetector) Detect(frame *gocv.Mat) (Frame, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.err != nil {
		return Frame{}, m.err
	}
	return m.frame, nil
}

// Close is a no-op for the mock detector.
func (m *MockDetector) Close() error {
	return nil
}

// Thumb describes the thumb in a synthetic pose.
type Thumb int

const (
	ThumbTucked Thumb = iota
	ThumbUp
	ThumbDown
)

// Pose describes a synthetic hand: the thumb, then index, middle, ring and
// pinky extended or curled.
type Pose struct {
	Thumb   Thumb
	Fingers [4]bool
}

// Common poses.
var (
	PoseOpenPalm   = Pose{Thumb: ThumbUp, Fingers: [4]bool{true, true, true, true}}
	PoseFist       = Pose{Thumb: ThumbTucked}
	PosePeace      = Pose{Fingers: [4]bool{true, true, false, false}}
	PosePoint      = Pose{Fingers: [4]bool{true, false, false, false}}
	PoseThumbsUp   = Pose{Thumb: ThumbUp}
	PoseThumbsDown = Pose{Thumb: ThumbDown}
	PoseThree      = Pose{Fingers: [4]bool{true, true, true, false}}
	PoseFour       = Pose{Fingers: [4]bool{true, true, true, true}}
	PoseRockOn     = Pose{Fingers: [4]bool{true, false, false, true}}
)

// fingerColumns are the x offsets of the index..pinky columns from the wrist.
var fingerColumns = [4]float64{30, 10, -10, -30}

// HandAt builds pixel-space landmarks for pose p with the wrist at (x, y).
// Extended fingers rise 110 px above the wrist; curled fingers fold back
// below their middle joint. The thumb tip sits 50 px above or below its
// base when up or down and 10 px above it when tucked.
func HandAt(p Pose, x, y float64) HandLandmarks {
	h := HandLandmarks{Handedness: "Right", Score: 0.95}

	h.Points[Wrist] = Point3D{X: x, Y: y}

	thumbX := x + 45
	h.Points[ThumbCMC] = Point3D{X: thumbX - 10, Y: y - 15}
	h.Points[ThumbMCP] = Point3D{X: thumbX, Y: y - 30}
	switch p.Thumb {
	case ThumbUp:
		h.Points[ThumbIP] = Point3D{X: thumbX, Y: y - 55}
		h.Points[ThumbTip] = Point3D{X: thumbX, Y: y - 80}
	case ThumbDown:
		h.Points[ThumbIP] = Point3D{X: thumbX, Y: y - 5}
		h.Points[ThumbTip] = Point3D{X: thumbX, Y: y + 20}
	default:
		h.Points[ThumbIP] = Point3D{X: thumbX - 5, Y: y - 35}
		h.Points[ThumbTip] = Point3D{X: thumbX - 10, Y: y - 40}
	}

	for i, extended := range p.Fingers {
		base := IndexMCP + i*4
		fx := x + fingerColumns[i]
		h.Points[base] = Point3D{X: fx, Y: y - 60}
		if extended {
			h.Points[base+1] = Point3D{X: fx, Y: y - 80}
			h.Points[base+2] = Point3D{X: fx, Y: y - 95}
			h.Points[base+3] = Point3D{X: fx, Y: y - 110}
		} else {
			h.Points[base+1] = Point3D{X: fx, Y: y - 75, Z: -5}
			h.Points[base+2] = Point3D{X: fx, Y: y - 65, Z: -5}
			h.Points[base+3] = Point3D{X: fx, Y: y - 55, Z: -2}
		}
	}

	return h
}

// FaceAt builds a small synthetic face mesh whose anchor sits at (x, y).
// The other points outline a 120x160 px oval around it.
func FaceAt(x, y float64) FaceLandmarks {
	points := make([]Point3D, 12)
	offsets := [][2]float64{
		{0, -60}, {40, -50}, {60, -10}, {55, 40}, {30, 90}, {0, 100},
		{0, 0}, // anchor
		{-30, 90}, {-55, 40}, {-60, -10}, {-40, -50}, {0, 20},
	}
	for i, o := range offsets {
		points[i] = Point3D{X: x + o[0], Y: y + o[1]}
	}
	return FaceLandmarks{Points: points}
}
