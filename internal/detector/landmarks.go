// Package detector provides the landmark data model and the detectors that produce it.
package detector

import "time"

// Hand landmark indices following MediaPipe convention.
// See: https://developers.google.com/mediapipe/solutions/vision/hand_landmarker
const (
	Wrist        = 0
	ThumbCMC     = 1
	ThumbMCP     = 2
	ThumbIP      = 3
	ThumbTip     = 4
	IndexMCP     = 5
	IndexPIP     = 6
	IndexDIP     = 7
	IndexTip     = 8
	MiddleMCP    = 9
	MiddlePIP    = 10
	MiddleDIP    = 11
	MiddleTip    = 12
	RingMCP      = 13
	RingPIP      = 14
	RingDIP      = 15
	RingTip      = 16
	PinkyMCP     = 17
	PinkyPIP     = 18
	PinkyDIP     = 19
	PinkyTip     = 20
	NumLandmarks = 21
)

// FaceAnchor is the face mesh point between the eyes. Word catching tracks it.
const FaceAnchor = 6

// Default video dimensions in pixels. Landmarks are reported in this space.
const (
	DefaultVideoWidth  = 640
	DefaultVideoHeight = 480
)

// Point3D represents a 3D point in video pixel space.
type Point3D struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// HandLandmarks represents the 21 hand landmarks detected by MediaPipe.
type HandLandmarks struct {
	Points     [NumLandmarks]Point3D `json:"points"`
	Handedness string                `json:"handedness"` // "Left" or "Right"
	Score      float64               `json:"score"`
}

// Palm returns the wrist landmark, which the instrument treats as the palm position.
func (h *HandLandmarks) Palm() Point3D {
	return h.Points[Wrist]
}

// FaceLandmarks is a face mesh (about 468 points).
type FaceLandmarks struct {
	Points []Point3D `json:"points"`
}

// Anchor returns the catch anchor point and false if the mesh is too short to have one.
func (f *FaceLandmarks) Anchor() (Point3D, bool) {
	if f == nil || len(f.Points) <= FaceAnchor {
		return Point3D{}, false
	}
	return f.Points[FaceAnchor], true
}

// Frame is one emission of a landmark source: every subject seen in a
// single video frame. Frames are replaced wholesale, never patched.
type Frame struct {
	Hands  []HandLandmarks `json:"hands"`
	Faces  []FaceLandmarks `json:"faces"`
	Width  int             `json:"width"`
	Height int             `json:"height"`
	At     time.Time       `json:"-"`
}

// VideoSize returns the frame dimensions, falling back to the defaults
// when the producer left them unset.
func (f Frame) VideoSize() (w, h float64) {
	w, h = float64(f.Width), float64(f.Height)
	if w <= 0 {
		w = DefaultVideoWidth
	}
	if h <= 0 {
		h = DefaultVideoHeight
	}
	return w, h
}
