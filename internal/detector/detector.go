package detector

import (
	"errors"
	"time"

	"gocv.io/x/gocv"
)

// ErrModelLoad is returned when the landmark model cannot be started.
var ErrModelLoad = errors.New("landmark model failed to load")

// Kind selects which landmark model a detector runs.
type Kind string

const (
	KindHands Kind = "hands"
	KindFace  Kind = "face"
)

// Detector defines the interface for landmark detection implementations.
type Detector interface {
	// Detect analyzes a video frame and returns the subjects found in it.
	// A frame with no subjects is not an error.
	Detect(frame *gocv.Mat) (Frame, error)

	// Close releases any resources held by the detector.
	Close() error
}

// Config holds configuration options for landmark detection.
type Config struct {
	// Kinds lists the models to run on every frame.
	Kinds []Kind

	// MaxHands is the maximum number of hands to detect (default: 2).
	MaxHands int

	// MaxFaces is the maximum number of faces to detect (default: 1).
	MaxFaces int

	// MinConfidence is the minimum detection confidence threshold (0.0-1.0).
	MinConfidence float64

	// MinTrackingConf is the minimum tracking confidence threshold (0.0-1.0).
	MinTrackingConf float64

	// ReadyTimeout bounds how long the service may take to load its models.
	ReadyTimeout time.Duration
}

// DefaultConfig returns a Config with the thresholds the instrument was tuned for.
func DefaultConfig() Config {
	return Config{
		Kinds:           []Kind{KindHands, KindFace},
		MaxHands:        2,
		MaxFaces:        1,
		MinConfidence:   0.8,
		MinTrackingConf: 0.8,
		ReadyTimeout:    30 * time.Second,
	}
}
