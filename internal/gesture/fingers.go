package gesture

import (
	"math"

	"github.com/ayusman/carnival/internal/detector"
)

// ThumbThreshold is the minimum vertical tip-to-base distance, in pixels,
// for the thumb to count as extended.
const ThumbThreshold = 30.0

// Direction is the thumb's vertical direction.
type Direction int

const (
	Neutral Direction = iota
	Up
	Down
)

func (d Direction) String() string {
	switch d {
	case Up:
		return "up"
	case Down:
		return "down"
	default:
		return "neutral"
	}
}

// Finger indexes into FingerStates.
const (
	Thumb = iota
	Index
	Middle
	Ring
	Pinky
)

// FingerState is the extension of a single finger.
type FingerState struct {
	Extended  bool
	Direction Direction
}

// FingerStates holds the thumb, index, middle, ring and pinky in that order.
type FingerStates [5]FingerState

// Extended returns the bare extension flags.
func (fs FingerStates) Extended() [5]bool {
	var out [5]bool
	for i, f := range fs {
		out[i] = f.Extended
	}
	return out
}

// ThumbDirection returns the direction of the thumb.
func (fs FingerStates) ThumbDirection() Direction {
	return fs[Thumb].Direction
}

var (
	fingerTips  = [5]int{detector.ThumbTip, detector.IndexTip, detector.MiddleTip, detector.RingTip, detector.PinkyTip}
	fingerMids  = [5]int{detector.ThumbIP, detector.IndexDIP, detector.MiddleDIP, detector.RingDIP, detector.PinkyDIP}
	fingerBases = [5]int{detector.ThumbMCP, detector.IndexMCP, detector.MiddleMCP, detector.RingMCP, detector.PinkyMCP}
)

// ReadFingers derives finger states from hand landmarks in pixel space
// (y grows downward).
func ReadFingers(h *detector.HandLandmarks) FingerStates {
	var fs FingerStates

	tipY := h.Points[fingerTips[Thumb]].Y
	baseY := h.Points[fingerBases[Thumb]].Y
	fs[Thumb].Extended = math.Abs(tipY-baseY) > ThumbThreshold
	if tipY < baseY {
		fs[Thumb].Direction = Up
	} else {
		fs[Thumb].Direction = Down
	}

	for i := Index; i <= Pinky; i++ {
		tip := h.Points[fingerTips[i]].Y
		mid := h.Points[fingerMids[i]].Y
		base := h.Points[fingerBases[i]].Y
		fs[i] = FingerState{Extended: tip < mid && tip < base}
	}

	return fs
}
