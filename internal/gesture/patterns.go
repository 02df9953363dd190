package gesture

// Pattern pairs a predicate over finger states with the label it produces.
type Pattern struct {
	Gesture Gesture
	Match   func(FingerStates) bool
}

// shape builds a predicate that requires the exact thumb..pinky extension vector.
func shape(want [5]bool) func(FingerStates) bool {
	return func(fs FingerStates) bool {
		return fs.Extended() == want
	}
}

func thumbOnly(dir Direction) func(FingerStates) bool {
	only := shape([5]bool{true, false, false, false, false})
	return func(fs FingerStates) bool {
		return only(fs) && fs.ThumbDirection() == dir
	}
}

func all(want bool) func(FingerStates) bool {
	return shape([5]bool{want, want, want, want, want})
}

// patterns is evaluated top to bottom; the first match wins, so an earlier
// entry shadows a later one that would also match.
var patterns = []Pattern{
	{ThumbsUp, thumbOnly(Up)},
	{ThumbsDown, thumbOnly(Down)},
	{OpenPalm, all(true)},
	{Fist, all(false)},
	{Peace, shape([5]bool{false, true, true, false, false})},
	{Point, shape([5]bool{false, true, false, false, false})},
	{Three, shape([5]bool{false, true, true, true, false})},
	{Four, shape([5]bool{false, true, true, true, true})},
	{RockOn, shape([5]bool{false, true, false, false, true})},
}

// Patterns returns a copy of the ordered pattern table.
func Patterns() []Pattern {
	out := make([]Pattern, len(patterns))
	copy(out, patterns)
	return out
}

// Identify returns the first pattern matching fs, or Unknown.
func Identify(fs FingerStates) Gesture {
	for _, p := range patterns {
		if p.Match(fs) {
			return p.Gesture
		}
	}
	return Unknown
}
