// Package gesture classifies hand landmarks into a closed set of named gestures.
package gesture

// Gesture is a discrete hand gesture label.
type Gesture string

const (
	// None means no classification was possible (no landmarks).
	None Gesture = ""

	OpenPalm   Gesture = "open_palm"
	Fist       Gesture = "fist"
	Peace      Gesture = "peace"
	Point      Gesture = "point"
	ThumbsUp   Gesture = "thumbs_up"
	ThumbsDown Gesture = "thumbs_down"
	Three      Gesture = "three"
	Four       Gesture = "four"
	RockOn     Gesture = "rock_on"
	Unknown    Gesture = "unknown"
)

// All lists every label the classifier can produce, in priority order,
// followed by Unknown.
func All() []Gesture {
	out := make([]Gesture, 0, len(patterns)+1)
	for _, p := range patterns {
		out = append(out, p.Gesture)
	}
	return append(out, Unknown)
}

// Valid reports whether g is one of the labels in All.
func (g Gesture) Valid() bool {
	for _, known := range All() {
		if g == known {
			return true
		}
	}
	return false
}
