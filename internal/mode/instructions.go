package mode

var instructions = map[Name][]string{
	Face: {
		"Words fall from the top of the screen.",
		"Move your head so the point between your eyes touches a word to catch it.",
		"Bigger words are worth more points.",
		"Type your favourite word once per round for a bonus of one hundred points.",
		"You have sixty seconds.",
	},
	Hand: {
		"Show your hands to the camera.",
		"Each hand gesture plays a different note. Your second hand plays an octave higher.",
		"Raise your hand to play louder and move it sideways to bend the pitch.",
		"Say start sound or stop sound to toggle the instrument.",
	},
	FullBody: {
		"Full body tracking is coming soon.",
	},
}

// Instructions returns the spoken and displayed instructions for n.
func Instructions(n Name) []string {
	return append([]string(nil), instructions[n]...)
}
