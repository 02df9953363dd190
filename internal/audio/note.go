package audio

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

var noteNames = [12]string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}

var letterSemitones = map[byte]int{'C': 0, 'D': 2, 'E': 4, 'F': 5, 'G': 7, 'A': 9, 'B': 11}

// ParseNote converts a scientific pitch name ("A4", "F#3", "Bb2") to a
// MIDI note number. C4 is 60.
func ParseNote(name string) (int, error) {
	s := strings.TrimSpace(name)
	if len(s) < 2 {
		return 0, fmt.Errorf("invalid note %q", name)
	}

	semi, ok := letterSemitones[byte(strings.ToUpper(s[:1])[0])]
	if !ok {
		return 0, fmt.Errorf("invalid note letter in %q", name)
	}
	s = s[1:]

	switch s[0] {
	case '#':
		semi++
		s = s[1:]
	case 'b':
		semi--
		s = s[1:]
	}

	octave, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid octave in %q: %w", name, err)
	}

	midi := (octave+1)*12 + semi
	if midi < 0 || midi > 127 {
		return 0, fmt.Errorf("note %q out of range", name)
	}
	return midi, nil
}

// NoteName returns the sharp-spelled name of a MIDI note.
func NoteName(midi int) string {
	return noteNames[((midi%12)+12)%12] + strconv.Itoa(midi/12-1)
}

// Frequency returns the equal-tempered frequency of a MIDI note, A4 = 440 Hz.
func Frequency(midi int) float64 {
	return 440 * math.Pow(2, float64(midi-69)/12)
}

// Detune shifts freq by cents.
func Detune(freq, cents float64) float64 {
	return freq * math.Pow(2, cents/1200)
}

// Transpose moves a note name by semitones and returns the new name.
func Transpose(name string, semitones int) (string, error) {
	midi, err := ParseNote(name)
	if err != nil {
		return "", err
	}
	midi += semitones
	if midi < 0 || midi > 127 {
		return "", fmt.Errorf("transposing %q by %d leaves the MIDI range", name, semitones)
	}
	return NoteName(midi), nil
}
