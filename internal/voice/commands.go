package voice

import (
	"errors"
	"sort"
	"strings"
)

// VolumeStep is the decibel change for "volume up" and "volume down".
const VolumeStep = 5.0

var errNoInstructions = errors.New("no instructions on this screen")

type command struct {
	run     func(Actions) (string, error)
	confirm string
}

func chooseMode(name string) command {
	return command{
		run:     func(a Actions) (string, error) { return "", a.ChooseMode(name) },
		confirm: name + " mode selected",
	}
}

func toggle(set func(Actions, bool) error, on bool, enabled, disabled string) command {
	c := command{run: func(a Actions) (string, error) { return "", set(a, on) }, confirm: disabled}
	if on {
		c.confirm = enabled
	}
	return c
}

func volume(delta float64, word string) command {
	return command{
		run:     func(a Actions) (string, error) { return "", a.AdjustVolume(delta) },
		confirm: "Volume " + word,
	}
}

// commands is matched exactly against the normalised transcript.
var commands = map[string]command{
	"hand mode": chooseMode("hand"),
	"face mode": chooseMode("face"),
	"read instructions": {
		run: func(a Actions) (string, error) {
			lines, err := a.Instructions()
			if err != nil {
				return "", err
			}
			if len(lines) == 0 {
				return "", errNoInstructions
			}
			return strings.Join(lines, " "), nil
		},
	},
	"start game":  {run: func(a Actions) (string, error) { return "", a.StartGame() }, confirm: "Starting game"},
	"go back":     {run: func(a Actions) (string, error) { return "", a.GoBack() }, confirm: "Going back"},
	"sound on":    toggle(Actions.SetSound, true, "Sound enabled", "Sound disabled"),
	"sound off":   toggle(Actions.SetSound, false, "Sound enabled", "Sound disabled"),
	"voice on":    toggle(Actions.SetVoice, true, "Voice control enabled", "Voice control disabled"),
	"voice off":   toggle(Actions.SetVoice, false, "Voice control enabled", "Voice control disabled"),
	"volume up":   volume(VolumeStep, "up"),
	"volume down": volume(-VolumeStep, "down"),
}

// Phrases returns the global phrases in sorted order.
func Phrases() []string {
	out := make([]string, 0, len(commands))
	for p := range commands {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// Normalize lowercases and trims a transcript.
func Normalize(text string) string {
	return strings.ToLower(strings.TrimSpace(text))
}
