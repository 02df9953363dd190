package mode

import (
	"github.com/ayusman/carnival/internal/gesture"
	"github.com/lucasb-eyer/go-colorful"
)

func rgb(r, g, b uint8) colorful.Color {
	return colorful.Color{R: float64(r) / 255, G: float64(g) / 255, B: float64(b) / 255}
}

// WordColors is the palette falling words are drawn from.
var WordColors = []colorful.Color{
	rgb(255, 87, 51),  // coral
	rgb(255, 189, 51), // yellow
	rgb(87, 255, 51),  // green
	rgb(51, 255, 189), // turquoise
	rgb(51, 87, 255),  // blue
	rgb(189, 51, 255), // purple
	rgb(255, 51, 189), // pink
}

var gestureColors = map[gesture.Gesture]colorful.Color{
	gesture.OpenPalm:   rgb(0, 255, 0),
	gesture.Fist:       rgb(255, 0, 0),
	gesture.Peace:      rgb(0, 255, 255),
	gesture.Point:      rgb(255, 255, 0),
	gesture.ThumbsUp:   rgb(255, 165, 0),
	gesture.ThumbsDown: rgb(255, 0, 255),
	gesture.Three:      rgb(128, 0, 255),
	gesture.Four:       rgb(0, 128, 255),
	gesture.RockOn:     rgb(255, 0, 128),
	gesture.Unknown:    rgb(128, 128, 128),
}

// GestureColor returns the colour particles and labels use for g.
func GestureColor(g gesture.Gesture) colorful.Color {
	if c, ok := gestureColors[g]; ok {
		return c
	}
	return gestureColors[gesture.Unknown]
}
