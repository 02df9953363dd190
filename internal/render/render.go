// Package render draws a mode snapshot over a camera frame for the MJPEG
// preview.
package render

import (
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/ayusman/carnival/internal/mode"
	"github.com/lucasb-eyer/go-colorful"
	"gocv.io/x/gocv"
)

// HandBones are the landmark index pairs joined when drawing a hand.
var HandBones = [][2]int{
	{0, 1}, {1, 2}, {2, 3}, {3, 4},
	{0, 5}, {5, 6}, {6, 7}, {7, 8},
	{5, 9}, {9, 10}, {10, 11}, {11, 12},
	{9, 13}, {13, 14}, {14, 15}, {15, 16},
	{13, 17}, {0, 17}, {17, 18}, {18, 19}, {19, 20},
}

var (
	white  = color.RGBA{255, 255, 255, 255}
	yellow = color.RGBA{255, 220, 0, 255}
	red    = color.RGBA{230, 40, 40, 255}
)

const font = gocv.FontHersheySimplex

// Renderer draws snapshots onto frames scaled to the game canvas. It
// reuses a scratch buffer and is not safe for concurrent use.
type Renderer struct {
	canvas  mode.Size
	scratch gocv.Mat
}

// New creates a renderer for canvas.
func New(canvas mode.Size) *Renderer {
	return &Renderer{canvas: canvas, scratch: gocv.NewMat()}
}

// Close releases the scratch buffer.
func (r *Renderer) Close() error {
	return r.scratch.Close()
}

// Draw scales frame to the canvas, mirrors it and paints snap on top. A
// nil snapshot only mirrors.
func (r *Renderer) Draw(frame *gocv.Mat, snap *mode.Snapshot) error {
	if frame == nil || frame.Empty() {
		return fmt.Errorf("render: empty frame")
	}
	size := image.Pt(int(r.canvas.W), int(r.canvas.H))
	gocv.Resize(*frame, &r.scratch, size, 0, 0, gocv.InterpolationLinear)
	gocv.Flip(r.scratch, frame, 1)

	if snap == nil {
		return nil
	}

	for _, p := range snap.Particles {
		c := toRGBA(p.Color)
		radius := max(1, int(math.Round(8*p.Alpha)))
		gocv.Circle(frame, pt(p.X, p.Y), radius, c, -1)
	}
	for _, h := range snap.Hands {
		drawHand(frame, h)
	}
	for _, w := range snap.Words {
		drawCentered(frame, w.Text, pt(w.X, w.Y), w.Size/30, toRGBA(w.Color), 2)
	}
	if snap.Anchor != nil {
		gocv.Circle(frame, pt(snap.Anchor.X, snap.Anchor.Y), 10, yellow, 2)
	}

	drawHUD(frame, snap)
	return nil
}

func drawHand(frame *gocv.Mat, h mode.HandView) {
	c := toRGBA(h.Color)
	for _, b := range HandBones {
		if b[0] >= len(h.Points) || b[1] >= len(h.Points) {
			continue
		}
		a, z := h.Points[b[0]], h.Points[b[1]]
		gocv.Line(frame, pt(a.X, a.Y), pt(z.X, z.Y), c, 2)
	}
	for _, p := range h.Points {
		gocv.Circle(frame, pt(p.X, p.Y), 4, white, -1)
	}
	label := string(h.Gesture)
	if h.Note != "" {
		label += " " + h.Note
	}
	gocv.PutText(frame, label, pt(h.Palm.X+12, h.Palm.Y+24), font, 0.7, c, 2)
}

func drawHUD(frame *gocv.Mat, snap *mode.Snapshot) {
	w, h := frame.Cols(), frame.Rows()

	switch snap.Mode {
	case mode.Face:
		gocv.PutText(frame, fmt.Sprintf("Score: %d", snap.Score), image.Pt(20, 40), font, 1, white, 2)
		gocv.PutText(frame, fmt.Sprintf("Time: %d", snap.Remaining), image.Pt(w-170, 40), font, 1, white, 2)
	case mode.Hand:
		if snap.Tracking != "" {
			gocv.PutText(frame, snap.Tracking, image.Pt(20, 40), font, 0.8, white, 2)
		}
	}

	if snap.Error != nil {
		drawCentered(frame, snap.Error.Message, image.Pt(w/2, h/2), 0.7, red, 2)
		return
	}
	if snap.Message != "" {
		drawCentered(frame, snap.Message, image.Pt(w/2, h/3), 1.4, white, 3)
	}
	for i, e := range snap.Leaderboard {
		line := fmt.Sprintf("%d. %s  %d", i+1, e.Name, e.Score)
		drawCentered(frame, line, image.Pt(w/2, h/3+60+i*40), 0.9, yellow, 2)
	}
}

func drawCentered(frame *gocv.Mat, text string, at image.Point, scale float64, c color.RGBA, thickness int) {
	if scale <= 0 {
		scale = 1
	}
	sz := gocv.GetTextSize(text, font, scale, thickness)
	gocv.PutText(frame, text, image.Pt(at.X-sz.X/2, at.Y+sz.Y/2), font, scale, c, thickness)
}

func pt(x, y float64) image.Point {
	return image.Pt(int(math.Round(x)), int(math.Round(y)))
}

// toRGBA parses a #rrggbb colour. Unparseable values draw white.
func toRGBA(hex string) color.RGBA {
	c, err := colorful.Hex(hex)
	if err != nil {
		return white
	}
	r, g, b := c.RGB255()
	return color.RGBA{r, g, b, 255}
}
