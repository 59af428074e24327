package object

import (
	"github.com/lucasb-eyer/go-colorful"
)

// Logical size of one confetti piece.
const (
	confettiWidth  = 8
	confettiHeight = 12
)

// Confetti is one piece of the victory celebration, falling from the top of
// the playfield over its lifetime.
type Confetti struct {
	Left     float64 // Logical x
	Progress float64 // [0, 1] through its fall
	Rotation float64 // Degrees
	Color    string  // "#rrggbb"
	Height   float64 // Playfield height
}

// Draw renders the piece. A piece turned sideways is drawn wide instead of tall.
func (c Confetti) Draw(ctx DrawContext) error {
	col, err := colorful.Hex(c.Color)
	if err != nil {
		return nil
	}

	w, h := float64(confettiWidth), float64(confettiHeight)
	if turn := int(c.Rotation+c.Progress*720) % 180; turn >= 45 && turn < 135 {
		w, h = h, w
	}
	y := -h + (c.Height+h)*c.Progress
	ctx.Canvas.FillRect(c.Left, y, w, h, col)
	return nil
}
