package object

import (
	"github.com/tomz197/droplets/internal/draw"
	"github.com/tomz197/droplets/internal/physics"
)

// Can is the player's watering can. Rect is its bounding box; the body takes
// the lower part and the spout rises to the right.
type Can struct {
	Rect physics.Rect
}

// Draw renders the can: an open-topped body, a handle on the left and a spout.
func (c Can) Draw(ctx DrawContext) error {
	r := c.Rect
	w, h := r.Width(), r.Height()

	bodyLeft := r.Left + w*0.15
	bodyTop := r.Top + h*0.35
	bodyWidth := w * 0.6
	ctx.Canvas.FillRect(bodyLeft, bodyTop, bodyWidth, r.Bottom-bodyTop, draw.PlayerBody)

	// Handle
	ctx.Canvas.FillRect(r.Left, bodyTop+h*0.1, w*0.15, h*0.12, draw.PlayerSpout)
	ctx.Canvas.FillRect(r.Left, bodyTop+h*0.1, w*0.05, h*0.4, draw.PlayerSpout)

	// Spout from the body's right side up to the top-right corner
	spout := []draw.Point{
		{X: bodyLeft + bodyWidth, Y: bodyTop + h*0.2},
		{X: r.Right, Y: r.Top},
		{X: r.Right, Y: r.Top + h*0.12},
		{X: bodyLeft + bodyWidth, Y: bodyTop + h*0.4},
	}
	ctx.Canvas.FillPolygon(spout, draw.PlayerSpout)
	return nil
}
