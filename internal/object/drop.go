package object

import (
	"github.com/tomz197/droplets/internal/draw"
	"github.com/tomz197/droplets/internal/physics"
)

// Drop is a falling water drop. Harmful drops are dark green.
type Drop struct {
	Rect    physics.Rect
	Harmful bool
}

// Draw renders a teardrop: a round body with a pointed tip on top.
func (d Drop) Draw(ctx DrawContext) error {
	col := draw.BenignDrop
	if d.Harmful {
		col = draw.HarmfulDrop
	}

	r := d.Rect
	w, h := r.Width(), r.Height()
	radius := w / 2
	cx := r.Left + radius
	cy := r.Bottom - radius*0.9

	ctx.Canvas.FillEllipse(cx, cy, radius*0.9, radius*0.9, col)
	tip := []draw.Point{
		{X: cx, Y: r.Top},
		{X: cx + radius*0.75, Y: cy - radius*0.3},
		{X: cx - radius*0.75, Y: cy - radius*0.3},
	}
	if h > 0 {
		ctx.Canvas.FillPolygon(tip, col)
	}
	return nil
}
