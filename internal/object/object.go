// Package object turns a game snapshot into drawable sprites for the terminal canvas.
package object

import (
	"github.com/lucasb-eyer/go-colorful"

	"github.com/tomz197/droplets/internal/draw"
	"github.com/tomz197/droplets/internal/game"
)

// DrawContext provides drawing resources for objects.
type DrawContext struct {
	Canvas *draw.Canvas      // High-resolution canvas (2x vertical), logical coordinates
	Writer *draw.ChunkWriter // Text overlays, drawn after the canvas
}

// Object is a drawable element of one frame.
type Object interface {
	Draw(ctx DrawContext) error
}

// Backdrop fills the playfield, tinted by any live catch flash.
type Backdrop struct {
	Color colorful.Color
}

// Draw clears the canvas to the backdrop colour.
func (b Backdrop) Draw(ctx DrawContext) error {
	ctx.Canvas.Clear(b.Color)
	return nil
}

// FromSnapshot appends the sprites for snap to dst, back to front, and returns
// the extended slice. Passing the previous frame's slice as dst[:0] avoids
// per-frame allocation.
func FromSnapshot(snap game.Snapshot, dst []Object) []Object {
	dst = append(dst, Backdrop{Color: backdropColor(snap)})

	for _, d := range snap.Drops {
		dst = append(dst, Drop{Rect: d.Rect, Harmful: d.Kind == game.KindHarmful})
	}
	dst = append(dst, Can{Rect: snap.Player})

	for _, e := range snap.Effects {
		if e.Kind != game.EffectConfetti {
			continue
		}
		dst = append(dst, Confetti{
			Left:     e.Left * snap.Width,
			Progress: e.Progress,
			Rotation: e.Rotation,
			Color:    e.Color,
			Height:   snap.Height,
		})
	}
	return dst
}

// backdropColor applies the most recent flash, harmful or neutral.
func backdropColor(snap game.Snapshot) colorful.Color {
	bg := draw.Background
	for i := len(snap.Effects) - 1; i >= 0; i-- {
		e := snap.Effects[i]
		switch e.Kind {
		case game.EffectFlash:
			return draw.Tint(bg, draw.NeutralFlash, e.Progress)
		case game.EffectHarmfulFlash:
			return draw.Tint(bg, draw.HarmfulFlash, e.Progress)
		}
	}
	return bg
}
