package game

import (
	"github.com/tomz197/droplets/internal/loop/config"
	"github.com/tomz197/droplets/internal/physics"
)

// Player is the catcher at the bottom of the playfield. Only X moves.
type Player struct {
	X      float64
	Width  float64
	Height float64

	containerWidth  float64
	containerHeight float64
}

func newPlayer(l config.Layout) Player {
	p := Player{
		Width:           l.PlayerWidth,
		Height:          l.PlayerHeight,
		containerWidth:  l.ContainerWidth,
		containerHeight: l.ContainerHeight,
	}
	p.Center()
	return p
}

// MaxX is the largest left edge that keeps the player inside the container.
func (p *Player) MaxX() float64 {
	return p.containerWidth - p.Width
}

// MoveBy shifts the player horizontally, clamped to the container.
func (p *Player) MoveBy(dx float64) {
	p.X = physics.Clamp(p.X+dx, 0, p.MaxX())
}

// CenterOn centres the player on a pointer x offset within the container.
func (p *Player) CenterOn(pointerX float64) {
	p.X = physics.Clamp(pointerX-p.Width/2, 0, p.MaxX())
}

// Center puts the player in the middle of the container.
func (p *Player) Center() {
	p.X = p.MaxX() / 2
}

// Rect is the player's bounding box.
func (p *Player) Rect() physics.Rect {
	return physics.RectAt(p.X, p.containerHeight-p.Height, p.Width, p.Height)
}
