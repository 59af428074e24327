package draw

import (
	"github.com/lucasb-eyer/go-colorful"
)

// MustHex parses a "#rrggbb" colour. It panics on malformed input and is
// meant for package-level colour constants.
func MustHex(s string) colorful.Color {
	c, err := colorful.Hex(s)
	if err != nil {
		panic(err)
	}
	return c
}

// Game colours.
var (
	Background   = MustHex("#0b1d33")
	PlayerBody   = MustHex("#9aa5b1")
	PlayerSpout  = MustHex("#6b7785")
	BenignDrop   = MustHex("#2e9df7")
	HarmfulDrop  = MustHex("#1e5631")
	NeutralFlash = MustHex("#ffffff")
	HarmfulFlash = MustHex("#ff0000")
	LossTitle    = MustHex("#f5402c")
)

// flashOpacity is the peak opacity of a catch flash over the playfield.
const flashOpacity = 0.3

// flashSteps quantises the flash fade so a fading flash repaints the whole
// canvas only a handful of times.
const flashSteps = 4

// Tint returns bg under a flash of colour flash at the given fade progress
// (0 = just caught, 1 = gone). Colours are blended in Lab space.
func Tint(bg, flash colorful.Color, progress float64) colorful.Color {
	remaining := 1 - min(max(progress, 0), 1)
	step := float64(int(remaining*flashSteps+0.5)) / flashSteps
	if step <= 0 {
		return bg
	}
	return bg.BlendLab(flash, flashOpacity*step).Clamped()
}
