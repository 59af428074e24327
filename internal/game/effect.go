package game

import (
	"fmt"
	"time"

	"github.com/tomz197/droplets/internal/timer"
)

// EffectKind names a transient visual element.
type EffectKind int

const (
	EffectFlash EffectKind = iota
	EffectHarmfulFlash
	EffectConfetti
	EffectGoal
	EffectVictory
)

var effectNames = [...]string{"flash", "harmful-flash", "confetti", "goal", "victory"}

func (k EffectKind) String() string {
	if int(k) < len(effectNames) {
		return effectNames[k]
	}
	return fmt.Sprintf("EffectKind(%d)", int(k))
}

// MarshalText implements encoding.TextMarshaler.
func (k EffectKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *EffectKind) UnmarshalText(text []byte) (err error) {
	*k, err = lookupName[EffectKind](effectNames[:], text)
	return err
}

// ConfettiColors is the palette confetti pieces pick from.
var ConfettiColors = []string{"#FFC907", "#2E9DF7", "#8BD1CB", "#4FCB53", "#FF902A", "#F5402C"}

// Banner texts shown while a run is live.
const (
	GoalText    = "Your Goal: Collect %d Waterdrops"
	WarningText = "Warning: Avoid Dark Green Drops (Poison!)"
	VictoryText = "Congrats, you win!"
)

// Effect is a presentation-only element with a fixed lifetime. Effects never
// touch score, time or drops.
type Effect struct {
	ID        uint64
	Kind      EffectKind
	SpawnedAt time.Time
	Lifetime  time.Duration

	// Confetti only
	Left     float64 // Fraction of container width, [0, 1)
	Color    string
	Rotation float64 // Degrees

	expire *timer.Task
}

// Progress is the fraction of the lifetime elapsed at now, in [0, 1].
func (e *Effect) Progress(now time.Time) float64 {
	if e.Lifetime <= 0 {
		return 1
	}
	p := float64(now.Sub(e.SpawnedAt)) / float64(e.Lifetime)
	return min(max(p, 0), 1)
}
