package game

import (
	"fmt"
	"time"

	"github.com/tomz197/droplets/internal/physics"
	"github.com/tomz197/droplets/internal/timer"
)

// Kind separates drops that score from drops that cost.
type Kind int

const (
	KindBenign Kind = iota
	KindHarmful
)

func (k Kind) String() string {
	switch k {
	case KindBenign:
		return "benign"
	case KindHarmful:
		return "harmful"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// MarshalText implements encoding.TextMarshaler.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *Kind) UnmarshalText(text []byte) (err error) {
	*k, err = lookupName[Kind]([]string{"benign", "harmful"}, text)
	return err
}

// Drop is one falling entity. It lives until caught or until its fall ends.
type Drop struct {
	ID           uint64
	Kind         Kind
	Size         float64
	X            float64
	SpawnedAt    time.Time
	FallDuration time.Duration

	poll    *timer.Task // overlap check
	landing *timer.Task // end of the fall
}

// Progress is the fraction of the fall completed at now, in [0, 1].
func (d *Drop) Progress(now time.Time) float64 {
	if d.FallDuration <= 0 {
		return 1
	}
	p := float64(now.Sub(d.SpawnedAt)) / float64(d.FallDuration)
	return physics.Clamp(p, 0, 1)
}

// Rect is the drop's bounding box at now. The drop enters fully above the top
// edge and finishes just below the bottom edge.
func (d *Drop) Rect(now time.Time, containerHeight float64) physics.Rect {
	y := -d.Size + (containerHeight+d.Size)*d.Progress(now)
	return physics.RectAt(d.X, y, d.Size, d.Size)
}

func (d *Drop) cancel() {
	d.poll.Cancel()
	d.landing.Cancel()
}
