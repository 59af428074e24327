package game

import (
	"time"

	"github.com/tomz197/droplets/internal/loop/config"
)

// SpeedMultiplier derives the drop speed from the score. The higher threshold
// replaces the lower one instead of compounding with it.
func SpeedMultiplier(score int, base float64, sc config.Scoring) float64 {
	switch {
	case score >= sc.SecondThreshold:
		return base * sc.SecondMultiplier
	case score >= sc.FirstThreshold:
		return base * sc.FirstMultiplier
	default:
		return base
	}
}

// FallDuration is how long a drop spawned at multiplier takes to cross the playfield.
func FallDuration(baseFall time.Duration, multiplier float64) time.Duration {
	if multiplier <= 0 {
		return baseFall
	}
	return time.Duration(float64(baseFall) / multiplier)
}

// DisplayScore is the score shown to the player: never negative.
func DisplayScore(score int) int {
	return max(0, score)
}
