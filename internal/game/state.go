package game

import (
	"errors"
	"fmt"
	"strings"
)

// Phase is the top-level state of a session.
type Phase int

const (
	PhaseIdle    Phase = iota // No run yet, or reset
	PhaseRunning              // Timers live, drops falling
	PhaseEnded                // Terminal banner shown
)

var phaseNames = [...]string{"idle", "running", "ended"}

func (p Phase) String() string {
	if int(p) < len(phaseNames) {
		return phaseNames[p]
	}
	return fmt.Sprintf("Phase(%d)", int(p))
}

// MarshalText implements encoding.TextMarshaler.
func (p Phase) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (p *Phase) UnmarshalText(text []byte) (err error) {
	*p, err = lookupName[Phase](phaseNames[:], text)
	return err
}

// EndReason tells which terminal transition closed a run.
type EndReason int

const (
	EndNone EndReason = iota
	EndTimeout
	EndVictory
	EndLoss
)

var endReasonNames = [...]string{"", "timeout", "victory", "loss"}

func (r EndReason) String() string {
	if int(r) < len(endReasonNames) {
		return endReasonNames[r]
	}
	return fmt.Sprintf("EndReason(%d)", int(r))
}

// MarshalText implements encoding.TextMarshaler.
func (r EndReason) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (r *EndReason) UnmarshalText(text []byte) (err error) {
	*r, err = lookupName[EndReason](endReasonNames[:], text)
	return err
}

// Difficulty is the value of the difficulty selector. The zero value is medium.
type Difficulty int

const (
	Medium Difficulty = iota
	Easy
	Hard
)

// ErrUnknownDifficulty is returned by ParseDifficulty.
var ErrUnknownDifficulty = errors.New("unknown difficulty")

// ErrUnknownName is returned when decoding an enum name that does not exist.
var ErrUnknownName = errors.New("unknown name")

func lookupName[T ~int](names []string, text []byte) (T, error) {
	for i, n := range names {
		if n == string(text) {
			return T(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownName, text)
}

var difficultyNames = [...]string{"medium", "easy", "hard"}

func (d Difficulty) String() string {
	if int(d) < len(difficultyNames) {
		return difficultyNames[d]
	}
	return fmt.Sprintf("Difficulty(%d)", int(d))
}

// MarshalText implements encoding.TextMarshaler.
func (d Difficulty) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Difficulty) UnmarshalText(text []byte) (err error) {
	*d, err = ParseDifficulty(string(text))
	return err
}

// BaseMultiplier is the speed multiplier a run starts with.
func (d Difficulty) BaseMultiplier() float64 {
	switch d {
	case Easy:
		return 0.8
	case Hard:
		return 1.25
	default:
		return 1
	}
}

// ParseDifficulty maps "easy", "medium" or "hard" (any case) to a Difficulty.
// An empty string is medium.
func ParseDifficulty(s string) (Difficulty, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "medium":
		return Medium, nil
	case "easy":
		return Easy, nil
	case "hard":
		return Hard, nil
	}
	return Medium, fmt.Errorf("%w: %q", ErrUnknownDifficulty, s)
}

// State is the run-scoped record of a session.
type State struct {
	Phase           Phase
	Reason          EndReason
	Score           int
	TimeLeft        int
	SpeedMultiplier float64
	BaseMultiplier  float64
	Difficulty      Difficulty // Fixed for the run at start
	Generation      uint64     // Bumped on every start and reset
	Celebrating     bool       // Victory reached, waiting for the end delay
}

// Result is reported when a run ends.
type Result struct {
	Reason     EndReason
	Score      int
	Difficulty Difficulty
}

// Banner is the end-of-run display.
type Banner struct {
	Reason EndReason `json:"reason"`
	Title  string    `json:"title"`
	Detail string    `json:"detail"`
	Action string    `json:"action"`
}

func newBanner(reason EndReason, score int) *Banner {
	if reason == EndLoss {
		return &Banner{
			Reason: reason,
			Title:  "You Lost!",
			Detail: "Poisoned by Dark Drop",
			Action: "Try Again",
		}
	}
	return &Banner{
		Reason: reason,
		Title:  "Game Over!",
		Detail: fmt.Sprintf("Final Score: %d", score),
		Action: "Reset Game",
	}
}
