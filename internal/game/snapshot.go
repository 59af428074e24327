package game

import (
	"fmt"

	"github.com/tomz197/droplets/internal/physics"
)

// DropView is a drop as the presentation layer sees it.
type DropView struct {
	ID   uint64       `json:"id"`
	Kind Kind         `json:"kind"`
	Rect physics.Rect `json:"rect"`
}

// EffectView is an effect as the presentation layer sees it.
type EffectView struct {
	ID       uint64     `json:"id"`
	Kind     EffectKind `json:"kind"`
	Progress float64    `json:"progress"`
	Text     string     `json:"text,omitempty"`
	Left     float64    `json:"left,omitempty"`
	Color    string     `json:"color,omitempty"`
	Rotation float64    `json:"rotation,omitempty"`
}

// Snapshot is everything a front-end needs to draw one frame.
type Snapshot struct {
	Phase           Phase        `json:"phase"`
	Reason          EndReason    `json:"reason"`
	Score           int          `json:"score"` // Display score, never negative
	TimeLeft        int          `json:"timeLeft"`
	SpeedMultiplier float64      `json:"speedMultiplier"`
	Difficulty      Difficulty   `json:"difficulty"`
	Selected        Difficulty   `json:"selected"`
	Celebrating     bool         `json:"celebrating"`
	Width           float64      `json:"width"`
	Height          float64      `json:"height"`
	Player          physics.Rect `json:"player"`
	Drops           []DropView   `json:"drops"`
	Effects         []EffectView `json:"effects"`
	Banner          *Banner      `json:"banner,omitempty"`
}

// Snapshot captures the session at the scheduler's current time.
func (s *Session) Snapshot() Snapshot {
	now := s.sched.Now()
	layout := s.settings.Layout

	snap := Snapshot{
		Phase:           s.state.Phase,
		Reason:          s.state.Reason,
		Score:           DisplayScore(s.state.Score),
		TimeLeft:        s.state.TimeLeft,
		SpeedMultiplier: s.state.SpeedMultiplier,
		Difficulty:      s.state.Difficulty,
		Selected:        s.selected,
		Celebrating:     s.state.Celebrating,
		Width:           layout.ContainerWidth,
		Height:          layout.ContainerHeight,
		Player:          s.player.Rect(),
		Drops:           make([]DropView, 0, len(s.drops)),
		Effects:         make([]EffectView, 0, len(s.effects)),
	}
	if s.banner != nil {
		b := *s.banner
		snap.Banner = &b
	}

	for _, d := range s.drops {
		snap.Drops = append(snap.Drops, DropView{
			ID:   d.ID,
			Kind: d.Kind,
			Rect: d.Rect(now, layout.ContainerHeight),
		})
	}
	for _, e := range s.effects {
		v := EffectView{
			ID:       e.ID,
			Kind:     e.Kind,
			Progress: e.Progress(now),
			Left:     e.Left,
			Color:    e.Color,
			Rotation: e.Rotation,
		}
		switch e.Kind {
		case EffectGoal:
			v.Text = fmt.Sprintf(GoalText, s.settings.Scoring.VictoryScore)
		case EffectVictory:
			v.Text = VictoryText
		}
		snap.Effects = append(snap.Effects, v)
	}
	return snap
}

// Effect returns the first live effect of kind, if any.
func (s Snapshot) Effect(kind EffectKind) (EffectView, bool) {
	for _, e := range s.Effects {
		if e.Kind == kind {
			return e, true
		}
	}
	return EffectView{}, false
}
