// Package config centralizes all tunable game parameters.
package config

import (
	"errors"
	"fmt"
	"time"

	sharedconfig "github.com/tomz197/droplets/internal/config"
)

// ErrInvalidSettings is wrapped by Settings.Validate.
var ErrInvalidSettings = errors.New("invalid settings")

// Duration is a time.Duration that decodes from TOML strings such as "2500ms".
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Layout is the logical playfield. All game maths happens in these units;
// front-ends scale it to whatever they render on.
type Layout struct {
	ContainerWidth  float64 `toml:"container_width"`
	ContainerHeight float64 `toml:"container_height"`
	PlayerWidth     float64 `toml:"player_width"`
	PlayerHeight    float64 `toml:"player_height"`
}

// Timing holds every period and lifetime the session schedules.
type Timing struct {
	RunLength       int      `toml:"run_length_seconds"`
	ClockTick       Duration `toml:"clock_tick"`
	BenignInterval  Duration `toml:"benign_interval"`
	HarmfulInterval Duration `toml:"harmful_interval"`
	PollInterval    Duration `toml:"poll_interval"`
	BaseFall        Duration `toml:"base_fall"`
	VictoryDelay    Duration `toml:"victory_delay"`
	FlashLifetime   Duration `toml:"flash_lifetime"`
	BannerLifetime  Duration `toml:"banner_lifetime"`
}

// Scoring holds the victory target and the difficulty curve.
type Scoring struct {
	VictoryScore     int     `toml:"victory_score"`
	FirstThreshold   int     `toml:"first_threshold"`
	FirstMultiplier  float64 `toml:"first_multiplier"`
	SecondThreshold  int     `toml:"second_threshold"`
	SecondMultiplier float64 `toml:"second_multiplier"`
}

// Drops controls spawn geometry.
type Drops struct {
	BaseSize      float64 `toml:"base_size"`
	MinSizeFactor float64 `toml:"min_size_factor"`
	MaxSizeFactor float64 `toml:"max_size_factor"`
	PlayerStep    float64 `toml:"player_step"`
	ConfettiCount int     `toml:"confetti_count"`
}

// Settings is the full set of game tunables.
type Settings struct {
	Layout  Layout  `toml:"layout"`
	Timing  Timing  `toml:"timing"`
	Scoring Scoring `toml:"scoring"`
	Drops   Drops   `toml:"drops"`
}

// Default returns the stock game: a two-minute run, 50 drops to win.
func Default() Settings {
	return Settings{
		Layout: Layout{
			ContainerWidth:  800,
			ContainerHeight: 600,
			PlayerWidth:     100,
			PlayerHeight:    80,
		},
		Timing: Timing{
			RunLength:       120,
			ClockTick:       Duration{time.Second},
			BenignInterval:  Duration{1000 * time.Millisecond},
			HarmfulInterval: Duration{2500 * time.Millisecond},
			PollInterval:    Duration{100 * time.Millisecond},
			BaseFall:        Duration{4 * time.Second},
			VictoryDelay:    Duration{3 * time.Second},
			FlashLifetime:   Duration{time.Second},
			BannerLifetime:  Duration{3 * time.Second},
		},
		Scoring: Scoring{
			VictoryScore:     50,
			FirstThreshold:   30,
			FirstMultiplier:  1.25,
			SecondThreshold:  50,
			SecondMultiplier: 1.5,
		},
		Drops: Drops{
			BaseSize:      60,
			MinSizeFactor: 0.5,
			MaxSizeFactor: 1.3,
			PlayerStep:    25,
			ConfettiCount: 100,
		},
	}
}

// Load returns Default overlaid with the TOML file at path (if it exists).
func Load(path string) (Settings, error) {
	s := Default()
	if err := sharedconfig.LoadTOML(path, &s); err != nil {
		return Settings{}, err
	}
	if err := s.Validate(); err != nil {
		return Settings{}, err
	}
	return s, nil
}

// Validate rejects settings the session cannot run with.
func (s Settings) Validate() error {
	positive := []struct {
		name  string
		value float64
	}{
		{"layout.container_width", s.Layout.ContainerWidth},
		{"layout.container_height", s.Layout.ContainerHeight},
		{"layout.player_width", s.Layout.PlayerWidth},
		{"layout.player_height", s.Layout.PlayerHeight},
		{"timing.run_length_seconds", float64(s.Timing.RunLength)},
		{"timing.clock_tick", float64(s.Timing.ClockTick.Duration)},
		{"timing.benign_interval", float64(s.Timing.BenignInterval.Duration)},
		{"timing.harmful_interval", float64(s.Timing.HarmfulInterval.Duration)},
		{"timing.poll_interval", float64(s.Timing.PollInterval.Duration)},
		{"timing.base_fall", float64(s.Timing.BaseFall.Duration)},
		{"scoring.victory_score", float64(s.Scoring.VictoryScore)},
		{"scoring.first_multiplier", s.Scoring.FirstMultiplier},
		{"scoring.second_multiplier", s.Scoring.SecondMultiplier},
		{"drops.base_size", s.Drops.BaseSize},
		{"drops.min_size_factor", s.Drops.MinSizeFactor},
		{"drops.player_step", s.Drops.PlayerStep},
	}
	for _, p := range positive {
		if p.value <= 0 {
			return fmt.Errorf("%w: %s must be positive", ErrInvalidSettings, p.name)
		}
	}
	if s.Drops.MaxSizeFactor < s.Drops.MinSizeFactor {
		return fmt.Errorf("%w: drops.max_size_factor below min_size_factor", ErrInvalidSettings)
	}
	if s.Scoring.FirstThreshold > s.Scoring.SecondThreshold {
		return fmt.Errorf("%w: scoring.first_threshold above second_threshold", ErrInvalidSettings)
	}
	if s.Layout.PlayerWidth > s.Layout.ContainerWidth {
		return fmt.Errorf("%w: player wider than container", ErrInvalidSettings)
	}
	if s.Drops.BaseSize*s.Drops.MaxSizeFactor > s.Layout.ContainerWidth {
		return fmt.Errorf("%w: drops can be wider than container", ErrInvalidSettings)
	}
	return nil
}

// Terminal front-end
const (
	MaxTermWidth  = 160 // Render area is clamped to this many columns and centred
	MaxTermHeight = 50  // and this many rows
)

// Client rendering
const (
	ClientTargetFPS       = 60
	ClientTargetFrameTime = time.Second / ClientTargetFPS
	WebFrameRate          = 30
	WebFrameTime          = time.Second / WebFrameRate
)

// Lobby
const (
	ServerTickRate = 20
	ServerTickTime = time.Second / ServerTickRate
)

// Leaderboard
const (
	TopScoresShown    = 5
	MaxUsernameLength = 16 // Maximum display length for player usernames
)

// Shutdown
const (
	ShutdownDisplaySeconds = 10.0 // Seconds to show shutdown message before auto-disconnect
)

// Inactivity
const (
	InactivityWarnUser       = 90  // Seconds
	InactivityDisconnectUser = 120 // Seconds
)
