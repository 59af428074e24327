package game

import (
	"math"
	"math/rand"
	"testing"
	"time"

	"github.com/tomz197/droplets/internal/loop/config"
	"github.com/tomz197/droplets/internal/timer"
)

var epoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

// quietSettings disables random spawning so tests place drops themselves.
func quietSettings() config.Settings {
	s := config.Default()
	s.Timing.BenignInterval = config.Duration{Duration: 1000 * time.Hour}
	s.Timing.HarmfulInterval = config.Duration{Duration: 1000 * time.Hour}
	return s
}

func newTestSession(t *testing.T, settings config.Settings) (*Session, *timer.ManualClock) {
	t.Helper()
	clock := timer.NewManualClock(epoch)
	s := NewSession(settings, WithClock(clock), WithRand(rand.New(rand.NewSource(1))))
	return s, clock
}

// advance moves time forward in poll-sized steps, running due tasks after each.
func advance(s *Session, clock *timer.ManualClock, d time.Duration) {
	const step = 100 * time.Millisecond
	for elapsed := time.Duration(0); elapsed < d; elapsed += step {
		clock.Advance(min(step, d-elapsed))
		s.Update()
	}
}

func countEffects(s *Session, kind EffectKind) int {
	n := 0
	for _, e := range s.effects {
		if e.Kind == kind {
			n++
		}
	}
	return n
}

func approx(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestNewSessionIsIdle(t *testing.T) {
	s, _ := newTestSession(t, quietSettings())
	st := s.State()
	if st.Phase != PhaseIdle || st.Score != 0 || st.TimeLeft != 120 || st.SpeedMultiplier != 1 {
		t.Fatalf("initial state = %+v", st)
	}
	if s.Pending() != 0 {
		t.Fatalf("Pending = %d before start", s.Pending())
	}
	if got, want := s.Player().X, 350.0; got != want {
		t.Fatalf("player X = %v, want %v", got, want)
	}
}

func TestStartIsIdempotentWhileRunning(t *testing.T) {
	s, clock := newTestSession(t, quietSettings())
	if !s.Start() {
		t.Fatal("first Start returned false")
	}
	advance(s, clock, 2*time.Second)
	s.catchBenign()

	before := s.State()
	pending := s.Pending()
	if s.Start() {
		t.Fatal("Start while running returned true")
	}
	if s.State() != before {
		t.Fatalf("state changed: %+v -> %+v", before, s.State())
	}
	if s.Pending() != pending {
		t.Fatalf("Pending changed: %d -> %d", pending, s.Pending())
	}
}

func TestClockTicksDownToTimeout(t *testing.T) {
	s, clock := newTestSession(t, quietSettings())
	var results []Result
	s.OnEnd(func(r Result) { results = append(results, r) })

	s.Start()
	s.state.Score = 12

	prev := s.State().TimeLeft
	for range 119 {
		advance(s, clock, time.Second)
		cur := s.State().TimeLeft
		if cur != prev-1 {
			t.Fatalf("TimeLeft went %d -> %d", prev, cur)
		}
		prev = cur
	}
	if s.State().Phase != PhaseRunning {
		t.Fatalf("ended early at TimeLeft=%d", prev)
	}

	advance(s, clock, time.Second)
	st := s.State()
	if st.Phase != PhaseEnded || st.Reason != EndTimeout || st.TimeLeft != 0 {
		t.Fatalf("state after last tick = %+v", st)
	}
	if s.clockTask.Active() || s.benignTask.Active() || s.harmfulTask.Active() {
		t.Fatal("run tasks still active after timeout")
	}

	advance(s, clock, 10*time.Second)
	if len(results) != 1 {
		t.Fatalf("OnEnd called %d times, want 1", len(results))
	}
	if results[0].Reason != EndTimeout || results[0].Score != 12 {
		t.Fatalf("result = %+v", results[0])
	}

	snap := s.Snapshot()
	if snap.Banner == nil || snap.Banner.Title != "Game Over!" || snap.Banner.Detail != "Final Score: 12" {
		t.Fatalf("banner = %+v", snap.Banner)
	}
}

func TestSpeedMultiplierThresholdsSupersede(t *testing.T) {
	s, _ := newTestSession(t, quietSettings())
	s.Start()

	for range 29 {
		s.catchBenign()
	}
	if got := s.State().SpeedMultiplier; !approx(got, 1) {
		t.Fatalf("multiplier at 29 = %v, want 1", got)
	}
	s.catchBenign()
	if got := s.State().SpeedMultiplier; !approx(got, 1.25) {
		t.Fatalf("multiplier at 30 = %v, want 1.25", got)
	}
	for range 19 {
		s.catchBenign()
	}
	if got := s.State().SpeedMultiplier; !approx(got, 1.25) {
		t.Fatalf("multiplier at 49 = %v, want 1.25", got)
	}
	s.catchBenign()
	if got := s.State().SpeedMultiplier; !approx(got, 1.5) {
		t.Fatalf("multiplier at 50 = %v, want 1.5 (not 1.875)", got)
	}
}

func TestEasyRunSpeedsUpToNormal(t *testing.T) {
	s, _ := newTestSession(t, quietSettings())
	s.SelectDifficulty(Easy)
	s.Start()

	if got := s.State().BaseMultiplier; !approx(got, 0.8) {
		t.Fatalf("base = %v, want 0.8", got)
	}
	for range 30 {
		s.catchBenign()
	}
	if got := s.State().SpeedMultiplier; !approx(got, 1.0) {
		t.Fatalf("multiplier = %v, want 1.0", got)
	}

	d := s.spawnDrop(KindBenign)
	if diff := d.FallDuration - 4*time.Second; diff < -time.Microsecond || diff > time.Microsecond {
		t.Fatalf("fall duration = %v, want 4s", d.FallDuration)
	}
}

func TestDifficultyChangeWaitsForNextStart(t *testing.T) {
	s, _ := newTestSession(t, quietSettings())
	s.Start()
	s.SelectDifficulty(Hard)
	if got := s.State().BaseMultiplier; got != 1 {
		t.Fatalf("base changed mid-run to %v", got)
	}

	s.Restart()
	st := s.State()
	if st.Difficulty != Hard || !approx(st.BaseMultiplier, 1.25) || !approx(st.SpeedMultiplier, 1.25) {
		t.Fatalf("state after restart = %+v", st)
	}
}

func TestHarmfulCatchBelowZeroLoses(t *testing.T) {
	s, clock := newTestSession(t, quietSettings())
	var results []Result
	s.OnEnd(func(r Result) { results = append(results, r) })
	s.Start()

	d := s.spawnDrop(KindHarmful)
	d.X = s.Player().X
	advance(s, clock, 4*time.Second)

	st := s.State()
	if st.Phase != PhaseEnded || st.Reason != EndLoss || st.Score != -1 {
		t.Fatalf("state = %+v", st)
	}
	if countEffects(s, EffectHarmfulFlash) != 1 {
		t.Fatal("no harmful flash")
	}

	snap := s.Snapshot()
	if snap.Score != 0 {
		t.Fatalf("display score = %d, want 0", snap.Score)
	}
	if snap.Banner == nil || snap.Banner.Title != "You Lost!" || snap.Banner.Detail != "Poisoned by Dark Drop" {
		t.Fatalf("banner = %+v", snap.Banner)
	}

	// Loss pre-empts the timeout.
	advance(s, clock, 200*time.Second)
	if len(results) != 1 || results[0].Reason != EndLoss {
		t.Fatalf("results = %+v", results)
	}
}

func TestHarmfulCatchAboveZeroContinues(t *testing.T) {
	s, _ := newTestSession(t, quietSettings())
	s.Start()
	s.catchBenign()
	s.catchHarmful()

	st := s.State()
	if st.Phase != PhaseRunning || st.Score != 0 {
		t.Fatalf("state = %+v", st)
	}
}

func TestVictoryEndsAfterDelay(t *testing.T) {
	s, clock := newTestSession(t, quietSettings())
	var results []Result
	s.OnEnd(func(r Result) { results = append(results, r) })
	s.Start()

	s.spawnDrop(KindHarmful)
	s.spawnDrop(KindBenign)
	s.state.Score = 49
	s.state.TimeLeft = 1
	s.catchBenign()

	st := s.State()
	if !st.Celebrating || st.Phase != PhaseRunning {
		t.Fatalf("state = %+v", st)
	}
	if len(s.drops) != 0 {
		t.Fatalf("%d drops left after victory", len(s.drops))
	}
	if n := countEffects(s, EffectConfetti); n != 100 {
		t.Fatalf("confetti = %d, want 100", n)
	}
	if countEffects(s, EffectVictory) != 1 {
		t.Fatal("no victory banner")
	}
	for _, e := range s.effects {
		if e.Kind != EffectConfetti {
			continue
		}
		if e.Left < 0 || e.Left >= 1 || e.Rotation < 0 || e.Rotation >= 360 {
			t.Fatalf("confetti out of range: %+v", e)
		}
		if e.Lifetime < time.Second || e.Lifetime >= 3*time.Second {
			t.Fatalf("confetti lifetime = %v", e.Lifetime)
		}
	}
	if snap := s.Snapshot(); snap.Banner != nil {
		t.Fatal("end banner shown during celebration")
	}
	if s.Start() {
		t.Fatal("Start accepted during celebration")
	}

	// The clock would have timed out at 1s; victory holds instead.
	advance(s, clock, 2900*time.Millisecond)
	if s.State().Phase != PhaseRunning || s.State().TimeLeft != 1 {
		t.Fatalf("state before delay = %+v", s.State())
	}
	advance(s, clock, 100*time.Millisecond)

	st = s.State()
	if st.Phase != PhaseEnded || st.Reason != EndVictory || st.Score != 50 || st.Celebrating {
		t.Fatalf("state after delay = %+v", st)
	}
	if len(results) != 1 || results[0].Reason != EndVictory || results[0].Score != 50 {
		t.Fatalf("results = %+v", results)
	}
	snap := s.Snapshot()
	if snap.Banner == nil || snap.Banner.Title != "Game Over!" || snap.Banner.Detail != "Final Score: 50" {
		t.Fatalf("banner = %+v", snap.Banner)
	}
}

func TestEffectsExpireAfterEnd(t *testing.T) {
	s, clock := newTestSession(t, quietSettings())
	s.Start()
	s.catchBenign()
	s.catchHarmful()
	s.catchHarmful()
	if s.State().Phase != PhaseEnded {
		t.Fatal("run did not end")
	}
	if len(s.effects) == 0 {
		t.Fatal("effects removed at end")
	}

	advance(s, clock, 5*time.Second)
	if len(s.effects) != 0 || s.Pending() != 0 {
		t.Fatalf("effects=%d pending=%d after expiry", len(s.effects), s.Pending())
	}
	if st := s.State(); st.Score != -1 || st.Reason != EndLoss {
		t.Fatalf("state changed after end: %+v", st)
	}
}

func TestDropCaughtOrMissedExactlyOnce(t *testing.T) {
	s, clock := newTestSession(t, quietSettings())
	s.Start()

	caught := s.spawnDrop(KindBenign)
	caught.X = s.Player().X + 10
	missed := s.spawnDrop(KindBenign)
	missed.X = 0

	advance(s, clock, 4*time.Second)
	if s.State().Score != 1 {
		t.Fatalf("score = %d, want 1", s.State().Score)
	}
	for _, d := range []*Drop{caught, missed} {
		if d.poll.Active() || d.landing.Active() {
			t.Fatalf("drop %d still has live tasks", d.ID)
		}
	}
	if len(s.drops) != 0 {
		t.Fatalf("%d drops left", len(s.drops))
	}

	advance(s, clock, 5*time.Second)
	if s.State().Score != 1 {
		t.Fatalf("score changed to %d after resolution", s.State().Score)
	}
}

func TestDropGeometry(t *testing.T) {
	s, clock := newTestSession(t, quietSettings())
	s.Start()

	for range 200 {
		d := s.spawnDrop(KindBenign)
		if d.Size < 30 || d.Size >= 78 {
			t.Fatalf("size = %v", d.Size)
		}
		if d.X < 0 || d.X+d.Size > 800 {
			t.Fatalf("drop outside container: x=%v size=%v", d.X, d.Size)
		}
	}

	d := s.drops[0]
	if r := d.Rect(clock.Now(), 600); r.Bottom != 0 {
		t.Fatalf("drop should start above the container, rect=%+v", r)
	}
	clock.Advance(d.FallDuration)
	if r := d.Rect(clock.Now(), 600); !approx(r.Top, 600) {
		t.Fatalf("drop should finish below the container, rect=%+v", r)
	}
}

func TestResetMidRunTearsEverythingDown(t *testing.T) {
	s, clock := newTestSession(t, config.Default())
	s.Start()
	s.PointerAt(0)
	advance(s, clock, 5*time.Second)
	s.catchBenign()
	s.catchBenign()

	if len(s.drops) == 0 {
		t.Fatal("expected live drops before reset")
	}
	stale := s.drops[0]

	s.Reset()

	st := s.State()
	if st.Phase != PhaseIdle || st.Score != 0 || st.TimeLeft != 120 || st.SpeedMultiplier != 1 || st.BaseMultiplier != 1 {
		t.Fatalf("state after reset = %+v", st)
	}
	if s.Pending() != 0 {
		t.Fatalf("Pending = %d after reset", s.Pending())
	}
	if len(s.drops) != 0 || len(s.effects) != 0 {
		t.Fatalf("drops=%d effects=%d after reset", len(s.drops), len(s.effects))
	}
	if s.Player().X != 350 {
		t.Fatalf("player X = %v, want 350", s.Player().X)
	}
	if stale.poll.Active() || stale.landing.Active() {
		t.Fatal("stale drop tasks still scheduled")
	}

	advance(s, clock, 30*time.Second)
	if s.State() != st {
		t.Fatalf("state changed after reset: %+v", s.State())
	}
}

func TestStaleCallbackIsIgnored(t *testing.T) {
	s, _ := newTestSession(t, quietSettings())
	s.Start()

	called := false
	cb := s.guard(s.State().Generation, func() { called = true })
	s.Reset()
	s.Start()
	cb()
	if called {
		t.Fatal("callback from a previous run fired")
	}
}

func TestStartKeepsPlayerPosition(t *testing.T) {
	s, _ := newTestSession(t, quietSettings())
	s.PointerAt(0)
	s.Start()
	if s.Player().X != 0 {
		t.Fatalf("Start moved the player to %v", s.Player().X)
	}
}

func TestInputIsClamped(t *testing.T) {
	s, _ := newTestSession(t, quietSettings())

	for range 100 {
		s.MoveLeft()
	}
	if s.Player().X != 0 {
		t.Fatalf("X = %v after moving left, want 0", s.Player().X)
	}
	s.MoveRight()
	if s.Player().X != 25 {
		t.Fatalf("X = %v after one step, want 25", s.Player().X)
	}
	for range 100 {
		s.MoveRight()
	}
	if s.Player().X != 700 {
		t.Fatalf("X = %v after moving right, want 700", s.Player().X)
	}

	tests := []struct {
		pointer, want float64
	}{
		{-50, 0},
		{10, 0},
		{400, 350},
		{790, 700},
		{10000, 700},
	}
	for _, tt := range tests {
		s.PointerAt(tt.pointer)
		if got := s.Player().X; got != tt.want {
			t.Errorf("PointerAt(%v): X = %v, want %v", tt.pointer, got, tt.want)
		}
	}
}

func TestStartAfterEndBeginsFreshRun(t *testing.T) {
	s, _ := newTestSession(t, quietSettings())
	s.Start()
	s.catchHarmful()
	if s.State().Phase != PhaseEnded {
		t.Fatal("run did not end")
	}
	gen := s.State().Generation

	if !s.Start() {
		t.Fatal("Start after end returned false")
	}
	st := s.State()
	if st.Phase != PhaseRunning || st.Score != 0 || st.Generation <= gen {
		t.Fatalf("state = %+v", st)
	}
	if s.Snapshot().Banner != nil {
		t.Fatal("end banner survived start")
	}
}

func TestStartShowsGoal(t *testing.T) {
	s, clock := newTestSession(t, quietSettings())
	s.Start()

	e, ok := s.Snapshot().Effect(EffectGoal)
	if !ok || e.Text != "Your Goal: Collect 50 Waterdrops" {
		t.Fatalf("goal effect = %+v, %v", e, ok)
	}
	advance(s, clock, 3*time.Second)
	if _, ok := s.Snapshot().Effect(EffectGoal); ok {
		t.Fatal("goal banner outlived its lifetime")
	}
}
