// Package game implements one player's drop-catching session: the run state
// machine, the game clock, the spawners, per-drop collision polling and the
// scoring rules.
//
// A Session is driven by a single goroutine. Input methods and Update must all
// be called from that goroutine; every scheduled callback runs inside Update.
package game

import (
	"io"
	"math/rand"
	"slices"
	"time"

	"github.com/charmbracelet/log"

	"github.com/tomz197/droplets/internal/loop/config"
	"github.com/tomz197/droplets/internal/timer"
)

// Option configures a Session.
type Option func(*Session)

// WithClock replaces the wall clock, e.g. with a timer.ManualClock in tests.
func WithClock(c timer.Clock) Option {
	return func(s *Session) { s.sched = timer.NewScheduler(c) }
}

// WithRand sets the random source for drop sizes, positions and confetti.
func WithRand(r *rand.Rand) Option {
	return func(s *Session) { s.rng = r }
}

// WithLogger sets the logger used for run lifecycle messages.
func WithLogger(l *log.Logger) Option {
	return func(s *Session) { s.logger = l }
}

// Session is one player's game: a state record plus every task it scheduled.
type Session struct {
	settings config.Settings
	sched    *timer.Scheduler
	rng      *rand.Rand
	logger   *log.Logger

	state    State
	selected Difficulty
	player   Player
	drops    []*Drop
	effects  []*Effect
	banner   *Banner
	nextID   uint64

	clockTask   *timer.Task
	benignTask  *timer.Task
	harmfulTask *timer.Task
	victoryTask *timer.Task

	onEnd []func(Result)
}

// NewSession creates an idle session.
func NewSession(settings config.Settings, opts ...Option) *Session {
	s := &Session{
		settings: settings,
		player:   newPlayer(settings.Layout),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.sched == nil {
		s.sched = timer.NewScheduler(timer.RealClock{})
	}
	if s.rng == nil {
		s.rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if s.logger == nil {
		s.logger = log.New(io.Discard)
	}
	s.state = s.idleState()
	return s
}

func (s *Session) idleState() State {
	return State{
		Phase:           PhaseIdle,
		TimeLeft:        s.settings.Timing.RunLength,
		SpeedMultiplier: 1,
		BaseMultiplier:  1,
		Generation:      s.state.Generation,
	}
}

// OnEnd registers fn to be called whenever a run reaches a terminal state.
func (s *Session) OnEnd(fn func(Result)) {
	s.onEnd = append(s.onEnd, fn)
}

// State returns a copy of the run state.
func (s *Session) State() State {
	return s.state
}

// Settings returns the settings the session was created with.
func (s *Session) Settings() config.Settings {
	return s.settings
}

// Player returns a copy of the player.
func (s *Session) Player() Player {
	return s.player
}

// Pending returns the number of scheduled tasks (clock, spawners, drop polls,
// landings, effect expiries, victory delay).
func (s *Session) Pending() int {
	return s.sched.Len()
}

// SelectedDifficulty returns the current value of the difficulty selector.
func (s *Session) SelectedDifficulty() Difficulty {
	return s.selected
}

// SelectDifficulty sets the difficulty selector. It only takes effect at the
// next Start.
func (s *Session) SelectDifficulty(d Difficulty) {
	s.selected = d
}

// Update fires every task that is due. Call once per frame.
func (s *Session) Update() {
	s.sched.Run()
}

// Start begins a run unless one is already running. Reports whether a run started.
func (s *Session) Start() bool {
	if s.state.Phase == PhaseRunning {
		return false
	}
	s.banner = nil

	gen := s.state.Generation + 1
	base := s.selected.BaseMultiplier()
	s.state = State{
		Phase:           PhaseRunning,
		TimeLeft:        s.settings.Timing.RunLength,
		SpeedMultiplier: base,
		BaseMultiplier:  base,
		Difficulty:      s.selected,
		Generation:      gen,
	}

	s.addEffect(EffectGoal, s.settings.Timing.BannerLifetime.Duration)

	t := s.settings.Timing
	s.clockTask = s.sched.Every(t.ClockTick.Duration, s.guard(gen, s.tick))
	s.benignTask = s.sched.Every(t.BenignInterval.Duration, s.guard(gen, func() { s.spawnDrop(KindBenign) }))
	s.harmfulTask = s.sched.Every(t.HarmfulInterval.Duration, s.guard(gen, func() { s.spawnDrop(KindHarmful) }))

	s.logger.Debug("run started", "generation", gen, "difficulty", s.selected, "base", base)
	return true
}

// Reset tears the session back to idle: every task is cancelled, drops and
// effects are removed, score and time return to their initial values and the
// player is re-centred. It does not start a new run.
func (s *Session) Reset() {
	s.stopRun()
	for _, e := range s.effects {
		e.expire.Cancel()
	}
	s.effects = s.effects[:0]
	s.banner = nil

	s.state.Generation++
	s.state = s.idleState()
	s.player.Center()
	s.logger.Debug("session reset", "generation", s.state.Generation)
}

// Restart is the end banner's action: reset, then start.
func (s *Session) Restart() {
	s.Reset()
	s.Start()
}

// MoveLeft steps the player left. Accepted in every phase.
func (s *Session) MoveLeft() {
	s.player.MoveBy(-s.settings.Drops.PlayerStep)
}

// MoveRight steps the player right. Accepted in every phase.
func (s *Session) MoveRight() {
	s.player.MoveBy(s.settings.Drops.PlayerStep)
}

// PointerAt centres the player on a pointer at x (logical container
// coordinates). Accepted in every phase.
func (s *Session) PointerAt(x float64) {
	s.player.CenterOn(x)
}

// guard wraps a run callback so it does nothing once its run is over, even if
// a cancellation was missed.
func (s *Session) guard(gen uint64, fn func()) func() {
	return func() {
		if s.state.Generation != gen || s.state.Phase != PhaseRunning {
			return
		}
		fn()
	}
}

func (s *Session) tick() {
	s.state.TimeLeft--
	if s.state.TimeLeft <= 0 {
		s.state.TimeLeft = 0
		s.end(EndTimeout)
	}
}

func (s *Session) spawnDrop(kind Kind) *Drop {
	dc := s.settings.Drops
	factor := dc.MinSizeFactor + s.rng.Float64()*(dc.MaxSizeFactor-dc.MinSizeFactor)
	size := dc.BaseSize * factor

	s.nextID++
	d := &Drop{
		ID:           s.nextID,
		Kind:         kind,
		Size:         size,
		X:            s.rng.Float64() * (s.settings.Layout.ContainerWidth - size),
		SpawnedAt:    s.sched.Now(),
		FallDuration: FallDuration(s.settings.Timing.BaseFall.Duration, s.state.SpeedMultiplier),
	}

	gen := s.state.Generation
	d.poll = s.sched.Every(s.settings.Timing.PollInterval.Duration, s.guard(gen, func() { s.pollDrop(d) }))
	d.landing = s.sched.After(d.FallDuration, s.guard(gen, func() { s.removeDrop(d) }))
	s.drops = append(s.drops, d)
	return d
}

// pollDrop resolves d on its first overlap with the player.
func (s *Session) pollDrop(d *Drop) {
	dropRect := d.Rect(s.sched.Now(), s.settings.Layout.ContainerHeight)
	if !dropRect.Overlaps(s.player.Rect()) {
		return
	}
	s.removeDrop(d)
	switch d.Kind {
	case KindHarmful:
		s.catchHarmful()
	default:
		s.catchBenign()
	}
}

func (s *Session) removeDrop(d *Drop) {
	d.cancel()
	s.drops = slices.DeleteFunc(s.drops, func(o *Drop) bool { return o == d })
}

func (s *Session) catchBenign() {
	s.state.Score++
	s.addEffect(EffectFlash, s.settings.Timing.FlashLifetime.Duration)
	s.state.SpeedMultiplier = SpeedMultiplier(s.state.Score, s.state.BaseMultiplier, s.settings.Scoring)

	if s.state.Score == s.settings.Scoring.VictoryScore {
		s.celebrate()
	}
}

func (s *Session) catchHarmful() {
	s.state.Score--
	s.addEffect(EffectHarmfulFlash, s.settings.Timing.FlashLifetime.Duration)

	if s.state.Score < 0 {
		s.end(EndLoss)
	}
}

// celebrate starts the victory sequence. Everything that could still move the
// score or end the run differently is stopped first.
func (s *Session) celebrate() {
	s.state.Celebrating = true
	s.clockTask.Cancel()
	s.benignTask.Cancel()
	s.harmfulTask.Cancel()
	s.clearDrops()

	for range s.settings.Drops.ConfettiCount {
		e := s.addEffect(EffectConfetti, time.Second+time.Duration(s.rng.Float64()*float64(2*time.Second)))
		e.Left = s.rng.Float64()
		e.Color = ConfettiColors[s.rng.Intn(len(ConfettiColors))]
		e.Rotation = s.rng.Float64() * 360
	}
	s.addEffect(EffectVictory, s.settings.Timing.BannerLifetime.Duration)

	gen := s.state.Generation
	s.victoryTask = s.sched.After(s.settings.Timing.VictoryDelay.Duration, s.guard(gen, func() { s.end(EndVictory) }))
	s.logger.Debug("victory reached", "generation", gen, "score", s.state.Score)
}

// end moves a running session to its terminal state.
func (s *Session) end(reason EndReason) {
	s.stopRun()
	s.state.Phase = PhaseEnded
	s.state.Reason = reason
	s.state.Celebrating = false
	s.banner = newBanner(reason, s.state.Score)

	res := Result{Reason: reason, Score: s.state.Score, Difficulty: s.state.Difficulty}
	s.logger.Debug("run ended", "generation", s.state.Generation, "reason", reason, "score", res.Score)
	for _, fn := range s.onEnd {
		fn(res)
	}
}

// stopRun cancels every run task and removes all drops. Effects survive.
func (s *Session) stopRun() {
	s.clockTask.Cancel()
	s.benignTask.Cancel()
	s.harmfulTask.Cancel()
	s.victoryTask.Cancel()
	s.clockTask, s.benignTask, s.harmfulTask, s.victoryTask = nil, nil, nil, nil
	s.clearDrops()
}

func (s *Session) clearDrops() {
	for _, d := range s.drops {
		d.cancel()
	}
	s.drops = s.drops[:0]
}

func (s *Session) addEffect(kind EffectKind, lifetime time.Duration) *Effect {
	s.nextID++
	e := &Effect{
		ID:        s.nextID,
		Kind:      kind,
		SpawnedAt: s.sched.Now(),
		Lifetime:  lifetime,
	}
	e.expire = s.sched.After(lifetime, func() {
		s.effects = slices.DeleteFunc(s.effects, func(o *Effect) bool { return o == e })
	})
	s.effects = append(s.effects, e)
	return e
}
