package ambient

import (
	"errors"
	"fmt"
	"log"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/satindergrewal/naad/internal/synth"
)

// ContextFunc creates the audio context on first use.
type ContextFunc func() (*synth.Context, error)

// PlayerConfig holds the controller's tuning. Zero fields take defaults.
type PlayerConfig struct {
	// Zero levels mean unset and take the defaults in parentheses.
	DefaultVolume float64       // used when Options.Volume is nil (0.5)
	DuckLevel     float64       // scale while narration plays (0.3)
	EvolveMin     time.Duration // shortest wait between breaths (5m)
	EvolveMax     time.Duration // longest wait between breaths (7m)
	EvolveDepth   float64       // fraction the level dips per breath (0.1)
	EvolveRamp    time.Duration // length of one breath, down and back (20s)
	Policy        VolumePolicy  // mood multipliers (DefaultVolumePolicy)
	Rand          *rand.Rand    // random source for recipes and breaths
}

func (c *PlayerConfig) fill() {
	if c.DefaultVolume <= 0 {
		c.DefaultVolume = 0.5
	}
	if c.DuckLevel <= 0 {
		c.DuckLevel = 0.3
	}
	if c.EvolveMin <= 0 {
		c.EvolveMin = 5 * time.Minute
	}
	if c.EvolveMax < c.EvolveMin {
		c.EvolveMax = max(7*time.Minute, c.EvolveMin)
	}
	if c.EvolveDepth <= 0 {
		c.EvolveDepth = 0.1
	}
	if c.EvolveRamp <= 0 {
		c.EvolveRamp = 20 * time.Second
	}
	if c.Policy == nil {
		c.Policy = DefaultVolumePolicy()
	}
	if c.Rand == nil {
		c.Rand = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
}

// Options selects what Play builds. Volume nil means the default volume.
// Silent starts a session with no recipe while the mood still sets the
// level and CurrentMood.
type Options struct {
	Mood       Mood
	Instrument Instrument
	Volume     *float64
	Silent     bool
}

// ParseOptions builds Options from request keys, parsing each on its own.
// An unknown mood leaves Mood unset. An unknown instrument keeps the mood but
// makes the session silent: an instrument request never falls back to the
// mood recipe. The error joins every key that failed to parse; the returned
// Options are usable either way.
func ParseOptions(mood, instrument string, volume *float64) (Options, error) {
	opts := Options{Volume: volume}
	var errs []error
	if m, err := ParseMood(mood); err != nil {
		errs = append(errs, err)
	} else {
		opts.Mood = m
	}
	if i, err := ParseInstrument(instrument); err != nil {
		errs = append(errs, err)
		opts.Silent = true
	} else {
		opts.Instrument = i
	}
	return opts, errors.Join(errs...)
}

// Volume is a helper for Options.Volume.
func Volume(v float64) *float64 { return &v }

// Status is a snapshot of the controller.
type Status struct {
	Playing         bool       `json:"playing"`
	SessionID       string     `json:"session_id,omitempty"`
	Mood            Mood       `json:"mood,omitempty"`
	Instrument      Instrument `json:"instrument,omitempty"`
	Volume          float64    `json:"volume"`
	EffectiveVolume float64    `json:"effective_volume"`
	Narrating       bool       `json:"narrating"`
	Nodes           int        `json:"nodes"`
	Tasks           int        `json:"tasks"`
	AudioTime       float64    `json:"audio_time"`
	Uptime          float64    `json:"uptime"`
}

// Player is the playback session controller: at most one session plays at
// a time and every session is fully torn down before the next starts.
type Player struct {
	newContext ContextFunc
	cfg        PlayerConfig
	rng        *lockedRand

	mu        sync.Mutex
	ctx       *synth.Context
	sess      *session
	narrating bool
}

// NewPlayer creates an idle player. The audio context is created lazily by
// the first Play.
func NewPlayer(newContext ContextFunc, cfg PlayerConfig) *Player {
	cfg.fill()
	return &Player{
		newContext: newContext,
		cfg:        cfg,
		rng:        &lockedRand{r: cfg.Rand},
	}
}

// Play stops any current session and starts a new one.
func (p *Player) Play(opts Options) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.stopLocked()

	if p.ctx == nil {
		c, err := p.newContext()
		if err != nil {
			return fmt.Errorf("create audio context: %w", err)
		}
		p.ctx = c
	}
	p.ctx.Resume()

	volume := p.cfg.DefaultVolume
	if opts.Volume != nil {
		volume = clamp01(*opts.Volume)
	}

	s := &session{
		id:         uuid.New(),
		mood:       opts.Mood,
		instrument: opts.Instrument,
		volume:     volume,
		started:    time.Now(),
	}
	s.level = p.targetLocked(s)
	s.master = synth.NewGain(p.ctx, s.level)
	s.master.Connect(p.ctx.Destination())

	env := &Env{ctx: p.ctx, out: s.master, rng: p.rng, sess: s}
	var recipe Recipe
	if !opts.Silent {
		recipe = SelectRecipe(opts.Mood, opts.Instrument)
	}
	if recipe != nil {
		s.nodes = recipe(p.ctx, s.master, env)
	} else {
		log.Printf("No recipe for mood=%q instrument=%q, playing silence", opts.Mood, opts.Instrument)
	}
	p.startEvolution(s, env)

	p.sess = s
	log.Printf("Session %s started: mood=%q instrument=%q volume=%.2f level=%.3f nodes=%d",
		s.id, s.mood, s.instrument, s.volume, s.level, len(s.nodes))
	return nil
}

// Stop tears down the current session. It is a no-op when idle.
func (p *Player) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stopLocked()
}

type stoppable interface {
	Stop(when float64) error
}

func (p *Player) stopLocked() {
	s := p.sess
	if s == nil {
		return
	}
	p.sess = nil

	for _, t := range s.close() {
		t.Cancel()
	}
	for _, n := range s.nodes {
		if src, ok := n.(stoppable); ok {
			// sources that already ended report ErrStopped; nothing to do
			_ = src.Stop(0)
		}
		n.Disconnect()
	}
	s.master.Disconnect()
	log.Printf("Session %s stopped after %s", s.id, time.Since(s.started).Round(time.Second))
}

// SetVolume changes the current session's volume. The mood multiplier and
// any narration duck still apply. It is a no-op when idle.
func (p *Player) SetVolume(level float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.sess == nil {
		return
	}
	p.sess.volume = clamp01(level)
	p.applyLocked()
}

// SetNarrating ducks the ambient bed while narration plays and restores it
// afterwards. The flag outlives sessions.
func (p *Player) SetNarrating(active bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.narrating == active {
		return
	}
	p.narrating = active
	if active {
		log.Printf("Narration started, ducking ambient to %.0f%%", p.cfg.DuckLevel*100)
	} else {
		log.Println("Narration ended, restoring ambient")
	}
	if p.sess != nil {
		p.applyLocked()
	}
}

// IsPlaying reports whether a session is active.
func (p *Player) IsPlaying() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.sess != nil
}

// CurrentMood returns the active session's mood, if any.
func (p *Player) CurrentMood() (Mood, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.sess == nil || p.sess.mood == MoodNone {
		return MoodNone, false
	}
	return p.sess.mood, true
}

// Status returns a snapshot for the API.
func (p *Player) Status() Status {
	p.mu.Lock()
	defer p.mu.Unlock()
	st := Status{Narrating: p.narrating}
	if p.ctx != nil {
		st.AudioTime = p.ctx.CurrentTime()
	}
	if s := p.sess; s != nil {
		st.Playing = true
		st.SessionID = s.id.String()
		st.Mood = s.mood
		st.Instrument = s.instrument
		st.Volume = s.volume
		st.EffectiveVolume = s.currentLevel()
		st.Nodes = len(s.nodes)
		st.Tasks = s.taskCount()
		st.Uptime = time.Since(s.started).Seconds()
	}
	return st
}

// Policy returns a copy of the mood volume policy in use.
func (p *Player) Policy() VolumePolicy {
	return p.cfg.Policy.Clone()
}

// Context returns the audio context, or nil before the first Play.
func (p *Player) Context() *synth.Context {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.ctx
}

// Render pulls the next frames from the audio context. Before the first Play
// it writes silence.
func (p *Player) Render(left, right []float64) {
	p.mu.Lock()
	c := p.ctx
	p.mu.Unlock()
	if c == nil {
		clear(left)
		clear(right)
		return
	}
	c.Render(left, right)
}

// Close stops the session and releases the audio context. A later Play
// creates a new one.
func (p *Player) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stopLocked()
	if p.ctx == nil {
		return nil
	}
	err := p.ctx.Close()
	p.ctx = nil
	return err
}

func (p *Player) targetLocked(s *session) float64 {
	level := p.cfg.Policy.EffectiveVolume(s.volume, s.mood)
	if p.narrating {
		level *= p.cfg.DuckLevel
	}
	return level
}

// applyLocked moves the master gain to the session's target with a short
// ramp on the audio clock.
func (p *Player) applyLocked() {
	s := p.sess
	target := p.targetLocked(s)
	s.setLevel(target)
	now := p.ctx.CurrentTime()
	g := s.master.Gain
	g.CancelAndHoldAtTime(now)
	g.LinearRampToValueAtTime(target, now+0.05)
}

// startEvolution schedules the slow breath: at a random point in the
// evolution window the master level dips by EvolveDepth and recovers.
func (p *Player) startEvolution(s *session, e *Env) {
	span := p.cfg.EvolveMax - p.cfg.EvolveMin
	next := func() time.Duration {
		if span <= 0 {
			return p.cfg.EvolveMin
		}
		return p.cfg.EvolveMin + time.Duration(p.rng.Float64()*float64(span))
	}
	half := p.cfg.EvolveRamp.Seconds() / 2
	depth := p.cfg.EvolveDepth
	e.everyFunc(next, func() {
		level := s.currentLevel()
		now := e.Now()
		g := s.master.Gain
		g.CancelAndHoldAtTime(now)
		g.SmoothRampToValueAtTime(level*(1-depth), now+half)
		g.SmoothRampToValueAtTime(level, now+2*half)
		log.Printf("Session %s breathing: %.3f -> %.3f over %.0fs", s.id, level, level*(1-depth), 2*half)
	})
}
