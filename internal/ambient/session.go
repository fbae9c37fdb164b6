package ambient

import (
	"math/rand/v2"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/satindergrewal/naad/internal/synth"
)

// session is one play() lifetime: the master gain, the continuous nodes the
// recipe started, and every task registered on its behalf.
type session struct {
	id         uuid.UUID
	mood       Mood
	instrument Instrument
	volume     float64
	master     *synth.Gain
	nodes      []synth.Node
	started    time.Time

	mu     sync.Mutex
	tasks  []*synth.Task
	closed bool
	level  float64
}

// track registers a task created by add unless the session is already torn
// down, in which case add is never called.
func (s *session) track(add func() *synth.Task) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	if len(s.tasks) >= 64 {
		live := s.tasks[:0]
		for _, t := range s.tasks {
			if t.Active() {
				live = append(live, t)
			}
		}
		s.tasks = live
	}
	s.tasks = append(s.tasks, add())
}

// close marks the session torn down and hands back its tasks for cancelling.
func (s *session) close() []*synth.Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	tasks := s.tasks
	s.tasks = nil
	return tasks
}

func (s *session) setLevel(v float64) {
	s.mu.Lock()
	s.level = v
	s.mu.Unlock()
}

func (s *session) currentLevel() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.level
}

func (s *session) taskCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, t := range s.tasks {
		if t.Active() {
			n++
		}
	}
	return n
}

// lockedRand serialises a *rand.Rand shared by the controller and task
// callbacks running on the render goroutine.
type lockedRand struct {
	mu sync.Mutex
	r  *rand.Rand
}

func (l *lockedRand) Float64() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.r.Float64()
}

func (l *lockedRand) IntN(n int) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.r.IntN(n)
}

func (l *lockedRand) noise(sampleRate int, seconds float64) *synth.Buffer {
	l.mu.Lock()
	defer l.mu.Unlock()
	return synth.NewNoiseBuffer(sampleRate, seconds, l.r)
}

// Env is what a recipe sees of its session: the audio context, the bus to
// feed, a seeded random source, and timers bound to the session's lifetime.
type Env struct {
	ctx  *synth.Context
	out  *synth.Gain
	rng  *lockedRand
	sess *session
}

// Every runs fn every d until the session stops.
func (e *Env) Every(d time.Duration, fn func()) {
	e.sess.track(func() *synth.Task { return e.ctx.Every(d, fn) })
}

// After runs fn once after d unless the session stops first.
func (e *Env) After(d time.Duration, fn func()) {
	e.sess.track(func() *synth.Task { return e.ctx.After(d, fn) })
}

func (e *Env) everyFunc(next func() time.Duration, fn func()) {
	e.sess.track(func() *synth.Task { return e.ctx.EveryFunc(next, fn) })
}

// Now returns the audio clock in seconds.
func (e *Env) Now() float64 { return e.ctx.CurrentTime() }

// Chance reports true with probability p.
func (e *Env) Chance(p float64) bool { return e.rng.Float64() < p }

// Between returns a uniform value in [lo, hi).
func (e *Env) Between(lo, hi float64) float64 { return lo + (hi-lo)*e.rng.Float64() }

// Pick returns one element of set.
func (e *Env) Pick(set []float64) float64 { return set[e.rng.IntN(len(set))] }

// Noise returns a fresh white-noise buffer of the given length.
func (e *Env) Noise(seconds float64) *synth.Buffer {
	return e.rng.noise(e.ctx.SampleRate(), seconds)
}
