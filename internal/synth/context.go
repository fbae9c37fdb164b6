package synth

import (
	"errors"
	"sync"
	"time"
)

// Quantum is the largest number of frames rendered in one graph pass.
const Quantum = 128

var (
	ErrInvalidSampleRate = errors.New("synth: invalid sample rate")
	ErrClosed            = errors.New("synth: context closed")
	ErrStarted           = errors.New("synth: source already started")
	ErrNotStarted        = errors.New("synth: source not started")
	ErrStopped           = errors.New("synth: source already stopped")
)

// State is the lifecycle state of a Context.
type State int

const (
	StateSuspended State = iota
	StateRunning
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateSuspended:
		return "suspended"
	case StateRunning:
		return "running"
	case StateClosed:
		return "closed"
	}
	return "unknown"
}

// Context owns an audio graph and its sample clock. The clock only advances
// while the context is running and something calls Render, so every param
// ramp and every scheduled task is measured in rendered audio.
type Context struct {
	sampleRate int

	mu      sync.Mutex
	state   State
	frame   int64
	dest    *Destination
	sources map[source]struct{}
	tasks   taskQueue
	taskSeq uint64

	// held while a task callback runs and while a task is cancelled
	dispatchMu sync.Mutex
}

// NewContext creates a suspended context rendering at sampleRate.
func NewContext(sampleRate int) (*Context, error) {
	if sampleRate < 8000 || sampleRate > 192000 {
		return nil, ErrInvalidSampleRate
	}
	c := &Context{
		sampleRate: sampleRate,
		sources:    make(map[source]struct{}),
	}
	c.dest = &Destination{}
	c.dest.init(c, c.dest, c.dest.process)
	return c, nil
}

// SampleRate returns the rendering rate in Hz.
func (c *Context) SampleRate() int { return c.sampleRate }

// Destination is the graph's final output.
func (c *Context) Destination() *Destination { return c.dest }

// State returns the current lifecycle state.
func (c *Context) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Resume starts the clock if the context is suspended.
func (c *Context) Resume() {
	c.mu.Lock()
	if c.state == StateSuspended {
		c.state = StateRunning
	}
	c.mu.Unlock()
}

// Suspend freezes the clock. Render produces silence until Resume.
func (c *Context) Suspend() {
	c.mu.Lock()
	if c.state == StateRunning {
		c.state = StateSuspended
	}
	c.mu.Unlock()
}

// Close releases every source and pending task. A closed context cannot be resumed.
func (c *Context) Close() error {
	c.dispatchMu.Lock()
	defer c.dispatchMu.Unlock()
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == StateClosed {
		return ErrClosed
	}
	c.state = StateClosed
	for _, t := range c.tasks {
		t.done = true
	}
	c.tasks = nil
	for s := range c.sources {
		c.endLocked(s)
	}
	c.dest.inputs = nil
	return nil
}

// CurrentTime returns the audio clock in seconds.
func (c *Context) CurrentTime() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.nowLocked()
}

// Frames returns the number of frames rendered so far.
func (c *Context) Frames() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.frame
}

func (c *Context) nowLocked() float64 {
	return float64(c.frame) / float64(c.sampleRate)
}

func (c *Context) secondsToFrame(t float64) int64 {
	return int64(t*float64(c.sampleRate) + 0.5)
}

func (c *Context) durationToFrames(d time.Duration) int64 {
	return int64(d.Seconds()*float64(c.sampleRate) + 0.5)
}

// Render advances the clock by len(left) frames, firing due tasks between
// graph passes, and writes the destination output. A context that is not
// running writes silence and keeps its clock.
func (c *Context) Render(left, right []float64) {
	n := min(len(left), len(right))
	for off := 0; off < n; {
		c.dispatch()

		c.mu.Lock()
		if c.state != StateRunning {
			c.mu.Unlock()
			clear(left[off:n])
			clear(right[off:n])
			return
		}
		q := min(Quantum, n-off)
		if due, ok := c.tasks.nextDue(); ok {
			if d := due - c.frame; d > 0 && d < int64(q) {
				q = int(d)
			}
		}
		out := c.dest.pull(c.frame, q)
		copy(left[off:off+q], out.l[:q])
		copy(right[off:off+q], out.r[:q])
		c.frame += int64(q)
		c.reapLocked()
		c.mu.Unlock()

		off += q
	}
}

// reapLocked ends sources whose stop time has passed and releases the nodes
// tied to them.
func (c *Context) reapLocked() {
	for s := range c.sources {
		sc := s.schedule()
		if sc.stopAt >= 0 && c.frame >= sc.stopAt {
			c.endLocked(s)
		}
	}
}

func (c *Context) endLocked(s source) {
	sc := s.schedule()
	sc.ended = true
	s.base().disconnectLocked()
	for _, n := range sc.release {
		n.disconnectLocked()
	}
	sc.release = nil
	delete(c.sources, s)
}

// SourceInfo describes one sound source reachable from the destination.
type SourceInfo struct {
	Kind      string // "oscillator" or "buffer"
	Waveform  Waveform
	Frequency float64
}

// Sources lists every live source with a path to the destination, including
// modulators feeding params along that path.
func (c *Context) Sources() []SourceInfo {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []SourceInfo
	c.walkLocked(func(n *node) {
		switch s := n.self.(type) {
		case *Oscillator:
			if !s.sched.ended {
				out = append(out, SourceInfo{Kind: "oscillator", Waveform: s.wave, Frequency: s.Frequency.currentLocked()})
			}
		case *BufferSource:
			if !s.sched.ended {
				out = append(out, SourceInfo{Kind: "buffer"})
			}
		}
	})
	return out
}

// ActiveSources counts live sources with a path to the destination.
func (c *Context) ActiveSources() int {
	return len(c.Sources())
}

// ConnectedNodes counts every node with a path to the destination, the
// destination excluded.
func (c *Context) ConnectedNodes() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	count := -1
	c.walkLocked(func(*node) { count++ })
	return count
}

func (c *Context) walkLocked(visit func(*node)) {
	seen := make(map[*node]bool)
	var walk func(n *node)
	walk = func(n *node) {
		if seen[n] {
			return
		}
		seen[n] = true
		visit(n)
		for _, in := range n.inputs {
			walk(in)
		}
		for _, p := range n.params {
			for _, in := range p.inputs {
				walk(in)
			}
		}
	}
	walk(&c.dest.node)
}
