package synth

import "math"

// Waveform selects an oscillator's periodic shape.
type Waveform int

const (
	Sine Waveform = iota
	Triangle
	Sawtooth
	Square
)

func (w Waveform) String() string {
	switch w {
	case Sine:
		return "sine"
	case Triangle:
		return "triangle"
	case Sawtooth:
		return "sawtooth"
	case Square:
		return "square"
	}
	return "unknown"
}

// sample evaluates the waveform at phase in [0,1).
func (w Waveform) sample(phase float64) float64 {
	switch w {
	case Triangle:
		switch {
		case phase < 0.25:
			return 4 * phase
		case phase < 0.75:
			return 2 - 4*phase
		default:
			return 4*phase - 4
		}
	case Sawtooth:
		if phase < 0.5 {
			return 2 * phase
		}
		return 2*phase - 2
	case Square:
		if phase < 0.5 {
			return 1
		}
		return -1
	}
	return math.Sin(2 * math.Pi * phase)
}

type source interface {
	Node
	schedule() *schedule
}

// schedule tracks a source's start and stop frames. A source may be started
// once and stopped once; when its stop frame passes it disconnects itself
// along with every node registered through DisconnectOnEnd.
type schedule struct {
	startAt int64
	stopAt  int64
	started bool
	stopped bool
	ended   bool
	release []*node
}

func (s *schedule) playing(frame int64) bool {
	return s.started && frame >= s.startAt && (s.stopAt < 0 || frame < s.stopAt)
}

func startSource(s source, when float64) error {
	n := s.base()
	c := n.ctx
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == StateClosed {
		return ErrClosed
	}
	sc := s.schedule()
	if sc.started {
		return ErrStarted
	}
	sc.started = true
	sc.startAt = max(c.secondsToFrame(when), c.frame)
	sc.stopAt = -1
	c.sources[s] = struct{}{}
	return nil
}

func stopSource(s source, when float64) error {
	c := s.base().ctx
	c.mu.Lock()
	defer c.mu.Unlock()
	sc := s.schedule()
	if !sc.started {
		return ErrNotStarted
	}
	if sc.stopped || sc.ended {
		return ErrStopped
	}
	sc.stopped = true
	sc.stopAt = max(c.secondsToFrame(when), sc.startAt, c.frame)
	return nil
}

func releaseOnEnd(s source, nodes []Node) {
	c := s.base().ctx
	c.mu.Lock()
	defer c.mu.Unlock()
	sc := s.schedule()
	for _, n := range nodes {
		if sc.ended {
			n.base().disconnectLocked()
			continue
		}
		sc.release = append(sc.release, n.base())
	}
}

// Oscillator generates a periodic waveform.
type Oscillator struct {
	node
	sched schedule

	Frequency *Param
	wave      Waveform
	phase     float64
}

// NewOscillator creates an oscillator at freq Hz. It is silent until started.
func NewOscillator(c *Context, wave Waveform, freq float64) *Oscillator {
	o := &Oscillator{wave: wave}
	o.init(c, o, o.process)
	o.Frequency = o.newParam(freq, 0, float64(c.sampleRate)/2)
	return o
}

func (o *Oscillator) schedule() *schedule { return &o.sched }

// Start begins playback at context time when (clamped to now).
func (o *Oscillator) Start(when float64) error { return startSource(o, when) }

// Stop ends playback at context time when. Stopping a source that was never
// started returns ErrNotStarted; stopping it twice returns ErrStopped.
func (o *Oscillator) Stop(when float64) error { return stopSource(o, when) }

// DisconnectOnEnd registers nodes to disconnect when the oscillator ends.
func (o *Oscillator) DisconnectOnEnd(nodes ...Node) { releaseOnEnd(o, nodes) }

// Ended reports whether the oscillator has passed its stop time.
func (o *Oscillator) Ended() bool {
	o.ctx.mu.Lock()
	defer o.ctx.mu.Unlock()
	return o.sched.ended
}

func (o *Oscillator) process(start int64, _, out *bus, n int) {
	sr := float64(o.ctx.sampleRate)
	freq := &o.Frequency.buf
	for i := 0; i < n; i++ {
		if !o.sched.playing(start + int64(i)) {
			out.l[i], out.r[i] = 0, 0
			continue
		}
		v := o.wave.sample(o.phase)
		out.l[i], out.r[i] = v, v
		o.phase += freq[i] / sr
		o.phase -= math.Floor(o.phase)
	}
}

// BufferSource plays a Buffer, optionally looping it end to start.
type BufferSource struct {
	node
	sched schedule

	buffer *Buffer
	loop   bool
	pos    int
}

// NewBufferSource creates a source for buf. It is silent until started.
func NewBufferSource(c *Context, buf *Buffer, loop bool) *BufferSource {
	b := &BufferSource{buffer: buf, loop: loop}
	b.init(c, b, b.process)
	return b
}

func (b *BufferSource) schedule() *schedule { return &b.sched }

// Start begins playback at context time when (clamped to now).
func (b *BufferSource) Start(when float64) error { return startSource(b, when) }

// Stop ends playback at context time when. See Oscillator.Stop.
func (b *BufferSource) Stop(when float64) error { return stopSource(b, when) }

// DisconnectOnEnd registers nodes to disconnect when the source ends.
func (b *BufferSource) DisconnectOnEnd(nodes ...Node) { releaseOnEnd(b, nodes) }

func (b *BufferSource) process(start int64, _, out *bus, n int) {
	data := b.buffer.data
	for i := 0; i < n; i++ {
		if len(data) == 0 || !b.sched.playing(start+int64(i)) {
			out.l[i], out.r[i] = 0, 0
			continue
		}
		if b.pos >= len(data) {
			if !b.loop {
				out.l[i], out.r[i] = 0, 0
				continue
			}
			b.pos = 0
		}
		v := data[b.pos]
		out.l[i], out.r[i] = v, v
		b.pos++
	}
}
