package synth

import "math"

// Gain scales its input by the Gain param.
type Gain struct {
	node
	Gain *Param
}

// NewGain creates a gain node starting at level.
func NewGain(c *Context, level float64) *Gain {
	g := &Gain{}
	g.init(c, g, g.process)
	g.Gain = g.newParam(level, -10, 10)
	return g
}

func (g *Gain) process(_ int64, in, out *bus, n int) {
	k := &g.Gain.buf
	for i := 0; i < n; i++ {
		out.l[i] = in.l[i] * k[i]
		out.r[i] = in.r[i] * k[i]
	}
}

// FilterType selects a biquad response.
type FilterType int

const (
	Lowpass FilterType = iota
	Highpass
	Bandpass
)

func (f FilterType) String() string {
	switch f {
	case Lowpass:
		return "lowpass"
	case Highpass:
		return "highpass"
	case Bandpass:
		return "bandpass"
	}
	return "unknown"
}

type biquadState struct {
	x1, x2, y1, y2 float64
}

func (s *biquadState) step(b0, b1, b2, a1, a2, x float64) float64 {
	y := b0*x + b1*s.x1 + b2*s.x2 - a1*s.y1 - a2*s.y2
	s.x2, s.x1 = s.x1, x
	s.y2, s.y1 = s.y1, y
	return y
}

// BiquadFilter is a second-order RBJ filter. Coefficients follow the
// Frequency and Q params once per quantum.
type BiquadFilter struct {
	node
	Frequency *Param
	Q         *Param

	kind        FilterType
	left, right biquadState
}

// NewBiquadFilter creates a filter of the given type at freq Hz.
func NewBiquadFilter(c *Context, kind FilterType, freq, q float64) *BiquadFilter {
	f := &BiquadFilter{kind: kind}
	f.init(c, f, f.process)
	f.Frequency = f.newParam(freq, 10, float64(c.sampleRate)/2)
	f.Q = f.newParam(q, 0.0001, 1000)
	return f
}

func (f *BiquadFilter) coefficients(freq, q float64) (b0, b1, b2, a1, a2 float64) {
	sr := float64(f.ctx.sampleRate)
	freq = min(freq, sr*0.49)
	w0 := 2 * math.Pi * freq / sr
	cosw, sinw := math.Cos(w0), math.Sin(w0)
	alpha := sinw / (2 * q)
	a0 := 1 + alpha

	switch f.kind {
	case Highpass:
		b0, b1, b2 = (1+cosw)/2, -(1 + cosw), (1+cosw)/2
	case Bandpass:
		b0, b1, b2 = alpha, 0, -alpha
	default:
		b0, b1, b2 = (1-cosw)/2, 1-cosw, (1-cosw)/2
	}
	a1, a2 = -2*cosw, 1-alpha
	return b0 / a0, b1 / a0, b2 / a0, a1 / a0, a2 / a0
}

func (f *BiquadFilter) process(_ int64, in, out *bus, n int) {
	b0, b1, b2, a1, a2 := f.coefficients(f.Frequency.buf[0], f.Q.buf[0])
	for i := 0; i < n; i++ {
		out.l[i] = f.left.step(b0, b1, b2, a1, a2, in.l[i])
		out.r[i] = f.right.step(b0, b1, b2, a1, a2, in.r[i])
	}
}

// StereoPanner places its input, downmixed to mono, between the left (-1) and
// right (+1) channels with an equal-power law.
type StereoPanner struct {
	node
	Pan *Param
}

// NewStereoPanner creates a panner at pan.
func NewStereoPanner(c *Context, pan float64) *StereoPanner {
	p := &StereoPanner{}
	p.init(c, p, p.process)
	p.Pan = p.newParam(pan, -1, 1)
	return p
}

func (p *StereoPanner) process(_ int64, in, out *bus, n int) {
	pan := &p.Pan.buf
	for i := 0; i < n; i++ {
		m := (in.l[i] + in.r[i]) / 2
		x := (pan[i] + 1) / 2 * math.Pi / 2
		out.l[i] = m * math.Cos(x)
		out.r[i] = m * math.Sin(x)
	}
}
