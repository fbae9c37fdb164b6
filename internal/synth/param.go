package synth

import (
	"math"
	"slices"
)

type rampKind int

const (
	rampNone rampKind = iota
	rampLinear
	rampExponential
	rampSmooth
)

type automation struct {
	kind  rampKind
	time  float64
	value float64
}

// Param is an automatable value computed once per frame. Its value is the
// scheduled automation at that frame plus the sum of any connected
// modulators, clamped to the param's range. Times are in context seconds.
type Param struct {
	owner    *node
	value    float64
	min, max float64
	events   []automation
	inputs   []*node

	buf   [Quantum]float64
	stamp int64
}

// Value returns the automated value at the current audio time, without
// modulation.
func (p *Param) Value() float64 {
	c := p.owner.ctx
	c.mu.Lock()
	defer c.mu.Unlock()
	return p.currentLocked()
}

// SetValue replaces all automation with v, effective immediately.
func (p *Param) SetValue(v float64) {
	c := p.owner.ctx
	c.mu.Lock()
	defer c.mu.Unlock()
	p.events = nil
	p.value = v
}

// SetValueAtTime jumps to v at time t.
func (p *Param) SetValueAtTime(v, t float64) {
	p.schedule(rampNone, v, t)
}

// LinearRampToValueAtTime ramps linearly from the previous event to v at t.
func (p *Param) LinearRampToValueAtTime(v, t float64) {
	p.schedule(rampLinear, v, t)
}

// ExponentialRampToValueAtTime ramps exponentially from the previous event to
// v at t. Both ends must share a sign and be non-zero; v is nudged away from
// zero when it is not.
func (p *Param) ExponentialRampToValueAtTime(v, t float64) {
	if math.Abs(v) < 1e-6 {
		v = math.Copysign(1e-6, v)
	}
	p.schedule(rampExponential, v, t)
}

// SmoothRampToValueAtTime ramps from the previous event to v at t along a
// smoothstep curve.
func (p *Param) SmoothRampToValueAtTime(v, t float64) {
	p.schedule(rampSmooth, v, t)
}

// CancelScheduledValues drops every event at or after t.
func (p *Param) CancelScheduledValues(t float64) {
	c := p.owner.ctx
	c.mu.Lock()
	defer c.mu.Unlock()
	p.cancelLocked(t)
}

// CancelAndHoldAtTime drops every event at or after t and holds the value the
// automation had reached at t.
func (p *Param) CancelAndHoldAtTime(t float64) {
	c := p.owner.ctx
	c.mu.Lock()
	defer c.mu.Unlock()
	v := p.valueAt(t)
	p.cancelLocked(t)
	p.insertLocked(automation{kind: rampNone, time: t, value: v})
}

func (p *Param) schedule(kind rampKind, v, t float64) {
	c := p.owner.ctx
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.nowLocked()
	if t < now {
		t = now
	}
	if kind != rampNone && len(p.events) == 0 {
		p.events = append(p.events, automation{kind: rampNone, time: now, value: p.value})
	}
	p.insertLocked(automation{kind: kind, time: t, value: v})
}

func (p *Param) insertLocked(e automation) {
	i, _ := slices.BinarySearchFunc(p.events, e.time, func(a automation, t float64) int {
		if a.time <= t {
			return -1
		}
		return 1
	})
	p.events = slices.Insert(p.events, i, e)
}

func (p *Param) cancelLocked(t float64) {
	for i, e := range p.events {
		if e.time >= t {
			p.events = p.events[:i]
			return
		}
	}
}

func (p *Param) currentLocked() float64 {
	return p.valueAt(p.owner.ctx.nowLocked())
}

// valueAt evaluates the automation timeline at t.
func (p *Param) valueAt(t float64) float64 {
	k := -1
	for i, e := range p.events {
		if e.time > t {
			break
		}
		k = i
	}
	if k+1 < len(p.events) {
		next := p.events[k+1]
		if next.kind != rampNone && k >= 0 {
			prev := p.events[k]
			return interpolate(next.kind, prev.time, prev.value, next.time, next.value, t)
		}
	}
	if k >= 0 {
		return p.events[k].value
	}
	return p.value
}

func interpolate(kind rampKind, t0, v0, t1, v1, t float64) float64 {
	if t1 <= t0 {
		return v1
	}
	x := (t - t0) / (t1 - t0)
	switch kind {
	case rampLinear:
		return v0 + (v1-v0)*x
	case rampExponential:
		if v0 == 0 || (v0 > 0) != (v1 > 0) {
			return v0
		}
		return v0 * math.Pow(v1/v0, x)
	case rampSmooth:
		return v0 + (v1-v0)*Smoothstep(x)
	}
	return v1
}

// compute fills buf for the quantum starting at frame start and trims events
// that can no longer affect the output.
func (p *Param) compute(start int64, n int) {
	if p.stamp == start {
		return
	}
	p.stamp = start
	sr := float64(p.owner.ctx.sampleRate)

	if len(p.events) == 0 {
		for i := 0; i < n; i++ {
			p.buf[i] = p.value
		}
	} else {
		for i := 0; i < n; i++ {
			p.buf[i] = p.valueAt(float64(start+int64(i)) / sr)
		}
		p.trim(float64(start+int64(n)) / sr)
	}

	for _, src := range p.inputs {
		b := src.pull(start, n)
		for i := 0; i < n; i++ {
			p.buf[i] += (b.l[i] + b.r[i]) / 2
		}
	}
	for i := 0; i < n; i++ {
		p.buf[i] = min(max(p.buf[i], p.min), p.max)
	}
}

func (p *Param) trim(t float64) {
	k := -1
	for i, e := range p.events {
		if e.time > t {
			break
		}
		k = i
	}
	switch {
	case k < 0:
	case k == len(p.events)-1:
		p.value = p.events[k].value
		p.events = p.events[:0]
	case k > 0:
		p.events = slices.Delete(p.events, 0, k)
	}
}
