package ambient

import (
	"log"

	"github.com/satindergrewal/naad/internal/synth"
)

// scheduled is a source the recipes start and stop.
type scheduled interface {
	Start(when float64) error
	Stop(when float64) error
}

// launch starts a fresh source. It fails only on a closed context, which
// the player never closes while a session is building or a task is running.
func launch(s scheduled, when float64) bool {
	if err := s.Start(when); err != nil {
		log.Printf("Start source: %v", err)
		return false
	}
	return true
}

// launchFor starts a fresh source and schedules its stop.
func launchFor(s scheduled, from, to float64) {
	if !launch(s, from) {
		return
	}
	if err := s.Stop(to); err != nil {
		log.Printf("Stop source: %v", err)
	}
}

// Continuous layers. Each returns every node it started so the session can
// stop and disconnect them.

// drone starts an oscillator feeding out through its own gain.
func drone(e *Env, wave synth.Waveform, freq, level float64) (*synth.Oscillator, *synth.Gain, []synth.Node) {
	osc := synth.NewOscillator(e.ctx, wave, freq)
	g := synth.NewGain(e.ctx, level)
	osc.Connect(g)
	g.Connect(e.out)
	launch(osc, e.Now())
	return osc, g, []synth.Node{osc, g}
}

// lfo modulates target by +/-depth at rate Hz.
func lfo(e *Env, rate, depth float64, target *synth.Param) []synth.Node {
	osc := synth.NewOscillator(e.ctx, synth.Sine, rate)
	g := synth.NewGain(e.ctx, depth)
	osc.Connect(g)
	g.ConnectParam(target)
	launch(osc, e.Now())
	return []synth.Node{osc, g}
}

// noiseBed loops a fresh noise buffer through a filter and gain into out.
func noiseBed(e *Env, seconds float64, kind synth.FilterType, freq, q, level float64) (*synth.BiquadFilter, *synth.Gain, []synth.Node) {
	src := synth.NewBufferSource(e.ctx, e.Noise(seconds), true)
	f := synth.NewBiquadFilter(e.ctx, kind, freq, q)
	g := synth.NewGain(e.ctx, level)
	src.Connect(f)
	f.Connect(g)
	g.Connect(e.out)
	launch(src, e.Now())
	return f, g, []synth.Node{src, f, g}
}

// Hits. Each schedules its own stop and releases its envelope when it ends,
// so nothing here is returned to the session.

// strike is a single struck tone: a short linear attack then an exponential
// decay to silence.
func strike(e *Env, wave synth.Waveform, freq, peak, attack, decay float64) {
	now := e.Now()
	end := now + attack + decay
	osc := synth.NewOscillator(e.ctx, wave, freq)
	env := synth.NewGain(e.ctx, 0)
	env.Gain.SetValueAtTime(0, now)
	env.Gain.LinearRampToValueAtTime(peak, now+attack)
	env.Gain.ExponentialRampToValueAtTime(0.001, end)
	osc.Connect(env)
	env.Connect(e.out)
	launchFor(osc, now, end+0.05)
	osc.DisconnectOnEnd(env)
}

// bell is a sine strike with a 10 ms attack.
func bell(e *Env, freq, peak, decay float64) {
	strike(e, synth.Sine, freq, peak, 0.01, decay)
}

// bowlPartials are the inharmonic overtone ratios of a struck singing bowl
// with their relative amplitudes.
var bowlPartials = []struct{ ratio, amp float64 }{
	{1, 1},
	{2.76, 0.5},
	{5.40, 0.25},
	{8.93, 0.12},
}

// bowl strikes a fundamental with its overtone stack through one envelope.
func bowl(e *Env, fundamental, peak, decay float64) {
	now := e.Now()
	end := now + 0.02 + decay
	env := synth.NewGain(e.ctx, 0)
	env.Gain.SetValueAtTime(0, now)
	env.Gain.LinearRampToValueAtTime(peak, now+0.02)
	env.Gain.ExponentialRampToValueAtTime(0.001, end)
	env.Connect(e.out)
	for _, p := range bowlPartials {
		osc := synth.NewOscillator(e.ctx, synth.Sine, fundamental*p.ratio)
		amp := synth.NewGain(e.ctx, p.amp)
		osc.Connect(amp)
		amp.Connect(env)
		launchFor(osc, now, end+0.05)
		osc.DisconnectOnEnd(amp, env)
	}
}

// swell is a breathy sustained note: attack to peak, hold, release to zero
// at dur, with optional vibrato.
func swell(e *Env, freq, peak, attack, dur, vibRate, vibDepth float64) {
	now := e.Now()
	end := now + dur
	release := max(now+attack, end-dur/3)
	osc := synth.NewOscillator(e.ctx, synth.Sine, freq)
	env := synth.NewGain(e.ctx, 0)
	env.Gain.SetValueAtTime(0, now)
	env.Gain.LinearRampToValueAtTime(peak, now+attack)
	env.Gain.SetValueAtTime(peak, release)
	env.Gain.LinearRampToValueAtTime(0, end)
	osc.Connect(env)
	env.Connect(e.out)
	launchFor(osc, now, end+0.05)
	osc.DisconnectOnEnd(env)

	if vibDepth > 0 {
		vib := synth.NewOscillator(e.ctx, synth.Sine, vibRate)
		depth := synth.NewGain(e.ctx, vibDepth)
		vib.Connect(depth)
		depth.ConnectParam(osc.Frequency)
		launchFor(vib, now, end+0.05)
		vib.DisconnectOnEnd(depth)
	}
}

// pulse is a soft swell-and-fade used as a rhythmic beat under a drone.
func pulse(e *Env, freq, peak float64) {
	now := e.Now()
	osc := synth.NewOscillator(e.ctx, synth.Sine, freq)
	env := synth.NewGain(e.ctx, 0)
	env.Gain.SetValueAtTime(0, now)
	env.Gain.LinearRampToValueAtTime(peak, now+0.1)
	env.Gain.LinearRampToValueAtTime(0, now+0.8)
	osc.Connect(env)
	env.Connect(e.out)
	launchFor(osc, now, now+1)
	osc.DisconnectOnEnd(env)
}

// kick is a sine with a fast downward pitch sweep and a short decay.
func kick(e *Env, peak float64) {
	now := e.Now()
	osc := synth.NewOscillator(e.ctx, synth.Sine, 150)
	osc.Frequency.SetValueAtTime(150, now)
	osc.Frequency.ExponentialRampToValueAtTime(45, now+0.12)
	env := synth.NewGain(e.ctx, 0)
	env.Gain.SetValueAtTime(peak, now)
	env.Gain.ExponentialRampToValueAtTime(0.001, now+0.35)
	osc.Connect(env)
	env.Connect(e.out)
	launchFor(osc, now, now+0.4)
	osc.DisconnectOnEnd(env)
}

// hat is a burst of highpassed noise from buf.
func hat(e *Env, buf *synth.Buffer, peak float64) {
	now := e.Now()
	src := synth.NewBufferSource(e.ctx, buf, false)
	f := synth.NewBiquadFilter(e.ctx, synth.Highpass, 7000, 0.7)
	env := synth.NewGain(e.ctx, 0)
	env.Gain.SetValueAtTime(peak, now)
	env.Gain.ExponentialRampToValueAtTime(0.001, now+0.06)
	src.Connect(f)
	f.Connect(env)
	env.Connect(e.out)
	launchFor(src, now, now+0.08)
	src.DisconnectOnEnd(f, env)
}
