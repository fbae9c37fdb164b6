package ambient

import (
	"time"

	"github.com/satindergrewal/naad/internal/synth"
)

// Recipe builds one sound character into out. It returns every continuous
// node it started (LFOs included) and registers its timers through env.
type Recipe func(ctx *synth.Context, out *synth.Gain, env *Env) []synth.Node

var moodRecipes = map[Mood]Recipe{
	Peaceful:   peaceful,
	Stressed:   stressed,
	Sad:        sad,
	Emotional:  sad,
	Angry:      angry,
	Anxious:    anxious,
	Happy:      happy,
	Devotional: temple(devotionalTemple),
	Divine:     temple(divineTemple),
	Sleep:      sleep,
	Focus:      focus,
	Energy:     groove(energyGroove),
	Powerful:   groove(powerfulGroove),
}

var instrumentRecipes = map[Instrument]Recipe{
	Om:           temple(omTemple),
	Bells:        bells,
	Tanpura:      tanpura,
	Flute:        flute,
	Nature:       nature,
	Water:        stressed,
	Wind:         wind,
	Chimes:       chimes,
	SingingBowls: singingBowls,
	MantraRhythm: mantraRhythm,
}

// SelectRecipe returns the recipe for a request. An instrument wins over a
// mood. A nil result means a silent session.
func SelectRecipe(m Mood, i Instrument) Recipe {
	if i != InstrumentNone {
		return instrumentRecipes[i]
	}
	if m != MoodNone {
		return moodRecipes[m]
	}
	return nil
}

// Note sets every randomly struck frequency is drawn from.
var (
	pentatonicNotes = []float64{523.25, 587.33, 659.25, 783.99, 880}
	waterNotes      = []float64{440, 493.88, 523.25, 587.33}
	minorNotes      = []float64{659.25, 587.33, 523.25, 493.88, 440}
	arpeggioNotes   = []float64{523.25, 659.25, 783.99, 1046.5}
	bellNotes       = []float64{523.25, 659.25, 783.99, 880, 1046.5}
	brightBellNotes = []float64{1046.5, 1174.66, 1318.51, 1567.98}
	sleepChimeNotes = []float64{1318.51, 1567.98, 1760}
	fluteNotes      = []float64{261.63, 293.66, 329.63, 349.23, 392, 440}
	chimeNotes      = []float64{880, 1046.5, 1174.66, 1318.51, 1567.98}
	bowlNotes       = []float64{196, 261.63}
	tanpuraStrings  = []float64{130.81, 196, 261.63, 261.63}
)

func peaceful(_ *synth.Context, _ *synth.Gain, e *Env) []synth.Node {
	var nodes []synth.Node
	for i, f := range []float64{130.81, 196, 261.63, 329.63} {
		_, g, n := drone(e, synth.Sine, f, 0.08/float64(i+1))
		nodes = append(nodes, n...)
		nodes = append(nodes, lfo(e, 0.05+float64(i)*0.01, 0.02, g.Gain)...)
	}
	e.Every(9*time.Second, func() {
		if e.Chance(0.35) {
			swell(e, e.Pick(pentatonicNotes), 0.05, 1.5, 5, 0, 0)
		}
	})
	return nodes
}

func stressed(_ *synth.Context, _ *synth.Gain, e *Env) []synth.Node {
	f, _, nodes := noiseBed(e, 2, synth.Lowpass, 300, 1, 0.03)
	nodes = append(nodes, lfo(e, 0.2, 100, f.Frequency)...)
	_, _, pad := drone(e, synth.Sine, 220, 0.06)
	nodes = append(nodes, pad...)
	e.Every(6*time.Second, func() {
		swell(e, e.Pick(waterNotes), 0.04, 1, 4, 0, 0)
	})
	return nodes
}

func sad(_ *synth.Context, _ *synth.Gain, e *Env) []synth.Node {
	var nodes []synth.Node
	for i, f := range []float64{220, 261.63, 329.63} {
		wave := synth.Sine
		if i == 0 {
			wave = synth.Triangle
		}
		osc, _, n := drone(e, wave, f, 0.05/float64(i+1))
		nodes = append(nodes, n...)
		nodes = append(nodes, lfo(e, 0.08, 2, osc.Frequency)...)
	}
	// a falling phrase of three or four notes with breathing room between phrases
	e.Every(8*time.Second, func() {
		if !e.Chance(0.7) {
			return
		}
		count := 3
		if e.Chance(0.5) {
			count = 4
		}
		first := e.rng.IntN(len(minorNotes) - count + 1)
		for k := 0; k < count; k++ {
			freq := minorNotes[first+k]
			e.After(time.Duration(k)*900*time.Millisecond, func() {
				swell(e, freq, 0.045, 0.3, 3.5, 4.5, 3)
			})
		}
	})
	return nodes
}

func angry(_ *synth.Context, _ *synth.Gain, e *Env) []synth.Node {
	var nodes []synth.Node
	for h := 1; h <= 3; h++ {
		_, _, n := drone(e, synth.Triangle, 65.41*float64(h), 0.1/float64(h))
		nodes = append(nodes, n...)
	}
	f, _, wind := noiseBed(e, 3, synth.Bandpass, 200, 1, 0.02)
	nodes = append(nodes, wind...)
	nodes = append(nodes, lfo(e, 0.1, 80, f.Frequency)...)
	return nodes
}

// anxious plays 200 Hz hard left and 210 Hz hard right: a 10 Hz binaural
// beat over a warm lowpassed pad.
func anxious(ctx *synth.Context, out *synth.Gain, e *Env) []synth.Node {
	var nodes []synth.Node
	for _, side := range []struct{ freq, pan float64 }{{200, -1}, {210, 1}} {
		osc := synth.NewOscillator(ctx, synth.Sine, side.freq)
		p := synth.NewStereoPanner(ctx, side.pan)
		g := synth.NewGain(ctx, 0.1)
		osc.Connect(p)
		p.Connect(g)
		g.Connect(out)
		launch(osc, e.Now())
		nodes = append(nodes, osc, p, g)
	}
	osc := synth.NewOscillator(ctx, synth.Sine, 174.61)
	f := synth.NewBiquadFilter(ctx, synth.Lowpass, 400, 0.7)
	g := synth.NewGain(ctx, 0.04)
	osc.Connect(f)
	f.Connect(g)
	g.Connect(out)
	launch(osc, e.Now())
	return append(nodes, osc, f, g)
}

func happy(_ *synth.Context, _ *synth.Gain, e *Env) []synth.Node {
	var nodes []synth.Node
	for i, f := range []float64{261.63, 329.63, 392, 523.25} {
		osc, _, n := drone(e, synth.Sine, f, 0.06/float64(i+1))
		nodes = append(nodes, n...)
		nodes = append(nodes, lfo(e, 4+float64(i), 3, osc.Frequency)...)
	}
	e.Every(4*time.Second, func() {
		for k, f := range arpeggioNotes {
			e.After(time.Duration(k)*150*time.Millisecond, func() {
				bell(e, f, 0.05, 3)
			})
		}
	})
	return nodes
}

type templeTuning struct {
	fundamental float64
	harmonics   int
	shimmer     []float64 // extra high pads
	bells       []float64 // nil for no bells
	bellEvery   time.Duration
}

var (
	devotionalTemple = templeTuning{fundamental: 136.1, harmonics: 4, bells: bellNotes, bellEvery: 7 * time.Second}
	divineTemple     = templeTuning{fundamental: 136.1, harmonics: 3, shimmer: []float64{396, 528}, bells: brightBellNotes, bellEvery: 6 * time.Second}
	omTemple         = templeTuning{fundamental: 136.1, harmonics: 4}
)

// temple is the Om drone: a 136.1 Hz fundamental with harmonics under slow
// vibrato, optionally with randomly timed bells.
func temple(t templeTuning) Recipe {
	return func(_ *synth.Context, _ *synth.Gain, e *Env) []synth.Node {
		var nodes []synth.Node
		for h := 1; h <= t.harmonics; h++ {
			wave := synth.Sine
			if h == 1 {
				wave = synth.Triangle
			}
			osc, _, n := drone(e, wave, t.fundamental*float64(h), 0.12/float64(h))
			nodes = append(nodes, n...)
			if h == 1 {
				nodes = append(nodes, lfo(e, 0.1, 2, osc.Frequency)...)
			}
		}
		for i, f := range t.shimmer {
			_, g, n := drone(e, synth.Sine, f, 0.02)
			nodes = append(nodes, n...)
			nodes = append(nodes, lfo(e, 0.03+float64(i)*0.01, 0.01, g.Gain)...)
		}
		if t.bells != nil {
			e.Every(t.bellEvery, func() {
				if e.Chance(0.5) {
					bell(e, e.Pick(t.bells), 0.12, 4)
				}
			})
		}
		return nodes
	}
}

func sleep(_ *synth.Context, _ *synth.Gain, e *Env) []synth.Node {
	_, g, nodes := drone(e, synth.Sine, 55, 0.12)
	nodes = append(nodes, lfo(e, 0.05, 0.03, g.Gain)...)
	_, _, n := drone(e, synth.Sine, 82.41, 0.05)
	nodes = append(nodes, n...)
	e.Every(20*time.Second, func() {
		if e.Chance(0.3) {
			bell(e, e.Pick(sleepChimeNotes), 0.03, 6)
		}
	})
	return nodes
}

func focus(_ *synth.Context, _ *synth.Gain, e *Env) []synth.Node {
	_, _, nodes := drone(e, synth.Sine, 220, 0.05)
	_, _, n := drone(e, synth.Sine, 110, 0.03)
	nodes = append(nodes, n...)
	e.Every(8*time.Second, func() {
		bowl(e, 261.63, 0.08, 6)
	})
	return nodes
}

type grooveTuning struct {
	chord   []float64
	cutoff  float64
	beat    time.Duration
	hatOdds float64
}

var (
	energyGroove   = grooveTuning{chord: []float64{110, 138.59, 164.81, 220}, cutoff: 1000, beat: 750 * time.Millisecond, hatOdds: 0.4}
	powerfulGroove = grooveTuning{chord: []float64{82.41, 103.83, 123.47, 164.81}, cutoff: 800, beat: time.Second, hatOdds: 0.25}
)

// groove is a lowpassed major chord over a steady kick with occasional
// off-beat hats.
func groove(t grooveTuning) Recipe {
	return func(ctx *synth.Context, out *synth.Gain, e *Env) []synth.Node {
		var nodes []synth.Node
		for i, f := range t.chord {
			wave := synth.Sawtooth
			if i%2 == 1 {
				wave = synth.Sine
			}
			osc := synth.NewOscillator(ctx, wave, f)
			lp := synth.NewBiquadFilter(ctx, synth.Lowpass, t.cutoff, 0.7)
			g := synth.NewGain(ctx, 0.04/float64(i+1))
			osc.Connect(lp)
			lp.Connect(g)
			g.Connect(out)
			launch(osc, e.Now())
			nodes = append(nodes, osc, lp, g)
		}
		hatNoise := e.Noise(0.1)
		e.Every(t.beat, func() {
			kick(e, 0.3)
			if e.Chance(t.hatOdds) {
				e.After(t.beat/2, func() { hat(e, hatNoise, 0.05) })
			}
		})
		return nodes
	}
}

func bells(_ *synth.Context, _ *synth.Gain, e *Env) []synth.Node {
	_, _, nodes := drone(e, synth.Sine, 220, 0.05)
	bell(e, e.Pick(bellNotes), 0.15, 4)
	e.Every(3*time.Second, func() {
		if e.Chance(0.5) {
			bell(e, e.Pick(bellNotes), 0.15, 4)
		}
	})
	return nodes
}

// tanpura drones Sa-Pa-Sa-Sa with a slightly sharp buzz partial per string
// and plucks the strings in turn.
func tanpura(_ *synth.Context, _ *synth.Gain, e *Env) []synth.Node {
	var nodes []synth.Node
	for i, f := range tanpuraStrings {
		_, g, n := drone(e, synth.Triangle, f, 0.06)
		nodes = append(nodes, n...)
		_, _, buzz := drone(e, synth.Sine, f*2.01, 0.015)
		nodes = append(nodes, buzz...)
		nodes = append(nodes, lfo(e, 0.3+float64(i)*0.1, 0.03, g.Gain)...)
	}
	next := 0
	e.Every(1200*time.Millisecond, func() {
		strike(e, synth.Triangle, tanpuraStrings[next], 0.05, 0.005, 3)
		next = (next + 1) % len(tanpuraStrings)
	})
	return nodes
}

func flute(_ *synth.Context, _ *synth.Gain, e *Env) []synth.Node {
	_, _, nodes := drone(e, synth.Sine, 130.81, 0.06)
	note := func() {
		swell(e, e.Pick(fluteNotes), 0.12, 0.2, e.Between(3, 4), 5, 4)
	}
	e.After(500*time.Millisecond, note)
	e.Every(3500*time.Millisecond, note)
	return nodes
}

func nature(_ *synth.Context, _ *synth.Gain, e *Env) []synth.Node {
	f, _, nodes := noiseBed(e, 3, synth.Lowpass, 400, 1, 0.04)
	nodes = append(nodes, lfo(e, 0.1, 150, f.Frequency)...)
	_, _, water := noiseBed(e, 2, synth.Bandpass, 800, 2, 0.02)
	return append(nodes, water...)
}

func wind(_ *synth.Context, _ *synth.Gain, e *Env) []synth.Node {
	f, g, nodes := noiseBed(e, 3, synth.Lowpass, 400, 1, 0.05)
	nodes = append(nodes, lfo(e, 0.1, 150, f.Frequency)...)
	return append(nodes, lfo(e, 0.05, 0.02, g.Gain)...)
}

func chimes(_ *synth.Context, _ *synth.Gain, e *Env) []synth.Node {
	_, _, nodes := drone(e, synth.Sine, 349.23, 0.03)
	e.Every(2500*time.Millisecond, func() {
		if !e.Chance(0.6) {
			return
		}
		count := 2 + e.rng.IntN(3)
		for k := 0; k < count; k++ {
			freq := e.Pick(chimeNotes)
			e.After(time.Duration(k)*100*time.Millisecond, func() {
				bell(e, freq, 0.08, 3)
			})
		}
	})
	return nodes
}

func singingBowls(_ *synth.Context, _ *synth.Gain, e *Env) []synth.Node {
	_, _, nodes := drone(e, synth.Sine, 130.81, 0.03)
	next := 0
	strikeNext := func() {
		bowl(e, bowlNotes[next], 0.1, 7)
		next = (next + 1) % len(bowlNotes)
	}
	strikeNext()
	e.Every(9*time.Second, strikeNext)
	return nodes
}

func mantraRhythm(_ *synth.Context, _ *synth.Gain, e *Env) []synth.Node {
	_, _, nodes := drone(e, synth.Sine, 136.1, 0.1)
	e.Every(2*time.Second, func() {
		pulse(e, 272.2, 0.08)
	})
	return nodes
}
