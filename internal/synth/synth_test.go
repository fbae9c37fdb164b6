package synth

import (
	"errors"
	"math"
	"math/rand/v2"
	"testing"
	"time"
)

const testRate = 48000

func newRunning(t *testing.T) *Context {
	t.Helper()
	c, err := NewContext(testRate)
	if err != nil {
		t.Fatalf("NewContext: %v", err)
	}
	c.Resume()
	return c
}

func render(c *Context, seconds float64) (left, right []float64) {
	n := int(seconds * float64(c.SampleRate()))
	left = make([]float64, n)
	right = make([]float64, n)
	c.Render(left, right)
	return left, right
}

func peak(samples []float64) float64 {
	m := 0.0
	for _, v := range samples {
		m = max(m, math.Abs(v))
	}
	return m
}

// --- Context ---

func TestNewContextRejectsBadRate(t *testing.T) {
	for _, rate := range []int{0, -1, 1000, 500000} {
		if _, err := NewContext(rate); !errors.Is(err, ErrInvalidSampleRate) {
			t.Errorf("NewContext(%d) err = %v, want ErrInvalidSampleRate", rate, err)
		}
	}
}

func TestSuspendedContextIsSilentAndFrozen(t *testing.T) {
	c, err := NewContext(testRate)
	if err != nil {
		t.Fatal(err)
	}
	if c.State() != StateSuspended {
		t.Fatalf("State = %v, want suspended", c.State())
	}
	o := NewOscillator(c, Sine, 440)
	o.Connect(c.Destination())
	o.Start(0)

	l, _ := render(c, 0.1)
	if peak(l) != 0 {
		t.Errorf("suspended output peak = %v, want 0", peak(l))
	}
	if c.Frames() != 0 {
		t.Errorf("Frames = %d, want 0 while suspended", c.Frames())
	}

	c.Resume()
	l, _ = render(c, 0.1)
	if peak(l) < 0.9 {
		t.Errorf("running output peak = %v, want ~1", peak(l))
	}
	if got := c.CurrentTime(); math.Abs(got-0.1) > 1e-9 {
		t.Errorf("CurrentTime = %v, want 0.1", got)
	}
}

func TestCloseTwice(t *testing.T) {
	c := newRunning(t)
	if err := c.Close(); err != nil {
		t.Fatalf("first Close: %v", err)
	}
	if err := c.Close(); !errors.Is(err, ErrClosed) {
		t.Errorf("second Close err = %v, want ErrClosed", err)
	}
	c.Resume()
	if c.State() != StateClosed {
		t.Errorf("Resume reopened a closed context: %v", c.State())
	}
}

// --- Noise buffer ---

func TestNoiseBufferLengthAndRange(t *testing.T) {
	tests := []struct {
		rate    int
		seconds float64
		want    int
	}{
		{48000, 2, 96000},
		{44100, 3, 132300},
		{48000, 0.5, 24000},
		{48000, 0, 0},
	}
	rng := rand.New(rand.NewPCG(1, 2))
	for _, tt := range tests {
		b := NewNoiseBuffer(tt.rate, tt.seconds, rng)
		if b.Len() != tt.want {
			t.Errorf("NewNoiseBuffer(%d, %v).Len() = %d, want %d", tt.rate, tt.seconds, b.Len(), tt.want)
		}
		for i := 0; i < b.Len(); i++ {
			if v := b.At(i); v < -1 || v > 1 {
				t.Fatalf("sample %d = %v, outside [-1, 1]", i, v)
			}
		}
	}
}

func TestNoiseBufferIsNotConstant(t *testing.T) {
	b := NewNoiseBuffer(testRate, 1, rand.New(rand.NewPCG(7, 7)))
	var sum, sumSq float64
	for i := 0; i < b.Len(); i++ {
		sum += b.At(i)
		sumSq += b.At(i) * b.At(i)
	}
	mean := sum / float64(b.Len())
	variance := sumSq/float64(b.Len()) - mean*mean
	// uniform on [-1,1] has mean 0 and variance 1/3
	if math.Abs(mean) > 0.02 {
		t.Errorf("mean = %v, want ~0", mean)
	}
	if math.Abs(variance-1.0/3) > 0.02 {
		t.Errorf("variance = %v, want ~0.333", variance)
	}
}

func TestLoopedBufferHasNoGap(t *testing.T) {
	c := newRunning(t)
	buf := NewBuffer(testRate, []float64{0.5, -0.5, 0.25})
	src := NewBufferSource(c, buf, true)
	src.Connect(c.Destination())
	src.Start(0)

	l, _ := render(c, 0.01)
	want := []float64{0.5, -0.5, 0.25}
	for i, v := range l {
		if v != want[i%3] {
			t.Fatalf("sample %d = %v, want %v", i, v, want[i%3])
		}
	}
}

// --- Oscillator ---

func TestOscillatorFrequency(t *testing.T) {
	for _, wave := range []Waveform{Sine, Triangle, Sawtooth, Square} {
		c := newRunning(t)
		o := NewOscillator(c, wave, 100)
		o.Connect(c.Destination())
		o.Start(0)
		l, _ := render(c, 1)

		crossings := 0
		for i := 1; i < len(l); i++ {
			if l[i-1] < 0 && l[i] >= 0 {
				crossings++
			}
		}
		if crossings < 99 || crossings > 101 {
			t.Errorf("%v: %d upward zero crossings in 1s, want ~100", wave, crossings)
		}
		if p := peak(l); p > 1.0001 {
			t.Errorf("%v: peak = %v, want <= 1", wave, p)
		}
	}
}

func TestOscillatorStartStopWindow(t *testing.T) {
	c := newRunning(t)
	o := NewOscillator(c, Square, 50)
	o.Connect(c.Destination())
	o.Start(0.1)
	o.Stop(0.2)
	l, _ := render(c, 0.3)

	if p := peak(l[:4800]); p != 0 {
		t.Errorf("before start peak = %v, want 0", p)
	}
	if p := peak(l[4800:9600]); p != 1 {
		t.Errorf("while playing peak = %v, want 1", p)
	}
	if p := peak(l[9600:]); p != 0 {
		t.Errorf("after stop peak = %v, want 0", p)
	}
}

func TestStopErrors(t *testing.T) {
	c := newRunning(t)
	o := NewOscillator(c, Sine, 220)
	if err := o.Stop(0); !errors.Is(err, ErrNotStarted) {
		t.Errorf("Stop before Start err = %v, want ErrNotStarted", err)
	}
	if err := o.Start(0); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := o.Start(0); !errors.Is(err, ErrStarted) {
		t.Errorf("second Start err = %v, want ErrStarted", err)
	}
	if err := o.Stop(0); err != nil {
		t.Errorf("Stop: %v", err)
	}
	if err := o.Stop(0); !errors.Is(err, ErrStopped) {
		t.Errorf("second Stop err = %v, want ErrStopped", err)
	}
	o.Disconnect()
	o.Disconnect()
}

func TestEndedSourceReleasesEnvelope(t *testing.T) {
	c := newRunning(t)
	master := NewGain(c, 1)
	master.Connect(c.Destination())

	o := NewOscillator(c, Sine, 880)
	env := NewGain(c, 0.5)
	o.Connect(env)
	env.Connect(master)
	o.Start(0)
	o.Stop(0.05)
	o.DisconnectOnEnd(env)

	if got := c.ConnectedNodes(); got != 3 {
		t.Fatalf("ConnectedNodes before end = %d, want 3", got)
	}
	render(c, 0.1)
	if !o.Ended() {
		t.Error("oscillator not ended after its stop time")
	}
	if got := c.ConnectedNodes(); got != 1 {
		t.Errorf("ConnectedNodes after end = %d, want 1 (master only)", got)
	}
	if got := c.ActiveSources(); got != 0 {
		t.Errorf("ActiveSources after end = %d, want 0", got)
	}
}

func TestSourcesReportsModulators(t *testing.T) {
	c := newRunning(t)
	o := NewOscillator(c, Triangle, 136.1)
	lfo := NewOscillator(c, Sine, 0.1)
	depth := NewGain(c, 2)
	lfo.Connect(depth)
	depth.ConnectParam(o.Frequency)
	o.Connect(c.Destination())
	o.Start(0)
	lfo.Start(0)

	srcs := c.Sources()
	if len(srcs) != 2 {
		t.Fatalf("Sources() = %d entries, want 2", len(srcs))
	}
	found := false
	for _, s := range srcs {
		if s.Kind == "oscillator" && s.Waveform == Triangle && s.Frequency == 136.1 {
			found = true
		}
	}
	if !found {
		t.Errorf("Sources() = %+v, missing the 136.1 Hz triangle", srcs)
	}
}

// --- Params ---

func TestLinearRamp(t *testing.T) {
	c := newRunning(t)
	g := NewGain(c, 0)
	g.Gain.SetValueAtTime(0, 0)
	g.Gain.LinearRampToValueAtTime(1, 1)

	render(c, 0.5)
	if v := g.Gain.Value(); math.Abs(v-0.5) > 1e-3 {
		t.Errorf("Value at 0.5s = %v, want 0.5", v)
	}
	render(c, 0.6)
	if v := g.Gain.Value(); v != 1 {
		t.Errorf("Value after ramp = %v, want 1", v)
	}
}

func TestExponentialRamp(t *testing.T) {
	c := newRunning(t)
	g := NewGain(c, 1)
	g.Gain.SetValueAtTime(1, 0)
	g.Gain.ExponentialRampToValueAtTime(0.01, 2)

	render(c, 1)
	if v := g.Gain.Value(); math.Abs(v-0.1) > 1e-3 {
		t.Errorf("Value halfway = %v, want 0.1 (geometric midpoint)", v)
	}
}

func TestExponentialRampToZeroIsNudged(t *testing.T) {
	c := newRunning(t)
	g := NewGain(c, 0.5)
	g.Gain.ExponentialRampToValueAtTime(0, 1)
	render(c, 1.1)
	if v := g.Gain.Value(); v <= 0 || v > 1e-5 {
		t.Errorf("Value after ramp to 0 = %v, want tiny positive", v)
	}
}

func TestCancelAndHold(t *testing.T) {
	c := newRunning(t)
	g := NewGain(c, 0)
	g.Gain.LinearRampToValueAtTime(1, 1)
	render(c, 0.25)
	g.Gain.CancelAndHoldAtTime(c.CurrentTime())
	render(c, 0.5)
	if v := g.Gain.Value(); math.Abs(v-0.25) > 1e-3 {
		t.Errorf("held Value = %v, want 0.25", v)
	}
}

func TestSmoothRampFollowsSmoothstep(t *testing.T) {
	c := newRunning(t)
	g := NewGain(c, 0)
	g.Gain.SmoothRampToValueAtTime(1, 1)
	render(c, 0.25)
	want := Smoothstep(0.25)
	if v := g.Gain.Value(); math.Abs(v-want) > 1e-3 {
		t.Errorf("Value at 0.25s = %v, want %v", v, want)
	}
}

func TestGainScalesOutput(t *testing.T) {
	c := newRunning(t)
	o := NewOscillator(c, Square, 100)
	g := NewGain(c, 0.25)
	o.Connect(g)
	g.Connect(c.Destination())
	o.Start(0)
	l, r := render(c, 0.05)
	if p := peak(l); math.Abs(p-0.25) > 1e-9 {
		t.Errorf("left peak = %v, want 0.25", p)
	}
	if p := peak(r); math.Abs(p-0.25) > 1e-9 {
		t.Errorf("right peak = %v, want 0.25", p)
	}
}

func TestModulationAddsToParam(t *testing.T) {
	c := newRunning(t)
	carrier := NewGain(c, 0.5)
	dc := NewBufferSource(c, NewBuffer(testRate, []float64{1}), true)
	depth := NewGain(c, 0.25)
	dc.Connect(depth)
	depth.ConnectParam(carrier.Gain)
	dc.Start(0)

	o := NewOscillator(c, Square, 100)
	o.Connect(carrier)
	carrier.Connect(c.Destination())
	o.Start(0)

	l, _ := render(c, 0.05)
	if p := peak(l); math.Abs(p-0.75) > 1e-9 {
		t.Errorf("peak = %v, want 0.75 (0.5 base + 0.25 modulation)", p)
	}
}

// --- Filter and panner ---

func TestLowpassAttenuatesHighFrequency(t *testing.T) {
	level := func(freq float64) float64 {
		c := newRunning(t)
		o := NewOscillator(c, Sine, freq)
		f := NewBiquadFilter(c, Lowpass, 300, 1)
		o.Connect(f)
		f.Connect(c.Destination())
		o.Start(0)
		l, _ := render(c, 0.5)
		return peak(l[len(l)/2:])
	}
	low, high := level(100), level(5000)
	if low < 0.8 {
		t.Errorf("100 Hz through 300 Hz lowpass = %v, want ~1", low)
	}
	if high > 0.02 {
		t.Errorf("5 kHz through 300 Hz lowpass = %v, want < 0.02", high)
	}
}

func TestBandpassPeaksAtCenter(t *testing.T) {
	level := func(freq float64) float64 {
		c := newRunning(t)
		o := NewOscillator(c, Sine, freq)
		f := NewBiquadFilter(c, Bandpass, 800, 2)
		o.Connect(f)
		f.Connect(c.Destination())
		o.Start(0)
		l, _ := render(c, 0.5)
		return peak(l[len(l)/2:])
	}
	if center, off := level(800), level(100); center <= off*4 {
		t.Errorf("bandpass center = %v, 100 Hz = %v, want center to dominate", center, off)
	}
}

func TestPannerHardLeftRight(t *testing.T) {
	tests := []struct {
		pan         float64
		left, right float64
	}{
		{-1, 1, 0},
		{1, 0, 1},
		{0, math.Sqrt2 / 2, math.Sqrt2 / 2},
	}
	for _, tt := range tests {
		c := newRunning(t)
		o := NewOscillator(c, Square, 100)
		p := NewStereoPanner(c, tt.pan)
		o.Connect(p)
		p.Connect(c.Destination())
		o.Start(0)
		l, r := render(c, 0.02)
		if got := peak(l); math.Abs(got-tt.left) > 1e-9 {
			t.Errorf("pan %v: left peak = %v, want %v", tt.pan, got, tt.left)
		}
		if got := peak(r); math.Abs(got-tt.right) > 1e-9 {
			t.Errorf("pan %v: right peak = %v, want %v", tt.pan, got, tt.right)
		}
	}
}

// --- Tasks ---

func TestEveryFiresOnAudioClock(t *testing.T) {
	c := newRunning(t)
	var fired []float64
	c.Every(250*time.Millisecond, func() {
		fired = append(fired, c.CurrentTime())
	})
	render(c, 1.1)
	want := []float64{0.25, 0.5, 0.75, 1.0}
	if len(fired) != len(want) {
		t.Fatalf("fired %d times (%v), want %d", len(fired), fired, len(want))
	}
	for i := range want {
		if math.Abs(fired[i]-want[i]) > 1e-9 {
			t.Errorf("fire %d at %v, want %v", i, fired[i], want[i])
		}
	}
}

func TestAfterFiresOnce(t *testing.T) {
	c := newRunning(t)
	count := 0
	task := c.After(100*time.Millisecond, func() { count++ })
	if c.PendingTasks() != 1 {
		t.Errorf("PendingTasks = %d, want 1", c.PendingTasks())
	}
	render(c, 0.5)
	if count != 1 {
		t.Errorf("After fired %d times, want 1", count)
	}
	if task.Active() {
		t.Error("one-shot task still active after firing")
	}
	if c.PendingTasks() != 0 {
		t.Errorf("PendingTasks = %d, want 0", c.PendingTasks())
	}
}

func TestCancelStopsTask(t *testing.T) {
	c := newRunning(t)
	count := 0
	task := c.Every(100*time.Millisecond, func() { count++ })
	render(c, 0.35)
	task.Cancel()
	task.Cancel()
	render(c, 1)
	if count != 3 {
		t.Errorf("fired %d times, want 3 (cancelled at 0.35s)", count)
	}
	if c.PendingTasks() != 0 {
		t.Errorf("PendingTasks after Cancel = %d, want 0", c.PendingTasks())
	}
}

func TestEveryFuncDrawsEachInterval(t *testing.T) {
	c := newRunning(t)
	waits := []time.Duration{100 * time.Millisecond, 300 * time.Millisecond, 200 * time.Millisecond}
	i := 0
	var fired []float64
	c.EveryFunc(func() time.Duration {
		d := waits[i%len(waits)]
		i++
		return d
	}, func() { fired = append(fired, c.CurrentTime()) })
	render(c, 0.65)
	want := []float64{0.1, 0.4, 0.6}
	if len(fired) != len(want) {
		t.Fatalf("fired at %v, want %v", fired, want)
	}
	for k := range want {
		if math.Abs(fired[k]-want[k]) > 1e-9 {
			t.Errorf("fire %d at %v, want %v", k, fired[k], want[k])
		}
	}
}

func TestTaskCallbackCanBuildGraph(t *testing.T) {
	c := newRunning(t)
	c.After(50*time.Millisecond, func() {
		o := NewOscillator(c, Sine, 440)
		o.Connect(c.Destination())
		o.Start(c.CurrentTime())
		o.Stop(c.CurrentTime() + 0.1)
		c.After(0, func() {})
	})
	l, _ := render(c, 0.2)
	if p := peak(l[:2400]); p != 0 {
		t.Errorf("output before callback = %v, want silence", p)
	}
	if p := peak(l[2400:7200]); p < 0.9 {
		t.Errorf("output after callback = %v, want a tone", p)
	}
	if c.ActiveSources() != 0 {
		t.Errorf("ActiveSources = %d, want 0 after the hit ended", c.ActiveSources())
	}
}

func TestCloseCancelsTasks(t *testing.T) {
	c := newRunning(t)
	count := 0
	task := c.Every(10*time.Millisecond, func() { count++ })
	c.Close()
	render(c, 0.1)
	if count != 0 || task.Active() {
		t.Errorf("count = %d active = %v after Close, want 0 false", count, task.Active())
	}
}

// --- Smoothstep ---

func TestSmoothstepBoundaries(t *testing.T) {
	tests := []struct {
		input float64
		want  float64
	}{
		{-0.5, 0},
		{0, 0},
		{0.5, 0.5},
		{1, 1},
		{1.5, 1},
	}
	for _, tt := range tests {
		if got := Smoothstep(tt.input); got != tt.want {
			t.Errorf("Smoothstep(%v) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestSmoothstepMonotonic(t *testing.T) {
	prev := 0.0
	for i := 1; i <= 100; i++ {
		x := float64(i) / 100.0
		val := Smoothstep(x)
		if val < prev {
			t.Errorf("Smoothstep not monotonic: f(%v)=%v < %v", x, val, prev)
		}
		prev = val
	}
}

// --- Streamer ---

func TestStreamerFillsFrames(t *testing.T) {
	c := newRunning(t)
	o := NewOscillator(c, Square, 100)
	p := NewStereoPanner(c, -1)
	o.Connect(p)
	p.Connect(c.Destination())
	o.Start(0)

	s := NewStreamer(c)
	samples := make([][2]float64, 512)
	n, ok := s.Stream(samples)
	if n != 512 || !ok {
		t.Fatalf("Stream = (%d, %v), want (512, true)", n, ok)
	}
	if samples[10][0] != 1 || samples[10][1] != 0 {
		t.Errorf("frame 10 = %v, want [1 0]", samples[10])
	}
	if c.Frames() != 512 {
		t.Errorf("Frames = %d, want 512", c.Frames())
	}
	if f := Format(testRate); int(f.SampleRate) != testRate || f.NumChannels != 2 {
		t.Errorf("Format = %+v", f)
	}
}
