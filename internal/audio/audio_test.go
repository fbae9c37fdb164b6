package audio

import (
	"context"
	"testing"
	"time"
)

// --- Constants ---

func TestConstants(t *testing.T) {
	// 48kHz * 20ms = 960 samples per channel
	if got := SampleRate * int(FrameDuration/time.Millisecond) / 1000; got != FrameSize {
		t.Errorf("FrameSize mismatch: want %d, got %d", got, FrameSize)
	}
	if FrameSamples != FrameSize*Channels {
		t.Errorf("FrameSamples = %d, want %d", FrameSamples, FrameSize*Channels)
	}
	if FrameBytes != FrameSamples*2 {
		t.Errorf("FrameBytes = %d, want %d", FrameBytes, FrameSamples*2)
	}
}

// --- Interleave ---

func TestInterleaveOrderAndScale(t *testing.T) {
	left := []float64{0, 1, -1, 0.5}
	right := []float64{0.25, -0.25, 0, 1}
	got := Interleave(left, right, nil)
	want := []int16{0, 8191, 32767, -8191, -32767, 0, 16383, 32767}
	if len(got) != len(want) {
		t.Fatalf("len = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("sample[%d] = %d, want %d", i, got[i], want[i])
		}
	}
}

func TestInterleaveClips(t *testing.T) {
	got := Interleave([]float64{3, -3}, []float64{1.0001, -1.5}, nil)
	want := []int16{32767, 32767, -32768, -32768}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("sample[%d] = %d, want %d", i, got[i], want[i])
		}
	}
}

func TestInterleaveReusesBuffer(t *testing.T) {
	dst := make([]int16, 0, 16)
	got := Interleave([]float64{0.1, 0.2}, []float64{0.3, 0.4}, dst)
	if &got[0] != &dst[:1][0] {
		t.Error("Interleave allocated despite sufficient capacity")
	}
}

// --- SamplesToBytes / round-trip ---

func TestSamplesToBytes(t *testing.T) {
	samples := []int16{0, 1, -1, 32767, -32768, 256}
	buf := SamplesToBytes(samples)
	if len(buf) != len(samples)*2 {
		t.Fatalf("SamplesToBytes length = %d, want %d", len(buf), len(samples)*2)
	}

	// 256 = 0x0100 -> bytes [0x00, 0x01]
	idx := 5 * 2
	if buf[idx] != 0x00 || buf[idx+1] != 0x01 {
		t.Errorf("Sample 256 encoded as [%02x, %02x], want [00, 01]", buf[idx], buf[idx+1])
	}
}

func TestSamplesBytesRoundTrip(t *testing.T) {
	original := []int16{0, 1, -1, 32767, -32768, 12345, -6789}
	buf := SamplesToBytes(original)

	recovered := make([]int16, len(buf)/2)
	for i := range recovered {
		recovered[i] = int16(uint16(buf[i*2]) | uint16(buf[i*2+1])<<8)
	}

	for i, v := range original {
		if recovered[i] != v {
			t.Errorf("Round-trip sample[%d]: got %d, want %d", i, recovered[i], v)
		}
	}
}

// --- Pipeline ---

// constSource renders a fixed value on both channels and counts frames.
type constSource struct {
	value  float64
	frames int
}

func (s *constSource) Render(left, right []float64) {
	for i := range left {
		left[i] = s.value
		right[i] = -s.value
	}
	s.frames += len(left)
}

func TestPipelineNextFrame(t *testing.T) {
	src := &constSource{value: 0.5}
	p := NewPipeline(src)
	frame := p.NextFrame()
	if len(frame) != FrameSamples {
		t.Fatalf("frame length = %d, want %d", len(frame), FrameSamples)
	}
	if frame[0] != 16383 || frame[1] != -16383 {
		t.Errorf("first frame pair = [%d %d], want [16383 -16383]", frame[0], frame[1])
	}
	if src.frames != FrameSize {
		t.Errorf("source rendered %d frames, want %d", src.frames, FrameSize)
	}
	if n, _ := p.Status(); n != 1 {
		t.Errorf("Status frames = %d, want 1", n)
	}
}

func TestPipelineFramesAreIndependent(t *testing.T) {
	src := &constSource{value: 0.1}
	p := NewPipeline(src)
	a := p.NextFrame()
	src.value = 0.9
	b := p.NextFrame()
	if a[0] == b[0] {
		t.Error("second frame overwrote the first")
	}
}

func TestPipelineRunDeliversAtFrameRate(t *testing.T) {
	p := NewPipeline(&constSource{value: 0.2})
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		p.Run(ctx)
		close(done)
	}()

	start := time.Now()
	for i := 0; i < 5; i++ {
		select {
		case f := <-p.Frames():
			if len(f) != FrameSamples {
				t.Fatalf("frame %d length = %d", i, len(f))
			}
		case <-time.After(time.Second):
			t.Fatal("timeout waiting for frame")
		}
	}
	if elapsed := time.Since(start); elapsed < 4*FrameDuration {
		t.Errorf("5 frames arrived in %v, faster than real time", elapsed)
	}

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
	if _, ok := <-p.Frames(); ok {
		// drain anything buffered, then the channel must be closed
		for range p.Frames() {
		}
	}
}

func TestPipelineStatusBeforeRun(t *testing.T) {
	p := NewPipeline(&constSource{})
	frames, uptime := p.Status()
	if frames != 0 || uptime != 0 {
		t.Errorf("Status before Run = %d, %v; want 0, 0", frames, uptime)
	}
}
