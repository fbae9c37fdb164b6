package synth

import (
	"github.com/gopxl/beep/v2"
)

// Renderer writes the next len(left) stereo frames.
type Renderer interface {
	Render(left, right []float64)
}

// Streamer adapts a Renderer to beep's pull model so a graph can feed
// beep.Take, wav.Encode or the speaker.
type Streamer struct {
	src         Renderer
	left, right []float64
}

// NewStreamer wraps src.
func NewStreamer(src Renderer) *Streamer {
	return &Streamer{src: src}
}

// Stream fills samples. It never runs dry.
func (s *Streamer) Stream(samples [][2]float64) (n int, ok bool) {
	n = len(samples)
	if cap(s.left) < n {
		s.left = make([]float64, n)
		s.right = make([]float64, n)
	}
	l, r := s.left[:n], s.right[:n]
	s.src.Render(l, r)
	for i := range samples {
		samples[i][0] = l[i]
		samples[i][1] = r[i]
	}
	return n, true
}

// Err always returns nil.
func (s *Streamer) Err() error { return nil }

// Format describes 16-bit stereo output at sampleRate for encoders.
func Format(sampleRate int) beep.Format {
	return beep.Format{
		SampleRate:  beep.SampleRate(sampleRate),
		NumChannels: 2,
		Precision:   2,
	}
}
