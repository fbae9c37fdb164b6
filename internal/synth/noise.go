package synth

import (
	"math/rand/v2"
	"time"
)

// Buffer holds mono sample data at a fixed rate.
type Buffer struct {
	sampleRate int
	data       []float64
}

// NewBuffer wraps samples recorded at sampleRate.
func NewBuffer(sampleRate int, samples []float64) *Buffer {
	return &Buffer{sampleRate: sampleRate, data: samples}
}

// NewNoiseBuffer fills sampleRate*seconds frames with uniform white noise in
// [-1, 1]. A nil rng uses the global source. Played with looping enabled the
// buffer gives continuous noise with no gap at the seam.
func NewNoiseBuffer(sampleRate int, seconds float64, rng *rand.Rand) *Buffer {
	n := int(float64(sampleRate) * seconds)
	if n < 0 {
		n = 0
	}
	data := make([]float64, n)
	for i := range data {
		if rng != nil {
			data[i] = rng.Float64()*2 - 1
		} else {
			data[i] = rand.Float64()*2 - 1
		}
	}
	return &Buffer{sampleRate: sampleRate, data: data}
}

// Len returns the number of frames.
func (b *Buffer) Len() int { return len(b.data) }

// SampleRate returns the rate the buffer was generated at.
func (b *Buffer) SampleRate() int { return b.sampleRate }

// Duration returns the playing time of one pass through the buffer.
func (b *Buffer) Duration() time.Duration {
	if b.sampleRate == 0 {
		return 0
	}
	return time.Duration(len(b.data)) * time.Second / time.Duration(b.sampleRate)
}

// At returns frame i.
func (b *Buffer) At(i int) float64 { return b.data[i] }
