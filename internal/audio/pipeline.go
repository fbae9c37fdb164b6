package audio

import (
	"context"
	"log"
	"sync"
	"time"
)

// Source renders the next len(left) stereo frames.
type Source interface {
	Render(left, right []float64)
}

// Pipeline pulls 20ms frames from a live Source and outputs interleaved PCM
// at real-time rate.
type Pipeline struct {
	src     Source
	frameCh chan []int16

	left, right []float64

	mu       sync.RWMutex
	rendered int64
	started  time.Time
}

// NewPipeline creates a pipeline over src.
func NewPipeline(src Source) *Pipeline {
	return &Pipeline{
		src:     src,
		frameCh: make(chan []int16, 100),
		left:    make([]float64, FrameSize),
		right:   make([]float64, FrameSize),
	}
}

// Frames returns the channel of outgoing PCM frames (20ms each).
func (p *Pipeline) Frames() <-chan []int16 {
	return p.frameCh
}

// Status returns how many frames have been rendered and for how long the
// pipeline has been running.
func (p *Pipeline) Status() (frames int64, uptime time.Duration) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.started.IsZero() {
		return p.rendered, 0
	}
	return p.rendered, time.Since(p.started)
}

// NextFrame renders one frame. Run calls it once per tick; it is exported
// for offline use.
func (p *Pipeline) NextFrame() []int16 {
	p.src.Render(p.left, p.right)
	frame := Interleave(p.left, p.right, make([]int16, FrameSamples))

	p.mu.Lock()
	p.rendered++
	p.mu.Unlock()
	return frame
}

// Run starts the pipeline. Blocks until ctx is cancelled.
func (p *Pipeline) Run(ctx context.Context) {
	defer close(p.frameCh)

	p.mu.Lock()
	p.started = time.Now()
	p.mu.Unlock()

	ticker := time.NewTicker(FrameDuration)
	defer ticker.Stop()

	log.Printf("Pipeline running: %d Hz, %d channels, %v frames", SampleRate, Channels, FrameDuration)
	for {
		if !p.sendFrame(ctx, ticker, p.NextFrame()) {
			frames, uptime := p.Status()
			log.Printf("Pipeline stopped after %d frames (%s)", frames, uptime.Round(time.Second))
			return
		}
	}
}

// sendFrame waits for the ticker then sends a frame. Returns false on cancel.
func (p *Pipeline) sendFrame(ctx context.Context, ticker *time.Ticker, frame []int16) bool {
	select {
	case <-ctx.Done():
		return false
	case <-ticker.C:
	}

	select {
	case p.frameCh <- frame:
		return true
	case <-ctx.Done():
		return false
	}
}
