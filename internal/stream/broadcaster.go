package stream

import (
	"context"
	"log"
	"sync"
	"sync/atomic"
)

// listenerBuffer is ~3 seconds of 20ms frames.
const listenerBuffer = 150

// Broadcaster fans out PCM frames from the engine to every output: HTTP
// listeners, WebRTC peers and the local speaker.
type Broadcaster struct {
	mu        sync.RWMutex
	listeners map[*Listener]struct{}

	frames atomic.Int64
}

// Listener receives PCM frames from the broadcaster.
type Listener struct {
	Name string
	C    chan []int16 // buffered channel of 20ms PCM frames

	done    chan struct{}
	once    sync.Once
	dropped atomic.Int64
}

// Done is closed when the listener is unsubscribed.
func (l *Listener) Done() <-chan struct{} { return l.done }

// Dropped returns how many frames were skipped because the listener fell
// behind.
func (l *Listener) Dropped() int64 { return l.dropped.Load() }

// ListenerInfo describes one subscriber for the status API.
type ListenerInfo struct {
	Name     string `json:"name"`
	Buffered int    `json:"buffered"`
	Dropped  int64  `json:"dropped"`
}

// NewBroadcaster creates a new broadcaster.
func NewBroadcaster() *Broadcaster {
	return &Broadcaster{
		listeners: make(map[*Listener]struct{}),
	}
}

// Subscribe registers a new listener under name.
func (b *Broadcaster) Subscribe(name string) *Listener {
	l := &Listener{
		Name: name,
		C:    make(chan []int16, listenerBuffer),
		done: make(chan struct{}),
	}
	b.mu.Lock()
	b.listeners[l] = struct{}{}
	b.mu.Unlock()
	return l
}

// Unsubscribe removes a listener and signals it to stop. Calling it twice is
// harmless.
func (b *Broadcaster) Unsubscribe(l *Listener) {
	b.mu.Lock()
	delete(b.listeners, l)
	b.mu.Unlock()
	l.once.Do(func() { close(l.done) })
}

// ListenerCount returns the number of active listeners.
func (b *Broadcaster) ListenerCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.listeners)
}

// Listeners returns a snapshot of the active listeners.
func (b *Broadcaster) Listeners() []ListenerInfo {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]ListenerInfo, 0, len(b.listeners))
	for l := range b.listeners {
		out = append(out, ListenerInfo{Name: l.Name, Buffered: len(l.C), Dropped: l.Dropped()})
	}
	return out
}

// Frames returns how many frames have been fanned out.
func (b *Broadcaster) Frames() int64 { return b.frames.Load() }

// Run reads frames from source and fans out to all listeners.
// Slow listeners get frames dropped rather than blocking the broadcast.
func (b *Broadcaster) Run(ctx context.Context, source <-chan []int16) {
	for {
		select {
		case <-ctx.Done():
			return
		case frame, ok := <-source:
			if !ok {
				return
			}
			b.frames.Add(1)
			b.mu.RLock()
			for l := range b.listeners {
				select {
				case l.C <- frame:
				default:
					if n := l.dropped.Add(1); n%250 == 1 {
						log.Printf("Listener %s falling behind (%d frames dropped)", l.Name, n)
					}
				}
			}
			b.mu.RUnlock()
		}
	}
}
