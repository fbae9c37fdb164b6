package stream

import (
	"fmt"
	"log"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/speaker"
	"github.com/satindergrewal/naad/internal/audio"
)

// Speaker plays the broadcast on the local audio device.
type Speaker struct {
	broadcaster *Broadcaster
	listener    *Listener
}

// NewSpeaker opens the default output device with the given buffer and
// starts playing the broadcast.
func NewSpeaker(b *Broadcaster, buffer time.Duration) (*Speaker, error) {
	sr := beep.SampleRate(audio.SampleRate)
	if err := speaker.Init(sr, sr.N(buffer)); err != nil {
		return nil, fmt.Errorf("init speaker: %w", err)
	}
	l := b.Subscribe("speaker")
	speaker.Play(&frameStreamer{listener: l})
	log.Printf("Local speaker output enabled (buffer %v)", buffer)
	return &Speaker{broadcaster: b, listener: l}, nil
}

// Close stops playback and releases the device.
func (s *Speaker) Close() {
	s.broadcaster.Unsubscribe(s.listener)
	speaker.Clear()
	speaker.Close()
}

// frameStreamer adapts a Listener to beep.Streamer. It plays silence when no
// frame is ready instead of blocking the device callback.
type frameStreamer struct {
	listener *Listener
	frame    []int16
	pos      int
}

func (s *frameStreamer) Stream(samples [][2]float64) (int, bool) {
	for i := range samples {
		if s.pos >= len(s.frame) {
			select {
			case <-s.listener.Done():
				if i == 0 {
					return 0, false
				}
				return i, true
			case f := <-s.listener.C:
				s.frame, s.pos = f, 0
				if len(f) < 2 {
					samples[i] = [2]float64{}
					continue
				}
			default:
				samples[i] = [2]float64{}
				continue
			}
		}
		samples[i][0] = float64(s.frame[s.pos]) / 32768
		samples[i][1] = float64(s.frame[s.pos+1]) / 32768
		s.pos += 2
	}
	return len(samples), true
}

func (s *frameStreamer) Err() error { return nil }
