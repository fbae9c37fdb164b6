// Command naad-render writes an ambient selection to a WAV file.
package main

import (
	"flag"
	"log"
	"math/rand/v2"
	"os"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/effects"
	"github.com/gopxl/beep/v2/wav"
	"github.com/satindergrewal/naad/internal/ambient"
	"github.com/satindergrewal/naad/internal/audio"
	"github.com/satindergrewal/naad/internal/synth"
)

func main() {
	var (
		moodName   = flag.String("mood", "peaceful", "mood key")
		instrument = flag.String("instrument", "", "instrument key (overrides the mood recipe)")
		volume     = flag.Float64("volume", 0.5, "volume 0-1")
		seconds    = flag.Float64("seconds", 60, "length to render")
		seed       = flag.Uint64("seed", uint64(time.Now().UnixNano()), "random seed")
		rate       = flag.Int("rate", audio.SampleRate, "sample rate")
		trim       = flag.Float64("trim", 0, "output trim in 6 dB steps (-1 halves, 1 doubles)")
		out        = flag.String("out", "naad.wav", "output file")
	)
	flag.Parse()

	mood, err := ambient.ParseMood(*moodName)
	if err != nil {
		log.Fatalf("%v (known: %v)", err, ambient.Moods())
	}
	instr, err := ambient.ParseInstrument(*instrument)
	if err != nil {
		log.Fatalf("%v (known: %v)", err, ambient.Instruments())
	}
	if *seconds <= 0 {
		log.Fatalf("seconds must be positive, got %v", *seconds)
	}

	player := ambient.NewPlayer(func() (*synth.Context, error) {
		return synth.NewContext(*rate)
	}, ambient.PlayerConfig{Rand: rand.New(rand.NewPCG(*seed, *seed))})
	defer player.Close()

	if err := player.Play(ambient.Options{Mood: mood, Instrument: instr, Volume: ambient.Volume(*volume)}); err != nil {
		log.Fatalf("Play: %v", err)
	}

	f, err := os.Create(*out)
	if err != nil {
		log.Fatalf("Create %s: %v", *out, err)
	}
	defer f.Close()

	format := synth.Format(*rate)
	frames := format.SampleRate.N(time.Duration(*seconds * float64(time.Second)))
	start := time.Now()
	var src beep.Streamer = synth.NewStreamer(player)
	if *trim != 0 {
		src = &effects.Volume{Streamer: src, Base: 2, Volume: *trim}
	}
	if err := wav.Encode(f, beep.Take(frames, src), format); err != nil {
		log.Fatalf("Encode: %v", err)
	}
	log.Printf("Wrote %s: %.0fs of mood=%q instrument=%q (seed %d) in %s",
		*out, *seconds, mood, instr, *seed, time.Since(start).Round(time.Millisecond))
}
