package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/satindergrewal/naad/internal/ambient"
	"github.com/satindergrewal/naad/internal/audio"
	"github.com/satindergrewal/naad/internal/catalog"
	"github.com/satindergrewal/naad/internal/config"
	"github.com/satindergrewal/naad/internal/narration"
	"github.com/satindergrewal/naad/internal/server"
	"github.com/satindergrewal/naad/internal/stream"
	"github.com/satindergrewal/naad/internal/synth"
	"golang.org/x/sync/errgroup"
)

func main() {
	cfg := config.Load()
	if cfg.ConfigFile != "" {
		if err := config.ApplyFile(&cfg, cfg.ConfigFile); err != nil {
			log.Fatalf("Config file: %v", err)
		}
		log.Printf("Loaded config overlay %s", cfg.ConfigFile)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	policy := ambient.DefaultVolumePolicy()
	for mood, v := range cfg.MoodVolume {
		if err := policy.Override(mood, v); err != nil {
			log.Fatalf("mood_volume: %v", err)
		}
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	log.Println("naad starting up...")

	// Ambient engine: one audio context at the stream rate, created on first play
	player := ambient.NewPlayer(func() (*synth.Context, error) {
		return synth.NewContext(audio.SampleRate)
	}, ambient.PlayerConfig{
		DefaultVolume: cfg.DefaultVolume,
		DuckLevel:     cfg.DuckLevel,
		EvolveMin:     cfg.EvolveMin,
		EvolveMax:     cfg.EvolveMax,
		EvolveDepth:   cfg.EvolveDepth,
		EvolveRamp:    cfg.EvolveRamp,
		Policy:        policy,
	})

	cat, err := catalog.Load()
	if err != nil {
		log.Fatalf("Catalog: %v", err)
	}

	// Audio pipeline: real-time frames from the player
	pipeline := audio.NewPipeline(player)

	// Broadcaster: fan-out PCM frames to all listeners
	broadcaster := stream.NewBroadcaster()
	webrtcHandler := stream.NewWebRTCHandler(broadcaster)

	if cfg.Speaker {
		spk, err := stream.NewSpeaker(broadcaster, 100*time.Millisecond)
		if err != nil {
			log.Printf("Local speaker unavailable: %v", err)
		} else {
			defer spk.Close()
		}
	}

	// Narration (optional)
	var narrator server.Narrator
	if tts := narration.NewClient(cfg.TTSURL, cfg.TTSAPIKey, cfg.TTSVoice, cfg.TTSModel); tts.Configured() {
		narrator = tts
		log.Printf("Narration enabled: %s (voice %s)", cfg.TTSModel, cfg.TTSVoice)
	} else {
		log.Println("Narration not configured (set NAAD_TTS_API_KEY to enable)")
	}

	srv := &server.Server{
		Player:      player,
		Catalog:     cat,
		Narrator:    narrator,
		Broadcaster: broadcaster,
		WebRTC:      webrtcHandler,
		Pipeline:    pipeline,
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	httpServer := &http.Server{Addr: addr, Handler: srv.Handler()}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		pipeline.Run(gctx)
		return nil
	})
	g.Go(func() error {
		broadcaster.Run(gctx, pipeline.Frames())
		return nil
	})
	g.Go(func() error {
		log.Printf("naad live on %s", addr)
		if err := httpServer.ListenAndServe(); err != http.ErrServerClosed {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Println("Shutting down...")
		webrtcHandler.Close()
		shutdownCtx, done := context.WithTimeout(context.Background(), 5*time.Second)
		defer done()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			httpServer.Close()
		}
		return nil
	})

	err = g.Wait()
	if cerr := player.Close(); cerr != nil {
		log.Printf("Close audio context: %v", cerr)
	}
	if err != nil {
		log.Fatalf("naad stopped: %v", err)
	}
	log.Println("naad stopped")
}
