// Package server exposes the ambient player, the catalogue and narration
// over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/satindergrewal/naad/internal/ambient"
	"github.com/satindergrewal/naad/internal/audio"
	"github.com/satindergrewal/naad/internal/catalog"
	"github.com/satindergrewal/naad/internal/narration"
	"github.com/satindergrewal/naad/internal/stream"
	"github.com/satindergrewal/naad/internal/web"
)

// Narrator turns text into MP3 audio.
type Narrator interface {
	Synthesize(ctx context.Context, text, voiceID string) ([]byte, error)
}

// Server wires the HTTP routes. Pipeline, WebRTC and Narrator may be nil.
type Server struct {
	Player      *ambient.Player
	Catalog     *catalog.Catalog
	Narrator    Narrator
	Broadcaster *stream.Broadcaster
	WebRTC      *stream.WebRTCHandler
	Pipeline    *audio.Pipeline

	started time.Time
}

// Handler returns the route table.
func (s *Server) Handler() http.Handler {
	s.started = time.Now()
	mux := http.NewServeMux()

	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write(web.IndexHTML)
	})

	mux.Handle("/stream", stream.NewHTTPHandler(s.Broadcaster))
	if s.WebRTC != nil {
		mux.Handle("/offer", s.WebRTC)
	}

	mux.HandleFunc("/api/status", s.handleStatus)
	mux.HandleFunc("/api/play", s.handlePlay)
	mux.HandleFunc("/api/stop", s.handleStop)
	mux.HandleFunc("/api/volume", s.handleVolume)
	mux.HandleFunc("/api/narration", s.handleNarration)
	mux.HandleFunc("/api/narrate", s.handleNarrate)
	mux.HandleFunc("/api/moods", s.handleMoods)
	mux.HandleFunc("/api/catalog", s.handleCatalog)
	return mux
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]any{"error": msg})
}

func requirePost(w http.ResponseWriter, r *http.Request) bool {
	if r.Method != http.MethodPost {
		http.Error(w, "POST required", http.StatusMethodNotAllowed)
		return false
	}
	return true
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	var mood any
	if m, ok := s.Player.CurrentMood(); ok {
		mood = m
	}
	resp := map[string]any{
		"player":            s.Player.Status(),
		"current_mood":      mood,
		"narration_enabled": s.Narrator != nil,
		"uptime":            time.Since(s.started).Seconds(),
	}
	if s.Broadcaster != nil {
		resp["listeners"] = s.Broadcaster.Listeners()
		resp["http_listeners"] = s.Broadcaster.ListenerCount()
	}
	if s.WebRTC != nil {
		resp["webrtc_listeners"] = s.WebRTC.PeerCount()
	}
	if s.Pipeline != nil {
		frames, uptime := s.Pipeline.Status()
		resp["frames"] = frames
		resp["stream_uptime"] = uptime.Seconds()
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handlePlay(w http.ResponseWriter, r *http.Request) {
	if !requirePost(w, r) {
		return
	}
	var req struct {
		Mood       string   `json:"mood"`
		Instrument string   `json:"instrument"`
		Volume     *float64 `json:"volume"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}
	if req.Volume != nil && (*req.Volume < 0 || *req.Volume > 1) {
		http.Error(w, "volume must be 0-1", http.StatusBadRequest)
		return
	}
	opts, err := ambient.ParseOptions(req.Mood, req.Instrument, req.Volume)
	if err != nil {
		log.Printf("Play: %v, keeping recognised keys", err)
	}
	if err := s.Player.Play(opts); err != nil {
		log.Printf("Play failed: %v", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "status": s.Player.Status()})
}

func (s *Server) handleStop(w http.ResponseWriter, r *http.Request) {
	if !requirePost(w, r) {
		return
	}
	s.Player.Stop()
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (s *Server) handleVolume(w http.ResponseWriter, r *http.Request) {
	if !requirePost(w, r) {
		return
	}
	var req struct {
		Level *float64 `json:"level"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Level == nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}
	if *req.Level < 0 || *req.Level > 1 {
		http.Error(w, "level must be 0-1", http.StatusBadRequest)
		return
	}
	s.Player.SetVolume(*req.Level)
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "playing": s.Player.IsPlaying(), "level": *req.Level})
}

func (s *Server) handleNarration(w http.ResponseWriter, r *http.Request) {
	if !requirePost(w, r) {
		return
	}
	var req struct {
		Active bool `json:"active"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}
	s.Player.SetNarrating(req.Active)
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "narrating": req.Active})
}

func (s *Server) handleNarrate(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodOptions {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "POST")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		w.WriteHeader(http.StatusOK)
		return
	}
	if !requirePost(w, r) {
		return
	}
	if s.Narrator == nil {
		writeError(w, http.StatusServiceUnavailable, narration.ErrNotConfigured.Error())
		return
	}
	var req struct {
		Text    string `json:"text"`
		VoiceID string `json:"voice_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	mp3, err := s.Narrator.Synthesize(r.Context(), req.Text, req.VoiceID)
	if err != nil {
		log.Printf("Narration failed: %v", err)
		var apiErr *narration.APIError
		switch {
		case errors.Is(err, narration.ErrEmptyText):
			writeError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, narration.ErrNotConfigured):
			writeError(w, http.StatusServiceUnavailable, err.Error())
		case errors.As(err, &apiErr):
			writeError(w, http.StatusBadGateway, apiErr.Error())
		default:
			writeError(w, http.StatusBadGateway, err.Error())
		}
		return
	}
	w.Header().Set("Content-Type", "audio/mpeg")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Write(mp3)
}

func (s *Server) handleMoods(w http.ResponseWriter, r *http.Request) {
	policy := s.Player.Policy()
	type moodInfo struct {
		Mood       ambient.Mood `json:"mood"`
		Multiplier float64      `json:"multiplier"`
	}
	moods := make([]moodInfo, 0, len(ambient.Moods()))
	for _, m := range ambient.Moods() {
		moods = append(moods, moodInfo{Mood: m, Multiplier: policy.Multiplier(m)})
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"moods":       moods,
		"instruments": ambient.Instruments(),
	})
}

func (s *Server) handleCatalog(w http.ResponseWriter, r *http.Request) {
	if s.Catalog == nil {
		writeError(w, http.StatusNotFound, "no catalog loaded")
		return
	}
	writeJSON(w, http.StatusOK, s.Catalog)
}
