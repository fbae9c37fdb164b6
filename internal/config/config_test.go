package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

var allVars = []string{
	"NAAD_PORT", "NAAD_SPEAKER", "NAAD_DEFAULT_VOLUME", "NAAD_DUCK_LEVEL",
	"NAAD_EVOLVE_MIN", "NAAD_EVOLVE_MAX", "NAAD_EVOLVE_DEPTH", "NAAD_EVOLVE_RAMP",
	"NAAD_TTS_URL", "NAAD_TTS_API_KEY", "NAAD_TTS_VOICE", "NAAD_TTS_MODEL",
	"NAAD_CONFIG_FILE",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range allVars {
		t.Setenv(k, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	cfg := Load()

	if cfg.Port != 8080 {
		t.Errorf("Port = %d, want 8080", cfg.Port)
	}
	if cfg.Speaker {
		t.Error("Speaker = true, want false")
	}
	if cfg.DefaultVolume != 0.5 {
		t.Errorf("DefaultVolume = %v, want 0.5", cfg.DefaultVolume)
	}
	if cfg.DuckLevel != 0.3 {
		t.Errorf("DuckLevel = %v, want 0.3", cfg.DuckLevel)
	}
	if cfg.EvolveMin != 5*time.Minute || cfg.EvolveMax != 7*time.Minute {
		t.Errorf("Evolve window = %v..%v, want 5m..7m", cfg.EvolveMin, cfg.EvolveMax)
	}
	if cfg.EvolveDepth != 0.1 {
		t.Errorf("EvolveDepth = %v, want 0.1", cfg.EvolveDepth)
	}
	if cfg.EvolveRamp != 20*time.Second {
		t.Errorf("EvolveRamp = %v, want 20s", cfg.EvolveRamp)
	}
	if cfg.TTSURL != "https://api.elevenlabs.io" {
		t.Errorf("TTSURL = %q, want default", cfg.TTSURL)
	}
	if cfg.TTSAPIKey != "" {
		t.Errorf("TTSAPIKey = %q, want empty default", cfg.TTSAPIKey)
	}
	if cfg.TTSVoice != "JBFqnCBsd6RMkjVDRZzb" {
		t.Errorf("TTSVoice = %q, want default", cfg.TTSVoice)
	}
	if cfg.TTSModel != "eleven_multilingual_v2" {
		t.Errorf("TTSModel = %q, want default", cfg.TTSModel)
	}
	if cfg.ConfigFile != "" {
		t.Errorf("ConfigFile = %q, want empty", cfg.ConfigFile)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults fail validation: %v", err)
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("NAAD_PORT", "3000")
	t.Setenv("NAAD_SPEAKER", "true")
	t.Setenv("NAAD_DEFAULT_VOLUME", "0.8")
	t.Setenv("NAAD_DUCK_LEVEL", "0.2")
	t.Setenv("NAAD_EVOLVE_MIN", "60")
	t.Setenv("NAAD_EVOLVE_MAX", "90")
	t.Setenv("NAAD_EVOLVE_DEPTH", "0.25")
	t.Setenv("NAAD_EVOLVE_RAMP", "10")
	t.Setenv("NAAD_TTS_URL", "http://localhost:9000")
	t.Setenv("NAAD_TTS_API_KEY", "test-key-123")
	t.Setenv("NAAD_TTS_VOICE", "voice-1")
	t.Setenv("NAAD_TTS_MODEL", "model-1")
	t.Setenv("NAAD_CONFIG_FILE", "/etc/naad.toml")

	cfg := Load()

	if cfg.Port != 3000 {
		t.Errorf("Port = %d, want 3000", cfg.Port)
	}
	if !cfg.Speaker {
		t.Error("Speaker = false, want true")
	}
	if cfg.DefaultVolume != 0.8 {
		t.Errorf("DefaultVolume = %v, want 0.8", cfg.DefaultVolume)
	}
	if cfg.DuckLevel != 0.2 {
		t.Errorf("DuckLevel = %v, want 0.2", cfg.DuckLevel)
	}
	if cfg.EvolveMin != time.Minute || cfg.EvolveMax != 90*time.Second {
		t.Errorf("Evolve window = %v..%v, want 1m..1m30s", cfg.EvolveMin, cfg.EvolveMax)
	}
	if cfg.EvolveDepth != 0.25 {
		t.Errorf("EvolveDepth = %v, want 0.25", cfg.EvolveDepth)
	}
	if cfg.EvolveRamp != 10*time.Second {
		t.Errorf("EvolveRamp = %v, want 10s", cfg.EvolveRamp)
	}
	if cfg.TTSURL != "http://localhost:9000" {
		t.Errorf("TTSURL = %q, want env override", cfg.TTSURL)
	}
	if cfg.TTSAPIKey != "test-key-123" {
		t.Errorf("TTSAPIKey = %q, want env override", cfg.TTSAPIKey)
	}
	if cfg.TTSVoice != "voice-1" || cfg.TTSModel != "model-1" {
		t.Errorf("TTS voice/model = %q/%q, want env overrides", cfg.TTSVoice, cfg.TTSModel)
	}
	if cfg.ConfigFile != "/etc/naad.toml" {
		t.Errorf("ConfigFile = %q, want env override", cfg.ConfigFile)
	}
}

func TestEnvInvalidFallsBack(t *testing.T) {
	clearEnv(t)
	t.Setenv("NAAD_PORT", "not-a-number")
	t.Setenv("NAAD_SPEAKER", "maybe")
	t.Setenv("NAAD_DUCK_LEVEL", "quiet")
	cfg := Load()
	if cfg.Port != 8080 {
		t.Errorf("Invalid int env should fallback to default: got %d, want 8080", cfg.Port)
	}
	if cfg.Speaker {
		t.Error("Invalid bool env should fallback to false")
	}
	if cfg.DuckLevel != 0.3 {
		t.Errorf("Invalid float env should fallback: got %v, want 0.3", cfg.DuckLevel)
	}
}

// --- TOML overlay ---

func writeFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "naad.toml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestApplyFile(t *testing.T) {
	clearEnv(t)
	cfg := Load()
	path := writeFile(t, `
default_volume = 0.7

[evolution]
min = 30
max = 45.5
ramp = 8

[mood_volume]
sleep = 0.1
energy = 0.6
`)
	if err := ApplyFile(&cfg, path); err != nil {
		t.Fatalf("ApplyFile: %v", err)
	}
	if cfg.DefaultVolume != 0.7 {
		t.Errorf("DefaultVolume = %v, want 0.7", cfg.DefaultVolume)
	}
	if cfg.DuckLevel != 0.3 {
		t.Errorf("DuckLevel = %v, want untouched 0.3", cfg.DuckLevel)
	}
	if cfg.EvolveMin != 30*time.Second || cfg.EvolveMax != 45500*time.Millisecond {
		t.Errorf("Evolve window = %v..%v, want 30s..45.5s", cfg.EvolveMin, cfg.EvolveMax)
	}
	if cfg.EvolveDepth != 0.1 {
		t.Errorf("EvolveDepth = %v, want untouched 0.1", cfg.EvolveDepth)
	}
	if cfg.EvolveRamp != 8*time.Second {
		t.Errorf("EvolveRamp = %v, want 8s", cfg.EvolveRamp)
	}
	if len(cfg.MoodVolume) != 2 || cfg.MoodVolume["sleep"] != 0.1 || cfg.MoodVolume["energy"] != 0.6 {
		t.Errorf("MoodVolume = %v, want sleep=0.1 energy=0.6", cfg.MoodVolume)
	}
}

func TestApplyFileErrors(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"unknown key", "volume = 0.5\n", "unknown keys volume"},
		{"bad syntax", "default_volume = \n", "read config"},
		{"wrong type", "duck_level = \"low\"\n", "read config"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Load()
			err := ApplyFile(&cfg, writeFile(t, tt.body))
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("ApplyFile err = %v, want containing %q", err, tt.want)
			}
		})
	}
	cfg := Load()
	if err := ApplyFile(&cfg, filepath.Join(t.TempDir(), "missing.toml")); err == nil {
		t.Error("ApplyFile on missing file should fail")
	}
}

func TestValidate(t *testing.T) {
	clearEnv(t)
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"volume above 1", func(c *Config) { c.DefaultVolume = 1.5 }},
		{"negative duck", func(c *Config) { c.DuckLevel = -0.1 }},
		{"zero default volume", func(c *Config) { c.DefaultVolume = 0 }},
		{"zero duck level", func(c *Config) { c.DuckLevel = 0 }},
		{"zero evolution depth", func(c *Config) { c.EvolveDepth = 0 }},
		{"inverted window", func(c *Config) { c.EvolveMax = c.EvolveMin - time.Second }},
		{"zero window", func(c *Config) { c.EvolveMin = 0 }},
		{"bad port", func(c *Config) { c.Port = 70000 }},
	}
	for _, tt := range tests {
		cfg := Load()
		tt.mutate(&cfg)
		if err := cfg.Validate(); err == nil {
			t.Errorf("%s: Validate() = nil, want error", tt.name)
		}
	}
}
