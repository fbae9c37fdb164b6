package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

// Config holds all runtime configuration, loaded from environment variables
// and optionally overlaid from a TOML file.
type Config struct {
	// Server
	Port    int
	Speaker bool // also play on the local sound device

	// Ambient engine
	DefaultVolume float64            // volume when a request omits it
	DuckLevel     float64            // scale applied while narration plays
	EvolveMin     time.Duration      // shortest wait between breaths
	EvolveMax     time.Duration      // longest wait between breaths
	EvolveDepth   float64            // fraction the level dips per breath
	EvolveRamp    time.Duration      // length of one breath
	MoodVolume    map[string]float64 // per-mood multiplier overrides

	// Narration (text-to-speech)
	TTSURL    string
	TTSAPIKey string
	TTSVoice  string
	TTSModel  string

	ConfigFile string
}

// Load reads configuration from environment variables with sane defaults.
// If NAAD_CONFIG_FILE is set, call ApplyFile to overlay it.
func Load() Config {
	return Config{
		Port:    envInt("NAAD_PORT", 8080),
		Speaker: envBool("NAAD_SPEAKER", false),

		DefaultVolume: envFloat("NAAD_DEFAULT_VOLUME", 0.5),
		DuckLevel:     envFloat("NAAD_DUCK_LEVEL", 0.3),
		EvolveMin:     time.Duration(envInt("NAAD_EVOLVE_MIN", 300)) * time.Second,
		EvolveMax:     time.Duration(envInt("NAAD_EVOLVE_MAX", 420)) * time.Second,
		EvolveDepth:   envFloat("NAAD_EVOLVE_DEPTH", 0.1),
		EvolveRamp:    time.Duration(envInt("NAAD_EVOLVE_RAMP", 20)) * time.Second,

		TTSURL:    envStr("NAAD_TTS_URL", "https://api.elevenlabs.io"),
		TTSAPIKey: envStr("NAAD_TTS_API_KEY", ""),
		TTSVoice:  envStr("NAAD_TTS_VOICE", "JBFqnCBsd6RMkjVDRZzb"),
		TTSModel:  envStr("NAAD_TTS_MODEL", "eleven_multilingual_v2"),

		ConfigFile: envStr("NAAD_CONFIG_FILE", ""),
	}
}

// fileConfig mirrors the TOML overlay. Pointers distinguish unset from zero.
type fileConfig struct {
	DefaultVolume *float64 `toml:"default_volume"`
	DuckLevel     *float64 `toml:"duck_level"`
	Evolution     struct {
		Min   *float64 `toml:"min"` // seconds
		Max   *float64 `toml:"max"`
		Depth *float64 `toml:"depth"`
		Ramp  *float64 `toml:"ramp"`
	} `toml:"evolution"`
	MoodVolume map[string]float64 `toml:"mood_volume"`
}

// ApplyFile overlays the TOML file at path onto cfg. Keys the file does not
// set keep their current value; unknown keys are an error.
func ApplyFile(cfg *Config, path string) error {
	var fc fileConfig
	md, err := toml.DecodeFile(path, &fc)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return fmt.Errorf("config %s: unknown keys %s", path, strings.Join(keys, ", "))
	}

	setFloat(&cfg.DefaultVolume, fc.DefaultVolume)
	setFloat(&cfg.DuckLevel, fc.DuckLevel)
	setSeconds(&cfg.EvolveMin, fc.Evolution.Min)
	setSeconds(&cfg.EvolveMax, fc.Evolution.Max)
	setFloat(&cfg.EvolveDepth, fc.Evolution.Depth)
	setSeconds(&cfg.EvolveRamp, fc.Evolution.Ramp)

	if len(fc.MoodVolume) > 0 && cfg.MoodVolume == nil {
		cfg.MoodVolume = make(map[string]float64, len(fc.MoodVolume))
	}
	for mood, v := range fc.MoodVolume {
		cfg.MoodVolume[mood] = v
	}
	return nil
}

// Validate reports settings that would make the engine misbehave. Levels
// must be in (0, 1]; the player reads zero as unset.
func (c Config) Validate() error {
	for name, v := range map[string]float64{
		"default volume":  c.DefaultVolume,
		"duck level":      c.DuckLevel,
		"evolution depth": c.EvolveDepth,
	} {
		if v <= 0 || v > 1 {
			return fmt.Errorf("%s %v outside (0, 1]", name, v)
		}
	}
	if c.EvolveMin <= 0 || c.EvolveMax < c.EvolveMin {
		return fmt.Errorf("evolution window %v..%v is invalid", c.EvolveMin, c.EvolveMax)
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("port %d is invalid", c.Port)
	}
	return nil
}

func setFloat(dst *float64, v *float64) {
	if v != nil {
		*dst = *v
	}
}

func setSeconds(dst *time.Duration, v *float64) {
	if v != nil {
		*dst = time.Duration(*v * float64(time.Second))
	}
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}
