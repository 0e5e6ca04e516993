package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"

	"github.com/BurntSushi/toml"
)

const DefaultRateHz = 22050

var validRates = []int{8000, 11025, 22050, 44100, 48000}

// Config is the tunable surface of the sound system. Values are read once per
// frame by snd.System, so edits take effect on the next Update.
type Config struct {
	RateHz      int     `toml:"rate_hz"`
	MixAhead    float64 `toml:"mix_ahead"`
	MixOffset   float64 `toml:"mix_offset"`
	Volume      float64 `toml:"volume"`
	MusicVolume float64 `toml:"music_volume"`
	WorldVolume float64 `toml:"world_volume"`
	Muted       bool    `toml:"muted"`
	Doppler     bool    `toml:"doppler"`
	SfxMemoryMB int     `toml:"sfx_memory_mb"`
	Backend     string  `toml:"backend"`
	Device      string  `toml:"device"`
	BaseDir     string  `toml:"base_dir"`
	LogLevel    string  `toml:"log_level"`
}

func Default() Config {
	return Config{
		RateHz:      DefaultRateHz,
		MixAhead:    0.2,
		MixOffset:   0,
		Volume:      0.8,
		MusicVolume: 0.25,
		WorldVolume: 1,
		Doppler:     true,
		SfxMemoryMB: 32,
		Backend:     "auto",
		BaseDir:     ".",
		LogLevel:    "info",
	}
}

// Load reads a TOML file over the defaults. A missing file is not an error.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("loading config %s: %w", path, err)
	}
	return cfg, nil
}

// ApplyEnv overrides fields from OMEGASND_* environment variables.
func (c *Config) ApplyEnv() {
	if v := os.Getenv("OMEGASND_RATE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.RateHz = n
		}
	}
	envFloat("OMEGASND_MIX_AHEAD", &c.MixAhead)
	envFloat("OMEGASND_MIX_OFFSET", &c.MixOffset)
	envFloat("OMEGASND_VOLUME", &c.Volume)
	envFloat("OMEGASND_MUSIC_VOLUME", &c.MusicVolume)
	envFloat("OMEGASND_WORLD_VOLUME", &c.WorldVolume)
	envBool("OMEGASND_MUTED", &c.Muted)
	envBool("OMEGASND_DOPPLER", &c.Doppler)
	if v := os.Getenv("OMEGASND_BACKEND"); v != "" {
		c.Backend = v
	}
	if v := os.Getenv("OMEGASND_DEVICE"); v != "" {
		c.Device = v
	}
	if v := os.Getenv("OMEGASND_BASE_DIR"); v != "" {
		c.BaseDir = v
	}
	if v := os.Getenv("OMEGASND_LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
}

func envFloat(key string, dst *float64) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}

func envBool(key string, dst *bool) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

// Sanitize forces every field into its legal range.
func (c *Config) Sanitize() {
	if !ValidRate(c.RateHz) {
		c.RateHz = DefaultRateHz
	}
	c.MixAhead = clamp(c.MixAhead, 0.001, 0.5)
	c.MixOffset = clamp(c.MixOffset, 0, 0.5)
	c.Volume = clamp(c.Volume, 0, 1)
	c.MusicVolume = max(c.MusicVolume, 0)
	c.WorldVolume = clamp(c.WorldVolume, 0, 1)
	if c.SfxMemoryMB <= 0 {
		c.SfxMemoryMB = Default().SfxMemoryMB
	}
	if c.Backend == "" {
		c.Backend = "auto"
	}
}

func ValidRate(hz int) bool {
	for _, r := range validRates {
		if hz == r {
			return true
		}
	}
	return false
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
