package assets

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Config is the file form of the table options.
//
// Example assets.toml:
//
//	root = "res"
//	workers = 4
//	frames_in_flight = 3
//	mipmaps = true
//	max_texture_size = 2048
//	max_decode_pixels = 67108864
//
//	[hot_reload]
//	enabled = true
//	debounce = "250ms"
//
//	[failure_log]
//	per_second = 1
//	per_minute = 5
type Config struct {
	Root           string `toml:"root"`
	Workers        int    `toml:"workers"`
	FramesInFlight *int   `toml:"frames_in_flight"`
	Mipmaps        bool   `toml:"mipmaps"`
	MaxTextureSize uint32 `toml:"max_texture_size"`

	// MaxDecodePixels of zero keeps the default; negative disables the check.
	MaxDecodePixels int `toml:"max_decode_pixels"`

	HotReload  HotReloadConfig  `toml:"hot_reload"`
	FailureLog FailureLogConfig `toml:"failure_log"`
}

// HotReloadConfig configures file watching.
type HotReloadConfig struct {
	Enabled bool `toml:"enabled"`

	// Debounce is a time.ParseDuration string such as "100ms".
	Debounce string `toml:"debounce"`
}

// FailureLogConfig limits how often one failing source is logged.
// Both zero keeps the default; negative values disable limiting.
type FailureLogConfig struct {
	PerSecond int `toml:"per_second"`
	PerMinute int `toml:"per_minute"`
}

// LoadConfig reads a TOML config file. Unknown keys are rejected so typos
// do not go unnoticed.
func LoadConfig(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("assets: open config: %w", err)
	}
	defer f.Close()

	var cfg Config
	dec := toml.NewDecoder(f).DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		var strict *toml.StrictMissingError
		if errors.As(err, &strict) {
			return nil, fmt.Errorf("assets: config %s: %s", path, strict.String())
		}
		return nil, fmt.Errorf("assets: config %s: %w", path, err)
	}
	return &cfg, nil
}

// Options converts the config to table options.
func (c *Config) Options() ([]Option, error) {
	opts := []Option{
		WithRootPath(c.Root),
		WithWorkers(c.Workers),
		WithMipmaps(c.Mipmaps),
		WithMaxTextureSize(c.MaxTextureSize),
		WithHotReload(c.HotReload.Enabled),
	}
	if c.MaxDecodePixels != 0 {
		opts = append(opts, WithMaxDecodePixels(c.MaxDecodePixels))
	}
	if c.FramesInFlight != nil {
		opts = append(opts, WithFramesInFlight(*c.FramesInFlight))
	}
	if c.HotReload.Debounce != "" {
		d, err := time.ParseDuration(c.HotReload.Debounce)
		if err != nil {
			return nil, fmt.Errorf("assets: hot_reload.debounce: %w", err)
		}
		opts = append(opts, WithReloadDebounce(d))
	}

	switch fl := c.FailureLog; {
	case fl.PerSecond < 0 || fl.PerMinute < 0:
		opts = append(opts, WithFailureLogRate(nil))
	case fl.PerSecond > 0 || fl.PerMinute > 0:
		rates := make(map[time.Duration]int, 2)
		if fl.PerSecond > 0 {
			rates[time.Second] = fl.PerSecond
		}
		if fl.PerMinute > 0 {
			rates[time.Minute] = fl.PerMinute
		}
		opts = append(opts, WithFailureLogRate(rates))
	}
	return opts, nil
}
