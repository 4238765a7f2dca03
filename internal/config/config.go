// Package config loads the game's TOML configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/ayusman/superimpose/internal/audio"
	"github.com/ayusman/superimpose/internal/capture"
	"github.com/ayusman/superimpose/internal/detector"
	"github.com/ayusman/superimpose/internal/scene"
	"github.com/ayusman/superimpose/internal/target"
)

// Config is the complete application configuration. Every section starts
// from its package defaults, so a file only needs the keys it changes.
// Game results live in memory for the session, so there is no storage
// section.
type Config struct {
	// TickRate is the game loop frequency in Hz.
	TickRate int `toml:"tick_rate"`
	// Transition is the scene transition style, "slash" or "fade".
	Transition string `toml:"transition"`
	// Seed fixes the pose generator's random source. Zero seeds from the clock.
	Seed int64 `toml:"seed"`
	// Tray shows the system tray icon.
	Tray bool `toml:"tray"`

	Camera   capture.Config     `toml:"camera"`
	Motion   capture.GateConfig `toml:"motion"`
	Detector detector.Config    `toml:"detector"`
	Game     target.Config      `toml:"game"`
	Audio    AudioConfig        `toml:"audio"`
	Server   ServerConfig       `toml:"server"`
}

// AudioConfig wraps the speaker settings with a switch.
type AudioConfig struct {
	Enabled bool `toml:"enabled"`
	audio.Config
}

// ServerConfig controls the HTTP server.
type ServerConfig struct {
	Enabled bool   `toml:"enabled"`
	Addr    string `toml:"addr"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		TickRate:   60,
		Transition: scene.StyleSlash,
		Camera:     capture.DefaultConfig(),
		Motion:     capture.DefaultGateConfig(),
		Detector:   detector.DefaultConfig(),
		Game:       target.DefaultConfig(),
		Audio:      AudioConfig{Enabled: true, Config: audio.DefaultConfig()},
		Server:     ServerConfig{Enabled: true, Addr: "127.0.0.1:8080"},
	}
}

// Load reads the TOML file at path over Default. An empty path returns
// Default. Unknown keys are an error.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read config: %w", err)
	}

	return Parse(string(data))
}

// Parse decodes TOML text over Default and validates the result.
func Parse(text string) (Config, error) {
	cfg := Default()

	md, err := toml.Decode(text, &cfg)
	if err != nil {
		return cfg, fmt.Errorf("failed to parse config: %w", err)
	}

	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		sort.Strings(keys)
		return cfg, fmt.Errorf("unknown config keys: %s", strings.Join(keys, ", "))
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate reports every setting that cannot work.
func (c Config) Validate() error {
	var errs []error

	if c.TickRate <= 0 {
		errs = append(errs, fmt.Errorf("tick_rate must be positive, got %d", c.TickRate))
	}
	switch c.Transition {
	case scene.StyleSlash, scene.StyleFade:
	default:
		errs = append(errs, fmt.Errorf("unknown transition %q", c.Transition))
	}
	if c.Camera.Width <= 0 || c.Camera.Height <= 0 {
		errs = append(errs, fmt.Errorf("camera size must be positive, got %dx%d", c.Camera.Width, c.Camera.Height))
	}
	if c.Game.Lives <= 0 {
		errs = append(errs, fmt.Errorf("game.lives must be positive, got %d", c.Game.Lives))
	}
	if c.Game.Capacity <= 0 {
		errs = append(errs, fmt.Errorf("game.capacity must be positive, got %d", c.Game.Capacity))
	}
	if c.Game.InitialSpeed <= 0 {
		errs = append(errs, fmt.Errorf("game.initial_speed must be positive, got %g", c.Game.InitialSpeed))
	}
	if c.Game.MissLine > c.Game.MatchLine {
		errs = append(errs, fmt.Errorf("game.miss_line %g is past game.match_line %g", c.Game.MissLine, c.Game.MatchLine))
	}
	if c.Audio.Volume < 0 || c.Audio.Volume > 1 {
		errs = append(errs, fmt.Errorf("audio.volume must be in [0, 1], got %g", c.Audio.Volume))
	}
	if c.Server.Enabled && c.Server.Addr == "" {
		errs = append(errs, errors.New("server.addr is required when the server is enabled"))
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}
