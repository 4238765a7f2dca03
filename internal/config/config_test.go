package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if err := cfg.Validate(); err != nil {
		t.Fatalf("Default() is invalid: %v", err)
	}
	if cfg.TickRate != 60 || cfg.Transition != "slash" {
		t.Errorf("unexpected loop settings %d %q", cfg.TickRate, cfg.Transition)
	}
	if cfg.Game.Lives != 3 || cfg.Game.InitialSpeed != 0.01 {
		t.Errorf("unexpected game defaults %+v", cfg.Game)
	}
	if cfg.Camera.Width != 640 || cfg.Camera.Height != 480 {
		t.Errorf("camera = %dx%d", cfg.Camera.Width, cfg.Camera.Height)
	}
}

func TestLoad_EmptyPath(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load(\"\") error = %v", err)
	}
	if cfg != Default() {
		t.Error("Load(\"\") should return Default()")
	}
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "superimpose.toml")
	text := `
tick_rate = 30
transition = "fade"
seed = 7

[camera]
device_id = 1
mirror = false

[motion]
idle_timeout = "5s"

[game]
lives = 5
margin = 40.5

[audio]
enabled = false
volume = 0.25
buffer = "50ms"

[server]
addr = ":9090"
`
	if err := os.WriteFile(path, []byte(text), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.TickRate != 30 || cfg.Transition != "fade" || cfg.Seed != 7 {
		t.Errorf("top-level keys not applied: %+v", cfg)
	}
	if cfg.Camera.DeviceID != 1 || cfg.Camera.Mirror {
		t.Errorf("camera = %+v", cfg.Camera)
	}
	if cfg.Camera.Width != 640 {
		t.Error("unset keys should keep their defaults")
	}
	if cfg.Motion.IdleTimeout != 5*time.Second {
		t.Errorf("idle timeout = %v", cfg.Motion.IdleTimeout)
	}
	if cfg.Game.Lives != 5 || cfg.Game.Margin != 40.5 || cfg.Game.Thickness != 10 {
		t.Errorf("game = %+v", cfg.Game)
	}
	if cfg.Audio.Enabled || cfg.Audio.Volume != 0.25 || cfg.Audio.Buffer != 50*time.Millisecond {
		t.Errorf("audio = %+v", cfg.Audio)
	}
	if cfg.Audio.SampleRate != 44100 {
		t.Errorf("sample rate = %d, want default", cfg.Audio.SampleRate)
	}
	if !cfg.Server.Enabled || cfg.Server.Addr != ":9090" {
		t.Errorf("server = %+v", cfg.Server)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("Load() error = %v, want ErrNotExist", err)
	}
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		wantErr string
	}{
		{"malformed", "tick_rate = ", "failed to parse config"},
		{"wrong type", `tick_rate = "fast"`, "failed to parse config"},
		{"unknown key", "[game]\nlifes = 3\nspeed = 2", "unknown config keys: game.lifes, game.speed"},
		{"zero tick rate", "tick_rate = 0", "tick_rate must be positive"},
		{"bad transition", `transition = "wipe"`, `unknown transition "wipe"`},
		{"no lives", "[game]\nlives = 0", "game.lives must be positive"},
		{"miss line ahead", "[game]\nmiss_line = 5", "game.miss_line 5 is past game.match_line 0"},
		{"loud", "[audio]\nvolume = 2", "audio.volume must be in [0, 1]"},
		{"storage path", "[store]\npath = \"scores.db\"", "unknown config keys: store.path"},
		{"no server addr", "[server]\naddr = \"\"", "server.addr is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.text)
			if err == nil {
				t.Fatal("expected an error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %q, want it to contain %q", err, tt.wantErr)
			}
		})
	}
}

func TestValidate_ReportsEveryProblem(t *testing.T) {
	cfg := Default()
	cfg.TickRate = 0
	cfg.Game.Lives = 0

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected an error")
	}
	for _, want := range []string{"tick_rate", "game.lives"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q does not mention %s", err, want)
		}
	}
}
