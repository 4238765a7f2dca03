package e2e

import (
	"encoding/json"
	"image"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ayusman/superimpose/internal/app"
	"github.com/ayusman/superimpose/internal/audio"
	"github.com/ayusman/superimpose/internal/config"
	"github.com/ayusman/superimpose/internal/detector"
	"github.com/ayusman/superimpose/internal/scene"
	"github.com/ayusman/superimpose/internal/server"
	"github.com/ayusman/superimpose/internal/store"
)

func TestE2E_CompleteGame(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping e2e test")
	}

	s, err := store.New(filepath.Join(t.TempDir(), "data.db"))
	if err != nil {
		t.Fatalf("store.New() error = %v", err)
	}
	defer s.Close()

	cfg := config.Default()
	cfg.Seed = 1
	cfg.Game.InitialSpeed = 10
	cfg.Game.SpeedStep = 0

	masks := make([]image.Image, app.SlashFrames)
	for i := range masks {
		masks[i] = image.NewAlpha(image.Rect(0, 0, 8, 8))
	}

	player := &audio.Recorder{}
	application, err := app.New(app.Config{
		Config:   cfg,
		NoCamera: true,
		Store:    s,
		Player:   player,
		Masks:    masks,
	})
	if err != nil {
		t.Fatalf("app.New() error = %v", err)
	}
	defer application.Close()

	srv := server.New(server.Config{
		Store: s,
		Feed:  application.Feed(),
		State: application,
	})
	ts := httptest.NewServer(srv)
	defer ts.Close()

	client := ts.Client()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(ts.URL, "http")+"/api/poses", nil)
	if err != nil {
		t.Fatalf("dial error = %v", err)
	}
	defer conn.Close()

	send := func(t *testing.T, p detector.Pose) {
		t.Helper()
		data, err := detector.EncodePoses([]detector.Pose{p})
		if err != nil {
			t.Fatalf("EncodePoses() error = %v", err)
		}
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			t.Fatalf("write error = %v", err)
		}
		deadline := time.Now().Add(2 * time.Second)
		for time.Now().Before(deadline) {
			if got, ok := detector.Primary(application.Feed().Poses()); ok && got[detector.Nose] == p[detector.Nose] {
				return
			}
			time.Sleep(5 * time.Millisecond)
		}
		t.Fatal("pose never reached the feed")
	}

	tickUntil := func(t *testing.T, name scene.Name, limit int) {
		t.Helper()
		for i := 0; i < limit && application.Machine().CurrentName() != name; i++ {
			application.Tick()
		}
		if got := application.Machine().CurrentName(); got != name {
			t.Fatalf("in %s after %d ticks, want %s", got, limit, name)
		}
	}

	getJSON := func(t *testing.T, path string, v any) int {
		t.Helper()
		resp, err := client.Get(ts.URL + path)
		if err != nil {
			t.Fatalf("GET %s error = %v", path, err)
		}
		defer resp.Body.Close()
		if v != nil && resp.StatusCode == http.StatusOK {
			if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
				t.Fatalf("decode %s error = %v", path, err)
			}
		}
		return resp.StatusCode
	}

	t.Run("NoCalibrationYet", func(t *testing.T) {
		if code := getJSON(t, "/api/calibrations/latest", nil); code != http.StatusNotFound {
			t.Errorf("status = %d, want %d", code, http.StatusNotFound)
		}
	})

	t.Run("Onboarding", func(t *testing.T) {
		send(t, detector.ArmsUpPose())

		application.HandleKey('p')
		tickUntil(t, scene.NameOnboarding, 40)
		tickUntil(t, scene.NameGame, 200)

		var state scene.Status
		if code := getJSON(t, "/api/state", &state); code != http.StatusOK {
			t.Fatalf("state status = %d", code)
		}
		if state.Scene != scene.NameGame || state.Lives != cfg.Game.Lives {
			t.Errorf("state = %+v, want a fresh game", state)
		}

		if code := getJSON(t, "/api/calibrations/latest", nil); code != http.StatusOK {
			t.Errorf("expected a stored calibration, status %d", code)
		}
	})

	t.Run("GameOver", func(t *testing.T) {
		send(t, detector.Shifted(detector.StandingPose(), 300, 300))
		tickUntil(t, scene.NameMainMenu, 500)

		if n := player.Count(audio.CueGameOver); n != 1 {
			t.Errorf("game over cues = %d, want 1", n)
		}

		var scores struct {
			HighScore int `json:"high_score"`
			Count     int `json:"count"`
		}
		if code := getJSON(t, "/api/scores", &scores); code != http.StatusOK {
			t.Fatalf("scores status = %d", code)
		}
		if scores.Count != 1 {
			t.Errorf("result count = %d, want 1", scores.Count)
		}
	})

	t.Run("ResetScores", func(t *testing.T) {
		req, _ := http.NewRequest(http.MethodDelete, ts.URL+"/api/scores", nil)
		resp, err := client.Do(req)
		if err != nil {
			t.Fatalf("DELETE error = %v", err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusNoContent {
			t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusNoContent)
		}

		application.Tick()
		if hs := application.Status().HighScore; hs != 0 {
			t.Errorf("high score after reset = %d", hs)
		}
	})
}
