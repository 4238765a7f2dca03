package app

import (
	"image"
	"strings"
	"testing"

	"github.com/ayusman/superimpose/internal/audio"
	"github.com/ayusman/superimpose/internal/config"
	"github.com/ayusman/superimpose/internal/detector"
	"github.com/ayusman/superimpose/internal/render"
	"github.com/ayusman/superimpose/internal/scene"
	"github.com/ayusman/superimpose/internal/store"
)

func testMasks(n int) []image.Image {
	masks := make([]image.Image, n)
	for i := range masks {
		masks[i] = image.NewAlpha(image.Rect(0, 0, 4, 4))
	}
	return masks
}

func newTestApp(t *testing.T, opts ...func(*config.Config)) (*App, *audio.Recorder) {
	t.Helper()

	st, err := store.NewMemory()
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	player := &audio.Recorder{}
	cfg := config.Default()
	cfg.Seed = 7
	for _, opt := range opts {
		opt(&cfg)
	}
	a, err := New(Config{
		Config:   cfg,
		NoCamera: true,
		Store:    st,
		Player:   player,
		Masks:    testMasks(SlashFrames),
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(func() { a.Close() })
	return a, player
}

// tickUntil ticks until the machine reaches name, failing after limit ticks.
func tickUntil(t *testing.T, a *App, name scene.Name, limit int) {
	t.Helper()
	for i := 0; i < limit; i++ {
		if a.Machine().CurrentName() == name {
			return
		}
		a.Tick()
	}
	if got := a.Machine().CurrentName(); got != name {
		t.Fatalf("after %d ticks in %s, want %s", limit, got, name)
	}
}

func TestNew_StartsInMainMenu(t *testing.T) {
	a, _ := newTestApp(t)

	st := a.Status()
	if st.Scene != scene.NameMainMenu {
		t.Errorf("expected main menu, got %s", st.Scene)
	}
	if st.Score != 0 || st.HighScore != 0 {
		t.Errorf("unexpected status %+v", st)
	}
	if a.Feed() == nil || a.Frames() == nil || a.Store() == nil || a.Calibration() == nil {
		t.Error("expected collaborators to be built")
	}
}

func TestApp_WaitsForPoses(t *testing.T) {
	a, _ := newTestApp(t)

	for i := 0; i < 5; i++ {
		a.Tick()
	}
	if a.Ticks() != 0 {
		t.Errorf("expected no ticks before poses arrive, got %d", a.Ticks())
	}

	rec := render.NewRecorder()
	a.Draw(rec)
	if !rec.HasText("Waiting for the pose detector") {
		t.Error("expected the waiting screen")
	}

	a.HandleKey('p')
	if got := a.Machine().CurrentName(); got != scene.NameMainMenu {
		t.Errorf("keys should wait for poses, in %s", got)
	}

	a.Feed().Publish([]detector.Pose{detector.StandingPose()})
	a.Tick()
	if a.Ticks() != 1 {
		t.Errorf("expected the game to tick once poses arrived, got %d", a.Ticks())
	}

	rec.Reset()
	a.Draw(rec)
	if rec.HasText("Waiting for the pose detector") {
		t.Error("waiting screen still shown after poses arrived")
	}
}

func TestApp_HandleKey(t *testing.T) {
	a, _ := newTestApp(t)
	a.Feed().Publish([]detector.Pose{detector.StandingPose()})

	if !a.HandleKey('q') {
		t.Error("expected q to quit")
	}

	if a.HandleKey('f') {
		t.Error("f should not quit")
	}
	if !a.Fullscreen() {
		t.Error("expected f to enable fullscreen")
	}
	a.HandleKey('f')
	if a.Fullscreen() {
		t.Error("expected a second f to disable fullscreen")
	}

	a.HandleKey('p')
	tickUntil(t, a, scene.NameOnboarding, 40)
	if got := a.Status().Scene; got != scene.NameOnboarding {
		t.Errorf("status scene = %s, want onboarding", got)
	}
}

func TestApp_Pause(t *testing.T) {
	a, _ := newTestApp(t)
	a.Feed().Publish([]detector.Pose{detector.StandingPose()})

	a.SetPaused(true)
	if !a.Paused() {
		t.Fatal("expected the app to be paused")
	}

	a.HandleKey('p')
	for i := 0; i < 40; i++ {
		a.Tick()
	}
	if a.Ticks() != 0 {
		t.Errorf("expected no ticks while paused, got %d", a.Ticks())
	}
	if a.Machine().CurrentName() != scene.NameMainMenu {
		t.Errorf("keys should be ignored while paused, in %s", a.Machine().CurrentName())
	}

	rec := render.NewRecorder()
	a.Draw(rec)
	if !rec.HasText("PAUSED") {
		t.Error("expected the paused overlay")
	}

	a.SetPaused(false)
	a.Tick()
	if a.Ticks() != 1 {
		t.Errorf("expected a tick after resuming, got %d", a.Ticks())
	}
}

func TestApp_FullGame(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping test that renders cutouts with GoCV")
	}

	a, player := newTestApp(t, func(c *config.Config) {
		c.Game.InitialSpeed = 10
		c.Game.SpeedStep = 0
	})
	a.Feed().Publish([]detector.Pose{detector.ArmsUpPose()})

	a.HandleKey('p')
	tickUntil(t, a, scene.NameOnboarding, 40)
	tickUntil(t, a, scene.NameGame, 200)

	if !a.Calibration().Calibrated() {
		t.Error("expected onboarding to calibrate the player")
	}
	calibrations, err := a.Store().Calibrations().List()
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(calibrations) != 1 {
		t.Errorf("expected 1 stored calibration, got %d", len(calibrations))
	}

	// A player far off to the side misses every target.
	a.Feed().Publish([]detector.Pose{detector.Shifted(detector.StandingPose(), 300, 300)})
	tickUntil(t, a, scene.NameMainMenu, 500)

	if n := player.Count(audio.CueGameOver); n != 1 {
		t.Errorf("expected 1 game over cue, got %d", n)
	}
	count, err := a.Store().Results().Count()
	if err != nil {
		t.Fatalf("Count() error = %v", err)
	}
	if count != 1 {
		t.Errorf("expected 1 recorded result, got %d", count)
	}
	if a.Status().Lives != 0 {
		t.Errorf("expected no lives outside a game, got %d", a.Status().Lives)
	}
}

func TestApp_Footer(t *testing.T) {
	a, _ := newTestApp(t)

	footer := a.footer()
	for _, want := range []string{"mainMenu", "score 0", "high score 0", "Q quit"} {
		if !strings.Contains(footer, want) {
			t.Errorf("footer %q missing %q", footer, want)
		}
	}

	a.SetPaused(true)
	if !strings.Contains(a.footer(), "(paused)") {
		t.Errorf("footer %q does not show the pause", a.footer())
	}
}
