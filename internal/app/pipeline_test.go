package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"gocv.io/x/gocv"

	"github.com/ayusman/superimpose/internal/capture"
	"github.com/ayusman/superimpose/internal/config"
	"github.com/ayusman/superimpose/internal/detector"
	"github.com/ayusman/superimpose/internal/store"
)

func solidFrame(t *testing.T, v float64) *gocv.Mat {
	t.Helper()
	m := gocv.NewMatWithSize(480, 640, gocv.MatTypeCV8UC3)
	m.SetTo(gocv.NewScalar(v, v, v, 0))
	t.Cleanup(func() { m.Close() })
	return &m
}

func newPipelineApp(t *testing.T, frames []*gocv.Mat) (*App, *capture.MockCamera, *detector.MockDetector) {
	t.Helper()

	st, err := store.NewMemory()
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	cam := capture.NewMockCamera(frames, true)
	det := detector.NewMockDetector()
	det.SetPoses([]detector.Pose{detector.StandingPose()})

	cfg := config.Default()
	cfg.Audio.Enabled = false
	a, err := New(Config{
		Config:   cfg,
		Store:    st,
		Camera:   cam,
		Detector: det,
		Masks:    testMasks(SlashFrames),
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(func() { a.Close() })

	if err := cam.Open(); err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	return a, cam, det
}

func TestStep_MotionGatesDetection(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping test that requires GoCV Mat creation")
	}

	dark, bright := solidFrame(t, 0), solidFrame(t, 255)
	a, _, det := newPipelineApp(t, []*gocv.Mat{dark, dark, bright})

	if a.step() {
		t.Error("the first frame should only prime the motion detector")
	}
	if a.step() {
		t.Error("a still frame should not open the gate")
	}
	if det.Calls() != 0 {
		t.Errorf("expected no detection while idle, got %d calls", det.Calls())
	}
	if a.Feed().Started() {
		t.Error("feed started without detection")
	}

	if !a.step() {
		t.Error("expected motion to open the gate")
	}
	if det.Calls() != 1 {
		t.Errorf("expected 1 detection, got %d", det.Calls())
	}
	if !a.Feed().Started() {
		t.Error("expected detected poses on the feed")
	}

	if seq := a.Frames().Latest().Seq; seq != 3 {
		t.Errorf("expected every frame stored, latest seq %d", seq)
	}
}

func TestStep_DetectorError(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping test that requires GoCV Mat creation")
	}

	a, _, det := newPipelineApp(t, []*gocv.Mat{solidFrame(t, 0), solidFrame(t, 255)})
	det.SetError(errors.New("service gone"))

	a.step()
	a.step()

	if det.Calls() != 1 {
		t.Errorf("expected 1 detection, got %d", det.Calls())
	}
	if a.Feed().Started() {
		t.Error("a failed detection should not publish")
	}
}

func TestStep_NoFrames(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping test that requires GoCV Mat creation")
	}

	a, _, det := newPipelineApp(t, nil)

	if a.step() {
		t.Error("a failed read should not switch the gate")
	}
	if det.Calls() != 0 || a.Frames().Latest().Seq != 0 {
		t.Error("nothing should happen without a frame")
	}
}

func TestRunPipeline(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping test that requires GoCV Mat creation")
	}

	a, cam, _ := newPipelineApp(t, []*gocv.Mat{solidFrame(t, 0), solidFrame(t, 255)})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		a.runPipeline(ctx)
		close(done)
	}()

	deadline := time.After(5 * time.Second)
	for !a.Feed().Started() {
		select {
		case <-deadline:
			cancel()
			t.Fatal("pipeline never published poses")
		case <-time.After(10 * time.Millisecond):
		}
	}
	cancel()
	<-done

	if cam.FPS() != capture.DefaultGateConfig().ActiveFPS {
		t.Errorf("expected the camera at the active rate, got %d", cam.FPS())
	}
}
