package orb

import (
	"math"
	"testing"

	"github.com/ayusman/superimpose/internal/detector"
	"github.com/ayusman/superimpose/internal/render"
)

func playConfig() Config {
	return Config{
		Label:  "Play",
		Center: detector.Point{X: 440, Y: 200},
		Radius: 120,
		Total:  25,
		Part:   detector.RightWrist,
	}
}

func withWrist(x, y float64) []detector.Pose {
	p := detector.StandingPose()
	p[detector.RightWrist] = detector.Keypoint{X: x, Y: y, Confidence: 0.9}
	return []detector.Pose{p}
}

func TestOrb_FiresOnceOnTotal(t *testing.T) {
	fired := 0
	o := New(playConfig(), func() { fired++ })
	on := withWrist(440, 200)

	for i := 1; i < 25; i++ {
		o.Update(on)
		if fired != 0 {
			t.Fatalf("fired early on tick %d", i)
		}
		if o.State() != Filling {
			t.Fatalf("tick %d: state = %s, want filling", i, o.State())
		}
	}

	o.Update(on)
	if fired != 1 {
		t.Fatalf("expected to fire on tick 25, fired %d times", fired)
	}
	if o.State() != Fired || o.Progress() != 1 {
		t.Errorf("state = %s progress = %f, want fired and full", o.State(), o.Progress())
	}

	for i := 0; i < 50; i++ {
		o.Update(on)
	}
	if fired != 1 {
		t.Errorf("fired %d times while held, want 1", fired)
	}
}

func TestOrb_RefiresOnlyAfterLeaving(t *testing.T) {
	fired := 0
	o := New(playConfig(), func() { fired++ })
	on := withWrist(440, 200)
	off := withWrist(100, 400)

	for i := 0; i < 25; i++ {
		o.Update(on)
	}

	o.Update(off)
	if o.State() != Draining || o.Completion() != 24 || o.Fired() {
		t.Fatalf("after leaving: state=%s completion=%d fired=%v", o.State(), o.Completion(), o.Fired())
	}

	o.Update(on)
	if fired != 2 {
		t.Errorf("expected a second activation after returning, got %d", fired)
	}
}

func TestOrb_Drains(t *testing.T) {
	o := New(playConfig(), nil)
	on := withWrist(440, 200)
	off := withWrist(100, 400)

	for i := 0; i < 10; i++ {
		o.Update(on)
	}
	for i := 0; i < 9; i++ {
		o.Update(off)
	}
	if o.Completion() != 1 || o.State() != Draining {
		t.Errorf("completion=%d state=%s, want 1 draining", o.Completion(), o.State())
	}
	o.Update(off)
	if o.Completion() != 0 || o.State() != Idle {
		t.Errorf("completion=%d state=%s, want 0 idle", o.Completion(), o.State())
	}
	o.Update(off)
	if o.Completion() != 0 {
		t.Error("completion went negative")
	}
}

func TestOrb_NoPoseIsNoop(t *testing.T) {
	o := New(playConfig(), nil)
	on := withWrist(440, 200)
	for i := 0; i < 5; i++ {
		o.Update(on)
	}

	o.Update(nil)
	if o.Completion() != 5 {
		t.Errorf("no pose changed completion to %d", o.Completion())
	}

	missing := detector.StandingPose()
	delete(missing, detector.RightWrist)
	o.Update([]detector.Pose{missing})
	if o.Completion() != 5 {
		t.Errorf("missing part changed completion to %d", o.Completion())
	}
}

func TestOrb_Contains(t *testing.T) {
	o := New(playConfig(), nil)
	tests := []struct {
		name string
		p    detector.Point
		want bool
	}{
		{"centre", detector.Point{X: 440, Y: 200}, true},
		{"on the edge", detector.Point{X: 500, Y: 200}, true},
		{"just outside", detector.Point{X: 500.5, Y: 200}, false},
		{"full radius away", detector.Point{X: 440, Y: 320}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := o.Contains(tt.p); got != tt.want {
				t.Errorf("Contains(%+v) = %v, want %v", tt.p, got, tt.want)
			}
		})
	}
}

func TestOrb_UsesPrimaryPoseOnly(t *testing.T) {
	o := New(playConfig(), nil)
	poses := append(withWrist(100, 400), withWrist(440, 200)...)
	o.Update(poses)
	if o.Completion() != 0 {
		t.Error("second pose should be ignored")
	}
}

func TestOrb_Draw(t *testing.T) {
	o := New(playConfig(), nil)
	view := render.FitView(640, 480, 1)
	rec := render.NewRecorder()

	o.Draw(rec, view)
	if rec.Count(render.OpArc) != 0 {
		t.Error("empty orb should not draw progress")
	}
	if !rec.HasText("Play") {
		t.Error("expected the label")
	}

	for i := 0; i < 5; i++ {
		o.Update(withWrist(440, 200))
	}
	rec.Reset()
	o.Draw(rec, view)

	arcs := rec.Filter(render.OpArc)
	if len(arcs) != 1 {
		t.Fatalf("expected one progress arc, got %d", len(arcs))
	}
	if sweep := arcs[0].End - arcs[0].Start; math.Abs(sweep-0.2*2*math.Pi) > 1e-9 {
		t.Errorf("sweep = %f, want a fifth of a turn", sweep)
	}
	circles := rec.Filter(render.OpCircle)
	if len(circles) != 1 || circles[0].Points[0] != view.Map(440, 200) {
		t.Errorf("unexpected disc %+v", circles)
	}
}

func TestNew_Defaults(t *testing.T) {
	o := New(Config{Center: detector.Point{X: 1, Y: 1}, Radius: 10}, nil)
	if o.Config().Total != 1 || o.Config().Part != detector.RightWrist {
		t.Errorf("unexpected defaults %+v", o.Config())
	}
}
