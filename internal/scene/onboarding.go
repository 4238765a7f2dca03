package scene

import (
	"log"

	"github.com/ayusman/superimpose/internal/detector"
	"github.com/ayusman/superimpose/internal/orb"
	"github.com/ayusman/superimpose/internal/render"
)

// PlayOrb is the onboarding orb in a 640x480 frame: held with the right
// wrist, it calibrates the player and starts the game.
var PlayOrb = orb.Config{
	Label:  "Play",
	Center: detector.Point{X: 440, Y: 200},
	Radius: 120,
	Total:  25,
	Part:   detector.RightWrist,
}

const onboardingHint = "Ensure you can fully stretch your arms upwards and sideways, and still fit within the frame.\n" +
	"Proceed by holding your right wrist on the orb."

// Onboarding shows the webcam with the player's skeleton and waits for the
// play orb. Confirming measures the player's body and starts the game.
type Onboarding struct {
	machine *Machine
	orb     *orb.Orb
	view    render.View
	width   float64
	height  float64
}

// playOrb places PlayOrb in a frame of the given size.
func playOrb(width, height float64) orb.Config {
	c := PlayOrb
	sx, sy := width/defaultFrameWidth, height/defaultFrameHeight
	c.Center = detector.Point{X: c.Center.X * sx, Y: c.Center.Y * sy}
	c.Radius *= min(sx, sy)
	return c
}

// NewOnboarding creates the onboarding scene.
func NewOnboarding(m *Machine) *Onboarding {
	w, h := m.session.frameSize()
	o := &Onboarding{
		machine: m,
		view:    render.FitView(w, h, 1),
		width:   w,
		height:  h,
	}
	o.orb = orb.New(playOrb(w, h), o.confirm)
	return o
}

// Orb returns the play orb.
func (o *Onboarding) Orb() *orb.Orb { return o.orb }

func (o *Onboarding) confirm() {
	session := o.machine.session
	if session.Calibration != nil {
		profile, ok := session.Calibration.Recalibrate(session.poses())
		if !ok {
			log.Printf("Calibration incomplete, keeping the current body profile")
		} else if session.Calibrations != nil {
			if err := session.Calibrations.Record(profile); err != nil {
				log.Printf("Failed to record calibration: %v", err)
			}
		}
	}
	o.machine.TransitionTo(NameGame, session.style(), true)
}

func (o *Onboarding) Update() {
	o.orb.Update(o.machine.session.poses())
}

func (o *Onboarding) Draw(s render.Surface) {
	w, h := s.Size()
	s.Clear(render.Black)

	frame := o.machine.session.frame()
	if frame != nil {
		// The webcam rarely matches the screen's aspect ratio, so a blurred,
		// darkened copy fills the sides.
		s.SetBlur(64)
		s.Image(frame, render.Rect{W: w, H: h}, render.NoTint)
		s.SetBlur(0)
		s.Rect(render.Rect{W: w, H: h}, render.Filled(render.WithAlpha(render.Black, 128)))
		s.Image(frame, o.view.Bounds(), render.NoTint)
	}

	o.orb.Draw(s, o.view)

	for _, p := range o.machine.session.poses() {
		drawSkeleton(s, o.view, p, skeletonStyle{
			bone:      render.Stroked(render.WithAlpha(render.Black, 128), 10),
			joint:     render.Style{Fill: render.White, Stroke: render.Black, StrokeWidth: 2},
			jointSize: 10,
		})
	}

	// Hint layout is in 640x480 units scaled to the frame.
	unit := o.height / defaultFrameHeight
	tl := o.view.Map(50*unit, o.height*0.75)
	box := render.Rect{X: tl.X, Y: tl.Y, W: o.view.Length(o.width - 100*unit), H: o.view.Length(o.height/4 - 30*unit)}
	panel(s, box, render.Style{Fill: render.WithAlpha(render.White, 96), Stroke: render.White, StrokeWidth: 1, Radius: 16})
	s.Text(onboardingHint, box.Center(), o.view.Length(18*unit), render.AlignCenter, render.White)
}

func (o *Onboarding) HandleKey(rune) {}
