package scene

import (
	"fmt"
	"log"

	"github.com/ayusman/superimpose/internal/render"
)

// noticeTicks is how long the reset confirmation stays up, about a second.
const noticeTicks = 60

// MainMenu shows the title and high score. 'p' starts onboarding and 'r'
// asks to reset the high score.
type MainMenu struct {
	machine *Machine
	popup   bool
	notice  int
}

// NewMainMenu creates the main menu.
func NewMainMenu(m *Machine) *MainMenu {
	return &MainMenu{machine: m}
}

// PopupOpen reports whether the reset confirmation is being asked.
func (mm *MainMenu) PopupOpen() bool { return mm.popup }

// NoticeShown reports whether the reset notice is visible.
func (mm *MainMenu) NoticeShown() bool { return mm.notice > 0 }

func (mm *MainMenu) Update() {
	if mm.notice > 0 {
		mm.notice--
	}
}

func (mm *MainMenu) Draw(s render.Surface) {
	w, h := s.Size()
	blurred := mm.popup || mm.notice > 0
	if blurred {
		s.SetBlur(8)
	}

	s.Clear(render.LightBlue)
	s.Rect(render.Rect{Y: h / 2, W: w, H: h / 2}, render.Filled(render.Grass))
	s.Polygon([]render.Point{render.Pt(100, h), render.Pt(w-100, h), render.Pt(w/2, h/2)}, render.Filled(render.Road))

	s.Text("SUPERIMPOSE", render.Pt(w/2, 0.25*h), 128, render.AlignCenter, render.White)
	s.Text("Fit your body through the oncoming walls", render.Pt(w/2, 0.35*h), 40, render.AlignCenter, render.WithAlpha(render.White, 220))

	label := fmt.Sprintf("High Score: %d", mm.machine.session.highScore())
	panel(s, render.Rect{X: 50, Y: 0.55 * h, W: float64(len(label))*20 + 100, H: 0.1 * h}, render.Filled(render.WithAlpha(render.Black, 96)))
	s.Text(label, render.Pt(100, 0.6*h), 32, render.AlignLeft, render.WithAlpha(render.White, 192))

	s.Text("Press P to play   R to reset   F fullscreen   Q quit", render.Pt(w/2, 0.9*h), 32, render.AlignCenter, render.White)

	if blurred {
		s.SetBlur(0)
	}

	box := render.Rect{X: w/2 - 400, Y: h/2 - 150, W: 800, H: 300}
	switch {
	case mm.popup:
		panel(s, box, render.Style{Fill: render.WithAlpha(render.Black, 192), Stroke: render.White, StrokeWidth: 4})
		s.Text("Reset the high score?", render.Pt(w/2, h/2-40), 56, render.AlignCenter, render.White)
		s.Text("Y to reset   N to cancel", render.Pt(w/2, h/2+60), 36, render.AlignCenter, render.White)
	case mm.notice > 0:
		panel(s, box, render.Style{Fill: render.WithAlpha(render.Black, 192), Stroke: render.White, StrokeWidth: 4})
		s.Text("High score reset", render.Pt(w/2, h/2), 56, render.AlignCenter, render.White)
	}
}

func (mm *MainMenu) HandleKey(r rune) {
	if mm.popup {
		switch r {
		case 'n':
			mm.popup = false
			mm.notice = 0
		case 'y':
			mm.popup = false
			mm.notice = noticeTicks
			mm.machine.lastScore = 0
			if scores := mm.machine.session.Scores; scores != nil {
				if err := scores.Reset(); err != nil {
					log.Printf("Failed to reset scores: %v", err)
				}
			}
		}
		return
	}

	switch r {
	case 'p':
		mm.machine.TransitionTo(NameOnboarding, mm.machine.session.style(), true)
	case 'r':
		mm.popup = true
	}
}
