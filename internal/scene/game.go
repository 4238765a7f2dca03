package scene

import (
	"fmt"
	"image/color"
	"log"
	"math"

	"github.com/ayusman/superimpose/internal/pose"
	"github.com/ayusman/superimpose/internal/render"
	"github.com/ayusman/superimpose/internal/target"
)

// Game is one play session: walls with pose-shaped holes approach and the
// player has to fit through each one.
type Game struct {
	machine *Machine
	manager *target.Manager
	// view maps the webcam frame onto the road, slightly shrunk so the
	// player stands on it.
	view   render.View
	width  float64
	height float64
	over   bool
}

// NewGame creates a game with a fresh score and full lives.
func NewGame(m *Machine) *Game {
	s := m.session
	var profiles target.ProfileSource
	if s.Calibration != nil {
		profiles = s.Calibration
	}
	gen := s.Generator
	if gen == nil {
		gen = pose.NewGenerator(pose.DefaultGeneratorConfig(), nil)
	}
	cfg := s.Targets
	if cfg == (target.Config{}) {
		cfg = target.DefaultConfig()
	}
	w, h := s.frameSize()
	return &Game{
		machine: m,
		manager: target.NewManager(cfg, gen, profiles, s.Cutouts, s.player()),
		view:    render.FitView(w, h, 0.9),
		width:   w,
		height:  h,
	}
}

// Manager returns the game's target manager.
func (g *Game) Manager() *target.Manager { return g.manager }

func (g *Game) Update() {
	if g.over {
		return
	}

	if g.manager.Tick(g.machine.session.poses()) != target.OutcomeGameOver {
		return
	}

	g.over = true
	score := g.manager.Score()
	g.machine.lastScore = score
	if scores := g.machine.session.Scores; scores != nil {
		if err := scores.Record(score, g.manager.Ticks()); err != nil {
			log.Printf("Failed to record score %d: %v", score, err)
		}
	}
	log.Printf("Game over with score %d", score)
	g.machine.TransitionTo(NameMainMenu, g.machine.session.style(), true)
}

func (g *Game) Draw(s render.Surface) {
	w, h := s.Size()

	s.Clear(render.LightBlue)
	s.Rect(render.Rect{Y: h / 2, W: w, H: h / 2}, render.Filled(render.Grass))
	s.Polygon([]render.Point{render.Pt(100, h), render.Pt(w-100, h), render.Pt(w/2, h/2)}, render.Filled(render.Road))

	g.drawTargets(s)

	cfg := g.manager.Config()
	player := skeletonStyle{
		outline:   render.Stroked(render.Black, cfg.Thickness+1),
		bone:      render.Stroked(render.White, cfg.Thickness-1),
		joint:     render.Style{Fill: render.White, Stroke: render.Black, StrokeWidth: 2},
		jointSize: cfg.Thickness,
	}
	for _, p := range g.machine.session.poses() {
		drawSkeleton(s, g.view, p, player)
	}

	g.drawHUD(s, w)
}

// tint returns the colour a target is drawn in: green while the player
// matches the frontmost target, red otherwise.
func (g *Game) tint(t *target.Target, front bool, alpha float64) color.RGBA {
	c := render.Red
	if front && t.Matched {
		c = render.Green
	}
	return render.WithAlpha(c, uint8(math.Round(255*math.Max(0, math.Min(1, alpha)))))
}

func (g *Game) drawTargets(s render.Surface) {
	targets := g.manager.Targets()
	cfg := g.manager.Config()
	centre := g.view.Origin

	// Back to front.
	for i := len(targets) - 1; i >= 0; i-- {
		t := targets[i]
		scale := cfg.Scale(t.Distance) * g.view.Scale
		dst := render.Rect{
			X: centre.X - g.width*scale/2,
			Y: centre.Y - g.height*scale/2,
			W: g.width * scale,
			H: g.height * scale,
		}
		tint := g.tint(t, i == 0, cfg.Fade(t.Distance))
		if t.Cutout != nil {
			s.Image(t.Cutout, dst, tint)
			continue
		}
		g.drawOutline(s, t, render.View{SrcWidth: g.width, SrcHeight: g.height, Origin: centre, Scale: scale}, tint)
	}
}

// drawOutline stands in for a missing cutout.
func (g *Game) drawOutline(s render.Surface, t *target.Target, view render.View, c color.RGBA) {
	cfg := g.manager.Config()
	width := view.Length(cfg.Margin + cfg.Thickness)
	for _, conn := range t.Pose.Connections() {
		a, b := t.Pose[conn.A], t.Pose[conn.B]
		s.Line(view.Map(a.X, a.Y), view.Map(b.X, b.Y), render.Stroked(c, width))
	}
}

func (g *Game) drawHUD(s render.Surface, w float64) {
	panel(s, render.Rect{X: 50, Y: 50, W: 250, H: 200}, render.Filled(render.WithAlpha(render.Black, 128)))
	s.Text(fmt.Sprintf("Score: %d", g.manager.Score()), render.Pt(75, 100), 48, render.AlignLeft, render.White)
	s.Text(fmt.Sprintf("Lives: %d", g.manager.Lives()), render.Pt(75, 175), 48, render.AlignLeft, render.White)

	cfg := g.manager.Config()
	// The preview is half a default frame wide, in the frame's aspect.
	previewW := defaultFrameWidth / 2.0
	previewH := previewW * g.height / g.width
	origin := render.Pt(w-previewW-50, 50)
	box := render.Rect{X: origin.X - 100, Y: origin.Y, W: previewW + 100, H: previewH + 150}

	fill := render.WithAlpha(render.Black, 128)
	if fb, ok := g.manager.RecentFeedback(); ok {
		flash := color.RGBA{G: 255, A: 128}
		if !fb.Cleared {
			flash = color.RGBA{R: 255, A: 128}
		}
		fill = render.Lerp(flash, fill, fb.Progress(cfg.FeedbackTicks))
	}
	panel(s, box, render.Filled(fill))
	s.Text("Upcoming Pose", render.Pt(box.X+box.W/2, origin.Y+50), 48, render.AlignCenter, render.White)

	preview := render.Rect{X: origin.X - 50, Y: origin.Y + 100, W: previewW, H: previewH}
	if front, ok := g.manager.Front(); ok {
		tint := g.tint(front, true, front.Distance/10)
		if front.Cutout != nil {
			s.Image(front.Cutout, preview, tint)
		} else {
			g.drawOutline(s, front, g.previewView(preview), tint)
		}
	}

	mini := skeletonStyle{
		outline:   render.Stroked(render.Black, cfg.Thickness+1),
		bone:      render.Stroked(render.White, cfg.Thickness-1),
		joint:     render.Style{Fill: render.White, Stroke: render.Black, StrokeWidth: 2},
		jointSize: cfg.Thickness,
	}
	for _, p := range g.machine.session.poses() {
		drawSkeleton(s, g.previewView(preview), p, mini)
	}
}

func (g *Game) previewView(r render.Rect) render.View {
	return render.View{
		SrcWidth:  g.width,
		SrcHeight: g.height,
		Origin:    r.Center(),
		Scale:     r.W / g.width,
	}
}

func (g *Game) HandleKey(rune) {}
