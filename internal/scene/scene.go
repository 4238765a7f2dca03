// Package scene sequences the game's screens: the main menu, onboarding
// with calibration, the game itself, and the animated transitions between
// them.
package scene

import (
	"image"
	"log"

	"github.com/ayusman/superimpose/internal/audio"
	"github.com/ayusman/superimpose/internal/body"
	"github.com/ayusman/superimpose/internal/detector"
	"github.com/ayusman/superimpose/internal/render"
	"github.com/ayusman/superimpose/internal/target"
)

// Scene is one screen of the game. All methods run on the game loop.
type Scene interface {
	Update()
	Draw(s render.Surface)
	HandleKey(r rune)
}

// Name identifies a scene.
type Name string

const (
	NameMainMenu   Name = "mainMenu"
	NameOnboarding Name = "onboarding"
	NameGame       Name = "game"
	NameTransition Name = "transition"
)

// Transition styles.
const (
	StyleSlash = "slash"
	StyleFade  = "fade"
)

// PoseSource supplies the latest detected poses.
type PoseSource interface {
	Poses() []detector.Pose
}

// FrameSource supplies the latest webcam frame for drawing. Frame returns
// nil when none is available.
type FrameSource interface {
	Frame() image.Image
}

// Scoreboard keeps finished games.
type Scoreboard interface {
	HighScore() (int, error)
	Record(score, ticks int) error
	Reset() error
}

// CalibrationLog keeps measured body profiles.
type CalibrationLog interface {
	Record(p body.Profile) error
}

// Session is what the scenes share. Frames, Calibrations and Cutouts are
// optional.
type Session struct {
	Poses        PoseSource
	Frames       FrameSource
	Calibration  *body.Calibration
	Player       audio.Player
	Scores       Scoreboard
	Calibrations CalibrationLog
	Generator    target.Generator
	Cutouts      target.Silhouetter
	Targets      target.Config
	// FrameWidth and FrameHeight are the webcam frame size poses and
	// frames are reported in. Zero means 640x480.
	FrameWidth  float64
	FrameHeight float64
	// TransitionStyle is the style used between scenes.
	TransitionStyle string
}

func (s *Session) poses() []detector.Pose {
	if s.Poses == nil {
		return nil
	}
	return s.Poses.Poses()
}

func (s *Session) frameSize() (float64, float64) {
	if s.FrameWidth <= 0 || s.FrameHeight <= 0 {
		return defaultFrameWidth, defaultFrameHeight
	}
	return s.FrameWidth, s.FrameHeight
}

func (s *Session) frame() image.Image {
	if s.Frames == nil {
		return nil
	}
	return s.Frames.Frame()
}

func (s *Session) player() audio.Player {
	if s.Player == nil {
		return audio.Nop{}
	}
	return s.Player
}

func (s *Session) highScore() int {
	if s.Scores == nil {
		return 0
	}
	best, err := s.Scores.HighScore()
	if err != nil {
		log.Printf("Failed to read high score: %v", err)
		return 0
	}
	return best
}

func (s *Session) style() string {
	if s.TransitionStyle == "" {
		return StyleSlash
	}
	return s.TransitionStyle
}

// Factory constructs a fresh scene.
type Factory func(m *Machine) Scene

// Status is a point-in-time summary of the game for display elsewhere.
type Status struct {
	Scene     Name `json:"scene"`
	Score     int  `json:"score"`
	Lives     int  `json:"lives"`
	HighScore int  `json:"high_score"`
}

// Machine owns the scenes and which one is current. It is not safe for
// concurrent use.
type Machine struct {
	session   *Session
	factories map[Name]Factory
	scenes    map[Name]Scene
	effects   map[string]Effect
	current   Scene
	name      Name
	lastScore int
}

// NewMachine creates a Machine with the standard scenes and the fade effect
// registered. Call Start to enter the main menu.
func NewMachine(session *Session) *Machine {
	m := &Machine{
		session:   session,
		factories: make(map[Name]Factory),
		scenes:    make(map[Name]Scene),
		effects:   make(map[string]Effect),
	}
	m.Register(NameMainMenu, func(m *Machine) Scene { return NewMainMenu(m) })
	m.Register(NameOnboarding, func(m *Machine) Scene { return NewOnboarding(m) })
	m.Register(NameGame, func(m *Machine) Scene { return NewGame(m) })
	m.RegisterEffect(StyleFade, FadeEffect(30))
	return m
}

// Session returns the shared session.
func (m *Machine) Session() *Session { return m.session }

// Register sets the factory for a scene name.
func (m *Machine) Register(name Name, f Factory) {
	m.factories[name] = f
}

// RegisterEffect sets the effect played for a transition style.
func (m *Machine) RegisterEffect(style string, e Effect) {
	m.effects[style] = e
}

// Start enters a fresh main menu.
func (m *Machine) Start() {
	m.SwitchTo(NameMainMenu, true)
}

// Current returns the current scene.
func (m *Machine) Current() Scene { return m.current }

// CurrentName returns the name of the current scene.
func (m *Machine) CurrentName() Name { return m.name }

// Scene returns the most recent instance of a named scene.
func (m *Machine) Scene(name Name) (Scene, bool) {
	s, ok := m.scenes[name]
	return s, ok
}

func (m *Machine) instantiate(name Name) (Scene, bool) {
	f, ok := m.factories[name]
	if !ok {
		return nil, false
	}
	s := f(m)
	m.scenes[name] = s
	return s, true
}

func (m *Machine) lookup(name Name, fresh bool) (Scene, bool) {
	if !fresh {
		if s, ok := m.scenes[name]; ok {
			return s, true
		}
	}
	return m.instantiate(name)
}

// SwitchTo makes a scene current immediately. With instantiate set, or when
// the scene was never built, a fresh instance is constructed first.
func (m *Machine) SwitchTo(name Name, instantiate bool) {
	s, ok := m.lookup(name, instantiate)
	if !ok {
		log.Printf("Unknown scene %q", name)
		return
	}
	m.current = s
	m.name = name
}

// TransitionTo starts an animated transition from the current scene to
// name. The incoming scene is constructed fresh when instantiate is set.
func (m *Machine) TransitionTo(name Name, style string, instantiate bool) {
	to, ok := m.lookup(name, instantiate)
	if !ok {
		log.Printf("Unknown scene %q", name)
		return
	}
	effect, known := m.effects[style]
	t := newTransition(m, m.current, to, name, style, effect, known)
	m.session.player().Play(audio.CueTransition)
	m.scenes[NameTransition] = t
	m.current = t
	m.name = NameTransition
}

// Update advances the current scene.
func (m *Machine) Update() {
	if m.current != nil {
		m.current.Update()
	}
}

// Draw paints the current scene.
func (m *Machine) Draw(s render.Surface) {
	if m.current != nil {
		m.current.Draw(s)
	}
}

// HandleKey forwards a key press to the current scene.
func (m *Machine) HandleKey(r rune) {
	if m.current != nil {
		m.current.HandleKey(r)
	}
}

// Status summarizes the current game state. Outside a game, the score is
// that of the last finished game.
func (m *Machine) Status() Status {
	st := Status{
		Scene:     m.name,
		Score:     m.lastScore,
		HighScore: m.session.highScore(),
	}
	if g, ok := m.current.(*Game); ok {
		st.Score = g.manager.Score()
		st.Lives = g.manager.Lives()
	}
	return st
}
