// Package app runs Superimpose: the detection pipeline that turns webcam
// frames into poses and the fixed-rate game loop that plays the scenes on
// the terminal.
package app

import (
	"image"
	"log"
	"math/rand"
	"sync/atomic"
	"time"

	"github.com/ayusman/superimpose/internal/audio"
	"github.com/ayusman/superimpose/internal/body"
	"github.com/ayusman/superimpose/internal/capture"
	"github.com/ayusman/superimpose/internal/config"
	"github.com/ayusman/superimpose/internal/detector"
	"github.com/ayusman/superimpose/internal/pose"
	"github.com/ayusman/superimpose/internal/render"
	"github.com/ayusman/superimpose/internal/scene"
	"github.com/ayusman/superimpose/internal/store"
	"github.com/ayusman/superimpose/internal/target"
)

// SlashFrames is the number of masks in the slash transition.
const SlashFrames = 17

// Config holds the application configuration and optional collaborators.
// Nil collaborators are built from the configuration.
type Config struct {
	config.Config

	// NoCamera runs without a webcam; poses then only arrive through Feed,
	// typically from the websocket pose endpoint.
	NoCamera bool

	Store    *store.Store
	Camera   capture.Camera
	Detector detector.Detector
	Player   audio.Player
	// Masks overrides the generated slash transition masks.
	Masks []image.Image
}

// App orchestrates the detection pipeline and the game loop.
type App struct {
	config Config

	store    *store.Store
	ownStore bool

	camera   capture.Camera
	motion   *capture.MotionDetector
	gate     *capture.Gate
	detector detector.Detector
	feed     *detector.Feed
	frames   *capture.FrameBuffer

	calibration *body.Calibration
	player      audio.Player
	speaker     *audio.Speaker
	machine     *scene.Machine

	status     atomic.Pointer[scene.Status]
	paused     atomic.Bool
	fullscreen bool
	ticks      int
}

// New creates an App. Only a store that cannot be opened is an error;
// missing audio, camera or pose service degrade the game instead.
func New(cfg Config) (*App, error) {
	a := &App{
		config:      cfg,
		store:       cfg.Store,
		feed:        detector.NewFeed(),
		frames:      capture.NewFrameBuffer(),
		calibration: body.NewCalibration(),
		gate:        capture.NewGate(cfg.Motion),
	}

	if a.store == nil {
		st, err := store.NewMemory()
		if err != nil {
			return nil, err
		}
		a.store = st
		a.ownStore = true
	}

	a.player = cfg.Player
	if a.player == nil {
		a.player = a.openSpeaker()
	}

	if !cfg.NoCamera {
		a.camera = cfg.Camera
		if a.camera == nil {
			a.camera = capture.NewCamera(cfg.Config.Camera)
		}
		a.motion = capture.NewMotionDetector(cfg.Motion.Threshold)
		a.detector = cfg.Detector
		if a.detector == nil {
			a.detector = a.openDetector()
		}
	}

	a.machine = scene.NewMachine(a.session())
	a.registerEffects()
	a.machine.Start()
	a.publish()

	return a, nil
}

func (a *App) openSpeaker() audio.Player {
	if !a.config.Audio.Enabled {
		return audio.Nop{}
	}
	sp, err := audio.NewSpeaker(a.config.Audio.Config)
	if err != nil {
		log.Printf("Audio not available (%v), playing silently", err)
		return audio.Nop{}
	}
	a.speaker = sp
	return sp
}

func (a *App) openDetector() detector.Detector {
	dcfg := a.config.Config.Detector
	// The camera already mirrors frames.
	if a.config.Config.Camera.Mirror {
		dcfg.Mirror = false
	}
	d, err := detector.NewServiceDetector(dcfg)
	if err != nil {
		log.Printf("Pose service not available (%v), waiting for poses over the websocket", err)
		return nil
	}
	log.Println("Using the pose model service")
	return d
}

func (a *App) session() *scene.Session {
	cam := a.config.Config.Camera

	var rng *rand.Rand
	if a.config.Seed != 0 {
		rng = rand.New(rand.NewSource(a.config.Seed))
	}
	gcfg := pose.DefaultGeneratorConfig()
	gcfg.FrameWidth, gcfg.FrameHeight = float64(cam.Width), float64(cam.Height)

	return &scene.Session{
		Poses:           a.feed,
		Frames:          a.frames,
		Calibration:     a.calibration,
		Player:          a.player,
		Scores:          a.store.Results(),
		Calibrations:    a.store.Calibrations(),
		Generator:       pose.NewGenerator(gcfg, rng),
		Cutouts:         target.NewCutoutRenderer(cam.Width, cam.Height, a.config.Game),
		Targets:         a.config.Game,
		FrameWidth:      float64(cam.Width),
		FrameHeight:     float64(cam.Height),
		TransitionStyle: a.config.Transition,
	}
}

func (a *App) registerEffects() {
	masks := a.config.Masks
	if masks == nil {
		var err error
		masks, err = render.SlashMasks(render.CanvasWidth/6, render.CanvasHeight/6, SlashFrames)
		if err != nil {
			log.Printf("Failed to build slash masks, transitions will cut: %v", err)
			return
		}
	}
	a.machine.RegisterEffect(scene.StyleSlash, scene.SlashEffect(masks))
}

// Feed returns the pose feed the pipeline and the websocket publish to.
func (a *App) Feed() *detector.Feed { return a.feed }

// Frames returns the latest webcam frames.
func (a *App) Frames() *capture.FrameBuffer { return a.frames }

// Store returns the session store.
func (a *App) Store() *store.Store { return a.store }

// Machine returns the scene machine. It must only be used on the game loop.
func (a *App) Machine() *scene.Machine { return a.machine }

// Calibration returns the player's body calibration.
func (a *App) Calibration() *body.Calibration { return a.calibration }

// Status returns the game state as of the last tick. It is safe to call
// from any goroutine.
func (a *App) Status() scene.Status {
	return *a.status.Load()
}

func (a *App) publish() {
	st := a.machine.Status()
	a.status.Store(&st)
}

// SetPaused stops or resumes the game. A paused game still draws.
func (a *App) SetPaused(paused bool) {
	a.paused.Store(paused)
	if paused {
		log.Println("Game paused")
	} else {
		log.Println("Game resumed")
	}
}

// Paused reports whether the game is paused.
func (a *App) Paused() bool { return a.paused.Load() }

// Fullscreen reports whether the status line is hidden.
func (a *App) Fullscreen() bool { return a.fullscreen }

// Ticks returns the number of game ticks run.
func (a *App) Ticks() int { return a.ticks }

// Tick advances the game one step. Nothing moves until the first poses
// arrive or while paused.
func (a *App) Tick() {
	if a.paused.Load() || !a.feed.Started() {
		return
	}
	a.machine.Update()
	a.ticks++
	a.publish()
}

// HandleKey reacts to a key press and reports whether the app should quit.
// 'q' quits and 'f' toggles the status line; other keys go to the scene.
func (a *App) HandleKey(r rune) (quit bool) {
	switch r {
	case 'q':
		return true
	case 'f':
		a.fullscreen = !a.fullscreen
		return false
	}
	if a.feed.Started() && !a.paused.Load() {
		a.machine.HandleKey(r)
		a.publish()
	}
	return false
}

// Draw paints the current frame: a waiting screen until the detector
// delivers, the current scene after.
func (a *App) Draw(s render.Surface) {
	if !a.feed.Started() {
		drawWaiting(s)
		return
	}
	a.machine.Draw(s)
	if a.paused.Load() {
		w, h := s.Size()
		s.Rect(render.Rect{W: w, H: h}, render.Filled(render.WithAlpha(render.Black, 160)))
		s.Text("PAUSED", render.Pt(w/2, h/2), 96, render.AlignCenter, render.White)
	}
}

func drawWaiting(s render.Surface) {
	w, h := s.Size()
	s.Clear(render.Black)
	dots := ".  "
	switch time.Now().UnixMilli() / 400 % 3 {
	case 1:
		dots = ".. "
	case 2:
		dots = "..."
	}
	s.Text("Waiting for the pose detector"+dots, render.Pt(w/2, h/2-40), 56, render.AlignCenter, render.White)
	s.Text("Step in front of the camera", render.Pt(w/2, h/2+40), 36, render.AlignCenter, render.LightGray)
}

// Close stops using the camera, detector, speaker and, if the app opened
// it, the store.
func (a *App) Close() error {
	if a.camera != nil {
		if err := a.camera.Close(); err != nil {
			log.Printf("Error closing camera: %v", err)
		}
	}
	if a.motion != nil {
		a.motion.Close()
	}
	if a.detector != nil {
		if err := a.detector.Close(); err != nil {
			log.Printf("Error closing detector: %v", err)
		}
	}
	if a.speaker != nil {
		if err := a.speaker.Close(); err != nil {
			log.Printf("Error closing speaker: %v", err)
		}
	}
	if a.ownStore {
		return a.store.Close()
	}
	return nil
}
