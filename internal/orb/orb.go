// Package orb implements the dwell-to-activate button: a disc on screen that
// fires its action after a tracked body part has rested on it long enough.
package orb

import (
	"math"

	"github.com/ayusman/superimpose/internal/detector"
	"github.com/ayusman/superimpose/internal/render"
)

// State is the activation state of an Orb.
type State int

const (
	// Idle is an empty orb with nothing on it.
	Idle State = iota
	// Filling is an orb the tracked part is resting on.
	Filling
	// Saturated is a full orb about to fire.
	Saturated
	// Fired is a full orb whose action has run. It stays fired until the
	// tracked part leaves.
	Fired
	// Draining is an orb the tracked part has left, emptying one step per
	// tick.
	Draining
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Filling:
		return "filling"
	case Saturated:
		return "saturated"
	case Fired:
		return "fired"
	case Draining:
		return "draining"
	default:
		return "unknown"
	}
}

// Config describes an orb. Center and Radius are in webcam frame space;
// the orb is drawn with Radius as its diameter and is entered within half of
// it.
type Config struct {
	Label  string
	Center detector.Point
	Radius float64
	// Total is how many ticks of contact fill the orb.
	Total int
	// Part is the body part that activates the orb.
	Part detector.Part
}

// Orb fills while its tracked part rests on it and calls its action once per
// full contact. It is not safe for concurrent use.
type Orb struct {
	config     Config
	onComplete func()
	completion int
	fired      bool
	state      State
}

// New creates an orb. A Total below one is treated as one.
func New(config Config, onComplete func()) *Orb {
	if config.Total < 1 {
		config.Total = 1
	}
	if config.Part == "" {
		config.Part = detector.RightWrist
	}
	return &Orb{config: config, onComplete: onComplete}
}

// Config returns the orb configuration.
func (o *Orb) Config() Config { return o.config }

// State returns the current activation state.
func (o *Orb) State() State { return o.state }

// Completion returns the number of filled ticks.
func (o *Orb) Completion() int { return o.completion }

// Fired reports whether the action has run for the current contact.
func (o *Orb) Fired() bool { return o.fired }

// Progress returns how full the orb is, in [0, 1]. A fired orb is full.
func (o *Orb) Progress() float64 {
	if o.fired {
		return 1
	}
	return float64(o.completion) / float64(o.config.Total)
}

// Contains reports whether p is close enough to the centre to count as
// contact.
func (o *Orb) Contains(p detector.Point) bool {
	return detector.Dist(p, o.config.Center) <= o.config.Radius/2
}

// Update advances the orb by one tick against the current poses. Without a
// pose, or when the primary pose lacks the tracked part, nothing changes.
func (o *Orb) Update(poses []detector.Pose) {
	live, ok := detector.Primary(poses)
	if !ok {
		return
	}
	kp, ok := live[o.config.Part]
	if !ok {
		return
	}

	if o.Contains(kp.Pt()) {
		if o.completion < o.config.Total {
			o.completion++
			o.state = Filling
		}
		if o.completion == o.config.Total && !o.fired {
			o.state = Saturated
			o.fired = true
			if o.onComplete != nil {
				o.onComplete()
			}
			o.state = Fired
		}
		return
	}

	if o.completion > 0 {
		o.fired = false
		o.completion--
		o.state = Draining
	}
	if o.completion == 0 {
		o.state = Idle
	}
}

// Draw paints the orb through view: a translucent teal disc, a progress arc
// clockwise from the top, and the label.
func (o *Orb) Draw(s render.Surface, view render.View) {
	c := view.Map(o.config.Center.X, o.config.Center.Y)
	r := view.Length(o.config.Radius / 2)

	s.Circle(c, r, render.Style{
		Fill:        render.WithAlpha(render.Teal, 128),
		Stroke:      render.Teal,
		StrokeWidth: 2,
	})

	if p := o.Progress(); p > 0 {
		start := -math.Pi / 2
		s.Arc(c, r+view.Length(7.5), start, start+p*2*math.Pi, render.Stroked(render.Cyan, 10))
	}

	s.Text(o.config.Label, c, 48, render.AlignCenter, render.White)
}
