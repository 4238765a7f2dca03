package pose

import (
	"math"
	"math/rand"
	"time"

	"github.com/ayusman/superimpose/internal/body"
	"github.com/ayusman/superimpose/internal/detector"
)

// GeneratorConfig holds the geometric limits of generated poses.
type GeneratorConfig struct {
	// FrameWidth and FrameHeight are the webcam frame dimensions poses live in.
	FrameWidth  float64
	FrameHeight float64

	// OuterMargin is the fraction of the frame kept clear on every side.
	OuterMargin float64

	// NoseBand is the fraction of the width, centred, the nose is placed in.
	NoseBand float64

	// NoseJitter is how far the nose may stray vertically from the profile height.
	NoseJitter float64

	// MaxLean is the largest torso lean in radians, either way.
	MaxLean float64

	// MinGap is the smallest allowed distance from a wrist to the nose or the other wrist.
	MinGap float64

	// PartAttempts is how many times one constrained joint is resampled
	// before the whole pose starts over.
	PartAttempts int

	// MaxRestarts is how many times a pose may start over before the
	// fallback pose is returned.
	MaxRestarts int
}

// DefaultGeneratorConfig returns the limits for a 640x480 webcam frame.
func DefaultGeneratorConfig() GeneratorConfig {
	return GeneratorConfig{
		FrameWidth:   640,
		FrameHeight:  480,
		OuterMargin:  0.1,
		NoseBand:     0.25,
		NoseJitter:   25,
		MaxLean:      math.Pi / 12,
		MinGap:       50,
		PartAttempts: 10,
		MaxRestarts:  100,
	}
}

// Box is an axis-aligned region, inclusive on every edge.
type Box struct {
	MinX, MaxX, MinY, MaxY float64
}

// Contains reports whether p lies inside the box.
func (b Box) Contains(p detector.Point) bool {
	return p.X >= b.MinX && p.X <= b.MaxX && p.Y >= b.MinY && p.Y <= b.MaxY
}

// Stats describes how a pose was produced.
type Stats struct {
	// Restarts is how many times generation started over from the nose.
	Restarts int
	// Samples is the total number of joint positions sampled.
	Samples int
	// Fallback is set when the attempt budget ran out.
	Fallback bool
}

// Generator synthesizes random target poses scaled to a body profile using
// rejection sampling with bounded retries. A Generator is not safe for
// concurrent use.
type Generator struct {
	config GeneratorConfig
	rng    *rand.Rand
}

// NewGenerator creates a Generator. A nil rng seeds one from the clock.
func NewGenerator(config GeneratorConfig, rng *rand.Rand) *Generator {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if config.PartAttempts <= 0 {
		config.PartAttempts = 1
	}
	if config.MaxRestarts < 0 {
		config.MaxRestarts = 0
	}
	return &Generator{config: config, rng: rng}
}

// Config returns the generator limits.
func (g *Generator) Config() GeneratorConfig {
	return g.config
}

// PlayBox returns the region constrained joints must land in, before the
// per-pose hip clamp is applied.
func (g *Generator) PlayBox() Box {
	c := g.config
	return Box{
		MinX: c.FrameWidth * c.OuterMargin,
		MaxX: c.FrameWidth * (1 - c.OuterMargin),
		MinY: c.FrameHeight * c.OuterMargin,
		MaxY: c.FrameHeight * (1 - c.OuterMargin),
	}
}

// Generate returns a random pose for the profile. It never fails: when the
// attempt budget is exhausted it returns Fallback().
func (g *Generator) Generate(p body.Profile) Target {
	t, _ := g.GenerateWithStats(p)
	return t
}

// GenerateWithStats is Generate, also reporting how the pose was produced.
func (g *Generator) GenerateWithStats(p body.Profile) (Target, Stats) {
	var stats Stats
	for attempt := 0; attempt <= g.config.MaxRestarts; attempt++ {
		stats.Restarts = attempt
		if t, ok := g.attempt(p, &stats); ok {
			return t, stats
		}
	}
	stats.Fallback = true
	return Fallback(), stats
}

func (g *Generator) uniform(lo, hi float64) float64 {
	return lo + g.rng.Float64()*(hi-lo)
}

// attempt builds one pose from the nose outwards. It reports false when a
// constrained joint could not be placed within PartAttempts samples.
func (g *Generator) attempt(p body.Profile, stats *Stats) (Target, bool) {
	c := g.config
	t := make(Target, len(TargetParts))

	nose := detector.Point{
		X: g.uniform(0.5-c.NoseBand/2, 0.5+c.NoseBand/2) * c.FrameWidth,
		Y: p.NoseY + g.uniform(-c.NoseJitter, c.NoseJitter),
	}
	t[detector.Nose] = nose

	// The lean rotates the whole torso about the nose. Down the body is
	// (sin, cos); across it, left to right, is (cos, -sin).
	lean := g.uniform(-c.MaxLean, c.MaxLean)
	down := detector.Point{X: math.Sin(lean), Y: math.Cos(lean)}
	across := detector.Point{X: math.Cos(lean), Y: -math.Sin(lean)}
	halfWidth := p.ShoulderToShoulder / 2

	shoulderMid := offset(nose, down, p.NoseToShoulderMid)
	t[detector.LeftShoulder] = offset(shoulderMid, across, -halfWidth)
	t[detector.RightShoulder] = offset(shoulderMid, across, halfWidth)

	hipMid := offset(nose, down, p.NoseToShoulderMid+p.ShoulderMidToHipMid)
	t[detector.LeftHip] = offset(hipMid, across, -halfWidth)
	t[detector.RightHip] = offset(hipMid, across, halfWidth)

	box := g.PlayBox()
	box.MaxY = math.Min(box.MaxY, t.HigherHipY())

	inBox := box.Contains
	clearOfNose := func(q detector.Point) bool {
		return detector.Dist(q, nose) >= c.MinGap
	}

	leftElbow, leftElbowAngle, ok := g.place(t[detector.LeftShoulder], p.ShoulderToElbow,
		math.Pi/2+lean, 3*math.Pi/2+lean, inBox, stats)
	if !ok {
		return nil, false
	}
	t[detector.LeftElbow] = leftElbow

	rightElbow, rightElbowAngle, ok := g.place(t[detector.RightShoulder], p.ShoulderToElbow,
		-math.Pi/2+lean, math.Pi/2+lean, inBox, stats)
	if !ok {
		return nil, false
	}
	t[detector.RightElbow] = rightElbow

	leftWrist, _, ok := g.place(leftElbow, p.ElbowToWrist,
		1.25*math.Pi+leftElbowAngle, 2*math.Pi+leftElbowAngle,
		func(q detector.Point) bool { return inBox(q) && clearOfNose(q) }, stats)
	if !ok {
		return nil, false
	}
	t[detector.LeftWrist] = leftWrist

	rightWrist, _, ok := g.place(rightElbow, p.ElbowToWrist,
		rightElbowAngle, 0.75*math.Pi+rightElbowAngle,
		func(q detector.Point) bool {
			return inBox(q) && clearOfNose(q) && detector.Dist(q, leftWrist) >= c.MinGap
		}, stats)
	if !ok {
		return nil, false
	}
	t[detector.RightWrist] = rightWrist

	return t, true
}

// place samples a joint at radius from origin, at an angle in [lo, hi)
// measured anticlockwise on screen, until accept passes or the part's
// attempts run out.
func (g *Generator) place(origin detector.Point, radius, lo, hi float64, accept func(detector.Point) bool, stats *Stats) (detector.Point, float64, bool) {
	for i := 0; i < g.config.PartAttempts; i++ {
		stats.Samples++
		angle := g.uniform(lo, hi)
		q := detector.Point{
			X: origin.X + math.Cos(angle)*radius,
			Y: origin.Y - math.Sin(angle)*radius,
		}
		if accept(q) {
			return q, angle, true
		}
	}
	return detector.Point{}, 0, false
}

func offset(from, dir detector.Point, length float64) detector.Point {
	return detector.Point{X: from.X + dir.X*length, Y: from.Y + dir.Y*length}
}
