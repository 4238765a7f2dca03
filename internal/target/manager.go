// Package target runs the queue of approaching target poses: spawning,
// advancing, matching against the player and resolving each target as
// cleared or missed.
package target

import (
	"image"
	"log"
	"math"

	"github.com/google/uuid"

	"github.com/ayusman/superimpose/internal/audio"
	"github.com/ayusman/superimpose/internal/body"
	"github.com/ayusman/superimpose/internal/detector"
	"github.com/ayusman/superimpose/internal/pose"
)

// Config holds the gameplay tuning of a Manager.
type Config struct {
	// Capacity is the most targets in flight at once.
	Capacity int `toml:"capacity"`
	// InitialSpeed is the distance a target covers per tick at the start.
	InitialSpeed float64 `toml:"initial_speed"`
	// SpeedStep is added to the speed every tick.
	SpeedStep float64 `toml:"speed_step"`
	// StartDistance is where targets spawn.
	StartDistance float64 `toml:"start_distance"`
	// MatchLine is the distance a matched target is cleared past.
	MatchLine float64 `toml:"match_line"`
	// MissLine is the distance an unmatched target is missed past.
	MissLine float64 `toml:"miss_line"`
	// Lives is the number of misses that end the game.
	Lives int `toml:"lives"`
	// Margin and Thickness set the matching tolerance, and the width of the
	// cutout hole.
	Margin    float64 `toml:"margin"`
	Thickness float64 `toml:"thickness"`
	// Padding is how much wider the cutout outline is than the hole.
	Padding float64 `toml:"padding"`
	// FeedbackTicks is how long a resolved target stays reported by
	// RecentFeedback.
	FeedbackTicks int `toml:"feedback_ticks"`
}

// DefaultConfig returns the standard game tuning.
func DefaultConfig() Config {
	return Config{
		Capacity:      2,
		InitialSpeed:  0.01,
		SpeedStep:     0.00005,
		StartDistance: 100,
		MatchLine:     0,
		MissLine:      -5,
		Lives:         3,
		Margin:        35,
		Thickness:     10,
		Padding:       25,
		FeedbackTicks: 10,
	}
}

// Target is one approaching pose.
type Target struct {
	ID       string
	Pose     pose.Target
	Cutout   image.Image
	Distance float64
	Matched  bool
	// ClearedAt is the manager tick the target was resolved on, cleared or
	// missed. Zero while in flight.
	ClearedAt int
}

// Outcome is what Tick resolved.
type Outcome int

const (
	OutcomeNone Outcome = iota
	OutcomeCleared
	OutcomeLifeLost
	OutcomeGameOver
)

func (o Outcome) String() string {
	switch o {
	case OutcomeNone:
		return "none"
	case OutcomeCleared:
		return "cleared"
	case OutcomeLifeLost:
		return "life_lost"
	case OutcomeGameOver:
		return "game_over"
	default:
		return "unknown"
	}
}

// Generator produces target poses for a profile.
type Generator interface {
	Generate(p body.Profile) pose.Target
}

// ProfileSource supplies the current body profile.
type ProfileSource interface {
	Profile() body.Profile
}

// Silhouetter renders the wall-with-hole image of a target pose.
type Silhouetter interface {
	Build(t pose.Target) (image.Image, error)
}

// Feedback describes the most recently resolved target.
type Feedback struct {
	Target *Target
	// Cleared is false for a miss.
	Cleared bool
	// Age is how many ticks ago the target was resolved.
	Age int
}

// Progress returns how far through the feedback window the age is, in [0, 1].
func (f Feedback) Progress(window int) float64 {
	if window <= 0 {
		return 1
	}
	return math.Min(float64(f.Age)/float64(window), 1)
}

// Manager owns one game session's targets, score and lives. It is not safe
// for concurrent use; the game loop drives it.
type Manager struct {
	config   Config
	gen      Generator
	profiles ProfileSource
	cutouts  Silhouetter
	player   audio.Player
	matcher  *pose.Matcher

	queue    []*Target
	speed    float64
	score    int
	lives    int
	tick     int
	finished bool

	recent        *Target
	recentCleared bool
}

// NewManager creates a Manager for a fresh session. cutouts may be nil, in
// which case targets carry no image. A nil player plays nothing.
func NewManager(config Config, gen Generator, profiles ProfileSource, cutouts Silhouetter, player audio.Player) *Manager {
	if config.Capacity <= 0 {
		config.Capacity = 1
	}
	if player == nil {
		player = audio.Nop{}
	}
	return &Manager{
		config:   config,
		gen:      gen,
		profiles: profiles,
		cutouts:  cutouts,
		player:   player,
		matcher:  pose.NewMatcher(),
		speed:    config.InitialSpeed,
		lives:    config.Lives,
	}
}

// Config returns the manager tuning.
func (m *Manager) Config() Config { return m.config }

// Score returns the number of targets cleared this session.
func (m *Manager) Score() int { return m.score }

// Lives returns the remaining lives.
func (m *Manager) Lives() int { return m.lives }

// Speed returns the current per-tick distance.
func (m *Manager) Speed() float64 { return m.speed }

// Finished reports whether the game is over. A finished manager ignores Tick.
func (m *Manager) Finished() bool { return m.finished }

// Ticks returns how many ticks have been processed.
func (m *Manager) Ticks() int { return m.tick }

// Targets returns the in-flight targets, front first. The slice is a copy;
// the targets are shared.
func (m *Manager) Targets() []*Target {
	out := make([]*Target, len(m.queue))
	copy(out, m.queue)
	return out
}

// Front returns the frontmost target.
func (m *Manager) Front() (*Target, bool) {
	if len(m.queue) == 0 {
		return nil, false
	}
	return m.queue[0], true
}

// RecentFeedback returns the most recently resolved target while it is still
// within the feedback window.
func (m *Manager) RecentFeedback() (Feedback, bool) {
	if m.recent == nil {
		return Feedback{}, false
	}
	age := m.tick - m.recent.ClearedAt
	if age >= m.config.FeedbackTicks {
		return Feedback{}, false
	}
	return Feedback{Target: m.recent, Cleared: m.recentCleared, Age: age}, true
}

// Tick advances the session by one frame against the current detected poses.
func (m *Manager) Tick(poses []detector.Pose) Outcome {
	if m.finished {
		return OutcomeNone
	}
	m.tick++

	m.speed += m.config.SpeedStep

	if m.shouldSpawn() {
		m.spawn()
	}

	for _, t := range m.queue {
		t.Distance -= m.speed
	}

	front := m.queue[0]
	front.Matched = m.matcher.MatchesSnapshot(front.Pose, poses, m.config.Margin, m.config.Thickness)

	switch {
	case front.Matched && front.Distance < m.config.MatchLine:
		m.resolve(true)
		m.score++
		m.player.Play(audio.CueCleared)
		return OutcomeCleared

	case !front.Matched && front.Distance < m.config.MissLine:
		m.resolve(false)
		m.lives--
		if m.lives > 0 {
			m.player.Play(audio.CueLifeLost)
			return OutcomeLifeLost
		}
		m.lives = 0
		m.finished = true
		m.player.Play(audio.CueGameOver)
		return OutcomeGameOver
	}

	return OutcomeNone
}

func (m *Manager) shouldSpawn() bool {
	if len(m.queue) == 0 {
		return true
	}
	spacing := m.config.StartDistance - m.config.StartDistance/float64(m.config.Capacity)
	return len(m.queue) < m.config.Capacity && m.queue[len(m.queue)-1].Distance < spacing
}

func (m *Manager) spawn() {
	p := body.DefaultProfile()
	if m.profiles != nil {
		p = m.profiles.Profile()
	}

	t := &Target{
		ID:       uuid.New().String(),
		Pose:     m.gen.Generate(p),
		Distance: m.config.StartDistance,
	}
	if m.cutouts != nil {
		img, err := m.cutouts.Build(t.Pose)
		if err != nil {
			log.Printf("Failed to build cutout for target %s: %v", t.ID, err)
		} else {
			t.Cutout = img
		}
	}
	m.queue = append(m.queue, t)
}

func (m *Manager) resolve(cleared bool) {
	t := m.queue[0]
	m.queue[0] = nil
	m.queue = m.queue[1:]
	t.ClearedAt = m.tick
	m.recent = t
	m.recentCleared = cleared
}

// Scale returns the drawing scale of a target at distance d: 0 at
// StartDistance growing cubically to 1 at distance 0.
func (c Config) Scale(d float64) float64 {
	if c.StartDistance <= 0 {
		return 1
	}
	return math.Pow(1-d/c.StartDistance, 3)
}

// Fade returns the opacity of a target that has passed the match line, from
// 1 at the match line down to 0 at the miss line.
func (c Config) Fade(d float64) float64 {
	if d >= c.MatchLine {
		return 1
	}
	if d <= c.MissLine || c.MissLine >= c.MatchLine {
		return 0
	}
	return (d - c.MissLine) / (c.MatchLine - c.MissLine)
}
