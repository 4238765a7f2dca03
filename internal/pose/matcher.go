package pose

import (
	"math"

	"github.com/ayusman/superimpose/internal/detector"
)

// MatchConfidence is the lowest keypoint confidence the matcher accepts.
const MatchConfidence = 0.25

// Matcher decides whether a live pose fits a target pose. Matching is all or
// nothing: every target part must be confidently detected and within
// tolerance on both axes.
type Matcher struct {
	minConfidence float64
}

// NewMatcher creates a Matcher using MatchConfidence.
func NewMatcher() *Matcher {
	return &Matcher{minConfidence: MatchConfidence}
}

// Matches reports whether live fits target. The tolerance on each axis,
// independently, is margin + thickness.
func (m *Matcher) Matches(target Target, live detector.Pose, margin, thickness float64) bool {
	if live == nil {
		return false
	}

	tolerance := margin + thickness
	for part, want := range target {
		got, ok := live[part]
		if !ok || got.Confidence < m.minConfidence {
			return false
		}
		if math.Abs(want.X-got.X) > tolerance || math.Abs(want.Y-got.Y) > tolerance {
			return false
		}
	}

	return true
}

// MatchesSnapshot is Matches against the primary pose of a detection
// snapshot. An empty snapshot never matches.
func (m *Matcher) MatchesSnapshot(target Target, poses []detector.Pose, margin, thickness float64) bool {
	live, ok := detector.Primary(poses)
	if !ok {
		return false
	}
	return m.Matches(target, live, margin, thickness)
}
