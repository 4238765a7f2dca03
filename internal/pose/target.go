// Package pose generates target poses and matches live poses against them.
package pose

import (
	"github.com/ayusman/superimpose/internal/detector"
)

// Target is a generated pose the player has to match, keyed by body part.
// It covers exactly the parts in TargetParts.
type Target map[detector.Part]detector.Point

// TargetParts are the body parts a Target positions.
var TargetParts = []detector.Part{
	detector.Nose,
	detector.LeftShoulder, detector.RightShoulder,
	detector.LeftHip, detector.RightHip,
	detector.LeftElbow, detector.RightElbow,
	detector.LeftWrist, detector.RightWrist,
}

// Fallback returns the fixed pose used when generation runs out of attempts.
func Fallback() Target {
	return Target{
		detector.Nose:          {X: 320, Y: 165},
		detector.LeftShoulder:  {X: 275, Y: 215},
		detector.RightShoulder: {X: 365, Y: 215},
		detector.LeftHip:       {X: 295, Y: 365},
		detector.RightHip:      {X: 345, Y: 365},
		detector.LeftElbow:     {X: 220, Y: 255},
		detector.RightElbow:    {X: 420, Y: 255},
		detector.LeftWrist:     {X: 200, Y: 200},
		detector.RightWrist:    {X: 440, Y: 200},
	}
}

// Connections returns the skeletal connections whose ends are both in t.
func (t Target) Connections() []detector.Connection {
	var out []detector.Connection
	for _, c := range detector.Skeleton() {
		_, okA := t[c.A]
		_, okB := t[c.B]
		if okA && okB {
			out = append(out, c)
		}
	}
	return out
}

// HigherHipY returns the y of whichever hip is higher on screen (smaller y).
func (t Target) HigherHipY() float64 {
	l, r := t[detector.LeftHip].Y, t[detector.RightHip].Y
	if l < r {
		return l
	}
	return r
}

// AsPose converts t to a fully confident live pose, as a perfect player would
// produce.
func (t Target) AsPose() detector.Pose {
	p := make(detector.Pose, len(t))
	for part, pt := range t {
		p[part] = detector.Keypoint{X: pt.X, Y: pt.Y, Confidence: 1}
	}
	return p
}
