// Package body measures a player's skeletal proportions for scaling generated poses.
package body

import (
	"sync"

	"github.com/ayusman/superimpose/internal/detector"
)

// Profile holds the segment lengths of a calibrated player, in webcam frame
// pixels, plus the height of their nose when standing.
type Profile struct {
	NoseY               float64 `json:"nose_y"`
	NoseToShoulderMid   float64 `json:"nose_shoulder_mid"`
	ShoulderToShoulder  float64 `json:"shoulder_shoulder"`
	ShoulderToElbow     float64 `json:"shoulder_elbow"`
	ElbowToWrist        float64 `json:"elbow_wrist"`
	ShoulderMidToHipMid float64 `json:"shoulder_mid_hip_mid"`
}

// DefaultProfile returns the proportions used until a player calibrates.
func DefaultProfile() Profile {
	return Profile{
		NoseY:               165,
		NoseToShoulderMid:   50,
		ShoulderToShoulder:  90,
		ShoulderToElbow:     70,
		ElbowToWrist:        60,
		ShoulderMidToHipMid: 150,
	}
}

// Valid reports whether every segment length is non-negative.
func (p Profile) Valid() bool {
	return p.NoseToShoulderMid >= 0 && p.ShoulderToShoulder >= 0 &&
		p.ShoulderToElbow >= 0 && p.ElbowToWrist >= 0 && p.ShoulderMidToHipMid >= 0
}

var measured = []detector.Part{
	detector.Nose,
	detector.LeftShoulder, detector.RightShoulder,
	detector.LeftElbow, detector.RightElbow,
	detector.LeftWrist, detector.RightWrist,
	detector.LeftHip, detector.RightHip,
}

// Measure builds a Profile from the primary pose of a detection snapshot.
// It returns false when nobody is detected or the pose lacks a measured part,
// in which case callers keep their current profile.
func Measure(poses []detector.Pose) (Profile, bool) {
	pose, ok := detector.Primary(poses)
	if !ok {
		return Profile{}, false
	}

	pt := make(map[detector.Part]detector.Point, len(measured))
	for _, part := range measured {
		p, ok := pose.Point(part)
		if !ok {
			return Profile{}, false
		}
		pt[part] = p
	}

	shoulderMid := detector.Midpoint(pt[detector.LeftShoulder], pt[detector.RightShoulder])
	hipMid := detector.Midpoint(pt[detector.LeftHip], pt[detector.RightHip])

	leftUpper := detector.Dist(pt[detector.LeftShoulder], pt[detector.LeftElbow])
	rightUpper := detector.Dist(pt[detector.RightShoulder], pt[detector.RightElbow])
	leftFore := detector.Dist(pt[detector.LeftElbow], pt[detector.LeftWrist])
	rightFore := detector.Dist(pt[detector.RightElbow], pt[detector.RightWrist])

	return Profile{
		NoseY:               pt[detector.Nose].Y,
		NoseToShoulderMid:   detector.Dist(pt[detector.Nose], shoulderMid),
		ShoulderToShoulder:  detector.Dist(pt[detector.LeftShoulder], pt[detector.RightShoulder]),
		ShoulderToElbow:     (leftUpper + rightUpper) / 2,
		ElbowToWrist:        (leftFore + rightFore) / 2,
		ShoulderMidToHipMid: detector.Dist(shoulderMid, hipMid),
	}, true
}

// Calibration holds the active Profile. It starts at DefaultProfile and is
// replaced wholesale when the player recalibrates.
type Calibration struct {
	mu      sync.RWMutex
	profile Profile
	custom  bool
}

// NewCalibration creates a Calibration holding the default profile.
func NewCalibration() *Calibration {
	return &Calibration{profile: DefaultProfile()}
}

// Profile returns the active profile.
func (c *Calibration) Profile() Profile {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.profile
}

// Calibrated reports whether a measured profile replaced the default.
func (c *Calibration) Calibrated() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.custom
}

// Install replaces the active profile. Invalid profiles are ignored.
func (c *Calibration) Install(p Profile) bool {
	if !p.Valid() {
		return false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.profile = p
	c.custom = true
	return true
}

// Recalibrate measures the snapshot and installs the result. It returns the
// active profile and whether it changed.
func (c *Calibration) Recalibrate(poses []detector.Pose) (Profile, bool) {
	p, ok := Measure(poses)
	if !ok || !c.Install(p) {
		return c.Profile(), false
	}
	return p, true
}
