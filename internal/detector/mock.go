package detector

import (
	"gocv.io/x/gocv"
)

// MockDetector is a test implementation of the Detector interface.
// It allows tests to control the detection results.
type MockDetector struct {
	poses []Pose
	err   error
	calls int
}

// NewMockDetector creates a new MockDetector instance.
func NewMockDetector() *MockDetector {
	return &MockDetector{}
}

// SetPoses sets the poses that will be returned by Detect.
func (m *MockDetector) SetPoses(poses []Pose) {
	m.poses = poses
}

// SetError sets the error that will be returned by Detect.
func (m *MockDetector) SetError(err error) {
	m.err = err
}

// Calls returns how many times Detect has been invoked.
func (m *MockDetector) Calls() int {
	return m.calls
}

// Detect returns the pre-configured poses or error.
func (m *MockDetector) Detect(frame *gocv.Mat) ([]Pose, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return m.poses, nil
}

// Close is a no-op for the mock detector.
func (m *MockDetector) Close() error {
	return nil
}

// StandingPose returns a preset Pose of a player standing upright with arms
// hanging by their sides, roughly centred in a 640x480 frame.
// Every keypoint has high confidence.
func StandingPose() Pose {
	return Pose{
		Nose:          {X: 320, Y: 165, Confidence: 0.95},
		LeftEye:       {X: 310, Y: 155, Confidence: 0.92},
		RightEye:      {X: 330, Y: 155, Confidence: 0.92},
		LeftEar:       {X: 298, Y: 160, Confidence: 0.85},
		RightEar:      {X: 342, Y: 160, Confidence: 0.85},
		LeftShoulder:  {X: 275, Y: 215, Confidence: 0.9},
		RightShoulder: {X: 365, Y: 215, Confidence: 0.9},
		LeftElbow:     {X: 265, Y: 285, Confidence: 0.88},
		RightElbow:    {X: 375, Y: 285, Confidence: 0.88},
		LeftWrist:     {X: 260, Y: 345, Confidence: 0.86},
		RightWrist:    {X: 380, Y: 345, Confidence: 0.86},
		LeftHip:       {X: 295, Y: 365, Confidence: 0.9},
		RightHip:      {X: 345, Y: 365, Confidence: 0.9},
		LeftKnee:      {X: 293, Y: 420, Confidence: 0.7},
		RightKnee:     {X: 347, Y: 420, Confidence: 0.7},
		LeftAnkle:     {X: 292, Y: 470, Confidence: 0.5},
		RightAnkle:    {X: 348, Y: 470, Confidence: 0.5},
	}
}

// ArmsUpPose returns a preset Pose with both arms raised in a wide V,
// the right wrist held over the calibration orb position (440, 200).
func ArmsUpPose() Pose {
	p := StandingPose()
	p[LeftElbow] = Keypoint{X: 220, Y: 255, Confidence: 0.9}
	p[RightElbow] = Keypoint{X: 420, Y: 255, Confidence: 0.9}
	p[LeftWrist] = Keypoint{X: 200, Y: 200, Confidence: 0.9}
	p[RightWrist] = Keypoint{X: 440, Y: 200, Confidence: 0.9}
	return p
}

// Shifted returns a copy of p with every keypoint moved by (dx, dy).
func Shifted(p Pose, dx, dy float64) Pose {
	out := make(Pose, len(p))
	for part, k := range p {
		out[part] = Keypoint{X: k.X + dx, Y: k.Y + dy, Confidence: k.Confidence}
	}
	return out
}
