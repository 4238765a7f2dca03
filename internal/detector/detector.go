package detector

import "gocv.io/x/gocv"

// Detector defines the interface for body pose detection implementations.
type Detector interface {
	// Detect analyzes a video frame and returns detected poses.
	// Returns an empty slice if nobody is in frame.
	Detect(frame *gocv.Mat) ([]Pose, error)

	// Close releases any resources held by the detector.
	Close() error
}

// Config holds configuration options for pose detection.
type Config struct {
	// Script is the path of the pose model service. Empty means search the
	// usual locations.
	Script string `toml:"script"`

	// Model selects the pose model variant passed to the service.
	Model string `toml:"model"`

	// MaxPoses is the maximum number of people to report (default: 1).
	MaxPoses int `toml:"max_poses"`

	// Mirror flips frames horizontally so the player sees a mirror image.
	Mirror bool `toml:"mirror"`
}

// DefaultConfig returns a Config with sensible default values.
func DefaultConfig() Config {
	return Config{
		Model:    "SINGLEPOSE_THUNDER",
		MaxPoses: 1,
		Mirror:   true,
	}
}
