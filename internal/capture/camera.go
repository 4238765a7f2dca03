// Package capture reads webcam frames with GoCV (OpenCV) and gates the
// detection pipeline on motion.
package capture

import (
	"errors"
	"fmt"
	"image"
	"sync"

	"gocv.io/x/gocv"
)

// ErrCameraNotOpen is returned when trying to read from a camera that is not open.
var ErrCameraNotOpen = errors.New("camera is not open")

// Camera defines the interface for camera capture implementations.
type Camera interface {
	Open() error
	Close() error
	ReadFrame() (*gocv.Mat, error)
	SetFPS(fps int)
	FPS() int
	IsOpen() bool
}

// Config holds webcam settings.
type Config struct {
	DeviceID int `toml:"device_id"`
	// Width and Height are requested from the device; poses are measured in
	// this frame space.
	Width  int `toml:"width"`
	Height int `toml:"height"`
	FPS    int `toml:"fps"`
	// Mirror flips each frame horizontally so the player sees a mirror image.
	Mirror bool `toml:"mirror"`
}

// DefaultConfig returns a 640x480 mirrored capture at 30 FPS.
func DefaultConfig() Config {
	return Config{
		Width:  640,
		Height: 480,
		FPS:    30,
		Mirror: true,
	}
}

// cameraImpl manages video capture from a camera device using GoCV.
type cameraImpl struct {
	config  Config
	capture *gocv.VideoCapture
	mu      sync.Mutex
	running bool
}

// NewCamera creates a Camera for the configured device. Non-positive sizes
// and rates fall back to DefaultConfig.
func NewCamera(config Config) Camera {
	def := DefaultConfig()
	if config.Width <= 0 || config.Height <= 0 {
		config.Width, config.Height = def.Width, def.Height
	}
	if config.FPS <= 0 {
		config.FPS = def.FPS
	}
	return &cameraImpl{config: config}
}

// Open opens the camera for capturing frames.
func (c *cameraImpl) Open() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.running {
		return nil
	}

	capture, err := gocv.OpenVideoCapture(c.config.DeviceID)
	if err != nil {
		return fmt.Errorf("failed to open camera %d: %w", c.config.DeviceID, err)
	}

	capture.Set(gocv.VideoCaptureFrameWidth, float64(c.config.Width))
	capture.Set(gocv.VideoCaptureFrameHeight, float64(c.config.Height))
	capture.Set(gocv.VideoCaptureFPS, float64(c.config.FPS))

	c.capture = capture
	c.running = true

	return nil
}

// Close closes the camera and releases resources.
func (c *cameraImpl) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.running || c.capture == nil {
		c.running = false
		return nil
	}

	err := c.capture.Close()
	c.capture = nil
	c.running = false

	return err
}

// ReadFrame reads a single frame from the camera, resized to the configured
// frame size when the device ignored the request, and mirrored if enabled.
// The caller is responsible for closing the returned Mat.
func (c *cameraImpl) ReadFrame() (*gocv.Mat, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.running || c.capture == nil {
		return nil, ErrCameraNotOpen
	}

	mat := gocv.NewMat()
	if ok := c.capture.Read(&mat); !ok {
		mat.Close()
		return nil, errors.New("failed to read frame from camera")
	}

	if mat.Empty() {
		mat.Close()
		return nil, errors.New("captured frame is empty")
	}

	if err := normalize(&mat, c.config); err != nil {
		mat.Close()
		return nil, err
	}

	return &mat, nil
}

// normalize brings a raw frame to the configured size and orientation in place.
func normalize(mat *gocv.Mat, config Config) error {
	if mat.Cols() != config.Width || mat.Rows() != config.Height {
		resized := gocv.NewMat()
		gocv.Resize(*mat, &resized, image.Point{X: config.Width, Y: config.Height}, 0, 0, gocv.InterpolationLinear)
		if resized.Empty() {
			resized.Close()
			return fmt.Errorf("failed to resize frame to %dx%d", config.Width, config.Height)
		}
		mat.Close()
		*mat = resized
	}

	if config.Mirror {
		flipped := gocv.NewMat()
		gocv.Flip(*mat, &flipped, 1)
		mat.Close()
		*mat = flipped
	}
	return nil
}

// SetFPS sets the frames per second for capture.
// Values less than or equal to 0 are ignored.
func (c *cameraImpl) SetFPS(fps int) {
	if fps <= 0 {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.config.FPS = fps

	if c.capture != nil {
		c.capture.Set(gocv.VideoCaptureFPS, float64(fps))
	}
}

// FPS returns the current frames per second setting.
func (c *cameraImpl) FPS() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.config.FPS
}

// IsOpen returns true if the camera is currently open and running.
func (c *cameraImpl) IsOpen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.running
}
