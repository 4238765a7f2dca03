package capture

import (
	"image"
	"sync"
	"time"

	"gocv.io/x/gocv"
)

const (
	// blurKernel is the Gaussian kernel size used to suppress sensor noise.
	blurKernel = 21
	// pixelDelta is the grey-level change a pixel needs to count as moved.
	pixelDelta = 25
)

// MotionDetector compares consecutive frames and reports the share of
// pixels that changed.
type MotionDetector struct {
	mu        sync.Mutex
	threshold float64
	prev      gocv.Mat
	primed    bool
}

// NewMotionDetector creates a MotionDetector. threshold is the percentage of
// pixels that must change, so 1.0 means 1%.
func NewMotionDetector(threshold float64) *MotionDetector {
	return &MotionDetector{threshold: threshold, prev: gocv.NewMat()}
}

// Detect reports whether frame differs from the previous one by more than
// the threshold, and the percentage of pixels that changed. The first frame
// only primes the detector.
func (m *MotionDetector) Detect(frame *gocv.Mat) (bool, float64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if frame == nil || frame.Empty() {
		return false, 0
	}

	cur := smoothGray(frame)
	defer cur.Close()

	if !m.primed {
		cur.CopyTo(&m.prev)
		m.primed = true
		return false, 0
	}

	diff := gocv.NewMat()
	defer diff.Close()
	gocv.AbsDiff(cur, m.prev, &diff)
	gocv.Threshold(diff, &diff, pixelDelta, 255, gocv.ThresholdBinary)

	changed := float64(gocv.CountNonZero(diff)) / float64(diff.Rows()*diff.Cols()) * 100
	cur.CopyTo(&m.prev)

	return changed > m.threshold, changed
}

// smoothGray returns a blurred greyscale copy of frame.
func smoothGray(frame *gocv.Mat) gocv.Mat {
	gray := gocv.NewMat()
	if frame.Channels() > 1 {
		gocv.CvtColor(*frame, &gray, gocv.ColorBGRToGray)
	} else {
		frame.CopyTo(&gray)
	}
	gocv.GaussianBlur(gray, &gray, image.Point{X: blurKernel, Y: blurKernel}, 0, 0, gocv.BorderDefault)
	return gray
}

// Reset forgets the previous frame so the next one primes the detector again.
func (m *MotionDetector) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.release()
}

// Close releases the stored frame. The detector may still be used afterwards.
func (m *MotionDetector) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.release()
}

func (m *MotionDetector) release() {
	if !m.prev.Empty() {
		m.prev.Close()
		m.prev = gocv.NewMat()
	}
	m.primed = false
}

// SetThreshold changes the threshold. Values <= 0 are ignored.
func (m *MotionDetector) SetThreshold(threshold float64) {
	if threshold <= 0 {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.threshold = threshold
}

// Threshold returns the current threshold.
func (m *MotionDetector) Threshold() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.threshold
}

// GateConfig controls when pose detection runs. The pipeline samples at
// IdleFPS until motion is seen, then at ActiveFPS until nothing has moved
// for IdleTimeout.
type GateConfig struct {
	Threshold   float64       `toml:"threshold"`
	IdleFPS     int           `toml:"idle_fps"`
	ActiveFPS   int           `toml:"active_fps"`
	IdleTimeout time.Duration `toml:"idle_timeout"`
}

// DefaultGateConfig returns a 1% threshold, 5/30 FPS and a 2s timeout.
func DefaultGateConfig() GateConfig {
	return GateConfig{
		Threshold:   1.0,
		IdleFPS:     5,
		ActiveFPS:   30,
		IdleTimeout: 2 * time.Second,
	}
}

// Gate tracks whether the pipeline is active. A player standing still
// mid-game keeps the gate open for IdleTimeout after their last movement.
type Gate struct {
	config     GateConfig
	active     bool
	lastMotion time.Time
}

// NewGate creates a closed Gate.
func NewGate(config GateConfig) *Gate {
	def := DefaultGateConfig()
	if config.IdleFPS <= 0 {
		config.IdleFPS = def.IdleFPS
	}
	if config.ActiveFPS <= 0 {
		config.ActiveFPS = def.ActiveFPS
	}
	return &Gate{config: config}
}

// Observe records whether motion was seen at now and reports whether the
// gate is open and whether that changed.
func (g *Gate) Observe(motion bool, now time.Time) (active, switched bool) {
	was := g.active
	switch {
	case motion:
		g.lastMotion = now
		g.active = true
	case g.active && now.Sub(g.lastMotion) > g.config.IdleTimeout:
		g.active = false
	}
	return g.active, g.active != was
}

// Active reports whether the gate is open.
func (g *Gate) Active() bool { return g.active }

// FPS returns the sampling rate for the current state.
func (g *Gate) FPS() int {
	if g.active {
		return g.config.ActiveFPS
	}
	return g.config.IdleFPS
}

// Interval returns the sampling period for the current state.
func (g *Gate) Interval() time.Duration {
	return time.Second / time.Duration(g.FPS())
}
