package app

import (
	"context"
	"log"
	"time"
)

// runPipeline reads webcam frames until ctx is done. Every frame is kept
// for display; poses are only detected while the motion gate is open.
//
// Pipeline logic:
// 1. Sample at the gate's idle rate
// 2. On motion, open the gate and sample at the active rate
// 3. While open, run pose detection and publish to the feed
// 4. After the idle timeout without motion, close the gate again
func (a *App) runPipeline(ctx context.Context) {
	a.camera.SetFPS(a.gate.FPS())
	ticker := time.NewTicker(a.gate.Interval())
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		if a.paused.Load() {
			continue
		}

		if a.step() {
			a.camera.SetFPS(a.gate.FPS())
			ticker.Reset(a.gate.Interval())
			if a.gate.Active() {
				log.Println("Motion detected, detecting poses")
			} else {
				log.Println("No motion, idling")
			}
		}
	}
}

// step processes one frame and reports whether the gate switched.
func (a *App) step() bool {
	frame, err := a.camera.ReadFrame()
	if err != nil {
		log.Printf("Error reading frame: %v", err)
		return false
	}
	defer frame.Close()

	if err := a.frames.Store(frame); err != nil {
		log.Printf("Error storing frame: %v", err)
	}

	motion, _ := a.motion.Detect(frame)
	active, switched := a.gate.Observe(motion, time.Now())

	if !active || a.detector == nil {
		return switched
	}

	poses, err := a.detector.Detect(frame)
	if err != nil {
		log.Printf("Error detecting poses: %v", err)
		return switched
	}
	a.feed.Publish(poses)

	return switched
}
