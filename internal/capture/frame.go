package capture

import (
	"context"
	"fmt"
	"image"
	"sync"
	"time"

	"gocv.io/x/gocv"
)

// Frame is a captured video frame prepared for display and streaming.
type Frame struct {
	Image     image.Image
	JPEG      []byte
	Seq       uint64
	Timestamp time.Time
}

// FrameBuffer holds the most recent frame for readers on other goroutines:
// the onboarding scene draws it and the MJPEG stream serves it.
type FrameBuffer struct {
	mu      sync.Mutex
	latest  Frame
	updated chan struct{}
}

// NewFrameBuffer creates an empty FrameBuffer.
func NewFrameBuffer() *FrameBuffer {
	return &FrameBuffer{updated: make(chan struct{})}
}

// Store converts mat and makes it the latest frame. mat is not retained.
func (b *FrameBuffer) Store(mat *gocv.Mat) error {
	if mat == nil || mat.Empty() {
		return fmt.Errorf("empty frame")
	}

	img, err := mat.ToImage()
	if err != nil {
		return fmt.Errorf("failed to convert frame: %w", err)
	}

	buf, err := gocv.IMEncode(".jpg", *mat)
	if err != nil {
		return fmt.Errorf("failed to encode frame: %w", err)
	}
	jpeg := append([]byte(nil), buf.GetBytes()...)
	buf.Close()

	b.Put(img, jpeg)
	return nil
}

// Put makes img and its encoded form the latest frame and wakes waiters.
func (b *FrameBuffer) Put(img image.Image, jpeg []byte) {
	b.mu.Lock()
	b.latest = Frame{
		Image:     img,
		JPEG:      jpeg,
		Seq:       b.latest.Seq + 1,
		Timestamp: time.Now(),
	}
	close(b.updated)
	b.updated = make(chan struct{})
	b.mu.Unlock()
}

// Frame returns the latest image, or nil before the first frame.
func (b *FrameBuffer) Frame() image.Image {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.latest.Image
}

// Latest returns the latest frame. Seq is 0 before the first frame.
func (b *FrameBuffer) Latest() Frame {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.latest
}

// Next blocks until a frame newer than seq is stored or ctx is done.
func (b *FrameBuffer) Next(ctx context.Context, seq uint64) (Frame, error) {
	for {
		b.mu.Lock()
		f, wait := b.latest, b.updated
		b.mu.Unlock()

		if f.Seq > seq {
			return f, nil
		}

		select {
		case <-ctx.Done():
			return Frame{}, ctx.Err()
		case <-wait:
		}
	}
}
