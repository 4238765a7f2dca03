package capture

import (
	"context"
	"errors"
	"image"
	"testing"
	"time"

	"gocv.io/x/gocv"
)

func TestFrameBuffer_Put(t *testing.T) {
	b := NewFrameBuffer()
	if b.Frame() != nil || b.Latest().Seq != 0 {
		t.Fatal("new buffer should be empty")
	}

	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	b.Put(img, []byte{1, 2})
	b.Put(img, []byte{3})

	f := b.Latest()
	if f.Seq != 2 || len(f.JPEG) != 1 || b.Frame() != image.Image(img) {
		t.Errorf("unexpected latest frame %+v", f)
	}
}

func TestFrameBuffer_Next(t *testing.T) {
	b := NewFrameBuffer()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	done := make(chan Frame, 1)
	go func() {
		f, err := b.Next(ctx, 0)
		if err == nil {
			done <- f
		}
		close(done)
	}()

	b.Put(image.NewGray(image.Rect(0, 0, 1, 1)), []byte("x"))

	f, ok := <-done
	if !ok || f.Seq != 1 {
		t.Fatalf("Next() = %+v, %v", f, ok)
	}

	// Already newer than seq 0, returns immediately.
	if f, err := b.Next(ctx, 0); err != nil || f.Seq != 1 {
		t.Errorf("Next(0) = %+v, %v", f, err)
	}
}

func TestFrameBuffer_NextCancelled(t *testing.T) {
	b := NewFrameBuffer()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := b.Next(ctx, 0); !errors.Is(err, context.Canceled) {
		t.Errorf("Next() error = %v, want context.Canceled", err)
	}
}

func TestFrameBuffer_Store(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping test that requires GoCV Mat creation")
	}

	b := NewFrameBuffer()
	if err := b.Store(nil); err == nil {
		t.Error("expected an error for a nil frame")
	}

	mat := gocv.NewMatWithSize(480, 640, gocv.MatTypeCV8UC3)
	defer mat.Close()
	if err := b.Store(&mat); err != nil {
		t.Fatalf("Store() error = %v", err)
	}

	f := b.Latest()
	if f.Image.Bounds().Dx() != 640 || f.Image.Bounds().Dy() != 480 {
		t.Errorf("image bounds = %v", f.Image.Bounds())
	}
	// JPEG start-of-image marker.
	if len(f.JPEG) < 2 || f.JPEG[0] != 0xFF || f.JPEG[1] != 0xD8 {
		t.Error("expected JPEG data")
	}
}
