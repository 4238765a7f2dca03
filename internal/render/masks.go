package render

import (
	"errors"
	"fmt"
	"image"
	"image/color"

	"gocv.io/x/gocv"
)

// SlashMasks renders n transition masks of the given size. Mask i reveals
// everything left of a diagonal that sweeps from the top-left corner at
// mask 0 to past the bottom-right corner at mask n-1.
func SlashMasks(width, height, n int) ([]image.Image, error) {
	if width <= 0 || height <= 0 {
		return nil, errors.New("mask size must be positive")
	}
	if n < 2 {
		return nil, fmt.Errorf("need at least 2 masks, got %d", n)
	}

	masks := make([]image.Image, 0, n)
	for i := 0; i < n; i++ {
		img, err := slashMask(width, height, float64(i)/float64(n-1))
		if err != nil {
			return nil, fmt.Errorf("mask %d: %w", i, err)
		}
		masks = append(masks, img)
	}
	return masks, nil
}

func slashMask(width, height int, progress float64) (image.Image, error) {
	mat := gocv.NewMatWithSize(height, width, gocv.MatTypeCV8UC4)
	defer mat.Close()
	mat.SetTo(gocv.NewScalar(0, 0, 0, 0))

	// The edge runs at 45 degrees, so it has to travel width+height to clear
	// the frame.
	s := int(progress * float64(width+height))
	if s > 0 {
		pts := gocv.NewPointsVectorFromPoints([][]image.Point{{
			{X: 0, Y: 0},
			{X: s, Y: 0},
			{X: s - height, Y: height},
			{X: 0, Y: height},
		}})
		defer pts.Close()
		gocv.FillPoly(&mat, pts, color.RGBA{R: 255, G: 255, B: 255, A: 255})
	}

	return mat.ToImage()
}
