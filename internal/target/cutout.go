package target

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"math"

	"gocv.io/x/gocv"

	"github.com/ayusman/superimpose/internal/detector"
	"github.com/ayusman/superimpose/internal/pose"
)

var (
	wallColor    = color.RGBA{R: 211, G: 211, B: 211, A: 255}
	outlineColor = color.RGBA{A: 255}
	erased       = color.RGBA{}
)

const cornerRadius = 32

// CutoutRenderer draws target cutouts with OpenCV: a light gray wall with a
// black outline of the pose and the pose itself erased to transparency.
type CutoutRenderer struct {
	Width     int
	Height    int
	Margin    float64
	Thickness float64
	Padding   float64
}

// NewCutoutRenderer creates a renderer for frames of the given size using
// the manager's tolerance.
func NewCutoutRenderer(width, height int, config Config) *CutoutRenderer {
	return &CutoutRenderer{
		Width:     width,
		Height:    height,
		Margin:    config.Margin,
		Thickness: config.Thickness,
		Padding:   config.Padding,
	}
}

// Build renders the cutout for t. The result is an *image.RGBA of the frame
// size where the hole has zero alpha.
func (r *CutoutRenderer) Build(t pose.Target) (image.Image, error) {
	if r.Width <= 0 || r.Height <= 0 {
		return nil, errors.New("cutout size must be positive")
	}
	for _, part := range []detector.Part{detector.LeftShoulder, detector.RightShoulder, detector.LeftHip, detector.RightHip} {
		if _, ok := t[part]; !ok {
			return nil, fmt.Errorf("target is missing %s", part)
		}
	}

	layer := gocv.NewMatWithSize(r.Height, r.Width, gocv.MatTypeCV8UC4)
	defer layer.Close()
	layer.SetTo(gocv.NewScalar(0, 0, 0, 0))

	w, h := float64(r.Width), float64(r.Height)

	fillRoundedRect(&layer, image.Rect(int(0.1*w), 0, int(0.9*w), r.Height), cornerRadius, wallColor)

	hole := r.Margin + r.Thickness
	r.stroke(&layer, t, hole+r.Padding, r.Padding, outlineColor)
	r.stroke(&layer, t, hole, 0, erased)

	torso := gocv.NewPointsVectorFromPoints([][]image.Point{{
		pt(t[detector.LeftShoulder]),
		pt(t[detector.RightShoulder]),
		pt(t[detector.RightHip]),
		pt(t[detector.LeftHip]),
	}})
	defer torso.Close()
	gocv.FillPoly(&layer, torso, erased)

	// Below the hips the wall is cut away so the legs are never blocked.
	top := int(t.HigherHipY())
	fillRoundedRect(&layer, image.Rect(int(0.2*w), top, int(0.8*w), top+10*r.Height), cornerRadius, erased)

	img, err := layer.ToImage()
	if err != nil {
		return nil, fmt.Errorf("failed to convert cutout: %w", err)
	}
	return img, nil
}

// stroke draws every connection at the given width and a disc on every
// joint, the nose larger than the rest.
func (r *CutoutRenderer) stroke(layer *gocv.Mat, t pose.Target, width, pad float64, c color.RGBA) {
	for _, conn := range t.Connections() {
		gocv.Line(layer, pt(t[conn.A]), pt(t[conn.B]), c, int(math.Round(width)))
	}
	for part, p := range t {
		d := r.Thickness + r.Margin + pad
		if part == detector.Nose {
			d = 2.5*r.Thickness + r.Margin + pad
		}
		gocv.Circle(layer, pt(p), int(math.Round(d/2)), c, -1)
	}
}

func fillRoundedRect(m *gocv.Mat, rect image.Rectangle, radius int, c color.RGBA) {
	if radius*2 > rect.Dx() {
		radius = rect.Dx() / 2
	}
	if radius*2 > rect.Dy() {
		radius = rect.Dy() / 2
	}
	gocv.Rectangle(m, image.Rect(rect.Min.X+radius, rect.Min.Y, rect.Max.X-radius, rect.Max.Y), c, -1)
	gocv.Rectangle(m, image.Rect(rect.Min.X, rect.Min.Y+radius, rect.Max.X, rect.Max.Y-radius), c, -1)
	for _, corner := range []image.Point{
		{rect.Min.X + radius, rect.Min.Y + radius},
		{rect.Max.X - radius, rect.Min.Y + radius},
		{rect.Min.X + radius, rect.Max.Y - radius},
		{rect.Max.X - radius, rect.Max.Y - radius},
	} {
		gocv.Circle(m, corner, radius, c, -1)
	}
}

func pt(p detector.Point) image.Point {
	return image.Pt(int(math.Round(p.X)), int(math.Round(p.Y)))
}
