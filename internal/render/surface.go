// Package render defines the drawing surface scenes paint onto, and its
// terminal and recording implementations.
package render

import (
	"image"
	"image/color"
	"math"
)

// Canvas is the logical drawing size every scene is laid out for. Surfaces
// map it onto their real resolution.
const (
	CanvasWidth  = 1920
	CanvasHeight = 1080
)

// Point is a position on the canvas.
type Point struct {
	X, Y float64
}

// Pt is shorthand for Point{x, y}.
func Pt(x, y float64) Point { return Point{X: x, Y: y} }

// Rect is an axis-aligned rectangle on the canvas.
type Rect struct {
	X, Y, W, H float64
}

// Contains reports whether p lies inside r.
func (r Rect) Contains(p Point) bool {
	return p.X >= r.X && p.X < r.X+r.W && p.Y >= r.Y && p.Y < r.Y+r.H
}

// Center returns the middle of r.
func (r Rect) Center() Point {
	return Point{X: r.X + r.W/2, Y: r.Y + r.H/2}
}

// Style describes how a shape is painted. A zero alpha disables fill or
// stroke.
type Style struct {
	Fill        color.RGBA
	Stroke      color.RGBA
	StrokeWidth float64
	// Radius rounds the corners of rectangles.
	Radius float64
}

// Filled is a fill-only style.
func Filled(c color.RGBA) Style { return Style{Fill: c} }

// Stroked is a stroke-only style.
func Stroked(c color.RGBA, width float64) Style { return Style{Stroke: c, StrokeWidth: width} }

// Align positions text relative to its anchor point.
type Align int

const (
	AlignLeft Align = iota
	AlignCenter
	AlignRight
)

// Surface is a 2D drawing target in canvas coordinates.
type Surface interface {
	Size() (w, h float64)
	Clear(c color.RGBA)
	Line(a, b Point, s Style)
	Circle(center Point, radius float64, s Style)
	Rect(r Rect, s Style)
	// Arc strokes the circle outline from start to end, in radians clockwise
	// from the positive x axis.
	Arc(center Point, radius, start, end float64, s Style)
	Polygon(pts []Point, s Style)
	Text(text string, at Point, size float64, align Align, c color.RGBA)
	// Image draws img stretched over dst. A tint with non-zero alpha
	// replaces the image's colour and scales its alpha.
	Image(img image.Image, dst Rect, tint color.RGBA)
	// PushMask restricts drawing to where mask, stretched over the canvas,
	// is opaque. Masks nest.
	PushMask(mask image.Image)
	PopMask()
	// SetBlur blurs everything drawn from now on. Zero turns it off.
	SetBlur(radius float64)
}

// Common colours.
var (
	Black     = color.RGBA{A: 255}
	White     = color.RGBA{R: 255, G: 255, B: 255, A: 255}
	LightGray = color.RGBA{R: 211, G: 211, B: 211, A: 255}
	LightBlue = color.RGBA{R: 173, G: 216, B: 230, A: 255}
	Grass     = color.RGBA{R: 0x81, G: 0x8a, B: 0x09, A: 255}
	Road      = color.RGBA{R: 0xae, G: 0x4d, B: 0x4b, A: 255}
	Teal      = color.RGBA{G: 128, B: 128, A: 255}
	Cyan      = color.RGBA{G: 255, B: 255, A: 255}
	Green     = color.RGBA{G: 196, A: 255}
	Red       = color.RGBA{R: 196, A: 255}
)

// NoTint draws an image in its own colours.
var NoTint color.RGBA

// WithAlpha returns c with its alpha replaced.
func WithAlpha(c color.RGBA, a uint8) color.RGBA {
	c.A = a
	return c
}

// Lerp blends from a to b by t in [0, 1], channel by channel.
func Lerp(a, b color.RGBA, t float64) color.RGBA {
	t = math.Max(0, math.Min(1, t))
	mix := func(x, y uint8) uint8 {
		return uint8(math.Round(float64(x) + (float64(y)-float64(x))*t))
	}
	return color.RGBA{R: mix(a.R, b.R), G: mix(a.G, b.G), B: mix(a.B, b.B), A: mix(a.A, b.A)}
}

// Over composites src over dst.
func Over(dst, src color.RGBA) color.RGBA {
	if src.A == 255 {
		return src
	}
	if src.A == 0 {
		return dst
	}
	a := float64(src.A) / 255
	blend := func(d, s uint8) uint8 {
		return uint8(math.Round(float64(s)*a + float64(d)*(1-a)))
	}
	return color.RGBA{
		R: blend(dst.R, src.R),
		G: blend(dst.G, src.G),
		B: blend(dst.B, src.B),
		A: uint8(math.Round(float64(src.A) + float64(dst.A)*(1-a))),
	}
}

// View maps a source coordinate space, such as the webcam frame, onto the
// canvas: scaled uniformly and centred on Origin.
type View struct {
	SrcWidth, SrcHeight float64
	Origin              Point
	Scale               float64
}

// FitView returns a View that fits a src-sized frame to the canvas height,
// centred, and then applies an extra scale factor.
func FitView(srcWidth, srcHeight, extra float64) View {
	return View{
		SrcWidth:  srcWidth,
		SrcHeight: srcHeight,
		Origin:    Pt(CanvasWidth/2, CanvasHeight/2),
		Scale:     CanvasHeight / srcHeight * extra,
	}
}

// Map converts a source-space position to the canvas.
func (v View) Map(x, y float64) Point {
	return Point{
		X: v.Origin.X + (x-v.SrcWidth/2)*v.Scale,
		Y: v.Origin.Y + (y-v.SrcHeight/2)*v.Scale,
	}
}

// Bounds returns where the whole source frame lands on the canvas.
func (v View) Bounds() Rect {
	tl := v.Map(0, 0)
	return Rect{X: tl.X, Y: tl.Y, W: v.SrcWidth * v.Scale, H: v.SrcHeight * v.Scale}
}

// Length converts a source-space length to the canvas.
func (v View) Length(l float64) float64 {
	return l * v.Scale
}
