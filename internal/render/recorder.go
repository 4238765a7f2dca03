package render

import (
	"image"
	"image/color"
	"strings"
)

// OpKind names a recorded drawing call.
type OpKind string

const (
	OpClear    OpKind = "clear"
	OpLine     OpKind = "line"
	OpCircle   OpKind = "circle"
	OpRect     OpKind = "rect"
	OpArc      OpKind = "arc"
	OpPolygon  OpKind = "polygon"
	OpText     OpKind = "text"
	OpImage    OpKind = "image"
	OpPushMask OpKind = "push_mask"
	OpPopMask  OpKind = "pop_mask"
	OpBlur     OpKind = "blur"
)

// Op is one recorded drawing call. Only the fields relevant to Kind are set.
type Op struct {
	Kind   OpKind
	Points []Point
	Rect   Rect
	Radius float64
	Start  float64
	End    float64
	Style  Style
	Text   string
	Size   float64
	Align  Align
	Color  color.RGBA
	Image  image.Image
	// Masks is the mask nesting depth and Blur the blur radius at the time
	// of the call.
	Masks int
	Blur  float64
}

// Recorder is a Surface that records every call for inspection.
type Recorder struct {
	W, H  float64
	Ops   []Op
	masks int
	blur  float64
}

// NewRecorder creates a Recorder with the standard canvas size.
func NewRecorder() *Recorder {
	return &Recorder{W: CanvasWidth, H: CanvasHeight}
}

func (r *Recorder) add(op Op) {
	op.Masks = r.masks
	op.Blur = r.blur
	r.Ops = append(r.Ops, op)
}

func (r *Recorder) Size() (float64, float64) { return r.W, r.H }

func (r *Recorder) Clear(c color.RGBA) {
	r.add(Op{Kind: OpClear, Color: c})
}

func (r *Recorder) Line(a, b Point, s Style) {
	r.add(Op{Kind: OpLine, Points: []Point{a, b}, Style: s})
}

func (r *Recorder) Circle(center Point, radius float64, s Style) {
	r.add(Op{Kind: OpCircle, Points: []Point{center}, Radius: radius, Style: s})
}

func (r *Recorder) Rect(rect Rect, s Style) {
	r.add(Op{Kind: OpRect, Rect: rect, Style: s})
}

func (r *Recorder) Arc(center Point, radius, start, end float64, s Style) {
	r.add(Op{Kind: OpArc, Points: []Point{center}, Radius: radius, Start: start, End: end, Style: s})
}

func (r *Recorder) Polygon(pts []Point, s Style) {
	cp := make([]Point, len(pts))
	copy(cp, pts)
	r.add(Op{Kind: OpPolygon, Points: cp, Style: s})
}

func (r *Recorder) Text(text string, at Point, size float64, align Align, c color.RGBA) {
	r.add(Op{Kind: OpText, Text: text, Points: []Point{at}, Size: size, Align: align, Color: c})
}

func (r *Recorder) Image(img image.Image, dst Rect, tint color.RGBA) {
	r.add(Op{Kind: OpImage, Image: img, Rect: dst, Color: tint})
}

func (r *Recorder) PushMask(mask image.Image) {
	r.add(Op{Kind: OpPushMask, Image: mask})
	r.masks++
}

func (r *Recorder) PopMask() {
	if r.masks > 0 {
		r.masks--
	}
	r.add(Op{Kind: OpPopMask})
}

func (r *Recorder) SetBlur(radius float64) {
	r.blur = radius
	r.add(Op{Kind: OpBlur, Radius: radius})
}

// Reset forgets recorded calls and drawing state.
func (r *Recorder) Reset() {
	r.Ops = nil
	r.masks = 0
	r.blur = 0
}

// Count returns how many calls of kind were recorded.
func (r *Recorder) Count(kind OpKind) int {
	n := 0
	for _, op := range r.Ops {
		if op.Kind == kind {
			n++
		}
	}
	return n
}

// Filter returns the recorded calls of kind.
func (r *Recorder) Filter(kind OpKind) []Op {
	var out []Op
	for _, op := range r.Ops {
		if op.Kind == kind {
			out = append(out, op)
		}
	}
	return out
}

// FindText returns the first text call containing substr.
func (r *Recorder) FindText(substr string) (Op, bool) {
	for _, op := range r.Ops {
		if op.Kind == OpText && strings.Contains(op.Text, substr) {
			return op, true
		}
	}
	return Op{}, false
}

// HasText reports whether any text call contains substr.
func (r *Recorder) HasText(substr string) bool {
	_, ok := r.FindText(substr)
	return ok
}
