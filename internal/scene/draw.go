package scene

import (
	"github.com/ayusman/superimpose/internal/detector"
	"github.com/ayusman/superimpose/internal/render"
)

// Default webcam frame size poses are reported in.
const (
	defaultFrameWidth  = 640
	defaultFrameHeight = 480
)

// skeletonStyle is how a live pose is drawn: bones as lines, confident
// joints as dots. Widths are in frame space.
type skeletonStyle struct {
	bone      render.Style
	outline   render.Style
	joint     render.Style
	jointSize float64
}

// drawSkeleton draws the connections whose both ends are confident and
// every confident joint, mapped through view.
func drawSkeleton(s render.Surface, view render.View, p detector.Pose, st skeletonStyle) {
	scaled := func(style render.Style) render.Style {
		style.StrokeWidth = view.Length(style.StrokeWidth)
		return style
	}

	for _, c := range detector.Skeleton() {
		a, okA := p[c.A]
		b, okB := p[c.B]
		if !okA || !okB || !a.Confident() || !b.Confident() {
			continue
		}
		pa, pb := view.Map(a.X, a.Y), view.Map(b.X, b.Y)
		if st.outline.Stroke.A > 0 {
			s.Line(pa, pb, scaled(st.outline))
		}
		s.Line(pa, pb, scaled(st.bone))
	}

	for _, part := range detector.Parts {
		k, ok := p[part]
		if !ok || !k.Confident() {
			continue
		}
		s.Circle(view.Map(k.X, k.Y), view.Length(st.jointSize/2), scaled(st.joint))
	}
}

// panel draws a translucent rounded box.
func panel(s render.Surface, r render.Rect, fill render.Style) {
	if fill.Radius == 0 {
		fill.Radius = 32
	}
	s.Rect(r, fill)
}
