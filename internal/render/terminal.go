package render

import (
	"image"
	"image/color"
	"math"
	"strings"

	"github.com/gdamore/tcell/v2"
)

type cell struct {
	bg  color.RGBA
	fg  color.RGBA
	r   rune
	dim bool
}

// Terminal is a Surface that rasterizes the canvas onto terminal cells, one
// background colour per cell. Shapes are sampled at cell centres. Nothing
// reaches the screen until Flush.
type Terminal struct {
	screen     tcell.Screen
	cols, rows int
	cells      []cell
	masks      []image.Image
	blur       float64
	// footer, when set, takes the bottom row and the canvas the rest.
	footer string
}

// NewTerminal wraps an initialized screen.
func NewTerminal(screen tcell.Screen) *Terminal {
	t := &Terminal{screen: screen}
	t.resize()
	return t
}

func (t *Terminal) resize() {
	cols, rows := t.screen.Size()
	if t.footer != "" && rows > 1 {
		rows--
	}
	if cols == t.cols && rows == t.rows && t.cells != nil {
		return
	}
	t.cols, t.rows = cols, rows
	t.cells = make([]cell, cols*rows)
}

// SetFooter reserves the bottom row for a status line. An empty footer
// gives the whole screen to the canvas. It takes effect on the next Clear.
func (t *Terminal) SetFooter(text string) {
	t.footer = text
}

// Footer returns the status line text.
func (t *Terminal) Footer() string { return t.footer }

// Grid returns the canvas size in cells, excluding any footer row.
func (t *Terminal) Grid() (cols, rows int) { return t.cols, t.rows }

// Cell returns the content of a cell as last drawn.
func (t *Terminal) Cell(cx, cy int) (r rune, fg, bg color.RGBA) {
	if cx < 0 || cy < 0 || cx >= t.cols || cy >= t.rows {
		return 0, color.RGBA{}, color.RGBA{}
	}
	c := t.cells[cy*t.cols+cx]
	return c.r, c.fg, c.bg
}

func (t *Terminal) Size() (float64, float64) { return CanvasWidth, CanvasHeight }

func (t *Terminal) cellW() float64 { return CanvasWidth / float64(max(t.cols, 1)) }
func (t *Terminal) cellH() float64 { return CanvasHeight / float64(max(t.rows, 1)) }

// centre returns the canvas position sampled for a cell.
func (t *Terminal) centre(cx, cy int) Point {
	return Point{X: (float64(cx) + 0.5) * t.cellW(), Y: (float64(cy) + 0.5) * t.cellH()}
}

func (t *Terminal) toCell(p Point) (int, int) {
	return int(math.Floor(p.X / t.cellW())), int(math.Floor(p.Y / t.cellH()))
}

// cover returns the half diagonal of a cell: the slack given to thin strokes
// so they never fall between cell centres.
func (t *Terminal) cover() float64 {
	return math.Hypot(t.cellW(), t.cellH()) / 2
}

func (t *Terminal) masked(p Point) bool {
	for _, m := range t.masks {
		b := m.Bounds()
		if b.Empty() {
			return true
		}
		x := b.Min.X + int(p.X/CanvasWidth*float64(b.Dx()))
		y := b.Min.Y + int(p.Y/CanvasHeight*float64(b.Dy()))
		if _, _, _, a := m.At(x, y).RGBA(); a < 0x8000 {
			return true
		}
	}
	return false
}

func (t *Terminal) paint(cx, cy int, c color.RGBA) {
	if cx < 0 || cy < 0 || cx >= t.cols || cy >= t.rows || c.A == 0 {
		return
	}
	if t.masked(t.centre(cx, cy)) {
		return
	}
	if t.blur > 0 {
		c = Lerp(c, WithAlpha(LightGray, c.A), math.Min(t.blur/32, 0.6))
	}
	i := cy*t.cols + cx
	t.cells[i].bg = Over(t.cells[i].bg, c)
	if c.A == 255 {
		t.cells[i].r = ' '
	}
}

// fill paints every cell whose centre, inside bounds, passes inside.
func (t *Terminal) fill(bounds Rect, c color.RGBA, inside func(Point) bool) {
	x0, y0 := t.toCell(Pt(bounds.X, bounds.Y))
	x1, y1 := t.toCell(Pt(bounds.X+bounds.W, bounds.Y+bounds.H))
	x0, y0 = max(x0, 0), max(y0, 0)
	x1, y1 = min(x1, t.cols-1), min(y1, t.rows-1)
	for cy := y0; cy <= y1; cy++ {
		for cx := x0; cx <= x1; cx++ {
			if inside(t.centre(cx, cy)) {
				t.paint(cx, cy, c)
			}
		}
	}
}

func (t *Terminal) Clear(c color.RGBA) {
	t.resize()
	for i := range t.cells {
		t.cells[i] = cell{bg: c, r: ' '}
	}
}

func (t *Terminal) Line(a, b Point, s Style) {
	if s.Stroke.A == 0 {
		return
	}
	half := math.Max(s.StrokeWidth/2, t.cover()/2)
	bounds := Rect{
		X: math.Min(a.X, b.X) - half, Y: math.Min(a.Y, b.Y) - half,
		W: math.Abs(a.X-b.X) + 2*half, H: math.Abs(a.Y-b.Y) + 2*half,
	}
	t.fill(bounds, s.Stroke, func(p Point) bool {
		return segmentDist(p, a, b) <= half
	})
}

func (t *Terminal) Circle(center Point, radius float64, s Style) {
	bounds := Rect{X: center.X - radius - s.StrokeWidth, Y: center.Y - radius - s.StrokeWidth,
		W: 2 * (radius + s.StrokeWidth), H: 2 * (radius + s.StrokeWidth)}
	if s.Fill.A > 0 {
		t.fill(bounds, s.Fill, func(p Point) bool {
			return math.Hypot(p.X-center.X, p.Y-center.Y) <= radius
		})
	}
	if s.Stroke.A > 0 {
		half := math.Max(s.StrokeWidth/2, t.cover()/2)
		t.fill(bounds, s.Stroke, func(p Point) bool {
			return math.Abs(math.Hypot(p.X-center.X, p.Y-center.Y)-radius) <= half
		})
	}
}

func (t *Terminal) Rect(r Rect, s Style) {
	if s.Fill.A > 0 {
		t.fill(r, s.Fill, func(p Point) bool {
			return inRoundedRect(p, r, s.Radius)
		})
	}
	if s.Stroke.A > 0 {
		tl, tr := Pt(r.X, r.Y), Pt(r.X+r.W, r.Y)
		bl, br := Pt(r.X, r.Y+r.H), Pt(r.X+r.W, r.Y+r.H)
		line := Stroked(s.Stroke, s.StrokeWidth)
		t.Line(tl, tr, line)
		t.Line(tr, br, line)
		t.Line(br, bl, line)
		t.Line(bl, tl, line)
	}
}

func (t *Terminal) Arc(center Point, radius, start, end float64, s Style) {
	if s.Stroke.A == 0 || end <= start {
		return
	}
	half := math.Max(s.StrokeWidth/2, t.cover()/2)
	bounds := Rect{X: center.X - radius - half, Y: center.Y - radius - half, W: 2 * (radius + half), H: 2 * (radius + half)}
	full := end-start >= 2*math.Pi
	t.fill(bounds, s.Stroke, func(p Point) bool {
		if math.Abs(math.Hypot(p.X-center.X, p.Y-center.Y)-radius) > half {
			return false
		}
		if full {
			return true
		}
		a := math.Atan2(p.Y-center.Y, p.X-center.X)
		for a < start {
			a += 2 * math.Pi
		}
		return a <= end
	})
}

func (t *Terminal) Polygon(pts []Point, s Style) {
	if len(pts) < 3 {
		return
	}
	if s.Fill.A > 0 {
		minX, minY, maxX, maxY := pts[0].X, pts[0].Y, pts[0].X, pts[0].Y
		for _, p := range pts[1:] {
			minX, maxX = math.Min(minX, p.X), math.Max(maxX, p.X)
			minY, maxY = math.Min(minY, p.Y), math.Max(maxY, p.Y)
		}
		t.fill(Rect{X: minX, Y: minY, W: maxX - minX, H: maxY - minY}, s.Fill, func(p Point) bool {
			return inPolygon(p, pts)
		})
	}
	if s.Stroke.A > 0 {
		for i := range pts {
			t.Line(pts[i], pts[(i+1)%len(pts)], s)
		}
	}
}

// Text writes one terminal row per line, ignoring size.
func (t *Terminal) Text(text string, at Point, size float64, align Align, c color.RGBA) {
	if c.A == 0 {
		return
	}
	lines := strings.Split(text, "\n")
	cx0, cy := t.toCell(at)
	cy -= len(lines) / 2
	for _, line := range lines {
		runes := []rune(line)
		cx := cx0
		switch align {
		case AlignCenter:
			cx -= len(runes) / 2
		case AlignRight:
			cx -= len(runes)
		}
		for i, r := range runes {
			x := cx + i
			if x < 0 || cy < 0 || x >= t.cols || cy >= t.rows {
				continue
			}
			if t.masked(t.centre(x, cy)) {
				continue
			}
			idx := cy*t.cols + x
			t.cells[idx].r = r
			t.cells[idx].fg = Over(t.cells[idx].bg, c)
			t.cells[idx].dim = t.blur > 0
		}
		cy++
	}
}

func (t *Terminal) Image(img image.Image, dst Rect, tint color.RGBA) {
	if img == nil || dst.W <= 0 || dst.H <= 0 {
		return
	}
	b := img.Bounds()
	x0, y0 := t.toCell(Pt(dst.X, dst.Y))
	x1, y1 := t.toCell(Pt(dst.X+dst.W, dst.Y+dst.H))
	for cy := max(y0, 0); cy <= min(y1, t.rows-1); cy++ {
		for cx := max(x0, 0); cx <= min(x1, t.cols-1); cx++ {
			p := t.centre(cx, cy)
			if !dst.Contains(p) {
				continue
			}
			sx := b.Min.X + int((p.X-dst.X)/dst.W*float64(b.Dx()))
			sy := b.Min.Y + int((p.Y-dst.Y)/dst.H*float64(b.Dy()))
			px := color.RGBAModel.Convert(img.At(sx, sy)).(color.RGBA)
			if px.A == 0 {
				continue
			}
			if tint.A > 0 {
				px = color.RGBA{R: tint.R, G: tint.G, B: tint.B, A: uint8(uint16(px.A) * uint16(tint.A) / 255)}
			} else if px.A < 255 {
				// Un-premultiply so Over sees straight alpha.
				px.R = uint8(uint16(px.R) * 255 / uint16(px.A))
				px.G = uint8(uint16(px.G) * 255 / uint16(px.A))
				px.B = uint8(uint16(px.B) * 255 / uint16(px.A))
			}
			t.paint(cx, cy, px)
		}
	}
}

func (t *Terminal) PushMask(mask image.Image) {
	t.masks = append(t.masks, mask)
}

func (t *Terminal) PopMask() {
	if len(t.masks) > 0 {
		t.masks = t.masks[:len(t.masks)-1]
	}
}

func (t *Terminal) SetBlur(radius float64) {
	t.blur = radius
}

// Flush copies the cells to the screen and shows them.
func (t *Terminal) Flush() {
	for cy := 0; cy < t.rows; cy++ {
		for cx := 0; cx < t.cols; cx++ {
			c := t.cells[cy*t.cols+cx]
			style := tcell.StyleDefault.Background(toColor(c.bg))
			r := c.r
			if r == 0 {
				r = ' '
			}
			if r != ' ' {
				style = style.Foreground(toColor(c.fg)).Dim(c.dim)
			}
			t.screen.SetContent(cx, cy, r, nil, style)
		}
	}
	if t.footer != "" {
		_, rows := t.screen.Size()
		if rows > t.rows {
			style := tcell.StyleDefault.Background(tcell.ColorBlack).Foreground(tcell.ColorWhite)
			runes := []rune(t.footer)
			for cx := 0; cx < t.cols; cx++ {
				r := ' '
				if cx < len(runes) {
					r = runes[cx]
				}
				t.screen.SetContent(cx, t.rows, r, nil, style)
			}
		}
	}
	t.screen.Show()
}

func toColor(c color.RGBA) tcell.Color {
	return tcell.NewRGBColor(int32(c.R), int32(c.G), int32(c.B))
}

func segmentDist(p, a, b Point) float64 {
	dx, dy := b.X-a.X, b.Y-a.Y
	l2 := dx*dx + dy*dy
	if l2 == 0 {
		return math.Hypot(p.X-a.X, p.Y-a.Y)
	}
	u := ((p.X-a.X)*dx + (p.Y-a.Y)*dy) / l2
	u = math.Max(0, math.Min(1, u))
	return math.Hypot(p.X-(a.X+u*dx), p.Y-(a.Y+u*dy))
}

func inPolygon(p Point, pts []Point) bool {
	in := false
	for i, j := 0, len(pts)-1; i < len(pts); j, i = i, i+1 {
		a, b := pts[i], pts[j]
		if (a.Y > p.Y) != (b.Y > p.Y) && p.X < (b.X-a.X)*(p.Y-a.Y)/(b.Y-a.Y)+a.X {
			in = !in
		}
	}
	return in
}

func inRoundedRect(p Point, r Rect, radius float64) bool {
	if !r.Contains(p) {
		return false
	}
	radius = math.Min(radius, math.Min(r.W, r.H)/2)
	if radius <= 0 {
		return true
	}
	cx := math.Max(r.X+radius, math.Min(p.X, r.X+r.W-radius))
	cy := math.Max(r.Y+radius, math.Min(p.Y, r.Y+r.H-radius))
	return math.Hypot(p.X-cx, p.Y-cy) <= radius
}
