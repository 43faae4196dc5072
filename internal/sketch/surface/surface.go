package surface

import (
	"fmt"
	"image"
	"image/color"
	"io"
	"math"
	"sync/atomic"

	"github.com/fogleman/gg"
)

var nextID atomic.Uint64

// Surface is a raster drawing target backed by a gg context.
// It is not safe for concurrent use; the owning harness serializes access.
type Surface struct {
	id     uint64
	dc     *gg.Context
	style  Style
	stack  []Style
	fonts  *fontCache
	shape  []Point
	inPath bool
}

// New allocates a surface of the given pixel size
func New(width, height int) (*Surface, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid surface size %dx%d", width, height)
	}

	s := &Surface{
		id:    nextID.Add(1),
		dc:    gg.NewContext(width, height),
		style: DefaultStyle(),
		fonts: newFontCache(),
	}
	s.applyFont()
	return s, nil
}

// ID identifies the surface for attachment bookkeeping
func (s *Surface) ID() uint64 { return s.id }

// Width returns the surface width in pixels
func (s *Surface) Width() int { return s.dc.Width() }

// Height returns the surface height in pixels
func (s *Surface) Height() int { return s.dc.Height() }

// Style returns the current drawing state
func (s *Surface) Style() Style { return s.style }

// Resize reallocates the pixel buffer. Pixels and transforms are reset,
// the drawing style is kept.
func (s *Surface) Resize(width, height int) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("invalid surface size %dx%d", width, height)
	}
	if width == s.Width() && height == s.Height() {
		return nil
	}

	s.dc = gg.NewContext(width, height)
	s.stack = nil
	s.shape = nil
	s.inPath = false
	s.applyFont()
	return nil
}

// Image exposes the pixel buffer
func (s *Surface) Image() image.Image { return s.dc.Image() }

// EncodePNG writes the current frame as PNG
func (s *Surface) EncodePNG(w io.Writer) error {
	return s.dc.EncodePNG(w)
}

// Push saves style and transform
func (s *Surface) Push() {
	s.stack = append(s.stack, s.style)
	s.dc.Push()
}

// Pop restores the last pushed style and transform. Unbalanced pops are ignored.
func (s *Surface) Pop() {
	if len(s.stack) == 0 {
		return
	}
	s.style = s.stack[len(s.stack)-1]
	s.stack = s.stack[:len(s.stack)-1]
	s.dc.Pop()
	s.applyFont()
}

// Style setters

func (s *Surface) SetFill(c color.NRGBA) {
	s.style.Fill = c
	s.style.HasFill = true
}

func (s *Surface) NoFill() { s.style.HasFill = false }

func (s *Surface) SetStroke(c color.NRGBA) {
	s.style.Stroke = c
	s.style.HasStroke = true
}

func (s *Surface) NoStroke() { s.style.HasStroke = false }

func (s *Surface) SetStrokeWeight(w float64) {
	if w < 0 || math.IsNaN(w) {
		return
	}
	s.style.StrokeWeight = w
}

func (s *Surface) SetRectMode(m Mode)    { s.style.RectMode = m }
func (s *Surface) SetEllipseMode(m Mode) { s.style.EllipseMode = m }

func (s *Surface) SetTextSize(size float64) {
	if size <= 0 || math.IsNaN(size) {
		return
	}
	s.style.TextSize = size
	s.applyFont()
}

func (s *Surface) SetTextAlign(x, y Align) {
	if x != "" {
		s.style.TextAlignX = x
	}
	if y != "" {
		s.style.TextAlignY = y
	}
}

// Transforms

func (s *Surface) Translate(x, y float64) { s.dc.Translate(x, y) }
func (s *Surface) Rotate(angle float64)   { s.dc.Rotate(angle) }

func (s *Surface) Scale(x, y float64) { s.dc.Scale(x, y) }

// Background fills the whole surface, ignoring the current transform
func (s *Surface) Background(c color.NRGBA) {
	s.dc.Push()
	s.dc.Identity()
	s.dc.SetColor(c)
	if c.A == 255 {
		s.dc.Clear()
	} else {
		s.dc.DrawRectangle(0, 0, float64(s.Width()), float64(s.Height()))
		s.dc.Fill()
	}
	s.dc.Pop()
}

// Clear makes every pixel transparent
func (s *Surface) Clear() {
	s.dc.Push()
	s.dc.SetColor(color.NRGBA{})
	s.dc.Clear()
	s.dc.Pop()
}

// Rect draws a rectangle interpreted through the rect mode
func (s *Surface) Rect(x, y, w, h float64) {
	x, y, w, h = box(s.style.RectMode, x, y, w, h)
	s.dc.DrawRectangle(x, y, w, h)
	s.paint()
}

// Ellipse draws an ellipse interpreted through the ellipse mode
func (s *Surface) Ellipse(x, y, w, h float64) {
	mode := s.style.EllipseMode
	if mode == ModeCorner || mode == ModeCorners {
		x, y, w, h = box(mode, x, y, w, h)
		x, y = x+w/2, y+h/2
	} else if mode == ModeRadius {
		w, h = w*2, h*2
	}
	s.dc.DrawEllipse(x, y, math.Abs(w)/2, math.Abs(h)/2)
	s.paint()
}

// Arc draws an elliptical arc; the fill is a pie slice, the stroke is open
func (s *Surface) Arc(x, y, w, h, start, stop float64) {
	rx, ry := math.Abs(w)/2, math.Abs(h)/2
	if s.style.HasFill {
		s.dc.MoveTo(x, y)
		s.dc.DrawEllipticalArc(x, y, rx, ry, start, stop)
		s.dc.ClosePath()
		s.dc.SetColor(s.style.Fill)
		s.dc.Fill()
	}
	if s.style.HasStroke && s.style.StrokeWeight > 0 {
		s.dc.NewSubPath()
		s.dc.DrawEllipticalArc(x, y, rx, ry, start, stop)
		s.dc.SetColor(s.style.Stroke)
		s.dc.SetLineWidth(s.style.StrokeWeight)
		s.dc.Stroke()
	}
	s.dc.ClearPath()
}

// Line draws a segment with the stroke style
func (s *Surface) Line(x1, y1, x2, y2 float64) {
	if !s.style.HasStroke || s.style.StrokeWeight <= 0 {
		return
	}
	s.dc.DrawLine(x1, y1, x2, y2)
	s.dc.SetColor(s.style.Stroke)
	s.dc.SetLineWidth(s.style.StrokeWeight)
	s.dc.Stroke()
}

// Point draws a dot whose diameter is the stroke weight
func (s *Surface) Point(x, y float64) {
	if !s.style.HasStroke {
		return
	}
	r := math.Max(s.style.StrokeWeight/2, 0.5)
	s.dc.DrawPoint(x, y, r)
	s.dc.SetColor(s.style.Stroke)
	s.dc.Fill()
}

// Polygon draws a path through pts, optionally closing it
func (s *Surface) Polygon(pts []Point, closed bool) {
	if len(pts) == 0 {
		return
	}
	s.dc.NewSubPath()
	s.dc.MoveTo(pts[0].X, pts[0].Y)
	for _, p := range pts[1:] {
		s.dc.LineTo(p.X, p.Y)
	}
	if closed {
		s.dc.ClosePath()
	}
	s.paint()
}

// BeginShape starts collecting vertices
func (s *Surface) BeginShape() {
	s.shape = s.shape[:0]
	s.inPath = true
}

// Vertex adds a vertex to the open shape
func (s *Surface) Vertex(x, y float64) {
	if !s.inPath {
		return
	}
	s.shape = append(s.shape, Point{X: x, Y: y})
}

// EndShape draws the collected vertices
func (s *Surface) EndShape(closed bool) {
	if !s.inPath {
		return
	}
	s.inPath = false
	s.Polygon(s.shape, closed)
	s.shape = s.shape[:0]
}

// Text draws a string with the fill color using the current alignment
func (s *Surface) Text(str string, x, y float64) {
	if !s.style.HasFill {
		return
	}
	ax, ay := anchor(s.style.TextAlignX, s.style.TextAlignY)
	s.dc.SetColor(s.style.Fill)
	s.dc.DrawStringAnchored(str, x, y, ax, ay)
}

// TextWidth measures a string with the current font
func (s *Surface) TextWidth(str string) float64 {
	w, _ := s.dc.MeasureString(str)
	return w
}

// paint fills and strokes the current path according to the style
func (s *Surface) paint() {
	if s.style.HasFill {
		s.dc.SetColor(s.style.Fill)
		s.dc.FillPreserve()
	}
	if s.style.HasStroke && s.style.StrokeWeight > 0 {
		s.dc.SetColor(s.style.Stroke)
		s.dc.SetLineWidth(s.style.StrokeWeight)
		s.dc.StrokePreserve()
	}
	s.dc.ClearPath()
}

func (s *Surface) applyFont() {
	if face := s.fonts.face(s.style.TextSize); face != nil {
		s.dc.SetFontFace(face)
	}
}

// box normalizes rectangle arguments to top-left corner plus size
func box(mode Mode, x, y, w, h float64) (float64, float64, float64, float64) {
	switch mode {
	case ModeCenter:
		return x - w/2, y - h/2, w, h
	case ModeRadius:
		return x - w, y - h, w * 2, h * 2
	case ModeCorners:
		return math.Min(x, w), math.Min(y, h), math.Abs(w - x), math.Abs(h - y)
	default:
		return x, y, w, h
	}
}

func anchor(x, y Align) (float64, float64) {
	var ax, ay float64
	switch x {
	case AlignCenter:
		ax = 0.5
	case AlignRight:
		ax = 1
	}
	switch y {
	case AlignTop:
		ay = 1
	case AlignCenter:
		ay = 0.5
	}
	return ax, ay
}
