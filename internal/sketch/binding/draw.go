package binding

import (
	"image/color"
	"math"

	"github.com/dop251/goja"

	"github.com/GriffinCanCode/SketchBox/internal/sketch/surface"
)

func finite(vals ...float64) bool {
	for _, v := range vals {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

func floats(call goja.FunctionCall, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = call.Argument(i).ToFloat()
	}
	return out
}

// draw registers a function that runs only once the surface exists and only
// with finite coordinates
func (b *Binding) draw(name string, n int, f func(s *surface.Surface, a []float64)) {
	b.fn(name, func(call goja.FunctionCall) goja.Value {
		s := b.Surface()
		if s == nil {
			return goja.Undefined()
		}
		a := floats(call, n)
		if finite(a...) {
			f(s, a)
		}
		return goja.Undefined()
	})
}

// style registers a function that updates drawing state on the surface
func (b *Binding) style(name string, f func(s *surface.Surface, call goja.FunctionCall)) {
	b.fn(name, func(call goja.FunctionCall) goja.Value {
		if s := b.Surface(); s != nil {
			f(s, call)
		}
		return goja.Undefined()
	})
}

func (b *Binding) colorArg(call goja.FunctionCall) (color.NRGBA, bool) {
	return colorFromArgs(call.Arguments)
}

func modeArg(v goja.Value) (surface.Mode, bool) {
	switch m := surface.Mode(v.String()); m {
	case surface.ModeCorner, surface.ModeCorners, surface.ModeCenter, surface.ModeRadius:
		return m, true
	}
	return "", false
}

func alignArg(v goja.Value) surface.Align {
	if v == nil || goja.IsUndefined(v) {
		return ""
	}
	switch a := surface.Align(v.String()); a {
	case surface.AlignLeft, surface.AlignRight, surface.AlignCenter,
		surface.AlignTop, surface.AlignBottom, surface.AlignBaseline:
		return a
	}
	return ""
}

func (b *Binding) bindDrawing() {
	b.style("background", func(s *surface.Surface, call goja.FunctionCall) {
		if c, ok := b.colorArg(call); ok {
			s.Background(c)
		}
	})
	b.style("clear", func(s *surface.Surface, _ goja.FunctionCall) { s.Clear() })

	b.style("fill", func(s *surface.Surface, call goja.FunctionCall) {
		if c, ok := b.colorArg(call); ok {
			s.SetFill(c)
		}
	})
	b.style("noFill", func(s *surface.Surface, _ goja.FunctionCall) { s.NoFill() })
	b.style("stroke", func(s *surface.Surface, call goja.FunctionCall) {
		if c, ok := b.colorArg(call); ok {
			s.SetStroke(c)
		}
	})
	b.style("noStroke", func(s *surface.Surface, _ goja.FunctionCall) { s.NoStroke() })
	b.style("strokeWeight", func(s *surface.Surface, call goja.FunctionCall) {
		s.SetStrokeWeight(call.Argument(0).ToFloat())
	})
	b.style("rectMode", func(s *surface.Surface, call goja.FunctionCall) {
		if m, ok := modeArg(call.Argument(0)); ok {
			s.SetRectMode(m)
		}
	})
	b.style("ellipseMode", func(s *surface.Surface, call goja.FunctionCall) {
		if m, ok := modeArg(call.Argument(0)); ok {
			s.SetEllipseMode(m)
		}
	})

	b.fn("rect", func(call goja.FunctionCall) goja.Value {
		s := b.Surface()
		if s == nil {
			return goja.Undefined()
		}
		a := floats(call, 4)
		if goja.IsUndefined(call.Argument(3)) {
			a[3] = a[2]
		}
		if finite(a...) {
			s.Rect(a[0], a[1], a[2], a[3])
		}
		return goja.Undefined()
	})
	b.draw("square", 3, func(s *surface.Surface, a []float64) { s.Rect(a[0], a[1], a[2], a[2]) })

	b.fn("ellipse", func(call goja.FunctionCall) goja.Value {
		s := b.Surface()
		if s == nil {
			return goja.Undefined()
		}
		a := floats(call, 4)
		if goja.IsUndefined(call.Argument(3)) {
			a[3] = a[2]
		}
		if finite(a...) {
			s.Ellipse(a[0], a[1], a[2], a[3])
		}
		return goja.Undefined()
	})
	b.draw("circle", 3, func(s *surface.Surface, a []float64) { s.Ellipse(a[0], a[1], a[2], a[2]) })
	b.draw("line", 4, func(s *surface.Surface, a []float64) { s.Line(a[0], a[1], a[2], a[3]) })
	b.draw("point", 2, func(s *surface.Surface, a []float64) { s.Point(a[0], a[1]) })
	b.draw("triangle", 6, func(s *surface.Surface, a []float64) {
		s.Polygon([]surface.Point{{X: a[0], Y: a[1]}, {X: a[2], Y: a[3]}, {X: a[4], Y: a[5]}}, true)
	})
	b.draw("quad", 8, func(s *surface.Surface, a []float64) {
		s.Polygon([]surface.Point{{X: a[0], Y: a[1]}, {X: a[2], Y: a[3]}, {X: a[4], Y: a[5]}, {X: a[6], Y: a[7]}}, true)
	})
	b.draw("arc", 6, func(s *surface.Surface, a []float64) { s.Arc(a[0], a[1], a[2], a[3], a[4], a[5]) })

	b.style("beginShape", func(s *surface.Surface, _ goja.FunctionCall) { s.BeginShape() })
	b.draw("vertex", 2, func(s *surface.Surface, a []float64) { s.Vertex(a[0], a[1]) })
	b.style("endShape", func(s *surface.Surface, call goja.FunctionCall) {
		s.EndShape(call.Argument(0).String() == closeMode)
	})

	b.fn("text", func(call goja.FunctionCall) goja.Value {
		s := b.Surface()
		if s == nil {
			return goja.Undefined()
		}
		x, y := call.Argument(1).ToFloat(), call.Argument(2).ToFloat()
		if finite(x, y) {
			s.Text(call.Argument(0).String(), x, y)
		}
		return goja.Undefined()
	})
	b.fn("textSize", func(call goja.FunctionCall) goja.Value {
		s := b.Surface()
		if s == nil {
			return goja.Undefined()
		}
		if len(call.Arguments) == 0 {
			return b.vm.ToValue(s.Style().TextSize)
		}
		s.SetTextSize(call.Argument(0).ToFloat())
		return goja.Undefined()
	})
	b.style("textAlign", func(s *surface.Surface, call goja.FunctionCall) {
		s.SetTextAlign(alignArg(call.Argument(0)), alignArg(call.Argument(1)))
	})
	b.fn("textWidth", func(call goja.FunctionCall) goja.Value {
		s := b.Surface()
		if s == nil {
			return b.vm.ToValue(0)
		}
		return b.vm.ToValue(s.TextWidth(call.Argument(0).String()))
	})

	b.style("push", func(s *surface.Surface, _ goja.FunctionCall) { s.Push() })
	b.style("pop", func(s *surface.Surface, _ goja.FunctionCall) { s.Pop() })
	b.draw("translate", 2, func(s *surface.Surface, a []float64) { s.Translate(a[0], a[1]) })
	b.draw("rotate", 1, func(s *surface.Surface, a []float64) { s.Rotate(a[0]) })
	b.fn("scale", func(call goja.FunctionCall) goja.Value {
		s := b.Surface()
		if s == nil {
			return goja.Undefined()
		}
		x := call.Argument(0).ToFloat()
		y := x
		if !goja.IsUndefined(call.Argument(1)) {
			y = call.Argument(1).ToFloat()
		}
		if finite(x, y) {
			s.Scale(x, y)
		}
		return goja.Undefined()
	})

	b.fn("color", func(call goja.FunctionCall) goja.Value {
		c, ok := b.colorArg(call)
		if !ok {
			panic(b.vm.NewTypeError("color: unsupported arguments"))
		}
		return newColorObject(b.vm, c)
	})
	b.fn("lerpColor", func(call goja.FunctionCall) goja.Value {
		from, ok1 := colorFromValue(call.Argument(0))
		to, ok2 := colorFromValue(call.Argument(1))
		if !ok1 || !ok2 {
			panic(b.vm.NewTypeError("lerpColor expects two colors"))
		}
		return newColorObject(b.vm, lerpColor(from, to, call.Argument(2).ToFloat()))
	})
	channelFn := func(pick func(color.NRGBA) uint8) func(goja.FunctionCall) goja.Value {
		return func(call goja.FunctionCall) goja.Value {
			c, ok := colorFromValue(call.Argument(0))
			if !ok {
				return b.vm.ToValue(0)
			}
			return b.vm.ToValue(int(pick(c)))
		}
	}
	b.fn("red", channelFn(func(c color.NRGBA) uint8 { return c.R }))
	b.fn("green", channelFn(func(c color.NRGBA) uint8 { return c.G }))
	b.fn("blue", channelFn(func(c color.NRGBA) uint8 { return c.B }))
	b.fn("alpha", channelFn(func(c color.NRGBA) uint8 { return c.A }))
}
