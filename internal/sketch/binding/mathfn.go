package binding

import (
	"math"
	"strconv"

	"github.com/dop251/goja"
)

func (b *Binding) unary(name string, f func(float64) float64) {
	b.fn(name, func(call goja.FunctionCall) goja.Value {
		return b.vm.ToValue(f(call.Argument(0).ToFloat()))
	})
}

// numbers flattens either a single array argument or the argument list
func numbers(call goja.FunctionCall) []float64 {
	args := call.Arguments
	if len(args) == 1 {
		if arr, ok := args[0].Export().([]interface{}); ok {
			out := make([]float64, 0, len(arr))
			for _, v := range arr {
				switch n := v.(type) {
				case int64:
					out = append(out, float64(n))
				case float64:
					out = append(out, n)
				}
			}
			return out
		}
	}
	out := make([]float64, len(args))
	for i, a := range args {
		out[i] = a.ToFloat()
	}
	return out
}

func remap(v, start1, stop1, start2, stop2 float64) float64 {
	return start2 + (stop2-start2)*((v-start1)/(stop1-start1))
}

func constrain(v, lo, hi float64) float64 {
	return math.Max(math.Min(v, hi), lo)
}

func (b *Binding) bindMath() {
	b.fn("random", func(call goja.FunctionCall) goja.Value {
		args := call.Arguments
		switch {
		case len(args) == 0:
			return b.vm.ToValue(b.rng.Float64())
		case len(args) == 1:
			if obj, ok := args[0].(*goja.Object); ok && obj.ClassName() == "Array" {
				n := obj.Get("length").ToInteger()
				if n == 0 {
					return goja.Undefined()
				}
				return obj.Get(strconv.FormatInt(b.rng.Int63n(n), 10))
			}
			return b.vm.ToValue(b.rng.Float64() * args[0].ToFloat())
		default:
			lo, hi := args[0].ToFloat(), args[1].ToFloat()
			if lo > hi {
				lo, hi = hi, lo
			}
			return b.vm.ToValue(lo + b.rng.Float64()*(hi-lo))
		}
	})
	b.fn("randomSeed", func(call goja.FunctionCall) goja.Value {
		b.rng.Seed(call.Argument(0).ToInteger())
		return goja.Undefined()
	})
	b.fn("randomGaussian", func(call goja.FunctionCall) goja.Value {
		mean, sd := 0.0, 1.0
		if len(call.Arguments) > 0 {
			mean = call.Argument(0).ToFloat()
		}
		if len(call.Arguments) > 1 {
			sd = call.Argument(1).ToFloat()
		}
		return b.vm.ToValue(mean + b.rng.NormFloat64()*sd)
	})
	b.fn("noise", func(call goja.FunctionCall) goja.Value {
		var x, y, z float64
		x = call.Argument(0).ToFloat()
		if len(call.Arguments) > 1 {
			y = call.Argument(1).ToFloat()
		}
		if len(call.Arguments) > 2 {
			z = call.Argument(2).ToFloat()
		}
		if !finite(x, y, z) {
			return b.vm.ToValue(math.NaN())
		}
		return b.vm.ToValue(b.noise.At(x, y, z))
	})
	b.fn("noiseSeed", func(call goja.FunctionCall) goja.Value {
		b.noise.Seed(call.Argument(0).ToInteger())
		return goja.Undefined()
	})

	b.fn("map", func(call goja.FunctionCall) goja.Value {
		a := floats(call, 5)
		v := remap(a[0], a[1], a[2], a[3], a[4])
		if call.Argument(5).ToBoolean() {
			if a[3] < a[4] {
				v = constrain(v, a[3], a[4])
			} else {
				v = constrain(v, a[4], a[3])
			}
		}
		return b.vm.ToValue(v)
	})
	b.fn("constrain", func(call goja.FunctionCall) goja.Value {
		a := floats(call, 3)
		return b.vm.ToValue(constrain(a[0], a[1], a[2]))
	})
	b.fn("lerp", func(call goja.FunctionCall) goja.Value {
		a := floats(call, 3)
		return b.vm.ToValue(lerp(a[2], a[0], a[1]))
	})
	b.fn("dist", func(call goja.FunctionCall) goja.Value {
		if len(call.Arguments) >= 6 {
			a := floats(call, 6)
			return b.vm.ToValue(math.Sqrt(sq(a[3]-a[0]) + sq(a[4]-a[1]) + sq(a[5]-a[2])))
		}
		a := floats(call, 4)
		return b.vm.ToValue(math.Hypot(a[2]-a[0], a[3]-a[1]))
	})
	b.fn("mag", func(call goja.FunctionCall) goja.Value {
		a := floats(call, 2)
		return b.vm.ToValue(math.Hypot(a[0], a[1]))
	})
	b.fn("round", func(call goja.FunctionCall) goja.Value {
		v := call.Argument(0).ToFloat()
		if digits := call.Argument(1); !goja.IsUndefined(digits) {
			scale := math.Pow(10, digits.ToFloat())
			return b.vm.ToValue(math.Round(v*scale) / scale)
		}
		return b.vm.ToValue(math.Round(v))
	})
	b.fn("pow", func(call goja.FunctionCall) goja.Value {
		a := floats(call, 2)
		return b.vm.ToValue(math.Pow(a[0], a[1]))
	})
	b.fn("atan2", func(call goja.FunctionCall) goja.Value {
		a := floats(call, 2)
		return b.vm.ToValue(math.Atan2(a[0], a[1]))
	})
	b.fn("min", func(call goja.FunctionCall) goja.Value {
		nums := numbers(call)
		if len(nums) == 0 {
			return b.vm.ToValue(math.Inf(1))
		}
		m := nums[0]
		for _, n := range nums[1:] {
			m = math.Min(m, n)
		}
		return b.vm.ToValue(m)
	})
	b.fn("max", func(call goja.FunctionCall) goja.Value {
		nums := numbers(call)
		if len(nums) == 0 {
			return b.vm.ToValue(math.Inf(-1))
		}
		m := nums[0]
		for _, n := range nums[1:] {
			m = math.Max(m, n)
		}
		return b.vm.ToValue(m)
	})

	b.unary("floor", math.Floor)
	b.unary("ceil", math.Ceil)
	b.unary("abs", math.Abs)
	b.unary("sqrt", math.Sqrt)
	b.unary("sq", sq)
	b.unary("exp", math.Exp)
	b.unary("log", math.Log)
	b.unary("sin", math.Sin)
	b.unary("cos", math.Cos)
	b.unary("tan", math.Tan)
	b.unary("asin", math.Asin)
	b.unary("acos", math.Acos)
	b.unary("atan", math.Atan)
	b.unary("radians", func(d float64) float64 { return d * math.Pi / 180 })
	b.unary("degrees", func(r float64) float64 { return r * 180 / math.Pi })

	b.fn("millis", func(goja.FunctionCall) goja.Value {
		return b.vm.ToValue(b.Loop.Millis(b.now()))
	})
}

func sq(v float64) float64 { return v * v }

func (b *Binding) bindLoop() {
	b.fn("frameRate", func(call goja.FunctionCall) goja.Value {
		if len(call.Arguments) == 0 {
			return b.vm.ToValue(b.Loop.TargetFrameRate())
		}
		b.Loop.SetFrameRate(call.Argument(0).ToFloat())
		return goja.Undefined()
	})
	b.fn("noLoop", func(goja.FunctionCall) goja.Value {
		b.Loop.Looping = false
		return goja.Undefined()
	})
	b.fn("loop", func(goja.FunctionCall) goja.Value {
		b.Loop.Looping = true
		return goja.Undefined()
	})
	b.fn("isLooping", func(goja.FunctionCall) goja.Value {
		return b.vm.ToValue(b.Loop.Looping)
	})
	b.fn("redraw", func(call goja.FunctionCall) goja.Value {
		n := 1
		if len(call.Arguments) > 0 {
			n = int(call.Argument(0).ToInteger())
		}
		b.Loop.RequestRedraw(n)
		return goja.Undefined()
	})
}
