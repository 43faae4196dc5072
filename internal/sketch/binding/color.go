package binding

import (
	"fmt"
	"image/color"
	"math"
	"strconv"
	"strings"

	"github.com/dop251/goja"
)

var namedColors = map[string]color.NRGBA{
	"black":       {0, 0, 0, 255},
	"white":       {255, 255, 255, 255},
	"red":         {255, 0, 0, 255},
	"green":       {0, 128, 0, 255},
	"lime":        {0, 255, 0, 255},
	"blue":        {0, 0, 255, 255},
	"yellow":      {255, 255, 0, 255},
	"cyan":        {0, 255, 255, 255},
	"aqua":        {0, 255, 255, 255},
	"magenta":     {255, 0, 255, 255},
	"fuchsia":     {255, 0, 255, 255},
	"gray":        {128, 128, 128, 255},
	"grey":        {128, 128, 128, 255},
	"silver":      {192, 192, 192, 255},
	"orange":      {255, 165, 0, 255},
	"purple":      {128, 0, 128, 255},
	"pink":        {255, 192, 203, 255},
	"brown":       {165, 42, 42, 255},
	"navy":        {0, 0, 128, 255},
	"teal":        {0, 128, 128, 255},
	"maroon":      {128, 0, 0, 255},
	"olive":       {128, 128, 0, 255},
	"gold":        {255, 215, 0, 255},
	"transparent": {0, 0, 0, 0},
}

func channel(v float64) uint8 {
	if math.IsNaN(v) {
		return 0
	}
	return uint8(math.Round(math.Max(0, math.Min(255, v))))
}

// colorFromArgs interprets p5-style color arguments: gray, gray+alpha,
// r,g,b, r,g,b,a, a CSS string, an array of levels or a color object
func colorFromArgs(args []goja.Value) (color.NRGBA, bool) {
	if len(args) == 0 {
		return color.NRGBA{}, false
	}

	if len(args) <= 2 {
		first := args[0]
		if c, ok := colorFromValue(first); ok {
			if len(args) == 2 {
				c.A = channel(args[1].ToFloat())
			}
			return c, true
		}
	}

	nums := make([]float64, len(args))
	for i, a := range args {
		nums[i] = a.ToFloat()
	}

	switch len(nums) {
	case 1:
		g := channel(nums[0])
		return color.NRGBA{g, g, g, 255}, true
	case 2:
		g := channel(nums[0])
		return color.NRGBA{g, g, g, channel(nums[1])}, true
	case 3:
		return color.NRGBA{channel(nums[0]), channel(nums[1]), channel(nums[2]), 255}, true
	default:
		return color.NRGBA{channel(nums[0]), channel(nums[1]), channel(nums[2]), channel(nums[3])}, true
	}
}

// colorFromValue handles the non-numeric single-argument forms
func colorFromValue(v goja.Value) (color.NRGBA, bool) {
	if v == nil || goja.IsUndefined(v) || goja.IsNull(v) {
		return color.NRGBA{}, false
	}

	switch exported := v.Export().(type) {
	case string:
		return parseCSSColor(exported)
	case []interface{}:
		return colorFromLevels(exported)
	case map[string]interface{}:
		if levels, ok := exported["levels"].([]interface{}); ok {
			return colorFromLevels(levels)
		}
	}
	return color.NRGBA{}, false
}

func colorFromLevels(levels []interface{}) (color.NRGBA, bool) {
	nums := make([]float64, 0, 4)
	for _, l := range levels {
		switch n := l.(type) {
		case int64:
			nums = append(nums, float64(n))
		case float64:
			nums = append(nums, n)
		default:
			return color.NRGBA{}, false
		}
	}
	switch len(nums) {
	case 1:
		g := channel(nums[0])
		return color.NRGBA{g, g, g, 255}, true
	case 2:
		g := channel(nums[0])
		return color.NRGBA{g, g, g, channel(nums[1])}, true
	case 3:
		return color.NRGBA{channel(nums[0]), channel(nums[1]), channel(nums[2]), 255}, true
	case 4:
		return color.NRGBA{channel(nums[0]), channel(nums[1]), channel(nums[2]), channel(nums[3])}, true
	}
	return color.NRGBA{}, false
}

// parseCSSColor accepts hex, rgb()/rgba() and a small set of named colors
func parseCSSColor(s string) (color.NRGBA, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	if c, ok := namedColors[s]; ok {
		return c, true
	}

	if strings.HasPrefix(s, "#") {
		return parseHex(s[1:])
	}

	for _, prefix := range []string{"rgba(", "rgb("} {
		if strings.HasPrefix(s, prefix) && strings.HasSuffix(s, ")") {
			parts := strings.Split(s[len(prefix):len(s)-1], ",")
			if len(parts) != 3 && len(parts) != 4 {
				return color.NRGBA{}, false
			}
			var vals [4]float64
			vals[3] = 1
			for i, part := range parts {
				f, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
				if err != nil {
					return color.NRGBA{}, false
				}
				vals[i] = f
			}
			return color.NRGBA{channel(vals[0]), channel(vals[1]), channel(vals[2]), channel(vals[3] * 255)}, true
		}
	}
	return color.NRGBA{}, false
}

func parseHex(h string) (color.NRGBA, bool) {
	if len(h) == 3 || len(h) == 4 {
		var expanded strings.Builder
		for _, r := range h {
			expanded.WriteRune(r)
			expanded.WriteRune(r)
		}
		h = expanded.String()
	}
	if len(h) != 6 && len(h) != 8 {
		return color.NRGBA{}, false
	}

	n, err := strconv.ParseUint(h, 16, 32)
	if err != nil {
		return color.NRGBA{}, false
	}
	if len(h) == 6 {
		return color.NRGBA{uint8(n >> 16), uint8(n >> 8), uint8(n), 255}, true
	}
	return color.NRGBA{uint8(n >> 24), uint8(n >> 16), uint8(n >> 8), uint8(n)}, true
}

func lerpColor(a, b color.NRGBA, t float64) color.NRGBA {
	t = math.Max(0, math.Min(1, t))
	mix := func(x, y uint8) uint8 {
		return channel(float64(x) + (float64(y)-float64(x))*t)
	}
	return color.NRGBA{mix(a.R, b.R), mix(a.G, b.G), mix(a.B, b.B), mix(a.A, b.A)}
}

func cssString(c color.NRGBA) string {
	return fmt.Sprintf("rgba(%d,%d,%d,%s)", c.R, c.G, c.B,
		strconv.FormatFloat(float64(c.A)/255, 'f', -1, 64))
}

// newColorObject builds the JS value returned by p.color
func newColorObject(vm *goja.Runtime, c color.NRGBA) *goja.Object {
	obj := vm.NewObject()
	_ = obj.Set("levels", []interface{}{int64(c.R), int64(c.G), int64(c.B), int64(c.A)})
	_ = obj.Set("toString", func(goja.FunctionCall) goja.Value {
		return vm.ToValue(cssString(c))
	})
	return obj
}
