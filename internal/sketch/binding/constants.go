package binding

import "math"

// Key codes exposed as constants on p
var keyCodes = map[string]int{
	"BACKSPACE":   8,
	"TAB":         9,
	"ENTER":       13,
	"RETURN":      13,
	"SHIFT":       16,
	"CONTROL":     17,
	"ALT":         18,
	"ESCAPE":      27,
	"LEFT_ARROW":  37,
	"UP_ARROW":    38,
	"RIGHT_ARROW": 39,
	"DOWN_ARROW":  40,
	"DELETE":      46,
}

const closeMode = "close"

var keywords = map[string]string{
	"LEFT":     "left",
	"RIGHT":    "right",
	"CENTER":   "center",
	"TOP":      "top",
	"BOTTOM":   "bottom",
	"BASELINE": "alphabetic",
	"CORNER":   "corner",
	"CORNERS":  "corners",
	"RADIUS":   "radius",
	"CLOSE":    closeMode,
	"PIE":      "pie",
	"OPEN":     "open",
	"CHORD":    "chord",
}

var numeric = map[string]float64{
	"PI":         math.Pi,
	"TWO_PI":     2 * math.Pi,
	"TAU":        2 * math.Pi,
	"HALF_PI":    math.Pi / 2,
	"QUARTER_PI": math.Pi / 4,
}

func (b *Binding) bindConstants() {
	for name, code := range keyCodes {
		b.set(b.obj, name, code)
	}
	for name, v := range keywords {
		b.set(b.obj, name, v)
	}
	for name, v := range numeric {
		b.set(b.obj, name, v)
	}
}
