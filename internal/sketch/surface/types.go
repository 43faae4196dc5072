package surface

import "image/color"

// Mode selects how rectangle and ellipse coordinates are interpreted
type Mode string

const (
	ModeCorner  Mode = "corner"
	ModeCorners Mode = "corners"
	ModeCenter  Mode = "center"
	ModeRadius  Mode = "radius"
)

// Align is a text alignment keyword
type Align string

const (
	AlignLeft     Align = "left"
	AlignRight    Align = "right"
	AlignCenter   Align = "center"
	AlignTop      Align = "top"
	AlignBottom   Align = "bottom"
	AlignBaseline Align = "alphabetic"
)

// Point is a vertex in surface coordinates
type Point struct {
	X float64
	Y float64
}

// Style holds the drawing state saved by push and restored by pop
type Style struct {
	Fill         color.NRGBA
	Stroke       color.NRGBA
	HasFill      bool
	HasStroke    bool
	StrokeWeight float64
	TextSize     float64
	TextAlignX   Align
	TextAlignY   Align
	RectMode     Mode
	EllipseMode  Mode
}

// DefaultStyle returns the drawing state of a fresh surface
func DefaultStyle() Style {
	return Style{
		Fill:         color.NRGBA{R: 255, G: 255, B: 255, A: 255},
		Stroke:       color.NRGBA{A: 255},
		HasFill:      true,
		HasStroke:    true,
		StrokeWeight: 1,
		TextSize:     12,
		TextAlignX:   AlignLeft,
		TextAlignY:   AlignBaseline,
		RectMode:     ModeCorner,
		EllipseMode:  ModeCenter,
	}
}
