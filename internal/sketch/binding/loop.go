package binding

import (
	"math"
	"time"
)

// DefaultFrameRate is used until the sketch asks for another rate
const DefaultFrameRate = 60.0

// LoopState tracks frame counting and loop control requested by the sketch
type LoopState struct {
	FrameCount int
	DeltaTime  float64 // milliseconds between the last two frames
	Looping    bool
	Started    time.Time

	target  float64
	redraw  int
	last    time.Time
	hasLast bool
}

// NewLoopState returns a looping state at fps
func NewLoopState(fps float64) *LoopState {
	if fps <= 0 {
		fps = DefaultFrameRate
	}
	return &LoopState{
		Looping: true,
		Started: time.Now(),
		target:  fps,
	}
}

// TargetFrameRate returns the requested frames per second
func (l *LoopState) TargetFrameRate() float64 { return l.target }

// SetFrameRate changes the target rate; invalid values are ignored
func (l *LoopState) SetFrameRate(fps float64) {
	if fps <= 0 || math.IsNaN(fps) || math.IsInf(fps, 0) {
		return
	}
	l.target = fps
}

// RequestRedraw schedules n draws even while not looping
func (l *LoopState) RequestRedraw(n int) {
	if n < 1 {
		n = 1
	}
	l.redraw += n
}

// Begin advances the counters for a new frame and reports whether draw should run
func (l *LoopState) Begin(now time.Time) bool {
	if l.hasLast {
		l.DeltaTime = float64(now.Sub(l.last)) / float64(time.Millisecond)
	}
	l.last = now
	l.hasLast = true

	if l.Looping {
		l.FrameCount++
		return true
	}
	if l.redraw > 0 {
		l.redraw--
		l.FrameCount++
		return true
	}
	return false
}

// Millis returns elapsed milliseconds since the loop started
func (l *LoopState) Millis(now time.Time) float64 {
	return float64(now.Sub(l.Started)) / float64(time.Millisecond)
}
