package binding

import (
	"fmt"

	"github.com/GriffinCanCode/SketchBox/internal/sketch/container"
	"github.com/GriffinCanCode/SketchBox/internal/sketch/surface"
)

// Allocator creates the one surface an instance may draw on. The first
// Allocate creates and attaches it; every later call returns the cached
// handle and records a diagnostic instead of creating another.
type Allocator struct {
	container *container.Container
	surface   *surface.Surface
	notify    func(string)
	notes     []string
}

// NewAllocator binds an allocator to the container that receives the surface
func NewAllocator(c *container.Container, notify func(string)) *Allocator {
	return &Allocator{container: c, notify: notify}
}

// Allocate returns the instance surface, creating it on first use
func (a *Allocator) Allocate(width, height int) (*surface.Surface, error) {
	if a.surface != nil {
		a.note(fmt.Sprintf("surface already allocated (%dx%d); request for %dx%d ignored",
			a.surface.Width(), a.surface.Height(), width, height))
		return a.surface, nil
	}

	s, err := surface.New(width, height)
	if err != nil {
		return nil, err
	}
	a.surface = s
	if a.container != nil {
		a.container.Attach(s)
	}
	return s, nil
}

// Surface returns the allocated surface or nil before allocation
func (a *Allocator) Surface() *surface.Surface {
	return a.surface
}

// Allocated reports whether the single allocation has happened
func (a *Allocator) Allocated() bool {
	return a.surface != nil
}

// Release detaches the surface from the container
func (a *Allocator) Release() {
	if a.surface == nil {
		return
	}
	if a.container != nil {
		a.container.Detach(a.surface)
	}
	a.surface = nil
}

// Diagnostics returns the notes recorded so far
func (a *Allocator) Diagnostics() []string {
	return append([]string(nil), a.notes...)
}

func (a *Allocator) note(msg string) {
	a.notes = append(a.notes, msg)
	if a.notify != nil {
		a.notify(msg)
	}
}
