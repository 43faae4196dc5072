package container

import (
	"fmt"
	"sync"

	"github.com/GriffinCanCode/SketchBox/internal/sketch/surface"
)

// MaxDimension bounds each side of a container in pixels
const MaxDimension = 4096

var ErrInvalidSize = fmt.Errorf("container size must be between 1 and %d pixels per side", MaxDimension)

func validSize(width, height int) bool {
	return width > 0 && height > 0 && width <= MaxDimension && height <= MaxDimension
}

// ResizeFunc receives the container's new dimensions
type ResizeFunc func(width, height int)

// Container is the attachable view region a harness renders into.
// It tracks its pixel dimensions, the surfaces attached to it and the
// observers that want resize notifications.
type Container struct {
	mu        sync.RWMutex
	width     int
	height    int
	children  []*surface.Surface
	observers map[uint64]ResizeFunc
	nextObs   uint64
}

// New creates a container of the given size
func New(width, height int) (*Container, error) {
	if !validSize(width, height) {
		return nil, ErrInvalidSize
	}
	return &Container{
		width:     width,
		height:    height,
		observers: make(map[uint64]ResizeFunc),
	}, nil
}

// Size returns the current width and height
func (c *Container) Size() (int, int) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.width, c.height
}

// Attach appends a surface as a child
func (c *Container) Attach(s *surface.Surface) {
	if s == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, child := range c.children {
		if child == s {
			return
		}
	}
	c.children = append(c.children, s)
}

// Detach removes a surface if it is attached
func (c *Container) Detach(s *surface.Surface) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	kept := c.children[:0]
	found := false
	for _, child := range c.children {
		if child == s {
			found = true
			continue
		}
		kept = append(kept, child)
	}
	for i := len(kept); i < len(c.children); i++ {
		c.children[i] = nil
	}
	c.children = kept
	return found
}

// Clear drops every attached surface
func (c *Container) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.children = nil
}

// Surfaces returns a copy of the attached surfaces
func (c *Container) Surfaces() []*surface.Surface {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]*surface.Surface(nil), c.children...)
}

// OnResize registers an observer and returns a function that removes it
func (c *Container) OnResize(fn ResizeFunc) (unsubscribe func()) {
	c.mu.Lock()
	c.nextObs++
	key := c.nextObs
	c.observers[key] = fn
	c.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			c.mu.Lock()
			delete(c.observers, key)
			c.mu.Unlock()
		})
	}
}

// Observers reports how many resize observers are registered
func (c *Container) Observers() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.observers)
}

// Resize updates the dimensions and notifies observers synchronously.
// Observers run outside the container lock.
func (c *Container) Resize(width, height int) error {
	if !validSize(width, height) {
		return ErrInvalidSize
	}

	c.mu.Lock()
	c.width, c.height = width, height
	observers := make([]ResizeFunc, 0, len(c.observers))
	for _, fn := range c.observers {
		observers = append(observers, fn)
	}
	c.mu.Unlock()

	for _, fn := range observers {
		fn(width, height)
	}
	return nil
}
