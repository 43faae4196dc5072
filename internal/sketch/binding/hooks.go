package binding

import (
	"sync"

	"github.com/dop251/goja"
)

// Hook names a lifecycle or input callback a sketch can register
type Hook int

const (
	HookSetup Hook = iota
	HookDraw
	HookWindowResized
	HookMousePressed
	HookMouseReleased
	HookMouseMoved
	HookMouseDragged
	HookMouseClicked
	HookMouseWheel
	HookKeyPressed
	HookKeyReleased
	HookKeyTyped
	HookTouchStarted
	HookTouchMoved
	HookTouchEnded

	hookCount
)

var hookNames = [hookCount]string{
	HookSetup:         "setup",
	HookDraw:          "draw",
	HookWindowResized: "windowResized",
	HookMousePressed:  "mousePressed",
	HookMouseReleased: "mouseReleased",
	HookMouseMoved:    "mouseMoved",
	HookMouseDragged:  "mouseDragged",
	HookMouseClicked:  "mouseClicked",
	HookMouseWheel:    "mouseWheel",
	HookKeyPressed:    "keyPressed",
	HookKeyReleased:   "keyReleased",
	HookKeyTyped:      "keyTyped",
	HookTouchStarted:  "touchStarted",
	HookTouchMoved:    "touchMoved",
	HookTouchEnded:    "touchEnded",
}

// String returns the property name sketches assign to
func (h Hook) String() string {
	if h < 0 || h >= hookCount {
		return "unknown"
	}
	return hookNames[h]
}

// AllHooks lists every hook in declaration order
func AllHooks() []Hook {
	hooks := make([]Hook, 0, hookCount)
	for h := Hook(0); h < hookCount; h++ {
		hooks = append(hooks, h)
	}
	return hooks
}

type slot struct {
	fn  goja.Callable
	raw goja.Value
}

// Callbacks holds the optional callback slots registered by a sketch.
// Registration goes through Set; nothing else mutates the slots.
type Callbacks struct {
	mu    sync.RWMutex
	slots [hookCount]slot
}

// Set registers fn for hook. A value that is not callable clears the slot.
func (c *Callbacks) Set(h Hook, v goja.Value) bool {
	if h < 0 || h >= hookCount {
		return false
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	fn, ok := goja.AssertFunction(v)
	if !ok {
		c.slots[h] = slot{}
		return false
	}
	c.slots[h] = slot{fn: fn, raw: v}
	return true
}

// Get returns the registered callable for hook
func (c *Callbacks) Get(h Hook) (goja.Callable, bool) {
	if h < 0 || h >= hookCount {
		return nil, false
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	s := c.slots[h]
	return s.fn, s.fn != nil
}

// Value returns the original JS value so property reads round-trip
func (c *Callbacks) Value(h Hook) goja.Value {
	if h < 0 || h >= hookCount {
		return goja.Undefined()
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.slots[h].raw == nil {
		return goja.Undefined()
	}
	return c.slots[h].raw
}

// Has reports whether hook has a callback
func (c *Callbacks) Has(h Hook) bool {
	_, ok := c.Get(h)
	return ok
}

// Registered lists the hooks that currently hold a callback
func (c *Callbacks) Registered() []Hook {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var hooks []Hook
	for h := Hook(0); h < hookCount; h++ {
		if c.slots[h].fn != nil {
			hooks = append(hooks, h)
		}
	}
	return hooks
}

// Reset empties every slot
func (c *Callbacks) Reset() {
	c.mu.Lock()
	c.slots = [hookCount]slot{}
	c.mu.Unlock()
}
