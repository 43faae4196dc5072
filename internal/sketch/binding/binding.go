package binding

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/dop251/goja"

	"github.com/GriffinCanCode/SketchBox/internal/sketch/container"
	"github.com/GriffinCanCode/SketchBox/internal/sketch/surface"
)

// Options configures a capability object
type Options struct {
	Container    *container.Container
	FrameRate    float64
	Seed         int64
	Now          func() time.Time
	OnDiagnostic func(string)
}

// Binding is the capability object handed to sketch code as p, together
// with the host-side state it reads and writes
type Binding struct {
	vm        *goja.Runtime
	obj       *goja.Object
	canvas    *goja.Object
	container *container.Container
	err       error

	Callbacks *Callbacks
	Alloc     *Allocator
	Input     *InputState
	Loop      *LoopState

	rng    *rand.Rand
	noise  *Noise
	now    func() time.Time
	notify func(string)
}

// New builds p on vm. The returned binding owns no goroutines; every method
// must be called from whoever currently owns vm.
func New(vm *goja.Runtime, opts Options) (*Binding, error) {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Seed == 0 {
		opts.Seed = opts.Now().UnixNano()
	}

	b := &Binding{
		vm:        vm,
		obj:       vm.NewObject(),
		container: opts.Container,
		Callbacks: &Callbacks{},
		Input:     NewInputState(),
		Loop:      NewLoopState(opts.FrameRate),
		rng:       rand.New(rand.NewSource(opts.Seed)),
		noise:     NewNoise(opts.Seed),
		now:       opts.Now,
		notify:    opts.OnDiagnostic,
	}
	b.Loop.Started = opts.Now()
	b.Alloc = NewAllocator(opts.Container, b.diagnostic)

	b.bindHooks()
	b.bindCanvas()
	b.bindProperties()
	b.bindConstants()
	b.bindDrawing()
	b.bindMath()
	b.bindLoop()

	if b.err != nil {
		return nil, fmt.Errorf("bind capability object: %w", b.err)
	}
	return b, nil
}

// Object returns the JS value passed to the sketch body
func (b *Binding) Object() *goja.Object { return b.obj }

// Surface returns the allocated surface, nil before startup
func (b *Binding) Surface() *surface.Surface { return b.Alloc.Surface() }

// Call invokes hook with p as receiver. It reports whether a callback was
// registered.
func (b *Binding) Call(h Hook, args ...goja.Value) (bool, error) {
	fn, ok := b.Callbacks.Get(h)
	if !ok {
		return false, nil
	}
	_, err := fn(b.obj, args...)
	return true, err
}

// EventValue converts a host event into the object passed to input callbacks
func (b *Binding) EventValue(ev Event) goja.Value {
	obj := b.vm.NewObject()
	b.set(obj, "type", string(ev.Type))
	b.set(obj, "x", ev.X)
	b.set(obj, "y", ev.Y)
	b.set(obj, "button", ev.Button)
	b.set(obj, "key", ev.Key)
	b.set(obj, "keyCode", ev.KeyCode)
	b.set(obj, "delta", ev.Delta)
	return obj
}

func (b *Binding) diagnostic(msg string) {
	if b.notify != nil {
		b.notify(msg)
	}
}

func (b *Binding) set(obj *goja.Object, name string, v interface{}) {
	if err := obj.Set(name, v); err != nil && b.err == nil {
		b.err = err
	}
}

// fn registers a native function on p
func (b *Binding) fn(name string, f func(goja.FunctionCall) goja.Value) {
	b.set(b.obj, name, f)
}

// prop defines a read-only accessor on obj
func (b *Binding) prop(obj *goja.Object, name string, get func() interface{}) {
	getter := b.vm.ToValue(func(goja.FunctionCall) goja.Value {
		return b.vm.ToValue(get())
	})
	if err := obj.DefineAccessorProperty(name, getter, nil, goja.FLAG_FALSE, goja.FLAG_TRUE); err != nil && b.err == nil {
		b.err = err
	}
}

// bindHooks turns every hook name into an accessor whose setter registers
// the callback slot
func (b *Binding) bindHooks() {
	for _, h := range AllHooks() {
		hook := h
		getter := b.vm.ToValue(func(goja.FunctionCall) goja.Value {
			return b.Callbacks.Value(hook)
		})
		setter := b.vm.ToValue(func(call goja.FunctionCall) goja.Value {
			if b.Callbacks.Set(hook, call.Argument(0)) && hook == HookWindowResized {
				b.diagnostic("windowResized is handled by the host; the sketch handler will not run")
			}
			return goja.Undefined()
		})
		if err := b.obj.DefineAccessorProperty(hook.String(), getter, setter, goja.FLAG_FALSE, goja.FLAG_TRUE); err != nil && b.err == nil {
			b.err = err
		}
	}
}

// size reports the surface size, falling back to the container before startup
func (b *Binding) size() (int, int) {
	if s := b.Surface(); s != nil {
		return s.Width(), s.Height()
	}
	if b.container != nil {
		return b.container.Size()
	}
	return 0, 0
}

func (b *Binding) bindCanvas() {
	b.canvas = b.vm.NewObject()
	b.prop(b.canvas, "width", func() interface{} { w, _ := b.size(); return w })
	b.prop(b.canvas, "height", func() interface{} { _, h := b.size(); return h })

	b.fn("createCanvas", func(call goja.FunctionCall) goja.Value {
		w, h := int(call.Argument(0).ToInteger()), int(call.Argument(1).ToInteger())
		if !b.Alloc.Allocated() {
			b.diagnostic(fmt.Sprintf("createCanvas(%d, %d) before setup ignored; the host allocates the surface", w, h))
			return b.canvas
		}
		if _, err := b.Alloc.Allocate(w, h); err != nil {
			panic(b.vm.NewGoError(err))
		}
		return b.canvas
	})

	b.fn("resizeCanvas", func(call goja.FunctionCall) goja.Value {
		b.diagnostic(fmt.Sprintf("resizeCanvas(%v, %v) ignored; the surface follows its container",
			call.Argument(0), call.Argument(1)))
		return goja.Undefined()
	})
}

func (b *Binding) bindProperties() {
	in := b.Input
	b.prop(b.obj, "width", func() interface{} { w, _ := b.size(); return w })
	b.prop(b.obj, "height", func() interface{} { _, h := b.size(); return h })
	b.prop(b.obj, "windowWidth", func() interface{} { w, _ := b.size(); return w })
	b.prop(b.obj, "windowHeight", func() interface{} { _, h := b.size(); return h })
	b.prop(b.obj, "canvas", func() interface{} { return b.canvas })
	b.prop(b.obj, "frameCount", func() interface{} { return b.Loop.FrameCount })
	b.prop(b.obj, "deltaTime", func() interface{} { return b.Loop.DeltaTime })
	b.prop(b.obj, "mouseX", func() interface{} { return in.MouseX })
	b.prop(b.obj, "mouseY", func() interface{} { return in.MouseY })
	b.prop(b.obj, "pmouseX", func() interface{} { return in.PMouseX })
	b.prop(b.obj, "pmouseY", func() interface{} { return in.PMouseY })
	b.prop(b.obj, "mouseIsPressed", func() interface{} { return in.MouseIsPressed })
	b.prop(b.obj, "mouseButton", func() interface{} { return in.MouseButton })
	b.prop(b.obj, "key", func() interface{} { return in.Key })
	b.prop(b.obj, "keyCode", func() interface{} { return in.KeyCode })
	b.prop(b.obj, "keyIsPressed", func() interface{} { return in.KeyIsPressed })
	b.prop(b.obj, "touches", func() interface{} {
		out := make([]interface{}, len(in.Touches))
		for i, t := range in.Touches {
			out[i] = map[string]interface{}{"id": t.ID, "x": t.X, "y": t.Y}
		}
		return out
	})

	b.fn("keyIsDown", func(call goja.FunctionCall) goja.Value {
		return b.vm.ToValue(in.KeyIsDown(int(call.Argument(0).ToInteger())))
	})
}
