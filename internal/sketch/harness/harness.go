package harness

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/dop251/goja"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/SketchBox/internal/infrastructure/logging"
	"github.com/GriffinCanCode/SketchBox/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/SketchBox/internal/sketch/binding"
	"github.com/GriffinCanCode/SketchBox/internal/sketch/container"
	"github.com/GriffinCanCode/SketchBox/internal/sketch/sandbox"
)

// State is the harness lifecycle state
type State string

const (
	StateEmpty   State = "empty"
	StateRunning State = "running"
)

// sketchFile names compiled sources in stack traces
const sketchFile = "sketch.js"

// Options configures a harness
type Options struct {
	Pool      *sandbox.Pool
	Container *container.Container
	OnError   ErrorHandler
	OnConsole sandbox.ConsoleSink
	OnState   func(State)
	Logger    *logging.Logger
	Metrics   *monitoring.Metrics
	FrameRate float64
	Now       func() time.Time
}

type instance struct {
	rt          *sandbox.Runtime
	binding     *binding.Binding
	unsubscribe func()
}

// Harness runs at most one sketch instance bound to one container.
// A single mutex serializes mount, unmount, resize, frames and input.
type Harness struct {
	mu sync.Mutex

	pool      *sandbox.Pool
	container *container.Container
	onError   ErrorHandler
	onConsole sandbox.ConsoleSink
	onState   func(State)
	logger    *logging.Logger
	metrics   *monitoring.Metrics
	frameRate float64
	now       func() time.Time

	state    State
	closed   bool
	instance *instance
	stats    frameStats
}

// New creates an empty harness
func New(opts Options) *Harness {
	if opts.Logger == nil {
		opts.Logger = logging.NewNop()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.FrameRate <= 0 {
		opts.FrameRate = binding.DefaultFrameRate
	}

	return &Harness{
		pool:      opts.Pool,
		container: opts.Container,
		onError:   opts.OnError,
		onConsole: opts.OnConsole,
		onState:   opts.OnState,
		logger:    opts.Logger,
		metrics:   opts.Metrics,
		frameRate: opts.FrameRate,
		now:       opts.Now,
		state:     StateEmpty,
		stats:     newFrameStats(),
	}
}

// Mount replaces the running sketch with source. An empty source unmounts.
// Failures never reach the caller: the harness returns to Empty and the
// error handler is called exactly once.
func (h *Harness) Mount(ctx context.Context, source string) {
	if source == "" {
		h.Unmount()
		return
	}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		h.deliver(&SketchError{Kind: KindConstruction, Message: ErrHarnessClosed.Error(), Cause: ErrHarnessClosed})
		return
	}

	h.teardownLocked()
	h.stats.mounts++

	inst, serr := h.construct(ctx, source)
	if serr != nil {
		h.stats.failures++
		h.state = StateEmpty
		h.mu.Unlock()

		h.metrics.RecordMount(false)
		h.logger.Warn("Sketch mount failed",
			zap.String("kind", string(serr.Kind)),
			zap.String("message", serr.Message))
		h.notifyState(StateEmpty)
		h.deliver(serr)
		return
	}

	h.instance = inst
	h.state = StateRunning
	h.mu.Unlock()

	h.metrics.RecordMount(true)
	h.metrics.IncInstances()
	h.logger.Debug("Sketch mounted", zap.Int("bytes", len(source)))
	h.notifyState(StateRunning)
}

// construct builds a complete instance or nothing. Called with h.mu held.
func (h *Harness) construct(ctx context.Context, source string) (*instance, *SketchError) {
	prog, err := goja.Compile(sketchFile, "(function (p) {\n"+source+"\n})", false)
	if err != nil {
		return nil, newSketchError(KindCompilation, err)
	}

	rt, err := h.pool.Acquire(ctx)
	if err != nil {
		return nil, newSketchError(KindConstruction, err)
	}
	rt.SetConsoleSink(h.console)

	inst := &instance{rt: rt}
	fail := func(kind Kind, err error) (*instance, *SketchError) {
		h.release(inst)
		return nil, newSketchError(kind, err)
	}

	b, err := binding.New(rt.VM(), binding.Options{
		Container:    h.container,
		FrameRate:    h.frameRate,
		Now:          h.now,
		OnDiagnostic: h.diagnostic,
	})
	if err != nil {
		return fail(KindConstruction, err)
	}
	inst.binding = b

	// The body runs first so callbacks are registered before startup
	err = rt.Run(ctx, func() error {
		body, err := rt.VM().RunProgram(prog)
		if err != nil {
			return err
		}
		fn, ok := goja.AssertFunction(body)
		if !ok {
			return ErrNoInstance
		}
		_, err = fn(goja.Undefined(), b.Object())
		return err
	})
	if err != nil {
		return fail(KindConstruction, err)
	}

	width, height := h.container.Size()
	surf, err := b.Alloc.Allocate(width, height)
	if err != nil {
		return fail(KindConstruction, err)
	}

	err = rt.Run(ctx, func() error {
		_, err := b.Call(binding.HookSetup)
		return err
	})
	if err != nil {
		return fail(KindConstruction, err)
	}

	// p5 draws once after setup even when setup stopped the loop
	if !b.Loop.Looping {
		b.Loop.RequestRedraw(1)
	}

	inst.unsubscribe = h.container.OnResize(func(w, hgt int) {
		h.resize(inst, w, hgt)
	})

	// Resizes during setup had no observer yet
	if w, hgt := h.container.Size(); w != width || hgt != height {
		if err := surf.Resize(w, hgt); err != nil {
			return fail(KindConstruction, err)
		}
		h.metrics.IncResizes()
	}
	return inst, nil
}

// resize reallocates the surface of inst if it is still the live instance
func (h *Harness) resize(inst *instance, width, height int) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.instance != inst {
		return
	}
	s := inst.binding.Surface()
	if s == nil {
		return
	}
	if err := s.Resize(width, height); err != nil {
		h.logger.Warn("Surface resize rejected", zap.Int("width", width), zap.Int("height", height), zap.Error(err))
		return
	}
	h.metrics.IncResizes()
}

// Unmount destroys the running instance, if any
func (h *Harness) Unmount() {
	h.mu.Lock()
	had := h.instance != nil
	h.teardownLocked()
	h.state = StateEmpty
	h.mu.Unlock()

	if had {
		h.notifyState(StateEmpty)
	}
}

// Close unmounts and rejects every later mount
func (h *Harness) Close() {
	h.mu.Lock()
	h.closed = true
	had := h.instance != nil
	h.teardownLocked()
	h.state = StateEmpty
	h.mu.Unlock()

	if had {
		h.notifyState(StateEmpty)
	}
}

// Frame advances one frame, calling draw when the loop or a redraw request
// asks for it. It reports whether draw ran.
func (h *Harness) Frame(ctx context.Context) bool {
	if ctx.Err() != nil {
		return false
	}

	h.mu.Lock()
	inst := h.instance
	if inst == nil {
		h.mu.Unlock()
		return false
	}

	b := inst.binding
	if !b.Loop.Begin(h.now()) {
		h.mu.Unlock()
		return false
	}

	start := time.Now()
	err := inst.rt.Run(ctx, func() error {
		_, err := b.Call(binding.HookDraw)
		return err
	})
	elapsed := time.Since(start)
	b.Input.EndFrame()

	if err != nil {
		h.abortLocked(ctx, err)
		return false
	}

	h.stats.record(elapsed)
	h.mu.Unlock()

	h.metrics.RecordFrame(elapsed)
	return true
}

// Dispatch folds an input event into the sketch state and invokes the
// matching callbacks. It reports whether any callback ran.
func (h *Harness) Dispatch(ctx context.Context, ev binding.Event) bool {
	h.mu.Lock()
	inst := h.instance
	if inst == nil {
		h.mu.Unlock()
		return false
	}

	b := inst.binding
	hooks := b.Input.Apply(ev)
	ran := false
	err := inst.rt.Run(ctx, func() error {
		arg := b.EventValue(ev)
		for _, hook := range hooks {
			called, err := b.Call(hook, arg)
			if err != nil {
				return err
			}
			ran = ran || called
		}
		return nil
	})

	if err != nil {
		h.abortLocked(ctx, err)
		return false
	}
	h.mu.Unlock()
	return ran
}

// FrameRate reports the rate the running sketch asked for
func (h *Harness) FrameRate() float64 {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.instance == nil {
		return h.frameRate
	}
	return h.instance.binding.Loop.TargetFrameRate()
}

// State returns the lifecycle state
func (h *Harness) State() State {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.state
}

// WriteFrame encodes the current surface as PNG
func (h *Harness) WriteFrame(w io.Writer) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.instance == nil || h.instance.binding.Surface() == nil {
		return ErrNoInstance
	}
	return h.instance.binding.Surface().EncodePNG(w)
}

// Stats returns counters and frame timing
func (h *Harness) Stats() Stats {
	h.mu.Lock()
	defer h.mu.Unlock()

	s := h.stats.summary()
	s.State = h.state
	s.TargetFrameRate = h.frameRate
	if h.instance != nil {
		s.FrameCount = h.instance.binding.Loop.FrameCount
		s.TargetFrameRate = h.instance.binding.Loop.TargetFrameRate()
		if surf := h.instance.binding.Surface(); surf != nil {
			s.Width, s.Height = surf.Width(), surf.Height()
		}
	}
	return s
}

// abortLocked tears down after a callback failed and releases h.mu.
// Interruptions caused by ctx ending are not reported as sketch errors.
func (h *Harness) abortLocked(ctx context.Context, err error) {
	if ctx.Err() != nil {
		h.teardownLocked()
		h.state = StateEmpty
		h.mu.Unlock()

		h.logger.Debug("Sketch callback interrupted", zap.Error(err))
		h.notifyState(StateEmpty)
		return
	}

	h.failLocked()
	h.mu.Unlock()
	h.reportRuntime(err)
}

// failLocked tears down after a callback threw. Called with h.mu held.
func (h *Harness) failLocked() {
	h.stats.failures++
	h.teardownLocked()
	h.state = StateEmpty
}

func (h *Harness) reportRuntime(err error) {
	serr := newSketchError(KindRuntimeFrame, err)
	h.logger.Warn("Sketch callback failed", zap.String("message", serr.Message))
	h.notifyState(StateEmpty)
	h.deliver(serr)
}

// teardownLocked detaches the live instance. Called with h.mu held.
func (h *Harness) teardownLocked() {
	if h.container != nil {
		h.container.Clear()
	}
	if h.instance == nil {
		return
	}
	h.release(h.instance)
	h.instance = nil
	h.metrics.DecInstances()
}

// release undoes everything construct may have done to inst
func (h *Harness) release(inst *instance) {
	if inst.unsubscribe != nil {
		inst.unsubscribe()
	}
	if inst.binding != nil {
		inst.binding.Alloc.Release()
	}
	inst.rt.SetConsoleSink(nil)
	if err := h.pool.Release(inst.rt); err != nil {
		h.logger.Warn("Runtime release failed", zap.Error(err))
	}
}

func (h *Harness) deliver(err *SketchError) {
	h.metrics.RecordSketchError(string(err.Kind))
	if h.onError != nil {
		h.onError(err)
	}
}

func (h *Harness) notifyState(s State) {
	if h.onState != nil {
		h.onState(s)
	}
}

func (h *Harness) console(entry sandbox.LogEntry) {
	h.logger.Console(entry.Level, entry.Message, zap.String("source", "sketch"))
	if h.onConsole != nil {
		h.onConsole(entry)
	}
}

func (h *Harness) diagnostic(msg string) {
	h.logger.Info("Sketch diagnostic", zap.String("note", msg))
}
