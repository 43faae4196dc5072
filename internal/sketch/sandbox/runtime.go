package sandbox

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/dop251/goja"
)

var (
	ErrCallbackTimeout = errors.New("sketch callback exceeded time budget")
	ErrRuntimeClosed   = errors.New("sandbox runtime is closed")
)

const consoleBacklog = 200

// Runtime wraps goja VM with security controls
type Runtime struct {
	vm     *goja.Runtime
	config Config
	mu     sync.Mutex

	// Console output
	console   []LogEntry
	sink      ConsoleSink
	consoleMu sync.Mutex
}

// New creates a new sandboxed runtime
func New(config Config) (*Runtime, error) {
	r := &Runtime{
		config:  config,
		console: []LogEntry{},
	}
	if err := r.init(); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *Runtime) init() error {
	r.vm = goja.New()
	if r.config.MaxCallStack > 0 {
		r.vm.SetMaxCallStackSize(r.config.MaxCallStack)
	}
	return r.setupGlobals()
}

// VM exposes the underlying engine for binding. Callers must only touch it
// from inside Run or while they otherwise own the runtime.
func (r *Runtime) VM() *goja.Runtime {
	return r.vm
}

// Run executes fn under the watchdog. The VM is interrupted when the callback
// budget elapses or ctx is done; the interrupt is cleared before returning.
// Panics raised by native bindings are returned as errors.
func (r *Runtime) Run(ctx context.Context, fn func() error) (err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.vm == nil {
		return ErrRuntimeClosed
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	vm := r.vm
	done := make(chan struct{})
	stopped := make(chan struct{})

	var timeout <-chan time.Time
	if r.config.CallbackTimeout > 0 {
		timer := time.NewTimer(r.config.CallbackTimeout)
		defer timer.Stop()
		timeout = timer.C
	}

	go func() {
		defer close(stopped)
		select {
		case <-timeout:
			vm.Interrupt(ErrCallbackTimeout)
		case <-ctx.Done():
			vm.Interrupt(ctx.Err())
		case <-done:
		}
	}()

	defer func() {
		close(done)
		<-stopped
		vm.ClearInterrupt()

		if rec := recover(); rec != nil {
			err = panicError(rec)
		}
	}()

	return interruptCause(fn())
}

// Console returns a copy of the buffered console output
func (r *Runtime) Console() []LogEntry {
	r.consoleMu.Lock()
	defer r.consoleMu.Unlock()
	return append([]LogEntry{}, r.console...)
}

// SetConsoleSink forwards console output to sink as it is written
func (r *Runtime) SetConsoleSink(sink ConsoleSink) {
	r.consoleMu.Lock()
	r.sink = sink
	r.consoleMu.Unlock()
}

// setupGlobals configures global objects and security
func (r *Runtime) setupGlobals() error {
	for _, name := range []string{"require", "process", "module", "exports"} {
		if err := r.vm.Set(name, goja.Undefined()); err != nil {
			return err
		}
	}

	if r.config.EnableConsole {
		console := r.vm.NewObject()
		for _, level := range []string{"log", "info", "warn", "error", "debug"} {
			if err := console.Set(level, r.makeConsoleFunc(level)); err != nil {
				return err
			}
		}
		if err := r.vm.Set("console", console); err != nil {
			return err
		}
	}

	// Timers are no-ops; the frame loop is the only scheduler
	noop := func(goja.FunctionCall) goja.Value { return goja.Undefined() }
	for _, name := range []string{"setTimeout", "setInterval", "clearTimeout", "clearInterval", "requestAnimationFrame"} {
		if err := r.vm.Set(name, noop); err != nil {
			return err
		}
	}

	return nil
}

// makeConsoleFunc creates a console function
func (r *Runtime) makeConsoleFunc(level string) func(goja.FunctionCall) goja.Value {
	return func(call goja.FunctionCall) goja.Value {
		parts := make([]string, len(call.Arguments))
		for i, arg := range call.Arguments {
			parts[i] = arg.String()
		}
		entry := LogEntry{
			Level:   level,
			Message: strings.Join(parts, " "),
			Time:    time.Now(),
		}

		r.consoleMu.Lock()
		r.console = append(r.console, entry)
		if len(r.console) > consoleBacklog {
			r.console = r.console[len(r.console)-consoleBacklog:]
		}
		sink := r.sink
		r.consoleMu.Unlock()

		if sink != nil {
			sink(entry)
		}
		return goja.Undefined()
	}
}

// Reset replaces the VM with a fresh one and drops console state
func (r *Runtime) Reset() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.consoleMu.Lock()
	r.console = []LogEntry{}
	r.sink = nil
	r.consoleMu.Unlock()

	return r.init()
}

// Close releases resources
func (r *Runtime) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.vm = nil
	r.consoleMu.Lock()
	r.console = nil
	r.sink = nil
	r.consoleMu.Unlock()
	return nil
}

// interruptCause unwraps watchdog interrupts into the sentinel that caused them
func interruptCause(err error) error {
	var interrupted *goja.InterruptedError
	if errors.As(err, &interrupted) {
		if cause, ok := interrupted.Value().(error); ok {
			return fmt.Errorf("sketch interrupted: %w", cause)
		}
	}
	return err
}

func panicError(rec interface{}) error {
	switch v := rec.(type) {
	case *goja.InterruptedError:
		return interruptCause(v)
	case error:
		return fmt.Errorf("sketch binding panic: %w", v)
	default:
		return fmt.Errorf("sketch binding panic: %v", v)
	}
}
