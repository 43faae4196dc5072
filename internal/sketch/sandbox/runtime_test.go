package sandbox

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dop251/goja"
)

func run(t *testing.T, rt *Runtime, script string) (goja.Value, error) {
	t.Helper()
	var val goja.Value
	err := rt.Run(context.Background(), func() error {
		v, err := rt.VM().RunString(script)
		val = v
		return err
	})
	return val, err
}

func TestRuntimeExecution(t *testing.T) {
	runtime, err := New(DefaultConfig())
	if err != nil {
		t.Fatalf("Failed to create runtime: %v", err)
	}
	defer runtime.Close()

	tests := []struct {
		name   string
		script string
		want   int64
	}{
		{name: "simple return", script: "42", want: 42},
		{name: "math operations", script: "Math.sqrt(16)", want: 4},
		{name: "closures", script: "(function(){ let n = 1; return () => n + 2 })()()", want: 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			val, err := run(t, runtime, tt.script)
			if err != nil {
				t.Fatalf("Run() error = %v", err)
			}
			if got := val.ToInteger(); got != tt.want {
				t.Errorf("Run() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestRuntimeSecurity(t *testing.T) {
	runtime, err := New(DefaultConfig())
	if err != nil {
		t.Fatalf("Failed to create runtime: %v", err)
	}
	defer runtime.Close()

	dangerousScripts := []struct {
		name   string
		script string
	}{
		{name: "require blocked", script: "require('fs')"},
		{name: "process blocked", script: "process.exit(1)"},
		{name: "module blocked", script: "module.exports = {}"},
	}

	for _, tt := range dangerousScripts {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := run(t, runtime, tt.script); err == nil {
				t.Errorf("Dangerous script executed successfully")
			}
		})
	}
}

func TestRuntimeTimersAreNoops(t *testing.T) {
	runtime, err := New(DefaultConfig())
	if err != nil {
		t.Fatalf("Failed to create runtime: %v", err)
	}
	defer runtime.Close()

	val, err := run(t, runtime, "let hit = false; setTimeout(() => { hit = true }, 0); setInterval(() => {}, 1); hit")
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if val.ToBoolean() {
		t.Error("timer callback should never run")
	}
}

func TestRuntimeTimeout(t *testing.T) {
	config := DefaultConfig()
	config.CallbackTimeout = 100 * time.Millisecond

	runtime, err := New(config)
	if err != nil {
		t.Fatalf("Failed to create runtime: %v", err)
	}
	defer runtime.Close()

	_, err = run(t, runtime, "while(true) {}")
	if !errors.Is(err, ErrCallbackTimeout) {
		t.Fatalf("expected ErrCallbackTimeout, got %v", err)
	}

	// interrupt is cleared so the VM stays usable
	val, err := run(t, runtime, "1 + 1")
	if err != nil {
		t.Fatalf("Run() after timeout error = %v", err)
	}
	if val.ToInteger() != 2 {
		t.Errorf("expected 2, got %v", val)
	}
}

func TestRuntimeContextCancel(t *testing.T) {
	config := DefaultConfig()
	config.CallbackTimeout = 0

	runtime, err := New(config)
	if err != nil {
		t.Fatalf("Failed to create runtime: %v", err)
	}
	defer runtime.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err = runtime.Run(ctx, func() error {
		_, err := runtime.VM().RunString("for(;;) {}")
		return err
	})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}

	if err := runtime.Run(ctx, func() error { return nil }); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected done context to be rejected, got %v", err)
	}
}

func TestRuntimeRecoversBindingPanic(t *testing.T) {
	runtime, err := New(DefaultConfig())
	if err != nil {
		t.Fatalf("Failed to create runtime: %v", err)
	}
	defer runtime.Close()

	runtime.VM().Set("boom", func(goja.FunctionCall) goja.Value {
		var m map[string]int
		m["x"] = 1
		return goja.Undefined()
	})

	if _, err := run(t, runtime, "boom()"); err == nil {
		t.Fatal("expected panic to surface as error")
	}
}

func TestRuntimeConsoleCapture(t *testing.T) {
	runtime, err := New(DefaultConfig())
	if err != nil {
		t.Fatalf("Failed to create runtime: %v", err)
	}
	defer runtime.Close()

	var forwarded []LogEntry
	runtime.SetConsoleSink(func(e LogEntry) { forwarded = append(forwarded, e) })

	script := `
		console.log('info message', 1);
		console.warn('warning message');
		console.error('error message');
		'done'
	`
	if _, err := run(t, runtime, script); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	entries := runtime.Console()
	if len(entries) != 3 {
		t.Fatalf("Expected 3 console entries, got %d", len(entries))
	}
	if len(forwarded) != 3 {
		t.Errorf("Expected 3 forwarded entries, got %d", len(forwarded))
	}
	if entries[0].Message != "info message 1" {
		t.Errorf("unexpected message %q", entries[0].Message)
	}

	levels := []string{"log", "warn", "error"}
	for i, entry := range entries {
		if entry.Level != levels[i] {
			t.Errorf("Console entry %d: expected level %s, got %s", i, levels[i], entry.Level)
		}
	}
}

func TestRuntimeResetDropsGlobals(t *testing.T) {
	runtime, err := New(DefaultConfig())
	if err != nil {
		t.Fatalf("Failed to create runtime: %v", err)
	}
	defer runtime.Close()

	if _, err := run(t, runtime, "var leaked = 7; console.log('x')"); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if err := runtime.Reset(); err != nil {
		t.Fatalf("Reset() error = %v", err)
	}
	if len(runtime.Console()) != 0 {
		t.Error("console should be empty after reset")
	}

	val, err := run(t, runtime, "typeof leaked")
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if val.String() != "undefined" {
		t.Errorf("global survived reset: %v", val)
	}
}

func TestRuntimeClosed(t *testing.T) {
	runtime, err := New(DefaultConfig())
	if err != nil {
		t.Fatalf("Failed to create runtime: %v", err)
	}
	runtime.Close()

	if err := runtime.Run(context.Background(), func() error { return nil }); !errors.Is(err, ErrRuntimeClosed) {
		t.Errorf("expected ErrRuntimeClosed, got %v", err)
	}
}
