/*
Package sandbox provides isolated JavaScript runtimes for sketch code.

# Overview

Each runtime wraps one goja VM with:

  - Removed host globals (require, process, module, exports)
  - No-op timers so sketches cannot schedule work outside the frame loop
  - Captured console output forwarded to a sink
  - A watchdog that interrupts callbacks exceeding the configured budget

# Pool

Runtimes are handed out by a bounded Pool. The pool creates runtimes lazily on
first demand, resets them on release and honours both the caller's context and
an acquisition timeout.

# Usage Example

	pool := NewPool(cfg, 4)
	rt, err := pool.Acquire(ctx)
	if err != nil {
		return err
	}
	defer pool.Release(rt)

	err = rt.Run(ctx, func() error {
		_, err := rt.VM().RunString("1 + 1")
		return err
	})
*/
package sandbox
