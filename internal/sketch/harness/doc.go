/*
Package harness runs untrusted sketch code against a container.

A Harness owns at most one sketch instance. Mount compiles the source as the
body of a function receiving the capability object p, runs it so callbacks
are registered, allocates the one surface sized to the container, then calls
setup. Every change of source is a full replacement: the old instance is
detached (surface, resize subscription, runtime) before the new one is built.

Construction never half-succeeds. On a compilation or construction failure
the harness returns to Empty and the error handler is called exactly once.
A throw from draw or an input callback is handled the same way with kind
runtime_frame.

Container resizes reallocate the surface in place without re-running setup.
*/
package harness
