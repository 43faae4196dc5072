/*
Package binding builds the capability object a sketch receives as p.

Sketch code never touches host state directly. Lifecycle and input callbacks
are registered by assigning to accessor properties on p, which store them in
an explicit Callbacks table. Drawing calls go to the single surface handed
out by the Allocator; requests from the sketch to create or resize a surface
are answered with the existing handle and a diagnostic.

The object also carries a p5-style math library, loop control, input state
(mouse, keyboard, touches) and the usual constants.
*/
package binding
