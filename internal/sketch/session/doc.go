/*
Package session hosts many sketches at once.

Each Session pairs a container with the harness rendering into it and the
studio editing its code. A goroutine per session ticks frames at the rate
the running sketch requested. Harness notifications (state changes, sketch
errors, console output) and frame ticks are fanned out to subscribers; a
subscriber that falls behind misses events rather than stalling the sketch.
*/
package session
