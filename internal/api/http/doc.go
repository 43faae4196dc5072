// Package http exposes sketch sessions over a JSON API built on gin.
//
// Sessions are created with POST /sketches and addressed by UUID. Source
// uploads are raw text bodies bounded by SKETCH_MAX_SOURCE_BYTES; frames
// are served as PNG. Errors are returned as {"error": "..."} with a status
// derived from the package sentinel errors.
package http
