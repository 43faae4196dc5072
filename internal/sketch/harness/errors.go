package harness

import (
	"errors"
	"fmt"

	"github.com/dop251/goja"
)

var (
	ErrHarnessClosed = errors.New("harness is closed")
	ErrNoInstance    = errors.New("no sketch is running")
)

// Kind classifies where a sketch failed
type Kind string

const (
	KindCompilation  Kind = "compilation"
	KindConstruction Kind = "construction"
	KindRuntimeFrame Kind = "runtime_frame"
)

// SketchError is delivered once per failed construction attempt or failed
// frame. It is transient: the harness keeps no history.
type SketchError struct {
	Kind    Kind   `json:"kind"`
	Message string `json:"message"`
	Stack   string `json:"stack,omitempty"`
	Cause   error  `json:"-"`
}

func (e *SketchError) Error() string {
	return fmt.Sprintf("%s error: %s", e.Kind, e.Message)
}

func (e *SketchError) Unwrap() error {
	return e.Cause
}

// ErrorHandler receives sketch errors after the harness is back to Empty
type ErrorHandler func(*SketchError)

// newSketchError extracts a readable message and stack from engine errors
func newSketchError(kind Kind, err error) *SketchError {
	se := &SketchError{Kind: kind, Message: err.Error(), Cause: err}

	var ex *goja.Exception
	if errors.As(err, &ex) {
		se.Stack = ex.String()
		se.Message = exceptionMessage(ex)
		return se
	}

	var syntax *goja.CompilerSyntaxError
	if errors.As(err, &syntax) {
		se.Message = syntax.Error()
	}
	return se
}

func exceptionMessage(ex *goja.Exception) string {
	val := ex.Value()
	if val == nil {
		return ex.Error()
	}
	if obj, ok := val.(*goja.Object); ok {
		if msg := obj.Get("message"); msg != nil && !goja.IsUndefined(msg) {
			if name := obj.Get("name"); name != nil && !goja.IsUndefined(name) {
				return name.String() + ": " + msg.String()
			}
			return msg.String()
		}
	}
	return val.String()
}
