package studio

import (
	"context"
	"errors"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/SketchBox/internal/infrastructure/logging"
	"github.com/GriffinCanCode/SketchBox/internal/sketch/harness"
)

var (
	ErrNoCodeSource = errors.New("no code source configured")
	ErrNothingToFix = errors.New("nothing to fix: need both code and a sketch error")
	ErrEmptyPrompt  = errors.New("prompt is empty")
	ErrBusy         = errors.New("a code source request is already running")
)

// Mounter runs sketch code. The harness satisfies it.
type Mounter interface {
	Mount(ctx context.Context, source string)
	Unmount()
}

// Snapshot is the host-visible studio state
type Snapshot struct {
	Code     string               `json:"code"`
	Thoughts string               `json:"thoughts"`
	Error    *harness.SketchError `json:"error,omitempty"`
	Busy     bool                 `json:"busy"`
}

// Studio holds the current code, the model's thoughts and the last sketch
// error for one session, and drives the flows that replace the code.
type Studio struct {
	flows   *Flows
	mounter Mounter
	logger  *logging.Logger

	mu       sync.Mutex
	code     string
	thoughts string
	err      *harness.SketchError
	busy     bool
}

// New creates a studio. flows may be nil, in which case Submit and Fix
// fail with ErrNoCodeSource.
func New(flows *Flows, mounter Mounter, logger *logging.Logger) *Studio {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Studio{
		flows:   flows,
		mounter: mounter,
		logger:  logger,
	}
}

// Submit generates a new sketch, or modifies the current one when code
// exists, then mounts the result.
func (s *Studio) Submit(ctx context.Context, prompt string) (Snapshot, error) {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return s.Snapshot(), ErrEmptyPrompt
	}
	if s.flows == nil {
		return s.Snapshot(), ErrNoCodeSource
	}

	code, err := s.begin()
	if err != nil {
		return s.Snapshot(), err
	}

	var res Result
	if code != "" {
		res, err = s.flows.Modify(ctx, prompt, code)
	} else {
		res, err = s.flows.Generate(ctx, prompt)
	}
	return s.finish(ctx, res, err)
}

// Fix asks the code source to repair the current code using the recorded
// sketch error, then mounts the result.
func (s *Studio) Fix(ctx context.Context) (Snapshot, error) {
	if s.flows == nil {
		return s.Snapshot(), ErrNoCodeSource
	}

	s.mu.Lock()
	if s.busy {
		s.mu.Unlock()
		return s.Snapshot(), ErrBusy
	}
	if s.err == nil || s.code == "" {
		s.mu.Unlock()
		return s.Snapshot(), ErrNothingToFix
	}
	code, message := s.code, s.err.Message
	s.busy = true
	s.mu.Unlock()

	res, err := s.flows.Fix(ctx, code, message)
	return s.finish(ctx, res, err)
}

// Load replaces the code directly, bypassing the code source. Thoughts and
// the recorded error are cleared. Empty code unmounts.
func (s *Studio) Load(ctx context.Context, code string) (Snapshot, error) {
	s.mu.Lock()
	if s.busy {
		s.mu.Unlock()
		return s.Snapshot(), ErrBusy
	}
	s.code = code
	s.thoughts = ""
	s.err = nil
	s.mu.Unlock()

	s.mounter.Mount(ctx, code)
	return s.Snapshot(), nil
}

// Clear empties code, thoughts and error and unmounts the sketch
func (s *Studio) Clear() error {
	s.mu.Lock()
	if s.busy {
		s.mu.Unlock()
		return ErrBusy
	}
	s.code = ""
	s.thoughts = ""
	s.err = nil
	s.mu.Unlock()

	s.mounter.Unmount()
	return nil
}

// HandleSketchError records the latest sketch error. It is the harness
// error handler and must not call back into the harness.
func (s *Studio) HandleSketchError(err *harness.SketchError) {
	s.mu.Lock()
	s.err = err
	s.mu.Unlock()
}

// Snapshot returns a copy of the current state
func (s *Studio) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{
		Code:     s.code,
		Thoughts: s.thoughts,
		Error:    s.err,
		Busy:     s.busy,
	}
}

// begin marks the studio busy and clears the error. It returns the current code.
func (s *Studio) begin() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.busy {
		return "", ErrBusy
	}
	s.busy = true
	s.err = nil
	return s.code, nil
}

// finish stores a successful result, clears the recorded error and mounts
// the result. A failed flow leaves code and error as they were. The studio lock is
// released before mounting because the harness reports failures through
// HandleSketchError synchronously.
func (s *Studio) finish(ctx context.Context, res Result, err error) (Snapshot, error) {
	s.mu.Lock()
	if err != nil {
		s.busy = false
		s.mu.Unlock()
		s.logger.Warn("Code source request failed", zap.Error(err))
		return s.Snapshot(), err
	}
	s.code = res.Code
	s.thoughts = res.Thoughts
	s.err = nil
	s.mu.Unlock()

	s.mounter.Mount(ctx, res.Code)

	s.mu.Lock()
	s.busy = false
	s.mu.Unlock()
	return s.Snapshot(), nil
}
