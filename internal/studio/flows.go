package studio

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/microcosm-cc/bluemonday"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/SketchBox/internal/infrastructure/logging"
	"github.com/GriffinCanCode/SketchBox/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/SketchBox/internal/infrastructure/resilience"
)

var ErrMalformedOutput = errors.New("malformed code source output")

// Completer turns a prompt into model text. Provider transport lives
// behind this interface.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Result is the structured output of a flow
type Result struct {
	Thoughts string `json:"thoughts"`
	Code     string `json:"code"`
}

// FlowsConfig configures Flows
type FlowsConfig struct {
	MaxRetries int
	Breaker    *resilience.Breaker
	Logger     *logging.Logger
	Metrics    *monitoring.Metrics
}

// Flows runs the generate, modify and fix operations against a Completer
type Flows struct {
	completer  Completer
	breaker    *resilience.Breaker
	policy     *bluemonday.Policy
	maxRetries int
	logger     *logging.Logger
	metrics    *monitoring.Metrics
}

// NewFlows wraps completer. A nil breaker gets a default one.
func NewFlows(completer Completer, cfg FlowsConfig) *Flows {
	if cfg.Breaker == nil {
		cfg.Breaker = resilience.New("completer", resilience.Settings{})
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.NewNop()
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	return &Flows{
		completer:  completer,
		breaker:    cfg.Breaker,
		policy:     bluemonday.UGCPolicy(),
		maxRetries: cfg.MaxRetries,
		logger:     cfg.Logger,
		metrics:    cfg.Metrics,
	}
}

// Generate writes a new sketch from a prompt
func (f *Flows) Generate(ctx context.Context, prompt string) (Result, error) {
	return f.run(ctx, FlowGenerate, promptData{Prompt: prompt})
}

// Modify rewrites code according to prompt
func (f *Flows) Modify(ctx context.Context, prompt, code string) (Result, error) {
	return f.run(ctx, FlowModify, promptData{Prompt: prompt, Code: code})
}

// Fix repairs code given the error it produced
func (f *Flows) Fix(ctx context.Context, code, errorMessage string) (Result, error) {
	return f.run(ctx, FlowFix, promptData{Code: code, Error: errorMessage})
}

func (f *Flows) run(ctx context.Context, flow Flow, data promptData) (res Result, err error) {
	timer := monitoring.NewTimer(f.metrics, string(flow))
	defer func() {
		timer.Stop(flowStatus(err))
	}()

	prompt, err := render(string(flow), data)
	if err != nil {
		return Result{}, err
	}

	for attempt := 0; ; attempt++ {
		text, err := resilience.Do(f.breaker, func() (string, error) {
			return f.completer.Complete(ctx, prompt)
		})
		if err != nil {
			return Result{}, fmt.Errorf("%s flow: %w", flow, err)
		}

		res, err = parseOutput(flow, text)
		if err == nil {
			res.Thoughts = f.policy.Sanitize(res.Thoughts)
			return res, nil
		}

		if attempt >= f.maxRetries {
			return Result{}, fmt.Errorf("%s flow after %d attempts: %w", flow, attempt+1, err)
		}
		f.logger.Warn("Code source reply rejected, retrying",
			zap.String("flow", string(flow)),
			zap.Int("attempt", attempt+1),
			zap.Error(err))

		prompt, err = render("retry", retryData{
			Previous: prompt,
			Problem:  err.Error(),
			Field:    codeField[flow],
		})
		if err != nil {
			return Result{}, err
		}
	}
}

func render(name string, data any) (string, error) {
	var b strings.Builder
	if err := prompts.ExecuteTemplate(&b, name, data); err != nil {
		return "", fmt.Errorf("render %s prompt: %w", name, err)
	}
	return b.String(), nil
}

func flowStatus(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, resilience.ErrCircuitOpen), errors.Is(err, resilience.ErrTooManyRequests):
		return "rejected"
	case errors.Is(err, ErrMalformedOutput):
		return "malformed"
	default:
		return "error"
	}
}

// parseOutput extracts thoughts and code from a reply. Replies may wrap
// the JSON object in a markdown fence or surround it with prose.
func parseOutput(flow Flow, text string) (Result, error) {
	body := stripFence(strings.TrimSpace(text))

	start := strings.IndexByte(body, '{')
	end := strings.LastIndexByte(body, '}')
	if start < 0 || end < start {
		return Result{}, fmt.Errorf("%w: no JSON object in reply", ErrMalformedOutput)
	}

	var out map[string]any
	if err := sonic.UnmarshalString(body[start:end+1], &out); err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrMalformedOutput, err)
	}

	field := codeField[flow]
	code, _ := out[field].(string)
	code = strings.TrimSpace(stripFence(strings.TrimSpace(code)))
	if code == "" {
		return Result{}, fmt.Errorf("%w: missing %q", ErrMalformedOutput, field)
	}

	thoughts, _ := out["thoughts"].(string)
	return Result{Thoughts: strings.TrimSpace(thoughts), Code: code}, nil
}

// stripFence removes one surrounding ``` block, with or without a language tag
func stripFence(s string) string {
	if !strings.HasPrefix(s, "```") || !strings.HasSuffix(s, "```") || len(s) < 6 {
		return s
	}
	inner := s[3 : len(s)-3]
	if nl := strings.IndexByte(inner, '\n'); nl >= 0 {
		tag := strings.TrimSpace(inner[:nl])
		if !strings.ContainsAny(tag, " {(;") {
			inner = inner[nl+1:]
		}
	}
	return strings.TrimSpace(inner)
}
