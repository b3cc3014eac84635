// Package conversion runs a single image conversion: decode, resolve the
// style, validate parameters and process.
package conversion

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/deerking0923/prj-sketch-backend/internal/backend/pixel"
	"github.com/deerking0923/prj-sketch-backend/internal/backend/stylestructure"
)

// MissingInputError is returned when no image bytes were supplied.
type MissingInputError struct{}

func (e *MissingInputError) Error() string {
	return "no image provided"
}

// ProcessingError wraps a failure inside a processor, including panics.
type ProcessingError struct {
	Style string
	Cause error
}

func (e *ProcessingError) Error() string {
	return fmt.Sprintf("failed to process image with style %s: %v", e.Style, e.Cause)
}

func (e *ProcessingError) Unwrap() error {
	return e.Cause
}

// Job is a decoded and validated conversion that has not run yet.
type Job struct {
	Source    *pixel.Buffer
	Style     string
	Processor stylestructure.Processor
	Params    stylestructure.Values
}

// Nondeterministic reports whether the job output depends on random draws.
func (j *Job) Nondeterministic() bool {
	n, ok := j.Processor.(stylestructure.Nondeterministic)
	return ok && n.IsNondeterministic(j.Params)
}

// Result is the output of a conversion.
type Result struct {
	Buffer   *pixel.Buffer
	Style    string
	Params   stylestructure.Values
	Duration time.Duration
}

// Converter resolves styles against a registry.
type Converter struct {
	registry     *stylestructure.StyleRegistry
	defaultStyle string
	maxPixels    int
}

// NewConverter creates a converter. An empty style in a request falls back
// to defaultStyle. Inputs larger than maxPixels are rejected before their
// pixels are decoded; a non-positive maxPixels uses pixel.DefaultMaxPixels.
func NewConverter(registry *stylestructure.StyleRegistry, defaultStyle string, maxPixels int) *Converter {
	if maxPixels <= 0 {
		maxPixels = pixel.DefaultMaxPixels
	}
	return &Converter{
		registry:     registry,
		defaultStyle: defaultStyle,
		maxPixels:    maxPixels,
	}
}

// Registry returns the registry used for style lookups.
func (c *Converter) Registry() *stylestructure.StyleRegistry {
	return c.registry
}

// Prepare decodes raw, resolves style and validates rawParams, in that
// order, so the first failing step decides the error kind.
func (c *Converter) Prepare(raw []byte, style string, rawParams map[string]any) (*Job, error) {
	if len(raw) == 0 {
		return nil, &MissingInputError{}
	}
	if style == "" {
		style = c.defaultStyle
	}

	src, err := pixel.DecodeLimited(raw, c.maxPixels)
	if err != nil {
		slog.Error("Converter: failed to decode image", "error", err)
		return nil, err
	}

	p, err := c.registry.Resolve(style)
	if err != nil {
		return nil, err
	}

	params, err := stylestructure.Validate(p.Parameters(), rawParams)
	if err != nil {
		return nil, err
	}

	return &Job{Source: src, Style: style, Processor: p, Params: params}, nil
}

// Run processes a prepared job. The context is checked once before the
// pixel work starts; processors are not interrupted.
func (c *Converter) Run(ctx context.Context, job *Job) (result *Result, err error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	defer func() {
		if r := recover(); r != nil {
			slog.Error("Converter: processor panicked", "style", job.Style, "panic", r)
			result, err = nil, &ProcessingError{Style: job.Style, Cause: fmt.Errorf("panic: %v", r)}
		}
	}()

	start := time.Now()
	out, err := job.Processor.Process(job.Source, job.Params)
	if err != nil {
		slog.Error("Converter: processing failed", "style", job.Style, "error", err)
		return nil, &ProcessingError{Style: job.Style, Cause: err}
	}
	if err := out.Validate(); err != nil {
		return nil, &ProcessingError{Style: job.Style, Cause: err}
	}

	elapsed := time.Since(start)
	slog.Debug("Converter: processing complete",
		"style", job.Style,
		"width", out.Width,
		"height", out.Height,
		"duration", elapsed)
	return &Result{Buffer: out, Style: job.Style, Params: job.Params, Duration: elapsed}, nil
}

// Convert prepares and runs a conversion in one call.
func (c *Converter) Convert(ctx context.Context, raw []byte, style string, rawParams map[string]any) (*Result, error) {
	job, err := c.Prepare(raw, style, rawParams)
	if err != nil {
		return nil, err
	}
	return c.Run(ctx, job)
}
