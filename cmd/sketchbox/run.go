package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/SketchBox/internal/infrastructure/logging"
	"github.com/GriffinCanCode/SketchBox/internal/sketch/container"
	"github.com/GriffinCanCode/SketchBox/internal/sketch/harness"
	"github.com/GriffinCanCode/SketchBox/internal/sketch/sandbox"
)

const (
	defaultWidth  = 800 // container width when --width is not given
	defaultHeight = 600 // container height when --height is not given
)

// runOpts holds the flags for the headless run command
type runOpts struct {
	output string // PNG destination
	frames int    // frames to advance before capturing
	width  int
	height int
}

func newRunCmd(root *rootOpts) *cobra.Command {
	opts := runOpts{
		output: "sketch.png",
		frames: 1,
		width:  defaultWidth,
		height: defaultHeight,
	}

	cmd := &cobra.Command{
		Use:   "run [file or pattern]...",
		Short: "Render sketch files headlessly to PNG",
		Long: `Mounts each sketch in a fresh sandbox, advances the given number of
frames and writes the resulting surface as PNG. Console output goes to
stderr. A construction or frame error fails that sketch.

Arguments may be doublestar patterns such as "sketches/**/*.js". When more
than one sketch matches, --out names a directory and each PNG is named
after its source file.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			files, err := expandSketches(args)
			if err != nil {
				return err
			}

			if len(files) == 1 && !strings.HasSuffix(opts.output, string(filepath.Separator)) {
				return renderFile(cmd.Context(), files[0], opts.output, opts, cmd.ErrOrStderr(), root.logger)
			}

			dir := opts.output
			if !cmd.Flags().Changed("out") {
				dir = "."
			}
			outputs, err := outputNames(files, dir)
			if err != nil {
				return err
			}
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return fmt.Errorf("create output directory: %w", err)
			}

			var errs []error
			for i, file := range files {
				if err := renderFile(cmd.Context(), file, outputs[i], opts, cmd.ErrOrStderr(), root.logger); err != nil {
					errs = append(errs, fmt.Errorf("%s: %w", file, err))
				}
			}
			if len(errs) > 0 {
				return fmt.Errorf("%d of %d sketches failed: %w", len(errs), len(files), errors.Join(errs...))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&opts.output, "out", "o", opts.output, "output PNG path")
	cmd.Flags().IntVarP(&opts.frames, "frames", "n", opts.frames, "frames to run before capturing")
	cmd.Flags().IntVar(&opts.width, "width", opts.width, "container width in pixels")
	cmd.Flags().IntVar(&opts.height, "height", opts.height, "container height in pixels")
	return cmd
}

// expandSketches resolves doublestar patterns. Plain paths are kept even if
// they do not exist so the read error names them.
func expandSketches(args []string) ([]string, error) {
	seen := make(map[string]bool)
	var files []string
	for _, arg := range args {
		matches := []string{arg}
		if strings.ContainsAny(arg, "*?[{") {
			var err error
			matches, err = doublestar.FilepathGlob(arg, doublestar.WithFilesOnly())
			if err != nil {
				return nil, fmt.Errorf("bad pattern %q: %w", arg, err)
			}
			if len(matches) == 0 {
				return nil, fmt.Errorf("no sketches match %q", arg)
			}
		}
		for _, m := range matches {
			if !seen[m] {
				seen[m] = true
				files = append(files, m)
			}
		}
	}
	return files, nil
}

// outputNames maps each sketch to dir/<base>.png. Two sketches with the
// same base name would overwrite each other, so that is an error.
func outputNames(files []string, dir string) ([]string, error) {
	owner := make(map[string]string, len(files))
	outputs := make([]string, len(files))
	for i, file := range files {
		name := strings.TrimSuffix(filepath.Base(file), filepath.Ext(file)) + ".png"
		if prev, ok := owner[name]; ok {
			return nil, fmt.Errorf("%s and %s would both write %s", prev, file, name)
		}
		owner[name] = file
		outputs[i] = filepath.Join(dir, name)
	}
	return outputs, nil
}

// renderFile writes output only when the sketch rendered
func renderFile(ctx context.Context, path, output string, opts runOpts, console io.Writer, logger *logging.Logger) error {
	src, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read sketch: %w", err)
	}

	var buf bytes.Buffer
	if err := renderSketch(ctx, string(src), opts, &buf, console, logger); err != nil {
		return err
	}
	if err := os.WriteFile(output, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	return nil
}

// renderSketch mounts src, advances opts.frames frames and encodes the
// surface to out. The first sketch error aborts the render.
func renderSketch(ctx context.Context, src string, opts runOpts, out, console io.Writer, logger *logging.Logger) error {
	if opts.frames < 0 {
		return fmt.Errorf("frames must not be negative, got %d", opts.frames)
	}

	ctr, err := container.New(opts.width, opts.height)
	if err != nil {
		return err
	}

	pool := sandbox.NewPool(sandbox.DefaultConfig(), 1)
	defer pool.Close()

	var sketchErr *harness.SketchError
	h := harness.New(harness.Options{
		Pool:      pool,
		Container: ctr,
		Logger:    logger,
		OnError: func(err *harness.SketchError) {
			if sketchErr == nil {
				sketchErr = err
			}
		},
		OnConsole: func(entry sandbox.LogEntry) {
			fmt.Fprintf(console, "[%s] %s\n", entry.Level, entry.Message)
		},
	})
	defer h.Close()

	h.Mount(ctx, src)
	if sketchErr != nil {
		return sketchErr
	}

	for i := 0; i < opts.frames; i++ {
		h.Frame(ctx)
		if sketchErr != nil {
			return sketchErr
		}
		if err := ctx.Err(); err != nil {
			return err
		}
	}

	logger.Debug("Rendered sketch",
		zap.Int("frames", opts.frames),
		zap.Int("width", opts.width),
		zap.Int("height", opts.height))
	return h.WriteFrame(out)
}
