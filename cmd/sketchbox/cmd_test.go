package main

import (
	"bytes"
	"context"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/SketchBox/internal/infrastructure/config"
	"github.com/GriffinCanCode/SketchBox/internal/infrastructure/logging"
	"github.com/GriffinCanCode/SketchBox/internal/sketch/harness"
)

func TestRenderSketchWritesPNG(t *testing.T) {
	src := `
p.setup = () => {
  console.log("ready");
};
p.draw = () => {
  p.background(255, 0, 0);
};`
	var out, console bytes.Buffer
	opts := runOpts{frames: 3, width: 40, height: 30}

	require.NoError(t, renderSketch(context.Background(), src, opts, &out, &console, logging.NewNop()))
	assert.Contains(t, console.String(), "[log] ready")

	img, err := png.Decode(&out)
	require.NoError(t, err)
	assert.Equal(t, 40, img.Bounds().Dx())
	assert.Equal(t, 30, img.Bounds().Dy())

	r, g, b, _ := img.At(20, 15).RGBA()
	assert.Equal(t, uint32(0xffff), r)
	assert.Zero(t, g)
	assert.Zero(t, b)
}

func TestRenderSketchReportsErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		kind harness.Kind
	}{
		{"syntax", "p.setup = ( => {", harness.KindCompilation},
		{"setup throws", "p.setup = () => { throw new Error('nope'); };", harness.KindConstruction},
		{"draw throws", "p.draw = () => { missing(); };", harness.KindRuntimeFrame},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			err := renderSketch(context.Background(), tt.src, runOpts{frames: 1, width: 10, height: 10}, &out, &bytes.Buffer{}, logging.NewNop())

			var serr *harness.SketchError
			require.ErrorAs(t, err, &serr)
			assert.Equal(t, tt.kind, serr.Kind)
			assert.Zero(t, out.Len())
		})
	}
}

func TestRenderSketchRejectsBadOptions(t *testing.T) {
	var out bytes.Buffer
	assert.Error(t, renderSketch(context.Background(), "p.setup = () => {};", runOpts{frames: -1, width: 10, height: 10}, &out, &out, logging.NewNop()))
	assert.Error(t, renderSketch(context.Background(), "p.setup = () => {};", runOpts{frames: 1, width: 0, height: 10}, &out, &out, logging.NewNop()))
}

func TestRunCommand(t *testing.T) {
	dir := t.TempDir()
	sketch := filepath.Join(dir, "dots.js")
	output := filepath.Join(dir, "dots.png")
	require.NoError(t, os.WriteFile(sketch, []byte("p.setup = () => { p.background(0); };"), 0o644))

	root := newRootCmd()
	root.SetArgs([]string{"run", sketch, "--out", output, "--frames", "2", "--width", "16", "--height", "16"})
	root.SetErr(&bytes.Buffer{})
	require.NoError(t, root.Execute())

	f, err := os.Open(output)
	require.NoError(t, err)
	defer f.Close()

	img, err := png.Decode(f)
	require.NoError(t, err)
	assert.Equal(t, 16, img.Bounds().Dx())
}

func TestRunCommandMissingFile(t *testing.T) {
	root := newRootCmd()
	root.SetArgs([]string{"run", filepath.Join(t.TempDir(), "nope.js")})
	assert.Error(t, root.Execute())
}

func TestRunCommandFailureWritesNothing(t *testing.T) {
	dir := t.TempDir()
	sketch := filepath.Join(dir, "broken.js")
	output := filepath.Join(dir, "broken.png")
	require.NoError(t, os.WriteFile(sketch, []byte("p.setup = () => { throw new Error('nope'); };"), 0o644))

	root := newRootCmd()
	root.SetArgs([]string{"run", sketch, "--out", output})
	root.SetErr(&bytes.Buffer{})
	require.Error(t, root.Execute())

	_, err := os.Stat(output)
	assert.True(t, os.IsNotExist(err))
}

func TestRunCommandRejectsOutputCollisions(t *testing.T) {
	dir := t.TempDir()
	for _, sub := range []string{"a", "b"} {
		require.NoError(t, os.MkdirAll(filepath.Join(dir, sub), 0o755))
		require.NoError(t, os.WriteFile(filepath.Join(dir, sub, "x.js"), []byte("p.setup = () => {};"), 0o644))
	}

	out := filepath.Join(dir, "frames")
	root := newRootCmd()
	root.SetArgs([]string{"run", filepath.Join(dir, "*", "x.js"), "--out", out, "--width", "8", "--height", "8"})
	root.SetErr(&bytes.Buffer{})

	err := root.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "x.png")

	_, err = os.Stat(out)
	assert.True(t, os.IsNotExist(err))
}

func TestServeFlagsOverrideConfig(t *testing.T) {
	cmd := newServeCmd()
	require.NoError(t, cmd.Flags().Parse([]string{"--port", "9123", "--dev"}))

	var opts serveOpts
	opts.port, _ = cmd.Flags().GetString("port")
	opts.dev, _ = cmd.Flags().GetBool("dev")

	cfg := config.Default()
	opts.apply(cmd, cfg)
	assert.Equal(t, "9123", cfg.Server.Port)
	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.True(t, cfg.Logging.Development)
}

func TestRunCommandExpandsPatterns(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "a", "b"), 0o755))
	for _, name := range []string{"one.js", filepath.Join("a", "two.js"), filepath.Join("a", "b", "three.js")} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("p.setup = () => { p.background(0, 0, 255); };"), 0o644))
	}
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("skip"), 0o644))

	out := filepath.Join(dir, "frames")
	root := newRootCmd()
	root.SetArgs([]string{"run", filepath.Join(dir, "**", "*.js"), "--out", out, "--width", "8", "--height", "8"})
	root.SetErr(&bytes.Buffer{})
	require.NoError(t, root.Execute())

	entries, err := os.ReadDir(out)
	require.NoError(t, err)
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	assert.ElementsMatch(t, []string{"one.png", "two.png", "three.png"}, names)
}

func TestExpandSketches(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "s.js")
	require.NoError(t, os.WriteFile(path, nil, 0o644))

	files, err := expandSketches([]string{path, filepath.Join(dir, "*.js")})
	require.NoError(t, err)
	assert.Equal(t, []string{path}, files)

	_, err = expandSketches([]string{filepath.Join(dir, "*.ts")})
	assert.Error(t, err)
}
