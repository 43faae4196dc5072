package harness

import (
	"bytes"
	"context"
	"errors"
	"image/png"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/SketchBox/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/SketchBox/internal/sketch/binding"
	"github.com/GriffinCanCode/SketchBox/internal/sketch/container"
	"github.com/GriffinCanCode/SketchBox/internal/sketch/sandbox"
)

type recorder struct {
	mu      sync.Mutex
	errors  []*SketchError
	console []string
	states  []State
}

func (r *recorder) onError(err *SketchError) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.errors = append(r.errors, err)
}

func (r *recorder) onConsole(e sandbox.LogEntry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.console = append(r.console, e.Message)
}

func (r *recorder) onState(s State) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.states = append(r.states, s)
}

func (r *recorder) lines() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.console...)
}

func (r *recorder) count(line string) int {
	n := 0
	for _, l := range r.lines() {
		if l == line {
			n++
		}
	}
	return n
}

type fixture struct {
	h    *Harness
	c    *container.Container
	pool *sandbox.Pool
	rec  *recorder
}

func newFixture(t *testing.T, configure ...func(*sandbox.Config)) *fixture {
	t.Helper()

	cfg := sandbox.DefaultConfig()
	cfg.CallbackTimeout = time.Second
	for _, fn := range configure {
		fn(&cfg)
	}
	pool := sandbox.NewPool(cfg, 2)
	t.Cleanup(func() { pool.Close() })

	c, err := container.New(120, 80)
	require.NoError(t, err)

	rec := &recorder{}
	h := New(Options{
		Pool:      pool,
		Container: c,
		OnError:   rec.onError,
		OnConsole: rec.onConsole,
		OnState:   rec.onState,
		Metrics:   monitoring.NewMetrics(),
	})
	t.Cleanup(h.Close)

	return &fixture{h: h, c: c, pool: pool, rec: rec}
}

func TestMountAttachesOneSurfaceSizedToContainer(t *testing.T) {
	f := newFixture(t)

	f.h.Mount(context.Background(), `p.setup = () => { p.background(0) }`)

	require.Empty(t, f.rec.errors)
	assert.Equal(t, StateRunning, f.h.State())

	surfaces := f.c.Surfaces()
	require.Len(t, surfaces, 1)
	assert.Equal(t, 120, surfaces[0].Width())
	assert.Equal(t, 80, surfaces[0].Height())
}

func TestBodyRunsBeforeSetup(t *testing.T) {
	f := newFixture(t)

	f.h.Mount(context.Background(), `
		console.log('body');
		p.setup = () => console.log('setup ' + p.width + 'x' + p.height);
	`)

	assert.Equal(t, []string{"body", "setup 120x80"}, f.rec.lines())
}

func TestRepeatedMountsKeepOneInstance(t *testing.T) {
	f := newFixture(t)

	for i := 0; i < 5; i++ {
		f.h.Mount(context.Background(), `p.draw = () => p.rect(0, 0, 10, 10)`)
		assert.Len(t, f.c.Surfaces(), 1)
		assert.Equal(t, 1, f.pool.Stats().InUse)
		assert.Equal(t, 1, f.c.Observers())
	}
	assert.Empty(t, f.rec.errors)
}

func TestSecondSurfaceCreationIsNoop(t *testing.T) {
	f := newFixture(t)

	f.h.Mount(context.Background(), `
		p.setup = () => {
			const a = p.createCanvas(400, 400);
			const b = p.createCanvas(800, 600);
			console.log(String(a === b));
		};
	`)

	require.Empty(t, f.rec.errors)
	surfaces := f.c.Surfaces()
	require.Len(t, surfaces, 1)
	assert.Equal(t, 120, surfaces[0].Width())
	assert.Equal(t, []string{"true"}, f.rec.lines())
}

func TestBodyThrowReportsOnce(t *testing.T) {
	f := newFixture(t)

	f.h.Mount(context.Background(), `
		p.setup = () => {};
		throw new Error('kaboom');
	`)

	require.Len(t, f.rec.errors, 1)
	err := f.rec.errors[0]
	assert.Equal(t, KindConstruction, err.Kind)
	assert.Contains(t, err.Message, "kaboom")
	assert.NotEmpty(t, err.Stack)

	assert.Empty(t, f.c.Surfaces())
	assert.Equal(t, 0, f.c.Observers())
	assert.Equal(t, StateEmpty, f.h.State())
	assert.Equal(t, 0, f.pool.Stats().InUse)
}

func TestSetupThrowReportsOnce(t *testing.T) {
	f := newFixture(t)

	f.h.Mount(context.Background(), `p.setup = () => { p.background(0); undefinedFn() }`)

	require.Len(t, f.rec.errors, 1)
	assert.Equal(t, KindConstruction, f.rec.errors[0].Kind)
	assert.Contains(t, f.rec.errors[0].Message, "undefinedFn")
	assert.Empty(t, f.c.Surfaces())
	assert.Equal(t, StateEmpty, f.h.State())
}

func TestCompilationError(t *testing.T) {
	f := newFixture(t)

	f.h.Mount(context.Background(), `p.setup = function( {`)

	require.Len(t, f.rec.errors, 1)
	assert.Equal(t, KindCompilation, f.rec.errors[0].Kind)
	assert.Empty(t, f.c.Surfaces())
	assert.Equal(t, 0, f.pool.Stats().Created)
}

func TestFailedRemountLeavesNothingBehind(t *testing.T) {
	f := newFixture(t)

	f.h.Mount(context.Background(), `p.draw = () => {}`)
	require.Equal(t, StateRunning, f.h.State())

	f.h.Mount(context.Background(), `throw 'nope'`)
	require.Len(t, f.rec.errors, 1)
	assert.Equal(t, "nope", f.rec.errors[0].Message)
	assert.Empty(t, f.c.Surfaces())
	assert.Equal(t, StateEmpty, f.h.State())
	assert.Equal(t, []State{StateRunning, StateEmpty}, f.rec.states)
}

func TestResizeUpdatesSurfaceWithoutSetup(t *testing.T) {
	f := newFixture(t)

	f.h.Mount(context.Background(), `
		p.setup = () => console.log('setup');
		p.windowResized = () => console.log('sketch resize');
	`)
	require.Equal(t, 1, f.rec.count("setup"))

	require.NoError(t, f.c.Resize(300, 200))

	surfaces := f.c.Surfaces()
	require.Len(t, surfaces, 1)
	assert.Equal(t, 300, surfaces[0].Width())
	assert.Equal(t, 200, surfaces[0].Height())

	stats := f.h.Stats()
	assert.Equal(t, 300, stats.Width)
	assert.Equal(t, 200, stats.Height)

	assert.Equal(t, 1, f.rec.count("setup"))
	assert.Equal(t, 0, f.rec.count("sketch resize"))
}

func TestResizeDuringSetupReachesSurface(t *testing.T) {
	f := newFixture(t)

	c, err := container.New(120, 80)
	require.NoError(t, err)
	h := New(Options{
		Pool:      f.pool,
		Container: c,
		OnError:   f.rec.onError,
		OnConsole: func(e sandbox.LogEntry) {
			if e.Message == "grow" {
				require.NoError(t, c.Resize(300, 200))
			}
		},
	})
	t.Cleanup(h.Close)

	h.Mount(context.Background(), `p.setup = () => { console.log('grow'); p.background(0); }`)
	require.Empty(t, f.rec.errors)

	surfaces := c.Surfaces()
	require.Len(t, surfaces, 1)
	assert.Equal(t, 300, surfaces[0].Width())
	assert.Equal(t, 200, surfaces[0].Height())

	// later resizes still reach the surface
	require.NoError(t, c.Resize(64, 48))
	assert.Equal(t, 64, surfaces[0].Width())
	assert.Equal(t, 48, surfaces[0].Height())
}

func TestResizeAfterUnmountIsIgnored(t *testing.T) {
	f := newFixture(t)

	f.h.Mount(context.Background(), `p.draw = () => {}`)
	f.h.Unmount()

	require.NoError(t, f.c.Resize(10, 10))
	assert.Empty(t, f.c.Surfaces())
	assert.Equal(t, 0, f.c.Observers())
}

func TestUnmountWithoutInstance(t *testing.T) {
	f := newFixture(t)

	assert.NotPanics(t, func() {
		f.h.Unmount()
		f.h.Unmount()
	})
	assert.Empty(t, f.c.Surfaces())
	assert.Equal(t, StateEmpty, f.h.State())
	assert.Empty(t, f.rec.states)
}

func TestEmptySourceUnmounts(t *testing.T) {
	f := newFixture(t)

	f.h.Mount(context.Background(), `p.draw = () => {}`)
	f.h.Mount(context.Background(), "")

	assert.Equal(t, StateEmpty, f.h.State())
	assert.Empty(t, f.c.Surfaces())
	assert.Empty(t, f.rec.errors)
}

func TestRoundTripReplacesCallbacks(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.h.Mount(ctx, `p.draw = () => console.log('A')`)
	require.Len(t, f.c.Surfaces(), 1)
	assert.Equal(t, 120, f.c.Surfaces()[0].Width())
	require.True(t, f.h.Frame(ctx))
	require.Equal(t, 1, f.rec.count("A"))

	require.NoError(t, f.c.Resize(64, 48))
	f.h.Mount(ctx, `p.draw = () => console.log('B')`)

	surfaces := f.c.Surfaces()
	require.Len(t, surfaces, 1)
	assert.Equal(t, 64, surfaces[0].Width())
	assert.Equal(t, 48, surfaces[0].Height())

	for i := 0; i < 3; i++ {
		f.h.Frame(ctx)
	}
	assert.Equal(t, 1, f.rec.count("A"))
	assert.Equal(t, 3, f.rec.count("B"))
}

func TestFrameThrowTearsDown(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.h.Mount(ctx, `p.draw = () => { if (p.frameCount === 2) throw new Error('frame two') }`)
	require.True(t, f.h.Frame(ctx))
	assert.False(t, f.h.Frame(ctx))

	require.Len(t, f.rec.errors, 1)
	assert.Equal(t, KindRuntimeFrame, f.rec.errors[0].Kind)
	assert.Contains(t, f.rec.errors[0].Message, "frame two")
	assert.Equal(t, StateEmpty, f.h.State())
	assert.Empty(t, f.c.Surfaces())

	assert.False(t, f.h.Frame(ctx))
	assert.Len(t, f.rec.errors, 1)
}

func TestWatchdogInterruptsRunawayDraw(t *testing.T) {
	f := newFixture(t, func(c *sandbox.Config) { c.CallbackTimeout = 50 * time.Millisecond })
	ctx := context.Background()

	f.h.Mount(ctx, `p.draw = () => { for (;;) {} }`)
	assert.False(t, f.h.Frame(ctx))

	require.Len(t, f.rec.errors, 1)
	assert.Equal(t, KindRuntimeFrame, f.rec.errors[0].Kind)
	assert.True(t, errors.Is(f.rec.errors[0], sandbox.ErrCallbackTimeout))
	assert.Equal(t, 0, f.pool.Stats().InUse)
}

func TestCancelledFrameIsNotASketchError(t *testing.T) {
	f := newFixture(t)

	f.h.Mount(context.Background(), `p.draw = () => { for (;;) {} }`)
	require.Equal(t, StateRunning, f.h.State())

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(50*time.Millisecond, cancel)
	assert.False(t, f.h.Frame(ctx))

	assert.Empty(t, f.rec.errors)
	assert.Equal(t, StateEmpty, f.h.State())
	assert.Empty(t, f.c.Surfaces())
	assert.Equal(t, 0, f.pool.Stats().InUse)
}

func TestMountWithCancelledContext(t *testing.T) {
	f := newFixture(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	f.h.Mount(ctx, `p.setup = () => {}`)

	require.Len(t, f.rec.errors, 1)
	assert.Equal(t, KindConstruction, f.rec.errors[0].Kind)
	assert.ErrorIs(t, f.rec.errors[0], context.Canceled)
	assert.Empty(t, f.c.Surfaces())
	assert.Equal(t, 0, f.pool.Stats().InUse)
}

func TestCloseRejectsMount(t *testing.T) {
	f := newFixture(t)

	f.h.Mount(context.Background(), `p.draw = () => {}`)
	f.h.Close()
	assert.Empty(t, f.c.Surfaces())

	f.h.Mount(context.Background(), `p.draw = () => {}`)
	require.Len(t, f.rec.errors, 1)
	assert.ErrorIs(t, f.rec.errors[0], ErrHarnessClosed)
	assert.Equal(t, StateEmpty, f.h.State())
}

func TestDispatchInvokesCallbacks(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.h.Mount(ctx, `
		p.keyPressed = (e) => console.log('key ' + p.key + ' ' + e.keyCode);
		p.mousePressed = () => console.log('press ' + p.mouseX + ',' + p.mouseY);
	`)

	assert.True(t, f.h.Dispatch(ctx, binding.Event{Type: binding.EventKeyDown, Key: "ArrowUp", KeyCode: 38}))
	assert.True(t, f.h.Dispatch(ctx, binding.Event{Type: binding.EventMouseDown, X: 4, Y: 5}))
	assert.False(t, f.h.Dispatch(ctx, binding.Event{Type: binding.EventWheel}))

	assert.Equal(t, []string{"key ArrowUp 38", "press 4,5"}, f.rec.lines())
}

func TestDispatchThrowTearsDown(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.h.Mount(ctx, `p.mouseClicked = () => { null.x }`)
	assert.False(t, f.h.Dispatch(ctx, binding.Event{Type: binding.EventClick}))

	require.Len(t, f.rec.errors, 1)
	assert.Equal(t, KindRuntimeFrame, f.rec.errors[0].Kind)
	assert.Equal(t, StateEmpty, f.h.State())
}

func TestNoLoopDrawsOnceAfterSetup(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.h.Mount(ctx, `
		p.setup = () => { p.frameRate(12); p.noLoop() };
		p.draw = () => console.log('draw');
	`)

	assert.Equal(t, 12.0, f.h.FrameRate())
	assert.True(t, f.h.Frame(ctx))
	assert.False(t, f.h.Frame(ctx))
	assert.Equal(t, 1, f.rec.count("draw"))
}

func TestFrameRateDefaultsWhenEmpty(t *testing.T) {
	f := newFixture(t)
	assert.Equal(t, binding.DefaultFrameRate, f.h.FrameRate())
}

func TestWriteFrame(t *testing.T) {
	f := newFixture(t)

	var buf bytes.Buffer
	assert.ErrorIs(t, f.h.WriteFrame(&buf), ErrNoInstance)

	f.h.Mount(context.Background(), `p.setup = () => p.background('#336699')`)
	require.NoError(t, f.h.WriteFrame(&buf))

	img, err := png.Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, 120, img.Bounds().Dx())
	assert.Equal(t, 80, img.Bounds().Dy())
}

func TestStatsTrackFrames(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.h.Mount(ctx, `p.draw = () => { for (let i = 0; i < 100; i++) p.rect(i, i, 2, 2) }`)
	for i := 0; i < 10; i++ {
		require.True(t, f.h.Frame(ctx))
	}

	stats := f.h.Stats()
	assert.Equal(t, StateRunning, stats.State)
	assert.Equal(t, 10, stats.FrameCount)
	assert.Equal(t, int64(10), stats.FramesDrawn)
	assert.Equal(t, int64(1), stats.Mounts)
	assert.Greater(t, stats.MeanFrameMs, 0.0)
	assert.GreaterOrEqual(t, stats.P95FrameMs, stats.MeanFrameMs*0.5)
}

func TestConsoleReachesHost(t *testing.T) {
	f := newFixture(t)

	f.h.Mount(context.Background(), `console.warn('careful', 1, true)`)
	require.Empty(t, f.rec.errors)
	assert.True(t, strings.HasPrefix(f.rec.lines()[0], "careful"))
}
