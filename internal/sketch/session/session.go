package session

import (
	"context"
	"math"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/SketchBox/internal/infrastructure/logging"
	"github.com/GriffinCanCode/SketchBox/internal/shared/id"
	"github.com/GriffinCanCode/SketchBox/internal/sketch/container"
	"github.com/GriffinCanCode/SketchBox/internal/sketch/harness"
	"github.com/GriffinCanCode/SketchBox/internal/sketch/sandbox"
	"github.com/GriffinCanCode/SketchBox/internal/studio"
)

// Info describes a session for listings
type Info struct {
	ID          id.SessionID    `json:"id"`
	Width       int             `json:"width"`
	Height      int             `json:"height"`
	State       harness.State   `json:"state"`
	CreatedAt   time.Time       `json:"created_at"`
	Subscribers int             `json:"subscribers"`
	Dropped     uint64          `json:"dropped_events"`
	Stats       harness.Stats   `json:"stats"`
	Studio      studio.Snapshot `json:"studio"`
}

// Session owns one container, the harness rendering into it, the studio
// editing its code and the goroutine driving frames.
type Session struct {
	id        id.SessionID
	createdAt time.Time
	logger    *logging.Logger

	container *container.Container
	harness   *harness.Harness
	studio    *studio.Studio
	hub       *hub

	cancel    context.CancelFunc
	done      chan struct{}
	closeOnce sync.Once
}

func newSession(sid id.SessionID, width, height int, cfg Config) (*Session, error) {
	cont, err := container.New(width, height)
	if err != nil {
		return nil, err
	}

	logger := cfg.Logger.With(zap.String("session", sid.String()))
	s := &Session{
		id:        sid,
		createdAt: time.Now(),
		logger:    logger,
		container: cont,
		hub:       newHub(),
		done:      make(chan struct{}),
	}

	s.harness = harness.New(harness.Options{
		Pool:      cfg.Pool,
		Container: cont,
		OnError:   s.onSketchError,
		OnConsole: s.onConsole,
		OnState:   s.onState,
		Logger:    logger.Named("harness"),
		Metrics:   cfg.Metrics,
		FrameRate: float64(cfg.FrameRate),
	})
	s.studio = studio.New(cfg.Flows, s.harness, logger.Named("studio"))

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	go s.run(ctx)

	return s, nil
}

// ID returns the session id
func (s *Session) ID() id.SessionID { return s.id }

// Harness returns the harness rendering this session
func (s *Session) Harness() *harness.Harness { return s.harness }

// Studio returns the session's code editor state
func (s *Session) Studio() *studio.Studio { return s.studio }

// Size returns the container size
func (s *Session) Size() (int, int) { return s.container.Size() }

// Resize changes the container size. The harness reallocates the surface
// synchronously before Resize returns.
func (s *Session) Resize(width, height int) error {
	if err := s.container.Resize(width, height); err != nil {
		return err
	}
	s.hub.publish(EventResize, ResizeData{Width: width, Height: height})
	return nil
}

// Subscribe streams session events. Call the returned function to stop.
func (s *Session) Subscribe(buffer int) (<-chan Event, func()) {
	return s.hub.subscribe(buffer)
}

// Info summarizes the session
func (s *Session) Info() Info {
	w, h := s.container.Size()
	stats := s.harness.Stats()
	return Info{
		ID:          s.id,
		Width:       w,
		Height:      h,
		State:       stats.State,
		CreatedAt:   s.createdAt,
		Subscribers: s.hub.count(),
		Dropped:     s.hub.dropped.Load(),
		Stats:       stats,
		Studio:      s.studio.Snapshot(),
	}
}

// close stops the frame loop, tears the sketch down and ends every stream
func (s *Session) close() {
	s.closeOnce.Do(func() {
		s.cancel()
		<-s.done
		s.harness.Close()
		s.hub.close()
		s.logger.Info("Session closed")
	})
}

// run drives frames at the rate the running sketch asks for
func (s *Session) run(ctx context.Context) {
	defer close(s.done)

	rate := s.harness.FrameRate()
	ticker := time.NewTicker(frameInterval(rate))
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		if s.harness.Frame(ctx) && s.hub.count() > 0 {
			stats := s.harness.Stats()
			s.hub.publish(EventFrame, FrameData{
				FrameCount: stats.FrameCount,
				Width:      stats.Width,
				Height:     stats.Height,
			})
		}

		if r := s.harness.FrameRate(); r != rate {
			rate = r
			ticker.Reset(frameInterval(rate))
		}
	}
}

func frameInterval(rate float64) time.Duration {
	if rate <= 0 || math.IsNaN(rate) || math.IsInf(rate, 0) {
		rate = 1
	}
	return time.Duration(float64(time.Second) / rate)
}

// Harness callbacks. They run on the harness goroutine, sometimes with the
// harness lock held, so they only record and publish.

func (s *Session) onSketchError(err *harness.SketchError) {
	s.studio.HandleSketchError(err)
	s.hub.publish(EventSketchError, err)
}

func (s *Session) onConsole(entry sandbox.LogEntry) {
	s.hub.publish(EventConsole, entry)
}

func (s *Session) onState(state harness.State) {
	s.hub.publish(EventState, state)
}
