package session

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/SketchBox/internal/infrastructure/logging"
	"github.com/GriffinCanCode/SketchBox/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/SketchBox/internal/shared/id"
	"github.com/GriffinCanCode/SketchBox/internal/sketch/sandbox"
	"github.com/GriffinCanCode/SketchBox/internal/studio"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrTooManySessions = errors.New("too many sessions")
	ErrManagerClosed   = errors.New("session manager is closed")
)

// Config configures a Manager
type Config struct {
	Pool        *sandbox.Pool
	Flows       *studio.Flows
	Logger      *logging.Logger
	Metrics     *monitoring.Metrics
	FrameRate   int
	MaxSessions int
}

// Manager owns every live session
type Manager struct {
	cfg Config

	mu       sync.RWMutex
	sessions map[id.SessionID]*Session
	closed   bool
}

// NewManager creates an empty manager
func NewManager(cfg Config) *Manager {
	if cfg.Logger == nil {
		cfg.Logger = logging.NewNop()
	}
	if cfg.Pool == nil {
		cfg.Pool = sandbox.NewPool(sandbox.DefaultConfig(), 0)
	}
	if cfg.MaxSessions <= 0 {
		cfg.MaxSessions = 16
	}
	return &Manager{
		cfg:      cfg,
		sessions: make(map[id.SessionID]*Session),
	}
}

// Create starts a session whose container has the given size
func (m *Manager) Create(width, height int) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil, ErrManagerClosed
	}
	if len(m.sessions) >= m.cfg.MaxSessions {
		return nil, fmt.Errorf("%w: limit is %d", ErrTooManySessions, m.cfg.MaxSessions)
	}

	sid := id.NewSessionID()
	s, err := newSession(sid, width, height, m.cfg)
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	m.sessions[sid] = s

	m.cfg.Metrics.IncSessionsTotal()
	m.cfg.Metrics.SetSessionsActive(len(m.sessions))
	m.cfg.Logger.Info("Session created",
		zap.String("session", sid.String()),
		zap.Int("width", width),
		zap.Int("height", height))
	return s, nil
}

// Get looks a session up by id
func (m *Manager) Get(sid id.SessionID) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.sessions[sid]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, sid)
	}
	return s, nil
}

// List returns every session, oldest first
func (m *Manager) List() []Info {
	m.mu.RLock()
	sessions := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		sessions = append(sessions, s)
	}
	m.mu.RUnlock()

	infos := make([]Info, 0, len(sessions))
	for _, s := range sessions {
		infos = append(infos, s.Info())
	}
	sort.Slice(infos, func(i, j int) bool {
		return infos[i].CreatedAt.Before(infos[j].CreatedAt)
	})
	return infos
}

// Count reports the number of live sessions
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Close stops one session
func (m *Manager) Close(sid id.SessionID) error {
	m.mu.Lock()
	s, ok := m.sessions[sid]
	if ok {
		delete(m.sessions, sid)
	}
	count := len(m.sessions)
	m.mu.Unlock()

	if !ok {
		return fmt.Errorf("%w: %s", ErrSessionNotFound, sid)
	}
	s.close()
	m.cfg.Metrics.SetSessionsActive(count)
	return nil
}

// Shutdown closes every session and rejects new ones
func (m *Manager) Shutdown() {
	m.mu.Lock()
	m.closed = true
	sessions := m.sessions
	m.sessions = make(map[id.SessionID]*Session)
	m.mu.Unlock()

	var wg sync.WaitGroup
	for _, s := range sessions {
		wg.Add(1)
		go func(s *Session) {
			defer wg.Done()
			s.close()
		}(s)
	}
	wg.Wait()

	m.cfg.Metrics.SetSessionsActive(0)
	m.cfg.Logger.Info("Session manager shut down", zap.Int("closed", len(sessions)))
}
