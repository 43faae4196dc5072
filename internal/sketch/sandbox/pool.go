package sandbox

import (
	"context"
	"errors"
	"sync"
	"time"
)

var (
	ErrPoolClosed     = errors.New("sandbox pool is closed")
	ErrAcquireTimeout = errors.New("sandbox acquisition timeout")
)

// Pool hands out a bounded number of runtimes, creating them on first demand
type Pool struct {
	config  Config
	size    int
	idle    chan *Runtime
	slots   chan struct{}
	mu      sync.RWMutex
	closed  bool
	created int
}

// PoolStats is a point-in-time view of pool usage
type PoolStats struct {
	Size    int  `json:"size"`
	Created int  `json:"created"`
	Idle    int  `json:"idle"`
	InUse   int  `json:"in_use"`
	Closed  bool `json:"closed"`
}

// NewPool creates a sandbox pool. No runtime is built until Acquire needs one.
func NewPool(config Config, size int) *Pool {
	if size <= 0 {
		size = 4
	}

	return &Pool{
		config: config,
		size:   size,
		idle:   make(chan *Runtime, size),
		slots:  make(chan struct{}, size),
	}
}

// Acquire gets a runtime, waiting for a free slot until ctx is done or the
// acquisition timeout elapses
func (p *Pool) Acquire(ctx context.Context) (*Runtime, error) {
	if p.isClosed() {
		return nil, ErrPoolClosed
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var timeout <-chan time.Time
	if p.config.AcquireTimeout > 0 {
		timer := time.NewTimer(p.config.AcquireTimeout)
		defer timer.Stop()
		timeout = timer.C
	}

	select {
	case p.slots <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-timeout:
		return nil, ErrAcquireTimeout
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		<-p.slots
		return nil, ErrPoolClosed
	}

	select {
	case rt := <-p.idle:
		return rt, nil
	default:
	}

	rt, err := New(p.config)
	if err != nil {
		<-p.slots
		return nil, err
	}
	p.created++
	return rt, nil
}

// Release resets the runtime and returns it to the pool
func (p *Pool) Release(rt *Runtime) error {
	if rt == nil {
		return nil
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	defer func() { <-p.slots }()

	if p.closed {
		return rt.Close()
	}

	if err := rt.Reset(); err != nil {
		rt.Close()
		return err
	}

	select {
	case p.idle <- rt:
		return nil
	default:
		return rt.Close()
	}
}

// Close closes pool and all idle runtimes. Runtimes still in use are closed
// when they are released.
func (p *Pool) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil
	}
	p.closed = true

	for {
		select {
		case rt := <-p.idle:
			rt.Close()
		default:
			return nil
		}
	}
}

// Stats returns pool statistics
func (p *Pool) Stats() PoolStats {
	p.mu.RLock()
	defer p.mu.RUnlock()

	return PoolStats{
		Size:    p.size,
		Created: p.created,
		Idle:    len(p.idle),
		InUse:   len(p.slots),
		Closed:  p.closed,
	}
}

func (p *Pool) isClosed() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.closed
}
