package session

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/GriffinCanCode/SketchBox/internal/shared/id"
)

// EventType names a stream event
type EventType string

const (
	EventState       EventType = "state"
	EventSketchError EventType = "sketch_error"
	EventConsole     EventType = "console"
	EventFrame       EventType = "frame"
	EventResize      EventType = "resize"
)

// Event is pushed to every subscriber of a session
type Event struct {
	ID   id.EventID `json:"id"`
	Type EventType  `json:"type"`
	Time time.Time  `json:"time"`
	Data any        `json:"data,omitempty"`
}

// FrameData accompanies frame events
type FrameData struct {
	FrameCount int `json:"frame_count"`
	Width      int `json:"width"`
	Height     int `json:"height"`
}

// ResizeData accompanies resize events
type ResizeData struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// hub fans events out to subscribers without ever blocking the publisher.
// A subscriber whose buffer is full misses the event.
type hub struct {
	mu      sync.RWMutex
	subs    map[uint64]chan Event
	next    uint64
	closed  bool
	dropped atomic.Uint64
}

func newHub() *hub {
	return &hub{subs: make(map[uint64]chan Event)}
}

func (h *hub) publish(typ EventType, data any) {
	ev := Event{ID: id.NewEventID(), Type: typ, Time: time.Now(), Data: data}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, ch := range h.subs {
		select {
		case ch <- ev:
		default:
			h.dropped.Add(1)
		}
	}
}

// subscribe returns a channel of events and a function that closes it.
// Subscribing to a closed hub yields an already-closed channel.
func (h *hub) subscribe(buffer int) (<-chan Event, func()) {
	if buffer <= 0 {
		buffer = 1
	}
	ch := make(chan Event, buffer)

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		close(ch)
		return ch, func() {}
	}
	h.next++
	key := h.next
	h.subs[key] = ch
	h.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			if c, ok := h.subs[key]; ok {
				delete(h.subs, key)
				close(c)
			}
		})
	}
}

func (h *hub) count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

func (h *hub) close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for key, ch := range h.subs {
		delete(h.subs, key)
		close(ch)
	}
}
