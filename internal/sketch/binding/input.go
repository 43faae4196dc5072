package binding

import "unicode/utf8"

// EventType identifies a host input event
type EventType string

const (
	EventMouseDown  EventType = "mousedown"
	EventMouseUp    EventType = "mouseup"
	EventMouseMove  EventType = "mousemove"
	EventClick      EventType = "click"
	EventWheel      EventType = "wheel"
	EventKeyDown    EventType = "keydown"
	EventKeyUp      EventType = "keyup"
	EventTouchStart EventType = "touchstart"
	EventTouchMove  EventType = "touchmove"
	EventTouchEnd   EventType = "touchend"
)

// Mouse buttons as reported by mouseButton
const (
	ButtonLeft   = "left"
	ButtonRight  = "right"
	ButtonCenter = "center"
)

// Touch is one active touch point
type Touch struct {
	ID int     `json:"id"`
	X  float64 `json:"x"`
	Y  float64 `json:"y"`
}

// Event is an input event forwarded by the host
type Event struct {
	Type    EventType `json:"type"`
	X       float64   `json:"x,omitempty"`
	Y       float64   `json:"y,omitempty"`
	Button  string    `json:"button,omitempty"`
	Key     string    `json:"key,omitempty"`
	KeyCode int       `json:"keyCode,omitempty"`
	Delta   float64   `json:"delta,omitempty"`
	Touches []Touch   `json:"touches,omitempty"`
}

// Valid reports whether the event type is known
func (e Event) Valid() bool {
	switch e.Type {
	case EventMouseDown, EventMouseUp, EventMouseMove, EventClick, EventWheel,
		EventKeyDown, EventKeyUp, EventTouchStart, EventTouchMove, EventTouchEnd:
		return true
	}
	return false
}

// InputState mirrors the pointer and keyboard state exposed to sketches
type InputState struct {
	MouseX, MouseY   float64
	PMouseX, PMouseY float64
	MouseIsPressed   bool
	MouseButton      string
	Key              string
	KeyCode          int
	KeyIsPressed     bool
	Touches          []Touch

	held map[int]bool
}

// NewInputState returns an idle input state
func NewInputState() *InputState {
	return &InputState{
		MouseButton: ButtonLeft,
		held:        make(map[int]bool),
	}
}

// KeyIsDown reports whether code is currently held
func (s *InputState) KeyIsDown(code int) bool {
	return s.held[code]
}

// Apply folds ev into the state and returns the hooks it triggers, in order
func (s *InputState) Apply(ev Event) []Hook {
	switch ev.Type {
	case EventMouseDown:
		s.moveTo(ev.X, ev.Y)
		s.MouseIsPressed = true
		if ev.Button != "" {
			s.MouseButton = ev.Button
		}
		return []Hook{HookMousePressed}

	case EventMouseUp:
		s.moveTo(ev.X, ev.Y)
		s.MouseIsPressed = false
		return []Hook{HookMouseReleased}

	case EventClick:
		s.moveTo(ev.X, ev.Y)
		return []Hook{HookMouseClicked}

	case EventMouseMove:
		s.moveTo(ev.X, ev.Y)
		if s.MouseIsPressed {
			return []Hook{HookMouseDragged}
		}
		return []Hook{HookMouseMoved}

	case EventWheel:
		return []Hook{HookMouseWheel}

	case EventKeyDown:
		s.Key = ev.Key
		s.KeyCode = ev.KeyCode
		s.KeyIsPressed = true
		s.held[ev.KeyCode] = true
		if utf8.RuneCountInString(ev.Key) == 1 {
			return []Hook{HookKeyPressed, HookKeyTyped}
		}
		return []Hook{HookKeyPressed}

	case EventKeyUp:
		s.Key = ev.Key
		s.KeyCode = ev.KeyCode
		delete(s.held, ev.KeyCode)
		s.KeyIsPressed = len(s.held) > 0
		return []Hook{HookKeyReleased}

	case EventTouchStart:
		s.setTouches(ev.Touches)
		s.MouseIsPressed = true
		return []Hook{HookTouchStarted}

	case EventTouchMove:
		s.setTouches(ev.Touches)
		return []Hook{HookTouchMoved}

	case EventTouchEnd:
		s.setTouches(ev.Touches)
		s.MouseIsPressed = len(s.Touches) > 0
		return []Hook{HookTouchEnded}
	}
	return nil
}

// EndFrame carries the pointer position into the previous-frame fields
func (s *InputState) EndFrame() {
	s.PMouseX, s.PMouseY = s.MouseX, s.MouseY
}

func (s *InputState) moveTo(x, y float64) {
	s.PMouseX, s.PMouseY = s.MouseX, s.MouseY
	s.MouseX, s.MouseY = x, y
}

// touches also drive the mouse position from the first point
func (s *InputState) setTouches(touches []Touch) {
	s.Touches = append(s.Touches[:0], touches...)
	if len(touches) > 0 {
		s.moveTo(touches[0].X, touches[0].Y)
	}
}
