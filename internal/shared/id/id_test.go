package id

import (
	"strings"
	"sync"
	"testing"
	"time"
)

func TestGenerateUnique(t *testing.T) {
	gen := NewGenerator()

	if gen.GenerateString() == gen.GenerateString() {
		t.Error("generated IDs should be unique")
	}
}

func TestGenerateWithPrefix(t *testing.T) {
	gen := NewGenerator()

	for _, prefix := range []string{RequestPrefix, EventPrefix} {
		s := gen.GenerateWithPrefix(prefix)

		parts := strings.Split(s, "_")
		if len(parts) != 2 || parts[0] != prefix {
			t.Errorf("expected format '%s_ulid', got: %s", prefix, s)
			continue
		}
		if len(parts[1]) != 26 {
			t.Errorf("ULID should be 26 characters, got %d", len(parts[1]))
		}
		if !IsValid(s) {
			t.Errorf("prefixed ID should be valid: %s", s)
		}
	}
}

func TestTypedIDs(t *testing.T) {
	if req := NewRequestID(); !strings.HasPrefix(req.String(), "req_") {
		t.Errorf("RequestID should start with 'req_', got: %s", req)
	}
	if evt := NewEventID(); !strings.HasPrefix(evt.String(), "evt_") {
		t.Errorf("EventID should start with 'evt_', got: %s", evt)
	}
}

func TestSessionIDs(t *testing.T) {
	sid := NewSessionID()

	parsed, err := ParseSessionID(sid.String())
	if err != nil {
		t.Fatalf("generated session id should parse: %v", err)
	}
	if parsed != sid {
		t.Errorf("expected %s, got %s", sid, parsed)
	}

	if _, err := ParseSessionID("not-a-uuid"); err == nil {
		t.Error("expected error for malformed session id")
	}
}

func TestIsValid(t *testing.T) {
	invalid := []string{
		"",
		"invalid",
		"1234567890",
		"zzzzzzzzzzzzzzzzzzzzzzzzzz",
	}
	for _, s := range invalid {
		if IsValid(s) {
			t.Errorf("ID should be invalid: %s", s)
		}
	}
}

func TestTimestamp(t *testing.T) {
	before := time.Now()
	s := NewGenerator().GenerateString()
	after := time.Now()

	ts, err := Timestamp(s)
	if err != nil {
		t.Fatalf("failed to extract timestamp: %v", err)
	}

	if ts.UnixMilli() < before.UnixMilli() || ts.UnixMilli() > after.UnixMilli() {
		t.Errorf("timestamp %v outside [%v, %v]", ts, before, after)
	}
}

func TestMonotonicWithinMillisecond(t *testing.T) {
	gen := NewGenerator()
	fixed := time.UnixMilli(1_700_000_000_000)
	gen.now = func() time.Time { return fixed }

	prev := gen.GenerateString()
	for i := 0; i < 50; i++ {
		next := gen.GenerateString()
		if next <= prev {
			t.Fatalf("IDs should sort in generation order: %s <= %s", next, prev)
		}
		prev = next
	}
}

func TestConcurrentGeneration(t *testing.T) {
	gen := NewGenerator()

	const goroutines = 50
	const perGoroutine = 100

	var wg sync.WaitGroup
	ids := make(chan string, goroutines*perGoroutine)

	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perGoroutine; j++ {
				ids <- gen.GenerateString()
			}
		}()
	}
	wg.Wait()
	close(ids)

	seen := make(map[string]bool)
	for s := range ids {
		if seen[s] {
			t.Errorf("duplicate ID: %s", s)
		}
		seen[s] = true
	}
	if len(seen) != goroutines*perGoroutine {
		t.Errorf("expected %d unique IDs, got %d", goroutines*perGoroutine, len(seen))
	}
}

func BenchmarkGenerateWithPrefix(b *testing.B) {
	gen := NewGenerator()
	for i := 0; i < b.N; i++ {
		_ = gen.GenerateWithPrefix(RequestPrefix)
	}
}
