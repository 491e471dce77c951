package audit

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"sync"
	"testing"
	"time"
)

type collectSink struct {
	mu     sync.Mutex
	events []Event
	block  chan struct{}
}

func (s *collectSink) Emit(_ context.Context, event Event) {
	if s.block != nil {
		<-s.block
	}
	s.mu.Lock()
	s.events = append(s.events, event)
	s.mu.Unlock()
}

func (s *collectSink) len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.events)
}

func TestDispatcher_DeliversInOrder(t *testing.T) {
	sink := &collectSink{}
	d := NewDispatcher(Config{Enabled: true, BufferSize: 8}, sink)

	ctx := context.Background()
	for i := 0; i < 5; i++ {
		d.Emit(ctx, Event{EventType: "login", SubjectID: string(rune('a' + i))})
	}
	d.Close()

	if sink.len() != 5 {
		t.Fatalf("delivered %d events, want 5", sink.len())
	}
	for i, event := range sink.events {
		if event.SubjectID != string(rune('a'+i)) {
			t.Fatalf("event %d out of order: %+v", i, event)
		}
	}
}

func TestDispatcher_CloseDrainsBuffer(t *testing.T) {
	sink := &collectSink{}
	d := NewDispatcher(Config{Enabled: true, BufferSize: 64}, sink)

	ctx := context.Background()
	for i := 0; i < 50; i++ {
		d.Emit(ctx, Event{EventType: "login"})
	}
	d.Close()

	if sink.len() != 50 {
		t.Fatalf("delivered %d events after Close, want 50", sink.len())
	}
}

func TestDispatcher_DropsWhenFull(t *testing.T) {
	sink := &collectSink{block: make(chan struct{})}
	d := NewDispatcher(Config{Enabled: true, BufferSize: 1, DropIfFull: true}, sink)

	ctx := context.Background()
	// One event can be in flight, one fits the buffer; the rest must drop
	// without blocking the caller.
	done := make(chan struct{})
	go func() {
		for i := 0; i < 10; i++ {
			d.Emit(ctx, Event{EventType: "login"})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Emit blocked with DropIfFull set")
	}

	close(sink.block)
	d.Close()

	if d.Dropped() == 0 {
		t.Fatal("expected some events to be dropped")
	}
	if got := uint64(sink.len()) + d.Dropped(); got != 10 {
		t.Fatalf("delivered+dropped = %d, want 10", got)
	}
}

func TestDispatcher_DisabledIsNil(t *testing.T) {
	d := NewDispatcher(Config{Enabled: false}, &collectSink{})
	if d != nil {
		t.Fatal("disabled config should yield a nil dispatcher")
	}
	// Nil dispatchers are safe to use.
	d.Emit(context.Background(), Event{})
	d.Close()
	if d.Dropped() != 0 {
		t.Fatal("nil dispatcher reports drops")
	}
}

func TestJSONWriterSink(t *testing.T) {
	var buf bytes.Buffer
	sink := NewJSONWriterSink(&buf)

	sink.Emit(context.Background(), Event{EventType: "login", SubjectID: "subj-1", Success: true})

	line := strings.TrimSpace(buf.String())
	var decoded map[string]any
	if err := json.Unmarshal([]byte(line), &decoded); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	if decoded["event_type"] != "login" || decoded["subject_id"] != "subj-1" {
		t.Fatalf("decoded = %v", decoded)
	}
}
