package audit

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
	"time"
)

func TestDispatcherDisabledIsNil(t *testing.T) {
	d := NewDispatcher(Config{Enabled: false}, NoOpSink{})
	if d != nil {
		t.Fatalf("expected nil dispatcher when disabled")
	}
	d.Emit(context.Background(), Event{EventType: "x"})
	d.Close()
	if d.Dropped() != 0 {
		t.Fatalf("nil dispatcher must report zero drops")
	}
}

func TestDispatcherDeliversAndFlushesOnClose(t *testing.T) {
	sink := NewChannelSink(8)
	d := NewDispatcher(Config{Enabled: true, BufferSize: 8}, sink)

	for i := 0; i < 3; i++ {
		d.Emit(context.Background(), NewEvent("otp_verify", time.Now()))
	}
	d.Close()

	got := 0
	for {
		select {
		case ev := <-sink.Events():
			if ev.EventType != "otp_verify" {
				t.Fatalf("unexpected event type %q", ev.EventType)
			}
			got++
			continue
		default:
		}
		break
	}
	if got != 3 {
		t.Fatalf("expected 3 delivered events, got %d", got)
	}

	d.Emit(context.Background(), NewEvent("after_close", time.Now()))
	select {
	case ev := <-sink.Events():
		t.Fatalf("event emitted after close was delivered: %+v", ev)
	default:
	}
}

type blockingSink struct {
	release chan struct{}
}

func (s blockingSink) Emit(context.Context, Event) {
	<-s.release
}

func TestDispatcherDropIfFullCountsDrops(t *testing.T) {
	sink := blockingSink{release: make(chan struct{})}
	d := NewDispatcher(Config{Enabled: true, BufferSize: 1, DropIfFull: true}, sink)

	for i := 0; i < 10; i++ {
		d.Emit(context.Background(), NewEvent("login", time.Now()))
	}
	if d.Dropped() == 0 {
		t.Fatalf("expected drops with a blocked sink and buffer of one")
	}

	close(sink.release)
	d.Close()
}

type panickySink struct {
	next *ChannelSink
}

func (s panickySink) Emit(ctx context.Context, event Event) {
	if event.EventType == "refresh_failure" {
		panic("sink down")
	}
	s.next.Emit(ctx, event)
}

func TestDispatcherSurvivesPanickingSink(t *testing.T) {
	var logs bytes.Buffer
	next := NewChannelSink(4)
	d := NewDispatcher(Config{
		Enabled:    true,
		BufferSize: 4,
		Logger:     slog.New(slog.NewTextHandler(&logs, nil)),
	}, panickySink{next: next})

	d.Emit(context.Background(), NewEvent("refresh_failure", time.Now()))
	d.Emit(context.Background(), NewEvent("logout", time.Now()))
	d.Close()

	if d.Failed() != 1 {
		t.Fatalf("expected one failed delivery, got %d", d.Failed())
	}
	select {
	case ev := <-next.Events():
		if ev.EventType != "logout" {
			t.Fatalf("unexpected event after panic: %q", ev.EventType)
		}
	default:
		t.Fatal("event after the panic was not delivered")
	}
	if !strings.Contains(logs.String(), "event_type=refresh_failure") {
		t.Fatalf("expected failure log, got %q", logs.String())
	}
}

func TestNewEventAssignsUniqueIDs(t *testing.T) {
	at := time.Date(2025, 2, 2, 12, 0, 0, 0, time.FixedZone("GST", 4*3600))
	a := NewEvent("logout", at)
	b := NewEvent("logout", at)
	if a.ID == "" || a.ID == b.ID {
		t.Fatalf("expected distinct non-empty IDs, got %q and %q", a.ID, b.ID)
	}
	if a.Timestamp.Location() != time.UTC {
		t.Fatalf("expected UTC timestamp, got %v", a.Timestamp.Location())
	}
}

func TestJSONWriterSinkWritesLines(t *testing.T) {
	var buf bytes.Buffer
	sink := NewJSONWriterSink(&buf)
	sink.Emit(context.Background(), Event{ID: "1", EventType: "refresh", Success: true})
	sink.Emit(context.Background(), Event{ID: "2", EventType: "refresh", Code: "EXPIRED_TOKEN"})

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(lines))
	}
	var ev Event
	if err := json.Unmarshal(lines[1], &ev); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if ev.Code != "EXPIRED_TOKEN" || ev.Success {
		t.Fatalf("unexpected decoded event %+v", ev)
	}
}
