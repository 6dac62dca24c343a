package publish

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"go.uber.org/multierr"

	"accelwake/internal/accel"
	"accelwake/internal/fix16"
)

type recordSink struct {
	events   []Event
	err      error
	closeErr error
	closed   int
}

func (s *recordSink) Publish(ev Event) error {
	s.events = append(s.events, ev)
	return s.err
}

func (s *recordSink) Close() error {
	s.closed++
	return s.closeErr
}

func TestFromNotification(t *testing.T) {
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.FixedZone("X", 3600))
	n := accel.Notification{
		Type:     accel.NotifyShock,
		Vector:   fix16.Vector{X: fix16.FromInt(2), Y: 0, Z: fix16.FromInt(-1)},
		Severity: 620,
	}
	got := FromNotification(n, at)
	want := Event{
		Time:     at.UTC(),
		Type:     "shock",
		XMilliG:  2000,
		YMilliG:  0,
		ZMilliG:  -1000,
		Severity: 620,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("event mismatch (-want +got):\n%s", diff)
	}
}

func TestEvent_MarshalOmitsZeroSeverity(t *testing.T) {
	ev := Event{Time: time.Unix(0, 0).UTC(), Type: "wake", ZMilliG: 1000}
	b, err := ev.Marshal()
	if err != nil {
		t.Fatalf("Marshal() error: %v", err)
	}
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		t.Fatalf("Unmarshal() error: %v", err)
	}
	if _, ok := m["severity"]; ok {
		t.Fatalf("payload=%s unexpected severity", b)
	}
	if m["type"] != "wake" || m["z_mg"] != float64(1000) {
		t.Fatalf("payload=%s", b)
	}
}

func TestMulti_PublishesToAllAndCombinesErrors(t *testing.T) {
	e1 := errors.New("one")
	e2 := errors.New("two")
	a := &recordSink{err: e1}
	b := &recordSink{}
	c := &recordSink{err: e2}
	m := Multi{a, b, c}

	err := m.Publish(Event{Type: "wake"})
	if got := multierr.Errors(err); len(got) != 2 || got[0] != e1 || got[1] != e2 {
		t.Fatalf("errors=%v want [one two]", got)
	}
	for i, s := range []*recordSink{a, b, c} {
		if len(s.events) != 1 {
			t.Fatalf("sink %d events=%d want 1", i, len(s.events))
		}
	}

	b.closeErr = errors.New("close")
	if err := m.Close(); err == nil {
		t.Fatalf("expected close error")
	}
	if a.closed != 1 || b.closed != 1 || c.closed != 1 {
		t.Fatalf("closed=%d,%d,%d want all 1", a.closed, b.closed, c.closed)
	}
}
