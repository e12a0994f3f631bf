package notifications_test

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"hiretrack/internal/logging"
	"hiretrack/internal/notifications"
)

type memoryOutbox struct {
	mu     sync.Mutex
	events []notifications.Event
}

func (m *memoryOutbox) PendingEvents(_ context.Context, limit int) ([]notifications.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []notifications.Event
	for _, e := range m.events {
		if e.Status == notifications.StatusPending {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(a, b int) bool { return out[a].Sequence < out[b].Sequence })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memoryOutbox) ParkedProcesses(context.Context) ([]int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	seen := make(map[int64]bool)
	var ids []int64
	for _, e := range m.events {
		if e.Status == notifications.StatusFailed && !seen[e.ProcessID] {
			seen[e.ProcessID] = true
			ids = append(ids, e.ProcessID)
		}
	}
	return ids, nil
}

func (m *memoryOutbox) retryParked() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.events {
		if m.events[i].Status == notifications.StatusFailed {
			m.events[i].Status = notifications.StatusPending
			m.events[i].Attempts = 0
			m.events[i].LastError = ""
		}
	}
}

func (m *memoryOutbox) MarkDelivered(_ context.Context, seq int64, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.events {
		if m.events[i].Sequence == seq {
			m.events[i].Status = notifications.StatusDelivered
			m.events[i].DeliveredAt = &at
		}
	}
	return nil
}

func (m *memoryOutbox) MarkAttemptFailed(_ context.Context, seq int64, msg string, park bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.events {
		if m.events[i].Sequence == seq {
			m.events[i].Attempts++
			m.events[i].LastError = msg
			if park {
				m.events[i].Status = notifications.StatusFailed
			}
		}
	}
	return nil
}

type recordingService struct {
	failFor map[int64]int
	sent    []int64
}

func (r *recordingService) Name() string { return "recording" }

func (r *recordingService) Deliver(_ context.Context, e notifications.Event) error {
	if r.failFor[e.Sequence] > 0 {
		r.failFor[e.Sequence]--
		return errors.New("sink unavailable")
	}
	r.sent = append(r.sent, e.Sequence)
	return nil
}

func pending(seq, process int64) notifications.Event {
	return notifications.Event{
		Sequence:   seq,
		ProcessID:  process,
		Status:     notifications.StatusPending,
		Recipients: []notifications.Recipient{{Email: "a@example.com"}},
	}
}

func TestDrainDeliversInSequenceOrder(t *testing.T) {
	outbox := &memoryOutbox{events: []notifications.Event{pending(3, 1), pending(1, 1), pending(2, 2)}}
	svc := &recordingService{}
	d := notifications.NewDispatcher(outbox, svc, notifications.DispatcherOptions{MaxAttempts: 3}, logging.NewNop())

	result, err := d.Drain(context.Background())
	if err != nil {
		t.Fatalf("Drain: %v", err)
	}
	if result.Delivered != 3 {
		t.Fatalf("expected 3 delivered, got %+v", result)
	}
	want := []int64{1, 2, 3}
	for i := range want {
		if svc.sent[i] != want[i] {
			t.Fatalf("delivery order %v, want %v", svc.sent, want)
		}
	}
}

func TestDrainHoldsLaterEventsOfFailingProcess(t *testing.T) {
	outbox := &memoryOutbox{events: []notifications.Event{pending(1, 1), pending(2, 2), pending(3, 1)}}
	svc := &recordingService{failFor: map[int64]int{1: 1}}
	d := notifications.NewDispatcher(outbox, svc, notifications.DispatcherOptions{MaxAttempts: 3}, logging.NewNop())

	result, err := d.Drain(context.Background())
	if err != nil {
		t.Fatalf("Drain: %v", err)
	}
	if result.Delivered != 1 || result.Retrying != 1 || result.Held != 1 {
		t.Fatalf("unexpected first drain result %+v", result)
	}
	if len(svc.sent) != 1 || svc.sent[0] != 2 {
		t.Fatalf("only the other process should be delivered, got %v", svc.sent)
	}

	result, err = d.Drain(context.Background())
	if err != nil {
		t.Fatalf("Drain: %v", err)
	}
	if result.Delivered != 2 {
		t.Fatalf("expected retry to deliver both events, got %+v", result)
	}
	if svc.sent[1] != 1 || svc.sent[2] != 3 {
		t.Fatalf("process events must keep their order, got %v", svc.sent)
	}
}

func TestDrainParksAfterMaxAttempts(t *testing.T) {
	outbox := &memoryOutbox{events: []notifications.Event{pending(1, 1), pending(2, 1)}}
	svc := &recordingService{failFor: map[int64]int{1: 10}}
	d := notifications.NewDispatcher(outbox, svc, notifications.DispatcherOptions{MaxAttempts: 2}, logging.NewNop())

	if _, err := d.Drain(context.Background()); err != nil {
		t.Fatalf("Drain: %v", err)
	}
	result, err := d.Drain(context.Background())
	if err != nil {
		t.Fatalf("Drain: %v", err)
	}
	if result.Parked != 1 || result.Delivered != 0 || result.Held != 1 {
		t.Fatalf("expected parked event to hold the next one, got %+v", result)
	}
	if outbox.events[0].Status != notifications.StatusFailed || outbox.events[0].Attempts != 2 {
		t.Fatalf("unexpected parked event state %+v", outbox.events[0])
	}
	if outbox.events[0].LastError != "sink unavailable" {
		t.Fatalf("expected last error recorded, got %q", outbox.events[0].LastError)
	}
}

func TestParkedEventHoldsProcessUntilRetried(t *testing.T) {
	outbox := &memoryOutbox{events: []notifications.Event{pending(1, 1)}}
	svc := &recordingService{failFor: map[int64]int{1: 1}}
	d := notifications.NewDispatcher(outbox, svc, notifications.DispatcherOptions{MaxAttempts: 1}, logging.NewNop())

	result, err := d.Drain(context.Background())
	if err != nil {
		t.Fatalf("Drain: %v", err)
	}
	if result.Parked != 1 {
		t.Fatalf("expected the first event parked, got %+v", result)
	}

	outbox.mu.Lock()
	outbox.events = append(outbox.events, pending(2, 1), pending(3, 2))
	outbox.mu.Unlock()

	result, err = d.Drain(context.Background())
	if err != nil {
		t.Fatalf("Drain: %v", err)
	}
	if result.Delivered != 1 || result.Held != 1 {
		t.Fatalf("newer event of the parked process must wait, got %+v", result)
	}
	if len(svc.sent) != 1 || svc.sent[0] != 3 {
		t.Fatalf("only the other process should be delivered, got %v", svc.sent)
	}

	outbox.retryParked()
	result, err = d.Drain(context.Background())
	if err != nil {
		t.Fatalf("Drain: %v", err)
	}
	if result.Delivered != 2 {
		t.Fatalf("expected retried and held events delivered, got %+v", result)
	}
	want := []int64{3, 1, 2}
	for i := range want {
		if svc.sent[i] != want[i] {
			t.Fatalf("delivery order %v, want %v", svc.sent, want)
		}
	}
}
