package notifications_test

import (
	"testing"
	"time"

	"hiretrack/internal/notifications"
	"hiretrack/internal/pipeline"
)

func consultantMap(cs ...pipeline.Consultant) map[int64]pipeline.Consultant {
	out := make(map[int64]pipeline.Consultant, len(cs))
	for _, c := range cs {
		out[c.ID] = c
	}
	return out
}

func TestResolveRecipientsMergesSources(t *testing.T) {
	owner := int64(1)
	sub := pipeline.Subsidiary{ID: 1, ResponsibleID: &owner, Informed: []int64{3}}
	p := pipeline.Process{Responsible: []int64{2, 1}, Subscribers: []int64{3, 4}}
	consultants := consultantMap(
		pipeline.Consultant{ID: 1, Email: "Owner@Example.com", Active: true},
		pipeline.Consultant{ID: 2, Email: "itw@example.com", Active: true},
		pipeline.Consultant{ID: 3, Email: "watcher@example.com", Active: true},
		pipeline.Consultant{ID: 4, Email: "", Active: true},
	)

	got := notifications.ResolveRecipients(notifications.SourcesFor(p, sub, "HR@example.com"), consultants)
	emails := notifications.Emails(got)
	want := []string{"hr@example.com", "itw@example.com", "owner@example.com", "watcher@example.com"}
	if len(emails) != len(want) {
		t.Fatalf("got %v want %v", emails, want)
	}
	for i := range want {
		if emails[i] != want[i] {
			t.Fatalf("got %v want %v", emails, want)
		}
	}

	for _, r := range got {
		switch r.Email {
		case "owner@example.com":
			if len(r.Sources) != 2 || r.Sources[0] != notifications.SourceOwner || r.Sources[1] != notifications.SourceResponsible {
				t.Fatalf("owner sources: %v", r.Sources)
			}
		case "watcher@example.com":
			if len(r.Sources) != 2 || r.Sources[0] != notifications.SourceInformed || r.Sources[1] != notifications.SourceSubscriber {
				t.Fatalf("watcher sources: %v", r.Sources)
			}
		case "hr@example.com":
			if r.ConsultantID != 0 || r.Sources[0] != notifications.SourceHR {
				t.Fatalf("hr recipient: %+v", r)
			}
		}
	}
}

func TestResolveRecipientsSkipsUnknownAndInactive(t *testing.T) {
	p := pipeline.Process{Responsible: []int64{7, 8}}
	consultants := consultantMap(pipeline.Consultant{ID: 8, Email: "gone@example.com"})
	got := notifications.ResolveRecipients(notifications.SourcesFor(p, pipeline.Subsidiary{}, ""), consultants)
	if len(got) != 0 {
		t.Fatalf("expected no recipients, got %+v", got)
	}
}

func TestClassify(t *testing.T) {
	if kind, ok := notifications.Classify(nil, notifications.Snapshot{State: pipeline.StateWaitingInterviewer}); !ok || kind != notifications.KindCreated {
		t.Fatalf("new process: %v %v", kind, ok)
	}
	prev := notifications.Snapshot{State: pipeline.StateInterviewIsPlanned, Responsible: []int64{2, 1}}
	if _, ok := notifications.Classify(&prev, notifications.Snapshot{State: pipeline.StateInterviewIsPlanned, Responsible: []int64{1, 2}}); ok {
		t.Fatal("unchanged snapshot must not trigger")
	}
	if kind, _ := notifications.Classify(&prev, notifications.Snapshot{State: pipeline.StateWaitingITWMinute, Responsible: []int64{1, 2}}); kind != notifications.KindStateChanged {
		t.Fatalf("expected state change, got %s", kind)
	}
	if kind, _ := notifications.Classify(&prev, notifications.Snapshot{State: pipeline.StateInterviewIsPlanned, Responsible: []int64{3}}); kind != notifications.KindResponsibleChanged {
		t.Fatalf("expected responsible change, got %s", kind)
	}
}

func TestNewEventRequiresRecipients(t *testing.T) {
	now := time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC)
	if _, ok := notifications.NewEvent(1, notifications.KindCreated, "", pipeline.StateWaitingInterviewer, "", nil, now); ok {
		t.Fatal("empty recipient set must not produce an event")
	}
	event, ok := notifications.NewEvent(1, notifications.KindStateChanged, pipeline.StateInterviewIsPlanned, pipeline.StateWaitingITWMinute, "Jane Doe", []notifications.Recipient{{Email: "a@example.com"}}, now)
	if !ok {
		t.Fatal("expected event")
	}
	if event.ID == "" || event.Status != notifications.StatusPending || !event.CreatedAt.Equal(now) {
		t.Fatalf("unexpected event: %+v", event)
	}
}

func TestTerminalTransitionRecipients(t *testing.T) {
	owner := int64(1)
	sub := pipeline.Subsidiary{ID: 1, ResponsibleID: &owner, Informed: []int64{3}}
	hired := pipeline.Process{ID: 7, State: pipeline.StateHired, Responsible: []int64{}}
	consultants := consultantMap(
		pipeline.Consultant{ID: 1, Email: "owner@example.com", Active: true},
		pipeline.Consultant{ID: 3, Email: "watcher@example.com", Active: true},
	)

	got := notifications.ResolveRecipients(notifications.SourcesFor(hired, sub, "hr@example.com"), consultants)
	emails := notifications.Emails(got)
	want := []string{"hr@example.com", "owner@example.com", "watcher@example.com"}
	if len(emails) != len(want) {
		t.Fatalf("got %v want %v", emails, want)
	}
	for i := range want {
		if emails[i] != want[i] {
			t.Fatalf("got %v want %v", emails, want)
		}
	}
	for _, r := range got {
		for _, kind := range r.Sources {
			if kind == notifications.SourceResponsible || kind == notifications.SourceSubscriber {
				t.Fatalf("closed process has no responsible or subscriber recipients: %+v", r)
			}
		}
	}

	bare := notifications.ResolveRecipients(notifications.SourcesFor(hired, pipeline.Subsidiary{ID: 2}, ""), consultants)
	if len(bare) != 0 {
		t.Fatalf("expected no recipients without owner, informed or hr, got %+v", bare)
	}
	now := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	if _, ok := notifications.NewEvent(hired.ID, notifications.KindStateChanged, pipeline.StateJobOffer, pipeline.StateHired, "", bare, now); ok {
		t.Fatal("an empty recipient set must not produce an event")
	}
}
