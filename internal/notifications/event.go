package notifications

import (
	"time"

	"github.com/google/uuid"

	"hiretrack/internal/pipeline"
)

// Kind classifies what changed on a process.
type Kind string

const (
	KindCreated            Kind = "created"
	KindStateChanged       Kind = "state_changed"
	KindResponsibleChanged Kind = "responsible_changed"
)

// Status tracks an event through the outbox.
type Status string

const (
	StatusPending   Status = "pending"
	StatusDelivered Status = "delivered"
	StatusFailed    Status = "failed"
)

// Event is one notification about a process transition.
type Event struct {
	ID string `json:"id"`
	// Sequence is the outbox position; delivery follows it.
	Sequence   int64                 `json:"sequence"`
	ProcessID  int64                 `json:"process_id"`
	Kind       Kind                  `json:"kind"`
	OldState   pipeline.ProcessState `json:"old_state,omitempty"`
	NewState   pipeline.ProcessState `json:"new_state"`
	Subject    string                `json:"subject,omitempty"`
	Recipients []Recipient           `json:"recipients"`
	CreatedAt  time.Time             `json:"created_at"`

	Status      Status     `json:"-"`
	Attempts    int        `json:"-"`
	LastError   string     `json:"-"`
	DeliveredAt *time.Time `json:"-"`
}

// Snapshot is the part of a process that notifications react to.
type Snapshot struct {
	State       pipeline.ProcessState
	Responsible []int64
}

// Classify compares the process before and after a write. prev is nil for a
// new process. It returns false when nothing notification-worthy changed.
func Classify(prev *Snapshot, next Snapshot) (Kind, bool) {
	if prev == nil {
		return KindCreated, true
	}
	if prev.State != next.State {
		return KindStateChanged, true
	}
	if !pipeline.SameIDs(pipeline.NormalizeIDs(prev.Responsible), pipeline.NormalizeIDs(next.Responsible)) {
		return KindResponsibleChanged, true
	}
	return "", false
}

// NewEvent builds an event, or returns false when there is nobody to notify.
func NewEvent(processID int64, kind Kind, oldState, newState pipeline.ProcessState, subject string, recipients []Recipient, now time.Time) (Event, bool) {
	if len(recipients) == 0 {
		return Event{}, false
	}
	return Event{
		ID:         uuid.NewString(),
		ProcessID:  processID,
		Kind:       kind,
		OldState:   oldState,
		NewState:   newState,
		Subject:    subject,
		Recipients: recipients,
		CreatedAt:  now.UTC(),
		Status:     StatusPending,
	}, true
}
