package pipeline

import (
	"errors"
	"sort"
	"strings"
	"time"
)

// InterviewState is the derived status of a single interview.
type InterviewState string

const (
	InterviewWaitingPlanification InterviewState = "WAITING_PLANIFICATION"
	InterviewPlanned              InterviewState = "PLANNED"
	InterviewWaitInformation      InterviewState = "WAIT_INFORMATION"
	InterviewGo                   InterviewState = "GO"
	InterviewNoGo                 InterviewState = "NO_GO"
)

var interviewStates = map[InterviewState]struct{}{
	InterviewWaitingPlanification: {},
	InterviewPlanned:              {},
	InterviewWaitInformation:      {},
	InterviewGo:                   {},
	InterviewNoGo:                 {},
}

var (
	// ErrInvalidOutcome is returned when an outcome other than GO or NO_GO is recorded.
	ErrInvalidOutcome = errors.New("outcome must be GO or NO_GO")
	// ErrInterviewDecided is returned when a decided interview is given a different outcome.
	ErrInterviewDecided = errors.New("interview outcome already recorded")
)

// ParseInterviewState converts a persisted or user-supplied value.
func ParseInterviewState(value string) (InterviewState, bool) {
	state := InterviewState(strings.ToUpper(strings.TrimSpace(value)))
	_, ok := interviewStates[state]
	return state, ok
}

// ParseOutcome accepts GO and NO_GO (case-insensitive, "no-go" tolerated).
func ParseOutcome(value string) (InterviewState, error) {
	normalized := strings.ReplaceAll(strings.ToUpper(strings.TrimSpace(value)), "-", "_")
	switch InterviewState(normalized) {
	case InterviewGo:
		return InterviewGo, nil
	case InterviewNoGo, "NOGO":
		return InterviewNoGo, nil
	}
	return "", ErrInvalidOutcome
}

// Decided reports whether an outcome has been recorded.
func (s InterviewState) Decided() bool {
	return s == InterviewGo || s == InterviewNoGo
}

// Interview is one ranked meeting within a process.
type Interview struct {
	ID                   int64
	ProcessID            int64
	Rank                 int
	PlannedDate          *time.Time
	Interviewers         []int64
	State                InterviewState
	Minute               string
	NextInterviewGoal    string
	SuggestedInterviewer *int64
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

// NewInterview returns an interview in its initial state. Rank is assigned by
// the store at insert time.
func NewInterview(processID int64, interviewers []int64) Interview {
	return Interview{
		ProcessID:    processID,
		Interviewers: NormalizeIDs(interviewers),
		State:        InterviewWaitingPlanification,
	}
}

// Plan sets or clears the planned date. A recorded outcome is kept.
func (i *Interview) Plan(date *time.Time) {
	if date != nil {
		d := *date
		i.PlannedDate = &d
	} else {
		i.PlannedDate = nil
	}
	if i.State.Decided() {
		return
	}
	if i.PlannedDate == nil {
		i.State = InterviewWaitingPlanification
		return
	}
	i.State = InterviewPlanned
}

// RecordOutcome moves the interview to GO or NO_GO from any undecided state.
// Repeating the same outcome is a no-op; changing a recorded one is refused.
func (i *Interview) RecordOutcome(outcome InterviewState) error {
	if !outcome.Decided() {
		return ErrInvalidOutcome
	}
	if i.State.Decided() {
		if i.State == outcome {
			return nil
		}
		return ErrInterviewDecided
	}
	i.State = outcome
	return nil
}

// Sweep moves a PLANNED interview whose date has passed to WAIT_INFORMATION.
// It reports whether the state changed.
func (i *Interview) Sweep(now time.Time) bool {
	if i.State != InterviewPlanned || i.PlannedDate == nil {
		return false
	}
	if !i.PlannedDate.Before(now) {
		return false
	}
	i.State = InterviewWaitInformation
	return true
}

// HasMinute reports whether a non-blank minute was written.
func (i Interview) HasMinute() bool {
	return strings.TrimSpace(i.Minute) != ""
}

// NeedsAttention flags interviews with no date, or past interviews still
// undecided or missing their minute.
func (i Interview) NeedsAttention(now time.Time) bool {
	if i.PlannedDate == nil {
		return true
	}
	if StartOfDay(*i.PlannedDate).Before(StartOfDay(now)) {
		if i.State == InterviewPlanned || i.State == InterviewWaitingPlanification || !i.HasMinute() {
			return true
		}
	}
	return false
}

// NextRank returns the rank for a new interview: one past the current maximum.
func NextRank(existing []Interview) int {
	highest := 0
	for _, itw := range existing {
		if itw.Rank > highest {
			highest = itw.Rank
		}
	}
	return highest + 1
}

// SortByRank orders interviews by rank in place.
func SortByRank(interviews []Interview) {
	sort.SliceStable(interviews, func(a, b int) bool { return interviews[a].Rank < interviews[b].Rank })
}

// LastByRank returns the interview with the highest rank, or nil.
func LastByRank(interviews []Interview) *Interview {
	var last *Interview
	for idx := range interviews {
		if last == nil || interviews[idx].Rank > last.Rank {
			last = &interviews[idx]
		}
	}
	return last
}

// NormalizeIDs returns a sorted copy without duplicates or non-positive ids.
func NormalizeIDs(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if id <= 0 {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	sort.Slice(out, func(a, b int) bool { return out[a] < out[b] })
	return out
}

// SameIDs reports whether two normalized id sets are equal.
func SameIDs(a, b []int64) bool {
	if len(a) != len(b) {
		return false
	}
	for idx := range a {
		if a[idx] != b[idx] {
			return false
		}
	}
	return true
}

// StartOfDay truncates t to midnight in its own location.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
