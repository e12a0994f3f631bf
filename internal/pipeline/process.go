package pipeline

import (
	"strings"
	"time"
)

// ProcessState is the aggregated status of a recruitment process.
type ProcessState string

const (
	StateWaitingInterviewer            ProcessState = "WAITING_INTERVIEWER_TO_BE_DESIGNED"
	StateWaitingInterviewPlanification ProcessState = "WAITING_INTERVIEW_PLANIFICATION"
	StateInterviewIsPlanned            ProcessState = "INTERVIEW_IS_PLANNED"
	StateWaitingITWMinute              ProcessState = "WAITING_ITW_MINUTE"
	StateWaitingNextInterviewer        ProcessState = "WAITING_NEXT_INTERVIEWER_TO_BE_DESIGNED_OR_END_OF_PROCESS"
	StateJobOffer                      ProcessState = "JOB_OFFER"
	StateHired                         ProcessState = "HIRED"
	StateNoGo                          ProcessState = "NO_GO"
	StateCandidateDeclined             ProcessState = "CANDIDATE_DECLINED"
	StateJobOfferDeclined              ProcessState = "JOB_OFFER_DECLINED"
	StateOther                         ProcessState = "OTHER"
)

var allProcessStates = []ProcessState{
	StateWaitingInterviewer,
	StateWaitingInterviewPlanification,
	StateInterviewIsPlanned,
	StateWaitingITWMinute,
	StateWaitingNextInterviewer,
	StateJobOffer,
	StateHired,
	StateNoGo,
	StateCandidateDeclined,
	StateJobOfferDeclined,
	StateOther,
}

var processStateSet = func() map[ProcessState]struct{} {
	set := make(map[ProcessState]struct{}, len(allProcessStates))
	for _, state := range allProcessStates {
		set[state] = struct{}{}
	}
	return set
}()

var closedStates = map[ProcessState]struct{}{
	StateHired:             {},
	StateNoGo:              {},
	StateCandidateDeclined: {},
	StateJobOfferDeclined:  {},
	StateOther:             {},
}

var overrideStates = map[ProcessState]struct{}{
	StateHired:             {},
	StateNoGo:              {},
	StateCandidateDeclined: {},
	StateJobOffer:          {},
	StateJobOfferDeclined:  {},
	StateOther:             {},
}

var attentionStates = map[ProcessState]struct{}{
	StateWaitingITWMinute:              {},
	StateWaitingInterviewPlanification: {},
	StateWaitingInterviewer:            {},
	StateWaitingNextInterviewer:        {},
}

// ProcessStates lists every process state in lifecycle order.
func ProcessStates() []ProcessState {
	return append([]ProcessState(nil), allProcessStates...)
}

// ParseProcessState converts a persisted or user-supplied value.
func ParseProcessState(value string) (ProcessState, bool) {
	state := ProcessState(strings.ToUpper(strings.TrimSpace(value)))
	_, ok := processStateSet[state]
	return state, ok
}

// IsClosed reports whether the state ends the process.
func (s ProcessState) IsClosed() bool {
	_, ok := closedStates[s]
	return ok
}

// IsOverride reports whether the state may be set directly by an action.
func (s ProcessState) IsOverride() bool {
	_, ok := overrideStates[s]
	return ok
}

// Process is one candidate's pipeline instance for one subsidiary.
type Process struct {
	ID                int64
	CandidateID       int64
	SubsidiaryID      int64
	SourceID          *int64
	ContractTypeID    *int64
	SalaryExpectation *int
	ContractDuration  *int
	ContractStartDate *time.Time
	StartDate         time.Time
	EndDate           *time.Time
	// Override is an explicitly chosen state; empty when the state is derived.
	Override ProcessState
	// ReopenedAtRank is the highest interview rank at the last reopen. A NO_GO
	// at or below this rank no longer closes the process.
	ReopenedAtRank    int
	State             ProcessState
	Responsible       []int64
	Subscribers       []int64
	OtherInformations string
	ClosedComment     string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// ResolveState derives the process state from the explicit override and the
// interview sequence. Input order is irrelevant; the highest rank is last.
func ResolveState(override ProcessState, interviews []Interview, reopenedAtRank int) ProcessState {
	if override.IsOverride() {
		return override
	}
	last := LastByRank(interviews)
	if last == nil {
		return StateWaitingInterviewer
	}
	switch last.State {
	case InterviewWaitingPlanification:
		return StateWaitingInterviewPlanification
	case InterviewPlanned:
		return StateInterviewIsPlanned
	case InterviewWaitInformation:
		return StateWaitingITWMinute
	case InterviewGo:
		return StateWaitingNextInterviewer
	case InterviewNoGo:
		if last.Rank <= reopenedAtRank {
			return StateWaitingNextInterviewer
		}
		return StateNoGo
	default:
		return StateWaitingInterviewPlanification
	}
}

// Evaluation is the result of recomputing a process.
type Evaluation struct {
	State       ProcessState
	Responsible []int64
}

// Evaluate runs the state and responsibility resolvers for a process.
func Evaluate(p Process, interviews []Interview, subsidiary Subsidiary) Evaluation {
	state := ResolveState(p.Override, interviews, p.ReopenedAtRank)
	return Evaluation{
		State:       state,
		Responsible: ResolveResponsible(state, LastByRank(interviews), subsidiary),
	}
}

// Apply stores an evaluation on the process, keeping end_date coupled to the
// closed flag: closing stamps today when no end date is set and an open state
// never carries one.
func (p *Process) Apply(eval Evaluation, today time.Time) {
	p.State = eval.State
	p.Responsible = NormalizeIDs(eval.Responsible)
	if eval.State.IsClosed() {
		if p.EndDate == nil {
			d := StartOfDay(today)
			p.EndDate = &d
		}
		return
	}
	p.EndDate = nil
}

// Consistent reports whether end_date and state agree.
func (p Process) Consistent() bool {
	return (p.EndDate != nil) == p.State.IsClosed()
}

// IsOpen reports whether the process still awaits an action or decision.
func (p Process) IsOpen() bool {
	return !p.State.IsClosed()
}

// IsActive is true until the end date has passed.
func (p Process) IsActive(today time.Time) bool {
	if p.EndDate == nil {
		return true
	}
	return StartOfDay(*p.EndDate).After(StartOfDay(today))
}

// NeedsAttention flags active processes waiting on someone to act.
func (p Process) NeedsAttention(today time.Time) bool {
	if !p.IsActive(today) {
		return false
	}
	_, ok := attentionStates[p.State]
	return ok
}

// RecentlyClosed reports whether the process ended within the last window days.
func (p Process) RecentlyClosed(today time.Time, window int) bool {
	if p.EndDate == nil || !p.State.IsClosed() {
		return false
	}
	end := StartOfDay(*p.EndDate)
	day := StartOfDay(today)
	return !end.After(day) && !end.Before(day.AddDate(0, 0, -window))
}

// Close sets a terminal override. JOB_OFFER is accepted too: it is an open
// override that hands the process back to the subsidiary responsible.
func (p *Process) Close(state ProcessState, comment string) bool {
	if !state.IsOverride() {
		return false
	}
	p.Override = state
	if strings.TrimSpace(comment) != "" {
		p.ClosedComment = strings.TrimSpace(comment)
	}
	return true
}

// Reopen clears the override and end date. A derived NO_GO from the current
// last interview is neutralized by recording its rank.
func (p *Process) Reopen(interviews []Interview) {
	p.Override = ""
	p.EndDate = nil
	p.ClosedComment = ""
	if last := LastByRank(interviews); last != nil {
		p.ReopenedAtRank = last.Rank
	}
}
