package pipeline_test

import (
	"math/rand"
	"testing"
	"time"

	"hiretrack/internal/pipeline"
)

func itw(rank int, state pipeline.InterviewState, interviewers ...int64) pipeline.Interview {
	return pipeline.Interview{Rank: rank, State: state, Interviewers: interviewers}
}

func TestResolveStateFromLastInterview(t *testing.T) {
	cases := []struct {
		name string
		last pipeline.InterviewState
		want pipeline.ProcessState
	}{
		{"waiting planification", pipeline.InterviewWaitingPlanification, pipeline.StateWaitingInterviewPlanification},
		{"planned", pipeline.InterviewPlanned, pipeline.StateInterviewIsPlanned},
		{"wait information", pipeline.InterviewWaitInformation, pipeline.StateWaitingITWMinute},
		{"go", pipeline.InterviewGo, pipeline.StateWaitingNextInterviewer},
		{"no go", pipeline.InterviewNoGo, pipeline.StateNoGo},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			interviews := []pipeline.Interview{itw(1, pipeline.InterviewGo), itw(2, tc.last)}
			if got := pipeline.ResolveState("", interviews, 0); got != tc.want {
				t.Fatalf("got %s want %s", got, tc.want)
			}
		})
	}
}

func TestResolveStateWithoutInterviews(t *testing.T) {
	if got := pipeline.ResolveState("", nil, 0); got != pipeline.StateWaitingInterviewer {
		t.Fatalf("got %s", got)
	}
}

func TestResolveStateOverrideWins(t *testing.T) {
	interviews := []pipeline.Interview{itw(1, pipeline.InterviewGo)}
	for _, override := range []pipeline.ProcessState{
		pipeline.StateHired, pipeline.StateNoGo, pipeline.StateCandidateDeclined,
		pipeline.StateJobOffer, pipeline.StateJobOfferDeclined, pipeline.StateOther,
	} {
		if got := pipeline.ResolveState(override, interviews, 0); got != override {
			t.Fatalf("override %s resolved to %s", override, got)
		}
	}
	if got := pipeline.ResolveState(pipeline.StateInterviewIsPlanned, interviews, 0); got != pipeline.StateWaitingNextInterviewer {
		t.Fatalf("derived states are not overrides, got %s", got)
	}
}

func TestResolveStateIgnoresInputOrder(t *testing.T) {
	interviews := []pipeline.Interview{
		itw(1, pipeline.InterviewGo),
		itw(2, pipeline.InterviewGo),
		itw(3, pipeline.InterviewNoGo),
		itw(4, pipeline.InterviewPlanned),
	}
	want := pipeline.ResolveState("", interviews, 0)
	if want != pipeline.StateInterviewIsPlanned {
		t.Fatalf("unexpected baseline %s", want)
	}
	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 20; i++ {
		shuffled := append([]pipeline.Interview(nil), interviews...)
		rng.Shuffle(len(shuffled), func(a, b int) { shuffled[a], shuffled[b] = shuffled[b], shuffled[a] })
		if got := pipeline.ResolveState("", shuffled, 0); got != want {
			t.Fatalf("order changed result: %s vs %s", got, want)
		}
		if got := pipeline.ResolveState("", shuffled, 0); got != want {
			t.Fatal("resolver is not idempotent")
		}
	}
}

func TestResolveStateAfterReopen(t *testing.T) {
	interviews := []pipeline.Interview{itw(1, pipeline.InterviewNoGo)}
	if got := pipeline.ResolveState("", interviews, 1); got != pipeline.StateWaitingNextInterviewer {
		t.Fatalf("reopened NO_GO should wait for next interviewer, got %s", got)
	}
	interviews = append(interviews, itw(2, pipeline.InterviewNoGo))
	if got := pipeline.ResolveState("", interviews, 1); got != pipeline.StateNoGo {
		t.Fatalf("a new NO_GO after reopen closes again, got %s", got)
	}
}

func TestClosedStates(t *testing.T) {
	closed := map[pipeline.ProcessState]bool{
		pipeline.StateHired: true, pipeline.StateNoGo: true, pipeline.StateCandidateDeclined: true,
		pipeline.StateJobOfferDeclined: true, pipeline.StateOther: true,
	}
	for _, state := range pipeline.ProcessStates() {
		if state.IsClosed() != closed[state] {
			t.Errorf("IsClosed(%s) = %v", state, state.IsClosed())
		}
	}
	if _, ok := pipeline.ParseProcessState("hired"); !ok {
		t.Fatal("expected case-insensitive parse")
	}
	if _, ok := pipeline.ParseProcessState("open"); ok {
		t.Fatal("unexpected state parsed")
	}
}

func TestApplyCouplesEndDateWithClosedState(t *testing.T) {
	today := time.Date(2026, 4, 2, 15, 30, 0, 0, time.UTC)
	owner := int64(5)
	sub := pipeline.Subsidiary{ID: 1, ResponsibleID: &owner}
	p := pipeline.Process{ID: 1, StartDate: today}

	p.Apply(pipeline.Evaluate(p, nil, sub), today)
	if p.EndDate != nil || !p.Consistent() {
		t.Fatalf("open process must not carry end date: %+v", p)
	}

	p.Close(pipeline.StateHired, "signed")
	p.Apply(pipeline.Evaluate(p, nil, sub), today)
	if p.State != pipeline.StateHired {
		t.Fatalf("expected HIRED, got %s", p.State)
	}
	if p.EndDate == nil || !p.EndDate.Equal(pipeline.StartOfDay(today)) {
		t.Fatalf("closing must set end date to today, got %v", p.EndDate)
	}
	if len(p.Responsible) != 0 {
		t.Fatalf("closed process has no responsible, got %v", p.Responsible)
	}
	if p.IsActive(today) {
		t.Fatal("process ending today is not active")
	}
	if p.ClosedComment != "signed" {
		t.Fatalf("unexpected closed comment %q", p.ClosedComment)
	}

	p.Reopen(nil)
	p.Apply(pipeline.Evaluate(p, nil, sub), today)
	if p.EndDate != nil || p.State != pipeline.StateWaitingInterviewer || p.ClosedComment != "" {
		t.Fatalf("reopen should restore derived open state: %+v", p)
	}
}

func TestCloseRejectsDerivedStates(t *testing.T) {
	var p pipeline.Process
	if p.Close(pipeline.StateInterviewIsPlanned, "") {
		t.Fatal("derived state accepted as override")
	}
	if !p.Close(pipeline.StateJobOffer, "") || p.Override != pipeline.StateJobOffer {
		t.Fatal("JOB_OFFER should be accepted as an open override")
	}
}

func TestDerivedNoGoClosesProcess(t *testing.T) {
	today := time.Date(2026, 4, 2, 0, 0, 0, 0, time.UTC)
	p := pipeline.Process{ID: 1, StartDate: today}
	interviews := []pipeline.Interview{itw(1, pipeline.InterviewNoGo, 3)}
	p.Apply(pipeline.Evaluate(p, interviews, pipeline.Subsidiary{}), today)
	if p.State != pipeline.StateNoGo || p.EndDate == nil {
		t.Fatalf("NO_GO must close the process: %+v", p)
	}

	p.Reopen(interviews)
	p.Apply(pipeline.Evaluate(p, interviews, pipeline.Subsidiary{}), today)
	if p.State != pipeline.StateWaitingNextInterviewer || p.EndDate != nil {
		t.Fatalf("reopen must overrule the NO_GO: %+v", p)
	}
}

func TestProcessListingRules(t *testing.T) {
	today := time.Date(2026, 4, 10, 9, 0, 0, 0, time.UTC)
	end := today.AddDate(0, 0, -3)
	closed := pipeline.Process{State: pipeline.StateOther, EndDate: &end}
	if !closed.RecentlyClosed(today, 7) {
		t.Fatal("closed three days ago is recent within a week")
	}
	if closed.RecentlyClosed(today, 2) {
		t.Fatal("closed three days ago is not recent within two days")
	}
	if closed.NeedsAttention(today) {
		t.Fatal("closed process needs no attention")
	}

	open := pipeline.Process{State: pipeline.StateWaitingITWMinute}
	if !open.NeedsAttention(today) {
		t.Fatal("waiting minute needs attention")
	}
	planned := pipeline.Process{State: pipeline.StateInterviewIsPlanned}
	if planned.NeedsAttention(today) {
		t.Fatal("planned interview needs no attention")
	}
	if open.RecentlyClosed(today, 7) {
		t.Fatal("open process is not recently closed")
	}
}
