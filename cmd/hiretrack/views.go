package main

import (
	"context"
	"time"

	"hiretrack/internal/pipeline"
	"hiretrack/internal/store"
)

// lookups resolves ids shown in listings.
type lookups struct {
	consultants  map[int64]pipeline.Consultant
	subsidiaries map[int64]pipeline.Subsidiary
	candidates   map[int64]pipeline.Candidate
}

func loadLookups(ctx context.Context, st *store.Store) (lookups, error) {
	tx := st.Read()
	out := lookups{
		consultants:  make(map[int64]pipeline.Consultant),
		subsidiaries: make(map[int64]pipeline.Subsidiary),
		candidates:   make(map[int64]pipeline.Candidate),
	}
	consultants, err := tx.ListConsultants(ctx)
	if err != nil {
		return out, err
	}
	for _, c := range consultants {
		out.consultants[c.ID] = c
	}
	subs, err := tx.ListSubsidiaries(ctx)
	if err != nil {
		return out, err
	}
	for _, s := range subs {
		out.subsidiaries[s.ID] = s
	}
	return out, nil
}

func (l lookups) candidate(ctx context.Context, st *store.Store, id int64) pipeline.Candidate {
	if c, ok := l.candidates[id]; ok {
		return c
	}
	c, err := st.Read().Candidate(ctx, id)
	if err != nil {
		c = pipeline.Candidate{ID: id}
	}
	l.candidates[id] = c
	return c
}

type processView struct {
	ID             int64           `json:"id"`
	CandidateID    int64           `json:"candidate_id"`
	Candidate      string          `json:"candidate"`
	Subsidiary     string          `json:"subsidiary"`
	State          string          `json:"state"`
	Responsible    []string        `json:"responsible"`
	Subscribers    []string        `json:"subscribers,omitempty"`
	StartDate      string          `json:"start_date"`
	EndDate        string          `json:"end_date,omitempty"`
	NeedsAttention bool            `json:"needs_attention"`
	Notes          string          `json:"notes,omitempty"`
	ClosedComment  string          `json:"closed_comment,omitempty"`
	Interviews     []interviewView `json:"interviews,omitempty"`
}

type interviewView struct {
	ID           int64    `json:"id"`
	ProcessID    int64    `json:"process_id"`
	Rank         int      `json:"rank"`
	State        string   `json:"state"`
	PlannedDate  string   `json:"planned_date,omitempty"`
	Interviewers []string `json:"interviewers"`
	HasMinute    bool     `json:"has_minute"`
	NextGoal     string   `json:"next_goal,omitempty"`
	Suggested    string   `json:"suggested_interviewer,omitempty"`
}

func trigrams(ids []int64, consultants map[int64]pipeline.Consultant) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if c, ok := consultants[id]; ok {
			out = append(out, c.Trigram)
		}
	}
	return out
}

func (l lookups) processView(ctx context.Context, st *store.Store, p pipeline.Process, today time.Time) processView {
	candidate := l.candidate(ctx, st, p.CandidateID)
	name := candidate.Name
	if candidate.Anonymized {
		name = "(anonymized)"
	}
	view := processView{
		ID:             p.ID,
		CandidateID:    p.CandidateID,
		Candidate:      name,
		Subsidiary:     l.subsidiaries[p.SubsidiaryID].Code,
		State:          string(p.State),
		Responsible:    trigrams(p.Responsible, l.consultants),
		Subscribers:    trigrams(p.Subscribers, l.consultants),
		StartDate:      p.StartDate.Format("2006-01-02"),
		NeedsAttention: p.NeedsAttention(today),
		Notes:          p.OtherInformations,
		ClosedComment:  p.ClosedComment,
	}
	if p.EndDate != nil {
		view.EndDate = p.EndDate.Format("2006-01-02")
	}
	return view
}

func (l lookups) interviewView(itw pipeline.Interview) interviewView {
	view := interviewView{
		ID:           itw.ID,
		ProcessID:    itw.ProcessID,
		Rank:         itw.Rank,
		State:        string(itw.State),
		Interviewers: trigrams(itw.Interviewers, l.consultants),
		HasMinute:    itw.HasMinute(),
		NextGoal:     itw.NextInterviewGoal,
	}
	if itw.PlannedDate != nil {
		view.PlannedDate = formatWhen(itw.PlannedDate)
	}
	if itw.SuggestedInterviewer != nil {
		if c, ok := l.consultants[*itw.SuggestedInterviewer]; ok {
			view.Suggested = c.Trigram
		}
	}
	return view
}
