package anonymize_test

import (
	"errors"
	"testing"
	"time"

	"hiretrack/internal/anonymize"
	"hiretrack/internal/pipeline"
)

func mustHasher(t *testing.T, salt string) anonymize.Hasher {
	t.Helper()
	h, err := anonymize.NewHasher(salt)
	if err != nil {
		t.Fatalf("NewHasher: %v", err)
	}
	return h
}

func TestNameHashIsOrderAndCaseInsensitive(t *testing.T) {
	h := mustHasher(t, "pepper")
	want := h.HashName("Jane Doe")
	for _, variant := range []string{"doe jane", " JANE   DOE ", "Doe\tJane", "Jàne Döe"} {
		if got := h.HashName(variant); got != want {
			t.Errorf("HashName(%q) differs from HashName(\"Jane Doe\")", variant)
		}
	}
	if h.HashName("Jane Smith") == want {
		t.Fatal("different names must hash differently")
	}
	if len(want) != 64 {
		t.Fatalf("expected hex sha256 digest, got %q", want)
	}
}

func TestEmailHash(t *testing.T) {
	h := mustHasher(t, "pepper")
	if h.HashEmail(" Jane.Doe@Example.COM ") != h.HashEmail("jane.doe@example.com") {
		t.Fatal("email hash must ignore case and surrounding spaces")
	}
	if h.HashEmail("") != "" || h.HashName("   ") != "" {
		t.Fatal("blank values hash to empty string")
	}
}

func TestSaltChangesDigest(t *testing.T) {
	a := mustHasher(t, "salt-a")
	b := mustHasher(t, "salt-b")
	if a.HashName("Jane Doe") == b.HashName("Jane Doe") {
		t.Fatal("salt must influence the digest")
	}
	if _, err := anonymize.NewHasher(" "); !errors.Is(err, anonymize.ErrEmptySalt) {
		t.Fatalf("expected ErrEmptySalt, got %v", err)
	}
}

func TestNormalizeName(t *testing.T) {
	if got := anonymize.NormalizeName("  Nâme lAstName "); got != "lastname name" {
		t.Fatalf("unexpected normalized name %q", got)
	}
}

func TestEligible(t *testing.T) {
	cutoff := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	old := cutoff.AddDate(0, -2, 0)
	recent := cutoff.AddDate(0, 1, 0)
	policy := anonymize.Policy{Cutoff: cutoff, SkipHired: true}

	closed := func(state pipeline.ProcessState, end time.Time) pipeline.Process {
		e := end
		return pipeline.Process{State: state, EndDate: &e}
	}

	cases := []struct {
		name      string
		candidate pipeline.Candidate
		processes []pipeline.Process
		policy    anonymize.Policy
		want      anonymize.Reason
	}{
		{"eligible", pipeline.Candidate{}, []pipeline.Process{closed(pipeline.StateNoGo, old), closed(pipeline.StateOther, old)}, policy, anonymize.ReasonEligible},
		{"already anonymized", pipeline.Candidate{Anonymized: true}, []pipeline.Process{closed(pipeline.StateNoGo, old)}, policy, anonymize.ReasonAlreadyAnonymized},
		{"no process", pipeline.Candidate{}, nil, policy, anonymize.ReasonNoProcess},
		{"open process", pipeline.Candidate{}, []pipeline.Process{closed(pipeline.StateNoGo, old), {State: pipeline.StateInterviewIsPlanned}}, policy, anonymize.ReasonOpenProcess},
		{"closed without end date", pipeline.Candidate{}, []pipeline.Process{{State: pipeline.StateNoGo}}, policy, anonymize.ReasonOpenProcess},
		{"hired skipped", pipeline.Candidate{}, []pipeline.Process{closed(pipeline.StateHired, old)}, policy, anonymize.ReasonHired},
		{"hired allowed", pipeline.Candidate{}, []pipeline.Process{closed(pipeline.StateHired, old)}, anonymize.Policy{Cutoff: cutoff}, anonymize.ReasonEligible},
		{"latest too recent", pipeline.Candidate{}, []pipeline.Process{closed(pipeline.StateNoGo, old), closed(pipeline.StateNoGo, recent)}, policy, anonymize.ReasonTooRecent},
		{"cutoff exclusive", pipeline.Candidate{}, []pipeline.Process{closed(pipeline.StateNoGo, cutoff)}, policy, anonymize.ReasonTooRecent},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ok, reason := anonymize.Eligible(tc.candidate, tc.processes, tc.policy)
			if reason != tc.want {
				t.Fatalf("got %s want %s", reason, tc.want)
			}
			if ok != (tc.want == anonymize.ReasonEligible) {
				t.Fatalf("eligibility flag %v inconsistent with reason %s", ok, reason)
			}
		})
	}
}

func TestScrubAndFindDuplicates(t *testing.T) {
	h := mustHasher(t, "pepper")
	candidate := pipeline.Candidate{
		ID:          1,
		Name:        "Jane Doe",
		Email:       "jane@example.com",
		Phone:       "+33 6 00 00 00 00",
		LinkedinURL: "https://linkedin.example/jane",
	}
	h.Scrub(&candidate)
	if candidate.Name != "" || candidate.Email != "" || candidate.Phone != "" || candidate.LinkedinURL != "" {
		t.Fatalf("plaintext fields must be blank: %+v", candidate)
	}
	if !candidate.Anonymized || candidate.AnonymizedHashedName == "" || candidate.AnonymizedHashedEmail == "" {
		t.Fatalf("expected hashes and flag: %+v", candidate)
	}

	other := pipeline.Candidate{ID: 2, Name: "John Roe", Email: "jane@example.com"}
	h.Scrub(&other)
	unrelated := pipeline.Candidate{ID: 3, Name: "Max Power", Email: "max@example.com"}
	h.Scrub(&unrelated)
	notScrubbed := pipeline.Candidate{ID: 4, Name: "Jane Doe", AnonymizedHashedName: candidate.AnonymizedHashedName}

	pool := []pipeline.Candidate{candidate, other, unrelated, notScrubbed}

	byName := anonymize.FindDuplicates(h.Probe("doe JANE", ""), pool)
	if len(byName) != 1 || byName[0].ID != 1 {
		t.Fatalf("expected match by name only on candidate 1, got %+v", byName)
	}
	byEmail := anonymize.FindDuplicates(h.Probe("", "JANE@example.com "), pool)
	if len(byEmail) != 2 {
		t.Fatalf("expected two matches by email, got %+v", byEmail)
	}
	none := anonymize.FindDuplicates(h.Probe("Nobody", "nobody@example.com"), pool)
	if none == nil || len(none) != 0 {
		t.Fatalf("expected empty non-nil result, got %+v", none)
	}
}

func TestScrubProcessAndInterview(t *testing.T) {
	p := pipeline.Process{OtherInformations: "lives near the office", ClosedComment: "moved to competitor"}
	anonymize.ScrubProcess(&p)
	if p.OtherInformations != "" || p.ClosedComment != "" {
		t.Fatalf("process text not scrubbed: %+v", p)
	}
	itw := pipeline.Interview{Minute: "talked about family", NextInterviewGoal: "check references"}
	anonymize.ScrubInterview(&itw)
	if itw.Minute != "" || itw.NextInterviewGoal != "" {
		t.Fatalf("interview text not scrubbed: %+v", itw)
	}
}
