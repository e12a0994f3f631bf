package anonymize

import (
	"time"

	"hiretrack/internal/pipeline"
)

// Reason explains why a candidate was or was not selected for anonymization.
type Reason string

const (
	ReasonEligible          Reason = "eligible"
	ReasonAlreadyAnonymized Reason = "already_anonymized"
	ReasonNoProcess         Reason = "no_process"
	ReasonOpenProcess       Reason = "open_process"
	ReasonHired             Reason = "hired"
	ReasonTooRecent         Reason = "too_recent"
)

// Policy holds the batch selection rules.
type Policy struct {
	// Cutoff is exclusive: the latest end date must be strictly before it.
	Cutoff time.Time
	// SkipHired keeps candidates with a HIRED process untouched.
	SkipHired bool
}

// Eligible decides whether a candidate can be anonymized under the policy.
// Every process must be closed with an end date, and the latest end date must
// precede the cutoff.
func Eligible(candidate pipeline.Candidate, processes []pipeline.Process, policy Policy) (bool, Reason) {
	if candidate.Anonymized {
		return false, ReasonAlreadyAnonymized
	}
	if len(processes) == 0 {
		return false, ReasonNoProcess
	}
	var latest time.Time
	for _, p := range processes {
		if !p.State.IsClosed() || p.EndDate == nil {
			return false, ReasonOpenProcess
		}
		if policy.SkipHired && p.State == pipeline.StateHired {
			return false, ReasonHired
		}
		if p.EndDate.After(latest) {
			latest = *p.EndDate
		}
	}
	if !latest.Before(policy.Cutoff) {
		return false, ReasonTooRecent
	}
	return true, ReasonEligible
}

// Scrub blanks the candidate's identifying fields and stores their hashes.
func (h Hasher) Scrub(candidate *pipeline.Candidate) {
	candidate.AnonymizedHashedName = h.HashName(candidate.Name)
	candidate.AnonymizedHashedEmail = h.HashEmail(candidate.Email)
	candidate.Name = ""
	candidate.Email = ""
	candidate.Phone = ""
	candidate.LinkedinURL = ""
	candidate.Anonymized = true
}

// ScrubProcess blanks free-text commentary that may identify the candidate.
func ScrubProcess(p *pipeline.Process) {
	p.OtherInformations = ""
	p.ClosedComment = ""
}

// ScrubInterview blanks the interview minute and goal text.
func ScrubInterview(itw *pipeline.Interview) {
	itw.Minute = ""
	itw.NextInterviewGoal = ""
}

// Probe is the pair of hashes used to look up previously anonymized
// candidates matching a candidate in progress.
type Probe struct {
	NameHash  string
	EmailHash string
}

// Probe builds the lookup hashes for a name and email.
func (h Hasher) Probe(name, email string) Probe {
	return Probe{NameHash: h.HashName(name), EmailHash: h.HashEmail(email)}
}

// Matches reports whether an anonymized candidate shares either hash.
func (p Probe) Matches(candidate pipeline.Candidate) bool {
	if !candidate.Anonymized {
		return false
	}
	if p.NameHash != "" && candidate.AnonymizedHashedName == p.NameHash {
		return true
	}
	return p.EmailHash != "" && candidate.AnonymizedHashedEmail == p.EmailHash
}

// FindDuplicates returns every anonymized candidate matching the probe.
// Collisions are expected; zero, one, or many matches are all valid results.
func FindDuplicates(probe Probe, anonymized []pipeline.Candidate) []pipeline.Candidate {
	matches := make([]pipeline.Candidate, 0)
	for _, c := range anonymized {
		if probe.Matches(c) {
			matches = append(matches, c)
		}
	}
	return matches
}
