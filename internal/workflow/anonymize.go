package workflow

import (
	"context"
	"time"

	"hiretrack/internal/anonymize"
	"hiretrack/internal/fileutil"
	"hiretrack/internal/logging"
	"hiretrack/internal/pipeline"
	"hiretrack/internal/services"
	"hiretrack/internal/store"
)

// AnonymizeOption adjusts a batch anonymization run.
type AnonymizeOption func(*anonymize.Policy, *bool)

// WithDryRun selects eligible candidates without changing anything.
func WithDryRun() AnonymizeOption {
	return func(_ *anonymize.Policy, dryRun *bool) {
		*dryRun = true
	}
}

// IncludeHired anonymizes candidates with a HIRED process too.
func IncludeHired() AnonymizeOption {
	return func(policy *anonymize.Policy, _ *bool) {
		policy.SkipHired = false
	}
}

// AnonymizeResult summarizes a batch.
type AnonymizeResult struct {
	Examined   int
	Anonymized []int64
	Skipped    map[anonymize.Reason]int
	Failed     int
	DryRun     bool
}

// Anonymize scrubs every eligible candidate whose processes all ended before
// cutoff. Each candidate is handled in its own transaction, no notification is
// emitted, and a candidate anonymized concurrently is skipped.
func (m *Manager) Anonymize(ctx context.Context, cutoff time.Time, opts ...AnonymizeOption) (AnonymizeResult, error) {
	policy := anonymize.Policy{Cutoff: cutoff, SkipHired: m.cfg.Anonymize.SkipHired}
	dryRun := false
	for _, opt := range opts {
		opt(&policy, &dryRun)
	}
	result := AnonymizeResult{Skipped: make(map[anonymize.Reason]int), DryRun: dryRun}

	hasher, err := m.hasher()
	if err != nil {
		return result, services.Wrap(services.ErrValidation, "workflow", "anonymize", "anonymize.salt", err)
	}

	candidates, err := m.store.Read().ActiveCandidates(ctx)
	if err != nil {
		return result, err
	}
	for _, candidate := range candidates {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		result.Examined++
		processes, err := m.store.Read().ListProcesses(ctx, store.ProcessFilter{CandidateID: candidate.ID})
		if err != nil {
			return result, err
		}
		if ok, reason := anonymize.Eligible(candidate, processes, policy); !ok {
			result.Skipped[reason]++
			continue
		}
		if dryRun {
			result.Anonymized = append(result.Anonymized, candidate.ID)
			continue
		}

		reason, err := m.anonymizeCandidate(ctx, hasher, candidate.ID, policy)
		if err != nil {
			result.Failed++
			logging.ErrorWithContext(m.logger, "candidate anonymization failed", "anonymize_failed",
				logging.Int64(logging.FieldCandidateID, candidate.ID),
				logging.Error(err),
				logging.String(logging.FieldImpact, "candidate data kept; retried on the next run"),
			)
			continue
		}
		if reason != anonymize.ReasonEligible {
			result.Skipped[reason]++
			continue
		}
		result.Anonymized = append(result.Anonymized, candidate.ID)
	}

	m.logger.Info("anonymization complete",
		logging.Time("cutoff", cutoff),
		logging.Int("examined", result.Examined),
		logging.Int("anonymized", len(result.Anonymized)),
		logging.Int("failed", result.Failed),
		logging.Bool("dry_run", dryRun),
	)
	return result, nil
}

// anonymizeCandidate re-checks eligibility inside the transaction and scrubs
// the candidate. It returns ReasonEligible when the candidate was anonymized.
func (m *Manager) anonymizeCandidate(ctx context.Context, hasher anonymize.Hasher, candidateID int64, policy anonymize.Policy) (anonymize.Reason, error) {
	var (
		outcome anonymize.Reason
		files   []string
	)
	err := m.store.Update(ctx, func(tx *store.Tx) error {
		outcome, files = "", nil
		candidate, err := tx.Candidate(ctx, candidateID)
		if err != nil {
			return err
		}
		processes, err := tx.ListProcesses(ctx, store.ProcessFilter{CandidateID: candidateID})
		if err != nil {
			return err
		}
		if ok, reason := anonymize.Eligible(candidate, processes, policy); !ok {
			outcome = reason
			return nil
		}

		hasher.Scrub(&candidate)
		applied, err := tx.AnonymizeCandidate(ctx, candidate)
		if err != nil {
			return err
		}
		if !applied {
			outcome = anonymize.ReasonAlreadyAnonymized
			return nil
		}
		outcome = anonymize.ReasonEligible
		for idx := range processes {
			p := &processes[idx]
			anonymize.ScrubProcess(p)
			if err := tx.SaveProcess(ctx, p); err != nil {
				return err
			}
			interviews, err := tx.InterviewsByProcess(ctx, p.ID)
			if err != nil {
				return err
			}
			for i := range interviews {
				anonymize.ScrubInterview(&interviews[i])
				if err := tx.SaveInterview(ctx, &interviews[i]); err != nil {
					return err
				}
			}
		}
		if err := tx.BlankEventSubjects(ctx, candidateID); err != nil {
			return err
		}
		files, err = tx.DeleteDocuments(ctx, candidateID)
		return err
	})
	if err != nil {
		return "", err
	}
	for _, path := range files {
		if rmErr := fileutil.RemoveIfExists(path); rmErr != nil {
			logging.WarnWithContext(m.logger, "document file not removed", "anonymize_document_failed",
				logging.Int64(logging.FieldCandidateID, candidateID),
				logging.String("path", path),
				logging.Error(rmErr),
				logging.String(logging.FieldErrorHint, "delete the file manually"),
			)
		}
	}
	return outcome, nil
}

// FindDuplicates returns anonymized candidates whose hashed name or email
// matches the given identity. Several matches are normal.
func (m *Manager) FindDuplicates(ctx context.Context, name, email string) ([]pipeline.Candidate, error) {
	hasher, err := m.hasher()
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, "workflow", "find duplicates", "anonymize.salt", err)
	}
	probe := hasher.Probe(name, email)
	matches, err := m.store.Read().AnonymizedMatches(ctx, probe.NameHash, probe.EmailHash)
	if err != nil {
		return nil, err
	}
	return anonymize.FindDuplicates(probe, matches), nil
}
