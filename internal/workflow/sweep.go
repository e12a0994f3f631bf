package workflow

import (
	"context"
	"time"

	"hiretrack/internal/logging"
	"hiretrack/internal/pipeline"
	"hiretrack/internal/store"
)

// SweepResult summarizes one sweep pass.
type SweepResult struct {
	Examined int
	Moved    int
	// StateChanges counts processes whose derived state changed.
	StateChanges int
	Failed       int
}

// Sweep moves every PLANNED interview whose date is before now to
// WAIT_INFORMATION and recomputes its process. Each interview is handled in
// its own transaction with a conditional update, so an outcome or a new date
// recorded concurrently is never overwritten. Failures are logged and counted.
func (m *Manager) Sweep(ctx context.Context, now time.Time) (SweepResult, error) {
	var result SweepResult
	planned, err := m.store.Read().ListInterviews(ctx, store.InterviewFilter{
		States: []pipeline.InterviewState{pipeline.InterviewPlanned},
	})
	if err != nil {
		return result, err
	}

	options := resolveWriteOptions(nil)
	anyEnqueued := false
	for _, candidate := range planned {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		result.Examined++
		probe := candidate
		if !probe.Sweep(now) {
			continue
		}

		var moved, changed, enqueued bool
		err := m.store.Update(ctx, func(tx *store.Tx) error {
			moved, changed, enqueued = false, false, false
			ok, err := tx.MarkWaitInformation(ctx, candidate.ID, now)
			if err != nil || !ok {
				return err
			}
			moved = true
			p, err := tx.Process(ctx, candidate.ProcessID)
			if err != nil {
				return err
			}
			before := snapshotOf(p)
			enqueued, err = m.commitProcess(ctx, tx, &p, before, options)
			changed = p.State != before.State
			return err
		})
		if err != nil {
			result.Failed++
			logging.WarnWithContext(m.logger, "sweep failed for interview", "sweep_interview_failed",
				logging.Int64(logging.FieldInterviewID, candidate.ID),
				logging.Int64(logging.FieldProcessID, candidate.ProcessID),
				logging.Error(err),
				logging.String(logging.FieldImpact, "interview stays PLANNED until the next sweep"),
			)
			continue
		}
		if moved {
			result.Moved++
		}
		if changed {
			result.StateChanges++
		}
		anyEnqueued = anyEnqueued || enqueued
	}

	m.mu.Lock()
	m.lastSweep = now
	m.mu.Unlock()
	if result.Moved > 0 || result.Failed > 0 {
		m.logger.Info("sweep complete",
			logging.Int("examined", result.Examined),
			logging.Int("moved", result.Moved),
			logging.Int("state_changes", result.StateChanges),
			logging.Int("failed", result.Failed),
		)
	}
	m.afterCommit(ctx, anyEnqueued)
	return result, nil
}
