package workflow

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"hiretrack/internal/logging"
	"hiretrack/internal/pipeline"
	"hiretrack/internal/services"
	"hiretrack/internal/store"
)

// AddInterview appends a new interview to an open process. Its rank is one
// past the current highest rank. A planned date moves it straight to PLANNED.
func (m *Manager) AddInterview(ctx context.Context, processID int64, interviewers []int64, planned *time.Time, opts ...WriteOption) (pipeline.Interview, error) {
	options := resolveWriteOptions(opts)
	var (
		itw      pipeline.Interview
		enqueued bool
	)
	err := m.store.Update(ctx, func(tx *store.Tx) error {
		p, err := loadProcessForWrite(ctx, tx, processID, "add interview", options)
		if err != nil {
			return err
		}
		if p.State.IsClosed() {
			return closedProcess("add interview", fmt.Sprintf("process %d is %s; reopen it first", p.ID, p.State))
		}
		if err := requireConsultants(ctx, tx, "add interview", interviewers); err != nil {
			return err
		}
		before := snapshotOf(p)
		itw = pipeline.NewInterview(p.ID, interviewers)
		itw.Plan(planned)
		if err := tx.InsertInterview(ctx, &itw); err != nil {
			return err
		}
		enqueued, err = m.commitProcess(ctx, tx, &p, before, options)
		return err
	})
	if err != nil {
		return pipeline.Interview{}, err
	}
	m.logger.Info("interview added",
		logging.Int64(logging.FieldProcessID, itw.ProcessID),
		logging.Int64(logging.FieldInterviewID, itw.ID),
		logging.Int("rank", itw.Rank),
	)
	m.afterCommit(ctx, enqueued)
	return itw, nil
}

// PlanInterview sets or clears the planned date. A recorded outcome is kept.
func (m *Manager) PlanInterview(ctx context.Context, interviewID int64, planned *time.Time, opts ...WriteOption) (pipeline.Interview, error) {
	return m.updateInterview(ctx, interviewID, "plan interview", opts, func(tx *store.Tx, itw *pipeline.Interview) error {
		itw.Plan(planned)
		return nil
	})
}

// AssignInterviewers replaces the interviewer set.
func (m *Manager) AssignInterviewers(ctx context.Context, interviewID int64, interviewers []int64, opts ...WriteOption) (pipeline.Interview, error) {
	return m.updateInterview(ctx, interviewID, "assign interviewers", opts, func(tx *store.Tx, itw *pipeline.Interview) error {
		if err := requireConsultants(ctx, tx, "assign interviewers", interviewers); err != nil {
			return err
		}
		itw.Interviewers = pipeline.NormalizeIDs(interviewers)
		return nil
	})
}

// RecordOutcome records GO or NO_GO. A NO_GO on the last interview closes the
// process.
func (m *Manager) RecordOutcome(ctx context.Context, interviewID int64, outcome string, opts ...WriteOption) (pipeline.Interview, error) {
	state, err := pipeline.ParseOutcome(outcome)
	if err != nil {
		return pipeline.Interview{}, invalidTransition("record outcome", err.Error())
	}
	return m.updateInterview(ctx, interviewID, "record outcome", opts, func(tx *store.Tx, itw *pipeline.Interview) error {
		if err := itw.RecordOutcome(state); err != nil {
			if errors.Is(err, pipeline.ErrInterviewDecided) {
				return services.Wrap(services.ErrConflict, "workflow", "record outcome",
					fmt.Sprintf("interview %d is already %s", itw.ID, itw.State), ErrInvalidTransition)
			}
			return invalidTransition("record outcome", err.Error())
		}
		return nil
	})
}

// RecordMinute stores the interview write-up, the goal for the next
// interview, and an optional suggested next interviewer.
func (m *Manager) RecordMinute(ctx context.Context, interviewID int64, minute, nextGoal string, suggested *int64, opts ...WriteOption) (pipeline.Interview, error) {
	return m.updateInterview(ctx, interviewID, "record minute", opts, func(tx *store.Tx, itw *pipeline.Interview) error {
		if suggested != nil {
			if err := requireConsultants(ctx, tx, "record minute", []int64{*suggested}); err != nil {
				return err
			}
		}
		itw.Minute = strings.TrimSpace(minute)
		itw.NextInterviewGoal = strings.TrimSpace(nextGoal)
		itw.SuggestedInterviewer = suggested
		return nil
	})
}

func (m *Manager) updateInterview(ctx context.Context, interviewID int64, operation string, opts []WriteOption, mutate func(*store.Tx, *pipeline.Interview) error) (pipeline.Interview, error) {
	options := resolveWriteOptions(opts)
	var (
		itw      pipeline.Interview
		p        pipeline.Process
		prev     pipeline.ProcessState
		enqueued bool
	)
	err := m.store.Update(ctx, func(tx *store.Tx) error {
		loadedItw, loadedProcess, err := loadInterviewForWrite(ctx, tx, interviewID, operation, options)
		if err != nil {
			return err
		}
		itw, p = loadedItw, loadedProcess
		prev = p.State
		before := snapshotOf(p)
		if err := mutate(tx, &itw); err != nil {
			return err
		}
		if err := tx.SaveInterview(ctx, &itw); err != nil {
			return err
		}
		enqueued, err = m.commitProcess(ctx, tx, &p, before, options)
		return err
	})
	if err != nil {
		return pipeline.Interview{}, err
	}
	logger := logging.WithContext(services.WithProcessID(ctx, p.ID), m.logger)
	logger.Info("interview updated",
		logging.Int64(logging.FieldInterviewID, itw.ID),
		logging.String("operation", operation),
		logging.String("interview_state", string(itw.State)),
	)
	if prev != p.State {
		logger.Info("process state changed",
			logging.String("old_state", string(prev)),
			logging.String("new_state", string(p.State)),
		)
	}
	m.afterCommit(ctx, enqueued)
	return itw, nil
}
