package workflow

import (
	"context"
	"fmt"

	"hiretrack/internal/logging"
	"hiretrack/internal/notifications"
	"hiretrack/internal/pipeline"
	"hiretrack/internal/services"
	"hiretrack/internal/store"
)

func snapshotOf(p pipeline.Process) *notifications.Snapshot {
	return &notifications.Snapshot{State: p.State, Responsible: append([]int64(nil), p.Responsible...)}
}

// commitProcess recomputes the derived state and responsible set of p from
// its interviews, persists the result, and enqueues a notification when the
// process is new or its state or responsible set changed. prev is nil for a
// new process. It reports whether an event was enqueued.
func (m *Manager) commitProcess(ctx context.Context, tx *store.Tx, p *pipeline.Process, prev *notifications.Snapshot, opts writeOptions) (bool, error) {
	var interviews []pipeline.Interview
	if p.ID > 0 {
		loaded, err := tx.InterviewsByProcess(ctx, p.ID)
		if err != nil {
			return false, err
		}
		interviews = loaded
	}
	subsidiary, err := tx.Subsidiary(ctx, p.SubsidiaryID)
	if err != nil {
		return false, err
	}

	p.Apply(pipeline.Evaluate(*p, interviews, subsidiary), m.now())
	if p.ID == 0 {
		if err := tx.InsertProcess(ctx, p); err != nil {
			return false, err
		}
	} else if err := tx.SaveProcess(ctx, p); err != nil {
		return false, err
	}

	if !opts.notify {
		return false, nil
	}
	kind, changed := notifications.Classify(prev, notifications.Snapshot{State: p.State, Responsible: p.Responsible})
	if !changed {
		return false, nil
	}

	logger := logging.WithContext(services.WithProcessID(ctx, p.ID), m.logger)
	recipients := m.recipients(ctx, tx, *p, subsidiary)
	subject, err := tx.ProcessSubject(ctx, *p)
	if err != nil {
		logging.WarnWithContext(logger, "notification subject unavailable", "notification_subject_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "notification sent without candidate label"),
		)
		subject = fmt.Sprintf("Process #%d", p.ID)
	}

	var oldState pipeline.ProcessState
	if prev != nil {
		oldState = prev.State
	}
	event, ok := notifications.NewEvent(p.ID, kind, oldState, p.State, subject, recipients, m.now())
	if !ok {
		logger.Debug("no recipients for process change",
			logging.String(logging.FieldEventType, string(kind)),
			logging.String("state", string(p.State)),
		)
		return false, nil
	}
	if err := tx.EnqueueEvent(ctx, &event); err != nil {
		return false, err
	}
	logger.Info("notification queued",
		logging.String(logging.FieldEventID, event.ID),
		logging.String("kind", string(kind)),
		logging.String("old_state", string(oldState)),
		logging.String("new_state", string(p.State)),
		logging.Int("recipients", len(recipients)),
	)
	return true, nil
}

// recipients resolves the notification audience. Lookup failures degrade to
// nobody so the save itself still succeeds.
func (m *Manager) recipients(ctx context.Context, tx *store.Tx, p pipeline.Process, subsidiary pipeline.Subsidiary) []notifications.Recipient {
	sources := notifications.SourcesFor(p, subsidiary, m.cfg.Notifications.HREmail)
	consultants, err := tx.ConsultantsByID(ctx, notifications.ConsultantIDs(sources))
	if err != nil {
		logging.WarnWithContext(m.logger, "recipient lookup failed", "notification_recipients_failed",
			logging.Int64(logging.FieldProcessID, p.ID),
			logging.Error(err),
			logging.String(logging.FieldImpact, "no notification for this change"),
		)
		return nil
	}
	return notifications.ResolveRecipients(sources, consultants)
}

// loadProcessForWrite fetches a process and checks the actor may change it.
func loadProcessForWrite(ctx context.Context, tx *store.Tx, id int64, operation string, opts writeOptions) (pipeline.Process, error) {
	p, err := tx.Process(ctx, id)
	if err != nil {
		return pipeline.Process{}, err
	}
	if err := opts.authorizeProcess(operation, p); err != nil {
		return pipeline.Process{}, err
	}
	return p, nil
}

// loadInterviewForWrite fetches an interview and its open process.
func loadInterviewForWrite(ctx context.Context, tx *store.Tx, id int64, operation string, opts writeOptions) (pipeline.Interview, pipeline.Process, error) {
	itw, err := tx.Interview(ctx, id)
	if err != nil {
		return pipeline.Interview{}, pipeline.Process{}, err
	}
	p, err := loadProcessForWrite(ctx, tx, itw.ProcessID, operation, opts)
	if err != nil {
		return pipeline.Interview{}, pipeline.Process{}, err
	}
	if p.State.IsClosed() {
		return pipeline.Interview{}, pipeline.Process{}, closedProcess(operation,
			fmt.Sprintf("process %d is %s; reopen it first", p.ID, p.State))
	}
	return itw, p, nil
}

// requireConsultants rejects unknown or inactive consultant ids.
func requireConsultants(ctx context.Context, tx *store.Tx, operation string, ids []int64) error {
	ids = pipeline.NormalizeIDs(ids)
	found, err := tx.ConsultantsByID(ctx, ids)
	if err != nil {
		return err
	}
	for _, id := range ids {
		c, ok := found[id]
		if !ok {
			return services.Wrap(services.ErrNotFound, "workflow", operation, fmt.Sprintf("consultant %d does not exist", id), nil)
		}
		if !c.Active {
			return validation(operation, fmt.Sprintf("consultant %s is inactive", c.Trigram))
		}
	}
	return nil
}
