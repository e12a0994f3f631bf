package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"hiretrack/internal/notifications"
	"hiretrack/internal/pipeline"
)

const outboxColumns = `seq, event_id, process_id, kind, old_state, new_state, subject, recipients_json, status,
    attempts, last_error, created_at, delivered_at`

func scanEvent(scanner rowScanner) (notifications.Event, error) {
	var (
		e          notifications.Event
		kind       string
		oldState   string
		newState   string
		recipients string
		status     string
		lastError  sql.NullString
		created    string
		delivered  sql.NullString
	)
	if err := scanner.Scan(&e.Sequence, &e.ID, &e.ProcessID, &kind, &oldState, &newState, &e.Subject,
		&recipients, &status, &e.Attempts, &lastError, &created, &delivered); err != nil {
		return notifications.Event{}, err
	}
	e.Kind = notifications.Kind(kind)
	e.OldState = pipeline.ProcessState(oldState)
	e.NewState = pipeline.ProcessState(newState)
	e.Status = notifications.Status(status)
	e.LastError = lastError.String
	e.CreatedAt = parseTimeOrZero(created)
	e.DeliveredAt = scanNullableTime(delivered)
	if err := json.Unmarshal([]byte(recipients), &e.Recipients); err != nil {
		return notifications.Event{}, fmt.Errorf("decode recipients of event %d: %w", e.Sequence, err)
	}
	return e, nil
}

// EnqueueEvent appends an event to the outbox and assigns its sequence.
func (t *Tx) EnqueueEvent(ctx context.Context, e *notifications.Event) error {
	payload, err := json.Marshal(e.Recipients)
	if err != nil {
		return fmt.Errorf("encode recipients: %w", err)
	}
	res, err := t.q.ExecContext(ctx,
		`INSERT INTO notification_outbox (event_id, process_id, kind, old_state, new_state, subject,
             recipients_json, status, created_at)
         VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.ProcessID, string(e.Kind), string(e.OldState), string(e.NewState), e.Subject,
		string(payload), string(notifications.StatusPending), formatTime(e.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("enqueue notification: %w", err)
	}
	seq, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("notification sequence: %w", err)
	}
	e.Sequence = seq
	e.Status = notifications.StatusPending
	return nil
}

// BlankEventSubjects removes candidate names from queued and delivered events
// of the candidate's processes.
func (t *Tx) BlankEventSubjects(ctx context.Context, candidateID int64) error {
	if _, err := t.q.ExecContext(ctx,
		`UPDATE notification_outbox SET subject = ''
         WHERE process_id IN (SELECT id FROM processes WHERE candidate_id = ?)`, candidateID); err != nil {
		return fmt.Errorf("blank event subjects: %w", err)
	}
	return nil
}

// PendingEvents returns undelivered, unparked events in sequence order.
func (s *Store) PendingEvents(ctx context.Context, limit int) ([]notifications.Event, error) {
	if limit <= 0 {
		limit = 50
	}
	return s.queryEvents(ensureContext(ctx),
		"SELECT "+outboxColumns+" FROM notification_outbox WHERE status = ? ORDER BY seq LIMIT ?",
		string(notifications.StatusPending), limit)
}

// ParkedProcesses returns the processes owning at least one parked event.
func (s *Store) ParkedProcesses(ctx context.Context) ([]int64, error) {
	rows, err := s.db.QueryContext(ensureContext(ctx),
		"SELECT DISTINCT process_id FROM notification_outbox WHERE status = ? ORDER BY process_id",
		string(notifications.StatusFailed))
	if err != nil {
		return nil, fmt.Errorf("list parked notifications: %w", err)
	}
	defer rows.Close()
	ids := make([]int64, 0)
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// ListEvents returns outbox events, newest first. An empty status lists all.
func (s *Store) ListEvents(ctx context.Context, status notifications.Status, limit int) ([]notifications.Event, error) {
	if limit <= 0 {
		limit = 100
	}
	if status == "" {
		return s.queryEvents(ensureContext(ctx),
			"SELECT "+outboxColumns+" FROM notification_outbox ORDER BY seq DESC LIMIT ?", limit)
	}
	return s.queryEvents(ensureContext(ctx),
		"SELECT "+outboxColumns+" FROM notification_outbox WHERE status = ? ORDER BY seq DESC LIMIT ?",
		string(status), limit)
}

func (s *Store) queryEvents(ctx context.Context, query string, args ...any) ([]notifications.Event, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	defer rows.Close()
	events := make([]notifications.Event, 0)
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

// MarkDelivered records a successful delivery.
func (s *Store) MarkDelivered(ctx context.Context, sequence int64, at time.Time) error {
	if _, err := s.execWithRetry(ctx,
		"UPDATE notification_outbox SET status = ?, delivered_at = ?, last_error = NULL WHERE seq = ?",
		string(notifications.StatusDelivered), formatTime(at), sequence,
	); err != nil {
		return fmt.Errorf("mark notification delivered: %w", err)
	}
	return nil
}

// MarkAttemptFailed counts a failed delivery; park moves the event to failed
// where it waits for RetryFailed.
func (s *Store) MarkAttemptFailed(ctx context.Context, sequence int64, message string, park bool) error {
	status := notifications.StatusPending
	if park {
		status = notifications.StatusFailed
	}
	if _, err := s.execWithRetry(ctx,
		"UPDATE notification_outbox SET attempts = attempts + 1, last_error = ?, status = ? WHERE seq = ?",
		nullableString(message), string(status), sequence,
	); err != nil {
		return fmt.Errorf("record notification failure: %w", err)
	}
	return nil
}

// RetryFailed moves parked events back to pending with a fresh attempt budget.
// With no sequences every parked event is retried.
func (s *Store) RetryFailed(ctx context.Context, sequences ...int64) (int64, error) {
	query := "UPDATE notification_outbox SET status = ?, attempts = 0, last_error = NULL WHERE status = ?"
	args := []any{string(notifications.StatusPending), string(notifications.StatusFailed)}
	if len(sequences) > 0 {
		query += " AND seq IN (" + makePlaceholders(len(sequences)) + ")"
		args = append(args, int64Args(sequences)...)
	}
	res, err := s.execWithRetry(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("retry failed notifications: %w", err)
	}
	return res.RowsAffected()
}

// OutboxStats counts events by status.
func (s *Store) OutboxStats(ctx context.Context) (map[notifications.Status]int, error) {
	rows, err := s.db.QueryContext(ensureContext(ctx), "SELECT status, COUNT(1) FROM notification_outbox GROUP BY status")
	if err != nil {
		return nil, fmt.Errorf("outbox stats: %w", err)
	}
	defer rows.Close()
	stats := make(map[notifications.Status]int)
	for rows.Next() {
		var (
			status string
			count  int
		)
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		stats[notifications.Status(status)] = count
	}
	return stats, rows.Err()
}
