package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"hiretrack/internal/pipeline"
)

const interviewColumns = `id, process_id, rank, planned_date, state, minute, next_interview_goal,
    suggested_interviewer_id, created_at, updated_at`

// InterviewFilter narrows interview listings. Zero values match everything.
type InterviewFilter struct {
	ProcessID int64
	States    []pipeline.InterviewState
}

func scanInterview(scanner rowScanner) (pipeline.Interview, error) {
	var (
		itw       pipeline.Interview
		planned   sql.NullString
		state     string
		suggested sql.NullInt64
		created   string
		updated   string
	)
	if err := scanner.Scan(&itw.ID, &itw.ProcessID, &itw.Rank, &planned, &state, &itw.Minute,
		&itw.NextInterviewGoal, &suggested, &created, &updated); err != nil {
		return pipeline.Interview{}, err
	}
	itw.PlannedDate = scanNullableTime(planned)
	itw.State = pipeline.InterviewState(state)
	itw.SuggestedInterviewer = scanNullableInt64(suggested)
	itw.CreatedAt = parseTimeOrZero(created)
	itw.UpdatedAt = parseTimeOrZero(updated)
	return itw, nil
}

// InsertInterview appends an interview to its process. The rank is one past
// the process's current maximum, computed inside the transaction; the
// UNIQUE(process_id, rank) constraint rejects a concurrent duplicate.
func (t *Tx) InsertInterview(ctx context.Context, itw *pipeline.Interview) error {
	var rank int
	if err := t.q.QueryRowContext(ctx,
		"SELECT COALESCE(MAX(rank), 0) + 1 FROM interviews WHERE process_id = ?", itw.ProcessID,
	).Scan(&rank); err != nil {
		return fmt.Errorf("next interview rank: %w", err)
	}
	stamp := t.now()
	res, err := t.q.ExecContext(ctx,
		`INSERT INTO interviews (process_id, rank, planned_date, state, minute, next_interview_goal,
             suggested_interviewer_id, created_at, updated_at)
         VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		itw.ProcessID, rank, nullableTime(itw.PlannedDate), string(itw.State), itw.Minute,
		itw.NextInterviewGoal, nullableInt64(itw.SuggestedInterviewer), formatTime(stamp), formatTime(stamp),
	)
	if err != nil {
		return fmt.Errorf("insert interview: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("interview id: %w", err)
	}
	itw.ID = id
	itw.Rank = rank
	itw.CreatedAt = stamp.UTC()
	itw.UpdatedAt = stamp.UTC()
	itw.Interviewers = pipeline.NormalizeIDs(itw.Interviewers)
	return t.replaceIDs(ctx, interviewersSet, id, itw.Interviewers)
}

// SaveInterview rewrites the mutable fields of an interview. Rank and process
// are never changed.
func (t *Tx) SaveInterview(ctx context.Context, itw *pipeline.Interview) error {
	stamp := t.now()
	res, err := t.q.ExecContext(ctx,
		`UPDATE interviews
         SET planned_date = ?, state = ?, minute = ?, next_interview_goal = ?, suggested_interviewer_id = ?,
             updated_at = ?
         WHERE id = ?`,
		nullableTime(itw.PlannedDate), string(itw.State), itw.Minute, itw.NextInterviewGoal,
		nullableInt64(itw.SuggestedInterviewer), formatTime(stamp), itw.ID,
	)
	if err != nil {
		return fmt.Errorf("update interview: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return notFound("interview", itw.ID)
	}
	itw.UpdatedAt = stamp.UTC()
	itw.Interviewers = pipeline.NormalizeIDs(itw.Interviewers)
	return t.replaceIDs(ctx, interviewersSet, itw.ID, itw.Interviewers)
}

// MarkWaitInformation moves a PLANNED interview dated before now to
// WAIT_INFORMATION. It reports false when the interview was decided or
// replanned in the meantime, so a concurrent write is never overwritten.
func (t *Tx) MarkWaitInformation(ctx context.Context, id int64, now time.Time) (bool, error) {
	res, err := t.q.ExecContext(ctx,
		`UPDATE interviews SET state = ?, updated_at = ?
         WHERE id = ? AND state = ? AND planned_date IS NOT NULL AND planned_date < ?`,
		string(pipeline.InterviewWaitInformation), t.timestamp(), id, string(pipeline.InterviewPlanned),
		formatTime(now),
	)
	if err != nil {
		return false, fmt.Errorf("sweep interview: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// Interview fetches an interview with its interviewers.
func (t *Tx) Interview(ctx context.Context, id int64) (pipeline.Interview, error) {
	row := t.q.QueryRowContext(ctx, "SELECT "+interviewColumns+" FROM interviews WHERE id = ?", id)
	itw, err := scanInterview(row)
	if errors.Is(err, sql.ErrNoRows) {
		return pipeline.Interview{}, notFound("interview", id)
	}
	if err != nil {
		return pipeline.Interview{}, fmt.Errorf("load interview: %w", err)
	}
	interviewers, err := t.loadIDs(ctx, interviewersSet, id)
	if err != nil {
		return pipeline.Interview{}, err
	}
	itw.Interviewers = interviewers
	return itw, nil
}

// InterviewsByProcess lists a process's interviews ordered by rank.
func (t *Tx) InterviewsByProcess(ctx context.Context, processID int64) ([]pipeline.Interview, error) {
	return t.ListInterviews(ctx, InterviewFilter{ProcessID: processID})
}

// ListInterviews returns interviews matching the filter ordered by process and rank.
func (t *Tx) ListInterviews(ctx context.Context, filter InterviewFilter) ([]pipeline.Interview, error) {
	var (
		clauses []string
		args    []any
	)
	if filter.ProcessID > 0 {
		clauses = append(clauses, "process_id = ?")
		args = append(args, filter.ProcessID)
	}
	if len(filter.States) > 0 {
		clauses = append(clauses, "state IN ("+makePlaceholders(len(filter.States))+")")
		for _, state := range filter.States {
			args = append(args, string(state))
		}
	}
	query := "SELECT " + interviewColumns + " FROM interviews"
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += " ORDER BY process_id, rank"

	rows, err := t.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list interviews: %w", err)
	}
	interviews := make([]pipeline.Interview, 0)
	for rows.Next() {
		itw, err := scanInterview(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		interviews = append(interviews, itw)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for idx := range interviews {
		ids, err := t.loadIDs(ctx, interviewersSet, interviews[idx].ID)
		if err != nil {
			return nil, err
		}
		interviews[idx].Interviewers = ids
	}
	return interviews, nil
}
