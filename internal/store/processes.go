package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"hiretrack/internal/pipeline"
	"hiretrack/internal/services"
)

// ErrInconsistentClose rejects a process whose end date disagrees with its
// closed state.
var ErrInconsistentClose = errors.New("end date must be set exactly when the process is closed")

const processColumns = `id, candidate_id, subsidiary_id, source_id, contract_type_id, salary_expectation,
    contract_duration, contract_start_date, start_date, end_date, state_override, reopened_at_rank, state,
    other_informations, closed_comment, created_at, updated_at`

// ProcessFilter narrows process listings. Zero values match everything.
type ProcessFilter struct {
	CandidateID  int64
	SubsidiaryID int64
	States       []pipeline.ProcessState
	OpenOnly     bool
}

func scanProcess(scanner rowScanner) (pipeline.Process, error) {
	var (
		p              pipeline.Process
		source         sql.NullInt64
		contractType   sql.NullInt64
		salary         sql.NullInt64
		duration       sql.NullInt64
		contractStart  sql.NullString
		start          string
		end            sql.NullString
		override       sql.NullString
		state          string
		created        string
		updated        string
		reopenedAtRank int
	)
	if err := scanner.Scan(&p.ID, &p.CandidateID, &p.SubsidiaryID, &source, &contractType, &salary,
		&duration, &contractStart, &start, &end, &override, &reopenedAtRank, &state,
		&p.OtherInformations, &p.ClosedComment, &created, &updated); err != nil {
		return pipeline.Process{}, err
	}
	p.SourceID = scanNullableInt64(source)
	p.ContractTypeID = scanNullableInt64(contractType)
	p.SalaryExpectation = scanNullableInt(salary)
	p.ContractDuration = scanNullableInt(duration)
	p.ContractStartDate = scanNullableDate(contractStart)
	p.StartDate = parseDate(start)
	p.EndDate = scanNullableDate(end)
	p.Override = pipeline.ProcessState(override.String)
	p.ReopenedAtRank = reopenedAtRank
	p.State = pipeline.ProcessState(state)
	p.CreatedAt = parseTimeOrZero(created)
	p.UpdatedAt = parseTimeOrZero(updated)
	return p, nil
}

func inconsistent(p pipeline.Process) error {
	return services.Wrap(services.ErrValidation, "store", "save process",
		fmt.Sprintf("process %d in state %s", p.ID, p.State), ErrInconsistentClose)
}

// InsertProcess stores a new process with its materialized state, responsible
// set, and subscribers.
func (t *Tx) InsertProcess(ctx context.Context, p *pipeline.Process) error {
	if !p.Consistent() {
		return inconsistent(*p)
	}
	stamp := t.now()
	res, err := t.q.ExecContext(ctx,
		`INSERT INTO processes (candidate_id, subsidiary_id, source_id, contract_type_id, salary_expectation,
             contract_duration, contract_start_date, start_date, end_date, state_override, reopened_at_rank, state,
             other_informations, closed_comment, created_at, updated_at)
         VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.CandidateID, p.SubsidiaryID, nullableInt64(p.SourceID), nullableInt64(p.ContractTypeID),
		nullableInt(p.SalaryExpectation), nullableInt(p.ContractDuration), nullableDate(p.ContractStartDate),
		formatDate(p.StartDate), nullableDate(p.EndDate), nullableString(string(p.Override)), p.ReopenedAtRank,
		string(p.State), p.OtherInformations, p.ClosedComment, formatTime(stamp), formatTime(stamp),
	)
	if err != nil {
		return fmt.Errorf("insert process: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("process id: %w", err)
	}
	p.ID = id
	p.CreatedAt = stamp.UTC()
	p.UpdatedAt = stamp.UTC()
	return t.writeProcessSets(ctx, p)
}

// SaveProcess rewrites a process row and its sets.
func (t *Tx) SaveProcess(ctx context.Context, p *pipeline.Process) error {
	if !p.Consistent() {
		return inconsistent(*p)
	}
	stamp := t.now()
	res, err := t.q.ExecContext(ctx,
		`UPDATE processes
         SET source_id = ?, contract_type_id = ?, salary_expectation = ?, contract_duration = ?,
             contract_start_date = ?, start_date = ?, end_date = ?, state_override = ?, reopened_at_rank = ?,
             state = ?, other_informations = ?, closed_comment = ?, updated_at = ?
         WHERE id = ?`,
		nullableInt64(p.SourceID), nullableInt64(p.ContractTypeID), nullableInt(p.SalaryExpectation),
		nullableInt(p.ContractDuration), nullableDate(p.ContractStartDate), formatDate(p.StartDate),
		nullableDate(p.EndDate), nullableString(string(p.Override)), p.ReopenedAtRank, string(p.State),
		p.OtherInformations, p.ClosedComment, formatTime(stamp), p.ID,
	)
	if err != nil {
		return fmt.Errorf("update process: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return notFound("process", p.ID)
	}
	p.UpdatedAt = stamp.UTC()
	return t.writeProcessSets(ctx, p)
}

func (t *Tx) writeProcessSets(ctx context.Context, p *pipeline.Process) error {
	p.Responsible = pipeline.NormalizeIDs(p.Responsible)
	p.Subscribers = pipeline.NormalizeIDs(p.Subscribers)
	if err := t.replaceIDs(ctx, responsiblesSet, p.ID, p.Responsible); err != nil {
		return err
	}
	return t.replaceIDs(ctx, subscribersSet, p.ID, p.Subscribers)
}

func (t *Tx) loadProcessSets(ctx context.Context, p *pipeline.Process) error {
	responsible, err := t.loadIDs(ctx, responsiblesSet, p.ID)
	if err != nil {
		return err
	}
	subscribers, err := t.loadIDs(ctx, subscribersSet, p.ID)
	if err != nil {
		return err
	}
	p.Responsible = responsible
	p.Subscribers = subscribers
	return nil
}

// Process fetches a process with its responsible and subscriber sets.
func (t *Tx) Process(ctx context.Context, id int64) (pipeline.Process, error) {
	row := t.q.QueryRowContext(ctx, "SELECT "+processColumns+" FROM processes WHERE id = ?", id)
	p, err := scanProcess(row)
	if errors.Is(err, sql.ErrNoRows) {
		return pipeline.Process{}, notFound("process", id)
	}
	if err != nil {
		return pipeline.Process{}, fmt.Errorf("load process: %w", err)
	}
	if err := t.loadProcessSets(ctx, &p); err != nil {
		return pipeline.Process{}, err
	}
	return p, nil
}

// ListProcesses returns processes matching the filter ordered by id.
func (t *Tx) ListProcesses(ctx context.Context, filter ProcessFilter) ([]pipeline.Process, error) {
	var (
		clauses []string
		args    []any
	)
	if filter.CandidateID > 0 {
		clauses = append(clauses, "candidate_id = ?")
		args = append(args, filter.CandidateID)
	}
	if filter.SubsidiaryID > 0 {
		clauses = append(clauses, "subsidiary_id = ?")
		args = append(args, filter.SubsidiaryID)
	}
	if len(filter.States) > 0 {
		clauses = append(clauses, "state IN ("+makePlaceholders(len(filter.States))+")")
		for _, state := range filter.States {
			args = append(args, string(state))
		}
	}
	if filter.OpenOnly {
		clauses = append(clauses, "end_date IS NULL")
	}
	query := "SELECT " + processColumns + " FROM processes"
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += " ORDER BY id"

	rows, err := t.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list processes: %w", err)
	}
	processes := make([]pipeline.Process, 0)
	for rows.Next() {
		p, err := scanProcess(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		processes = append(processes, p)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for idx := range processes {
		if err := t.loadProcessSets(ctx, &processes[idx]); err != nil {
			return nil, err
		}
	}
	return processes, nil
}

// ProcessesForUser lists the processes a consultant may see.
func (t *Tx) ProcessesForUser(ctx context.Context, user pipeline.Consultant, filter ProcessFilter) ([]pipeline.Process, error) {
	processes, err := t.ListProcesses(ctx, filter)
	if err != nil {
		return nil, err
	}
	return pipeline.ForUser(user, processes), nil
}

// ListProcessesForUser lists committed processes visible to a consultant.
func (s *Store) ListProcessesForUser(ctx context.Context, user pipeline.Consultant, filter ProcessFilter) ([]pipeline.Process, error) {
	return s.Read().ProcessesForUser(ensureContext(ctx), user, filter)
}

// ProcessSubject builds the human label used in notifications:
// candidate name and subsidiary code.
func (t *Tx) ProcessSubject(ctx context.Context, p pipeline.Process) (string, error) {
	var name, code string
	err := t.q.QueryRowContext(ctx,
		`SELECT c.name, s.code FROM candidates c, subsidiaries s WHERE c.id = ? AND s.id = ?`,
		p.CandidateID, p.SubsidiaryID).Scan(&name, &code)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Sprintf("Process #%d", p.ID), nil
	}
	if err != nil {
		return "", fmt.Errorf("load process subject: %w", err)
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Sprintf("Process #%d (%s)", p.ID, code), nil
	}
	return fmt.Sprintf("%s (%s)", name, code), nil
}
