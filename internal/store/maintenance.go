package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"hiretrack/internal/pipeline"
)

// DatabaseHealth captures diagnostic information about the database.
type DatabaseHealth struct {
	DBPath           string
	DatabaseExists   bool
	DatabaseReadable bool
	SchemaVersion    int
	MissingTables    []string
	IntegrityCheck   bool
	Processes        int
	Candidates       int
	Error            string
}

// PipelineSummary aggregates process counts for the status command.
type PipelineSummary struct {
	Total   int
	Open    int
	Closed  int
	ByState map[pipeline.ProcessState]int
}

var expectedTables = []string{
	"candidates",
	"consultants",
	"contract_types",
	"documents",
	"interview_interviewers",
	"interviews",
	"notification_outbox",
	"process_responsibles",
	"process_subscribers",
	"processes",
	"sources",
	"subsidiaries",
	"subsidiary_informed",
}

// ProcessStats returns a count of processes grouped by state.
func (s *Store) ProcessStats(ctx context.Context) (PipelineSummary, error) {
	rows, err := s.db.QueryContext(ensureContext(ctx), `SELECT state, COUNT(1) FROM processes GROUP BY state`)
	if err != nil {
		return PipelineSummary{}, fmt.Errorf("process stats: %w", err)
	}
	defer rows.Close()

	summary := PipelineSummary{ByState: make(map[pipeline.ProcessState]int)}
	for rows.Next() {
		var (
			state string
			count int
		)
		if err := rows.Scan(&state, &count); err != nil {
			return PipelineSummary{}, err
		}
		ps := pipeline.ProcessState(state)
		summary.ByState[ps] = count
		summary.Total += count
		if ps.IsClosed() {
			summary.Closed += count
		} else {
			summary.Open += count
		}
	}
	return summary, rows.Err()
}

// CheckHealth returns diagnostic information about the database.
func (s *Store) CheckHealth(ctx context.Context) (DatabaseHealth, error) {
	health := DatabaseHealth{DBPath: s.path}
	if s.path == "" {
		return health, errors.New("database path is unknown")
	}

	info, err := os.Stat(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return health, nil
		}
		return health, fmt.Errorf("stat database: %w", err)
	}
	if info.IsDir() {
		return health, fmt.Errorf("database path %q is a directory", s.path)
	}
	health.DatabaseExists = true

	connCtx, cancel := context.WithTimeout(ensureContext(ctx), 2*time.Second)
	defer cancel()

	if err := s.db.PingContext(connCtx); err != nil {
		health.Error = err.Error()
		return health, fmt.Errorf("ping database: %w", err)
	}
	health.DatabaseReadable = true

	if err := s.db.QueryRowContext(connCtx, "SELECT version FROM schema_version LIMIT 1").Scan(&health.SchemaVersion); err != nil {
		health.Error = err.Error()
		return health, fmt.Errorf("read schema version: %w", err)
	}

	present := make(map[string]struct{})
	rows, err := s.db.QueryContext(connCtx, "SELECT name FROM sqlite_master WHERE type = 'table'")
	if err != nil {
		health.Error = err.Error()
		return health, fmt.Errorf("list tables: %w", err)
	}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			rows.Close()
			health.Error = err.Error()
			return health, fmt.Errorf("scan table name: %w", err)
		}
		present[name] = struct{}{}
	}
	rows.Close()
	for _, table := range expectedTables {
		if _, ok := present[table]; !ok {
			health.MissingTables = append(health.MissingTables, table)
		}
	}

	if len(health.MissingTables) == 0 {
		if err := s.db.QueryRowContext(connCtx, "SELECT COUNT(*) FROM processes").Scan(&health.Processes); err != nil {
			health.Error = err.Error()
			return health, fmt.Errorf("count processes: %w", err)
		}
		if err := s.db.QueryRowContext(connCtx, "SELECT COUNT(*) FROM candidates").Scan(&health.Candidates); err != nil {
			health.Error = err.Error()
			return health, fmt.Errorf("count candidates: %w", err)
		}
	}

	var integrityResult string
	if err := s.db.QueryRowContext(connCtx, "PRAGMA integrity_check").Scan(&integrityResult); err != nil {
		health.Error = err.Error()
		return health, fmt.Errorf("integrity check: %w", err)
	}
	health.IntegrityCheck = strings.EqualFold(integrityResult, "ok")

	return health, nil
}
