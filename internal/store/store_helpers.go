package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"hiretrack/internal/pipeline"
)

// timeLayout has a fixed-width fraction so stored timestamps sort lexically.
const (
	timeLayout = "2006-01-02T15:04:05.000000000Z07:00"
	dateLayout = "2006-01-02"
)

type rowScanner interface {
	Scan(dest ...any) error
}

func formatTime(value time.Time) string {
	return value.UTC().Format(timeLayout)
}

func parseTimeString(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("empty")
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02 15:04:05", value)
}

func parseTimeOrZero(value string) time.Time {
	t, err := parseTimeString(value)
	if err != nil {
		return time.Time{}
	}
	return t
}

func nullableTime(value *time.Time) any {
	if value == nil {
		return nil
	}
	return formatTime(*value)
}

func scanNullableTime(value sql.NullString) *time.Time {
	if !value.Valid {
		return nil
	}
	t, err := parseTimeString(value.String)
	if err != nil {
		return nil
	}
	return &t
}

// Calendar dates are stored without a zone and read back as UTC midnight.
func formatDate(value time.Time) string {
	return value.Format(dateLayout)
}

func nullableDate(value *time.Time) any {
	if value == nil {
		return nil
	}
	return formatDate(*value)
}

func parseDate(value string) time.Time {
	t, err := time.Parse(dateLayout, value)
	if err != nil {
		return time.Time{}
	}
	return t
}

func scanNullableDate(value sql.NullString) *time.Time {
	if !value.Valid || value.String == "" {
		return nil
	}
	t := parseDate(value.String)
	if t.IsZero() {
		return nil
	}
	return &t
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func nullableInt64(value *int64) any {
	if value == nil {
		return nil
	}
	return *value
}

func nullableInt(value *int) any {
	if value == nil {
		return nil
	}
	return *value
}

func scanNullableInt64(value sql.NullInt64) *int64 {
	if !value.Valid {
		return nil
	}
	v := value.Int64
	return &v
}

func scanNullableInt(value sql.NullInt64) *int {
	if !value.Valid {
		return nil
	}
	v := int(value.Int64)
	return &v
}

func boolToInt(value bool) int {
	if value {
		return 1
	}
	return 0
}

func makePlaceholders(count int) string {
	if count <= 0 {
		return ""
	}
	placeholders := make([]byte, 0, count*2)
	for i := 0; i < count; i++ {
		if i > 0 {
			placeholders = append(placeholders, ',')
		}
		placeholders = append(placeholders, '?')
	}
	return string(placeholders)
}

func int64Args(ids []int64) []any {
	args := make([]any, 0, len(ids))
	for _, id := range ids {
		args = append(args, id)
	}
	return args
}

// idSet describes a join table holding a consultant set for an owner row.
type idSet struct {
	table string
	owner string
}

var (
	responsiblesSet = idSet{table: "process_responsibles", owner: "process_id"}
	subscribersSet  = idSet{table: "process_subscribers", owner: "process_id"}
	interviewersSet = idSet{table: "interview_interviewers", owner: "interview_id"}
	informedSet     = idSet{table: "subsidiary_informed", owner: "subsidiary_id"}
)

func (t *Tx) loadIDs(ctx context.Context, set idSet, ownerID int64) ([]int64, error) {
	rows, err := t.q.QueryContext(ctx,
		"SELECT consultant_id FROM "+set.table+" WHERE "+set.owner+" = ? ORDER BY consultant_id", ownerID)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", set.table, err)
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

// replaceIDs rewrites the set for ownerID with the normalized ids.
func (t *Tx) replaceIDs(ctx context.Context, set idSet, ownerID int64, ids []int64) error {
	if _, err := t.q.ExecContext(ctx, "DELETE FROM "+set.table+" WHERE "+set.owner+" = ?", ownerID); err != nil {
		return fmt.Errorf("clear %s: %w", set.table, err)
	}
	for _, id := range pipeline.NormalizeIDs(ids) {
		if _, err := t.q.ExecContext(ctx,
			"INSERT INTO "+set.table+" ("+set.owner+", consultant_id) VALUES (?, ?)", ownerID, id); err != nil {
			return fmt.Errorf("insert %s: %w", set.table, err)
		}
	}
	return nil
}
