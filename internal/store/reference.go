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

const consultantColumns = "id, trigram, full_name, email, privilege, limited_to_source_id, subsidiary_id, active, date_joined"

func scanConsultant(scanner rowScanner) (pipeline.Consultant, error) {
	var (
		c          pipeline.Consultant
		privilege  int
		source     sql.NullInt64
		subsidiary sql.NullInt64
		active     int
		joined     sql.NullString
	)
	if err := scanner.Scan(&c.ID, &c.Trigram, &c.FullName, &c.Email, &privilege, &source, &subsidiary, &active, &joined); err != nil {
		return pipeline.Consultant{}, err
	}
	c.Privilege = pipeline.Privilege(privilege)
	c.LimitedToSource = scanNullableInt64(source)
	c.SubsidiaryID = scanNullableInt64(subsidiary)
	c.Active = active != 0
	if joined.Valid {
		c.DateJoined = parseDate(joined.String)
	}
	return c, nil
}

// InsertConsultant stores a new consultant and assigns its ID.
func (t *Tx) InsertConsultant(ctx context.Context, c *pipeline.Consultant) error {
	trigram := strings.ToUpper(strings.TrimSpace(c.Trigram))
	if trigram == "" {
		return services.Wrap(services.ErrValidation, "store", "insert consultant", "trigram is required", nil)
	}
	if c.Privilege < pipeline.PrivilegeAll || c.Privilege > pipeline.PrivilegeExternalReadOnly {
		c.Privilege = pipeline.PrivilegeAll
	}
	var joined any
	if !c.DateJoined.IsZero() {
		joined = formatDate(c.DateJoined)
	}
	res, err := t.q.ExecContext(ctx,
		`INSERT INTO consultants (trigram, full_name, email, privilege, limited_to_source_id, subsidiary_id, active, date_joined)
         VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		trigram, strings.TrimSpace(c.FullName), strings.TrimSpace(c.Email), int(c.Privilege),
		nullableInt64(c.LimitedToSource), nullableInt64(c.SubsidiaryID), boolToInt(c.Active), joined,
	)
	if err != nil {
		return fmt.Errorf("insert consultant: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("consultant id: %w", err)
	}
	c.ID = id
	c.Trigram = trigram
	return nil
}

// Consultant fetches a consultant by id.
func (t *Tx) Consultant(ctx context.Context, id int64) (pipeline.Consultant, error) {
	row := t.q.QueryRowContext(ctx, "SELECT "+consultantColumns+" FROM consultants WHERE id = ?", id)
	c, err := scanConsultant(row)
	if errors.Is(err, sql.ErrNoRows) {
		return pipeline.Consultant{}, notFound("consultant", id)
	}
	return c, err
}

// ConsultantByTrigram fetches a consultant by trigram, case-insensitively.
func (t *Tx) ConsultantByTrigram(ctx context.Context, trigram string) (pipeline.Consultant, error) {
	key := strings.ToUpper(strings.TrimSpace(trigram))
	row := t.q.QueryRowContext(ctx, "SELECT "+consultantColumns+" FROM consultants WHERE trigram = ?", key)
	c, err := scanConsultant(row)
	if errors.Is(err, sql.ErrNoRows) {
		return pipeline.Consultant{}, services.Wrap(services.ErrNotFound, "store", "load consultant",
			fmt.Sprintf("no consultant with trigram %q", key), nil)
	}
	return c, err
}

// ConsultantsByID loads the listed consultants keyed by id. Unknown ids are
// absent from the result.
func (t *Tx) ConsultantsByID(ctx context.Context, ids []int64) (map[int64]pipeline.Consultant, error) {
	ids = pipeline.NormalizeIDs(ids)
	out := make(map[int64]pipeline.Consultant, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	rows, err := t.q.QueryContext(ctx,
		"SELECT "+consultantColumns+" FROM consultants WHERE id IN ("+makePlaceholders(len(ids))+")", int64Args(ids)...)
	if err != nil {
		return nil, fmt.Errorf("load consultants: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		c, err := scanConsultant(rows)
		if err != nil {
			return nil, err
		}
		out[c.ID] = c
	}
	return out, rows.Err()
}

// ListConsultants returns every consultant ordered by trigram.
func (t *Tx) ListConsultants(ctx context.Context) ([]pipeline.Consultant, error) {
	rows, err := t.q.QueryContext(ctx, "SELECT "+consultantColumns+" FROM consultants ORDER BY trigram")
	if err != nil {
		return nil, fmt.Errorf("list consultants: %w", err)
	}
	defer rows.Close()
	var out []pipeline.Consultant
	for rows.Next() {
		c, err := scanConsultant(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// InsertSubsidiary stores a subsidiary together with its informed set.
func (t *Tx) InsertSubsidiary(ctx context.Context, sub *pipeline.Subsidiary) error {
	code := strings.ToUpper(strings.TrimSpace(sub.Code))
	if code == "" {
		return services.Wrap(services.ErrValidation, "store", "insert subsidiary", "code is required", nil)
	}
	res, err := t.q.ExecContext(ctx,
		"INSERT INTO subsidiaries (name, code, responsible_id) VALUES (?, ?, ?)",
		strings.TrimSpace(sub.Name), code, nullableInt64(sub.ResponsibleID),
	)
	if err != nil {
		return fmt.Errorf("insert subsidiary: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("subsidiary id: %w", err)
	}
	sub.ID = id
	sub.Code = code
	sub.Informed = pipeline.NormalizeIDs(sub.Informed)
	return t.replaceIDs(ctx, informedSet, id, sub.Informed)
}

// UpdateSubsidiary rewrites the responsible and informed set of a subsidiary.
func (t *Tx) UpdateSubsidiary(ctx context.Context, sub pipeline.Subsidiary) error {
	res, err := t.q.ExecContext(ctx,
		"UPDATE subsidiaries SET name = ?, responsible_id = ? WHERE id = ?",
		strings.TrimSpace(sub.Name), nullableInt64(sub.ResponsibleID), sub.ID,
	)
	if err != nil {
		return fmt.Errorf("update subsidiary: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return notFound("subsidiary", sub.ID)
	}
	return t.replaceIDs(ctx, informedSet, sub.ID, sub.Informed)
}

// Subsidiary fetches a subsidiary and its informed set.
func (t *Tx) Subsidiary(ctx context.Context, id int64) (pipeline.Subsidiary, error) {
	var (
		sub         pipeline.Subsidiary
		responsible sql.NullInt64
	)
	err := t.q.QueryRowContext(ctx, "SELECT id, name, code, responsible_id FROM subsidiaries WHERE id = ?", id).
		Scan(&sub.ID, &sub.Name, &sub.Code, &responsible)
	if errors.Is(err, sql.ErrNoRows) {
		return pipeline.Subsidiary{}, notFound("subsidiary", id)
	}
	if err != nil {
		return pipeline.Subsidiary{}, fmt.Errorf("load subsidiary: %w", err)
	}
	sub.ResponsibleID = scanNullableInt64(responsible)
	informed, err := t.loadIDs(ctx, informedSet, id)
	if err != nil {
		return pipeline.Subsidiary{}, err
	}
	sub.Informed = informed
	return sub, nil
}

// SubsidiaryByCode fetches a subsidiary by its short code.
func (t *Tx) SubsidiaryByCode(ctx context.Context, code string) (pipeline.Subsidiary, error) {
	var id int64
	key := strings.ToUpper(strings.TrimSpace(code))
	err := t.q.QueryRowContext(ctx, "SELECT id FROM subsidiaries WHERE code = ?", key).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return pipeline.Subsidiary{}, services.Wrap(services.ErrNotFound, "store", "load subsidiary",
			fmt.Sprintf("no subsidiary with code %q", key), nil)
	}
	if err != nil {
		return pipeline.Subsidiary{}, fmt.Errorf("load subsidiary: %w", err)
	}
	return t.Subsidiary(ctx, id)
}

// ListSubsidiaries returns every subsidiary ordered by code.
func (t *Tx) ListSubsidiaries(ctx context.Context) ([]pipeline.Subsidiary, error) {
	rows, err := t.q.QueryContext(ctx, "SELECT id FROM subsidiaries ORDER BY code")
	if err != nil {
		return nil, fmt.Errorf("list subsidiaries: %w", err)
	}
	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, err
		}
		ids = append(ids, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}
	out := make([]pipeline.Subsidiary, 0, len(ids))
	for _, id := range ids {
		sub, err := t.Subsidiary(ctx, id)
		if err != nil {
			return nil, err
		}
		out = append(out, sub)
	}
	return out, nil
}

// InsertSource stores a candidate source.
func (t *Tx) InsertSource(ctx context.Context, src *pipeline.Source) error {
	name := strings.TrimSpace(src.Name)
	if name == "" {
		return services.Wrap(services.ErrValidation, "store", "insert source", "name is required", nil)
	}
	res, err := t.q.ExecContext(ctx,
		"INSERT INTO sources (name, category, archived) VALUES (?, ?, ?)",
		name, strings.TrimSpace(src.Category), boolToInt(src.Archived),
	)
	if err != nil {
		return fmt.Errorf("insert source: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("source id: %w", err)
	}
	src.ID = id
	src.Name = name
	return nil
}

// ListSources returns every source ordered by name.
func (t *Tx) ListSources(ctx context.Context) ([]pipeline.Source, error) {
	rows, err := t.q.QueryContext(ctx, "SELECT id, name, category, archived FROM sources ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("list sources: %w", err)
	}
	defer rows.Close()
	var out []pipeline.Source
	for rows.Next() {
		var (
			src      pipeline.Source
			archived int
		)
		if err := rows.Scan(&src.ID, &src.Name, &src.Category, &archived); err != nil {
			return nil, err
		}
		src.Archived = archived != 0
		out = append(out, src)
	}
	return out, rows.Err()
}

// InsertContractType stores a contract type.
func (t *Tx) InsertContractType(ctx context.Context, ct *pipeline.ContractType) error {
	name := strings.TrimSpace(ct.Name)
	if name == "" {
		return services.Wrap(services.ErrValidation, "store", "insert contract type", "name is required", nil)
	}
	res, err := t.q.ExecContext(ctx,
		"INSERT INTO contract_types (name, has_duration) VALUES (?, ?)", name, boolToInt(ct.HasDuration))
	if err != nil {
		return fmt.Errorf("insert contract type: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("contract type id: %w", err)
	}
	ct.ID = id
	ct.Name = name
	return nil
}

// ContractType fetches a contract type by id.
func (t *Tx) ContractType(ctx context.Context, id int64) (pipeline.ContractType, error) {
	var (
		ct          pipeline.ContractType
		hasDuration int
	)
	err := t.q.QueryRowContext(ctx, "SELECT id, name, has_duration FROM contract_types WHERE id = ?", id).
		Scan(&ct.ID, &ct.Name, &hasDuration)
	if errors.Is(err, sql.ErrNoRows) {
		return pipeline.ContractType{}, notFound("contract type", id)
	}
	if err != nil {
		return pipeline.ContractType{}, fmt.Errorf("load contract type: %w", err)
	}
	ct.HasDuration = hasDuration != 0
	return ct, nil
}
