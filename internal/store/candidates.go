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

const candidateColumns = "id, name, email, phone, linkedin_url, anonymized, anonymized_hashed_name, anonymized_hashed_email, created_at"

func scanCandidate(scanner rowScanner) (pipeline.Candidate, error) {
	var (
		c          pipeline.Candidate
		anonymized int
		created    string
	)
	if err := scanner.Scan(&c.ID, &c.Name, &c.Email, &c.Phone, &c.LinkedinURL, &anonymized,
		&c.AnonymizedHashedName, &c.AnonymizedHashedEmail, &created); err != nil {
		return pipeline.Candidate{}, err
	}
	c.Anonymized = anonymized != 0
	c.CreatedAt = parseTimeOrZero(created)
	return c, nil
}

// InsertCandidate stores a new candidate and assigns its ID.
func (t *Tx) InsertCandidate(ctx context.Context, c *pipeline.Candidate) error {
	if strings.TrimSpace(c.Name) == "" {
		return services.Wrap(services.ErrValidation, "store", "insert candidate", "name is required", nil)
	}
	created := t.now()
	res, err := t.q.ExecContext(ctx,
		`INSERT INTO candidates (name, email, phone, linkedin_url, created_at) VALUES (?, ?, ?, ?, ?)`,
		strings.TrimSpace(c.Name), strings.TrimSpace(c.Email), strings.TrimSpace(c.Phone),
		strings.TrimSpace(c.LinkedinURL), formatTime(created),
	)
	if err != nil {
		return fmt.Errorf("insert candidate: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("candidate id: %w", err)
	}
	c.ID = id
	c.CreatedAt = created.UTC()
	return nil
}

// Candidate fetches a candidate by id.
func (t *Tx) Candidate(ctx context.Context, id int64) (pipeline.Candidate, error) {
	row := t.q.QueryRowContext(ctx, "SELECT "+candidateColumns+" FROM candidates WHERE id = ?", id)
	c, err := scanCandidate(row)
	if errors.Is(err, sql.ErrNoRows) {
		return pipeline.Candidate{}, notFound("candidate", id)
	}
	if err != nil {
		return pipeline.Candidate{}, fmt.Errorf("load candidate: %w", err)
	}
	return c, nil
}

func (t *Tx) queryCandidates(ctx context.Context, where string, args ...any) ([]pipeline.Candidate, error) {
	rows, err := t.q.QueryContext(ctx, "SELECT "+candidateColumns+" FROM candidates "+where+" ORDER BY id", args...)
	if err != nil {
		return nil, fmt.Errorf("list candidates: %w", err)
	}
	defer rows.Close()
	out := make([]pipeline.Candidate, 0)
	for rows.Next() {
		c, err := scanCandidate(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// ActiveCandidates lists candidates that have not been anonymized.
func (t *Tx) ActiveCandidates(ctx context.Context) ([]pipeline.Candidate, error) {
	return t.queryCandidates(ctx, "WHERE anonymized = 0")
}

// AnonymizedMatches lists anonymized candidates sharing either hash. Empty
// hashes never match.
func (t *Tx) AnonymizedMatches(ctx context.Context, nameHash, emailHash string) ([]pipeline.Candidate, error) {
	return t.queryCandidates(ctx,
		`WHERE anonymized = 1 AND (
             (? <> '' AND anonymized_hashed_name = ?) OR
             (? <> '' AND anonymized_hashed_email = ?))`,
		nameHash, nameHash, emailHash, emailHash)
}

// AnonymizeCandidate writes the scrubbed candidate. The update only applies to
// a row that is not yet anonymized; false means another writer got there first.
func (t *Tx) AnonymizeCandidate(ctx context.Context, c pipeline.Candidate) (bool, error) {
	res, err := t.q.ExecContext(ctx,
		`UPDATE candidates
         SET name = ?, email = ?, phone = ?, linkedin_url = ?, anonymized = 1,
             anonymized_hashed_name = ?, anonymized_hashed_email = ?
         WHERE id = ? AND anonymized = 0`,
		c.Name, c.Email, c.Phone, c.LinkedinURL, c.AnonymizedHashedName, c.AnonymizedHashedEmail, c.ID,
	)
	if err != nil {
		return false, fmt.Errorf("anonymize candidate: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// InsertDocument records a document attached to a candidate.
func (t *Tx) InsertDocument(ctx context.Context, doc *pipeline.Document) error {
	if strings.TrimSpace(doc.Path) == "" {
		return services.Wrap(services.ErrValidation, "store", "insert document", "path is required", nil)
	}
	created := t.now()
	res, err := t.q.ExecContext(ctx,
		"INSERT INTO documents (candidate_id, kind, path, still_valid, created_at) VALUES (?, ?, ?, ?, ?)",
		doc.CandidateID, string(doc.Kind), doc.Path, boolToInt(doc.StillValid), formatTime(created),
	)
	if err != nil {
		return fmt.Errorf("insert document: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("document id: %w", err)
	}
	doc.ID = id
	doc.CreatedAt = created.UTC()
	return nil
}

// Documents lists a candidate's documents, oldest first.
func (t *Tx) Documents(ctx context.Context, candidateID int64) ([]pipeline.Document, error) {
	rows, err := t.q.QueryContext(ctx,
		"SELECT id, candidate_id, kind, path, still_valid, created_at FROM documents WHERE candidate_id = ? ORDER BY id",
		candidateID)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	defer rows.Close()
	out := make([]pipeline.Document, 0)
	for rows.Next() {
		var (
			doc     pipeline.Document
			kind    string
			valid   int
			created string
		)
		if err := rows.Scan(&doc.ID, &doc.CandidateID, &kind, &doc.Path, &valid, &created); err != nil {
			return nil, err
		}
		doc.Kind = pipeline.DocumentKind(kind)
		doc.StillValid = valid != 0
		doc.CreatedAt = parseTimeOrZero(created)
		out = append(out, doc)
	}
	return out, rows.Err()
}

// DeleteDocuments removes every document row of a candidate and returns the
// stored file paths so the caller can remove the files after commit.
func (t *Tx) DeleteDocuments(ctx context.Context, candidateID int64) ([]string, error) {
	docs, err := t.Documents(ctx, candidateID)
	if err != nil {
		return nil, err
	}
	if _, err := t.q.ExecContext(ctx, "DELETE FROM documents WHERE candidate_id = ?", candidateID); err != nil {
		return nil, fmt.Errorf("delete documents: %w", err)
	}
	paths := make([]string, 0, len(docs))
	for _, doc := range docs {
		paths = append(paths, doc.Path)
	}
	return paths, nil
}
