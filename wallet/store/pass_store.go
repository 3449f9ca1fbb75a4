package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Pass is a stored wallet pass.
type Pass struct {
	ID                 string    `json:"id"`
	PassTypeIdentifier string    `json:"passTypeIdentifier"`
	SerialNumber       string    `json:"serialNumber"`
	OrganizationName   string    `json:"organizationName,omitempty"`
	Description        string    `json:"description,omitempty"`
	SourceURL          string    `json:"sourceUrl,omitempty"`
	Data               []byte    `json:"-"`
	AddedAt            time.Time `json:"addedAt"`
}

// PassStore reads passes directly and writes them through a Worker.
type PassStore struct {
	db     *sql.DB
	writer *Worker
}

func NewPassStore(db *sql.DB, writer *Worker) *PassStore {
	return &PassStore{db: db, writer: writer}
}

// Put stores p, replacing any pass with the same type identifier and serial
// number. inserted is false when an existing pass was replaced.
func (s *PassStore) Put(ctx context.Context, p Pass) (inserted bool, err error) {
	if p.PassTypeIdentifier == "" || p.SerialNumber == "" {
		return false, fmt.Errorf("Put: pass type identifier and serial number are required")
	}
	if p.AddedAt.IsZero() {
		p.AddedAt = time.Now().UTC()
	}

	err = s.writer.Do(ctx, func(ctx context.Context, tx *sql.Tx) error {
		var existing string
		err := tx.QueryRowContext(ctx, `
SELECT id FROM passes WHERE pass_type_identifier = ? AND serial_number = ?;
`, p.PassTypeIdentifier, p.SerialNumber).Scan(&existing)

		switch {
		case errors.Is(err, sql.ErrNoRows):
			if p.ID == "" {
				p.ID = uuid.NewString()
			}
			if _, err := tx.ExecContext(ctx, `
INSERT INTO passes(id, pass_type_identifier, serial_number, organization_name, description, source_url, data, added_at_ms)
VALUES (?, ?, ?, ?, ?, ?, ?, ?);
`, p.ID, p.PassTypeIdentifier, p.SerialNumber, p.OrganizationName, p.Description, p.SourceURL, p.Data, p.AddedAt.UnixMilli()); err != nil {
				return fmt.Errorf("Put insert: %w", err)
			}
			inserted = true
			return nil
		case err != nil:
			return fmt.Errorf("Put lookup: %w", err)
		}

		if _, err := tx.ExecContext(ctx, `
UPDATE passes SET organization_name = ?, description = ?, source_url = ?, data = ?, added_at_ms = ?
WHERE id = ?;
`, p.OrganizationName, p.Description, p.SourceURL, p.Data, p.AddedAt.UnixMilli(), existing); err != nil {
			return fmt.Errorf("Put update: %w", err)
		}
		return nil
	})
	return inserted, err
}

// Has reports whether a pass with the given type identifier and serial
// number is stored.
func (s *PassStore) Has(ctx context.Context, passTypeIdentifier, serialNumber string) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `
SELECT COUNT(*) FROM passes WHERE pass_type_identifier = ? AND serial_number = ?;
`, passTypeIdentifier, serialNumber).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("Has: %w", err)
	}
	return n > 0, nil
}

// DeleteByType removes every pass with the type identifier and returns how
// many were removed.
func (s *PassStore) DeleteByType(ctx context.Context, passTypeIdentifier string) (int64, error) {
	var removed int64
	err := s.writer.Do(ctx, func(ctx context.Context, tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `DELETE FROM passes WHERE pass_type_identifier = ?;`, passTypeIdentifier)
		if err != nil {
			return fmt.Errorf("DeleteByType: %w", err)
		}
		removed, err = res.RowsAffected()
		return err
	})
	return removed, err
}

// ListByType returns the passes with the type identifier, oldest first.
// Pass data is not loaded.
func (s *PassStore) ListByType(ctx context.Context, passTypeIdentifier string) ([]Pass, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT id, pass_type_identifier, serial_number, organization_name, description, source_url, added_at_ms
FROM passes WHERE pass_type_identifier = ?
ORDER BY added_at_ms, serial_number;
`, passTypeIdentifier)
	if err != nil {
		return nil, fmt.Errorf("ListByType: %w", err)
	}
	defer rows.Close()

	var out []Pass
	for rows.Next() {
		var p Pass
		var addedMs int64
		if err := rows.Scan(&p.ID, &p.PassTypeIdentifier, &p.SerialNumber, &p.OrganizationName, &p.Description, &p.SourceURL, &addedMs); err != nil {
			return nil, fmt.Errorf("ListByType scan: %w", err)
		}
		p.AddedAt = time.UnixMilli(addedMs).UTC()
		out = append(out, p)
	}
	return out, rows.Err()
}

// Count returns the number of stored passes.
func (s *PassStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM passes;`).Scan(&n); err != nil {
		return 0, fmt.Errorf("Count: %w", err)
	}
	return n, nil
}
