package issuer

import (
	"context"
	"fmt"

	"bondgate/internal/platform/postgres"
	"bondgate/pkg/platform/sentinel"
)

// PostgresStore persists the issuer registry in Postgres. The capacity
// bound is enforced here, inside the same transaction as the append when
// the store is built over a pgx.Tx.
type PostgresStore struct {
	q postgres.Querier
}

func NewPostgresStore(q postgres.Querier) *PostgresStore {
	return &PostgresStore{q: q}
}

func (s *PostgresStore) Init(ctx context.Context) error {
	tag, err := s.q.Exec(ctx, `
		INSERT INTO config_registry (singleton) VALUES (true)
		ON CONFLICT (singleton) DO NOTHING
	`)
	if err != nil {
		return fmt.Errorf("init config registry: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return sentinel.ErrAlreadyExists
	}
	return nil
}

func (s *PostgresStore) Append(ctx context.Context, record Record) error {
	var initialized bool
	err := s.q.QueryRow(ctx, `SELECT initialized FROM config_registry`).Scan(&initialized)
	if err != nil {
		return sentinel.ErrNotFound
	}

	var count int
	if err := s.q.QueryRow(ctx, `SELECT count(*) FROM issuers`).Scan(&count); err != nil {
		return fmt.Errorf("count issuers: %w", err)
	}
	if count >= MaxIssuers {
		return sentinel.ErrCapacity
	}

	if _, err := s.q.Exec(ctx, `INSERT INTO issuers (name) VALUES ($1)`, record.Name); err != nil {
		return fmt.Errorf("append issuer: %w", err)
	}
	return nil
}

func (s *PostgresStore) List(ctx context.Context) ([]Record, error) {
	var initialized bool
	if err := s.q.QueryRow(ctx, `SELECT initialized FROM config_registry`).Scan(&initialized); err != nil {
		return nil, sentinel.ErrNotFound
	}

	rows, err := s.q.Query(ctx, `SELECT name FROM issuers ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("list issuers: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var r Record
		if err := rows.Scan(&r.Name); err != nil {
			return nil, err
		}
		records = append(records, r)
	}
	return records, rows.Err()
}
