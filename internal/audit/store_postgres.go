package audit

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
)

// PostgresStore persists audit events through database/sql with the pq
// driver. Audit writes sit off the ledger hot path, so the plain
// driver is enough here.
type PostgresStore struct {
	db *sql.DB
}

// OpenPostgres opens a database/sql handle for the audit store.
func OpenPostgres(url string) (*sql.DB, error) {
	db, err := sql.Open("postgres", url)
	if err != nil {
		return nil, fmt.Errorf("open audit db: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("audit db ping failed: %w", err)
	}
	return db, nil
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Append(ctx context.Context, event Event) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO audit_events (category, action, actor, subject, amount, request_id, device, occurred_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, string(event.Action.Category()), string(event.Action), event.Actor, event.Subject,
		int64(event.Amount), event.RequestID, event.Device, event.OccurredAt)
	if err != nil {
		return fmt.Errorf("append audit event: %w", err)
	}
	return nil
}
