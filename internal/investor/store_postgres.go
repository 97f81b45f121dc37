package investor

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"bondgate/internal/platform/postgres"
	id "bondgate/pkg/domain"
	"bondgate/pkg/platform/sentinel"
)

// PostgresStore persists investor records in Postgres.
type PostgresStore struct {
	q postgres.Querier
}

func NewPostgresStore(q postgres.Querier) *PostgresStore {
	return &PostgresStore{q: q}
}

const uniqueViolation = "23505"

func (s *PostgresStore) Create(ctx context.Context, record *Record) error {
	_, err := s.q.Exec(ctx, `
		INSERT INTO investors (owner, full_names, country, active, total_units, available_funds, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, uuid.UUID(record.Owner), record.FullNames, record.Country, record.Active,
		int64(record.TotalUnits), int64(record.AvailableFunds), record.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return sentinel.ErrAlreadyExists
		}
		return fmt.Errorf("create investor: %w", err)
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, owner id.InvestorID) (*Record, error) {
	var (
		record Record
		ownerU uuid.UUID
		units  int64
		funds  int64
	)
	err := s.q.QueryRow(ctx, `
		SELECT owner, full_names, country, active, total_units, available_funds, created_at
		FROM investors WHERE owner = $1
	`, uuid.UUID(owner)).Scan(&ownerU, &record.FullNames, &record.Country,
		&record.Active, &units, &funds, &record.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("get investor: %w", err)
	}
	record.Owner = id.InvestorID(ownerU)
	record.TotalUnits = uint64(units)
	record.AvailableFunds = uint64(funds)
	return &record, nil
}

func (s *PostgresStore) Update(ctx context.Context, record *Record) error {
	tag, err := s.q.Exec(ctx, `
		UPDATE investors
		SET active = $2, total_units = $3, available_funds = $4
		WHERE owner = $1
	`, uuid.UUID(record.Owner), record.Active, int64(record.TotalUnits), int64(record.AvailableFunds))
	if err != nil {
		return fmt.Errorf("update investor: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}
