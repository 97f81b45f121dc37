package bond

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"bondgate/internal/issuer"
	"bondgate/internal/platform/postgres"
	id "bondgate/pkg/domain"
	"bondgate/pkg/platform/sentinel"
)

// PostgresStore persists bond aggregates in Postgres. A row's presence
// means the bond is initialized.
type PostgresStore struct {
	q postgres.Querier
}

func NewPostgresStore(q postgres.Querier) *PostgresStore {
	return &PostgresStore{q: q}
}

const uniqueViolation = "23505"

const bondColumns = `id, owner, issuer_name, country, issue_no, type_of_bond, tenor, coupon_rate,
	total_amounts_offered, total_amounts_accepted, minimum_bid_amount, unit_cost, decimals,
	value_date, redemption_date, matured, investors, created_at`

func (s *PostgresStore) Create(ctx context.Context, record *Record) error {
	_, err := s.q.Exec(ctx, `
		INSERT INTO bonds (`+bondColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
	`, uuid.UUID(record.ID), uuid.UUID(record.Owner), record.Issuer.Name, record.Country,
		record.IssueNo, int16(record.TypeOfBond), int16(record.Tenor), int16(record.CouponRate),
		int64(record.TotalAmountsOffered), int64(record.TotalAmountsAccepted),
		int64(record.MinimumBidAmount), int64(record.UnitCost), int16(record.Decimals),
		record.ValueDate, record.RedemptionDate, record.Matured,
		investorArray(record.Investors), record.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return sentinel.ErrAlreadyExists
		}
		return fmt.Errorf("create bond: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetByID(ctx context.Context, bondID id.BondID) (*Record, error) {
	return s.get(ctx, `SELECT `+bondColumns+` FROM bonds WHERE id = $1`, uuid.UUID(bondID))
}

func (s *PostgresStore) GetByOwner(ctx context.Context, owner id.AdminID) (*Record, error) {
	return s.get(ctx, `SELECT `+bondColumns+` FROM bonds WHERE owner = $1`, uuid.UUID(owner))
}

func (s *PostgresStore) get(ctx context.Context, query string, arg any) (*Record, error) {
	var (
		record                            Record
		bondID, owner                     uuid.UUID
		typeOfBond, tenor, coupon, decs   int16
		offered, accepted, minBid, uCost  int64
		investors                         []uuid.UUID
	)
	err := s.q.QueryRow(ctx, query, arg).Scan(
		&bondID, &owner, &record.Issuer.Name, &record.Country, &record.IssueNo,
		&typeOfBond, &tenor, &coupon,
		&offered, &accepted, &minBid, &uCost, &decs,
		&record.ValueDate, &record.RedemptionDate, &record.Matured,
		&investors, &record.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("get bond: %w", err)
	}
	record.ID = id.BondID(bondID)
	record.Owner = id.AdminID(owner)
	record.TypeOfBond = TypeOfBond(typeOfBond)
	record.Tenor = uint8(tenor)
	record.CouponRate = uint8(coupon)
	record.TotalAmountsOffered = uint64(offered)
	record.TotalAmountsAccepted = uint64(accepted)
	record.MinimumBidAmount = uint64(minBid)
	record.UnitCost = uint64(uCost)
	record.Decimals = uint8(decs)
	record.Initialized = true
	record.Investors = make([]id.InvestorID, len(investors))
	for i, u := range investors {
		record.Investors[i] = id.InvestorID(u)
	}
	return &record, nil
}

func (s *PostgresStore) Update(ctx context.Context, record *Record) error {
	tag, err := s.q.Exec(ctx, `
		UPDATE bonds
		SET total_amounts_accepted = $2, matured = $3, investors = $4
		WHERE id = $1
	`, uuid.UUID(record.ID), int64(record.TotalAmountsAccepted), record.Matured,
		investorArray(record.Investors))
	if err != nil {
		return fmt.Errorf("update bond: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func investorArray(investors []id.InvestorID) []uuid.UUID {
	out := make([]uuid.UUID, len(investors))
	for i, inv := range investors {
		out[i] = uuid.UUID(inv)
	}
	return out
}

// PostgresDepositStore persists deposit records in Postgres.
type PostgresDepositStore struct {
	q postgres.Querier
}

func NewPostgresDepositStore(q postgres.Querier) *PostgresDepositStore {
	return &PostgresDepositStore{q: q}
}

func (s *PostgresDepositStore) Create(ctx context.Context, deposit *Deposit) error {
	var vaultTag *int16
	if deposit.VaultTag != nil {
		v := int16(*deposit.VaultTag)
		vaultTag = &v
	}
	_, err := s.q.Exec(ctx, `
		INSERT INTO deposits (id, bond_id, owner, authority_tag, vault_tag, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, uuid.UUID(deposit.ID), uuid.UUID(deposit.BondID), uuid.UUID(deposit.Owner),
		int16(deposit.AuthorityTag), vaultTag, deposit.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return sentinel.ErrAlreadyExists
		}
		return fmt.Errorf("create deposit: %w", err)
	}
	return nil
}

func (s *PostgresDepositStore) GetByBond(ctx context.Context, bondID id.BondID) (*Deposit, error) {
	var (
		deposit               Deposit
		depositID, bID, owner uuid.UUID
		authorityTag          int16
		vaultTag              *int16
	)
	err := s.q.QueryRow(ctx, `
		SELECT id, bond_id, owner, authority_tag, vault_tag, created_at
		FROM deposits WHERE bond_id = $1
	`, uuid.UUID(bondID)).Scan(&depositID, &bID, &owner, &authorityTag, &vaultTag, &deposit.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("get deposit: %w", err)
	}
	deposit.ID = id.DepositID(depositID)
	deposit.BondID = id.BondID(bID)
	deposit.Owner = id.AdminID(owner)
	deposit.AuthorityTag = byte(authorityTag)
	if vaultTag != nil {
		v := byte(*vaultTag)
		deposit.VaultTag = &v
	}
	deposit.Initialized = true
	return &deposit, nil
}

// PostgresTx runs bond mutations inside one database transaction, with
// all three store views bound to the same pgx.Tx.
type PostgresTx struct {
	pool postgres.TxBeginner
}

func NewPostgresTx(pool postgres.TxBeginner) *PostgresTx {
	return &PostgresTx{pool: pool}
}

func (t *PostgresTx) RunInTx(ctx context.Context, fn func(s TxStores) error) error {
	tx, err := t.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	stores := TxStores{
		Bonds:    NewPostgresStore(tx),
		Deposits: NewPostgresDepositStore(tx),
		Issuers:  issuer.NewPostgresStore(tx),
	}
	if err := fn(stores); err != nil {
		return err
	}
	return tx.Commit(ctx)
}
