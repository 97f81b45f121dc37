package bond

import (
	"context"
	"errors"
	"log/slog"

	"bondgate/internal/audit"
	"bondgate/internal/custody"
	"bondgate/internal/issuer"
	"bondgate/internal/platform/metrics"
	"bondgate/internal/token"
	id "bondgate/pkg/domain"
	dErrors "bondgate/pkg/domain-errors"
	"bondgate/pkg/platform/sentinel"
	"bondgate/pkg/requestcontext"
)

// Service handles bond registration and the maturity transition.
// Subscription arithmetic lives in the transfer engine.
type Service struct {
	tx      StoreTx
	bonds   Store
	deriver *custody.Deriver
	vaults  VaultRegistrar
	logger  *slog.Logger
	auditor audit.Emitter
	metrics *metrics.Metrics
}

// VaultRegistrar registers the escrow custody account for a new bond.
// Satisfied by the in-process token ledger.
type VaultRegistrar interface {
	EnsureAccount(account token.Account, authority token.Authority) error
}

type Option func(s *Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithAuditEmitter(emitter audit.Emitter) Option {
	return func(s *Service) { s.auditor = emitter }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func NewService(tx StoreTx, bonds Store, deriver *custody.Deriver, vaults VaultRegistrar, opts ...Option) *Service {
	s := &Service{tx: tx, bonds: bonds, deriver: deriver, vaults: vaults, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register validates the issuance terms, then atomically creates the
// bond record and its escrow deposit and appends the issuer to the
// registry. One bond per administrator.
func (s *Service) Register(ctx context.Context, owner id.AdminID, params RegisterParams) (*Record, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}

	bondID := id.NewBondID()
	authorityTag, vaultTag := s.deriver.Tags(bondID)
	vt := vaultTag

	record := &Record{
		ID:                  bondID,
		Owner:               owner,
		Issuer:              issuer.Record{Name: params.IssuerName},
		Country:             params.Country,
		IssueNo:             params.IssueNo,
		TypeOfBond:          TypeOfBond(params.TypeOfBond),
		Tenor:               params.Tenor,
		CouponRate:          params.CouponRate,
		TotalAmountsOffered: params.TotalAmountsOffered,
		MinimumBidAmount:    params.MinimumBidAmount,
		UnitCost:            params.UnitCost,
		Decimals:            params.Decimals,
		ValueDate:           params.ValueDate,
		RedemptionDate:      params.RedemptionDate,
		Initialized:         true,
		Investors:           []id.InvestorID{},
		CreatedAt:           requestcontext.Now(ctx),
	}
	deposit := &Deposit{
		ID:           id.NewDepositID(),
		BondID:       bondID,
		Owner:        owner,
		AuthorityTag: authorityTag,
		VaultTag:     &vt,
		Initialized:  true,
		CreatedAt:    record.CreatedAt,
	}

	// The escrow account is registered before the records commit so a
	// stored bond always has a vault behind it. If the transaction fails
	// afterwards the unused ledger entry is harmless: bond ids are never
	// reused and EnsureAccount tolerates replays with the same authority.
	if s.vaults != nil {
		authority, derr := s.deriver.DeriveAuthority(bondID, authorityTag)
		if derr != nil {
			return nil, dErrors.Wrap(derr, dErrors.CodeInternal, "failed to derive vault authority")
		}
		if derr := s.vaults.EnsureAccount(token.VaultAccount(bondID), authority); derr != nil {
			return nil, dErrors.Wrap(derr, dErrors.CodeInternal, "failed to register vault account")
		}
	}

	err := s.tx.RunInTx(ctx, func(stores TxStores) error {
		if err := stores.Bonds.Create(ctx, record); err != nil {
			if errors.Is(err, sentinel.ErrAlreadyExists) {
				return dErrors.New(dErrors.CodeAccountAlreadyInitialized, "administrator already registered a bond")
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to create bond")
		}
		if err := stores.Deposits.Create(ctx, deposit); err != nil {
			if errors.Is(err, sentinel.ErrAlreadyExists) {
				return dErrors.New(dErrors.CodeAccountAlreadyInitialized, "deposit already registered for bond")
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to create deposit")
		}
		if err := stores.Issuers.Append(ctx, issuer.Record{Name: params.IssuerName}); err != nil {
			switch {
			case errors.Is(err, sentinel.ErrNotFound):
				return dErrors.New(dErrors.CodeAccountNotInitialized, "issuer registry is not initialized")
			case errors.Is(err, sentinel.ErrCapacity):
				return dErrors.New(dErrors.CodeCapacityExceeded, "issuer registry is full")
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to append issuer")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.emit(ctx, audit.EventBondRegistered, bondID.String(), 0)
	if s.metrics != nil {
		s.metrics.BondsRegistered.Inc()
	}
	return record, nil
}

// SetMatured applies the externally triggered maturity event. One-way:
// a matured bond never becomes active again.
func (s *Service) SetMatured(ctx context.Context, bondID id.BondID) (*Record, error) {
	var matured *Record
	err := s.tx.RunInTx(ctx, func(stores TxStores) error {
		record, err := stores.Bonds.GetByID(ctx, bondID)
		if err != nil {
			if errors.Is(err, sentinel.ErrNotFound) {
				return dErrors.New(dErrors.CodeAccountNotInitialized, "bond not registered")
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load bond")
		}
		if err := record.CanMature(); err != nil {
			return err
		}
		record.ApplyMature()
		if err := stores.Bonds.Update(ctx, record); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to update bond")
		}
		matured = record
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.emit(ctx, audit.EventBondMatured, bondID.String(), 0)
	if s.metrics != nil {
		s.metrics.BondsMatured.Inc()
	}
	return matured, nil
}

// GetByID returns one bond aggregate.
func (s *Service) GetByID(ctx context.Context, bondID id.BondID) (*Record, error) {
	record, err := s.bonds.GetByID(ctx, bondID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeAccountNotInitialized, "bond not registered")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load bond")
	}
	return record, nil
}

func (s *Service) emit(ctx context.Context, action audit.Action, subject string, amount uint64) {
	if s.auditor == nil {
		return
	}
	if err := s.auditor.Emit(ctx, audit.Event{
		Action:     action,
		Actor:      requestcontext.CallerID(ctx),
		Subject:    subject,
		Amount:     amount,
		RequestID:  requestcontext.RequestID(ctx),
		Device:     requestcontext.Device(ctx),
		OccurredAt: requestcontext.Now(ctx),
	}); err != nil {
		s.logger.WarnContext(ctx, "audit emit failed", "action", string(action), "error", err.Error())
	}
}
