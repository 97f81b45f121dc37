// Package transfer implements the ledger engine behind buy, sell, and
// redeem: precondition checks, checked counter arithmetic, decimal
// scaling, and delegation of the physical movement to the token mover.
package transfer

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"bondgate/internal/audit"
	"bondgate/internal/bond"
	"bondgate/internal/custody"
	"bondgate/internal/investor"
	"bondgate/internal/platform/metrics"
	"bondgate/internal/token"
	id "bondgate/pkg/domain"
	dErrors "bondgate/pkg/domain-errors"
	"bondgate/pkg/platform/sentinel"
	"bondgate/pkg/requestcontext"
	"bondgate/pkg/safemath"
)

const (
	kindBuy    = "buy"
	kindSell   = "sell"
	kindRedeem = "redeem"
)

// Engine executes transfer operations. Stateless between calls: all
// ledger state lives behind the transaction boundary.
type Engine struct {
	tx          StoreTx
	mover       token.Mover
	deriver     *custody.Deriver
	idempotency IdempotencyStore
	logger      *slog.Logger
	auditor     audit.Emitter
	metrics     *metrics.Metrics
	tracer      trace.Tracer
}

type Option func(e *Engine)

func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) { e.logger = logger }
}

func WithAuditEmitter(emitter audit.Emitter) Option {
	return func(e *Engine) { e.auditor = emitter }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Engine) { e.metrics = m }
}

func WithIdempotencyStore(store IdempotencyStore) Option {
	return func(e *Engine) { e.idempotency = store }
}

func NewEngine(tx StoreTx, mover token.Mover, deriver *custody.Deriver, opts ...Option) *Engine {
	e := &Engine{
		tx:      tx,
		mover:   mover,
		deriver: deriver,
		logger:  slog.Default(),
		tracer:  otel.Tracer("bondgate/transfer"),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// BuyParams is one primary-market subscription request.
type BuyParams struct {
	BondID         id.BondID
	Buyer          id.InvestorID
	Amount         uint64
	IdempotencyKey string
}

// Buy subscribes an investor to a bond issuance: credits the investor's
// unit and funds counters, accumulates the bond's accepted total,
// appends the investor to the roster, and moves scaled base units from
// the buyer's custody into the bond's vault.
func (e *Engine) Buy(ctx context.Context, params BuyParams) (err error) {
	ctx, span := e.tracer.Start(ctx, "transfer.Buy",
		trace.WithAttributes(attribute.String("bond_id", params.BondID.String())))
	defer span.End()
	defer e.observe(kindBuy, time.Now(), &err)

	if params.Amount == 0 {
		return dErrors.New(dErrors.CodeInvalidAmount, "amount must be positive")
	}
	release, err := e.reserve(ctx, params.IdempotencyKey)
	if err != nil {
		return err
	}

	err = e.tx.RunInTx(ctx, func(s TxStores) error {
		b, err := loadBond(ctx, s, params.BondID)
		if err != nil {
			return err
		}
		if b.Matured {
			return dErrors.New(dErrors.CodeInvalidBondMaturityStatus, "bond has matured; primary subscription closed")
		}
		if params.Amount < b.MinimumBidAmount {
			return dErrors.New(dErrors.CodeInvalidMinimumBidAmount, "amount is below the minimum bid")
		}
		buyer, err := loadInvestor(ctx, s, params.Buyer)
		if err != nil {
			return err
		}
		if !buyer.Active {
			return dErrors.New(dErrors.CodeInvalidInvestorStatus, "investor is not active")
		}

		unitDelta, ok := safemath.Mul(b.UnitCost, params.Amount)
		if !ok {
			return arithmeticErr("unit cost multiplication overflows")
		}
		if buyer.TotalUnits, ok = safemath.Add(buyer.TotalUnits, unitDelta); !ok {
			return arithmeticErr("investor unit counter overflows")
		}
		if buyer.AvailableFunds, ok = safemath.Add(buyer.AvailableFunds, params.Amount); !ok {
			return arithmeticErr("investor funds counter overflows")
		}
		accepted, ok := safemath.Add(b.TotalAmountsAccepted, params.Amount)
		if !ok {
			return arithmeticErr("accepted total overflows")
		}
		if accepted > b.TotalAmountsOffered {
			return dErrors.New(dErrors.CodeOfferCapacityExceeded, "subscription exceeds the offered total")
		}
		b.TotalAmountsAccepted = accepted
		if err := b.AppendInvestor(params.Buyer); err != nil {
			return err
		}
		baseUnits, ok := safemath.ScaleToBaseUnits(params.Amount, b.Decimals)
		if !ok {
			return arithmeticErr("base unit scaling overflows")
		}

		if err := s.Investors.Update(ctx, buyer); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to update investor")
		}
		if err := s.Bonds.Update(ctx, b); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to update bond")
		}

		authority, err := e.deriver.CallerAuthority(params.Buyer)
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to derive caller authority")
		}
		if err := e.mover.Transfer(ctx, token.InvestorAccount(params.Buyer), token.VaultAccount(b.ID), authority, baseUnits); err != nil {
			return dErrors.Wrap(err, dErrors.CodeTransferFailed, "asset transfer failed")
		}
		return nil
	})
	if err != nil {
		release(ctx)
		return err
	}

	e.emit(ctx, audit.EventBondsBought, params.BondID.String(), params.Amount)
	return nil
}

// SellParams is one secondary-market transfer request. The seller is
// the authenticated caller; the buyer is named in the request.
type SellParams struct {
	BondID         id.BondID
	Seller         id.InvestorID
	Buyer          id.InvestorID
	Amount         uint64
	IdempotencyKey string
}

// Sell moves an entire position between two investors while the bond is
// still active. Partial sells are rejected: the amount must equal the
// seller's available funds exactly.
func (e *Engine) Sell(ctx context.Context, params SellParams) (err error) {
	ctx, span := e.tracer.Start(ctx, "transfer.Sell",
		trace.WithAttributes(attribute.String("bond_id", params.BondID.String())))
	defer span.End()
	defer e.observe(kindSell, time.Now(), &err)

	if params.Amount == 0 {
		return dErrors.New(dErrors.CodeInvalidAmount, "amount must be positive")
	}
	if params.Seller == params.Buyer {
		return dErrors.New(dErrors.CodeInvalidInput, "seller and buyer must differ")
	}
	release, err := e.reserve(ctx, params.IdempotencyKey)
	if err != nil {
		return err
	}

	err = e.tx.RunInTx(ctx, func(s TxStores) error {
		b, err := loadBond(ctx, s, params.BondID)
		if err != nil {
			return err
		}
		if b.Matured {
			return dErrors.New(dErrors.CodeInvalidBondMaturityStatus, "bond has matured; secondary transfer closed")
		}
		seller, err := loadInvestor(ctx, s, params.Seller)
		if err != nil {
			return err
		}
		buyer, err := loadInvestor(ctx, s, params.Buyer)
		if err != nil {
			return err
		}
		if !seller.Active || !buyer.Active {
			return dErrors.New(dErrors.CodeInvalidInvestorStatus, "investor is not active")
		}
		if seller.AvailableFunds == 0 {
			return dErrors.New(dErrors.CodeInsufficientFunds, "seller has no funds to transfer")
		}
		if seller.AvailableFunds != params.Amount {
			return dErrors.New(dErrors.CodeMismatchedAmount, "amount must equal the seller's available funds")
		}

		unitDelta, ok := safemath.Mul(b.UnitCost, params.Amount)
		if !ok {
			return arithmeticErr("unit cost multiplication overflows")
		}
		if seller.TotalUnits, ok = safemath.Sub(seller.TotalUnits, unitDelta); !ok {
			return arithmeticErr("seller unit counter underflows")
		}
		if seller.AvailableFunds, ok = safemath.Sub(seller.AvailableFunds, params.Amount); !ok {
			return arithmeticErr("seller funds counter underflows")
		}
		if buyer.TotalUnits, ok = safemath.Add(buyer.TotalUnits, unitDelta); !ok {
			return arithmeticErr("buyer unit counter overflows")
		}
		if buyer.AvailableFunds, ok = safemath.Add(buyer.AvailableFunds, params.Amount); !ok {
			return arithmeticErr("buyer funds counter overflows")
		}
		baseUnits, ok := safemath.ScaleToBaseUnits(params.Amount, b.Decimals)
		if !ok {
			return arithmeticErr("base unit scaling overflows")
		}

		if err := s.Investors.Update(ctx, seller); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to update seller")
		}
		if err := s.Investors.Update(ctx, buyer); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to update buyer")
		}

		authority, err := e.deriver.CallerAuthority(params.Seller)
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to derive caller authority")
		}
		if err := e.mover.Transfer(ctx, token.InvestorAccount(params.Seller), token.InvestorAccount(params.Buyer), authority, baseUnits); err != nil {
			return dErrors.Wrap(err, dErrors.CodeTransferFailed, "asset transfer failed")
		}
		return nil
	})
	if err != nil {
		release(ctx)
		return err
	}

	e.emit(ctx, audit.EventBondsSold, params.BondID.String(), params.Amount)
	return nil
}

// RedeemParams is one maturity settlement request.
type RedeemParams struct {
	BondID         id.BondID
	Investor       id.InvestorID
	Amount         uint64
	IdempotencyKey string
}

// Redeem settles a matured position: draws the investor's counters and
// the bond's outstanding total down and moves scaled base units from
// the bond's escrow vault to the investor's custody. The vault's
// authority is derived from the deposit record, not a live signer.
func (e *Engine) Redeem(ctx context.Context, params RedeemParams) (err error) {
	ctx, span := e.tracer.Start(ctx, "transfer.Redeem",
		trace.WithAttributes(attribute.String("bond_id", params.BondID.String())))
	defer span.End()
	defer e.observe(kindRedeem, time.Now(), &err)

	if params.Amount == 0 {
		return dErrors.New(dErrors.CodeInvalidAmount, "amount must be positive")
	}
	release, err := e.reserve(ctx, params.IdempotencyKey)
	if err != nil {
		return err
	}

	err = e.tx.RunInTx(ctx, func(s TxStores) error {
		b, err := loadBond(ctx, s, params.BondID)
		if err != nil {
			return err
		}
		if !b.Matured {
			return dErrors.New(dErrors.CodeInvalidBondMaturityStatus, "bond has not matured")
		}
		inv, err := loadInvestor(ctx, s, params.Investor)
		if err != nil {
			return err
		}
		if !inv.Active {
			return dErrors.New(dErrors.CodeInvalidInvestorStatus, "investor is not active")
		}
		if inv.AvailableFunds == 0 {
			return dErrors.New(dErrors.CodeInsufficientFunds, "investor has no funds to redeem")
		}
		if inv.AvailableFunds != params.Amount {
			return dErrors.New(dErrors.CodeMismatchedAmount, "amount must equal the investor's available funds")
		}
		if b.TotalAmountsAccepted < params.Amount {
			return dErrors.New(dErrors.CodeInsufficientFunds, "bond outstanding total cannot cover the redemption")
		}

		unitDelta, ok := safemath.Mul(b.UnitCost, params.Amount)
		if !ok {
			return arithmeticErr("unit cost multiplication overflows")
		}
		if inv.TotalUnits, ok = safemath.Sub(inv.TotalUnits, unitDelta); !ok {
			return arithmeticErr("investor unit counter underflows")
		}
		if inv.AvailableFunds, ok = safemath.Sub(inv.AvailableFunds, params.Amount); !ok {
			return arithmeticErr("investor funds counter underflows")
		}
		if b.TotalAmountsAccepted, ok = safemath.Sub(b.TotalAmountsAccepted, params.Amount); !ok {
			return arithmeticErr("bond outstanding total underflows")
		}
		baseUnits, ok := safemath.ScaleToBaseUnits(params.Amount, b.Decimals)
		if !ok {
			return arithmeticErr("base unit scaling overflows")
		}

		deposit, err := s.Deposits.GetByBond(ctx, b.ID)
		if err != nil {
			if errors.Is(err, sentinel.ErrNotFound) {
				return dErrors.New(dErrors.CodeAccountNotInitialized, "deposit not registered for bond")
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load deposit")
		}

		if err := s.Investors.Update(ctx, inv); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to update investor")
		}
		if err := s.Bonds.Update(ctx, b); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to update bond")
		}

		authority, err := e.deriver.DeriveAuthority(b.ID, deposit.AuthorityTag)
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to derive vault authority")
		}
		if err := e.mover.Transfer(ctx, token.VaultAccount(b.ID), token.InvestorAccount(params.Investor), authority, baseUnits); err != nil {
			return dErrors.Wrap(err, dErrors.CodeTransferFailed, "asset transfer failed")
		}
		return nil
	})
	if err != nil {
		release(ctx)
		return err
	}

	e.emit(ctx, audit.EventBondsRedeemed, params.BondID.String(), params.Amount)
	return nil
}

func loadBond(ctx context.Context, s TxStores, bondID id.BondID) (*bond.Record, error) {
	b, err := s.Bonds.GetByID(ctx, bondID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeAccountNotInitialized, "bond not registered")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load bond")
	}
	if !b.Initialized {
		return nil, dErrors.New(dErrors.CodeAccountNotInitialized, "bond not initialized")
	}
	return b, nil
}

func loadInvestor(ctx context.Context, s TxStores, owner id.InvestorID) (*investor.Record, error) {
	inv, err := s.Investors.Get(ctx, owner)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeAccountNotInitialized, "investor not registered")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load investor")
	}
	return inv, nil
}

func arithmeticErr(msg string) error {
	return dErrors.New(dErrors.CodeInvalidArithmeticOperation, msg)
}

// reserve claims the idempotency key. The returned release function
// frees the key again so a failed operation can be retried.
func (e *Engine) reserve(ctx context.Context, key string) (func(context.Context), error) {
	if e.idempotency == nil || key == "" {
		return func(context.Context) {}, nil
	}
	ok, err := e.idempotency.Reserve(ctx, key)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "idempotency reservation failed")
	}
	if !ok {
		return nil, dErrors.New(dErrors.CodeConflict, "duplicate transfer request")
	}
	return func(ctx context.Context) {
		if err := e.idempotency.Release(ctx, key); err != nil {
			e.logger.WarnContext(ctx, "idempotency release failed", "error", err.Error())
		}
	}, nil
}

func (e *Engine) observe(kind string, start time.Time, err *error) {
	if e.metrics == nil {
		return
	}
	e.metrics.ObserveTransfer(kind, start)
	if *err != nil {
		e.metrics.TransfersFailed.WithLabelValues(kind, string(dErrors.CodeOf(*err))).Inc()
		return
	}
	e.metrics.TransfersCompleted.WithLabelValues(kind).Inc()
}

func (e *Engine) emit(ctx context.Context, action audit.Action, subject string, amount uint64) {
	if e.auditor == nil {
		return
	}
	if err := e.auditor.Emit(ctx, audit.Event{
		Action:     action,
		Actor:      requestcontext.CallerID(ctx),
		Subject:    subject,
		Amount:     amount,
		RequestID:  requestcontext.RequestID(ctx),
		Device:     requestcontext.Device(ctx),
		OccurredAt: requestcontext.Now(ctx),
	}); err != nil {
		e.logger.WarnContext(ctx, "audit emit failed", "action", string(action), "error", err.Error())
	}
}
