package transfer

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"bondgate/internal/bond"
	"bondgate/internal/custody"
	"bondgate/internal/investor"
	"bondgate/internal/token"
	"bondgate/internal/token/mocks"
	id "bondgate/pkg/domain"
	dErrors "bondgate/pkg/domain-errors"
)

//go:generate mockgen -source=../token/ports.go -destination=../token/mocks/token-mocks.go -package=mocks Mover,Issuer

type EngineSuite struct {
	suite.Suite
	ctx       context.Context
	ctrl      *gomock.Controller
	mover     *mocks.MockMover
	deriver   *custody.Deriver
	bonds     *bond.InMemoryStore
	deposits  *bond.InMemoryDepositStore
	investors *investor.InMemoryStore
	engine    *Engine
}

func (s *EngineSuite) SetupTest() {
	s.ctx = context.Background()
	s.ctrl = gomock.NewController(s.T())
	s.mover = mocks.NewMockMover(s.ctrl)
	s.bonds = bond.NewInMemoryStore()
	s.deposits = bond.NewInMemoryDepositStore()
	s.investors = investor.NewInMemoryStore()

	deriver, err := custody.NewDeriver([]byte("engine-test-seed"))
	s.Require().NoError(err)
	s.deriver = deriver

	tx := NewInMemoryTx(nil, s.bonds, s.deposits, s.investors)
	s.engine = NewEngine(tx, s.mover, deriver)
}

func TestEngineSuite(t *testing.T) {
	suite.Run(t, new(EngineSuite))
}

// seedBond registers a bond with Scenario A terms unless mutated.
func (s *EngineSuite) seedBond(mutate ...func(*bond.Record)) *bond.Record {
	b := &bond.Record{
		ID:                  id.NewBondID(),
		Owner:               id.AdminID(uuid.New()),
		Country:             "KE",
		IssueNo:             "FXD1/2026/10",
		TypeOfBond:          bond.TypeFixedCoupon,
		Tenor:               10,
		CouponRate:          12,
		TotalAmountsOffered: 1_000_000,
		MinimumBidAmount:    1,
		UnitCost:            100,
		Decimals:            2,
		ValueDate:           "2026-09-01",
		RedemptionDate:      "2036-09-01",
		Initialized:         true,
		Investors:           []id.InvestorID{},
	}
	for _, m := range mutate {
		m(b)
	}
	s.Require().NoError(s.bonds.Create(s.ctx, b))

	authorityTag, vaultTag := s.deriver.Tags(b.ID)
	vt := vaultTag
	s.Require().NoError(s.deposits.Create(s.ctx, &bond.Deposit{
		ID:           id.NewDepositID(),
		BondID:       b.ID,
		Owner:        b.Owner,
		AuthorityTag: authorityTag,
		VaultTag:     &vt,
		Initialized:  true,
	}))
	return b
}

func (s *EngineSuite) seedInvestor(mutate ...func(*investor.Record)) *investor.Record {
	inv := &investor.Record{
		Owner:     id.InvestorID(uuid.New()),
		FullNames: "Wanjiku Kamau",
		Country:   "KE",
		Active:    true,
	}
	for _, m := range mutate {
		m(inv)
	}
	s.Require().NoError(s.investors.Create(s.ctx, inv))
	return inv
}

func (s *EngineSuite) getInvestor(owner id.InvestorID) *investor.Record {
	inv, err := s.investors.Get(s.ctx, owner)
	s.Require().NoError(err)
	return inv
}

func (s *EngineSuite) getBond(bondID id.BondID) *bond.Record {
	b, err := s.bonds.GetByID(s.ctx, bondID)
	s.Require().NoError(err)
	return b
}

func (s *EngineSuite) TestBuyCreditsBothLedgers() {
	b := s.seedBond()
	inv := s.seedInvestor()

	callerAuth, err := s.deriver.CallerAuthority(inv.Owner)
	s.Require().NoError(err)
	s.mover.EXPECT().
		Transfer(gomock.Any(), token.InvestorAccount(inv.Owner), token.VaultAccount(b.ID), callerAuth, uint64(500)).
		Return(nil)

	s.Require().NoError(s.engine.Buy(s.ctx, BuyParams{BondID: b.ID, Buyer: inv.Owner, Amount: 5}))

	after := s.getInvestor(inv.Owner)
	s.EqualValues(500, after.TotalUnits)
	s.EqualValues(5, after.AvailableFunds)

	bondAfter := s.getBond(b.ID)
	s.EqualValues(5, bondAfter.TotalAmountsAccepted)
	s.Equal([]id.InvestorID{inv.Owner}, bondAfter.Investors)
}

func (s *EngineSuite) TestBuyPreconditions() {
	b := s.seedBond()
	inv := s.seedInvestor()

	s.Run("zero amount", func() {
		err := s.engine.Buy(s.ctx, BuyParams{BondID: b.ID, Buyer: inv.Owner, Amount: 0})
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidAmount))
	})

	s.Run("below minimum bid", func() {
		minBond := s.seedBond(func(r *bond.Record) {
			r.ID = id.NewBondID()
			r.Owner = id.AdminID(uuid.New())
			r.MinimumBidAmount = 50
		})
		err := s.engine.Buy(s.ctx, BuyParams{BondID: minBond.ID, Buyer: inv.Owner, Amount: 10})
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidMinimumBidAmount))
	})

	s.Run("inactive investor", func() {
		inactive := s.seedInvestor(func(r *investor.Record) { r.Active = false })
		err := s.engine.Buy(s.ctx, BuyParams{BondID: b.ID, Buyer: inactive.Owner, Amount: 5})
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidInvestorStatus))
	})

	s.Run("unknown bond", func() {
		err := s.engine.Buy(s.ctx, BuyParams{BondID: id.NewBondID(), Buyer: inv.Owner, Amount: 5})
		s.True(dErrors.HasCode(err, dErrors.CodeAccountNotInitialized))
	})

	s.Run("unknown investor", func() {
		err := s.engine.Buy(s.ctx, BuyParams{BondID: b.ID, Buyer: id.InvestorID(uuid.New()), Amount: 5})
		s.True(dErrors.HasCode(err, dErrors.CodeAccountNotInitialized))
	})

	s.Run("matured bond", func() {
		matured := s.seedBond(func(r *bond.Record) {
			r.ID = id.NewBondID()
			r.Owner = id.AdminID(uuid.New())
			r.Matured = true
		})
		err := s.engine.Buy(s.ctx, BuyParams{BondID: matured.ID, Buyer: inv.Owner, Amount: 5})
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidBondMaturityStatus))
	})
}

func (s *EngineSuite) TestBuyOverflowLeavesLedgersUnchanged() {
	b := s.seedBond(func(r *bond.Record) { r.UnitCost = math.MaxUint64 })
	inv := s.seedInvestor()

	err := s.engine.Buy(s.ctx, BuyParams{BondID: b.ID, Buyer: inv.Owner, Amount: 2})
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidArithmeticOperation))

	after := s.getInvestor(inv.Owner)
	s.EqualValues(0, after.TotalUnits)
	s.EqualValues(0, after.AvailableFunds)
	bondAfter := s.getBond(b.ID)
	s.EqualValues(0, bondAfter.TotalAmountsAccepted)
	s.Empty(bondAfter.Investors)
}

func (s *EngineSuite) TestBuyEnforcesOfferCap() {
	b := s.seedBond(func(r *bond.Record) { r.TotalAmountsOffered = 10 })
	inv := s.seedInvestor()

	s.mover.EXPECT().Transfer(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)
	s.Require().NoError(s.engine.Buy(s.ctx, BuyParams{BondID: b.ID, Buyer: inv.Owner, Amount: 8}))

	err := s.engine.Buy(s.ctx, BuyParams{BondID: b.ID, Buyer: inv.Owner, Amount: 3})
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeOfferCapacityExceeded))
	s.EqualValues(8, s.getBond(b.ID).TotalAmountsAccepted)
}

func (s *EngineSuite) TestBuyRosterCapacity() {
	b := s.seedBond()
	inv := s.seedInvestor()

	s.mover.EXPECT().Transfer(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return(nil).Times(bond.MaxInvestors)
	for i := 0; i < bond.MaxInvestors; i++ {
		s.Require().NoError(s.engine.Buy(s.ctx, BuyParams{BondID: b.ID, Buyer: inv.Owner, Amount: 1}))
	}

	err := s.engine.Buy(s.ctx, BuyParams{BondID: b.ID, Buyer: inv.Owner, Amount: 1})
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeCapacityExceeded))
	s.Len(s.getBond(b.ID).Investors, bond.MaxInvestors)
}

func (s *EngineSuite) TestBuyMoverFailureRollsBack() {
	b := s.seedBond()
	inv := s.seedInvestor()

	s.mover.EXPECT().Transfer(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return(errors.New("custody unavailable"))

	err := s.engine.Buy(s.ctx, BuyParams{BondID: b.ID, Buyer: inv.Owner, Amount: 5})
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeTransferFailed))

	after := s.getInvestor(inv.Owner)
	s.EqualValues(0, after.TotalUnits)
	s.EqualValues(0, after.AvailableFunds)
	s.EqualValues(0, s.getBond(b.ID).TotalAmountsAccepted)
}

func (s *EngineSuite) TestSellSwapsPositionsSymmetrically() {
	b := s.seedBond()
	seller := s.seedInvestor(func(r *investor.Record) {
		r.TotalUnits = 500
		r.AvailableFunds = 5
	})
	buyer := s.seedInvestor()

	sellerAuth, err := s.deriver.CallerAuthority(seller.Owner)
	s.Require().NoError(err)
	s.mover.EXPECT().
		Transfer(gomock.Any(), token.InvestorAccount(seller.Owner), token.InvestorAccount(buyer.Owner), sellerAuth, uint64(500)).
		Return(nil)

	s.Require().NoError(s.engine.Sell(s.ctx, SellParams{BondID: b.ID, Seller: seller.Owner, Buyer: buyer.Owner, Amount: 5}))

	sellerAfter := s.getInvestor(seller.Owner)
	s.EqualValues(0, sellerAfter.TotalUnits)
	s.EqualValues(0, sellerAfter.AvailableFunds)
	buyerAfter := s.getInvestor(buyer.Owner)
	s.EqualValues(500, buyerAfter.TotalUnits)
	s.EqualValues(5, buyerAfter.AvailableFunds)
}

func (s *EngineSuite) TestSellPreconditions() {
	b := s.seedBond()
	seller := s.seedInvestor(func(r *investor.Record) {
		r.TotalUnits = 500
		r.AvailableFunds = 5
	})
	buyer := s.seedInvestor()

	s.Run("partial sell rejected", func() {
		err := s.engine.Sell(s.ctx, SellParams{BondID: b.ID, Seller: seller.Owner, Buyer: buyer.Owner, Amount: 3})
		s.True(dErrors.HasCode(err, dErrors.CodeMismatchedAmount))
	})

	s.Run("penniless seller", func() {
		broke := s.seedInvestor()
		err := s.engine.Sell(s.ctx, SellParams{BondID: b.ID, Seller: broke.Owner, Buyer: buyer.Owner, Amount: 5})
		s.True(dErrors.HasCode(err, dErrors.CodeInsufficientFunds))
	})

	s.Run("self transfer rejected", func() {
		err := s.engine.Sell(s.ctx, SellParams{BondID: b.ID, Seller: seller.Owner, Buyer: seller.Owner, Amount: 5})
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	s.Run("matured bond blocks sell", func() {
		matured := s.seedBond(func(r *bond.Record) {
			r.ID = id.NewBondID()
			r.Owner = id.AdminID(uuid.New())
			r.Matured = true
		})
		err := s.engine.Sell(s.ctx, SellParams{BondID: matured.ID, Seller: seller.Owner, Buyer: buyer.Owner, Amount: 5})
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidBondMaturityStatus))
	})

	s.Run("inactive buyer", func() {
		inactive := s.seedInvestor(func(r *investor.Record) { r.Active = false })
		err := s.engine.Sell(s.ctx, SellParams{BondID: b.ID, Seller: seller.Owner, Buyer: inactive.Owner, Amount: 5})
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidInvestorStatus))
	})
}

func (s *EngineSuite) TestRedeemDrainsPosition() {
	b := s.seedBond(func(r *bond.Record) {
		r.Matured = true
		r.TotalAmountsAccepted = 5
	})
	inv := s.seedInvestor(func(r *investor.Record) {
		r.TotalUnits = 500
		r.AvailableFunds = 5
	})

	deposit, err := s.deposits.GetByBond(s.ctx, b.ID)
	s.Require().NoError(err)
	vaultAuth, err := s.deriver.DeriveAuthority(b.ID, deposit.AuthorityTag)
	s.Require().NoError(err)
	s.mover.EXPECT().
		Transfer(gomock.Any(), token.VaultAccount(b.ID), token.InvestorAccount(inv.Owner), vaultAuth, uint64(500)).
		Return(nil)

	s.Require().NoError(s.engine.Redeem(s.ctx, RedeemParams{BondID: b.ID, Investor: inv.Owner, Amount: 5}))

	after := s.getInvestor(inv.Owner)
	s.EqualValues(0, after.TotalUnits)
	s.EqualValues(0, after.AvailableFunds)
	s.EqualValues(0, s.getBond(b.ID).TotalAmountsAccepted)
}

func (s *EngineSuite) TestRedeemRequiresMaturity() {
	b := s.seedBond()
	inv := s.seedInvestor(func(r *investor.Record) {
		r.TotalUnits = 500
		r.AvailableFunds = 5
	})

	err := s.engine.Redeem(s.ctx, RedeemParams{BondID: b.ID, Investor: inv.Owner, Amount: 3})
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidBondMaturityStatus))

	after := s.getInvestor(inv.Owner)
	s.EqualValues(500, after.TotalUnits)
	s.EqualValues(5, after.AvailableFunds)
}

func (s *EngineSuite) TestRedeemPreconditions() {
	b := s.seedBond(func(r *bond.Record) {
		r.Matured = true
		r.TotalAmountsAccepted = 3
	})
	inv := s.seedInvestor(func(r *investor.Record) {
		r.TotalUnits = 500
		r.AvailableFunds = 5
	})

	s.Run("partial redeem rejected", func() {
		err := s.engine.Redeem(s.ctx, RedeemParams{BondID: b.ID, Investor: inv.Owner, Amount: 3})
		s.True(dErrors.HasCode(err, dErrors.CodeMismatchedAmount))
	})

	s.Run("outstanding total cannot cover", func() {
		err := s.engine.Redeem(s.ctx, RedeemParams{BondID: b.ID, Investor: inv.Owner, Amount: 5})
		s.True(dErrors.HasCode(err, dErrors.CodeInsufficientFunds))
	})

	s.Run("penniless investor", func() {
		broke := s.seedInvestor()
		err := s.engine.Redeem(s.ctx, RedeemParams{BondID: b.ID, Investor: broke.Owner, Amount: 5})
		s.True(dErrors.HasCode(err, dErrors.CodeInsufficientFunds))
	})
}

func (s *EngineSuite) TestIdempotencyKeyBlocksReplay() {
	store := NewInMemoryIdempotencyStore()
	tx := NewInMemoryTx(nil, s.bonds, s.deposits, s.investors)
	engine := NewEngine(tx, s.mover, s.deriver, WithIdempotencyStore(store))

	b := s.seedBond()
	inv := s.seedInvestor()

	s.mover.EXPECT().Transfer(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)
	s.Require().NoError(engine.Buy(s.ctx, BuyParams{BondID: b.ID, Buyer: inv.Owner, Amount: 5, IdempotencyKey: "req-1"}))

	err := engine.Buy(s.ctx, BuyParams{BondID: b.ID, Buyer: inv.Owner, Amount: 5, IdempotencyKey: "req-1"})
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	s.EqualValues(5, s.getBond(b.ID).TotalAmountsAccepted)
}

func (s *EngineSuite) TestIdempotencyKeyReleasedOnFailure() {
	store := NewInMemoryIdempotencyStore()
	tx := NewInMemoryTx(nil, s.bonds, s.deposits, s.investors)
	engine := NewEngine(tx, s.mover, s.deriver, WithIdempotencyStore(store))

	b := s.seedBond()
	inv := s.seedInvestor()

	s.mover.EXPECT().Transfer(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return(errors.New("custody unavailable"))
	err := engine.Buy(s.ctx, BuyParams{BondID: b.ID, Buyer: inv.Owner, Amount: 5, IdempotencyKey: "req-2"})
	s.Require().Error(err)

	// Retry with the same key succeeds once the collaborator recovers.
	s.mover.EXPECT().Transfer(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)
	s.Require().NoError(engine.Buy(s.ctx, BuyParams{BondID: b.ID, Buyer: inv.Owner, Amount: 5, IdempotencyKey: "req-2"}))
}
