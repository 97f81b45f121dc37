package httptransport

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"bondgate/internal/bond"
	"bondgate/internal/transport/http/shared"
	id "bondgate/pkg/domain"
	dErrors "bondgate/pkg/domain-errors"
	"bondgate/pkg/requestcontext"
)

// BondService is the issuance surface the boundary needs.
type BondService interface {
	Register(ctx context.Context, owner id.AdminID, params bond.RegisterParams) (*bond.Record, error)
	SetMatured(ctx context.Context, bondID id.BondID) (*bond.Record, error)
	GetByID(ctx context.Context, bondID id.BondID) (*bond.Record, error)
}

// BondHandler exposes bond registration and the maturity command.
// Administrator-only.
type BondHandler struct {
	bonds  BondService
	logger *slog.Logger
}

func NewBondHandler(bonds BondService, logger *slog.Logger) *BondHandler {
	return &BondHandler{bonds: bonds, logger: logger}
}

func (h *BondHandler) Register(r chi.Router) {
	r.Post("/bonds", h.handleRegister)
	r.Post("/bonds/{bondID}/mature", h.handleMature)
	r.Get("/bonds/{bondID}", h.handleGet)
}

type registerBondRequest struct {
	IssuerName          string `json:"issuer_name"`
	Country             string `json:"country"`
	IssueNo             string `json:"issue_no"`
	TypeOfBond          uint8  `json:"type_of_bond"`
	Tenor               uint8  `json:"tenor"`
	CouponRate          uint8  `json:"coupon_rate"`
	TotalAmountsOffered uint64 `json:"total_amounts_offered"`
	MinimumBidAmount    uint64 `json:"minimum_bid_amount"`
	UnitCost            uint64 `json:"unit_cost"`
	Decimals            uint8  `json:"decimals"`
	ValueDate           string `json:"value_date"`
	RedemptionDate      string `json:"redemption_date"`
}

type bondResponse struct {
	ID                   string `json:"id"`
	IssuerName           string `json:"issuer_name"`
	Country              string `json:"country"`
	IssueNo              string `json:"issue_no"`
	TypeOfBond           uint8  `json:"type_of_bond"`
	Tenor                uint8  `json:"tenor"`
	CouponRate           uint8  `json:"coupon_rate"`
	TotalAmountsOffered  uint64 `json:"total_amounts_offered"`
	TotalAmountsAccepted uint64 `json:"total_amounts_accepted"`
	MinimumBidAmount     uint64 `json:"minimum_bid_amount"`
	UnitCost             uint64 `json:"unit_cost"`
	Decimals             uint8  `json:"decimals"`
	ValueDate            string `json:"value_date"`
	RedemptionDate       string `json:"redemption_date"`
	Matured              bool   `json:"matured"`
	Investors            int    `json:"investors"`
}

func toBondResponse(rec *bond.Record) bondResponse {
	return bondResponse{
		ID:                   rec.ID.String(),
		IssuerName:           rec.Issuer.Name,
		Country:              rec.Country,
		IssueNo:              rec.IssueNo,
		TypeOfBond:           uint8(rec.TypeOfBond),
		Tenor:                rec.Tenor,
		CouponRate:           rec.CouponRate,
		TotalAmountsOffered:  rec.TotalAmountsOffered,
		TotalAmountsAccepted: rec.TotalAmountsAccepted,
		MinimumBidAmount:     rec.MinimumBidAmount,
		UnitCost:             rec.UnitCost,
		Decimals:             rec.Decimals,
		ValueDate:            rec.ValueDate,
		RedemptionDate:       rec.RedemptionDate,
		Matured:              rec.Matured,
		Investors:            len(rec.Investors),
	}
}

func (h *BondHandler) handleRegister(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	owner, err := id.ParseAdminID(requestcontext.CallerID(ctx))
	if err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "caller identity is not a valid admin id"))
		return
	}

	var req registerBondRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	record, err := h.bonds.Register(ctx, owner, bond.RegisterParams{
		IssuerName:          req.IssuerName,
		Country:             req.Country,
		IssueNo:             req.IssueNo,
		TypeOfBond:          req.TypeOfBond,
		Tenor:               req.Tenor,
		CouponRate:          req.CouponRate,
		TotalAmountsOffered: req.TotalAmountsOffered,
		MinimumBidAmount:    req.MinimumBidAmount,
		UnitCost:            req.UnitCost,
		Decimals:            req.Decimals,
		ValueDate:           req.ValueDate,
		RedemptionDate:      req.RedemptionDate,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "bond registration failed",
			"request_id", requestcontext.RequestID(ctx),
			"error", err.Error(),
		)
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusCreated, toBondResponse(record))
}

func (h *BondHandler) handleMature(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	bondID, err := id.ParseBondID(chi.URLParam(r, "bondID"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	record, err := h.bonds.SetMatured(ctx, bondID)
	if err != nil {
		h.logger.WarnContext(ctx, "maturity transition failed",
			"request_id", requestcontext.RequestID(ctx),
			"bond_id", bondID.String(),
			"error", err.Error(),
		)
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, toBondResponse(record))
}

func (h *BondHandler) handleGet(w http.ResponseWriter, r *http.Request) {
	bondID, err := id.ParseBondID(chi.URLParam(r, "bondID"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	record, err := h.bonds.GetByID(r.Context(), bondID)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, toBondResponse(record))
}
