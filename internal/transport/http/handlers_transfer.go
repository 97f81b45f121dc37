package httptransport

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"bondgate/internal/transfer"
	"bondgate/internal/transport/http/shared"
	id "bondgate/pkg/domain"
	dErrors "bondgate/pkg/domain-errors"
	"bondgate/pkg/requestcontext"
)

// TransferEngine is the subscription/settlement surface the boundary
// needs.
type TransferEngine interface {
	Buy(ctx context.Context, params transfer.BuyParams) error
	Sell(ctx context.Context, params transfer.SellParams) error
	Redeem(ctx context.Context, params transfer.RedeemParams) error
}

// TransferHandler exposes buy, sell, and redeem. The authenticated
// caller is always the funds-side investor: the buyer on buy, the
// seller on sell, the redeeming investor on redeem.
type TransferHandler struct {
	engine TransferEngine
	logger *slog.Logger
}

func NewTransferHandler(engine TransferEngine, logger *slog.Logger) *TransferHandler {
	return &TransferHandler{engine: engine, logger: logger}
}

func (h *TransferHandler) Register(r chi.Router) {
	r.Post("/bonds/{bondID}/buy", h.handleBuy)
	r.Post("/bonds/{bondID}/sell", h.handleSell)
	r.Post("/bonds/{bondID}/redeem", h.handleRedeem)
}

type buyRequest struct {
	Amount uint64 `json:"amount"`
}

type sellRequest struct {
	Amount uint64 `json:"amount"`
	Buyer  string `json:"buyer"`
}

type redeemRequest struct {
	Amount uint64 `json:"amount"`
}

type transferResponse struct {
	Status string `json:"status"`
}

func (h *TransferHandler) caller(ctx context.Context) (id.InvestorID, error) {
	owner, err := id.ParseInvestorID(requestcontext.CallerID(ctx))
	if err != nil {
		return id.InvestorID{}, dErrors.New(dErrors.CodeUnauthorized, "caller identity is not a valid investor id")
	}
	return owner, nil
}

func (h *TransferHandler) handleBuy(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	bondID, err := id.ParseBondID(chi.URLParam(r, "bondID"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	buyer, err := h.caller(ctx)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	var req buyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	err = h.engine.Buy(ctx, transfer.BuyParams{
		BondID:         bondID,
		Buyer:          buyer,
		Amount:         req.Amount,
		IdempotencyKey: r.Header.Get("Idempotency-Key"),
	})
	if err != nil {
		h.logger.WarnContext(ctx, "buy failed",
			"request_id", requestcontext.RequestID(ctx),
			"bond_id", bondID.String(),
			"error", err.Error(),
		)
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, transferResponse{Status: "completed"})
}

func (h *TransferHandler) handleSell(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	bondID, err := id.ParseBondID(chi.URLParam(r, "bondID"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	seller, err := h.caller(ctx)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	var req sellRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	buyer, err := id.ParseInvestorID(req.Buyer)
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	err = h.engine.Sell(ctx, transfer.SellParams{
		BondID:         bondID,
		Seller:         seller,
		Buyer:          buyer,
		Amount:         req.Amount,
		IdempotencyKey: r.Header.Get("Idempotency-Key"),
	})
	if err != nil {
		h.logger.WarnContext(ctx, "sell failed",
			"request_id", requestcontext.RequestID(ctx),
			"bond_id", bondID.String(),
			"error", err.Error(),
		)
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, transferResponse{Status: "completed"})
}

func (h *TransferHandler) handleRedeem(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	bondID, err := id.ParseBondID(chi.URLParam(r, "bondID"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	investorID, err := h.caller(ctx)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	var req redeemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	err = h.engine.Redeem(ctx, transfer.RedeemParams{
		BondID:         bondID,
		Investor:       investorID,
		Amount:         req.Amount,
		IdempotencyKey: r.Header.Get("Idempotency-Key"),
	})
	if err != nil {
		h.logger.WarnContext(ctx, "redeem failed",
			"request_id", requestcontext.RequestID(ctx),
			"bond_id", bondID.String(),
			"error", err.Error(),
		)
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, transferResponse{Status: "completed"})
}
