package httptransport

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"bondgate/internal/custody"
	"bondgate/internal/token"
	"bondgate/internal/transport/http/shared"
	id "bondgate/pkg/domain"
	dErrors "bondgate/pkg/domain-errors"
	"bondgate/pkg/requestcontext"
)

// TokenHandler exposes the out-of-core asset commands against the
// in-process ledger: administrative issuance and owner-signed moves.
type TokenHandler struct {
	issuer  token.Issuer
	mover   token.Mover
	ledger  *token.InProcessLedger
	deriver *custody.Deriver
	logger  *slog.Logger
}

func NewTokenHandler(ledger *token.InProcessLedger, deriver *custody.Deriver, logger *slog.Logger) *TokenHandler {
	return &TokenHandler{issuer: ledger, mover: ledger, ledger: ledger, deriver: deriver, logger: logger}
}

// RegisterAdmin mounts the administrator-only issuance command.
func (h *TokenHandler) RegisterAdmin(r chi.Router) {
	r.Post("/tokens/mint", h.handleMint)
}

// RegisterInvestor mounts the owner-signed move command.
func (h *TokenHandler) RegisterInvestor(r chi.Router) {
	r.Post("/tokens/transfer", h.handleTransfer)
}

type mintRequest struct {
	Investor  string `json:"investor"`
	BaseUnits uint64 `json:"base_units"`
}

func (h *TokenHandler) handleMint(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req mintRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	owner, err := id.ParseInvestorID(req.Investor)
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	account := token.InvestorAccount(owner)
	authority, err := h.deriver.CallerAuthority(owner)
	if err != nil {
		shared.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "failed to derive authority"))
		return
	}
	if err := h.ledger.EnsureAccount(account, authority); err != nil {
		shared.WriteError(w, dErrors.Wrap(err, dErrors.CodeConflict, "account registration failed"))
		return
	}
	if err := h.issuer.Mint(ctx, account, req.BaseUnits); err != nil {
		h.logger.WarnContext(ctx, "mint failed",
			"request_id", requestcontext.RequestID(ctx),
			"error", err.Error(),
		)
		shared.WriteError(w, dErrors.Wrap(err, dErrors.CodeTransferFailed, "mint failed"))
		return
	}
	shared.WriteJSON(w, http.StatusOK, map[string]uint64{"balance": h.ledger.Balance(account)})
}

type tokenTransferRequest struct {
	To        string `json:"to"`
	BaseUnits uint64 `json:"base_units"`
}

func (h *TokenHandler) handleTransfer(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller, err := id.ParseInvestorID(requestcontext.CallerID(ctx))
	if err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "caller identity is not a valid investor id"))
		return
	}
	var req tokenTransferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	to, err := id.ParseInvestorID(req.To)
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	authority, err := h.deriver.CallerAuthority(caller)
	if err != nil {
		shared.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "failed to derive authority"))
		return
	}
	if err := h.mover.Transfer(ctx, token.InvestorAccount(caller), token.InvestorAccount(to), authority, req.BaseUnits); err != nil {
		h.logger.WarnContext(ctx, "token transfer failed",
			"request_id", requestcontext.RequestID(ctx),
			"error", err.Error(),
		)
		shared.WriteError(w, dErrors.Wrap(err, dErrors.CodeTransferFailed, "token transfer failed"))
		return
	}
	shared.WriteJSON(w, http.StatusOK, transferResponse{Status: "completed"})
}
