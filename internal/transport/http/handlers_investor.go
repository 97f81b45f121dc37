package httptransport

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"bondgate/internal/investor"
	"bondgate/internal/transport/http/shared"
	id "bondgate/pkg/domain"
	dErrors "bondgate/pkg/domain-errors"
	"bondgate/pkg/requestcontext"
)

// InvestorService is the investor registration surface the boundary
// needs.
type InvestorService interface {
	Register(ctx context.Context, owner id.InvestorID, fullNames, country string) (*investor.Record, error)
	Get(ctx context.Context, owner id.InvestorID) (*investor.Record, error)
}

// InvestorHandler exposes investor self-registration. The owner is the
// authenticated caller; a caller cannot register anyone else.
type InvestorHandler struct {
	investors InvestorService
	logger    *slog.Logger
}

func NewInvestorHandler(investors InvestorService, logger *slog.Logger) *InvestorHandler {
	return &InvestorHandler{investors: investors, logger: logger}
}

func (h *InvestorHandler) Register(r chi.Router) {
	r.Post("/investors", h.handleRegister)
	r.Get("/investors/me", h.handleGetSelf)
}

type registerInvestorRequest struct {
	FullNames string `json:"full_names"`
	Country   string `json:"country"`
}

type investorResponse struct {
	Owner          string    `json:"owner"`
	FullNames      string    `json:"full_names"`
	Country        string    `json:"country"`
	Active         bool      `json:"active"`
	TotalUnits     uint64    `json:"total_units"`
	AvailableFunds uint64    `json:"available_funds"`
	CreatedAt      time.Time `json:"created_at"`
}

func toInvestorResponse(rec *investor.Record) investorResponse {
	return investorResponse{
		Owner:          rec.Owner.String(),
		FullNames:      rec.FullNames,
		Country:        rec.Country,
		Active:         rec.Active,
		TotalUnits:     rec.TotalUnits,
		AvailableFunds: rec.AvailableFunds,
		CreatedAt:      rec.CreatedAt,
	}
}

func (h *InvestorHandler) handleRegister(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	owner, err := id.ParseInvestorID(requestcontext.CallerID(ctx))
	if err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "caller identity is not a valid investor id"))
		return
	}

	var req registerInvestorRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	record, err := h.investors.Register(ctx, owner, req.FullNames, req.Country)
	if err != nil {
		h.logger.WarnContext(ctx, "investor registration failed",
			"request_id", requestcontext.RequestID(ctx),
			"error", err.Error(),
		)
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusCreated, toInvestorResponse(record))
}

func (h *InvestorHandler) handleGetSelf(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	owner, err := id.ParseInvestorID(requestcontext.CallerID(ctx))
	if err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "caller identity is not a valid investor id"))
		return
	}
	record, err := h.investors.Get(ctx, owner)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, toInvestorResponse(record))
}
