package httptransport

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"bondgate/internal/issuer"
	"bondgate/internal/transport/http/shared"
	dErrors "bondgate/pkg/domain-errors"
	"bondgate/pkg/requestcontext"
)

// RegistryService is the issuer registry surface the boundary needs.
type RegistryService interface {
	Init(ctx context.Context) error
	Register(ctx context.Context, name string) error
	List(ctx context.Context) ([]issuer.Record, error)
}

// RegistryHandler exposes registry bootstrap and issuer registration.
// Administrator-only.
type RegistryHandler struct {
	registry RegistryService
	logger   *slog.Logger
}

func NewRegistryHandler(registry RegistryService, logger *slog.Logger) *RegistryHandler {
	return &RegistryHandler{registry: registry, logger: logger}
}

func (h *RegistryHandler) Register(r chi.Router) {
	r.Post("/registry/init", h.handleInit)
	r.Post("/registry/issuers", h.handleRegisterIssuer)
	r.Get("/registry/issuers", h.handleListIssuers)
}

func (h *RegistryHandler) handleInit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := h.registry.Init(ctx); err != nil {
		h.logger.WarnContext(ctx, "registry init failed",
			"request_id", requestcontext.RequestID(ctx),
			"error", err.Error(),
		)
		shared.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
}

type registerIssuerRequest struct {
	Name string `json:"name"`
}

func (h *RegistryHandler) handleRegisterIssuer(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req registerIssuerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	if err := h.registry.Register(ctx, req.Name); err != nil {
		h.logger.WarnContext(ctx, "issuer registration failed",
			"request_id", requestcontext.RequestID(ctx),
			"error", err.Error(),
		)
		shared.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
}

type issuerResponse struct {
	Name string `json:"name"`
}

func (h *RegistryHandler) handleListIssuers(w http.ResponseWriter, r *http.Request) {
	records, err := h.registry.List(r.Context())
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	out := make([]issuerResponse, len(records))
	for i, rec := range records {
		out[i] = issuerResponse{Name: rec.Name}
	}
	shared.WriteJSON(w, http.StatusOK, out)
}
