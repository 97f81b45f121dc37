// Package httptransport wires the HTTP boundary: routing, middleware
// chain, and per-module handlers. Handlers stay thin; all ledger logic
// lives behind the service interfaces.
package httptransport

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"bondgate/internal/platform/middleware"
	"bondgate/pkg/requestcontext"
)

// Deps collects everything the router mounts.
type Deps struct {
	Logger       *slog.Logger
	JWTValidator middleware.JWTValidator

	Registry  *RegistryHandler
	Investors *InvestorHandler
	Bonds     *BondHandler
	Transfers *TransferHandler
	Tokens    *TokenHandler

	// Health reports readiness of backing stores. Nil checks pass.
	Health func(r *http.Request) error
}

// NewRouter builds the full route table with the standard middleware
// chain. Admin and investor surfaces get separate role guards.
func NewRouter(deps Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recovery(deps.Logger))
	r.Use(middleware.Logger(deps.Logger))
	r.Use(middleware.Device)

	r.Get("/healthz", func(w http.ResponseWriter, req *http.Request) {
		if deps.Health != nil {
			if err := deps.Health(req); err != nil {
				http.Error(w, err.Error(), http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
	})
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Group(func(admin chi.Router) {
		admin.Use(middleware.ContentTypeJSON)
		admin.Use(middleware.RequireAuth(deps.JWTValidator, deps.Logger))
		admin.Use(middleware.RequireRole(requestcontext.RoleAdmin))
		deps.Registry.Register(admin)
		deps.Bonds.Register(admin)
		if deps.Tokens != nil {
			deps.Tokens.RegisterAdmin(admin)
		}
	})

	r.Group(func(inv chi.Router) {
		inv.Use(middleware.ContentTypeJSON)
		inv.Use(middleware.RequireAuth(deps.JWTValidator, deps.Logger))
		inv.Use(middleware.RequireRole(requestcontext.RoleInvestor))
		deps.Investors.Register(inv)
		deps.Transfers.Register(inv)
		if deps.Tokens != nil {
			deps.Tokens.RegisterInvestor(inv)
		}
	})

	return r
}
