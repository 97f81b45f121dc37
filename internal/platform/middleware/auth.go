package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	dErrors "bondgate/pkg/domain-errors"
	"bondgate/pkg/requestcontext"
)

// JWTValidator defines the interface for validating access tokens.
type JWTValidator interface {
	ValidateToken(tokenString string) (*JWTClaims, error)
}

// JWTClaims represents the claims the boundary layer needs: who the
// caller is and what they may do. Core services never re-derive
// authorization; they accept the identities resolved here.
type JWTClaims struct {
	CallerID string
	Role     requestcontext.Role
}

// RequireAuth validates the bearer token and stores the caller identity
// and role in the request context.
func RequireAuth(validator JWTValidator, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" || !strings.HasPrefix(header, "Bearer ") {
				writeAuthError(w, "missing bearer token")
				return
			}
			token := strings.TrimPrefix(header, "Bearer ")

			claims, err := validator.ValidateToken(token)
			if err != nil {
				logger.WarnContext(r.Context(), "token validation failed",
					"request_id", requestcontext.RequestID(r.Context()),
					"error", err.Error(),
				)
				writeAuthError(w, "invalid token")
				return
			}

			ctx := requestcontext.WithCallerID(r.Context(), claims.CallerID)
			ctx = requestcontext.WithCallerRole(ctx, claims.Role)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRole rejects callers whose authenticated role does not match.
// Must run after RequireAuth.
func RequireRole(role requestcontext.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if requestcontext.CallerRole(r.Context()) != role {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(dErrors.ToHTTPStatus(dErrors.CodeForbidden))
				_, _ = w.Write([]byte(`{"error":"` + string(dErrors.CodeForbidden) + `"}`))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func writeAuthError(w http.ResponseWriter, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte(`{"error":"` + string(dErrors.CodeUnauthorized) + `","message":"` + msg + `"}`))
}
