package jwttoken

import (
	"bondgate/internal/platform/middleware"
	"bondgate/pkg/requestcontext"
)

// MiddlewareAdapter adapts Service to the middleware.JWTValidator
// interface so the transport layer stays decoupled from jwt internals.
type MiddlewareAdapter struct {
	service *Service
}

func NewMiddlewareAdapter(service *Service) *MiddlewareAdapter {
	return &MiddlewareAdapter{service: service}
}

func (a *MiddlewareAdapter) ValidateToken(tokenString string) (*middleware.JWTClaims, error) {
	claims, err := a.service.ValidateToken(tokenString)
	if err != nil {
		return nil, err
	}
	return &middleware.JWTClaims{
		CallerID: claims.CallerID,
		Role:     requestcontext.Role(claims.Role),
	}, nil
}
