package httpserver

import (
	"net/http"
	"time"
)

// New builds an HTTP server with conservative timeouts. Transfer
// commands hold a ledger transaction, so slow clients must not be able
// to pin connections open indefinitely.
func New(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
}
