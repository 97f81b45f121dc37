package middleware

import (
	"net/http"
	"strings"

	"github.com/mssola/useragent"

	"bondgate/pkg/requestcontext"
)

// Device parses the User-Agent into a short human-readable description
// used to enrich audit events. Parsing failures degrade to a generic
// label rather than blocking the request.
func Device(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := requestcontext.WithDevice(r.Context(), DescribeUserAgent(r.UserAgent()))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// DescribeUserAgent renders "<Browser> on <OS>" from a raw User-Agent.
func DescribeUserAgent(raw string) string {
	if raw == "" {
		return "Unknown Device"
	}
	ua := useragent.New(raw)
	name, _ := ua.Browser()
	os := ua.OS()

	parts := make([]string, 0, 3)
	if name != "" {
		parts = append(parts, name)
	}
	if os != "" {
		parts = append(parts, "on", os)
	}
	if len(parts) == 0 {
		return "Unknown Device"
	}
	return strings.Join(parts, " ")
}
