package mw

import (
	"net/http"
	"strings"

	"github.com/tabdeck/tabdeck/internal/logger"
)

// EnforceHost allows requests only if r.Host matches one of the allowed
// hosts. Supports wildcard patterns like "*.example.com". An empty list is
// a passthrough.
func EnforceHost(allowedHosts []string, log logger.Logger) func(http.Handler) http.Handler {
	if len(allowedHosts) == 0 {
		return func(next http.Handler) http.Handler { return next }
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			for _, pattern := range allowedHosts {
				if matchHost(r.Host, pattern) {
					next.ServeHTTP(w, r)
					return
				}
			}
			log.Debug("request host rejected", logger.String("host", r.Host))
			w.WriteHeader(http.StatusForbidden)
		})
	}
}

// matchHost checks if host matches pattern (supports wildcard *.example.com)
func matchHost(host, pattern string) bool {
	if host == pattern {
		return true
	}
	if strings.HasPrefix(pattern, "*.") {
		return strings.HasSuffix(host, pattern[1:])
	}
	return false
}
