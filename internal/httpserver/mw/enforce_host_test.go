package mw

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/tabdeck/tabdeck/internal/logger"
)

func TestEnforceHost(t *testing.T) {
	tests := []struct {
		name    string
		allowed []string
		host    string
		want    int
	}{
		{"empty list passes all", nil, "anything.example", http.StatusOK},
		{"exact match", []string{"tabs.example.com"}, "tabs.example.com", http.StatusOK},
		{"mismatch", []string{"tabs.example.com"}, "evil.example.com", http.StatusForbidden},
		{"wildcard match", []string{"*.example.com"}, "tabs.example.com", http.StatusOK},
		{"wildcard mismatch", []string{"*.example.com"}, "example.org", http.StatusForbidden},
	}

	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := EnforceHost(tt.allowed, logger.Nop())(ok)
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.Host = tt.host
			w := httptest.NewRecorder()
			h.ServeHTTP(w, req)
			if w.Code != tt.want {
				t.Errorf("host %q with allow %v: status = %d, want %d", tt.host, tt.allowed, w.Code, tt.want)
			}
		})
	}
}
