package pinmw

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
})

func TestRequirePIN_ValidPIN(t *testing.T) {
	t.Parallel()

	h := RequirePIN("1234")(okHandler)

	req := httptest.NewRequest(http.MethodGet, "/?pin=1234", http.NoBody)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusOK)
	}
}

func TestRequirePIN_InvalidPIN(t *testing.T) {
	t.Parallel()

	h := RequirePIN("1234")(okHandler)

	tests := []struct {
		name   string
		target string
	}{
		{"wrong pin", "/?pin=9999"},
		{"partial match", "/?pin=123"},
		{"pin with suffix", "/?pin=12345"},
		{"missing param", "/"},
		{"empty param", "/?pin="},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			req := httptest.NewRequest(http.MethodGet, tt.target, http.NoBody)
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			if rec.Code != http.StatusUnauthorized {
				t.Errorf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
			}
		})
	}
}

func TestRequirePIN_EmptySecretRejectsEverything(t *testing.T) {
	t.Parallel()

	h := RequirePIN("")(okHandler)

	req := httptest.NewRequest(http.MethodGet, "/?pin=", http.NoBody)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
}
