// Package pinmw provides HTTP middleware for shared-secret PIN checks on
// query-parameter guarded endpoints.
package pinmw

import (
	"crypto/subtle"
	"net/http"
)

// RequirePIN returns middleware that validates the `pin` query parameter
// against the expected value. Comparison uses constant-time equality to
// prevent timing side-channel attacks. An empty expected PIN rejects every
// request: a guard without a secret is disabled, not open.
func RequirePIN(pin string) func(http.Handler) http.Handler {
	expected := []byte(pin)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if len(expected) == 0 {
				http.Error(w, `{"error":"forbidden"}`, http.StatusUnauthorized)
				return
			}

			got := []byte(r.URL.Query().Get("pin"))

			if subtle.ConstantTimeCompare(got, expected) != 1 {
				http.Error(w, `{"error":"invalid pin"}`, http.StatusUnauthorized)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
