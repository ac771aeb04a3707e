// Package api implements the Ansuz REST API using chi.
package api

import (
	"net/http"
	"strings"

	"github.com/starford/ansuz/internal/tenant"
)

// TenantHeader carries the tenant ID on REST requests.
const TenantHeader = "X-Tenant"

// AuthMiddleware returns middleware that validates a Bearer token.
// If enabled is false, all requests pass through (disabled mode).
func AuthMiddleware(enabled bool, token string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !enabled {
				next.ServeHTTP(w, r)
				return
			}
			auth := r.Header.Get("Authorization")
			if !strings.HasPrefix(auth, "Bearer ") || strings.TrimPrefix(auth, "Bearer ") != token {
				writeJSON(w, http.StatusUnauthorized, errorBody("unauthorized"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// TenantMiddleware extracts the tenant ID from the X-Tenant header and puts
// it on the request context. Requests without a tenant are rejected; whether
// the tenant is actually configured is decided by the registry when the
// stores run.
func TenantMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(TenantHeader)
		if id == "" {
			writeJSON(w, http.StatusBadRequest, errorBody(TenantHeader+" header is required"))
			return
		}
		next.ServeHTTP(w, r.WithContext(tenant.NewContext(r.Context(), id)))
	})
}
