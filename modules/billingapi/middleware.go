package billingapi

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/hirelens/billingkit/pkg/tenant"
)

// Request headers carrying the caller identity. The API sits behind the
// application backend, which authenticates end users and forwards the
// resolved tenant id.
const (
	headerTenantID   = "X-Tenant-ID"
	headerAdminActor = "X-Admin-Actor"
)

// requireTenant resolves the caller's tenant scope and verifies the
// tenant is active. Everything downstream reads the scope from the
// request context.
func (m *Module) requireTenant(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tenantID, err := uuid.Parse(r.Header.Get(headerTenantID))
		if err != nil {
			m.respondError(r.Context(), w, tenant.ErrNoScope)
			return
		}

		scope := tenant.NewScope(tenantID)
		t, err := m.deps.Tenants.Get(r.Context(), scope, tenantID)
		if err != nil {
			m.respondError(r.Context(), w, err)
			return
		}
		if !t.IsActive() {
			m.respondError(r.Context(), w, tenant.ErrInactiveTenant)
			return
		}

		next.ServeHTTP(w, r.WithContext(tenant.WithScope(r.Context(), scope)))
	})
}

// requireAdmin grants system scope to callers holding the admin token.
func (m *Module) requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if m.cfg.AdminToken == "" || !ok ||
			subtle.ConstantTimeCompare([]byte(token), []byte(m.cfg.AdminToken)) != 1 {
			m.respondError(r.Context(), w, tenant.ErrNoScope)
			return
		}

		actor := r.Header.Get(headerAdminActor)
		if actor == "" {
			actor = "admin-api"
		}

		scope := tenant.SystemScope(actor)
		next.ServeHTTP(w, r.WithContext(tenant.WithScope(r.Context(), scope)))
	})
}
