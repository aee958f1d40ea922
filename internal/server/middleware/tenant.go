package middleware

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/komunta/komunta/internal/domain"
)

// RequirePartition rejects actors that are not anchored to a utility
// company partition. Superadmins operate across partitions and pass.
func RequirePartition() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			actor, ok := ActorFromContext(r.Context())
			if !ok || !actor.Valid() {
				http.Error(w, `{"title":"Forbidden","status":403,"detail":"valid partition required"}`, http.StatusForbidden)
				return
			}
			if actor.Role() != domain.RoleSuperadmin && actor.TenantID() == uuid.Nil {
				http.Error(w, `{"title":"Forbidden","status":403,"detail":"valid partition required"}`, http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
