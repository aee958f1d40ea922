package middleware

import (
	"net/http"

	"github.com/komunta/komunta/internal/domain"
)

// RequireRole returns middleware that checks whether the authenticated
// actor holds one of the allowed roles. Superadmins always pass. It must
// be chained after Auth, which stores the actor context on the request.
//
// Returns 401 Unauthorized when no actor is found in context (Auth
// middleware not applied or authentication failed). Returns 403 Forbidden
// when the actor's role does not match any of the allowed roles.
func RequireRole(roles ...domain.Role) func(http.Handler) http.Handler {
	allowed := make(map[domain.Role]struct{}, len(roles))
	for _, r := range roles {
		allowed[r] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			actor, ok := ActorFromContext(r.Context())
			if !ok || !actor.Valid() {
				http.Error(w, `{"title":"Unauthorized","status":401,"detail":"authentication required"}`, http.StatusUnauthorized)
				return
			}

			if actor.Role() != domain.RoleSuperadmin {
				if _, match := allowed[actor.Role()]; !match {
					http.Error(w, `{"title":"Forbidden","status":403,"detail":"insufficient permissions"}`, http.StatusForbidden)
					return
				}
			}

			next.ServeHTTP(w, r)
		})
	}
}
