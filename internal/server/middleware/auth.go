package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/komunta/komunta/internal/auth"
	"github.com/komunta/komunta/internal/authz"
	"github.com/komunta/komunta/internal/domain"
)

// ActorSource is the subset of the actor repository Auth needs to load
// the stored account behind a token.
type ActorSource interface {
	GetByID(ctx context.Context, scope domain.Scope, id uuid.UUID) (*domain.Actor, error)
}

// Auth validates the bearer token and injects the resolved actor context.
// A token that parses but resolves to an invalid context (unknown role,
// missing partition) is rejected the same as a bad signature.
//
// For partition-bound roles the stored account is authoritative: the
// context is re-resolved from the current record, so a deactivated
// account is rejected even while its token is still fresh, and role or
// property changes take effect without waiting for token expiry.
// Superadmins are provisioned outside partition storage and resolve from
// claims alone.
func Auth(jwtSecret string, actors ActorSource) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tok := extractBearer(r)
			if tok == "" {
				unauthorized(w)
				return
			}

			claims, err := auth.ValidateToken(jwtSecret, tok)
			if err != nil || !claims.IsAccess() {
				unauthorized(w)
				return
			}

			actor := auth.ResolveContext(claims)
			if !actor.Valid() {
				unauthorized(w)
				return
			}

			if actor.Role() != domain.RoleSuperadmin {
				scope := domain.Scope{Kind: domain.ScopeTenant, TenantID: actor.TenantID()}
				record, rerr := actors.GetByID(r.Context(), scope, actor.ActorID())
				if rerr != nil {
					unauthorized(w)
					return
				}
				actor = authz.ResolveActor(record)
				if !actor.Valid() {
					unauthorized(w)
					return
				}
			}

			next.ServeHTTP(w, r.WithContext(WithActor(r.Context(), actor)))
		})
	}
}

func unauthorized(w http.ResponseWriter) {
	http.Error(w, `{"title":"Unauthorized","status":401,"detail":"missing or invalid credentials"}`, http.StatusUnauthorized)
}

func extractBearer(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	if len(auth) > 7 && strings.EqualFold(auth[:7], "bearer ") {
		return auth[7:]
	}
	return ""
}
