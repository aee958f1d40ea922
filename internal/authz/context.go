// Package authz is the authorization core: actor context resolution, the
// role capability matrix, tenant scope enforcement and the property
// assignment validator. It is pure, with no storage or transport imports,
// and every ambiguous input degrades to "matches nothing".
package authz

import (
	"github.com/google/uuid"

	"github.com/komunta/komunta/internal/domain"
)

// ActorContext is the immutable identity record every operation carries.
// It is resolved once per request and threaded explicitly; it is never
// stored as shared mutable state. An invalid context matches nothing:
// policy denies and scopes are empty.
type ActorContext struct {
	actorID    uuid.UUID
	role       domain.Role
	tenantID   uuid.UUID
	propertyID uuid.UUID // occupant's property, uuid.Nil otherwise
	valid      bool
}

// Resolve turns an authenticated session identity into an ActorContext.
// A role that requires a tenant partition with no resolvable tenant ID
// yields an invalid context, never an unscoped one.
func Resolve(actorID uuid.UUID, role domain.Role, tenantID, propertyID uuid.UUID) ActorContext {
	c := ActorContext{
		actorID:    actorID,
		role:       role,
		tenantID:   tenantID,
		propertyID: propertyID,
	}

	switch {
	case actorID == uuid.Nil:
	case !role.Valid():
	case role.RequiresPartition() && tenantID == uuid.Nil:
	case role == domain.RoleSuperadmin && tenantID != uuid.Nil:
	default:
		c.valid = true
	}

	return c
}

// ResolveActor builds an ActorContext from a stored actor record.
// Deactivated actors resolve to an invalid context.
func ResolveActor(a *domain.Actor) ActorContext {
	if a == nil || !a.IsActive {
		return ActorContext{}
	}

	propertyID := uuid.Nil
	if a.PropertyID != nil {
		propertyID = *a.PropertyID
	}

	return Resolve(a.ID, a.Role, a.TenantID, propertyID)
}

// Valid reports whether the context identifies a scoped, known actor.
func (c ActorContext) Valid() bool { return c.valid }

func (c ActorContext) ActorID() uuid.UUID { return c.actorID }

func (c ActorContext) Role() domain.Role { return c.role }

func (c ActorContext) TenantID() uuid.UUID { return c.tenantID }

// PropertyID is the occupant's assigned property, or uuid.Nil. An
// occupant without a property is a valid actor that sees an empty set for
// every property-linked entity type.
func (c ActorContext) PropertyID() uuid.UUID { return c.propertyID }
