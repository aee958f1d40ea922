package domain

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Role is the fixed set of actor roles. Administrative reach is nested
// (superadmin > admin > manager) but capabilities are not a single linear
// ladder: occupants are read-only and narrower than managers, not below them.
type Role string

const (
	RoleSuperadmin Role = "superadmin"
	RoleAdmin      Role = "admin"
	RoleManager    Role = "manager"
	RoleOccupant   Role = "tenant" // tenant-occupant of a single property
)

// Valid reports whether r is one of the four known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleSuperadmin, RoleAdmin, RoleManager, RoleOccupant:
		return true
	}
	return false
}

// RequiresPartition reports whether the role is meaningless without a
// tenant partition. Only superadmin operates cross-tenant.
func (r Role) RequiresPartition() bool {
	return r == RoleAdmin || r == RoleManager || r == RoleOccupant
}

// Actor is an authenticated identity. TenantID is uuid.Nil only for
// superadmins; PropertyID is set only for occupants. Actors are never
// hard-deleted while referenced resources exist; deactivation flips
// IsActive instead.
type Actor struct {
	ID            uuid.UUID
	TenantID      uuid.UUID  // uuid.Nil for superadmin
	PropertyID    *uuid.UUID // occupant's assigned property, nil otherwise
	ParentActorID *uuid.UUID // creator, for audit/hierarchy
	Email         string
	Name          string
	Role          Role
	IsActive      bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// NewActor creates an Actor with validated required fields.
func NewActor(tenantID uuid.UUID, role Role, email, name string, parent *uuid.UUID) (*Actor, error) {
	if !role.Valid() {
		return nil, errors.New("actor: unknown role")
	}
	if role.RequiresPartition() && tenantID == uuid.Nil {
		return nil, errors.New("actor: tenant ID is required for role " + string(role))
	}
	if role == RoleSuperadmin && tenantID != uuid.Nil {
		return nil, errors.New("actor: superadmin must not carry a tenant ID")
	}
	if email == "" {
		return nil, errors.New("actor: email is required")
	}
	if name == "" {
		return nil, errors.New("actor: name is required")
	}

	now := time.Now()
	return &Actor{
		ID:            uuid.New(),
		TenantID:      tenantID,
		ParentActorID: parent,
		Email:         email,
		Name:          name,
		Role:          role,
		IsActive:      true,
		CreatedAt:     now,
		UpdatedAt:     now,
	}, nil
}

type ActorRepository interface {
	Create(ctx context.Context, a *Actor) error
	// CreateOccupantWithQuota inserts an occupant account inside one
	// transaction that holds the tenant's subscription row locked across
	// the live account count and the insert.
	CreateOccupantWithQuota(ctx context.Context, a *Actor, maxTenants int) error
	GetByID(ctx context.Context, scope Scope, id uuid.UUID) (*Actor, error)
	GetByEmail(ctx context.Context, email string) (*Actor, error)
	Update(ctx context.Context, scope Scope, a *Actor) error
	SetActive(ctx context.Context, scope Scope, id uuid.UUID, active bool) error
	List(ctx context.Context, scope Scope) ([]*Actor, error)
	CountOccupants(ctx context.Context, tenantID uuid.UUID) (int, error)
}
