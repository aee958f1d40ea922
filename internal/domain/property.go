package domain

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Building groups properties that share an address and heating
// infrastructure. Heating-cost arithmetic itself lives outside this core.
type Building struct {
	ID           uuid.UUID
	TenantID     uuid.UUID
	Address      string
	HeatedAreaM2 float64
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// NewBuilding creates a Building with validated required fields.
func NewBuilding(tenantID uuid.UUID, address string, heatedAreaM2 float64) (*Building, error) {
	if tenantID == uuid.Nil {
		return nil, errors.New("building: tenant ID is required")
	}
	if address == "" {
		return nil, errors.New("building: address is required")
	}
	if heatedAreaM2 < 0 {
		return nil, errors.New("building: heated area must be non-negative")
	}

	now := time.Now()
	return &Building{
		ID:           uuid.New(),
		TenantID:     tenantID,
		Address:      address,
		HeatedAreaM2: heatedAreaM2,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

// Property is a billable unit (apartment, office). OccupantID links the
// tenant-occupant account that may read its invoices and readings.
type Property struct {
	ID         uuid.UUID
	TenantID   uuid.UUID
	BuildingID *uuid.UUID
	OccupantID *uuid.UUID
	Address    string
	AreaM2     float64
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// NewProperty creates a Property with validated required fields.
func NewProperty(tenantID uuid.UUID, buildingID *uuid.UUID, address string, areaM2 float64) (*Property, error) {
	if tenantID == uuid.Nil {
		return nil, errors.New("property: tenant ID is required")
	}
	if address == "" {
		return nil, errors.New("property: address is required")
	}
	if areaM2 < 0 {
		return nil, errors.New("property: area must be non-negative")
	}

	now := time.Now()
	return &Property{
		ID:         uuid.New(),
		TenantID:   tenantID,
		BuildingID: buildingID,
		Address:    address,
		AreaM2:     areaM2,
		CreatedAt:  now,
		UpdatedAt:  now,
	}, nil
}

type BuildingRepository interface {
	Create(ctx context.Context, b *Building) error
	GetByID(ctx context.Context, scope Scope, id uuid.UUID) (*Building, error)
	Update(ctx context.Context, scope Scope, b *Building) error
	Delete(ctx context.Context, scope Scope, id uuid.UUID) error
	List(ctx context.Context, scope Scope) ([]*Building, error)
}

type PropertyRepository interface {
	Create(ctx context.Context, p *Property) error
	// CreateWithQuota inserts inside one transaction that holds the
	// tenant's subscription row locked across the live property count and
	// the insert, closing the check-then-write race.
	CreateWithQuota(ctx context.Context, p *Property, maxProperties int) error
	GetByID(ctx context.Context, scope Scope, id uuid.UUID) (*Property, error)
	Update(ctx context.Context, scope Scope, p *Property) error
	Delete(ctx context.Context, scope Scope, id uuid.UUID) error
	List(ctx context.Context, scope Scope) ([]*Property, error)
	CountByTenant(ctx context.Context, tenantID uuid.UUID) (int, error)
	// SetOccupant links or clears the occupant account of a property.
	SetOccupant(ctx context.Context, scope Scope, id uuid.UUID, occupantID *uuid.UUID) error
}
