package domain

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Provider is a global, tenant-independent utility supplier. Providers and
// tariffs are not subject to tenant scope enforcement; role policy alone
// restricts who may see or change them.
type Provider struct {
	ID          uuid.UUID
	Name        string
	ServiceKind MeterKind
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// NewProvider creates a Provider with validated required fields.
func NewProvider(name string, serviceKind MeterKind) (*Provider, error) {
	if name == "" {
		return nil, errors.New("provider: name is required")
	}
	if !serviceKind.Valid() {
		return nil, errors.New("provider: unknown service kind")
	}

	now := time.Now()
	return &Provider{
		ID:          uuid.New(),
		Name:        name,
		ServiceKind: serviceKind,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// Tariff prices one unit of a provider's service from ValidFrom onward.
type Tariff struct {
	ID         uuid.UUID
	ProviderID uuid.UUID
	Name       string
	PriceCents int64
	Unit       string // "m3", "kWh", "GJ"
	ValidFrom  time.Time
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// NewTariff creates a Tariff with validated required fields.
func NewTariff(providerID uuid.UUID, name, unit string, priceCents int64, validFrom time.Time) (*Tariff, error) {
	if providerID == uuid.Nil {
		return nil, errors.New("tariff: provider ID is required")
	}
	if name == "" {
		return nil, errors.New("tariff: name is required")
	}
	if unit == "" {
		return nil, errors.New("tariff: unit is required")
	}
	if priceCents < 0 {
		return nil, errors.New("tariff: price must be non-negative")
	}
	if validFrom.IsZero() {
		validFrom = time.Now()
	}

	now := time.Now()
	return &Tariff{
		ID:         uuid.New(),
		ProviderID: providerID,
		Name:       name,
		PriceCents: priceCents,
		Unit:       unit,
		ValidFrom:  validFrom,
		CreatedAt:  now,
		UpdatedAt:  now,
	}, nil
}

type ProviderRepository interface {
	Create(ctx context.Context, p *Provider) error
	GetByID(ctx context.Context, id uuid.UUID) (*Provider, error)
	Update(ctx context.Context, p *Provider) error
	List(ctx context.Context) ([]*Provider, error)
}

type TariffRepository interface {
	Create(ctx context.Context, t *Tariff) error
	GetByID(ctx context.Context, id uuid.UUID) (*Tariff, error)
	Update(ctx context.Context, t *Tariff) error
	List(ctx context.Context) ([]*Tariff, error)
	ListByProvider(ctx context.Context, providerID uuid.UUID) ([]*Tariff, error)
}
