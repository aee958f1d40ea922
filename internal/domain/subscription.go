package domain

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// SubscriptionStatus is settable independently of the expiry timestamp;
// effective write permission requires status active AND a future expiry.
type SubscriptionStatus string

const (
	SubscriptionActive    SubscriptionStatus = "active"
	SubscriptionSuspended SubscriptionStatus = "suspended"
	SubscriptionExpired   SubscriptionStatus = "expired"
)

// Subscription is one-to-one with an admin's tenant partition and carries
// the per-resource quotas the gate enforces with live counts.
type Subscription struct {
	ID            uuid.UUID
	TenantID      uuid.UUID
	Status        SubscriptionStatus
	ExpiresAt     time.Time
	MaxProperties int
	MaxTenants    int // occupant accounts, not partitions
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// NewSubscription creates a Subscription for a tenant partition.
func NewSubscription(tenantID uuid.UUID, expiresAt time.Time, maxProperties, maxTenants int) (*Subscription, error) {
	if tenantID == uuid.Nil {
		return nil, errors.New("subscription: tenant ID is required")
	}
	if maxProperties < 0 || maxTenants < 0 {
		return nil, errors.New("subscription: quotas must be non-negative")
	}

	now := time.Now()
	return &Subscription{
		ID:            uuid.New(),
		TenantID:      tenantID,
		Status:        SubscriptionActive,
		ExpiresAt:     expiresAt,
		MaxProperties: maxProperties,
		MaxTenants:    maxTenants,
		CreatedAt:     now,
		UpdatedAt:     now,
	}, nil
}

type SubscriptionRepository interface {
	Create(ctx context.Context, s *Subscription) error
	GetByTenant(ctx context.Context, tenantID uuid.UUID) (*Subscription, error)
	Update(ctx context.Context, s *Subscription) error
	List(ctx context.Context) ([]*Subscription, error)
}
