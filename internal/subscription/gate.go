// Package subscription gates mutating operations behind tenant
// subscription status and per-resource quotas. Counts are computed live
// at query time, never maintained as running counters, so out-of-band
// deletions cannot cause drift; renewal takes effect for the very next
// operation because no decision is ever cached.
package subscription

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/komunta/komunta/internal/authz"
	"github.com/komunta/komunta/internal/domain"
)

// UsageCounter reports live resource counts for a tenant partition.
// *postgres.Store repositories satisfy it.
type UsageCounter interface {
	CountProperties(ctx context.Context, tenantID uuid.UUID) (int, error)
	CountOccupants(ctx context.Context, tenantID uuid.UUID) (int, error)
}

// Gate evaluates subscription writability and quotas. The gate's check is
// the fast-path answer; quota-checked inserts additionally re-verify the
// count under a subscription row lock inside the store transaction.
type Gate struct {
	counter UsageCounter
	now     func() time.Time
}

// NewGate creates a Gate. now may be nil, defaulting to time.Now.
func NewGate(counter UsageCounter, now func() time.Time) *Gate {
	if now == nil {
		now = time.Now
	}
	return &Gate{counter: counter, now: now}
}

// Writable reports whether the subscription currently permits mutations.
// Suspended or expired subscriptions keep all data readable; only writes
// are rejected.
func (g *Gate) Writable(sub *domain.Subscription) error {
	if sub == nil {
		return fmt.Errorf("subscription.Writable: no subscription: %w", domain.ErrSubscriptionInactive)
	}
	if sub.Status != domain.SubscriptionActive {
		return fmt.Errorf("subscription.Writable: status %s: %w", sub.Status, domain.ErrSubscriptionInactive)
	}
	if !sub.ExpiresAt.After(g.now()) {
		return fmt.Errorf("subscription.Writable: expired at %s: %w", sub.ExpiresAt.Format(time.RFC3339), domain.ErrSubscriptionInactive)
	}
	return nil
}

// CheckQuota verifies writability and, for quota-governed resource
// classes, that the live count is below the subscription cap. Resources
// without a quota only need the writability check.
func (g *Gate) CheckQuota(ctx context.Context, sub *domain.Subscription, resource authz.Resource) error {
	if err := g.Writable(sub); err != nil {
		return err
	}

	switch resource {
	case authz.ResourceProperty:
		n, err := g.counter.CountProperties(ctx, sub.TenantID)
		if err != nil {
			return fmt.Errorf("subscription.CheckQuota: count properties: %w", err)
		}
		if n >= sub.MaxProperties {
			return fmt.Errorf("subscription.CheckQuota: %d of %d properties used: %w",
				n, sub.MaxProperties, domain.ErrSubscriptionLimitExceeded)
		}

	case authz.ResourceUser:
		n, err := g.counter.CountOccupants(ctx, sub.TenantID)
		if err != nil {
			return fmt.Errorf("subscription.CheckQuota: count occupants: %w", err)
		}
		if n >= sub.MaxTenants {
			return fmt.Errorf("subscription.CheckQuota: %d of %d occupant accounts used: %w",
				n, sub.MaxTenants, domain.ErrSubscriptionLimitExceeded)
		}
	}

	return nil
}

// Renew reactivates a subscription with a future expiry. The change is
// effective for the next operation; nothing caches the old decision.
func Renew(sub *domain.Subscription, expiresAt time.Time) {
	sub.Status = domain.SubscriptionActive
	sub.ExpiresAt = expiresAt
	sub.UpdatedAt = time.Now()
}

// Suspend blocks further writes while keeping data readable.
func Suspend(sub *domain.Subscription) {
	sub.Status = domain.SubscriptionSuspended
	sub.UpdatedAt = time.Now()
}
