package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/komunta/komunta/internal/domain"
)

type SubscriptionRepo struct {
	pool *pgxpool.Pool
}

func NewSubscriptionRepo(pool *pgxpool.Pool) *SubscriptionRepo {
	return &SubscriptionRepo{pool: pool}
}

const subscriptionFields = `id, tenant_id, status, expires_at, max_properties, max_tenants, created_at, updated_at`

func (r *SubscriptionRepo) Create(ctx context.Context, s *domain.Subscription) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO subscriptions (`+subscriptionFields+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		s.ID, s.TenantID, s.Status, s.ExpiresAt, s.MaxProperties, s.MaxTenants,
		s.CreatedAt, s.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("subscriptionRepo.Create: %w", err)
	}

	return nil
}

func (r *SubscriptionRepo) GetByTenant(ctx context.Context, tenantID uuid.UUID) (*domain.Subscription, error) {
	var s domain.Subscription

	err := r.pool.QueryRow(ctx,
		`SELECT `+subscriptionFields+` FROM subscriptions WHERE tenant_id = $1`,
		tenantID,
	).Scan(&s.ID, &s.TenantID, &s.Status, &s.ExpiresAt, &s.MaxProperties,
		&s.MaxTenants, &s.CreatedAt, &s.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("subscriptionRepo.GetByTenant: %w", domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("subscriptionRepo.GetByTenant: %w", err)
	}

	return &s, nil
}

func (r *SubscriptionRepo) Update(ctx context.Context, s *domain.Subscription) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE subscriptions SET status = $1, expires_at = $2, max_properties = $3, max_tenants = $4, updated_at = now()
		 WHERE id = $5`,
		s.Status, s.ExpiresAt, s.MaxProperties, s.MaxTenants, s.ID,
	)
	if err != nil {
		return fmt.Errorf("subscriptionRepo.Update: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("subscriptionRepo.Update: %w", domain.ErrNotFound)
	}

	return nil
}

func (r *SubscriptionRepo) List(ctx context.Context) ([]*domain.Subscription, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+subscriptionFields+` FROM subscriptions ORDER BY created_at
		 LIMIT 500`,
	)
	if err != nil {
		return nil, fmt.Errorf("subscriptionRepo.List: %w", err)
	}
	defer rows.Close()

	var subs []*domain.Subscription
	for rows.Next() {
		var s domain.Subscription

		err = rows.Scan(&s.ID, &s.TenantID, &s.Status, &s.ExpiresAt,
			&s.MaxProperties, &s.MaxTenants, &s.CreatedAt, &s.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("subscriptionRepo.List: scan: %w", err)
		}

		subs = append(subs, &s)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("subscriptionRepo.List: rows: %w", err)
	}

	return subs, nil
}
