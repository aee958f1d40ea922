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

// A property's own id is its lineage column: an occupant scoped to
// property P sees exactly the row with id = P.
var propertyCols = scopeCols{tenant: "tenant_id", property: "id", occupant: "occupant_id"}

type PropertyRepo struct {
	pool *pgxpool.Pool
}

func NewPropertyRepo(pool *pgxpool.Pool) *PropertyRepo {
	return &PropertyRepo{pool: pool}
}

const propertyFields = `id, tenant_id, building_id, occupant_id, address, area_m2, created_at, updated_at`

func (r *PropertyRepo) Create(ctx context.Context, p *domain.Property) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO properties (`+propertyFields+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		p.ID, p.TenantID, p.BuildingID, p.OccupantID, p.Address, p.AreaM2,
		p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("propertyRepo.Create: %w", err)
	}

	return nil
}

// CreateWithQuota locks the tenant's subscription row, re-counts
// properties live and inserts, all in one transaction, so two concurrent
// creations cannot jointly exceed the cap.
func (r *PropertyRepo) CreateWithQuota(ctx context.Context, p *domain.Property, maxProperties int) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("propertyRepo.CreateWithQuota: begin: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // rollback after commit is a no-op

	var subID uuid.UUID
	err = tx.QueryRow(ctx,
		`SELECT id FROM subscriptions WHERE tenant_id = $1 FOR UPDATE`,
		p.TenantID,
	).Scan(&subID)
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("propertyRepo.CreateWithQuota: %w", domain.ErrSubscriptionInactive)
	}
	if err != nil {
		return fmt.Errorf("propertyRepo.CreateWithQuota: lock subscription: %w", err)
	}

	var count int
	err = tx.QueryRow(ctx,
		`SELECT count(*) FROM properties WHERE tenant_id = $1`,
		p.TenantID,
	).Scan(&count)
	if err != nil {
		return fmt.Errorf("propertyRepo.CreateWithQuota: count: %w", err)
	}
	if count >= maxProperties {
		return fmt.Errorf("propertyRepo.CreateWithQuota: %d of %d used: %w",
			count, maxProperties, domain.ErrSubscriptionLimitExceeded)
	}

	_, err = tx.Exec(ctx,
		`INSERT INTO properties (`+propertyFields+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		p.ID, p.TenantID, p.BuildingID, p.OccupantID, p.Address, p.AreaM2,
		p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("propertyRepo.CreateWithQuota: insert: %w", err)
	}

	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("propertyRepo.CreateWithQuota: commit: %w", err)
	}

	return nil
}

func (r *PropertyRepo) GetByID(ctx context.Context, scope domain.Scope, id uuid.UUID) (*domain.Property, error) {
	clause, args := scopeClause(scope, propertyCols, 2)

	var p domain.Property
	err := r.pool.QueryRow(ctx,
		`SELECT `+propertyFields+` FROM properties WHERE id = $1 AND `+clause,
		append([]any{id}, args...)...,
	).Scan(&p.ID, &p.TenantID, &p.BuildingID, &p.OccupantID, &p.Address,
		&p.AreaM2, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("propertyRepo.GetByID: %w", domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("propertyRepo.GetByID: %w", err)
	}

	return &p, nil
}

func (r *PropertyRepo) Update(ctx context.Context, scope domain.Scope, p *domain.Property) error {
	clause, args := scopeClause(scope, propertyCols, 5)

	tag, err := r.pool.Exec(ctx,
		`UPDATE properties SET building_id = $1, address = $2, area_m2 = $3, updated_at = now()
		 WHERE id = $4 AND `+clause,
		append([]any{p.BuildingID, p.Address, p.AreaM2, p.ID}, args...)...,
	)
	if err != nil {
		return fmt.Errorf("propertyRepo.Update: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("propertyRepo.Update: %w", domain.ErrNotFound)
	}

	return nil
}

func (r *PropertyRepo) Delete(ctx context.Context, scope domain.Scope, id uuid.UUID) error {
	clause, args := scopeClause(scope, propertyCols, 2)

	tag, err := r.pool.Exec(ctx,
		`DELETE FROM properties WHERE id = $1 AND `+clause,
		append([]any{id}, args...)...,
	)
	if err != nil {
		return fmt.Errorf("propertyRepo.Delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("propertyRepo.Delete: %w", domain.ErrNotFound)
	}

	return nil
}

func (r *PropertyRepo) List(ctx context.Context, scope domain.Scope) ([]*domain.Property, error) {
	clause, args := scopeClause(scope, propertyCols, 1)

	rows, err := r.pool.Query(ctx,
		`SELECT `+propertyFields+` FROM properties WHERE `+clause+`
		 ORDER BY created_at, id
		 LIMIT 500`,
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("propertyRepo.List: %w", err)
	}
	defer rows.Close()

	var properties []*domain.Property
	for rows.Next() {
		var p domain.Property

		err = rows.Scan(&p.ID, &p.TenantID, &p.BuildingID, &p.OccupantID,
			&p.Address, &p.AreaM2, &p.CreatedAt, &p.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("propertyRepo.List: scan: %w", err)
		}

		properties = append(properties, &p)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("propertyRepo.List: rows: %w", err)
	}

	return properties, nil
}

func (r *PropertyRepo) CountByTenant(ctx context.Context, tenantID uuid.UUID) (int, error) {
	var n int

	err := r.pool.QueryRow(ctx,
		`SELECT count(*) FROM properties WHERE tenant_id = $1`,
		tenantID,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("propertyRepo.CountByTenant: %w", err)
	}

	return n, nil
}

func (r *PropertyRepo) SetOccupant(ctx context.Context, scope domain.Scope, id uuid.UUID, occupantID *uuid.UUID) error {
	clause, args := scopeClause(scope, propertyCols, 3)

	tag, err := r.pool.Exec(ctx,
		`UPDATE properties SET occupant_id = $1, updated_at = now() WHERE id = $2 AND `+clause,
		append([]any{occupantID, id}, args...)...,
	)
	if err != nil {
		return fmt.Errorf("propertyRepo.SetOccupant: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("propertyRepo.SetOccupant: %w", domain.ErrNotFound)
	}

	return nil
}
