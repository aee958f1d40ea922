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

var buildingCols = scopeCols{tenant: "tenant_id"}

type BuildingRepo struct {
	pool *pgxpool.Pool
}

func NewBuildingRepo(pool *pgxpool.Pool) *BuildingRepo {
	return &BuildingRepo{pool: pool}
}

const buildingFields = `id, tenant_id, address, heated_area_m2, created_at, updated_at`

func (r *BuildingRepo) Create(ctx context.Context, b *domain.Building) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO buildings (`+buildingFields+`)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		b.ID, b.TenantID, b.Address, b.HeatedAreaM2, b.CreatedAt, b.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("buildingRepo.Create: %w", err)
	}

	return nil
}

func (r *BuildingRepo) GetByID(ctx context.Context, scope domain.Scope, id uuid.UUID) (*domain.Building, error) {
	clause, args := scopeClause(scope, buildingCols, 2)

	var b domain.Building
	err := r.pool.QueryRow(ctx,
		`SELECT `+buildingFields+` FROM buildings WHERE id = $1 AND `+clause,
		append([]any{id}, args...)...,
	).Scan(&b.ID, &b.TenantID, &b.Address, &b.HeatedAreaM2, &b.CreatedAt, &b.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("buildingRepo.GetByID: %w", domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("buildingRepo.GetByID: %w", err)
	}

	return &b, nil
}

func (r *BuildingRepo) Update(ctx context.Context, scope domain.Scope, b *domain.Building) error {
	clause, args := scopeClause(scope, buildingCols, 4)

	tag, err := r.pool.Exec(ctx,
		`UPDATE buildings SET address = $1, heated_area_m2 = $2, updated_at = now()
		 WHERE id = $3 AND `+clause,
		append([]any{b.Address, b.HeatedAreaM2, b.ID}, args...)...,
	)
	if err != nil {
		return fmt.Errorf("buildingRepo.Update: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("buildingRepo.Update: %w", domain.ErrNotFound)
	}

	return nil
}

func (r *BuildingRepo) Delete(ctx context.Context, scope domain.Scope, id uuid.UUID) error {
	clause, args := scopeClause(scope, buildingCols, 2)

	tag, err := r.pool.Exec(ctx,
		`DELETE FROM buildings WHERE id = $1 AND `+clause,
		append([]any{id}, args...)...,
	)
	if err != nil {
		return fmt.Errorf("buildingRepo.Delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("buildingRepo.Delete: %w", domain.ErrNotFound)
	}

	return nil
}

func (r *BuildingRepo) List(ctx context.Context, scope domain.Scope) ([]*domain.Building, error) {
	clause, args := scopeClause(scope, buildingCols, 1)

	rows, err := r.pool.Query(ctx,
		`SELECT `+buildingFields+` FROM buildings WHERE `+clause+`
		 ORDER BY created_at, id
		 LIMIT 500`,
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("buildingRepo.List: %w", err)
	}
	defer rows.Close()

	var buildings []*domain.Building
	for rows.Next() {
		var b domain.Building

		err = rows.Scan(&b.ID, &b.TenantID, &b.Address, &b.HeatedAreaM2, &b.CreatedAt, &b.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("buildingRepo.List: scan: %w", err)
		}

		buildings = append(buildings, &b)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("buildingRepo.List: rows: %w", err)
	}

	return buildings, nil
}
