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

var meterCols = scopeCols{tenant: "tenant_id", property: "property_id"}

type MeterRepo struct {
	pool *pgxpool.Pool
}

func NewMeterRepo(pool *pgxpool.Pool) *MeterRepo {
	return &MeterRepo{pool: pool}
}

const meterFields = `id, tenant_id, property_id, kind, serial_number, is_active, created_at, updated_at`

func (r *MeterRepo) Create(ctx context.Context, m *domain.Meter) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO meters (`+meterFields+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		m.ID, m.TenantID, m.PropertyID, m.Kind, m.SerialNumber, m.IsActive,
		m.CreatedAt, m.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("meterRepo.Create: %w", err)
	}

	return nil
}

func (r *MeterRepo) GetByID(ctx context.Context, scope domain.Scope, id uuid.UUID) (*domain.Meter, error) {
	clause, args := scopeClause(scope, meterCols, 2)

	var m domain.Meter
	err := r.pool.QueryRow(ctx,
		`SELECT `+meterFields+` FROM meters WHERE id = $1 AND `+clause,
		append([]any{id}, args...)...,
	).Scan(&m.ID, &m.TenantID, &m.PropertyID, &m.Kind, &m.SerialNumber,
		&m.IsActive, &m.CreatedAt, &m.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("meterRepo.GetByID: %w", domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("meterRepo.GetByID: %w", err)
	}

	return &m, nil
}

func (r *MeterRepo) Update(ctx context.Context, scope domain.Scope, m *domain.Meter) error {
	clause, args := scopeClause(scope, meterCols, 5)

	tag, err := r.pool.Exec(ctx,
		`UPDATE meters SET kind = $1, serial_number = $2, is_active = $3, updated_at = now()
		 WHERE id = $4 AND `+clause,
		append([]any{m.Kind, m.SerialNumber, m.IsActive, m.ID}, args...)...,
	)
	if err != nil {
		return fmt.Errorf("meterRepo.Update: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("meterRepo.Update: %w", domain.ErrNotFound)
	}

	return nil
}

func (r *MeterRepo) Delete(ctx context.Context, scope domain.Scope, id uuid.UUID) error {
	clause, args := scopeClause(scope, meterCols, 2)

	tag, err := r.pool.Exec(ctx,
		`DELETE FROM meters WHERE id = $1 AND `+clause,
		append([]any{id}, args...)...,
	)
	if err != nil {
		return fmt.Errorf("meterRepo.Delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("meterRepo.Delete: %w", domain.ErrNotFound)
	}

	return nil
}

func (r *MeterRepo) List(ctx context.Context, scope domain.Scope) ([]*domain.Meter, error) {
	clause, args := scopeClause(scope, meterCols, 1)

	rows, err := r.pool.Query(ctx,
		`SELECT `+meterFields+` FROM meters WHERE `+clause+`
		 ORDER BY created_at, id
		 LIMIT 500`,
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("meterRepo.List: %w", err)
	}
	defer rows.Close()

	var meters []*domain.Meter
	for rows.Next() {
		var m domain.Meter

		err = rows.Scan(&m.ID, &m.TenantID, &m.PropertyID, &m.Kind,
			&m.SerialNumber, &m.IsActive, &m.CreatedAt, &m.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("meterRepo.List: scan: %w", err)
		}

		meters = append(meters, &m)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("meterRepo.List: rows: %w", err)
	}

	return meters, nil
}

func (r *MeterRepo) ListByProperty(ctx context.Context, scope domain.Scope, propertyID uuid.UUID) ([]*domain.Meter, error) {
	clause, args := scopeClause(scope, meterCols, 2)

	rows, err := r.pool.Query(ctx,
		`SELECT `+meterFields+` FROM meters WHERE property_id = $1 AND `+clause+`
		 ORDER BY created_at, id
		 LIMIT 500`,
		append([]any{propertyID}, args...)...,
	)
	if err != nil {
		return nil, fmt.Errorf("meterRepo.ListByProperty: %w", err)
	}
	defer rows.Close()

	var meters []*domain.Meter
	for rows.Next() {
		var m domain.Meter

		err = rows.Scan(&m.ID, &m.TenantID, &m.PropertyID, &m.Kind,
			&m.SerialNumber, &m.IsActive, &m.CreatedAt, &m.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("meterRepo.ListByProperty: scan: %w", err)
		}

		meters = append(meters, &m)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("meterRepo.ListByProperty: rows: %w", err)
	}

	return meters, nil
}
