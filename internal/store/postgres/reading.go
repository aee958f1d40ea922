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

var readingCols = scopeCols{tenant: "tenant_id", property: "property_id"}

type MeterReadingRepo struct {
	pool *pgxpool.Pool
}

func NewMeterReadingRepo(pool *pgxpool.Pool) *MeterReadingRepo {
	return &MeterReadingRepo{pool: pool}
}

const readingFields = `id, tenant_id, property_id, meter_id, value, read_at, recorded_by, created_at`

func (r *MeterReadingRepo) Create(ctx context.Context, rd *domain.MeterReading) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO meter_readings (`+readingFields+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		rd.ID, rd.TenantID, rd.PropertyID, rd.MeterID, rd.Value, rd.ReadAt,
		rd.RecordedBy, rd.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("readingRepo.Create: %w", err)
	}

	return nil
}

func (r *MeterReadingRepo) GetByID(ctx context.Context, scope domain.Scope, id uuid.UUID) (*domain.MeterReading, error) {
	clause, args := scopeClause(scope, readingCols, 2)

	var rd domain.MeterReading
	err := r.pool.QueryRow(ctx,
		`SELECT `+readingFields+` FROM meter_readings WHERE id = $1 AND `+clause,
		append([]any{id}, args...)...,
	).Scan(&rd.ID, &rd.TenantID, &rd.PropertyID, &rd.MeterID, &rd.Value,
		&rd.ReadAt, &rd.RecordedBy, &rd.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("readingRepo.GetByID: %w", domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("readingRepo.GetByID: %w", err)
	}

	return &rd, nil
}

func (r *MeterReadingRepo) ListByMeter(ctx context.Context, scope domain.Scope, meterID uuid.UUID) ([]*domain.MeterReading, error) {
	clause, args := scopeClause(scope, readingCols, 2)

	rows, err := r.pool.Query(ctx,
		`SELECT `+readingFields+` FROM meter_readings WHERE meter_id = $1 AND `+clause+`
		 ORDER BY read_at DESC, id
		 LIMIT 500`,
		append([]any{meterID}, args...)...,
	)
	if err != nil {
		return nil, fmt.Errorf("readingRepo.ListByMeter: %w", err)
	}
	defer rows.Close()

	return scanReadings(rows, "readingRepo.ListByMeter")
}

func (r *MeterReadingRepo) List(ctx context.Context, scope domain.Scope) ([]*domain.MeterReading, error) {
	clause, args := scopeClause(scope, readingCols, 1)

	rows, err := r.pool.Query(ctx,
		`SELECT `+readingFields+` FROM meter_readings WHERE `+clause+`
		 ORDER BY read_at DESC, id
		 LIMIT 500`,
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("readingRepo.List: %w", err)
	}
	defer rows.Close()

	return scanReadings(rows, "readingRepo.List")
}

func scanReadings(rows pgx.Rows, op string) ([]*domain.MeterReading, error) {
	var readings []*domain.MeterReading
	for rows.Next() {
		var rd domain.MeterReading

		err := rows.Scan(&rd.ID, &rd.TenantID, &rd.PropertyID, &rd.MeterID,
			&rd.Value, &rd.ReadAt, &rd.RecordedBy, &rd.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("%s: scan: %w", op, err)
		}

		readings = append(readings, &rd)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: rows: %w", op, err)
	}

	return readings, nil
}
