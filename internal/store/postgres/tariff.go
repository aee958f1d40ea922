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

// Providers and tariffs are global reference data. Role policy gates
// access; no scope predicate applies here.

type ProviderRepo struct {
	pool *pgxpool.Pool
}

func NewProviderRepo(pool *pgxpool.Pool) *ProviderRepo {
	return &ProviderRepo{pool: pool}
}

func (r *ProviderRepo) Create(ctx context.Context, p *domain.Provider) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO providers (id, name, service_kind, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		p.ID, p.Name, p.ServiceKind, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("providerRepo.Create: %w", err)
	}

	return nil
}

func (r *ProviderRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Provider, error) {
	var p domain.Provider

	err := r.pool.QueryRow(ctx,
		`SELECT id, name, service_kind, created_at, updated_at FROM providers WHERE id = $1`,
		id,
	).Scan(&p.ID, &p.Name, &p.ServiceKind, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("providerRepo.GetByID: %w", domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("providerRepo.GetByID: %w", err)
	}

	return &p, nil
}

func (r *ProviderRepo) Update(ctx context.Context, p *domain.Provider) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE providers SET name = $1, service_kind = $2, updated_at = now() WHERE id = $3`,
		p.Name, p.ServiceKind, p.ID,
	)
	if err != nil {
		return fmt.Errorf("providerRepo.Update: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("providerRepo.Update: %w", domain.ErrNotFound)
	}

	return nil
}

func (r *ProviderRepo) List(ctx context.Context) ([]*domain.Provider, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, name, service_kind, created_at, updated_at FROM providers
		 ORDER BY name, id
		 LIMIT 500`,
	)
	if err != nil {
		return nil, fmt.Errorf("providerRepo.List: %w", err)
	}
	defer rows.Close()

	var providers []*domain.Provider
	for rows.Next() {
		var p domain.Provider

		err = rows.Scan(&p.ID, &p.Name, &p.ServiceKind, &p.CreatedAt, &p.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("providerRepo.List: scan: %w", err)
		}

		providers = append(providers, &p)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("providerRepo.List: rows: %w", err)
	}

	return providers, nil
}

type TariffRepo struct {
	pool *pgxpool.Pool
}

func NewTariffRepo(pool *pgxpool.Pool) *TariffRepo {
	return &TariffRepo{pool: pool}
}

const tariffFields = `id, provider_id, name, price_cents, unit, valid_from, created_at, updated_at`

func (r *TariffRepo) Create(ctx context.Context, t *domain.Tariff) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO tariffs (`+tariffFields+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		t.ID, t.ProviderID, t.Name, t.PriceCents, t.Unit, t.ValidFrom,
		t.CreatedAt, t.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("tariffRepo.Create: %w", err)
	}

	return nil
}

func (r *TariffRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Tariff, error) {
	var t domain.Tariff

	err := r.pool.QueryRow(ctx,
		`SELECT `+tariffFields+` FROM tariffs WHERE id = $1`,
		id,
	).Scan(&t.ID, &t.ProviderID, &t.Name, &t.PriceCents, &t.Unit, &t.ValidFrom,
		&t.CreatedAt, &t.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("tariffRepo.GetByID: %w", domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("tariffRepo.GetByID: %w", err)
	}

	return &t, nil
}

func (r *TariffRepo) Update(ctx context.Context, t *domain.Tariff) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE tariffs SET name = $1, price_cents = $2, unit = $3, valid_from = $4, updated_at = now()
		 WHERE id = $5`,
		t.Name, t.PriceCents, t.Unit, t.ValidFrom, t.ID,
	)
	if err != nil {
		return fmt.Errorf("tariffRepo.Update: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("tariffRepo.Update: %w", domain.ErrNotFound)
	}

	return nil
}

func (r *TariffRepo) List(ctx context.Context) ([]*domain.Tariff, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+tariffFields+` FROM tariffs
		 ORDER BY valid_from DESC, id
		 LIMIT 500`,
	)
	if err != nil {
		return nil, fmt.Errorf("tariffRepo.List: %w", err)
	}
	defer rows.Close()

	return scanTariffs(rows, "tariffRepo.List")
}

func (r *TariffRepo) ListByProvider(ctx context.Context, providerID uuid.UUID) ([]*domain.Tariff, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+tariffFields+` FROM tariffs WHERE provider_id = $1
		 ORDER BY valid_from DESC, id
		 LIMIT 500`,
		providerID,
	)
	if err != nil {
		return nil, fmt.Errorf("tariffRepo.ListByProvider: %w", err)
	}
	defer rows.Close()

	return scanTariffs(rows, "tariffRepo.ListByProvider")
}

func scanTariffs(rows pgx.Rows, op string) ([]*domain.Tariff, error) {
	var tariffs []*domain.Tariff
	for rows.Next() {
		var t domain.Tariff

		err := rows.Scan(&t.ID, &t.ProviderID, &t.Name, &t.PriceCents, &t.Unit,
			&t.ValidFrom, &t.CreatedAt, &t.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("%s: scan: %w", op, err)
		}

		tariffs = append(tariffs, &t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: rows: %w", op, err)
	}

	return tariffs, nil
}
