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

var actorCols = scopeCols{tenant: "tenant_id"}

type ActorRepo struct {
	pool *pgxpool.Pool
}

func NewActorRepo(pool *pgxpool.Pool) *ActorRepo {
	return &ActorRepo{pool: pool}
}

const actorFields = `id, tenant_id, property_id, parent_actor_id, email, name, role, is_active, created_at, updated_at`

func (r *ActorRepo) Create(ctx context.Context, a *domain.Actor) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO actors (`+actorFields+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		a.ID, nilIfNilUUID(a.TenantID), a.PropertyID, a.ParentActorID,
		a.Email, a.Name, a.Role, a.IsActive, a.CreatedAt, a.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("actorRepo.Create: %w", err)
	}

	return nil
}

// CreateOccupantWithQuota locks the tenant's subscription row, re-counts
// occupant accounts live and inserts, all inside one transaction. The row
// lock spans the count check and the insert so two concurrent creations
// cannot jointly exceed the cap.
func (r *ActorRepo) CreateOccupantWithQuota(ctx context.Context, a *domain.Actor, maxTenants int) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("actorRepo.CreateOccupantWithQuota: begin: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // rollback after commit is a no-op

	var subID uuid.UUID
	err = tx.QueryRow(ctx,
		`SELECT id FROM subscriptions WHERE tenant_id = $1 FOR UPDATE`,
		a.TenantID,
	).Scan(&subID)
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("actorRepo.CreateOccupantWithQuota: %w", domain.ErrSubscriptionInactive)
	}
	if err != nil {
		return fmt.Errorf("actorRepo.CreateOccupantWithQuota: lock subscription: %w", err)
	}

	var count int
	err = tx.QueryRow(ctx,
		`SELECT count(*) FROM actors WHERE tenant_id = $1 AND role = $2`,
		a.TenantID, domain.RoleOccupant,
	).Scan(&count)
	if err != nil {
		return fmt.Errorf("actorRepo.CreateOccupantWithQuota: count: %w", err)
	}
	if count >= maxTenants {
		return fmt.Errorf("actorRepo.CreateOccupantWithQuota: %d of %d used: %w",
			count, maxTenants, domain.ErrSubscriptionLimitExceeded)
	}

	_, err = tx.Exec(ctx,
		`INSERT INTO actors (`+actorFields+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		a.ID, a.TenantID, a.PropertyID, a.ParentActorID,
		a.Email, a.Name, a.Role, a.IsActive, a.CreatedAt, a.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("actorRepo.CreateOccupantWithQuota: insert: %w", err)
	}

	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("actorRepo.CreateOccupantWithQuota: commit: %w", err)
	}

	return nil
}

func (r *ActorRepo) GetByID(ctx context.Context, scope domain.Scope, id uuid.UUID) (*domain.Actor, error) {
	clause, args := scopeClause(scope, actorCols, 2)

	row := r.pool.QueryRow(ctx,
		`SELECT `+actorFields+` FROM actors WHERE id = $1 AND `+clause,
		append([]any{id}, args...)...,
	)

	a, err := scanActor(row)
	if errors.Is(err, pgx.ErrNoRows) {
		// Outside the visible set reads as absent, never as forbidden.
		return nil, fmt.Errorf("actorRepo.GetByID: %w", domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("actorRepo.GetByID: %w", err)
	}

	return a, nil
}

func (r *ActorRepo) GetByEmail(ctx context.Context, email string) (*domain.Actor, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+actorFields+` FROM actors WHERE email = $1`,
		email,
	)

	a, err := scanActor(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("actorRepo.GetByEmail: %w", domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("actorRepo.GetByEmail: %w", err)
	}

	return a, nil
}

func (r *ActorRepo) Update(ctx context.Context, scope domain.Scope, a *domain.Actor) error {
	clause, args := scopeClause(scope, actorCols, 7)

	tag, err := r.pool.Exec(ctx,
		`UPDATE actors SET property_id = $1, email = $2, name = $3, role = $4, is_active = $5, updated_at = now()
		 WHERE id = $6 AND `+clause,
		append([]any{a.PropertyID, a.Email, a.Name, a.Role, a.IsActive, a.ID}, args...)...,
	)
	if err != nil {
		return fmt.Errorf("actorRepo.Update: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("actorRepo.Update: %w", domain.ErrNotFound)
	}

	return nil
}

func (r *ActorRepo) SetActive(ctx context.Context, scope domain.Scope, id uuid.UUID, active bool) error {
	clause, args := scopeClause(scope, actorCols, 3)

	tag, err := r.pool.Exec(ctx,
		`UPDATE actors SET is_active = $1, updated_at = now() WHERE id = $2 AND `+clause,
		append([]any{active, id}, args...)...,
	)
	if err != nil {
		return fmt.Errorf("actorRepo.SetActive: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("actorRepo.SetActive: %w", domain.ErrNotFound)
	}

	return nil
}

func (r *ActorRepo) List(ctx context.Context, scope domain.Scope) ([]*domain.Actor, error) {
	clause, args := scopeClause(scope, actorCols, 1)

	rows, err := r.pool.Query(ctx,
		`SELECT `+actorFields+` FROM actors WHERE `+clause+`
		 ORDER BY created_at, id
		 LIMIT 500`,
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("actorRepo.List: %w", err)
	}
	defer rows.Close()

	var actors []*domain.Actor
	for rows.Next() {
		a, scanErr := scanActor(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("actorRepo.List: scan: %w", scanErr)
		}
		actors = append(actors, a)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("actorRepo.List: rows: %w", err)
	}

	return actors, nil
}

func (r *ActorRepo) CountOccupants(ctx context.Context, tenantID uuid.UUID) (int, error) {
	var n int

	err := r.pool.QueryRow(ctx,
		`SELECT count(*) FROM actors WHERE tenant_id = $1 AND role = $2`,
		tenantID, domain.RoleOccupant,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("actorRepo.CountOccupants: %w", err)
	}

	return n, nil
}

func scanActor(row pgx.Row) (*domain.Actor, error) {
	var a domain.Actor
	var tenantID *uuid.UUID

	err := row.Scan(&a.ID, &tenantID, &a.PropertyID, &a.ParentActorID,
		&a.Email, &a.Name, &a.Role, &a.IsActive, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}

	if tenantID != nil {
		a.TenantID = *tenantID
	}

	return &a, nil
}

func nilIfNilUUID(id uuid.UUID) *uuid.UUID {
	if id == uuid.Nil {
		return nil
	}
	return &id
}
