package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/komunta/komunta/internal/domain"
)

var auditCols = scopeCols{tenant: "tenant_id"}

type AuditRepo struct {
	pool *pgxpool.Pool
}

func NewAuditRepo(pool *pgxpool.Pool) *AuditRepo {
	return &AuditRepo{pool: pool}
}

func (r *AuditRepo) Record(ctx context.Context, entry *domain.AuditEntry) error {
	details, err := json.Marshal(entry.Details)
	if err != nil {
		return fmt.Errorf("auditRepo.Record: marshal details: %w", err)
	}

	_, err = r.pool.Exec(ctx,
		`INSERT INTO audit_log (id, tenant_id, actor_id, role, action, resource,
		     resource_id, outcome, details, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		entry.ID, nilIfNilUUID(entry.TenantID), entry.ActorID, entry.Role,
		entry.Action, entry.Resource, entry.ResourceID, entry.Outcome,
		details, entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("auditRepo.Record: %w", err)
	}

	return nil
}

func (r *AuditRepo) List(ctx context.Context, scope domain.Scope, limit, offset int) ([]*domain.AuditEntry, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}

	clause, args := scopeClause(scope, auditCols, 3)

	rows, err := r.pool.Query(ctx,
		`SELECT id, tenant_id, actor_id, role, action, resource, resource_id,
		     outcome, details, created_at
		 FROM audit_log WHERE `+clause+`
		 ORDER BY created_at DESC, id
		 LIMIT $1 OFFSET $2`,
		append([]any{limit, offset}, args...)...,
	)
	if err != nil {
		return nil, fmt.Errorf("auditRepo.List: %w", err)
	}
	defer rows.Close()

	var entries []*domain.AuditEntry
	for rows.Next() {
		var (
			e        domain.AuditEntry
			tenantID *uuid.UUID
			details  []byte
		)

		err = rows.Scan(&e.ID, &tenantID, &e.ActorID, &e.Role, &e.Action,
			&e.Resource, &e.ResourceID, &e.Outcome, &details, &e.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("auditRepo.List: scan: %w", err)
		}
		if tenantID != nil {
			e.TenantID = *tenantID
		}

		if len(details) > 0 {
			if err = json.Unmarshal(details, &e.Details); err != nil {
				return nil, fmt.Errorf("auditRepo.List: unmarshal details: %w", err)
			}
		}

		entries = append(entries, &e)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("auditRepo.List: rows: %w", err)
	}

	return entries, nil
}
