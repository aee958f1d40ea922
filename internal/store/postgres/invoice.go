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

var invoiceCols = scopeCols{tenant: "tenant_id", property: "property_id", occupant: "occupant_id"}

type InvoiceRepo struct {
	pool *pgxpool.Pool
}

func NewInvoiceRepo(pool *pgxpool.Pool) *InvoiceRepo {
	return &InvoiceRepo{pool: pool}
}

const invoiceFields = `id, tenant_id, property_id, occupant_id, period_year, period_month,
	status, total_cents, finalized_at, paid_at, created_at, updated_at`

func (r *InvoiceRepo) Create(ctx context.Context, inv *domain.Invoice) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO invoices (`+invoiceFields+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		inv.ID, inv.TenantID, inv.PropertyID, inv.OccupantID, inv.PeriodYear,
		inv.PeriodMonth, inv.Status, inv.TotalCents, inv.FinalizedAt,
		inv.PaidAt, inv.CreatedAt, inv.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("invoiceRepo.Create: %w", err)
	}

	return nil
}

func (r *InvoiceRepo) GetByID(ctx context.Context, scope domain.Scope, id uuid.UUID) (*domain.Invoice, error) {
	clause, args := scopeClause(scope, invoiceCols, 2)

	inv, err := scanInvoiceRow(r.pool.QueryRow(ctx,
		`SELECT `+invoiceFields+` FROM invoices WHERE id = $1 AND `+clause,
		append([]any{id}, args...)...,
	))
	if err != nil {
		return nil, fmt.Errorf("invoiceRepo.GetByID: %w", err)
	}

	return inv, nil
}

func (r *InvoiceRepo) List(ctx context.Context, scope domain.Scope) ([]*domain.Invoice, error) {
	clause, args := scopeClause(scope, invoiceCols, 1)

	rows, err := r.pool.Query(ctx,
		`SELECT `+invoiceFields+` FROM invoices WHERE `+clause+`
		 ORDER BY period_year DESC, period_month DESC, id
		 LIMIT 500`,
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("invoiceRepo.List: %w", err)
	}
	defer rows.Close()

	var invoices []*domain.Invoice
	for rows.Next() {
		inv, err := scanInvoiceRow(rows)
		if err != nil {
			return nil, fmt.Errorf("invoiceRepo.List: %w", err)
		}

		invoices = append(invoices, inv)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("invoiceRepo.List: rows: %w", err)
	}

	return invoices, nil
}

// UpdateGuarded locks the stored row, runs the guard against the incoming
// state and writes every column or nothing. A guard rejection rolls the
// transaction back, so an invalid transition can never partially land.
func (r *InvoiceRepo) UpdateGuarded(ctx context.Context, scope domain.Scope, inv *domain.Invoice, guard domain.InvoiceWriteGuard) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("invoiceRepo.UpdateGuarded: begin: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // rollback after commit is a no-op

	clause, args := scopeClause(scope, invoiceCols, 2)

	stored, err := scanInvoiceRow(tx.QueryRow(ctx,
		`SELECT `+invoiceFields+` FROM invoices WHERE id = $1 AND `+clause+` FOR UPDATE`,
		append([]any{inv.ID}, args...)...,
	))
	if err != nil {
		return fmt.Errorf("invoiceRepo.UpdateGuarded: %w", err)
	}

	if guard != nil {
		if err = guard(stored, inv); err != nil {
			return fmt.Errorf("invoiceRepo.UpdateGuarded: %w", err)
		}
	}

	_, err = tx.Exec(ctx,
		`UPDATE invoices
		 SET occupant_id = $1, period_year = $2, period_month = $3, status = $4,
		     total_cents = $5, finalized_at = $6, paid_at = $7, updated_at = now()
		 WHERE id = $8`,
		inv.OccupantID, inv.PeriodYear, inv.PeriodMonth, inv.Status,
		inv.TotalCents, inv.FinalizedAt, inv.PaidAt, inv.ID,
	)
	if err != nil {
		return fmt.Errorf("invoiceRepo.UpdateGuarded: update: %w", err)
	}

	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("invoiceRepo.UpdateGuarded: commit: %w", err)
	}

	return nil
}

// ReplaceItems swaps the line items of a still-draft invoice. The parent
// row is locked first so a concurrent finalize cannot slip between the
// status check and the write.
func (r *InvoiceRepo) ReplaceItems(ctx context.Context, scope domain.Scope, invoiceID uuid.UUID, items []*domain.InvoiceItem) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("invoiceRepo.ReplaceItems: begin: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // rollback after commit is a no-op

	clause, args := scopeClause(scope, invoiceCols, 2)

	var status domain.InvoiceStatus
	err = tx.QueryRow(ctx,
		`SELECT status FROM invoices WHERE id = $1 AND `+clause+` FOR UPDATE`,
		append([]any{invoiceID}, args...)...,
	).Scan(&status)
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("invoiceRepo.ReplaceItems: %w", domain.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("invoiceRepo.ReplaceItems: lock: %w", err)
	}
	if status != domain.InvoiceDraft {
		return fmt.Errorf("invoiceRepo.ReplaceItems: %w", domain.ErrInvoiceFinalized)
	}

	_, err = tx.Exec(ctx, `DELETE FROM invoice_items WHERE invoice_id = $1`, invoiceID)
	if err != nil {
		return fmt.Errorf("invoiceRepo.ReplaceItems: delete: %w", err)
	}

	for _, it := range items {
		_, err = tx.Exec(ctx,
			`INSERT INTO invoice_items (id, invoice_id, tenant_id, meter_id, description,
			     tariff_snapshot, quantity, amount_cents, created_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
			it.ID, it.InvoiceID, it.TenantID, it.MeterID, it.Description,
			it.TariffSnapshot, it.Quantity, it.AmountCents, it.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("invoiceRepo.ReplaceItems: insert: %w", err)
		}
	}

	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("invoiceRepo.ReplaceItems: commit: %w", err)
	}

	return nil
}

// ListItems resolves the parent invoice through the caller's scope first,
// so item visibility follows invoice visibility exactly.
func (r *InvoiceRepo) ListItems(ctx context.Context, scope domain.Scope, invoiceID uuid.UUID) ([]*domain.InvoiceItem, error) {
	clause, args := scopeClause(scope, invoiceCols, 2)

	var parent uuid.UUID
	err := r.pool.QueryRow(ctx,
		`SELECT id FROM invoices WHERE id = $1 AND `+clause,
		append([]any{invoiceID}, args...)...,
	).Scan(&parent)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("invoiceRepo.ListItems: %w", domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("invoiceRepo.ListItems: %w", err)
	}

	rows, err := r.pool.Query(ctx,
		`SELECT id, invoice_id, tenant_id, meter_id, description, tariff_snapshot,
		     quantity, amount_cents, created_at
		 FROM invoice_items WHERE invoice_id = $1
		 ORDER BY created_at, id`,
		invoiceID,
	)
	if err != nil {
		return nil, fmt.Errorf("invoiceRepo.ListItems: %w", err)
	}
	defer rows.Close()

	var items []*domain.InvoiceItem
	for rows.Next() {
		var it domain.InvoiceItem

		err = rows.Scan(&it.ID, &it.InvoiceID, &it.TenantID, &it.MeterID,
			&it.Description, &it.TariffSnapshot, &it.Quantity, &it.AmountCents,
			&it.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("invoiceRepo.ListItems: scan: %w", err)
		}

		items = append(items, &it)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("invoiceRepo.ListItems: rows: %w", err)
	}

	return items, nil
}

func scanInvoiceRow(row pgx.Row) (*domain.Invoice, error) {
	var inv domain.Invoice

	err := row.Scan(&inv.ID, &inv.TenantID, &inv.PropertyID, &inv.OccupantID,
		&inv.PeriodYear, &inv.PeriodMonth, &inv.Status, &inv.TotalCents,
		&inv.FinalizedAt, &inv.PaidAt, &inv.CreatedAt, &inv.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	return &inv, nil
}
