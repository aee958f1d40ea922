// Package invoice holds the write guard that makes finalized invoices
// immutable. The guard diffs stored against incoming state field by
// field; the only change it ever admits on a non-draft invoice is the
// finalized -> paid status transition. Rejection is all-or-nothing: it
// happens before anything is persisted.
package invoice

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/komunta/komunta/internal/domain"
)

// GuardWrite decides whether incoming may replace stored. It is a pure
// function intended to run inside the repository's update transaction,
// satisfying domain.InvoiceWriteGuard.
func GuardWrite(stored, incoming *domain.Invoice) error {
	if stored == nil || incoming == nil {
		return fmt.Errorf("invoice.GuardWrite: %w", domain.ErrNotFound)
	}

	if stored.Status == domain.InvoiceDraft {
		return guardDraftWrite(stored, incoming)
	}

	// Finalized or paid: every field except the status transition (and
	// its timestamp) is frozen.
	if frozenFieldsChanged(stored, incoming) {
		return fmt.Errorf("invoice.GuardWrite: frozen field changed: %w", domain.ErrInvoiceFinalized)
	}

	switch {
	case incoming.Status == stored.Status:
		// Idempotent rewrite of identical state.
		if !timesEqual(stored.PaidAt, incoming.PaidAt) {
			return fmt.Errorf("invoice.GuardWrite: paid timestamp changed: %w", domain.ErrInvoiceFinalized)
		}
		return nil

	case stored.Status.ValidTransition(incoming.Status):
		// finalized -> paid is the single permitted change.
		return nil

	default:
		return fmt.Errorf("invoice.GuardWrite: status %s -> %s: %w",
			stored.Status, incoming.Status, domain.ErrInvoiceFinalized)
	}
}

// guardDraftWrite allows free edits on a draft; the status may stay draft
// or take the one legal step to finalized, which must stamp FinalizedAt.
func guardDraftWrite(stored, incoming *domain.Invoice) error {
	if incoming.Status == domain.InvoiceDraft {
		return nil
	}
	if !stored.Status.ValidTransition(incoming.Status) {
		return fmt.Errorf("invoice.GuardWrite: status %s -> %s: %w",
			stored.Status, incoming.Status, domain.ErrInvoiceFinalized)
	}
	if incoming.FinalizedAt == nil {
		return fmt.Errorf("invoice.GuardWrite: finalize without timestamp: %w", domain.ErrInvoiceFinalized)
	}
	return nil
}

// frozenFieldsChanged compares everything except Status, PaidAt and
// UpdatedAt.
func frozenFieldsChanged(stored, incoming *domain.Invoice) bool {
	if stored.ID != incoming.ID ||
		stored.TenantID != incoming.TenantID ||
		stored.PropertyID != incoming.PropertyID ||
		stored.PeriodYear != incoming.PeriodYear ||
		stored.PeriodMonth != incoming.PeriodMonth ||
		stored.TotalCents != incoming.TotalCents {
		return true
	}
	if !uuidPtrEqual(stored.OccupantID, incoming.OccupantID) {
		return true
	}
	// FinalizedAt is stamped exactly once, on the draft -> finalized
	// transition, and never moves afterwards.
	return !timesEqual(stored.FinalizedAt, incoming.FinalizedAt)
}

// Finalize moves a draft invoice to finalized, stamping FinalizedAt
// exactly once. The caller persists via UpdateGuarded.
func Finalize(inv *domain.Invoice, now time.Time) error {
	if inv.Status != domain.InvoiceDraft {
		return fmt.Errorf("invoice.Finalize: status %s: %w", inv.Status, domain.ErrInvoiceFinalized)
	}

	inv.Status = domain.InvoiceFinalized
	inv.FinalizedAt = &now
	inv.UpdatedAt = now
	return nil
}

// MarkPaid moves a finalized invoice to paid.
func MarkPaid(inv *domain.Invoice, now time.Time) error {
	if !inv.Status.ValidTransition(domain.InvoicePaid) {
		return fmt.Errorf("invoice.MarkPaid: status %s: %w", inv.Status, domain.ErrInvoiceFinalized)
	}

	inv.Status = domain.InvoicePaid
	inv.PaidAt = &now
	inv.UpdatedAt = now
	return nil
}

func timesEqual(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equal(*b)
}

func uuidPtrEqual(a, b *uuid.UUID) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
