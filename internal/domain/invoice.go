package domain

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
)

// InvoiceStatus advances monotonically: draft -> finalized -> paid.
type InvoiceStatus string

const (
	InvoiceDraft     InvoiceStatus = "draft"
	InvoiceFinalized InvoiceStatus = "finalized"
	InvoicePaid      InvoiceStatus = "paid"
)

// ValidTransition reports whether moving from s to next is permitted.
// The status never moves backwards and never skips a step.
func (s InvoiceStatus) ValidTransition(next InvoiceStatus) bool {
	switch s {
	case InvoiceDraft:
		return next == InvoiceFinalized
	case InvoiceFinalized:
		return next == InvoicePaid
	default: // paid is terminal
		return false
	}
}

// Invoice bills one occupant for one period. Once finalized, every field
// except the status transition to paid is frozen; FinalizedAt is stamped
// exactly once.
type Invoice struct {
	ID          uuid.UUID
	TenantID    uuid.UUID
	PropertyID  uuid.UUID
	OccupantID  *uuid.UUID
	PeriodYear  int
	PeriodMonth int
	Status      InvoiceStatus
	TotalCents  int64
	FinalizedAt *time.Time
	PaidAt      *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// InvoiceItem rows are owned by an Invoice and inherit its immutability:
// once the parent leaves draft they are a frozen snapshot, including the
// pricing and meter inputs captured in TariffSnapshot.
type InvoiceItem struct {
	ID             uuid.UUID
	InvoiceID      uuid.UUID
	TenantID       uuid.UUID
	MeterID        *uuid.UUID
	Description    string
	TariffSnapshot json.RawMessage
	Quantity       int64 // milli-units
	AmountCents    int64
	CreatedAt      time.Time
}

// NewInvoice creates a draft Invoice for the given billing period.
func NewInvoice(tenantID, propertyID uuid.UUID, occupantID *uuid.UUID, year, month int) (*Invoice, error) {
	if tenantID == uuid.Nil {
		return nil, errors.New("invoice: tenant ID is required")
	}
	if propertyID == uuid.Nil {
		return nil, errors.New("invoice: property ID is required")
	}
	if year < 2000 || year > 2200 {
		return nil, errors.New("invoice: period year out of range")
	}
	if month < 1 || month > 12 {
		return nil, errors.New("invoice: period month out of range")
	}

	now := time.Now()
	return &Invoice{
		ID:          uuid.New(),
		TenantID:    tenantID,
		PropertyID:  propertyID,
		OccupantID:  occupantID,
		PeriodYear:  year,
		PeriodMonth: month,
		Status:      InvoiceDraft,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// NewInvoiceItem creates a line item for a still-draft invoice.
func NewInvoiceItem(inv *Invoice, meterID *uuid.UUID, description string, snapshot json.RawMessage, quantity, amountCents int64) (*InvoiceItem, error) {
	if inv == nil {
		return nil, errors.New("invoice item: invoice is required")
	}
	if description == "" {
		return nil, errors.New("invoice item: description is required")
	}
	if snapshot == nil {
		snapshot = json.RawMessage("{}")
	}

	return &InvoiceItem{
		ID:             uuid.New(),
		InvoiceID:      inv.ID,
		TenantID:       inv.TenantID,
		MeterID:        meterID,
		Description:    description,
		TariffSnapshot: snapshot,
		Quantity:       quantity,
		AmountCents:    amountCents,
		CreatedAt:      time.Now(),
	}, nil
}

// InvoiceWriteGuard decides whether an incoming state may replace the
// stored one. It runs inside the repository's update transaction, after
// the stored row is locked and before anything is written.
type InvoiceWriteGuard func(stored, incoming *Invoice) error

type InvoiceRepository interface {
	Create(ctx context.Context, inv *Invoice) error
	GetByID(ctx context.Context, scope Scope, id uuid.UUID) (*Invoice, error)
	List(ctx context.Context, scope Scope) ([]*Invoice, error)
	// UpdateGuarded locks the stored row, re-reads it, runs guard against
	// the incoming state and persists all-or-nothing.
	UpdateGuarded(ctx context.Context, scope Scope, inv *Invoice, guard InvoiceWriteGuard) error
	// ReplaceItems swaps the line items of a draft invoice.
	ReplaceItems(ctx context.Context, scope Scope, invoiceID uuid.UUID, items []*InvoiceItem) error
	ListItems(ctx context.Context, scope Scope, invoiceID uuid.UUID) ([]*InvoiceItem, error)
}
