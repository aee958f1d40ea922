package invoice_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/komunta/komunta/internal/domain"
	"github.com/komunta/komunta/internal/invoice"
)

func draftInvoice(t *testing.T) *domain.Invoice {
	t.Helper()
	occ := uuid.New()
	inv, err := domain.NewInvoice(uuid.New(), uuid.New(), &occ, 2026, 8)
	require.NoError(t, err)
	inv.TotalCents = 12000
	return inv
}

func finalizedInvoice(t *testing.T) *domain.Invoice {
	t.Helper()
	inv := draftInvoice(t)
	require.NoError(t, invoice.Finalize(inv, time.Now()))
	return inv
}

func clone(inv *domain.Invoice) *domain.Invoice {
	c := *inv
	return &c
}

func TestGuardWrite_DraftIsFreelyEditable(t *testing.T) {
	t.Parallel()

	stored := draftInvoice(t)
	incoming := clone(stored)
	incoming.TotalCents = 99999
	incoming.PeriodMonth = 9

	assert.NoError(t, invoice.GuardWrite(stored, incoming))
}

func TestGuardWrite_DraftFinalizeNeedsTimestamp(t *testing.T) {
	t.Parallel()

	stored := draftInvoice(t)

	incoming := clone(stored)
	incoming.Status = domain.InvoiceFinalized
	require.ErrorIs(t, invoice.GuardWrite(stored, incoming), domain.ErrInvoiceFinalized)

	now := time.Now()
	incoming.FinalizedAt = &now
	assert.NoError(t, invoice.GuardWrite(stored, incoming))
}

func TestGuardWrite_DraftCannotSkipToPaid(t *testing.T) {
	t.Parallel()

	stored := draftInvoice(t)
	incoming := clone(stored)
	incoming.Status = domain.InvoicePaid

	require.ErrorIs(t, invoice.GuardWrite(stored, incoming), domain.ErrInvoiceFinalized)
}

func TestGuardWrite_FinalizedRejectsFieldChanges(t *testing.T) {
	t.Parallel()

	stored := finalizedInvoice(t)
	stored.TotalCents = 12000

	t.Run("amount change rejected", func(t *testing.T) {
		t.Parallel()

		incoming := clone(stored)
		incoming.TotalCents = 50000
		require.ErrorIs(t, invoice.GuardWrite(stored, incoming), domain.ErrInvoiceFinalized)
	})

	t.Run("period change rejected", func(t *testing.T) {
		t.Parallel()

		incoming := clone(stored)
		incoming.PeriodMonth = 12
		require.ErrorIs(t, invoice.GuardWrite(stored, incoming), domain.ErrInvoiceFinalized)
	})

	t.Run("occupant change rejected", func(t *testing.T) {
		t.Parallel()

		other := uuid.New()
		incoming := clone(stored)
		incoming.OccupantID = &other
		require.ErrorIs(t, invoice.GuardWrite(stored, incoming), domain.ErrInvoiceFinalized)
	})

	t.Run("finalized timestamp cannot move", func(t *testing.T) {
		t.Parallel()

		later := stored.FinalizedAt.Add(time.Hour)
		incoming := clone(stored)
		incoming.FinalizedAt = &later
		require.ErrorIs(t, invoice.GuardWrite(stored, incoming), domain.ErrInvoiceFinalized)
	})

	t.Run("field change combined with paid transition rejected whole", func(t *testing.T) {
		t.Parallel()

		now := time.Now()
		incoming := clone(stored)
		incoming.Status = domain.InvoicePaid
		incoming.PaidAt = &now
		incoming.TotalCents = 50000
		require.ErrorIs(t, invoice.GuardWrite(stored, incoming), domain.ErrInvoiceFinalized)
	})
}

func TestGuardWrite_FinalizedToPaidIsTheOnlyPermittedChange(t *testing.T) {
	t.Parallel()

	stored := finalizedInvoice(t)

	incoming := clone(stored)
	require.NoError(t, invoice.MarkPaid(incoming, time.Now()))

	assert.NoError(t, invoice.GuardWrite(stored, incoming))
}

func TestGuardWrite_PaidIsTerminal(t *testing.T) {
	t.Parallel()

	stored := finalizedInvoice(t)
	require.NoError(t, invoice.MarkPaid(stored, time.Now()))

	t.Run("no backwards transition", func(t *testing.T) {
		t.Parallel()

		incoming := clone(stored)
		incoming.Status = domain.InvoiceFinalized
		require.ErrorIs(t, invoice.GuardWrite(stored, incoming), domain.ErrInvoiceFinalized)
	})

	t.Run("identical rewrite is idempotent", func(t *testing.T) {
		t.Parallel()

		assert.NoError(t, invoice.GuardWrite(stored, clone(stored)))
	})

	t.Run("paid timestamp frozen", func(t *testing.T) {
		t.Parallel()

		later := stored.PaidAt.Add(time.Hour)
		incoming := clone(stored)
		incoming.PaidAt = &later
		require.ErrorIs(t, invoice.GuardWrite(stored, incoming), domain.ErrInvoiceFinalized)
	})
}

func TestFinalize(t *testing.T) {
	t.Parallel()

	t.Run("stamps finalized_at exactly once", func(t *testing.T) {
		t.Parallel()

		inv := draftInvoice(t)
		now := time.Now()
		require.NoError(t, invoice.Finalize(inv, now))

		assert.Equal(t, domain.InvoiceFinalized, inv.Status)
		require.NotNil(t, inv.FinalizedAt)
		assert.True(t, inv.FinalizedAt.Equal(now))

		// A second finalize is rejected and the stamp does not move.
		err := invoice.Finalize(inv, now.Add(time.Hour))
		require.ErrorIs(t, err, domain.ErrInvoiceFinalized)
		assert.True(t, inv.FinalizedAt.Equal(now))
	})
}

func TestMarkPaid(t *testing.T) {
	t.Parallel()

	t.Run("finalized to paid", func(t *testing.T) {
		t.Parallel()

		inv := finalizedInvoice(t)
		now := time.Now()
		require.NoError(t, invoice.MarkPaid(inv, now))

		assert.Equal(t, domain.InvoicePaid, inv.Status)
		require.NotNil(t, inv.PaidAt)
		assert.True(t, inv.PaidAt.Equal(now))
	})

	t.Run("draft cannot be paid", func(t *testing.T) {
		t.Parallel()

		inv := draftInvoice(t)
		require.ErrorIs(t, invoice.MarkPaid(inv, time.Now()), domain.ErrInvoiceFinalized)
	})

	t.Run("paid cannot be paid again", func(t *testing.T) {
		t.Parallel()

		inv := finalizedInvoice(t)
		require.NoError(t, invoice.MarkPaid(inv, time.Now()))
		require.ErrorIs(t, invoice.MarkPaid(inv, time.Now()), domain.ErrInvoiceFinalized)
	})
}
