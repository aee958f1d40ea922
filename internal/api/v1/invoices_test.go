package v1_test

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/danielgtaylor/huma/v2/humatest"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	v1 "github.com/komunta/komunta/internal/api/v1"
	"github.com/komunta/komunta/internal/domain"
	redisstore "github.com/komunta/komunta/internal/store/redis"
)

// guardedRepo wires the mock's UpdateGuarded to actually run the guard
// against a stored snapshot, the way the real repository does under lock.
func guardedRepo(stored *domain.Invoice, onWrite func(*domain.Invoice)) *mockInvoiceRepo {
	return &mockInvoiceRepo{
		getByIDFunc: func(_ context.Context, _ domain.Scope, _ uuid.UUID) (*domain.Invoice, error) {
			cp := *stored
			return &cp, nil
		},
		updateGuardedFunc: func(_ context.Context, _ domain.Scope, inv *domain.Invoice, guard domain.InvoiceWriteGuard) error {
			if err := guard(stored, inv); err != nil {
				return err
			}
			if onWrite != nil {
				onWrite(inv)
			}
			*stored = *inv
			return nil
		},
	}
}

// ---------------------------------------------------------------------------
// POST /invoices
// ---------------------------------------------------------------------------

func TestCreateInvoice(t *testing.T) {
	t.Parallel()

	t.Run("happy_path", func(t *testing.T) {
		t.Parallel()

		tid := uuid.New()
		occupantID := uuid.New()
		property, _ := domain.NewProperty(tid, nil, "Main St 1, apt 3", 61.0)
		property.OccupantID = &occupantID

		var created *domain.Invoice
		_, api := humatest.New(t)
		store := &mockDataStore{
			invoices: &mockInvoiceRepo{
				createFunc: func(_ context.Context, inv *domain.Invoice) error {
					created = inv
					return nil
				},
			},
			properties: &mockPropertyRepo{
				getByIDFunc: func(_ context.Context, _ domain.Scope, _ uuid.UUID) (*domain.Property, error) {
					return property, nil
				},
			},
			subscriptions: &mockSubscriptionRepo{
				getByTenantFunc: func(_ context.Context, _ uuid.UUID) (*domain.Subscription, error) {
					return activeSub(tid), nil
				},
			},
		}
		v1.RegisterInvoiceRoutes(api, &v1.Guard{}, store, testGate(), nil)

		resp := api.PostCtx(managerCtx(tid), "/invoices", map[string]any{
			"property_id":  property.ID.String(),
			"period_year":  2026,
			"period_month": 8,
		})

		require.Equal(t, http.StatusOK, resp.Code)
		require.NotNil(t, created)
		assert.Equal(t, domain.InvoiceDraft, created.Status)
		assert.Equal(t, tid, created.TenantID)
		assert.Equal(t, property.ID, created.PropertyID)
		require.NotNil(t, created.OccupantID)
		assert.Equal(t, occupantID, *created.OccupantID)
		assert.Nil(t, created.FinalizedAt)
	})

	t.Run("occupant_denied", func(t *testing.T) {
		t.Parallel()

		tid := uuid.New()
		_, api := humatest.New(t)
		v1.RegisterInvoiceRoutes(api, &v1.Guard{}, &mockDataStore{}, testGate(), nil)

		resp := api.PostCtx(occupantCtx(tid, uuid.New()), "/invoices", map[string]any{
			"property_id":  uuid.NewString(),
			"period_year":  2026,
			"period_month": 8,
		})

		assert.Equal(t, http.StatusForbidden, resp.Code)
	})

	t.Run("expired_subscription_403", func(t *testing.T) {
		t.Parallel()

		tid := uuid.New()
		sub := activeSub(tid)
		sub.ExpiresAt = time.Now().Add(-time.Hour)

		_, api := humatest.New(t)
		store := &mockDataStore{
			subscriptions: &mockSubscriptionRepo{
				getByTenantFunc: func(_ context.Context, _ uuid.UUID) (*domain.Subscription, error) {
					return sub, nil
				},
			},
		}
		v1.RegisterInvoiceRoutes(api, &v1.Guard{}, store, testGate(), nil)

		resp := api.PostCtx(managerCtx(tid), "/invoices", map[string]any{
			"property_id":  uuid.NewString(),
			"period_year":  2026,
			"period_month": 8,
		})

		assert.Equal(t, http.StatusForbidden, resp.Code)
	})
}

// ---------------------------------------------------------------------------
// PUT /invoices/{id}
// ---------------------------------------------------------------------------

func TestUpdateInvoice(t *testing.T) {
	t.Parallel()

	t.Run("draft_edits_pass", func(t *testing.T) {
		t.Parallel()

		tid := uuid.New()
		stored, _ := domain.NewInvoice(tid, uuid.New(), nil, 2026, 7)

		_, api := humatest.New(t)
		store := &mockDataStore{invoices: guardedRepo(stored, nil), subscriptions: activeSubs(tid)}
		v1.RegisterInvoiceRoutes(api, &v1.Guard{}, store, testGate(), nil)

		resp := api.PutCtx(managerCtx(tid), "/invoices/"+stored.ID.String(), map[string]any{
			"period_year":  2026,
			"period_month": 7,
			"total_cents":  125050,
		})

		require.Equal(t, http.StatusOK, resp.Code)
		assert.Equal(t, int64(125050), stored.TotalCents)
	})

	t.Run("expired_subscription_403", func(t *testing.T) {
		t.Parallel()

		tid := uuid.New()
		stored, _ := domain.NewInvoice(tid, uuid.New(), nil, 2026, 7)
		stored.TotalCents = 500

		_, api := humatest.New(t)
		store := &mockDataStore{invoices: guardedRepo(stored, nil), subscriptions: expiredSubs(tid)}
		v1.RegisterInvoiceRoutes(api, &v1.Guard{}, store, testGate(), nil)

		resp := api.PutCtx(managerCtx(tid), "/invoices/"+stored.ID.String(), map[string]any{
			"period_year":  2026,
			"period_month": 7,
			"total_cents":  125050,
		})

		assert.Equal(t, http.StatusForbidden, resp.Code)
		assert.Equal(t, int64(500), stored.TotalCents, "gated write must not land")
	})

	t.Run("finalized_total_frozen_409", func(t *testing.T) {
		t.Parallel()

		tid := uuid.New()
		stored, _ := domain.NewInvoice(tid, uuid.New(), nil, 2026, 7)
		now := time.Now()
		stored.Status = domain.InvoiceFinalized
		stored.FinalizedAt = &now
		stored.TotalCents = 99900

		_, api := humatest.New(t)
		store := &mockDataStore{invoices: guardedRepo(stored, nil), subscriptions: activeSubs(tid)}
		v1.RegisterInvoiceRoutes(api, &v1.Guard{}, store, testGate(), nil)

		resp := api.PutCtx(managerCtx(tid), "/invoices/"+stored.ID.String(), map[string]any{
			"period_year":  2026,
			"period_month": 7,
			"total_cents":  1,
		})

		assert.Equal(t, http.StatusConflict, resp.Code)
		assert.Equal(t, int64(99900), stored.TotalCents)
	})
}

// ---------------------------------------------------------------------------
// POST /invoices/{id}/finalize and /pay
// ---------------------------------------------------------------------------

func TestFinalizeInvoice(t *testing.T) {
	t.Parallel()

	t.Run("draft_finalizes_and_publishes", func(t *testing.T) {
		t.Parallel()

		tid := uuid.New()
		stored, _ := domain.NewInvoice(tid, uuid.New(), nil, 2026, 7)

		_, api := humatest.New(t)
		events := &mockEvents{}
		store := &mockDataStore{invoices: guardedRepo(stored, nil), subscriptions: activeSubs(tid)}
		v1.RegisterInvoiceRoutes(api, &v1.Guard{}, store, testGate(), events)

		resp := api.PostCtx(managerCtx(tid), "/invoices/"+stored.ID.String()+"/finalize")

		require.Equal(t, http.StatusOK, resp.Code)
		assert.Equal(t, domain.InvoiceFinalized, stored.Status)
		require.NotNil(t, stored.FinalizedAt)

		require.Len(t, events.published, 1)
		assert.Equal(t, redisstore.EventInvoiceFinalized, events.published[0].Kind)
		assert.Equal(t, stored.ID, events.published[0].ResourceID)
	})

	t.Run("already_finalized_409", func(t *testing.T) {
		t.Parallel()

		tid := uuid.New()
		stored, _ := domain.NewInvoice(tid, uuid.New(), nil, 2026, 7)
		now := time.Now()
		stored.Status = domain.InvoiceFinalized
		stored.FinalizedAt = &now

		_, api := humatest.New(t)
		events := &mockEvents{}
		store := &mockDataStore{invoices: guardedRepo(stored, nil), subscriptions: activeSubs(tid)}
		v1.RegisterInvoiceRoutes(api, &v1.Guard{}, store, testGate(), events)

		resp := api.PostCtx(managerCtx(tid), "/invoices/"+stored.ID.String()+"/finalize")

		assert.Equal(t, http.StatusConflict, resp.Code)
		assert.Empty(t, events.published)
	})

	t.Run("occupant_denied", func(t *testing.T) {
		t.Parallel()

		tid := uuid.New()
		_, api := humatest.New(t)
		v1.RegisterInvoiceRoutes(api, &v1.Guard{}, &mockDataStore{}, testGate(), nil)

		resp := api.PostCtx(occupantCtx(tid, uuid.New()), "/invoices/"+uuid.NewString()+"/finalize")

		assert.Equal(t, http.StatusForbidden, resp.Code)
	})
}

func TestPayInvoice(t *testing.T) {
	t.Parallel()

	t.Run("finalized_to_paid", func(t *testing.T) {
		t.Parallel()

		tid := uuid.New()
		stored, _ := domain.NewInvoice(tid, uuid.New(), nil, 2026, 7)
		now := time.Now()
		stored.Status = domain.InvoiceFinalized
		stored.FinalizedAt = &now

		_, api := humatest.New(t)
		events := &mockEvents{}
		store := &mockDataStore{invoices: guardedRepo(stored, nil), subscriptions: activeSubs(tid)}
		v1.RegisterInvoiceRoutes(api, &v1.Guard{}, store, testGate(), events)

		resp := api.PostCtx(managerCtx(tid), "/invoices/"+stored.ID.String()+"/pay")

		require.Equal(t, http.StatusOK, resp.Code)
		assert.Equal(t, domain.InvoicePaid, stored.Status)
		require.NotNil(t, stored.PaidAt)

		require.Len(t, events.published, 1)
		assert.Equal(t, redisstore.EventInvoicePaid, events.published[0].Kind)
	})

	t.Run("draft_cannot_skip_to_paid", func(t *testing.T) {
		t.Parallel()

		tid := uuid.New()
		stored, _ := domain.NewInvoice(tid, uuid.New(), nil, 2026, 7)

		_, api := humatest.New(t)
		store := &mockDataStore{invoices: guardedRepo(stored, nil), subscriptions: activeSubs(tid)}
		v1.RegisterInvoiceRoutes(api, &v1.Guard{}, store, testGate(), nil)

		resp := api.PostCtx(managerCtx(tid), "/invoices/"+stored.ID.String()+"/pay")

		assert.Equal(t, http.StatusConflict, resp.Code)
		assert.Equal(t, domain.InvoiceDraft, stored.Status)
	})

	t.Run("paid_is_terminal", func(t *testing.T) {
		t.Parallel()

		tid := uuid.New()
		stored, _ := domain.NewInvoice(tid, uuid.New(), nil, 2026, 7)
		now := time.Now()
		stored.Status = domain.InvoicePaid
		stored.FinalizedAt = &now
		stored.PaidAt = &now

		_, api := humatest.New(t)
		store := &mockDataStore{invoices: guardedRepo(stored, nil), subscriptions: activeSubs(tid)}
		v1.RegisterInvoiceRoutes(api, &v1.Guard{}, store, testGate(), nil)

		resp := api.PostCtx(managerCtx(tid), "/invoices/"+stored.ID.String()+"/pay")

		assert.Equal(t, http.StatusConflict, resp.Code)
	})
}

// ---------------------------------------------------------------------------
// PUT /invoices/{id}/items
// ---------------------------------------------------------------------------

func TestReplaceInvoiceItems(t *testing.T) {
	t.Parallel()

	t.Run("draft_items_replaced", func(t *testing.T) {
		t.Parallel()

		tid := uuid.New()
		stored, _ := domain.NewInvoice(tid, uuid.New(), nil, 2026, 7)

		var replaced []*domain.InvoiceItem
		_, api := humatest.New(t)
		store := &mockDataStore{
			invoices: &mockInvoiceRepo{
				getByIDFunc: func(_ context.Context, _ domain.Scope, _ uuid.UUID) (*domain.Invoice, error) {
					return stored, nil
				},
				replaceItemsFunc: func(_ context.Context, _ domain.Scope, invoiceID uuid.UUID, items []*domain.InvoiceItem) error {
					require.Equal(t, stored.ID, invoiceID)
					replaced = items
					return nil
				},
			},
			subscriptions: activeSubs(tid),
		}
		v1.RegisterInvoiceRoutes(api, &v1.Guard{}, store, testGate(), nil)

		resp := api.PutCtx(managerCtx(tid), "/invoices/"+stored.ID.String()+"/items", map[string]any{
			"items": []map[string]any{
				{
					"description":     "Cold water, 4.2 m3",
					"tariff_snapshot": map[string]any{"price_cents": 450, "unit": "m3"},
					"quantity":        4200,
					"amount_cents":    1890,
				},
				{
					"description":  "Building maintenance",
					"quantity":     1000,
					"amount_cents": 5000,
				},
			},
		})

		require.Equal(t, http.StatusOK, resp.Code)
		require.Len(t, replaced, 2)
		assert.Equal(t, stored.ID, replaced[0].InvoiceID)
		assert.Equal(t, tid, replaced[0].TenantID)
		assert.Equal(t, int64(1890), replaced[0].AmountCents)
		// Omitted snapshot defaults to an empty JSON object.
		assert.JSONEq(t, `{}`, string(replaced[1].TariffSnapshot))
	})

	t.Run("finalized_parent_409", func(t *testing.T) {
		t.Parallel()

		tid := uuid.New()
		stored, _ := domain.NewInvoice(tid, uuid.New(), nil, 2026, 7)
		now := time.Now()
		stored.Status = domain.InvoiceFinalized
		stored.FinalizedAt = &now

		_, api := humatest.New(t)
		store := &mockDataStore{
			invoices: &mockInvoiceRepo{
				getByIDFunc: func(_ context.Context, _ domain.Scope, _ uuid.UUID) (*domain.Invoice, error) {
					return stored, nil
				},
				replaceItemsFunc: func(_ context.Context, _ domain.Scope, _ uuid.UUID, _ []*domain.InvoiceItem) error {
					return domain.ErrInvoiceFinalized
				},
			},
			subscriptions: activeSubs(tid),
		}
		v1.RegisterInvoiceRoutes(api, &v1.Guard{}, store, testGate(), nil)

		resp := api.PutCtx(managerCtx(tid), "/invoices/"+stored.ID.String()+"/items", map[string]any{
			"items": []map[string]any{},
		})

		assert.Equal(t, http.StatusConflict, resp.Code)
	})
}

// ---------------------------------------------------------------------------
// GET /invoices
// ---------------------------------------------------------------------------

func TestListInvoices(t *testing.T) {
	t.Parallel()

	t.Run("occupant_sees_owner_scope", func(t *testing.T) {
		t.Parallel()

		tid := uuid.New()
		propertyID := uuid.New()
		_, api := humatest.New(t)
		store := &mockDataStore{
			invoices: &mockInvoiceRepo{
				listFunc: func(_ context.Context, scope domain.Scope) ([]*domain.Invoice, error) {
					require.Equal(t, tid, scope.TenantID)
					require.NotEqual(t, domain.ScopeAll, scope.Kind)
					inv, _ := domain.NewInvoice(tid, propertyID, nil, 2026, 7)
					return []*domain.Invoice{inv}, nil
				},
			},
		}
		v1.RegisterInvoiceRoutes(api, &v1.Guard{}, store, testGate(), nil)

		resp := api.GetCtx(occupantCtx(tid, propertyID), "/invoices")

		require.Equal(t, http.StatusOK, resp.Code)

		var got []*domain.Invoice
		require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &got))
		require.Len(t, got, 1)
	})

	t.Run("cross_partition_get_404", func(t *testing.T) {
		t.Parallel()

		tid := uuid.New()
		_, api := humatest.New(t)
		store := &mockDataStore{
			invoices: &mockInvoiceRepo{
				getByIDFunc: func(_ context.Context, _ domain.Scope, _ uuid.UUID) (*domain.Invoice, error) {
					return nil, domain.ErrNotFound
				},
			},
		}
		v1.RegisterInvoiceRoutes(api, &v1.Guard{}, store, testGate(), nil)

		resp := api.GetCtx(managerCtx(tid), "/invoices/"+uuid.NewString())

		assert.Equal(t, http.StatusNotFound, resp.Code)
	})
}
