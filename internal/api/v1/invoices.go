package v1

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/google/uuid"

	"github.com/komunta/komunta/internal/authz"
	"github.com/komunta/komunta/internal/domain"
	"github.com/komunta/komunta/internal/invoice"
	redisstore "github.com/komunta/komunta/internal/store/redis"
	"github.com/komunta/komunta/internal/subscription"
)

type CreateInvoiceInput struct {
	Body struct {
		PropertyID  uuid.UUID `json:"property_id" doc:"Property being billed"`
		PeriodYear  int       `json:"period_year" minimum:"2000" maximum:"2200" doc:"Billing year"`
		PeriodMonth int       `json:"period_month" minimum:"1" maximum:"12" doc:"Billing month"`
	}
}

type CreateInvoiceOutput struct {
	Body *domain.Invoice
}

type GetInvoiceInput struct {
	ID uuid.UUID `path:"id" doc:"Invoice ID"`
}

type GetInvoiceOutput struct {
	Body *domain.Invoice
}

type ListInvoicesInput struct{}

type ListInvoicesOutput struct {
	Body []*domain.Invoice
}

type UpdateInvoiceInput struct {
	ID   uuid.UUID `path:"id" doc:"Invoice ID"`
	Body struct {
		PeriodYear  int   `json:"period_year" minimum:"2000" maximum:"2200"`
		PeriodMonth int   `json:"period_month" minimum:"1" maximum:"12"`
		TotalCents  int64 `json:"total_cents" minimum:"0"`
	}
}

type UpdateInvoiceOutput struct {
	Body *domain.Invoice
}

type InvoiceItemBody struct {
	MeterID        *uuid.UUID      `json:"meter_id,omitempty" doc:"Meter the line derives from"`
	Description    string          `json:"description" minLength:"1" maxLength:"500"`
	TariffSnapshot json.RawMessage `json:"tariff_snapshot,omitempty" doc:"Pricing inputs captured at billing time"`
	Quantity       int64           `json:"quantity" doc:"Consumed quantity in milli-units"`
	AmountCents    int64           `json:"amount_cents" doc:"Line amount in cents"`
}

type ReplaceItemsInput struct {
	ID   uuid.UUID `path:"id" doc:"Invoice ID"`
	Body struct {
		Items []InvoiceItemBody `json:"items" doc:"Full replacement set of line items"`
	}
}

type ReplaceItemsOutput struct {
	Body []*domain.InvoiceItem
}

type ListItemsInput struct {
	ID uuid.UUID `path:"id" doc:"Invoice ID"`
}

type ListItemsOutput struct {
	Body []*domain.InvoiceItem
}

type FinalizeInvoiceInput struct {
	ID uuid.UUID `path:"id" doc:"Invoice ID"`
}

type FinalizeInvoiceOutput struct {
	Body *domain.Invoice
}

type PayInvoiceInput struct {
	ID uuid.UUID `path:"id" doc:"Invoice ID"`
}

type PayInvoiceOutput struct {
	Body *domain.Invoice
}

func RegisterInvoiceRoutes(api huma.API, guard *Guard, store DataStore, gate *subscription.Gate, events EventPublisher) {
	huma.Register(api, huma.Operation{
		OperationID: "create-invoice",
		Method:      http.MethodPost,
		Path:        "/invoices",
		Summary:     "Open a draft invoice for a property and billing period",
		Tags:        []string{"Invoices"},
	}, func(ctx context.Context, input *CreateInvoiceInput) (*CreateInvoiceOutput, error) {
		actor, _, err := guard.Check(ctx, authz.ActionCreate, authz.ResourceInvoice)
		if err != nil {
			return nil, err
		}

		if _, err := guard.writableSubscription(ctx, store, gate, actor.TenantID()); err != nil {
			return nil, mapDomainError(err, "invoice")
		}

		propScope := authz.ScopeFor(actor, authz.ResourceProperty)
		property, err := store.Properties().GetByID(ctx, propScope, input.Body.PropertyID)
		if err != nil {
			return nil, mapDomainError(err, "property")
		}

		// The occupant on the invoice is whoever holds the property at
		// billing time; it freezes on finalize.
		inv, err := domain.NewInvoice(property.TenantID, property.ID, property.OccupantID,
			input.Body.PeriodYear, input.Body.PeriodMonth)
		if err != nil {
			return nil, huma.Error400BadRequest(err.Error())
		}

		if err := store.Invoices().Create(ctx, inv); err != nil {
			return nil, mapDomainError(err, "invoice")
		}

		recordAudit(ctx, store, actor, "create", "invoice", inv.ID, "allow")

		return &CreateInvoiceOutput{Body: inv}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-invoice",
		Method:      http.MethodGet,
		Path:        "/invoices/{id}",
		Summary:     "Get an invoice by ID",
		Tags:        []string{"Invoices"},
	}, func(ctx context.Context, input *GetInvoiceInput) (*GetInvoiceOutput, error) {
		_, scope, err := guard.Check(ctx, authz.ActionRead, authz.ResourceInvoice)
		if err != nil {
			return nil, err
		}

		inv, err := store.Invoices().GetByID(ctx, scope, input.ID)
		if err != nil {
			return nil, mapDomainError(err, "invoice")
		}

		return &GetInvoiceOutput{Body: inv}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-invoices",
		Method:      http.MethodGet,
		Path:        "/invoices",
		Summary:     "List invoices visible to the caller",
		Tags:        []string{"Invoices"},
	}, func(ctx context.Context, _ *ListInvoicesInput) (*ListInvoicesOutput, error) {
		_, scope, err := guard.Check(ctx, authz.ActionRead, authz.ResourceInvoice)
		if err != nil {
			return nil, err
		}

		invoices, err := store.Invoices().List(ctx, scope)
		if err != nil {
			return nil, mapDomainError(err, "invoices")
		}

		return &ListInvoicesOutput{Body: invoices}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "update-invoice",
		Method:      http.MethodPut,
		Path:        "/invoices/{id}",
		Summary:     "Edit a draft invoice",
		Tags:        []string{"Invoices"},
	}, func(ctx context.Context, input *UpdateInvoiceInput) (*UpdateInvoiceOutput, error) {
		actor, scope, err := guard.Check(ctx, authz.ActionUpdate, authz.ResourceInvoice)
		if err != nil {
			return nil, err
		}
		if err := guard.requireWritable(ctx, store, gate, actor); err != nil {
			return nil, mapDomainError(err, "invoice")
		}

		inv, err := store.Invoices().GetByID(ctx, scope, input.ID)
		if err != nil {
			return nil, mapDomainError(err, "invoice")
		}

		inv.PeriodYear = input.Body.PeriodYear
		inv.PeriodMonth = input.Body.PeriodMonth
		inv.TotalCents = input.Body.TotalCents
		inv.UpdatedAt = time.Now()

		// The guard re-reads the row under lock, so an invoice finalized
		// between our read and this write still rejects cleanly.
		if err := store.Invoices().UpdateGuarded(ctx, scope, inv, invoice.GuardWrite); err != nil {
			if guard.Metrics != nil && isFrozenErr(err) {
				guard.Metrics.GuardRejected("update")
			}
			return nil, mapDomainError(err, "invoice")
		}

		recordAudit(ctx, store, actor, "update", "invoice", inv.ID, "allow")

		return &UpdateInvoiceOutput{Body: inv}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "replace-invoice-items",
		Method:      http.MethodPut,
		Path:        "/invoices/{id}/items",
		Summary:     "Replace the line items of a draft invoice",
		Tags:        []string{"Invoices"},
	}, func(ctx context.Context, input *ReplaceItemsInput) (*ReplaceItemsOutput, error) {
		actor, scope, err := guard.Check(ctx, authz.ActionUpdate, authz.ResourceInvoiceItem)
		if err != nil {
			return nil, err
		}
		if err := guard.requireWritable(ctx, store, gate, actor); err != nil {
			return nil, mapDomainError(err, "invoice")
		}

		invScope := authz.ScopeFor(actor, authz.ResourceInvoice)
		inv, err := store.Invoices().GetByID(ctx, invScope, input.ID)
		if err != nil {
			return nil, mapDomainError(err, "invoice")
		}

		items := make([]*domain.InvoiceItem, 0, len(input.Body.Items))
		for _, b := range input.Body.Items {
			item, ierr := domain.NewInvoiceItem(inv, b.MeterID, b.Description, b.TariffSnapshot, b.Quantity, b.AmountCents)
			if ierr != nil {
				return nil, huma.Error400BadRequest(ierr.Error())
			}
			items = append(items, item)
		}

		if err := store.Invoices().ReplaceItems(ctx, scope, inv.ID, items); err != nil {
			if guard.Metrics != nil && isFrozenErr(err) {
				guard.Metrics.GuardRejected("replace_items")
			}
			return nil, mapDomainError(err, "invoice")
		}

		recordAudit(ctx, store, actor, "replace-items", "invoice", inv.ID, "allow")

		return &ReplaceItemsOutput{Body: items}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-invoice-items",
		Method:      http.MethodGet,
		Path:        "/invoices/{id}/items",
		Summary:     "List the line items of an invoice",
		Tags:        []string{"Invoices"},
	}, func(ctx context.Context, input *ListItemsInput) (*ListItemsOutput, error) {
		_, scope, err := guard.Check(ctx, authz.ActionRead, authz.ResourceInvoiceItem)
		if err != nil {
			return nil, err
		}

		items, err := store.Invoices().ListItems(ctx, scope, input.ID)
		if err != nil {
			return nil, mapDomainError(err, "invoice")
		}

		return &ListItemsOutput{Body: items}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "finalize-invoice",
		Method:      http.MethodPost,
		Path:        "/invoices/{id}/finalize",
		Summary:     "Finalize a draft invoice, freezing its contents",
		Tags:        []string{"Invoices"},
	}, func(ctx context.Context, input *FinalizeInvoiceInput) (*FinalizeInvoiceOutput, error) {
		actor, scope, err := guard.Check(ctx, authz.ActionUpdate, authz.ResourceInvoice)
		if err != nil {
			return nil, err
		}

		if err := guard.requireWritable(ctx, store, gate, actor); err != nil {
			return nil, mapDomainError(err, "invoice")
		}

		inv, err := store.Invoices().GetByID(ctx, scope, input.ID)
		if err != nil {
			return nil, mapDomainError(err, "invoice")
		}

		if err := invoice.Finalize(inv, time.Now()); err != nil {
			return nil, mapDomainError(err, "invoice")
		}

		if err := store.Invoices().UpdateGuarded(ctx, scope, inv, invoice.GuardWrite); err != nil {
			if guard.Metrics != nil && isFrozenErr(err) {
				guard.Metrics.GuardRejected("finalize")
			}
			return nil, mapDomainError(err, "invoice")
		}

		recordAudit(ctx, store, actor, "finalize", "invoice", inv.ID, "allow")
		publishEvent(ctx, events, redisstore.EventInvoiceFinalized, inv.TenantID, inv.ID)

		return &FinalizeInvoiceOutput{Body: inv}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "pay-invoice",
		Method:      http.MethodPost,
		Path:        "/invoices/{id}/pay",
		Summary:     "Mark a finalized invoice as paid",
		Tags:        []string{"Invoices"},
	}, func(ctx context.Context, input *PayInvoiceInput) (*PayInvoiceOutput, error) {
		actor, scope, err := guard.Check(ctx, authz.ActionUpdate, authz.ResourceInvoice)
		if err != nil {
			return nil, err
		}

		if err := guard.requireWritable(ctx, store, gate, actor); err != nil {
			return nil, mapDomainError(err, "invoice")
		}

		inv, err := store.Invoices().GetByID(ctx, scope, input.ID)
		if err != nil {
			return nil, mapDomainError(err, "invoice")
		}

		if err := invoice.MarkPaid(inv, time.Now()); err != nil {
			return nil, mapDomainError(err, "invoice")
		}

		if err := store.Invoices().UpdateGuarded(ctx, scope, inv, invoice.GuardWrite); err != nil {
			if guard.Metrics != nil && isFrozenErr(err) {
				guard.Metrics.GuardRejected("pay")
			}
			return nil, mapDomainError(err, "invoice")
		}

		recordAudit(ctx, store, actor, "pay", "invoice", inv.ID, "allow")
		publishEvent(ctx, events, redisstore.EventInvoicePaid, inv.TenantID, inv.ID)

		return &PayInvoiceOutput{Body: inv}, nil
	})
}
