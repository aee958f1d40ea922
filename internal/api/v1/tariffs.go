package v1

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/google/uuid"

	"github.com/komunta/komunta/internal/authz"
	"github.com/komunta/komunta/internal/domain"
)

type CreateProviderInput struct {
	Body struct {
		Name        string `json:"name" minLength:"1" maxLength:"255" doc:"Supplier name"`
		ServiceKind string `json:"service_kind" enum:"cold_water,hot_water,electricity,heating,gas" doc:"Utility supplied"`
	}
}

type CreateProviderOutput struct {
	Body *domain.Provider
}

type GetProviderInput struct {
	ID uuid.UUID `path:"id" doc:"Provider ID"`
}

type GetProviderOutput struct {
	Body *domain.Provider
}

type UpdateProviderInput struct {
	ID   uuid.UUID `path:"id" doc:"Provider ID"`
	Body struct {
		Name        string `json:"name" minLength:"1" maxLength:"255"`
		ServiceKind string `json:"service_kind" enum:"cold_water,hot_water,electricity,heating,gas"`
	}
}

type UpdateProviderOutput struct {
	Body *domain.Provider
}

type ListProvidersInput struct{}

type ListProvidersOutput struct {
	Body []*domain.Provider
}

type CreateTariffInput struct {
	Body struct {
		ProviderID uuid.UUID  `json:"provider_id" doc:"Supplier the tariff belongs to"`
		Name       string     `json:"name" minLength:"1" maxLength:"255"`
		PriceCents int64      `json:"price_cents" minimum:"0" doc:"Price per unit in cents"`
		Unit       string     `json:"unit" minLength:"1" maxLength:"20" doc:"Billing unit, e.g. m3 or kWh"`
		ValidFrom  *time.Time `json:"valid_from,omitempty" doc:"First day the tariff applies; defaults to now"`
	}
}

type CreateTariffOutput struct {
	Body *domain.Tariff
}

type GetTariffInput struct {
	ID uuid.UUID `path:"id" doc:"Tariff ID"`
}

type GetTariffOutput struct {
	Body *domain.Tariff
}

type UpdateTariffInput struct {
	ID   uuid.UUID `path:"id" doc:"Tariff ID"`
	Body struct {
		Name       string `json:"name" minLength:"1" maxLength:"255"`
		PriceCents int64  `json:"price_cents" minimum:"0"`
		Unit       string `json:"unit" minLength:"1" maxLength:"20"`
	}
}

type UpdateTariffOutput struct {
	Body *domain.Tariff
}

type ListTariffsInput struct {
	ProviderID *uuid.UUID `query:"provider_id" doc:"Filter by provider"`
}

type ListTariffsOutput struct {
	Body []*domain.Tariff
}

// RegisterTariffRoutes wires provider and tariff reference data. These are
// global rows: role policy decides access, no partition scope applies.
func RegisterTariffRoutes(api huma.API, guard *Guard, store DataStore) {
	huma.Register(api, huma.Operation{
		OperationID: "create-provider",
		Method:      http.MethodPost,
		Path:        "/providers",
		Summary:     "Register a utility provider",
		Tags:        []string{"Tariffs"},
	}, func(ctx context.Context, input *CreateProviderInput) (*CreateProviderOutput, error) {
		actor, _, err := guard.Check(ctx, authz.ActionCreate, authz.ResourceProvider)
		if err != nil {
			return nil, err
		}

		provider, err := domain.NewProvider(input.Body.Name, domain.MeterKind(input.Body.ServiceKind))
		if err != nil {
			return nil, huma.Error400BadRequest(err.Error())
		}

		if err := store.Providers().Create(ctx, provider); err != nil {
			return nil, mapDomainError(err, "provider")
		}

		recordAudit(ctx, store, actor, "create", "provider", provider.ID, "allow")

		return &CreateProviderOutput{Body: provider}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-provider",
		Method:      http.MethodGet,
		Path:        "/providers/{id}",
		Summary:     "Get a provider by ID",
		Tags:        []string{"Tariffs"},
	}, func(ctx context.Context, input *GetProviderInput) (*GetProviderOutput, error) {
		if _, _, err := guard.Check(ctx, authz.ActionRead, authz.ResourceProvider); err != nil {
			return nil, err
		}

		provider, err := store.Providers().GetByID(ctx, input.ID)
		if err != nil {
			return nil, mapDomainError(err, "provider")
		}

		return &GetProviderOutput{Body: provider}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "update-provider",
		Method:      http.MethodPut,
		Path:        "/providers/{id}",
		Summary:     "Update a provider",
		Tags:        []string{"Tariffs"},
	}, func(ctx context.Context, input *UpdateProviderInput) (*UpdateProviderOutput, error) {
		actor, _, err := guard.Check(ctx, authz.ActionUpdate, authz.ResourceProvider)
		if err != nil {
			return nil, err
		}

		provider, err := store.Providers().GetByID(ctx, input.ID)
		if err != nil {
			return nil, mapDomainError(err, "provider")
		}

		kind := domain.MeterKind(input.Body.ServiceKind)
		if !kind.Valid() {
			return nil, huma.Error400BadRequest("provider: unknown service kind")
		}

		provider.Name = input.Body.Name
		provider.ServiceKind = kind
		provider.UpdatedAt = time.Now()

		if err := store.Providers().Update(ctx, provider); err != nil {
			return nil, mapDomainError(err, "provider")
		}

		recordAudit(ctx, store, actor, "update", "provider", provider.ID, "allow")

		return &UpdateProviderOutput{Body: provider}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-providers",
		Method:      http.MethodGet,
		Path:        "/providers",
		Summary:     "List utility providers",
		Tags:        []string{"Tariffs"},
	}, func(ctx context.Context, _ *ListProvidersInput) (*ListProvidersOutput, error) {
		if _, _, err := guard.Check(ctx, authz.ActionRead, authz.ResourceProvider); err != nil {
			return nil, err
		}

		providers, err := store.Providers().List(ctx)
		if err != nil {
			return nil, mapDomainError(err, "providers")
		}

		return &ListProvidersOutput{Body: providers}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "create-tariff",
		Method:      http.MethodPost,
		Path:        "/tariffs",
		Summary:     "Register a tariff for a provider",
		Tags:        []string{"Tariffs"},
	}, func(ctx context.Context, input *CreateTariffInput) (*CreateTariffOutput, error) {
		actor, _, err := guard.Check(ctx, authz.ActionCreate, authz.ResourceTariff)
		if err != nil {
			return nil, err
		}

		if _, err := store.Providers().GetByID(ctx, input.Body.ProviderID); err != nil {
			return nil, mapDomainError(err, "provider")
		}

		var validFrom time.Time
		if input.Body.ValidFrom != nil {
			validFrom = *input.Body.ValidFrom
		}

		tariff, err := domain.NewTariff(input.Body.ProviderID, input.Body.Name, input.Body.Unit,
			input.Body.PriceCents, validFrom)
		if err != nil {
			return nil, huma.Error400BadRequest(err.Error())
		}

		if err := store.Tariffs().Create(ctx, tariff); err != nil {
			return nil, mapDomainError(err, "tariff")
		}

		recordAudit(ctx, store, actor, "create", "tariff", tariff.ID, "allow")

		return &CreateTariffOutput{Body: tariff}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-tariff",
		Method:      http.MethodGet,
		Path:        "/tariffs/{id}",
		Summary:     "Get a tariff by ID",
		Tags:        []string{"Tariffs"},
	}, func(ctx context.Context, input *GetTariffInput) (*GetTariffOutput, error) {
		if _, _, err := guard.Check(ctx, authz.ActionRead, authz.ResourceTariff); err != nil {
			return nil, err
		}

		tariff, err := store.Tariffs().GetByID(ctx, input.ID)
		if err != nil {
			return nil, mapDomainError(err, "tariff")
		}

		return &GetTariffOutput{Body: tariff}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "update-tariff",
		Method:      http.MethodPut,
		Path:        "/tariffs/{id}",
		Summary:     "Update a tariff",
		Tags:        []string{"Tariffs"},
	}, func(ctx context.Context, input *UpdateTariffInput) (*UpdateTariffOutput, error) {
		actor, _, err := guard.Check(ctx, authz.ActionUpdate, authz.ResourceTariff)
		if err != nil {
			return nil, err
		}

		tariff, err := store.Tariffs().GetByID(ctx, input.ID)
		if err != nil {
			return nil, mapDomainError(err, "tariff")
		}

		tariff.Name = input.Body.Name
		tariff.PriceCents = input.Body.PriceCents
		tariff.Unit = input.Body.Unit
		tariff.UpdatedAt = time.Now()

		if err := store.Tariffs().Update(ctx, tariff); err != nil {
			return nil, mapDomainError(err, "tariff")
		}

		recordAudit(ctx, store, actor, "update", "tariff", tariff.ID, "allow")

		return &UpdateTariffOutput{Body: tariff}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-tariffs",
		Method:      http.MethodGet,
		Path:        "/tariffs",
		Summary:     "List tariffs, newest validity first",
		Tags:        []string{"Tariffs"},
	}, func(ctx context.Context, input *ListTariffsInput) (*ListTariffsOutput, error) {
		if _, _, err := guard.Check(ctx, authz.ActionRead, authz.ResourceTariff); err != nil {
			return nil, err
		}

		var (
			tariffs []*domain.Tariff
			lerr    error
		)
		if input.ProviderID != nil {
			tariffs, lerr = store.Tariffs().ListByProvider(ctx, *input.ProviderID)
		} else {
			tariffs, lerr = store.Tariffs().List(ctx)
		}
		if lerr != nil {
			return nil, mapDomainError(lerr, "tariffs")
		}

		return &ListTariffsOutput{Body: tariffs}, nil
	})
}
