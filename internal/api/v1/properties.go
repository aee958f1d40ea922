package v1

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/google/uuid"

	"github.com/komunta/komunta/internal/authz"
	"github.com/komunta/komunta/internal/domain"
	"github.com/komunta/komunta/internal/subscription"
)

type CreatePropertyInput struct {
	Body struct {
		BuildingID *uuid.UUID `json:"building_id,omitempty" doc:"Building the unit belongs to"`
		Address    string     `json:"address" minLength:"1" maxLength:"500" doc:"Unit address"`
		AreaM2     float64    `json:"area_m2" minimum:"0" doc:"Unit area in square meters"`
	}
}

type CreatePropertyOutput struct {
	Body *domain.Property
}

type GetPropertyInput struct {
	ID uuid.UUID `path:"id" doc:"Property ID"`
}

type GetPropertyOutput struct {
	Body *domain.Property
}

type UpdatePropertyInput struct {
	ID   uuid.UUID `path:"id" doc:"Property ID"`
	Body struct {
		BuildingID *uuid.UUID `json:"building_id,omitempty"`
		Address    string     `json:"address" minLength:"1" maxLength:"500"`
		AreaM2     float64    `json:"area_m2" minimum:"0"`
	}
}

type UpdatePropertyOutput struct {
	Body *domain.Property
}

type DeletePropertyInput struct {
	ID uuid.UUID `path:"id" doc:"Property ID"`
}

type DeletePropertyOutput struct{}

type ListPropertiesInput struct{}

type ListPropertiesOutput struct {
	Body []*domain.Property
}

func RegisterPropertyRoutes(api huma.API, guard *Guard, store DataStore, gate *subscription.Gate) {
	huma.Register(api, huma.Operation{
		OperationID: "create-property",
		Method:      http.MethodPost,
		Path:        "/properties",
		Summary:     "Create a property in the caller's partition",
		Tags:        []string{"Properties"},
	}, func(ctx context.Context, input *CreatePropertyInput) (*CreatePropertyOutput, error) {
		actor, _, err := guard.Check(ctx, authz.ActionCreate, authz.ResourceProperty)
		if err != nil {
			return nil, err
		}
		if actor.TenantID() == uuid.Nil {
			return nil, huma.Error400BadRequest("property creation requires a partition context")
		}

		sub, err := guard.writableSubscription(ctx, store, gate, actor.TenantID())
		if err != nil {
			return nil, mapDomainError(err, "property")
		}

		if input.Body.BuildingID != nil {
			scope := authz.ScopeFor(actor, authz.ResourceBuilding)
			if _, berr := store.Buildings().GetByID(ctx, scope, *input.Body.BuildingID); berr != nil {
				return nil, mapDomainError(berr, "building")
			}
		}

		property, err := domain.NewProperty(actor.TenantID(), input.Body.BuildingID, input.Body.Address, input.Body.AreaM2)
		if err != nil {
			return nil, huma.Error400BadRequest(err.Error())
		}

		// The quota re-check happens inside the store transaction under a
		// subscription row lock.
		if err := store.Properties().CreateWithQuota(ctx, property, sub.MaxProperties); err != nil {
			if guard.Metrics != nil && isQuotaErr(err) {
				guard.Metrics.QuotaRejected("properties")
			}
			return nil, mapDomainError(err, "property")
		}

		recordAudit(ctx, store, actor, "create", "property", property.ID, "allow")

		return &CreatePropertyOutput{Body: property}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-property",
		Method:      http.MethodGet,
		Path:        "/properties/{id}",
		Summary:     "Get a property by ID",
		Tags:        []string{"Properties"},
	}, func(ctx context.Context, input *GetPropertyInput) (*GetPropertyOutput, error) {
		_, scope, err := guard.Check(ctx, authz.ActionRead, authz.ResourceProperty)
		if err != nil {
			return nil, err
		}

		property, err := store.Properties().GetByID(ctx, scope, input.ID)
		if err != nil {
			return nil, mapDomainError(err, "property")
		}

		return &GetPropertyOutput{Body: property}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "update-property",
		Method:      http.MethodPut,
		Path:        "/properties/{id}",
		Summary:     "Update a property",
		Tags:        []string{"Properties"},
	}, func(ctx context.Context, input *UpdatePropertyInput) (*UpdatePropertyOutput, error) {
		actor, scope, err := guard.Check(ctx, authz.ActionUpdate, authz.ResourceProperty)
		if err != nil {
			return nil, err
		}
		if err := guard.requireWritable(ctx, store, gate, actor); err != nil {
			return nil, mapDomainError(err, "property")
		}

		property, err := store.Properties().GetByID(ctx, scope, input.ID)
		if err != nil {
			return nil, mapDomainError(err, "property")
		}

		if input.Body.BuildingID != nil && (property.BuildingID == nil || *property.BuildingID != *input.Body.BuildingID) {
			buildingScope := authz.ScopeFor(actor, authz.ResourceBuilding)
			if _, berr := store.Buildings().GetByID(ctx, buildingScope, *input.Body.BuildingID); berr != nil {
				return nil, mapDomainError(berr, "building")
			}
		}

		property.BuildingID = input.Body.BuildingID
		property.Address = input.Body.Address
		property.AreaM2 = input.Body.AreaM2

		if err := store.Properties().Update(ctx, scope, property); err != nil {
			return nil, mapDomainError(err, "property")
		}

		recordAudit(ctx, store, actor, "update", "property", property.ID, "allow")

		return &UpdatePropertyOutput{Body: property}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "delete-property",
		Method:      http.MethodDelete,
		Path:        "/properties/{id}",
		Summary:     "Delete a property",
		Tags:        []string{"Properties"},
	}, func(ctx context.Context, input *DeletePropertyInput) (*DeletePropertyOutput, error) {
		actor, scope, err := guard.Check(ctx, authz.ActionDelete, authz.ResourceProperty)
		if err != nil {
			return nil, err
		}
		if err := guard.requireWritable(ctx, store, gate, actor); err != nil {
			return nil, mapDomainError(err, "property")
		}

		if err := store.Properties().Delete(ctx, scope, input.ID); err != nil {
			return nil, mapDomainError(err, "property")
		}

		recordAudit(ctx, store, actor, "delete", "property", input.ID, "allow")

		return &DeletePropertyOutput{}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-properties",
		Method:      http.MethodGet,
		Path:        "/properties",
		Summary:     "List properties visible to the caller",
		Tags:        []string{"Properties"},
	}, func(ctx context.Context, _ *ListPropertiesInput) (*ListPropertiesOutput, error) {
		_, scope, err := guard.Check(ctx, authz.ActionRead, authz.ResourceProperty)
		if err != nil {
			return nil, err
		}

		properties, err := store.Properties().List(ctx, scope)
		if err != nil {
			return nil, mapDomainError(err, "properties")
		}

		return &ListPropertiesOutput{Body: properties}, nil
	})
}
