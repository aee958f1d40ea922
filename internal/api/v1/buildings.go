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

type CreateBuildingInput struct {
	Body struct {
		Address      string  `json:"address" minLength:"1" maxLength:"500" doc:"Street address"`
		HeatedAreaM2 float64 `json:"heated_area_m2" minimum:"0" doc:"Total heated area in square meters"`
	}
}

type CreateBuildingOutput struct {
	Body *domain.Building
}

type GetBuildingInput struct {
	ID uuid.UUID `path:"id" doc:"Building ID"`
}

type GetBuildingOutput struct {
	Body *domain.Building
}

type UpdateBuildingInput struct {
	ID   uuid.UUID `path:"id" doc:"Building ID"`
	Body struct {
		Address      string  `json:"address" minLength:"1" maxLength:"500"`
		HeatedAreaM2 float64 `json:"heated_area_m2" minimum:"0"`
	}
}

type UpdateBuildingOutput struct {
	Body *domain.Building
}

type DeleteBuildingInput struct {
	ID uuid.UUID `path:"id" doc:"Building ID"`
}

type DeleteBuildingOutput struct{}

type ListBuildingsInput struct{}

type ListBuildingsOutput struct {
	Body []*domain.Building
}

func RegisterBuildingRoutes(api huma.API, guard *Guard, store DataStore, gate *subscription.Gate) {
	huma.Register(api, huma.Operation{
		OperationID: "create-building",
		Method:      http.MethodPost,
		Path:        "/buildings",
		Summary:     "Create a building in the caller's partition",
		Tags:        []string{"Buildings"},
	}, func(ctx context.Context, input *CreateBuildingInput) (*CreateBuildingOutput, error) {
		actor, _, err := guard.Check(ctx, authz.ActionCreate, authz.ResourceBuilding)
		if err != nil {
			return nil, err
		}
		if actor.TenantID() == uuid.Nil {
			return nil, huma.Error400BadRequest("building creation requires a partition context")
		}

		if _, err := guard.writableSubscription(ctx, store, gate, actor.TenantID()); err != nil {
			return nil, mapDomainError(err, "building")
		}

		building, err := domain.NewBuilding(actor.TenantID(), input.Body.Address, input.Body.HeatedAreaM2)
		if err != nil {
			return nil, huma.Error400BadRequest(err.Error())
		}

		if err := store.Buildings().Create(ctx, building); err != nil {
			return nil, mapDomainError(err, "building")
		}

		recordAudit(ctx, store, actor, "create", "building", building.ID, "allow")

		return &CreateBuildingOutput{Body: building}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-building",
		Method:      http.MethodGet,
		Path:        "/buildings/{id}",
		Summary:     "Get a building by ID",
		Tags:        []string{"Buildings"},
	}, func(ctx context.Context, input *GetBuildingInput) (*GetBuildingOutput, error) {
		_, scope, err := guard.Check(ctx, authz.ActionRead, authz.ResourceBuilding)
		if err != nil {
			return nil, err
		}

		building, err := store.Buildings().GetByID(ctx, scope, input.ID)
		if err != nil {
			return nil, mapDomainError(err, "building")
		}

		return &GetBuildingOutput{Body: building}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "update-building",
		Method:      http.MethodPut,
		Path:        "/buildings/{id}",
		Summary:     "Update a building",
		Tags:        []string{"Buildings"},
	}, func(ctx context.Context, input *UpdateBuildingInput) (*UpdateBuildingOutput, error) {
		actor, scope, err := guard.Check(ctx, authz.ActionUpdate, authz.ResourceBuilding)
		if err != nil {
			return nil, err
		}
		if err := guard.requireWritable(ctx, store, gate, actor); err != nil {
			return nil, mapDomainError(err, "building")
		}

		building, err := store.Buildings().GetByID(ctx, scope, input.ID)
		if err != nil {
			return nil, mapDomainError(err, "building")
		}

		building.Address = input.Body.Address
		building.HeatedAreaM2 = input.Body.HeatedAreaM2

		if err := store.Buildings().Update(ctx, scope, building); err != nil {
			return nil, mapDomainError(err, "building")
		}

		recordAudit(ctx, store, actor, "update", "building", building.ID, "allow")

		return &UpdateBuildingOutput{Body: building}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "delete-building",
		Method:      http.MethodDelete,
		Path:        "/buildings/{id}",
		Summary:     "Delete a building",
		Tags:        []string{"Buildings"},
	}, func(ctx context.Context, input *DeleteBuildingInput) (*DeleteBuildingOutput, error) {
		actor, scope, err := guard.Check(ctx, authz.ActionDelete, authz.ResourceBuilding)
		if err != nil {
			return nil, err
		}
		if err := guard.requireWritable(ctx, store, gate, actor); err != nil {
			return nil, mapDomainError(err, "building")
		}

		if err := store.Buildings().Delete(ctx, scope, input.ID); err != nil {
			return nil, mapDomainError(err, "building")
		}

		recordAudit(ctx, store, actor, "delete", "building", input.ID, "allow")

		return &DeleteBuildingOutput{}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-buildings",
		Method:      http.MethodGet,
		Path:        "/buildings",
		Summary:     "List buildings visible to the caller",
		Tags:        []string{"Buildings"},
	}, func(ctx context.Context, _ *ListBuildingsInput) (*ListBuildingsOutput, error) {
		_, scope, err := guard.Check(ctx, authz.ActionRead, authz.ResourceBuilding)
		if err != nil {
			return nil, err
		}

		buildings, err := store.Buildings().List(ctx, scope)
		if err != nil {
			return nil, mapDomainError(err, "buildings")
		}

		return &ListBuildingsOutput{Body: buildings}, nil
	})
}
