package v1

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/google/uuid"

	"github.com/komunta/komunta/internal/authz"
	"github.com/komunta/komunta/internal/domain"
	"github.com/komunta/komunta/internal/subscription"
)

type CreateMeterInput struct {
	Body struct {
		PropertyID   uuid.UUID `json:"property_id" doc:"Property the meter is installed in"`
		Kind         string    `json:"kind" enum:"cold_water,hot_water,electricity,heating,gas" doc:"Utility measured"`
		SerialNumber string    `json:"serial_number" minLength:"1" maxLength:"100" doc:"Manufacturer serial"`
	}
}

type CreateMeterOutput struct {
	Body *domain.Meter
}

type GetMeterInput struct {
	ID uuid.UUID `path:"id" doc:"Meter ID"`
}

type GetMeterOutput struct {
	Body *domain.Meter
}

type UpdateMeterInput struct {
	ID   uuid.UUID `path:"id" doc:"Meter ID"`
	Body struct {
		SerialNumber string `json:"serial_number" minLength:"1" maxLength:"100"`
		IsActive     bool   `json:"is_active"`
	}
}

type UpdateMeterOutput struct {
	Body *domain.Meter
}

type DeleteMeterInput struct {
	ID uuid.UUID `path:"id" doc:"Meter ID"`
}

type DeleteMeterOutput struct{}

type ListMetersInput struct {
	PropertyID *uuid.UUID `query:"property_id" doc:"Filter by property"`
}

type ListMetersOutput struct {
	Body []*domain.Meter
}

type CreateReadingInput struct {
	MeterID uuid.UUID `path:"meterID" doc:"Meter ID"`
	Body    struct {
		Value  int64      `json:"value" minimum:"0" doc:"Reading value in milli-units"`
		ReadAt *time.Time `json:"read_at,omitempty" doc:"When the value was read; defaults to now"`
	}
}

type CreateReadingOutput struct {
	Body *domain.MeterReading
}

type ListReadingsInput struct {
	MeterID uuid.UUID `path:"meterID" doc:"Meter ID"`
}

type ListReadingsOutput struct {
	Body []*domain.MeterReading
}

func RegisterMeterRoutes(api huma.API, guard *Guard, store DataStore, gate *subscription.Gate) {
	huma.Register(api, huma.Operation{
		OperationID: "create-meter",
		Method:      http.MethodPost,
		Path:        "/meters",
		Summary:     "Install a meter on a property",
		Tags:        []string{"Meters"},
	}, func(ctx context.Context, input *CreateMeterInput) (*CreateMeterOutput, error) {
		actor, _, err := guard.Check(ctx, authz.ActionCreate, authz.ResourceMeter)
		if err != nil {
			return nil, err
		}

		if _, err := guard.writableSubscription(ctx, store, gate, actor.TenantID()); err != nil {
			return nil, mapDomainError(err, "meter")
		}

		// The property lookup runs through the caller's scope, so a meter
		// can only land on a property the caller can already see.
		propScope := authz.ScopeFor(actor, authz.ResourceProperty)
		property, err := store.Properties().GetByID(ctx, propScope, input.Body.PropertyID)
		if err != nil {
			return nil, mapDomainError(err, "property")
		}

		meter, err := domain.NewMeter(property.TenantID, property.ID, domain.MeterKind(input.Body.Kind), input.Body.SerialNumber)
		if err != nil {
			return nil, huma.Error400BadRequest(err.Error())
		}

		if err := store.Meters().Create(ctx, meter); err != nil {
			return nil, mapDomainError(err, "meter")
		}

		recordAudit(ctx, store, actor, "create", "meter", meter.ID, "allow")

		return &CreateMeterOutput{Body: meter}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-meter",
		Method:      http.MethodGet,
		Path:        "/meters/{id}",
		Summary:     "Get a meter by ID",
		Tags:        []string{"Meters"},
	}, func(ctx context.Context, input *GetMeterInput) (*GetMeterOutput, error) {
		_, scope, err := guard.Check(ctx, authz.ActionRead, authz.ResourceMeter)
		if err != nil {
			return nil, err
		}

		meter, err := store.Meters().GetByID(ctx, scope, input.ID)
		if err != nil {
			return nil, mapDomainError(err, "meter")
		}

		return &GetMeterOutput{Body: meter}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "update-meter",
		Method:      http.MethodPut,
		Path:        "/meters/{id}",
		Summary:     "Update a meter's serial or active flag",
		Tags:        []string{"Meters"},
	}, func(ctx context.Context, input *UpdateMeterInput) (*UpdateMeterOutput, error) {
		actor, scope, err := guard.Check(ctx, authz.ActionUpdate, authz.ResourceMeter)
		if err != nil {
			return nil, err
		}
		if err := guard.requireWritable(ctx, store, gate, actor); err != nil {
			return nil, mapDomainError(err, "meter")
		}

		meter, err := store.Meters().GetByID(ctx, scope, input.ID)
		if err != nil {
			return nil, mapDomainError(err, "meter")
		}

		meter.SerialNumber = input.Body.SerialNumber
		meter.IsActive = input.Body.IsActive

		if err := store.Meters().Update(ctx, scope, meter); err != nil {
			return nil, mapDomainError(err, "meter")
		}

		recordAudit(ctx, store, actor, "update", "meter", meter.ID, "allow")

		return &UpdateMeterOutput{Body: meter}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "delete-meter",
		Method:      http.MethodDelete,
		Path:        "/meters/{id}",
		Summary:     "Remove a meter",
		Tags:        []string{"Meters"},
	}, func(ctx context.Context, input *DeleteMeterInput) (*DeleteMeterOutput, error) {
		actor, scope, err := guard.Check(ctx, authz.ActionDelete, authz.ResourceMeter)
		if err != nil {
			return nil, err
		}
		if err := guard.requireWritable(ctx, store, gate, actor); err != nil {
			return nil, mapDomainError(err, "meter")
		}

		if err := store.Meters().Delete(ctx, scope, input.ID); err != nil {
			return nil, mapDomainError(err, "meter")
		}

		recordAudit(ctx, store, actor, "delete", "meter", input.ID, "allow")

		return &DeleteMeterOutput{}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-meters",
		Method:      http.MethodGet,
		Path:        "/meters",
		Summary:     "List meters visible to the caller",
		Tags:        []string{"Meters"},
	}, func(ctx context.Context, input *ListMetersInput) (*ListMetersOutput, error) {
		_, scope, err := guard.Check(ctx, authz.ActionRead, authz.ResourceMeter)
		if err != nil {
			return nil, err
		}

		var (
			meters []*domain.Meter
			lerr   error
		)
		if input.PropertyID != nil {
			meters, lerr = store.Meters().ListByProperty(ctx, scope, *input.PropertyID)
		} else {
			meters, lerr = store.Meters().List(ctx, scope)
		}
		if lerr != nil {
			return nil, mapDomainError(lerr, "meters")
		}

		return &ListMetersOutput{Body: meters}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "create-reading",
		Method:      http.MethodPost,
		Path:        "/meters/{meterID}/readings",
		Summary:     "Record a meter reading",
		Tags:        []string{"Readings"},
	}, func(ctx context.Context, input *CreateReadingInput) (*CreateReadingOutput, error) {
		actor, _, err := guard.Check(ctx, authz.ActionCreate, authz.ResourceMeterReading)
		if err != nil {
			return nil, err
		}

		if err := guard.requireWritable(ctx, store, gate, actor); err != nil {
			return nil, mapDomainError(err, "reading")
		}

		meterScope := authz.ScopeFor(actor, authz.ResourceMeter)
		meter, err := store.Meters().GetByID(ctx, meterScope, input.MeterID)
		if err != nil {
			return nil, mapDomainError(err, "meter")
		}

		var readAt time.Time
		if input.Body.ReadAt != nil {
			readAt = *input.Body.ReadAt
		}

		reading, err := domain.NewMeterReading(meter, input.Body.Value, readAt, actor.ActorID())
		if err != nil {
			return nil, huma.Error400BadRequest(err.Error())
		}

		if err := store.MeterReadings().Create(ctx, reading); err != nil {
			return nil, mapDomainError(err, "reading")
		}

		recordAudit(ctx, store, actor, "create", "meter_reading", reading.ID, "allow")

		return &CreateReadingOutput{Body: reading}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-readings",
		Method:      http.MethodGet,
		Path:        "/meters/{meterID}/readings",
		Summary:     "List readings of a meter, newest first",
		Tags:        []string{"Readings"},
	}, func(ctx context.Context, input *ListReadingsInput) (*ListReadingsOutput, error) {
		_, scope, err := guard.Check(ctx, authz.ActionRead, authz.ResourceMeterReading)
		if err != nil {
			return nil, err
		}

		readings, err := store.MeterReadings().ListByMeter(ctx, scope, input.MeterID)
		if err != nil {
			return nil, mapDomainError(err, "readings")
		}

		return &ListReadingsOutput{Body: readings}, nil
	})
}
