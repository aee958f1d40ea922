package v1

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/komunta/komunta/internal/authz"
	"github.com/komunta/komunta/internal/domain"
	redisstore "github.com/komunta/komunta/internal/store/redis"
	"github.com/komunta/komunta/internal/subscription"
)

type CreateUserInput struct {
	Body struct {
		Email      string     `json:"email" format:"email" doc:"Account email"`
		Name       string     `json:"name" minLength:"1" maxLength:"255" doc:"Display name"`
		Role       string     `json:"role" enum:"manager,tenant" doc:"Account role"`
		PropertyID *uuid.UUID `json:"property_id,omitempty" doc:"Property to assign (occupants only)"`
	}
}

type CreateUserOutput struct {
	Body *domain.Actor
}

type ListUsersInput struct{}

type ListUsersOutput struct {
	Body []*domain.Actor
}

type GetUserInput struct {
	ID uuid.UUID `path:"id" doc:"Account ID"`
}

type GetUserOutput struct {
	Body *domain.Actor
}

type SetUserActiveInput struct {
	ID   uuid.UUID `path:"id" doc:"Account ID"`
	Body struct {
		Active bool `json:"active" doc:"Whether the account may authenticate"`
	}
}

type SetUserActiveOutput struct {
	Body *domain.Actor
}

type AssignPropertyInput struct {
	ID   uuid.UUID `path:"id" doc:"Occupant account ID"`
	Body struct {
		PropertyID uuid.UUID `json:"property_id" doc:"Property to assign"`
	}
}

type AssignPropertyOutput struct {
	Body *domain.Actor
}

func RegisterUserRoutes(api huma.API, guard *Guard, store DataStore, gate *subscription.Gate, events EventPublisher) {
	huma.Register(api, huma.Operation{
		OperationID: "create-user",
		Method:      http.MethodPost,
		Path:        "/users",
		Summary:     "Create a manager or occupant account in the caller's partition",
		Tags:        []string{"Users"},
	}, func(ctx context.Context, input *CreateUserInput) (*CreateUserOutput, error) {
		actor, _, err := guard.Check(ctx, authz.ActionCreate, authz.ResourceUser)
		if err != nil {
			return nil, err
		}

		role := domain.Role(input.Body.Role)
		if role != domain.RoleManager && role != domain.RoleOccupant {
			return nil, huma.Error400BadRequest("role must be manager or tenant")
		}

		if actor.TenantID() == uuid.Nil {
			// Superadmins provision partitions, not accounts inside one.
			return nil, huma.Error400BadRequest("account creation requires a partition context")
		}

		sub, err := guard.writableSubscription(ctx, store, gate, actor.TenantID())
		if err != nil {
			return nil, mapDomainError(err, "account")
		}

		parent := actor.ActorID()
		account, err := domain.NewActor(actor.TenantID(), role, input.Body.Email, input.Body.Name, &parent)
		if err != nil {
			return nil, huma.Error400BadRequest(err.Error())
		}

		if role == domain.RoleOccupant {
			if input.Body.PropertyID != nil {
				scope := authz.ScopeFor(actor, authz.ResourceProperty)
				property, perr := store.Properties().GetByID(ctx, scope, *input.Body.PropertyID)
				if perr != nil {
					return nil, mapDomainError(perr, "property")
				}

				adminActor := actorRecord(actor)
				if verr := authz.ValidateAssignment(adminActor, account, property); verr != nil {
					return nil, mapDomainError(verr, "assignment")
				}
				account.PropertyID = input.Body.PropertyID
			}

			// Occupant accounts count against the quota; the store re-checks
			// under a subscription row lock.
			if cerr := store.Actors().CreateOccupantWithQuota(ctx, account, sub.MaxTenants); cerr != nil {
				if guard.Metrics != nil && isQuotaErr(cerr) {
					guard.Metrics.QuotaRejected("occupants")
				}
				return nil, mapDomainError(cerr, "account")
			}
		} else {
			if cerr := store.Actors().Create(ctx, account); cerr != nil {
				return nil, mapDomainError(cerr, "account")
			}
		}

		if account.PropertyID != nil {
			scope := authz.ScopeFor(actor, authz.ResourceProperty)
			if serr := store.Properties().SetOccupant(ctx, scope, *account.PropertyID, &account.ID); serr != nil {
				return nil, mapDomainError(serr, "property")
			}
		}

		recordAudit(ctx, store, actor, "create", "user", account.ID, "allow")
		publishEvent(ctx, events, redisstore.EventAccountCreated, actor.TenantID(), account.ID)

		return &CreateUserOutput{Body: account}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-users",
		Method:      http.MethodGet,
		Path:        "/users",
		Summary:     "List accounts in the caller's partition",
		Tags:        []string{"Users"},
	}, func(ctx context.Context, _ *ListUsersInput) (*ListUsersOutput, error) {
		_, scope, err := guard.Check(ctx, authz.ActionRead, authz.ResourceUser)
		if err != nil {
			return nil, err
		}

		accounts, err := store.Actors().List(ctx, scope)
		if err != nil {
			return nil, mapDomainError(err, "accounts")
		}

		return &ListUsersOutput{Body: accounts}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-user",
		Method:      http.MethodGet,
		Path:        "/users/{id}",
		Summary:     "Get an account by ID",
		Tags:        []string{"Users"},
	}, func(ctx context.Context, input *GetUserInput) (*GetUserOutput, error) {
		_, scope, err := guard.Check(ctx, authz.ActionRead, authz.ResourceUser)
		if err != nil {
			return nil, err
		}

		account, err := store.Actors().GetByID(ctx, scope, input.ID)
		if err != nil {
			return nil, mapDomainError(err, "account")
		}

		return &GetUserOutput{Body: account}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "set-user-active",
		Method:      http.MethodPut,
		Path:        "/users/{id}/active",
		Summary:     "Activate or deactivate an account",
		Tags:        []string{"Users"},
	}, func(ctx context.Context, input *SetUserActiveInput) (*SetUserActiveOutput, error) {
		actor, scope, err := guard.Check(ctx, authz.ActionUpdate, authz.ResourceUser)
		if err != nil {
			return nil, err
		}
		if err := guard.requireWritable(ctx, store, gate, actor); err != nil {
			return nil, mapDomainError(err, "account")
		}

		if err := store.Actors().SetActive(ctx, scope, input.ID, input.Body.Active); err != nil {
			return nil, mapDomainError(err, "account")
		}

		account, err := store.Actors().GetByID(ctx, scope, input.ID)
		if err != nil {
			return nil, mapDomainError(err, "account")
		}

		recordAudit(ctx, store, actor, "set-active", "user", input.ID, "allow")

		return &SetUserActiveOutput{Body: account}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "assign-property",
		Method:      http.MethodPut,
		Path:        "/users/{id}/property",
		Summary:     "Assign an occupant account to a property",
		Tags:        []string{"Users"},
	}, func(ctx context.Context, input *AssignPropertyInput) (*AssignPropertyOutput, error) {
		actor, scope, err := guard.Check(ctx, authz.ActionUpdate, authz.ResourceUser)
		if err != nil {
			return nil, err
		}

		if err := guard.requireWritable(ctx, store, gate, actor); err != nil {
			return nil, mapDomainError(err, "assignment")
		}

		account, err := store.Actors().GetByID(ctx, scope, input.ID)
		if err != nil {
			return nil, mapDomainError(err, "account")
		}

		propScope := authz.ScopeFor(actor, authz.ResourceProperty)
		property, err := store.Properties().GetByID(ctx, propScope, input.Body.PropertyID)
		if err != nil {
			return nil, mapDomainError(err, "property")
		}

		if err := authz.ValidateAssignment(actorRecord(actor), account, property); err != nil {
			return nil, mapDomainError(err, "assignment")
		}

		// Persist the account link first, then the property rows. A failure
		// partway leaves the occupant on a property, never on none; the
		// account record is what scopes resolve from.
		previous := account.PropertyID
		account.PropertyID = &property.ID
		if err := store.Actors().Update(ctx, scope, account); err != nil {
			return nil, mapDomainError(err, "account")
		}
		if err := store.Properties().SetOccupant(ctx, propScope, property.ID, &account.ID); err != nil {
			return nil, mapDomainError(err, "property")
		}
		if previous != nil && *previous != property.ID {
			if rerr := store.Properties().SetOccupant(ctx, propScope, *previous, nil); rerr != nil {
				log.Warn().Err(rerr).Str("property_id", previous.String()).Msg("users: failed to release previous property link")
			}
		}

		recordAudit(ctx, store, actor, "assign-property", "user", account.ID, "allow")

		return &AssignPropertyOutput{Body: account}, nil
	})
}

// actorRecord reconstructs the minimal actor row the assignment validator
// needs from the request's actor context.
func actorRecord(c authz.ActorContext) *domain.Actor {
	return &domain.Actor{
		ID:       c.ActorID(),
		TenantID: c.TenantID(),
		Role:     c.Role(),
		IsActive: true,
	}
}
