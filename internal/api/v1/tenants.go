package v1

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/google/uuid"

	"github.com/komunta/komunta/internal/authz"
	"github.com/komunta/komunta/internal/domain"
	redisstore "github.com/komunta/komunta/internal/store/redis"
	"github.com/komunta/komunta/internal/subscription"
)

// Partition provisioning is platform-level: only superadmins pass the
// policy check, because no role table row grants partition or
// subscription writes.

type CreatePartitionInput struct {
	Body struct {
		AdminEmail    string    `json:"admin_email" format:"email" doc:"Email for the partition's admin account"`
		AdminName     string    `json:"admin_name" minLength:"1" maxLength:"255" doc:"Display name for the admin account"`
		ExpiresAt     time.Time `json:"expires_at" doc:"Subscription expiry"`
		MaxProperties int       `json:"max_properties" minimum:"0" doc:"Property quota"`
		MaxTenants    int       `json:"max_tenants" minimum:"0" doc:"Occupant account quota"`
	}
}

type PartitionBody struct {
	TenantID     uuid.UUID            `json:"tenant_id"`
	Admin        *domain.Actor        `json:"admin"`
	Subscription *domain.Subscription `json:"subscription"`
}

type CreatePartitionOutput struct {
	Body PartitionBody
}

type ListSubscriptionsInput struct{}

type ListSubscriptionsOutput struct {
	Body []*domain.Subscription
}

type GetSubscriptionInput struct {
	TenantID uuid.UUID `path:"tenantID" doc:"Partition ID"`
}

type GetSubscriptionOutput struct {
	Body *domain.Subscription
}

type RenewSubscriptionInput struct {
	TenantID uuid.UUID `path:"tenantID" doc:"Partition ID"`
	Body     struct {
		ExpiresAt time.Time `json:"expires_at" doc:"New subscription expiry"`
	}
}

type RenewSubscriptionOutput struct {
	Body *domain.Subscription
}

type SuspendSubscriptionInput struct {
	TenantID uuid.UUID `path:"tenantID" doc:"Partition ID"`
}

type SuspendSubscriptionOutput struct {
	Body *domain.Subscription
}

func RegisterPartitionRoutes(api huma.API, guard *Guard, store DataStore, events EventPublisher) {
	huma.Register(api, huma.Operation{
		OperationID: "create-partition",
		Method:      http.MethodPost,
		Path:        "/partitions",
		Summary:     "Provision a company partition with its admin and subscription",
		Tags:        []string{"Partitions"},
	}, func(ctx context.Context, input *CreatePartitionInput) (*CreatePartitionOutput, error) {
		actor, _, err := guard.Check(ctx, authz.ActionCreate, authz.ResourcePartition)
		if err != nil {
			return nil, err
		}

		tenantID := uuid.New()

		parent := actor.ActorID()
		admin, err := domain.NewActor(tenantID, domain.RoleAdmin, input.Body.AdminEmail, input.Body.AdminName, &parent)
		if err != nil {
			return nil, huma.Error400BadRequest(err.Error())
		}

		sub, err := domain.NewSubscription(tenantID, input.Body.ExpiresAt, input.Body.MaxProperties, input.Body.MaxTenants)
		if err != nil {
			return nil, huma.Error400BadRequest(err.Error())
		}

		if err := store.Actors().Create(ctx, admin); err != nil {
			return nil, mapDomainError(err, "admin account")
		}
		if err := store.Subscriptions().Create(ctx, sub); err != nil {
			return nil, mapDomainError(err, "subscription")
		}

		recordAudit(ctx, store, actor, "create", "partition", tenantID, "allow")
		publishEvent(ctx, events, redisstore.EventAccountCreated, tenantID, admin.ID)

		return &CreatePartitionOutput{Body: PartitionBody{
			TenantID:     tenantID,
			Admin:        admin,
			Subscription: sub,
		}}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-subscriptions",
		Method:      http.MethodGet,
		Path:        "/partitions",
		Summary:     "List all partition subscriptions",
		Tags:        []string{"Partitions"},
	}, func(ctx context.Context, _ *ListSubscriptionsInput) (*ListSubscriptionsOutput, error) {
		if _, _, err := guard.Check(ctx, authz.ActionRead, authz.ResourcePartition); err != nil {
			return nil, err
		}

		subs, err := store.Subscriptions().List(ctx)
		if err != nil {
			return nil, mapDomainError(err, "subscriptions")
		}

		return &ListSubscriptionsOutput{Body: subs}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-subscription",
		Method:      http.MethodGet,
		Path:        "/partitions/{tenantID}/subscription",
		Summary:     "Get a partition's subscription",
		Tags:        []string{"Partitions"},
	}, func(ctx context.Context, input *GetSubscriptionInput) (*GetSubscriptionOutput, error) {
		actor, _, err := guard.Check(ctx, authz.ActionRead, authz.ResourceSubscription)
		if err != nil {
			return nil, err
		}

		// Admins may only read their own partition's subscription.
		if actor.Role() != domain.RoleSuperadmin && actor.TenantID() != input.TenantID {
			return nil, huma.Error404NotFound("subscription not found")
		}

		sub, err := store.Subscriptions().GetByTenant(ctx, input.TenantID)
		if err != nil {
			return nil, mapDomainError(err, "subscription")
		}

		return &GetSubscriptionOutput{Body: sub}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "renew-subscription",
		Method:      http.MethodPost,
		Path:        "/partitions/{tenantID}/subscription/renew",
		Summary:     "Renew a partition's subscription",
		Tags:        []string{"Partitions"},
	}, func(ctx context.Context, input *RenewSubscriptionInput) (*RenewSubscriptionOutput, error) {
		actor, _, err := guard.Check(ctx, authz.ActionUpdate, authz.ResourceSubscription)
		if err != nil {
			return nil, err
		}

		sub, err := store.Subscriptions().GetByTenant(ctx, input.TenantID)
		if err != nil {
			return nil, mapDomainError(err, "subscription")
		}

		subscription.Renew(sub, input.Body.ExpiresAt)

		if err := store.Subscriptions().Update(ctx, sub); err != nil {
			return nil, mapDomainError(err, "subscription")
		}

		recordAudit(ctx, store, actor, "renew", "subscription", sub.ID, "allow")
		publishEvent(ctx, events, redisstore.EventSubscriptionRenewed, input.TenantID, sub.ID)

		return &RenewSubscriptionOutput{Body: sub}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "suspend-subscription",
		Method:      http.MethodPost,
		Path:        "/partitions/{tenantID}/subscription/suspend",
		Summary:     "Suspend a partition's subscription",
		Tags:        []string{"Partitions"},
	}, func(ctx context.Context, input *SuspendSubscriptionInput) (*SuspendSubscriptionOutput, error) {
		actor, _, err := guard.Check(ctx, authz.ActionUpdate, authz.ResourceSubscription)
		if err != nil {
			return nil, err
		}

		sub, err := store.Subscriptions().GetByTenant(ctx, input.TenantID)
		if err != nil {
			return nil, mapDomainError(err, "subscription")
		}

		subscription.Suspend(sub)

		if err := store.Subscriptions().Update(ctx, sub); err != nil {
			return nil, mapDomainError(err, "subscription")
		}

		recordAudit(ctx, store, actor, "suspend", "subscription", sub.ID, "allow")
		publishEvent(ctx, events, redisstore.EventSubscriptionSuspended, input.TenantID, sub.ID)

		return &SuspendSubscriptionOutput{Body: sub}, nil
	})
}
