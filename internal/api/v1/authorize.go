package v1

import (
	"context"
	"errors"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/komunta/komunta/internal/authz"
	"github.com/komunta/komunta/internal/domain"
	"github.com/komunta/komunta/internal/metrics"
	"github.com/komunta/komunta/internal/server/middleware"
	redisstore "github.com/komunta/komunta/internal/store/redis"
	"github.com/komunta/komunta/internal/subscription"
)

// Guard bundles policy evaluation with decision metrics so every handler
// goes through the same check-then-scope sequence.
type Guard struct {
	Metrics *metrics.Metrics
}

// Check resolves the actor from the request context, evaluates the role
// policy and returns the actor plus the data scope for the resource. A
// missing or invalid actor and a policy deny both come back as errors
// already mapped to HTTP status codes.
func (g *Guard) Check(ctx context.Context, action authz.Action, resource authz.Resource) (authz.ActorContext, domain.Scope, error) {
	actor, ok := middleware.ActorFromContext(ctx)
	if !ok || !actor.Valid() {
		return authz.ActorContext{}, domain.Scope{}, huma.Error401Unauthorized("authentication required")
	}

	decision := authz.Evaluate(actor, action, resource)
	if g.Metrics != nil {
		g.Metrics.Decision(string(resource), string(action), decision.Allowed)
	}
	if err := decision.Err(); err != nil {
		return authz.ActorContext{}, domain.Scope{}, huma.Error403Forbidden("insufficient permissions")
	}

	return actor, authz.ScopeFor(actor, resource), nil
}

// writableSubscription loads the partition's subscription and verifies it
// accepts writes. Returned quota and inactivity errors are domain
// sentinels; callers map them with mapDomainError.
func (g *Guard) writableSubscription(ctx context.Context, store DataStore, gate *subscription.Gate, tenantID uuid.UUID) (*domain.Subscription, error) {
	sub, err := store.Subscriptions().GetByTenant(ctx, tenantID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrSubscriptionInactive
		}
		return nil, err
	}

	if err := gate.Writable(sub); err != nil {
		if g.Metrics != nil {
			g.Metrics.QuotaRejected("inactive")
		}
		return nil, err
	}

	return sub, nil
}

// requireWritable gates a mutation on the caller's partition subscription.
// Superadmins operate outside any partition and bypass the gate; creates
// that also need quota limits call writableSubscription directly.
func (g *Guard) requireWritable(ctx context.Context, store DataStore, gate *subscription.Gate, actor authz.ActorContext) error {
	if actor.Role() == domain.RoleSuperadmin {
		return nil
	}
	_, err := g.writableSubscription(ctx, store, gate, actor.TenantID())
	return err
}

// mapDomainError translates domain sentinels into HTTP problem responses.
// Cross-partition reads surface as plain 404s so a caller cannot discover
// which identifiers exist elsewhere.
func mapDomainError(err error, resource string) error {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return huma.Error404NotFound(resource + " not found")
	case errors.Is(err, domain.ErrInsufficientRole), errors.Is(err, domain.ErrUnauthorized):
		return huma.Error403Forbidden("insufficient permissions")
	case errors.Is(err, domain.ErrSubscriptionInactive):
		return huma.Error403Forbidden("subscription is not active")
	case errors.Is(err, domain.ErrSubscriptionLimitExceeded):
		return huma.Error409Conflict("subscription limit exceeded")
	case errors.Is(err, domain.ErrInvoiceFinalized):
		return huma.Error409Conflict("invoice is finalized and cannot be modified")
	case errors.Is(err, domain.ErrInvalidPropertyAssignment):
		return huma.Error422UnprocessableEntity("invalid property assignment")
	case errors.Is(err, domain.ErrConflict):
		return huma.Error409Conflict(resource + " already exists")
	default:
		return huma.Error500InternalServerError("internal error", err)
	}
}

// isQuotaErr reports whether err is a subscription limit rejection.
func isQuotaErr(err error) bool {
	return errors.Is(err, domain.ErrSubscriptionLimitExceeded)
}

// isFrozenErr reports whether err is an invoice immutability rejection.
func isFrozenErr(err error) bool {
	return errors.Is(err, domain.ErrInvoiceFinalized)
}

// publishEvent emits a partition event. Publication is best effort; a
// broker outage must not fail the write that already committed.
func publishEvent(ctx context.Context, events EventPublisher, kind string, tenantID, resourceID uuid.UUID) {
	if events == nil {
		return
	}
	ev := redisstore.Event{
		Kind:       kind,
		TenantID:   tenantID,
		ResourceID: resourceID,
		OccurredAt: time.Now(),
	}
	if err := events.PublishEvent(ctx, ev); err != nil {
		log.Warn().Err(err).Str("kind", kind).Msg("events: publish failed")
	}
}

// recordAudit writes an audit entry for a mutation attempt. Failures are
// logged, never surfaced; audit loss must not fail the request.
func recordAudit(ctx context.Context, store DataStore, actor authz.ActorContext, action, resource string, resourceID uuid.UUID, outcome string) {
	entry := &domain.AuditEntry{
		ID:         uuid.New(),
		TenantID:   actor.TenantID(),
		ActorID:    actor.ActorID(),
		Role:       actor.Role(),
		Action:     action,
		Resource:   resource,
		ResourceID: resourceID,
		Outcome:    outcome,
		CreatedAt:  time.Now(),
	}
	if err := store.Audit().Record(ctx, entry); err != nil {
		log.Warn().Err(err).Str("resource", resource).Msg("audit: failed to record entry")
	}
}
