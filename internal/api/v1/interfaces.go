package v1

import (
	"context"

	"github.com/komunta/komunta/internal/domain"
	redisstore "github.com/komunta/komunta/internal/store/redis"
)

// DataStore abstracts the repository accessor pattern for handler testing.
// *postgres.Store satisfies this interface.
type DataStore interface {
	Actors() domain.ActorRepository
	Subscriptions() domain.SubscriptionRepository
	Buildings() domain.BuildingRepository
	Properties() domain.PropertyRepository
	Meters() domain.MeterRepository
	MeterReadings() domain.MeterReadingRepository
	Invoices() domain.InvoiceRepository
	Providers() domain.ProviderRepository
	Tariffs() domain.TariffRepository
	Audit() domain.AuditRepository
}

// EventPublisher abstracts partition-event publication for handler testing.
// *redis.PubSub satisfies this interface.
type EventPublisher interface {
	PublishEvent(ctx context.Context, ev redisstore.Event) error
}
