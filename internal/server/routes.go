package server

import (
	"time"

	"github.com/danielgtaylor/huma/v2"

	v1 "github.com/komunta/komunta/internal/api/v1"
	"github.com/komunta/komunta/internal/metrics"
	"github.com/komunta/komunta/internal/store/postgres"
	redisstore "github.com/komunta/komunta/internal/store/redis"
	"github.com/komunta/komunta/internal/subscription"
)

func registerAuthRoutes(api huma.API, jwtSecret string, accessTTL, refreshTTL time.Duration) {
	v1.RegisterAuthRoutes(api, jwtSecret, accessTTL, refreshTTL)
}

func registerPartitionRoutes(api huma.API, m *metrics.Metrics, store *postgres.Store, pubsub *redisstore.PubSub) {
	guard := &v1.Guard{Metrics: m}

	v1.RegisterPartitionRoutes(api, guard, store, pubsub)
}

func registerAPIRoutes(api huma.API, m *metrics.Metrics, store *postgres.Store, gate *subscription.Gate, pubsub *redisstore.PubSub) {
	guard := &v1.Guard{Metrics: m}

	v1.RegisterUserRoutes(api, guard, store, gate, pubsub)
	v1.RegisterBuildingRoutes(api, guard, store, gate)
	v1.RegisterPropertyRoutes(api, guard, store, gate)
	v1.RegisterMeterRoutes(api, guard, store, gate)
	v1.RegisterInvoiceRoutes(api, guard, store, gate, pubsub)
	v1.RegisterTariffRoutes(api, guard, store)
	v1.RegisterAuditRoutes(api, guard, store)
}
