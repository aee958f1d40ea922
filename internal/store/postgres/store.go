package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/komunta/komunta/internal/domain"
)

type Store struct {
	pool          *pgxpool.Pool
	actors        *ActorRepo
	subscriptions *SubscriptionRepo
	buildings     *BuildingRepo
	properties    *PropertyRepo
	meters        *MeterRepo
	readings      *MeterReadingRepo
	invoices      *InvoiceRepo
	providers     *ProviderRepo
	tariffs       *TariffRepo
	audit         *AuditRepo
}

func New(ctx context.Context, dsn string, maxConns int32) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres.New: parse config: %w", err)
	}

	cfg.MaxConns = maxConns

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("postgres.New: connect: %w", err)
	}

	err = pool.Ping(ctx)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres.New: ping: %w", err)
	}

	return &Store{
		pool:          pool,
		actors:        NewActorRepo(pool),
		subscriptions: NewSubscriptionRepo(pool),
		buildings:     NewBuildingRepo(pool),
		properties:    NewPropertyRepo(pool),
		meters:        NewMeterRepo(pool),
		readings:      NewMeterReadingRepo(pool),
		invoices:      NewInvoiceRepo(pool),
		providers:     NewProviderRepo(pool),
		tariffs:       NewTariffRepo(pool),
		audit:         NewAuditRepo(pool),
	}, nil
}

func (s *Store) Close() {
	s.pool.Close()
}

func (s *Store) Actors() domain.ActorRepository                { return s.actors }
func (s *Store) Subscriptions() domain.SubscriptionRepository  { return s.subscriptions }
func (s *Store) Buildings() domain.BuildingRepository          { return s.buildings }
func (s *Store) Properties() domain.PropertyRepository         { return s.properties }
func (s *Store) Meters() domain.MeterRepository                { return s.meters }
func (s *Store) MeterReadings() domain.MeterReadingRepository  { return s.readings }
func (s *Store) Invoices() domain.InvoiceRepository            { return s.invoices }
func (s *Store) Providers() domain.ProviderRepository          { return s.providers }
func (s *Store) Tariffs() domain.TariffRepository              { return s.tariffs }
func (s *Store) Audit() domain.AuditRepository                 { return s.audit }

// CountProperties satisfies the subscription gate's UsageCounter with a
// live query-time count.
func (s *Store) CountProperties(ctx context.Context, tenantID uuid.UUID) (int, error) {
	return s.properties.CountByTenant(ctx, tenantID)
}

// CountOccupants satisfies the subscription gate's UsageCounter.
func (s *Store) CountOccupants(ctx context.Context, tenantID uuid.UUID) (int, error) {
	return s.actors.CountOccupants(ctx, tenantID)
}
