package v1_test

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/komunta/komunta/internal/authz"
	"github.com/komunta/komunta/internal/domain"
	"github.com/komunta/komunta/internal/server/middleware"
	redisstore "github.com/komunta/komunta/internal/store/redis"
)

// ---------------------------------------------------------------------------
// Context helpers: inject an actor into context for DoCtx
// ---------------------------------------------------------------------------

func superadminCtx() context.Context {
	actor := authz.Resolve(uuid.New(), domain.RoleSuperadmin, uuid.Nil, uuid.Nil)
	return middleware.WithActor(context.Background(), actor)
}

func adminCtx(tenantID uuid.UUID) context.Context {
	actor := authz.Resolve(uuid.New(), domain.RoleAdmin, tenantID, uuid.Nil)
	return middleware.WithActor(context.Background(), actor)
}

func managerCtx(tenantID uuid.UUID) context.Context {
	actor := authz.Resolve(uuid.New(), domain.RoleManager, tenantID, uuid.Nil)
	return middleware.WithActor(context.Background(), actor)
}

func occupantCtx(tenantID, propertyID uuid.UUID) context.Context {
	actor := authz.Resolve(uuid.New(), domain.RoleOccupant, tenantID, propertyID)
	return middleware.WithActor(context.Background(), actor)
}

// activeSub returns a subscription that accepts writes for another year.
func activeSub(tenantID uuid.UUID) *domain.Subscription {
	sub, _ := domain.NewSubscription(tenantID, time.Now().Add(365*24*time.Hour), 100, 100)
	return sub
}

// activeSubs is a subscription repo whose lookups always find a writable
// subscription for the partition.
func activeSubs(tenantID uuid.UUID) *mockSubscriptionRepo {
	return &mockSubscriptionRepo{
		getByTenantFunc: func(context.Context, uuid.UUID) (*domain.Subscription, error) {
			return activeSub(tenantID), nil
		},
	}
}

// expiredSubs is a subscription repo whose subscription lapsed yesterday.
func expiredSubs(tenantID uuid.UUID) *mockSubscriptionRepo {
	return &mockSubscriptionRepo{
		getByTenantFunc: func(context.Context, uuid.UUID) (*domain.Subscription, error) {
			sub := activeSub(tenantID)
			sub.ExpiresAt = time.Now().Add(-24 * time.Hour)
			return sub, nil
		},
	}
}

// ---------------------------------------------------------------------------
// Mock DataStore
// ---------------------------------------------------------------------------

type mockDataStore struct {
	actors        domain.ActorRepository
	subscriptions domain.SubscriptionRepository
	buildings     domain.BuildingRepository
	properties    domain.PropertyRepository
	meters        domain.MeterRepository
	readings      domain.MeterReadingRepository
	invoices      domain.InvoiceRepository
	providers     domain.ProviderRepository
	tariffs       domain.TariffRepository
	audit         domain.AuditRepository
}

func (m *mockDataStore) Actors() domain.ActorRepository               { return m.actors }
func (m *mockDataStore) Subscriptions() domain.SubscriptionRepository { return m.subscriptions }
func (m *mockDataStore) Buildings() domain.BuildingRepository         { return m.buildings }
func (m *mockDataStore) Properties() domain.PropertyRepository        { return m.properties }
func (m *mockDataStore) Meters() domain.MeterRepository               { return m.meters }
func (m *mockDataStore) MeterReadings() domain.MeterReadingRepository { return m.readings }
func (m *mockDataStore) Invoices() domain.InvoiceRepository           { return m.invoices }
func (m *mockDataStore) Providers() domain.ProviderRepository         { return m.providers }
func (m *mockDataStore) Tariffs() domain.TariffRepository             { return m.tariffs }

// Audit never nil-panics; most tests don't care about the trail.
func (m *mockDataStore) Audit() domain.AuditRepository {
	if m.audit == nil {
		return &mockAuditRepo{}
	}
	return m.audit
}

// ---------------------------------------------------------------------------
// Mock EventPublisher
// ---------------------------------------------------------------------------

type mockEvents struct {
	published []redisstore.Event
	err       error
}

func (m *mockEvents) PublishEvent(_ context.Context, ev redisstore.Event) error {
	if m.err != nil {
		return m.err
	}
	m.published = append(m.published, ev)
	return nil
}

// ---------------------------------------------------------------------------
// Mock ActorRepository
// ---------------------------------------------------------------------------

type mockActorRepo struct {
	createFunc          func(ctx context.Context, a *domain.Actor) error
	createWithQuotaFunc func(ctx context.Context, a *domain.Actor, maxTenants int) error
	getByIDFunc         func(ctx context.Context, scope domain.Scope, id uuid.UUID) (*domain.Actor, error)
	getByEmailFunc      func(ctx context.Context, email string) (*domain.Actor, error)
	updateFunc          func(ctx context.Context, scope domain.Scope, a *domain.Actor) error
	setActiveFunc       func(ctx context.Context, scope domain.Scope, id uuid.UUID, active bool) error
	listFunc            func(ctx context.Context, scope domain.Scope) ([]*domain.Actor, error)
	countOccupantsFunc  func(ctx context.Context, tenantID uuid.UUID) (int, error)
}

func (m *mockActorRepo) Create(ctx context.Context, a *domain.Actor) error {
	return m.createFunc(ctx, a)
}

func (m *mockActorRepo) CreateOccupantWithQuota(ctx context.Context, a *domain.Actor, maxTenants int) error {
	return m.createWithQuotaFunc(ctx, a, maxTenants)
}

func (m *mockActorRepo) GetByID(ctx context.Context, scope domain.Scope, id uuid.UUID) (*domain.Actor, error) {
	return m.getByIDFunc(ctx, scope, id)
}

func (m *mockActorRepo) GetByEmail(ctx context.Context, email string) (*domain.Actor, error) {
	return m.getByEmailFunc(ctx, email)
}

func (m *mockActorRepo) Update(ctx context.Context, scope domain.Scope, a *domain.Actor) error {
	return m.updateFunc(ctx, scope, a)
}

func (m *mockActorRepo) SetActive(ctx context.Context, scope domain.Scope, id uuid.UUID, active bool) error {
	return m.setActiveFunc(ctx, scope, id, active)
}

func (m *mockActorRepo) List(ctx context.Context, scope domain.Scope) ([]*domain.Actor, error) {
	return m.listFunc(ctx, scope)
}

func (m *mockActorRepo) CountOccupants(ctx context.Context, tenantID uuid.UUID) (int, error) {
	return m.countOccupantsFunc(ctx, tenantID)
}

// ---------------------------------------------------------------------------
// Mock SubscriptionRepository
// ---------------------------------------------------------------------------

type mockSubscriptionRepo struct {
	createFunc      func(ctx context.Context, s *domain.Subscription) error
	getByTenantFunc func(ctx context.Context, tenantID uuid.UUID) (*domain.Subscription, error)
	updateFunc      func(ctx context.Context, s *domain.Subscription) error
	listFunc        func(ctx context.Context) ([]*domain.Subscription, error)
}

func (m *mockSubscriptionRepo) Create(ctx context.Context, s *domain.Subscription) error {
	return m.createFunc(ctx, s)
}

func (m *mockSubscriptionRepo) GetByTenant(ctx context.Context, tenantID uuid.UUID) (*domain.Subscription, error) {
	return m.getByTenantFunc(ctx, tenantID)
}

func (m *mockSubscriptionRepo) Update(ctx context.Context, s *domain.Subscription) error {
	return m.updateFunc(ctx, s)
}

func (m *mockSubscriptionRepo) List(ctx context.Context) ([]*domain.Subscription, error) {
	return m.listFunc(ctx)
}

// ---------------------------------------------------------------------------
// Mock BuildingRepository
// ---------------------------------------------------------------------------

type mockBuildingRepo struct {
	createFunc  func(ctx context.Context, b *domain.Building) error
	getByIDFunc func(ctx context.Context, scope domain.Scope, id uuid.UUID) (*domain.Building, error)
	updateFunc  func(ctx context.Context, scope domain.Scope, b *domain.Building) error
	deleteFunc  func(ctx context.Context, scope domain.Scope, id uuid.UUID) error
	listFunc    func(ctx context.Context, scope domain.Scope) ([]*domain.Building, error)
}

func (m *mockBuildingRepo) Create(ctx context.Context, b *domain.Building) error {
	return m.createFunc(ctx, b)
}

func (m *mockBuildingRepo) GetByID(ctx context.Context, scope domain.Scope, id uuid.UUID) (*domain.Building, error) {
	return m.getByIDFunc(ctx, scope, id)
}

func (m *mockBuildingRepo) Update(ctx context.Context, scope domain.Scope, b *domain.Building) error {
	return m.updateFunc(ctx, scope, b)
}

func (m *mockBuildingRepo) Delete(ctx context.Context, scope domain.Scope, id uuid.UUID) error {
	return m.deleteFunc(ctx, scope, id)
}

func (m *mockBuildingRepo) List(ctx context.Context, scope domain.Scope) ([]*domain.Building, error) {
	return m.listFunc(ctx, scope)
}

// ---------------------------------------------------------------------------
// Mock PropertyRepository
// ---------------------------------------------------------------------------

type mockPropertyRepo struct {
	createFunc          func(ctx context.Context, p *domain.Property) error
	createWithQuotaFunc func(ctx context.Context, p *domain.Property, maxProperties int) error
	getByIDFunc         func(ctx context.Context, scope domain.Scope, id uuid.UUID) (*domain.Property, error)
	updateFunc          func(ctx context.Context, scope domain.Scope, p *domain.Property) error
	deleteFunc          func(ctx context.Context, scope domain.Scope, id uuid.UUID) error
	listFunc            func(ctx context.Context, scope domain.Scope) ([]*domain.Property, error)
	countByTenantFunc   func(ctx context.Context, tenantID uuid.UUID) (int, error)
	setOccupantFunc     func(ctx context.Context, scope domain.Scope, id uuid.UUID, occupantID *uuid.UUID) error
}

func (m *mockPropertyRepo) Create(ctx context.Context, p *domain.Property) error {
	return m.createFunc(ctx, p)
}

func (m *mockPropertyRepo) CreateWithQuota(ctx context.Context, p *domain.Property, maxProperties int) error {
	return m.createWithQuotaFunc(ctx, p, maxProperties)
}

func (m *mockPropertyRepo) GetByID(ctx context.Context, scope domain.Scope, id uuid.UUID) (*domain.Property, error) {
	return m.getByIDFunc(ctx, scope, id)
}

func (m *mockPropertyRepo) Update(ctx context.Context, scope domain.Scope, p *domain.Property) error {
	return m.updateFunc(ctx, scope, p)
}

func (m *mockPropertyRepo) Delete(ctx context.Context, scope domain.Scope, id uuid.UUID) error {
	return m.deleteFunc(ctx, scope, id)
}

func (m *mockPropertyRepo) List(ctx context.Context, scope domain.Scope) ([]*domain.Property, error) {
	return m.listFunc(ctx, scope)
}

func (m *mockPropertyRepo) CountByTenant(ctx context.Context, tenantID uuid.UUID) (int, error) {
	return m.countByTenantFunc(ctx, tenantID)
}

func (m *mockPropertyRepo) SetOccupant(ctx context.Context, scope domain.Scope, id uuid.UUID, occupantID *uuid.UUID) error {
	return m.setOccupantFunc(ctx, scope, id, occupantID)
}

// ---------------------------------------------------------------------------
// Mock MeterRepository
// ---------------------------------------------------------------------------

type mockMeterRepo struct {
	createFunc         func(ctx context.Context, mt *domain.Meter) error
	getByIDFunc        func(ctx context.Context, scope domain.Scope, id uuid.UUID) (*domain.Meter, error)
	updateFunc         func(ctx context.Context, scope domain.Scope, mt *domain.Meter) error
	deleteFunc         func(ctx context.Context, scope domain.Scope, id uuid.UUID) error
	listFunc           func(ctx context.Context, scope domain.Scope) ([]*domain.Meter, error)
	listByPropertyFunc func(ctx context.Context, scope domain.Scope, propertyID uuid.UUID) ([]*domain.Meter, error)
}

func (m *mockMeterRepo) Create(ctx context.Context, mt *domain.Meter) error {
	return m.createFunc(ctx, mt)
}

func (m *mockMeterRepo) GetByID(ctx context.Context, scope domain.Scope, id uuid.UUID) (*domain.Meter, error) {
	return m.getByIDFunc(ctx, scope, id)
}

func (m *mockMeterRepo) Update(ctx context.Context, scope domain.Scope, mt *domain.Meter) error {
	return m.updateFunc(ctx, scope, mt)
}

func (m *mockMeterRepo) Delete(ctx context.Context, scope domain.Scope, id uuid.UUID) error {
	return m.deleteFunc(ctx, scope, id)
}

func (m *mockMeterRepo) List(ctx context.Context, scope domain.Scope) ([]*domain.Meter, error) {
	return m.listFunc(ctx, scope)
}

func (m *mockMeterRepo) ListByProperty(ctx context.Context, scope domain.Scope, propertyID uuid.UUID) ([]*domain.Meter, error) {
	return m.listByPropertyFunc(ctx, scope, propertyID)
}

// ---------------------------------------------------------------------------
// Mock MeterReadingRepository
// ---------------------------------------------------------------------------

type mockReadingRepo struct {
	createFunc      func(ctx context.Context, r *domain.MeterReading) error
	getByIDFunc     func(ctx context.Context, scope domain.Scope, id uuid.UUID) (*domain.MeterReading, error)
	listByMeterFunc func(ctx context.Context, scope domain.Scope, meterID uuid.UUID) ([]*domain.MeterReading, error)
	listFunc        func(ctx context.Context, scope domain.Scope) ([]*domain.MeterReading, error)
}

func (m *mockReadingRepo) Create(ctx context.Context, r *domain.MeterReading) error {
	return m.createFunc(ctx, r)
}

func (m *mockReadingRepo) GetByID(ctx context.Context, scope domain.Scope, id uuid.UUID) (*domain.MeterReading, error) {
	return m.getByIDFunc(ctx, scope, id)
}

func (m *mockReadingRepo) ListByMeter(ctx context.Context, scope domain.Scope, meterID uuid.UUID) ([]*domain.MeterReading, error) {
	return m.listByMeterFunc(ctx, scope, meterID)
}

func (m *mockReadingRepo) List(ctx context.Context, scope domain.Scope) ([]*domain.MeterReading, error) {
	return m.listFunc(ctx, scope)
}

// ---------------------------------------------------------------------------
// Mock InvoiceRepository
// ---------------------------------------------------------------------------

type mockInvoiceRepo struct {
	createFunc        func(ctx context.Context, inv *domain.Invoice) error
	getByIDFunc       func(ctx context.Context, scope domain.Scope, id uuid.UUID) (*domain.Invoice, error)
	listFunc          func(ctx context.Context, scope domain.Scope) ([]*domain.Invoice, error)
	updateGuardedFunc func(ctx context.Context, scope domain.Scope, inv *domain.Invoice, guard domain.InvoiceWriteGuard) error
	replaceItemsFunc  func(ctx context.Context, scope domain.Scope, invoiceID uuid.UUID, items []*domain.InvoiceItem) error
	listItemsFunc     func(ctx context.Context, scope domain.Scope, invoiceID uuid.UUID) ([]*domain.InvoiceItem, error)
}

func (m *mockInvoiceRepo) Create(ctx context.Context, inv *domain.Invoice) error {
	return m.createFunc(ctx, inv)
}

func (m *mockInvoiceRepo) GetByID(ctx context.Context, scope domain.Scope, id uuid.UUID) (*domain.Invoice, error) {
	return m.getByIDFunc(ctx, scope, id)
}

func (m *mockInvoiceRepo) List(ctx context.Context, scope domain.Scope) ([]*domain.Invoice, error) {
	return m.listFunc(ctx, scope)
}

func (m *mockInvoiceRepo) UpdateGuarded(ctx context.Context, scope domain.Scope, inv *domain.Invoice, guard domain.InvoiceWriteGuard) error {
	return m.updateGuardedFunc(ctx, scope, inv, guard)
}

func (m *mockInvoiceRepo) ReplaceItems(ctx context.Context, scope domain.Scope, invoiceID uuid.UUID, items []*domain.InvoiceItem) error {
	return m.replaceItemsFunc(ctx, scope, invoiceID, items)
}

func (m *mockInvoiceRepo) ListItems(ctx context.Context, scope domain.Scope, invoiceID uuid.UUID) ([]*domain.InvoiceItem, error) {
	return m.listItemsFunc(ctx, scope, invoiceID)
}

// ---------------------------------------------------------------------------
// Mock ProviderRepository
// ---------------------------------------------------------------------------

type mockProviderRepo struct {
	createFunc  func(ctx context.Context, p *domain.Provider) error
	getByIDFunc func(ctx context.Context, id uuid.UUID) (*domain.Provider, error)
	updateFunc  func(ctx context.Context, p *domain.Provider) error
	listFunc    func(ctx context.Context) ([]*domain.Provider, error)
}

func (m *mockProviderRepo) Create(ctx context.Context, p *domain.Provider) error {
	return m.createFunc(ctx, p)
}

func (m *mockProviderRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Provider, error) {
	return m.getByIDFunc(ctx, id)
}

func (m *mockProviderRepo) Update(ctx context.Context, p *domain.Provider) error {
	return m.updateFunc(ctx, p)
}

func (m *mockProviderRepo) List(ctx context.Context) ([]*domain.Provider, error) {
	return m.listFunc(ctx)
}

// ---------------------------------------------------------------------------
// Mock TariffRepository
// ---------------------------------------------------------------------------

type mockTariffRepo struct {
	createFunc         func(ctx context.Context, t *domain.Tariff) error
	getByIDFunc        func(ctx context.Context, id uuid.UUID) (*domain.Tariff, error)
	updateFunc         func(ctx context.Context, t *domain.Tariff) error
	listFunc           func(ctx context.Context) ([]*domain.Tariff, error)
	listByProviderFunc func(ctx context.Context, providerID uuid.UUID) ([]*domain.Tariff, error)
}

func (m *mockTariffRepo) Create(ctx context.Context, t *domain.Tariff) error {
	return m.createFunc(ctx, t)
}

func (m *mockTariffRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Tariff, error) {
	return m.getByIDFunc(ctx, id)
}

func (m *mockTariffRepo) Update(ctx context.Context, t *domain.Tariff) error {
	return m.updateFunc(ctx, t)
}

func (m *mockTariffRepo) List(ctx context.Context) ([]*domain.Tariff, error) {
	return m.listFunc(ctx)
}

func (m *mockTariffRepo) ListByProvider(ctx context.Context, providerID uuid.UUID) ([]*domain.Tariff, error) {
	return m.listByProviderFunc(ctx, providerID)
}

// ---------------------------------------------------------------------------
// Mock AuditRepository
// ---------------------------------------------------------------------------

type mockAuditRepo struct {
	recordFunc func(ctx context.Context, entry *domain.AuditEntry) error
	listFunc   func(ctx context.Context, scope domain.Scope, limit, offset int) ([]*domain.AuditEntry, error)
}

func (m *mockAuditRepo) Record(ctx context.Context, entry *domain.AuditEntry) error {
	if m.recordFunc == nil {
		return nil
	}
	return m.recordFunc(ctx, entry)
}

func (m *mockAuditRepo) List(ctx context.Context, scope domain.Scope, limit, offset int) ([]*domain.AuditEntry, error) {
	return m.listFunc(ctx, scope, limit, offset)
}
