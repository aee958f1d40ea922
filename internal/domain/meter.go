package domain

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// MeterKind is the utility a meter measures.
type MeterKind string

const (
	MeterColdWater   MeterKind = "cold_water"
	MeterHotWater    MeterKind = "hot_water"
	MeterElectricity MeterKind = "electricity"
	MeterHeating     MeterKind = "heating"
	MeterGas         MeterKind = "gas"
)

// Valid reports whether k is a known meter kind.
func (k MeterKind) Valid() bool {
	switch k {
	case MeterColdWater, MeterHotWater, MeterElectricity, MeterHeating, MeterGas:
		return true
	}
	return false
}

// Meter carries the property lineage used for occupant-level scoping.
type Meter struct {
	ID           uuid.UUID
	TenantID     uuid.UUID
	PropertyID   uuid.UUID
	Kind         MeterKind
	SerialNumber string
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// NewMeter creates a Meter with validated required fields.
func NewMeter(tenantID, propertyID uuid.UUID, kind MeterKind, serial string) (*Meter, error) {
	if tenantID == uuid.Nil {
		return nil, errors.New("meter: tenant ID is required")
	}
	if propertyID == uuid.Nil {
		return nil, errors.New("meter: property ID is required")
	}
	if !kind.Valid() {
		return nil, errors.New("meter: unknown kind")
	}
	if serial == "" {
		return nil, errors.New("meter: serial number is required")
	}

	now := time.Now()
	return &Meter{
		ID:           uuid.New(),
		TenantID:     tenantID,
		PropertyID:   propertyID,
		Kind:         kind,
		SerialNumber: serial,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

// MeterReading records a meter value in milli-units to avoid float drift.
type MeterReading struct {
	ID         uuid.UUID
	TenantID   uuid.UUID
	PropertyID uuid.UUID
	MeterID    uuid.UUID
	Value      int64 // milli-units
	ReadAt     time.Time
	RecordedBy uuid.UUID
	CreatedAt  time.Time
}

// NewMeterReading creates a MeterReading inheriting the meter's lineage.
func NewMeterReading(m *Meter, value int64, readAt time.Time, recordedBy uuid.UUID) (*MeterReading, error) {
	if m == nil {
		return nil, errors.New("reading: meter is required")
	}
	if value < 0 {
		return nil, errors.New("reading: value must be non-negative")
	}
	if recordedBy == uuid.Nil {
		return nil, errors.New("reading: recording actor is required")
	}
	if readAt.IsZero() {
		readAt = time.Now()
	}

	return &MeterReading{
		ID:         uuid.New(),
		TenantID:   m.TenantID,
		PropertyID: m.PropertyID,
		MeterID:    m.ID,
		Value:      value,
		ReadAt:     readAt,
		RecordedBy: recordedBy,
		CreatedAt:  time.Now(),
	}, nil
}

type MeterRepository interface {
	Create(ctx context.Context, m *Meter) error
	GetByID(ctx context.Context, scope Scope, id uuid.UUID) (*Meter, error)
	Update(ctx context.Context, scope Scope, m *Meter) error
	Delete(ctx context.Context, scope Scope, id uuid.UUID) error
	List(ctx context.Context, scope Scope) ([]*Meter, error)
	ListByProperty(ctx context.Context, scope Scope, propertyID uuid.UUID) ([]*Meter, error)
}

type MeterReadingRepository interface {
	Create(ctx context.Context, r *MeterReading) error
	GetByID(ctx context.Context, scope Scope, id uuid.UUID) (*MeterReading, error)
	ListByMeter(ctx context.Context, scope Scope, meterID uuid.UUID) ([]*MeterReading, error)
	List(ctx context.Context, scope Scope) ([]*MeterReading, error)
}
