package domain

import "github.com/google/uuid"

// ScopeKind enumerates the visibility classes a query predicate can take.
type ScopeKind int

const (
	// ScopeNone matches nothing. It is the fail-closed default for
	// invalid or ambiguous actor contexts.
	ScopeNone ScopeKind = iota
	// ScopeAll matches every partition (superadmin, platform tooling).
	ScopeAll
	// ScopeTenant matches records of one tenant partition.
	ScopeTenant
	// ScopeTenantProperty narrows ScopeTenant to one property lineage.
	ScopeTenantProperty
	// ScopeOwner narrows ScopeTenant to records owned by one occupant.
	ScopeOwner
)

// Scope is the predicate the tenant scope enforcer produces for a query.
// The storage layer ANDs it onto every read and write; single-record
// lookups outside the scope report ErrNotFound, never a forbidden error,
// so callers cannot distinguish "exists in another tenant" from "does not
// exist".
type Scope struct {
	Kind       ScopeKind
	TenantID   uuid.UUID
	PropertyID uuid.UUID
	OccupantID uuid.UUID
}

// Visible reports whether a record with the given partition, property
// lineage and owner falls inside the scope. propertyID and occupantID may
// be nil for entity types without that lineage.
func (s Scope) Visible(tenantID uuid.UUID, propertyID, occupantID *uuid.UUID) bool {
	switch s.Kind {
	case ScopeAll:
		return true
	case ScopeTenant:
		return tenantID == s.TenantID
	case ScopeTenantProperty:
		return tenantID == s.TenantID && propertyID != nil && *propertyID == s.PropertyID
	case ScopeOwner:
		return tenantID == s.TenantID && occupantID != nil && *occupantID == s.OccupantID
	default: // ScopeNone
		return false
	}
}

// Empty reports whether the scope can never match a record.
func (s Scope) Empty() bool { return s.Kind == ScopeNone }
