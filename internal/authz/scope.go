package authz

import (
	"github.com/google/uuid"

	"github.com/komunta/komunta/internal/domain"
)

// ScopeFor is the tenant scope enforcer: a pure function from actor
// context and resource class to the predicate the storage layer ANDs onto
// every query. It never errors: ambiguity degrades to an empty scope, so
// denial stays silent and uniform.
func ScopeFor(c ActorContext, resource Resource) domain.Scope {
	if !c.valid {
		return domain.Scope{Kind: domain.ScopeNone}
	}

	switch c.role {
	case domain.RoleSuperadmin:
		return domain.Scope{Kind: domain.ScopeAll}

	case domain.RoleAdmin, domain.RoleManager:
		return domain.Scope{Kind: domain.ScopeTenant, TenantID: c.tenantID}

	case domain.RoleOccupant:
		return occupantScope(c, resource)
	}

	return domain.Scope{Kind: domain.ScopeNone}
}

// occupantScope narrows an occupant to its assigned property lineage, or
// to records it owns for invoices. An occupant with no assigned property
// sees an empty set for every property-linked type, not an error.
func occupantScope(c ActorContext, resource Resource) domain.Scope {
	switch resource {
	case ResourceProperty, ResourceMeter, ResourceMeterReading:
		if c.propertyID == uuid.Nil {
			return domain.Scope{Kind: domain.ScopeNone}
		}
		return domain.Scope{
			Kind:       domain.ScopeTenantProperty,
			TenantID:   c.tenantID,
			PropertyID: c.propertyID,
		}

	case ResourceInvoice, ResourceInvoiceItem:
		return domain.Scope{
			Kind:       domain.ScopeOwner,
			TenantID:   c.tenantID,
			OccupantID: c.actorID,
		}
	}

	return domain.Scope{Kind: domain.ScopeNone}
}

// Unscoped returns the cross-tenant predicate for system-internal
// platform tooling. It is deliberately a separate, explicitly named
// accessor: no tenant-role request path resolves to it.
func Unscoped() domain.Scope {
	return domain.Scope{Kind: domain.ScopeAll}
}
