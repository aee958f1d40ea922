package authz

import (
	"fmt"

	"github.com/komunta/komunta/internal/domain"
)

// ValidateAssignment cross-checks partition consistency before an admin
// links an occupant account to a property. It must run before any state
// is modified; on mismatch nothing is written. Superadmins may assign
// within any partition, but the property and occupant partitions must
// still agree.
func ValidateAssignment(admin *domain.Actor, occupant *domain.Actor, property *domain.Property) error {
	if admin == nil || occupant == nil || property == nil {
		return fmt.Errorf("authz.ValidateAssignment: %w", domain.ErrInvalidPropertyAssignment)
	}
	if occupant.Role != domain.RoleOccupant {
		return fmt.Errorf("authz.ValidateAssignment: target is not an occupant account: %w", domain.ErrInvalidPropertyAssignment)
	}
	if property.TenantID != occupant.TenantID {
		return fmt.Errorf("authz.ValidateAssignment: property partition differs from occupant partition: %w", domain.ErrInvalidPropertyAssignment)
	}
	if admin.Role != domain.RoleSuperadmin && property.TenantID != admin.TenantID {
		return fmt.Errorf("authz.ValidateAssignment: property partition differs from acting admin partition: %w", domain.ErrInvalidPropertyAssignment)
	}
	return nil
}
