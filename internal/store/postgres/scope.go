package postgres

import (
	"fmt"

	"github.com/komunta/komunta/internal/domain"
)

// scopeCols names the columns a table exposes for scope filtering. An
// empty column means the table has no such lineage; a scope that needs
// the missing column degrades to FALSE rather than widening.
type scopeCols struct {
	tenant   string
	property string
	occupant string
}

// scopeClause renders a domain.Scope as a SQL predicate fragment starting
// at placeholder $argPos. Every tenant-partitioned query ANDs the result
// onto its WHERE clause, so scoping is uniform and cannot be forgotten
// per call site.
func scopeClause(s domain.Scope, cols scopeCols, argPos int) (string, []any) {
	switch s.Kind {
	case domain.ScopeAll:
		return "TRUE", nil

	case domain.ScopeTenant:
		if cols.tenant == "" {
			return "FALSE", nil
		}
		return fmt.Sprintf("%s = $%d", cols.tenant, argPos), []any{s.TenantID}

	case domain.ScopeTenantProperty:
		if cols.tenant == "" || cols.property == "" {
			return "FALSE", nil
		}
		return fmt.Sprintf("%s = $%d AND %s = $%d", cols.tenant, argPos, cols.property, argPos+1),
			[]any{s.TenantID, s.PropertyID}

	case domain.ScopeOwner:
		if cols.tenant == "" || cols.occupant == "" {
			return "FALSE", nil
		}
		return fmt.Sprintf("%s = $%d AND %s = $%d", cols.tenant, argPos, cols.occupant, argPos+1),
			[]any{s.TenantID, s.OccupantID}

	default: // domain.ScopeNone fails closed
		return "FALSE", nil
	}
}
