package authz

import "github.com/komunta/komunta/internal/domain"

// Action is what an actor attempts against a resource class.
type Action string

const (
	ActionRead   Action = "read"
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// Resource enumerates the entity classes the policy table covers.
type Resource string

const (
	ResourcePartition    Resource = "partition" // tenant namespaces themselves
	ResourceSubscription Resource = "subscription"
	ResourceUser         Resource = "user"
	ResourceBuilding     Resource = "building"
	ResourceProperty     Resource = "property"
	ResourceMeter        Resource = "meter"
	ResourceMeterReading Resource = "meter_reading"
	ResourceInvoice      Resource = "invoice"
	ResourceInvoiceItem  Resource = "invoice_item"
	ResourceProvider     Resource = "provider"
	ResourceTariff       Resource = "tariff"
	ResourceAudit        Resource = "audit"
)

// Decision is the result of a policy evaluation. Reason is nil when
// Allowed; otherwise one of the domain policy sentinels.
type Decision struct {
	Allowed bool
	Reason  error
}

// Err returns nil for an allow and the deny reason otherwise, so callers
// are forced to handle both outcomes.
func (d Decision) Err() error {
	if d.Allowed {
		return nil
	}
	return d.Reason
}

func allow() Decision { return Decision{Allowed: true} }

func deny(reason error) Decision { return Decision{Reason: reason} }

type actionSet uint8

const (
	canRead actionSet = 1 << iota
	canCreate
	canUpdate
	canDelete

	canWrite = canCreate | canUpdate | canDelete
	canAll   = canRead | canWrite
)

func (s actionSet) has(a Action) bool {
	switch a {
	case ActionRead:
		return s&canRead != 0
	case ActionCreate:
		return s&canCreate != 0
	case ActionUpdate:
		return s&canUpdate != 0
	case ActionDelete:
		return s&canDelete != 0
	}
	return false
}

// capabilities is the fixed role matrix. A missing entry is a deny; there
// is no wildcard other than the superadmin row handled in Evaluate.
// Managers run day-to-day operations but never touch accounts, buildings
// or global pricing; occupants are strictly read-only over their own
// slice.
var capabilities = map[domain.Role]map[Resource]actionSet{
	domain.RoleAdmin: {
		ResourceSubscription: canRead,
		ResourceUser:         canAll,
		ResourceBuilding:     canAll,
		ResourceProperty:     canAll,
		ResourceMeter:        canAll,
		ResourceMeterReading: canAll,
		ResourceInvoice:      canAll,
		ResourceInvoiceItem:  canAll,
		ResourceProvider:     canRead,
		ResourceTariff:       canRead,
		ResourceAudit:        canRead,
	},
	domain.RoleManager: {
		ResourceBuilding:     canRead,
		ResourceProperty:     canAll,
		ResourceMeter:        canAll,
		ResourceMeterReading: canAll,
		ResourceInvoice:      canAll,
		ResourceInvoiceItem:  canAll,
		ResourceTariff:       canRead,
	},
	domain.RoleOccupant: {
		ResourceProperty:     canRead,
		ResourceMeter:        canRead,
		ResourceMeterReading: canRead,
		ResourceInvoice:      canRead,
		ResourceInvoiceItem:  canRead,
	},
}

// Evaluate answers whether the actor's role may perform action on the
// given resource class. Scope (which records the actor can see) is the
// enforcer's job; Evaluate only consults the capability table. An invalid
// context is denied outright.
func Evaluate(c ActorContext, action Action, resource Resource) Decision {
	if !c.valid {
		return deny(domain.ErrInsufficientRole)
	}
	if c.role == domain.RoleSuperadmin {
		return allow()
	}
	if capabilities[c.role][resource].has(action) {
		return allow()
	}
	return deny(domain.ErrInsufficientRole)
}
