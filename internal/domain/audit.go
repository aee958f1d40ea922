package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// AuditEntry records a mutation decision: who acted, on what, and whether
// the policy allowed it. Denied attempts are recorded too.
type AuditEntry struct {
	ID         uuid.UUID
	TenantID   uuid.UUID // uuid.Nil for platform-level actions
	ActorID    uuid.UUID
	Role       Role
	Action     string
	Resource   string
	ResourceID uuid.UUID
	Outcome    string // "allow" or the deny reason
	Details    map[string]any
	CreatedAt  time.Time
}

type AuditRepository interface {
	Record(ctx context.Context, entry *AuditEntry) error
	List(ctx context.Context, scope Scope, limit, offset int) ([]*AuditEntry, error)
}
