package events

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/lodgio/lodgio-platform/shared/models"
)

// EventKind represents a tenant lifecycle transition. The set is closed:
// every switch over it must be exhaustive so a new kind is a compile-time
// visible change in publisher and consumers alike.
type EventKind string

const (
	EventKindCreated   EventKind = "created"
	EventKindUpdated   EventKind = "updated"
	EventKindDeleted   EventKind = "deleted"
	EventKindSuspended EventKind = "suspended"
	EventKindActivated EventKind = "activated"
	EventKindExpired   EventKind = "expired"
)

// Kafka topics, one per lifecycle transition kind. Messages are keyed by
// tenant ID so all events for one tenant land on the same partition.
const (
	TopicTenantCreated   = "tenant-created"
	TopicTenantUpdated   = "tenant-updated"
	TopicTenantDeleted   = "tenant-deleted"
	TopicTenantSuspended = "tenant-suspended"
	TopicTenantActivated = "tenant-activated"
	TopicTenantExpired   = "tenant-expired"
)

// AllTopics lists every tenant lifecycle topic, in a stable order, for
// consumers that subscribe to the full stream.
var AllTopics = []string{
	TopicTenantCreated,
	TopicTenantUpdated,
	TopicTenantDeleted,
	TopicTenantSuspended,
	TopicTenantActivated,
	TopicTenantExpired,
}

// TopicForKind maps an event kind to its Kafka topic
func TopicForKind(kind EventKind) (string, error) {
	switch kind {
	case EventKindCreated:
		return TopicTenantCreated, nil
	case EventKindUpdated:
		return TopicTenantUpdated, nil
	case EventKindDeleted:
		return TopicTenantDeleted, nil
	case EventKindSuspended:
		return TopicTenantSuspended, nil
	case EventKindActivated:
		return TopicTenantActivated, nil
	case EventKindExpired:
		return TopicTenantExpired, nil
	}
	return "", fmt.Errorf("unknown event kind %q", kind)
}

// TenantSnapshot carries the full replicated view of a tenant. Every event
// ships the complete snapshot, never a diff - that is what makes replay and
// redelivery safe to apply blindly.
type TenantSnapshot struct {
	Name      string                `json:"name"`
	Slug      string                `json:"slug"`
	Category  models.TenantCategory `json:"category"`
	Status    models.TenantStatus   `json:"status"`
	Plan      *models.TenantPlan    `json:"plan"`
	DeletedAt *time.Time            `json:"deleted_at"`
}

// TenantEvent is the immutable wire message for one lifecycle transition
type TenantEvent struct {
	ID        uuid.UUID         `json:"id"`
	Kind      EventKind         `json:"kind"`
	TenantID  uuid.UUID         `json:"tenant_id"`
	Snapshot  TenantSnapshot    `json:"snapshot"`
	EmittedAt time.Time         `json:"emitted_at"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

// NewTenantEvent builds an event from the post-mutation tenant record
func NewTenantEvent(kind EventKind, tenant *models.Tenant) TenantEvent {
	return TenantEvent{
		ID:       uuid.New(),
		Kind:     kind,
		TenantID: tenant.ID,
		Snapshot: TenantSnapshot{
			Name:      tenant.Name,
			Slug:      tenant.Slug,
			Category:  tenant.Category,
			Status:    tenant.Status,
			Plan:      tenant.Plan,
			DeletedAt: tenant.DeletedAt,
		},
		EmittedAt: time.Now().UTC(),
	}
}
