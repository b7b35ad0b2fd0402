package tenantcache

import (
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/lodgio/lodgio-platform/shared/models"
)

// ErrTenantNotInCache is returned when a tenant identifier has never been
// observed by the local replica. Callers must not treat it as ineligibility:
// a tenant that has not replicated yet is unknown, not blocked.
var ErrTenantNotInCache = errors.New("tenant not found in cache")

// IneligibleTenantError is returned when a tenant exists in the replica but
// is not currently allowed to transact. This is a hard validation failure;
// the calling business operation must abort.
type IneligibleTenantError struct {
	TenantID uuid.UUID
	Status   models.TenantStatus
	Deleted  bool
}

func (e *IneligibleTenantError) Error() string {
	if e.Deleted {
		return fmt.Sprintf("tenant %s is not operational: status %s (soft-deleted)", e.TenantID, e.Status)
	}
	return fmt.Sprintf("tenant %s is not operational: status %s", e.TenantID, e.Status)
}
