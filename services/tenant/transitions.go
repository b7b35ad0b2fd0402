package main

import (
	"fmt"

	"github.com/lodgio/lodgio-platform/shared/models"
)

// Lifecycle actions an administrator can apply to a tenant. Deletion is
// handled separately because it is driven by the soft-delete marker, not
// the status alone.
const (
	actionSuspend  = "suspend"
	actionActivate = "activate"
	actionExpire   = "expire"
)

// allowedTransitions maps each administrative action to the statuses it
// may be applied from.
var allowedTransitions = map[string][]models.TenantStatus{
	actionSuspend:  {models.TenantStatusTrial, models.TenantStatusActive},
	actionActivate: {models.TenantStatusTrial, models.TenantStatusSuspended, models.TenantStatusExpired},
	actionExpire:   {models.TenantStatusTrial, models.TenantStatusActive},
}

// targetStatus maps each administrative action to the status it produces
var targetStatus = map[string]models.TenantStatus{
	actionSuspend:  models.TenantStatusSuspended,
	actionActivate: models.TenantStatusActive,
	actionExpire:   models.TenantStatusExpired,
}

// validateTransition checks that an action is allowed from the tenant's
// current state and returns the resulting status.
func validateTransition(tenant *models.Tenant, action string) (models.TenantStatus, error) {
	if tenant.DeletedAt != nil {
		return "", fmt.Errorf("tenant %s is deleted and cannot be %sd", tenant.ID, action)
	}

	sources, ok := allowedTransitions[action]
	if !ok {
		return "", fmt.Errorf("unknown lifecycle action %q", action)
	}

	for _, src := range sources {
		if tenant.Status == src {
			return targetStatus[action], nil
		}
	}
	return "", fmt.Errorf("cannot %s tenant in status %s", action, tenant.Status)
}
