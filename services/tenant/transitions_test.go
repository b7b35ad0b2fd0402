package main

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/lodgio/lodgio-platform/shared/models"
)

func tenantIn(status models.TenantStatus) *models.Tenant {
	return &models.Tenant{
		ID:     uuid.New(),
		Name:   "Dune Hostel",
		Slug:   "dune-hostel",
		Status: status,
	}
}

func TestValidateTransition(t *testing.T) {
	cases := []struct {
		action string
		from   models.TenantStatus
		want   models.TenantStatus
		ok     bool
	}{
		{actionSuspend, models.TenantStatusTrial, models.TenantStatusSuspended, true},
		{actionSuspend, models.TenantStatusActive, models.TenantStatusSuspended, true},
		{actionSuspend, models.TenantStatusSuspended, "", false},
		{actionSuspend, models.TenantStatusCancelled, "", false},
		{actionActivate, models.TenantStatusTrial, models.TenantStatusActive, true},
		{actionActivate, models.TenantStatusSuspended, models.TenantStatusActive, true},
		{actionActivate, models.TenantStatusExpired, models.TenantStatusActive, true},
		{actionActivate, models.TenantStatusActive, "", false},
		{actionExpire, models.TenantStatusTrial, models.TenantStatusExpired, true},
		{actionExpire, models.TenantStatusActive, models.TenantStatusExpired, true},
		{actionExpire, models.TenantStatusExpired, "", false},
	}

	for _, tc := range cases {
		got, err := validateTransition(tenantIn(tc.from), tc.action)
		if tc.ok {
			if err != nil {
				t.Errorf("%s from %s: unexpected error %v", tc.action, tc.from, err)
				continue
			}
			if got != tc.want {
				t.Errorf("%s from %s = %s, want %s", tc.action, tc.from, got, tc.want)
			}
		} else if err == nil {
			t.Errorf("%s from %s: expected error, got %s", tc.action, tc.from, got)
		}
	}
}

func TestValidateTransition_DeletedTenant(t *testing.T) {
	tenant := tenantIn(models.TenantStatusActive)
	now := time.Now().UTC()
	tenant.DeletedAt = &now

	for _, action := range []string{actionSuspend, actionActivate, actionExpire} {
		if _, err := validateTransition(tenant, action); err == nil {
			t.Errorf("%s on deleted tenant must fail", action)
		}
	}
}

func TestValidateTransition_UnknownAction(t *testing.T) {
	if _, err := validateTransition(tenantIn(models.TenantStatusActive), "archive"); err == nil {
		t.Error("unknown action must fail")
	}
}
