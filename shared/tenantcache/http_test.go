package tenantcache

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/lodgio/lodgio-platform/shared/models"
)

func TestWriteGatingError(t *testing.T) {
	gin.SetMode(gin.TestMode)

	cases := []struct {
		name string
		err  error
		want int
	}{
		{
			name: "unknown tenant is 404",
			err:  ErrTenantNotInCache,
			want: http.StatusNotFound,
		},
		{
			name: "ineligible tenant is 403",
			err: &IneligibleTenantError{
				TenantID: uuid.New(),
				Status:   models.TenantStatusSuspended,
			},
			want: http.StatusForbidden,
		},
		{
			name: "soft-deleted tenant is 403",
			err: &IneligibleTenantError{
				TenantID: uuid.New(),
				Status:   models.TenantStatusCancelled,
				Deleted:  true,
			},
			want: http.StatusForbidden,
		},
		{
			name: "anything else is 500",
			err:  errors.New("replica store unavailable"),
			want: http.StatusInternalServerError,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			recorder := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(recorder)
			c.Request = httptest.NewRequest(http.MethodPost, "/", nil)

			WriteGatingError(c, tc.err)

			if recorder.Code != tc.want {
				t.Errorf("status = %d, want %d", recorder.Code, tc.want)
			}
		})
	}
}
