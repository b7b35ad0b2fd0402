package tenantcache

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/lodgio/lodgio-platform/shared/utils"
)

// WriteGatingError maps a gating failure to the right HTTP response: an
// unknown tenant is 404 (not yet replicated, distinct from blocked), an
// ineligible tenant is 403.
func WriteGatingError(c *gin.Context, err error) {
	var ineligible *IneligibleTenantError
	switch {
	case errors.Is(err, ErrTenantNotInCache):
		utils.NotFoundResponse(c, "Tenant not known to this service yet")
	case errors.As(err, &ineligible):
		utils.ForbiddenResponse(c, ineligible.Error())
	default:
		utils.InternalServerErrorResponse(c, "Failed to validate tenant")
	}
}
