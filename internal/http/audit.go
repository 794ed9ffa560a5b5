package http

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/openshelf/circulation/internal/audit"
)

// AuditController exposes the circulation audit trail.
type AuditController struct {
	audit *audit.Service
}

// NewAuditController creates a new AuditController.
func NewAuditController(auditService *audit.Service) *AuditController {
	return &AuditController{audit: auditService}
}

// List returns paginated audit events, most recent first. Supports
// user_id, limit, and offset query parameters.
func (ac *AuditController) List(c *gin.Context) {
	userID, _ := strconv.ParseUint(c.DefaultQuery("user_id", "0"), 10, 32)
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	events, total, err := ac.audit.GetEvents(uint(userID), limit, offset)
	if err != nil {
		respondLendingError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"events": events,
		"total":  total,
		"limit":  limit,
		"offset": offset,
	})
}
