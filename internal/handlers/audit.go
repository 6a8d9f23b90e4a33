package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/konfig-io/konfig/internal/middleware"
	"github.com/konfig-io/konfig/internal/services"
	"github.com/konfig-io/konfig/pkg/response"
)

type AuditHandler struct {
	auditService *services.AuditService
}

func NewAuditHandler(auditService *services.AuditService) *AuditHandler {
	return &AuditHandler{auditService: auditService}
}

// List returns paginated audit entries for the current tenant
// GET /api/v1/audit
func (h *AuditHandler) List(c *gin.Context) {
	var req services.AuditListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	p := middleware.GetPrincipal(c)
	resp, err := h.auditService.List(p.Tenant.ID, &req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, resp)
}
