package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/konfig-io/konfig/internal/middleware"
	"github.com/konfig-io/konfig/internal/services"
	"github.com/konfig-io/konfig/pkg/response"
)

type TenantHandler struct {
	tenantService *services.TenantService
	auditService  *services.AuditService
}

func NewTenantHandler(tenantService *services.TenantService, auditService *services.AuditService) *TenantHandler {
	return &TenantHandler{tenantService: tenantService, auditService: auditService}
}

// Get returns the current tenant
// GET /api/v1/tenant
func (h *TenantHandler) Get(c *gin.Context) {
	p := middleware.GetPrincipal(c)
	tenant, err := h.tenantService.Get(p.Tenant.ID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, tenant)
}

// Update changes the tenant name or settings
// PATCH /api/v1/tenant
func (h *TenantHandler) Update(c *gin.Context) {
	var req services.UpdateTenantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	p := middleware.GetPrincipal(c)
	tenant, err := h.tenantService.Update(p.Tenant.ID, &req)
	if err != nil {
		response.Error(c, err)
		return
	}

	h.auditService.Record(p.Tenant.ID, p.User.ID, "tenant", "update", "tenant settings updated", c.ClientIP())
	response.Success(c, tenant)
}
