package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/konfig-io/konfig/internal/middleware"
	"github.com/konfig-io/konfig/internal/services"
	"github.com/konfig-io/konfig/pkg/response"
)

type NamespaceHandler struct {
	namespaceService *services.NamespaceService
	auditService     *services.AuditService
}

func NewNamespaceHandler(namespaceService *services.NamespaceService, auditService *services.AuditService) *NamespaceHandler {
	return &NamespaceHandler{namespaceService: namespaceService, auditService: auditService}
}

// List returns all namespaces of the current tenant
// GET /api/v1/namespaces
func (h *NamespaceHandler) List(c *gin.Context) {
	p := middleware.GetPrincipal(c)
	namespaces, err := h.namespaceService.List(p.Tenant.ID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, namespaces)
}

// Get returns one namespace
// GET /api/v1/namespaces/:id
func (h *NamespaceHandler) Get(c *gin.Context) {
	p := middleware.GetPrincipal(c)
	ns, err := h.namespaceService.Get(p.Tenant.ID, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, ns)
}

// Create adds a namespace
// POST /api/v1/namespaces
func (h *NamespaceHandler) Create(c *gin.Context) {
	var req services.CreateNamespaceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	p := middleware.GetPrincipal(c)
	ns, err := h.namespaceService.Create(p.Tenant.ID, &req)
	if err != nil {
		response.Error(c, err)
		return
	}

	h.auditService.Record(p.Tenant.ID, actorID(p), "namespaces", "create", "namespace "+ns.Name+" created", c.ClientIP())
	response.Created(c, ns)
}

// Update renames or re-describes a namespace
// PATCH /api/v1/namespaces/:id
func (h *NamespaceHandler) Update(c *gin.Context) {
	var req services.UpdateNamespaceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	p := middleware.GetPrincipal(c)
	ns, err := h.namespaceService.Update(p.Tenant.ID, c.Param("id"), &req)
	if err != nil {
		response.Error(c, err)
		return
	}

	h.auditService.Record(p.Tenant.ID, actorID(p), "namespaces", "update", "namespace "+ns.Name+" updated", c.ClientIP())
	response.Success(c, ns)
}

// Delete removes a namespace and everything in it
// DELETE /api/v1/namespaces/:id
func (h *NamespaceHandler) Delete(c *gin.Context) {
	p := middleware.GetPrincipal(c)
	if err := h.namespaceService.Delete(p.Tenant.ID, c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}

	h.auditService.Record(p.Tenant.ID, actorID(p), "namespaces", "delete", "namespace "+c.Param("id")+" deleted", c.ClientIP())
	response.NoContent(c)
}
