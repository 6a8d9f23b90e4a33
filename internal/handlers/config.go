package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/konfig-io/konfig/internal/middleware"
	"github.com/konfig-io/konfig/internal/services"
	"github.com/konfig-io/konfig/pkg/response"
)

type ConfigHandler struct {
	configService *services.ConfigService
	auditService  *services.AuditService
}

func NewConfigHandler(configService *services.ConfigService, auditService *services.AuditService) *ConfigHandler {
	return &ConfigHandler{configService: configService, auditService: auditService}
}

// actorID identifies the acting principal for audit entries, user ID for
// interactive sessions and key ID for machine access.
func actorID(p *middleware.Principal) string {
	if p.User != nil {
		return p.User.ID
	}
	if p.Key != nil {
		return p.Key.ID
	}
	return ""
}

// List returns all entries of a namespace with decrypted values
// GET /api/v1/namespaces/:id/configs
func (h *ConfigHandler) List(c *gin.Context) {
	p := middleware.GetPrincipal(c)
	entries, err := h.configService.List(p.Tenant.ID, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, entries)
}

// Get returns one entry by key
// GET /api/v1/namespaces/:id/configs/:key
func (h *ConfigHandler) Get(c *gin.Context) {
	p := middleware.GetPrincipal(c)
	entry, err := h.configService.Get(p.Tenant.ID, c.Param("id"), c.Param("key"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, entry)
}

// Create adds an entry to a namespace
// POST /api/v1/namespaces/:id/configs
func (h *ConfigHandler) Create(c *gin.Context) {
	var req services.CreateConfigRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	p := middleware.GetPrincipal(c)
	entry, err := h.configService.Create(p.Tenant.ID, c.Param("id"), &req, actorID(p))
	if err != nil {
		response.Error(c, err)
		return
	}

	h.auditService.Record(p.Tenant.ID, actorID(p), "configs", "create", "config "+entry.Key+" created", c.ClientIP())
	response.Created(c, entry)
}

// Update applies a partial update, bumping the version when the value changes
// PATCH /api/v1/namespaces/:id/configs/:key
func (h *ConfigHandler) Update(c *gin.Context) {
	var req services.UpdateConfigRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	p := middleware.GetPrincipal(c)
	entry, err := h.configService.Update(p.Tenant.ID, c.Param("id"), c.Param("key"), &req, actorID(p))
	if err != nil {
		response.Error(c, err)
		return
	}

	h.auditService.Record(p.Tenant.ID, actorID(p), "configs", "update", "config "+entry.Key+" updated", c.ClientIP())
	response.Success(c, entry)
}

// Delete removes an entry, leaving a tombstone in its history
// DELETE /api/v1/namespaces/:id/configs/:key
func (h *ConfigHandler) Delete(c *gin.Context) {
	p := middleware.GetPrincipal(c)
	if err := h.configService.Delete(p.Tenant.ID, c.Param("id"), c.Param("key"), actorID(p)); err != nil {
		response.Error(c, err)
		return
	}

	h.auditService.Record(p.Tenant.ID, actorID(p), "configs", "delete", "config "+c.Param("key")+" deleted", c.ClientIP())
	response.NoContent(c)
}

// History returns all recorded versions of an entry, newest first
// GET /api/v1/namespaces/:id/configs/:key/history
func (h *ConfigHandler) History(c *gin.Context) {
	p := middleware.GetPrincipal(c)
	entries, err := h.configService.History(p.Tenant.ID, c.Param("id"), c.Param("key"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, entries)
}
