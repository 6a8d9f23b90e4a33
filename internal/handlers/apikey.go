package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/konfig-io/konfig/internal/middleware"
	"github.com/konfig-io/konfig/internal/services"
	"github.com/konfig-io/konfig/pkg/response"
)

type APIKeyHandler struct {
	apiKeyService *services.APIKeyService
	auditService  *services.AuditService
}

func NewAPIKeyHandler(apiKeyService *services.APIKeyService, auditService *services.AuditService) *APIKeyHandler {
	return &APIKeyHandler{apiKeyService: apiKeyService, auditService: auditService}
}

// List returns the tenant's API keys, newest first. Hashes are never included.
// GET /api/v1/apikeys
func (h *APIKeyHandler) List(c *gin.Context) {
	p := middleware.GetPrincipal(c)
	keys, err := h.apiKeyService.List(p.Tenant.ID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, keys)
}

// Get returns one API key record
// GET /api/v1/apikeys/:id
func (h *APIKeyHandler) Get(c *gin.Context) {
	p := middleware.GetPrincipal(c)
	key, err := h.apiKeyService.Get(p.Tenant.ID, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, key)
}

// Create issues a new key. The plaintext appears in this response only.
// POST /api/v1/apikeys
func (h *APIKeyHandler) Create(c *gin.Context) {
	var req services.CreateAPIKeyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	p := middleware.GetPrincipal(c)
	created, err := h.apiKeyService.Create(p.User, &req)
	if err != nil {
		response.Error(c, err)
		return
	}

	h.auditService.Record(p.Tenant.ID, p.User.ID, "apikeys", "create", "API key "+created.Name+" created", c.ClientIP())
	response.Created(c, created)
}

// Revoke deactivates a key without deleting its record
// POST /api/v1/apikeys/:id/revoke
func (h *APIKeyHandler) Revoke(c *gin.Context) {
	p := middleware.GetPrincipal(c)
	key, err := h.apiKeyService.Revoke(p.Tenant.ID, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	h.auditService.Record(p.Tenant.ID, p.User.ID, "apikeys", "revoke", "API key "+key.Name+" revoked", c.ClientIP())
	response.Success(c, key)
}

// Delete removes a key record entirely
// DELETE /api/v1/apikeys/:id
func (h *APIKeyHandler) Delete(c *gin.Context) {
	p := middleware.GetPrincipal(c)
	if err := h.apiKeyService.Delete(p.Tenant.ID, c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}

	h.auditService.Record(p.Tenant.ID, p.User.ID, "apikeys", "delete", "API key "+c.Param("id")+" deleted", c.ClientIP())
	response.NoContent(c)
}
