package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/konfig-io/konfig/internal/middleware"
	"github.com/konfig-io/konfig/internal/services"
	"github.com/konfig-io/konfig/pkg/response"
)

type UserHandler struct {
	userService  *services.UserService
	auditService *services.AuditService
}

func NewUserHandler(userService *services.UserService, auditService *services.AuditService) *UserHandler {
	return &UserHandler{userService: userService, auditService: auditService}
}

// List returns all users of the current tenant
// GET /api/v1/users
func (h *UserHandler) List(c *gin.Context) {
	p := middleware.GetPrincipal(c)
	users, err := h.userService.List(p.Tenant.ID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, users)
}

// Get returns one user
// GET /api/v1/users/:id
func (h *UserHandler) Get(c *gin.Context) {
	p := middleware.GetPrincipal(c)
	user, err := h.userService.Get(p.Tenant.ID, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, user)
}

// Create adds a user to the current tenant
// POST /api/v1/users
func (h *UserHandler) Create(c *gin.Context) {
	var req services.CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	p := middleware.GetPrincipal(c)
	user, err := h.userService.Create(p.User, &req)
	if err != nil {
		response.Error(c, err)
		return
	}

	h.auditService.Record(p.Tenant.ID, p.User.ID, "users", "create", "user "+user.Email+" created", c.ClientIP())
	response.Created(c, user)
}

// Update applies a partial update to a user
// PATCH /api/v1/users/:id
func (h *UserHandler) Update(c *gin.Context) {
	var req services.UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	p := middleware.GetPrincipal(c)
	user, err := h.userService.Update(p.User, c.Param("id"), &req)
	if err != nil {
		response.Error(c, err)
		return
	}

	h.auditService.Record(p.Tenant.ID, p.User.ID, "users", "update", "user "+user.Email+" updated", c.ClientIP())
	response.Success(c, user)
}

// Delete removes a user
// DELETE /api/v1/users/:id
func (h *UserHandler) Delete(c *gin.Context) {
	p := middleware.GetPrincipal(c)
	if err := h.userService.Delete(p.User, c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}

	h.auditService.Record(p.Tenant.ID, p.User.ID, "users", "delete", "user "+c.Param("id")+" deleted", c.ClientIP())
	response.NoContent(c)
}
