package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/konfig-io/konfig/internal/middleware"
	"github.com/konfig-io/konfig/internal/services"
	"github.com/konfig-io/konfig/pkg/response"
)

type AuthHandler struct {
	authService  *services.AuthService
	auditService *services.AuditService
}

func NewAuthHandler(authService *services.AuthService, auditService *services.AuditService) *AuthHandler {
	return &AuthHandler{authService: authService, auditService: auditService}
}

// Register creates a tenant and its first owner user
// POST /api/v1/auth/register
func (h *AuthHandler) Register(c *gin.Context) {
	var req services.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	pair, err := h.authService.Register(&req)
	if err != nil {
		response.Error(c, err)
		return
	}

	h.auditService.Record(pair.TenantID, pair.User.ID, "auth", "register", "tenant "+pair.TenantName+" registered", c.ClientIP())
	response.Created(c, pair)
}

// Login exchanges email and password for a token pair
// POST /api/v1/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req services.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	pair, err := h.authService.Login(&req)
	if err != nil {
		response.Error(c, err)
		return
	}

	h.auditService.Record(pair.TenantID, pair.User.ID, "auth", "login", "user "+pair.User.Email+" logged in", c.ClientIP())
	response.Success(c, pair)
}

// Refresh rotates a refresh token into a new token pair
// POST /api/v1/auth/refresh
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req services.RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	pair, err := h.authService.Refresh(req.RefreshToken)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, pair)
}

// Me returns the authenticated user
// GET /api/v1/auth/me
func (h *AuthHandler) Me(c *gin.Context) {
	p := middleware.GetPrincipal(c)
	if p == nil || !p.IsUser() {
		response.Unauthorized(c, "user credentials required")
		return
	}
	response.Success(c, p.User)
}
