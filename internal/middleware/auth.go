package middleware

import (
	"errors"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/konfig-io/konfig/internal/models"
	"github.com/konfig-io/konfig/internal/secure"
	"github.com/konfig-io/konfig/pkg/response"
	"gorm.io/gorm"
)

const ContextPrincipal = "principal"

// Principal is a resolved caller: always a tenant, plus either the user
// behind a bearer token or the API key behind an X-API-Key header.
type Principal struct {
	Tenant *models.Tenant
	User   *models.User
	Key    *models.ApiKey
}

// IsUser reports whether the principal is a human user session.
func (p *Principal) IsUser() bool {
	return p.User != nil
}

// HasScope reports whether the principal may perform operations gated by the
// given capability. User principals are gated by role elsewhere and always
// pass; API-key principals must carry the scope.
func (p *Principal) HasScope(scope string) bool {
	if p.Key == nil {
		return true
	}
	return p.Key.HasScope(scope)
}

// authenticator resolves a principal from one credential type. It returns
// (nil, nil) when its credential is absent from the request, letting the next
// strategy in the chain run.
type authenticator interface {
	authenticate(c *gin.Context, db *gorm.DB) (*Principal, error)
}

// apiKeyAuthenticator resolves the X-API-Key header. It runs before the
// bearer authenticator, so an API key wins when both credentials are present.
type apiKeyAuthenticator struct{}

func (apiKeyAuthenticator) authenticate(c *gin.Context, db *gorm.DB) (*Principal, error) {
	raw := c.GetHeader("X-API-Key")
	if raw == "" {
		return nil, nil
	}

	prefix, ok := secure.APIKeyLookup(raw)
	if !ok {
		return nil, response.NewUnauthorized("invalid API key format")
	}

	var key models.ApiKey
	if err := db.Where("prefix = ? AND is_active = ?", prefix, true).First(&key).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, response.NewUnauthorized("invalid API key")
		}
		return nil, err
	}

	if key.ExpiresAt != nil && key.ExpiresAt.Before(time.Now()) {
		return nil, response.NewUnauthorized("API key has expired")
	}
	if !secure.CheckAPIKey(raw, key.KeyHash) {
		return nil, response.NewUnauthorized("invalid API key")
	}

	now := time.Now()
	db.Model(&key).UpdateColumn("last_used_at", now)
	key.LastUsedAt = &now

	tenant, err := activeTenant(db, key.TenantID)
	if err != nil {
		return nil, err
	}
	return &Principal{Tenant: tenant, Key: &key}, nil
}

// bearerAuthenticator resolves an Authorization: Bearer <token> header into
// an active user plus their tenant. Only access tokens are accepted.
type bearerAuthenticator struct {
	tokens *secure.TokenService
}

func (a bearerAuthenticator) authenticate(c *gin.Context, db *gorm.DB) (*Principal, error) {
	header := c.GetHeader("Authorization")
	if header == "" {
		return nil, nil
	}

	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" {
		return nil, response.NewUnauthorized("invalid authorization header format")
	}

	claims, err := a.tokens.Decode(parts[1])
	if err != nil {
		return nil, response.NewUnauthorized("invalid or expired token")
	}
	if claims.TokenType != secure.TokenAccess {
		return nil, response.NewUnauthorized("invalid token type")
	}

	var user models.User
	if err := db.Where("id = ?", claims.Subject).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, response.NewUnauthorized("user not found")
		}
		return nil, err
	}
	if !user.IsActive {
		return nil, response.NewUnauthorized("user account is inactive")
	}

	tenant, err := activeTenant(db, user.TenantID)
	if err != nil {
		return nil, err
	}
	return &Principal{Tenant: tenant, User: &user}, nil
}

func activeTenant(db *gorm.DB, tenantID string) (*models.Tenant, error) {
	var tenant models.Tenant
	if err := db.Where("id = ?", tenantID).First(&tenant).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, response.NewUnauthorized("tenant not found")
		}
		return nil, err
	}
	if !tenant.IsActive {
		return nil, response.NewUnauthorized("tenant account is inactive")
	}
	return &tenant, nil
}

// Auth returns a middleware that resolves the request's principal, trying
// each credential type in fixed priority order. A request with no usable
// credential is rejected; there is no partially authenticated state.
func Auth(db *gorm.DB, tokens *secure.TokenService) gin.HandlerFunc {
	chain := []authenticator{
		apiKeyAuthenticator{},
		bearerAuthenticator{tokens: tokens},
	}

	return func(c *gin.Context) {
		for _, a := range chain {
			p, err := a.authenticate(c, db)
			if err != nil {
				response.Error(c, err)
				c.Abort()
				return
			}
			if p != nil {
				c.Set(ContextPrincipal, p)
				c.Next()
				return
			}
		}
		response.Unauthorized(c, "authentication required")
		c.Abort()
	}
}

// RequireUser rejects API-key principals. Operations like key management are
// only available to human user sessions.
func RequireUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		p := GetPrincipal(c)
		if p == nil || !p.IsUser() {
			response.Forbidden(c, "user credentials required")
			c.Abort()
			return
		}
		c.Next()
	}
}

// RequireRole rejects user principals below the given minimum role. It
// implies RequireUser.
func RequireRole(min models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		p := GetPrincipal(c)
		if p == nil || !p.IsUser() {
			response.Forbidden(c, "user credentials required")
			c.Abort()
			return
		}
		if !p.User.Role.Meets(min) {
			response.Forbidden(c, "insufficient permissions")
			c.Abort()
			return
		}
		c.Next()
	}
}

// RequireScope rejects API-key principals lacking the given capability.
// User principals pass; their access is governed by role.
func RequireScope(scope string) gin.HandlerFunc {
	return func(c *gin.Context) {
		p := GetPrincipal(c)
		if p == nil {
			response.Unauthorized(c, "authentication required")
			c.Abort()
			return
		}
		if !p.HasScope(scope) {
			response.Forbidden(c, "API key lacks required scope: "+scope)
			c.Abort()
			return
		}
		c.Next()
	}
}

// GetPrincipal returns the resolved principal, or nil outside Auth.
func GetPrincipal(c *gin.Context) *Principal {
	if v, exists := c.Get(ContextPrincipal); exists {
		if p, ok := v.(*Principal); ok {
			return p
		}
	}
	return nil
}
