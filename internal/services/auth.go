package services

import (
	"errors"

	"github.com/konfig-io/konfig/internal/models"
	"github.com/konfig-io/konfig/internal/secure"
	"github.com/konfig-io/konfig/pkg/response"
	"gorm.io/gorm"
)

// AuthService handles registration, login and token refresh.
type AuthService struct {
	db     *gorm.DB
	tokens *secure.TokenService
}

func NewAuthService(db *gorm.DB, tokens *secure.TokenService) *AuthService {
	return &AuthService{db: db, tokens: tokens}
}

type RegisterRequest struct {
	TenantName string `json:"tenant_name" binding:"required"`
	Email      string `json:"email" binding:"required,email"`
	Password   string `json:"password" binding:"required,min=8"`
	FullName   string `json:"full_name"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// TokenPair is returned from register, login and refresh.
type TokenPair struct {
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token"`
	TokenType    string       `json:"token_type"`
	ExpiresIn    int          `json:"expires_in"` // access token lifetime in seconds
	User         *models.User `json:"user,omitempty"`
	TenantID     string       `json:"tenant_id"`
	TenantName   string       `json:"tenant_name"`
}

// Register creates a tenant and its first user in one transaction. The first
// user is always the owner.
func (s *AuthService) Register(req *RegisterRequest) (*TokenPair, error) {
	var tenant models.Tenant
	var user models.User

	err := s.db.Transaction(func(tx *gorm.DB) error {
		var count int64
		tx.Model(&models.User{}).Where("email = ?", req.Email).Count(&count)
		if count > 0 {
			return response.NewConflict("email already registered")
		}
		tx.Model(&models.Tenant{}).Where("name = ?", req.TenantName).Count(&count)
		if count > 0 {
			return response.NewConflict("tenant name already taken")
		}

		tenant = models.Tenant{Name: req.TenantName, IsActive: true, Settings: []byte("{}")}
		if err := tx.Create(&tenant).Error; err != nil {
			return err
		}

		hash, err := secure.HashPassword(req.Password)
		if err != nil {
			return err
		}
		user = models.User{
			TenantID:     tenant.ID,
			Email:        req.Email,
			PasswordHash: hash,
			FullName:     req.FullName,
			Role:         models.RoleOwner,
			IsActive:     true,
		}
		return tx.Create(&user).Error
	})
	if err != nil {
		return nil, err
	}

	return s.issuePair(&user, &tenant)
}

// Login verifies credentials and returns a fresh token pair. Unknown email
// and wrong password are indistinguishable to the caller.
func (s *AuthService) Login(req *LoginRequest) (*TokenPair, error) {
	var user models.User
	err := s.db.Where("email = ?", req.Email).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, response.NewUnauthorized("incorrect email or password")
		}
		return nil, err
	}

	if !secure.CheckPassword(req.Password, user.PasswordHash) {
		return nil, response.NewUnauthorized("incorrect email or password")
	}
	if !user.IsActive {
		return nil, response.NewForbidden("user account is inactive")
	}

	tenant, err := s.activeTenant(user.TenantID)
	if err != nil {
		return nil, err
	}

	return s.issuePair(&user, tenant)
}

// Refresh exchanges a valid refresh token for a new token pair.
func (s *AuthService) Refresh(refreshToken string) (*TokenPair, error) {
	claims, err := s.tokens.Decode(refreshToken)
	if err != nil {
		return nil, response.NewUnauthorized("invalid or expired refresh token")
	}
	if claims.TokenType != secure.TokenRefresh {
		return nil, response.NewUnauthorized("invalid token type")
	}

	var user models.User
	if err := s.db.Where("id = ?", claims.Subject).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, response.NewUnauthorized("user not found")
		}
		return nil, err
	}
	if !user.IsActive {
		return nil, response.NewForbidden("user account is inactive")
	}

	tenant, err := s.activeTenant(user.TenantID)
	if err != nil {
		return nil, err
	}

	return s.issuePair(&user, tenant)
}

func (s *AuthService) activeTenant(tenantID string) (*models.Tenant, error) {
	var tenant models.Tenant
	if err := s.db.Where("id = ?", tenantID).First(&tenant).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, response.NewNotFound("tenant not found")
		}
		return nil, err
	}
	if !tenant.IsActive {
		return nil, response.NewForbidden("tenant account is inactive")
	}
	return &tenant, nil
}

func (s *AuthService) issuePair(user *models.User, tenant *models.Tenant) (*TokenPair, error) {
	access, err := s.tokens.IssueAccess(user.ID)
	if err != nil {
		return nil, err
	}
	refresh, err := s.tokens.IssueRefresh(user.ID)
	if err != nil {
		return nil, err
	}

	return &TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    "bearer",
		ExpiresIn:    int(s.tokens.AccessTTL().Seconds()),
		User:         user,
		TenantID:     tenant.ID,
		TenantName:   tenant.Name,
	}, nil
}
