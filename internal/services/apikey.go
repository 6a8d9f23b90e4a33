package services

import (
	"errors"
	"strings"
	"time"

	"github.com/konfig-io/konfig/internal/models"
	"github.com/konfig-io/konfig/internal/secure"
	"github.com/konfig-io/konfig/pkg/response"
	"gorm.io/gorm"
)

// APIKeyService issues and revokes machine credentials. The plaintext key is
// returned exactly once on creation; only its bcrypt hash and a short lookup
// prefix are stored.
type APIKeyService struct {
	db *gorm.DB
}

func NewAPIKeyService(db *gorm.DB) *APIKeyService {
	return &APIKeyService{db: db}
}

type CreateAPIKeyRequest struct {
	Name          string   `json:"name" binding:"required,max=100"`
	Scopes        []string `json:"scopes"`
	ExpiresInDays *int     `json:"expires_in_days"`
}

// CreatedAPIKey carries the one-time plaintext alongside the stored record.
type CreatedAPIKey struct {
	models.ApiKey
	Key string `json:"key"`
}

var validScopes = map[string]bool{
	models.ScopeRead:  true,
	models.ScopeWrite: true,
	models.ScopeAdmin: true,
}

func (s *APIKeyService) List(tenantID string) ([]models.ApiKey, error) {
	var keys []models.ApiKey
	err := s.db.Where("tenant_id = ?", tenantID).Order("created_at DESC").Find(&keys).Error
	return keys, err
}

func (s *APIKeyService) Get(tenantID, keyID string) (*models.ApiKey, error) {
	var key models.ApiKey
	err := s.db.Where("id = ? AND tenant_id = ?", keyID, tenantID).First(&key).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, response.NewNotFound("API key not found")
		}
		return nil, err
	}
	return &key, nil
}

func (s *APIKeyService) Create(actor *models.User, req *CreateAPIKeyRequest) (*CreatedAPIKey, error) {
	scopes := req.Scopes
	if len(scopes) == 0 {
		scopes = []string{models.ScopeRead}
	}
	for _, scope := range scopes {
		if !validScopes[scope] {
			return nil, response.NewBadRequest("invalid scope: " + scope)
		}
	}

	plaintext, err := secure.GenerateAPIKey()
	if err != nil {
		return nil, err
	}
	hash, err := secure.HashAPIKey(plaintext)
	if err != nil {
		return nil, err
	}

	var expiresAt *time.Time
	if req.ExpiresInDays != nil {
		if *req.ExpiresInDays <= 0 {
			return nil, response.NewBadRequest("expires_in_days must be positive")
		}
		t := time.Now().AddDate(0, 0, *req.ExpiresInDays)
		expiresAt = &t
	}

	key := models.ApiKey{
		TenantID:  actor.TenantID,
		Name:      req.Name,
		KeyHash:   hash,
		Prefix:    plaintext[:secure.APIKeyLookupLen],
		Scopes:    strings.Join(scopes, ","),
		IsActive:  true,
		ExpiresAt: expiresAt,
		CreatedBy: actor.ID,
	}
	if err := s.db.Create(&key).Error; err != nil {
		return nil, err
	}
	return &CreatedAPIKey{ApiKey: key, Key: plaintext}, nil
}

// Revoke permanently deactivates a key. Revocation takes effect on the next
// request made with the key.
func (s *APIKeyService) Revoke(tenantID, keyID string) (*models.ApiKey, error) {
	key, err := s.Get(tenantID, keyID)
	if err != nil {
		return nil, err
	}
	if err := s.db.Model(key).Update("is_active", false).Error; err != nil {
		return nil, err
	}
	return key, nil
}

func (s *APIKeyService) Delete(tenantID, keyID string) error {
	key, err := s.Get(tenantID, keyID)
	if err != nil {
		return err
	}
	return s.db.Delete(key).Error
}
