package services

import (
	"encoding/json"
	"errors"

	"github.com/konfig-io/konfig/internal/models"
	"github.com/konfig-io/konfig/pkg/response"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// TenantService exposes the current tenant's profile and free-form settings.
type TenantService struct {
	db *gorm.DB
}

func NewTenantService(db *gorm.DB) *TenantService {
	return &TenantService{db: db}
}

type UpdateTenantRequest struct {
	Name     *string        `json:"name"`
	Settings map[string]any `json:"settings"`
}

func (s *TenantService) Get(tenantID string) (*models.Tenant, error) {
	var tenant models.Tenant
	err := s.db.Where("id = ?", tenantID).First(&tenant).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, response.NewNotFound("tenant not found")
		}
		return nil, err
	}
	return &tenant, nil
}

func (s *TenantService) Update(tenantID string, req *UpdateTenantRequest) (*models.Tenant, error) {
	tenant, err := s.Get(tenantID)
	if err != nil {
		return nil, err
	}

	updates := map[string]any{}
	if req.Name != nil && *req.Name != tenant.Name {
		var count int64
		s.db.Model(&models.Tenant{}).
			Where("name = ? AND id <> ?", *req.Name, tenant.ID).Count(&count)
		if count > 0 {
			return nil, response.NewConflict("tenant name already taken")
		}
		updates["name"] = *req.Name
	}
	if req.Settings != nil {
		raw, err := json.Marshal(req.Settings)
		if err != nil {
			return nil, response.NewBadRequest("settings must be a JSON object")
		}
		updates["settings"] = datatypes.JSON(raw)
	}

	if len(updates) == 0 {
		return tenant, nil
	}
	if err := s.db.Model(tenant).Updates(updates).Error; err != nil {
		return nil, err
	}
	return s.Get(tenantID)
}
