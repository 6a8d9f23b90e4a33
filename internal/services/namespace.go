package services

import (
	"errors"

	"github.com/konfig-io/konfig/internal/models"
	"github.com/konfig-io/konfig/pkg/response"
	"gorm.io/gorm"
)

// NamespaceService groups configuration entries into named environments
// (dev, staging, prod and the like), unique per tenant.
type NamespaceService struct {
	db *gorm.DB
}

func NewNamespaceService(db *gorm.DB) *NamespaceService {
	return &NamespaceService{db: db}
}

type CreateNamespaceRequest struct {
	Name        string `json:"name" binding:"required,max=100"`
	Description string `json:"description"`
}

type UpdateNamespaceRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
}

func (s *NamespaceService) List(tenantID string) ([]models.Namespace, error) {
	var namespaces []models.Namespace
	err := s.db.Where("tenant_id = ?", tenantID).Order("created_at ASC").Find(&namespaces).Error
	return namespaces, err
}

func (s *NamespaceService) Get(tenantID, namespaceID string) (*models.Namespace, error) {
	var ns models.Namespace
	err := s.db.Where("id = ? AND tenant_id = ?", namespaceID, tenantID).First(&ns).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, response.NewNotFound("namespace not found")
		}
		return nil, err
	}
	return &ns, nil
}

func (s *NamespaceService) Create(tenantID string, req *CreateNamespaceRequest) (*models.Namespace, error) {
	var count int64
	s.db.Model(&models.Namespace{}).
		Where("tenant_id = ? AND name = ?", tenantID, req.Name).Count(&count)
	if count > 0 {
		return nil, response.NewConflict("namespace '" + req.Name + "' already exists")
	}

	ns := models.Namespace{
		TenantID:    tenantID,
		Name:        req.Name,
		Description: req.Description,
	}
	if err := s.db.Create(&ns).Error; err != nil {
		return nil, err
	}
	return &ns, nil
}

func (s *NamespaceService) Update(tenantID, namespaceID string, req *UpdateNamespaceRequest) (*models.Namespace, error) {
	ns, err := s.Get(tenantID, namespaceID)
	if err != nil {
		return nil, err
	}

	updates := map[string]any{}
	if req.Name != nil && *req.Name != ns.Name {
		var count int64
		s.db.Model(&models.Namespace{}).
			Where("tenant_id = ? AND name = ? AND id <> ?", tenantID, *req.Name, ns.ID).Count(&count)
		if count > 0 {
			return nil, response.NewConflict("namespace '" + *req.Name + "' already exists")
		}
		updates["name"] = *req.Name
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}

	if len(updates) == 0 {
		return ns, nil
	}
	if err := s.db.Model(ns).Updates(updates).Error; err != nil {
		return nil, err
	}
	return s.Get(tenantID, namespaceID)
}

// Delete removes a namespace together with its configuration entries and
// their history in one transaction.
func (s *NamespaceService) Delete(tenantID, namespaceID string) error {
	ns, err := s.Get(tenantID, namespaceID)
	if err != nil {
		return err
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		var configIDs []string
		if err := tx.Model(&models.Config{}).
			Where("namespace_id = ?", ns.ID).
			Pluck("id", &configIDs).Error; err != nil {
			return err
		}
		if len(configIDs) > 0 {
			if err := tx.Where("config_id IN ?", configIDs).
				Delete(&models.ConfigHistory{}).Error; err != nil {
				return err
			}
			if err := tx.Where("namespace_id = ?", ns.ID).
				Delete(&models.Config{}).Error; err != nil {
				return err
			}
		}
		return tx.Delete(ns).Error
	})
}
