package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/konfig-io/konfig/internal/codec"
	"github.com/konfig-io/konfig/internal/models"
	"github.com/konfig-io/konfig/internal/secure"
	"github.com/konfig-io/konfig/pkg/response"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// configKeyPattern restricts keys to an identifier-like character set.
var configKeyPattern = regexp.MustCompile(`^[A-Za-z0-9_.-]{1,255}$`)

// ConfigService owns the configuration entry lifecycle: versioning, history
// and encryption at rest. Values cross the service boundary as plaintext and
// are stored only as ciphertext of their canonical serialized form.
type ConfigService struct {
	db  *gorm.DB
	enc *secure.Encryptor
}

func NewConfigService(db *gorm.DB, enc *secure.Encryptor) *ConfigService {
	return &ConfigService{db: db, enc: enc}
}

type CreateConfigRequest struct {
	Key              string            `json:"key" binding:"required"`
	Value            any               `json:"value" binding:"required"`
	ValueType        codec.ValueType   `json:"value_type"`
	ValidationSchema *ValidationSchema `json:"validation_schema"`
	Description      string            `json:"description"`
	IsSecret         bool              `json:"is_secret"`
}

type UpdateConfigRequest struct {
	Value            any               `json:"value"`
	ValueType        *codec.ValueType  `json:"value_type"`
	ValidationSchema *ValidationSchema `json:"validation_schema"`
	Description      *string           `json:"description"`
	IsSecret         *bool             `json:"is_secret"`
}

// ConfigEntry is a config row as returned to callers: value decrypted and
// deserialized to its declared type.
type ConfigEntry struct {
	ID               string          `json:"id"`
	NamespaceID      string          `json:"namespace_id"`
	Key              string          `json:"key"`
	Value            any             `json:"value"`
	ValueType        codec.ValueType `json:"value_type"`
	ValidationSchema datatypes.JSON  `json:"validation_schema,omitempty"`
	Description      string          `json:"description"`
	IsSecret         bool            `json:"is_secret"`
	Version          int             `json:"version"`
	CreatedBy        string          `json:"created_by"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

// HistoryEntry is one decrypted history record.
type HistoryEntry struct {
	ID         string    `json:"id"`
	ConfigID   string    `json:"config_id"`
	Value      any       `json:"value"`
	Version    int       `json:"version"`
	ChangeType string    `json:"change_type"`
	ChangedBy  string    `json:"changed_by"`
	ChangedAt  time.Time `json:"changed_at"`
}

// namespaceForTenant scopes a namespace lookup to the caller's tenant.
// A namespace belonging to another tenant is indistinguishable from one that
// does not exist.
func (s *ConfigService) namespaceForTenant(tenantID, namespaceID string) (*models.Namespace, error) {
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

// Create stores a new entry at version 1 and appends its create history
// record in the same transaction.
func (s *ConfigService) Create(tenantID, namespaceID string, req *CreateConfigRequest, actorID string) (*ConfigEntry, error) {
	if _, err := s.namespaceForTenant(tenantID, namespaceID); err != nil {
		return nil, err
	}

	if !configKeyPattern.MatchString(req.Key) {
		return nil, response.NewBadRequest("config key must match [A-Za-z0-9_.-]{1,255}")
	}

	valueType := req.ValueType
	if valueType == "" {
		valueType = codec.TypeString
	}
	if !valueType.Valid() {
		return nil, response.NewBadRequest("invalid value type: " + string(valueType))
	}

	serialized, err := codec.Serialize(req.Value, valueType)
	if err != nil {
		return nil, response.NewBadRequest(err.Error())
	}
	if err := validateValue(serialized, valueType, req.ValidationSchema); err != nil {
		return nil, err
	}

	ciphertext, err := s.enc.Encrypt(serialized)
	if err != nil {
		return nil, err
	}

	schemaJSON, err := marshalSchema(req.ValidationSchema)
	if err != nil {
		return nil, err
	}

	cfg := models.Config{
		NamespaceID:      namespaceID,
		Key:              req.Key,
		Value:            ciphertext,
		ValueType:        valueType,
		ValidationSchema: schemaJSON,
		Description:      req.Description,
		IsSecret:         req.IsSecret,
		Version:          1,
		CreatedBy:        actorID,
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		var count int64
		tx.Model(&models.Config{}).
			Where("namespace_id = ? AND key = ?", namespaceID, req.Key).
			Count(&count)
		if count > 0 {
			return response.NewConflict("configuration with this key already exists")
		}

		if err := tx.Create(&cfg).Error; err != nil {
			return err
		}
		return tx.Create(&models.ConfigHistory{
			ConfigID:   cfg.ID,
			Value:      ciphertext,
			Version:    1,
			ChangeType: models.ChangeCreate,
			ChangedBy:  actorID,
		}).Error
	})
	if err != nil {
		return nil, err
	}

	return s.toEntry(&cfg)
}

// Get returns a single decrypted entry.
func (s *ConfigService) Get(tenantID, namespaceID, key string) (*ConfigEntry, error) {
	cfg, err := s.find(tenantID, namespaceID, key)
	if err != nil {
		return nil, err
	}
	return s.toEntry(cfg)
}

// List returns all entries of a namespace in creation order.
func (s *ConfigService) List(tenantID, namespaceID string) ([]*ConfigEntry, error) {
	if _, err := s.namespaceForTenant(tenantID, namespaceID); err != nil {
		return nil, err
	}

	var configs []models.Config
	if err := s.db.Where("namespace_id = ?", namespaceID).
		Order("created_at ASC").Find(&configs).Error; err != nil {
		return nil, err
	}

	entries := make([]*ConfigEntry, 0, len(configs))
	for i := range configs {
		entry, err := s.toEntry(&configs[i])
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// Update applies a partial update. A change to the value or the value type
// bumps the version by exactly one and appends an update history record;
// edits to description, schema or the secret flag alone do neither.
//
// The version bump is a conditional update on the version that was read: a
// concurrent writer that got there first makes the condition fail, and the
// losing update is rejected with a conflict instead of silently overwriting
// history.
func (s *ConfigService) Update(tenantID, namespaceID, key string, req *UpdateConfigRequest, actorID string) (*ConfigEntry, error) {
	cfg, err := s.find(tenantID, namespaceID, key)
	if err != nil {
		return nil, err
	}

	valueType := cfg.ValueType
	if req.ValueType != nil {
		if !req.ValueType.Valid() {
			return nil, response.NewBadRequest("invalid value type: " + string(*req.ValueType))
		}
		valueType = *req.ValueType
	}
	valueChanged := req.Value != nil || valueType != cfg.ValueType

	updates := map[string]any{}
	newCiphertext := cfg.Value

	schema, err := s.effectiveSchema(cfg, req)
	if err != nil {
		return nil, err
	}

	if req.Value != nil {
		serialized, err := codec.Serialize(req.Value, valueType)
		if err != nil {
			return nil, response.NewBadRequest(err.Error())
		}
		if err := validateValue(serialized, valueType, schema); err != nil {
			return nil, err
		}
		newCiphertext, err = s.enc.Encrypt(serialized)
		if err != nil {
			return nil, err
		}
		updates["value"] = newCiphertext
	}
	if req.ValueType != nil {
		updates["value_type"] = valueType
	}
	if req.ValidationSchema != nil {
		schemaJSON, err := marshalSchema(req.ValidationSchema)
		if err != nil {
			return nil, err
		}
		updates["validation_schema"] = schemaJSON
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if req.IsSecret != nil {
		updates["is_secret"] = *req.IsSecret
	}

	if len(updates) == 0 {
		return s.toEntry(cfg)
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if !valueChanged {
			return tx.Model(&models.Config{}).
				Where("id = ?", cfg.ID).
				Updates(updates).Error
		}

		newVersion := cfg.Version + 1
		updates["version"] = newVersion

		res := tx.Model(&models.Config{}).
			Where("id = ? AND version = ?", cfg.ID, cfg.Version).
			Updates(updates)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return response.NewConflict("configuration was modified concurrently, retry")
		}

		return tx.Create(&models.ConfigHistory{
			ConfigID:   cfg.ID,
			Value:      newCiphertext,
			Version:    newVersion,
			ChangeType: models.ChangeUpdate,
			ChangedBy:  actorID,
		}).Error
	})
	if err != nil {
		return nil, err
	}

	updated, err := s.find(tenantID, namespaceID, key)
	if err != nil {
		return nil, err
	}
	return s.toEntry(updated)
}

// Delete removes an entry, first appending a delete tombstone carrying the
// last ciphertext and version. The tombstone survives the row.
func (s *ConfigService) Delete(tenantID, namespaceID, key string, actorID string) error {
	cfg, err := s.find(tenantID, namespaceID, key)
	if err != nil {
		return err
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&models.ConfigHistory{
			ConfigID:   cfg.ID,
			Value:      cfg.Value,
			Version:    cfg.Version,
			ChangeType: models.ChangeDelete,
			ChangedBy:  actorID,
		}).Error; err != nil {
			return err
		}

		res := tx.Where("id = ? AND version = ?", cfg.ID, cfg.Version).Delete(&models.Config{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return response.NewConflict("configuration was modified concurrently, retry")
		}
		return nil
	})
}

// History returns all mutation records for an entry, newest version first.
func (s *ConfigService) History(tenantID, namespaceID, key string) ([]*HistoryEntry, error) {
	cfg, err := s.find(tenantID, namespaceID, key)
	if err != nil {
		return nil, err
	}

	var records []models.ConfigHistory
	if err := s.db.Where("config_id = ?", cfg.ID).
		Order("version DESC").Find(&records).Error; err != nil {
		return nil, err
	}

	entries := make([]*HistoryEntry, 0, len(records))
	for i := range records {
		rec := &records[i]
		plaintext, err := s.enc.Decrypt(rec.Value)
		if err != nil {
			return nil, s.decryptError(err)
		}
		entries = append(entries, &HistoryEntry{
			ID:         rec.ID,
			ConfigID:   rec.ConfigID,
			Value:      codec.Deserialize(plaintext, cfg.ValueType),
			Version:    rec.Version,
			ChangeType: rec.ChangeType,
			ChangedBy:  rec.ChangedBy,
			ChangedAt:  rec.ChangedAt,
		})
	}
	return entries, nil
}

func (s *ConfigService) find(tenantID, namespaceID, key string) (*models.Config, error) {
	if _, err := s.namespaceForTenant(tenantID, namespaceID); err != nil {
		return nil, err
	}

	var cfg models.Config
	err := s.db.Where("namespace_id = ? AND key = ?", namespaceID, key).First(&cfg).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, response.NewNotFound("configuration not found")
		}
		return nil, err
	}
	return &cfg, nil
}

func (s *ConfigService) toEntry(cfg *models.Config) (*ConfigEntry, error) {
	plaintext, err := s.enc.Decrypt(cfg.Value)
	if err != nil {
		return nil, s.decryptError(err)
	}
	return &ConfigEntry{
		ID:               cfg.ID,
		NamespaceID:      cfg.NamespaceID,
		Key:              cfg.Key,
		Value:            codec.Deserialize(plaintext, cfg.ValueType),
		ValueType:        cfg.ValueType,
		ValidationSchema: cfg.ValidationSchema,
		Description:      cfg.Description,
		IsSecret:         cfg.IsSecret,
		Version:          cfg.Version,
		CreatedBy:        cfg.CreatedBy,
		CreatedAt:        cfg.CreatedAt,
		UpdatedAt:        cfg.UpdatedAt,
	}, nil
}

// decryptError surfaces a decryption failure as a server error instead of
// degrading the value to an empty string. Corruption and tampering are meant
// to be observable.
func (s *ConfigService) decryptError(err error) error {
	if errors.Is(err, secure.ErrDecrypt) {
		return response.NewServerError("stored configuration value cannot be decrypted")
	}
	return err
}

// effectiveSchema is the schema an updated value is validated against: the
// one supplied in the update, falling back to the stored one.
func (s *ConfigService) effectiveSchema(cfg *models.Config, req *UpdateConfigRequest) (*ValidationSchema, error) {
	if req.ValidationSchema != nil {
		return req.ValidationSchema, nil
	}
	if len(cfg.ValidationSchema) == 0 {
		return nil, nil
	}
	var schema ValidationSchema
	if err := json.Unmarshal(cfg.ValidationSchema, &schema); err != nil {
		return nil, fmt.Errorf("stored validation schema is corrupt: %w", err)
	}
	return &schema, nil
}

func marshalSchema(schema *ValidationSchema) (datatypes.JSON, error) {
	if schema == nil {
		return nil, nil
	}
	b, err := json.Marshal(schema)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(b), nil
}
