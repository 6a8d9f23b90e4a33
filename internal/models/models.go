package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/konfig-io/konfig/internal/codec"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Tenant represents an organization. Tenants are the isolation boundary:
// no entity is ever shared across tenants.
type Tenant struct {
	ID        string         `gorm:"primaryKey;size:36" json:"id"`
	Name      string         `gorm:"uniqueIndex;size:255;not null" json:"name"`
	IsActive  bool           `gorm:"default:true;not null" json:"is_active"`
	Settings  datatypes.JSON `gorm:"type:json" json:"settings"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

func (t *Tenant) BeforeCreate(tx *gorm.DB) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	return nil
}

// User belongs to exactly one tenant.
type User struct {
	ID           string    `gorm:"primaryKey;size:36" json:"id"`
	TenantID     string    `gorm:"size:36;index;not null" json:"tenant_id"`
	Email        string    `gorm:"uniqueIndex;size:255;not null" json:"email"`
	PasswordHash string    `gorm:"size:255;not null" json:"-"`
	FullName     string    `gorm:"size:255" json:"full_name"`
	Role         Role      `gorm:"size:20;default:member;not null" json:"role"`
	IsActive     bool      `gorm:"default:true;not null" json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	return nil
}

// ApiKey is a service credential scoped to a tenant. The plaintext secret is
// generated once at creation time and never persisted; only KeyHash and the
// short lookup Prefix are stored.
type ApiKey struct {
	ID         string     `gorm:"primaryKey;size:36" json:"id"`
	TenantID   string     `gorm:"size:36;index;not null" json:"tenant_id"`
	Name       string     `gorm:"size:255;not null" json:"name"`
	KeyHash    string     `gorm:"uniqueIndex;size:255;not null" json:"-"`
	Prefix     string     `gorm:"size:20;index;not null" json:"prefix"`
	Scopes     string     `gorm:"size:255;default:read;not null" json:"scopes"` // comma-separated: read, write, admin
	IsActive   bool       `gorm:"default:true;not null" json:"is_active"`
	LastUsedAt *time.Time `json:"last_used_at"`
	ExpiresAt  *time.Time `json:"expires_at"`
	CreatedBy  string     `gorm:"size:36" json:"created_by"`
	CreatedAt  time.Time  `json:"created_at"`
}

func (k *ApiKey) BeforeCreate(tx *gorm.DB) error {
	if k.ID == "" {
		k.ID = uuid.NewString()
	}
	return nil
}

// API key capability scopes.
const (
	ScopeRead  = "read"
	ScopeWrite = "write"
	ScopeAdmin = "admin"
)

// HasScope reports whether the key carries the given capability string.
// The admin scope implies read and write.
func (k *ApiKey) HasScope(scope string) bool {
	for _, s := range strings.Split(k.Scopes, ",") {
		s = strings.TrimSpace(s)
		if s == scope || s == ScopeAdmin {
			return true
		}
	}
	return false
}

// Namespace groups configuration entries within a tenant. Names are unique
// per tenant.
type Namespace struct {
	ID          string    `gorm:"primaryKey;size:36" json:"id"`
	TenantID    string    `gorm:"size:36;not null;uniqueIndex:uq_tenant_namespace" json:"tenant_id"`
	Name        string    `gorm:"size:255;not null;uniqueIndex:uq_tenant_namespace" json:"name"`
	Description string    `gorm:"type:text" json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (n *Namespace) BeforeCreate(tx *gorm.DB) error {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	return nil
}

// Config is a single versioned configuration entry. Value holds the
// ciphertext of the canonical serialized form; plaintext never reaches the
// database. Keys are unique per namespace.
type Config struct {
	ID               string          `gorm:"primaryKey;size:36" json:"id"`
	NamespaceID      string          `gorm:"size:36;not null;uniqueIndex:uq_namespace_config_key" json:"namespace_id"`
	Key              string          `gorm:"size:255;not null;uniqueIndex:uq_namespace_config_key" json:"key"`
	Value            string          `gorm:"type:text;not null" json:"-"`
	ValueType        codec.ValueType `gorm:"size:20;default:string;not null" json:"value_type"`
	ValidationSchema datatypes.JSON  `gorm:"type:json" json:"validation_schema,omitempty"`
	Description      string          `gorm:"type:text" json:"description"`
	IsSecret         bool            `gorm:"default:false;not null" json:"is_secret"`
	Version          int             `gorm:"default:1;not null" json:"version"`
	CreatedBy        string          `gorm:"size:36" json:"created_by"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

func (c *Config) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return nil
}

// History change types.
const (
	ChangeCreate = "create"
	ChangeUpdate = "update"
	ChangeDelete = "delete"
)

// ConfigHistory is an immutable record of one config mutation. Rows are only
// ever inserted; a delete tombstone outlives its config entry and is removed
// only when the parent namespace is destroyed.
type ConfigHistory struct {
	ID         string    `gorm:"primaryKey;size:36" json:"id"`
	ConfigID   string    `gorm:"size:36;index;not null" json:"config_id"`
	Value      string    `gorm:"type:text;not null" json:"-"`
	Version    int       `gorm:"not null" json:"version"`
	ChangeType string    `gorm:"size:20;not null" json:"change_type"`
	ChangedBy  string    `gorm:"size:36" json:"changed_by"`
	ChangedAt  time.Time `gorm:"autoCreateTime" json:"changed_at"`
}

func (h *ConfigHistory) BeforeCreate(tx *gorm.DB) error {
	if h.ID == "" {
		h.ID = uuid.NewString()
	}
	return nil
}

// AuditLog records one API-level mutation for operational review.
type AuditLog struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	TenantID  string    `gorm:"size:36;index" json:"tenant_id"`
	ActorID   string    `gorm:"size:36" json:"actor_id"`
	Module    string    `gorm:"size:100;index" json:"module"`
	Action    string    `gorm:"size:200;index" json:"action"`
	Message   string    `gorm:"type:text" json:"message"`
	IP        string    `gorm:"size:50" json:"ip"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
}

func (l *AuditLog) BeforeCreate(tx *gorm.DB) error {
	if l.ID == "" {
		l.ID = uuid.NewString()
	}
	return nil
}

// TableName overrides
func (Tenant) TableName() string        { return "tenants" }
func (User) TableName() string          { return "users" }
func (ApiKey) TableName() string        { return "api_keys" }
func (Namespace) TableName() string     { return "namespaces" }
func (Config) TableName() string        { return "configs" }
func (ConfigHistory) TableName() string { return "config_history" }
func (AuditLog) TableName() string      { return "audit_logs" }
