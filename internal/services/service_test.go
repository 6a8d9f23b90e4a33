package services

import (
	"fmt"
	"path/filepath"
	"testing"

	"github.com/konfig-io/konfig/internal/models"
	"github.com/konfig-io/konfig/internal/secure"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// setupTestDB opens a per-test in-memory database with the full schema.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}

	err = db.AutoMigrate(
		&models.Tenant{},
		&models.User{},
		&models.ApiKey{},
		&models.Namespace{},
		&models.Config{},
		&models.ConfigHistory{},
		&models.AuditLog{},
	)
	if err != nil {
		t.Fatalf("migrate test db: %v", err)
	}
	return db
}

func setupTestEncryptor(t *testing.T) *secure.Encryptor {
	t.Helper()
	enc, err := secure.NewEncryptor(secure.EncryptorConfig{
		Key:      "test-encryption-key",
		SaltFile: filepath.Join(t.TempDir(), "test.salt"),
	})
	if err != nil {
		t.Fatalf("init encryptor: %v", err)
	}
	return enc
}

// seedTenant creates a tenant with one active owner and one namespace.
func seedTenant(t *testing.T, db *gorm.DB, name string) (*models.Tenant, *models.User, *models.Namespace) {
	t.Helper()

	tenant := models.Tenant{Name: name, IsActive: true}
	if err := db.Create(&tenant).Error; err != nil {
		t.Fatalf("seed tenant: %v", err)
	}

	hash, err := secure.HashPassword("owner-password")
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	owner := models.User{
		TenantID:     tenant.ID,
		Email:        name + "-owner@example.com",
		PasswordHash: hash,
		FullName:     "Owner",
		Role:         models.RoleOwner,
		IsActive:     true,
	}
	if err := db.Create(&owner).Error; err != nil {
		t.Fatalf("seed owner: %v", err)
	}

	ns := models.Namespace{TenantID: tenant.ID, Name: "production"}
	if err := db.Create(&ns).Error; err != nil {
		t.Fatalf("seed namespace: %v", err)
	}

	return &tenant, &owner, &ns
}

// seedUser adds an active user with the given role to a tenant.
func seedUser(t *testing.T, db *gorm.DB, tenantID, email string, role models.Role) *models.User {
	t.Helper()

	hash, err := secure.HashPassword("user-password")
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	user := models.User{
		TenantID:     tenantID,
		Email:        email,
		PasswordHash: hash,
		Role:         role,
		IsActive:     true,
	}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return &user
}
