package services

import (
	"strings"
	"testing"
	"time"

	"github.com/konfig-io/konfig/internal/models"
	"github.com/konfig-io/konfig/internal/secure"
)

func TestAPIKeyCreate(t *testing.T) {
	db := setupTestDB(t)
	svc := NewAPIKeyService(db)
	_, owner, _ := seedTenant(t, db, "acme")

	created, err := svc.Create(owner, &CreateAPIKeyRequest{
		Name:   "ci-deploy",
		Scopes: []string{models.ScopeRead, models.ScopeWrite},
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if !strings.HasPrefix(created.Key, secure.APIKeyPrefix) {
		t.Errorf("plaintext key %q missing %q prefix", created.Key, secure.APIKeyPrefix)
	}
	if created.KeyHash == created.Key {
		t.Error("key stored in plaintext")
	}
	if !secure.CheckAPIKey(created.Key, created.KeyHash) {
		t.Error("stored hash does not verify the plaintext key")
	}
	if created.Prefix != created.Key[:secure.APIKeyLookupLen] {
		t.Errorf("Prefix = %q, expected the key's first %d characters", created.Prefix, secure.APIKeyLookupLen)
	}
	if !created.HasScope(models.ScopeWrite) {
		t.Error("created key should carry the write scope")
	}
	if created.HasScope(models.ScopeAdmin) {
		t.Error("created key should not carry the admin scope")
	}
}

func TestAPIKeyCreateDefaults(t *testing.T) {
	db := setupTestDB(t)
	svc := NewAPIKeyService(db)
	_, owner, _ := seedTenant(t, db, "acme")

	created, err := svc.Create(owner, &CreateAPIKeyRequest{Name: "reader"})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if created.Scopes != models.ScopeRead {
		t.Errorf("Scopes = %q, expected read by default", created.Scopes)
	}
	if created.ExpiresAt != nil {
		t.Error("ExpiresAt should be nil when no expiry is requested")
	}
}

func TestAPIKeyCreateValidation(t *testing.T) {
	db := setupTestDB(t)
	svc := NewAPIKeyService(db)
	_, owner, _ := seedTenant(t, db, "acme")

	t.Run("invalid scope", func(t *testing.T) {
		_, err := svc.Create(owner, &CreateAPIKeyRequest{Name: "bad", Scopes: []string{"delete"}})
		assertStatus(t, err, 400)
	})

	t.Run("non-positive expiry", func(t *testing.T) {
		days := 0
		_, err := svc.Create(owner, &CreateAPIKeyRequest{Name: "bad", ExpiresInDays: &days})
		assertStatus(t, err, 400)
	})
}

func TestAPIKeyExpiry(t *testing.T) {
	db := setupTestDB(t)
	svc := NewAPIKeyService(db)
	_, owner, _ := seedTenant(t, db, "acme")

	days := 30
	created, err := svc.Create(owner, &CreateAPIKeyRequest{Name: "temp", ExpiresInDays: &days})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if created.ExpiresAt == nil {
		t.Fatal("ExpiresAt is nil")
	}
	remaining := time.Until(*created.ExpiresAt)
	if remaining < 29*24*time.Hour || remaining > 31*24*time.Hour {
		t.Errorf("expiry %v away, expected about 30 days", remaining)
	}
}

func TestAPIKeyRevoke(t *testing.T) {
	db := setupTestDB(t)
	svc := NewAPIKeyService(db)
	tenant, owner, _ := seedTenant(t, db, "acme")

	created, err := svc.Create(owner, &CreateAPIKeyRequest{Name: "doomed"})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	key, err := svc.Revoke(tenant.ID, created.ID)
	if err != nil {
		t.Fatalf("Revoke() error = %v", err)
	}
	if key.IsActive {
		t.Error("key still active after revoke")
	}

	var stored models.ApiKey
	if err := db.Where("id = ?", created.ID).First(&stored).Error; err != nil {
		t.Fatalf("load key: %v", err)
	}
	if stored.IsActive {
		t.Error("stored key still active after revoke")
	}
}

func TestAPIKeyCrossTenant(t *testing.T) {
	db := setupTestDB(t)
	svc := NewAPIKeyService(db)
	_, owner, _ := seedTenant(t, db, "acme")
	other, _, _ := seedTenant(t, db, "rival")

	created, err := svc.Create(owner, &CreateAPIKeyRequest{Name: "mine"})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	_, err = svc.Get(other.ID, created.ID)
	assertStatus(t, err, 404)

	_, err = svc.Revoke(other.ID, created.ID)
	assertStatus(t, err, 404)
}
