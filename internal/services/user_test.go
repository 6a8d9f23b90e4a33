package services

import (
	"testing"

	"github.com/konfig-io/konfig/internal/models"
)

func TestUserCreate(t *testing.T) {
	db := setupTestDB(t)
	svc := NewUserService(db)
	_, owner, _ := seedTenant(t, db, "acme")
	admin := seedUser(t, db, owner.TenantID, "admin@acme.test", models.RoleAdmin)

	t.Run("default role is member", func(t *testing.T) {
		user, err := svc.Create(owner, &CreateUserRequest{
			Email: "member@acme.test", Password: "member-password",
		})
		if err != nil {
			t.Fatalf("Create() error = %v", err)
		}
		if user.Role != models.RoleMember {
			t.Errorf("Role = %q, expected member", user.Role)
		}
		if user.TenantID != owner.TenantID {
			t.Errorf("TenantID = %q, expected the actor's tenant", user.TenantID)
		}
	})

	t.Run("admin cannot create owner", func(t *testing.T) {
		_, err := svc.Create(admin, &CreateUserRequest{
			Email: "sneaky@acme.test", Password: "some-password", Role: models.RoleOwner,
		})
		assertStatus(t, err, 403)
	})

	t.Run("owner can create owner", func(t *testing.T) {
		user, err := svc.Create(owner, &CreateUserRequest{
			Email: "cofounder@acme.test", Password: "some-password", Role: models.RoleOwner,
		})
		if err != nil {
			t.Fatalf("Create() error = %v", err)
		}
		if user.Role != models.RoleOwner {
			t.Errorf("Role = %q, expected owner", user.Role)
		}
	})

	t.Run("duplicate email", func(t *testing.T) {
		_, err := svc.Create(owner, &CreateUserRequest{
			Email: "member@acme.test", Password: "another-password",
		})
		assertStatus(t, err, 409)
	})

	t.Run("invalid role", func(t *testing.T) {
		_, err := svc.Create(owner, &CreateUserRequest{
			Email: "x@acme.test", Password: "some-password", Role: models.Role("superuser"),
		})
		assertStatus(t, err, 400)
	})
}

func TestUserUpdatePolicy(t *testing.T) {
	db := setupTestDB(t)
	svc := NewUserService(db)
	_, owner, _ := seedTenant(t, db, "acme")
	admin := seedUser(t, db, owner.TenantID, "admin@acme.test", models.RoleAdmin)
	member := seedUser(t, db, owner.TenantID, "member@acme.test", models.RoleMember)

	t.Run("member updates own name", func(t *testing.T) {
		name := "New Name"
		user, err := svc.Update(member, member.ID, &UpdateUserRequest{FullName: &name})
		if err != nil {
			t.Fatalf("Update() error = %v", err)
		}
		if user.FullName != "New Name" {
			t.Errorf("FullName = %q, expected New Name", user.FullName)
		}
	})

	t.Run("member cannot update others", func(t *testing.T) {
		name := "Hijacked"
		_, err := svc.Update(member, admin.ID, &UpdateUserRequest{FullName: &name})
		assertStatus(t, err, 403)
	})

	t.Run("admin cannot change roles", func(t *testing.T) {
		role := models.RoleAdmin
		_, err := svc.Update(admin, member.ID, &UpdateUserRequest{Role: &role})
		assertStatus(t, err, 403)
	})

	t.Run("owner promotes member", func(t *testing.T) {
		role := models.RoleAdmin
		user, err := svc.Update(owner, member.ID, &UpdateUserRequest{Role: &role})
		if err != nil {
			t.Fatalf("Update() error = %v", err)
		}
		if user.Role != models.RoleAdmin {
			t.Errorf("Role = %q, expected admin", user.Role)
		}
	})

	t.Run("owner cannot deactivate self", func(t *testing.T) {
		inactive := false
		_, err := svc.Update(owner, owner.ID, &UpdateUserRequest{IsActive: &inactive})
		assertStatus(t, err, 400)
	})

	t.Run("last owner cannot be demoted", func(t *testing.T) {
		role := models.RoleMember
		_, err := svc.Update(owner, owner.ID, &UpdateUserRequest{Role: &role})
		assertStatus(t, err, 400)
	})

	t.Run("owner demotion allowed with a second owner", func(t *testing.T) {
		second := seedUser(t, db, owner.TenantID, "second-owner@acme.test", models.RoleOwner)
		role := models.RoleMember
		user, err := svc.Update(owner, second.ID, &UpdateUserRequest{Role: &role})
		if err != nil {
			t.Fatalf("Update() error = %v", err)
		}
		if user.Role != models.RoleMember {
			t.Errorf("Role = %q, expected member", user.Role)
		}
	})

	t.Run("email conflict", func(t *testing.T) {
		email := "admin@acme.test"
		_, err := svc.Update(member, member.ID, &UpdateUserRequest{Email: &email})
		assertStatus(t, err, 409)
	})
}

func TestUserDelete(t *testing.T) {
	db := setupTestDB(t)
	svc := NewUserService(db)
	_, owner, _ := seedTenant(t, db, "acme")
	member := seedUser(t, db, owner.TenantID, "member@acme.test", models.RoleMember)

	t.Run("cannot delete self", func(t *testing.T) {
		err := svc.Delete(owner, owner.ID)
		assertStatus(t, err, 400)
	})

	t.Run("cannot delete last owner", func(t *testing.T) {
		admin := seedUser(t, db, owner.TenantID, "admin@acme.test", models.RoleAdmin)
		admin.Role = models.RoleOwner // pretend a second owner-level actor; still only one stored owner
		err := svc.Delete(admin, owner.ID)
		assertStatus(t, err, 400)
	})

	t.Run("delete member", func(t *testing.T) {
		if err := svc.Delete(owner, member.ID); err != nil {
			t.Fatalf("Delete() error = %v", err)
		}
		_, err := svc.Get(owner.TenantID, member.ID)
		assertStatus(t, err, 404)
	})

	t.Run("cross tenant is not found", func(t *testing.T) {
		_, otherOwner, _ := seedTenant(t, db, "rival")
		err := svc.Delete(otherOwner, owner.ID)
		assertStatus(t, err, 404)
	})
}
