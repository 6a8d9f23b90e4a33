package services

import (
	"errors"

	"github.com/konfig-io/konfig/internal/models"
	"github.com/konfig-io/konfig/internal/secure"
	"github.com/konfig-io/konfig/pkg/response"
	"gorm.io/gorm"
)

// UserService manages users within a tenant and enforces the ownership
// invariants: role changes and activation toggles are owner-only, a user can
// never deactivate or delete themselves, and a tenant always keeps at least
// one active owner.
type UserService struct {
	db *gorm.DB
}

func NewUserService(db *gorm.DB) *UserService {
	return &UserService{db: db}
}

type CreateUserRequest struct {
	Email    string      `json:"email" binding:"required,email"`
	Password string      `json:"password" binding:"required,min=8"`
	FullName string      `json:"full_name"`
	Role     models.Role `json:"role"`
}

type UpdateUserRequest struct {
	Email    *string      `json:"email"`
	Password *string      `json:"password"`
	FullName *string      `json:"full_name"`
	Role     *models.Role `json:"role"`
	IsActive *bool        `json:"is_active"`
}

// List returns all users of the actor's tenant in creation order.
func (s *UserService) List(tenantID string) ([]models.User, error) {
	var users []models.User
	err := s.db.Where("tenant_id = ?", tenantID).Order("created_at ASC").Find(&users).Error
	return users, err
}

// Get returns one user of the actor's tenant. Users of other tenants do not
// exist as far as the caller can tell.
func (s *UserService) Get(tenantID, userID string) (*models.User, error) {
	var user models.User
	err := s.db.Where("id = ? AND tenant_id = ?", userID, tenantID).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, response.NewNotFound("user not found")
		}
		return nil, err
	}
	return &user, nil
}

// Create adds a user to the actor's tenant. Assigning the owner role
// requires the actor to be an owner.
func (s *UserService) Create(actor *models.User, req *CreateUserRequest) (*models.User, error) {
	role := req.Role
	if role == "" {
		role = models.RoleMember
	}
	if !role.Valid() {
		return nil, response.NewBadRequest("invalid role: " + string(req.Role))
	}
	if role == models.RoleOwner && actor.Role != models.RoleOwner {
		return nil, response.NewForbidden("only owners can create other owners")
	}

	var count int64
	s.db.Model(&models.User{}).Where("email = ?", req.Email).Count(&count)
	if count > 0 {
		return nil, response.NewConflict("email already registered")
	}

	hash, err := secure.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	user := models.User{
		TenantID:     actor.TenantID,
		Email:        req.Email,
		PasswordHash: hash,
		FullName:     req.FullName,
		Role:         role,
		IsActive:     true,
	}
	if err := s.db.Create(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// Update applies a partial update under the authorization policy:
//   - anyone may change their own name and password
//   - admins may also update other users' profile fields
//   - role and active-flag changes are owner-only
//   - nobody deactivates themselves, and the last active owner can be
//     neither demoted nor deactivated
func (s *UserService) Update(actor *models.User, userID string, req *UpdateUserRequest) (*models.User, error) {
	user, err := s.Get(actor.TenantID, userID)
	if err != nil {
		return nil, err
	}

	isSelf := actor.ID == user.ID
	isAdmin := actor.Role.Meets(models.RoleAdmin)
	isOwner := actor.Role == models.RoleOwner

	if !isSelf && !isAdmin {
		return nil, response.NewForbidden("insufficient permissions to update this user")
	}
	if isSelf && !isAdmin && (req.Role != nil || req.IsActive != nil) {
		return nil, response.NewForbidden("you can only update your own name and password")
	}
	if req.Role != nil && !isOwner {
		return nil, response.NewForbidden("only owners can change user roles")
	}
	if req.IsActive != nil && !isOwner {
		return nil, response.NewForbidden("only owners can activate or deactivate users")
	}
	if isSelf && req.IsActive != nil && !*req.IsActive {
		return nil, response.NewBadRequest("you cannot deactivate yourself")
	}

	if req.Role != nil && !req.Role.Valid() {
		return nil, response.NewBadRequest("invalid role: " + string(*req.Role))
	}

	// Demotion or deactivation must not leave the tenant without an
	// active owner.
	losesOwner := user.Role == models.RoleOwner && user.IsActive &&
		((req.Role != nil && *req.Role != models.RoleOwner) ||
			(req.IsActive != nil && !*req.IsActive))
	if losesOwner {
		count, err := s.activeOwnerCount(actor.TenantID)
		if err != nil {
			return nil, err
		}
		if count <= 1 {
			return nil, response.NewBadRequest("cannot remove the last active owner")
		}
	}

	updates := map[string]any{}
	if req.Email != nil {
		var count int64
		s.db.Model(&models.User{}).
			Where("email = ? AND id <> ?", *req.Email, user.ID).Count(&count)
		if count > 0 {
			return nil, response.NewConflict("email already registered")
		}
		updates["email"] = *req.Email
	}
	if req.Password != nil {
		hash, err := secure.HashPassword(*req.Password)
		if err != nil {
			return nil, err
		}
		updates["password_hash"] = hash
	}
	if req.FullName != nil {
		updates["full_name"] = *req.FullName
	}
	if req.Role != nil {
		updates["role"] = *req.Role
	}
	if req.IsActive != nil {
		updates["is_active"] = *req.IsActive
	}

	if len(updates) == 0 {
		return user, nil
	}
	if err := s.db.Model(user).Updates(updates).Error; err != nil {
		return nil, err
	}
	return s.Get(actor.TenantID, userID)
}

// Delete removes a user. Owner-only at the route level; a user can never
// delete themselves, and the last active owner cannot be deleted.
func (s *UserService) Delete(actor *models.User, userID string) error {
	if actor.ID == userID {
		return response.NewBadRequest("you cannot delete yourself")
	}

	user, err := s.Get(actor.TenantID, userID)
	if err != nil {
		return err
	}

	if user.Role == models.RoleOwner && user.IsActive {
		count, err := s.activeOwnerCount(actor.TenantID)
		if err != nil {
			return err
		}
		if count <= 1 {
			return response.NewBadRequest("cannot delete the last owner, promote another user first")
		}
	}

	return s.db.Delete(user).Error
}

func (s *UserService) activeOwnerCount(tenantID string) (int64, error) {
	var count int64
	err := s.db.Model(&models.User{}).
		Where("tenant_id = ? AND role = ? AND is_active = ?", tenantID, models.RoleOwner, true).
		Count(&count).Error
	return count, err
}
