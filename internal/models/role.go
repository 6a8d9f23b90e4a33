package models

// Role is a user's role within a tenant. Roles are totally ordered:
// OWNER > ADMIN > MEMBER.
type Role string

const (
	RoleMember Role = "member"
	RoleAdmin  Role = "admin"
	RoleOwner  Role = "owner"
)

// Level returns the role's position in the hierarchy. Unknown roles rank
// below MEMBER so they never pass a role gate.
func (r Role) Level() int {
	switch r {
	case RoleMember:
		return 1
	case RoleAdmin:
		return 2
	case RoleOwner:
		return 3
	default:
		return 0
	}
}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	return r.Level() > 0
}

// Meets reports whether r satisfies the given minimum role.
func (r Role) Meets(min Role) bool {
	return r.Level() >= min.Level()
}
