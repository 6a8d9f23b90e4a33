package models

import "testing"

func TestRoleLevel(t *testing.T) {
	tests := []struct {
		role  Role
		level int
	}{
		{RoleMember, 1},
		{RoleAdmin, 2},
		{RoleOwner, 3},
		{Role("unknown"), 0},
		{Role(""), 0},
	}

	for _, tt := range tests {
		if got := tt.role.Level(); got != tt.level {
			t.Errorf("Level(%q) = %d, expected %d", tt.role, got, tt.level)
		}
	}
}

func TestRoleMeets(t *testing.T) {
	tests := []struct {
		name string
		role Role
		min  Role
		want bool
	}{
		{name: "owner meets admin", role: RoleOwner, min: RoleAdmin, want: true},
		{name: "owner meets owner", role: RoleOwner, min: RoleOwner, want: true},
		{name: "admin meets admin", role: RoleAdmin, min: RoleAdmin, want: true},
		{name: "admin does not meet owner", role: RoleAdmin, min: RoleOwner, want: false},
		{name: "member does not meet admin", role: RoleMember, min: RoleAdmin, want: false},
		{name: "member meets member", role: RoleMember, min: RoleMember, want: true},
		{name: "unknown meets nothing", role: Role("bogus"), min: RoleMember, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.role.Meets(tt.min); got != tt.want {
				t.Errorf("Meets() = %v, expected %v", got, tt.want)
			}
		})
	}
}

func TestRoleValid(t *testing.T) {
	for _, r := range []Role{RoleMember, RoleAdmin, RoleOwner} {
		if !r.Valid() {
			t.Errorf("%q should be valid", r)
		}
	}
	if Role("superuser").Valid() {
		t.Error("superuser should not be valid")
	}
	if Role("").Valid() {
		t.Error("empty role should not be valid")
	}
}

func TestApiKeyHasScope(t *testing.T) {
	tests := []struct {
		name   string
		scopes string
		scope  string
		want   bool
	}{
		{name: "direct match", scopes: "read,write", scope: ScopeRead, want: true},
		{name: "missing scope", scopes: "read", scope: ScopeWrite, want: false},
		{name: "admin implies read", scopes: "admin", scope: ScopeRead, want: true},
		{name: "admin implies write", scopes: "admin", scope: ScopeWrite, want: true},
		{name: "empty scopes", scopes: "", scope: ScopeRead, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key := ApiKey{Scopes: tt.scopes}
			if got := key.HasScope(tt.scope); got != tt.want {
				t.Errorf("HasScope(%q) = %v, expected %v", tt.scope, got, tt.want)
			}
		})
	}
}
