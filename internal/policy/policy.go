// Package policy holds the authorization table for user operations.
//
// Access is decided in two steps. The route layer asks RoleAllowed for the
// coarse role check; operations on a single record then call Check with the
// target id, which enforces the self-or-admin rule.
package policy

import (
	"errors"
	"slices"

	"github.com/arzan03/usermanager/internal/models"
)

type Operation string

const (
	ListUsers            Operation = "users:list"
	GetUser              Operation = "users:get"
	CreateUser           Operation = "users:create"
	UpdateUser           Operation = "users:update"
	UpdateProfilePicture Operation = "users:update-picture"
	DeleteUser           Operation = "users:delete"
	AssignRole           Operation = "users:assign-role"
)

// Scope narrows what a permitted role may touch.
type Scope int

const (
	// ScopeAny allows any record.
	ScopeAny Scope = iota
	// ScopeSelf allows non-admins only their own record.
	ScopeSelf
)

type Rule struct {
	Roles []models.Role
	Scope Scope
}

var ErrForbidden = errors.New("forbidden")

var rules = map[Operation]Rule{
	ListUsers:            {Roles: []models.Role{models.RoleAdmin}, Scope: ScopeAny},
	GetUser:              {Roles: []models.Role{models.RoleAdmin, models.RoleUser}, Scope: ScopeSelf},
	CreateUser:           {Roles: []models.Role{models.RoleAdmin}, Scope: ScopeAny},
	UpdateUser:           {Roles: []models.Role{models.RoleAdmin, models.RoleUser}, Scope: ScopeSelf},
	UpdateProfilePicture: {Roles: []models.Role{models.RoleAdmin, models.RoleUser}, Scope: ScopeSelf},
	DeleteUser:           {Roles: []models.Role{models.RoleAdmin}, Scope: ScopeAny},
	AssignRole:           {Roles: []models.Role{models.RoleAdmin}, Scope: ScopeAny},
}

// RuleFor returns the rule registered for op.
func RuleFor(op Operation) (Rule, bool) {
	r, ok := rules[op]
	return r, ok
}

// RoleAllowed reports whether role may perform op at all. Unknown operations are denied.
func RoleAllowed(op Operation, role models.Role) bool {
	r, ok := rules[op]
	return ok && slices.Contains(r.Roles, role)
}

// Check decides whether who may perform op on the record targetID.
// Admins bypass the ownership check.
func Check(op Operation, who models.Identity, targetID string) error {
	r, ok := rules[op]
	if !ok || !slices.Contains(r.Roles, who.Role) {
		return ErrForbidden
	}
	if who.Role == models.RoleAdmin || r.Scope == ScopeAny {
		return nil
	}
	if who.ID != targetID {
		return ErrForbidden
	}
	return nil
}
