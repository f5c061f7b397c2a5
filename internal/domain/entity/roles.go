package entity

import "time"

// Role is an organizational capability tag
type Role string

const (
	RoleHead        Role = "head"
	RoleAdmin       Role = "admin"
	RoleComptroller Role = "comptroller"
	RoleHR          Role = "hr"
	RoleVP          Role = "vp"
	RolePresident   Role = "president"
	RoleExecutive   Role = "executive"
)

// String returns the string representation of the role
func (r Role) String() string {
	return string(r)
}

// RoleAssignment resolves "who currently holds role X for scope Y".
// Read-mostly reference data; mutated by the administration surface,
// never by the workflow engine.
type RoleAssignment struct {
	ID           int64      `json:"id"`
	UserID       string     `json:"user_id"`
	Role         Role       `json:"role"`
	DepartmentID string     `json:"department_id,omitempty"` // empty = organization-wide
	Active       bool       `json:"active"`
	AssignedAt   time.Time  `json:"assigned_at"`
	RevokedAt    *time.Time `json:"revoked_at,omitempty"`
}

// RoleGrant is one capability held by an actor, with its scope
type RoleGrant struct {
	Role         Role   `json:"role"`
	DepartmentID string `json:"department_id,omitempty"`
}

// RoleSet is the set of capabilities an actor currently holds.
// An empty set means the actor is not authorized for any privileged
// transition; it is never an error.
type RoleSet []RoleGrant

// Has reports whether the set contains the role under any scope
func (s RoleSet) Has(role Role) bool {
	for _, g := range s {
		if g.Role == role {
			return true
		}
	}
	return false
}

// HasScoped reports whether the set contains the role scoped to the given
// department (or organization-wide)
func (s RoleSet) HasScoped(role Role, departmentID string) bool {
	for _, g := range s {
		if g.Role == role && (g.DepartmentID == "" || g.DepartmentID == departmentID) {
			return true
		}
	}
	return false
}

// Department is the scoping unit for head resolution. ParentID supports
// parent-head escalation when the department's own head is the requester.
type Department struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	ParentID string `json:"parent_id,omitempty"`
}
