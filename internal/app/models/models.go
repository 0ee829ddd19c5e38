package models

// RoleType defines the user role type
type RoleType string

const (
	RoleStudent  RoleType = "student"
	RoleEmployee RoleType = "employee"
	RoleAdmin    RoleType = "admin"
)

// Roles lists every valid role
var Roles = []RoleType{RoleStudent, RoleEmployee, RoleAdmin}

// IsValid reports whether r is a known role
func (r RoleType) IsValid() bool {
	switch r {
	case RoleStudent, RoleEmployee, RoleAdmin:
		return true
	}
	return false
}

// CanManagePositions reports whether the role may create positions
func (r RoleType) CanManagePositions() bool {
	return r == RoleEmployee || r == RoleAdmin
}

// Label is the display name of the role
func (r RoleType) Label() string {
	switch r {
	case RoleStudent:
		return "Student"
	case RoleEmployee:
		return "Employee"
	case RoleAdmin:
		return "Administrator"
	}
	return string(r)
}
