package enums

import "fmt"

// UserRole represents an organizational role on the platform.
type UserRole string

const (
	UserRoleEmployee UserRole = "EMPLOYEE"
	UserRoleHR       UserRole = "HR"
	UserRoleAdmin    UserRole = "ADMIN"
)

var validUserRoles = []UserRole{
	UserRoleEmployee,
	UserRoleHR,
	UserRoleAdmin,
}

// String implements fmt.Stringer.
func (r UserRole) String() string {
	return string(r)
}

// IsValid reports whether the value is a known UserRole.
func (r UserRole) IsValid() bool {
	for _, candidate := range validUserRoles {
		if candidate == r {
			return true
		}
	}
	return false
}

// IsElevated reports whether the role can manage other users' wallets and orders.
func (r UserRole) IsElevated() bool {
	return r == UserRoleHR || r == UserRoleAdmin
}

// ParseUserRole converts raw input into a UserRole.
func ParseUserRole(value string) (UserRole, error) {
	for _, candidate := range validUserRoles {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid user role %q", value)
}
