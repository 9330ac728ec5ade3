package enums

import "fmt"

// UserRole is the actor role carried in access tokens.
type UserRole string

const (
	UserRoleCustomer UserRole = "customer"
	UserRoleVendor   UserRole = "vendor"
	UserRoleCourier  UserRole = "courier"
	UserRoleAdmin    UserRole = "admin"
)

var validUserRoles = []UserRole{
	UserRoleCustomer,
	UserRoleVendor,
	UserRoleCourier,
	UserRoleAdmin,
}

// String implements fmt.Stringer.
func (v UserRole) String() string {
	return string(v)
}

// IsValid reports whether the value is a known UserRole.
func (v UserRole) IsValid() bool {
	for _, candidate := range validUserRoles {
		if candidate == v {
			return true
		}
	}
	return false
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

// WalletOwnerType maps earning roles to their wallet owner type.
func (v UserRole) WalletOwnerType() (WalletOwnerType, bool) {
	switch v {
	case UserRoleVendor:
		return WalletOwnerTypeVendor, true
	case UserRoleCourier:
		return WalletOwnerTypeCourier, true
	default:
		return "", false
	}
}
