package identity

// IsValidRole checks the role against the four marketplace roles.
func IsValidRole(role UserRole) bool {
	switch role {
	case RoleBuyer, RoleSeller, RoleProfessional, RoleAdmin:
		return true
	default:
		return false
	}
}

// ParseRole normalizes a raw role string, defaulting unknown values to buyer.
func ParseRole(raw string) (UserRole, bool) {
	switch UserRole(raw) {
	case RoleBuyer:
		return RoleBuyer, true
	case RoleSeller:
		return RoleSeller, true
	case RoleProfessional:
		return RoleProfessional, true
	case RoleAdmin:
		return RoleAdmin, true
	default:
		return RoleBuyer, false
	}
}
