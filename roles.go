package authgate

// IsValidRole checks if the role is one of the predefined marketplace roles
func IsValidRole(r ProfileRole) bool {
	switch r {
	case RoleBuyer, RoleSeller, RoleAdmin:
		return true
	default:
		return false
	}
}

// ParseRole safely parses a string into a ProfileRole
func ParseRole(roleStr string) (ProfileRole, bool) {
	role := ProfileRole(roleStr)
	return role, IsValidRole(role)
}

// AllRoles returns all predefined roles
func AllRoles() []ProfileRole {
	return []ProfileRole{
		RoleBuyer,
		RoleSeller,
		RoleAdmin,
	}
}

// CanPublishListings checks if the role can own and publish listings
func CanPublishListings(r ProfileRole) bool {
	switch r {
	case RoleSeller, RoleAdmin:
		return true
	default:
		return false
	}
}

// CanSendInquiries checks if the role can contact sellers about listings
func CanSendInquiries(r ProfileRole) bool {
	switch r {
	case RoleBuyer, RoleAdmin:
		return true
	default:
		return false
	}
}

// CanReviewVerifications checks if the role can run the verification workflow
func CanReviewVerifications(r ProfileRole) bool {
	return r == RoleAdmin
}

// RequiresOnboarding checks if the role has an onboarding flow to complete
func RequiresOnboarding(r ProfileRole) bool {
	return OnboardingTotal(r) > 0
}
