package authgate_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	authgate "github.com/bizmatch/go-authgate"
)

func TestParseRole(t *testing.T) {
	role, ok := authgate.ParseRole("seller")
	assert.True(t, ok)
	assert.Equal(t, authgate.RoleSeller, role)

	_, ok = authgate.ParseRole("moderator")
	assert.False(t, ok)

	_, ok = authgate.ParseRole("")
	assert.False(t, ok)
}

func TestRoleCapabilities(t *testing.T) {
	assert.True(t, authgate.CanPublishListings(authgate.RoleSeller))
	assert.True(t, authgate.CanPublishListings(authgate.RoleAdmin))
	assert.False(t, authgate.CanPublishListings(authgate.RoleBuyer))

	assert.True(t, authgate.CanSendInquiries(authgate.RoleBuyer))
	assert.False(t, authgate.CanSendInquiries(authgate.RoleSeller))

	assert.True(t, authgate.CanReviewVerifications(authgate.RoleAdmin))
	assert.False(t, authgate.CanReviewVerifications(authgate.RoleSeller))
}

func TestRequiresOnboarding(t *testing.T) {
	assert.True(t, authgate.RequiresOnboarding(authgate.RoleBuyer))
	assert.True(t, authgate.RequiresOnboarding(authgate.RoleSeller))
	assert.False(t, authgate.RequiresOnboarding(authgate.RoleAdmin))
}

func TestAllRolesAreValid(t *testing.T) {
	for _, role := range authgate.AllRoles() {
		assert.True(t, authgate.IsValidRole(role), role)
	}
}
