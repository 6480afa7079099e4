package authgate

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// ProfileRole is the marketplace role attached to a profile
type ProfileRole = string

const (
	// RoleBuyer browses listings and sends inquiries
	RoleBuyer ProfileRole = "buyer"
	// RoleSeller owns listings and responds to inquiries
	RoleSeller ProfileRole = "seller"
	// RoleAdmin runs verification workflows, has no onboarding flow
	RoleAdmin ProfileRole = "admin"
)

// VerificationStatus tracks admin review of a profile
type VerificationStatus = string

const (
	VerificationPending  VerificationStatus = "pending"
	VerificationVerified VerificationStatus = "verified"
	VerificationRejected VerificationStatus = "rejected"
)

// Onboarding step totals per role. Admins skip onboarding entirely.
const (
	SellerOnboardingSteps = 5
	BuyerOnboardingSteps  = 2
)

// OnboardingTotal returns how many onboarding steps a role has to complete.
// Unknown roles report zero steps.
func OnboardingTotal(role ProfileRole) int {
	switch role {
	case RoleSeller:
		return SellerOnboardingSteps
	case RoleBuyer:
		return BuyerOnboardingSteps
	default:
		return 0
	}
}

// DashboardPath returns the landing route for a role once onboarding is done.
func DashboardPath(role ProfileRole) (string, bool) {
	switch role {
	case RoleSeller:
		return "/seller-dashboard", true
	case RoleBuyer:
		return "/dashboard", true
	case RoleAdmin:
		return "/admin", true
	default:
		return "", false
	}
}

// Profile is the application-owned record keyed 1:1 by the principal ID.
// It is created lazily on first successful authentication when missing, and
// mutated by onboarding steps and admin verification actions. This subsystem
// never deletes profiles.
type Profile struct {
	bun.BaseModel `bun:"table:profiles,alias:prf"`

	ID                  uuid.UUID          `bun:"id,pk,type:uuid" json:"id,omitempty"`
	Role                ProfileRole        `bun:"role,notnull" json:"role,omitempty"`
	Email               string             `bun:"email,notnull" json:"email,omitempty"`
	FirstName           string             `bun:"first_name" json:"first_name,omitempty"`
	LastName            string             `bun:"last_name" json:"last_name,omitempty"`
	CompanyName         string             `bun:"company_name" json:"company_name,omitempty"`
	VerificationStatus  VerificationStatus `bun:"verification_status,notnull" json:"verification_status,omitempty"`
	OnboardingCompleted bool               `bun:"is_onboarding_completed" json:"is_onboarding_completed"`
	OnboardingStep      int                `bun:"onboarding_step_completed" json:"onboarding_step_completed"`
	CreatedAt           *time.Time         `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt           *time.Time         `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
}

// NewProfileFromPrincipal builds the profile row inserted during self-heal.
// Role defaults to buyer when the signup metadata carries none.
func NewProfileFromPrincipal(p *Principal) *Profile {
	profile := &Profile{
		ID:                 p.ID,
		Email:              p.Email,
		Role:               RoleBuyer,
		VerificationStatus: VerificationPending,
	}

	if p.Metadata == nil {
		return profile
	}

	if role, ok := p.Metadata["role"].(string); ok && role != "" {
		profile.Role = role
	}
	if v, ok := p.Metadata["first_name"].(string); ok {
		profile.FirstName = v
	}
	if v, ok := p.Metadata["last_name"].(string); ok {
		profile.LastName = v
	}
	if v, ok := p.Metadata["company_name"].(string); ok {
		profile.CompanyName = v
	}

	return profile
}
