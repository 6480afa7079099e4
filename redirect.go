package authgate

import "fmt"

// Redirect is a computed navigation target plus the reason it was chosen,
// which shows up in edge logs.
type Redirect struct {
	Target string
	Reason string
}

const (
	ReasonOnboardingIncomplete = "onboarding_incomplete"
	ReasonOnboardingDone       = "onboarding_complete"
	ReasonAdminBypass          = "admin_no_onboarding"
	ReasonFallback             = "fallback_unknown_role_or_state"
)

// DetermineRedirect computes where a profile belongs given the requested
// path. Pure function, no I/O: admins always land on /admin, incomplete
// onboarding resumes at the next step (or the dashboard once the step counter
// passes the role total), completed onboarding lands on the role dashboard,
// and anything unrecognized falls back to the root rather than failing.
func DetermineRedirect(profile *Profile, requestedPath string) Redirect {
	if profile == nil {
		return Redirect{Target: "/", Reason: ReasonFallback}
	}

	if profile.Role == RoleAdmin {
		return Redirect{Target: "/admin", Reason: ReasonAdminBypass}
	}

	if !profile.OnboardingCompleted {
		total := OnboardingTotal(profile.Role)
		if total == 0 {
			return Redirect{Target: "/", Reason: ReasonFallback}
		}

		next := profile.OnboardingStep + 1
		if next < 1 {
			next = 1
		}

		if next > total {
			dashboard, _ := DashboardPath(profile.Role)
			return Redirect{Target: dashboard, Reason: ReasonOnboardingDone}
		}

		return Redirect{
			Target: fmt.Sprintf("/onboarding/%s/%d", profile.Role, next),
			Reason: ReasonOnboardingIncomplete,
		}
	}

	if dashboard, ok := DashboardPath(profile.Role); ok {
		return Redirect{Target: dashboard, Reason: ReasonOnboardingDone}
	}

	return Redirect{Target: "/", Reason: ReasonFallback}
}
