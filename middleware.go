package authgate

import (
	"fmt"
	"time"

	"github.com/goliatone/go-print"
	"github.com/goliatone/go-router"
)

// EdgeAuthResult is the richer outcome the edge/middleware layer works with:
// the base result plus the detailed profile driving redirects and how long
// resolution took end to end.
type EdgeAuthResult struct {
	*AuthResult
	Duration time.Duration
}

// EdgeAuthenticator is the request-scoped authentication used at the edge.
// It tries the cookie-bound session first (so refreshed tokens can be written
// back to the response), falls through to the full strategy walk for bearer
// callers, and converts every failure mode into a structured result. It never
// lets an error escape into the request pipeline.
type EdgeAuthenticator struct {
	service        *Service
	cookieStrategy *CookieSessionStrategy
	profiles       Profiles
	collector      *Collector
	logger         Logger

	// SignInPath is where unauthenticated browser traffic is sent.
	SignInPath string
	// RejectedRouteKey names the cookie remembering the path that required
	// authentication, so sign-in can return the user there.
	RejectedRouteKey string
	// DebugRedirects dumps each redirect decision to stdout when set.
	DebugRedirects bool
}

type EdgeOption func(*EdgeAuthenticator)

func WithEdgeLogger(l Logger) EdgeOption {
	return func(e *EdgeAuthenticator) {
		if l != nil {
			e.logger = l
		}
	}
}

func WithEdgeCollector(c *Collector) EdgeOption {
	return func(e *EdgeAuthenticator) {
		if c != nil {
			e.collector = c
		}
	}
}

func WithSignInPath(path string) EdgeOption {
	return func(e *EdgeAuthenticator) {
		if path != "" {
			e.SignInPath = path
		}
	}
}

func NewEdgeAuthenticator(service *Service, cookieStrategy *CookieSessionStrategy, profiles Profiles, opts ...EdgeOption) *EdgeAuthenticator {
	e := &EdgeAuthenticator{
		service:          service,
		cookieStrategy:   cookieStrategy,
		profiles:         profiles,
		collector:        NewCollector(),
		logger:           defLogger{},
		SignInPath:       "/sign-in",
		RejectedRouteKey: "rejected_route",
	}
	for _, opt := range opts {
		if opt != nil {
			opt(e)
		}
	}
	return e
}

// AuthenticateRequest resolves the caller for one request. Every branch logs
// a correlation-tagged line and the end-to-end duration is metered from entry.
func (e *EdgeAuthenticator) AuthenticateRequest(rc router.Context) (result *EdgeAuthResult) {
	corrID := NewCorrelationID()
	started := time.Now()
	ctx := rc.Context()

	defer func() {
		if r := recover(); r != nil {
			authErr := FromProviderError(fmt.Errorf("edge authentication panicked: %v", r), "edge-auth").
				WithCorrelationID(corrID)
			e.collector.Error(ctx, authErr)
			e.logger.Error("edge authentication recovered from panic", "correlation_id", corrID)
			result = &EdgeAuthResult{
				AuthResult: &AuthResult{Success: false, Error: authErr},
				Duration:   time.Since(started),
			}
		}

		e.collector.Metric(ctx, Metric{
			Operation:     "edge-authenticate",
			Duration:      time.Since(started),
			Success:       result != nil && result.Success,
			CorrelationID: corrID,
			Timestamp:     time.Now(),
		})
	}()

	// Cookie-bound session first: it is the common browser path and the only
	// one able to persist refreshed tokens on the response.
	cookieResult, err := e.cookieStrategy.Verify(ctx, rc)
	if err != nil {
		e.service.Breaker().RecordFailure(e.cookieStrategy.Name())
		authErr := FromProviderError(err, "edge-cookie").WithCorrelationID(corrID)
		e.collector.Error(ctx, authErr)
		e.logger.Warn("edge cookie resolution failed, falling through",
			"correlation_id", corrID, "type", string(authErr.Type))
	}

	if cookieResult != nil && cookieResult.Success && cookieResult.User != nil {
		e.service.Breaker().RecordSuccess(e.cookieStrategy.Name())

		profile, err := e.profiles.GetByPrincipal(ctx, cookieResult.User.ID)
		if err != nil {
			if IsProfileNotFound(err) {
				// Distinct failure: the session is valid but the application
				// row is gone. Callers treat this differently from bad
				// credentials.
				authErr := NewAuthError(
					ErrProfileNotFound,
					"authenticated principal has no profile row",
					"Your account setup is incomplete. Please contact support.",
					"edge-profile",
					map[string]any{"user_id": cookieResult.User.ID.String()},
				).WithCorrelationID(corrID)
				e.collector.Error(ctx, authErr)
				e.logger.Error("edge profile missing",
					"user_id", cookieResult.User.ID.String(), "correlation_id", corrID)
				return &EdgeAuthResult{
					AuthResult: &AuthResult{
						Success:  false,
						User:     cookieResult.User,
						Strategy: e.cookieStrategy.Name(),
						Error:    authErr,
					},
					Duration: time.Since(started),
				}
			}

			authErr := FromProviderError(err, "edge-profile").WithCorrelationID(corrID)
			e.collector.Error(ctx, authErr)
			return &EdgeAuthResult{
				AuthResult: &AuthResult{Success: false, Error: authErr},
				Duration:   time.Since(started),
			}
		}

		e.logger.Debug("edge cookie session resolved",
			"user_id", cookieResult.User.ID.String(),
			"role", profile.Role,
			"correlation_id", corrID)

		cookieResult.Profile = profile
		return &EdgeAuthResult{AuthResult: cookieResult, Duration: time.Since(started)}
	}

	// No cookie session: bearer-token callers hitting middleware-guarded
	// routes resolve through the general strategy walk.
	e.logger.Debug("edge falling through to strategy walk", "correlation_id", corrID)
	general := e.service.Authenticate(ctx, rc)
	return &EdgeAuthResult{AuthResult: general, Duration: time.Since(started)}
}

// Middleware guards routes: unauthenticated traffic is remembered and sent to
// sign-in, authenticated traffic is re-routed per the profile's onboarding
// state, and correctly-located traffic proceeds with the result stored on the
// request.
func (e *EdgeAuthenticator) Middleware() router.MiddlewareFunc {
	return func(hf router.HandlerFunc) router.HandlerFunc {
		return func(rc router.Context) error {
			result := e.AuthenticateRequest(rc)

			if !result.Success {
				e.rememberRejectedRoute(rc)
				return rc.Redirect(e.SignInPath, router.StatusSeeOther)
			}

			redirect := DetermineRedirect(result.Profile, rc.Path())
			if e.DebugRedirects {
				fmt.Println(print.MaybePrettyJSON(redirect))
			}

			if redirect.Target != "" && redirect.Target != rc.Path() && redirect.Reason == ReasonOnboardingIncomplete {
				e.logger.Info("redirecting for onboarding",
					"target", redirect.Target, "reason", redirect.Reason)
				return rc.Redirect(redirect.Target, router.StatusSeeOther)
			}

			StoreResult(rc, result.AuthResult)
			rc.SetContext(WithAuthResult(rc.Context(), result.AuthResult))
			return rc.Next()
		}
	}
}

func (e *EdgeAuthenticator) rememberRejectedRoute(rc router.Context) {
	rc.Cookie(&router.Cookie{
		Name:     e.RejectedRouteKey,
		Value:    rc.OriginalURL(),
		Expires:  time.Now().Add(5 * time.Minute),
		HTTPOnly: true,
		Secure:   true,
		SameSite: "Lax",
	})
}

// ConsumeRejectedRoute returns the remembered path (or def) and clears the
// cookie, for use by the sign-in completion handler.
func (e *EdgeAuthenticator) ConsumeRejectedRoute(rc router.Context, def string) string {
	r := rc.Cookies(e.RejectedRouteKey)
	if r == "" {
		return def
	}
	rc.Cookie(&router.Cookie{
		Name:     e.RejectedRouteKey,
		Value:    "",
		Expires:  time.Now().Add(-24 * time.Hour),
		HTTPOnly: true,
		Secure:   true,
		SameSite: "Lax",
	})
	return r
}
