package authgate

import (
	"context"
	"time"

	"github.com/goliatone/go-router"
)

// CookieSessionStrategy resolves the active session from the request's auth
// cookie. The access token is verified locally; an expired token is traded
// for a fresh pair through the provider and the renewed session is written
// back to the response so the browser catches up.
type CookieSessionStrategy struct {
	client     IdentityClient
	verifier   TokenVerifier
	cookieName string
	priority   int
	now        func() time.Time
}

type CookieStrategyOption func(*CookieSessionStrategy)

func WithCookieClock(now func() time.Time) CookieStrategyOption {
	return func(s *CookieSessionStrategy) {
		if now != nil {
			s.now = now
		}
	}
}

func NewCookieSessionStrategy(client IdentityClient, verifier TokenVerifier, projectRef string, opts ...CookieStrategyOption) *CookieSessionStrategy {
	s := &CookieSessionStrategy{
		client:     client,
		verifier:   verifier,
		cookieName: SessionCookieName(projectRef),
		priority:   2,
		now:        time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

func (s *CookieSessionStrategy) Name() string  { return StrategyCookieSession }
func (s *CookieSessionStrategy) Priority() int { return s.priority }

func (s *CookieSessionStrategy) Verify(ctx context.Context, rc router.Context) (*AuthResult, error) {
	raw := ReadSessionCookie(rc, s.cookieName)
	if raw == "" {
		return &AuthResult{Success: false, Strategy: s.Name()}, nil
	}

	session, err := ParseSessionCookie(raw)
	if err != nil {
		// A cookie we cannot decode is a rejected credential, not an
		// infrastructure fault.
		return &AuthResult{Success: false, Strategy: s.Name()}, nil
	}

	if !session.Expired(s.now()) {
		if user, err := s.verifier.VerifyAccessToken(session.AccessToken); err == nil && user != nil {
			return &AuthResult{Success: true, User: user, Strategy: s.Name()}, nil
		}
		// Token failed local verification before its stated expiry: fall
		// through to the refresh path in case the secret rotated.
	}

	if session.RefreshToken == "" {
		return &AuthResult{Success: false, Strategy: s.Name()}, nil
	}

	refreshed, err := s.client.RefreshSession(ctx, session.RefreshToken)
	if err != nil {
		return nil, err
	}
	if refreshed == nil || refreshed.User == nil {
		return &AuthResult{Success: false, Strategy: s.Name()}, nil
	}

	if err := WriteSessionCookie(rc, s.cookieName, refreshed); err != nil {
		return nil, err
	}

	return &AuthResult{Success: true, User: refreshed.User, Strategy: s.Name()}, nil
}
