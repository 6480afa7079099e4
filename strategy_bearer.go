package authgate

import (
	"context"
	"strings"

	"github.com/goliatone/go-router"
)

const (
	StrategyBearerToken   = "bearer-token"
	StrategyCookieSession = "cookie-session"
	StrategyServiceRole   = "service-role"
)

// BearerTokenStrategy verifies an Authorization: Bearer token against the
// provider's token-verification endpoint using the anonymous-key client. It
// is the most trusted credential shape and carries the highest priority.
type BearerTokenStrategy struct {
	client   IdentityClient
	priority int
}

func NewBearerTokenStrategy(client IdentityClient) *BearerTokenStrategy {
	return &BearerTokenStrategy{client: client, priority: 3}
}

func (s *BearerTokenStrategy) Name() string  { return StrategyBearerToken }
func (s *BearerTokenStrategy) Priority() int { return s.priority }

func (s *BearerTokenStrategy) Verify(ctx context.Context, rc router.Context) (*AuthResult, error) {
	header := rc.Header(router.HeaderAuthorization)
	if header == "" {
		return &AuthResult{Success: false, Strategy: s.Name()}, nil
	}

	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") || token == "" {
		return &AuthResult{Success: false, Strategy: s.Name()}, nil
	}

	user, err := s.client.UserFromToken(ctx, strings.TrimSpace(token))
	if err != nil {
		return nil, err
	}
	if user == nil {
		return &AuthResult{Success: false, Strategy: s.Name()}, nil
	}

	return &AuthResult{Success: true, User: user, Strategy: s.Name()}, nil
}
