package supabase

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/supabase-community/gotrue-go"
	"github.com/supabase-community/gotrue-go/types"

	authgate "github.com/bizmatch/go-authgate"
)

// Client implements authgate.IdentityClient and authgate.AdminClient over the
// GoTrue API. Two underlying clients are held: an anonymous-key one for
// end-user token operations and a service-role one for admin lookups. The
// service key never touches a request path.
type Client struct {
	cfg   Config
	anon  gotrue.Client
	admin gotrue.Client
	now   func() time.Time
}

var (
	_ authgate.IdentityClient = (*Client)(nil)
	_ authgate.AdminClient    = (*Client)(nil)
)

func NewClient(cfg Config) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("supabase: invalid config: %w", err)
	}

	anon := gotrue.New(cfg.ProjectRef, cfg.AnonKey)
	if cfg.GoTrueURL != "" {
		anon = anon.WithCustomGoTrueURL(cfg.GoTrueURL)
	}

	client := &Client{
		cfg:  cfg,
		anon: anon,
		now:  time.Now,
	}

	if cfg.ServiceKey != "" {
		admin := gotrue.New(cfg.ProjectRef, cfg.ServiceKey).WithToken(cfg.ServiceKey)
		if cfg.GoTrueURL != "" {
			admin = admin.WithCustomGoTrueURL(cfg.GoTrueURL)
		}
		client.admin = admin
	}

	return client, nil
}

// UserFromToken asks GoTrue who the access token belongs to.
func (c *Client) UserFromToken(ctx context.Context, accessToken string) (*authgate.Principal, error) {
	resp, err := c.anon.WithToken(accessToken).GetUser()
	if err != nil {
		return nil, fmt.Errorf("supabase: get user: %w", err)
	}
	if resp == nil {
		return nil, nil
	}
	return mapUser(&resp.User), nil
}

// RefreshSession trades a refresh token for a fresh token pair.
func (c *Client) RefreshSession(ctx context.Context, refreshToken string) (*authgate.ProviderSession, error) {
	resp, err := c.anon.RefreshToken(refreshToken)
	if err != nil {
		return nil, fmt.Errorf("supabase: refresh session: %w", err)
	}
	if resp == nil {
		return nil, nil
	}

	session := &authgate.ProviderSession{
		AccessToken:  resp.AccessToken,
		RefreshToken: resp.RefreshToken,
		User:         mapUser(&resp.User),
	}
	if resp.ExpiresIn > 0 {
		session.ExpiresAt = c.now().Add(time.Duration(resp.ExpiresIn) * time.Second)
	}

	return session, nil
}

// GetUser reads the full provider-side user record through the admin API,
// including signup metadata the access token may not carry.
func (c *Client) GetUser(ctx context.Context, id uuid.UUID) (*authgate.Principal, error) {
	if c.admin == nil {
		return nil, fmt.Errorf("supabase: admin client not configured")
	}

	resp, err := c.admin.AdminGetUser(types.AdminGetUserRequest{UserID: id})
	if err != nil {
		return nil, fmt.Errorf("supabase: admin get user: %w", err)
	}
	if resp == nil {
		return nil, nil
	}
	return mapUser(&resp.User), nil
}

func mapUser(u *types.User) *authgate.Principal {
	if u == nil {
		return nil
	}
	return &authgate.Principal{
		ID:             u.ID,
		Email:          u.Email,
		Phone:          u.Phone,
		EmailConfirmed: u.EmailConfirmedAt != nil,
		Metadata:       u.UserMetadata,
	}
}
