package supabase

import (
	"fmt"
	"strings"

	"github.com/caarlos0/env/v11"
	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
)

// Config holds everything needed to talk to one Supabase project.
type Config struct {
	// ProjectRef is the project reference (the subdomain of the API URL and
	// the middle segment of the session cookie name).
	ProjectRef string `env:"SUPABASE_PROJECT_REF"`

	// AnonKey is the anonymous API key used for end-user token operations.
	AnonKey string `env:"SUPABASE_ANON_KEY"`

	// ServiceKey is the service-role key. Only the admin client uses it.
	ServiceKey string `env:"SUPABASE_SERVICE_ROLE_KEY"`

	// JWTSecret verifies access tokens locally (HS256).
	JWTSecret string `env:"SUPABASE_JWT_SECRET"`

	// GoTrueURL overrides the derived auth endpoint, for self-hosted
	// deployments and tests.
	GoTrueURL string `env:"SUPABASE_GOTRUE_URL"`

	// JWKSURL switches local verification to asymmetric keys when the
	// project signs tokens with RS256/ES256.
	JWKSURL string `env:"SUPABASE_JWKS_URL"`

	// Audience expected in access tokens. GoTrue issues "authenticated".
	Audience string `env:"SUPABASE_JWT_AUD" envDefault:"authenticated"`
}

// FromEnv loads the configuration from the process environment.
func FromEnv() (Config, error) {
	cfg := Config{}
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("supabase: parse env config: %w", err)
	}
	return cfg, nil
}

// Validate checks the fields a running client cannot do without.
func (c Config) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.ProjectRef, validation.Required),
		validation.Field(&c.AnonKey, validation.Required),
		validation.Field(&c.GoTrueURL, is.URL),
		validation.Field(&c.JWKSURL, is.URL),
	)
}

func (c Config) authURL() string {
	if c.GoTrueURL != "" {
		return strings.TrimSuffix(c.GoTrueURL, "/")
	}
	return fmt.Sprintf("https://%s.supabase.co/auth/v1", c.ProjectRef)
}
