package authgate

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/goliatone/go-router"
	"github.com/google/uuid"
)

// Logger takes a message plus alternating key-value pairs, matching the
// sugared zap surface the logging package adapts.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// Principal is the identity record owned by the hosted auth provider. The
// subsystem only reads it; it is never written back.
type Principal struct {
	ID             uuid.UUID
	Email          string
	Phone          string
	EmailConfirmed bool
	// Metadata carries the signup metadata captured by the provider
	// (role, first_name, last_name, company_name).
	Metadata map[string]any
}

// ProviderSession is a provider-issued token pair plus the principal it
// belongs to, as stored in the session cookie.
type ProviderSession struct {
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
	User         *Principal
}

func (s *ProviderSession) Expired(now time.Time) bool {
	if s == nil || s.ExpiresAt.IsZero() {
		return false
	}
	return now.After(s.ExpiresAt)
}

// AuthResult is the uniform outcome produced by every strategy and by the
// orchestrator. Success implies User is non-nil; Profile is populated only
// once profile resolution succeeds.
type AuthResult struct {
	Success  bool
	User     *Principal
	Profile  *Profile
	Strategy string
	Error    *AuthError
}

// Strategy is one way of verifying the caller of a request. Verify returns a
// clean in-band failure (Success=false, nil error) when the credential is
// absent or rejected, and a non-nil error only for infrastructure faults,
// which the orchestrator feeds into the circuit breaker.
type Strategy interface {
	Name() string
	Priority() int
	Verify(ctx context.Context, rc router.Context) (*AuthResult, error)
}

// IdentityClient is the anonymous-key surface of the hosted auth provider
// used by strategies.
type IdentityClient interface {
	UserFromToken(ctx context.Context, accessToken string) (*Principal, error)
	RefreshSession(ctx context.Context, refreshToken string) (*ProviderSession, error)
}

// AdminClient is the elevated (service-role) surface of the provider, used
// only to read signup metadata while recovering a missing profile.
type AdminClient interface {
	GetUser(ctx context.Context, id uuid.UUID) (*Principal, error)
}

// TokenVerifier validates a provider access token locally, without a network
// round trip.
type TokenVerifier interface {
	VerifyAccessToken(tokenString string) (*Principal, error)
}

type defLogger struct {
	out io.Writer
}

func (d defLogger) Error(msg string, args ...any) { d.log("ERR", msg, args) }
func (d defLogger) Warn(msg string, args ...any)  { d.log("WRN", msg, args) }
func (d defLogger) Info(msg string, args ...any)  { d.log("INF", msg, args) }
func (d defLogger) Debug(msg string, args ...any) { d.log("DBG", msg, args) }

func (d defLogger) log(level, msg string, args []any) {
	out := d.out
	if out == nil {
		out = os.Stdout
	}
	fmt.Fprintf(out, "[%s] AUTHGATE %s%s\n", level, msg, kvPairs(args))
}

func kvPairs(args []any) string {
	if len(args) == 0 {
		return ""
	}
	var sb strings.Builder
	for i := 0; i < len(args); i += 2 {
		var val any = "(MISSING)"
		if i+1 < len(args) {
			val = args[i+1]
		}
		fmt.Fprintf(&sb, " %v=%v", args[i], val)
	}
	return sb.String()
}
