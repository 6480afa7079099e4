package authgate

import (
	"context"

	"github.com/goliatone/go-router"
)

var resultCtxKey = &contextKey{"auth-result"}

type contextKey struct {
	name string
}

// LocalsResultKey is where middleware stores the AuthResult on the router
// context.
const LocalsResultKey = "authgate:result"

// WithAuthResult sets the AuthResult in the given context
func WithAuthResult(ctx context.Context, result *AuthResult) context.Context {
	return context.WithValue(ctx, resultCtxKey, result)
}

// AuthResultFrom finds the AuthResult in the context.
func AuthResultFrom(ctx context.Context) (*AuthResult, bool) {
	raw, ok := ctx.Value(resultCtxKey).(*AuthResult)
	return raw, ok
}

// StoreResult places the result in router locals for handlers downstream.
func StoreResult(rc router.Context, result *AuthResult) {
	rc.Locals(LocalsResultKey, result)
}

// ResultFromRouter reads the result middleware stored on the router context.
func ResultFromRouter(rc router.Context) (*AuthResult, bool) {
	raw := rc.Locals(LocalsResultKey)
	if raw == nil {
		return nil, false
	}
	result, ok := raw.(*AuthResult)
	return result, ok
}

// PrincipalFrom is a convenience accessor for the authenticated principal.
func PrincipalFrom(ctx context.Context) (*Principal, bool) {
	result, ok := AuthResultFrom(ctx)
	if !ok || result == nil || result.User == nil {
		return nil, false
	}
	return result.User, true
}

// ProfileFrom is a convenience accessor for the resolved profile.
func ProfileFrom(ctx context.Context) (*Profile, bool) {
	result, ok := AuthResultFrom(ctx)
	if !ok || result == nil || result.Profile == nil {
		return nil, false
	}
	return result.Profile, true
}
