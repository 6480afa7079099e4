package authgate

import (
	"errors"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"
)

// ErrorType is the classified cause of an authentication failure
type ErrorType string

const (
	ErrInvalidCredentials      ErrorType = "invalid_credentials"
	ErrEmailNotVerified        ErrorType = "email_not_verified"
	ErrInsufficientPermissions ErrorType = "insufficient_permissions"
	ErrProfileNotFound         ErrorType = "profile_not_found"
	ErrSessionExpired          ErrorType = "session_expired"
	ErrRateLimited             ErrorType = "rate_limited"
	ErrTemporaryFailure        ErrorType = "temporary_failure"
	ErrNetworkError            ErrorType = "network_error"
	ErrDatabaseConnection      ErrorType = "database_connection"
	ErrProviderAPIFailure      ErrorType = "provider_api_failure"
	ErrServiceUnavailable      ErrorType = "service_unavailable"
	ErrTimeout                 ErrorType = "timeout"
	ErrConfiguration           ErrorType = "configuration_error"
	ErrUnknown                 ErrorType = "unknown_error"
)

// Severity buckets errors for alerting and handling policy
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// retryableTypes are the only classifications callers may retry against.
var retryableTypes = map[ErrorType]bool{
	ErrTemporaryFailure:   true,
	ErrNetworkError:       true,
	ErrDatabaseConnection: true,
	ErrServiceUnavailable: true,
	ErrTimeout:            true,
}

var severityByType = map[ErrorType]Severity{
	ErrInvalidCredentials: SeverityLow,
	ErrEmailNotVerified:   SeverityLow,
	ErrProfileNotFound:    SeverityMedium,
	ErrRateLimited:        SeverityMedium,
	ErrDatabaseConnection: SeverityHigh,
	ErrProviderAPIFailure: SeverityHigh,
	ErrServiceUnavailable: SeverityHigh,
	ErrConfiguration:      SeverityCritical,
}

// AuthError is the structured, immutable diagnostic record attached to every
// failed authentication outcome. Message is internal; UserMessage is safe to
// display.
type AuthError struct {
	Type          ErrorType
	Message       string
	UserMessage   string
	CorrelationID string
	Timestamp     time.Time
	Context       string
	Metadata      map[string]any
	Retryable     bool
	Severity      Severity
}

func (e *AuthError) Error() string {
	return string(e.Type) + ": " + e.Message
}

// NewAuthError builds an AuthError, stamping a fresh correlation ID and
// timestamp, and deriving Retryable and Severity from the type tables.
func NewAuthError(errType ErrorType, message, userMessage, opContext string, metadata map[string]any) *AuthError {
	return newAuthErrorAt(errType, message, userMessage, opContext, metadata, NewCorrelationID(), time.Now())
}

// WithCorrelationID derives a copy carrying the caller's correlation ID so a
// whole authentication attempt traces as one unit.
func (e *AuthError) WithCorrelationID(id string) *AuthError {
	if e == nil || id == "" {
		return e
	}
	clone := *e
	clone.CorrelationID = id
	return &clone
}

func newAuthErrorAt(errType ErrorType, message, userMessage, opContext string, metadata map[string]any, corrID string, ts time.Time) *AuthError {
	severity, ok := severityByType[errType]
	if !ok {
		severity = SeverityMedium
	}

	return &AuthError{
		Type:          errType,
		Message:       message,
		UserMessage:   userMessage,
		CorrelationID: corrID,
		Timestamp:     ts,
		Context:       opContext,
		Metadata:      metadata,
		Retryable:     retryableTypes[errType],
		Severity:      severity,
	}
}

// providerErrorRule maps a provider message fragment to a classification.
// GoTrue reports errors as free text, so matching is substring based and best
// effort: unmatched messages fall through to unknown_error, never an error.
type providerErrorRule struct {
	fragment    string
	errType     ErrorType
	userMessage string
}

var providerErrorRules = []providerErrorRule{
	{"invalid login credentials", ErrInvalidCredentials, "The email or password you entered is incorrect."},
	{"invalid credentials", ErrInvalidCredentials, "The email or password you entered is incorrect."},
	{"email not confirmed", ErrEmailNotVerified, "Please confirm your email address before signing in."},
	{"email link is invalid", ErrSessionExpired, "Your sign-in link has expired. Please request a new one."},
	{"jwt expired", ErrSessionExpired, "Your session has expired. Please sign in again."},
	{"token is expired", ErrSessionExpired, "Your session has expired. Please sign in again."},
	{"refresh token not found", ErrSessionExpired, "Your session has expired. Please sign in again."},
	{"invalid refresh token", ErrSessionExpired, "Your session has expired. Please sign in again."},
	{"rate limit", ErrRateLimited, "Too many attempts. Please wait a moment and try again."},
	{"too many requests", ErrRateLimited, "Too many attempts. Please wait a moment and try again."},
	{"not authorized", ErrInsufficientPermissions, "You do not have access to this resource."},
	{"database", ErrDatabaseConnection, "A storage error occurred. Please try again shortly."},
	{"connection", ErrNetworkError, "We could not reach the authentication service. Please try again."},
	{"network", ErrNetworkError, "We could not reach the authentication service. Please try again."},
	{"no such host", ErrNetworkError, "We could not reach the authentication service. Please try again."},
	{"timeout", ErrTimeout, "The request took too long. Please try again."},
	{"timed out", ErrTimeout, "The request took too long. Please try again."},
	{"service unavailable", ErrServiceUnavailable, "The authentication service is temporarily unavailable."},
	{"bad gateway", ErrServiceUnavailable, "The authentication service is temporarily unavailable."},
}

// FromProviderError classifies a raw provider error into the taxonomy. It
// never fails: unrecognized text yields unknown_error with a generic user
// message, favoring availability over precision.
func FromProviderError(err error, opContext string) *AuthError {
	if err == nil {
		return NewAuthError(ErrUnknown, "provider error was nil", genericUserMessage, opContext, nil)
	}

	var authErr *AuthError
	if errors.As(err, &authErr) {
		return authErr
	}

	msg := err.Error()
	lower := strings.ToLower(msg)

	for _, rule := range providerErrorRules {
		if strings.Contains(lower, rule.fragment) {
			return NewAuthError(rule.errType, msg, rule.userMessage, opContext, nil)
		}
	}

	return NewAuthError(ErrUnknown, msg, genericUserMessage, opContext, nil)
}

const genericUserMessage = "Something went wrong while signing you in. Please try again."

var categoryByType = map[ErrorType]goerrors.Category{
	ErrInvalidCredentials:      goerrors.CategoryAuth,
	ErrEmailNotVerified:        goerrors.CategoryAuth,
	ErrSessionExpired:          goerrors.CategoryAuth,
	ErrInsufficientPermissions: goerrors.CategoryAuthz,
	ErrProfileNotFound:         goerrors.CategoryNotFound,
	ErrRateLimited:             goerrors.CategoryRateLimit,
	ErrConfiguration:           goerrors.CategoryInternal,
}

// Rich converts an AuthError into the go-errors shape HTTP handlers consume.
func (e *AuthError) Rich() *goerrors.Error {
	category, ok := categoryByType[e.Type]
	if !ok {
		category = goerrors.CategoryInternal
	}

	code := goerrors.CodeInternal
	switch category {
	case goerrors.CategoryAuth:
		code = goerrors.CodeUnauthorized
	case goerrors.CategoryAuthz:
		code = goerrors.CodeForbidden
	case goerrors.CategoryNotFound:
		code = goerrors.CodeNotFound
	}

	return goerrors.New(e.UserMessage, category).
		WithTextCode(strings.ToUpper(string(e.Type))).
		WithCode(code).
		WithMetadata(map[string]any{
			"correlation_id": e.CorrelationID,
			"retryable":      e.Retryable,
			"severity":       string(e.Severity),
		})
}
