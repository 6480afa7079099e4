package authgate_test

import (
	"errors"
	"testing"

	goerrors "github.com/goliatone/go-errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	authgate "github.com/bizmatch/go-authgate"
)

func TestNewAuthErrorDerivesSeverityAndRetryable(t *testing.T) {
	tests := []struct {
		name      string
		errType   authgate.ErrorType
		severity  authgate.Severity
		retryable bool
	}{
		{"invalid credentials", authgate.ErrInvalidCredentials, authgate.SeverityLow, false},
		{"email not verified", authgate.ErrEmailNotVerified, authgate.SeverityLow, false},
		{"profile not found", authgate.ErrProfileNotFound, authgate.SeverityMedium, false},
		{"rate limited", authgate.ErrRateLimited, authgate.SeverityMedium, false},
		{"database connection", authgate.ErrDatabaseConnection, authgate.SeverityHigh, true},
		{"provider api failure", authgate.ErrProviderAPIFailure, authgate.SeverityHigh, false},
		{"service unavailable", authgate.ErrServiceUnavailable, authgate.SeverityHigh, true},
		{"configuration", authgate.ErrConfiguration, authgate.SeverityCritical, false},
		{"timeout", authgate.ErrTimeout, authgate.SeverityMedium, true},
		{"temporary failure", authgate.ErrTemporaryFailure, authgate.SeverityMedium, true},
		{"network", authgate.ErrNetworkError, authgate.SeverityMedium, true},
		{"unknown defaults to medium", authgate.ErrUnknown, authgate.SeverityMedium, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := authgate.NewAuthError(tc.errType, "internal", "user facing", "test-op", nil)

			assert.Equal(t, tc.severity, err.Severity)
			assert.Equal(t, tc.retryable, err.Retryable)
			assert.NotEmpty(t, err.CorrelationID)
			assert.False(t, err.Timestamp.IsZero())
			assert.Equal(t, "test-op", err.Context)
		})
	}
}

func TestFromProviderErrorClassification(t *testing.T) {
	tests := []struct {
		name    string
		message string
		errType authgate.ErrorType
	}{
		{"invalid login", "Invalid login credentials", authgate.ErrInvalidCredentials},
		{"email unconfirmed", "Email not confirmed", authgate.ErrEmailNotVerified},
		{"rate limited", "Request rate limit reached", authgate.ErrRateLimited},
		{"jwt expired", "JWT expired", authgate.ErrSessionExpired},
		{"stale refresh token", "Invalid Refresh Token: Refresh Token Not Found", authgate.ErrSessionExpired},
		{"connection timeout is network", "dial tcp: connection timeout", authgate.ErrNetworkError},
		{"plain timeout", "request timed out after 30s", authgate.ErrTimeout},
		{"refused", "connection refused", authgate.ErrNetworkError},
		{"database down", "database is starting up", authgate.ErrDatabaseConnection},
		{"service unavailable", "503 Service Unavailable", authgate.ErrServiceUnavailable},
		{"unmatched falls through", "entirely novel provider complaint", authgate.ErrUnknown},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			authErr := authgate.FromProviderError(errors.New(tc.message), "classify")

			assert.Equal(t, tc.errType, authErr.Type)
			assert.Equal(t, tc.message, authErr.Message)
			assert.NotEmpty(t, authErr.UserMessage)
			assert.NotContains(t, authErr.UserMessage, tc.message,
				"provider internals must not leak into the user message")
		})
	}
}

func TestFromProviderErrorInvalidCredentialsProperties(t *testing.T) {
	authErr := authgate.FromProviderError(errors.New("Invalid login credentials"), "login")

	assert.Equal(t, authgate.ErrInvalidCredentials, authErr.Type)
	assert.Equal(t, authgate.SeverityLow, authErr.Severity)
	assert.False(t, authErr.Retryable)
}

func TestFromProviderErrorNetworkIsRetryable(t *testing.T) {
	authErr := authgate.FromProviderError(errors.New("network is unreachable"), "login")

	assert.Equal(t, authgate.ErrNetworkError, authErr.Type)
	assert.True(t, authErr.Retryable)
}

func TestFromProviderErrorPassesThroughAuthError(t *testing.T) {
	original := authgate.NewAuthError(authgate.ErrProfileNotFound, "missing", "gone", "op", nil)

	classified := authgate.FromProviderError(original, "other-op")

	assert.Same(t, original, classified)
}

func TestFromProviderErrorNeverFails(t *testing.T) {
	authErr := authgate.FromProviderError(nil, "nil-op")

	require.NotNil(t, authErr)
	assert.Equal(t, authgate.ErrUnknown, authErr.Type)
}

func TestWithCorrelationIDClones(t *testing.T) {
	original := authgate.NewAuthError(authgate.ErrUnknown, "msg", "user msg", "op", nil)

	tagged := original.WithCorrelationID("attempt-123")

	assert.Equal(t, "attempt-123", tagged.CorrelationID)
	assert.NotEqual(t, original.CorrelationID, tagged.CorrelationID)
}

func TestRichErrorMapping(t *testing.T) {
	authErr := authgate.NewAuthError(
		authgate.ErrInvalidCredentials,
		"bad password",
		"The email or password you entered is incorrect.",
		"login",
		nil,
	)

	rich := authErr.Rich()

	require.NotNil(t, rich)
	assert.Equal(t, goerrors.CategoryAuth, rich.Category)
	assert.Equal(t, "INVALID_CREDENTIALS", rich.TextCode)
	assert.Equal(t, "The email or password you entered is incorrect.", rich.Message)
}
