package authgate

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/goliatone/go-router"
)

// ProfileResolution is the outcome of EnsureProfile: the profile plus how it
// was obtained.
type ProfileResolution struct {
	Profile *Profile
	// Created is true when this call inserted the row.
	Created bool
	// Recovered is true when a concurrent request won the insert race and
	// the row was re-fetched instead.
	Recovered bool
}

// Service coordinates the credential strategies: it walks them in priority
// order, skips open circuits, records breaker outcomes, and on the first
// success guarantees an application profile exists for the principal.
type Service struct {
	strategies []Strategy
	breaker    *CircuitBreaker
	profiles   Profiles
	admin      AdminClient
	collector  *Collector
	logger     Logger
}

type ServiceOption func(*Service)

func WithStrategies(strategies ...Strategy) ServiceOption {
	return func(s *Service) {
		s.strategies = append(s.strategies, strategies...)
	}
}

func WithBreaker(cb *CircuitBreaker) ServiceOption {
	return func(s *Service) {
		if cb != nil {
			s.breaker = cb
		}
	}
}

func WithCollector(c *Collector) ServiceOption {
	return func(s *Service) {
		if c != nil {
			s.collector = c
		}
	}
}

func WithLogger(l Logger) ServiceOption {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewService wires the orchestrator. Strategies are sorted descending by
// priority once, here; the order never changes at runtime.
func NewService(profiles Profiles, admin AdminClient, opts ...ServiceOption) *Service {
	s := &Service{
		profiles:  profiles,
		admin:     admin,
		breaker:   NewCircuitBreaker(),
		collector: NewCollector(),
		logger:    defLogger{},
	}

	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}

	sort.SliceStable(s.strategies, func(i, j int) bool {
		return s.strategies[i].Priority() > s.strategies[j].Priority()
	})

	return s
}

// Strategies exposes the resolved priority order, mainly for logs and tests.
func (s *Service) Strategies() []string {
	names := make([]string, 0, len(s.strategies))
	for _, st := range s.strategies {
		names = append(names, st.Name())
	}
	return names
}

// Breaker exposes the circuit breaker shared with the edge layer.
func (s *Service) Breaker() *CircuitBreaker { return s.breaker }

// Authenticate walks the strategies in priority order and returns the first
// success, with the principal's profile attached. A strategy's infrastructure
// error feeds the breaker and the walk continues; one failing strategy never
// aborts the whole attempt.
func (s *Service) Authenticate(ctx context.Context, rc router.Context) *AuthResult {
	corrID := NewCorrelationID()
	started := time.Now()

	s.logger.Debug("authentication attempt", "correlation_id", corrID, "strategies", len(s.strategies))

	for _, strategy := range s.strategies {
		if s.breaker.IsOpen(strategy.Name()) {
			s.logger.Warn("strategy skipped, circuit open",
				"strategy", strategy.Name(), "correlation_id", corrID)
			continue
		}

		result, err := s.verifyStrategy(ctx, strategy, rc)
		if err != nil {
			s.breaker.RecordFailure(strategy.Name())
			authErr := FromProviderError(err, "strategy:"+strategy.Name()).WithCorrelationID(corrID)
			s.collector.Error(ctx, authErr)
			s.logger.Error("strategy verification failed",
				"strategy", strategy.Name(),
				"type", string(authErr.Type),
				"correlation_id", corrID)
			continue
		}

		if result == nil || !result.Success || result.User == nil {
			continue
		}

		s.breaker.RecordSuccess(strategy.Name())

		resolution, err := s.EnsureProfile(ctx, result.User, corrID)
		if err != nil {
			authErr := FromProviderError(err, "ensure-profile").WithCorrelationID(corrID)
			s.collector.Error(ctx, authErr)
			s.logger.Error("profile resolution failed",
				"user_id", result.User.ID.String(), "correlation_id", corrID)
			return &AuthResult{
				Success:  false,
				Strategy: strategy.Name(),
				Error:    authErr,
			}
		}

		result.Profile = resolution.Profile
		result.Strategy = strategy.Name()

		s.collector.Metric(ctx, Metric{
			Operation:     "authenticate",
			Duration:      time.Since(started),
			Success:       true,
			CorrelationID: corrID,
			Timestamp:     time.Now(),
			Metadata: map[string]any{
				"strategy":          strategy.Name(),
				"profile_created":   resolution.Created,
				"profile_recovered": resolution.Recovered,
			},
		})
		s.logger.Info("authentication succeeded",
			"strategy", strategy.Name(),
			"user_id", result.User.ID.String(),
			"correlation_id", corrID)

		return result
	}

	authErr := NewAuthError(
		ErrInvalidCredentials,
		"all authentication strategies failed",
		"We could not verify your identity. Please sign in again.",
		"authenticate",
		map[string]any{"strategies": s.Strategies()},
	).WithCorrelationID(corrID)

	s.collector.Error(ctx, authErr)
	s.collector.Metric(ctx, Metric{
		Operation:     "authenticate",
		Duration:      time.Since(started),
		Success:       false,
		CorrelationID: corrID,
		Timestamp:     time.Now(),
	})

	return &AuthResult{Success: false, Error: authErr}
}

// verifyStrategy isolates a single strategy call so a panicking SDK cannot
// take down the walk.
func (s *Service) verifyStrategy(ctx context.Context, strategy Strategy, rc router.Context) (result *AuthResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			result = nil
			err = fmt.Errorf("strategy %s panicked: %v", strategy.Name(), r)
		}
	}()
	return strategy.Verify(ctx, rc)
}

// EnsureProfile guarantees a profile row exists for the principal, creating
// one from provider signup metadata when missing. Signup succeeding at the
// provider while the application row is missing is the exact gap this heals.
// The insert race with a concurrent request resolves by re-fetching on a
// duplicate-key conflict, so both callers see a valid profile.
func (s *Service) EnsureProfile(ctx context.Context, user *Principal, corrID string) (*ProfileResolution, error) {
	profile, err := s.profiles.GetByPrincipal(ctx, user.ID)
	if err == nil {
		return &ProfileResolution{Profile: profile}, nil
	}
	if !IsProfileNotFound(err) {
		return nil, err
	}

	s.logger.Warn("profile missing, recovering",
		"user_id", user.ID.String(), "correlation_id", corrID)

	return s.recoverOrCreateProfile(ctx, user, corrID)
}

func (s *Service) recoverOrCreateProfile(ctx context.Context, user *Principal, corrID string) (*ProfileResolution, error) {
	source := user
	if s.admin != nil {
		// The admin API sees the full signup metadata even when the token's
		// claims were minted before the metadata was set.
		if full, err := s.admin.GetUser(ctx, user.ID); err == nil && full != nil {
			source = full
		} else if err != nil {
			s.logger.Warn("admin user lookup failed, using token principal",
				"user_id", user.ID.String(), "correlation_id", corrID)
		}
	}

	record := NewProfileFromPrincipal(source)

	created, err := s.profiles.Create(ctx, record)
	if err != nil {
		if IsDuplicateKeyError(err) {
			existing, fetchErr := s.profiles.GetByPrincipal(ctx, user.ID)
			if fetchErr != nil {
				return nil, fetchErr
			}
			s.logger.Info("profile created concurrently, recovered",
				"user_id", user.ID.String(), "correlation_id", corrID)
			return &ProfileResolution{Profile: existing, Recovered: true}, nil
		}
		return nil, err
	}

	s.logger.Info("profile created",
		"user_id", user.ID.String(),
		"role", created.Role,
		"correlation_id", corrID)

	return &ProfileResolution{Profile: created, Created: true}, nil
}
