// Package authgate resolves who is calling a marketplace request, against a
// hosted auth provider, through multiple credential strategies.
//
// Strategy walk:
//   - Strategies (bearer token, cookie session, service role) implement a
//     uniform Verify contract and are walked in fixed priority order; the
//     first success wins and lower-priority strategies are never invoked.
//     A per-strategy circuit breaker skips paths that keep failing.
//
// Profile self-healing:
//   - Every successful verification guarantees an application profile row
//     exists for the principal. Missing rows (signup completed at the
//     provider, application row absent) are recreated from signup metadata,
//     idempotently and race-safe under concurrent duplicate inserts.
//
// Edge middleware:
//   - EdgeAuthenticator wraps the same resolution for the request pipeline,
//     writes refreshed session tokens back to the response, and computes
//     onboarding-aware redirects (DetermineRedirect) from the profile's role
//     and step counter. Failures become structured results, never panics.
//
// Telemetry:
//   - Collector buffers classified AuthErrors and performance metrics in
//     bounded queues behind an injectable Sink, with ULID correlation IDs
//     tying together every log line of one authentication attempt.
package authgate
