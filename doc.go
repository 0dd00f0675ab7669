// Package mintauth issues and validates identity credentials for multi-tenant
// services: short-lived JWT access tokens, long-lived rotating refresh tokens
// with per-session revocation, and Argon2id password hashing with strength
// policy.
//
// The package is designed for concurrent server workloads: Engine methods are
// safe to call from multiple goroutines after initialization through
// [Builder.Build].
//
// # Architecture boundaries
//
// mintauth is the public surface. It exposes [Engine], [Builder], [Config],
// the typed error set, and value types ([Identity], [TokenPair],
// MetricsSnapshot). Token cryptography lives in the jwt subpackage, hashing
// and policy in password, and revocation state behind the session.Store
// contract with Redis, SQLite, and in-memory implementations.
//
// # What this package must NOT do
//
//   - Perform HTTP I/O, extract bearer tokens from requests, or format wire
//     errors — those belong to the host application.
//   - Log on request paths; the only logging is the Warn hook for best-effort
//     background failures.
//   - Retry internally. Every failure returns synchronously as a typed error;
//     retry policy belongs to the caller.
//
// # Security contract
//
// Refresh-token verification is never purely cryptographic: a signature-valid
// token is only accepted if its session record is still ACTIVE, so a leaked
// signing secret cannot resurrect a revoked session. Rotation is an atomic
// compare-and-swap in the store; of N concurrent rotations on one session
// exactly one succeeds and the rest fail with [ErrRevoked].
package mintauth
