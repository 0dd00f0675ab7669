// Package session defines the revocation-state contract behind refresh
// tokens: one [Record] per session identifier, a three-state lifecycle, and
// the [Store] interface every backend must satisfy.
//
// # Lifecycle
//
// ACTIVE → ROTATED on successful rotation, ACTIVE → REVOKED on logout or
// explicit revoke. Both are terminal for verification purposes. Expiry is
// checked lazily by readers; there is no background sweep.
//
// # The rotation primitive
//
// [Store.Rotate] is the load-bearing operation: a single atomic conditional
// step that transitions the old record out of ACTIVE and installs the new
// ACTIVE record. Backends must guarantee that of N concurrent rotations on
// the same session exactly one succeeds and the rest observe [ErrConflict].
// Application-level locking is not an acceptable substitute.
//
// # Backends
//
// [Memory] lives here for embedding and tests. Redis and SQLite
// implementations live in the redisstore and sqlitestore subpackages.
//
// # Architecture boundaries
//
// This package never interprets tokens and never imports jwt or the root
// package.
package session
