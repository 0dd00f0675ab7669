// Package jwt issues and verifies the signed access and refresh tokens used
// by the mintauth Engine.
//
// # Token shape
//
// Both token kinds are standard three-segment JWS strings signed with
// HMAC-SHA256. The signing key for each kind is derived from the single
// configured secret with domain separation, so an access token can never
// verify as a refresh token (or the reverse) even before the embedded "typ"
// claim is inspected.
//
// # Verified vs unverified claims
//
// [Manager.VerifyAccess] and [Manager.VerifyRefresh] return claims only after
// signature and expiry checks pass. [Manager.Decode] returns a
// [*UnverifiedClaims] with no authenticity guarantee at all; the distinct type
// exists so unverified data cannot be passed where verified claims are
// expected.
//
// # Architecture boundaries
//
// This package owns token cryptography and parsing only. Session revocation
// state is the Engine's concern; this package never touches a store.
package jwt
