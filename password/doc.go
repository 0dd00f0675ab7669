// Package password implements password hashing, verification, and strength
// policy with Argon2id defaults.
//
// # Output format
//
// Hashes are encoded in PHC string format:
//
//	$argon2id$v=19$m=<memory>,t=<time>,p=<threads>$<salt>$<hash>
//
// A fresh random salt is drawn on every call, so hashing the same plaintext
// twice never yields the same string. Comparison recomputes the hash with the
// stored parameters and uses a constant-time equality check.
//
// [Hasher.NeedsRehash] reports whether a stored hash was produced with weaker
// parameters than the current configuration, so callers can re-hash on the
// next successful login.
//
// # Policy
//
// [Policy.Validate] enforces strength rules independently and additively:
// every violated rule is reported, in rule order, not just the first. Policy
// has no knowledge of hashing; callers validate before hashing, never the
// reverse.
//
// # Architecture boundaries
//
//   - Plaintext is never stored or logged; callers supply it and receive hashes.
//   - No other mintauth package is imported.
package password
