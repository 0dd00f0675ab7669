// Package redisstore implements the session.Store contract on Redis.
//
// Records are stored one key per session with a TTL matching the refresh
// token's lifetime, so terminal tombstones (ROTATED, REVOKED) survive exactly
// as long as the token they guard against. Rotation and revocation run as Lua
// scripts: Redis executes scripts serially, which is what makes the
// ACTIVE→ROTATED transition a true compare-and-swap.
package redisstore

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mintauth/mintauth/session"
)

const (
	rotateStatusNotFound  int64 = 0
	rotateStatusConflict  int64 = 1
	rotateStatusDuplicate int64 = 2
	rotateStatusRotated   int64 = 3
)

// rotateScript: KEYS[1]=old session key, KEYS[2]=new session key,
// KEYS[3]=user index key. ARGV[1]=new record value, ARGV[2]=new TTL millis,
// ARGV[3]=new session id. The old record keeps its remaining TTL so the
// tombstone outlives the superseded token.
const rotateScript = `
local old = redis.call("GET", KEYS[1])
if not old then
  return 0
end
if string.sub(old, 1, 1) ~= "0" then
  return 1
end
if redis.call("EXISTS", KEYS[2]) == 1 then
  return 2
end

local ttl = redis.call("PTTL", KEYS[1])
if ttl <= 0 then
  ttl = 1
end

redis.call("SET", KEYS[1], "1" .. string.sub(old, 2), "PX", ttl)
redis.call("SET", KEYS[2], ARGV[1], "PX", tonumber(ARGV[2]))
redis.call("SADD", KEYS[3], ARGV[3])
redis.call("PEXPIRE", KEYS[3], tonumber(ARGV[2]))
return 3
`

var rotateLua = redis.NewScript(rotateScript)

// revokeScript flips the status byte of an ACTIVE record to REVOKED while
// preserving the remaining TTL. Missing or already-terminal records are a
// no-op so revocation stays idempotent and never overwrites a ROTATED
// tombstone.
const revokeScript = `
local cur = redis.call("GET", KEYS[1])
if not cur then
  return 0
end
if string.sub(cur, 1, 1) ~= "0" then
  return 0
end

local ttl = redis.call("PTTL", KEYS[1])
if ttl <= 0 then
  ttl = 1
end

redis.call("SET", KEYS[1], "2" .. string.sub(cur, 2), "PX", ttl)
return 1
`

var revokeLua = redis.NewScript(revokeScript)

// Store is a Redis-backed session.Store.
type Store struct {
	redis  redis.UniversalClient
	prefix string
}

// New returns a Store using client under the given key prefix.
func New(client redis.UniversalClient, prefix string) *Store {
	if prefix == "" {
		prefix = "mintauth"
	}
	return &Store{redis: client, prefix: prefix}
}

func (s *Store) sessionKey(sessionID string) string {
	return s.prefix + ":s:" + sessionID
}

func (s *Store) userKey(userID string) string {
	return s.prefix + ":u:" + userID
}

// Create installs a new ACTIVE record with SET NX so session IDs are never
// reused, then indexes it under the owning user.
func (s *Store) Create(ctx context.Context, rec session.Record) error {
	ttl := time.Until(rec.ExpiresAt)
	if ttl <= 0 {
		ttl = time.Millisecond
	}

	ok, err := s.redis.SetNX(ctx, s.sessionKey(rec.SessionID), encode(rec), ttl).Result()
	if err != nil {
		return fmt.Errorf("%w: %v", session.ErrUnavailable, err)
	}
	if !ok {
		return session.ErrDuplicateID
	}

	_, err = s.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.SAdd(ctx, s.userKey(rec.UserID), rec.SessionID)
		pipe.PExpire(ctx, s.userKey(rec.UserID), ttl)
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: %v", session.ErrUnavailable, err)
	}
	return nil
}

// Get returns the record for sessionID. Keys expire with the token they
// guard, so a vanished record reads as session.ErrNotFound.
func (s *Store) Get(ctx context.Context, sessionID string) (*session.Record, error) {
	val, err := s.redis.Get(ctx, s.sessionKey(sessionID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, session.ErrNotFound
		}
		return nil, fmt.Errorf("%w: %v", session.ErrUnavailable, err)
	}

	rec, err := decode(sessionID, val)
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// Rotate runs the CAS script. Exactly one of N concurrent calls on the same
// oldSessionID reaches the ACTIVE record first; the rest observe the ROTATED
// tombstone and fail with session.ErrConflict.
func (s *Store) Rotate(ctx context.Context, oldSessionID string, next session.Record) error {
	ttl := time.Until(next.ExpiresAt)
	if ttl <= 0 {
		ttl = time.Millisecond
	}

	code, err := rotateLua.Run(
		ctx,
		s.redis,
		[]string{s.sessionKey(oldSessionID), s.sessionKey(next.SessionID), s.userKey(next.UserID)},
		encode(next),
		ttl.Milliseconds(),
		next.SessionID,
	).Int64()
	if err != nil {
		return fmt.Errorf("%w: %v", session.ErrUnavailable, err)
	}

	switch code {
	case rotateStatusNotFound:
		return session.ErrNotFound
	case rotateStatusConflict:
		return session.ErrConflict
	case rotateStatusDuplicate:
		return session.ErrDuplicateID
	case rotateStatusRotated:
		return nil
	default:
		return fmt.Errorf("%w: unknown rotate script status %d", session.ErrUnavailable, code)
	}
}

// Revoke marks sessionID REVOKED, preserving the tombstone TTL. Idempotent.
func (s *Store) Revoke(ctx context.Context, sessionID string) error {
	if _, err := revokeLua.Run(ctx, s.redis, []string{s.sessionKey(sessionID)}).Result(); err != nil {
		return fmt.Errorf("%w: %v", session.ErrUnavailable, err)
	}
	return nil
}

// RevokeAllForUser revokes every indexed session of userID.
//
// ATOMICITY NOTE: this operation is not fully atomic. It reads the user's
// session index (SMembers) and then revokes each session individually; a
// session created between the read and the revocations is not captured. The
// race window only affects logout-all semantics and the stray session expires
// naturally or is caught by a repeat call.
func (s *Store) RevokeAllForUser(ctx context.Context, userID string) error {
	sessionIDs, err := s.redis.SMembers(ctx, s.userKey(userID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil
		}
		return fmt.Errorf("%w: %v", session.ErrUnavailable, err)
	}

	for _, sessionID := range sessionIDs {
		if err := s.Revoke(ctx, sessionID); err != nil {
			return err
		}
	}
	return nil
}

// encode packs a record as "<status><sep>userID<sep>expiresUnixMilli" with the
// status digit in the first byte, which is all the Lua scripts need to read.
func encode(rec session.Record) string {
	return strconv.Itoa(int(rec.Status)) + "|" + rec.UserID + "|" + strconv.FormatInt(rec.ExpiresAt.UnixMilli(), 10)
}

func decode(sessionID, val string) (*session.Record, error) {
	// User IDs may contain the separator, so split from both ends.
	if len(val) < 2 || val[1] != '|' {
		return nil, fmt.Errorf("%w: corrupt session value", session.ErrUnavailable)
	}
	last := strings.LastIndexByte(val, '|')
	if last <= 1 {
		return nil, fmt.Errorf("%w: corrupt session value", session.ErrUnavailable)
	}

	status, err := strconv.Atoi(val[:1])
	if err != nil || status > int(session.StatusRevoked) {
		return nil, fmt.Errorf("%w: corrupt session status", session.ErrUnavailable)
	}
	expiresMilli, err := strconv.ParseInt(val[last+1:], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: corrupt session expiry", session.ErrUnavailable)
	}

	return &session.Record{
		SessionID: sessionID,
		UserID:    val[2:last],
		Status:    session.Status(status),
		ExpiresAt: time.UnixMilli(expiresMilli),
	}, nil
}
