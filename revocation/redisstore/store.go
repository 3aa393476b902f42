// Package redisstore is a Redis-backed revocation.Store.
//
// Each entry is a string key holding the expiry in unix milliseconds, with a
// native TTL at that instant. A sorted set indexes fingerprints by expiry so
// sweeps never need SCAN.
//
// Every key carries the hash tag "{prefix}", so entries and the index share
// one slot and the scripts run unchanged on Redis Cluster. All keys a script
// touches are passed through KEYS.
package redisstore

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/MrEthical07/taskauth/revocation"
	"github.com/redis/go-redis/v9"
)

const (
	defaultPrefix    = "rv"
	defaultSweepSize = 500
)

const insertScript = `
local created = redis.call("SET", KEYS[1], ARGV[1], "NX")
if not created then
  return 0
end
redis.call("PEXPIRE", KEYS[1], tonumber(ARGV[2]))
redis.call("ZADD", KEYS[2], ARGV[1], ARGV[3])
return 1
`

var insertLua = redis.NewScript(insertScript)

// KEYS[1] is the index, KEYS[2..] the entry keys of the fingerprints in ARGV.
const sweepScript = `
redis.call("DEL", unpack(KEYS, 2))
return redis.call("ZREM", KEYS[1], unpack(ARGV))
`

var sweepLua = redis.NewScript(sweepScript)

// Option customises a [Store].
type Option func(*Store)

// WithPrefix sets the key namespace. Default "rv".
func WithPrefix(prefix string) Option {
	return func(s *Store) {
		if prefix != "" {
			s.prefix = prefix
		}
	}
}

// WithClock sets the clock used to derive native key TTLs.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// WithSweepBatch bounds how many entries one sweep script call removes.
func WithSweepBatch(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.sweepBatch = n
		}
	}
}

// Store implements revocation.Store on Redis.
type Store struct {
	redis      redis.UniversalClient
	prefix     string
	now        func() time.Time
	sweepBatch int
}

// New returns a store using client.
func New(client redis.UniversalClient, opts ...Option) *Store {
	s := &Store{
		redis:      client,
		prefix:     defaultPrefix,
		now:        time.Now,
		sweepBatch: defaultSweepSize,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) InsertRevocation(ctx context.Context, fingerprint string, expiresAt time.Time) error {
	ttl := expiresAt.Sub(s.now()).Milliseconds()
	if ttl <= 0 {
		// Already stale: the ledger would treat it as absent anyway.
		return nil
	}

	created, err := insertLua.Run(ctx, s.redis,
		[]string{s.key(fingerprint), s.indexKey()},
		expiresAt.UnixMilli(), ttl, fingerprint,
	).Int64()
	if err != nil {
		return fmt.Errorf("%w: %v", revocation.ErrUnavailable, err)
	}
	if created == 0 {
		return revocation.ErrDuplicate
	}
	return nil
}

func (s *Store) FindRevocation(ctx context.Context, fingerprint string) (revocation.Entry, error) {
	raw, err := s.redis.Get(ctx, s.key(fingerprint)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return revocation.Entry{}, revocation.ErrNotFound
		}
		return revocation.Entry{}, fmt.Errorf("%w: %v", revocation.ErrUnavailable, err)
	}

	ms, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return revocation.Entry{}, fmt.Errorf("revocation entry %s corrupt: %w", fingerprint, err)
	}

	return revocation.Entry{
		Fingerprint: fingerprint,
		ExpiresAt:   time.UnixMilli(ms).UTC(),
	}, nil
}

func (s *Store) DeleteRevocation(ctx context.Context, fingerprint string) error {
	_, err := s.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, s.key(fingerprint))
		pipe.ZRem(ctx, s.indexKey(), fingerprint)
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: %v", revocation.ErrUnavailable, err)
	}
	return nil
}

func (s *Store) DeleteExpiredRevocations(ctx context.Context, now time.Time) (int64, error) {
	var total int64
	upper := strconv.FormatInt(now.UnixMilli(), 10)
	for {
		expired, err := s.redis.ZRangeByScore(ctx, s.indexKey(), &redis.ZRangeBy{
			Min:   "-inf",
			Max:   upper,
			Count: int64(s.sweepBatch),
		}).Result()
		if err != nil {
			return total, fmt.Errorf("%w: %v", revocation.ErrUnavailable, err)
		}
		if len(expired) == 0 {
			return total, nil
		}

		keys := make([]string, 0, len(expired)+1)
		args := make([]interface{}, 0, len(expired))
		keys = append(keys, s.indexKey())
		for _, fp := range expired {
			keys = append(keys, s.key(fp))
			args = append(args, fp)
		}

		removed, err := sweepLua.Run(ctx, s.redis, keys, args...).Int64()
		if err != nil {
			return total, fmt.Errorf("%w: %v", revocation.ErrUnavailable, err)
		}
		total += removed
		if len(expired) < s.sweepBatch {
			return total, nil
		}
	}
}

func (s *Store) key(fingerprint string) string {
	return "{" + s.prefix + "}:" + fingerprint
}

func (s *Store) indexKey() string {
	return "{" + s.prefix + "}:exp"
}
