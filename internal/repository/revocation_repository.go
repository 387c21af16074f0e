package repository

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// RevocationRepo keeps a per-username token generation in Redis.  Every
// revocation increments it; a token carries the generation current when it
// was issued and stays acceptable while that generation is not lower than
// the stored one.  The key lives at least ttl past the last revocation or
// issue, ttl being the token lifetime, so no live token can outlast it.  A
// nil client turns every call into a no-op returning generation 0.
type RevocationRepo struct {
	rdb    *redis.Client
	prefix string
	ttl    time.Duration
}

func NewRevocationRepo(rdb *redis.Client, prefix string, ttl time.Duration) *RevocationRepo {
	if prefix == "" {
		prefix = "revoked"
	}
	return &RevocationRepo{rdb: rdb, prefix: prefix, ttl: ttl}
}

// Enabled reports whether a Redis client backs the list.
func (r *RevocationRepo) Enabled() bool { return r != nil && r.rdb != nil }

func (r *RevocationRepo) key(username string) string { return r.prefix + ":" + username }

// Revoke invalidates every token issued for username so far.
func (r *RevocationRepo) Revoke(ctx context.Context, username string) error {
	if !r.Enabled() {
		return nil
	}
	key := r.key(username)
	pipe := r.rdb.TxPipeline()
	pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, r.ttl)
	_, err := pipe.Exec(ctx)
	return err
}

// Generation returns the stored generation for username, 0 when none.
func (r *RevocationRepo) Generation(ctx context.Context, username string) (int64, error) {
	if !r.Enabled() {
		return 0, nil
	}
	return parseGeneration(r.rdb.Get(ctx, r.key(username)).Result())
}

// IssueGeneration is Generation for a token about to be issued.  It pushes
// the key's expiry out by ttl so the key outlives the new token.
func (r *RevocationRepo) IssueGeneration(ctx context.Context, username string) (int64, error) {
	if !r.Enabled() {
		return 0, nil
	}
	return parseGeneration(r.rdb.GetEx(ctx, r.key(username), r.ttl).Result())
}

func parseGeneration(v string, err error) (int64, error) {
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return strconv.ParseInt(v, 10, 64)
}
