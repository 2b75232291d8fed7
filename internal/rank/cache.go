package rank

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"
)

// Entry is one member of a scope's sorted set.
type Entry struct {
	UserID int64
	Score  float64
}

// Cache is the Redis projection of the ledger: one sorted set per scope. Scores are
// stored quantized by CacheScore.
type Cache struct {
	rdb redis.Cmdable
}

func NewCache(rdb redis.Cmdable) *Cache {
	return &Cache{rdb: rdb}
}

func cacheErr(op string, err error) error {
	return fmt.Errorf("%w: %s: %v", ErrCacheUnavailable, op, err)
}

// PublishScore upserts the user's score in the scope.
func (c *Cache) PublishScore(ctx context.Context, scope Scope, userID int64, score float64) error {
	z := redis.Z{Score: CacheScore(score), Member: member(userID)}
	if err := c.rdb.ZAdd(ctx, scope.key(), z).Err(); err != nil {
		return cacheErr("publish "+scope.String(), err)
	}
	return nil
}

// PublishScores upserts the user's score in several scopes in one round trip.
func (c *Cache) PublishScores(ctx context.Context, userID int64, scores map[Scope]float64) error {
	_, err := c.rdb.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		for scope, score := range scores {
			pipe.ZAdd(ctx, scope.key(), redis.Z{Score: CacheScore(score), Member: member(userID)})
		}
		return nil
	})
	if err != nil {
		return cacheErr("publish scores", err)
	}
	return nil
}

// RemoveUser removes the user from one scope.
func (c *Cache) RemoveUser(ctx context.Context, scope Scope, userID int64) error {
	if err := c.rdb.ZRem(ctx, scope.key(), member(userID)).Err(); err != nil {
		return cacheErr("remove from "+scope.String(), err)
	}
	return nil
}

// RemoveUserFromAllScopes removes the user from the total scope and every listed team.
func (c *Cache) RemoveUserFromAllScopes(ctx context.Context, userID int64, teamIDs []int64) error {
	m := member(userID)
	_, err := c.rdb.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.ZRem(ctx, TotalScope().key(), m)
		for _, teamID := range teamIDs {
			pipe.ZRem(ctx, TeamScope(teamID).key(), m)
		}
		return nil
	})
	if err != nil {
		return cacheErr("remove from all scopes", err)
	}
	return nil
}

// Rank returns the user's 0-based rank in the scope, highest score first. ok is false
// when the user is not in the scope.
func (c *Cache) Rank(ctx context.Context, scope Scope, userID int64) (rank int64, ok bool, err error) {
	rank, err = c.rdb.ZRevRank(ctx, scope.key(), member(userID)).Result()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, cacheErr("rank in "+scope.String(), err)
	}
	return rank, true, nil
}

// Range returns ranks start..end inclusive, highest score first. end = -1 means the last
// member.
func (c *Cache) Range(ctx context.Context, scope Scope, start, end int64) ([]Entry, error) {
	zs, err := c.rdb.ZRevRangeWithScores(ctx, scope.key(), start, end).Result()
	if err != nil {
		return nil, cacheErr("range "+scope.String(), err)
	}
	return toEntries(zs)
}

// Count returns the number of users ranked in the scope.
func (c *Cache) Count(ctx context.Context, scope Scope) (int64, error) {
	n, err := c.rdb.ZCard(ctx, scope.key()).Result()
	if err != nil {
		return 0, cacheErr("count "+scope.String(), err)
	}
	return n, nil
}

// ReplaceAll swaps every scope's sorted set for the given projection in one MULTI/EXEC,
// so readers see either the old sets or the new ones. Scopes absent from sets end up
// empty.
func (c *Cache) ReplaceAll(ctx context.Context, sets map[Scope][]Entry) error {
	var stale []string
	iter := c.rdb.Scan(ctx, 0, scopeKeyPat, 500).Iterator()
	for iter.Next(ctx) {
		stale = append(stale, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return cacheErr("scan scopes", err)
	}

	_, err := c.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		if len(stale) > 0 {
			pipe.Del(ctx, stale...)
		}
		for scope, entries := range sets {
			if len(entries) == 0 {
				continue
			}
			zs := make([]redis.Z, len(entries))
			for i, e := range entries {
				zs[i] = redis.Z{Score: CacheScore(e.Score), Member: member(e.UserID)}
			}
			pipe.ZAdd(ctx, scope.key(), zs...)
		}
		return nil
	})
	if err != nil {
		return cacheErr("replace all", err)
	}
	return nil
}

func toEntries(zs []redis.Z) ([]Entry, error) {
	entries := make([]Entry, 0, len(zs))
	for _, z := range zs {
		s, ok := z.Member.(string)
		if !ok {
			return nil, fmt.Errorf("%w: unexpected member type %T", ErrCacheUnavailable, z.Member)
		}
		userID, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: malformed member %q", ErrCacheUnavailable, s)
		}
		entries = append(entries, Entry{UserID: userID, Score: z.Score})
	}
	return entries, nil
}
