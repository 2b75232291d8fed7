package rank

import (
	"context"
	"fmt"
)

// Profile is the display data of a ranked user.
type Profile struct {
	Nickname     *string
	ProfileImage *string
}

// ProfileLookup resolves display data for many users at once. Users missing from the
// result are shown without display fields.
type ProfileLookup interface {
	ProfilesByIDs(ctx context.Context, userIDs []int64) (map[int64]Profile, error)
}

// RankedUser is one leaderboard line.
type RankedUser struct {
	Rank         int64   `json:"rank"`
	UserID       int64   `json:"userId"`
	Nickname     *string `json:"nickname"`
	ProfileImage *string `json:"profileImage"`
	Score        float64 `json:"score"`
}

// Stats is a user's overall record read straight from the ledger.
type Stats struct {
	UserID int64 `json:"userId"`
	Counts
	Games int     `json:"games"`
	Score float64 `json:"score"`
}

// Service answers leaderboard queries from the cache and stats queries from the ledger.
type Service struct {
	ledger   *Ledger
	cache    *Cache
	profiles ProfileLookup
}

func NewService(ledger *Ledger, cache *Cache, profiles ProfileLookup) *Service {
	return &Service{ledger: ledger, cache: cache, profiles: profiles}
}

// LeaderboardPage returns ranks start..end of the scope (end = -1: to the end).
func (s *Service) LeaderboardPage(ctx context.Context, scope Scope, start, end int64) ([]RankedUser, error) {
	entries, err := s.cache.Range(ctx, scope, start, end)
	if err != nil {
		return nil, err
	}
	return s.hydrate(ctx, entries, start)
}

// ScopeSize returns how many users are ranked in the scope.
func (s *Service) ScopeSize(ctx context.Context, scope Scope) (int64, error) {
	return s.cache.Count(ctx, scope)
}

// UserWithNeighbors returns the user and up to window users on each side. A user who is
// not ranked in the scope gets an empty result.
func (s *Service) UserWithNeighbors(ctx context.Context, userID int64, scope Scope, window int64) ([]RankedUser, error) {
	rank, ok, err := s.cache.Rank(ctx, scope, userID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return []RankedUser{}, nil
	}
	if window < 0 {
		window = 0
	}

	start := rank - window
	if start < 0 {
		start = 0
	}
	entries, err := s.cache.Range(ctx, scope, start, rank+window)
	if err != nil {
		return nil, err
	}
	return s.hydrate(ctx, entries, start)
}

// UserOverallStats reads the user's aggregate directly from the ledger.
func (s *Service) UserOverallStats(ctx context.Context, userID int64) (Stats, error) {
	counts, err := s.ledger.AggregateForUser(ctx, userID)
	if err != nil {
		return Stats{}, err
	}
	return Stats{
		UserID: userID,
		Counts: counts,
		Games:  counts.Games(),
		Score:  Score(counts),
	}, nil
}

func (s *Service) hydrate(ctx context.Context, entries []Entry, startRank int64) ([]RankedUser, error) {
	ranked := make([]RankedUser, len(entries))
	if len(entries) == 0 {
		return ranked, nil
	}

	ids := make([]int64, len(entries))
	for i, e := range entries {
		ids[i] = e.UserID
	}
	profiles, err := s.profiles.ProfilesByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load profiles: %w", err)
	}

	for i, e := range entries {
		p := profiles[e.UserID]
		ranked[i] = RankedUser{
			Rank:         startRank + int64(i),
			UserID:       e.UserID,
			Nickname:     p.Nickname,
			ProfileImage: p.ProfileImage,
			Score:        e.Score,
		}
	}
	return ranked, nil
}
