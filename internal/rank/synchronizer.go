package rank

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/SlpAus/ballpark-ranking-backend/internal/platform/metrics"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"
)

const userLockStripes = 64

// UserLister answers which user ids the account owner knows. The rebuild ranks exactly
// these users, and events are refused for ids it no longer knows.
type UserLister interface {
	AllUserIDs(ctx context.Context) ([]int64, error)
	Exists(ctx context.Context, userID int64) (bool, error)
}

// RebuildRecorder keeps a durable note of each successful full rebuild.
type RebuildRecorder interface {
	RecordRankRebuild(ctx context.Context, at time.Time, users int) error
}

// Synchronizer keeps the ledger and the cache consistent for one user across one event.
//
// The ledger write always completes before the cache is recomputed. The two stores are
// not updated atomically: a failure after the ledger write leaves the cache stale until
// the next event for that user or the next full rebuild.
type Synchronizer struct {
	ledger *Ledger
	cache  *Cache
	users  UserLister

	recorder RebuildRecorder

	// rebuildMu is held shared by events and exclusively by RebuildCache, so a rebuild
	// never publishes an aggregate read before a concurrent event's ledger write.
	rebuildMu sync.RWMutex
	// userLocks serialize events of the same user within this process.
	userLocks [userLockStripes]sync.Mutex
	rebuilds  singleflight.Group
}

func NewSynchronizer(ledger *Ledger, cache *Cache, users UserLister) *Synchronizer {
	return &Synchronizer{ledger: ledger, cache: cache, users: users}
}

// RecordRebuildsTo makes every later successful rebuild report to r.
func (s *Synchronizer) RecordRebuildsTo(r RebuildRecorder) {
	s.rebuildMu.Lock()
	s.recorder = r
	s.rebuildMu.Unlock()
}

func (s *Synchronizer) lockUser(userID int64) func() {
	s.rebuildMu.RLock()
	mu := &s.userLocks[uint64(userID)%userLockStripes]
	mu.Lock()
	return func() {
		mu.Unlock()
		s.rebuildMu.RUnlock()
	}
}

// OnAttendanceOutcomeChanged counts (added) or uncounts an attendance outcome, then
// republishes the user's team and total scores.
func (s *Synchronizer) OnAttendanceOutcomeChanged(ctx context.Context, userID, teamID int64, year int, outcome Outcome, added bool) error {
	unlock := s.lockUser(userID)
	defer unlock()

	if err := s.checkUser(ctx, userID); err != nil {
		return err
	}
	dir := DirectionRemove
	if added {
		dir = DirectionAdd
	}
	if err := s.apply(ctx, s.ledger, userID, teamID, year, outcome, dir); err != nil {
		return err
	}
	return s.republish(ctx, userID, teamID)
}

// OnOutcomeReplaced moves one attendance from prev to next: uncount prev, count next,
// then republish once.
func (s *Synchronizer) OnOutcomeReplaced(ctx context.Context, userID, teamID int64, year int, prev, next Outcome) error {
	unlock := s.lockUser(userID)
	defer unlock()

	if prev == next {
		return nil
	}
	if err := s.checkUser(ctx, userID); err != nil {
		return err
	}
	err := s.ledger.Transaction(ctx, func(tx *Ledger) error {
		if err := s.apply(ctx, tx, userID, teamID, year, prev, DirectionRemove); err != nil {
			return err
		}
		return s.apply(ctx, tx, userID, teamID, year, next, DirectionAdd)
	})
	if err != nil {
		return err
	}
	return s.republish(ctx, userID, teamID)
}

// OnUserCreated ranks a brand-new user at BaseScore in the total scope. Team scopes are
// filled on the user's first attendance for the team.
func (s *Synchronizer) OnUserCreated(ctx context.Context, userID int64) error {
	unlock := s.lockUser(userID)
	defer unlock()

	if err := s.cache.PublishScore(ctx, TotalScope(), userID, BaseScore); err != nil {
		metrics.RankSyncFailures.WithLabelValues("publish").Inc()
		return err
	}
	return nil
}

// OnUserDeleted removes the user from the total scope and every team in teamIDs. Ledger
// rows are deleted together with the user by the account owner.
func (s *Synchronizer) OnUserDeleted(ctx context.Context, userID int64, teamIDs []int64) error {
	unlock := s.lockUser(userID)
	defer unlock()

	return s.unpublish(ctx, userID, teamIDs)
}

// DeleteUser runs purge, which deletes the account with its ledger rows, and then drops
// the user from every scope. The user's lock is held throughout, so an event queued for
// the user runs after purge and is refused with ErrUnknownUser.
func (s *Synchronizer) DeleteUser(ctx context.Context, userID int64, purge func(ctx context.Context) error) error {
	unlock := s.lockUser(userID)
	defer unlock()

	teamIDs, err := s.ledger.TeamIDsForUser(ctx, userID)
	if err != nil {
		return err
	}
	if err := purge(ctx); err != nil {
		return err
	}
	return s.unpublish(ctx, userID, teamIDs)
}

func (s *Synchronizer) unpublish(ctx context.Context, userID int64, teamIDs []int64) error {
	if err := s.cache.RemoveUserFromAllScopes(ctx, userID, teamIDs); err != nil {
		metrics.RankSyncFailures.WithLabelValues("remove").Inc()
		return err
	}
	return nil
}

func (s *Synchronizer) checkUser(ctx context.Context, userID int64) error {
	ok, err := s.users.Exists(ctx, userID)
	if err != nil {
		metrics.RankSyncFailures.WithLabelValues("ledger").Inc()
		return fmt.Errorf("%w: user %d lookup: %v", ErrStoreUnavailable, userID, err)
	}
	if !ok {
		return fmt.Errorf("%w: %d", ErrUnknownUser, userID)
	}
	return nil
}

func (s *Synchronizer) apply(ctx context.Context, ledger *Ledger, userID, teamID int64, year int, outcome Outcome, dir Direction) error {
	var err error
	if dir == DirectionAdd {
		err = ledger.InsertIfAbsent(ctx, userID, teamID, year)
	}
	if err == nil {
		err = ledger.Adjust(ctx, userID, teamID, year, outcome, dir)
	}
	if err != nil {
		metrics.RankSyncFailures.WithLabelValues("ledger").Inc()
		if errors.Is(err, ErrNegativeCounter) {
			log.Ctx(ctx).Error().Err(err).
				Int64("user_id", userID).
				Int64("team_id", teamID).
				Int("year", year).
				Str("outcome", string(outcome)).
				Msg("rank ledger out of step with attendance records")
		}
		return err
	}
	metrics.RankSyncEvents.WithLabelValues(string(outcome), dir.String()).Inc()
	return nil
}

func (s *Synchronizer) republish(ctx context.Context, userID, teamID int64) error {
	teamCounts, err := s.ledger.AggregateForUserAndTeam(ctx, userID, teamID)
	if err != nil {
		metrics.RankSyncFailures.WithLabelValues("aggregate").Inc()
		return err
	}
	totalCounts, err := s.ledger.AggregateForUser(ctx, userID)
	if err != nil {
		metrics.RankSyncFailures.WithLabelValues("aggregate").Inc()
		return err
	}

	err = s.cache.PublishScores(ctx, userID, map[Scope]float64{
		TeamScope(teamID): Score(teamCounts),
		TotalScope():      Score(totalCounts),
	})
	if err != nil {
		metrics.RankSyncFailures.WithLabelValues("publish").Inc()
		log.Ctx(ctx).Warn().Err(err).Int64("user_id", userID).Msg("rank cache left stale until next event or rebuild")
		return err
	}
	return nil
}
