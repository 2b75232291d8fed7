package rank

import (
	"context"
	"time"

	"github.com/SlpAus/ballpark-ranking-backend/internal/platform/metrics"
	"github.com/SlpAus/ballpark-ranking-backend/pkg/lifecycle"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// RebuildCache recomputes every scope from the ledger and swaps it into Redis. Users
// without ledger rows are ranked at BaseScore in the total scope. Events wait while a
// rebuild runs; concurrent rebuild requests share one run.
func (s *Synchronizer) RebuildCache(ctx context.Context) error {
	_, err, _ := s.rebuilds.Do("rebuild", func() (interface{}, error) {
		return nil, s.rebuild(ctx)
	})
	return err
}

func (s *Synchronizer) rebuild(ctx context.Context) error {
	s.rebuildMu.Lock()
	defer s.rebuildMu.Unlock()

	start := time.Now()
	var (
		aggregates []TeamAggregate
		userIDs    []int64
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		aggregates, err = s.ledger.AggregateAll(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		userIDs, err = s.users.AllUserIDs(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		metrics.RankRebuildFailures.Inc()
		return err
	}

	sets := Project(aggregates, userIDs)
	if err := s.cache.ReplaceAll(ctx, sets); err != nil {
		metrics.RankRebuildFailures.Inc()
		return err
	}

	elapsed := time.Since(start)
	metrics.RankRebuildDuration.Observe(elapsed.Seconds())
	log.Info().
		Int("users", len(userIDs)).
		Int("scopes", len(sets)).
		Dur("elapsed", elapsed).
		Msg("ranking cache rebuilt from ledger")

	if s.recorder != nil {
		if err := s.recorder.RecordRankRebuild(ctx, start, len(userIDs)); err != nil {
			log.Warn().Err(err).Msg("could not record rank rebuild")
		}
	}
	return nil
}

// Project computes the content of every scope from per-(user, team) aggregates. Every
// id in userIDs appears in the total scope; team scopes hold only users with rows there.
// Aggregates of users missing from userIDs are dropped.
func Project(aggregates []TeamAggregate, userIDs []int64) map[Scope][]Entry {
	totals := make(map[int64]Counts, len(userIDs))
	for _, id := range userIDs {
		totals[id] = Counts{}
	}

	sets := make(map[Scope][]Entry)
	for _, a := range aggregates {
		if _, known := totals[a.UserID]; !known {
			// rows of an account deleted mid-event; the lister is authoritative
			continue
		}
		scope := TeamScope(a.TeamID)
		sets[scope] = append(sets[scope], Entry{UserID: a.UserID, Score: Score(a.Counts)})

		t := totals[a.UserID]
		t.Win += a.Win
		t.Lose += a.Lose
		t.Tie += a.Tie
		t.Cancel += a.Cancel
		totals[a.UserID] = t
	}

	total := make([]Entry, 0, len(totals))
	for id, c := range totals {
		total = append(total, Entry{UserID: id, Score: Score(c)})
	}
	sets[TotalScope()] = total
	return sets
}

// RunRebuildScheduler rebuilds the cache every interval until the graceful handle is
// cancelled. A rebuild in flight when that happens runs to completion unless the
// forceful handle is cancelled too.
func RunRebuildScheduler(gracefulHandle, forcefulHandle *lifecycle.Handle, s *Synchronizer, interval time.Duration, ready func() bool) {
	log.Info().Dur("interval", interval).Msg("rank rebuild scheduler started")
	for {
		if err := gracefulHandle.Sleep(interval); err != nil {
			log.Info().Msg("rank rebuild scheduler stopping")
			return
		}
		if ready != nil && !ready() {
			log.Warn().Msg("rank rebuild skipped: cache not healthy")
			continue
		}
		if err := s.RebuildCache(forcefulHandle.Ctx()); err != nil && forcefulHandle.Err() == nil {
			log.Error().Err(err).Msg("scheduled rank rebuild failed")
		}
	}
}
