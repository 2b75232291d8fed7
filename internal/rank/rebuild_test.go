package rank

import (
	"context"
	"errors"
	"sort"
	"testing"
	"time"

	"github.com/SlpAus/ballpark-ranking-backend/pkg/lifecycle"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sortedEntries(es []Entry) []Entry {
	out := append([]Entry(nil), es...)
	sort.Slice(out, func(i, j int) bool { return out[i].UserID < out[j].UserID })
	return out
}

func TestProject(t *testing.T) {
	aggregates := []TeamAggregate{
		{UserID: 1, TeamID: 3, Counts: Counts{Lose: 1}},
		{UserID: 1, TeamID: 7, Counts: Counts{Win: 2}},
		{UserID: 2, TeamID: 7, Counts: Counts{Tie: 1}},
	}
	sets := Project(aggregates, []int64{1, 2, 3})

	require.Len(t, sets, 3)
	assert.Equal(t, []Entry{{UserID: 1, Score: Score(Counts{Lose: 1})}}, sets[TeamScope(3)])
	assert.Equal(t, []Entry{
		{UserID: 1, Score: Score(Counts{Win: 2})},
		{UserID: 2, Score: Score(Counts{Tie: 1})},
	}, sortedEntries(sets[TeamScope(7)]))
	assert.Equal(t, []Entry{
		{UserID: 1, Score: Score(Counts{Win: 2, Lose: 1})},
		{UserID: 2, Score: Score(Counts{Tie: 1})},
		{UserID: 3, Score: BaseScore},
	}, sortedEntries(sets[TotalScope()]))
}

func TestProjectDropsUnknownUsers(t *testing.T) {
	sets := Project([]TeamAggregate{
		{UserID: 99, TeamID: 7, Counts: Counts{Win: 1}},
		{UserID: 1, TeamID: 7, Counts: Counts{Lose: 1}},
	}, []int64{1})

	assert.Equal(t, []Entry{{UserID: 1, Score: Score(Counts{Lose: 1})}}, sets[TotalScope()])
	assert.Equal(t, []Entry{{UserID: 1, Score: Score(Counts{Lose: 1})}}, sets[TeamScope(7)])
}

func TestSynchronizer_RebuildCache(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.ledger.Adjust(ctx, 1, 7, 2025, OutcomeWin, DirectionAdd))
	require.NoError(t, f.ledger.Adjust(ctx, 1, 7, 2024, OutcomeWin, DirectionAdd))
	require.NoError(t, f.ledger.Adjust(ctx, 2, 3, 2025, OutcomeLose, DirectionAdd))
	f.users.ids = []int64{1, 2, 3}

	// left behind by a deleted user and a stale score
	require.NoError(t, f.cache.PublishScore(ctx, TeamScope(9), 99, 1500))
	require.NoError(t, f.cache.PublishScore(ctx, TotalScope(), 1, 900))

	require.NoError(t, f.sync.RebuildCache(ctx))

	total, err := f.cache.Range(ctx, TotalScope(), 0, -1)
	require.NoError(t, err)
	assert.Equal(t, []Entry{
		{UserID: 1, Score: 1020},
		{UserID: 3, Score: 1000},
		{UserID: 2, Score: 990},
	}, total)

	team7, err := f.cache.Range(ctx, TeamScope(7), 0, -1)
	require.NoError(t, err)
	assert.Equal(t, []Entry{{UserID: 1, Score: 1020}}, team7)

	assert.False(t, f.redis.Exists("rank:team:9"))
}

func TestSynchronizer_RebuildCacheMatchesEvents(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.users.ids = []int64{1, 2}

	require.NoError(t, f.sync.OnUserCreated(ctx, 1))
	require.NoError(t, f.sync.OnUserCreated(ctx, 2))
	require.NoError(t, f.sync.OnAttendanceOutcomeChanged(ctx, 1, 7, 2025, OutcomeWin, true))
	require.NoError(t, f.sync.OnAttendanceOutcomeChanged(ctx, 2, 7, 2025, OutcomeTie, true))
	require.NoError(t, f.sync.OnOutcomeReplaced(ctx, 2, 7, 2025, OutcomeTie, OutcomeLose))

	before := map[Scope][]Entry{}
	for _, s := range []Scope{TotalScope(), TeamScope(7)} {
		es, err := f.cache.Range(ctx, s, 0, -1)
		require.NoError(t, err)
		before[s] = es
	}

	require.NoError(t, f.sync.RebuildCache(ctx))

	for s, want := range before {
		got, err := f.cache.Range(ctx, s, 0, -1)
		require.NoError(t, err)
		assert.Equal(t, want, got, "scope %s", s)
	}
}

func TestSynchronizer_RebuildCacheKeepsCacheOnReadFailure(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.cache.PublishScore(ctx, TotalScope(), 1, 1010))
	f.users.err = errors.New("user store down")

	assert.Error(t, f.sync.RebuildCache(ctx))

	total, err := f.cache.Range(ctx, TotalScope(), 0, -1)
	require.NoError(t, err)
	assert.Equal(t, []Entry{{UserID: 1, Score: 1010}}, total)
}

type rebuildLog struct {
	users []int
	err   error
}

func (r *rebuildLog) RecordRankRebuild(_ context.Context, _ time.Time, users int) error {
	r.users = append(r.users, users)
	return r.err
}

func TestSynchronizer_RebuildCacheRecordsSuccess(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	rec := &rebuildLog{}
	f.sync.RecordRebuildsTo(rec)

	f.users.ids = []int64{1, 2}
	require.NoError(t, f.sync.RebuildCache(ctx))
	assert.Equal(t, []int{2}, rec.users)

	f.users.err = errors.New("user store down")
	assert.Error(t, f.sync.RebuildCache(ctx))
	assert.Equal(t, []int{2}, rec.users)

	// a failed note does not fail the rebuild
	f.users.err = nil
	rec.err = errors.New("metadata down")
	require.NoError(t, f.sync.RebuildCache(ctx))
	assert.Equal(t, []int{2, 2}, rec.users)
}

func TestRunRebuildScheduler(t *testing.T) {
	f := newFixture(t)
	f.users.ids = []int64{1}

	graceful := lifecycle.NewManager()
	forceful := lifecycle.NewManager()
	forcefulHandle, err := forceful.NewServiceHandle("rank-rebuild")
	require.NoError(t, err)
	require.NoError(t, graceful.Go("rank-rebuild", func(h *lifecycle.Handle) {
		defer forcefulHandle.Close()
		RunRebuildScheduler(h, forcefulHandle, f.sync, 10*time.Millisecond, func() bool { return true })
	}))

	assert.Eventually(t, func() bool {
		_, err := f.redis.ZScore("rank:total", "1")
		return err == nil
	}, time.Second, 5*time.Millisecond)

	graceful.Shutdown()
	assert.Empty(t, graceful.WaitWithTimeout(time.Second))
	assert.Empty(t, forceful.WaitWithTimeout(time.Second))
}
