package attendance

import (
	"context"
	"testing"
	"time"

	"github.com/SlpAus/ballpark-ranking-backend/internal/game"
	"github.com/SlpAus/ballpark-ranking-backend/internal/platform/database/dbtest"
	"github.com/SlpAus/ballpark-ranking-backend/internal/rank"
	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/require"
)

type allTeams struct{}

func (allTeams) Exists(context.Context, int64) (bool, error) { return true, nil }

type knownUsers map[int64]bool

func (k knownUsers) Exists(_ context.Context, id int64) (bool, error) { return k[id], nil }

func (k knownUsers) AllUserIDs(context.Context) ([]int64, error) {
	ids := make([]int64, 0, len(k))
	for id := range k {
		ids = append(ids, id)
	}
	return ids, nil
}

// failingSync fails every ledger call as if the relational store were down.
type failingSync struct{}

func (failingSync) OnAttendanceOutcomeChanged(context.Context, int64, int64, int, rank.Outcome, bool) error {
	return rank.ErrStoreUnavailable
}

func (failingSync) OnOutcomeReplaced(context.Context, int64, int64, int, rank.Outcome, rank.Outcome) error {
	return rank.ErrStoreUnavailable
}

type fixture struct {
	repo    *Repository
	service *Service
	games   *game.Service
	ledger  *rank.Ledger
	sync    *rank.Synchronizer
	users   knownUsers
	redis   *miniredis.Miniredis
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := dbtest.NewDB(t, &game.Game{}, &RegisteredGame{}, &rank.Record{})
	mr, rdb := dbtest.NewRedis(t)
	users := knownUsers{1: true, 2: true}

	f := &fixture{
		repo:   NewRepository(db),
		games:  game.NewService(game.NewRepository(db), allTeams{}),
		ledger: rank.NewLedger(db),
		users:  users,
		redis:  mr,
	}
	f.sync = rank.NewSynchronizer(f.ledger, rank.NewCache(rdb), users)
	f.service = NewService(f.repo, f.games, users, f.sync)
	f.games.Subscribe(f.service)
	return f
}

// scheduled creates a 2025 game of team 7 at home against team 3.
func (f *fixture) scheduled(t *testing.T) *game.Game {
	t.Helper()
	g, err := f.games.Create(context.Background(), game.CreateInput{
		Date:       time.Date(2025, 6, 1, 18, 30, 0, 0, time.UTC),
		HomeTeamID: 7,
		AwayTeamID: 3,
	})
	require.NoError(t, err)
	return g
}

func (f *fixture) finish(t *testing.T, gameID int64, home, away int) {
	t.Helper()
	_, err := f.games.RecordResult(context.Background(), gameID, game.ResultInput{
		Status:    game.StatusFinished,
		HomeScore: &home,
		AwayScore: &away,
	})
	require.NoError(t, err)
}

func (f *fixture) cached(t *testing.T, key string, userID string) float64 {
	t.Helper()
	members, err := f.redis.ZMembers(key)
	require.NoError(t, err)
	require.Contains(t, members, userID, "user %s not ranked in %s", userID, key)
	score, err := f.redis.ZScore(key, userID)
	require.NoError(t, err)
	return score
}
