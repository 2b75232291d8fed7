package rank

import (
	"context"
	"testing"

	"github.com/SlpAus/ballpark-ranking-backend/internal/platform/database/dbtest"
	"github.com/alicebob/miniredis/v2"
)

// fakeUsers lists ids for rebuilds. Every user exists unless marked gone.
type fakeUsers struct {
	ids  []int64
	gone map[int64]bool
	err  error
}

func (f *fakeUsers) AllUserIDs(context.Context) ([]int64, error) {
	return f.ids, f.err
}

func (f *fakeUsers) Exists(_ context.Context, userID int64) (bool, error) {
	return !f.gone[userID], f.err
}

type fakeProfiles struct {
	profiles map[int64]Profile
	err      error
	calls    int
}

func (f *fakeProfiles) ProfilesByIDs(_ context.Context, ids []int64) (map[int64]Profile, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	out := make(map[int64]Profile, len(ids))
	for _, id := range ids {
		if p, ok := f.profiles[id]; ok {
			out[id] = p
		}
	}
	return out, nil
}

type fixture struct {
	ledger *Ledger
	cache  *Cache
	sync   *Synchronizer
	users  *fakeUsers
	redis  *miniredis.Miniredis
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := dbtest.NewDB(t, &Record{})
	mr, rdb := dbtest.NewRedis(t)

	f := &fixture{
		ledger: NewLedger(db),
		cache:  NewCache(rdb),
		users:  &fakeUsers{},
		redis:  mr,
	}
	f.sync = NewSynchronizer(f.ledger, f.cache, f.users)
	return f
}

func strPtr(s string) *string { return &s }
