package user

import (
	"context"
	"testing"
	"time"

	"github.com/SlpAus/ballpark-ranking-backend/internal/attendance"
	"github.com/SlpAus/ballpark-ranking-backend/internal/platform/database/dbtest"
	"github.com/SlpAus/ballpark-ranking-backend/internal/rank"
	"github.com/SlpAus/ballpark-ranking-backend/pkg/token"
	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fixture struct {
	db      *gorm.DB
	repo    *Repository
	ledger  *rank.Ledger
	cache   *rank.Cache
	sync    *rank.Synchronizer
	tokens  *token.Issuer
	service *Service
	redis   *miniredis.Miniredis
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := dbtest.NewDB(t, &User{}, &attendance.RegisteredGame{}, &rank.Record{})
	mr, rdb := dbtest.NewRedis(t)

	f := &fixture{
		db:     db,
		repo:   NewRepository(db),
		ledger: rank.NewLedger(db),
		tokens: token.NewIssuer("test-secret", time.Hour),
		cache:  rank.NewCache(rdb),
		redis:  mr,
	}
	f.sync = rank.NewSynchronizer(f.ledger, f.cache, f.repo)
	f.service = NewService(f.repo, f.sync, f.tokens)
	return f
}

func strPtr(s string) *string { return &s }

// ranked reports whether userID is a member of scope in the ranking cache.
func (f *fixture) ranked(t *testing.T, scope rank.Scope, userID int64) bool {
	t.Helper()
	_, ok, err := f.cache.Rank(context.Background(), scope, userID)
	require.NoError(t, err)
	return ok
}
