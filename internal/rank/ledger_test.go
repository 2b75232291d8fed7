package rank

import (
	"context"
	"testing"

	"github.com/SlpAus/ballpark-ranking-backend/internal/platform/database/dbtest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLedger_InsertIfAbsentIsIdempotent(t *testing.T) {
	ctx := context.Background()
	db := dbtest.NewDB(t, &Record{})
	ledger := NewLedger(db)

	require.NoError(t, ledger.InsertIfAbsent(ctx, 1, 7, 2025))
	require.NoError(t, ledger.InsertIfAbsent(ctx, 1, 7, 2025))

	var recs []Record
	require.NoError(t, db.Find(&recs).Error)
	require.Len(t, recs, 1)
	assert.Equal(t, Counts{}, recs[0].Counts())
}

func TestLedger_InsertIfAbsentKeepsCounters(t *testing.T) {
	ctx := context.Background()
	ledger := NewLedger(dbtest.NewDB(t, &Record{}))

	require.NoError(t, ledger.Adjust(ctx, 1, 7, 2025, OutcomeWin, DirectionAdd))
	require.NoError(t, ledger.InsertIfAbsent(ctx, 1, 7, 2025))

	rec, err := ledger.Get(ctx, 1, 7, 2025)
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, 1, rec.Win)
}

func TestLedger_Adjust(t *testing.T) {
	tests := []struct {
		name    string
		outcome Outcome
		want    Counts
	}{
		{name: "win", outcome: OutcomeWin, want: Counts{Win: 1}},
		{name: "lose", outcome: OutcomeLose, want: Counts{Lose: 1}},
		{name: "tie", outcome: OutcomeTie, want: Counts{Tie: 1}},
		{name: "cancelled game counts as cancel", outcome: OutcomeCancel, want: Counts{Cancel: 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			ledger := NewLedger(dbtest.NewDB(t, &Record{}))

			require.NoError(t, ledger.Adjust(ctx, 1, 7, 2025, tt.outcome, DirectionAdd))

			rec, err := ledger.Get(ctx, 1, 7, 2025)
			require.NoError(t, err)
			require.NotNil(t, rec, "add on a missing row creates it")
			assert.Equal(t, tt.want, rec.Counts())
		})
	}
}

func TestLedger_AdjustRoundTrip(t *testing.T) {
	ctx := context.Background()
	ledger := NewLedger(dbtest.NewDB(t, &Record{}))

	for i := 0; i < 3; i++ {
		require.NoError(t, ledger.Adjust(ctx, 1, 7, 2025, OutcomeWin, DirectionAdd))
	}
	require.NoError(t, ledger.Adjust(ctx, 1, 7, 2025, OutcomeLose, DirectionAdd))

	require.NoError(t, ledger.Adjust(ctx, 1, 7, 2025, OutcomeWin, DirectionAdd))
	require.NoError(t, ledger.Adjust(ctx, 1, 7, 2025, OutcomeWin, DirectionRemove))

	rec, err := ledger.Get(ctx, 1, 7, 2025)
	require.NoError(t, err)
	assert.Equal(t, Counts{Win: 3, Lose: 1}, rec.Counts())
}

func TestLedger_RemoveWithoutRecordIsNoop(t *testing.T) {
	ctx := context.Background()
	ledger := NewLedger(dbtest.NewDB(t, &Record{}))

	require.NoError(t, ledger.Adjust(ctx, 1, 7, 2025, OutcomeWin, DirectionRemove))

	rec, err := ledger.Get(ctx, 1, 7, 2025)
	require.NoError(t, err)
	assert.Nil(t, rec)
}

func TestLedger_RemoveBelowZero(t *testing.T) {
	ctx := context.Background()
	ledger := NewLedger(dbtest.NewDB(t, &Record{}))

	require.NoError(t, ledger.Adjust(ctx, 1, 7, 2025, OutcomeLose, DirectionAdd))

	err := ledger.Adjust(ctx, 1, 7, 2025, OutcomeWin, DirectionRemove)
	assert.ErrorIs(t, err, ErrNegativeCounter)

	rec, err := ledger.Get(ctx, 1, 7, 2025)
	require.NoError(t, err)
	assert.Equal(t, Counts{Lose: 1}, rec.Counts(), "row must not be clamped or changed")
}

func TestLedger_AdjustInvalidOutcome(t *testing.T) {
	ledger := NewLedger(dbtest.NewDB(t, &Record{}))
	err := ledger.Adjust(context.Background(), 1, 7, 2025, Outcome("RAINOUT"), DirectionAdd)
	assert.ErrorIs(t, err, ErrInvalidOutcome)
}

func TestLedger_Aggregates(t *testing.T) {
	ctx := context.Background()
	ledger := NewLedger(dbtest.NewDB(t, &Record{}))

	events := []struct {
		user, team int64
		year       int
		outcome    Outcome
	}{
		{1, 7, 2024, OutcomeWin},
		{1, 7, 2025, OutcomeWin},
		{1, 7, 2025, OutcomeTie},
		{1, 3, 2025, OutcomeLose},
		{1, 3, 2025, OutcomeCancel},
		{2, 7, 2025, OutcomeLose},
	}
	for _, e := range events {
		require.NoError(t, ledger.Adjust(ctx, e.user, e.team, e.year, e.outcome, DirectionAdd))
	}

	total, err := ledger.AggregateForUser(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, Counts{Win: 2, Lose: 1, Tie: 1, Cancel: 1}, total)

	team7, err := ledger.AggregateForUserAndTeam(ctx, 1, 7)
	require.NoError(t, err)
	assert.Equal(t, Counts{Win: 2, Tie: 1}, team7, "team scope spans every season")

	none, err := ledger.AggregateForUser(ctx, 99)
	require.NoError(t, err)
	assert.Equal(t, Counts{}, none)

	teams, err := ledger.TeamIDsForUser(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, []int64{3, 7}, teams)

	all, err := ledger.AggregateAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, []TeamAggregate{
		{UserID: 1, TeamID: 3, Counts: Counts{Lose: 1, Cancel: 1}},
		{UserID: 1, TeamID: 7, Counts: Counts{Win: 2, Tie: 1}},
		{UserID: 2, TeamID: 7, Counts: Counts{Lose: 1}},
	}, all)
}

func TestLedger_TransactionRollsBack(t *testing.T) {
	ctx := context.Background()
	ledger := NewLedger(dbtest.NewDB(t, &Record{}))
	require.NoError(t, ledger.Adjust(ctx, 1, 7, 2025, OutcomeWin, DirectionAdd))

	err := ledger.Transaction(ctx, func(tx *Ledger) error {
		if err := tx.Adjust(ctx, 1, 7, 2025, OutcomeWin, DirectionRemove); err != nil {
			return err
		}
		return tx.Adjust(ctx, 1, 7, 2025, OutcomeTie, DirectionRemove)
	})
	assert.ErrorIs(t, err, ErrNegativeCounter)

	rec, err := ledger.Get(ctx, 1, 7, 2025)
	require.NoError(t, err)
	assert.Equal(t, Counts{Win: 1}, rec.Counts())
}

func TestLedger_StoreFailure(t *testing.T) {
	db := dbtest.NewDB(t, &Record{})
	sqlDB, err := db.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())

	ledger := NewLedger(db)
	ctx := context.Background()

	assert.ErrorIs(t, ledger.InsertIfAbsent(ctx, 1, 7, 2025), ErrStoreUnavailable)
	assert.ErrorIs(t, ledger.Adjust(ctx, 1, 7, 2025, OutcomeWin, DirectionAdd), ErrStoreUnavailable)
	_, err = ledger.AggregateForUser(ctx, 1)
	assert.ErrorIs(t, err, ErrStoreUnavailable)
}
