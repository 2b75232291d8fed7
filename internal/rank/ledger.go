package rank

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const sumCountsSelect = "COALESCE(SUM(win), 0) AS win, COALESCE(SUM(lose), 0) AS lose, " +
	"COALESCE(SUM(tie), 0) AS tie, COALESCE(SUM(cancel), 0) AS cancel"

var tripleColumns = []clause.Column{{Name: "user_id"}, {Name: "team_id"}, {Name: "active_year"}}

// TeamAggregate is the sum of one user's rows for one team over every season.
type TeamAggregate struct {
	UserID int64
	TeamID int64
	Counts
}

// Ledger is the durable store of per-(user, team, season) outcome counters and the source
// of truth for every score. It never retries: persistence failures are returned wrapped
// in ErrStoreUnavailable and the caller owns the retry policy.
type Ledger struct {
	db *gorm.DB
}

func NewLedger(db *gorm.DB) *Ledger {
	return &Ledger{db: db}
}

// Transaction runs fn against a ledger bound to one database transaction. The
// transaction commits when fn returns nil.
func (l *Ledger) Transaction(ctx context.Context, fn func(tx *Ledger) error) error {
	err := l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Ledger{db: tx})
	})
	if err != nil && !errors.Is(err, ErrStoreUnavailable) && !errors.Is(err, ErrNegativeCounter) && !errors.Is(err, ErrInvalidOutcome) {
		return fmt.Errorf("%w: transaction: %v", ErrStoreUnavailable, err)
	}
	return err
}

// InsertIfAbsent creates a zeroed row for the triple. An existing row is left untouched.
func (l *Ledger) InsertIfAbsent(ctx context.Context, userID, teamID int64, year int) error {
	rec := Record{UserID: userID, TeamID: teamID, ActiveYear: year}
	err := l.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: tripleColumns, DoNothing: true}).
		Create(&rec).Error
	if err != nil {
		return fmt.Errorf("%w: insert record (%d, %d, %d): %v", ErrStoreUnavailable, userID, teamID, year, err)
	}
	return nil
}

// Adjust increments or decrements the counter of outcome for the triple.
//
// Adding to a missing row creates it with that counter at 1. Removing from a missing row
// is a no-op. Removing from a counter already at 0 returns ErrNegativeCounter and leaves
// the row unchanged.
func (l *Ledger) Adjust(ctx context.Context, userID, teamID int64, year int, outcome Outcome, dir Direction) error {
	col, err := outcome.column()
	if err != nil {
		return err
	}
	if dir == DirectionAdd {
		return l.increment(ctx, userID, teamID, year, outcome, col)
	}
	return l.decrement(ctx, userID, teamID, year, col)
}

func (l *Ledger) increment(ctx context.Context, userID, teamID int64, year int, outcome Outcome, col string) error {
	rec := Record{UserID: userID, TeamID: teamID, ActiveYear: year}
	switch outcome {
	case OutcomeWin:
		rec.Win = 1
	case OutcomeLose:
		rec.Lose = 1
	case OutcomeTie:
		rec.Tie = 1
	case OutcomeCancel:
		rec.Cancel = 1
	}

	table := Record{}.TableName()
	err := l.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: tripleColumns,
			DoUpdates: clause.Assignments(map[string]interface{}{
				col:          gorm.Expr(fmt.Sprintf("%s.%s + 1", table, col)),
				"updated_at": time.Now(),
			}),
		}).
		Create(&rec).Error
	if err != nil {
		return fmt.Errorf("%w: increment %s (%d, %d, %d): %v", ErrStoreUnavailable, col, userID, teamID, year, err)
	}
	return nil
}

func (l *Ledger) decrement(ctx context.Context, userID, teamID int64, year int, col string) error {
	db := l.db.WithContext(ctx)
	res := db.Model(&Record{}).
		Where("user_id = ? AND team_id = ? AND active_year = ?", userID, teamID, year).
		Where(col + " > 0").
		Updates(map[string]interface{}{
			col:          gorm.Expr(col + " - 1"),
			"updated_at": time.Now(),
		})
	if res.Error != nil {
		return fmt.Errorf("%w: decrement %s (%d, %d, %d): %v", ErrStoreUnavailable, col, userID, teamID, year, res.Error)
	}
	if res.RowsAffected > 0 {
		return nil
	}

	// Nothing updated: either there is no row (nothing to undo) or the counter is 0.
	var n int64
	err := db.Model(&Record{}).
		Where("user_id = ? AND team_id = ? AND active_year = ?", userID, teamID, year).
		Count(&n).Error
	if err != nil {
		return fmt.Errorf("%w: lookup record (%d, %d, %d): %v", ErrStoreUnavailable, userID, teamID, year, err)
	}
	if n == 0 {
		return nil
	}
	return fmt.Errorf("%w: %s of (%d, %d, %d) is 0", ErrNegativeCounter, col, userID, teamID, year)
}

// Get returns the row for the triple, or nil if there is none.
func (l *Ledger) Get(ctx context.Context, userID, teamID int64, year int) (*Record, error) {
	var recs []Record
	err := l.db.WithContext(ctx).
		Where("user_id = ? AND team_id = ? AND active_year = ?", userID, teamID, year).
		Limit(1).
		Find(&recs).Error
	if err != nil {
		return nil, fmt.Errorf("%w: get record (%d, %d, %d): %v", ErrStoreUnavailable, userID, teamID, year, err)
	}
	if len(recs) == 0 {
		return nil, nil
	}
	return &recs[0], nil
}

// AggregateForUser sums every row of the user. A user without rows gets zero counts.
func (l *Ledger) AggregateForUser(ctx context.Context, userID int64) (Counts, error) {
	var c Counts
	err := l.db.WithContext(ctx).
		Model(&Record{}).
		Select(sumCountsSelect).
		Where("user_id = ?", userID).
		Scan(&c).Error
	if err != nil {
		return Counts{}, fmt.Errorf("%w: aggregate user %d: %v", ErrStoreUnavailable, userID, err)
	}
	return c, nil
}

// AggregateForUserAndTeam sums the user's rows for one team over every season.
func (l *Ledger) AggregateForUserAndTeam(ctx context.Context, userID, teamID int64) (Counts, error) {
	var c Counts
	err := l.db.WithContext(ctx).
		Model(&Record{}).
		Select(sumCountsSelect).
		Where("user_id = ? AND team_id = ?", userID, teamID).
		Scan(&c).Error
	if err != nil {
		return Counts{}, fmt.Errorf("%w: aggregate user %d team %d: %v", ErrStoreUnavailable, userID, teamID, err)
	}
	return c, nil
}

// TeamIDsForUser returns every team the user has a row for, ascending.
func (l *Ledger) TeamIDsForUser(ctx context.Context, userID int64) ([]int64, error) {
	var teamIDs []int64
	err := l.db.WithContext(ctx).
		Model(&Record{}).
		Where("user_id = ?", userID).
		Distinct("team_id").
		Order("team_id").
		Pluck("team_id", &teamIDs).Error
	if err != nil {
		return nil, fmt.Errorf("%w: team ids of user %d: %v", ErrStoreUnavailable, userID, err)
	}
	return teamIDs, nil
}

// AggregateAll returns one aggregate per (user, team) pair present in the ledger.
func (l *Ledger) AggregateAll(ctx context.Context) ([]TeamAggregate, error) {
	var rows []TeamAggregate
	err := l.db.WithContext(ctx).
		Model(&Record{}).
		Select("user_id, team_id, " + sumCountsSelect).
		Group("user_id, team_id").
		Order("user_id, team_id").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("%w: aggregate all: %v", ErrStoreUnavailable, err)
	}
	return rows, nil
}
