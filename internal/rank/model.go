package rank

import (
	"fmt"
	"time"
)

// Outcome is the result of one attendance record from the cheered team's side.
type Outcome string

const (
	OutcomeWin  Outcome = "WIN"
	OutcomeLose Outcome = "LOSE"
	OutcomeTie  Outcome = "TIE"
	// OutcomeCancel covers postponed and void games.
	OutcomeCancel Outcome = "CANCEL"
)

// Valid reports whether o is one of the four known outcomes.
func (o Outcome) Valid() bool {
	switch o {
	case OutcomeWin, OutcomeLose, OutcomeTie, OutcomeCancel:
		return true
	}
	return false
}

// column returns the ledger counter column for o.
func (o Outcome) column() (string, error) {
	switch o {
	case OutcomeWin:
		return "win", nil
	case OutcomeLose:
		return "lose", nil
	case OutcomeTie:
		return "tie", nil
	case OutcomeCancel:
		return "cancel", nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidOutcome, string(o))
}

// Direction says whether an outcome is being counted or uncounted.
type Direction int

const (
	DirectionAdd Direction = iota
	DirectionRemove
)

func (d Direction) String() string {
	if d == DirectionRemove {
		return "remove"
	}
	return "add"
}

// Record is one rank ledger row: the outcome counters of a user cheering a team in one
// season. Rows are created lazily on the first outcome for the triple.
type Record struct {
	ID         uint  `gorm:"primarykey"`
	UserID     int64 `gorm:"not null;uniqueIndex:idx_rank_records_triple,priority:1"`
	TeamID     int64 `gorm:"not null;uniqueIndex:idx_rank_records_triple,priority:2;index"`
	ActiveYear int   `gorm:"not null;uniqueIndex:idx_rank_records_triple,priority:3"`

	Win    int `gorm:"not null"`
	Lose   int `gorm:"not null"`
	Tie    int `gorm:"not null"`
	Cancel int `gorm:"not null"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

// TableName keeps the table name stable regardless of the naming strategy.
func (Record) TableName() string {
	return "rank_records"
}

// Counts returns the row's counters.
func (r Record) Counts() Counts {
	return Counts{Win: r.Win, Lose: r.Lose, Tie: r.Tie, Cancel: r.Cancel}
}
