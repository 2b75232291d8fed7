package game

import (
	"time"

	"github.com/SlpAus/ballpark-ranking-backend/internal/rank"
)

// Status is the state of a game.
type Status string

const (
	StatusScheduled Status = "SCHEDULED"
	StatusFinished  Status = "FINISHED"
	StatusCanceled  Status = "CANCELED"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusScheduled, StatusFinished, StatusCanceled:
		return true
	}
	return false
}

// Game is one KBO game. Scores are set only while the game is FINISHED.
type Game struct {
	ID          int64     `gorm:"primarykey" json:"id"`
	Date        time.Time `gorm:"not null;index" json:"date"`
	HomeTeamID  int64     `gorm:"not null;index" json:"homeTeamId"`
	AwayTeamID  int64     `gorm:"not null;index" json:"awayTeamId"`
	HomeScore   *int      `json:"homeScore"`
	AwayScore   *int      `json:"awayScore"`
	Status      Status    `gorm:"type:varchar(16);not null" json:"status"`
	StadiumName string    `gorm:"type:varchar(100)" json:"stadiumName"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Plays reports whether the team is one of the two sides.
func (g Game) Plays(teamID int64) bool {
	return teamID == g.HomeTeamID || teamID == g.AwayTeamID
}

// Season is the year ledger rows for this game are filed under.
func (g Game) Season() int {
	return g.Date.Year()
}

// Outcome evaluates the game from teamID's side. ok is false while the game has no
// result yet, or when teamID does not play in it.
func Outcome(g Game, teamID int64) (outcome rank.Outcome, ok bool) {
	if !g.Plays(teamID) {
		return "", false
	}
	switch g.Status {
	case StatusCanceled:
		return rank.OutcomeCancel, true
	case StatusFinished:
		if g.HomeScore == nil || g.AwayScore == nil {
			return "", false
		}
		own, other := *g.HomeScore, *g.AwayScore
		if teamID == g.AwayTeamID {
			own, other = other, own
		}
		switch {
		case own > other:
			return rank.OutcomeWin, true
		case own < other:
			return rank.OutcomeLose, true
		default:
			return rank.OutcomeTie, true
		}
	}
	return "", false
}
