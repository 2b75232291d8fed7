package attendance

import (
	"time"

	"github.com/SlpAus/ballpark-ranking-backend/internal/rank"
)

// RegisteredGame is a user's record of attending a game while cheering one of its
// teams. Outcome is the outcome currently counted in the rank ledger, nil while the
// game has no result.
type RegisteredGame struct {
	ID             int64         `gorm:"primarykey" json:"id"`
	UserID         int64         `gorm:"not null;uniqueIndex:idx_registered_games_user_game,priority:1" json:"userId"`
	GameID         int64         `gorm:"not null;uniqueIndex:idx_registered_games_user_game,priority:2;index" json:"gameId"`
	CheeringTeamID int64         `gorm:"not null" json:"cheeringTeamId"`
	Outcome        *rank.Outcome `gorm:"type:varchar(8)" json:"outcome"`
	Memo           string        `gorm:"type:varchar(500)" json:"memo"`
	CreatedAt      time.Time     `json:"createdAt"`
	UpdatedAt      time.Time     `json:"updatedAt"`
}

func (RegisteredGame) TableName() string {
	return "registered_games"
}
