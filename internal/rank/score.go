package rank

import "math"

const (
	// BaseScore is the score of a user with no recorded games.
	BaseScore = 1000.0
	// NetWinMultiplier is the score of one win over loss.
	NetWinMultiplier = 10.0
	// GamesScale divides the games-played tie-breaker. GamesScale must stay above
	// NetWinMultiplier times the largest plausible games count, otherwise the
	// tie-breaker can overturn a net-win difference.
	GamesScale = 1000.0
)

// Counts are the outcome counters of one ledger row or of an aggregate of rows.
type Counts struct {
	Win    int `json:"win"`
	Lose   int `json:"lose"`
	Tie    int `json:"tie"`
	Cancel int `json:"cancel"`
}

// Games returns the number of outcomes counted.
func (c Counts) Games() int {
	return c.Win + c.Lose + c.Tie + c.Cancel
}

// Score maps counts to the leaderboard score. The integer part rewards net wins, the
// fraction rewards games played and only breaks ties. It is never clamped or rounded.
func Score(c Counts) float64 {
	return BaseScore + float64(c.Win-c.Lose)*NetWinMultiplier + float64(c.Games())/GamesScale
}

// CacheScore is the score stored in the sorted sets: Score truncated toward zero to a
// whole point. The ledger keeps the exact counters.
func CacheScore(score float64) float64 {
	return math.Trunc(score)
}
