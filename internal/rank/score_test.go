package rank

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScore(t *testing.T) {
	tests := []struct {
		name   string
		counts Counts
		want   float64
	}{
		{name: "no games", counts: Counts{}, want: 1000},
		{name: "one win", counts: Counts{Win: 1}, want: 1010.001},
		{name: "one loss", counts: Counts{Lose: 1}, want: 990.001},
		{name: "ties and cancels only count as games", counts: Counts{Tie: 2, Cancel: 1}, want: 1000.003},
		{name: "mixed", counts: Counts{Win: 5, Lose: 2, Tie: 1, Cancel: 2}, want: 1030.010},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, Score(tt.counts), 1e-9)
		})
	}
}

func TestScore_Monotonic(t *testing.T) {
	base := Counts{Win: 3, Lose: 3, Tie: 2, Cancel: 1}
	for i := 0; i < 50; i++ {
		more := base
		more.Win++
		assert.Greater(t, Score(more), Score(base), "win %d -> %d", base.Win, more.Win)
		base = more
	}

	base = Counts{Win: 3, Lose: 3, Tie: 2, Cancel: 1}
	for i := 0; i < 50; i++ {
		more := base
		more.Lose++
		assert.Less(t, Score(more), Score(base), "lose %d -> %d", base.Lose, more.Lose)
		base = more
	}
}

func TestScore_TieBreakNeverBeatsANetWin(t *testing.T) {
	const maxGames = 10000

	// A single net win must outweigh the largest possible difference in games played.
	assert.Greater(t, NetWinMultiplier, float64(maxGames-1)/GamesScale)

	tests := []struct {
		name          string
		ahead, behind Counts
	}{
		{name: "one win vs many even games", ahead: Counts{Win: 1}, behind: Counts{Win: 4999, Lose: 4999, Tie: 1}},
		{name: "one win vs many ties", ahead: Counts{Win: 1}, behind: Counts{Tie: maxGames - 1}},
		{name: "one win vs many cancels", ahead: Counts{Win: 1}, behind: Counts{Cancel: maxGames - 1}},
		{name: "net two vs net one with more games", ahead: Counts{Win: 2}, behind: Counts{Win: 5000, Lose: 4999}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.LessOrEqual(t, tt.behind.Games(), maxGames)
			assert.Greater(t, Score(tt.ahead), Score(tt.behind))
		})
	}
}

func TestCacheScore(t *testing.T) {
	assert.Equal(t, 1010.0, CacheScore(1010.001))
	assert.Equal(t, 989.0, CacheScore(989.999))
	assert.Equal(t, 1000.0, CacheScore(BaseScore))
}
