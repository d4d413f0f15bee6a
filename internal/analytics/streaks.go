package analytics

import (
	"fmt"
	"strings"

	"github.com/atlas-desktop/tradestats/pkg/types"
)

// Order states how a trade slice is sequenced in time
type Order int

const (
	// NewestFirst means index 0 is the most recent trade. Stored journals use it.
	NewestFirst Order = iota
	// OldestFirst means the last index is the most recent trade.
	OldestFirst
)

// String implements fmt.Stringer
func (o Order) String() string {
	switch o {
	case OldestFirst:
		return "oldest"
	default:
		return "newest"
	}
}

// ParseOrder accepts "newest" or "oldest" (case-insensitive, "" means newest).
func ParseOrder(s string) (Order, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "newest", "newest_first", "desc":
		return NewestFirst, nil
	case "oldest", "oldest_first", "asc":
		return OldestFirst, nil
	default:
		return NewestFirst, fmt.Errorf("unknown trade order %q", s)
	}
}

// StreakStats holds win/loss run lengths
type StreakStats struct {
	// Current is positive for a winning run and negative for a losing run
	// touching the most recent trade.
	Current     int
	LongestWin  int
	LongestLoss int
}

// Streaks walks the trades once, classifying net > 0 as a win and anything
// else as a loss.
func Streaks(trades []types.Trade, order Order) StreakStats {
	var stats StreakStats
	var winRun, lossRun int

	for _, trade := range trades {
		if trade.IsWin() {
			winRun++
			lossRun = 0
			if winRun > stats.LongestWin {
				stats.LongestWin = winRun
			}
		} else {
			lossRun++
			winRun = 0
			if lossRun > stats.LongestLoss {
				stats.LongestLoss = lossRun
			}
		}
	}

	stats.Current = currentStreak(trades, order)
	return stats
}

// currentStreak counts the run adjacent to the most recent trade only.
func currentStreak(trades []types.Trade, order Order) int {
	n := len(trades)
	if n == 0 {
		return 0
	}

	at := func(i int) types.Trade {
		if order == OldestFirst {
			return trades[n-1-i]
		}
		return trades[i]
	}

	winning := at(0).IsWin()
	streak := 0
	for i := 0; i < n; i++ {
		if at(i).IsWin() != winning {
			break
		}
		if winning {
			streak++
		} else {
			streak--
		}
	}
	return streak
}

// ExtremeStats holds the best and worst single trades and days
type ExtremeStats struct {
	LargestWin  float64
	LargestLoss float64
	BestTrade   *types.Trade
	WorstTrade  *types.Trade
	BestDay     float64
	WorstDay    float64
}

// Extremes finds the largest and smallest net P&L over trades and days.
// Ties resolve to the first occurrence.
func Extremes(trades []types.Trade, daily []types.DailyPnL) ExtremeStats {
	var stats ExtremeStats

	if len(trades) > 0 {
		best, worst := 0, 0
		for i := 1; i < len(trades); i++ {
			if trades[i].NetPnL > trades[best].NetPnL {
				best = i
			}
			if trades[i].NetPnL < trades[worst].NetPnL {
				worst = i
			}
		}

		bestTrade := trades[best]
		worstTrade := trades[worst]
		stats.BestTrade = &bestTrade
		stats.WorstTrade = &worstTrade
		stats.LargestWin = bestTrade.NetPnL
		stats.LargestLoss = worstTrade.NetPnL
	}

	if len(daily) > 0 {
		stats.BestDay = daily[0].PnL
		stats.WorstDay = daily[0].PnL
		for _, day := range daily[1:] {
			if day.PnL > stats.BestDay {
				stats.BestDay = day.PnL
			}
			if day.PnL < stats.WorstDay {
				stats.WorstDay = day.PnL
			}
		}
	}

	return stats
}
