package analytics

import (
	"context"
	"sort"
)

// BotReport is the bot heuristic's verdict. Indeterminate is set when the
// wallet has no observable history: absence of data is never conflated with
// absence of bot behavior.
type BotReport struct {
	Indeterminate bool
	Bot           bool
	FastIntervals int
	Intervals     int
}

// BotActivity inspects the wallet's most recent transactions for automated
// trading patterns: timestamps are sorted ascending and the wallet is
// flagged when more than half of the consecutive gaps are shorter than the
// fast-gap threshold.
func (e *Engine) BotActivity(ctx context.Context, wallet string) BotReport {
	sigs := e.fetcher.FetchRecent(ctx, wallet, e.botTxLimit)
	if len(sigs) == 0 {
		return BotReport{Indeterminate: true}
	}

	var times []int64
	for _, s := range sigs {
		// A zero timestamp is a missing value, not the epoch; keeping it
		// would fabricate one enormous interval.
		if s.BlockTime != nil && *s.BlockTime != 0 {
			times = append(times, *s.BlockTime)
		}
	}
	sort.Slice(times, func(i, j int) bool { return times[i] < times[j] })

	fast := 0
	intervals := len(times) - 1
	if intervals < 0 {
		intervals = 0
	}
	for i := 1; i < len(times); i++ {
		if times[i]-times[i-1] < fastGapSeconds {
			fast++
		}
	}

	return BotReport{
		Bot:           float64(fast) > float64(intervals)*fastShare,
		FastIntervals: fast,
		Intervals:     intervals,
	}
}
