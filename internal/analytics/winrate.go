package analytics

// WinRateFromProfits computes the win rate as a percentage of decided tokens.
// A token counts as a win with strictly positive net profit and as a loss
// with strictly negative; break-even tokens join neither side. With no
// decided tokens the rate is 0, never a division error.
func WinRateFromProfits(profits map[string]float64) float64 {
	wins, losses := 0, 0
	for _, profit := range profits {
		switch {
		case profit > 0:
			wins++
		case profit < 0:
			losses++
		}
	}

	decided := wins + losses
	if decided == 0 {
		return 0
	}
	return float64(wins) / float64(decided) * 100
}
