package coingecko

import (
	"sort"
	"strings"
)

// trustScoreRank orders CoinGecko trust scores for sorting. Unknown or
// missing scores rank lowest.
var trustScoreRank = map[string]int{
	"green":  3,
	"yellow": 2,
	"red":    1,
}

// FilterTickers keeps tickers quoted against target (case-insensitive) and
// orders them by volume descending, breaking ties on trust score. The input
// slice is not modified.
func FilterTickers(tickers []Ticker, target string) []Ticker {
	filtered := make([]Ticker, 0, len(tickers))
	for _, tk := range tickers {
		if strings.EqualFold(tk.Target, target) {
			filtered = append(filtered, tk)
		}
	}

	sort.SliceStable(filtered, func(i, j int) bool {
		if filtered[i].Volume != filtered[j].Volume {
			return filtered[i].Volume > filtered[j].Volume
		}
		return trustScoreRank[filtered[i].TrustScore] > trustScoreRank[filtered[j].TrustScore]
	})

	return filtered
}
