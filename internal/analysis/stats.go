package analysis

import (
	"strings"

	"trading-psych-analyzer/internal/simulator"

	"github.com/shopspring/decimal"
)

const maxTopPairs = 3

var hundred = decimal.NewFromInt(100)

// Stats are figures computed locally from a trade list.
type Stats struct {
	TotalTrades     int
	WinningTrades   int
	LosingTrades    int
	TotalVolume     decimal.Decimal
	TotalProfitLoss decimal.Decimal
	// MostTradedPairs lists up to three distinct pairs in first-seen order.
	MostTradedPairs []string
}

// ComputeStats summarises trades.
func ComputeStats(trades []simulator.Trade) Stats {
	s := Stats{
		TotalTrades:     len(trades),
		TotalVolume:     decimal.Zero,
		TotalProfitLoss: decimal.Zero,
	}

	seen := make(map[string]bool)
	for _, t := range trades {
		switch {
		case t.ProfitLoss > 0:
			s.WinningTrades++
		case t.ProfitLoss < 0:
			s.LosingTrades++
		}

		notional := decimal.NewFromFloat(t.Amount).Mul(decimal.NewFromFloat(t.Price))
		s.TotalVolume = s.TotalVolume.Add(notional)
		s.TotalProfitLoss = s.TotalProfitLoss.Add(decimal.NewFromFloat(t.ProfitLoss))

		if !seen[t.Pair] && len(s.MostTradedPairs) < maxTopPairs {
			s.MostTradedPairs = append(s.MostTradedPairs, t.Pair)
		}
		seen[t.Pair] = true
	}
	return s
}

// WinRate is the share of profitable trades in percent.
func (s Stats) WinRate() decimal.Decimal {
	if s.TotalTrades == 0 {
		return decimal.Zero
	}
	return decimal.NewFromInt(int64(s.WinningTrades)).
		Mul(hundred).
		Div(decimal.NewFromInt(int64(s.TotalTrades)))
}

// WinRateString renders the win rate with one decimal, e.g. "54.3%".
func (s Stats) WinRateString() string {
	return s.WinRate().StringFixed(1) + "%"
}

// FormatUSD renders d as whole dollars with thousands separators, e.g. "$12,345".
func FormatUSD(d decimal.Decimal) string {
	digits := d.Abs().StringFixed(0)

	var b strings.Builder
	if d.Round(0).IsNegative() {
		b.WriteByte('-')
	}
	b.WriteByte('$')
	for i, c := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(c)
	}
	return b.String()
}

// FormatSignedUSD renders d with two decimals and a leading sign for losses, e.g. "-$12.50".
func FormatSignedUSD(d decimal.Decimal) string {
	if d.IsNegative() {
		return "-$" + d.Abs().StringFixed(2)
	}
	return "$" + d.StringFixed(2)
}
