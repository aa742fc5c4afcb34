package analysis

import (
	"encoding/json"
	"fmt"
	"strings"

	"trading-psych-analyzer/internal/simulator"

	"github.com/shopspring/decimal"
)

const (
	recentTradeLines = 10

	systemPrompt = "You are an expert trading psychologist specializing in cryptocurrency traders. " +
		"You analyze trading patterns to identify psychological strengths, weaknesses, and provide actionable insights. " +
		"Respond only with valid JSON in the exact format requested."

	reportFormat = `{
  "summary": {
    "tradingVolume": "$X,XXX",
    "winRate": "XX%",
    "emotionalIndex": "Low|Moderate|High",
    "winRateStats": "X of X trades profitable"
  },
  "patterns": {
    "summary": "detailed psychological analysis",
    "riskManagement": 1-100,
    "entryTiming": 1-100,
    "exitDiscipline": 1-100
  },
  "strengths": [{"title": "...", "description": "..."}],
  "weaknesses": [{"title": "...", "description": "..."}],
  "recommendations": [{"title": "...", "description": "..."}],
  "date": "current date string"
}`
)

// BuildPrompt renders the user prompt for trades.
func BuildPrompt(trades []simulator.Trade, stats Stats) (string, error) {
	tradesJSON, err := json.MarshalIndent(trades, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode trades: %w", err)
	}

	var b strings.Builder
	b.WriteString("As a specialized AI trading therapist, analyze this Solana trader's behavior and psychology based on their trade history.\n\n")

	b.WriteString("Trading Summary:\n")
	fmt.Fprintf(&b, "- Total Trades: %d\n", stats.TotalTrades)
	fmt.Fprintf(&b, "- Winning Trades: %d\n", stats.WinningTrades)
	fmt.Fprintf(&b, "- Losing Trades: %d\n", stats.LosingTrades)
	fmt.Fprintf(&b, "- Win Rate: %s\n", stats.WinRateString())
	fmt.Fprintf(&b, "- Total Volume: %s\n", FormatUSD(stats.TotalVolume))
	fmt.Fprintf(&b, "- Total P&L: %s\n", FormatSignedUSD(stats.TotalProfitLoss))
	fmt.Fprintf(&b, "- Most Traded Pairs: %s\n\n", strings.Join(stats.MostTradedPairs, ", "))

	b.WriteString("Recent Trading Activity:\n")
	for i, t := range trades {
		if i == recentTradeLines {
			break
		}
		fmt.Fprintf(&b, "%s %s %s at $%s (P&L: %s)\n",
			strings.ToUpper(string(t.Side)),
			decimal.NewFromFloat(t.Amount).String(),
			t.Pair,
			decimal.NewFromFloat(t.Price).String(),
			FormatSignedUSD(decimal.NewFromFloat(t.ProfitLoss)),
		)
	}

	b.WriteString("\nFull trade history:\n")
	b.Write(tradesJSON)

	b.WriteString("\n\nProvide a comprehensive trading psychology analysis with at least 3 strengths, ")
	b.WriteString("at least 3 areas for improvement and at least 4 actionable recommendations. ")
	b.WriteString("Format your response as valid JSON with the following structure:\n")
	b.WriteString(reportFormat)

	return b.String(), nil
}
