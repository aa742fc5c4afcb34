// Package analysis produces trading psychology reports. Model failures never
// reach the caller: Service substitutes a placeholder built from local figures.
package analysis

import (
	"context"
	"fmt"
	"time"

	"trading-psych-analyzer/internal/simulator"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	neutralScore       = 50
	placeholderSummary = "AI analysis is temporarily unavailable. The figures above are computed directly from your trade history."
)

// Service wraps an Analyzer with the fail-soft policy.
type Service struct {
	analyzer Analyzer
	logger   *zap.Logger
	now      func() time.Time
}

// NewService creates a Service. A nil analyzer always yields placeholders.
func NewService(analyzer Analyzer, logger *zap.Logger) *Service {
	return &Service{
		analyzer: analyzer,
		logger:   logger.Named("analysis"),
		now:      time.Now,
	}
}

// Analyze returns the model's report, or a placeholder if the model is
// unconfigured or fails.
func (s *Service) Analyze(ctx context.Context, trades []simulator.Trade) *Report {
	if s.analyzer == nil {
		s.logger.Warn("No analyzer configured, returning placeholder report")
		return Placeholder(ComputeStats(trades), s.now())
	}

	report, err := s.analyzer.Analyze(ctx, trades)
	if err != nil {
		s.logger.Warn("Analysis failed, returning placeholder report",
			zap.Int("trades", len(trades)),
			zap.Error(err),
		)
		return Placeholder(ComputeStats(trades), s.now())
	}
	return report
}

// Placeholder builds a report from local figures only.
func Placeholder(stats Stats, now time.Time) *Report {
	return &Report{
		Summary: Summary{
			TradingVolume:  FormatUSD(stats.TotalVolume),
			WinRate:        stats.WinRateString(),
			EmotionalIndex: emotionalIndex(stats.WinRate()),
			WinRateStats:   fmt.Sprintf("%d of %d trades profitable", stats.WinningTrades, stats.TotalTrades),
		},
		Patterns: Patterns{
			Summary:        placeholderSummary,
			RiskManagement: neutralScore,
			EntryTiming:    neutralScore,
			ExitDiscipline: neutralScore,
		},
		Strengths:       []Insight{},
		Weaknesses:      []Insight{},
		Recommendations: []Insight{},
		Date:            now.Format(DateLayout),
		Placeholder:     true,
	}
}

// emotionalIndex maps a win rate in percent onto Low/Moderate/High.
func emotionalIndex(winRate decimal.Decimal) string {
	switch {
	case winRate.LessThan(decimal.NewFromInt(40)):
		return "High"
	case winRate.LessThan(decimal.NewFromInt(60)):
		return "Moderate"
	default:
		return "Low"
	}
}
