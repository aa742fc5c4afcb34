package analysis

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"trading-psych-analyzer/internal/config"
	"trading-psych-analyzer/internal/simulator"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var fixedNow = time.Date(2026, 10, 19, 9, 30, 0, 0, time.UTC)

func sampleTrades() []simulator.Trade {
	ts := time.Date(2026, 10, 18, 0, 0, 0, 0, time.UTC)
	return []simulator.Trade{
		{Pair: "SOL/USDC", Side: simulator.SideBuy, Price: 150, Amount: 5, Timestamp: ts, ProfitLoss: 75},
		{Pair: "BTC/USDC", Side: simulator.SideSell, Price: 60000, Amount: 0.1, Timestamp: ts.Add(-time.Hour), ProfitLoss: -120.5},
		{Pair: "SOL/USDC", Side: simulator.SideSell, Price: 160, Amount: 10, Timestamp: ts.Add(-2 * time.Hour), ProfitLoss: 32},
		{Pair: "JUP/USDC", Side: simulator.SideBuy, Price: 1.09, Amount: 759, Timestamp: ts.Add(-3 * time.Hour), ProfitLoss: 0},
		{Pair: "ETH/USDC", Side: simulator.SideBuy, Price: 3000, Amount: 0.5, Timestamp: ts.Add(-4 * time.Hour), ProfitLoss: 15},
	}
}

func TestComputeStats(t *testing.T) {
	stats := ComputeStats(sampleTrades())

	assert.Equal(t, 5, stats.TotalTrades)
	assert.Equal(t, 3, stats.WinningTrades)
	assert.Equal(t, 1, stats.LosingTrades)
	// 750 + 6000 + 1600 + 827.31 + 1500
	assert.True(t, decimal.RequireFromString("10677.31").Equal(stats.TotalVolume), stats.TotalVolume.String())
	assert.True(t, decimal.RequireFromString("1.5").Equal(stats.TotalProfitLoss), stats.TotalProfitLoss.String())
	assert.Equal(t, []string{"SOL/USDC", "BTC/USDC", "JUP/USDC"}, stats.MostTradedPairs)
	assert.Equal(t, "60.0%", stats.WinRateString())
}

func TestComputeStats_Empty(t *testing.T) {
	stats := ComputeStats(nil)
	assert.Equal(t, 0, stats.TotalTrades)
	assert.Equal(t, "0.0%", stats.WinRateString())
	assert.Equal(t, "$0", FormatUSD(stats.TotalVolume))
}

func TestFormatUSD(t *testing.T) {
	testCases := []struct {
		in   string
		want string
	}{
		{"0", "$0"},
		{"999.4", "$999"},
		{"1000", "$1,000"},
		{"10677.31", "$10,677"},
		{"1234567.5", "$1,234,568"},
		{"-2500", "-$2,500"},
	}
	for _, tc := range testCases {
		t.Run(tc.in, func(t *testing.T) {
			assert.Equal(t, tc.want, FormatUSD(decimal.RequireFromString(tc.in)))
		})
	}
}

func TestFormatSignedUSD(t *testing.T) {
	assert.Equal(t, "$75.00", FormatSignedUSD(decimal.NewFromInt(75)))
	assert.Equal(t, "-$120.50", FormatSignedUSD(decimal.RequireFromString("-120.5")))
}

func TestBuildPrompt(t *testing.T) {
	trades := sampleTrades()
	prompt, err := BuildPrompt(trades, ComputeStats(trades))
	require.NoError(t, err)

	assert.Contains(t, prompt, "- Total Trades: 5")
	assert.Contains(t, prompt, "- Win Rate: 60.0%")
	assert.Contains(t, prompt, "- Total Volume: $10,677")
	assert.Contains(t, prompt, "BUY 5 SOL/USDC at $150 (P&L: $75.00)")
	assert.Contains(t, prompt, "SELL 0.1 BTC/USDC at $60000 (P&L: -$120.50)")
	assert.Contains(t, prompt, `"profitLoss": -120.5`)
	assert.Contains(t, prompt, `"riskManagement"`)
}

func newTestOpenAI(t *testing.T, handler http.Handler) *OpenAI {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	o, err := NewOpenAI(&config.OpenAI{
		ApiKey:      "sk-test",
		BaseURL:     server.URL,
		Model:       "gpt-4o",
		Temperature: 0.7,
		MaxTokens:   2000,
		Timeout:     5 * time.Second,
	}, zap.NewNop())
	require.NoError(t, err)
	o.now = func() time.Time { return fixedNow }
	return o
}

func completion(content string) string {
	raw, _ := json.Marshal(chatResponse{
		ID:      "chatcmpl-1",
		Model:   "gpt-4o",
		Choices: []chatChoice{{Message: chatMessage{Role: "assistant", Content: content}, FinishReason: "stop"}},
	})
	return string(raw)
}

func TestOpenAI_Analyze(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		// Arrange
		content := `{
			"summary": {"tradingVolume": "$10,677", "winRate": "60%", "emotionalIndex": "Moderate", "winRateStats": "3 of 5 trades profitable"},
			"patterns": {"summary": "Disciplined", "riskManagement": 72, "entryTiming": 64, "exitDiscipline": 58},
			"strengths": [{"title": "Patience", "description": "Waits for setups"}],
			"weaknesses": [{"title": "Overtrading", "description": "Too many BTC entries"}],
			"recommendations": [{"title": "Journal", "description": "Log every trade"}]
		}`
		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/chat/completions", r.URL.Path)
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))

			var req chatRequest
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			assert.Equal(t, "gpt-4o", req.Model)
			assert.Equal(t, "json_object", req.ResponseFormat.Type)
			assert.Equal(t, 2000, req.MaxTokens)
			if assert.Len(t, req.Messages, 2) {
				assert.Equal(t, "system", req.Messages[0].Role)
				assert.Equal(t, "user", req.Messages[1].Role)
				assert.Contains(t, req.Messages[1].Content, "Total Trades: 5")
			}

			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(completion(content)))
		})
		o := newTestOpenAI(t, handler)

		// Act
		report, err := o.Analyze(context.Background(), sampleTrades())

		// Assert
		require.NoError(t, err)
		assert.Equal(t, "Moderate", report.Summary.EmotionalIndex)
		assert.Equal(t, 72.0, report.Patterns.RiskManagement)
		assert.Equal(t, "Patience", report.Strengths[0].Title)
		assert.Equal(t, "October 19, 2026", report.Date)
		assert.False(t, report.Placeholder)
	})

	t.Run("KeepsModelDate", func(t *testing.T) {
		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(completion(`{"date": "May 1, 2026"}`)))
		})
		o := newTestOpenAI(t, handler)

		report, err := o.Analyze(context.Background(), sampleTrades())
		require.NoError(t, err)
		assert.Equal(t, "May 1, 2026", report.Date)
	})

	t.Run("EmptyCompletion", func(t *testing.T) {
		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"choices": []}`))
		})
		o := newTestOpenAI(t, handler)

		report, err := o.Analyze(context.Background(), sampleTrades())
		assert.ErrorIs(t, err, ErrEmptyCompletion)
		assert.Nil(t, report)
	})

	t.Run("MalformedContent", func(t *testing.T) {
		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(completion(`not json`)))
		})
		o := newTestOpenAI(t, handler)

		_, err := o.Analyze(context.Background(), sampleTrades())
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "failed to decode analysis")
	})

	t.Run("APIError", func(t *testing.T) {
		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error": {"message": "Incorrect API key"}}`))
		})
		o := newTestOpenAI(t, handler)

		_, err := o.Analyze(context.Background(), sampleTrades())
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "failed to analyze trading psychology")
	})
}

func TestNewOpenAI_MissingKey(t *testing.T) {
	o, err := NewOpenAI(&config.OpenAI{}, zap.NewNop())
	assert.ErrorIs(t, err, ErrMissingAPIKey)
	assert.Nil(t, o)
}

// MockAnalyzer is a mock implementation of the Analyzer interface.
type MockAnalyzer struct {
	mock.Mock
}

func (m *MockAnalyzer) Analyze(ctx context.Context, trades []simulator.Trade) (*Report, error) {
	args := m.Called(ctx, trades)
	report, _ := args.Get(0).(*Report)
	return report, args.Error(1)
}

func TestService_Analyze(t *testing.T) {
	ctx := context.Background()
	trades := sampleTrades()

	t.Run("PassesThroughReport", func(t *testing.T) {
		want := &Report{Date: "today", Summary: Summary{WinRate: "60%"}}
		analyzer := new(MockAnalyzer)
		analyzer.On("Analyze", ctx, trades).Return(want, nil)

		svc := NewService(analyzer, zap.NewNop())
		got := svc.Analyze(ctx, trades)

		assert.Same(t, want, got)
		analyzer.AssertExpectations(t)
	})

	t.Run("FailureYieldsPlaceholder", func(t *testing.T) {
		analyzer := new(MockAnalyzer)
		analyzer.On("Analyze", ctx, trades).Return(nil, errors.New("upstream timeout"))

		svc := NewService(analyzer, zap.NewNop())
		svc.now = func() time.Time { return fixedNow }
		got := svc.Analyze(ctx, trades)

		require.NotNil(t, got)
		assert.True(t, got.Placeholder)
		assert.Equal(t, "$10,677", got.Summary.TradingVolume)
		assert.Equal(t, "60.0%", got.Summary.WinRate)
		assert.Equal(t, "Low", got.Summary.EmotionalIndex)
		assert.Equal(t, "3 of 5 trades profitable", got.Summary.WinRateStats)
		assert.Equal(t, "October 19, 2026", got.Date)
		assert.NotNil(t, got.Strengths)
		analyzer.AssertExpectations(t)
	})

	t.Run("NoAnalyzerYieldsPlaceholder", func(t *testing.T) {
		svc := NewService(nil, zap.NewNop())
		got := svc.Analyze(ctx, trades)
		assert.True(t, got.Placeholder)
	})
}

func TestEmotionalIndex(t *testing.T) {
	assert.Equal(t, "High", emotionalIndex(decimal.NewFromInt(20)))
	assert.Equal(t, "Moderate", emotionalIndex(decimal.NewFromInt(40)))
	assert.Equal(t, "Low", emotionalIndex(decimal.NewFromInt(60)))
}
