package analysis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"trading-psych-analyzer/internal/config"
	"trading-psych-analyzer/internal/restclient"
	"trading-psych-analyzer/internal/simulator"

	"go.uber.org/zap"
)

// DateLayout is used when the model omits the report date.
const DateLayout = "January 2, 2006"

var (
	ErrMissingAPIKey   = errors.New("openai api key not configured")
	ErrEmptyCompletion = errors.New("no content returned from openai")
)

// Analyzer turns a trade list into a report.
type Analyzer interface {
	Analyze(ctx context.Context, trades []simulator.Trade) (*Report, error)
}

// OpenAI is an Analyzer backed by the chat completions API.
type OpenAI struct {
	rest        *restclient.Client
	apiKey      string
	model       string
	temperature float64
	maxTokens   int
	logger      *zap.Logger
	now         func() time.Time
}

// ensure OpenAI implements the interface
var _ Analyzer = (*OpenAI)(nil)

// NewOpenAI creates an OpenAI analyzer from config.
func NewOpenAI(cfg *config.OpenAI, logger *zap.Logger) (*OpenAI, error) {
	if cfg.ApiKey == "" {
		return nil, ErrMissingAPIKey
	}

	l := logger.Named("openai")
	return &OpenAI{
		rest: restclient.New(restclient.Options{
			BaseURL:        cfg.BaseURL,
			Timeout:        cfg.Timeout,
			RateLimit:      cfg.RateLimit,
			RateLimitBurst: cfg.RateLimitBurst,
		}, l),
		apiKey:      cfg.ApiKey,
		model:       cfg.Model,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
		logger:      l,
		now:         time.Now,
	}, nil
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type chatRequest struct {
	Model          string          `json:"model"`
	Messages       []chatMessage   `json:"messages"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
	Temperature    float64         `json:"temperature,omitempty"`
	MaxTokens      int             `json:"max_tokens,omitempty"`
}

type chatChoice struct {
	Index        int         `json:"index"`
	Message      chatMessage `json:"message"`
	FinishReason string      `json:"finish_reason"`
}

type chatResponse struct {
	ID      string       `json:"id"`
	Model   string       `json:"model"`
	Choices []chatChoice `json:"choices"`
}

// Analyze asks the model for a report on trades.
func (o *OpenAI) Analyze(ctx context.Context, trades []simulator.Trade) (*Report, error) {
	stats := ComputeStats(trades)
	prompt, err := BuildPrompt(trades, stats)
	if err != nil {
		return nil, err
	}

	body := chatRequest{
		Model: o.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: prompt},
		},
		ResponseFormat: &responseFormat{Type: "json_object"},
		Temperature:    o.temperature,
		MaxTokens:      o.maxTokens,
	}

	var result chatResponse
	req := o.rest.R(ctx).
		SetAuthToken(o.apiKey).
		SetHeader("Content-Type", "application/json").
		SetBody(body).
		SetResult(&result)

	start := time.Now()
	if _, err := o.rest.Do(ctx, http.MethodPost, "/chat/completions", req); err != nil {
		return nil, fmt.Errorf("failed to analyze trading psychology: %w", err)
	}

	if len(result.Choices) == 0 || result.Choices[0].Message.Content == "" {
		return nil, ErrEmptyCompletion
	}

	var report Report
	if err := json.Unmarshal([]byte(result.Choices[0].Message.Content), &report); err != nil {
		return nil, fmt.Errorf("failed to decode analysis: %w", err)
	}
	if report.Date == "" {
		report.Date = o.now().Format(DateLayout)
	}

	o.logger.Info("Analysis completed",
		zap.String("model", result.Model),
		zap.Int("trades", stats.TotalTrades),
		zap.Duration("elapsed", time.Since(start)),
	)
	return &report, nil
}
