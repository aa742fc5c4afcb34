// Package price looks up the SOL/USD price with a TTL cache and a fixed
// fallback, so callers never see an error.
package price

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"trading-psych-analyzer/internal/config"
	"trading-psych-analyzer/internal/restclient"

	"go.uber.org/zap"
)

const solKey = "SOL"

// Source fetches a live SOL/USD price.
type Source interface {
	SOLPrice(ctx context.Context) (float64, error)
}

// CoinGecko is a Source backed by the CoinGecko simple price endpoint.
type CoinGecko struct {
	rest   *restclient.Client
	logger *zap.Logger
}

// ensure CoinGecko implements the interface
var _ Source = (*CoinGecko)(nil)

// NewCoinGecko creates a CoinGecko source from config.
func NewCoinGecko(cfg *config.Price, logger *zap.Logger) *CoinGecko {
	l := logger.Named("coingecko")
	return &CoinGecko{
		rest: restclient.New(restclient.Options{
			BaseURL:        cfg.BaseURL,
			Timeout:        cfg.Timeout,
			RateLimit:      cfg.RateLimit,
			RateLimitBurst: cfg.RateLimitBurst,
		}, l),
		logger: l,
	}
}

type simplePriceResponse map[string]map[string]float64

// SOLPrice fetches the current SOL price in USD.
func (c *CoinGecko) SOLPrice(ctx context.Context) (float64, error) {
	var result simplePriceResponse

	req := c.rest.R(ctx).
		SetQueryParams(map[string]string{
			"ids":           "solana",
			"vs_currencies": "usd",
		}).
		SetHeader("Accept", "application/json").
		SetResult(&result)

	if _, err := c.rest.Do(ctx, http.MethodGet, "/simple/price", req); err != nil {
		return 0, fmt.Errorf("failed to get SOL price: %w", err)
	}

	usd, ok := result["solana"]["usd"]
	if !ok || usd <= 0 {
		return 0, fmt.Errorf("SOL price missing from response")
	}
	return usd, nil
}

// Service serves cached prices and falls back to a fixed value on failure.
type Service struct {
	source   Source
	cache    Cache
	ttl      time.Duration
	fallback float64
	logger   *zap.Logger
}

// NewService creates a price Service.
func NewService(source Source, cache Cache, ttl time.Duration, fallback float64, logger *zap.Logger) *Service {
	return &Service{
		source:   source,
		cache:    cache,
		ttl:      ttl,
		fallback: fallback,
		logger:   logger.Named("price"),
	}
}

// SOLPrice returns the cached price if fresh, otherwise refetches.
// A failed fetch yields the fallback price and is not cached.
func (s *Service) SOLPrice(ctx context.Context) float64 {
	if p, ok := s.cache.Get(solKey); ok {
		return p
	}

	p, err := s.source.SOLPrice(ctx)
	if err != nil {
		s.logger.Warn("Failed to fetch SOL price, using fallback",
			zap.Float64("fallback", s.fallback),
			zap.Error(err),
		)
		return s.fallback
	}

	s.cache.Set(solKey, p, s.ttl)
	s.logger.Debug("Refreshed SOL price", zap.Float64("price", p))
	return p
}
