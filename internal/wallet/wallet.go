// Package wallet simulates connecting a Solana wallet. No chain is contacted;
// balances are either random (demo) or derived from the address (seeded).
package wallet

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"

	"trading-psych-analyzer/internal/simulator"

	"go.uber.org/zap"
)

// Mode selects how a connection is simulated.
type Mode string

const (
	ModeDemo   Mode = "demo"
	ModeSeeded Mode = "seeded"
)

const (
	base58Alphabet = "123456789ABCDEFGHJKLMNPQRSTUVWXYZabcdefghijkmnopqrstuvwxyz"
	addressLength  = 44
)

var ErrInvalidMode = errors.New("invalid wallet mode")

// PriceSource returns the current SOL/USD price. It never fails.
type PriceSource interface {
	SOLPrice(ctx context.Context) float64
}

// Connection is a simulated connected wallet.
type Connection struct {
	PublicKey  string  `json:"publicKey"`
	Balance    float64 `json:"balance"`
	BalanceUSD float64 `json:"balanceUsd"`
}

// Connector hands out simulated wallet connections.
type Connector struct {
	prices PriceSource
	logger *zap.Logger
	random func() float64
	index  func(n int) int
}

// Option configures a Connector.
type Option func(*Connector)

// WithRandom replaces the random source used in demo mode.
func WithRandom(float func() float64, index func(n int) int) Option {
	return func(c *Connector) {
		c.random = float
		c.index = index
	}
}

// NewConnector creates a Connector pricing balances with prices.
func NewConnector(prices PriceSource, logger *zap.Logger, opts ...Option) *Connector {
	c := &Connector{
		prices: prices,
		logger: logger.Named("wallet"),
		random: rand.Float64,
		index:  rand.IntN,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ParseMode parses a mode name. The empty string means demo.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case "", ModeDemo:
		return ModeDemo, nil
	case ModeSeeded:
		return ModeSeeded, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidMode, s)
	}
}

// Connect simulates a wallet connection. In seeded mode address is required
// and the balance is a pure function of it; in demo mode address is ignored.
func (c *Connector) Connect(ctx context.Context, mode Mode, address string) (*Connection, error) {
	var conn Connection
	switch mode {
	case ModeDemo:
		conn.PublicKey = c.randomAddress()
		conn.Balance = 3.5 + c.random()*10
	case ModeSeeded:
		if err := simulator.Validate(address); err != nil {
			return nil, err
		}
		conn.PublicKey = address
		conn.Balance = SeededBalance(address)
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidMode, mode)
	}

	conn.BalanceUSD = conn.Balance * c.prices.SOLPrice(ctx)

	c.logger.Debug("Wallet connected",
		zap.String("mode", string(mode)),
		zap.String("publicKey", conn.PublicKey),
		zap.Float64("balance", conn.Balance),
	)
	return &conn, nil
}

// SeededBalance returns 1 + (seed mod 1400)/100 SOL, where seed is derived
// from the address the same way the trade simulator derives it. Addresses
// without a hex tail use the character-sum seed.
func SeededBalance(address string) float64 {
	seed, ok := simulator.ParseSeed(address)
	if !ok {
		seed = simulator.CharSumSeed(address)
	}
	return 1 + float64(seed%1400)/100
}

func (c *Connector) randomAddress() string {
	var b strings.Builder
	b.Grow(addressLength)
	for i := 0; i < addressLength; i++ {
		b.WriteByte(base58Alphabet[c.index(len(base58Alphabet))])
	}
	return b.String()
}
