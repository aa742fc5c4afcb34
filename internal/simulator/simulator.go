// Package simulator produces a reproducible synthetic trade history for a
// wallet address. The address only seeds the output; no external data is read.
package simulator

import (
	"errors"
	"math/rand/v2"
	"sort"
	"strings"
	"time"
	"unicode"

	"go.uber.org/zap"
)

const (
	minTrades  = 25
	tradeSpan  = 25 // trade counts fall in [minTrades, minTrades+tradeSpan-1]
	historyAge = 30 * 24 * time.Hour
)

// ErrInvalidInput is returned for an empty or malformed wallet address.
var ErrInvalidInput = errors.New("invalid wallet address")

// Side is the direction of a trade.
type Side string

const (
	SideBuy  Side = "buy"
	SideSell Side = "sell"
)

// Trade is a single simulated fill. Every field is a JSON primitive.
type Trade struct {
	Pair       string    `json:"pair"`
	Side       Side      `json:"type"`
	Price      float64   `json:"price"`
	Amount     float64   `json:"amount"`
	Timestamp  time.Time `json:"timestamp"`
	ProfitLoss float64   `json:"profitLoss"`
}

// Metrics summarises a trade history.
type Metrics struct {
	TotalTrades    int     `json:"totalTrades"`
	MostActivePair string  `json:"mostActivePair"`
	ProfitLoss     float64 `json:"profitLoss"`
}

// History is the generator output. Trades are ordered newest first.
type History struct {
	Trades  []Trade `json:"trades"`
	Metrics Metrics `json:"metrics"`
	Seed    Seed    `json:"-"`
}

// band describes a value base + (x mod modulus) / scale.
type band struct {
	base    float64
	modulus uint64
	scale   float64
}

func (b band) at(x uint64) float64 {
	return b.base + float64(x%b.modulus)/b.scale
}

type pairProfile struct {
	symbol string
	price  band
	amount band
}

// pairs is ordered; index 0 is the primary pair every third trade is forced onto.
var pairs = []pairProfile{
	{"SOL/USDC", band{150, 50, 1}, band{5, 20, 1}},
	{"BTC/USDC", band{60000, 10000, 1}, band{0.1, 10, 100}},
	{"ETH/USDC", band{3000, 1000, 1}, band{0.5, 20, 10}},
	{"JUP/USDC", band{0.5, 100, 100}, band{100, 900, 1}},
	{"BONK/USDC", band{0.00001, 100, 1e7}, band{1000000, 9000000, 1}},
}

// Pairs returns the canonical pair symbols in generation order.
func Pairs() []string {
	out := make([]string, len(pairs))
	for i, p := range pairs {
		out[i] = p.symbol
	}
	return out
}

// TradeCount returns the number of trades generated for seed.
func TradeCount(seed uint64) int {
	return minTrades + int(seed%tradeSpan)
}

// Anchor returns the end of the history window for a wall-clock time: the
// start of its UTC day, so output stays stable for a whole day.
func Anchor(now time.Time) time.Time {
	return now.UTC().Truncate(24 * time.Hour)
}

// Generator derives seeds from addresses and builds histories.
// It is safe for concurrent use.
type Generator struct {
	logger   *zap.Logger
	fallback Fallback
	now      func() time.Time
	random   func() uint32
}

// Option configures a Generator.
type Option func(*Generator)

// WithFallback sets the policy for addresses without a parseable seed.
func WithFallback(f Fallback) Option {
	return func(g *Generator) {
		g.fallback = f
	}
}

// WithClock replaces time.Now as the source of the window anchor.
func WithClock(now func() time.Time) Option {
	return func(g *Generator) {
		g.now = now
	}
}

// WithRandom replaces the random source used by FallbackRandom.
// fn must be safe for concurrent use.
func WithRandom(fn func() uint32) Option {
	return func(g *Generator) {
		g.random = fn
	}
}

// NewGenerator creates a Generator. The default fallback is FallbackRandom.
func NewGenerator(logger *zap.Logger, opts ...Option) *Generator {
	g := &Generator{
		logger:   logger.Named("simulator"),
		fallback: FallbackRandom,
		now:      time.Now,
		random:   rand.Uint32,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Validate checks that address is usable as a seed source.
func Validate(address string) error {
	if strings.TrimSpace(address) == "" {
		return ErrInvalidInput
	}
	for _, r := range address {
		if unicode.IsSpace(r) || unicode.IsControl(r) {
			return ErrInvalidInput
		}
	}
	return nil
}

// DeriveSeed returns the seed for address, applying the fallback policy when
// the trailing characters hold no hex digits.
func (g *Generator) DeriveSeed(address string) (Seed, error) {
	if err := Validate(address); err != nil {
		return Seed{}, err
	}

	if v, ok := ParseSeed(address); ok {
		return Seed{Value: v, Source: SourceAddress}, nil
	}

	if g.fallback == FallbackCharSum {
		return Seed{Value: CharSumSeed(address), Source: SourceCharSum}, nil
	}

	// Reproducibility is lost here; callers see drift for this address.
	seed := Seed{Value: uint64(g.random()), Source: SourceRandom}
	g.logger.Warn("NonReproducibleSeedFallback: address has no parseable seed, using a random one",
		zap.String("address", address),
		zap.Uint64("seed", seed.Value),
	)
	return seed, nil
}

// Generate builds the history for address anchored at the current UTC day.
func (g *Generator) Generate(address string) (*History, error) {
	return g.GenerateAt(address, Anchor(g.now()))
}

// GenerateAt builds the history for address with the window ending at anchor.
func (g *Generator) GenerateAt(address string, anchor time.Time) (*History, error) {
	seed, err := g.DeriveSeed(address)
	if err != nil {
		return nil, err
	}

	history := Build(seed.Value, anchor)
	history.Seed = seed

	g.logger.Debug("Generated trade history",
		zap.String("address", address),
		zap.Uint64("seed", seed.Value),
		zap.String("seed_source", string(seed.Source)),
		zap.Int("trades", history.Metrics.TotalTrades),
	)
	return &history, nil
}

// Build is the pure generator: the same seed and anchor always yield the same history.
func Build(seed uint64, anchor time.Time) History {
	count := TradeCount(seed)
	trades := make([]Trade, 0, count)

	// Tally keeps first-seen order so ties resolve to the earliest pair.
	counts := make(map[string]int, len(pairs))
	var order []string
	var total float64

	for i := 0; i < count; i++ {
		t := buildTrade(seed, uint64(i), anchor)

		if _, seen := counts[t.Pair]; !seen {
			order = append(order, t.Pair)
		}
		counts[t.Pair]++
		total += t.ProfitLoss

		trades = append(trades, t)
	}

	sort.SliceStable(trades, func(a, b int) bool {
		return trades[a].Timestamp.After(trades[b].Timestamp)
	})

	mostActive := pairs[0].symbol
	maxCount := 0
	for _, p := range order {
		if counts[p] > maxCount {
			maxCount = counts[p]
			mostActive = p
		}
	}

	return History{
		Trades: trades,
		Metrics: Metrics{
			TotalTrades:    len(trades),
			MostActivePair: mostActive,
			ProfitLoss:     total,
		},
	}
}

func buildTrade(seed, i uint64, anchor time.Time) Trade {
	x := seed * i

	profile := pairs[0]
	if i%3 != 0 {
		profile = pairs[(seed*(i+1))%uint64(len(pairs))]
	}

	side := SideBuy
	sign := -1.0
	if x%2 == 1 {
		side = SideSell
		sign = 1.0
	}

	price := profile.price.at(x)
	amount := profile.amount.at(x)
	percent := float64(x%20) - 10
	pl := sign * price * amount * (percent / 100)
	if pl == 0 {
		pl = 0 // no negative zero in JSON
	}

	return Trade{
		Pair:       profile.symbol,
		Side:       side,
		Price:      price,
		Amount:     amount,
		Timestamp:  timestampAt(seed, i, anchor),
		ProfitLoss: pl,
	}
}

// timestampAt places trade i inside (anchor-30d, anchor] at millisecond precision.
func timestampAt(seed, i uint64, anchor time.Time) time.Time {
	span := uint64(historyAge / time.Millisecond)
	offset := time.Duration(mix(seed, i)%span) * time.Millisecond
	return anchor.Add(-offset)
}

// mix is the splitmix64 finalizer over a combination of seed and index.
func mix(seed, i uint64) uint64 {
	z := seed*0x9e3779b97f4a7c15 + (i+1)*0xbf58476d1ce4e5b9
	z = (z ^ (z >> 30)) * 0xbf58476d1ce4e5b9
	z = (z ^ (z >> 27)) * 0x94d049bb133111eb
	return z ^ (z >> 31)
}
