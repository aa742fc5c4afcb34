package simulator

import (
	"fmt"
	"strings"
)

// seedWindow is how many trailing address characters feed the seed.
const seedWindow = 8

// SeedSource records where a seed came from.
type SeedSource string

const (
	// SourceAddress: parsed from the trailing hex digits of the address.
	SourceAddress SeedSource = "address"
	// SourceCharSum: sum of the address bytes. Deterministic.
	SourceCharSum SeedSource = "charsum"
	// SourceRandom: drawn at random. Output for the address is NOT reproducible.
	SourceRandom SeedSource = "random"
)

// Seed is the integer that drives every generated field.
type Seed struct {
	Value  uint64
	Source SeedSource
}

// Reproducible reports whether repeated calls with the same address yield the same seed.
func (s Seed) Reproducible() bool {
	return s.Source != SourceRandom
}

// Fallback selects what happens when an address carries no parseable seed.
type Fallback int

const (
	// FallbackRandom substitutes a random seed and logs a
	// NonReproducibleSeedFallback warning.
	FallbackRandom Fallback = iota
	// FallbackCharSum substitutes the byte sum of the whole address.
	FallbackCharSum
)

func (f Fallback) String() string {
	switch f {
	case FallbackRandom:
		return "random"
	case FallbackCharSum:
		return "charsum"
	default:
		return fmt.Sprintf("Fallback(%d)", int(f))
	}
}

// ParseFallback maps a config value onto a Fallback.
func ParseFallback(s string) (Fallback, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "random":
		return FallbackRandom, nil
	case "charsum":
		return FallbackCharSum, nil
	default:
		return 0, fmt.Errorf("unknown seed fallback %q", s)
	}
}

// ParseSeed reads the seed from the last eight characters of address,
// taking the longest leading run of hex digits as a base-16 integer.
// It returns false when that run is empty.
func ParseSeed(address string) (uint64, bool) {
	tail := address
	if len(tail) > seedWindow {
		tail = tail[len(tail)-seedWindow:]
	}

	var (
		value  uint64
		digits int
	)
	for i := 0; i < len(tail); i++ {
		d, ok := hexDigit(tail[i])
		if !ok {
			break
		}
		value = value<<4 | uint64(d)
		digits++
	}
	return value, digits > 0
}

// CharSumSeed returns the sum of the byte values of address.
func CharSumSeed(address string) uint64 {
	var sum uint64
	for i := 0; i < len(address); i++ {
		sum += uint64(address[i])
	}
	return sum
}

func hexDigit(c byte) (byte, bool) {
	switch {
	case c >= '0' && c <= '9':
		return c - '0', true
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10, true
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10, true
	}
	return 0, false
}
