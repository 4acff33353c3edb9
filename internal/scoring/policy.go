package scoring

import (
	"fmt"
	"math"
	"strings"
)

// Strategy names a formula turning similarities into a score.
type Strategy string

const (
	// StrategyTopKStretched averages the k best chunk similarities and maps
	// the band [low, low+width] linearly onto [0, 100].
	StrategyTopKStretched Strategy = "top_k_stretched"
	// StrategyMeanAll averages every similarity and maps [-1, 1] onto [0, 100].
	StrategyMeanAll Strategy = "mean_all"
)

const (
	DefaultTopK      = 10
	DefaultBandLow   = 0.2
	DefaultBandWidth = 0.3
)

// ParseStrategy accepts the strategy names case-insensitively; empty selects
// the top-k strategy.
func ParseStrategy(s string) (Strategy, error) {
	switch v := Strategy(strings.ToLower(strings.TrimSpace(s))); v {
	case "":
		return StrategyTopKStretched, nil
	case StrategyTopKStretched, StrategyMeanAll:
		return v, nil
	default:
		return "", fmt.Errorf("unknown scoring strategy %q", s)
	}
}

// Policy configures Score.
type Policy struct {
	Strategy  Strategy
	TopK      int
	BandLow   float64
	BandWidth float64
}

// DefaultPolicy returns the top-k stretched policy with k=10 and band [0.2, 0.5].
func DefaultPolicy() Policy {
	return Policy{
		Strategy:  StrategyTopKStretched,
		TopK:      DefaultTopK,
		BandLow:   DefaultBandLow,
		BandWidth: DefaultBandWidth,
	}
}

// Validate rejects policies Score cannot apply.
func (p Policy) Validate() error {
	switch p.Strategy {
	case StrategyMeanAll:
		return nil
	case StrategyTopKStretched:
	default:
		return fmt.Errorf("unknown scoring strategy %q", p.Strategy)
	}

	if p.TopK <= 0 {
		return fmt.Errorf("scoring top-k must be positive, got %d", p.TopK)
	}
	if p.BandWidth <= 0 || math.IsNaN(p.BandWidth) || math.IsInf(p.BandWidth, 0) {
		return fmt.Errorf("scoring band width must be positive, got %v", p.BandWidth)
	}
	if math.IsNaN(p.BandLow) || p.BandLow < -1 || p.BandLow >= 1 {
		return fmt.Errorf("scoring band low must be in [-1, 1), got %v", p.BandLow)
	}
	return nil
}
