// Package scoring compares a query vector with candidate vectors and reports
// a relevance score in [0, 100].
package scoring

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/spigell/cv-align/internal/vecmath"
	"github.com/spigell/cv-align/internal/vectorstore"
)

// ErrEmptyIndex is returned when there is nothing to compare the query with.
var ErrEmptyIndex = errors.New("no candidate vectors to score")

// Score returns the relevance of candidates to query under policy, rounded
// to two decimals.
func Score(query []float32, candidates [][]float32, policy Policy) (float64, error) {
	if err := policy.Validate(); err != nil {
		return 0, err
	}
	if len(candidates) == 0 {
		return 0, ErrEmptyIndex
	}

	sims, err := similarities(query, candidates)
	if err != nil {
		return 0, err
	}

	var score float64
	switch policy.Strategy {
	case StrategyMeanAll:
		score = (mean(sims) + 1) / 2 * 100
	default:
		sort.Sort(sort.Reverse(sort.Float64Slice(sims)))
		top := sims[:min(policy.TopK, len(sims))]
		score = clamp((mean(top)-policy.BandLow)/policy.BandWidth, 0, 1) * 100
	}

	return round2(clamp(score, 0, 100)), nil
}

func similarities(query []float32, candidates [][]float32) ([]float64, error) {
	q := vecmath.Normalize(query)
	sims := make([]float64, len(candidates))
	for i, c := range candidates {
		if len(c) != len(q) {
			return nil, fmt.Errorf("%w: query has %d dimensions, candidate %d has %d",
				vectorstore.ErrDimensionMismatch, len(q), i, len(c))
		}
		sims[i] = clamp(vecmath.Dot(q, vecmath.Normalize(c)), -1, 1)
	}
	return sims, nil
}

func mean(values []float64) float64 {
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
