package race

import (
	"github.com/samber/lo"

	"github.com/racingminer/trackblocks/pkg/stats"
)

// minGaps is the least number of non zero gaps needed for gap statistics.
const minGaps = 2

// Summary aggregates the log results of one run.
type Summary struct {
	Logs      int             `json:"logs"`
	Positions stats.Moments   `json:"positions"`
	Partial   []PartialResult `json:"partial"`
	Gaps      stats.Moments   `json:"gaps"`
}

type PartialResult struct {
	Fraction float64       `json:"fraction"`
	Moments  stats.Moments `json:"moments"`
}

// Summarize pools the per log values. Gaps of 0 belong to the leader and
// are ignored.
func Summarize(results []*LogResult, fractions []float64) *Summary {
	s := &Summary{Logs: len(results)}
	final := []float64{}
	partial := make([][]float64, len(fractions))
	gaps := []float64{}
	for _, r := range results {
		final = append(final, toFloats(r.FinalVariations)...)
		for j := range fractions {
			if j < len(r.PartialVariations) {
				partial[j] = append(partial[j], toFloats(r.PartialVariations[j])...)
			}
		}
		gaps = append(gaps, lo.Filter(r.Gaps, func(g float64, _ int) bool { return g != 0 })...)
	}
	s.Positions = stats.Describe(final)
	for j, f := range fractions {
		s.Partial = append(s.Partial, PartialResult{Fraction: f, Moments: stats.Describe(partial[j])})
	}
	if len(gaps) >= minGaps {
		s.Gaps = stats.Describe(gaps)
	}
	return s
}

// PartialAt returns the moments of a lap fraction.
func (s *Summary) PartialAt(fraction float64) stats.Moments {
	for _, p := range s.Partial {
		if p.Fraction == fraction {
			return p.Moments
		}
	}
	return stats.Moments{}
}

func toFloats(xs []int) []float64 {
	return lo.Map(xs, func(x int, _ int) float64 { return float64(x) })
}
