package trace

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Summary aggregates statistics from a Recorder.
type Summary struct {
	TotalDecisions int
	AppliedCount   int
	// Applied maps partition → working label → number of transformed samples.
	Applied     map[string]map[int]int
	AlphaMean   float64
	AlphaStdDev float64
	AlphaMin    float64
	AlphaMax    float64
}

// Summarize computes aggregate statistics from a Recorder.
// Safe for nil or empty recorders (returns zero-value fields).
func Summarize(r *Recorder) *Summary {
	summary := &Summary{
		Applied: make(map[string]map[int]int),
	}
	if r == nil {
		return summary
	}

	summary.TotalDecisions = len(r.Records)
	alphas := make([]float64, 0, len(r.Records))
	for _, rec := range r.Records {
		if !rec.Applied {
			continue
		}
		summary.AppliedCount++
		byClass, ok := summary.Applied[rec.Partition]
		if !ok {
			byClass = make(map[int]int)
			summary.Applied[rec.Partition] = byClass
		}
		byClass[rec.Label]++
		alphas = append(alphas, rec.Alpha)
	}

	if len(alphas) > 0 {
		summary.AlphaMin = floats.Min(alphas)
		summary.AlphaMax = floats.Max(alphas)
		if len(alphas) > 1 {
			summary.AlphaMean, summary.AlphaStdDev = stat.MeanStdDev(alphas, nil)
		} else {
			summary.AlphaMean = alphas[0]
		}
	}

	return summary
}
