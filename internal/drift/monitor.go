// Package drift implements distributional drift statistics for continued
// model evaluation: PSI and KL divergence over a reference distribution.
package drift

import "math"

// eps floors zero-count buckets so log ratios stay defined.
const eps = 1e-8

// Check is the go/no-go outcome of a threshold comparison.
type Check struct {
	PSIOk bool `json:"psi_ok"`
	KLOk  bool `json:"kl_ok"`
}

// PopulationStabilityIndex buckets expected into equal-width histogram
// bins derived from its own range, buckets actual into the same edges, and
// sums (actual% - expected%) * ln(actual% / expected%). Scale-free; values
// above ~0.2 conventionally indicate meaningful shift.
func PopulationStabilityIndex(expected, actual []float64, bins int) float64 {
	expectedPct, actualPct := BinnedDistributions(expected, actual, bins)

	var psi float64
	for i := range expectedPct {
		psi += (actualPct[i] - expectedPct[i]) * math.Log((actualPct[i]+eps)/(expectedPct[i]+eps))
	}
	return psi
}

// BinnedDistributions histograms both series over bin edges derived from
// expected's range and returns the per-bucket fractions. Values of actual
// outside expected's range are dropped, matching standard histogram
// semantics against fixed edges.
func BinnedDistributions(expected, actual []float64, bins int) (expectedPct, actualPct []float64) {
	lo, hi := minMax(expected)
	if hi == lo {
		// degenerate range: widen symmetrically so everything lands in one histogram
		lo, hi = lo-0.5, hi+0.5
	}

	expectedCounts := histogram(expected, lo, hi, bins)
	actualCounts := histogram(actual, lo, hi, bins)

	return normalize(expectedCounts), normalize(actualCounts)
}

// KLDivergence computes sum p*ln(p/q) over aligned frequency vectors.
// Both sides are eps-floored and renormalized, so zero frequencies and
// unnormalized inputs are safe.
func KLDivergence(p, q []float64) float64 {
	pn := renormalize(p)
	qn := renormalize(q)

	var kl float64
	for i := range pn {
		kl += pn[i] * math.Log(pn[i]/qn[i])
	}
	return kl
}

// CategoricalDrift measures divergence between two categorical series by
// aligning their value frequencies; categories missing on either side are
// eps-filled before the divergence.
func CategoricalDrift(expected, actual []string) float64 {
	expectedFreq := frequencies(expected)
	actualFreq := frequencies(actual)

	seen := make(map[string]struct{})
	var categories []string
	for _, series := range [][]string{expected, actual} {
		for _, v := range series {
			if _, ok := seen[v]; !ok {
				seen[v] = struct{}{}
				categories = append(categories, v)
			}
		}
	}

	p := make([]float64, len(categories))
	q := make([]float64, len(categories))
	for i, c := range categories {
		p[i] = expectedFreq[c]
		q[i] = actualFreq[c]
	}
	return KLDivergence(p, q)
}

// ThresholdCheck compares drift statistics against their limits.
func ThresholdCheck(psi, kl, psiLimit, klLimit float64) Check {
	return Check{
		PSIOk: psi < psiLimit,
		KLOk:  kl < klLimit,
	}
}

func histogram(values []float64, lo, hi float64, bins int) []float64 {
	counts := make([]float64, bins)
	width := (hi - lo) / float64(bins)
	for _, v := range values {
		if v < lo || v > hi {
			continue
		}
		idx := int((v - lo) / width)
		if idx == bins {
			// right edge belongs to the last bucket
			idx = bins - 1
		}
		counts[idx]++
	}
	return counts
}

func normalize(counts []float64) []float64 {
	var total float64
	for _, c := range counts {
		total += c
	}
	out := make([]float64, len(counts))
	for i, c := range counts {
		out[i] = c / (total + eps)
	}
	return out
}

func renormalize(freq []float64) []float64 {
	out := make([]float64, len(freq))
	var total float64
	for i, v := range freq {
		out[i] = v + eps
		total += out[i]
	}
	for i := range out {
		out[i] /= total
	}
	return out
}

func minMax(values []float64) (float64, float64) {
	if len(values) == 0 {
		return 0, 0
	}
	lo, hi := values[0], values[0]
	for _, v := range values[1:] {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	return lo, hi
}

func frequencies(values []string) map[string]float64 {
	freq := make(map[string]float64)
	if len(values) == 0 {
		return freq
	}
	for _, v := range values {
		freq[v]++
	}
	n := float64(len(values))
	for k := range freq {
		freq[k] /= n
	}
	return freq
}
