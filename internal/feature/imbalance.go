package feature

import "math/rand"

// Rebalance corrects class imbalance in a labeled matrix. With positive
// ratio p = mean(y): p below the threshold oversamples the minority class
// to parity, (1-p) below it undersamples the majority to parity, anything
// else passes through unchanged. Single-class input also passes through:
// there is no minority to sample from. Sampling is seeded and
// deterministic.
//
// This must only ever see the training split; resampling validation data
// leaks the rebalancing into the metrics.
func Rebalance(x *Sparse, y []int, threshold float64, seed int64) (*Sparse, []int) {
	if len(y) == 0 {
		return x, y
	}

	var pos, neg []int
	for i, label := range y {
		if label == 1 {
			pos = append(pos, i)
		} else {
			neg = append(neg, i)
		}
	}

	// single-class input has no minority to sample from; pass through and
	// let the learner decide what to do with it
	if len(pos) == 0 || len(neg) == 0 {
		return x, y
	}

	p := float64(len(pos)) / float64(len(y))
	rng := rand.New(rand.NewSource(seed))

	var selected []int
	switch {
	case p < threshold:
		selected = oversample(pos, neg, rng)
	case 1-p < threshold:
		selected = undersample(neg, pos, rng)
	default:
		return x, y
	}

	resampledY := make([]int, len(selected))
	for i, idx := range selected {
		resampledY[i] = y[idx]
	}
	return x.SelectRows(selected), resampledY
}

// oversample keeps every row and appends minority rows drawn with
// replacement until both classes are at parity.
func oversample(minority, majority []int, rng *rand.Rand) []int {
	selected := make([]int, 0, 2*len(majority))
	selected = append(selected, majority...)
	selected = append(selected, minority...)
	for i := len(minority); i < len(majority); i++ {
		selected = append(selected, minority[rng.Intn(len(minority))])
	}
	return selected
}

// undersample keeps the minority intact and draws a without-replacement
// subset of the majority of equal size.
func undersample(minority, majority []int, rng *rand.Rand) []int {
	perm := rng.Perm(len(majority))
	selected := make([]int, 0, 2*len(minority))
	selected = append(selected, minority...)
	for _, j := range perm[:len(minority)] {
		selected = append(selected, majority[j])
	}
	return selected
}
