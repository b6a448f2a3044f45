package pipeline

import "stockout-service/internal/models"

// EvaluatePredictions computes binary classification metrics at the given
// decision threshold. AUC is the rank statistic over (positive, negative)
// pairs with ties counted as half; a single-class truth vector yields the
// uninformative 0.5.
func EvaluatePredictions(yTrue []int, yProb []float64, threshold float64) models.EvalMetrics {
	var tp, fp, fn float64
	for i, p := range yProb {
		pred := 0
		if p >= threshold {
			pred = 1
		}
		switch {
		case pred == 1 && yTrue[i] == 1:
			tp++
		case pred == 1 && yTrue[i] == 0:
			fp++
		case pred == 0 && yTrue[i] == 1:
			fn++
		}
	}

	precision := safeDiv(tp, tp+fp)
	recall := safeDiv(tp, tp+fn)
	f1 := safeDiv(2*precision*recall, precision+recall)

	return models.EvalMetrics{
		Precision: precision,
		Recall:    recall,
		F1:        f1,
		AUC:       AUC(yTrue, yProb),
	}
}

// AUC computes the area under the ROC curve via pairwise ranking.
func AUC(yTrue []int, yProb []float64) float64 {
	var pos, neg []float64
	for i, label := range yTrue {
		if label == 1 {
			pos = append(pos, yProb[i])
		} else {
			neg = append(neg, yProb[i])
		}
	}
	if len(pos) == 0 || len(neg) == 0 {
		return 0.5
	}

	var wins float64
	for _, p := range pos {
		for _, n := range neg {
			switch {
			case p > n:
				wins++
			case p == n:
				wins += 0.5
			}
		}
	}
	return wins / float64(len(pos)*len(neg))
}

func safeDiv(num, den float64) float64 {
	if den == 0 {
		return 0
	}
	return num / den
}
