// Package metrics implements the binary classification metrics used by the
// cross-validation sweep and the final-model report: accuracy, balanced
// accuracy, ROC AUC, and the confusion counts they are built from.
package metrics

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"

	statkitErrors "github.com/strucbio/statkit/pkg/errors"
)

// ConfusionCounts holds the four cells of a binary confusion matrix.
type ConfusionCounts struct {
	TruePositives  int
	TrueNegatives  int
	FalsePositives int
	FalseNegatives int
}

// Confusion tabulates binary predictions against ground truth. Both vectors
// must contain only 0/1 values.
func Confusion(yTrue, yPred *mat.VecDense) (ConfusionCounts, error) {
	var counts ConfusionCounts

	if yTrue == nil || yPred == nil {
		return counts, statkitErrors.NewValueError("Confusion", "input vectors cannot be nil")
	}

	n := yTrue.Len()
	if n == 0 {
		return counts, statkitErrors.NewValueError("Confusion", "input vectors cannot be empty")
	}
	if n != yPred.Len() {
		return counts, statkitErrors.NewDimensionError("Confusion", n, yPred.Len(), 0)
	}

	for i := 0; i < n; i++ {
		yt := yTrue.AtVec(i)
		yp := yPred.AtVec(i)
		if yt != 0 && yt != 1 {
			return counts, statkitErrors.NewValidationError(
				"yTrue",
				fmt.Sprintf("must contain only binary values (0 or 1), found %v at index %d", yt, i),
				yt,
			)
		}
		if yp != 0 && yp != 1 {
			return counts, statkitErrors.NewValidationError(
				"yPred",
				fmt.Sprintf("must contain only binary values (0 or 1), found %v at index %d", yp, i),
				yp,
			)
		}

		switch {
		case yt == 1 && yp == 1:
			counts.TruePositives++
		case yt == 0 && yp == 0:
			counts.TrueNegatives++
		case yt == 0 && yp == 1:
			counts.FalsePositives++
		default:
			counts.FalseNegatives++
		}
	}

	return counts, nil
}

// Accuracy returns the fraction of correct predictions.
func Accuracy(yTrue, yPred *mat.VecDense) (float64, error) {
	counts, err := Confusion(yTrue, yPred)
	if err != nil {
		return 0, err
	}
	total := counts.TruePositives + counts.TrueNegatives + counts.FalsePositives + counts.FalseNegatives
	return float64(counts.TruePositives+counts.TrueNegatives) / float64(total), nil
}

// BalancedAccuracy returns the mean of sensitivity (recall on the positive
// class) and specificity (recall on the negative class). Unlike plain
// accuracy it is robust to class imbalance.
//
// When yTrue contains a single class, the recall of the absent class is
// undefined; the returned value is the recall of the present class and an
// *errors.UndefinedMetricWarning is returned alongside it. Callers may treat
// the warning as an annotation rather than a failure.
func BalancedAccuracy(yTrue, yPred *mat.VecDense) (float64, error) {
	counts, err := Confusion(yTrue, yPred)
	if err != nil {
		return 0, err
	}

	nPos := counts.TruePositives + counts.FalseNegatives
	nNeg := counts.TrueNegatives + counts.FalsePositives

	switch {
	case nPos == 0 && nNeg == 0:
		return 0, statkitErrors.NewValueError("BalancedAccuracy", "input vectors cannot be empty")
	case nPos == 0:
		specificity := float64(counts.TrueNegatives) / float64(nNeg)
		return specificity, statkitErrors.NewUndefinedMetricWarning(
			"balanced_accuracy", "no positive samples in yTrue", specificity)
	case nNeg == 0:
		sensitivity := float64(counts.TruePositives) / float64(nPos)
		return sensitivity, statkitErrors.NewUndefinedMetricWarning(
			"balanced_accuracy", "no negative samples in yTrue", sensitivity)
	}

	sensitivity := float64(counts.TruePositives) / float64(nPos)
	specificity := float64(counts.TrueNegatives) / float64(nNeg)
	return (sensitivity + specificity) / 2, nil
}

// ROCAUC calculates the area under the receiver operating characteristic
// curve for binary classification.
//
// The AUC is the probability that the classifier ranks a randomly chosen
// positive instance above a randomly chosen negative one: 0.5 is random
// guessing, 1.0 is perfect ranking.
//
// Parameters:
//   - yTrue: ground truth binary labels (0 or 1)
//   - yScore: predicted probabilities or decision scores
//
// When yTrue contains a single class the ROC curve is undefined. ROCAUC then
// returns NaN together with an *errors.UndefinedMetricWarning so that a
// degenerate validation fold is reported as "not applicable" instead of
// being silently scored.
//
// Example:
//
//	yTrue := mat.NewVecDense(4, []float64{0, 0, 1, 1})
//	yScore := mat.NewVecDense(4, []float64{0.1, 0.4, 0.35, 0.8})
//	auc, err := metrics.ROCAUC(yTrue, yScore)
//	// auc == 0.75
func ROCAUC(yTrue, yScore *mat.VecDense) (float64, error) {
	if yTrue == nil || yScore == nil {
		return 0, statkitErrors.NewValueError("ROCAUC", "input vectors cannot be nil")
	}

	n := yTrue.Len()
	if n == 0 {
		return 0, statkitErrors.NewValueError("ROCAUC", "input vectors cannot be empty")
	}
	if n != yScore.Len() {
		return 0, statkitErrors.NewDimensionError("ROCAUC", n, yScore.Len(), 0)
	}

	totalPos := 0.0
	totalNeg := 0.0
	for i := 0; i < n; i++ {
		val := yTrue.AtVec(i)
		if val != 0.0 && val != 1.0 {
			return 0, statkitErrors.NewValidationError(
				"yTrue",
				fmt.Sprintf("must contain only binary values (0 or 1), found %f at index %d", val, i),
				val,
			)
		}
		if val == 1.0 {
			totalPos++
		} else {
			totalNeg++
		}
	}

	if totalPos == 0 || totalNeg == 0 {
		condition := "only one class present in yTrue"
		return math.NaN(), statkitErrors.NewUndefinedMetricWarning("roc_auc", condition, math.NaN())
	}

	type pair struct {
		score float64
		label float64
	}
	pairs := make([]pair, n)
	for i := 0; i < n; i++ {
		pairs[i] = pair{score: yScore.AtVec(i), label: yTrue.AtVec(i)}
	}
	sort.Slice(pairs, func(i, j int) bool {
		return pairs[i].score > pairs[j].score
	})

	// Walk thresholds from the highest score down, emitting one ROC point
	// per distinct score, then integrate with the trapezoid rule.
	var tprs, fprs []float64
	tprs = append(tprs, 0)
	fprs = append(fprs, 0)

	tp := 0.0
	fp := 0.0
	prevScore := pairs[0].score + 1
	for _, p := range pairs {
		if p.score != prevScore {
			tprs = append(tprs, tp/totalPos)
			fprs = append(fprs, fp/totalNeg)
			prevScore = p.score
		}
		if p.label == 1.0 {
			tp++
		} else {
			fp++
		}
	}

	tprs = append(tprs, 1)
	fprs = append(fprs, 1)

	auc := 0.0
	for i := 1; i < len(fprs); i++ {
		width := fprs[i] - fprs[i-1]
		height := (tprs[i] + tprs[i-1]) / 2
		auc += width * height
	}

	return auc, nil
}
