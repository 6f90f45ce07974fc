package metrics

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	statkitErrors "github.com/strucbio/statkit/pkg/errors"
)

func TestConfusion(t *testing.T) {
	yTrue := mat.NewVecDense(8, []float64{1, 1, 1, 1, 0, 0, 0, 0})
	yPred := mat.NewVecDense(8, []float64{1, 1, 1, 0, 0, 0, 1, 1})

	counts, err := Confusion(yTrue, yPred)
	require.NoError(t, err)
	assert.Equal(t, 3, counts.TruePositives)
	assert.Equal(t, 2, counts.TrueNegatives)
	assert.Equal(t, 2, counts.FalsePositives)
	assert.Equal(t, 1, counts.FalseNegatives)
}

func TestConfusionValidation(t *testing.T) {
	t.Run("nil input", func(t *testing.T) {
		_, err := Confusion(nil, mat.NewVecDense(1, []float64{0}))
		assert.Error(t, err)
	})

	t.Run("length mismatch", func(t *testing.T) {
		yTrue := mat.NewVecDense(3, []float64{0, 1, 0})
		yPred := mat.NewVecDense(2, []float64{0, 1})
		_, err := Confusion(yTrue, yPred)
		var dimErr *statkitErrors.DimensionError
		assert.ErrorAs(t, err, &dimErr)
	})

	t.Run("non-binary label", func(t *testing.T) {
		yTrue := mat.NewVecDense(2, []float64{0, 2})
		yPred := mat.NewVecDense(2, []float64{0, 1})
		_, err := Confusion(yTrue, yPred)
		assert.Error(t, err)
	})
}

func TestAccuracy(t *testing.T) {
	yTrue := mat.NewVecDense(4, []float64{0, 1, 1, 0})
	yPred := mat.NewVecDense(4, []float64{0, 1, 0, 0})

	acc, err := Accuracy(yTrue, yPred)
	require.NoError(t, err)
	assert.InDelta(t, 0.75, acc, 1e-12)
}

func TestBalancedAccuracy(t *testing.T) {
	// 3 of 4 positives recalled, 2 of 4 negatives recalled.
	yTrue := mat.NewVecDense(8, []float64{1, 1, 1, 1, 0, 0, 0, 0})
	yPred := mat.NewVecDense(8, []float64{1, 1, 1, 0, 0, 0, 1, 1})

	balAcc, err := BalancedAccuracy(yTrue, yPred)
	require.NoError(t, err)
	assert.InDelta(t, (0.75+0.5)/2, balAcc, 1e-12)
}

func TestBalancedAccuracyImbalanceInvariance(t *testing.T) {
	// A majority-class predictor scores high on plain accuracy but only
	// 0.5 on balanced accuracy.
	yTrue := mat.NewVecDense(10, []float64{1, 0, 0, 0, 0, 0, 0, 0, 0, 0})
	yPred := mat.NewVecDense(10, nil)

	acc, err := Accuracy(yTrue, yPred)
	require.NoError(t, err)
	assert.InDelta(t, 0.9, acc, 1e-12)

	balAcc, err := BalancedAccuracy(yTrue, yPred)
	require.NoError(t, err)
	assert.InDelta(t, 0.5, balAcc, 1e-12)
}

func TestBalancedAccuracySingleClass(t *testing.T) {
	yTrue := mat.NewVecDense(4, []float64{1, 1, 1, 1})
	yPred := mat.NewVecDense(4, []float64{1, 1, 0, 1})

	balAcc, err := BalancedAccuracy(yTrue, yPred)
	var warning *statkitErrors.UndefinedMetricWarning
	require.ErrorAs(t, err, &warning)
	assert.Equal(t, "balanced_accuracy", warning.Metric)
	assert.InDelta(t, 0.75, balAcc, 1e-12)
}

func TestROCAUC(t *testing.T) {
	tests := []struct {
		name   string
		yTrue  []float64
		yScore []float64
		want   float64
	}{
		{
			name:   "partial ranking",
			yTrue:  []float64{0, 0, 1, 1},
			yScore: []float64{0.1, 0.4, 0.35, 0.8},
			want:   0.75,
		},
		{
			name:   "perfect ranking",
			yTrue:  []float64{0, 0, 1, 1},
			yScore: []float64{0.1, 0.2, 0.8, 0.9},
			want:   1.0,
		},
		{
			name:   "inverted ranking",
			yTrue:  []float64{0, 0, 1, 1},
			yScore: []float64{0.9, 0.8, 0.2, 0.1},
			want:   0.0,
		},
		{
			name:   "all tied scores",
			yTrue:  []float64{0, 1, 0, 1},
			yScore: []float64{0.5, 0.5, 0.5, 0.5},
			want:   0.5,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			yTrue := mat.NewVecDense(len(tt.yTrue), tt.yTrue)
			yScore := mat.NewVecDense(len(tt.yScore), tt.yScore)
			auc, err := ROCAUC(yTrue, yScore)
			require.NoError(t, err)
			assert.InDelta(t, tt.want, auc, 1e-12)
		})
	}
}

func TestROCAUCSingleClass(t *testing.T) {
	yTrue := mat.NewVecDense(3, []float64{1, 1, 1})
	yScore := mat.NewVecDense(3, []float64{0.2, 0.5, 0.9})

	auc, err := ROCAUC(yTrue, yScore)
	var warning *statkitErrors.UndefinedMetricWarning
	require.ErrorAs(t, err, &warning)
	assert.Equal(t, "roc_auc", warning.Metric)
	assert.True(t, math.IsNaN(auc))
}

func TestROCAUCScoreScaleInvariance(t *testing.T) {
	yTrue := mat.NewVecDense(6, []float64{0, 1, 0, 1, 1, 0})
	raw := []float64{-2.3, 0.4, -0.7, 1.9, 0.1, -1.1}

	scores := mat.NewVecDense(6, raw)
	auc1, err := ROCAUC(yTrue, scores)
	require.NoError(t, err)

	// Any monotone transform of the scores leaves the ranking alone.
	squashed := mat.NewVecDense(6, nil)
	for i, v := range raw {
		squashed.SetVec(i, 1/(1+math.Exp(-v)))
	}
	auc2, err := ROCAUC(yTrue, squashed)
	require.NoError(t, err)

	assert.InDelta(t, auc1, auc2, 1e-12)
}
