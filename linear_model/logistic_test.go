package linear_model

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	statkitErrors "github.com/strucbio/statkit/pkg/errors"
)

// silenceWarnings swallows global warnings for the duration of a test.
func silenceWarnings(t *testing.T) {
	t.Helper()
	statkitErrors.SetWarningHandler(func(error) {})
	statkitErrors.SetZerologWarnFunc(nil)
	t.Cleanup(func() {
		statkitErrors.SetWarningHandler(nil)
	})
}

// separableFixture is a 1-D problem where the sign of the feature decides
// the class.
func separableFixture() (*mat.Dense, *mat.Dense) {
	values := []float64{-3, -2.5, -2, -1.5, -1, 1, 1.5, 2, 2.5, 3}
	X := mat.NewDense(len(values), 1, values)
	y := mat.NewDense(len(values), 1, nil)
	for i, v := range values {
		if v > 0 {
			y.Set(i, 0, 1)
		}
	}
	return X, y
}

// noisyFixture is a 10-feature problem where only the first two features
// carry signal.
func noisyFixture(nSamples int) (*mat.Dense, *mat.Dense) {
	const nFeatures = 10
	rng := rand.New(rand.NewPCG(23, 23))

	X := mat.NewDense(nSamples, nFeatures, nil)
	y := mat.NewDense(nSamples, 1, nil)
	for i := 0; i < nSamples; i++ {
		z := 0.0
		for j := 0; j < nFeatures; j++ {
			v := rng.NormFloat64()
			X.Set(i, j, v)
			switch j {
			case 0:
				z += 2.0 * v
			case 1:
				z -= 1.5 * v
			}
		}
		if 1/(1+math.Exp(-z)) > rng.Float64() {
			y.Set(i, 0, 1)
		}
	}
	return X, y
}

func TestLogisticRegressionSeparable(t *testing.T) {
	silenceWarnings(t)
	X, y := separableFixture()

	lr := NewLogisticRegression(WithPenalty(PenaltyL2), WithMaxIter(500))
	require.NoError(t, lr.Fit(X, y))

	predictions, err := lr.Predict(X)
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		assert.Equal(t, y.At(i, 0), predictions.At(i, 0), "row %d", i)
	}
	assert.InDelta(t, 1.0, lr.Score(X, y), 1e-12)
	assert.Positive(t, lr.Coef()[0])
}

func TestLogisticRegressionArbitraryLabels(t *testing.T) {
	silenceWarnings(t)
	X, y01 := separableFixture()

	// Relabel {0,1} as {2,5}: the larger value is the positive class and
	// predictions come back in the original label space.
	n, _ := y01.Dims()
	y := mat.NewDense(n, 1, nil)
	for i := 0; i < n; i++ {
		if y01.At(i, 0) == 1 {
			y.Set(i, 0, 5)
		} else {
			y.Set(i, 0, 2)
		}
	}

	lr := NewLogisticRegression(WithMaxIter(500))
	require.NoError(t, lr.Fit(X, y))
	assert.Equal(t, []float64{2, 5}, lr.Classes())

	predictions, err := lr.Predict(X)
	require.NoError(t, err)
	for i := 0; i < n; i++ {
		assert.Contains(t, []float64{2, 5}, predictions.At(i, 0))
		assert.Equal(t, y.At(i, 0), predictions.At(i, 0), "row %d", i)
	}
}

func TestLogisticRegressionL1Sparsity(t *testing.T) {
	silenceWarnings(t)
	X, y := noisyFixture(300)

	lr := NewLogisticRegression(
		WithPenalty(PenaltyL1),
		WithC(0.5),
		WithMaxIter(2000),
	)
	require.NoError(t, lr.Fit(X, y))

	// Noise features are generally eliminated while informative ones
	// survive with the right sign.
	coef := lr.Coef()
	assert.Positive(t, coef[0])
	assert.Negative(t, coef[1])
	assert.Less(t, lr.NonZeroCount(), 10)

	// Eliminated coefficients are exactly zero, not merely small.
	for j, w := range coef {
		if w != 0 {
			continue
		}
		assert.Zero(t, coef[j])
	}
}

func TestLogisticRegressionL1FullShrinkage(t *testing.T) {
	silenceWarnings(t)
	X, y := noisyFixture(200)

	lr := NewLogisticRegression(
		WithPenalty(PenaltyL1),
		WithC(1e-5),
		WithMaxIter(1000),
	)
	require.NoError(t, lr.Fit(X, y))
	assert.Zero(t, lr.NonZeroCount())
}

func TestLogisticRegressionL1SparsityMonotone(t *testing.T) {
	silenceWarnings(t)
	X, y := noisyFixture(250)

	previous := 0
	for _, c := range []float64{1e-4, 0.01, 0.1, 1, 100} {
		lr := NewLogisticRegression(
			WithPenalty(PenaltyL1),
			WithC(c),
			WithMaxIter(2000),
		)
		require.NoError(t, lr.Fit(X, y))
		assert.GreaterOrEqual(t, lr.NonZeroCount(), previous, "C=%v", c)
		previous = lr.NonZeroCount()
	}
}

func TestLogisticRegressionDeterminism(t *testing.T) {
	silenceWarnings(t)
	X, y := noisyFixture(150)

	fit := func() ([]float64, float64) {
		lr := NewLogisticRegression(WithPenalty(PenaltyL1), WithC(1), WithMaxIter(1000))
		require.NoError(t, lr.Fit(X, y))
		return lr.Coef(), lr.Intercept()
	}

	coef1, intercept1 := fit()
	coef2, intercept2 := fit()
	assert.Equal(t, coef1, coef2)
	assert.Equal(t, intercept1, intercept2)
}

func TestLogisticRegressionPredictProba(t *testing.T) {
	silenceWarnings(t)
	X, y := separableFixture()

	lr := NewLogisticRegression(WithMaxIter(500))
	require.NoError(t, lr.Fit(X, y))

	probas, err := lr.PredictProba(X)
	require.NoError(t, err)
	r, c := probas.Dims()
	require.Equal(t, 10, r)
	require.Equal(t, 2, c)
	for i := 0; i < r; i++ {
		p0 := probas.At(i, 0)
		p1 := probas.At(i, 1)
		assert.InDelta(t, 1.0, p0+p1, 1e-12)
		assert.GreaterOrEqual(t, p1, 0.0)
		assert.LessOrEqual(t, p1, 1.0)
	}
}

func TestLogisticRegressionConvergenceReporting(t *testing.T) {
	var captured []error
	statkitErrors.SetWarningHandler(func(w error) { captured = append(captured, w) })
	statkitErrors.SetZerologWarnFunc(nil)
	t.Cleanup(func() { statkitErrors.SetWarningHandler(nil) })

	X, y := noisyFixture(200)
	lr := NewLogisticRegression(WithPenalty(PenaltyL1), WithC(10), WithMaxIter(1))
	require.NoError(t, lr.Fit(X, y))

	assert.False(t, lr.Converged())
	assert.Equal(t, 1, lr.NIter())

	require.NotEmpty(t, captured)
	var warning *statkitErrors.ConvergenceWarning
	assert.ErrorAs(t, captured[0], &warning)
}

func TestLogisticRegressionNotFitted(t *testing.T) {
	lr := NewLogisticRegression()
	X := mat.NewDense(2, 1, []float64{1, 2})

	_, err := lr.Predict(X)
	var notFitted *statkitErrors.NotFittedError
	assert.ErrorAs(t, err, &notFitted)

	_, err = lr.PredictProba(X)
	assert.Error(t, err)
	_, err = lr.DecisionFunction(X)
	assert.Error(t, err)
}

func TestLogisticRegressionValidation(t *testing.T) {
	silenceWarnings(t)
	X, y := separableFixture()

	t.Run("unknown penalty", func(t *testing.T) {
		lr := NewLogisticRegression(WithPenalty("elasticnet"))
		assert.Error(t, lr.Fit(X, y))
	})

	t.Run("non-positive C", func(t *testing.T) {
		lr := NewLogisticRegression(WithC(0))
		assert.Error(t, lr.Fit(X, y))
	})

	t.Run("single class", func(t *testing.T) {
		ones := mat.NewDense(10, 1, nil)
		for i := 0; i < 10; i++ {
			ones.Set(i, 0, 1)
		}
		lr := NewLogisticRegression()
		assert.Error(t, lr.Fit(X, ones))
	})

	t.Run("row mismatch", func(t *testing.T) {
		short := mat.NewDense(3, 1, []float64{0, 1, 0})
		lr := NewLogisticRegression()
		var dimErr *statkitErrors.DimensionError
		assert.ErrorAs(t, lr.Fit(X, short), &dimErr)
	})

	t.Run("feature mismatch at predict", func(t *testing.T) {
		lr := NewLogisticRegression(WithMaxIter(500))
		require.NoError(t, lr.Fit(X, y))
		wide := mat.NewDense(2, 3, nil)
		_, err := lr.Predict(wide)
		var dimErr *statkitErrors.DimensionError
		assert.ErrorAs(t, err, &dimErr)
	})
}

func TestDecisionFunctionOrdersLikeProbability(t *testing.T) {
	silenceWarnings(t)
	X, y := noisyFixture(100)

	lr := NewLogisticRegression(WithMaxIter(500))
	require.NoError(t, lr.Fit(X, y))

	scores, err := lr.DecisionFunction(X)
	require.NoError(t, err)
	probas, err := lr.PredictProba(X)
	require.NoError(t, err)

	for i := 1; i < 100; i++ {
		if scores.AtVec(i) > scores.AtVec(i-1) {
			assert.GreaterOrEqual(t, probas.At(i, 1), probas.At(i-1, 1))
		}
	}
}

func TestSoftThreshold(t *testing.T) {
	assert.Equal(t, 0.5, softThreshold(1.5, 1))
	assert.Equal(t, -0.5, softThreshold(-1.5, 1))
	assert.Zero(t, softThreshold(0.7, 1))
	assert.Zero(t, softThreshold(-0.7, 1))
	assert.Zero(t, softThreshold(0, 1))
}
