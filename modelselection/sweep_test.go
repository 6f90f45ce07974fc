package modelselection

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	statkitErrors "github.com/strucbio/statkit/pkg/errors"
)

// sweepFixture builds a balanced binary problem where the first two of ten
// standardized features carry strong signal.
func sweepFixture(nSamples int) (*mat.Dense, *mat.Dense) {
	const nFeatures = 10
	rng := rand.New(rand.NewPCG(17, 17))

	X := mat.NewDense(nSamples, nFeatures, nil)
	y := mat.NewDense(nSamples, 1, nil)
	for i := 0; i < nSamples; i++ {
		z := 0.0
		for j := 0; j < nFeatures; j++ {
			v := rng.NormFloat64()
			X.Set(i, j, v)
			switch j {
			case 0:
				z += 2.5 * v
			case 1:
				z -= 2.0 * v
			}
		}
		if 1/(1+math.Exp(-z)) > rng.Float64() {
			y.Set(i, 0, 1)
		}
	}
	return X, y
}

func TestRegularizationSweep(t *testing.T) {
	X, y := sweepFixture(200)
	candidates := []float64{0.001, 0.1, 1, 10}

	result, err := RegularizationSweep(X, y, SweepConfig{
		Candidates: candidates,
		NFolds:     5,
		Seed:       42,
	})
	require.NoError(t, err)
	require.Len(t, result.Results, len(candidates))
	require.Len(t, result.Folds, 5)

	for i, r := range result.Results {
		assert.Equal(t, candidates[i], r.C, "results keep candidate order")
		require.Len(t, r.Folds, 5)

		assert.GreaterOrEqual(t, r.BalancedAccuracy.Mean, 0.0)
		assert.LessOrEqual(t, r.BalancedAccuracy.Mean, 1.0)
		assert.GreaterOrEqual(t, r.AUROC.Mean, 0.0)
		assert.LessOrEqual(t, r.AUROC.Mean, 1.0)
		assert.GreaterOrEqual(t, r.BalancedAccuracy.Std, 0.0)
	}

	// Heavy regularization eliminates everything; light regularization
	// keeps at least the two informative features.
	assert.Zero(t, result.Results[0].NonZero.Mean)
	assert.GreaterOrEqual(t, result.Results[3].NonZero.Mean, 2.0)

	// Sparsity grows monotonically as C shrinks.
	for i := 1; i < len(result.Results); i++ {
		assert.LessOrEqual(t, result.Results[i-1].NonZero.Mean, result.Results[i].NonZero.Mean)
	}

	// An informative problem beats chance at a sensible C.
	assert.Greater(t, result.Results[2].BalancedAccuracy.Mean, 0.7)
	assert.Greater(t, result.Results[2].AUROC.Mean, 0.8)
}

func TestRegularizationSweepAllZeroCandidate(t *testing.T) {
	X, y := sweepFixture(100)

	result, err := RegularizationSweep(X, y, SweepConfig{
		Candidates: []float64{1e-4},
		NFolds:     4,
		Seed:       1,
	})
	require.NoError(t, err)

	// The fully penalized model predicts a single class everywhere:
	// balanced accuracy and AUROC both collapse to chance level.
	r := result.Results[0]
	assert.Zero(t, r.NonZero.Mean)
	assert.InDelta(t, 0.5, r.BalancedAccuracy.Mean, 1e-12)
	assert.InDelta(t, 0.5, r.AUROC.Mean, 1e-12)
}

func TestRegularizationSweepDeterminism(t *testing.T) {
	X, y := sweepFixture(120)
	cfg := SweepConfig{
		Candidates: []float64{0.1, 1, 10},
		NFolds:     4,
		Seed:       7,
	}

	first, err := RegularizationSweep(X, y, cfg)
	require.NoError(t, err)
	second, err := RegularizationSweep(X, y, cfg)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	// Scheduling must never influence numbers: a sequential run and a
	// parallel run agree bit for bit.
	cfg.Workers = 1
	sequential, err := RegularizationSweep(X, y, cfg)
	require.NoError(t, err)
	cfg.Workers = 8
	parallel, err := RegularizationSweep(X, y, cfg)
	require.NoError(t, err)
	assert.Equal(t, sequential, parallel)
}

func TestRegularizationSweepSharedPartition(t *testing.T) {
	X, y := sweepFixture(80)

	result, err := RegularizationSweep(X, y, SweepConfig{
		Candidates: []float64{0.5, 5},
		NFolds:     4,
		Seed:       3,
	})
	require.NoError(t, err)

	expected, err := NewStratifiedKFold(4, true, 3).Split(y)
	require.NoError(t, err)
	assert.Equal(t, expected, result.Folds)
}

func TestRegularizationSweepDegenerateFolds(t *testing.T) {
	// Two positives spread over five folds leave three validation folds
	// with a single class: their AUROC is not applicable and the
	// aggregate is computed from the remaining folds only.
	const n = 32
	X := mat.NewDense(n, 3, nil)
	y := mat.NewDense(n, 1, nil)
	rng := rand.New(rand.NewPCG(5, 5))
	for i := 0; i < n; i++ {
		for j := 0; j < 3; j++ {
			X.Set(i, j, rng.NormFloat64())
		}
	}
	y.Set(0, 0, 1)
	y.Set(1, 0, 1)

	result, err := RegularizationSweep(X, y, SweepConfig{
		Candidates: []float64{1},
		NFolds:     5,
		Seed:       2,
	})
	require.NoError(t, err)

	r := result.Results[0]
	degenerate := 0
	for _, fold := range r.Folds {
		if math.IsNaN(fold.AUROC) {
			degenerate++
			found := false
			for _, w := range fold.Warnings {
				var warning *statkitErrors.UndefinedMetricWarning
				if statkitErrors.As(w, &warning) {
					found = true
				}
			}
			assert.True(t, found, "degenerate fold %d carries an annotation", fold.Fold)
		}
	}
	assert.Equal(t, 3, degenerate)
}

func TestRegularizationSweepTinyCohort(t *testing.T) {
	// Five samples over five folds cannot fill every validation fold, so
	// the sweep surfaces the partition error instead of panicking inside
	// the fold materialization.
	X := mat.NewDense(5, 2, []float64{
		0.1, 1.2,
		-0.4, 0.8,
		0.9, -0.3,
		1.5, 0.2,
		-0.7, -1.1,
	})
	y := mat.NewDense(5, 1, []float64{0, 0, 0, 1, 1})

	var result *SweepResult
	var err error
	assert.NotPanics(t, func() {
		result, err = RegularizationSweep(X, y, SweepConfig{
			Candidates: []float64{1},
			NFolds:     5,
		})
	})
	require.Error(t, err)
	assert.Nil(t, result)
	var validationErr *statkitErrors.ValidationError
	assert.ErrorAs(t, err, &validationErr)
}

func TestRegularizationSweepCohortScale(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping full-size sweep in short mode")
	}
	const (
		nSamples  = 1000
		nFeatures = 20
	)
	rng := rand.New(rand.NewPCG(29, 29))
	X := mat.NewDense(nSamples, nFeatures, nil)
	y := mat.NewDense(nSamples, 1, nil)
	for i := 0; i < nSamples; i++ {
		z := 0.0
		for j := 0; j < nFeatures; j++ {
			v := rng.NormFloat64()
			X.Set(i, j, v)
			switch j {
			case 0:
				z += 1.5 * v
			case 1:
				z -= 1.0 * v
			case 2:
				z += 0.8 * v
			}
		}
		if 1/(1+math.Exp(-z)) > rng.Float64() {
			y.Set(i, 0, 1)
		}
	}

	candidates := []float64{0.1, 1, 10, 100}
	result, err := RegularizationSweep(X, y, SweepConfig{
		Candidates: candidates,
		NFolds:     5,
		Seed:       29,
	})
	require.NoError(t, err)
	require.Len(t, result.Results, len(candidates))

	for i, r := range result.Results {
		assert.Equal(t, candidates[i], r.C)
		require.Len(t, r.Folds, 5)
		assert.GreaterOrEqual(t, r.BalancedAccuracy.Mean, 0.0)
		assert.LessOrEqual(t, r.BalancedAccuracy.Mean, 1.0)
		assert.GreaterOrEqual(t, r.AUROC.Mean, 0.0)
		assert.LessOrEqual(t, r.AUROC.Mean, 1.0)
	}
}

func TestRegularizationSweepValidation(t *testing.T) {
	X, y := sweepFixture(40)

	t.Run("no candidates", func(t *testing.T) {
		_, err := RegularizationSweep(X, y, SweepConfig{NFolds: 3})
		assert.Error(t, err)
	})

	t.Run("non-positive candidate", func(t *testing.T) {
		_, err := RegularizationSweep(X, y, SweepConfig{
			Candidates: []float64{1, -2},
			NFolds:     3,
		})
		assert.Error(t, err)
	})

	t.Run("row mismatch", func(t *testing.T) {
		short := mat.NewDense(10, 1, nil)
		_, err := RegularizationSweep(X, short, SweepConfig{
			Candidates: []float64{1},
			NFolds:     3,
		})
		var dimErr *statkitErrors.DimensionError
		assert.ErrorAs(t, err, &dimErr)
	})
}

func TestSummarize(t *testing.T) {
	t.Run("mean and sample std", func(t *testing.T) {
		s := summarize([]float64{2, 4, 4, 4, 5, 5, 7, 9})
		assert.InDelta(t, 5.0, s.Mean, 1e-12)
		assert.InDelta(t, 2.13809, s.Std, 1e-5)
	})

	t.Run("single value", func(t *testing.T) {
		s := summarize([]float64{0.8})
		assert.Equal(t, 0.8, s.Mean)
		assert.Zero(t, s.Std)
	})

	t.Run("no values", func(t *testing.T) {
		s := summarize(nil)
		assert.True(t, math.IsNaN(s.Mean))
		assert.True(t, math.IsNaN(s.Std))
	})
}
