package linear_model

import (
	"math"
	"math/rand/v2"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

// overlapFixture is a noisy two-feature problem: feature 0 is associated
// with the outcome, feature 1 is pure noise.
func overlapFixture(nSamples int) (*mat.Dense, *mat.Dense) {
	rng := rand.New(rand.NewPCG(31, 31))
	X := mat.NewDense(nSamples, 2, nil)
	y := mat.NewDense(nSamples, 1, nil)
	for i := 0; i < nSamples; i++ {
		v0 := rng.NormFloat64()
		v1 := rng.NormFloat64()
		X.Set(i, 0, v0)
		X.Set(i, 1, v1)
		if 1/(1+math.Exp(-1.5*v0)) > rng.Float64() {
			y.Set(i, 0, 1)
		}
	}
	return X, y
}

func TestSummarize(t *testing.T) {
	silenceWarnings(t)
	X, y := overlapFixture(400)

	lr := NewLogisticRegression(WithPenalty(PenaltyNone), WithMaxIter(500))
	require.NoError(t, lr.Fit(X, y))

	summary, err := lr.Summarize(X, []string{"resolution", "b_factor"})
	require.NoError(t, err)
	require.Len(t, summary.Terms, 3)
	assert.Equal(t, 400, summary.NSamples)

	assert.Equal(t, "(intercept)", summary.Terms[0].Name)
	assert.Equal(t, "resolution", summary.Terms[1].Name)
	assert.Equal(t, "b_factor", summary.Terms[2].Name)

	for _, term := range summary.Terms {
		assert.Positive(t, term.StdErr, "%s", term.Name)
		assert.GreaterOrEqual(t, term.PValue, 0.0, "%s", term.Name)
		assert.LessOrEqual(t, term.PValue, 1.0, "%s", term.Name)
		assert.InDelta(t, term.Estimate/term.StdErr, term.Z, 1e-12, "%s", term.Name)
		assert.InDelta(t, math.Exp(term.Estimate), term.OddsRatio, 1e-12, "%s", term.Name)
	}

	// The informative feature is clearly significant, the noise feature
	// clearly is not.
	assert.Less(t, summary.Terms[1].PValue, 0.001)
	assert.Greater(t, summary.Terms[2].PValue, 0.05)
}

func TestSummarizeRequiresUnpenalizedFit(t *testing.T) {
	silenceWarnings(t)
	X, y := overlapFixture(100)

	lr := NewLogisticRegression(WithPenalty(PenaltyL1), WithC(1), WithMaxIter(1000))
	require.NoError(t, lr.Fit(X, y))

	_, err := lr.Summarize(X, []string{"a", "b"})
	assert.Error(t, err)
}

func TestSummarizeNotFitted(t *testing.T) {
	lr := NewLogisticRegression(WithPenalty(PenaltyNone))
	_, err := lr.Summarize(mat.NewDense(1, 2, nil), []string{"a", "b"})
	assert.Error(t, err)
}

func TestSummarizeNameCountMismatch(t *testing.T) {
	silenceWarnings(t)
	X, y := overlapFixture(100)

	lr := NewLogisticRegression(WithPenalty(PenaltyNone), WithMaxIter(500))
	require.NoError(t, lr.Fit(X, y))

	_, err := lr.Summarize(X, []string{"only_one"})
	assert.Error(t, err)
}

func TestSummaryString(t *testing.T) {
	silenceWarnings(t)
	X, y := overlapFixture(150)

	lr := NewLogisticRegression(WithPenalty(PenaltyNone), WithMaxIter(500))
	require.NoError(t, lr.Fit(X, y))

	summary, err := lr.Summarize(X, []string{"resolution", "b_factor"})
	require.NoError(t, err)

	text := summary.String()
	assert.Contains(t, text, "(intercept)")
	assert.Contains(t, text, "resolution")
	assert.Contains(t, text, "odds ratio")
	assert.Equal(t, 5, strings.Count(text, "\n"), "header, column row and one line per term")
}
