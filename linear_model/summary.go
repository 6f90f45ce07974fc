package linear_model

import (
	"fmt"
	"math"
	"strings"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"

	statkitErrors "github.com/strucbio/statkit/pkg/errors"
)

// CoefficientStat holds the inference results for a single model term.
type CoefficientStat struct {
	Name     string
	Estimate float64
	StdErr   float64
	Z        float64
	PValue   float64
	// OddsRatio is exp(Estimate): the multiplicative change in the odds of
	// the positive outcome per unit increase of this term.
	OddsRatio float64
}

// Summary holds a statsmodels-style coefficient table for a fitted
// unpenalized logistic regression.
type Summary struct {
	Terms     []CoefficientStat
	NSamples  int
	Converged bool
}

// Summarize computes standard errors, z statistics and two-sided p-values
// for the fitted coefficients from the observed information matrix
// (X'WX with W = diag(p_i(1-p_i))) evaluated at the fit.
//
// The asymptotic standard errors are only valid for the maximum-likelihood
// fit, so Summarize requires penalty "none"; penalized fits return a
// ValidationError. featureNames must match the training feature order; the
// intercept, when fitted, is reported first as "(intercept)".
func (lr *LogisticRegression) Summarize(X mat.Matrix, featureNames []string) (*Summary, error) {
	if !lr.IsFitted() {
		return nil, statkitErrors.NewNotFittedError("LogisticRegression", "Summarize")
	}
	if lr.penalty != PenaltyNone {
		return nil, statkitErrors.NewValidationError("penalty",
			"coefficient standard errors require an unpenalized fit", lr.penalty)
	}

	nSamples, nFeatures := X.Dims()
	if nFeatures != lr.nFeatures_ {
		return nil, statkitErrors.NewDimensionError("LogisticRegression.Summarize", lr.nFeatures_, nFeatures, 1)
	}
	if len(featureNames) != nFeatures {
		return nil, statkitErrors.NewDimensionError("LogisticRegression.Summarize", nFeatures, len(featureNames), 1)
	}

	// Augment with the intercept column so one information matrix covers
	// every term.
	pDim := nFeatures
	offset := 0
	if lr.fitIntercept {
		pDim++
		offset = 1
	}

	info := mat.NewSymDense(pDim, nil)
	for i := 0; i < nSamples; i++ {
		p := stableSigmoid(lr.decision(X, i))
		weight := p * (1 - p)

		row := make([]float64, pDim)
		if lr.fitIntercept {
			row[0] = 1
		}
		for j := 0; j < nFeatures; j++ {
			row[offset+j] = X.At(i, j)
		}
		for a := 0; a < pDim; a++ {
			for b := a; b < pDim; b++ {
				info.SetSym(a, b, info.At(a, b)+weight*row[a]*row[b])
			}
		}
	}

	var cov mat.Dense
	if err := cov.Inverse(info); err != nil {
		return nil, statkitErrors.NewModelError("LogisticRegression.Summarize",
			"information matrix is not invertible", statkitErrors.ErrSingularMatrix)
	}

	estimates := make([]float64, pDim)
	names := make([]string, pDim)
	if lr.fitIntercept {
		estimates[0] = lr.intercept_
		names[0] = "(intercept)"
	}
	for j := 0; j < nFeatures; j++ {
		estimates[offset+j] = lr.coef_[j]
		names[offset+j] = featureNames[j]
	}

	normal := distuv.UnitNormal
	terms := make([]CoefficientStat, pDim)
	for k := 0; k < pDim; k++ {
		se := math.Sqrt(cov.At(k, k))
		z := math.NaN()
		pVal := math.NaN()
		if se > 0 {
			z = estimates[k] / se
			pVal = 2 * normal.Survival(math.Abs(z))
		}
		terms[k] = CoefficientStat{
			Name:      names[k],
			Estimate:  estimates[k],
			StdErr:    se,
			Z:         z,
			PValue:    pVal,
			OddsRatio: math.Exp(estimates[k]),
		}
	}

	return &Summary{
		Terms:     terms,
		NSamples:  nSamples,
		Converged: lr.converged_,
	}, nil
}

// String renders the summary as a fixed-width text table.
func (s *Summary) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Logistic regression summary (n=%d, converged=%t)\n", s.NSamples, s.Converged)
	fmt.Fprintf(&b, "%-20s %12s %12s %9s %10s %12s\n",
		"term", "coef", "std err", "z", "P>|z|", "odds ratio")
	for _, t := range s.Terms {
		fmt.Fprintf(&b, "%-20s %12.6f %12.6f %9.3f %10.4g %12.4f\n",
			t.Name, t.Estimate, t.StdErr, t.Z, t.PValue, t.OddsRatio)
	}
	return b.String()
}
