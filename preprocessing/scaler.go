// Package preprocessing provides the data preparation step that every
// statkit fitting routine assumes has already happened: feature columns
// standardized to zero mean and unit variance.
//
// StandardScaler follows the scikit-learn API pattern with Fit, Transform,
// and FitTransform methods and integrates with the BaseEstimator pattern for
// consistent state management.
//
// Example usage:
//
//	scaler := preprocessing.NewStandardScaler(true, true)
//	Xtrain, err := scaler.FitTransform(trainingData)
//	if err != nil {
//		log.Fatal(err)
//	}
//	Xtest, err := scaler.Transform(testData)
//
// Statistics are always estimated on the training partition only; applying
// the same fitted scaler to the holdout partition keeps the two comparable
// without leaking holdout information into the fit.
package preprocessing

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/strucbio/statkit/core/model"
	"github.com/strucbio/statkit/core/parallel"
	statkitErrors "github.com/strucbio/statkit/pkg/errors"
)

// parallelRowThreshold is the row count above which Transform fans out
// across CPU cores.
const parallelRowThreshold = 10000

// StandardScaler standardizes features by removing the mean and scaling to
// unit variance: X_scaled = (X - mean) / std, per column.
type StandardScaler struct {
	model.BaseEstimator

	// Mean is the per-feature mean estimated by Fit.
	Mean []float64

	// Scale is the per-feature standard deviation estimated by Fit.
	Scale []float64

	// NFeatures is the number of feature columns seen by Fit.
	NFeatures int

	// WithMean controls whether the mean is subtracted (default: true).
	WithMean bool

	// WithStd controls whether values are divided by the standard
	// deviation (default: true).
	WithStd bool
}

// NewStandardScaler creates a StandardScaler.
//
// Parameters:
//   - withMean: whether to center the data at zero by removing the mean
//   - withStd: whether to scale the data to unit variance
//
// Example:
//
//	// Standard z-score normalization (mean=0, std=1)
//	scaler := preprocessing.NewStandardScaler(true, true)
func NewStandardScaler(withMean, withStd bool) *StandardScaler {
	return &StandardScaler{
		WithMean: withMean,
		WithStd:  withStd,
	}
}

// NewStandardScalerDefault creates a StandardScaler with both centering and
// scaling enabled.
func NewStandardScalerDefault() *StandardScaler {
	return NewStandardScaler(true, true)
}

// Fit computes the per-feature mean and standard deviation from X.
//
// The scaler must be fitted before calling Transform or InverseTransform.
// Columns with near-zero variance get a scale of 1 so that constant features
// pass through unchanged instead of dividing by zero.
func (s *StandardScaler) Fit(X mat.Matrix) (err error) {
	defer statkitErrors.Recover(&err, "StandardScaler.Fit")
	r, c := X.Dims()
	if r == 0 || c == 0 {
		return statkitErrors.NewModelError("StandardScaler.Fit", "empty data", statkitErrors.ErrEmptyData)
	}

	s.NFeatures = c
	s.Mean = make([]float64, c)
	s.Scale = make([]float64, c)

	if s.WithMean {
		for j := 0; j < c; j++ {
			sum := 0.0
			for i := 0; i < r; i++ {
				sum += X.At(i, j)
			}
			s.Mean[j] = sum / float64(r)
		}
	}

	if s.WithStd {
		for j := 0; j < c; j++ {
			sumSquares := 0.0
			for i := 0; i < r; i++ {
				diff := X.At(i, j) - s.Mean[j]
				sumSquares += diff * diff
			}
			variance := sumSquares / float64(r)
			s.Scale[j] = math.Sqrt(variance)

			// Constant feature: leave it unscaled.
			if math.Abs(s.Scale[j]) < 1e-8 {
				s.Scale[j] = 1.0
			}
		}
	} else {
		for j := 0; j < c; j++ {
			s.Scale[j] = 1.0
		}
	}

	s.SetFitted()
	return nil
}

// Transform standardizes X using the fitted statistics.
//
// Returns a new matrix; the input is not modified. Errors with
// NotFittedError when called before Fit and DimensionError when the column
// count differs from the fitted one.
func (s *StandardScaler) Transform(X mat.Matrix) (_ mat.Matrix, err error) {
	defer statkitErrors.Recover(&err, "StandardScaler.Transform")
	if !s.IsFitted() {
		return nil, statkitErrors.NewNotFittedError("StandardScaler", "Transform")
	}

	r, c := X.Dims()
	if c != s.NFeatures {
		return nil, statkitErrors.NewDimensionError("StandardScaler.Transform", s.NFeatures, c, 1)
	}

	result := mat.NewDense(r, c, nil)

	parallel.ParallelizeWithThreshold(r, parallelRowThreshold, func(start, end int) {
		for i := start; i < end; i++ {
			for j := 0; j < c; j++ {
				value := X.At(i, j)
				result.Set(i, j, (value-s.Mean[j])/s.Scale[j])
			}
		}
	})

	return result, nil
}

// FitTransform fits the scaler and transforms the training data in one step.
// Equivalent to calling Fit(X) followed by Transform(X).
func (s *StandardScaler) FitTransform(X mat.Matrix) (_ mat.Matrix, err error) {
	defer statkitErrors.Recover(&err, "StandardScaler.FitTransform")
	if err := s.Fit(X); err != nil {
		return nil, err
	}
	return s.Transform(X)
}

// InverseTransform maps standardized data back to the original scale:
// X_orig = X_scaled * scale + mean.
func (s *StandardScaler) InverseTransform(X mat.Matrix) (_ mat.Matrix, err error) {
	defer statkitErrors.Recover(&err, "StandardScaler.InverseTransform")
	if !s.IsFitted() {
		return nil, statkitErrors.NewNotFittedError("StandardScaler", "InverseTransform")
	}

	r, c := X.Dims()
	if c != s.NFeatures {
		return nil, statkitErrors.NewDimensionError("StandardScaler.InverseTransform", s.NFeatures, c, 1)
	}

	result := mat.NewDense(r, c, nil)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			value := X.At(i, j)
			result.Set(i, j, value*s.Scale[j]+s.Mean[j])
		}
	}

	return result, nil
}

// GetParams returns the scaler's parameters.
func (s *StandardScaler) GetParams() map[string]interface{} {
	return map[string]interface{}{
		"with_mean": s.WithMean,
		"with_std":  s.WithStd,
	}
}

// String returns a printable representation of the scaler.
func (s *StandardScaler) String() string {
	if !s.IsFitted() {
		return fmt.Sprintf("StandardScaler(with_mean=%t, with_std=%t)", s.WithMean, s.WithStd)
	}
	return fmt.Sprintf("StandardScaler(with_mean=%t, with_std=%t, n_features=%d)",
		s.WithMean, s.WithStd, s.NFeatures)
}
