package stats

import (
	"math"

	"gonum.org/v1/gonum/stat/distuv"

	statkitErrors "github.com/strucbio/statkit/pkg/errors"
)

// ChiSquareResult holds the outcome of a chi-square test of independence.
type ChiSquareResult struct {
	Statistic float64
	DF        int
	PValue    float64

	// CramersV is the effect size sqrt(chi2 / (n * min(r-1, c-1))).
	CramersV float64
}

// ChiSquareIndependence runs Pearson's chi-square test of independence on an
// observed contingency table (rows are one variable's levels, columns the
// other's). The asymptotic chi-square reference distribution is unreliable
// when expected cell counts fall below about 5; prefer FisherExact for
// sparse 2x2 tables.
func ChiSquareIndependence(observed [][]float64) (ChiSquareResult, error) {
	var result ChiSquareResult

	rows := len(observed)
	if rows < 2 {
		return result, statkitErrors.NewValidationError("observed", "needs at least 2 rows", rows)
	}
	cols := len(observed[0])
	if cols < 2 {
		return result, statkitErrors.NewValidationError("observed", "needs at least 2 columns", cols)
	}
	for i, row := range observed {
		if len(row) != cols {
			return result, statkitErrors.NewDimensionError("ChiSquareIndependence", cols, len(row), i)
		}
		for _, v := range row {
			if v < 0 || math.IsNaN(v) {
				return result, statkitErrors.NewValidationError("observed", "cell counts must be non-negative", v)
			}
		}
	}

	rowTotals := make([]float64, rows)
	colTotals := make([]float64, cols)
	total := 0.0
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			rowTotals[i] += observed[i][j]
			colTotals[j] += observed[i][j]
			total += observed[i][j]
		}
	}
	if total == 0 {
		return result, statkitErrors.Wrap(statkitErrors.ErrEmptyData, "ChiSquareIndependence: empty table")
	}

	chi2 := 0.0
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			expected := rowTotals[i] * colTotals[j] / total
			if expected == 0 {
				continue
			}
			diff := observed[i][j] - expected
			chi2 += diff * diff / expected
		}
	}

	df := (rows - 1) * (cols - 1)
	dist := distuv.ChiSquared{K: float64(df)}

	minDim := math.Min(float64(rows-1), float64(cols-1))

	result.Statistic = chi2
	result.DF = df
	result.PValue = dist.Survival(chi2)
	result.CramersV = math.Sqrt(chi2 / (total * minDim))
	return result, nil
}
