package stats

import (
	"math"
	"sort"

	statkitErrors "github.com/strucbio/statkit/pkg/errors"
)

// FDRResult pairs each input p-value with its Benjamini-Hochberg adjusted
// value and rejection decision, in the input's order.
type FDRResult struct {
	PValues  []float64
	Adjusted []float64
	Rejected []bool
	Alpha    float64
}

// BenjaminiHochberg applies the Benjamini-Hochberg step-up procedure to a
// family of p-values at false discovery rate alpha.
//
// Adjusted values are q_i = min over j >= rank(i) of p_(j) * m / j, clamped
// to 1, so they are monotone in the raw p-values and a hypothesis is
// rejected exactly when its adjusted value is <= alpha. Order of the input
// is preserved in the output.
func BenjaminiHochberg(pValues []float64, alpha float64) (FDRResult, error) {
	var result FDRResult

	m := len(pValues)
	if m == 0 {
		return result, statkitErrors.Wrap(statkitErrors.ErrEmptyData, "BenjaminiHochberg: no p-values")
	}
	if alpha <= 0 || alpha >= 1 {
		return result, statkitErrors.NewValidationError("alpha", "must be in (0, 1)", alpha)
	}
	for _, p := range pValues {
		if math.IsNaN(p) || p < 0 || p > 1 {
			return result, statkitErrors.NewValidationError("p_values", "must lie in [0, 1]", p)
		}
	}

	order := make([]int, m)
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return pValues[order[a]] < pValues[order[b]]
	})

	// Step down from the largest p-value enforcing monotonicity of the
	// adjusted values.
	adjusted := make([]float64, m)
	running := 1.0
	for rank := m; rank >= 1; rank-- {
		idx := order[rank-1]
		q := pValues[idx] * float64(m) / float64(rank)
		if q < running {
			running = q
		}
		adjusted[idx] = running
	}

	rejected := make([]bool, m)
	for i := range rejected {
		rejected[i] = adjusted[i] <= alpha
	}

	result.PValues = append([]float64(nil), pValues...)
	result.Adjusted = adjusted
	result.Rejected = rejected
	result.Alpha = alpha
	return result, nil
}
