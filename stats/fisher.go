// Package stats provides the exact and asymptotic hypothesis tests used in
// case/control contingency analysis, plus multiple-testing correction.
package stats

import (
	"math"

	statkitErrors "github.com/strucbio/statkit/pkg/errors"
)

// ContingencyTable2x2 is a 2x2 cross-tabulation of an exposure against an
// outcome:
//
//	            outcome+  outcome-
//	exposure+      A         B
//	exposure-      C         D
type ContingencyTable2x2 struct {
	A, B, C, D int
}

// N returns the table's total count.
func (t ContingencyTable2x2) N() int {
	return t.A + t.B + t.C + t.D
}

func (t ContingencyTable2x2) validate() error {
	if t.A < 0 || t.B < 0 || t.C < 0 || t.D < 0 {
		return statkitErrors.NewValidationError("table", "cell counts must be non-negative", t)
	}
	if t.N() == 0 {
		return statkitErrors.Wrap(statkitErrors.ErrEmptyData, "FisherExact: empty contingency table")
	}
	return nil
}

// FisherResult holds the outcome of Fisher's exact test on a 2x2 table.
type FisherResult struct {
	// OddsRatio is the sample (conditional) odds ratio A*D / (B*C). It is
	// +Inf when B*C == 0 and A*D > 0, and NaN when both products are zero.
	OddsRatio float64

	// PValue is the two-sided p-value: the total probability, under the
	// hypergeometric null with fixed margins, of every table at least as
	// extreme as the observed one.
	PValue float64
}

// FisherExact performs Fisher's exact test of independence on a 2x2 table.
//
// The two-sided p-value sums the hypergeometric probabilities of all tables
// with the observed margins whose point probability does not exceed the
// observed table's, with a small relative slack to absorb floating-point
// ties. No asymptotic approximation is involved, so the test stays valid for
// arbitrarily small cell counts.
func FisherExact(table ContingencyTable2x2) (FisherResult, error) {
	var result FisherResult
	if err := table.validate(); err != nil {
		return result, err
	}

	result.OddsRatio = sampleOddsRatio(table)

	// Margins are fixed under the null; the table is fully determined by A.
	row1 := table.A + table.B
	col1 := table.A + table.C
	n := table.N()

	lo := maxInt(0, col1-(n-row1))
	hi := minInt(row1, col1)

	observed := hypergeomLogPMF(table.A, row1, col1, n)

	// Relative slack mirrors the tolerance scipy applies when comparing
	// point probabilities for two-sided accumulation.
	const relSlack = 1 + 1e-7
	threshold := observed + math.Log(relSlack)

	pValue := 0.0
	for a := lo; a <= hi; a++ {
		logP := hypergeomLogPMF(a, row1, col1, n)
		if logP <= threshold {
			pValue += math.Exp(logP)
		}
	}
	if pValue > 1 {
		pValue = 1
	}
	result.PValue = pValue

	return result, nil
}

func sampleOddsRatio(t ContingencyTable2x2) float64 {
	num := float64(t.A) * float64(t.D)
	den := float64(t.B) * float64(t.C)
	switch {
	case den > 0:
		return num / den
	case num > 0:
		return math.Inf(1)
	default:
		return math.NaN()
	}
}

// hypergeomLogPMF is the log point probability of drawing a successes in a
// sample of size row1 from a population of n with col1 successes total.
// Log-space binomials via Lgamma keep the computation exact enough for
// tables far beyond float64 factorial range.
func hypergeomLogPMF(a, row1, col1, n int) float64 {
	return logChoose(col1, a) +
		logChoose(n-col1, row1-a) -
		logChoose(n, row1)
}

func logChoose(n, k int) float64 {
	if k < 0 || k > n {
		return math.Inf(-1)
	}
	ln1, _ := math.Lgamma(float64(n + 1))
	lk, _ := math.Lgamma(float64(k + 1))
	lnk, _ := math.Lgamma(float64(n - k + 1))
	return ln1 - lk - lnk
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
