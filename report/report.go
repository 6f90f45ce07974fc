// Package report refits a selected model configuration and renders
// human-readable summaries of sweep results and final-model coefficients.
package report

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"gonum.org/v1/gonum/mat"

	"github.com/strucbio/statkit/dataset"
	"github.com/strucbio/statkit/linear_model"
	"github.com/strucbio/statkit/metrics"
	"github.com/strucbio/statkit/modelselection"
	statkitErrors "github.com/strucbio/statkit/pkg/errors"
	"github.com/strucbio/statkit/preprocessing"
)

// Config selects and bounds the final model fit.
type Config struct {
	// C is the chosen inverse regularization strength, typically the
	// winner of a RegularizationSweep.
	C float64

	// MaxIter bounds the solver. Zero means 1000.
	MaxIter int

	// Tol is the solver tolerance. Zero means 1e-4.
	Tol float64
}

// CoefficientEntry is one surviving (non-zero) model term.
type CoefficientEntry struct {
	Name        string
	Coefficient float64
	OddsRatio   float64
}

// FinalReport is the result of refitting the selected configuration on the
// full training set and scoring it once on the held-out set.
type FinalReport struct {
	C                float64
	BalancedAccuracy float64
	// AUROC is NaN when the holdout contains a single class.
	AUROC      float64
	Intercept  float64
	Converged  bool
	Iterations int
	NFeatures  int

	// NonZero lists surviving terms sorted by decreasing coefficient
	// magnitude; ties keep the feature-column order.
	NonZero []CoefficientEntry

	Warnings []error
}

// Sparsity returns the fraction of features eliminated by the penalty.
func (r *FinalReport) Sparsity() float64 {
	if r.NFeatures == 0 {
		return 0
	}
	return 1 - float64(len(r.NonZero))/float64(r.NFeatures)
}

// Build standardizes the features on the training split, refits an
// L1-penalized logistic regression at cfg.C, and scores the held-out split.
// The scaler is fit on training rows only so no holdout statistics leak
// into the model.
func Build(train, holdout *dataset.Dataset, cfg Config) (*FinalReport, error) {
	if cfg.C <= 0 || math.IsNaN(cfg.C) || math.IsInf(cfg.C, 0) {
		return nil, statkitErrors.NewValidationError("c", "must be a positive finite value", cfg.C)
	}
	if train.NFeatures() != holdout.NFeatures() {
		return nil, statkitErrors.NewDimensionError("report.Build", train.NFeatures(), holdout.NFeatures(), 1)
	}
	maxIter := cfg.MaxIter
	if maxIter == 0 {
		maxIter = 1000
	}
	tol := cfg.Tol
	if tol == 0 {
		tol = 1e-4
	}

	scaler := preprocessing.NewStandardScalerDefault()
	trainX, err := scaler.FitTransform(train.X())
	if err != nil {
		return nil, err
	}
	holdX, err := scaler.Transform(holdout.X())
	if err != nil {
		return nil, err
	}

	lr := linear_model.NewLogisticRegression(
		linear_model.WithPenalty(linear_model.PenaltyL1),
		linear_model.WithC(cfg.C),
		linear_model.WithMaxIter(maxIter),
		linear_model.WithTol(tol),
	)
	if err := lr.Fit(trainX, train.YMatrix()); err != nil {
		return nil, err
	}

	rep := &FinalReport{
		C:          cfg.C,
		Intercept:  lr.Intercept(),
		Converged:  lr.Converged(),
		Iterations: lr.NIter(),
		NFeatures:  train.NFeatures(),
		NonZero:    nonZeroEntries(lr.Coef(), train.FeatureNames()),
	}
	if !lr.Converged() {
		rep.Warnings = append(rep.Warnings,
			statkitErrors.NewConvergenceWarning("LogisticRegression(l1)", lr.NIter(), ""))
	}

	predictions, err := lr.Predict(holdX)
	if err != nil {
		return nil, err
	}
	n := holdout.NSamples()
	yPred := mat.NewVecDense(n, nil)
	positive := lr.Classes()[1]
	for i := 0; i < n; i++ {
		if predictions.At(i, 0) == positive {
			yPred.SetVec(i, 1)
		}
	}

	balAcc, err := metrics.BalancedAccuracy(holdout.Y(), yPred)
	if err != nil {
		var undefined *statkitErrors.UndefinedMetricWarning
		if !statkitErrors.As(err, &undefined) {
			return nil, err
		}
		rep.Warnings = append(rep.Warnings, err)
	}
	rep.BalancedAccuracy = balAcc

	scores, err := lr.DecisionFunction(holdX)
	if err != nil {
		return nil, err
	}
	auroc, err := metrics.ROCAUC(holdout.Y(), scores)
	if err != nil {
		var undefined *statkitErrors.UndefinedMetricWarning
		if !statkitErrors.As(err, &undefined) {
			return nil, err
		}
		rep.Warnings = append(rep.Warnings, err)
	}
	rep.AUROC = auroc

	return rep, nil
}

// nonZeroEntries filters exactly-zero coefficients out and sorts the
// survivors by decreasing magnitude. SliceStable keeps equal magnitudes in
// column order so repeated runs list identical models identically.
func nonZeroEntries(coef []float64, names []string) []CoefficientEntry {
	entries := make([]CoefficientEntry, 0, len(coef))
	for j, w := range coef {
		if w == 0 {
			continue
		}
		name := fmt.Sprintf("x%d", j)
		if j < len(names) {
			name = names[j]
		}
		entries = append(entries, CoefficientEntry{
			Name:        name,
			Coefficient: w,
			OddsRatio:   math.Exp(w),
		})
	}
	sort.SliceStable(entries, func(a, b int) bool {
		return math.Abs(entries[a].Coefficient) > math.Abs(entries[b].Coefficient)
	})
	return entries
}

// String renders the final report as a fixed-width text block.
func (r *FinalReport) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Final model (C=%g)\n", r.C)
	fmt.Fprintf(&b, "  converged:          %t (%d iterations)\n", r.Converged, r.Iterations)
	fmt.Fprintf(&b, "  balanced accuracy:  %s\n", formatMetric(r.BalancedAccuracy))
	fmt.Fprintf(&b, "  AUROC:              %s\n", formatMetric(r.AUROC))
	fmt.Fprintf(&b, "  features retained:  %d of %d\n", len(r.NonZero), r.NFeatures)
	fmt.Fprintf(&b, "  intercept:          %+.4f\n", r.Intercept)
	if len(r.NonZero) > 0 {
		fmt.Fprintf(&b, "\n  %-24s %12s %12s\n", "feature", "coef", "odds ratio")
		for _, e := range r.NonZero {
			fmt.Fprintf(&b, "  %-24s %+12.4f %12.4f\n", e.Name, e.Coefficient, e.OddsRatio)
		}
	}
	return b.String()
}

// FormatSweepTable renders one row per regularization candidate with
// mean +/- std for each aggregated metric.
func FormatSweepTable(sweep *modelselection.SweepResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%10s  %18s  %18s  %14s\n", "C", "balanced acc", "AUROC", "non-zero")
	for _, r := range sweep.Results {
		fmt.Fprintf(&b, "%10g  %18s  %18s  %14s\n",
			r.C,
			formatSummary(r.BalancedAccuracy),
			formatSummary(r.AUROC),
			formatSummary(r.NonZero))
	}
	return b.String()
}

func formatSummary(s modelselection.MetricSummary) string {
	if math.IsNaN(s.Mean) {
		return "n/a"
	}
	return fmt.Sprintf("%.3f +/- %.3f", s.Mean, s.Std)
}

func formatMetric(v float64) string {
	if math.IsNaN(v) {
		return "n/a (single-class holdout)"
	}
	return fmt.Sprintf("%.4f", v)
}
