package modelselection

import (
	"math"
	"runtime"

	"github.com/montanaflynn/stats"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/mat"

	"github.com/strucbio/statkit/linear_model"
	"github.com/strucbio/statkit/metrics"
	statkitErrors "github.com/strucbio/statkit/pkg/errors"
)

// SweepConfig configures a regularization-path cross-validation sweep.
// Every knob is explicit; there is no persisted configuration.
type SweepConfig struct {
	// Candidates is the ordered grid of inverse regularization strengths
	// (C values, as in scikit-learn). Results come back in this order.
	Candidates []float64

	// NFolds is the number of stratified folds (>= 2). Zero means 5.
	NFolds int

	// MaxIter bounds the proximal solver per fit. Zero means 1000.
	MaxIter int

	// Tol is the solver convergence tolerance. Zero means 1e-4.
	Tol float64

	// Seed fixes the fold partition; a given seed always produces
	// bit-identical sweep results on the same data.
	Seed int64

	// Workers bounds the number of concurrent (candidate, fold) fits.
	// Zero means runtime.NumCPU(). Use 1 for fully sequential execution.
	Workers int
}

func (cfg *SweepConfig) withDefaults() SweepConfig {
	out := *cfg
	if out.NFolds == 0 {
		out.NFolds = 5
	}
	if out.MaxIter == 0 {
		out.MaxIter = 1000
	}
	if out.Tol == 0 {
		out.Tol = 1e-4
	}
	if out.Workers == 0 {
		out.Workers = runtime.NumCPU()
	}
	return out
}

func (cfg *SweepConfig) validate() error {
	if len(cfg.Candidates) == 0 {
		return statkitErrors.NewValidationError("candidates", "at least one regularization candidate is required", len(cfg.Candidates))
	}
	for _, c := range cfg.Candidates {
		if c <= 0 || math.IsNaN(c) || math.IsInf(c, 0) {
			return statkitErrors.NewValidationError("candidates", "must be positive finite values", c)
		}
	}
	if cfg.NFolds < 2 {
		return statkitErrors.NewValidationError("n_folds", "must be >= 2", cfg.NFolds)
	}
	return nil
}

// MetricSummary is the mean and sample standard deviation of a per-fold
// metric. A single valid fold has Std 0; no valid folds at all yield NaN.
type MetricSummary struct {
	Mean float64
	Std  float64
}

// FoldScore is the outcome of fitting one regularization candidate on one
// fold and scoring it on that fold's validation rows.
type FoldScore struct {
	Fold             int
	BalancedAccuracy float64
	// AUROC is NaN when the validation fold contains a single class.
	AUROC      float64
	NonZero    int
	Iterations int
	Converged  bool
	// Warnings carries the ConvergenceWarning / UndefinedMetricWarning
	// annotations for this fit, if any. They never abort the sweep.
	Warnings []error
}

// CandidateResult aggregates the fold scores of one regularization
// candidate.
type CandidateResult struct {
	// C is the inverse regularization strength this row belongs to.
	C                float64
	BalancedAccuracy MetricSummary
	AUROC            MetricSummary
	NonZero          MetricSummary
	Folds            []FoldScore
}

// Warnings collects the fold-level warnings of every fold of this
// candidate, in fold order.
func (r *CandidateResult) Warnings() []error {
	var out []error
	for _, f := range r.Folds {
		out = append(out, f.Warnings...)
	}
	return out
}

// SweepResult is the complete outcome of a regularization sweep. Results
// appear in the order the candidates were supplied; the shared fold
// partition is exposed for callers that want to audit it.
type SweepResult struct {
	Results []CandidateResult
	Folds   []Fold
}

// RegularizationSweep fits an L1-penalized logistic regression for every
// (candidate, fold) pair and aggregates per-candidate scores.
//
// One stratified partition is generated up front and reused across all
// candidates so the rows are comparable. Fits are independent of one
// another and run on a bounded worker pool; results are joined by simple
// reduction, with no shared mutable state between invocations.
//
// X must already be standardized (see preprocessing.StandardScaler); y is
// the (n x 1) matrix of 0/1 outcome labels.
//
// Solver non-convergence and degenerate validation folds are carried as
// warnings on the affected FoldScore, never as hard failures. Hard errors
// (dimension mismatches, non-binary labels) abort the sweep.
func RegularizationSweep(X, y mat.Matrix, config SweepConfig) (*SweepResult, error) {
	if err := config.validate(); err != nil {
		return nil, err
	}
	cfg := config.withDefaults()

	nSamples, _ := X.Dims()
	yRows, yCols := y.Dims()
	if yRows != nSamples {
		return nil, statkitErrors.NewDimensionError("RegularizationSweep", nSamples, yRows, 0)
	}
	if yCols != 1 {
		return nil, statkitErrors.NewValueError("RegularizationSweep", "y must be a column vector")
	}

	skf := NewStratifiedKFold(cfg.NFolds, true, cfg.Seed)
	folds, err := skf.Split(y)
	if err != nil {
		return nil, err
	}

	// Materialize the per-fold matrices once; every candidate reuses them.
	type foldData struct {
		trainX, trainY *mat.Dense
		valX, valY     *mat.Dense
	}
	foldSets := make([]foldData, len(folds))
	for i, fold := range folds {
		trainX, trainY := extractSubset(X, y, fold.TrainIndices)
		valX, valY := extractSubset(X, y, fold.TestIndices)
		foldSets[i] = foldData{trainX: trainX, trainY: trainY, valX: valX, valY: valY}
	}

	scores := make([][]FoldScore, len(cfg.Candidates))
	for ci := range scores {
		scores[ci] = make([]FoldScore, len(folds))
	}

	var g errgroup.Group
	g.SetLimit(cfg.Workers)

	for ci, c := range cfg.Candidates {
		for fi := range folds {
			g.Go(func() error {
				score, err := fitAndScoreFold(foldSets[fi].trainX, foldSets[fi].trainY,
					foldSets[fi].valX, foldSets[fi].valY, c, cfg)
				if err != nil {
					return statkitErrors.Wrapf(err, "candidate %g fold %d", c, fi)
				}
				score.Fold = fi
				scores[ci][fi] = score
				return nil
			})
		}
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	results := make([]CandidateResult, len(cfg.Candidates))
	for ci, c := range cfg.Candidates {
		results[ci] = aggregateCandidate(c, scores[ci])
	}

	return &SweepResult{Results: results, Folds: folds}, nil
}

// fitAndScoreFold fits one candidate on one fold's training rows and scores
// the held-out rows.
func fitAndScoreFold(trainX, trainY, valX, valY *mat.Dense, c float64, cfg SweepConfig) (FoldScore, error) {
	var score FoldScore

	lr := linear_model.NewLogisticRegression(
		linear_model.WithPenalty(linear_model.PenaltyL1),
		linear_model.WithC(c),
		linear_model.WithMaxIter(cfg.MaxIter),
		linear_model.WithTol(cfg.Tol),
	)
	if err := lr.Fit(trainX, trainY); err != nil {
		return score, err
	}

	score.Iterations = lr.NIter()
	score.Converged = lr.Converged()
	score.NonZero = lr.NonZeroCount()
	if !lr.Converged() {
		score.Warnings = append(score.Warnings,
			statkitErrors.NewConvergenceWarning("LogisticRegression(l1)", lr.NIter(), ""))
	}

	predictions, err := lr.Predict(valX)
	if err != nil {
		return score, err
	}

	nVal, _ := valX.Dims()
	yTrue := mat.NewVecDense(nVal, nil)
	yPred := mat.NewVecDense(nVal, nil)
	positive := lr.Classes()[1]
	for i := 0; i < nVal; i++ {
		if valY.At(i, 0) == positive {
			yTrue.SetVec(i, 1)
		}
		if predictions.At(i, 0) == positive {
			yPred.SetVec(i, 1)
		}
	}

	balAcc, err := metrics.BalancedAccuracy(yTrue, yPred)
	if err != nil {
		var undefined *statkitErrors.UndefinedMetricWarning
		if !statkitErrors.As(err, &undefined) {
			return score, err
		}
		score.Warnings = append(score.Warnings, err)
	}
	score.BalancedAccuracy = balAcc

	decisionScores, err := lr.DecisionFunction(valX)
	if err != nil {
		return score, err
	}
	auroc, err := metrics.ROCAUC(yTrue, decisionScores)
	if err != nil {
		var undefined *statkitErrors.UndefinedMetricWarning
		if !statkitErrors.As(err, &undefined) {
			return score, err
		}
		// Degenerate fold: AUROC is reported as not applicable.
		score.Warnings = append(score.Warnings, err)
	}
	score.AUROC = auroc

	return score, nil
}

// aggregateCandidate reduces per-fold scores to mean/std summaries.
func aggregateCandidate(c float64, folds []FoldScore) CandidateResult {
	balAccs := make([]float64, 0, len(folds))
	aurocs := make([]float64, 0, len(folds))
	nonZeros := make([]float64, 0, len(folds))
	for _, f := range folds {
		balAccs = append(balAccs, f.BalancedAccuracy)
		if !math.IsNaN(f.AUROC) {
			aurocs = append(aurocs, f.AUROC)
		}
		nonZeros = append(nonZeros, float64(f.NonZero))
	}

	return CandidateResult{
		C:                c,
		BalancedAccuracy: summarize(balAccs),
		AUROC:            summarize(aurocs),
		NonZero:          summarize(nonZeros),
		Folds:            folds,
	}
}

// summarize computes mean and sample standard deviation. Fewer than two
// values have Std 0; no values at all mean the metric was undefined on
// every fold and both moments are NaN.
func summarize(values []float64) MetricSummary {
	if len(values) == 0 {
		return MetricSummary{Mean: math.NaN(), Std: math.NaN()}
	}
	mean, err := stats.Mean(stats.Float64Data(values))
	if err != nil {
		return MetricSummary{Mean: math.NaN(), Std: math.NaN()}
	}
	if len(values) < 2 {
		return MetricSummary{Mean: mean, Std: 0}
	}
	std, err := stats.StandardDeviationSample(stats.Float64Data(values))
	if err != nil {
		return MetricSummary{Mean: mean, Std: math.NaN()}
	}
	return MetricSummary{Mean: mean, Std: std}
}
