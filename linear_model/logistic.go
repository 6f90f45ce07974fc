// Package linear_model implements binary logistic regression with the
// penalties the statkit analyses need: "none" for confounder-adjusted
// association models, "l2" for ridge-style shrinkage, and "l1" (LASSO) for
// feature selection with coefficients driven exactly to zero.
package linear_model

import (
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize"

	"github.com/strucbio/statkit/core/model"
	statkitErrors "github.com/strucbio/statkit/pkg/errors"
)

// Supported penalty names.
const (
	PenaltyNone = "none"
	PenaltyL1   = "l1"
	PenaltyL2   = "l2"
)

const (
	epsilonSmall       = 1e-15
	regularizationHalf = 0.5
)

// LogisticRegression is a binary logistic regression classifier.
//
// The API follows scikit-learn's LogisticRegression: C is the inverse of the
// regularization strength, Fit expects a label column vector, and the fitted
// coefficients are exposed through Coef and Intercept. Labels may be any two
// distinct numeric values; the larger one is treated as the positive class.
//
// Fitting is deterministic: coefficients are initialized at zero, so repeated
// fits on identical data produce identical results.
type LogisticRegression struct {
	model.BaseEstimator

	// Hyperparameters
	penalty      string  // "none", "l1" or "l2"
	c            float64 // Inverse regularization strength
	fitIntercept bool    // Whether to fit an intercept term
	maxIter      int     // Iteration bound for the solver
	tol          float64 // Convergence tolerance

	// Fitted parameters
	coef_      []float64 // Feature coefficients
	intercept_ float64   // Intercept term
	classes_   []float64 // The two class labels, ascending
	nFeatures_ int
	nIter_     int
	converged_ bool
}

// LogisticRegressionOption is a functional option for LogisticRegression.
type LogisticRegressionOption func(*LogisticRegression)

// NewLogisticRegression creates a LogisticRegression classifier.
// Defaults: penalty "l2", C=1.0, intercept fitted, maxIter=100, tol=1e-4.
func NewLogisticRegression(opts ...LogisticRegressionOption) *LogisticRegression {
	lr := &LogisticRegression{
		penalty:      PenaltyL2,
		c:            1.0,
		fitIntercept: true,
		maxIter:      100,
		tol:          1e-4,
	}
	for _, opt := range opts {
		opt(lr)
	}
	return lr
}

// WithPenalty sets the regularization type: "none", "l1" or "l2".
func WithPenalty(penalty string) LogisticRegressionOption {
	return func(lr *LogisticRegression) {
		lr.penalty = penalty
	}
}

// WithC sets the inverse regularization strength. Larger C means weaker
// regularization.
func WithC(c float64) LogisticRegressionOption {
	return func(lr *LogisticRegression) {
		lr.c = c
	}
}

// WithFitIntercept sets whether an intercept term is fitted.
func WithFitIntercept(fit bool) LogisticRegressionOption {
	return func(lr *LogisticRegression) {
		lr.fitIntercept = fit
	}
}

// WithMaxIter sets the maximum number of solver iterations.
func WithMaxIter(maxIter int) LogisticRegressionOption {
	return func(lr *LogisticRegression) {
		lr.maxIter = maxIter
	}
}

// WithTol sets the tolerance for the stopping criterion.
func WithTol(tol float64) LogisticRegressionOption {
	return func(lr *LogisticRegression) {
		lr.tol = tol
	}
}

// stableSigmoid computes sigmoid(z) in a numerically stable way.
func stableSigmoid(z float64) float64 {
	if z >= 0 {
		ez := math.Exp(-z)
		return 1.0 / (1.0 + ez)
	}
	ez := math.Exp(z)
	return ez / (1.0 + ez)
}

// clampProbability clamps probability to avoid log(0).
func clampProbability(p float64) float64 {
	if p < epsilonSmall {
		return epsilonSmall
	}
	if p > 1-epsilonSmall {
		return 1 - epsilonSmall
	}
	return p
}

// validateParams checks the hyperparameter combination before fitting.
func (lr *LogisticRegression) validateParams() error {
	switch lr.penalty {
	case PenaltyNone, PenaltyL1, PenaltyL2:
	default:
		return statkitErrors.NewValidationError("penalty", "must be one of none, l1, l2", lr.penalty)
	}
	if lr.penalty != PenaltyNone && lr.c <= 0 {
		return statkitErrors.NewValidationError("C", "must be > 0 when a penalty is applied", lr.c)
	}
	if lr.maxIter < 1 {
		return statkitErrors.NewValidationError("max_iter", "must be >= 1", lr.maxIter)
	}
	if lr.tol <= 0 {
		return statkitErrors.NewValidationError("tol", "must be > 0", lr.tol)
	}
	return nil
}

// Fit trains the model on X (n_samples x n_features) and y (n_samples x 1).
//
// Non-convergence within the iteration bound is not a hard failure: the
// partially converged coefficients are kept, Converged() reports false, and
// a ConvergenceWarning is emitted through the statkit warning system so the
// condition is never silently swallowed.
func (lr *LogisticRegression) Fit(X, y mat.Matrix) (err error) {
	defer statkitErrors.Recover(&err, "LogisticRegression.Fit")

	if err := lr.validateParams(); err != nil {
		return err
	}

	nSamples, nFeatures := X.Dims()
	yRows, yCols := y.Dims()
	if nSamples == 0 || nFeatures == 0 {
		return statkitErrors.NewModelError("LogisticRegression.Fit", "empty data", statkitErrors.ErrEmptyData)
	}
	if nSamples != yRows {
		return statkitErrors.NewDimensionError("LogisticRegression.Fit", nSamples, yRows, 0)
	}
	if yCols != 1 {
		return statkitErrors.NewValueError("LogisticRegression.Fit",
			"y must be a column vector")
	}

	if err := lr.extractClasses(y); err != nil {
		return err
	}
	lr.nFeatures_ = nFeatures

	// Labels as 0/1 with classes_[1] as the positive class.
	yBinary := make([]float64, nSamples)
	for i := 0; i < nSamples; i++ {
		if y.At(i, 0) == lr.classes_[1] {
			yBinary[i] = 1.0
		}
	}

	// Zero initialization keeps repeated fits bit-identical.
	lr.coef_ = make([]float64, nFeatures)
	lr.intercept_ = 0
	lr.nIter_ = 0
	lr.converged_ = false

	xD := mat.DenseCopyOf(X)

	switch lr.penalty {
	case PenaltyL1:
		err = lr.fitProximalGradient(xD, yBinary)
	default:
		err = lr.fitLBFGS(xD, yBinary)
	}
	if err != nil {
		return err
	}

	if !lr.converged_ {
		statkitErrors.Warn(statkitErrors.NewConvergenceWarning(
			"LogisticRegression("+lr.penalty+")", lr.nIter_, ""))
	}

	lr.SetFitted()
	return nil
}

// extractClasses identifies the two class labels in y, ascending.
func (lr *LogisticRegression) extractClasses(y mat.Matrix) error {
	rows, _ := y.Dims()
	seen := make(map[float64]bool)
	for i := 0; i < rows; i++ {
		seen[y.At(i, 0)] = true
	}
	if len(seen) != 2 {
		return statkitErrors.NewValidationError("y",
			"must contain exactly two distinct class labels", len(seen))
	}

	classes := make([]float64, 0, 2)
	for c := range seen {
		classes = append(classes, c)
	}
	if classes[0] > classes[1] {
		classes[0], classes[1] = classes[1], classes[0]
	}
	lr.classes_ = classes
	return nil
}

// fitLBFGS fits the smooth penalties ("none", "l2") with gonum's L-BFGS.
func (lr *LogisticRegression) fitLBFGS(xD *mat.Dense, yBinary []float64) error {
	nSamples, nFeatures := xD.Dims()

	pDim := nFeatures
	if lr.fitIntercept {
		pDim++
	}
	x0 := make([]float64, pDim)

	lambda := 0.0
	if lr.penalty == PenaltyL2 {
		lambda = 1.0 / (lr.c * float64(nSamples))
	}

	prob := optimize.Problem{
		Func: func(theta []float64) float64 {
			w := theta[:nFeatures]
			b := 0.0
			if lr.fitIntercept {
				b = theta[nFeatures]
			}
			loss := 0.0
			for i := 0; i < nSamples; i++ {
				z := b
				for j := 0; j < nFeatures; j++ {
					z += w[j] * xD.At(i, j)
				}
				p := clampProbability(stableSigmoid(z))
				loss += -yBinary[i]*math.Log(p) - (1.0-yBinary[i])*math.Log(1.0-p)
			}
			loss /= float64(nSamples)
			if lambda > 0 {
				reg := 0.0
				for j := 0; j < nFeatures; j++ {
					reg += w[j] * w[j]
				}
				loss += regularizationHalf * lambda * reg
			}
			return loss
		},
		Grad: func(grad, theta []float64) {
			w := theta[:nFeatures]
			b := 0.0
			if lr.fitIntercept {
				b = theta[nFeatures]
			}
			for j := range grad {
				grad[j] = 0
			}
			for i := 0; i < nSamples; i++ {
				z := b
				for j := 0; j < nFeatures; j++ {
					z += w[j] * xD.At(i, j)
				}
				diff := stableSigmoid(z) - yBinary[i]
				for j := 0; j < nFeatures; j++ {
					grad[j] += diff * xD.At(i, j)
				}
				if lr.fitIntercept {
					grad[nFeatures] += diff
				}
			}
			invN := 1.0 / float64(nSamples)
			for j := range grad {
				grad[j] *= invN
			}
			if lambda > 0 {
				for j := 0; j < nFeatures; j++ {
					grad[j] += lambda * w[j]
				}
			}
		},
	}

	settings := optimize.Settings{
		GradientThreshold: lr.tol,
		MajorIterations:   lr.maxIter,
	}
	method := &optimize.LBFGS{}
	result, err := optimize.Minimize(prob, x0, &settings, method)
	if err != nil && result == nil {
		return statkitErrors.Wrap(err, "lbfgs optimization failed")
	}

	theta := result.X
	copy(lr.coef_, theta[:nFeatures])
	if lr.fitIntercept {
		lr.intercept_ = theta[nFeatures]
	}
	lr.nIter_ = result.Stats.MajorIterations
	lr.converged_ = result.Status == optimize.GradientThreshold ||
		result.Status == optimize.FunctionConvergence ||
		result.Status == optimize.StepConvergence
	return nil
}

// fitProximalGradient fits the L1 penalty with ISTA: a gradient step on the
// smooth log-loss followed by soft-thresholding of the feature weights. The
// proximal operator produces exact zeros, which is what makes the LASSO
// usable for feature selection; there is no tolerance band on sparsity.
//
// The objective matches scikit-learn's: minimizing
// mean-NLL + ||w||_1 / (C * n). The intercept is never penalized.
func (lr *LogisticRegression) fitProximalGradient(xD *mat.Dense, yBinary []float64) error {
	nSamples, nFeatures := xD.Dims()
	lambda := 1.0 / (lr.c * float64(nSamples))

	w := lr.coef_
	b := 0.0

	gradW := make([]float64, nFeatures)
	newW := make([]float64, nFeatures)

	// Per-sample probabilities at the current iterate.
	probs := make([]float64, nSamples)

	smoothLoss := func(weights []float64, intercept float64) float64 {
		loss := 0.0
		for i := 0; i < nSamples; i++ {
			z := intercept
			for j := 0; j < nFeatures; j++ {
				z += weights[j] * xD.At(i, j)
			}
			p := clampProbability(stableSigmoid(z))
			loss += -yBinary[i]*math.Log(p) - (1.0-yBinary[i])*math.Log(1.0-p)
		}
		return loss / float64(nSamples)
	}

	step := 1.0
	for iter := 0; iter < lr.maxIter; iter++ {
		// Gradient of the smooth part at (w, b).
		for j := range gradW {
			gradW[j] = 0
		}
		gradB := 0.0
		for i := 0; i < nSamples; i++ {
			z := b
			for j := 0; j < nFeatures; j++ {
				z += w[j] * xD.At(i, j)
			}
			probs[i] = stableSigmoid(z)
			diff := probs[i] - yBinary[i]
			for j := 0; j < nFeatures; j++ {
				gradW[j] += diff * xD.At(i, j)
			}
			gradB += diff
		}
		invN := 1.0 / float64(nSamples)
		for j := range gradW {
			gradW[j] *= invN
		}
		gradB *= invN

		fCur := smoothLoss(w, b)

		// Backtracking line search on the smooth part. The previous step
		// size is retried first and grown slightly so well-conditioned
		// problems do not pay for the search every iteration.
		step *= 1.1
		var newB float64
		for {
			for j := 0; j < nFeatures; j++ {
				newW[j] = softThreshold(w[j]-step*gradW[j], step*lambda)
			}
			newB = b
			if lr.fitIntercept {
				newB = b - step*gradB
			}

			// Quadratic upper bound check for the proximal step.
			fNew := smoothLoss(newW, newB)
			linear := 0.0
			quadratic := 0.0
			for j := 0; j < nFeatures; j++ {
				d := newW[j] - w[j]
				linear += gradW[j] * d
				quadratic += d * d
			}
			db := newB - b
			linear += gradB * db
			quadratic += db * db

			if fNew <= fCur+linear+quadratic/(2*step) || step < 1e-12 {
				break
			}
			step *= 0.5
		}

		// Convergence: largest parameter movement below tol.
		maxDelta := math.Abs(newB - b)
		for j := 0; j < nFeatures; j++ {
			if d := math.Abs(newW[j] - w[j]); d > maxDelta {
				maxDelta = d
			}
		}

		copy(w, newW)
		b = newB
		lr.nIter_ = iter + 1

		if maxDelta < lr.tol {
			lr.converged_ = true
			break
		}
	}

	lr.intercept_ = b
	return nil
}

// softThreshold is the proximal operator of the L1 norm.
func softThreshold(v, threshold float64) float64 {
	switch {
	case v > threshold:
		return v - threshold
	case v < -threshold:
		return v + threshold
	default:
		return 0
	}
}

// decision computes the linear score for one row of X.
func (lr *LogisticRegression) decision(X mat.Matrix, i int) float64 {
	z := lr.intercept_
	for j := 0; j < lr.nFeatures_; j++ {
		z += X.At(i, j) * lr.coef_[j]
	}
	return z
}

// Predict returns the predicted class label for each row of X as a column
// vector, thresholding the positive-class probability at 0.5.
func (lr *LogisticRegression) Predict(X mat.Matrix) (mat.Matrix, error) {
	if !lr.IsFitted() {
		return nil, statkitErrors.NewNotFittedError("LogisticRegression", "Predict")
	}

	nSamples, nFeatures := X.Dims()
	if nFeatures != lr.nFeatures_ {
		return nil, statkitErrors.NewDimensionError("LogisticRegression.Predict", lr.nFeatures_, nFeatures, 1)
	}

	predictions := mat.NewDense(nSamples, 1, nil)
	for i := 0; i < nSamples; i++ {
		if stableSigmoid(lr.decision(X, i)) >= 0.5 {
			predictions.Set(i, 0, lr.classes_[1])
		} else {
			predictions.Set(i, 0, lr.classes_[0])
		}
	}
	return predictions, nil
}

// PredictProba returns an (n_samples x 2) matrix of class probabilities,
// column 0 for the negative class and column 1 for the positive class.
func (lr *LogisticRegression) PredictProba(X mat.Matrix) (mat.Matrix, error) {
	if !lr.IsFitted() {
		return nil, statkitErrors.NewNotFittedError("LogisticRegression", "PredictProba")
	}

	nSamples, nFeatures := X.Dims()
	if nFeatures != lr.nFeatures_ {
		return nil, statkitErrors.NewDimensionError("LogisticRegression.PredictProba", lr.nFeatures_, nFeatures, 1)
	}

	probas := mat.NewDense(nSamples, 2, nil)
	for i := 0; i < nSamples; i++ {
		p := stableSigmoid(lr.decision(X, i))
		probas.Set(i, 0, 1.0-p)
		probas.Set(i, 1, p)
	}
	return probas, nil
}

// DecisionFunction returns the raw linear scores for each row of X. Scores
// order samples identically to positive-class probabilities, which is what
// ranking metrics such as ROC AUC need.
func (lr *LogisticRegression) DecisionFunction(X mat.Matrix) (*mat.VecDense, error) {
	if !lr.IsFitted() {
		return nil, statkitErrors.NewNotFittedError("LogisticRegression", "DecisionFunction")
	}

	nSamples, nFeatures := X.Dims()
	if nFeatures != lr.nFeatures_ {
		return nil, statkitErrors.NewDimensionError("LogisticRegression.DecisionFunction", lr.nFeatures_, nFeatures, 1)
	}

	scores := mat.NewVecDense(nSamples, nil)
	for i := 0; i < nSamples; i++ {
		scores.SetVec(i, lr.decision(X, i))
	}
	return scores, nil
}

// Score returns the mean accuracy on the given test data and labels.
func (lr *LogisticRegression) Score(X, y mat.Matrix) float64 {
	predictions, err := lr.Predict(X)
	if err != nil {
		return 0.0
	}

	nSamples, _ := X.Dims()
	correct := 0
	for i := 0; i < nSamples; i++ {
		if predictions.At(i, 0) == y.At(i, 0) {
			correct++
		}
	}
	return float64(correct) / float64(nSamples)
}

// Coef returns a copy of the fitted feature coefficients.
func (lr *LogisticRegression) Coef() []float64 {
	out := make([]float64, len(lr.coef_))
	copy(out, lr.coef_)
	return out
}

// Intercept returns the fitted intercept term.
func (lr *LogisticRegression) Intercept() float64 {
	return lr.intercept_
}

// Classes returns the two class labels in ascending order; index 1 is the
// positive class.
func (lr *LogisticRegression) Classes() []float64 {
	out := make([]float64, len(lr.classes_))
	copy(out, lr.classes_)
	return out
}

// NIter returns the number of solver iterations actually used by Fit.
func (lr *LogisticRegression) NIter() int {
	return lr.nIter_
}

// Converged reports whether the last Fit satisfied the convergence
// tolerance within the iteration bound.
func (lr *LogisticRegression) Converged() bool {
	return lr.converged_
}

// NonZeroCount returns the number of coefficients with magnitude strictly
// greater than zero. The proximal solver produces exact zeros, so no
// tolerance band is applied.
func (lr *LogisticRegression) NonZeroCount() int {
	count := 0
	for _, w := range lr.coef_ {
		if w != 0 {
			count++
		}
	}
	return count
}

// GetParams returns the model hyperparameters.
func (lr *LogisticRegression) GetParams() map[string]interface{} {
	return map[string]interface{}{
		"penalty":       lr.penalty,
		"C":             lr.c,
		"fit_intercept": lr.fitIntercept,
		"max_iter":      lr.maxIter,
		"tol":           lr.tol,
	}
}
