// Package log defines standard attribute keys for statkit operations.
//
// Using these keys consistently keeps sweep and fitting logs filterable:
// every fold fit logs the same model.name / ml.operation / cv.fold keys
// regardless of which estimator produced it.

package log

// Model and operation context.
const (
	// ModelNameKey identifies the estimator type.
	// Examples: "LogisticRegression", "StandardScaler"
	ModelNameKey = "model.name"

	// OperationKey specifies the operation being performed.
	// Standard values: "fit", "predict", "transform", "sweep", "score"
	OperationKey = "ml.operation"

	// ComponentKey identifies which package is performing the operation.
	// Examples: "linear_model", "preprocessing", "modelselection"
	ComponentKey = "ml.component"
)

// Data shape.
const (
	// SamplesKey is the number of samples (rows) being processed.
	SamplesKey = "data.samples"

	// FeaturesKey is the number of feature columns being processed.
	FeaturesKey = "data.features"
)

// Cross-validation context.
const (
	// FoldKey is the zero-based fold index within a sweep.
	FoldKey = "cv.fold"

	// NFoldsKey is the total number of folds in the partition.
	NFoldsKey = "cv.n_folds"

	// CandidateKey is the regularization candidate being evaluated.
	CandidateKey = "cv.candidate"
)

// Performance.
const (
	// DurationMsKey is the elapsed wall time of an operation in milliseconds.
	DurationMsKey = "perf.duration_ms"

	// IterationsKey is the number of solver iterations actually used.
	IterationsKey = "perf.iterations"
)
