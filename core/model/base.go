// Package model provides core abstractions shared by statkit estimators.
//
// The package defines BaseEstimator, the foundation every fitting component
// embeds:
//
//   - Fitted state tracking to prevent usage of untrained estimators
//   - A hyperparameter map with scikit-learn style Get/SetParams
//
// Example usage:
//
//	type MyModel struct {
//		model.BaseEstimator
//		// model-specific fields
//	}
//
//	func (m *MyModel) Fit(X, y mat.Matrix) error {
//		// training logic
//		m.SetFitted() // mark as trained
//		return nil
//	}
package model

// EstimatorState represents the learning state of an estimator.
type EstimatorState int

const (
	// NotFitted indicates the estimator is not yet trained
	NotFitted EstimatorState = iota
	// Fitted indicates the estimator has been trained
	Fitted
)

// BaseEstimator is the base structure for all estimators.
type BaseEstimator struct {
	// State holds the estimator's learning state.
	State EstimatorState

	// hyperparameters holds the estimator's hyperparameters
	hyperparameters map[string]interface{}

	// ModelType identifies the type of estimator
	ModelType string
}

// IsFitted returns whether the estimator has been fitted with training data.
//
// All estimators must be fitted before they can be used for prediction or
// transformation.
func (e *BaseEstimator) IsFitted() bool {
	return e.State == Fitted
}

// SetFitted marks the estimator as fitted (trained).
//
// Called internally by estimator implementations after successful training;
// should not be called by end users.
func (e *BaseEstimator) SetFitted() {
	e.State = Fitted
}

// Reset returns the estimator to its initial untrained state. After reset,
// the estimator must be fitted again before use.
func (e *BaseEstimator) Reset() {
	e.State = NotFitted
}

// GetParams retrieves the estimator's hyperparameters. When deep is true the
// returned map is a copy that can be mutated freely.
func (e *BaseEstimator) GetParams(deep bool) map[string]interface{} {
	if e.hyperparameters == nil {
		return make(map[string]interface{})
	}

	if !deep {
		return e.hyperparameters
	}

	params := make(map[string]interface{})
	for k, v := range e.hyperparameters {
		params[k] = v
	}
	return params
}

// SetParams sets the estimator's hyperparameters.
func (e *BaseEstimator) SetParams(params map[string]interface{}) error {
	if e.hyperparameters == nil {
		e.hyperparameters = make(map[string]interface{})
	}

	for k, v := range params {
		e.hyperparameters[k] = v
	}

	return nil
}
