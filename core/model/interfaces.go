// Package model provides the estimator contracts and state management shared
// by every classifier in churnlab.
package model

import (
	"gonum.org/v1/gonum/mat"
)

// Fitter is the interface for estimators that learn from data.
type Fitter interface {
	// Fit trains the estimator on the given feature matrix and labels.
	Fit(X, y mat.Matrix) error
}

// Predictor is the interface for fitted estimators that produce hard labels.
type Predictor interface {
	// Predict returns an (n_samples x 1) matrix of class labels.
	Predict(X mat.Matrix) (mat.Matrix, error)
}

// Classifier is the contract every churn classifier satisfies. Models are
// immutable once fitted; Predict and PredictProba never mutate state.
type Classifier interface {
	Fitter
	Predictor

	// PredictProba returns an (n_samples x 2) matrix of class probabilities,
	// column 0 for the negative class and column 1 for the positive class.
	PredictProba(X mat.Matrix) (mat.Matrix, error)

	// Name returns the classifier type name used in reports and logs.
	Name() string

	// GetParams returns the fixed hyperparameters of the classifier.
	GetParams() map[string]interface{}
}

// Transformer is the interface for preprocessing steps that are fitted on
// the training partition and applied to both partitions.
type Transformer interface {
	Fit(X mat.Matrix) error
	Transform(X mat.Matrix) (mat.Matrix, error)
}
