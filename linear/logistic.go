// Package linear implements the linear probabilistic classifier of the
// churn pipeline.
package linear

import (
	"log/slog"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/churnlab/core/model"
	"github.com/YuminosukeSato/churnlab/pkg/errors"
	chlog "github.com/YuminosukeSato/churnlab/pkg/log"
)

// LogisticRegression is a binary logistic regression classifier trained
// with full-batch gradient descent and L2 regularisation. Learned
// parameters are exported so a fitted model survives gob encoding.
type LogisticRegression struct {
	State *model.StateManager

	// Hyperparameters, fixed at construction.
	C            float64 // inverse regularisation strength
	MaxIter      int
	Tol          float64
	FitIntercept bool
	Seed         int64

	// Learned parameters.
	Coef      []float64
	Intercept float64
	NIter     int
}

// Option configures a LogisticRegression.
type Option func(*LogisticRegression)

// WithC sets the inverse regularisation strength.
func WithC(c float64) Option {
	return func(lr *LogisticRegression) { lr.C = c }
}

// WithMaxIter sets the iteration cap.
func WithMaxIter(maxIter int) Option {
	return func(lr *LogisticRegression) { lr.MaxIter = maxIter }
}

// WithTol sets the convergence tolerance on the gradient norm.
func WithTol(tol float64) Option {
	return func(lr *LogisticRegression) { lr.Tol = tol }
}

// WithSeed sets the seed for weight initialisation.
func WithSeed(seed int64) Option {
	return func(lr *LogisticRegression) { lr.Seed = seed }
}

// NewLogisticRegression creates a classifier with the pipeline defaults:
// C=1.0, max_iter=1000, tol=1e-4, intercept fitted, seed 0.
func NewLogisticRegression(opts ...Option) *LogisticRegression {
	lr := &LogisticRegression{
		State:        model.NewStateManager(),
		C:            1.0,
		MaxIter:      1000,
		Tol:          1e-4,
		FitIntercept: true,
	}
	for _, opt := range opts {
		opt(lr)
	}
	return lr
}

// Name implements model.Classifier.
func (lr *LogisticRegression) Name() string { return "LogisticRegression" }

// Fit trains the classifier on X and binary labels y.
func (lr *LogisticRegression) Fit(X, y mat.Matrix) error {
	nSamples, nFeatures := X.Dims()
	yRows, yCols := y.Dims()
	if nSamples != yRows {
		return errors.NewDimensionError("LogisticRegression.Fit", nSamples, yRows, 0)
	}
	if yCols != 1 {
		return errors.NewValueError("LogisticRegression.Fit", "y must be a column vector")
	}
	if nSamples == 0 {
		return errors.NewModelError("LogisticRegression.Fit", "empty data", errors.ErrEmptyData)
	}
	for i := 0; i < nSamples; i++ {
		if v := y.At(i, 0); v != 0 && v != 1 {
			return errors.NewValueError("LogisticRegression.Fit", "labels must be 0 or 1")
		}
	}

	rng := rand.New(rand.NewSource(lr.Seed))
	lr.Coef = make([]float64, nFeatures)
	for j := range lr.Coef {
		lr.Coef[j] = rng.NormFloat64() * 0.01
	}
	lr.Intercept = 0

	lambda := 1.0 / lr.C
	baseLearningRate := 1.0
	converged := false

	for iter := 0; iter < lr.MaxIter; iter++ {
		gradWeights := make([]float64, nFeatures)
		gradIntercept := 0.0

		for i := 0; i < nSamples; i++ {
			z := lr.Intercept
			for j := 0; j < nFeatures; j++ {
				z += X.At(i, j) * lr.Coef[j]
			}
			residual := sigmoid(z) - y.At(i, 0)
			gradIntercept += residual
			for j := 0; j < nFeatures; j++ {
				gradWeights[j] += residual * X.At(i, j)
			}
		}

		for j := range gradWeights {
			gradWeights[j] = gradWeights[j]/float64(nSamples) + lambda*lr.Coef[j]
		}
		gradIntercept /= float64(nSamples)

		learningRate := baseLearningRate / (1.0 + 0.1*float64(iter))
		for j := range lr.Coef {
			lr.Coef[j] -= learningRate * gradWeights[j]
		}
		if lr.FitIntercept {
			lr.Intercept -= learningRate * gradIntercept
		}
		lr.NIter = iter + 1

		if err := errors.CheckNumericalStability("LogisticRegression.Fit", lr.Coef, iter); err != nil {
			return err
		}

		maxGrad := math.Abs(gradIntercept)
		for _, g := range gradWeights {
			if math.Abs(g) > maxGrad {
				maxGrad = math.Abs(g)
			}
		}
		if maxGrad < lr.Tol {
			converged = true
			break
		}
	}

	if !converged {
		errors.Warn(errors.NewConvergenceWarning("LogisticRegression", lr.MaxIter, ""))
	}

	lr.State.SetDimensions(nFeatures, nSamples)
	lr.State.SetFitted()

	slog.Debug("gradient descent finished",
		slog.String(chlog.ModelNameKey, lr.Name()),
		slog.String(chlog.OperationKey, "fit"),
		slog.Int(chlog.IterationKey, lr.NIter),
		slog.Bool("converged", converged),
	)
	return nil
}

// PredictProba returns an (n x 2) matrix of class probabilities.
func (lr *LogisticRegression) PredictProba(X mat.Matrix) (mat.Matrix, error) {
	if err := lr.State.RequireFitted("LogisticRegression", "PredictProba"); err != nil {
		return nil, err
	}
	nSamples, nFeatures := X.Dims()
	fitted, _ := lr.State.GetDimensions()
	if nFeatures != fitted {
		return nil, errors.NewDimensionError("LogisticRegression.PredictProba", fitted, nFeatures, 1)
	}

	probas := mat.NewDense(nSamples, 2, nil)
	for i := 0; i < nSamples; i++ {
		z := lr.Intercept
		for j := 0; j < nFeatures; j++ {
			z += X.At(i, j) * lr.Coef[j]
		}
		p := sigmoid(z)
		probas.Set(i, 0, 1-p)
		probas.Set(i, 1, p)
	}
	return probas, nil
}

// Predict returns hard labels at the conventional 0.5 threshold.
func (lr *LogisticRegression) Predict(X mat.Matrix) (mat.Matrix, error) {
	probas, err := lr.PredictProba(X)
	if err != nil {
		return nil, err
	}
	nSamples, _ := probas.Dims()
	predictions := mat.NewDense(nSamples, 1, nil)
	for i := 0; i < nSamples; i++ {
		if probas.At(i, 1) >= 0.5 {
			predictions.Set(i, 0, 1)
		}
	}
	return predictions, nil
}

// GetParams returns the fixed hyperparameters.
func (lr *LogisticRegression) GetParams() map[string]interface{} {
	return map[string]interface{}{
		"C":             lr.C,
		"max_iter":      lr.MaxIter,
		"tol":           lr.Tol,
		"fit_intercept": lr.FitIntercept,
		"random_state":  lr.Seed,
	}
}

func sigmoid(z float64) float64 {
	return 1.0 / (1.0 + math.Exp(-z))
}
