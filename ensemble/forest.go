package ensemble

import (
	"math"
	"math/rand"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/churnlab/core/model"
	"github.com/YuminosukeSato/churnlab/core/parallel"
	"github.com/YuminosukeSato/churnlab/pkg/errors"
)

// RandomForest is a bootstrap-aggregated ensemble of Gini CART trees.
// Each tree sees a bootstrap sample of the training rows and considers
// sqrt(p) random features per split. Fields are exported for gob.
type RandomForest struct {
	State *model.StateManager

	NEstimators     int
	MaxDepth        int
	MinSamplesSplit int
	MinSamplesLeaf  int
	Seed            int64

	Trees []*TreeNode
}

// ForestOption configures a RandomForest.
type ForestOption func(*RandomForest)

// WithForestEstimators sets the number of trees.
func WithForestEstimators(n int) ForestOption {
	return func(rf *RandomForest) { rf.NEstimators = n }
}

// WithForestMaxDepth sets the per-tree depth cap.
func WithForestMaxDepth(depth int) ForestOption {
	return func(rf *RandomForest) { rf.MaxDepth = depth }
}

// WithForestSeed sets the seed used to derive per-tree seeds.
func WithForestSeed(seed int64) ForestOption {
	return func(rf *RandomForest) { rf.Seed = seed }
}

// NewRandomForest creates a forest with the pipeline defaults:
// 100 trees, depth 10, min_samples_split 2, min_samples_leaf 1.
func NewRandomForest(opts ...ForestOption) *RandomForest {
	rf := &RandomForest{
		State:           model.NewStateManager(),
		NEstimators:     100,
		MaxDepth:        10,
		MinSamplesSplit: 2,
		MinSamplesLeaf:  1,
	}
	for _, opt := range opts {
		opt(rf)
	}
	return rf
}

// Name implements model.Classifier.
func (rf *RandomForest) Name() string { return "RandomForest" }

// Fit grows the ensemble. Trees are independent, so they are grown in
// parallel; tree i is seeded with Seed+i to keep the result
// deterministic regardless of scheduling.
func (rf *RandomForest) Fit(X, y mat.Matrix) error {
	nSamples, nFeatures := X.Dims()
	yRows, yCols := y.Dims()
	if nSamples != yRows {
		return errors.NewDimensionError("RandomForest.Fit", nSamples, yRows, 0)
	}
	if yCols != 1 {
		return errors.NewValueError("RandomForest.Fit", "y must be a column vector")
	}
	if nSamples == 0 {
		return errors.NewModelError("RandomForest.Fit", "empty data", errors.ErrEmptyData)
	}
	labels := make([]float64, nSamples)
	for i := 0; i < nSamples; i++ {
		v := y.At(i, 0)
		if v != 0 && v != 1 {
			return errors.NewValueError("RandomForest.Fit", "labels must be 0 or 1")
		}
		labels[i] = v
	}

	maxFeatures := int(math.Sqrt(float64(nFeatures)))
	if maxFeatures < 1 {
		maxFeatures = 1
	}

	rf.Trees = make([]*TreeNode, rf.NEstimators)
	parallel.Parallelize(rf.NEstimators, func(start, end int) {
		for t := start; t < end; t++ {
			rng := rand.New(rand.NewSource(rf.Seed + int64(t)))

			bootstrap := make([]int, nSamples)
			for i := range bootstrap {
				bootstrap[i] = rng.Intn(nSamples)
			}

			cfg := treeConfig{
				maxDepth:        rf.MaxDepth,
				minSamplesSplit: rf.MinSamplesSplit,
				minSamplesLeaf:  rf.MinSamplesLeaf,
				maxFeatures:     maxFeatures,
				rng:             rng,
			}
			rf.Trees[t] = growClassificationTree(X, labels, bootstrap, 0, cfg)
		}
	})

	rf.State.SetDimensions(nFeatures, nSamples)
	rf.State.SetFitted()
	return nil
}

// PredictProba averages the leaf positive-class fractions over all
// trees and returns an (n x 2) probability matrix.
func (rf *RandomForest) PredictProba(X mat.Matrix) (mat.Matrix, error) {
	if err := rf.State.RequireFitted("RandomForest", "PredictProba"); err != nil {
		return nil, err
	}
	nSamples, nFeatures := X.Dims()
	fitted, _ := rf.State.GetDimensions()
	if nFeatures != fitted {
		return nil, errors.NewDimensionError("RandomForest.PredictProba", fitted, nFeatures, 1)
	}

	probas := mat.NewDense(nSamples, 2, nil)
	parallel.Parallelize(nSamples, func(start, end int) {
		for i := start; i < end; i++ {
			sum := 0.0
			for _, tree := range rf.Trees {
				sum += tree.Predict(X, i)
			}
			p := sum / float64(len(rf.Trees))
			probas.Set(i, 0, 1-p)
			probas.Set(i, 1, p)
		}
	})
	return probas, nil
}

// Predict returns hard labels at the 0.5 threshold.
func (rf *RandomForest) Predict(X mat.Matrix) (mat.Matrix, error) {
	probas, err := rf.PredictProba(X)
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
func (rf *RandomForest) GetParams() map[string]interface{} {
	return map[string]interface{}{
		"n_estimators":      rf.NEstimators,
		"max_depth":         rf.MaxDepth,
		"min_samples_split": rf.MinSamplesSplit,
		"min_samples_leaf":  rf.MinSamplesLeaf,
		"random_state":      rf.Seed,
	}
}
