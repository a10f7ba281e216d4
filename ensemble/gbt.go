package ensemble

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/churnlab/core/model"
	"github.com/YuminosukeSato/churnlab/core/parallel"
	"github.com/YuminosukeSato/churnlab/pkg/errors"
)

// GBTClassifier is a gradient boosted tree classifier for binary
// targets. It boosts shallow regression trees on the log-loss gradient,
// with Newton leaf values and a shrinkage factor per stage. Fields are
// exported for gob.
type GBTClassifier struct {
	State *model.StateManager

	NEstimators     int
	LearningRate    float64
	MaxDepth        int
	MinSamplesSplit int
	MinSamplesLeaf  int
	Lambda          float64 // L2 regularisation on leaf values
	Seed            int64

	InitScore float64
	Trees     []*TreeNode
}

// GBTOption configures a GBTClassifier.
type GBTOption func(*GBTClassifier)

// WithGBTEstimators sets the number of boosting stages.
func WithGBTEstimators(n int) GBTOption {
	return func(g *GBTClassifier) { g.NEstimators = n }
}

// WithGBTLearningRate sets the shrinkage factor.
func WithGBTLearningRate(lr float64) GBTOption {
	return func(g *GBTClassifier) { g.LearningRate = lr }
}

// WithGBTMaxDepth sets the per-stage tree depth cap.
func WithGBTMaxDepth(depth int) GBTOption {
	return func(g *GBTClassifier) { g.MaxDepth = depth }
}

// WithGBTSeed sets the seed.
func WithGBTSeed(seed int64) GBTOption {
	return func(g *GBTClassifier) { g.Seed = seed }
}

// NewGBTClassifier creates a booster with the pipeline defaults:
// 100 stages, learning rate 0.1, depth 3.
func NewGBTClassifier(opts ...GBTOption) *GBTClassifier {
	g := &GBTClassifier{
		State:           model.NewStateManager(),
		NEstimators:     100,
		LearningRate:    0.1,
		MaxDepth:        3,
		MinSamplesSplit: 2,
		MinSamplesLeaf:  1,
		Lambda:          1.0,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Name implements model.Classifier.
func (g *GBTClassifier) Name() string { return "GradientBoosting" }

// Fit boosts the ensemble on X and binary labels y.
func (g *GBTClassifier) Fit(X, y mat.Matrix) error {
	nSamples, nFeatures := X.Dims()
	yRows, yCols := y.Dims()
	if nSamples != yRows {
		return errors.NewDimensionError("GBTClassifier.Fit", nSamples, yRows, 0)
	}
	if yCols != 1 {
		return errors.NewValueError("GBTClassifier.Fit", "y must be a column vector")
	}
	if nSamples == 0 {
		return errors.NewModelError("GBTClassifier.Fit", "empty data", errors.ErrEmptyData)
	}

	labels := make([]float64, nSamples)
	positives := 0
	for i := 0; i < nSamples; i++ {
		v := y.At(i, 0)
		if v != 0 && v != 1 {
			return errors.NewValueError("GBTClassifier.Fit", "labels must be 0 or 1")
		}
		labels[i] = v
		if v == 1 {
			positives++
		}
	}
	if positives == 0 || positives == nSamples {
		return errors.NewValueError("GBTClassifier.Fit", "training labels contain a single class")
	}

	// Initial raw score is the log odds of the base rate.
	p := clampProbability(float64(positives) / float64(nSamples))
	g.InitScore = math.Log(p / (1 - p))

	rawScores := make([]float64, nSamples)
	for i := range rawScores {
		rawScores[i] = g.InitScore
	}

	allIndices := make([]int, nSamples)
	for i := range allIndices {
		allIndices[i] = i
	}

	g.Trees = make([]*TreeNode, 0, g.NEstimators)
	gradients := make([]float64, nSamples)
	hessians := make([]float64, nSamples)
	negGradients := make([]float64, nSamples)

	for stage := 0; stage < g.NEstimators; stage++ {
		for i := 0; i < nSamples; i++ {
			prob := sigmoidStable(rawScores[i])
			gradients[i] = prob - labels[i]
			hessians[i] = prob * (1 - prob)
			negGradients[i] = -gradients[i]
		}

		// Newton step per leaf: -sum(grad) / (sum(hess) + lambda).
		leafValue := func(indices []int) float64 {
			gradSum, hessSum := 0.0, 0.0
			for _, i := range indices {
				gradSum += gradients[i]
				hessSum += hessians[i]
			}
			return -gradSum / (hessSum + g.Lambda)
		}

		cfg := treeConfig{
			maxDepth:        g.MaxDepth,
			minSamplesSplit: g.MinSamplesSplit,
			minSamplesLeaf:  g.MinSamplesLeaf,
		}
		tree := growRegressionTree(X, negGradients, allIndices, 0, cfg, leafValue)
		g.Trees = append(g.Trees, tree)

		for i := 0; i < nSamples; i++ {
			rawScores[i] += g.LearningRate * tree.Predict(X, i)
		}

		if err := errors.CheckNumericalStability("GBTClassifier.Fit", rawScores, stage); err != nil {
			return err
		}
	}

	g.State.SetDimensions(nFeatures, nSamples)
	g.State.SetFitted()
	return nil
}

// PredictProba returns an (n x 2) probability matrix from the boosted
// raw scores.
func (g *GBTClassifier) PredictProba(X mat.Matrix) (mat.Matrix, error) {
	if err := g.State.RequireFitted("GBTClassifier", "PredictProba"); err != nil {
		return nil, err
	}
	nSamples, nFeatures := X.Dims()
	fitted, _ := g.State.GetDimensions()
	if nFeatures != fitted {
		return nil, errors.NewDimensionError("GBTClassifier.PredictProba", fitted, nFeatures, 1)
	}

	probas := mat.NewDense(nSamples, 2, nil)
	parallel.ParallelizeWithThreshold(nSamples, 64, func(start, end int) {
		for i := start; i < end; i++ {
			raw := g.InitScore
			for _, tree := range g.Trees {
				raw += g.LearningRate * tree.Predict(X, i)
			}
			p := sigmoidStable(raw)
			probas.Set(i, 0, 1-p)
			probas.Set(i, 1, p)
		}
	})
	return probas, nil
}

// Predict returns hard labels at the 0.5 threshold.
func (g *GBTClassifier) Predict(X mat.Matrix) (mat.Matrix, error) {
	probas, err := g.PredictProba(X)
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
func (g *GBTClassifier) GetParams() map[string]interface{} {
	return map[string]interface{}{
		"n_estimators":      g.NEstimators,
		"learning_rate":     g.LearningRate,
		"max_depth":         g.MaxDepth,
		"min_samples_split": g.MinSamplesSplit,
		"min_samples_leaf":  g.MinSamplesLeaf,
		"lambda":            g.Lambda,
		"random_state":      g.Seed,
	}
}

// sigmoidStable is an overflow-safe logistic function.
func sigmoidStable(z float64) float64 {
	if z >= 0 {
		return 1.0 / (1.0 + math.Exp(-z))
	}
	ez := math.Exp(z)
	return ez / (1.0 + ez)
}
