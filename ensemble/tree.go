// Package ensemble implements the tree-based classifiers of the churn
// pipeline: a bootstrap-aggregated random forest and a gradient boosted
// tree model, both built on a shared CART implementation.
package ensemble

import (
	"math"
	"math/rand"
	"sort"

	"gonum.org/v1/gonum/mat"
)

// TreeNode is a single node of a binary decision tree. Leaf nodes have
// Left == Right == nil and carry Value. All fields are exported so a
// fitted tree survives gob encoding.
type TreeNode struct {
	Feature   int
	Threshold float64
	Left      *TreeNode
	Right     *TreeNode
	Value     float64
	NSamples  int
}

// IsLeaf reports whether the node is terminal.
func (n *TreeNode) IsLeaf() bool { return n.Left == nil && n.Right == nil }

// Predict walks the tree for a single row of X.
func (n *TreeNode) Predict(X mat.Matrix, row int) float64 {
	node := n
	for !node.IsLeaf() {
		if X.At(row, node.Feature) <= node.Threshold {
			node = node.Left
		} else {
			node = node.Right
		}
	}
	return node.Value
}

// Depth returns the depth of the tree rooted at n.
func (n *TreeNode) Depth() int {
	if n == nil || n.IsLeaf() {
		return 0
	}
	left := n.Left.Depth()
	right := n.Right.Depth()
	if left > right {
		return left + 1
	}
	return right + 1
}

// treeConfig bounds the growth of a single tree.
type treeConfig struct {
	maxDepth        int
	minSamplesSplit int
	minSamplesLeaf  int
	// maxFeatures limits the candidate features per split; <= 0 means all.
	maxFeatures int
	rng         *rand.Rand
}

// split is a candidate partition of the working set.
type split struct {
	feature   int
	threshold float64
	left      []int
	right     []int
	score     float64
}

// giniImpurity computes the Gini impurity of the binary labels selected
// by indices.
func giniImpurity(y []float64, indices []int) float64 {
	if len(indices) == 0 {
		return 0
	}
	positives := 0
	for _, i := range indices {
		if y[i] == 1 {
			positives++
		}
	}
	p := float64(positives) / float64(len(indices))
	return 2 * p * (1 - p)
}

// positiveFraction returns the share of positive labels within indices.
func positiveFraction(y []float64, indices []int) float64 {
	if len(indices) == 0 {
		return 0
	}
	positives := 0
	for _, i := range indices {
		if y[i] == 1 {
			positives++
		}
	}
	return float64(positives) / float64(len(indices))
}

// candidateFeatures returns the feature subset examined at one split.
// With maxFeatures <= 0 every feature is a candidate; otherwise a random
// subset of that size is drawn without replacement.
func candidateFeatures(cfg treeConfig, nFeatures int) []int {
	if cfg.maxFeatures <= 0 || cfg.maxFeatures >= nFeatures {
		features := make([]int, nFeatures)
		for j := range features {
			features[j] = j
		}
		return features
	}
	perm := cfg.rng.Perm(nFeatures)
	return perm[:cfg.maxFeatures]
}

// bestGiniSplit finds the impurity-minimising split of the working set,
// or nil when no split satisfies the leaf size constraints.
func bestGiniSplit(X mat.Matrix, y []float64, indices []int, cfg treeConfig) *split {
	_, nFeatures := X.Dims()
	parentImpurity := giniImpurity(y, indices)
	if parentImpurity == 0 {
		return nil
	}

	var best *split
	for _, feature := range candidateFeatures(cfg, nFeatures) {
		values := make([]float64, 0, len(indices))
		for _, i := range indices {
			values = append(values, X.At(i, feature))
		}
		sort.Float64s(values)

		for k := 1; k < len(values); k++ {
			if values[k] == values[k-1] {
				continue
			}
			threshold := (values[k] + values[k-1]) / 2

			var left, right []int
			for _, i := range indices {
				if X.At(i, feature) <= threshold {
					left = append(left, i)
				} else {
					right = append(right, i)
				}
			}
			if len(left) < cfg.minSamplesLeaf || len(right) < cfg.minSamplesLeaf {
				continue
			}

			n := float64(len(indices))
			weighted := float64(len(left))/n*giniImpurity(y, left) +
				float64(len(right))/n*giniImpurity(y, right)
			gain := parentImpurity - weighted
			if gain <= 1e-12 {
				continue
			}
			if best == nil || gain > best.score {
				best = &split{feature: feature, threshold: threshold, left: left, right: right, score: gain}
			}
		}
	}
	return best
}

// growClassificationTree builds a Gini CART tree over the working set.
// Leaf values are the positive-class fraction of the leaf.
func growClassificationTree(X mat.Matrix, y []float64, indices []int, depth int, cfg treeConfig) *TreeNode {
	node := &TreeNode{
		Value:    positiveFraction(y, indices),
		NSamples: len(indices),
	}
	if depth >= cfg.maxDepth || len(indices) < cfg.minSamplesSplit {
		return node
	}
	best := bestGiniSplit(X, y, indices, cfg)
	if best == nil {
		return node
	}
	node.Feature = best.feature
	node.Threshold = best.threshold
	node.Left = growClassificationTree(X, y, best.left, depth+1, cfg)
	node.Right = growClassificationTree(X, y, best.right, depth+1, cfg)
	return node
}

// bestVarianceSplit finds the variance-minimising split for a regression
// target, used when fitting trees to boosting residuals.
func bestVarianceSplit(X mat.Matrix, target []float64, indices []int, cfg treeConfig) *split {
	_, nFeatures := X.Dims()
	parentSSE := sumSquaredError(target, indices)

	var best *split
	for _, feature := range candidateFeatures(cfg, nFeatures) {
		values := make([]float64, 0, len(indices))
		for _, i := range indices {
			values = append(values, X.At(i, feature))
		}
		sort.Float64s(values)

		for k := 1; k < len(values); k++ {
			if values[k] == values[k-1] {
				continue
			}
			threshold := (values[k] + values[k-1]) / 2

			var left, right []int
			for _, i := range indices {
				if X.At(i, feature) <= threshold {
					left = append(left, i)
				} else {
					right = append(right, i)
				}
			}
			if len(left) < cfg.minSamplesLeaf || len(right) < cfg.minSamplesLeaf {
				continue
			}

			gain := parentSSE - sumSquaredError(target, left) - sumSquaredError(target, right)
			if gain <= 1e-12 {
				continue
			}
			if best == nil || gain > best.score {
				best = &split{feature: feature, threshold: threshold, left: left, right: right, score: gain}
			}
		}
	}
	return best
}

func sumSquaredError(target []float64, indices []int) float64 {
	if len(indices) == 0 {
		return 0
	}
	mean := 0.0
	for _, i := range indices {
		mean += target[i]
	}
	mean /= float64(len(indices))

	sse := 0.0
	for _, i := range indices {
		d := target[i] - mean
		sse += d * d
	}
	return sse
}

// growRegressionTree builds a variance-reduction CART tree. leafValue
// maps a leaf's working set to its output, which lets gradient boosting
// install Newton leaf estimates instead of plain means.
func growRegressionTree(X mat.Matrix, target []float64, indices []int, depth int, cfg treeConfig, leafValue func([]int) float64) *TreeNode {
	node := &TreeNode{
		Value:    leafValue(indices),
		NSamples: len(indices),
	}
	if depth >= cfg.maxDepth || len(indices) < cfg.minSamplesSplit {
		return node
	}
	best := bestVarianceSplit(X, target, indices, cfg)
	if best == nil {
		return node
	}
	node.Feature = best.feature
	node.Threshold = best.threshold
	node.Left = growRegressionTree(X, target, best.left, depth+1, cfg, leafValue)
	node.Right = growRegressionTree(X, target, best.right, depth+1, cfg, leafValue)
	return node
}

func clampProbability(p float64) float64 {
	return math.Min(math.Max(p, 1e-15), 1-1e-15)
}
