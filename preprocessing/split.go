package preprocessing

import (
	"math/rand"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/churnlab/pkg/errors"
)

// Split holds the train/test partitions of the encoded dataset together with
// the row indices that produced them, so a run can be reproduced exactly
// from the same seed.
type Split struct {
	XTrain, XTest *mat.Dense
	YTrain, YTest *mat.VecDense

	TrainIndex, TestIndex []int

	FeatureNames []string
}

// TrainTestIndices shuffles the row indices of an n-row dataset with the
// given seed and partitions them into train and test sets. The same (n,
// testSize, seed) triple always yields the same assignment.
func TrainTestIndices(n int, testSize float64, seed int64) (trainIdx, testIdx []int, err error) {
	if n == 0 {
		return nil, nil, errors.Wrap(errors.ErrEmptyData, "cannot split empty dataset")
	}
	if testSize <= 0 || testSize >= 1 {
		return nil, nil, errors.NewValueError("TrainTestIndices", "test size must be in (0, 1)")
	}

	indices := make([]int, n)
	for i := range indices {
		indices[i] = i
	}

	rng := rand.New(rand.NewSource(seed))
	rng.Shuffle(n, func(i, j int) {
		indices[i], indices[j] = indices[j], indices[i]
	})

	testCount := int(float64(n) * testSize)
	trainCount := n - testCount
	if trainCount == 0 || testCount == 0 {
		return nil, nil, errors.NewValueError("TrainTestIndices", "split leaves an empty partition")
	}

	return indices[:trainCount], indices[trainCount:], nil
}

// StratifiedTrainTestIndices splits like TrainTestIndices but preserves the
// class balance of y in both partitions: each class is shuffled and split
// separately. Not used by the default pipeline, which keeps the plain
// shuffle split for parity with the reference behaviour.
func StratifiedTrainTestIndices(y *mat.VecDense, testSize float64, seed int64) (trainIdx, testIdx []int, err error) {
	n := y.Len()
	if n == 0 {
		return nil, nil, errors.Wrap(errors.ErrEmptyData, "cannot split empty dataset")
	}
	if testSize <= 0 || testSize >= 1 {
		return nil, nil, errors.NewValueError("StratifiedTrainTestIndices", "test size must be in (0, 1)")
	}

	var negatives, positives []int
	for i := 0; i < n; i++ {
		if y.AtVec(i) == 1 {
			positives = append(positives, i)
		} else {
			negatives = append(negatives, i)
		}
	}

	rng := rand.New(rand.NewSource(seed))
	for _, class := range [][]int{negatives, positives} {
		class := class
		rng.Shuffle(len(class), func(i, j int) {
			class[i], class[j] = class[j], class[i]
		})
		testCount := int(float64(len(class)) * testSize)
		trainIdx = append(trainIdx, class[:len(class)-testCount]...)
		testIdx = append(testIdx, class[len(class)-testCount:]...)
	}
	if len(trainIdx) == 0 || len(testIdx) == 0 {
		return nil, nil, errors.NewValueError("StratifiedTrainTestIndices", "split leaves an empty partition")
	}
	return trainIdx, testIdx, nil
}

// partition copies the selected rows of X and y into new matrices.
func partition(X *mat.Dense, y *mat.VecDense, indices []int) (*mat.Dense, *mat.VecDense) {
	_, cols := X.Dims()
	outX := mat.NewDense(len(indices), cols, nil)
	outY := mat.NewVecDense(len(indices), nil)
	for i, idx := range indices {
		outX.SetRow(i, mat.Row(nil, idx, X))
		outY.SetVec(i, y.AtVec(idx))
	}
	return outX, outY
}
