// Package metrics implements binary classification metrics over gonum
// vectors. All functions expect labels in {0, 1}; the positive class is 1.
package metrics

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/churnlab/pkg/errors"
)

// ConfusionMatrix is the 2x2 contingency table of a binary classifier at a
// fixed threshold.
type ConfusionMatrix struct {
	TN, FP, FN, TP int
}

// Total returns the number of samples counted, which always equals the size
// of the evaluated partition.
func (c ConfusionMatrix) Total() int {
	return c.TN + c.FP + c.FN + c.TP
}

// Cells returns the matrix in [actual][predicted] order.
func (c ConfusionMatrix) Cells() [2][2]int {
	return [2][2]int{
		{c.TN, c.FP},
		{c.FN, c.TP},
	}
}

// NewConfusionMatrix tabulates predictions against true labels.
func NewConfusionMatrix(yTrue, yPred *mat.VecDense) (ConfusionMatrix, error) {
	var c ConfusionMatrix
	if err := validateBinary("ConfusionMatrix", yTrue, yPred); err != nil {
		return c, err
	}
	for i := 0; i < yTrue.Len(); i++ {
		actual := yTrue.AtVec(i) == 1
		predicted := yPred.AtVec(i) == 1
		switch {
		case actual && predicted:
			c.TP++
		case actual && !predicted:
			c.FN++
		case !actual && predicted:
			c.FP++
		default:
			c.TN++
		}
	}
	return c, nil
}

// Accuracy returns the fraction of correct predictions.
func Accuracy(yTrue, yPred *mat.VecDense) (float64, error) {
	if err := validateBinary("Accuracy", yTrue, yPred); err != nil {
		return 0, err
	}
	correct := 0
	for i := 0; i < yTrue.Len(); i++ {
		if yTrue.AtVec(i) == yPred.AtVec(i) {
			correct++
		}
	}
	return float64(correct) / float64(yTrue.Len()), nil
}

// Precision returns TP / (TP + FP). When no positive predictions were made
// the metric is ill-defined; a warning is emitted and 0 is returned,
// matching scikit-learn's zero_division behaviour.
func Precision(yTrue, yPred *mat.VecDense) (float64, error) {
	c, err := NewConfusionMatrix(yTrue, yPred)
	if err != nil {
		return 0, err
	}
	if c.TP+c.FP == 0 {
		errors.Warn(errors.NewUndefinedMetricWarning("precision", "no predicted positives", 0))
		return 0, nil
	}
	return float64(c.TP) / float64(c.TP+c.FP), nil
}

// Recall returns TP / (TP + FN). When the truth contains no positives the
// metric is ill-defined; a warning is emitted and 0 is returned.
func Recall(yTrue, yPred *mat.VecDense) (float64, error) {
	c, err := NewConfusionMatrix(yTrue, yPred)
	if err != nil {
		return 0, err
	}
	if c.TP+c.FN == 0 {
		errors.Warn(errors.NewUndefinedMetricWarning("recall", "no true positives in y_true", 0))
		return 0, nil
	}
	return float64(c.TP) / float64(c.TP+c.FN), nil
}

// F1 returns the harmonic mean of precision and recall.
func F1(yTrue, yPred *mat.VecDense) (float64, error) {
	p, err := Precision(yTrue, yPred)
	if err != nil {
		return 0, err
	}
	r, err := Recall(yTrue, yPred)
	if err != nil {
		return 0, err
	}
	if p+r == 0 {
		return 0, nil
	}
	return 2 * p * r / (p + r), nil
}

// Threshold converts probability scores into hard labels at the given
// cutoff. The evaluator uses the conventional 0.5.
func Threshold(scores *mat.VecDense, cutoff float64) *mat.VecDense {
	out := mat.NewVecDense(scores.Len(), nil)
	for i := 0; i < scores.Len(); i++ {
		if scores.AtVec(i) >= cutoff {
			out.SetVec(i, 1)
		}
	}
	return out
}

func validateBinary(op string, yTrue, yPred *mat.VecDense) error {
	n := yTrue.Len()
	if n == 0 {
		return errors.NewValueError(op, "empty vector")
	}
	if yPred.Len() != n {
		return errors.NewDimensionError(op, n, yPred.Len(), 0)
	}
	for i := 0; i < n; i++ {
		if v := yTrue.AtVec(i); v != 0 && v != 1 {
			return errors.NewValueError(op, "y_true must contain only 0 and 1")
		}
		if math.IsNaN(yPred.AtVec(i)) {
			return errors.NewValueError(op, "y_pred contains NaN")
		}
	}
	return nil
}
