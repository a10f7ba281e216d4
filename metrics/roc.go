package metrics

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/churnlab/pkg/errors"
)

// ROCPoint is one point of a receiver operating characteristic curve.
type ROCPoint struct {
	Threshold float64
	FPR       float64
	TPR       float64
}

// ROCCurve computes the ROC curve from probability scores, sweeping every
// distinct score as a threshold from high to low. The curve starts at
// (0, 0) with an infinite threshold and ends at (1, 1).
//
// The curve is undefined when y_true holds a single class: with no
// positives TPR has a zero denominator, with no negatives FPR does. In that
// case an error is returned instead of a spurious curve.
func ROCCurve(yTrue, scores *mat.VecDense) ([]ROCPoint, error) {
	if err := validateBinary("ROCCurve", yTrue, scores); err != nil {
		return nil, err
	}

	nPos, nNeg := 0, 0
	for i := 0; i < yTrue.Len(); i++ {
		if yTrue.AtVec(i) == 1 {
			nPos++
		} else {
			nNeg++
		}
	}
	if nPos == 0 {
		return nil, errors.WithStack(errors.NewUndefinedMetricWarning(
			"roc_curve", "no positive samples in y_true", math.NaN()))
	}
	if nNeg == 0 {
		return nil, errors.WithStack(errors.NewUndefinedMetricWarning(
			"roc_curve", "no negative samples in y_true", math.NaN()))
	}

	type pair struct {
		score float64
		pos   bool
	}
	pairs := make([]pair, yTrue.Len())
	for i := range pairs {
		pairs[i] = pair{score: scores.AtVec(i), pos: yTrue.AtVec(i) == 1}
	}
	sort.Slice(pairs, func(i, j int) bool { return pairs[i].score > pairs[j].score })

	curve := []ROCPoint{{Threshold: math.Inf(1)}}
	tp, fp := 0, 0
	for i := 0; i < len(pairs); {
		// Consume all samples tied at this score before emitting a point.
		threshold := pairs[i].score
		for i < len(pairs) && pairs[i].score == threshold {
			if pairs[i].pos {
				tp++
			} else {
				fp++
			}
			i++
		}
		curve = append(curve, ROCPoint{
			Threshold: threshold,
			FPR:       float64(fp) / float64(nNeg),
			TPR:       float64(tp) / float64(nPos),
		})
	}
	return curve, nil
}

// ROCAUC returns the area under the ROC curve, computed by trapezoidal
// integration. Like ROCCurve it reports an explicit error when y_true holds
// a single class.
func ROCAUC(yTrue, scores *mat.VecDense) (float64, error) {
	curve, err := ROCCurve(yTrue, scores)
	if err != nil {
		return math.NaN(), err
	}

	auc := 0.0
	for i := 1; i < len(curve); i++ {
		dx := curve[i].FPR - curve[i-1].FPR
		auc += dx * (curve[i].TPR + curve[i-1].TPR) / 2
	}
	return auc, nil
}
