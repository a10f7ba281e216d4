// Package evaluation scores fitted classifiers on the held-out test
// partition and selects the model to persist.
package evaluation

import (
	"fmt"
	"io"
	"log/slog"
	"sort"

	"github.com/fatih/color"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/churnlab/core/model"
	"github.com/YuminosukeSato/churnlab/metrics"
	"github.com/YuminosukeSato/churnlab/pkg/errors"
	chlog "github.com/YuminosukeSato/churnlab/pkg/log"
)

// Report holds the full evaluation of one classifier on the test set.
// AUCDefined is false when the test labels contain a single class, in
// which case AUC carries NaN and must not be compared.
type Report struct {
	Model      string
	Accuracy   float64
	Precision  float64
	Recall     float64
	F1         float64
	AUC        float64
	AUCDefined bool
	Confusion  metrics.ConfusionMatrix
	ROC        []metrics.ROCPoint
}

// Evaluate scores a fitted classifier against the test partition. The
// ROC-AUC being undefined is recorded in the report rather than failing
// the evaluation; every other metric error is fatal.
func Evaluate(clf model.Classifier, XTest mat.Matrix, yTest *mat.VecDense) (*Report, error) {
	predictions, err := clf.Predict(XTest)
	if err != nil {
		return nil, errors.Wrapf(err, "evaluating %s", clf.Name())
	}
	n, _ := predictions.Dims()
	yPred := mat.NewVecDense(n, nil)
	for i := 0; i < n; i++ {
		yPred.SetVec(i, predictions.At(i, 0))
	}

	report := &Report{Model: clf.Name()}

	report.Confusion, err = metrics.NewConfusionMatrix(yTest, yPred)
	if err != nil {
		return nil, errors.Wrapf(err, "evaluating %s", clf.Name())
	}
	if report.Accuracy, err = metrics.Accuracy(yTest, yPred); err != nil {
		return nil, errors.Wrapf(err, "evaluating %s", clf.Name())
	}
	if report.Precision, err = metrics.Precision(yTest, yPred); err != nil {
		return nil, errors.Wrapf(err, "evaluating %s", clf.Name())
	}
	if report.Recall, err = metrics.Recall(yTest, yPred); err != nil {
		return nil, errors.Wrapf(err, "evaluating %s", clf.Name())
	}
	if report.F1, err = metrics.F1(yTest, yPred); err != nil {
		return nil, errors.Wrapf(err, "evaluating %s", clf.Name())
	}

	probas, err := clf.PredictProba(XTest)
	if err != nil {
		return nil, errors.Wrapf(err, "evaluating %s", clf.Name())
	}
	scores := mat.NewVecDense(n, nil)
	for i := 0; i < n; i++ {
		scores.SetVec(i, probas.At(i, 1))
	}

	auc, aucErr := metrics.ROCAUC(yTest, scores)
	if aucErr != nil {
		var undefined *errors.UndefinedMetricWarning
		if !errors.As(aucErr, &undefined) {
			return nil, errors.Wrapf(aucErr, "evaluating %s", clf.Name())
		}
		errors.Warn(undefined)
		report.AUC = auc
		report.AUCDefined = false
	} else {
		report.AUC = auc
		report.AUCDefined = true
		report.ROC, err = metrics.ROCCurve(yTest, scores)
		if err != nil {
			return nil, errors.Wrapf(err, "evaluating %s", clf.Name())
		}
	}

	slog.Info("model evaluated",
		slog.String(chlog.ModelNameKey, report.Model),
		slog.Float64(chlog.AccuracyKey, report.Accuracy),
		slog.Float64(chlog.F1Key, report.F1),
		slog.Float64(chlog.ROCAUCKey, report.AUC),
	)
	return report, nil
}

// SelectionPolicy picks the report to persist from a non-empty slice.
type SelectionPolicy func(reports []*Report) *Report

// BestByROCAUC selects the highest ROC-AUC report. Reports with an
// undefined AUC are considered only when no report has a defined one,
// in which case selection falls back to accuracy.
func BestByROCAUC(reports []*Report) *Report {
	var best *Report
	for _, r := range reports {
		if !r.AUCDefined {
			continue
		}
		if best == nil || r.AUC > best.AUC {
			best = r
		}
	}
	if best == nil {
		return BestByAccuracy(reports)
	}
	return best
}

// BestByAccuracy selects the highest accuracy report.
func BestByAccuracy(reports []*Report) *Report {
	var best *Report
	for _, r := range reports {
		if best == nil || r.Accuracy > best.Accuracy {
			best = r
		}
	}
	return best
}

// PolicyByName resolves a selection policy from its configuration name.
func PolicyByName(name string) (SelectionPolicy, error) {
	switch name {
	case "", "roc_auc":
		return BestByROCAUC, nil
	case "accuracy":
		return BestByAccuracy, nil
	default:
		return nil, errors.NewValueError("evaluation.PolicyByName",
			fmt.Sprintf("unknown selection policy %q (want roc_auc or accuracy)", name))
	}
}

// WriteComparison renders a ranked comparison table of all reports,
// ordered by accuracy, with the selected model highlighted.
func WriteComparison(w io.Writer, reports []*Report, selected *Report) {
	ranked := make([]*Report, len(reports))
	copy(ranked, reports)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Accuracy > ranked[j].Accuracy
	})

	header := color.New(color.FgCyan, color.Bold)
	chosen := color.New(color.FgGreen, color.Bold)

	header.Fprintf(w, "%-20s %9s %10s %8s %8s %9s\n",
		"Model", "Accuracy", "Precision", "Recall", "F1", "ROC-AUC")
	fmt.Fprintln(w, "--------------------------------------------------------------------")

	for _, r := range ranked {
		aucCell := "n/a"
		if r.AUCDefined {
			aucCell = fmt.Sprintf("%.4f", r.AUC)
		}
		line := fmt.Sprintf("%-20s %9.4f %10.4f %8.4f %8.4f %9s",
			r.Model, r.Accuracy, r.Precision, r.Recall, r.F1, aucCell)
		if selected != nil && r.Model == selected.Model {
			chosen.Fprintf(w, "%s  <- selected\n", line)
		} else {
			fmt.Fprintln(w, line)
		}
	}
}

// WriteConfusion renders a confusion matrix in the conventional
// actual-by-predicted layout.
func WriteConfusion(w io.Writer, r *Report) {
	cells := r.Confusion.Cells()
	fmt.Fprintf(w, "%s confusion matrix (rows: actual, cols: predicted)\n", r.Model)
	fmt.Fprintf(w, "%12s %8s %8s\n", "", "stay", "churn")
	fmt.Fprintf(w, "%12s %8d %8d\n", "stay", cells[0][0], cells[0][1])
	fmt.Fprintf(w, "%12s %8d %8d\n", "churn", cells[1][0], cells[1][1])
}
