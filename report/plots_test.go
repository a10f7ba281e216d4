package report

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/churnlab/evaluation"
	"github.com/YuminosukeSato/churnlab/metrics"
)

func sampleReports() []*evaluation.Report {
	return []*evaluation.Report{
		{
			Model:      "LogisticRegression",
			Accuracy:   0.8,
			AUC:        0.85,
			AUCDefined: true,
			Confusion:  metrics.ConfusionMatrix{TN: 40, FP: 10, FN: 5, TP: 45},
			ROC: []metrics.ROCPoint{
				{Threshold: 1, FPR: 0, TPR: 0},
				{Threshold: 0.5, FPR: 0.2, TPR: 0.8},
				{Threshold: 0, FPR: 1, TPR: 1},
			},
		},
		{Model: "RandomForest", Accuracy: 0.75, AUCDefined: false},
	}
}

func requireFile(t *testing.T, path string) {
	t.Helper()
	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))
}

func TestChurnDistribution(t *testing.T) {
	y := mat.NewVecDense(6, []float64{0, 0, 0, 0, 1, 1})
	path := filepath.Join(t.TempDir(), "dist.png")
	require.NoError(t, ChurnDistribution(y, path))
	requireFile(t, path)
}

func TestCorrelationHeatmap(t *testing.T) {
	X := mat.NewDense(5, 3, []float64{
		1, 2, 0.5,
		2, 4, 0.1,
		3, 6, 0.9,
		4, 8, 0.2,
		5, 10, 0.7,
	})
	path := filepath.Join(t.TempDir(), "corr.png")
	require.NoError(t, CorrelationHeatmap(X, []string{"a", "b", "c"}, path))
	requireFile(t, path)
}

func TestCorrelationHeatmapNameMismatch(t *testing.T) {
	X := mat.NewDense(2, 2, []float64{1, 2, 3, 4})
	err := CorrelationHeatmap(X, []string{"only-one"}, filepath.Join(t.TempDir(), "corr.png"))
	assert.Error(t, err)
}

func TestConfusionHeatmap(t *testing.T) {
	path := filepath.Join(t.TempDir(), "confusion.png")
	require.NoError(t, ConfusionHeatmap(sampleReports()[0], path))
	requireFile(t, path)
}

func TestROCPlot(t *testing.T) {
	path := filepath.Join(t.TempDir(), "roc.png")
	require.NoError(t, ROCPlot(sampleReports(), path))
	requireFile(t, path)
}

func TestROCPlotNoCurves(t *testing.T) {
	reports := []*evaluation.Report{{Model: "m", AUCDefined: false}}
	err := ROCPlot(reports, filepath.Join(t.TempDir(), "roc.png"))
	assert.Error(t, err)
}

func TestWriteAll(t *testing.T) {
	dir := t.TempDir()
	y := mat.NewVecDense(4, []float64{0, 1, 0, 1})
	X := mat.NewDense(4, 2, []float64{1, 2, 3, 4, 5, 6, 7, 8})

	WriteAll(dir, y, X, []string{"a", "b"}, sampleReports())

	requireFile(t, filepath.Join(dir, "churn_distribution.png"))
	requireFile(t, filepath.Join(dir, "feature_correlation.png"))
	requireFile(t, filepath.Join(dir, "roc_curves.png"))
	requireFile(t, filepath.Join(dir, "confusion_LogisticRegression.png"))
}
