// Package report renders the diagnostic plots of a training run:
// the churn class distribution, a feature correlation heatmap, per-model
// confusion matrices and the ROC curves of every evaluated model.
//
// Plotting failures never fail a run; callers log and continue.
package report

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"

	"github.com/YuminosukeSato/churnlab/evaluation"
	"github.com/YuminosukeSato/churnlab/pkg/errors"
	chlog "github.com/YuminosukeSato/churnlab/pkg/log"
)

// ChurnDistribution renders a two-bar chart of label counts.
func ChurnDistribution(y *mat.VecDense, path string) error {
	stay, churn := 0.0, 0.0
	for i := 0; i < y.Len(); i++ {
		if y.AtVec(i) == 1 {
			churn++
		} else {
			stay++
		}
	}

	p := plot.New()
	p.Title.Text = "Churn distribution"
	p.Y.Label.Text = "Customers"

	bars, err := plotter.NewBarChart(plotter.Values{stay, churn}, vg.Points(60))
	if err != nil {
		return errors.Wrap(err, "building churn distribution chart")
	}
	p.Add(bars)
	p.NominalX("Stay", "Churn")

	return savePlot(p, 5*vg.Inch, 4*vg.Inch, path)
}

// matrixGrid adapts a square matrix to the heatmap grid contract.
type matrixGrid struct {
	m mat.Matrix
}

func (g matrixGrid) Dims() (c, r int)   { r, c = g.m.Dims(); return c, r }
func (g matrixGrid) Z(c, r int) float64 { return g.m.At(r, c) }
func (g matrixGrid) X(c int) float64    { return float64(c) }
func (g matrixGrid) Y(r int) float64    { return float64(r) }

// CorrelationHeatmap renders the Pearson correlation matrix of the
// feature columns of X.
func CorrelationHeatmap(X mat.Matrix, featureNames []string, path string) error {
	_, nFeatures := X.Dims()
	if nFeatures != len(featureNames) {
		return errors.NewDimensionError("report.CorrelationHeatmap", len(featureNames), nFeatures, 1)
	}

	corr := mat.NewSymDense(nFeatures, nil)
	stat.CorrelationMatrix(corr, X, nil)

	p := plot.New()
	p.Title.Text = "Feature correlation"

	heatmap := plotter.NewHeatMap(matrixGrid{m: corr}, palette.Heat(12, 1))
	heatmap.Min, heatmap.Max = -1, 1
	p.Add(heatmap)

	return savePlot(p, 8*vg.Inch, 7*vg.Inch, path)
}

// ConfusionHeatmap renders the 2x2 confusion matrix of one report.
func ConfusionHeatmap(r *evaluation.Report, path string) error {
	cells := r.Confusion.Cells()
	m := mat.NewDense(2, 2, []float64{
		float64(cells[0][0]), float64(cells[0][1]),
		float64(cells[1][0]), float64(cells[1][1]),
	})

	p := plot.New()
	p.Title.Text = fmt.Sprintf("%s confusion matrix", r.Model)
	p.X.Label.Text = "Predicted"
	p.Y.Label.Text = "Actual"

	heatmap := plotter.NewHeatMap(matrixGrid{m: m}, palette.Heat(12, 1))
	p.Add(heatmap)
	p.NominalX("Stay", "Churn")
	p.NominalY("Stay", "Churn")

	return savePlot(p, 5*vg.Inch, 5*vg.Inch, path)
}

// ROCPlot renders the ROC curve of every report that has one, plus the
// chance diagonal.
func ROCPlot(reports []*evaluation.Report, path string) error {
	p := plot.New()
	p.Title.Text = "ROC curves"
	p.X.Label.Text = "False positive rate"
	p.Y.Label.Text = "True positive rate"
	p.X.Min, p.X.Max = 0, 1
	p.Y.Min, p.Y.Max = 0, 1

	diagonal, err := plotter.NewLine(plotter.XYs{{X: 0, Y: 0}, {X: 1, Y: 1}})
	if err != nil {
		return errors.Wrap(err, "building ROC plot")
	}
	diagonal.Dashes = []vg.Length{vg.Points(4), vg.Points(4)}
	p.Add(diagonal)

	plotted := 0
	for _, r := range reports {
		if len(r.ROC) == 0 {
			continue
		}
		pts := make(plotter.XYs, len(r.ROC))
		for i, point := range r.ROC {
			pts[i] = plotter.XY{X: point.FPR, Y: point.TPR}
		}
		line, err := plotter.NewLine(pts)
		if err != nil {
			return errors.Wrapf(err, "building ROC curve for %s", r.Model)
		}
		line.Color = plotutil.Color(plotted)
		p.Add(line)
		p.Legend.Add(fmt.Sprintf("%s (AUC %.4f)", r.Model, r.AUC), line)
		plotted++
	}
	if plotted == 0 {
		return errors.New("no report has a defined ROC curve")
	}
	p.Legend.Top = false

	return savePlot(p, 6*vg.Inch, 6*vg.Inch, path)
}

// WriteAll renders every plot of a run into dir. Each failure is logged
// and skipped so a headless or misconfigured environment cannot sink a
// training run.
func WriteAll(dir string, y *mat.VecDense, X mat.Matrix, featureNames []string, reports []*evaluation.Report) {
	if dir == "" {
		return
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		slog.Warn("skipping plots", slog.String(chlog.PathKey, dir), chlog.ErrAttr(err))
		return
	}

	render := func(name string, fn func(string) error) {
		path := filepath.Join(dir, name)
		if err := fn(path); err != nil {
			slog.Warn("plot failed", slog.String(chlog.PathKey, path), chlog.ErrAttr(err))
			return
		}
		slog.Info("plot written", chlog.ComponentKey, "report", chlog.PathKey, path)
	}

	render("churn_distribution.png", func(path string) error {
		return ChurnDistribution(y, path)
	})
	render("feature_correlation.png", func(path string) error {
		return CorrelationHeatmap(X, featureNames, path)
	})
	render("roc_curves.png", func(path string) error {
		return ROCPlot(reports, path)
	})
	for _, r := range reports {
		report := r
		render(fmt.Sprintf("confusion_%s.png", report.Model), func(path string) error {
			return ConfusionHeatmap(report, path)
		})
	}
}

func savePlot(p *plot.Plot, w, h vg.Length, path string) error {
	if err := p.Save(w, h, path); err != nil {
		return errors.Wrapf(err, "saving plot %s", path)
	}
	return nil
}
