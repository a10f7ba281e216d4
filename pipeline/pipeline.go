// Package pipeline orchestrates a full training run: load, preprocess,
// train the candidate classifiers, evaluate them on the held-out
// partition, select a winner and persist it.
package pipeline

import (
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/YuminosukeSato/churnlab/core/model"
	"github.com/YuminosukeSato/churnlab/dataset"
	"github.com/YuminosukeSato/churnlab/ensemble"
	"github.com/YuminosukeSato/churnlab/evaluation"
	"github.com/YuminosukeSato/churnlab/linear"
	"github.com/YuminosukeSato/churnlab/persist"
	"github.com/YuminosukeSato/churnlab/pkg/errors"
	chlog "github.com/YuminosukeSato/churnlab/pkg/log"
	"github.com/YuminosukeSato/churnlab/preprocessing"
	"github.com/YuminosukeSato/churnlab/report"
)

// Config holds everything a training run needs. Zero values are filled
// with the pipeline defaults by Normalize.
type Config struct {
	DataPath  string
	ModelPath string
	PlotDir   string
	TestSize  float64
	Seed      int64
	Selection string
}

// Normalize fills unset fields with the run defaults.
func (c *Config) Normalize() {
	if c.TestSize == 0 {
		c.TestSize = 0.2
	}
	if c.ModelPath == "" {
		c.ModelPath = "churn_model.gob"
	}
}

// Result summarises a completed training run.
type Result struct {
	RunID    string
	Reports  []*evaluation.Report
	Selected *evaluation.Report
	Bundle   *persist.Bundle
	Duration time.Duration
}

// candidates returns the fresh, unfitted classifier roster of a run.
// Every model is seeded from the run seed so two runs with identical
// configuration produce identical artefacts.
func candidates(seed int64) []model.Classifier {
	return []model.Classifier{
		linear.NewLogisticRegression(linear.WithSeed(seed)),
		ensemble.NewRandomForest(ensemble.WithForestSeed(seed)),
		ensemble.NewGBTClassifier(ensemble.WithGBTSeed(seed)),
	}
}

// Run executes a full training run and writes the winning model bundle
// to cfg.ModelPath.
func Run(cfg Config) (*Result, error) {
	cfg.Normalize()
	started := time.Now()
	runID := uuid.NewString()
	logger := slog.Default().With(slog.String(chlog.RunIDKey, runID))

	policy, err := evaluation.PolicyByName(cfg.Selection)
	if err != nil {
		return nil, err
	}

	table, err := dataset.Load(cfg.DataPath)
	if err != nil {
		return nil, err
	}

	pre := preprocessing.NewPreprocessor(dataset.TelcoSchema, cfg.TestSize, cfg.Seed)
	split, err := pre.FitSplit(table)
	if err != nil {
		return nil, err
	}

	fitted := trainCandidates(logger, candidates(cfg.Seed), split)
	if len(fitted) == 0 {
		return nil, errors.Wrap(errors.ErrNoModels, "every candidate classifier failed to train")
	}

	reports := make([]*evaluation.Report, 0, len(fitted))
	for _, clf := range fitted {
		rep, err := evaluation.Evaluate(clf, split.XTest, split.YTest)
		if err != nil {
			logger.Error("evaluation failed",
				slog.String(chlog.ModelNameKey, clf.Name()), chlog.ErrAttr(err))
			continue
		}
		reports = append(reports, rep)
	}
	if len(reports) == 0 {
		return nil, errors.Wrap(errors.ErrNoModels, "every candidate classifier failed evaluation")
	}

	selected := policy(reports)
	evaluation.WriteComparison(os.Stdout, reports, selected)

	report.WriteAll(cfg.PlotDir, split.YTrain, split.XTrain, split.FeatureNames, reports)

	var winner model.Classifier
	for _, clf := range fitted {
		if clf.Name() == selected.Model {
			winner = clf
			break
		}
	}

	bundle := persist.NewBundle(runID, pre, winner, selected)
	if err := bundle.Save(cfg.ModelPath); err != nil {
		return nil, err
	}

	result := &Result{
		RunID:    runID,
		Reports:  reports,
		Selected: selected,
		Bundle:   bundle,
		Duration: time.Since(started),
	}
	logger.Info("training run complete",
		slog.String(chlog.ModelNameKey, selected.Model),
		slog.Float64(chlog.AccuracyKey, selected.Accuracy),
		slog.Int64(chlog.DurationMsKey, result.Duration.Milliseconds()),
	)
	return result, nil
}

// trainCandidates fits every candidate concurrently. A failing model is
// logged and dropped; it never takes the run down with it.
func trainCandidates(logger *slog.Logger, models []model.Classifier, split *preprocessing.Split) []model.Classifier {
	type outcome struct {
		clf model.Classifier
		err error
	}
	outcomes := make([]outcome, len(models))

	var wg sync.WaitGroup
	for i, clf := range models {
		wg.Add(1)
		go func(i int, clf model.Classifier) {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					outcomes[i] = outcome{err: errors.Newf("training %s panicked: %v", clf.Name(), r)}
				}
			}()
			started := time.Now()
			if err := clf.Fit(split.XTrain, split.YTrain); err != nil {
				outcomes[i] = outcome{err: err}
				return
			}
			logger.Info("model trained",
				slog.String(chlog.ModelNameKey, clf.Name()),
				slog.Int64(chlog.DurationMsKey, time.Since(started).Milliseconds()),
			)
			outcomes[i] = outcome{clf: clf}
		}(i, clf)
	}
	wg.Wait()

	var fitted []model.Classifier
	for i, out := range outcomes {
		if out.err != nil {
			logger.Error("training failed",
				slog.String(chlog.ModelNameKey, models[i].Name()), chlog.ErrAttr(out.err))
			continue
		}
		fitted = append(fitted, out.clf)
	}
	return fitted
}
