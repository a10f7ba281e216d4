// Package persist stores the winning model together with its fitted
// preprocessing state, so the artefact on disk can score raw customer
// rows without retraining.
package persist

import (
	"encoding/gob"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/churnlab/core/model"
	"github.com/YuminosukeSato/churnlab/dataset"
	"github.com/YuminosukeSato/churnlab/ensemble"
	"github.com/YuminosukeSato/churnlab/evaluation"
	"github.com/YuminosukeSato/churnlab/linear"
	"github.com/YuminosukeSato/churnlab/pkg/errors"
	chlog "github.com/YuminosukeSato/churnlab/pkg/log"
	"github.com/YuminosukeSato/churnlab/preprocessing"
)

// FormatVersion is bumped whenever the bundle layout changes in a way
// old readers cannot decode.
const FormatVersion = 1

func init() {
	gob.Register(&linear.LogisticRegression{})
	gob.Register(&ensemble.RandomForest{})
	gob.Register(&ensemble.GBTClassifier{})
}

// Bundle is the persisted training artefact: the selected classifier,
// the fitted preprocessing pipeline it was trained behind, and enough
// metadata to trace the artefact back to its training run.
type Bundle struct {
	Version   int
	RunID     string
	CreatedAt time.Time

	Preprocessor *preprocessing.Preprocessor
	FeatureNames []string

	Model  model.Classifier
	Report *evaluation.Report
}

// NewBundle assembles a bundle for a freshly selected model. The run ID
// is minted here when the caller does not supply one.
func NewBundle(runID string, pre *preprocessing.Preprocessor, clf model.Classifier, report *evaluation.Report) *Bundle {
	if runID == "" {
		runID = uuid.NewString()
	}
	return &Bundle{
		Version:      FormatVersion,
		RunID:        runID,
		CreatedAt:    time.Now().UTC(),
		Preprocessor: pre,
		FeatureNames: append([]string(nil), pre.FeatureNames...),
		Model:        clf,
		Report:       report,
	}
}

// Save writes the bundle to path with gob encoding.
func (b *Bundle) Save(path string) error {
	if b.Model == nil {
		return errors.NewPersistenceError("save", path, errors.New("bundle has no model"))
	}
	if err := model.SaveGob(b, path); err != nil {
		return err
	}
	slog.Info("model bundle saved",
		slog.String(chlog.PathKey, path),
		slog.String(chlog.RunIDKey, b.RunID),
		slog.String(chlog.ModelNameKey, b.Model.Name()),
	)
	return nil
}

// Load reads a bundle from path and validates it is usable for scoring.
func Load(path string) (*Bundle, error) {
	var b Bundle
	if err := model.LoadGob(&b, path); err != nil {
		return nil, err
	}
	if b.Version != FormatVersion {
		return nil, errors.NewPersistenceError("load", path,
			errors.Newf("unsupported bundle version %d (want %d)", b.Version, FormatVersion))
	}
	if b.Model == nil || b.Preprocessor == nil {
		return nil, errors.NewPersistenceError("load", path, errors.New("bundle is incomplete"))
	}
	slog.Info("model bundle loaded",
		slog.String(chlog.PathKey, path),
		slog.String(chlog.RunIDKey, b.RunID),
		slog.String(chlog.ModelNameKey, b.Model.Name()),
	)
	return &b, nil
}

// PredictProba scores raw rows end to end: the stored preprocessing
// state transforms the table exactly as at training time, then the
// stored model produces positive-class probabilities.
func (b *Bundle) PredictProba(t *dataset.Table) (*mat.VecDense, error) {
	X, err := b.Preprocessor.Transform(t)
	if err != nil {
		return nil, err
	}
	probas, err := b.Model.PredictProba(X)
	if err != nil {
		return nil, err
	}
	n, _ := probas.Dims()
	scores := mat.NewVecDense(n, nil)
	for i := 0; i < n; i++ {
		scores.SetVec(i, probas.At(i, 1))
	}
	return scores, nil
}

// Predict scores raw rows and returns hard labels at the conventional
// 0.5 threshold.
func (b *Bundle) Predict(t *dataset.Table) (*mat.VecDense, error) {
	scores, err := b.PredictProba(t)
	if err != nil {
		return nil, err
	}
	labels := mat.NewVecDense(scores.Len(), nil)
	for i := 0; i < scores.Len(); i++ {
		if scores.AtVec(i) >= 0.5 {
			labels.SetVec(i, 1)
		}
	}
	return labels, nil
}
