package preprocessing

import (
	"log/slog"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/churnlab/dataset"
	"github.com/YuminosukeSato/churnlab/pkg/errors"
	chlog "github.com/YuminosukeSato/churnlab/pkg/log"
)

// PositiveLabel is the churn label value encoded as 1.
const PositiveLabel = "Yes"

// Preprocessor derives the feature matrix and label vector from a record
// table and splits them into reproducible train/test partitions.
//
// Order of operations, which must not be rearranged:
//
//  1. coerce monetary text columns to floats (unparsable -> missing)
//  2. impute missing values with the median of the FULL dataset — this
//     happens before the split on purpose, matching the reference
//     behaviour even though it leaks global statistics into the test
//     partition
//  3. fit categorical encoders on the full dataset
//  4. split rows 80/20 with the fixed seed
//  5. fit the standard scaler on the TRAINING partition only and apply it
//     to both partitions — unlike step 2 this ordering is load-bearing and
//     keeps the scaler leak-free
//
// All fitted state is exported so a Preprocessor can ride inside a persisted
// model bundle and replay the exact transformation at inference time.
type Preprocessor struct {
	Schema   []dataset.Column
	TestSize float64
	Seed     int64

	Label        *LabelBinarizer
	Imputers     map[string]*MedianImputer
	Encoders     map[string]*CategoryEncoder
	Scaler       *StandardScaler
	FeatureNames []string
	Fitted       bool
}

// NewPreprocessor creates an unfitted preprocessor for the given schema.
func NewPreprocessor(schema []dataset.Column, testSize float64, seed int64) *Preprocessor {
	return &Preprocessor{
		Schema:   schema,
		TestSize: testSize,
		Seed:     seed,
		Label:    &LabelBinarizer{Positive: PositiveLabel},
		Imputers: make(map[string]*MedianImputer),
		Encoders: make(map[string]*CategoryEncoder),
	}
}

// FitSplit fits all preprocessing state on the table and returns the scaled
// train/test partitions.
func (p *Preprocessor) FitSplit(t *dataset.Table) (*Split, error) {
	if err := p.fit(t); err != nil {
		return nil, err
	}

	X, err := p.assemble(t)
	if err != nil {
		return nil, err
	}
	y := p.Label.Transform(t.MustColumn(dataset.LabelColumn(p.Schema)))

	trainIdx, testIdx, err := TrainTestIndices(t.NumRows(), p.TestSize, p.Seed)
	if err != nil {
		return nil, err
	}

	XTrain, yTrain := partition(X, y, trainIdx)
	XTest, yTest := partition(X, y, testIdx)

	p.Scaler = NewStandardScaler(p.scaledIndices())
	XTrain, err = p.Scaler.FitTransform(XTrain)
	if err != nil {
		return nil, err
	}
	XTest, err = p.Scaler.Transform(XTest)
	if err != nil {
		return nil, err
	}

	imputed := 0
	for _, imp := range p.Imputers {
		imputed += imp.NMissing
	}
	slog.Info("preprocessing complete",
		chlog.ComponentKey, "preprocessing",
		chlog.FeaturesKey, len(p.FeatureNames),
		chlog.TrainSamplesKey, len(trainIdx),
		chlog.TestSamplesKey, len(testIdx),
		chlog.ImputedKey, imputed,
	)

	return &Split{
		XTrain:       XTrain,
		XTest:        XTest,
		YTrain:       yTrain,
		YTest:        yTest,
		TrainIndex:   trainIdx,
		TestIndex:    testIdx,
		FeatureNames: p.FeatureNames,
	}, nil
}

// Transform encodes and scales a table with the already fitted state. This
// is the inference path used by a reloaded model bundle.
func (p *Preprocessor) Transform(t *dataset.Table) (*mat.Dense, error) {
	if !p.Fitted || p.Scaler == nil {
		return nil, errors.NewNotFittedError("Preprocessor", "Transform")
	}
	X, err := p.assemble(t)
	if err != nil {
		return nil, err
	}
	return p.Scaler.Transform(X)
}

// Labels encodes the label column of a table with the fitted binarizer.
func (p *Preprocessor) Labels(t *dataset.Table) *mat.VecDense {
	return p.Label.Transform(t.MustColumn(dataset.LabelColumn(p.Schema)))
}

func (p *Preprocessor) fit(t *dataset.Table) error {
	for _, col := range p.Schema {
		switch col.Kind {
		case dataset.KindMonetaryText:
			imp := NewMedianImputer(col.Name)
			if err := imp.Fit(CoerceMonetary(t.MustColumn(col.Name))); err != nil {
				return err
			}
			p.Imputers[col.Name] = imp
		case dataset.KindCategorical:
			enc := NewCategoryEncoder(col.Name)
			if err := enc.Fit(t.MustColumn(col.Name)); err != nil {
				return err
			}
			p.Encoders[col.Name] = enc
		}
	}

	p.FeatureNames = nil
	for _, col := range p.Schema {
		switch col.Kind {
		case dataset.KindNumeric, dataset.KindMonetaryText:
			p.FeatureNames = append(p.FeatureNames, col.Name)
		case dataset.KindCategorical:
			p.FeatureNames = append(p.FeatureNames, p.Encoders[col.Name].FeatureNames()...)
		}
	}

	p.Fitted = true
	return nil
}

// assemble builds the unscaled feature matrix in schema order.
func (p *Preprocessor) assemble(t *dataset.Table) (*mat.Dense, error) {
	if !p.Fitted {
		return nil, errors.NewNotFittedError("Preprocessor", "assemble")
	}

	n := t.NumRows()
	X := mat.NewDense(n, len(p.FeatureNames), nil)
	offset := 0

	for _, col := range p.Schema {
		switch col.Kind {
		case dataset.KindIdentifier, dataset.KindLabel:
			// The identifier never becomes a feature.

		case dataset.KindNumeric:
			for i, v := range t.MustColumn(col.Name) {
				f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
				if err != nil {
					return nil, errors.NewValueError("Preprocessor.assemble",
						"column "+col.Name+" row "+strconv.Itoa(i)+": unparsable numeric value "+strconv.Quote(v))
				}
				X.Set(i, offset, f)
			}
			offset++

		case dataset.KindMonetaryText:
			vals, err := p.Imputers[col.Name].Transform(CoerceMonetary(t.MustColumn(col.Name)))
			if err != nil {
				return nil, err
			}
			for i, f := range vals {
				X.Set(i, offset, f)
			}
			offset++

		case dataset.KindCategorical:
			enc := p.Encoders[col.Name]
			if err := enc.Transform(t.MustColumn(col.Name), X, offset); err != nil {
				return nil, err
			}
			offset += enc.Width()
		}
	}
	return X, nil
}

// scaledIndices maps dataset.ScaledColumns into feature-matrix indices.
func (p *Preprocessor) scaledIndices() []int {
	pos := make(map[string]int, len(p.FeatureNames))
	for i, name := range p.FeatureNames {
		pos[name] = i
	}
	var idx []int
	for _, name := range dataset.ScaledColumns {
		if j, ok := pos[name]; ok {
			idx = append(idx, j)
		}
	}
	return idx
}
