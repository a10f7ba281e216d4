package preprocessing

import (
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/churnlab/pkg/errors"
)

// CategoryEncoder encodes one categorical column. Categories are collected
// over the full dataset and sorted, which makes the encoding deterministic
// for a given input file:
//
//   - two categories: a single {0,1} column (the second sorted category
//     maps to 1)
//   - k > 2 categories: k-1 indicator columns with the first sorted
//     category dropped as the reference
//   - a constant column (k < 2): zero output columns
type CategoryEncoder struct {
	Column     string
	Categories []string
	Fitted     bool
}

// NewCategoryEncoder creates an encoder for the named column.
func NewCategoryEncoder(column string) *CategoryEncoder {
	return &CategoryEncoder{Column: column}
}

// Fit collects the sorted unique categories of the column.
func (e *CategoryEncoder) Fit(values []string) error {
	if len(values) == 0 {
		return errors.Wrapf(errors.ErrEmptyData, "column %q", e.Column)
	}

	seen := make(map[string]bool)
	for _, v := range values {
		seen[v] = true
	}
	e.Categories = make([]string, 0, len(seen))
	for c := range seen {
		e.Categories = append(e.Categories, c)
	}
	sort.Strings(e.Categories)
	e.Fitted = true
	return nil
}

// Width returns the number of feature columns this encoder produces.
func (e *CategoryEncoder) Width() int {
	switch k := len(e.Categories); {
	case k == 2:
		return 1
	case k > 2:
		return k - 1
	default:
		return 0
	}
}

// FeatureNames returns the output column names: the bare column name for a
// binary column, "column_category" for each kept indicator otherwise.
func (e *CategoryEncoder) FeatureNames() []string {
	if len(e.Categories) == 2 {
		return []string{e.Column}
	}
	names := make([]string, 0, e.Width())
	for _, c := range e.Categories[1:] {
		names = append(names, e.Column+"_"+c)
	}
	return names
}

// Transform encodes values into dst starting at column offset. dst must have
// len(values) rows. Unknown categories are an error: the encoder is fitted
// on the full dataset, so an unseen category means the input does not belong
// to this run.
func (e *CategoryEncoder) Transform(values []string, dst *mat.Dense, offset int) error {
	if !e.Fitted {
		return errors.NewNotFittedError("CategoryEncoder", "Transform")
	}

	index := make(map[string]int, len(e.Categories))
	for i, c := range e.Categories {
		index[c] = i
	}

	binary := len(e.Categories) == 2
	for row, v := range values {
		idx, ok := index[v]
		if !ok {
			return errors.Newf("churnlab: column %q: unknown category %q", e.Column, v)
		}
		if binary {
			dst.Set(row, offset, float64(idx))
			continue
		}
		// Drop-first: the reference category encodes as all zeros.
		if idx > 0 {
			dst.Set(row, offset+idx-1, 1)
		}
	}
	return nil
}

// LabelBinarizer maps the churn label to {0,1} with a fixed positive class.
type LabelBinarizer struct {
	Positive string
}

// Transform returns the binary label vector. Any value other than the
// positive class maps to 0.
func (lb *LabelBinarizer) Transform(values []string) *mat.VecDense {
	y := mat.NewVecDense(len(values), nil)
	for i, v := range values {
		if v == lb.Positive {
			y.SetVec(i, 1)
		}
	}
	return y
}
