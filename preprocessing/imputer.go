package preprocessing

import (
	"math"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
	"gonum.org/v1/gonum/stat"

	"github.com/YuminosukeSato/churnlab/pkg/errors"
)

// CoerceMonetary parses a monetary column stored as text into floats.
// Unparsable or empty values become NaN and are left for imputation; a parse
// failure here is never surfaced as an error. Amounts are parsed through
// decimal to avoid locale surprises with thousands separators and stray
// whitespace in exported billing data.
func CoerceMonetary(values []string) []float64 {
	out := make([]float64, len(values))
	for i, v := range values {
		v = strings.TrimSpace(v)
		if v == "" || v == "NA" || v == "NaN" {
			out[i] = math.NaN()
			continue
		}
		d, err := decimal.NewFromString(v)
		if err != nil {
			out[i] = math.NaN()
			continue
		}
		out[i] = d.InexactFloat64()
	}
	return out
}

// MedianImputer replaces missing values with the median of the column.
// The median is computed over the column it is fitted on; the pipeline
// deliberately fits it on the full dataset before the train/test split to
// reproduce the reference behaviour, so train statistics do leak into the
// test partition here.
type MedianImputer struct {
	Column   string
	Median   float64
	NMissing int
	Fitted   bool
}

// NewMedianImputer creates an imputer for the named column.
func NewMedianImputer(column string) *MedianImputer {
	return &MedianImputer{Column: column}
}

// Fit computes the median over the non-missing values. A column with no
// parseable values has no median and is a fatal input error.
func (imp *MedianImputer) Fit(values []float64) error {
	finite := make([]float64, 0, len(values))
	for _, v := range values {
		if !math.IsNaN(v) {
			finite = append(finite, v)
		}
	}
	if len(finite) == 0 {
		return errors.Wrapf(errors.ErrAllMissing, "median of column %q is undefined", imp.Column)
	}

	sort.Float64s(finite)
	imp.Median = stat.Quantile(0.5, stat.Empirical, finite, nil)
	imp.NMissing = len(values) - len(finite)
	imp.Fitted = true
	return nil
}

// Transform returns a copy of values with NaN replaced by the fitted median.
func (imp *MedianImputer) Transform(values []float64) ([]float64, error) {
	if !imp.Fitted {
		return nil, errors.NewNotFittedError("MedianImputer", "Transform")
	}
	out := make([]float64, len(values))
	for i, v := range values {
		if math.IsNaN(v) {
			out[i] = imp.Median
		} else {
			out[i] = v
		}
	}
	return out, nil
}

// FitTransform fits the imputer and transforms the same values.
func (imp *MedianImputer) FitTransform(values []float64) ([]float64, error) {
	if err := imp.Fit(values); err != nil {
		return nil, err
	}
	return imp.Transform(values)
}
