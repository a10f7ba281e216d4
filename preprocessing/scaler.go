// Package preprocessing turns the raw record table into train/test feature
// matrices: monetary coercion, median imputation, categorical encoding, the
// seeded split and training-set standardisation.
package preprocessing

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/churnlab/core/model"
	"github.com/YuminosukeSato/churnlab/pkg/errors"
)

// StandardScaler standardises a fixed subset of feature-matrix columns to
// zero mean and unit variance. Statistics are computed by Fit — which the
// pipeline calls with the training partition only — and applied unchanged to
// any matrix passed to Transform. Columns outside the subset pass through
// untouched.
type StandardScaler struct {
	State *model.StateManager

	// Columns holds the feature-matrix indices to standardise.
	Columns []int

	// Mean and Scale are indexed parallel to Columns.
	Mean  []float64
	Scale []float64
}

// NewStandardScaler creates a scaler over the given feature-matrix columns.
func NewStandardScaler(columns []int) *StandardScaler {
	return &StandardScaler{
		State:   model.NewStateManager(),
		Columns: columns,
	}
}

// Fit computes mean and standard deviation for each selected column of X.
func (s *StandardScaler) Fit(X mat.Matrix) error {
	r, c := X.Dims()
	if r == 0 || c == 0 {
		return errors.NewModelError("StandardScaler.Fit", "empty data", errors.ErrEmptyData)
	}
	for _, j := range s.Columns {
		if j < 0 || j >= c {
			return errors.NewDimensionError("StandardScaler.Fit", c, j, 1)
		}
	}

	s.Mean = make([]float64, len(s.Columns))
	s.Scale = make([]float64, len(s.Columns))

	for k, j := range s.Columns {
		sum := 0.0
		for i := 0; i < r; i++ {
			sum += X.At(i, j)
		}
		s.Mean[k] = sum / float64(r)

		sumSquares := 0.0
		for i := 0; i < r; i++ {
			diff := X.At(i, j) - s.Mean[k]
			sumSquares += diff * diff
		}
		s.Scale[k] = math.Sqrt(sumSquares / float64(r))

		// A near-constant column would divide by ~0; clamp to 1 so the
		// column passes through centred.
		if s.Scale[k] < 1e-8 {
			s.Scale[k] = 1.0
		}
	}

	s.State.SetDimensions(c, r)
	s.State.SetFitted()
	return nil
}

// Transform returns a copy of X with the selected columns standardised using
// the fitted statistics.
func (s *StandardScaler) Transform(X mat.Matrix) (*mat.Dense, error) {
	if err := s.State.RequireFitted("StandardScaler", "Transform"); err != nil {
		return nil, err
	}

	r, c := X.Dims()
	nFeatures, _ := s.State.GetDimensions()
	if c != nFeatures {
		return nil, errors.NewDimensionError("StandardScaler.Transform", nFeatures, c, 1)
	}

	result := mat.NewDense(r, c, nil)
	result.Copy(X)
	for k, j := range s.Columns {
		for i := 0; i < r; i++ {
			result.Set(i, j, (X.At(i, j)-s.Mean[k])/s.Scale[k])
		}
	}
	return result, nil
}

// FitTransform fits on X and transforms the same matrix.
func (s *StandardScaler) FitTransform(X mat.Matrix) (*mat.Dense, error) {
	if err := s.Fit(X); err != nil {
		return nil, err
	}
	return s.Transform(X)
}

// String returns a short description of the scaler.
func (s *StandardScaler) String() string {
	if !s.State.IsFitted() {
		return fmt.Sprintf("StandardScaler(columns=%v)", s.Columns)
	}
	return fmt.Sprintf("StandardScaler(columns=%v, mean=%v, scale=%v)", s.Columns, s.Mean, s.Scale)
}
