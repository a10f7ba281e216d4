package preprocessing

import (
	"fmt"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/churnlab/dataset"
)

// compactSchema mirrors the telco layout at a size tests can reason about.
// "tenure" is named so it falls under the fixed scaled-column set.
var compactSchema = []dataset.Column{
	{Name: "customerID", Kind: dataset.KindIdentifier},
	{Name: "Partner", Kind: dataset.KindCategorical},
	{Name: "Contract", Kind: dataset.KindCategorical},
	{Name: "tenure", Kind: dataset.KindNumeric},
	{Name: "TotalCharges", Kind: dataset.KindMonetaryText},
	{Name: "Churn", Kind: dataset.KindLabel},
}

func compactTable(t *testing.T, rows int) *dataset.Table {
	t.Helper()

	contracts := []string{"Month-to-month", "One year", "Two year"}
	partners := []string{"Yes", "No"}

	var b strings.Builder
	b.WriteString("customerID,Partner,Contract,tenure,TotalCharges,Churn\n")
	for i := 0; i < rows; i++ {
		charges := fmt.Sprintf("%.2f", 50.0+float64(i))
		if i%10 == 3 {
			charges = "" // sprinkle missing monetary values
		}
		label := "No"
		if i%3 == 0 {
			label = "Yes"
		}
		fmt.Fprintf(&b, "c%04d,%s,%s,%d,%s,%s\n",
			i, partners[i%2], contracts[i%3], i%72, charges, label)
	}

	table, err := dataset.FromCSV(strings.NewReader(b.String()), compactSchema)
	require.NoError(t, err)
	return table
}

func TestFitSplitShapes(t *testing.T) {
	table := compactTable(t, 100)

	p := NewPreprocessor(compactSchema, 0.2, 42)
	split, err := p.FitSplit(table)
	require.NoError(t, err)

	// Partner (binary) 1 + Contract (3 cats, drop-first) 2 + tenure 1 +
	// TotalCharges 1 = 5 feature columns.
	assert.Equal(t, []string{"Partner", "Contract_One year", "Contract_Two year", "tenure", "TotalCharges"},
		split.FeatureNames)

	trainRows, cols := split.XTrain.Dims()
	testRows, _ := split.XTest.Dims()
	assert.Equal(t, 80, trainRows)
	assert.Equal(t, 20, testRows)
	assert.Equal(t, 5, cols)
	assert.Equal(t, trainRows, split.YTrain.Len())
	assert.Equal(t, testRows, split.YTest.Len())
}

func TestFitSplitReproducible(t *testing.T) {
	table := compactTable(t, 100)

	a, err := NewPreprocessor(compactSchema, 0.2, 42).FitSplit(table)
	require.NoError(t, err)
	b, err := NewPreprocessor(compactSchema, 0.2, 42).FitSplit(table)
	require.NoError(t, err)

	assert.Equal(t, a.TrainIndex, b.TrainIndex)
	assert.Equal(t, a.TestIndex, b.TestIndex)
	assert.True(t, mat.Equal(a.XTrain, b.XTrain))
	assert.True(t, mat.Equal(a.XTest, b.XTest))

	c, err := NewPreprocessor(compactSchema, 0.2, 7).FitSplit(table)
	require.NoError(t, err)
	assert.NotEqual(t, a.TrainIndex, c.TrainIndex)
}

func TestScalingFitOnTrainOnly(t *testing.T) {
	table := compactTable(t, 200)

	p := NewPreprocessor(compactSchema, 0.2, 1)
	split, err := p.FitSplit(table)
	require.NoError(t, err)

	// Training-partition scaled columns must have ~zero mean and ~unit
	// variance; the test partition generally will not, since it was scaled
	// with train statistics.
	for _, name := range []string{"tenure", "TotalCharges"} {
		j := indexOf(t, split.FeatureNames, name)
		col := mat.Col(nil, j, split.XTrain)
		mean, std := meanStd(col)
		assert.InDelta(t, 0, mean, 1e-9, "train mean of %s", name)
		assert.InDelta(t, 1, std, 1e-9, "train std of %s", name)
	}
}

func TestImputationUsesFullDatasetMedian(t *testing.T) {
	table := compactTable(t, 100)

	p := NewPreprocessor(compactSchema, 0.2, 42)
	_, err := p.FitSplit(table)
	require.NoError(t, err)

	imp := p.Imputers["TotalCharges"]
	require.NotNil(t, imp)
	assert.Greater(t, imp.NMissing, 0)

	// The median is fitted on all rows, before the split.
	all := CoerceMonetary(table.MustColumn("TotalCharges"))
	var finite []float64
	for _, v := range all {
		if !math.IsNaN(v) {
			finite = append(finite, v)
		}
	}
	check := NewMedianImputer("check")
	require.NoError(t, check.Fit(all))
	assert.Equal(t, check.Median, imp.Median)
}

func TestTransformMatchesTrainingEncoding(t *testing.T) {
	table := compactTable(t, 100)

	p := NewPreprocessor(compactSchema, 0.2, 42)
	split, err := p.FitSplit(table)
	require.NoError(t, err)

	// Re-transforming the same table must reproduce the training encoding
	// row for row.
	X, err := p.Transform(table)
	require.NoError(t, err)

	for i, idx := range split.TrainIndex {
		assert.Equal(t, mat.Row(nil, idx, X), mat.Row(nil, i, split.XTrain), "train row %d", i)
	}
	for i, idx := range split.TestIndex {
		assert.Equal(t, mat.Row(nil, idx, X), mat.Row(nil, i, split.XTest), "test row %d", i)
	}
}

func TestTrainTestIndicesValidation(t *testing.T) {
	_, _, err := TrainTestIndices(0, 0.2, 1)
	assert.Error(t, err)

	_, _, err = TrainTestIndices(10, 0, 1)
	assert.Error(t, err)

	_, _, err = TrainTestIndices(10, 1.0, 1)
	assert.Error(t, err)

	train, test, err := TrainTestIndices(10, 0.2, 1)
	require.NoError(t, err)
	assert.Len(t, train, 8)
	assert.Len(t, test, 2)
}

func TestStratifiedTrainTestIndices(t *testing.T) {
	// 30 positives, 70 negatives.
	y := mat.NewVecDense(100, nil)
	for i := 0; i < 30; i++ {
		y.SetVec(i, 1)
	}

	train, test, err := StratifiedTrainTestIndices(y, 0.2, 7)
	require.NoError(t, err)
	assert.Len(t, train, 80)
	assert.Len(t, test, 20)

	countPositives := func(indices []int) int {
		c := 0
		for _, i := range indices {
			if y.AtVec(i) == 1 {
				c++
			}
		}
		return c
	}
	// Class balance is preserved exactly for divisible counts.
	assert.Equal(t, 24, countPositives(train))
	assert.Equal(t, 6, countPositives(test))

	seen := make(map[int]bool)
	for _, i := range append(append([]int{}, train...), test...) {
		assert.False(t, seen[i], "index %d assigned twice", i)
		seen[i] = true
	}
}

func indexOf(t *testing.T, names []string, name string) int {
	t.Helper()
	for i, n := range names {
		if n == name {
			return i
		}
	}
	t.Fatalf("feature %q not found in %v", name, names)
	return -1
}

func meanStd(values []float64) (mean, std float64) {
	for _, v := range values {
		mean += v
	}
	mean /= float64(len(values))
	for _, v := range values {
		std += (v - mean) * (v - mean)
	}
	std = math.Sqrt(std / float64(len(values)))
	return mean, std
}
