package pipeline

import (
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/churnlab/persist"
)

// writeTelcoCSV generates a synthetic customer file with the full
// expected column set. Churn correlates with month-to-month contracts
// and short tenure, and a few TotalCharges cells are blank like in the
// real export.
func writeTelcoCSV(t *testing.T, n int) string {
	t.Helper()
	rng := rand.New(rand.NewSource(99))

	pick := func(options ...string) string { return options[rng.Intn(len(options))] }
	yesNo := func() string { return pick("Yes", "No") }

	var sb strings.Builder
	sb.WriteString("customerID,gender,SeniorCitizen,Partner,Dependents,tenure," +
		"PhoneService,MultipleLines,InternetService,OnlineSecurity,OnlineBackup," +
		"DeviceProtection,TechSupport,StreamingTV,StreamingMovies,Contract," +
		"PaperlessBilling,PaymentMethod,MonthlyCharges,TotalCharges,Churn\n")

	for i := 0; i < n; i++ {
		contract := pick("Month-to-month", "One year", "Two year")
		tenure := rng.Intn(72)
		monthly := 20.0 + rng.Float64()*95

		total := fmt.Sprintf("%.2f", monthly*float64(tenure))
		if tenure == 0 {
			total = " "
		}

		churn := "No"
		if contract == "Month-to-month" && tenure < 18 && rng.Float64() < 0.8 {
			churn = "Yes"
		}

		fmt.Fprintf(&sb, "%04d-TEST,%s,%d,%s,%s,%d,%s,%s,%s,%s,%s,%s,%s,%s,%s,%s,%s,%s,%.2f,%s,%s\n",
			i,
			pick("Male", "Female"),
			rng.Intn(2),
			yesNo(),
			yesNo(),
			tenure,
			yesNo(),
			pick("Yes", "No", "No phone service"),
			pick("DSL", "Fiber optic", "No"),
			yesNo(),
			yesNo(),
			yesNo(),
			yesNo(),
			yesNo(),
			yesNo(),
			contract,
			yesNo(),
			pick("Electronic check", "Mailed check", "Bank transfer (automatic)", "Credit card (automatic)"),
			monthly,
			total,
			churn,
		)
	}

	path := filepath.Join(t.TempDir(), "telco.csv")
	require.NoError(t, os.WriteFile(path, []byte(sb.String()), 0o644))
	return path
}

func runConfig(t *testing.T, dataPath string) Config {
	t.Helper()
	return Config{
		DataPath:  dataPath,
		ModelPath: filepath.Join(t.TempDir(), "model.gob"),
		TestSize:  0.2,
		Seed:      42,
	}
}

func TestRunEndToEnd(t *testing.T) {
	if testing.Short() {
		t.Skip("end to end run is slow")
	}
	dataPath := writeTelcoCSV(t, 300)
	cfg := runConfig(t, dataPath)

	result, err := Run(cfg)
	require.NoError(t, err)

	require.Len(t, result.Reports, 3)
	require.NotNil(t, result.Selected)
	assert.NotEmpty(t, result.RunID)

	// The synthetic data has learnable structure; every model must beat
	// a coin flip and the winner must clear the majority baseline.
	for _, r := range result.Reports {
		assert.Greater(t, r.Accuracy, 0.5, r.Model)
	}
	assert.Greater(t, result.Selected.Accuracy, 0.7)

	// The persisted bundle reloads and scores raw rows.
	loaded, err := persist.Load(cfg.ModelPath)
	require.NoError(t, err)
	assert.Equal(t, result.Selected.Model, loaded.Model.Name())
}

func TestRunReproducible(t *testing.T) {
	if testing.Short() {
		t.Skip("end to end run is slow")
	}
	dataPath := writeTelcoCSV(t, 200)

	a, err := Run(runConfig(t, dataPath))
	require.NoError(t, err)
	b, err := Run(runConfig(t, dataPath))
	require.NoError(t, err)

	require.Equal(t, a.Selected.Model, b.Selected.Model)
	assert.Equal(t, a.Selected.Accuracy, b.Selected.Accuracy)
	assert.Equal(t, a.Selected.AUC, b.Selected.AUC)
}

// TestCandidatesBeatMajorityBaseline trains the full roster on a
// 100-row dataset with a 30% churn rate and two informative features.
// Every classifier must beat the 70% majority-class baseline.
func TestCandidatesBeatMajorityBaseline(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	n := 100
	X := mat.NewDense(n, 2, nil)
	y := mat.NewVecDense(n, nil)
	for i := 0; i < n; i++ {
		label := 0.0
		if i < 30 {
			label = 1
		}
		shift := -1.5
		if label == 1 {
			shift = 1.5
		}
		X.Set(i, 0, shift+rng.NormFloat64()*0.6)
		X.Set(i, 1, shift+rng.NormFloat64()*0.6)
		y.SetVec(i, label)
	}

	for _, clf := range candidates(42) {
		require.NoError(t, clf.Fit(X, y), clf.Name())

		predictions, err := clf.Predict(X)
		require.NoError(t, err, clf.Name())
		correct := 0
		for i := 0; i < n; i++ {
			if predictions.At(i, 0) == y.AtVec(i) {
				correct++
			}
		}
		accuracy := float64(correct) / float64(n)
		assert.Greater(t, accuracy, 0.7, "%s must beat the majority baseline", clf.Name())
	}
}

func TestRunMissingFile(t *testing.T) {
	cfg := runConfig(t, filepath.Join(t.TempDir(), "absent.csv"))
	_, err := Run(cfg)
	assert.Error(t, err)
}

func TestRunBadSelectionPolicy(t *testing.T) {
	cfg := runConfig(t, "unused.csv")
	cfg.Selection = "nonsense"
	_, err := Run(cfg)
	assert.Error(t, err)
}

func TestConfigNormalize(t *testing.T) {
	var cfg Config
	cfg.Normalize()
	assert.Equal(t, 0.2, cfg.TestSize)
	assert.Equal(t, "churn_model.gob", cfg.ModelPath)
}
