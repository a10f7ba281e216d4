package errors

import (
	"math"
	"strings"
	"testing"
)

func TestNotFittedError(t *testing.T) {
	err := NewNotFittedError("LogisticRegression", "Predict")

	var nfe *NotFittedError
	if !As(err, &nfe) {
		t.Fatalf("expected NotFittedError in chain, got %T", err)
	}
	if nfe.ModelName != "LogisticRegression" {
		t.Errorf("ModelName = %q, want LogisticRegression", nfe.ModelName)
	}
	if !strings.Contains(err.Error(), "not fitted") {
		t.Errorf("unexpected message: %s", err.Error())
	}
}

func TestDimensionError(t *testing.T) {
	err := NewDimensionError("StandardScaler.Transform", 19, 7, 1)

	var de *DimensionError
	if !As(err, &de) {
		t.Fatalf("expected DimensionError in chain, got %T", err)
	}
	if de.Expected != 19 || de.Got != 7 {
		t.Errorf("got expected=%d got=%d", de.Expected, de.Got)
	}
	if !strings.Contains(err.Error(), "features") {
		t.Errorf("axis 1 should render as features: %s", err.Error())
	}
}

func TestSchemaError(t *testing.T) {
	err := NewSchemaError("TotalCharges", "column is missing")

	var se *SchemaError
	if !As(err, &se) {
		t.Fatalf("expected SchemaError in chain, got %T", err)
	}
	if se.Column != "TotalCharges" {
		t.Errorf("Column = %q", se.Column)
	}
}

func TestPersistenceErrorCarriesPath(t *testing.T) {
	inner := New("disk full")
	err := NewPersistenceError("Bundle.Save", "artifacts/model.gob", inner)

	if !strings.Contains(err.Error(), "artifacts/model.gob") {
		t.Errorf("error must include the target path: %s", err.Error())
	}
	if !Is(err, inner) {
		t.Error("persistence error should unwrap to the cause")
	}
}

func TestWarningHandler(t *testing.T) {
	var captured error
	SetWarningHandler(func(w error) { captured = w })
	defer SetWarningHandler(func(w error) {})

	w := NewUndefinedMetricWarning("roc_auc", "only one class present in y_true", math.NaN())
	Warn(w)

	if captured == nil {
		t.Fatal("warning handler was not invoked")
	}
	if !strings.Contains(captured.Error(), "roc_auc") {
		t.Errorf("unexpected warning: %v", captured)
	}
}

func TestCheckNumericalStability(t *testing.T) {
	if err := CheckNumericalStability("gradient_update", []float64{1, 2, 3}, 0); err != nil {
		t.Errorf("finite values should pass: %v", err)
	}
	if err := CheckNumericalStability("gradient_update", []float64{1, math.NaN()}, 3); err == nil {
		t.Error("NaN should be detected")
	}
	if err := CheckScalar("loss", math.Inf(1), 1); err == nil {
		t.Error("Inf should be detected")
	}
}

func TestSafeDivide(t *testing.T) {
	if got := SafeDivide(1, 0); got != 0 {
		t.Errorf("SafeDivide(1,0) = %v, want 0", got)
	}
	if got := SafeDivide(6, 3); got != 2 {
		t.Errorf("SafeDivide(6,3) = %v, want 2", got)
	}
}
