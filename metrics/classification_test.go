package metrics

import (
	"testing"

	"gonum.org/v1/gonum/mat"
)

func vec(values ...float64) *mat.VecDense {
	return mat.NewVecDense(len(values), values)
}

func TestAccuracy(t *testing.T) {
	tests := []struct {
		name    string
		yTrue   *mat.VecDense
		yPred   *mat.VecDense
		want    float64
		wantErr bool
	}{
		{
			name:  "all correct",
			yTrue: vec(0, 1, 1, 0),
			yPred: vec(0, 1, 1, 0),
			want:  1.0,
		},
		{
			name:  "all wrong",
			yTrue: vec(0, 1, 1, 0),
			yPred: vec(1, 0, 0, 1),
			want:  0.0,
		},
		{
			name:  "three of four",
			yTrue: vec(0, 1, 1, 0),
			yPred: vec(0, 1, 0, 0),
			want:  0.75,
		},
		{
			name:    "length mismatch",
			yTrue:   vec(0, 1),
			yPred:   vec(0),
			wantErr: true,
		},
		{
			name:    "non-binary truth",
			yTrue:   vec(0, 2),
			yPred:   vec(0, 1),
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Accuracy(tt.yTrue, tt.yPred)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("Accuracy() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestConfusionMatrix(t *testing.T) {
	yTrue := vec(1, 1, 0, 0, 1, 0)
	yPred := vec(1, 0, 0, 1, 1, 0)

	c, err := NewConfusionMatrix(yTrue, yPred)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if c.TP != 2 || c.FN != 1 || c.FP != 1 || c.TN != 2 {
		t.Errorf("got TP=%d FN=%d FP=%d TN=%d", c.TP, c.FN, c.FP, c.TN)
	}

	// The cell sum always equals the partition size.
	if c.Total() != yTrue.Len() {
		t.Errorf("Total() = %d, want %d", c.Total(), yTrue.Len())
	}

	cells := c.Cells()
	if cells[0][0] != c.TN || cells[0][1] != c.FP || cells[1][0] != c.FN || cells[1][1] != c.TP {
		t.Errorf("Cells() layout mismatch: %v", cells)
	}
}

func TestPrecisionRecallF1(t *testing.T) {
	yTrue := vec(1, 1, 0, 0, 1, 0)
	yPred := vec(1, 0, 0, 1, 1, 0)

	p, err := Precision(yTrue, yPred)
	if err != nil {
		t.Fatalf("Precision: %v", err)
	}
	if p != 2.0/3.0 {
		t.Errorf("Precision = %v, want 2/3", p)
	}

	r, err := Recall(yTrue, yPred)
	if err != nil {
		t.Fatalf("Recall: %v", err)
	}
	if r != 2.0/3.0 {
		t.Errorf("Recall = %v, want 2/3", r)
	}

	f1, err := F1(yTrue, yPred)
	if err != nil {
		t.Fatalf("F1: %v", err)
	}
	if f1 != 2.0/3.0 {
		t.Errorf("F1 = %v, want 2/3", f1)
	}
}

func TestPrecisionNoPositivePredictions(t *testing.T) {
	var warned error
	defer resetWarnings()
	captureWarnings(&warned)

	p, err := Precision(vec(1, 0, 1), vec(0, 0, 0))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p != 0 {
		t.Errorf("Precision = %v, want 0", p)
	}
	if warned == nil {
		t.Error("expected an undefined-metric warning")
	}
}

func TestRecallNoPositiveTruth(t *testing.T) {
	var warned error
	defer resetWarnings()
	captureWarnings(&warned)

	r, err := Recall(vec(0, 0, 0), vec(1, 0, 1))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r != 0 {
		t.Errorf("Recall = %v, want 0", r)
	}
	if warned == nil {
		t.Error("expected an undefined-metric warning")
	}
}

func TestThreshold(t *testing.T) {
	scores := vec(0.1, 0.5, 0.49, 0.9)
	labels := Threshold(scores, 0.5)

	want := []float64{0, 1, 0, 1}
	for i, w := range want {
		if labels.AtVec(i) != w {
			t.Errorf("label[%d] = %v, want %v", i, labels.AtVec(i), w)
		}
	}
}
