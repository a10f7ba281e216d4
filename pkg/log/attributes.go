// Standard attribute keys for pipeline logging. Keys are hierarchical
// ("model.name", "data.samples") so that structured log consumers can filter
// on them.
package log

// Model and operation context.
const (
	// ModelNameKey identifies the classifier type.
	// Examples: "LogisticRegression", "RandomForest", "GradientBoosting"
	ModelNameKey = "model.name"

	// OperationKey specifies the operation being performed.
	// Standard values: "fit", "predict", "transform", "evaluate", "persist"
	OperationKey = "ml.operation"

	// ComponentKey identifies the package performing the operation.
	// Examples: "dataset", "preprocessing", "evaluation", "persist"
	ComponentKey = "ml.component"

	// RunIDKey carries the unique identifier of a pipeline run.
	RunIDKey = "run.id"
)

// Data shape and characteristics.
const (
	// SamplesKey is the number of rows being processed.
	SamplesKey = "data.samples"

	// FeaturesKey is the number of feature columns after encoding.
	FeaturesKey = "data.features"

	// TrainSamplesKey and TestSamplesKey describe the partition sizes.
	TrainSamplesKey = "data.train_samples"
	TestSamplesKey  = "data.test_samples"

	// ImputedKey is the number of values replaced during imputation.
	ImputedKey = "data.imputed"

	// PathKey is a file path being read or written.
	PathKey = "data.path"
)

// Performance and evaluation metrics.
const (
	// DurationMsKey records execution time of an operation in milliseconds.
	DurationMsKey = "perf.duration_ms"

	// AccuracyKey records classification accuracy on the test partition.
	AccuracyKey = "metrics.accuracy"

	// ROCAUCKey records the area under the ROC curve.
	ROCAUCKey = "metrics.roc_auc"

	// F1Key records the F1 score at the default threshold.
	F1Key = "metrics.f1"

	// IterationKey records the iteration count of an iterative fit.
	IterationKey = "training.iteration"
)
