package dataset

// ColumnKind classifies how a raw column participates in the pipeline.
type ColumnKind int

const (
	// KindIdentifier is the customer identifier. It is validated for
	// presence but excluded from the feature matrix.
	KindIdentifier ColumnKind = iota
	// KindCategorical columns are encoded (binary mapping or drop-first
	// one-hot depending on cardinality).
	KindCategorical
	// KindNumeric columns are parsed as floats directly.
	KindNumeric
	// KindMonetaryText columns hold monetary amounts stored as text; they
	// are coerced to float and unparsable values become missing.
	KindMonetaryText
	// KindLabel is the binary churn label.
	KindLabel
)

// Column describes one expected input column.
type Column struct {
	Name string
	Kind ColumnKind
}

// TelcoSchema is the fixed expected schema of the customer dataset. Loading
// fails with a SchemaError if any of these columns is absent.
var TelcoSchema = []Column{
	{Name: "customerID", Kind: KindIdentifier},
	{Name: "gender", Kind: KindCategorical},
	{Name: "SeniorCitizen", Kind: KindNumeric},
	{Name: "Partner", Kind: KindCategorical},
	{Name: "Dependents", Kind: KindCategorical},
	{Name: "tenure", Kind: KindNumeric},
	{Name: "PhoneService", Kind: KindCategorical},
	{Name: "MultipleLines", Kind: KindCategorical},
	{Name: "InternetService", Kind: KindCategorical},
	{Name: "OnlineSecurity", Kind: KindCategorical},
	{Name: "OnlineBackup", Kind: KindCategorical},
	{Name: "DeviceProtection", Kind: KindCategorical},
	{Name: "TechSupport", Kind: KindCategorical},
	{Name: "StreamingTV", Kind: KindCategorical},
	{Name: "StreamingMovies", Kind: KindCategorical},
	{Name: "Contract", Kind: KindCategorical},
	{Name: "PaperlessBilling", Kind: KindCategorical},
	{Name: "PaymentMethod", Kind: KindCategorical},
	{Name: "MonthlyCharges", Kind: KindNumeric},
	{Name: "TotalCharges", Kind: KindMonetaryText},
	{Name: "Churn", Kind: KindLabel},
}

// ScaledColumns is the fixed set of numeric columns standardised with
// training-partition statistics.
var ScaledColumns = []string{"tenure", "MonthlyCharges", "TotalCharges"}

// ColumnsOfKind returns the names of schema columns with the given kind, in
// schema order.
func ColumnsOfKind(schema []Column, kind ColumnKind) []string {
	var names []string
	for _, c := range schema {
		if c.Kind == kind {
			names = append(names, c.Name)
		}
	}
	return names
}

// IdentifierColumn returns the identifier column name of a schema.
func IdentifierColumn(schema []Column) string {
	names := ColumnsOfKind(schema, KindIdentifier)
	if len(names) == 0 {
		return ""
	}
	return names[0]
}

// LabelColumn returns the label column name of a schema.
func LabelColumn(schema []Column) string {
	names := ColumnsOfKind(schema, KindLabel)
	if len(names) == 0 {
		return ""
	}
	return names[0]
}
