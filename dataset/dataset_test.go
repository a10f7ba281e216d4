package dataset

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YuminosukeSato/churnlab/pkg/errors"
)

const sampleCSV = `customerID,gender,SeniorCitizen,Partner,Dependents,tenure,PhoneService,MultipleLines,InternetService,OnlineSecurity,OnlineBackup,DeviceProtection,TechSupport,StreamingTV,StreamingMovies,Contract,PaperlessBilling,PaymentMethod,MonthlyCharges,TotalCharges,Churn
0001-A,Female,0,Yes,No,1,No,No phone service,DSL,No,Yes,No,No,No,No,Month-to-month,Yes,Electronic check,29.85,29.85,No
0002-B,Male,0,No,No,34,Yes,No,DSL,Yes,No,Yes,No,No,No,One year,No,Mailed check,56.95,1889.5,No
0003-C,Male,1,No,No,2,Yes,No,DSL,Yes,Yes,No,No,No,No,Month-to-month,Yes,Mailed check,53.85,108.15,Yes
`

func TestFromCSV(t *testing.T) {
	table, err := FromCSV(strings.NewReader(sampleCSV), TelcoSchema)
	require.NoError(t, err)

	assert.Equal(t, 3, table.NumRows())

	churn, err := table.Column("Churn")
	require.NoError(t, err)
	assert.Equal(t, []string{"No", "No", "Yes"}, churn)

	tenure := table.MustColumn("tenure")
	assert.Equal(t, []string{"1", "34", "2"}, tenure)
}

func TestFromCSVMissingColumn(t *testing.T) {
	// Drop the TotalCharges column entirely.
	malformed := strings.ReplaceAll(sampleCSV, "MonthlyCharges,TotalCharges,Churn", "MonthlyCharges,Churn")
	malformed = strings.ReplaceAll(malformed, "29.85,29.85,No", "29.85,No")
	malformed = strings.ReplaceAll(malformed, "56.95,1889.5,No", "56.95,No")
	malformed = strings.ReplaceAll(malformed, "53.85,108.15,Yes", "53.85,Yes")

	_, err := FromCSV(strings.NewReader(malformed), TelcoSchema)
	require.Error(t, err)

	var se *errors.SchemaError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, "TotalCharges", se.Column)
}

func TestFromCSVEmpty(t *testing.T) {
	header := sampleCSV[:strings.Index(sampleCSV, "\n")+1]
	_, err := FromCSV(strings.NewReader(header), TelcoSchema)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrEmptyData))
}

func TestSchemaHelpers(t *testing.T) {
	assert.Equal(t, "customerID", IdentifierColumn(TelcoSchema))
	assert.Equal(t, "Churn", LabelColumn(TelcoSchema))

	numeric := ColumnsOfKind(TelcoSchema, KindNumeric)
	assert.Equal(t, []string{"SeniorCitizen", "tenure", "MonthlyCharges"}, numeric)

	monetary := ColumnsOfKind(TelcoSchema, KindMonetaryText)
	assert.Equal(t, []string{"TotalCharges"}, monetary)
}
