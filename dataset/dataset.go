// Package dataset loads the delimited customer file into an in-memory record
// table and validates it against the fixed expected schema before anything
// downstream runs.
package dataset

import (
	"io"
	"log/slog"
	"os"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"

	"github.com/YuminosukeSato/churnlab/pkg/errors"
	chlog "github.com/YuminosukeSato/churnlab/pkg/log"
)

// Table is the raw record table: one row per customer, columns as read from
// the file. All values are kept as strings; type coercion is the
// preprocessor's job so that unparsable monetary values can flow into
// imputation instead of failing the load.
type Table struct {
	df     dataframe.DataFrame
	schema []Column
}

// Load reads a CSV file from path and validates it against TelcoSchema.
func Load(path string) (*Table, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open dataset %s", path)
	}
	defer file.Close()

	t, err := FromCSV(file, TelcoSchema)
	if err != nil {
		return nil, err
	}

	slog.Info("dataset loaded",
		chlog.ComponentKey, "dataset",
		chlog.PathKey, path,
		chlog.SamplesKey, t.NumRows(),
	)
	return t, nil
}

// FromCSV reads a record table from r and validates it against schema.
// Every column is read as a string series; no type detection happens here.
func FromCSV(r io.Reader, schema []Column) (*Table, error) {
	df := dataframe.ReadCSV(r,
		dataframe.HasHeader(true),
		dataframe.DetectTypes(false),
		dataframe.DefaultType(series.String),
	)
	if df.Err != nil {
		return nil, errors.Wrap(df.Err, "failed to parse CSV")
	}

	t := &Table{df: df, schema: schema}
	if err := t.validate(); err != nil {
		return nil, err
	}
	return t, nil
}

// validate checks that every expected column is present. Missing columns are
// fatal input errors; nothing downstream is reachable without them.
func (t *Table) validate() error {
	if t.df.Nrow() == 0 {
		return errors.Wrap(errors.ErrEmptyData, "dataset has no rows")
	}

	present := make(map[string]bool, t.df.Ncol())
	for _, name := range t.df.Names() {
		present[name] = true
	}
	for _, col := range t.schema {
		if !present[col.Name] {
			return errors.NewSchemaError(col.Name, "column is missing from input file")
		}
	}
	return nil
}

// NumRows returns the number of records.
func (t *Table) NumRows() int {
	return t.df.Nrow()
}

// Schema returns the validated schema of the table.
func (t *Table) Schema() []Column {
	return t.schema
}

// Column returns the raw string values of a column in row order.
func (t *Table) Column(name string) ([]string, error) {
	s := t.df.Col(name)
	if s.Err != nil {
		return nil, errors.NewSchemaError(name, "column is missing from input file")
	}
	return s.Records(), nil
}

// MustColumn is Column for schema-validated names; it panics on a name that
// validation has already guaranteed to exist.
func (t *Table) MustColumn(name string) []string {
	records, err := t.Column(name)
	if err != nil {
		panic(err)
	}
	return records
}
