package main

import (
	"encoding/csv"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/YuminosukeSato/churnlab/dataset"
	"github.com/YuminosukeSato/churnlab/persist"
	"github.com/YuminosukeSato/churnlab/pkg/errors"
)

func newPredictCmd() *cobra.Command {
	var (
		modelPath string
		inputPath string
	)

	cmd := &cobra.Command{
		Use:   "predict",
		Short: "Score raw customer rows with a persisted model bundle",
		Long:  "predict loads a model bundle, applies its stored preprocessing state\nto the input rows and writes per-customer churn probabilities as CSV.",
		RunE: func(cmd *cobra.Command, args []string) error {
			bundle, err := persist.Load(modelPath)
			if err != nil {
				return err
			}

			// Scoring input carries no label column.
			schema := inferenceSchema(bundle.Preprocessor.Schema)
			file, err := os.Open(inputPath)
			if err != nil {
				return errors.Wrapf(err, "failed to open input %s", inputPath)
			}
			defer file.Close()

			table, err := dataset.FromCSV(file, schema)
			if err != nil {
				return err
			}

			scores, err := bundle.PredictProba(table)
			if err != nil {
				return err
			}

			idColumn := dataset.IdentifierColumn(schema)
			ids := table.MustColumn(idColumn)

			w := csv.NewWriter(cmd.OutOrStdout())
			if err := w.Write([]string{idColumn, "churn_probability", "churn"}); err != nil {
				return errors.Wrap(err, "writing predictions")
			}
			for i := 0; i < scores.Len(); i++ {
				label := "No"
				if scores.AtVec(i) >= 0.5 {
					label = "Yes"
				}
				record := []string{ids[i], strconv.FormatFloat(scores.AtVec(i), 'f', 6, 64), label}
				if err := w.Write(record); err != nil {
					return errors.Wrap(err, "writing predictions")
				}
			}
			w.Flush()
			return errors.Wrap(w.Error(), "writing predictions")
		},
	}

	cmd.Flags().StringVarP(&modelPath, "model", "m", "churn_model.gob", "path to the persisted model bundle")
	cmd.Flags().StringVarP(&inputPath, "input", "i", "", "path to the customer CSV file to score")
	_ = cmd.MarkFlagRequired("input")
	return cmd
}

// inferenceSchema drops the label column so unlabeled scoring input
// passes schema validation.
func inferenceSchema(schema []dataset.Column) []dataset.Column {
	out := make([]dataset.Column, 0, len(schema))
	for _, col := range schema {
		if col.Kind == dataset.KindLabel {
			continue
		}
		out = append(out, col)
	}
	return out
}
