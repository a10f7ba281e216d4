package main

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/YuminosukeSato/churnlab/pipeline"
)

func newTrainCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "train",
		Short: "Train the candidate classifiers and persist the best one",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := pipeline.Config{
				DataPath:  viper.GetString("input"),
				ModelPath: viper.GetString("output"),
				PlotDir:   viper.GetString("plot-dir"),
				TestSize:  viper.GetFloat64("test-size"),
				Seed:      viper.GetInt64("seed"),
				Selection: viper.GetString("selection"),
			}
			_, err := pipeline.Run(cfg)
			return err
		},
	}

	cmd.Flags().StringP("input", "i", "WA_Fn-UseC_-Telco-Customer-Churn.csv", "path to the customer CSV file")
	cmd.Flags().StringP("output", "o", "churn_model.gob", "path for the persisted model bundle")
	cmd.Flags().String("plot-dir", "", "directory for diagnostic plots (empty disables plotting)")
	cmd.Flags().Float64("test-size", 0.2, "held-out fraction of the dataset")
	cmd.Flags().Int64("seed", 42, "random seed for the split and all classifiers")
	cmd.Flags().String("selection", "roc_auc", "model selection policy (roc_auc or accuracy)")

	for _, name := range []string{"input", "output", "plot-dir", "test-size", "seed", "selection"} {
		_ = viper.BindPFlag(name, cmd.Flags().Lookup(name))
	}
	return cmd
}
