// Command churnlab trains and applies the customer churn model.
package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	chlog "github.com/YuminosukeSato/churnlab/pkg/log"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "churnlab",
		Short:         "Customer churn prediction pipeline",
		Long:          "churnlab trains churn classifiers on the telco customer dataset,\ncompares them on a held-out partition and persists the winner.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			chlog.SetupLogger(viper.GetString("log-level"))
		},
	}

	root.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")

	viper.SetEnvPrefix("CHURNLAB")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
	_ = viper.BindPFlag("log-level", root.PersistentFlags().Lookup("log-level"))

	root.AddCommand(newTrainCmd())
	root.AddCommand(newPredictCmd())
	return root
}
