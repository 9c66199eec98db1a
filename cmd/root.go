// Package cmd holds the command-line entry points: the HTTP service and offline graph tools.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"workflow-studio/api/pkg/config"
)

var (
	cfgFile string
	cfg     config.Config
)

var rootCmd = &cobra.Command{
	Use:   "workflow-api",
	Short: "Workflow graph model service",
	Long: `Serves workflow documents to the visual editor, validates that a workflow graph is a
single connected DAG before it runs, and keeps the saved run-form layout in step with the graph.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load(viper.GetViper(), cfgFile)
		if err != nil {
			return err
		}
		cfg = loaded
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "",
		"config file (YAML)")
	rootCmd.PersistentFlags().StringSlice("structural-categories", nil,
		"node categories excluded from graph validation")

	_ = viper.BindPFlag("graph.structural_categories", rootCmd.PersistentFlags().Lookup("structural-categories"))

	rootCmd.AddCommand(serveCmd, validateCmd, projectCmd)
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
