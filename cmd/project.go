package cmd

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"workflow-studio/api/services/workflow"
)

var projectWrite string

var projectCmd = &cobra.Command{
	Use:   "project <file>",
	Short: "Reconcile a workflow document's saved run-form layout with its nodes",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		wf, err := readDocument(args[0])
		if err != nil {
			return err
		}

		wf.UI = workflow.Project(workflow.NewNodeStore(wf.Nodes), wf.UI, cfg.Settings().Projection)

		if projectWrite != "" {
			return writeJSON(projectWrite, wf)
		}
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(wf.UI)
	},
}

func init() {
	projectCmd.Flags().StringVarP(&projectWrite, "write", "w", "",
		"write the whole document with the new layout to this path instead of printing the layout")
}
