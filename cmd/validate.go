package cmd

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"workflow-studio/api/services/workflow"
)

var validateJSON bool

var validateCmd = &cobra.Command{
	Use:   "validate <file>",
	Short: "Check that a workflow document is a single connected DAG",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		wf, err := readDocument(args[0])
		if err != nil {
			return err
		}

		verdict := workflow.Validate(wf.Nodes, wf.Edges, cfg.Settings().Policy)
		out := cmd.OutOrStdout()
		if validateJSON {
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			if err := enc.Encode(verdict); err != nil {
				return err
			}
		} else {
			fmt.Fprintf(out, "acyclic:   %t\nconnected: %t (%d components)\n",
				verdict.Acyclic, verdict.Connected, verdict.Components)
			for _, issue := range verdict.Issues {
				fmt.Fprintf(out, "  %s %s: %s\n", issue.Code, issue.Path, issue.Message)
			}
		}

		if !verdict.Runnable() {
			return errors.New("workflow is not runnable")
		}
		return nil
	},
}

func init() {
	validateCmd.Flags().BoolVar(&validateJSON, "json", false, "print the verdict as JSON")
}
