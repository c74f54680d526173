package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

type jobStatusResponse struct {
	ID         string `json:"id"`
	Status     string `json:"status"`
	Progress   int    `json:"progress"`
	Stage      string `json:"stage"`
	ETASeconds *int   `json:"eta_seconds"`
	ResultURL  string `json:"result_url"`
	Error      string `json:"error"`
}

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "status <job-id>",
		Short: "Show the progress of a podcast job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var status jobStatusResponse
			if err := ctx.getJSON("/status/"+args[0], &status); err != nil {
				return err
			}
			if jsonOut {
				return writeJSON(cmd, status)
			}

			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)
			fmt.Fprintf(out, "Job %s\n", status.ID)
			fmt.Fprintf(out, "  Status:   %s\n", colorStatus(status.Status, colorize))
			fmt.Fprintf(out, "  Stage:    %s\n", status.Stage)
			fmt.Fprintf(out, "  Progress: %d%%\n", status.Progress)
			if status.ETASeconds != nil {
				fmt.Fprintf(out, "  ETA:      %ds\n", *status.ETASeconds)
			}
			if status.ResultURL != "" {
				fmt.Fprintf(out, "  Result:   %s\n", status.ResultURL)
			}
			if status.Error != "" {
				fmt.Fprintf(out, "  Error:    %s\n", status.Error)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "Emit JSON output")
	return cmd
}
