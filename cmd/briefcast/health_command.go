package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newHealthCommand(ctx *commandContext) *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "health",
		Short: "Check that the briefcast daemon is reachable",
		RunE: func(cmd *cobra.Command, args []string) error {
			var health struct {
				Status string `json:"status"`
				Time   string `json:"time"`
			}
			if err := ctx.getJSON("/health", &health); err != nil {
				return err
			}
			if jsonOut {
				return writeJSON(cmd, health)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Daemon is %s (%s)\n", health.Status, health.Time)
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "Emit JSON output")
	return cmd
}
