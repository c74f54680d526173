package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newAnswerCommand(ctx *commandContext) *cobra.Command {
	var timestamp string
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "answer <podcast-id> <question...>",
		Short: "Ask a question about a generated podcast",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			payload := map[string]string{
				"podcast_id": args[0],
				"timestamp":  timestamp,
				"question":   strings.Join(args[1:], " "),
			}

			var result struct {
				Status      string `json:"status"`
				Answer      string `json:"answer"`
				AnswersFile string `json:"answers_file"`
			}
			if err := ctx.postJSON("/answer-question", payload, &result); err != nil {
				return err
			}
			if jsonOut {
				return writeJSON(cmd, result)
			}
			fmt.Fprintln(cmd.OutOrStdout(), result.Answer)
			return nil
		},
	}

	cmd.Flags().StringVar(&timestamp, "timestamp", "00:00", "Playback position the question refers to (MM:SS)")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Emit JSON output")
	return cmd
}
