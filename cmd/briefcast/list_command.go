package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

type podcastListResponse struct {
	Podcasts []struct {
		ID        string   `json:"id"`
		CreatedAt string   `json:"created_at"`
		Duration  *float64 `json:"duration"`
		Topics    []string `json:"topics"`
	} `json:"podcasts"`
	Total int `json:"total"`
}

func newListCommand(ctx *commandContext) *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List generated podcasts, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			var listing podcastListResponse
			if err := ctx.getJSON("/podcasts", &listing); err != nil {
				return err
			}
			if jsonOut {
				return writeJSON(cmd, listing)
			}

			out := cmd.OutOrStdout()
			if listing.Total == 0 {
				fmt.Fprintln(out, "No podcasts generated yet")
				return nil
			}

			rows := make([][]string, 0, len(listing.Podcasts))
			for _, podcast := range listing.Podcasts {
				duration := "-"
				if podcast.Duration != nil {
					duration = fmt.Sprintf("%.2fs", *podcast.Duration)
				}
				rows = append(rows, []string{
					podcast.ID,
					podcast.CreatedAt,
					duration,
					strings.Join(podcast.Topics, ", "),
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"ID", "Created", "Duration", "Topics"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignRight, alignLeft},
			))
			fmt.Fprintf(out, "%d podcast(s)\n", listing.Total)
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "Emit JSON output")
	return cmd
}
