package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newSubmitCommand(ctx *commandContext) *cobra.Command {
	var (
		preferences string
		weather     string
		interests   []string
		home        string
		work        string
		extra       string
		jsonOut     bool
	)

	cmd := &cobra.Command{
		Use:   "submit",
		Short: "Submit a new podcast generation job",
		RunE: func(cmd *cobra.Command, args []string) error {
			request := map[string]any{}
			if preferences != "" {
				request["user_preferences"] = map[string]any{"summary": preferences}
			}
			if weather != "" {
				request["weather_info"] = map[string]any{"summary": weather}
			}
			if len(interests) > 0 {
				request["interests"] = interests
			}
			if home != "" {
				request["home_location"] = home
			}
			if work != "" {
				request["work_location"] = work
			}
			if extra != "" {
				request["extra"] = map[string]any{"notes": extra}
			}

			var accepted struct {
				ID        string `json:"id"`
				Status    string `json:"status"`
				Message   string `json:"message"`
				StatusURL string `json:"status_url"`
				ResultURL string `json:"result_url"`
			}
			if err := ctx.postJSON("/generate-podcast", request, &accepted); err != nil {
				return err
			}

			if jsonOut {
				return writeJSON(cmd, accepted)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s\n", accepted.Message)
			fmt.Fprintf(out, "Job ID: %s\n", accepted.ID)
			fmt.Fprintf(out, "Check progress with `briefcast status %s`\n", accepted.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&preferences, "preferences", "", "Listener preferences to shape the briefing")
	cmd.Flags().StringVar(&weather, "weather", "", "Weather information to include")
	cmd.Flags().StringSliceVar(&interests, "interest", nil, "Interest topic (repeatable)")
	cmd.Flags().StringVar(&home, "home", "", "Home location for local news and commute")
	cmd.Flags().StringVar(&work, "work", "", "Work location for local news and commute")
	cmd.Flags().StringVar(&extra, "extra", "", "Additional free-form context")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Emit JSON output")
	return cmd
}
