package perplexity

import (
	"context"
	"encoding/json"

	"briefcast/internal/services"
)

const stageScriptGeneration = "Script Generation"

// GenerateScript produces the full two-speaker briefing dialogue from the
// caller's structured input. Any failure is fatal to the job.
func (c *Client) GenerateScript(ctx context.Context, userData map[string]any) (string, error) {
	encoded, err := json.Marshal(userData)
	if err != nil {
		return "", services.Wrap(services.ErrValidation, stageScriptGeneration, "script", "encode user data", err)
	}
	payload := chatCompletionRequest{
		Model:       scriptModel,
		Messages:    []chatMessage{{Role: "user", Content: scriptSystemPrompt + "\n\nUser Data: " + string(encoded)}},
		Temperature: 0.2,
		TopP:        0.9,
	}
	return c.complete(ctx, stageScriptGeneration, "script", payload)
}
