package perplexity

import (
	"context"
	"fmt"
)

// GenerateAnswer answers a listener question against the podcast script. The
// script is passed as context so the model grounds its answer in what was
// actually said.
func (c *Client) GenerateAnswer(ctx context.Context, question, scriptContext string) (string, error) {
	prompt := fmt.Sprintf(`Based on the podcast content provided below, answer this question: %s

Podcast Content:
%s

Provide a detailed answer based primarily on the podcast content. If the podcast doesn't fully address the question, you may supplement with relevant general knowledge, but clearly indicate what comes from the podcast versus additional information.`, question, scriptContext)

	payload := chatCompletionRequest{
		Model:       scriptModel,
		Messages:    []chatMessage{{Role: "user", Content: prompt}},
		Temperature: 0.3,
	}
	return c.complete(ctx, "Answer", "answer", payload)
}
