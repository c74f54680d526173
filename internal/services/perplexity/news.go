package perplexity

import (
	"context"
	"fmt"
	"strings"

	"briefcast/internal/logging"
	"briefcast/internal/services"
)

// News section keys in the map returned by FetchNews.
const (
	SectionInterests    = "interests"
	SectionHomeLocation = "home_location"
	SectionWorkLocation = "work_location"
)

// Marker strings stored when a single news section cannot be fetched.
const (
	InterestsUnavailable    = "Interest news unavailable."
	HomeLocationUnavailable = "Home location news unavailable."
	WorkLocationUnavailable = "Work location news unavailable."
)

const stageNewsFetch = "News Fetch"

// FetchNews gathers a concise news summary per requested section. A failed
// section never fails the call; its value becomes the section's unavailable
// marker. Sections without input are omitted entirely. Only context
// cancellation fails the whole call.
func (c *Client) FetchNews(ctx context.Context, interests []string, homeLocation, workLocation string) (map[string]string, error) {
	news := make(map[string]string)

	if len(interests) > 0 {
		prompt := fmt.Sprintf("Provide latest news summary about: %s. Keep it concise and factual.", strings.Join(interests, ", "))
		news[SectionInterests] = c.fetchSection(ctx, SectionInterests, prompt, InterestsUnavailable)
	}
	if strings.TrimSpace(homeLocation) != "" {
		prompt := fmt.Sprintf("Provide latest local news and updates for %s. Keep it concise and factual.", homeLocation)
		news[SectionHomeLocation] = c.fetchSection(ctx, SectionHomeLocation, prompt, HomeLocationUnavailable)
	}
	if strings.TrimSpace(workLocation) != "" {
		prompt := fmt.Sprintf("Provide latest local news and updates for %s. Keep it concise and factual.", workLocation)
		news[SectionWorkLocation] = c.fetchSection(ctx, SectionWorkLocation, prompt, WorkLocationUnavailable)
	}

	if err := ctx.Err(); err != nil {
		return nil, services.Wrap(services.ErrUpstream, stageNewsFetch, "news", "canceled", err)
	}
	return news, nil
}

func (c *Client) fetchSection(ctx context.Context, section, prompt, marker string) string {
	payload := chatCompletionRequest{
		Model:       newsModel,
		Messages:    []chatMessage{{Role: "user", Content: prompt}},
		Temperature: 0.2,
	}
	content, err := c.complete(ctx, stageNewsFetch, "news "+section, payload)
	if err != nil {
		c.logger.WarnContext(ctx, "news section failed",
			logging.String("section", section),
			logging.Error(err))
		return marker
	}
	return content
}
