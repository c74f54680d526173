package perplexity

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"briefcast/internal/services"
)

const stagePackaging = "Packaging"

// Narration pacing used to place questions along the script timeline. These
// drive timestamp estimates only, never measured audio duration.
const (
	wordsPerMinute      = 150
	segmentSeconds      = 20
	questionsPerSegment = 3
)

// Question is one listener prompt anchored to an estimated script timestamp.
type Question struct {
	ID        string `json:"id"`
	Timestamp string `json:"timestamp"`
	Question  string `json:"question"`
}

type promptSegment struct {
	Segment   int    `json:"segment"`
	Timestamp string `json:"timestamp"`
	Content   string `json:"content"`
}

type segmentQuestions struct {
	Segment   int      `json:"segment"`
	Timestamp string   `json:"timestamp"`
	Questions []string `json:"questions"`
}

// GenerateQuestions derives listener questions for every estimated 20-second
// segment of the script in a single model call. Failure is fatal to the job.
func (c *Client) GenerateQuestions(ctx context.Context, script string) ([]Question, error) {
	segments := splitPromptSegments(script)
	if len(segments) == 0 {
		return nil, services.Wrap(services.ErrValidation, stagePackaging, "questions", "script is empty", nil)
	}

	segmentsJSON, err := json.MarshalIndent(segments, "", "  ")
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, stagePackaging, "questions", "encode segments", err)
	}
	prompt := fmt.Sprintf(`Generate %d relevant questions for each of the %d podcast segments below.

Return ONLY a JSON array with this exact format:
[
  {"segment": 1, "timestamp": "00:00", "questions": ["question1", "question2", "question3"]},
  {"segment": 2, "timestamp": "00:20", "questions": ["question1", "question2", "question3"]}
]

Segments:
%s

Return ONLY the JSON array, no other text.`, questionsPerSegment, len(segments), segmentsJSON)

	payload := chatCompletionRequest{
		Model:       scriptModel,
		Messages:    []chatMessage{{Role: "user", Content: prompt}},
		Temperature: 0.3,
	}
	content, err := c.complete(ctx, stagePackaging, "questions", payload)
	if err != nil {
		return nil, err
	}

	var parsed []segmentQuestions
	if err := DecodeJSON(content, &parsed); err != nil {
		return nil, services.Wrap(services.ErrMalformedResponse, stagePackaging, "questions", "parse payload", err)
	}

	var questions []Question
	for _, seg := range parsed {
		for idx, text := range seg.Questions {
			if idx >= questionsPerSegment {
				break
			}
			questions = append(questions, Question{
				ID:        fmt.Sprintf("q%d_%d", seg.Segment, idx+1),
				Timestamp: seg.Timestamp,
				Question:  text,
			})
		}
	}
	if len(questions) == 0 {
		return nil, services.Wrap(services.ErrMalformedResponse, stagePackaging, "questions", "no questions in payload", nil)
	}
	return questions, nil
}

// splitPromptSegments chunks the script by the narration estimate: at 150
// words per minute a 20-second segment holds 50 words.
func splitPromptSegments(script string) []promptSegment {
	words := strings.Fields(script)
	wordsPerSegment := wordsPerMinute * segmentSeconds / 60

	var segments []promptSegment
	for idx := 0; idx < len(words); idx += wordsPerSegment {
		end := idx + wordsPerSegment
		if end > len(words) {
			end = len(words)
		}
		segIdx := len(segments)
		segments = append(segments, promptSegment{
			Segment:   segIdx + 1,
			Timestamp: FormatTimestamp(segIdx * segmentSeconds),
			Content:   truncateRunes(strings.Join(words[idx:end], " "), 300),
		})
	}
	return segments
}

// FormatTimestamp renders elapsed seconds as MM:SS.
func FormatTimestamp(seconds int) string {
	return fmt.Sprintf("%02d:%02d", seconds/60, seconds%60)
}

func truncateRunes(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}
