package pipeline

import (
	"math"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"briefcast/internal/services/perplexity"
)

// Chapter marks an estimated position in the narration with a short preview.
type Chapter struct {
	Timestamp string `json:"timestamp"`
	Title     string `json:"title"`
	Preview   string `json:"preview"`
}

// Metadata is the packaging artifact describing a finished podcast.
type Metadata struct {
	ID             string    `json:"id"`
	CreatedAt      string    `json:"created_at"`
	Duration       float64   `json:"duration"`
	Topics         []string  `json:"topics"`
	Chapters       []Chapter `json:"chapters"`
	Sections       []string  `json:"sections"`
	Voices         []string  `json:"voices"`
	AudioFormat    string    `json:"audio_format"`
	QuestionsCount int       `json:"questions_count"`
	WordCount      int       `json:"word_count"`
}

// briefingSections mirrors the content sections the script prompt demands.
var briefingSections = []string{"Weather", "Air Quality", "Commute", "Calendar", "News", "Lifestyle", "Recap"}

// Chapter pacing mirrors the question-generation estimate: 150 wpm narration
// in 20-second steps. Duration in Metadata is measured from the audio headers
// and is deliberately independent of this estimate.
const (
	chapterWordsPerMinute = 150
	chapterSeconds        = 20
	previewWords          = 50
	previewRuneLimit      = 100
)

var titleCaser = cases.Title(language.English)

func buildMetadata(id, script string, interests []string, questionsCount int, duration float64, voices []string) Metadata {
	words := strings.Fields(script)
	return Metadata{
		ID:             id,
		CreatedAt:      nowUTC().Format("2006-01-02T15:04:05.000000"),
		Duration:       math.Round(duration*100) / 100,
		Topics:         extractTopics(script, interests),
		Chapters:       buildChapters(words),
		Sections:       briefingSections,
		Voices:         voices,
		AudioFormat:    "wav",
		QuestionsCount: questionsCount,
		WordCount:      len(words),
	}
}

// extractTopics derives display topics from a small keyword vocabulary plus
// up to three caller interests. Duplicates are tolerated.
func extractTopics(script string, interests []string) []string {
	lower := strings.ToLower(script)
	topics := []string{}
	if strings.Contains(lower, "news") {
		topics = append(topics, "News")
	}
	if strings.Contains(lower, "weather") {
		topics = append(topics, "Weather")
	}
	if strings.Contains(lower, "commute") || strings.Contains(lower, "traffic") {
		topics = append(topics, "Commute")
	}
	for i, interest := range interests {
		if i >= 3 {
			break
		}
		topics = append(topics, titleCaser.String(interest))
	}
	return topics
}

// buildChapters places a marker at every estimated 20-second boundary with
// the first words of that stretch as a preview.
func buildChapters(words []string) []Chapter {
	wordsPerChapter := chapterWordsPerMinute * chapterSeconds / 60

	var chapters []Chapter
	for i := 0; i < len(words); i += wordsPerChapter {
		index := i / wordsPerChapter
		end := i + previewWords
		if end > len(words) {
			end = len(words)
		}
		preview := strings.Join(words[i:end], " ")
		runes := []rune(preview)
		if len(runes) > previewRuneLimit {
			preview = string(runes[:previewRuneLimit])
		}
		chapters = append(chapters, Chapter{
			Timestamp: perplexity.FormatTimestamp(index * chapterSeconds),
			Title:     "Segment " + strconv.Itoa(index+1),
			Preview:   preview + "...",
		})
	}
	return chapters
}
