package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"briefcast/internal/jobs"
	"briefcast/internal/logging"
	"briefcast/internal/services"
	"briefcast/internal/wav"
)

// QuotaPlaceholder replaces the audio list when synthesis hits a quota limit.
// The job still completes; clients see the marker instead of file URLs.
const QuotaPlaceholder = "Audio generation unavailable - quota exceeded"

// newsErrorMarker is stored when the whole news fetch fails rather than a
// single section.
const newsErrorMarker = "News unavailable at this time."

func (m *Manager) process(ctx context.Context, t task) {
	id := t.jobID
	ctx = services.WithJobID(ctx, id)
	logger := logging.WithContext(ctx, m.logger)
	logger.InfoContext(ctx, "job processing started")

	if err := m.runStages(ctx, t); err != nil {
		logger.ErrorContext(ctx, "job failed", logging.Error(err))
		message := err.Error()
		if _, updateErr := m.store.Update(ctx, id, jobs.Patch{
			Status:       statusPtr(jobs.StatusFailed),
			ErrorMessage: &message,
		}); updateErr != nil {
			logger.ErrorContext(ctx, "failed to record job failure", logging.Error(updateErr))
		}
		return
	}
	logger.InfoContext(ctx, "job processing completed")
}

func (m *Manager) runStages(ctx context.Context, t task) error {
	id := t.jobID
	req := t.request
	dir := m.jobDir(id)

	// News Fetch: never fatal. A section failure leaves its marker; a
	// whole-call failure degrades to a single error marker.
	if err := m.advance(ctx, id, jobs.StageNewsFetch, 20, 90, true); err != nil {
		return err
	}
	news := map[string]string{}
	if len(req.Interests) > 0 || req.HomeLocation != "" || req.WorkLocation != "" {
		fetched, err := m.collab.News.FetchNews(ctx, req.Interests, req.HomeLocation, req.WorkLocation)
		if err != nil {
			logging.WithContext(ctx, m.logger).WarnContext(ctx, "news fetch failed", logging.Error(err))
			news = map[string]string{"error": newsErrorMarker}
		} else {
			news = fetched
		}
	}
	if err := writeJSON(filepath.Join(dir, id+"_news.json"), news); err != nil {
		return err
	}

	// Script Generation: fatal on any failure.
	if err := m.advance(ctx, id, jobs.StageScriptGeneration, 40, 60, false); err != nil {
		return err
	}
	userData := map[string]any{
		"user_preferences": req.UserPreferences,
		"weather_info":     req.WeatherInfo,
		"home_location":    req.HomeLocation,
		"work_location":    req.WorkLocation,
		"news":             news,
		"extra":            req.Extra,
	}
	script, err := m.collab.Scripts.GenerateScript(ctx, userData)
	if err != nil {
		return err
	}
	if err := os.WriteFile(filepath.Join(dir, id+"_script.txt"), []byte(script), 0o644); err != nil {
		return fmt.Errorf("write script: %w", err)
	}

	// TTS Generation: quota exhaustion degrades to a placeholder, anything
	// else is fatal.
	if err := m.advance(ctx, id, jobs.StageTTSGeneration, 60, 45, false); err != nil {
		return err
	}
	audioFiles, err := m.collab.Speech.SynthesizeScript(ctx, script, filepath.Join(dir, id))
	if err != nil {
		if !services.IsQuota(err) {
			return err
		}
		logging.WithContext(ctx, m.logger).WarnContext(ctx, "audio generation skipped", logging.Error(err))
		audioFiles = []string{QuotaPlaceholder}
	}

	// Packaging: question generation is fatal; duration, topics, chapters,
	// and metadata are derived locally.
	if err := m.advance(ctx, id, jobs.StagePackaging, 80, 10, false); err != nil {
		return err
	}
	questions, err := m.collab.Questions.GenerateQuestions(ctx, script)
	if err != nil {
		return err
	}
	if err := writeJSON(filepath.Join(dir, id+"_questions.json"), questions); err != nil {
		return err
	}

	metadata := buildMetadata(id, script, req.Interests, len(questions), measureDuration(dir, id), m.cfg.Voices)
	if err := writeJSON(filepath.Join(dir, id+"_metadata.json"), metadata); err != nil {
		return err
	}

	result := buildResult(id, audioFiles)
	resultJSON, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("encode result: %w", err)
	}

	done := string(resultJSON)
	if _, err := m.store.Update(ctx, id, jobs.Patch{
		Status:     statusPtr(jobs.StatusCompleted),
		Stage:      stagePtr(jobs.StageDone),
		Progress:   intPtr(100),
		ETASeconds: intPtr(0),
		ResultJSON: &done,
	}); err != nil {
		return fmt.Errorf("record completion: %w", err)
	}
	return nil
}

// advance moves the job into the next stage with its progress and advisory
// ETA. The first stage also flips the job to RUNNING.
func (m *Manager) advance(ctx context.Context, id string, stage jobs.Stage, progress, etaSeconds int, first bool) error {
	patch := jobs.Patch{
		Stage:      stagePtr(stage),
		Progress:   intPtr(progress),
		ETASeconds: intPtr(etaSeconds),
	}
	if first {
		patch.Status = statusPtr(jobs.StatusRunning)
	}
	if _, err := m.store.Update(ctx, id, patch); err != nil {
		return fmt.Errorf("advance to %s: %w", stage, err)
	}
	return nil
}

// measureDuration sums the measured playback time of every produced segment
// container. Unreadable segments are skipped rather than failing packaging.
func measureDuration(dir, id string) float64 {
	segments, err := filepath.Glob(filepath.Join(dir, id+"_seg*.wav"))
	if err != nil {
		return 0
	}
	sort.Strings(segments)

	var total float64
	for _, segment := range segments {
		duration, err := wav.Duration(segment)
		if err != nil {
			continue
		}
		total += duration
	}
	return total
}

func buildResult(id string, audioFiles []string) jobs.Result {
	audio := make([]string, 0, len(audioFiles))
	for _, file := range audioFiles {
		if filepath.Ext(file) != ".wav" {
			continue
		}
		audio = append(audio, fileURL(id, filepath.Base(file)))
	}
	return jobs.Result{
		Script:    fileURL(id, id+"_script.txt"),
		Questions: fileURL(id, id+"_questions.json"),
		Metadata:  fileURL(id, id+"_metadata.json"),
		News:      fileURL(id, id+"_news.json"),
		Audio:     audio,
	}
}

func fileURL(id, name string) string {
	return "/files/" + id + "/" + name
}

func writeJSON(path string, value any) error {
	encoded, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", filepath.Base(path), err)
	}
	if err := os.WriteFile(path, encoded, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	return nil
}

var nowUTC = func() time.Time { return time.Now().UTC() }
