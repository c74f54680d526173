package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"briefcast/internal/jobs"
	"briefcast/internal/logging"
	"briefcast/internal/pipeline"
	"briefcast/internal/wav"
)

func (s *Server) handleGeneratePodcast(w http.ResponseWriter, r *http.Request) {
	var req pipeline.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "Request body must be JSON")
		return
	}

	job, err := s.submitter.Submit(r.Context(), req)
	if err != nil {
		s.logger.ErrorContext(r.Context(), "submit failed", logging.Error(err))
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	s.writeJSON(w, http.StatusAccepted, map[string]string{
		"id":         job.ID,
		"status":     string(job.Status),
		"message":    "Podcast generation started",
		"status_url": "/status/" + job.ID,
		"result_url": "/get-podcast/" + job.ID,
	})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	job, err := s.store.Get(r.Context(), id)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if job == nil {
		s.writeError(w, http.StatusNotFound, "Job not found")
		return
	}

	response := map[string]any{
		"id":          job.ID,
		"status":      job.Status,
		"progress":    job.Progress,
		"stage":       job.Stage,
		"eta_seconds": job.ETASeconds,
	}
	switch job.Status {
	case jobs.StatusCompleted:
		response["result_url"] = "/get-podcast/" + job.ID
	case jobs.StatusFailed:
		response["error"] = job.ErrorMessage
	}
	s.writeJSON(w, http.StatusOK, response)
}

func (s *Server) handleResult(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	result, ok, err := s.store.Result(r.Context(), id)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if !ok {
		s.writeError(w, http.StatusNotFound, "Job not completed or not found")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(result))
}

// handleFullAudio serves the concatenated podcast audio, building and caching
// it on first request.
func (s *Server) handleFullAudio(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if !validID(id) {
		s.writeError(w, http.StatusNotFound, "Podcast not found")
		return
	}
	dir := filepath.Join(s.dataDir, id)
	fullPath := filepath.Join(dir, id+"_full.wav")

	if _, err := os.Stat(fullPath); err != nil {
		segments, err := filepath.Glob(filepath.Join(dir, id+"_seg*.wav"))
		if err != nil || len(segments) == 0 {
			s.writeError(w, http.StatusNotFound, "No audio files found")
			return
		}
		sort.Strings(segments)
		if err := wav.Concatenate(segments, fullPath); err != nil {
			if errors.Is(err, wav.ErrNoInput) {
				s.writeError(w, http.StatusNotFound, "No audio files found")
				return
			}
			s.logger.ErrorContext(r.Context(), "concatenate audio", logging.Error(err))
			s.writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
	}

	w.Header().Set("Content-Type", "audio/wav")
	http.ServeFile(w, r, fullPath)
}

type answerRequest struct {
	PodcastID string `json:"podcast_id"`
	Timestamp string `json:"timestamp"`
	Question  string `json:"question"`
}

type answerEntry struct {
	Timestamp  string `json:"timestamp"`
	Question   string `json:"question"`
	Answer     string `json:"answer"`
	AnsweredAt string `json:"answered_at"`
}

func (s *Server) handleAnswerQuestion(w http.ResponseWriter, r *http.Request) {
	var req answerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "Request body must be JSON")
		return
	}
	if req.PodcastID == "" || req.Timestamp == "" || req.Question == "" {
		s.writeError(w, http.StatusBadRequest, "podcast_id, timestamp, and question required")
		return
	}
	if !validID(req.PodcastID) {
		s.writeError(w, http.StatusNotFound, "Podcast not found")
		return
	}

	scriptContext := ""
	scriptPath := filepath.Join(s.dataDir, req.PodcastID, req.PodcastID+"_script.txt")
	if raw, err := os.ReadFile(scriptPath); err == nil {
		scriptContext = string(raw)
	}

	answer, err := s.answers.GenerateAnswer(r.Context(), req.Question, scriptContext)
	if err != nil {
		s.logger.ErrorContext(r.Context(), "answer generation failed", logging.Error(err))
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	answersPath, err := s.saveAnswer(req, answer)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]string{
		"status":       "success",
		"answer":       answer,
		"answers_file": answersPath,
	})
}

// saveAnswer appends the answer to the podcast's accumulating answers file.
func (s *Server) saveAnswer(req answerRequest, answer string) (string, error) {
	path := filepath.Join(s.dataDir, req.PodcastID, req.PodcastID+"_answers.json")

	var entries []answerEntry
	if raw, err := os.ReadFile(path); err == nil {
		_ = json.Unmarshal(raw, &entries)
	}
	entries = append(entries, answerEntry{
		Timestamp:  req.Timestamp,
		Question:   req.Question,
		Answer:     answer,
		AnsweredAt: time.Now().UTC().Format(time.RFC3339),
	})

	encoded, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(path, encoded, 0o644); err != nil {
		return "", err
	}
	return path, nil
}

type podcastSummary struct {
	ID        string   `json:"id"`
	CreatedAt string   `json:"created_at,omitempty"`
	Duration  *float64 `json:"duration"`
	Topics    []string `json:"topics"`
}

func (s *Server) handlePodcasts(w http.ResponseWriter, r *http.Request) {
	dirs, err := filepath.Glob(filepath.Join(s.dataDir, "podcast-*"))
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	sort.Sort(sort.Reverse(sort.StringSlice(dirs)))

	podcasts := make([]podcastSummary, 0, len(dirs))
	for _, dir := range dirs {
		id := filepath.Base(dir)
		summary := podcastSummary{ID: id, Topics: []string{}}

		if raw, err := os.ReadFile(filepath.Join(dir, id+"_metadata.json")); err == nil {
			var metadata pipeline.Metadata
			if err := json.Unmarshal(raw, &metadata); err == nil {
				summary.CreatedAt = metadata.CreatedAt
				duration := metadata.Duration
				summary.Duration = &duration
				summary.Topics = metadata.Topics
			}
		}
		podcasts = append(podcasts, summary)
	}

	s.writeJSON(w, http.StatusOK, map[string]any{
		"podcasts": podcasts,
		"total":    len(podcasts),
	})
}

func (s *Server) handleFiles(w http.ResponseWriter, r *http.Request) {
	requested := mux.Vars(r)["path"]
	cleaned := filepath.Clean("/" + requested)
	path := filepath.Join(s.dataDir, cleaned)
	if !strings.HasPrefix(path, filepath.Clean(s.dataDir)+string(os.PathSeparator)) {
		s.writeError(w, http.StatusNotFound, "File not found")
		return
	}
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		s.writeError(w, http.StatusNotFound, "File not found")
		return
	}
	http.ServeFile(w, r, path)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

// validID rejects identifiers that could traverse outside the data directory.
func validID(id string) bool {
	if id == "" || id == "." || id == ".." {
		return false
	}
	return !strings.ContainsAny(id, "/\\")
}
