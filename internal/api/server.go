// Package api exposes the daemon's HTTP surface: podcast submission, job
// polling, artifact retrieval, and listener question answering.
package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/cors"

	"briefcast/internal/jobs"
	"briefcast/internal/logging"
	"briefcast/internal/pipeline"
)

// Submitter enqueues a new podcast job.
type Submitter interface {
	Submit(ctx context.Context, req pipeline.Request) (*jobs.Job, error)
}

// AnswerGenerator answers a listener question against a script.
type AnswerGenerator interface {
	GenerateAnswer(ctx context.Context, question, scriptContext string) (string, error)
}

// Server holds the HTTP handlers and their collaborators.
type Server struct {
	dataDir   string
	store     *jobs.Store
	submitter Submitter
	answers   AnswerGenerator
	logger    *slog.Logger
}

// NewServer constructs the API server. dataDir is the root under which each
// job's artifact directory lives.
func NewServer(dataDir string, store *jobs.Store, submitter Submitter, answers AnswerGenerator, logger *slog.Logger) *Server {
	return &Server{
		dataDir:   dataDir,
		store:     store,
		submitter: submitter,
		answers:   answers,
		logger:    logging.NewComponentLogger(logger, "api"),
	}
}

// Router builds the route table with CORS applied.
func (s *Server) Router() http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/generate-podcast", s.handleGeneratePodcast).Methods(http.MethodPost)
	r.HandleFunc("/status/{id}", s.handleStatus).Methods(http.MethodGet)
	r.HandleFunc("/get-podcast/{id}", s.handleResult).Methods(http.MethodGet)
	r.HandleFunc("/get-full-audio/{id}", s.handleFullAudio).Methods(http.MethodGet)
	r.HandleFunc("/answer-question", s.handleAnswerQuestion).Methods(http.MethodPost)
	r.HandleFunc("/podcasts", s.handlePodcasts).Methods(http.MethodGet)
	r.HandleFunc("/files/{path:.*}", s.handleFiles).Methods(http.MethodGet)
	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)

	c := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
	})
	return c.Handler(r)
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, value any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(value); err != nil {
		s.logger.Error("encode response", logging.Error(err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{"error": message})
}
