// Package pipeline orchestrates podcast generation jobs through their stage
// sequence: news fetch, script generation, speech synthesis, and packaging.
package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"briefcast/internal/jobs"
	"briefcast/internal/logging"
	"briefcast/internal/services"
	"briefcast/internal/services/perplexity"
)

// NewsFetcher gathers per-section news summaries.
type NewsFetcher interface {
	FetchNews(ctx context.Context, interests []string, homeLocation, workLocation string) (map[string]string, error)
}

// ScriptGenerator produces the two-speaker briefing dialogue.
type ScriptGenerator interface {
	GenerateScript(ctx context.Context, userData map[string]any) (string, error)
}

// QuestionGenerator derives listener questions from the finished script.
type QuestionGenerator interface {
	GenerateQuestions(ctx context.Context, script string) ([]perplexity.Question, error)
}

// SpeechSynthesizer turns the script into per-segment audio files.
type SpeechSynthesizer interface {
	SynthesizeScript(ctx context.Context, script, outputPrefix string) ([]string, error)
}

// Collaborators are the external services a job runs against.
type Collaborators struct {
	News      NewsFetcher
	Scripts   ScriptGenerator
	Questions QuestionGenerator
	Speech    SpeechSynthesizer
}

// Config controls where artifacts land and how many jobs run at once.
type Config struct {
	DataDir string
	Workers int
	// Voices is the ordered voice-name list recorded in podcast metadata.
	Voices []string
}

// Request is the caller's submission payload.
type Request struct {
	UserPreferences map[string]any `json:"user_preferences,omitempty"`
	WeatherInfo     map[string]any `json:"weather_info,omitempty"`
	Interests       []string       `json:"interests,omitempty"`
	HomeLocation    string         `json:"home_location,omitempty"`
	WorkLocation    string         `json:"work_location,omitempty"`
	Extra           map[string]any `json:"extra,omitempty"`
}

type task struct {
	jobID   string
	request Request
}

// Manager owns the worker pool that drives submitted jobs to completion.
// Every job runs on exactly one pooled worker; stages within a job are
// strictly sequential.
type Manager struct {
	cfg     Config
	store   *jobs.Store
	collab  Collaborators
	logger  *slog.Logger
	queue   chan task
	wg      sync.WaitGroup
	mu      sync.Mutex
	cancel  context.CancelFunc
	started bool
	stopped bool
}

const queueCapacity = 128

// NewManager constructs a pipeline manager. Start must be called before jobs
// are processed.
func NewManager(cfg Config, store *jobs.Store, collab Collaborators, logger *slog.Logger) *Manager {
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	return &Manager{
		cfg:    cfg,
		store:  store,
		collab: collab,
		logger: logging.NewComponentLogger(logger, "pipeline"),
		queue:  make(chan task, queueCapacity),
	}
}

// Start launches the worker pool. The pool shuts down when Stop is called or
// the supplied context is canceled.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.started {
		return errors.New("pipeline manager already started")
	}
	m.started = true

	workerCtx, cancel := context.WithCancel(ctx)
	m.cancel = cancel
	for i := 0; i < m.cfg.Workers; i++ {
		m.wg.Add(1)
		go m.worker(workerCtx)
	}
	m.logger.InfoContext(ctx, "worker pool started", logging.Int("workers", m.cfg.Workers))
	return nil
}

// Stop drains the pool: no new jobs are accepted and in-flight jobs run to
// completion before Stop returns.
func (m *Manager) Stop() {
	m.mu.Lock()
	if !m.started || m.stopped {
		m.mu.Unlock()
		return
	}
	m.stopped = true
	close(m.queue)
	m.mu.Unlock()

	m.wg.Wait()
	if m.cancel != nil {
		m.cancel()
	}
	m.logger.Info("worker pool stopped")
}

// NewJobID mints a podcast job identifier with a sortable UTC timestamp.
func NewJobID(now time.Time) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return fmt.Sprintf("podcast-%s-%s", now.UTC().Format("20060102T150405Z"), suffix)
}

// Submit registers a new job, snapshots the request to disk, and enqueues it
// for a pooled worker. It returns the queued job without waiting for any
// processing.
func (m *Manager) Submit(ctx context.Context, req Request) (*jobs.Job, error) {
	m.mu.Lock()
	if m.stopped {
		m.mu.Unlock()
		return nil, errors.New("pipeline manager is stopped")
	}
	m.mu.Unlock()

	id := NewJobID(time.Now())
	dir := m.jobDir(id)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create job directory: %w", err)
	}

	requestJSON, err := json.MarshalIndent(req, "", "  ")
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, "", "submit", "encode request", err)
	}
	requestPath := filepath.Join(dir, id+"_request.json")
	if err := os.WriteFile(requestPath, requestJSON, 0o644); err != nil {
		return nil, fmt.Errorf("write request snapshot: %w", err)
	}

	job, err := m.store.Create(ctx, id, string(requestJSON))
	if err != nil {
		return nil, err
	}

	if err := m.enqueue(task{jobID: id, request: req}); err != nil {
		failure := err.Error()
		_, _ = m.store.Update(ctx, id, jobs.Patch{
			Status:       statusPtr(jobs.StatusFailed),
			ErrorMessage: &failure,
		})
		return nil, err
	}

	m.logger.InfoContext(ctx, "job submitted", logging.String(logging.FieldJobID, id))
	return job, nil
}

// enqueue hands a task to the pool. The lock guards against a concurrent
// Stop closing the queue mid-send.
func (m *Manager) enqueue(t task) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.stopped {
		return errors.New("pipeline manager is stopped")
	}
	select {
	case m.queue <- t:
		return nil
	default:
		return errors.New("job queue is full")
	}
}

func (m *Manager) worker(ctx context.Context) {
	defer m.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case t, ok := <-m.queue:
			if !ok {
				return
			}
			m.process(ctx, t)
		}
	}
}

func (m *Manager) jobDir(id string) string {
	return filepath.Join(m.cfg.DataDir, id)
}

func statusPtr(s jobs.Status) *jobs.Status { return &s }
func stagePtr(s jobs.Stage) *jobs.Stage    { return &s }
func intPtr(i int) *int                    { return &i }
