package main

import (
	"context"
	"log"
	"os/signal"
	"sort"
	"syscall"

	"briefcast/internal/api"
	"briefcast/internal/config"
	"briefcast/internal/daemon"
	"briefcast/internal/jobs"
	"briefcast/internal/logging"
	"briefcast/internal/pipeline"
	"briefcast/internal/services/perplexity"
	"briefcast/internal/services/tts"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, _, _, err := config.Load("")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		log.Fatalf("prepare directories: %v", err)
	}

	logger, err := logging.NewForDaemon(cfg.Logging.Level, cfg.Logging.Format, cfg.Paths.LogDir)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}

	store, err := jobs.Open()
	if err != nil {
		logger.Error("open job store", logging.Error(err))
		return
	}

	client := perplexity.NewClient(perplexity.Config{
		APIKey:         cfg.Perplexity.APIKey,
		BaseURL:        cfg.Perplexity.BaseURL,
		TimeoutSeconds: cfg.Perplexity.TimeoutSeconds,
	}, perplexity.WithLogger(logger))

	synthesizer, err := tts.New(ctx, tts.Config{
		APIKey:          cfg.TTS.APIKey,
		Model:           cfg.TTS.Model,
		Voices:          cfg.TTS.Voices,
		MaxSegmentLines: cfg.TTS.MaxSegmentLines,
		TimeoutSeconds:  cfg.TTS.TimeoutSeconds,
	}, tts.WithLogger(logger))
	if err != nil {
		logger.Error("init speech synthesizer", logging.Error(err))
		return
	}

	manager := pipeline.NewManager(pipeline.Config{
		DataDir: cfg.Paths.DataDir,
		Workers: cfg.Workflow.JobWorkers,
		Voices:  orderedVoices(cfg.TTS.Voices),
	}, store, pipeline.Collaborators{
		News:      client,
		Scripts:   client,
		Questions: client,
		Speech:    synthesizer,
	}, logger)

	server := api.NewServer(cfg.Paths.DataDir, store, manager, client, logger)

	d, err := daemon.New(cfg, store, manager, server.Router(), logger)
	if err != nil {
		logger.Error("create daemon", logging.Error(err))
		return
	}
	defer d.Close()

	if err := d.Start(ctx); err != nil {
		logger.Error("daemon start", logging.Error(err))
		return
	}

	<-ctx.Done()
	logger.Info("briefcastd shutting down")
}

// orderedVoices flattens the speaker to voice mapping into a stable list
// ordered by speaker label.
func orderedVoices(voices map[string]string) []string {
	speakers := make([]string, 0, len(voices))
	for speaker := range voices {
		speakers = append(speakers, speaker)
	}
	sort.Strings(speakers)

	ordered := make([]string, 0, len(speakers))
	for _, speaker := range speakers {
		ordered = append(ordered, voices[speaker])
	}
	return ordered
}
