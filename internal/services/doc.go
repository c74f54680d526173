// Package services defines shared utilities consumed by the pipeline stages
// and external integrations.
//
// Key responsibilities:
//   - Context helpers that stamp job IDs, stage labels, and correlation
//     identifiers for logging and tracing.
//   - Structured error markers plus the Wrap helper that classify upstream
//     failures (hard faults vs quota exhaustion vs malformed payloads).
//
// Use these helpers when wiring new stage logic so operational behaviour
// (error handling, observability) stays uniform across the pipeline.
package services
