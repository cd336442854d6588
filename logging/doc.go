// Package logging provides a minimal logging interface and adapters for
// planmesh.
//
// The Logger interface defines the standard logging methods (Debug, Info,
// Warn, Error) that the engine, executor and planner use for observability.
// This package includes:
//
//   - Logger interface for dependency injection
//   - SlogAdapter wrapping Go's structured logging
//   - RunLogger with contextual helpers (session, run, component)
//   - NoOpLogger for silent operation (testing, minimal setups)
//
// Usage:
//
//	logger := logging.NewSlogLogger(logging.LogLevelInfo, "json", false)
//	eng, _ := engine.New(planner, registry, engine.WithLogger(logger))
//
// The design intentionally keeps the interface minimal to avoid vendor
// lock-in while supporting structured logging where available.
package logging
