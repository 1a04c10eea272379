// Package logging provides the minimal logging interface the engine and its
// adapters log through, plus slog-backed implementations.
//
//   - Logger interface for dependency injection
//   - SlogAdapter wrapping Go's structured logging
//   - NoOpLogger for silent operation (testing, minimal setups)
//
// Usage:
//
//	a := agent.New(m, func(o *agent.Options) {
//		o.Logger = logging.NewSlogLogger(logging.LogLevelInfo, "text", false)
//	})
//
// The interface stays small so any structured logger can be plugged in.
package logging
