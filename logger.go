package chunkdb

import (
	"log/slog"
	"os"
)

// Logger wraps slog.Logger with chunkdb-specific context.
// This provides structured logging with consistent field names.
type Logger struct {
	*slog.Logger
}

// NewLogger creates a new Logger with the given handler.
// If handler is nil, uses default text handler to stderr.
func NewLogger(handler slog.Handler) *Logger {
	if handler == nil {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	}
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewJSONLogger creates a Logger that outputs JSON-formatted logs.
// level sets the minimum log level (e.g., slog.LevelDebug, slog.LevelInfo).
func NewJSONLogger(level slog.Level) *Logger {
	handler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewTextLogger creates a Logger that outputs human-readable text logs.
func NewTextLogger(level slog.Level) *Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NoopLogger creates a Logger that discards all log output.
// Use this to disable logging entirely.
func NoopLogger() *Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.Level(1000), // Unreachable level
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// WithStore adds the store identity to the logger.
func (l *Logger) WithStore(id uint64) *Logger {
	return &Logger{
		Logger: l.Logger.With("store", id),
	}
}

// WithChunk adds a chunk key field to the logger.
func (l *Logger) WithChunk(key any) *Logger {
	return &Logger{
		Logger: l.Logger.With("chunk", key),
	}
}

// LogRemove logs a record removal pass.
func (l *Logger) LogRemove(removed int) {
	l.Debug("records removed",
		"count", removed,
	)
}

// LogClean logs a compaction of empty chunks.
func (l *Logger) LogClean(removedChunks int) {
	l.Debug("empty chunks compacted",
		"chunks", removedChunks,
	)
}

// LogGC logs a garbage collection sweep over derived per-chunk state.
func (l *Logger) LogGC(removedChunks int) {
	l.Debug("derived chunk state collected",
		"chunks", removedChunks,
	)
}

// LogReduce logs a reduction pass.
func (l *Logger) LogReduce(recomputed int, rebound bool) {
	if rebound {
		l.Warn("reduction rebound and rebuilt from scratch",
			"recomputed", recomputed,
		)
	} else {
		l.Debug("reduction updated",
			"recomputed", recomputed,
		)
	}
}
