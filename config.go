package dataskip

import (
	"errors"
	"log/slog"
	"os"

	"github.com/apache/arrow-go/v18/arrow/memory"
)

// Config contains configuration for a Pruner.
type Config struct {
	// Allocator for Arrow memory management.
	// OPTIONAL: Uses memory.DefaultAllocator if nil.
	Allocator memory.Allocator

	// Logger for internal logging.
	// OPTIONAL: Uses slog.Default() if nil.
	Logger *slog.Logger

	// LogLevel sets the logging level when no Logger is provided: a
	// fresh text handler at this level is created.
	// OPTIONAL: Ignored when Logger is set (use a pre-configured logger).
	LogLevel *slog.Level
}

// ErrMissingStatsPayload indicates the file-action batch carries no
// per-file statistics column.
var ErrMissingStatsPayload = errors.New("file actions have no stats column")

// AllocatorOrDefault resolves the configured allocator, falling back
// to memory.DefaultAllocator.
func (c Config) AllocatorOrDefault() memory.Allocator {
	if c.Allocator != nil {
		return c.Allocator
	}
	return memory.DefaultAllocator
}

// LoggerOrDefault resolves the configured logger. A LogLevel without a
// Logger produces a fresh text handler at that level.
func (c Config) LoggerOrDefault() *slog.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	if c.LogLevel != nil {
		return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: *c.LogLevel}))
	}
	return slog.Default()
}
