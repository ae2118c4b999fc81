package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	lumberjack "gopkg.in/natefinch/lumberjack.v2"

	"github.com/mtgstrategist/ui/internal/config"
)

// New builds the process logger. JSON records go to stdout when enabled
// and to a size-rotated file when one is configured; with neither sink the
// logger discards everything. The returned closer releases the file handle
// and is a no-op otherwise.
func New(cfg config.LogConfig) (*slog.Logger, io.Closer, error) {
	var sinks []io.Writer
	var closer io.Closer = nopCloser{}

	if cfg.Stdout {
		sinks = append(sinks, os.Stdout)
	}

	if cfg.File != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.File), 0o755); err != nil {
			return nil, nil, fmt.Errorf("failed to create log directory: %w", err)
		}

		rotating := &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    10, // MB
			MaxBackups: 3,
			MaxAge:     28,
			Compress:   true,
		}
		sinks = append(sinks, rotating)
		closer = rotating
	}

	var out io.Writer
	switch len(sinks) {
	case 0:
		out = io.Discard
	case 1:
		out = sinks[0]
	default:
		out = io.MultiWriter(sinks...)
	}

	handler := slog.NewJSONHandler(out, &slog.HandlerOptions{Level: cfg.Level})
	return slog.New(handler), closer, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
