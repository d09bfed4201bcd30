// internal/logger/logger.go
package logger

import (
	"log/slog"
	"os"
)

// Init configures the default logger.
// Development: text format with debug level.
// Production: JSON format with info level.
func Init(isDev bool) {
	var handler slog.Handler
	if isDev {
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		})
	} else {
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	}
	slog.SetDefault(slog.New(handler))
}
