package logging

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Init initializes the global logger on stderr
func Init(verbose bool) {
	InitWriter(os.Stderr, verbose)
}

// InitWriter initializes the global logger on the given writer. The
// terminal front end uses it to move log output into a file.
func InitWriter(w io.Writer, verbose bool) {
	zerolog.TimeFieldFormat = time.RFC3339

	level := zerolog.InfoLevel
	if verbose {
		level = zerolog.DebugLevel
	}

	zerolog.SetGlobalLevel(level)

	output := zerolog.ConsoleWriter{
		Out:        w,
		TimeFormat: "15:04:05",
		NoColor:    w != os.Stderr,
	}

	log.Logger = zerolog.New(output).With().Timestamp().Logger()
}

// OpenFile opens path for appending log output.
func OpenFile(path string) (*os.File, error) {
	return os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
}

// WithComponent creates a logger with a component field
func WithComponent(component string) zerolog.Logger {
	return log.Logger.With().Str("component", component).Logger()
}
