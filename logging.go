package rugsync

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// NewLogger builds the engine logger: console output on stderr, plus an
// optional append-mode log file. Debug enables Sheets API request tracing.
func NewLogger(debug bool, logPath string) (zerolog.Logger, error) {
	console := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}

	var writer io.Writer = console
	if logPath != "" {
		f, err := os.OpenFile(logPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
		if err != nil {
			return zerolog.Nop(), fmt.Errorf("open log file: %w", err)
		}
		writer = zerolog.MultiLevelWriter(f, console)
	}

	level := zerolog.InfoLevel
	if debug {
		level = zerolog.DebugLevel
	}

	return zerolog.New(writer).Level(level).With().Timestamp().Logger(), nil
}
