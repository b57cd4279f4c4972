package config

import (
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog"
)

// Logger builds a zerolog logger writing to w in the configured format
func (l LogConfig) Logger(w io.Writer) (zerolog.Logger, error) {
	level, err := zerolog.ParseLevel(l.Level)
	if err != nil {
		return zerolog.Nop(), fmt.Errorf("invalid log level %q: %w", l.Level, err)
	}
	if l.Format == "console" {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}
	return zerolog.New(w).
		With().
		Timestamp().
		Logger().
		Level(level), nil
}
