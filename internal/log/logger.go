// Package log builds the zerolog logger shared by the CLI and the stub
// backend. Development gets a colored console at debug level; production gets
// plain output at info.
package log

import (
	"os"
	"time"

	"github.com/rs/zerolog"
)

func New(environment string) zerolog.Logger {
	output := zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: time.RFC3339,
		NoColor:    environment == "production",
	}

	level := zerolog.DebugLevel
	if environment == "production" {
		level = zerolog.InfoLevel
	}

	return zerolog.New(output).
		Level(level).
		With().
		Timestamp().
		Str("env", environment).
		Logger()
}
