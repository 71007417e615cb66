package logging

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Configures the global logger. Format "json" writes one JSON object
// per line, anything else a human readable console format. Logs go
// to stderr so command output on stdout stays clean.
func Setup(format string, level string) error {
	return SetupWriter(os.Stderr, format, level)
}

func SetupWriter(out io.Writer, format string, level string) error {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || lvl == zerolog.NoLevel {
		return fmt.Errorf("invalid log level '%s'", level)
	}

	if format == "json" {
		log.Logger = zerolog.New(out).With().Timestamp().Logger()
	} else {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339})
	}
	log.Logger = log.Logger.Level(lvl)

	return nil
}
