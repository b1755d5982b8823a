// README: zerolog setup shared by the API binary and background workers.
package logging

import (
	"os"
	"strings"

	"github.com/rs/zerolog"
)

// New returns a configured root logger. Level falls back to info when the
// supplied name does not parse.
func New(level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		Level(lvl).
		With().
		Timestamp().
		Logger()
}
