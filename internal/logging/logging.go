// Package logging configures the zerolog console logger used by guestshell.
package logging

import (
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	EnvLogLevel   = "GUESTSHELL_LOG_LEVEL"
	EnvLogNoColor = "GUESTSHELL_LOG_NOCOLOR"
)

// Options controls logger construction.
type Options struct {
	// Level is the configured level name.
	Level string

	// Verbose is the number of -v flags. Each one lowers the level by one
	// step. EnvLogLevel, when set, overrides both.
	Verbose int

	// NoColor disables ANSI colors.
	NoColor bool
}

// New builds a console logger writing to w and installs it as log.Logger.
func New(w io.Writer, opts Options) zerolog.Logger {
	level, ok := ParseLevel(opts.Level)
	if !ok {
		level = zerolog.WarnLevel
	}
	for i := 0; i < opts.Verbose && level > zerolog.TraceLevel && level <= zerolog.ErrorLevel; i++ {
		level--
	}
	if envLevel, ok := ParseLevel(os.Getenv(EnvLogLevel)); ok {
		level = envLevel
	}

	noColor := opts.NoColor
	if v, ok := parseBool(os.Getenv(EnvLogNoColor)); ok {
		noColor = v
	}

	output := zerolog.ConsoleWriter{
		Out:        w,
		TimeFormat: time.RFC3339,
		NoColor:    noColor,
	}
	logger := zerolog.New(output).Level(level).With().Timestamp().Str("app", "guestshell").Logger()
	log.Logger = logger
	return logger
}

// ParseLevel maps a level name to a zerolog level.
func ParseLevel(raw string) (zerolog.Level, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "":
		return zerolog.WarnLevel, false
	case "trace":
		return zerolog.TraceLevel, true
	case "debug":
		return zerolog.DebugLevel, true
	case "info":
		return zerolog.InfoLevel, true
	case "warn", "warning":
		return zerolog.WarnLevel, true
	case "error":
		return zerolog.ErrorLevel, true
	case "disabled", "disable", "off", "none":
		return zerolog.Disabled, true
	default:
		return zerolog.WarnLevel, false
	}
}

func parseBool(raw string) (bool, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return false, false
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, false
	}
	return v, true
}
