package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// DefaultLogFile is where every user-facing line is duplicated. Overridable
// through the --log-file flag.
const DefaultLogFile = "/var/log/strata/install.log"

// Setup configures the global logger with dual output: a console writer on
// stderr and the fixed-path log file. The file keeps everything down to
// debug level regardless of console verbosity, so verbosity only filters
// the console sink.
func Setup(logPath string, verbose bool) {
	zerolog.SetGlobalLevel(zerolog.DebugLevel)

	consoleLevel := zerolog.InfoLevel
	if verbose {
		consoleLevel = zerolog.DebugLevel
	}
	console := &zerolog.FilteredLevelWriter{
		Writer: zerolog.LevelWriterAdapter{Writer: zerolog.ConsoleWriter{
			Out:        os.Stderr,
			TimeFormat: time.Kitchen,
		}},
		Level: consoleLevel,
	}

	writers := []io.Writer{console}
	logFile, err := openLogFile(logPath)
	if err == nil {
		writers = append(writers, logFile)
	}

	log.Logger = zerolog.New(zerolog.MultiLevelWriter(writers...)).With().Timestamp().Logger()

	if err != nil {
		log.Warn().Err(err).Str("path", logPath).Msg("Failed to open log file, logging to console only")
	}
	log.Debug().Str("logFile", logPath).Msg("Logger initialized")
}

// GetLogger returns a contextualized logger with the given component name.
func GetLogger(name string) zerolog.Logger {
	return log.With().Str("component", name).Logger()
}

// CommandStatus records a wrapped command's exit status against the command
// name, for both the success and failure paths.
func CommandStatus(logger zerolog.Logger, name string, args []string, code int, err error) {
	event := logger.Debug()
	if err != nil {
		event = logger.Error().Err(err)
	}
	event.Str("command", name).Strs("args", args).Int("exitCode", code).Msg("Command finished")
}

func openLogFile(logPath string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(logPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	file, err := os.OpenFile(logPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}

	return file, nil
}
