// Package logging provides structured logging for both CLI and terminal UI modes.
package logging

import (
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/instantshare/instantshare/internal/events"
)

// Logger modes
const (
	ModeCLI = "cli"
	ModeTUI = "tui"
)

// Logger wraps zerolog with mode-specific behavior.
type Logger struct {
	zlog     zerolog.Logger
	mode     string // ModeCLI or ModeTUI
	eventBus *events.EventBus
	output   io.Writer // console writer, nil in TUI mode
	file     io.Writer // optional rotating file
}

// NewLogger creates a new logger for the specified mode.
// In TUI mode nothing is written to the terminal; warnings and errors reach
// the screen through the event bus instead.
func NewLogger(mode string, eventBus *events.EventBus) *Logger {
	l := &Logger{
		mode:     mode,
		eventBus: eventBus,
	}
	if mode == ModeCLI {
		// stdout for logs, stderr reserved for progress bars
		l.output = os.Stdout
	}
	l.rebuild()
	return l
}

// NewDefaultCLILogger creates a default CLI logger.
func NewDefaultCLILogger() *Logger {
	return NewLogger(ModeCLI, nil)
}

// NewNopLogger returns a logger that discards everything. Used by tests and
// by library callers that pass no logger.
func NewNopLogger() *Logger {
	return &Logger{zlog: zerolog.Nop(), mode: ModeCLI}
}

func (l *Logger) rebuild() {
	var writers []io.Writer
	if l.output != nil {
		writers = append(writers, zerolog.ConsoleWriter{
			Out:        l.output,
			TimeFormat: "15:04:05",
		})
	}
	if l.file != nil {
		writers = append(writers, zerolog.ConsoleWriter{
			Out:        l.file,
			TimeFormat: "2006-01-02 15:04:05.000",
			NoColor:    true,
		})
	}

	var w io.Writer
	switch len(writers) {
	case 0:
		w = io.Discard
	case 1:
		w = writers[0]
	default:
		w = zerolog.MultiLevelWriter(writers...)
	}

	zl := zerolog.New(w).With().Timestamp().Logger()
	if l.eventBus != nil {
		zl = zl.Hook(busHook{bus: l.eventBus})
	}
	l.zlog = zl
}

// busHook mirrors warnings and errors onto the event bus.
type busHook struct {
	bus *events.EventBus
}

func (h busHook) Run(_ *zerolog.Event, level zerolog.Level, msg string) {
	switch {
	case level >= zerolog.ErrorLevel:
		h.bus.PublishLog(events.ErrorLevel, msg, nil)
	case level == zerolog.WarnLevel:
		h.bus.PublishLog(events.WarnLevel, msg, nil)
	}
}

// Info returns an info level event.
func (l *Logger) Info() *zerolog.Event {
	return l.zlog.Info()
}

// Error returns an error level event.
func (l *Logger) Error() *zerolog.Event {
	return l.zlog.Error()
}

// Debug returns a debug level event.
func (l *Logger) Debug() *zerolog.Event {
	return l.zlog.Debug()
}

// Warn returns a warn level event.
func (l *Logger) Warn() *zerolog.Event {
	return l.zlog.Warn()
}

// With creates a child logger context with additional fields.
func (l *Logger) With() zerolog.Context {
	return l.zlog.With()
}

// SetOutput changes the console writer for the logger.
// This is useful for redirecting logs through progress bars.
func (l *Logger) SetOutput(w io.Writer) {
	l.output = w
	l.rebuild()
}

// AttachFile adds a second, uncolored destination such as a rotating log file.
func (l *Logger) AttachFile(w io.Writer) {
	l.file = w
	l.rebuild()
}

// Output returns the current console writer.
func (l *Logger) Output() io.Writer {
	return l.output
}

// Mode returns ModeCLI or ModeTUI.
func (l *Logger) Mode() string {
	return l.mode
}

// Debugf logs a debug message with printf-style formatting.
// This is only shown when verbose mode is enabled.
func (l *Logger) Debugf(format string, args ...interface{}) {
	l.zlog.Debug().Msgf(format, args...)
}

// Infof logs an info message with printf-style formatting.
func (l *Logger) Infof(format string, args ...interface{}) {
	l.zlog.Info().Msgf(format, args...)
}

// Errorf logs an error message with printf-style formatting.
func (l *Logger) Errorf(format string, args ...interface{}) {
	l.zlog.Error().Msgf(format, args...)
}

// Warnf logs a warning message with printf-style formatting.
func (l *Logger) Warnf(format string, args ...interface{}) {
	l.zlog.Warn().Msgf(format, args...)
}

// SetGlobalLevel sets the global log level.
func SetGlobalLevel(level zerolog.Level) {
	zerolog.SetGlobalLevel(level)
}

func init() {
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	log.Logger = log.Output(zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: "15:04:05",
	})
}
