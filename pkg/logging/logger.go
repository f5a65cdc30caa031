package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Logger provides leveled logging for autorecord components.
// By default all logs are written to a session-specific file in
// ~/.autorecord/logs/ as JSON lines, one field set per entry.
type Logger struct {
	sessionID string
	component string
	file      *os.File
	zlog      zerolog.Logger
	logPath   string
	closeOnce sync.Once
}

var (
	// Global session ID for the current execution
	sessionID     string
	sessionIDOnce sync.Once

	// logDir is the directory where log files are stored
	logDir string

	initOnce sync.Once
	initErr  error

	// consoleMu guards console, which mirrors every logger to stderr when set
	consoleMu sync.RWMutex
	console   io.Writer
)

func getSessionID() string {
	sessionIDOnce.Do(func() {
		sessionID = uuid.New().String()
	})
	return sessionID
}

func initLogDirectory() error {
	initOnce.Do(func() {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			initErr = fmt.Errorf("failed to get home directory: %w", err)
			return
		}

		logDir = filepath.Join(homeDir, ".autorecord", "logs")
		if err := os.MkdirAll(logDir, 0750); err != nil {
			initErr = fmt.Errorf("failed to create log directory: %w", err)
			return
		}
	})
	return initErr
}

// EnableConsole mirrors loggers created afterwards to w in human-readable form.
func EnableConsole(w io.Writer) {
	consoleMu.Lock()
	defer consoleMu.Unlock()
	console = zerolog.ConsoleWriter{Out: w, TimeFormat: "15:04:05.000"}
}

func withConsole(w io.Writer) io.Writer {
	consoleMu.RLock()
	defer consoleMu.RUnlock()
	if console == nil {
		return w
	}
	return zerolog.MultiLevelWriter(w, console)
}

// NewLogger creates a new logger for a specific component.
// The logger writes to ~/.autorecord/logs/<session-id>-autorecord.log
//
// If the log directory cannot be created or the log file cannot be opened,
// it returns a fallback logger that writes to stderr along with the error.
func NewLogger(component string) (*Logger, error) {
	if err := initLogDirectory(); err != nil {
		return newFallbackLogger(component, err), err
	}

	sessID := getSessionID()
	logPath := filepath.Join(logDir, fmt.Sprintf("%s-autorecord.log", sessID))

	// Append mode: every component shares the session file
	file, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
	if err != nil {
		return newFallbackLogger(component, fmt.Errorf("failed to open log file: %w", err)), err
	}

	return &Logger{
		sessionID: sessID,
		component: component,
		file:      file,
		zlog:      newZerolog(withConsole(file), sessID, component),
		logPath:   logPath,
	}, nil
}

// NewWriterLogger creates a logger that writes JSON lines to w.
func NewWriterLogger(component string, w io.Writer) *Logger {
	return &Logger{
		sessionID: getSessionID(),
		component: component,
		zlog:      newZerolog(w, getSessionID(), component),
	}
}

// Nop returns a logger that discards everything.
func Nop() *Logger {
	return &Logger{component: "nop", zlog: zerolog.Nop()}
}

func newFallbackLogger(component string, err error) *Logger {
	l := &Logger{
		sessionID: getSessionID(),
		component: component,
		zlog: newZerolog(zerolog.ConsoleWriter{Out: os.Stderr}, getSessionID(), component).
			With().Caller().Logger(),
	}
	l.Warnf("Failed to initialize file logging: %v", err)
	l.Warnf("Falling back to stderr logging")
	return l
}

func newZerolog(w io.Writer, sessID, component string) zerolog.Logger {
	return zerolog.New(w).With().
		Timestamp().
		Str("session", sessID).
		Str("component", component).
		Logger()
}

// With returns a child logger for a sub-component, sharing the same output.
func (l *Logger) With(component string) *Logger {
	return &Logger{
		sessionID: l.sessionID,
		component: component,
		zlog:      l.zlog.With().Str("component", component).Logger(),
		logPath:   l.logPath,
	}
}

// Printf logs a formatted message at info level.
func (l *Logger) Printf(format string, v ...interface{}) {
	l.zlog.Info().Msgf(format, v...)
}

// Debugf logs a debug-level message
func (l *Logger) Debugf(format string, v ...interface{}) {
	l.zlog.Debug().Msgf(format, v...)
}

// Infof logs an info-level message
func (l *Logger) Infof(format string, v ...interface{}) {
	l.zlog.Info().Msgf(format, v...)
}

// Warnf logs a warning-level message
func (l *Logger) Warnf(format string, v ...interface{}) {
	l.zlog.Warn().Msgf(format, v...)
}

// Errorf logs an error-level message
func (l *Logger) Errorf(format string, v ...interface{}) {
	l.zlog.Error().Msgf(format, v...)
}

// Writer returns an io.Writer that writes to this logger's file
func (l *Logger) Writer() io.Writer {
	if l.file != nil {
		return l.file
	}
	return os.Stderr
}

// SessionID returns the current session ID
func (l *Logger) SessionID() string {
	return l.sessionID
}

// LogPath returns the path to the log file
func (l *Logger) LogPath() string {
	return l.logPath
}

// Close closes the log file. Safe to call multiple times.
func (l *Logger) Close() error {
	var err error
	l.closeOnce.Do(func() {
		if l.file != nil {
			err = l.file.Close()
		}
	})
	return err
}

// GetSessionID returns the current global session ID
func GetSessionID() string {
	return getSessionID()
}

// GetLogDirectory returns the directory where logs are stored
func GetLogDirectory() (string, error) {
	if err := initLogDirectory(); err != nil {
		return "", err
	}
	return logDir, nil
}

// SetLevel sets the minimum level for every logger.
// Valid values: debug, info, warn, error.
func SetLevel(level string) error {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", level, err)
	}
	zerolog.SetGlobalLevel(lvl)
	return nil
}
