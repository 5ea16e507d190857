// internal/utils/logger.go
package utils

import (
	"os"
	"path/filepath"
	"sync"

	"github.com/rs/zerolog"
)

// LogLevel mirrors zerolog.Level so callers never import zerolog directly.
type LogLevel int8

const (
	DEBUG LogLevel = iota
	INFO
	WARNING
	ERROR
	FATAL
)

func (l LogLevel) zerolog() zerolog.Level {
	switch l {
	case DEBUG:
		return zerolog.DebugLevel
	case WARNING:
		return zerolog.WarnLevel
	case ERROR:
		return zerolog.ErrorLevel
	case FATAL:
		return zerolog.FatalLevel
	default:
		return zerolog.InfoLevel
	}
}

// Logger wraps a zerolog.Logger behind the call shape the rest of the
// codebase was written against: Info/Warn/Error/Fatal each take a message
// and an optional field map.
type Logger struct {
	mu      sync.Mutex
	zl      zerolog.Logger
	file    *os.File
	enabled bool
}

var (
	globalLogger *Logger
	loggerOnce   sync.Once
)

// GetLogger returns the global logger instance, logging to stdout in
// console-writer form until InitLogger redirects it to a file.
func GetLogger() *Logger {
	loggerOnce.Do(func() {
		globalLogger = &Logger{
			zl:      zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Caller().Logger(),
			enabled: true,
		}
	})
	return globalLogger
}

// InitLogger redirects the global logger to append structured JSON lines to
// logFile, in addition to stdout.
func InitLogger(logFile string) error {
	logger := GetLogger()

	logDir := filepath.Dir(logFile)
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return err
	}

	file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return err
	}

	logger.mu.Lock()
	defer logger.mu.Unlock()

	if logger.file != nil {
		logger.file.Close()
	}
	logger.file = file

	multi := zerolog.MultiLevelWriter(zerolog.ConsoleWriter{Out: os.Stdout}, file)
	logger.zl = zerolog.New(multi).With().Timestamp().Caller().Logger()
	return nil
}

// SetLogLevel sets the minimum level for logging.
func (l *Logger) SetLogLevel(level LogLevel) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.zl = l.zl.Level(level.zerolog())
}

// Enable enables or disables logging.
func (l *Logger) Enable(enabled bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.enabled = enabled
}

func (l *Logger) event(level zerolog.Level, message string, fields map[string]interface{}) {
	l.mu.Lock()
	zl := l.zl
	enabled := l.enabled
	l.mu.Unlock()

	if !enabled {
		return
	}

	ev := zl.WithLevel(level)
	for k, v := range fields {
		ev = ev.Interface(k, v)
	}
	ev.Msg(message)
}

// Debug logs a debug message.
func (l *Logger) Debug(message string, fields map[string]interface{}) {
	l.event(zerolog.DebugLevel, message, fields)
}

// Info logs an info message.
func (l *Logger) Info(message string, fields map[string]interface{}) {
	l.event(zerolog.InfoLevel, message, fields)
}

// Warn logs a warning message.
func (l *Logger) Warn(message string, fields map[string]interface{}) {
	l.event(zerolog.WarnLevel, message, fields)
}

// Error logs an error message.
func (l *Logger) Error(message string, fields map[string]interface{}) {
	l.event(zerolog.ErrorLevel, message, fields)
}

// Fatal logs a message at fatal level. It does not exit the process.
func (l *Logger) Fatal(message string, fields map[string]interface{}) {
	l.event(zerolog.FatalLevel, message, fields)
}
