package logger

import (
	"fmt"
	"os"
	"strings"

	"trend-pulse/src/models"

	"github.com/sirupsen/logrus"
)

// Fields carries structured context attached to every line.
type Fields = logrus.Fields

// -----------------------------------------------------------------------------

// Logger provides structured logging functionality
type Logger struct {
	name  string
	entry *logrus.Entry
}

// -----------------------------------------------------------------------------

// NewLogger creates a new Logger instance.
// config may be *models.MConfig (level and format are read from it) or nil.
func NewLogger(config interface{}, name string) *Logger {
	base := logrus.New()
	base.SetOutput(os.Stdout)
	base.SetLevel(logrus.InfoLevel)
	base.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	if cfg, ok := config.(*models.MConfig); ok && cfg != nil {
		base.SetLevel(ParseLevel(cfg.LogLevel))
		if strings.EqualFold(cfg.LogFormat, "json") {
			base.SetFormatter(&logrus.JSONFormatter{})
		}
	}

	return &Logger{
		name:  name,
		entry: base.WithField("component", name),
	}
}

// -----------------------------------------------------------------------------

// ParseLevel maps config level names onto logrus levels. Unknown names map to info.
func ParseLevel(level string) logrus.Level {
	switch strings.ToUpper(level) {
	case "DEBUG":
		return logrus.DebugLevel
	case "WARNING", "WARN":
		return logrus.WarnLevel
	case "ERROR":
		return logrus.ErrorLevel
	}
	return logrus.InfoLevel
}

// -----------------------------------------------------------------------------

// Named returns a child logger for a sub-component sharing the same output.
func (l *Logger) Named(name string) *Logger {
	full := l.name + "." + name
	return &Logger{
		name:  full,
		entry: l.entry.WithField("component", full),
	}
}

// -----------------------------------------------------------------------------

// WithFields returns a logger that adds fields to every line.
func (l *Logger) WithFields(fields Fields) *Logger {
	return &Logger{
		name:  l.name,
		entry: l.entry.WithFields(fields),
	}
}

// -----------------------------------------------------------------------------

// WithError attaches err under the "error" field.
func (l *Logger) WithError(err error) *Logger {
	return &Logger{
		name:  l.name,
		entry: l.entry.WithError(err),
	}
}

// -----------------------------------------------------------------------------

// Debug logs diagnostic messages
func (l *Logger) Debug(format string, args ...interface{}) {
	l.entry.Debugf(format, args...)
}

// -----------------------------------------------------------------------------

// Info logs informational messages
func (l *Logger) Info(format string, args ...interface{}) {
	l.entry.Infof(format, args...)
}

// -----------------------------------------------------------------------------

// Warning logs recoverable problems
func (l *Logger) Warning(format string, args ...interface{}) {
	l.entry.Warnf(format, args...)
}

// -----------------------------------------------------------------------------

// Error logs error messages
func (l *Logger) Error(format string, args ...interface{}) {
	l.entry.Errorf(format, args...)
}

// -----------------------------------------------------------------------------

// Critical logs critical errors and exits the application
func (l *Logger) Critical(format string, args ...interface{}) {
	l.entry.Errorf("CRITICAL: %s", fmt.Sprintf(format, args...))
	os.Exit(1)
}
