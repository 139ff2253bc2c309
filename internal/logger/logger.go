package logger

import (
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// Fields type alias for logrus.Fields
type Fields map[string]interface{}

// Log wraps logrus.Logger with component helpers
type Log struct {
	*logrus.Logger
}

// Entry wraps logrus.Entry
type Entry struct {
	*logrus.Entry
}

var (
	globalLogger *Log
	once         sync.Once
)

// New creates a JSON logger writing to out at the given level.
// Unknown levels fall back to info.
func New(out io.Writer, level string) *Log {
	l := logrus.New()
	l.SetOutput(out)
	l.SetLevel(ParseLevel(level))
	l.SetFormatter(&logrus.JSONFormatter{
		TimestampFormat: time.RFC3339Nano,
		FieldMap: logrus.FieldMap{
			logrus.FieldKeyTime:  "timestamp",
			logrus.FieldKeyLevel: "level",
			logrus.FieldKeyMsg:   "message",
		},
	})
	return &Log{Logger: l}
}

// ParseLevel converts a level string, defaulting to info
func ParseLevel(level string) logrus.Level {
	lvl, err := logrus.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil {
		return logrus.InfoLevel
	}
	return lvl
}

// GetLogger returns the process logger, created on first use from IRIS_LOG_LEVEL
func GetLogger() *Log {
	once.Do(func() {
		if globalLogger == nil {
			globalLogger = New(os.Stderr, os.Getenv("IRIS_LOG_LEVEL"))
		}
	})
	return globalLogger
}

// SetLogger replaces the process logger (used by main after config load and by tests)
func SetLogger(l *Log) {
	once.Do(func() {})
	globalLogger = l
}

// Discard returns a logger that drops everything
func Discard() *Log {
	return New(io.Discard, "panic")
}

func (l *Log) WithComponent(component string) *Entry {
	return &Entry{Entry: l.Logger.WithField("component", component)}
}

func (l *Log) WithFields(fields Fields) *Entry {
	return &Entry{Entry: l.Logger.WithFields(logrus.Fields(fields))}
}

func (e *Entry) WithFields(fields Fields) *Entry {
	return &Entry{Entry: e.Entry.WithFields(logrus.Fields(fields))}
}

func (e *Entry) WithError(err error) *Entry {
	return &Entry{Entry: e.Entry.WithError(err)}
}

// Component returns an entry for the named component on the process logger
func Component(name string) *Entry {
	return GetLogger().WithComponent(name)
}
