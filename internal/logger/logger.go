package logger

import (
	"sync"
)

// Log levels used across the application.
const (
	DebugLevel = "debug"
	InfoLevel  = "info"
	WarnLevel  = "warn"
	ErrorLevel = "error"
)

var (
	// globalLogger holds the singleton logger instance.
	globalLogger *Logger
	once         sync.Once
)

// Get returns a singleton logger configured with the provided level and options.
// The first call initializes the logger; subsequent calls ignore their arguments
// and return the already initialized instance.
func Get(level string, opts ...Option) *Logger {
	once.Do(func() {
		globalLogger = New(level, opts...)
	})
	return globalLogger
}

// Option customizes a logger built by New.
type Option func(*options)

type options struct {
	file       string
	maxSizeMB  int
	maxBackups int
	maxAgeDays int
}

// WithFile adds a size-rotated file sink next to stdout.
func WithFile(path string) Option {
	return func(o *options) { o.file = path }
}

// WithRotation overrides the rotation limits of the file sink.
func WithRotation(maxSizeMB, maxBackups, maxAgeDays int) Option {
	return func(o *options) {
		o.maxSizeMB = maxSizeMB
		o.maxBackups = maxBackups
		o.maxAgeDays = maxAgeDays
	}
}
