package logger

import (
	"strings"
	"sync"

	"github.com/rs/zerolog"

	corelogger "github.com/kilianp07/swapstation/core/logger"
)

// Logger mirrors the core logger interface.
type Logger = corelogger.Logger

// NopLogger implements Logger with no-op methods.
type NopLogger struct{}

func (NopLogger) Debugf(string, ...any)         {}
func (NopLogger) Debugw(string, map[string]any) {}
func (NopLogger) Infof(string, ...any)          {}
func (NopLogger) Warnf(string, ...any)          {}
func (NopLogger) Errorf(string, ...any)         {}

// Options controls the output of loggers created by New.
type Options struct {
	// Level is a zerolog level name ("debug", "info", ...). Empty means info.
	Level string
	// Format is "json" or "console". Empty defers to APP_ENV.
	Format string
}

var (
	optsMu sync.RWMutex
	opts   Options
)

// Configure sets the options used by subsequent calls to New.
func Configure(o Options) {
	optsMu.Lock()
	opts = o
	optsMu.Unlock()
}

func current() Options {
	optsMu.RLock()
	defer optsMu.RUnlock()
	return opts
}

// New returns a Logger for the given component.
func New(component string) Logger {
	return NewZerologLogger(component)
}

func parseLevel(s string) zerolog.Level {
	lvl, err := zerolog.ParseLevel(strings.ToLower(s))
	if err != nil || s == "" {
		return zerolog.InfoLevel
	}
	return lvl
}
