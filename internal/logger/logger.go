// Package logger provides the process-wide structured logger.
// It wraps hclog so packages without an injected logger can still log with key/value pairs.
package logger

import (
	"io"
	"os"
	"strings"
	"sync"

	"github.com/hashicorp/go-hclog"
)

// Options configures the root logger
type Options struct {
	Name   string
	Level  string // trace, debug, info, warn, error
	Format string // json or text
	Output io.Writer
}

var (
	root   hclog.Logger
	rootMu sync.RWMutex
)

func init() {
	root = hclog.New(&hclog.LoggerOptions{
		Name:   "cinecache",
		Level:  hclog.Info,
		Output: os.Stdout,
	})
}

// Configure replaces the root logger
func Configure(opts Options) hclog.Logger {
	output := opts.Output
	if output == nil {
		output = os.Stdout
	}
	name := opts.Name
	if name == "" {
		name = "cinecache"
	}

	l := hclog.New(&hclog.LoggerOptions{
		Name:       name,
		Level:      ParseLevel(opts.Level),
		Output:     output,
		JSONFormat: strings.EqualFold(opts.Format, "json"),
	})

	rootMu.Lock()
	root = l
	rootMu.Unlock()
	return l
}

// ParseLevel converts a level name to an hclog level, defaulting to info
func ParseLevel(level string) hclog.Level {
	lvl := hclog.LevelFromString(level)
	if lvl == hclog.NoLevel {
		return hclog.Info
	}
	return lvl
}

// SetLevel changes the level of the root logger in place
func SetLevel(level string) {
	Get().SetLevel(ParseLevel(level))
}

// Get returns the root logger
func Get() hclog.Logger {
	rootMu.RLock()
	defer rootMu.RUnlock()
	return root
}

// Named returns a sub-logger of the root logger
func Named(name string) hclog.Logger {
	return Get().Named(name)
}

// Info logs informational messages
func Info(msg string, args ...interface{}) {
	Get().Info(msg, args...)
}

// Warn logs warning messages
func Warn(msg string, args ...interface{}) {
	Get().Warn(msg, args...)
}

// Error logs error messages
func Error(msg string, args ...interface{}) {
	Get().Error(msg, args...)
}

// Debug logs debug messages
func Debug(msg string, args ...interface{}) {
	Get().Debug(msg, args...)
}
