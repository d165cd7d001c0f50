// Package logger is Scribe's process-wide logger. Debug and Info output is
// shown only with --verbose; warnings and errors are always written so
// degraded paths (cache outages, retries, dropped generation parameters)
// stay visible.
package logger

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/fatih/color"
)

var (
	mu      sync.RWMutex
	verbose bool
	colour  bool
	output  io.Writer = os.Stderr
)

var (
	warnPrefix  = forced(color.FgYellow, color.Bold)
	errorPrefix = forced(color.FgRed, color.Bold)
	debugPrefix = forced(color.Faint)
)

// forced builds a colour that ignores color.NoColor; SetColour decides instead.
func forced(attrs ...color.Attribute) *color.Color {
	c := color.New(attrs...)
	c.EnableColor()
	return c
}

// SetVerbose enables or disables verbose logging.
func SetVerbose(v bool) {
	mu.Lock()
	defer mu.Unlock()
	verbose = v
}

// IsVerbose returns true if verbose mode is enabled.
func IsVerbose() bool {
	mu.RLock()
	defer mu.RUnlock()
	return verbose
}

// SetColour enables ANSI-coloured level prefixes. Off by default; the CLI
// turns it on when stderr is a terminal.
func SetColour(v bool) {
	mu.Lock()
	defer mu.Unlock()
	colour = v
}

// SetOutput sets the output writer. Defaults to os.Stderr.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	output = w
}

func write(c *color.Color, prefix, format string, args ...any) {
	if colour {
		prefix = c.Sprint(prefix)
	}
	fmt.Fprintf(output, prefix+" "+format+"\n", args...)
}

// Debug prints a message if verbose mode is enabled.
func Debug(format string, args ...any) {
	mu.RLock()
	defer mu.RUnlock()
	if verbose {
		write(debugPrefix, "[DEBUG]", format, args...)
	}
}

// Section prints a section header if verbose mode is enabled.
func Section(name string) {
	mu.RLock()
	defer mu.RUnlock()
	if verbose {
		fmt.Fprintf(output, "\n=== %s ===\n", name)
	}
}

// Info prints an informational message if verbose mode is enabled.
func Info(format string, args ...any) {
	mu.RLock()
	defer mu.RUnlock()
	if verbose {
		fmt.Fprintf(output, "[INFO] "+format+"\n", args...)
	}
}

// Warn always prints.
func Warn(format string, args ...any) {
	mu.RLock()
	defer mu.RUnlock()
	write(warnPrefix, "[WARN]", format, args...)
}

// Error always prints.
func Error(format string, args ...any) {
	mu.RLock()
	defer mu.RUnlock()
	write(errorPrefix, "[ERROR]", format, args...)
}
