// Package logger prints tagged, coloured status lines to the console.
package logger

import (
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/mattn/go-isatty"
)

const (
	reset  = "\033[0m"
	bold   = "\033[1m"
	dim    = "\033[2m"
	red    = "\033[31m"
	green  = "\033[32m"
	yellow = "\033[33m"
	blue   = "\033[34m"
	cyan   = "\033[36m"
)

var mu sync.Mutex

// colour reports whether stdout is a terminal. os.Stdout is read on every
// call so redirected output is never coloured.
func colour() bool {
	fd := os.Stdout.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

func paint(code, s string) string {
	if !colour() {
		return s
	}
	return code + s + reset
}

func line(code, symbol, tag, msg string) {
	mu.Lock()
	defer mu.Unlock()
	ts := paint(dim, time.Now().Format("15:04:05"))
	fmt.Fprintf(os.Stdout, "%s %s %s %s\n", ts, paint(code, symbol), paint(bold, fmt.Sprintf("[%s]", tag)), msg)
}

// Info logs a neutral progress message.
func Info(tag, msg string) { line(blue, "•", tag, msg) }

// Success logs a completed step.
func Success(tag, msg string) { line(green, "✓", tag, msg) }

// Warn logs a recoverable problem.
func Warn(tag, msg string) { line(yellow, "!", tag, msg) }

// Error logs a failure.
func Error(tag, msg string) { line(red, "✗", tag, msg) }

// Banner prints the startup banner.
func Banner(version string) {
	if version == "" {
		version = "dev"
	}
	mu.Lock()
	defer mu.Unlock()
	fmt.Fprintln(os.Stdout, paint(cyan+bold, "  ✦ starmap "+version))
	fmt.Fprintln(os.Stdout, paint(dim, "  jump routes across the galaxy"))
	fmt.Fprintln(os.Stdout)
}

// Section prints a heading for a block of Stats lines.
func Section(title string) {
	mu.Lock()
	defer mu.Unlock()
	fmt.Fprintf(os.Stdout, "\n%s\n%s\n", paint(bold, title), paint(dim, strings.Repeat("─", len(title))))
}

// Stats prints one key/value line under a Section.
func Stats(key string, value any) {
	mu.Lock()
	defer mu.Unlock()
	fmt.Fprintf(os.Stdout, "  %-20s %s\n", key, paint(cyan, fmt.Sprint(value)))
}

// Server announces the listen address.
func Server(addr string) {
	line(green, "→", "Server", fmt.Sprintf("Listening on http://%s", addr))
}
