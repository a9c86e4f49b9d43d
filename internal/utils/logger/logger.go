package logger

import (
	"fmt"
	"os"
	"time"

	"github.com/fatih/color"
)

// Logger is a scoped console logger. One instance per subsystem, created with
// New("MAILER") style scopes.
type Logger struct {
	scope string
	debug bool
}

var (
	infoColor    = color.New(color.FgCyan)
	successColor = color.New(color.FgGreen)
	warnColor    = color.New(color.FgYellow)
	errorColor   = color.New(color.FgRed, color.Bold)
	debugColor   = color.New(color.FgMagenta)
	scopeColor   = color.New(color.FgWhite, color.Bold)
)

func New(scope string) *Logger {
	return &Logger{
		scope: scope,
		debug: os.Getenv("DEBUG") == "true",
	}
}

func (l *Logger) print(c *color.Color, level, format string, args ...interface{}) {
	ts := time.Now().Format("2006-01-02 15:04:05")
	fmt.Fprintf(os.Stderr, "%s %s %s %s\n",
		ts,
		c.Sprintf("%-7s", level),
		scopeColor.Sprintf("[%s]", l.scope),
		fmt.Sprintf(format, args...),
	)
}

func (l *Logger) Info(format string, args ...interface{}) {
	l.print(infoColor, "INFO", format, args...)
}

func (l *Logger) Success(format string, args ...interface{}) {
	l.print(successColor, "SUCCESS", format, args...)
}

func (l *Logger) Warn(format string, args ...interface{}) {
	l.print(warnColor, "WARN", format, args...)
}

func (l *Logger) Debug(format string, args ...interface{}) {
	if !l.debug {
		return
	}
	l.print(debugColor, "DEBUG", format, args...)
}

// Error logs msg with err and returns the wrapped error so call sites can
// `return log.Error("failed to load settings", err)`.
func (l *Logger) Error(msg string, err error) error {
	if err == nil {
		l.print(errorColor, "ERROR", "%s", msg)
		return fmt.Errorf("%s", msg)
	}
	l.print(errorColor, "ERROR", "%s: %v", msg, err)
	return fmt.Errorf("%s: %w", msg, err)
}

// Errorf logs a formatted error message without an underlying error value.
func (l *Logger) Errorf(format string, args ...interface{}) {
	l.print(errorColor, "ERROR", format, args...)
}
