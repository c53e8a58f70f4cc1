package log

import (
	"fmt"
	"os"
	"time"

	"github.com/fatih/color"
)

type Logger interface {
	Prefix(prefix string) Logger

	Ok(format string, args ...interface{})
	Info(format string, args ...interface{})
	Warn(format string, args ...interface{})
	Fatal(format string, args ...interface{})
}

type defaultLogger struct {
	prefix string
}

func NewDefaultLogger() Logger {
	return &defaultLogger{}
}

func (l *defaultLogger) Prefix(prefix string) Logger {
	return &defaultLogger{prefix: prefix}
}

func (l *defaultLogger) Ok(format string, args ...interface{}) {
	l.print(color.New(color.FgGreen).Sprint("  OK "), format, args...)
}

func (l *defaultLogger) Info(format string, args ...interface{}) {
	l.print(color.New(color.FgCyan).Sprint("INFO "), format, args...)
}

func (l *defaultLogger) Warn(format string, args ...interface{}) {
	l.print(color.New(color.FgYellow).Sprint("WARN "), format, args...)
}

func (l *defaultLogger) Fatal(format string, args ...interface{}) {
	l.print(color.New(color.FgRed).Sprint("FATAL"), format, args...)
	os.Exit(1)
}

func (l *defaultLogger) print(level, format string, args ...interface{}) {
	prefix := ""
	if l.prefix != "" {
		prefix = l.prefix + " // "
	}

	fmt.Printf("%s [%s] %s%s\n",
		time.Now().Format("2006-01-02 15:04:05"),
		level,
		prefix,
		fmt.Sprintf(format, args...))
}
