// Package logging is a small leveled logger with colored output and optional
// rotating log files.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fatih/color"
	"gopkg.in/natefinch/lumberjack.v2"
)

const FileName = "merkvault.log"

// LoggerI is the logging interface used across the module
type LoggerI interface {
	Debug(msg string)
	Info(msg string)
	Warn(msg string)
	Error(msg string)
	Debugf(format string, args ...interface{})
	Infof(format string, args ...interface{})
	Warnf(format string, args ...interface{})
	Errorf(format string, args ...interface{})
}

type Level int32

const (
	DebugLevel Level = -4
	InfoLevel  Level = 0
	WarnLevel  Level = 4
	ErrorLevel Level = 8
)

// ParseLevel maps a level name to a Level. An empty name means info.
func ParseLevel(name string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "debug":
		return DebugLevel, nil
	case "", "info":
		return InfoLevel, nil
	case "warn", "warning":
		return WarnLevel, nil
	case "error":
		return ErrorLevel, nil
	}
	return InfoLevel, fmt.Errorf("unknown log level %q", name)
}

var _ LoggerI = &Logger{}

// Config holds the logging level and output writer
type Config struct {
	Level Level
	Out   io.Writer
	// Disable colors, for writers that aren't terminals
	Plain bool
}

type Logger struct {
	config Config
}

func (l *Logger) Debug(msg string) { l.log(DebugLevel, color.BlueString, "DEBUG: "+msg) }
func (l *Logger) Info(msg string)  { l.log(InfoLevel, color.GreenString, "INFO: "+msg) }
func (l *Logger) Warn(msg string)  { l.log(WarnLevel, color.YellowString, "WARN: "+msg) }
func (l *Logger) Error(msg string) { l.log(ErrorLevel, color.RedString, "ERROR: "+msg) }

func (l *Logger) Debugf(format string, args ...interface{}) { l.Debug(fmt.Sprintf(format, args...)) }
func (l *Logger) Infof(format string, args ...interface{})  { l.Info(fmt.Sprintf(format, args...)) }
func (l *Logger) Warnf(format string, args ...interface{})  { l.Warn(fmt.Sprintf(format, args...)) }
func (l *Logger) Errorf(format string, args ...interface{}) { l.Error(fmt.Sprintf(format, args...)) }

func (l *Logger) log(level Level, paint func(string, ...interface{}) string, msg string) {
	if l.config.Level > level {
		return
	}
	ts := time.Now().Format(time.StampMilli)
	if !l.config.Plain {
		ts = color.HiBlackString(ts)
		msg = paintLines(paint, msg)
	}
	if _, err := fmt.Fprintf(l.config.Out, "%s %s\n", ts, msg); err != nil {
		fmt.Fprintf(os.Stderr, "failed to write log: %v\n", err)
	}
}

// paintLines colors each line separately so multi-line messages keep their
// color in every line.
func paintLines(paint func(string, ...interface{}) string, msg string) string {
	lines := strings.Split(msg, "\n")
	for i, line := range lines {
		lines[i] = paint("%s", line)
	}
	return strings.Join(lines, "\n")
}

// NewLogger creates a Logger. If config.Out is nil, output goes to stdout,
// and also to a rotating file in logDir when logDir is not empty.
func NewLogger(config Config, logDir string) (LoggerI, error) {
	if config.Out == nil {
		config.Out = os.Stdout
		if logDir != "" {
			if err := os.MkdirAll(logDir, 0755); err != nil {
				return nil, fmt.Errorf("creating log directory: %w", err)
			}
			config.Out = io.MultiWriter(os.Stdout, &lumberjack.Logger{
				Filename:   filepath.Join(logDir, FileName),
				MaxSize:    1, // megabyte
				MaxBackups: 10,
				MaxAge:     14, // days
				Compress:   true,
			})
		}
	}
	return &Logger{config: config}, nil
}

// NewDefaultLogger logs at info level to stdout
func NewDefaultLogger() LoggerI {
	return &Logger{config: Config{Level: InfoLevel, Out: os.Stdout}}
}

// NewNullLogger discards everything
func NewNullLogger() LoggerI {
	return &Logger{config: Config{Level: DebugLevel, Out: io.Discard}}
}
