package logger

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"
)

const (
	ansiReset  = "\033[0m"
	ansiRed    = "\033[31m"
	ansiGreen  = "\033[32m"
	ansiYellow = "\033[33m"
	ansiCyan   = "\033[36m"
)

// LogLevel defines the severity of the log
type LogLevel int

const (
	LogLevelSilent LogLevel = iota
	LogLevelError
	LogLevelWarn
	LogLevelInfo
)

// LogFormat defines the output format of the log
type LogFormat string

const (
	LogFormatText LogFormat = "text"
	LogFormatJSON LogFormat = "json"
)

// Logger is the interface for logging statements and internal messages
type Logger interface {
	SetLevel(level LogLevel)
	SetFormat(format LogFormat)
	SetOutput(w io.Writer)
	WithFields(fields map[string]any) Logger
	Info(format string, args ...any)
	Warn(format string, args ...any)
	Error(format string, args ...any)
	SQL(stmt string, duration time.Duration, args ...any)
}

// stdLogger is the default implementation of Logger
type stdLogger struct {
	level  LogLevel
	format LogFormat
	writer io.Writer
	fields map[string]any
}

// NewStdLogger creates a new standard logger
func NewStdLogger() Logger {
	return &stdLogger{
		level:  LogLevelInfo,
		format: LogFormatText,
		writer: os.Stdout,
		fields: make(map[string]any),
	}
}

// NewSilentLogger creates a logger that discards everything.
func NewSilentLogger() Logger {
	l := NewStdLogger()
	l.SetLevel(LogLevelSilent)
	return l
}

func (l *stdLogger) SetLevel(level LogLevel)    { l.level = level }
func (l *stdLogger) SetFormat(format LogFormat) { l.format = format }
func (l *stdLogger) SetOutput(w io.Writer)      { l.writer = w }

func (l *stdLogger) WithFields(fields map[string]any) Logger {
	merged := make(map[string]any, len(l.fields)+len(fields))
	for k, v := range l.fields {
		merged[k] = v
	}
	for k, v := range fields {
		merged[k] = v
	}
	return &stdLogger{
		level:  l.level,
		format: l.format,
		writer: l.writer,
		fields: merged,
	}
}

func (l *stdLogger) Info(format string, args ...any) {
	if l.level >= LogLevelInfo {
		l.log("INFO", fmt.Sprintf(format, args...), nil)
	}
}

func (l *stdLogger) Warn(format string, args ...any) {
	if l.level >= LogLevelWarn {
		l.log("WARN", fmt.Sprintf(format, args...), nil)
	}
}

func (l *stdLogger) Error(format string, args ...any) {
	if l.level >= LogLevelError {
		l.log("ERROR", fmt.Sprintf(format, args...), nil)
	}
}

func (l *stdLogger) SQL(stmt string, duration time.Duration, args ...any) {
	if l.level < LogLevelInfo {
		return
	}
	if l.format == LogFormatJSON {
		l.log("SQL", "", map[string]any{
			"stmt":     stmt,
			"duration": duration.String(),
			"args":     fmt.Sprintf("%v", args),
		})
		return
	}
	msg := fmt.Sprintf("%s[%v] %s | args: %v%s", stmtColor(stmt), duration, stmt, args, ansiReset)
	l.log("SQL", msg, nil)
}

func (l *stdLogger) log(level, msg string, extra map[string]any) {
	now := time.Now()
	if l.format == LogFormatJSON {
		data := make(map[string]any, len(l.fields)+len(extra)+3)
		for k, v := range l.fields {
			data[k] = v
		}
		for k, v := range extra {
			data[k] = v
		}
		data["time"] = now.Format(time.RFC3339)
		data["level"] = level
		if msg != "" {
			data["msg"] = msg
		}
		json.NewEncoder(l.writer).Encode(data)
		return
	}
	fieldStr := ""
	if len(l.fields) > 0 {
		fieldStr = fmt.Sprintf(" fields: %v", l.fields)
	}
	fmt.Fprintf(l.writer, "[UNIDB] %s %s: %s%s\n", now.Format("2006-01-02 15:04:05"), level, msg, fieldStr)
}

func stmtColor(stmt string) string {
	s := strings.TrimSpace(strings.ToUpper(stmt))
	switch {
	case strings.HasPrefix(s, "SELECT"):
		return ansiYellow
	case strings.HasPrefix(s, "INSERT"), strings.HasPrefix(s, "UPDATE"):
		return ansiGreen
	case strings.HasPrefix(s, "DELETE"):
		return ansiRed
	default:
		return ansiCyan
	}
}
