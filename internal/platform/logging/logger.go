// Package logging provides a small structured logger shared by both services,
// generalized from the single-service banking API's internal logger.
package logging

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strings"
	"time"
)

type Level int

const (
	DEBUG Level = iota
	INFO
	WARN
	ERROR
)

func (l Level) String() string {
	switch l {
	case DEBUG:
		return "DEBUG"
	case INFO:
		return "INFO"
	case WARN:
		return "WARN"
	case ERROR:
		return "ERROR"
	default:
		return "INFO"
	}
}

// Fields is a convenience alias for structured log attributes.
type Fields map[string]interface{}

type Logger struct {
	level   Level
	format  string
	service string
	logger  *log.Logger
	fields  Fields
}

type LogEntry struct {
	Timestamp string                 `json:"timestamp"`
	Level     string                 `json:"level"`
	Service   string                 `json:"service,omitempty"`
	Message   string                 `json:"message"`
	Fields    map[string]interface{} `json:"fields,omitempty"`
}

var defaultLogger *Logger

// Init configures the package-level default logger. service names the
// process ("customer-service" / "account-service") and is attached to every
// entry so that log aggregation can tell the two apart.
func Init(service, level, format string) {
	defaultLogger = New(service, level, format)
}

// New builds a standalone Logger, useful for request-scoped loggers that
// carry extra fields (request id, correlation id) via With.
func New(service, level, format string) *Logger {
	return &Logger{
		level:   parseLevel(level),
		format:  format,
		service: service,
		logger:  log.New(os.Stdout, "", 0),
	}
}

func parseLevel(levelStr string) Level {
	switch strings.ToUpper(levelStr) {
	case "DEBUG":
		return DEBUG
	case "INFO":
		return INFO
	case "WARN":
		return WARN
	case "ERROR":
		return ERROR
	default:
		return INFO
	}
}

// With returns a child logger that merges extraFields into every entry it
// writes, leaving the receiver untouched.
func (l *Logger) With(extraFields Fields) *Logger {
	merged := make(Fields, len(l.fields)+len(extraFields))
	for k, v := range l.fields {
		merged[k] = v
	}
	for k, v := range extraFields {
		merged[k] = v
	}
	return &Logger{level: l.level, format: l.format, service: l.service, logger: l.logger, fields: merged}
}

func (l *Logger) log(level Level, message string, fields Fields) {
	if l == nil || level < l.level {
		return
	}

	merged := fields
	if len(l.fields) > 0 {
		merged = make(Fields, len(l.fields)+len(fields))
		for k, v := range l.fields {
			merged[k] = v
		}
		for k, v := range fields {
			merged[k] = v
		}
	}

	entry := LogEntry{
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Level:     level.String(),
		Service:   l.service,
		Message:   message,
		Fields:    merged,
	}

	var output string
	if l.format == "json" {
		jsonData, _ := json.Marshal(entry)
		output = string(jsonData)
	} else {
		output = fmt.Sprintf("[%s] %s %s %s", entry.Timestamp, entry.Level, entry.Service, entry.Message)
		if len(merged) > 0 {
			fieldsStr, _ := json.Marshal(merged)
			output += fmt.Sprintf(" %s", fieldsStr)
		}
	}

	l.logger.Println(output)
}

func (l *Logger) Debug(message string, fields ...Fields) { l.log(DEBUG, message, firstOrNil(fields)) }
func (l *Logger) Info(message string, fields ...Fields)  { l.log(INFO, message, firstOrNil(fields)) }
func (l *Logger) Warn(message string, fields ...Fields)  { l.log(WARN, message, firstOrNil(fields)) }

func (l *Logger) Error(message string, err error, fields Fields) {
	if fields == nil {
		fields = make(Fields)
	}
	if err != nil {
		fields["error"] = err.Error()
	}
	l.log(ERROR, message, fields)
}

func firstOrNil(fields []Fields) Fields {
	if len(fields) > 0 {
		return fields[0]
	}
	return nil
}

// Package-level helpers delegate to the default logger, matching the
// teacher's Debug/Info/Warn/Error call sites that don't carry a logger
// instance through every layer.
func Debug(message string, fields ...Fields) { defaultLogger.Debug(message, fields...) }
func Info(message string, fields ...Fields)  { defaultLogger.Info(message, fields...) }
func Warn(message string, fields ...Fields)  { defaultLogger.Warn(message, fields...) }
func Error(message string, err error, fields Fields) {
	defaultLogger.Error(message, err, fields)
}

// Default returns the package-level logger, for components that want to
// derive a child via With.
func Default() *Logger {
	return defaultLogger
}
