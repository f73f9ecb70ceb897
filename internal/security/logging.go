// Package security provides structured logging for the archive API.
// Every entry is a single JSON line so log shippers can index fields directly.
package security

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"time"
)

// LogLevel is the severity of a log entry.
type LogLevel string

const (
	LogLevelInfo     LogLevel = "INFO"
	LogLevelWarning  LogLevel = "WARNING"
	LogLevelError    LogLevel = "ERROR"
	LogLevelCritical LogLevel = "CRITICAL"
	LogLevelSecurity LogLevel = "SECURITY"
)

// SecurityEventType classifies security-relevant events.
type SecurityEventType string

const (
	EventRateLimitExceeded   SecurityEventType = "rate_limit_exceeded"
	EventInvalidInput        SecurityEventType = "invalid_input"
	EventOversizedQuery      SecurityEventType = "oversized_query"
	EventSQLInjectionAttempt SecurityEventType = "sql_injection_attempt"
	EventXSSAttempt          SecurityEventType = "xss_attempt"
	EventPanicRecovered      SecurityEventType = "panic_recovered"
)

// LogEntry is the JSON shape of one log line.
type LogEntry struct {
	Timestamp time.Time         `json:"timestamp"`
	Level     LogLevel          `json:"level"`
	Message   string            `json:"message"`
	EventType SecurityEventType `json:"event_type,omitempty"`

	// HTTP request fields
	Method    string `json:"method,omitempty"`
	Path      string `json:"path,omitempty"`
	Status    int    `json:"status,omitempty"`
	LatencyMS int64  `json:"latency_ms,omitempty"`
	IPAddress string `json:"ip_address,omitempty"`
	UserAgent string `json:"user_agent,omitempty"`
	RequestID string `json:"request_id,omitempty"`

	Error string                 `json:"error,omitempty"`
	Extra map[string]interface{} `json:"extra,omitempty"`
}

// Logger writes JSON log entries to stdout.
type Logger struct {
	output *log.Logger
}

// NewLogger creates a Logger writing to stdout without a prefix.
func NewLogger() *Logger {
	return NewLoggerTo(os.Stdout)
}

// NewLoggerTo creates a Logger writing to w.
func NewLoggerTo(w io.Writer) *Logger {
	return &Logger{
		output: log.New(w, "", 0),
	}
}

// Info logs an informational message.
func (l *Logger) Info(message string) {
	l.write(LogEntry{Level: LogLevelInfo, Message: message})
}

// Infof logs a formatted informational message.
func (l *Logger) Infof(format string, args ...interface{}) {
	l.Info(fmt.Sprintf(format, args...))
}

// Warn logs a warning.
func (l *Logger) Warn(message string) {
	l.write(LogEntry{Level: LogLevelWarning, Message: message})
}

// Error logs an error. err may be nil.
func (l *Logger) Error(message string, err error) {
	l.write(LogEntry{Level: LogLevelError, Message: message, Error: errString(err)})
}

// RequestError logs an error raised while serving a request, keyed by its request id.
func (l *Logger) RequestError(requestID, method, path string, status int, err error) {
	l.write(LogEntry{
		Level:     LogLevelError,
		Message:   fmt.Sprintf("%s %s failed with %d", method, path, status),
		Method:    method,
		Path:      path,
		Status:    status,
		RequestID: requestID,
		Error:     errString(err),
	})
}

// Critical logs a failure that prevents the service from running.
func (l *Logger) Critical(message string, err error) {
	l.write(LogEntry{Level: LogLevelCritical, Message: message, Error: errString(err)})
}

// HTTPRequest logs a completed HTTP request.
//
// Parameters:
//   - method, path: Request line
//   - status: Response status code
//   - latencyMs: Handling time in milliseconds
//   - ip, userAgent: Client identification
//   - requestID: Value echoed in X-Request-ID
func (l *Logger) HTTPRequest(method, path string, status int, latencyMs int64, ip, userAgent, requestID string) {
	level := LogLevelInfo
	switch {
	case status >= 500:
		level = LogLevelError
	case status >= 400:
		level = LogLevelWarning
	}

	l.write(LogEntry{
		Level:     level,
		Message:   fmt.Sprintf("%s %s %d", method, path, status),
		Method:    method,
		Path:      path,
		Status:    status,
		LatencyMS: latencyMs,
		IPAddress: ip,
		UserAgent: userAgent,
		RequestID: requestID,
	})
}

// SecurityEvent logs a security-relevant event such as a rejected request.
func (l *Logger) SecurityEvent(eventType SecurityEventType, ip, userAgent, requestID string, extra map[string]interface{}) {
	l.write(LogEntry{
		Level:     LogLevelSecurity,
		Message:   fmt.Sprintf("Security event: %s", eventType),
		EventType: eventType,
		IPAddress: ip,
		UserAgent: userAgent,
		RequestID: requestID,
		Extra:     extra,
	})
}

func (l *Logger) write(entry LogEntry) {
	entry.Timestamp = time.Now().UTC()

	data, err := json.Marshal(entry)
	if err != nil {
		// Extra can hold unmarshalable values; fall back to a plain line.
		l.output.Printf(`{"level":%q,"message":%q,"error":"log marshal failed"}`, entry.Level, entry.Message)
		return
	}
	l.output.Println(string(data))
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
