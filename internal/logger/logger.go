package logger

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"
)

// Logger provides structured key=value logging for journald
type Logger struct {
	mu     sync.Mutex
	writer io.Writer
}

// New creates a new logger instance
func New() *Logger {
	return &Logger{
		writer: os.Stdout,
	}
}

// NewWithWriter creates a logger with a custom writer
func NewWithWriter(w io.Writer) *Logger {
	return &Logger{
		writer: w,
	}
}

// Info logs informational messages
func (l *Logger) Info(msg string, fields ...Field) {
	l.log("INFO", msg, fields...)
}

// Error logs error messages
func (l *Logger) Error(msg string, fields ...Field) {
	l.log("ERROR", msg, fields...)
}

// Warn logs warning messages
func (l *Logger) Warn(msg string, fields ...Field) {
	l.log("WARNING", msg, fields...)
}

// Debug logs debug messages
func (l *Logger) Debug(msg string, fields ...Field) {
	l.log("DEBUG", msg, fields...)
}

func (l *Logger) log(level, msg string, fields ...Field) {
	var b strings.Builder
	fmt.Fprintf(&b, "LEVEL=%s MESSAGE=%s", level, msg)
	for _, field := range fields {
		fmt.Fprintf(&b, " %s=%s", field.Key, formatValue(field.Value))
	}
	// gin serves requests concurrently; one line per call.
	l.mu.Lock()
	defer l.mu.Unlock()
	_, _ = fmt.Fprintln(l.writer, b.String())
}

// formatValue quotes values carrying line breaks so one call stays one line.
func formatValue(v interface{}) string {
	s := fmt.Sprintf("%v", v)
	if strings.ContainsAny(s, "\r\n") {
		return strconv.Quote(s)
	}
	return s
}

// Field represents a key-value pair for structured logging
type Field struct {
	Key   string
	Value interface{}
}

// F creates a new field (shorthand)
func F(key string, value interface{}) Field {
	return Field{Key: key, Value: value}
}

// Common field constructors
func Action(value string) Field          { return F("ACTION", value) }
func Status(value string) Field          { return F("STATUS", value) }
func Error(value error) Field            { return F("ERROR", value) }
func Submission(value string) Field      { return F("SUBMISSION", value) }
func Recipient(value string) Field       { return F("RECIPIENT", value) }
func Stage(value string) Field           { return F("STAGE", value) }
func Delivered(value int) Field          { return F("DELIVERED", value) }
func Missing(value []string) Field       { return F("MISSING", strings.Join(value, ",")) }
func Method(value string) Field          { return F("METHOD", value) }
func Path(value string) Field            { return F("PATH", value) }
func Code(value int) Field               { return F("CODE", value) }
func Duration(value time.Duration) Field { return F("DURATION", value) }
func RequestID(value string) Field       { return F("REQUEST_ID", value) }
func Addr(value string) Field            { return F("ADDR", value) }
