package mocks

import (
	"fmt"
	"strings"
	"sync"

	"github.com/user/squeeze/pkg/ports"
)

// LogEntry is one recorded log call.
type LogEntry struct {
	Level     ports.LogLevel
	Component string
	Key       string
	Message   string
}

type logRecord struct {
	mu      sync.Mutex
	entries []LogEntry
}

// Logger is a mock implementation of ports.Logger that records every call.
type Logger struct {
	log       *logRecord
	component string
}

// NewLogger creates a new recording Logger.
func NewLogger() *Logger {
	return &Logger{log: &logRecord{}}
}

func (m *Logger) record(level ports.LogLevel, key string, args []interface{}) {
	msg := key
	if len(args) > 0 {
		msg = fmt.Sprintf(key, args...)
	}
	m.log.mu.Lock()
	defer m.log.mu.Unlock()
	m.log.entries = append(m.log.entries, LogEntry{
		Level:     level,
		Component: m.component,
		Key:       key,
		Message:   msg,
	})
}

func (m *Logger) Debug(msg string, args ...interface{}) { m.record(ports.LevelDebug, msg, args) }
func (m *Logger) Info(msg string, args ...interface{})  { m.record(ports.LevelInfo, msg, args) }
func (m *Logger) Warn(msg string, args ...interface{})  { m.record(ports.LevelWarn, msg, args) }
func (m *Logger) Error(msg string, args ...interface{}) { m.record(ports.LevelError, msg, args) }

// WithComponent returns a Logger sharing the same record.
func (m *Logger) WithComponent(component string) ports.Logger {
	return &Logger{log: m.log, component: component}
}

// Entries returns a copy of all recorded entries.
func (m *Logger) Entries() []LogEntry {
	m.log.mu.Lock()
	defer m.log.mu.Unlock()
	out := make([]LogEntry, len(m.log.entries))
	copy(out, m.log.entries)
	return out
}

// Contains reports whether any formatted message contains s.
func (m *Logger) Contains(s string) bool {
	for _, e := range m.Entries() {
		if strings.Contains(e.Message, s) {
			return true
		}
	}
	return false
}

var _ ports.Logger = (*Logger)(nil)
