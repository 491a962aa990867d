package debug

import (
	"fmt"
	"os"
	"sync"
	"time"
)

// Logger prints CPU-trace and memory-bus-diagnostic entries to stderr
// as they happen, gated per component and by a minimum severity. The
// teacher's logger buffered entries in a circular slice drained by a
// background goroutine so its debug-panel viewers could poll recent
// history; gbcore dropped those panels (see DESIGN.md), so the only
// two consumers left (cpu.CPULoggerAdapter, memory.Bus) just want
// each entry surfaced immediately.
type Logger struct {
	componentEnabled map[Component]bool
	componentMu      sync.RWMutex

	minLevel LogLevel
	levelMu  sync.RWMutex
}

// NewLogger creates a new logger instance with both of gbcore's
// components enabled at Debug severity.
func NewLogger() *Logger {
	return &Logger{
		componentEnabled: map[Component]bool{
			ComponentCPU:    true,
			ComponentMemory: true,
		},
		minLevel: LogLevelDebug,
	}
}

// Log writes a message to stderr if component is enabled and level
// meets the minimum severity.
func (l *Logger) Log(component Component, level LogLevel, message string, data map[string]interface{}) {
	l.componentMu.RLock()
	enabled := l.componentEnabled[component]
	l.componentMu.RUnlock()

	if !enabled {
		return
	}

	l.levelMu.RLock()
	minLevel := l.minLevel
	l.levelMu.RUnlock()

	if level < minLevel {
		return
	}

	entry := LogEntry{
		Timestamp: time.Now(),
		Component: component,
		Level:     level,
		Message:   message,
		Data:      data,
	}
	fmt.Fprintln(os.Stderr, entry.Format())
}

// Logf logs a formatted message.
func (l *Logger) Logf(component Component, level LogLevel, format string, args ...interface{}) {
	l.Log(component, level, fmt.Sprintf(format, args...), nil)
}

// LogCPU logs a CPU-component entry; wired from cpu.CPULoggerAdapter.
func (l *Logger) LogCPU(level LogLevel, message string, data map[string]interface{}) {
	l.Log(ComponentCPU, level, message, data)
}

// LogMemoryf logs a formatted memory-bus diagnostic; wired from
// memory.Bus, which logs reads and writes to the unusable
// 0xFEA0-0xFEFF region.
func (l *Logger) LogMemoryf(level LogLevel, format string, args ...interface{}) {
	l.Logf(ComponentMemory, level, format, args...)
}
