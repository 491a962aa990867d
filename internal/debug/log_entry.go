package debug

import (
	"fmt"
	"time"
)

// LogLevel is the severity of a log entry. gbcore only ever emits
// Debug (memory-bus diagnostics, the F10 CPU trace) and Trace (CPU
// trace at cpu.CPULogTrace verbosity).
type LogLevel int

const (
	LogLevelDebug LogLevel = iota
	LogLevelTrace
)

// String returns the string representation of a log level.
func (l LogLevel) String() string {
	switch l {
	case LogLevelDebug:
		return "DEBUG"
	case LogLevelTrace:
		return "TRACE"
	default:
		return "UNKNOWN"
	}
}

// Component identifies which subsystem emitted a log entry. gbcore
// only logs from the CPU (per-instruction trace) and the memory bus
// (spec.md §7's "logged diagnostically" bus violations).
type Component string

const (
	ComponentCPU    Component = "CPU"
	ComponentMemory Component = "Memory"
)

// LogEntry represents a single log entry.
type LogEntry struct {
	Timestamp time.Time
	Component Component
	Level     LogLevel
	Message   string
	Data      map[string]interface{} // Optional structured data
}

// Format formats the log entry as a string.
func (e *LogEntry) Format() string {
	timestamp := e.Timestamp.Format("15:04:05.000")
	return fmt.Sprintf("[%s] [%s] %s: %s", timestamp, e.Component, e.Level, e.Message)
}
