package cpu

import (
	"fmt"

	"gbcore/internal/debug"
)

// CPULogLevel selects how much detail CPULoggerAdapter forwards to the
// underlying debug.Logger.
type CPULogLevel int

const (
	CPULogNone CPULogLevel = iota
	CPULogErrors
	CPULogInstructions
	CPULogTrace
)

// CPULoggerAdapter adapts debug.Logger to the CPU's LoggerInterface.
type CPULoggerAdapter struct {
	logger  *debug.Logger
	level   CPULogLevel
	enabled bool
}

// NewCPULoggerAdapter wires logger to the CPU at the given verbosity.
func NewCPULoggerAdapter(logger *debug.Logger, level CPULogLevel) *CPULoggerAdapter {
	return &CPULoggerAdapter{logger: logger, level: level, enabled: true}
}

// SetLevel changes verbosity without rebuilding the adapter.
func (a *CPULoggerAdapter) SetLevel(level CPULogLevel) { a.level = level }

// SetEnabled toggles logging without discarding the adapter's state.
func (a *CPULoggerAdapter) SetEnabled(enabled bool) { a.enabled = enabled }

// LogCPU implements cpu.LoggerInterface.
func (a *CPULoggerAdapter) LogCPU(pc uint16, opcode uint8, cycles int) {
	if !a.enabled || a.logger == nil || a.level == CPULogNone {
		return
	}

	var logLevel debug.LogLevel
	switch a.level {
	case CPULogTrace:
		logLevel = debug.LogLevelTrace
	default:
		logLevel = debug.LogLevelDebug
	}

	message := fmt.Sprintf("%04X: %02X (%d cycles)", pc, opcode, cycles)
	data := map[string]interface{}{
		"pc":     pc,
		"opcode": opcode,
		"cycles": cycles,
	}
	a.logger.LogCPU(logLevel, message, data)
}
