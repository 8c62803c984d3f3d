package logger

import (
	"github.com/hashicorp/go-hclog"

	anticheat "github.com/maxgamesNL/MaxAntiCheat"
)

// HCLog wraps an hclog.Logger to implement anticheat.Logger.
type HCLog struct {
	logger hclog.Logger
}

// NewHCLog creates an anticheat.Logger from an hclog.Logger.
func NewHCLog(logger hclog.Logger) anticheat.Logger {
	return &HCLog{logger: logger}
}

// Error logs an error message with key-value pairs.
func (h *HCLog) Error(msg string, args ...any) {
	h.logger.Error(msg, args...)
}

// Warn logs a warning message with key-value pairs.
func (h *HCLog) Warn(msg string, args ...any) {
	h.logger.Warn(msg, args...)
}

// Info logs an info message with key-value pairs.
func (h *HCLog) Info(msg string, args ...any) {
	h.logger.Info(msg, args...)
}
