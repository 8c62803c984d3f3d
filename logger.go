package anticheat

// Logger receives structured key-value events from the store and keeper.
// The method set matches slog, so a *slog.Logger can be passed directly;
// the logger submodule has adapters for zap, logrus, and hclog.
type Logger interface {
	Error(msg string, args ...any)
	Warn(msg string, args ...any)
	Info(msg string, args ...any)
}

// DiscardLogger is the default logger that compiles to a no-op.
type DiscardLogger struct{}

func (d DiscardLogger) Error(string, ...any) {}

func (d DiscardLogger) Warn(string, ...any) {}

func (d DiscardLogger) Info(string, ...any) {}
