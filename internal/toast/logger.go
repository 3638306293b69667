package toast

import "log/slog"

// LogSurface renders toasts as structured log lines. Used by headless
// deployments where no UI is attached.
type LogSurface struct {
	logger *slog.Logger
}

// NewLogSurface creates a log-backed surface.
func NewLogSurface(logger *slog.Logger) *LogSurface {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogSurface{logger: logger}
}

// Show logs the toast at a level matching its severity.
func (s *LogSurface) Show(message string, opts Options) {
	attrs := []any{
		"severity", string(opts.Severity),
		"icon", opts.Icon,
		"duration", opts.Duration,
	}

	switch opts.Severity {
	case SeverityError:
		s.logger.Error("toast: "+message, attrs...)
	case SeverityWarning:
		s.logger.Warn("toast: "+message, attrs...)
	default:
		s.logger.Info("toast: "+message, attrs...)
	}
}
