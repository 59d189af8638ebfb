package audioio

import (
	"fmt"
	"log/slog"
	"os/exec"
)

// NewSink creates a new audio sink with the given configuration.
// If cfg.Backend is BackendAuto, the exec backend is used when a player
// binary is installed and the mock backend otherwise.
func NewSink(cfg Config, logger *slog.Logger) (Sink, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	if logger == nil {
		logger = slog.Default()
	}

	backend := cfg.Backend
	if backend == BackendAuto {
		backend = detectBestBackend(cfg)
	}

	logger.Info("creating audio sink",
		"backend", backend,
		"sample_rate", cfg.SampleRate,
		"channels", cfg.Channels,
	)

	switch backend {
	case BackendMock:
		return NewMockSink(cfg, logger), nil
	case BackendExec:
		return NewExecSink(cfg, logger)
	default:
		return nil, fmt.Errorf("unsupported backend: %s", backend)
	}
}

// detectBestBackend returns the best available backend.
func detectBestBackend(cfg Config) Backend {
	if _, err := exec.LookPath(cfg.PlayerCommand()); err == nil {
		return BackendExec
	}
	return BackendMock
}

// AvailableBackends returns the list of backends usable on this host.
func AvailableBackends(cfg Config) []Backend {
	backends := []Backend{BackendMock}
	if detectBestBackend(cfg) == BackendExec {
		backends = append(backends, BackendExec)
	}
	return backends
}
