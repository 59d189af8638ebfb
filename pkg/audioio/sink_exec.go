package audioio

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"path/filepath"
	"strconv"
	"sync"
	"sync/atomic"
)

// ExecSink plays audio by piping raw PCM16 to a player process. Each
// Start/Flush pair spawns one process; Flush returns once the player has
// drained its input and exited.
type ExecSink struct {
	cfg    Config
	logger *slog.Logger

	mu      sync.Mutex
	cmd     *exec.Cmd
	stdin   io.WriteCloser
	running bool
	closed  bool

	chunksWritten  atomic.Int64
	samplesWritten atomic.Int64
	underruns      atomic.Int64
}

// NewExecSink creates a sink for the configured player command.
func NewExecSink(cfg Config, logger *slog.Logger) (*ExecSink, error) {
	if _, err := exec.LookPath(cfg.PlayerCommand()); err != nil {
		return nil, fmt.Errorf("audio player %q: %w", cfg.PlayerCommand(), err)
	}
	if logger == nil {
		logger = slog.Default()
	}

	logger.Info("exec sink created",
		"command", cfg.PlayerCommand(),
		"device", cfg.Device,
		"sample_rate", cfg.SampleRate,
		"channels", cfg.Channels,
	)

	return &ExecSink{cfg: cfg, logger: logger}, nil
}

// playerArgs returns the arguments for reading raw PCM16 from stdin.
func playerArgs(cfg Config) []string {
	rate := strconv.Itoa(cfg.SampleRate)
	channels := strconv.Itoa(cfg.Channels)

	if filepath.Base(cfg.PlayerCommand()) == "play" {
		return []string{"-q", "-t", "raw", "-b", "16", "-e", "signed-integer", "-r", rate, "-c", channels, "-"}
	}

	args := []string{"-q", "-t", "raw", "-f", "S16_LE", "-r", rate, "-c", channels}
	if cfg.Device != "" {
		args = append(args, "-D", cfg.Device)
	}
	return args
}

// Start spawns the player process.
func (s *ExecSink) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return io.ErrClosedPipe
	}
	if s.running {
		return nil
	}

	cmd := exec.CommandContext(ctx, s.cfg.PlayerCommand(), playerArgs(s.cfg)...)
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("stdin pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start player: %w", err)
	}

	s.cmd = cmd
	s.stdin = stdin
	s.running = true
	return nil
}

// Stop kills the player if it is running.
func (s *ExecSink) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.killLocked()
	return nil
}

// Write converts the chunk to the output format and pipes it to the player.
func (s *ExecSink) Write(ctx context.Context, chunk AudioChunk) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return io.ErrClosedPipe
	}
	if !s.running {
		return fmt.Errorf("sink not running")
	}

	out := Convert(chunk, s.cfg.SampleRate, s.cfg.Channels)
	if _, err := s.stdin.Write(out.Bytes()); err != nil {
		s.underruns.Add(1)
		s.killLocked()
		return fmt.Errorf("write to player: %w", err)
	}

	s.chunksWritten.Add(1)
	s.samplesWritten.Add(int64(len(out.Samples)))
	return nil
}

// Flush closes the player's input and waits for playback to finish.
func (s *ExecSink) Flush(ctx context.Context) error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	cmd := s.cmd
	s.stdin.Close()
	s.stdin = nil
	s.mu.Unlock()

	done := make(chan error, 1)
	go func() { done <- cmd.Wait() }()

	var err error
	select {
	case err = <-done:
	case <-ctx.Done():
		if cmd.Process != nil {
			cmd.Process.Kill()
		}
		<-done
		err = ctx.Err()
	}

	s.mu.Lock()
	s.running = false
	s.cmd = nil
	s.mu.Unlock()

	if err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("player: %w", err)
	}
	return err
}

// Clear aborts playback immediately.
func (s *ExecSink) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.killLocked()
	return nil
}

func (s *ExecSink) killLocked() {
	if !s.running {
		return
	}
	if s.stdin != nil {
		s.stdin.Close()
		s.stdin = nil
	}
	if s.cmd != nil && s.cmd.Process != nil {
		s.cmd.Process.Kill()
		s.cmd.Wait()
	}
	s.cmd = nil
	s.running = false
	s.logger.Debug("exec sink cleared")
}

// Config returns the audio configuration.
func (s *ExecSink) Config() Config {
	return s.cfg
}

// Name returns "exec".
func (s *ExecSink) Name() string {
	return "exec"
}

// Close releases resources.
func (s *ExecSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	s.killLocked()
	return nil
}

// Stats returns sink statistics.
func (s *ExecSink) Stats() SinkStats {
	s.mu.Lock()
	running := s.running
	s.mu.Unlock()

	return SinkStats{
		ChunksWritten:  s.chunksWritten.Load(),
		SamplesWritten: s.samplesWritten.Load(),
		Underruns:      s.underruns.Load(),
		Running:        running,
		Backend:        "exec",
	}
}

var _ SinkWithStats = (*ExecSink)(nil)
