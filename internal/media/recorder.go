package media

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/exec"
	"strconv"
	"time"

	"pizzabox/internal/logging"
	"pizzabox/internal/services"
)

// Recorder captures stereo audio from the default input device.
type Recorder struct {
	binary     string
	sampleRate int
	logger     *slog.Logger
}

// NewRecorder builds a recorder around binary (typically arecord).
func NewRecorder(binary string, sampleRate int, logger *slog.Logger) *Recorder {
	return &Recorder{binary: binary, sampleRate: sampleRate, logger: logging.NewComponentLogger(logger, "recorder")}
}

// Capture is a running recording.
type Capture struct {
	cmd  *exec.Cmd
	path string
	done chan error
}

// Start begins recording into path. The recorder stops on its own after limit,
// or earlier when Stop is called.
func (r *Recorder) Start(ctx context.Context, path string, limit time.Duration) (*Capture, error) {
	seconds := int(limit.Round(time.Second) / time.Second)
	if seconds < 1 {
		seconds = 1
	}
	cmd := exec.CommandContext(ctx, r.binary,
		"-q",
		"-f", "S16_LE",
		"-c", "2",
		"-r", strconv.Itoa(r.sampleRate),
		"-d", strconv.Itoa(seconds),
		path,
	)
	if err := cmd.Start(); err != nil {
		return nil, services.Wrap(services.ErrExternalTool, "recorder", "start", r.binary, err)
	}
	c := &Capture{cmd: cmd, path: path, done: make(chan error, 1)}
	go func() { c.done <- cmd.Wait() }()
	r.logger.Debug("recording started", logging.String("path", path), logging.Int("max_seconds", seconds))
	return c, nil
}

// Stop interrupts the recorder so it finalizes the file, then waits for it.
func (c *Capture) Stop() error {
	if c.cmd.Process != nil {
		_ = c.cmd.Process.Signal(os.Interrupt)
	}
	err := <-c.done
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		// arecord exits non-zero when interrupted; the file is still complete.
		err = nil
	}
	if err != nil {
		return services.Wrap(services.ErrExternalTool, "recorder", "stop", c.path, err)
	}
	return nil
}
