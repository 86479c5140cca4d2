package media

import (
	"context"
	"log/slog"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"pizzabox/internal/logging"
	"pizzabox/internal/services"
)

// CameraOptions names the capture tools and resolutions.
type CameraOptions struct {
	VideoBinary string
	StillBinary string
	VideoWidth  int
	VideoHeight int
	PhotoWidth  int
	PhotoHeight int
}

// Camera records video clips and still photos.
type Camera struct {
	opts   CameraOptions
	logger *slog.Logger
}

func NewCamera(opts CameraOptions, logger *slog.Logger) *Camera {
	return &Camera{opts: opts, logger: logging.NewComponentLogger(logger, "camera")}
}

// RecordVideo blocks while recording a clip of the given duration.
func (c *Camera) RecordVideo(ctx context.Context, path string, duration time.Duration) error {
	args := []string{
		"--nopreview",
		"-t", strconv.FormatInt(duration.Milliseconds(), 10),
		"--width", strconv.Itoa(c.opts.VideoWidth),
		"--height", strconv.Itoa(c.opts.VideoHeight),
		"-o", path,
	}
	return c.run(ctx, "record_video", c.opts.VideoBinary, args)
}

// CapturePhoto takes a single still.
func (c *Camera) CapturePhoto(ctx context.Context, path string) error {
	args := []string{
		"--nopreview",
		"-t", "1",
		"--width", strconv.Itoa(c.opts.PhotoWidth),
		"--height", strconv.Itoa(c.opts.PhotoHeight),
		"-o", path,
	}
	return c.run(ctx, "capture_photo", c.opts.StillBinary, args)
}

func (c *Camera) run(ctx context.Context, op, binary string, args []string) error {
	start := time.Now()
	output, err := exec.CommandContext(ctx, binary, args...).CombinedOutput()
	if err != nil {
		return services.Wrap(services.ErrExternalTool, "camera", op, strings.TrimSpace(string(output)), err)
	}
	c.logger.Debug("camera finished", logging.String("op", op), logging.Duration("elapsed", time.Since(start)))
	return nil
}
