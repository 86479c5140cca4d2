package media

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"pizzabox/internal/logging"
	"pizzabox/internal/services"
)

// CorrectorOptions configures keystone and rotation correction.
type CorrectorOptions struct {
	FFmpeg       string
	FFprobe      string
	Keystone     []string
	Rotation     string
	DeleteSource bool
}

// Corrector rewraps camera clips into .mov containers with the projector
// keystone and mounting rotation undone.
type Corrector struct {
	opts   CorrectorOptions
	logger *slog.Logger
}

func NewCorrector(opts CorrectorOptions, logger *slog.Logger) *Corrector {
	return &Corrector{opts: opts, logger: logging.NewComponentLogger(logger, "corrector")}
}

// Filter returns the ffmpeg video filter chain.
func (c *Corrector) Filter() string {
	parts := make([]string, 0, 2)
	if len(c.opts.Keystone) == 8 {
		parts = append(parts, "perspective="+strings.Join(c.opts.Keystone, ":"))
	}
	if c.opts.Rotation != "" {
		parts = append(parts, "transpose="+c.opts.Rotation)
	}
	return strings.Join(parts, ",")
}

// Target returns the corrected file path for src.
func Target(src string) string {
	return strings.TrimSuffix(src, filepath.Ext(src)) + ".mov"
}

// Correct transforms src and returns the path of the corrected file. The
// source is removed afterwards when configured.
func (c *Corrector) Correct(ctx context.Context, src string) (string, error) {
	if probe, err := Probe(ctx, c.opts.FFprobe, src); err == nil {
		if probe.VideoStreamCount() == 0 {
			return "", services.Wrap(services.ErrExternalTool, "corrector", "probe", fmt.Sprintf("%s has no video stream", src), nil)
		}
	} else {
		c.logger.Debug("probe unavailable; transcoding without inspection", logging.String("path", src), logging.Error(err))
	}

	dst := Target(src)
	args := []string{"-y", "-hide_banner", "-loglevel", "error", "-i", src}
	if filter := c.Filter(); filter != "" {
		args = append(args, "-vf", filter)
	}
	args = append(args, "-an", dst)
	output, err := exec.CommandContext(ctx, c.opts.FFmpeg, args...).CombinedOutput()
	if err != nil {
		return "", services.Wrap(services.ErrExternalTool, "corrector", "ffmpeg", strings.TrimSpace(string(output)), err)
	}
	if c.opts.DeleteSource {
		if err := os.Remove(src); err != nil {
			logging.WarnWithContext(c.logger, "source clip not removed", "clip_cleanup_failed",
				logging.String("path", src),
				logging.Error(err),
				logging.String(logging.FieldImpact, "the raw clip stays on the stick next to the corrected file"),
			)
		}
	}
	return dst, nil
}
