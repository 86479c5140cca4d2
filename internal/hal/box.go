package hal

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"pizzabox/internal/link"
	"pizzabox/internal/logging"
	"pizzabox/internal/media"
	"pizzabox/internal/services"
)

// Lines is the GPIO side of the box: the lid switch and the HELO pair.
type Lines interface {
	link.Signals
	SetHello(level bool) error
	Close() error
}

// Components wires a Box. Link and Lines are required; the media parts may
// be nil on a bench setup, in which case the matching operations fail with
// ErrExternalTool.
type Components struct {
	Link         *link.Link
	Lines        Lines
	Player       *media.Player
	Recorder     *media.Recorder
	Camera       *media.Camera
	HelloTimeout time.Duration
	Logger       *slog.Logger
}

// Box is the hardware facade: scroll motors and lights through the link,
// the lid and HELO lines through GPIO, and the media tools.
type Box struct {
	link         *link.Link
	lines        Lines
	player       *media.Player
	recorder     *media.Recorder
	camera       *media.Camera
	helloTimeout time.Duration
	logger       *slog.Logger
}

// helloPoll is the HELO2 polling period during bring-up.
const helloPoll = 100 * time.Millisecond

func New(c Components) *Box {
	if c.HelloTimeout <= 0 {
		c.HelloTimeout = 2 * time.Second
	}
	return &Box{
		link:         c.Link,
		lines:        c.Lines,
		player:       c.Player,
		recorder:     c.Recorder,
		camera:       c.Camera,
		helloTimeout: c.HelloTimeout,
		logger:       logging.NewComponentLogger(c.Logger, "hal"),
	}
}

// Connect raises HELO1, waits for the microcontroller to answer on HELO2,
// and performs the link handshake.
func (b *Box) Connect(ctx context.Context) error {
	if err := b.lines.SetHello(true); err != nil {
		return services.Wrap(services.ErrLink, "hal", "connect", "raise HELO1", err)
	}
	deadline := time.Now().Add(b.helloTimeout)
	for !b.lines.PeerAlive() {
		if time.Now().After(deadline) {
			return services.Wrap(services.ErrLink, "hal", "connect", "microcontroller did not respond to HELO pin", nil)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(helloPoll):
		}
	}
	return b.link.Handshake(ctx)
}

// Reset drops HELO1 so the microcontroller returns to its idle state.
func (b *Box) Reset() error {
	if err := b.lines.SetHello(false); err != nil {
		return services.Wrap(services.ErrLink, "hal", "reset", "lower HELO1", err)
	}
	return nil
}

func (b *Box) LidOpen() bool { return b.lines.LidOpen() }

func (b *Box) Send(ctx context.Context, frame link.Frame, ignoreLid bool) (*link.Response, error) {
	return b.link.Send(ctx, frame, ignoreLid)
}

func (b *Box) Flush() error { return b.link.Flush() }

// Preload verifies prompt sounds up front.
func (b *Box) Preload(paths ...string) error {
	if b.player == nil {
		return errNoTool("preload", "player")
	}
	return b.player.Preload(paths...)
}

func (b *Box) Play(ctx context.Context, path string) error {
	if b.player == nil {
		return errNoTool("play", "player")
	}
	return b.player.Start(ctx, path)
}

func (b *Box) Playing() bool {
	return b.player != nil && b.player.Playing()
}

func (b *Box) StopPlayback() {
	if b.player != nil {
		b.player.Stop()
	}
}

// RecordAudio records while the microcontroller shows its recording
// indicator; the RECORD acknowledgement marks the end of the take. Closing
// the lid ends the take early. With cache set the take is registered with
// the player for instant replay.
func (b *Box) RecordAudio(ctx context.Context, path string, duration time.Duration, cache bool) error {
	if b.recorder == nil {
		return errNoTool("record_audio", "recorder")
	}
	capture, err := b.recorder.Start(ctx, path, duration)
	if err != nil {
		return err
	}
	resp, sendErr := b.link.Send(ctx, link.Record(duration), false)
	stopErr := capture.Stop()
	if err := errors.Join(sendErr, stopErr); err != nil {
		return err
	}
	if resp == nil {
		b.logger.Info("recording cut short by lid", logging.String("path", path), logging.String(logging.FieldEventType, "record_aborted"))
	}
	if cache && b.player != nil {
		b.player.Cache(path)
	}
	return nil
}

func (b *Box) RecordVideo(ctx context.Context, path string, duration time.Duration) error {
	if b.camera == nil {
		return errNoTool("record_video", "camera")
	}
	return b.camera.RecordVideo(ctx, path, duration)
}

func (b *Box) CapturePhoto(ctx context.Context, path string) error {
	if b.camera == nil {
		return errNoTool("capture_photo", "camera")
	}
	return b.camera.CapturePhoto(ctx, path)
}

// Close stops playback and releases the link and GPIO lines.
func (b *Box) Close() error {
	b.StopPlayback()
	return errors.Join(b.link.Close(), b.lines.Close())
}

func errNoTool(op, tool string) error {
	return services.Wrap(services.ErrExternalTool, "hal", op, tool+" not configured", nil)
}
