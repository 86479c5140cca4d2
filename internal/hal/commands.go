package hal

import (
	"context"
	"time"

	"pizzabox/internal/link"
)

// Device is the slice of the facade the command helpers drive.
type Device interface {
	LidOpen() bool
	Send(ctx context.Context, frame link.Frame, ignoreLid bool) (*link.Response, error)
	Play(ctx context.Context, path string) error
	Playing() bool
	StopPlayback()
}

// pollInterval paces the lid and playback checks of blocking helpers.
const pollInterval = 50 * time.Millisecond

// SetMovement stages a relative move of one scroll. It takes effect on the next DoIt.
func SetMovement(ctx context.Context, d Device, scroll link.Scroll, steps, speed int) error {
	frame, err := link.SetMovement(scroll, steps, speed)
	if err != nil {
		return err
	}
	_, err = d.Send(ctx, frame, false)
	return err
}

// SetLight stages a light layer change. It takes effect on the next DoIt.
func SetLight(ctx context.Context, d Device, layer link.Layer, color link.RGBW, fade time.Duration, ignoreLid bool) error {
	_, err := d.Send(ctx, link.SetLight(layer, color, fade), ignoreLid)
	return err
}

// DoIt commits staged movement and light settings. It reports false when
// the lid closed before the microcontroller acknowledged.
func DoIt(ctx context.Context, d Device, ignoreLid bool) (bool, error) {
	resp, err := d.Send(ctx, link.DoIt(), ignoreLid)
	if err != nil {
		return false, err
	}
	return resp != nil, nil
}

// WaitForInput lights the masked buttons and blocks until one is pressed or
// the timeout passes (zero waits forever). prompt, when set, plays during the
// wait and is stopped afterwards. ok is false when the lid closed.
func WaitForInput(ctx context.Context, d Device, mask link.Button, prompt string, timeout time.Duration) (link.Button, bool, error) {
	if prompt != "" {
		if err := d.Play(ctx, prompt); err != nil {
			return link.ButtonNone, false, err
		}
	}
	resp, err := d.Send(ctx, link.UserInteract(mask, timeout), false)
	if prompt != "" {
		d.StopPlayback()
	}
	if err != nil {
		return link.ButtonNone, false, err
	}
	if resp == nil {
		return link.ButtonNone, false, nil
	}
	return resp.Button, true, nil
}

// PlaySound plays path to completion, stopping early when the lid closes.
// It reports false when playback was cut short.
func PlaySound(ctx context.Context, d Device, path string) (bool, error) {
	if err := d.Play(ctx, path); err != nil {
		return false, err
	}
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()
	for d.Playing() {
		if !d.LidOpen() {
			d.StopPlayback()
			return false, nil
		}
		select {
		case <-ctx.Done():
			d.StopPlayback()
			return false, ctx.Err()
		case <-ticker.C:
		}
	}
	return true, nil
}

// TurnOff darkens both light layers immediately, regardless of the lid.
func TurnOff(ctx context.Context, d Device) error {
	for _, layer := range []link.Layer{link.Backlight, link.Frontlight} {
		if err := SetLight(ctx, d, layer, link.RGBW{}, 0, true); err != nil {
			return err
		}
	}
	_, err := DoIt(ctx, d, true)
	return err
}

// RewindScrolls returns both scrolls to their start, regardless of the lid.
func RewindScrolls(ctx context.Context, d Device) error {
	_, err := d.Send(ctx, link.Rewind(), true)
	return err
}
