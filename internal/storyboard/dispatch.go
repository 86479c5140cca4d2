package storyboard

import (
	"context"
	"fmt"
	"time"

	"pizzabox/internal/hal"
	"pizzabox/internal/link"
	"pizzabox/internal/logging"
	"pizzabox/internal/services"
	"pizzabox/internal/session"
)

// run dispatches one instance. staged suppresses the commit so a parallel
// block can latch several effects at once.
func (s *Storyboard) run(ctx context.Context, d Do, staged bool) error {
	switch d.Activity {
	case WaitForInput:
		return s.waitForInput(ctx, d)
	case PlaySound:
		return s.playSound(ctx, d)
	case RecordSound:
		path, err := s.recordingPath(d, "audio", ".wav")
		if err != nil {
			return err
		}
		return s.hw.RecordAudio(ctx, path, seconds(d.Float(KeyDuration)), d.Bool(KeyCache))
	case RecordVideo:
		path, err := s.recordingPath(d, "video", ".h264")
		if err != nil {
			return err
		}
		if err := s.hw.RecordVideo(ctx, path, seconds(d.Float(KeyDuration))); err != nil {
			return err
		}
		s.videos = append(s.videos, path)
		return nil
	case TakePhoto:
		path, err := s.recordingPath(d, "photo", ".jpg")
		if err != nil {
			return err
		}
		return s.hw.CapturePhoto(ctx, path)
	case AdvanceVertical:
		return s.advance(ctx, link.ScrollVertical, d, staged)
	case AdvanceHorizontal:
		return s.advance(ctx, link.ScrollHorizontal, d, staged)
	case FrontLight:
		return s.light(ctx, link.Frontlight, d, staged)
	case BackLight:
		return s.light(ctx, link.Backlight, d, staged)
	case Parallel:
		return s.parallel(ctx, d)
	case JumpToChapter:
		s.decide(d.Int(KeyChapter))
		s.skip = d.SkipOverride(KeySkip).Apply(s.skip)
		return nil
	default:
		return configFault("play", fmt.Sprintf("no handler for %s", d.Activity), nil)
	}
}

func (s *Storyboard) waitForInput(ctx context.Context, d Do) error {
	bindings := map[link.Button]Selection{
		link.ButtonBlue:   d.Selection(KeyOnBlue),
		link.ButtonRed:    d.Selection(KeyOnRed),
		link.ButtonYellow: d.Selection(KeyOnYellow),
		link.ButtonGreen:  d.Selection(KeyOnGreen),
	}
	var mask link.Button
	for _, b := range link.Buttons {
		if bindings[b].Bound() {
			mask |= b
		}
	}
	prompt, err := s.soundPath(d)
	if err != nil {
		return err
	}
	pressed, ok, err := hal.WaitForInput(ctx, s.hw, mask, prompt, seconds(d.Float(KeyTimeout)))
	if err != nil || !ok {
		return err
	}
	sel, known := bindings[pressed]
	if !known {
		sel = d.Selection(KeyOnTimeout)
	}
	s.logger.Info("visitor input",
		logging.String(logging.FieldEventType, "visitor_input"),
		logging.Int(logging.FieldChapter, s.current),
		logging.String("button", pressed.String()),
		logging.String("selection", sel.String()),
	)
	s.apply(sel)
	return nil
}

func (s *Storyboard) playSound(ctx context.Context, d Do) error {
	path, err := s.soundPath(d)
	if err != nil {
		return err
	}
	if path == "" {
		s.logger.Debug("no sound for language",
			logging.String("language", s.lang),
			logging.Int(logging.FieldChapter, s.current),
		)
		return nil
	}
	_, err = hal.PlaySound(ctx, s.hw, path)
	return err
}

func (s *Storyboard) advance(ctx context.Context, scroll link.Scroll, d Do, staged bool) error {
	if !s.move {
		return nil
	}
	if err := hal.SetMovement(ctx, s.hw, scroll, d.Int(KeySteps), d.Int(KeySpeed)); err != nil {
		return err
	}
	if staged {
		return nil
	}
	_, err := hal.DoIt(ctx, s.hw, false)
	return err
}

func (s *Storyboard) light(ctx context.Context, layer link.Layer, d Do, staged bool) error {
	color := link.RGBW{R: d.Float(KeyRed), G: d.Float(KeyGreen), B: d.Float(KeyBlue), W: d.Float(KeyWhite)}
	if err := hal.SetLight(ctx, s.hw, layer, color, seconds(d.Float(KeyFade)), false); err != nil {
		return err
	}
	if staged {
		return nil
	}
	_, err := hal.DoIt(ctx, s.hw, false)
	return err
}

func (s *Storyboard) parallel(ctx context.Context, d Do) error {
	for _, child := range d.Children() {
		if !s.hw.LidOpen() {
			return nil
		}
		if err := s.run(ctx, child, true); err != nil {
			return err
		}
	}
	_, err := hal.DoIt(ctx, s.hw, false)
	return err
}

// soundPath resolves the language slot of d. An empty path means silence.
func (s *Storyboard) soundPath(d Do) (string, error) {
	f := d.Sound(s.lang)
	if f.IsZero() {
		return "", nil
	}
	return s.resolve(f)
}

// recordingPath names the output of a capture, generating a name inside the
// session when the instance has none.
func (s *Storyboard) recordingPath(d Do, prefix, ext string) (string, error) {
	f := d.File(KeyFilename)
	if f.IsZero() {
		s.generated++
		f = session.RecFile(fmt.Sprintf("%s-%02d-%02d%s", prefix, s.current, s.generated, ext))
	}
	return s.resolve(f)
}

func (s *Storyboard) resolve(f session.File) (string, error) {
	path, err := s.library.Resolve(f, s.session)
	if err != nil {
		return "", services.Wrap(services.ErrFileSystem, "storyboard", "resolve", f.String(), err)
	}
	return path, nil
}

func seconds(v float64) time.Duration {
	return time.Duration(v * float64(time.Second))
}
