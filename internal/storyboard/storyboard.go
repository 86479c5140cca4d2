package storyboard

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"pizzabox/internal/hal"
	"pizzabox/internal/link"
	"pizzabox/internal/logging"
	"pizzabox/internal/services"
	"pizzabox/internal/session"
)

// Finished is the chapter index of a story with nothing left to play.
const Finished = -1

// TravelSpeed is the motor speed for moves between chapters.
const TravelSpeed = 3

// Hardware is the facade the engine plays against.
type Hardware interface {
	hal.Device
	RecordAudio(ctx context.Context, path string, duration time.Duration, cache bool) error
	RecordVideo(ctx context.Context, path string, duration time.Duration) error
	CapturePhoto(ctx context.Context, path string) error
}

// Delta is a net scroll displacement in steps.
type Delta struct {
	Horizontal int
	Vertical   int
}

func (d Delta) IsZero() bool { return d.Horizontal == 0 && d.Vertical == 0 }

func (d *Delta) add(h, v int) {
	d.Horizontal += h
	d.Vertical += v
}

// Storyboard plays a fixed chapter sequence. It is not safe for concurrent use.
type Storyboard struct {
	Name     string
	chapters []*Chapter
	logger   *slog.Logger

	hw      Hardware
	session *session.Session
	library session.Library

	current int
	next    int
	decided bool

	skip           bool
	lang           string
	moveDefault    bool
	move           bool
	moveOverridden bool

	videos    []string
	generated int
}

// New builds a storyboard positioned at its first chapter with movement enabled.
func New(chapters []*Chapter, logger *slog.Logger) *Storyboard {
	if logger == nil {
		logger = logging.NewNop()
	}
	s := &Storyboard{
		chapters:    append([]*Chapter(nil), chapters...),
		logger:      logging.NewComponentLogger(logger, "storyboard"),
		moveDefault: true,
		move:        true,
	}
	if len(s.chapters) == 0 {
		s.current = Finished
	}
	return s
}

// Attach hands the engine the hardware and the session that names recordings.
func (s *Storyboard) Attach(hw Hardware, sess *session.Session, library session.Library) {
	s.hw = hw
	s.session = sess
	s.library = library
}

// Detach releases the hardware and session.
func (s *Storyboard) Detach() {
	s.hw = nil
	s.session = nil
}

func (s *Storyboard) Chapters() []*Chapter { return append([]*Chapter(nil), s.chapters...) }

// Current is the index of the chapter to play, or Finished.
func (s *Storyboard) Current() int { return s.current }

// Pending returns the decided next chapter, if a decision was made.
func (s *Storyboard) Pending() (int, bool) { return s.next, s.decided }

func (s *Storyboard) HasNext() bool { return s.current != Finished }

func (s *Storyboard) SetLanguage(lang string) { s.lang = lang }

func (s *Storyboard) Language() string { return s.lang }

// SetMove sets the session default for physically executing movement.
func (s *Storyboard) SetMove(enabled bool) {
	s.moveDefault = enabled
	s.move = enabled
	s.moveOverridden = false
}

// Move reports whether movement is currently executed physically.
func (s *Storyboard) Move() bool { return s.move }

func (s *Storyboard) SetSkip(skip bool) { s.skip = skip }

func (s *Storyboard) Skip() bool { return s.skip }

// Videos lists the video files recorded since the last ClearVideos.
func (s *Storyboard) Videos() []string { return append([]string(nil), s.videos...) }

func (s *Storyboard) ClearVideos() { s.videos = nil }

// Position sums the displacement accumulated by every chapter.
func (s *Storyboard) Position() Delta {
	var d Delta
	for _, c := range s.chapters {
		d.add(c.Position())
	}
	return d
}

// Validate checks that every explicit branch targets an existing chapter.
func (s *Storyboard) Validate() error {
	for i, c := range s.chapters {
		for _, target := range c.Targets() {
			if target < 0 || target >= len(s.chapters) {
				return configFault("validate",
					fmt.Sprintf("chapter %d branches to chapter %d; storyboard has %d chapters", i, target, len(s.chapters)), nil)
			}
		}
	}
	return nil
}

// PlayCurrentChapter runs the current chapter's instances until the chapter
// ends or the lid closes. A closed lid leaves the cursor mid-chapter and is
// not an error.
func (s *Storyboard) PlayCurrentChapter(ctx context.Context) error {
	if s.hw == nil {
		return configFault("play", "no hardware attached", nil)
	}
	if s.current == Finished {
		return nil
	}
	ctx = services.WithChapter(ctx, s.current)
	logger := logging.WithContext(ctx, s.logger)
	chapter := s.chapters[s.current]

	if s.skip && chapter.SkipFlag {
		logger.Debug("chapter skipped", logging.String(logging.FieldEventType, "chapter_skipped"))
		s.decide(s.following())
		return nil
	}

	logger.Info("chapter started",
		logging.String(logging.FieldEventType, "chapter_started"),
		logging.String("title", chapter.Title),
		logging.Int("steps", chapter.Len()),
	)
	for chapter.HasNext() {
		if err := ctx.Err(); err != nil {
			return err
		}
		if !s.hw.LidOpen() {
			logger.Info("lid closed; chapter interrupted",
				logging.String(logging.FieldEventType, "chapter_interrupted"),
				logging.Int("cursor", chapter.Cursor()),
			)
			return nil
		}
		step, _ := chapter.Next()
		logger.Debug("running activity", logging.String(logging.FieldActivity, step.Activity.String()))
		if err := s.run(ctx, step, false); err != nil {
			return err
		}
	}
	if !s.decided {
		s.decide(s.following())
	}
	return nil
}

// AdvanceToNextChapter moves to the decided chapter and returns the net
// displacement between the two. The scrolls follow when movement is enabled.
// Without a decision (an interrupted chapter) it does nothing.
func (s *Storyboard) AdvanceToNextChapter(ctx context.Context) (Delta, error) {
	var delta Delta
	if !s.decided || s.current == Finished {
		return delta, nil
	}
	target := s.next
	if target != Finished && (target < 0 || target >= len(s.chapters)) {
		return delta, configFault("advance", fmt.Sprintf("chapter %d does not exist", target), nil)
	}
	if s.moveOverridden && target != s.current {
		s.move = s.moveDefault
		s.moveOverridden = false
	}

	switch {
	case target == Finished:
	case target < s.current:
		for i := s.current; i >= target; i-- {
			delta.add(s.chapters[i].Rewind())
		}
	case target > s.current:
		for i := s.current; i < target; i++ {
			delta.add(s.chapters[i].Skip())
		}
	default:
		delta.add(s.chapters[s.current].Rewind())
	}

	s.logger.Debug("advancing chapter",
		logging.String(logging.FieldEventType, "chapter_advance"),
		logging.Int("from", s.current),
		logging.Int("to", target),
		logging.Int("h_steps", delta.Horizontal),
		logging.Int("v_steps", delta.Vertical),
		logging.Bool("move", s.move),
	)
	if s.move && !delta.IsZero() {
		if err := s.travel(ctx, delta); err != nil {
			return delta, err
		}
	}
	s.current = target
	s.decided = false
	return delta, nil
}

func (s *Storyboard) travel(ctx context.Context, delta Delta) error {
	if s.hw == nil {
		return configFault("advance", "no hardware attached", nil)
	}
	for _, mv := range []struct {
		scroll link.Scroll
		steps  int
	}{{link.ScrollHorizontal, delta.Horizontal}, {link.ScrollVertical, delta.Vertical}} {
		frame, err := link.SetMovement(mv.scroll, mv.steps, TravelSpeed)
		if err != nil {
			return configFault("advance", "chapter displacement exceeds one move", err)
		}
		if _, err := s.hw.Send(ctx, frame, false); err != nil {
			return err
		}
	}
	_, err := hal.DoIt(ctx, s.hw, false)
	return err
}

// RewindAll returns the scrolls to their start when movement is enabled and
// resets every chapter and the story cursor.
func (s *Storyboard) RewindAll(ctx context.Context) error {
	s.move = s.moveDefault
	s.moveOverridden = false
	if s.move && s.hw != nil {
		if err := hal.RewindScrolls(ctx, s.hw); err != nil {
			return err
		}
	}
	for _, c := range s.chapters {
		c.Rewind()
	}
	s.current = 0
	if len(s.chapters) == 0 {
		s.current = Finished
	}
	s.next = 0
	s.decided = false
	s.generated = 0
	return nil
}

func (s *Storyboard) decide(target int) {
	s.next = target
	s.decided = true
}

func (s *Storyboard) following() int {
	if s.current+1 < len(s.chapters) {
		return s.current + 1
	}
	return Finished
}

// apply interprets a visitor's selection.
func (s *Storyboard) apply(sel Selection) {
	switch sel.Option {
	case OptionContinue:
		s.decide(s.following())
		s.skip = sel.Skip.Apply(s.skip)
	case OptionRepeat:
		s.decide(s.current)
		if sel.Rewind != RewindUnset {
			s.move = sel.Rewind == RewindYes
			s.moveOverridden = true
		}
	case OptionGoto:
		s.decide(sel.Chapter)
		s.skip = sel.Skip.Apply(s.skip)
	case OptionQuit:
		s.decide(Finished)
	}
}
