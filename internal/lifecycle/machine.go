package lifecycle

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"time"

	"pizzabox/internal/hal"
	"pizzabox/internal/link"
	"pizzabox/internal/logging"
	"pizzabox/internal/services"
	"pizzabox/internal/session"
	"pizzabox/internal/storage"
	"pizzabox/internal/storyboard"
)

const (
	defaultIdlePoll        = 100 * time.Millisecond
	defaultLanguageTimeout = 15 * time.Second
	errorSoundLimit        = 10 * time.Second
	safeStopLimit          = 5 * time.Second
)

// languageButtons binds configured languages to buttons in order.
var languageButtons = []link.Button{link.ButtonRed, link.ButtonGreen, link.ButtonYellow}

// Hardware is the facade the machine owns for the duration of a run.
type Hardware interface {
	storyboard.Hardware
	Connect(ctx context.Context) error
	Reset() error
	Flush() error
	Preload(paths ...string) error
	Close() error
}

// Corrector post-processes a recorded video and returns the corrected file.
type Corrector interface {
	Correct(ctx context.Context, src string) (string, error)
}

// Recorder keeps session history.
type Recorder interface {
	StartSession(ctx context.Context, s *session.Session) error
	FinishSession(ctx context.Context, id string, summary session.Summary) error
}

// Options configures a Machine.
type Options struct {
	Languages       []string
	DefaultLanguage string
	LanguageSelect  bool
	LanguageTimeout time.Duration
	Loop            bool
	Test            bool
	Move            bool

	Library       session.Library
	StorageMarker string
	MinFreeMiB    int

	IdlePoll  time.Duration
	Corrector Corrector
	Recorder  Recorder
}

// Machine is the operational state machine.
type Machine struct {
	hw     Hardware
	story  *storyboard.Storyboard
	opts   Options
	logger *slog.Logger

	state     State
	lang      string
	session   *session.Session
	open      bool
	played    int
	fault     error
	connected bool
}

// New builds a machine in PowerOn.
func New(hw Hardware, story *storyboard.Storyboard, opts Options, logger *slog.Logger) *Machine {
	if opts.IdlePoll <= 0 {
		opts.IdlePoll = defaultIdlePoll
	}
	if opts.LanguageTimeout <= 0 {
		opts.LanguageTimeout = defaultLanguageTimeout
	}
	if len(opts.Languages) > len(languageButtons) {
		opts.Languages = opts.Languages[:len(languageButtons)]
	}
	story.SetMove(opts.Move)
	return &Machine{
		hw:     hw,
		story:  story,
		opts:   opts,
		logger: logging.NewComponentLogger(logger, "lifecycle"),
		state:  PowerOn,
	}
}

func (m *Machine) State() State { return m.state }

// Language is the language chosen for the current visitor, if any.
func (m *Machine) Language() string { return m.lang }

// Fault returns the error that sent the machine into Error.
func (m *Machine) Fault() error { return m.fault }

// Run drives the machine until it shuts down and returns the exit code.
// Cancelling ctx records an open session as interrupted, darkens the box
// and lowers HELO1 before shutting down.
func (m *Machine) Run(ctx context.Context) int {
	for !m.state.Terminal() {
		if ctx.Err() != nil {
			m.logger.Info("run cancelled", logging.String(logging.FieldEventType, "run_cancelled"), logging.String(logging.FieldState, m.state.String()))
			m.finishSession(ctx, OutcomeInterrupted, m.story.Videos())
			m.safeStop(ctx)
			m.state = Shutdown
			break
		}
		if err := m.step(m.stateContext(ctx)); err != nil {
			if ctx.Err() != nil && errors.Is(err, ctx.Err()) {
				continue
			}
			m.fail(ctx, err)
		}
	}

	code := ExitOK
	if m.state == Error {
		code = ExitError
		m.notify(ctx)
	}
	m.shutdown()
	return code
}

func (m *Machine) stateContext(ctx context.Context) context.Context {
	ctx = services.WithState(ctx, m.state.String())
	if m.session != nil {
		ctx = services.WithSessionID(ctx, m.session.ID)
	}
	return ctx
}

func (m *Machine) step(ctx context.Context) error {
	switch m.state {
	case PowerOn:
		return m.powerOn(ctx)
	case PowerOnSelfTest:
		return m.selfTest(ctx)
	case IdleArmed:
		return m.idleArmed(ctx)
	case LanguageSelect:
		return m.languageSelect(ctx)
	case Play:
		return m.play(ctx)
	case PostProcess:
		return m.postProcess(ctx)
	case Rewind:
		return m.rewind(ctx)
	case IdleEnd:
		return m.idleEnd(ctx)
	}
	return nil
}

func (m *Machine) transition(ctx context.Context, next State) {
	logging.WithContext(ctx, m.logger).Debug("state transition",
		logging.String(logging.FieldEventType, "state_transition"),
		logging.String("from", m.state.String()),
		logging.String("to", next.String()),
	)
	m.state = next
}

func (m *Machine) fail(ctx context.Context, err error) {
	logging.ErrorWithContext(logging.WithContext(m.stateContext(ctx), m.logger), "state failed", "state_fault",
		logging.Error(err),
		logging.String("fault", services.Kind(err)),
		logging.String(logging.FieldErrorHint, services.Hint(err)),
		logging.String(logging.FieldImpact, "the installation shuts down"),
	)
	m.fault = err
	m.finishSession(ctx, OutcomeError, m.story.Videos())
	m.state = Error
}

func (m *Machine) powerOn(ctx context.Context) error {
	prompts := []session.File{session.SFXFile(session.SoundPostOK), session.ErrorSound("")}
	if m.opts.LanguageSelect {
		prompts = append(prompts, session.SFXFile(session.SoundLangSelect))
	}
	for _, lang := range m.opts.Languages {
		prompts = append(prompts, session.ErrorSound(lang))
	}
	paths := make([]string, 0, len(prompts))
	for _, f := range prompts {
		if p, err := m.opts.Library.Resolve(f, nil); err == nil {
			paths = append(paths, p)
		}
	}
	if err := m.hw.Preload(paths...); err != nil {
		logging.WarnWithContext(m.logger, "prompt sounds unavailable", "prompts_missing",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "copy the sfx directory onto the box"),
			logging.String(logging.FieldImpact, "missing prompts are skipped or fail when played"),
		)
	}
	m.transition(ctx, PowerOnSelfTest)
	return nil
}

func (m *Machine) selfTest(ctx context.Context) error {
	if !m.opts.Test {
		if err := storage.Check(m.opts.Library.RecordingsDir, m.opts.StorageMarker, m.opts.MinFreeMiB); err != nil {
			return err
		}
	}
	if err := m.hw.Connect(ctx); err != nil {
		return err
	}
	m.connected = true
	m.prompt(ctx, session.SFXFile(session.SoundPostOK))
	if m.opts.Test {
		m.transition(ctx, LanguageSelect)
		return nil
	}
	m.transition(ctx, IdleArmed)
	return nil
}

func (m *Machine) idleArmed(ctx context.Context) error {
	if m.hw.LidOpen() {
		m.transition(ctx, LanguageSelect)
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(m.opts.IdlePoll):
		return nil
	}
}

func (m *Machine) languageSelect(ctx context.Context) error {
	lang := m.opts.DefaultLanguage
	if m.opts.LanguageSelect && len(m.opts.Languages) > 0 {
		choices := make(map[link.Button]string, len(m.opts.Languages))
		var mask link.Button
		for i, l := range m.opts.Languages {
			mask |= languageButtons[i]
			choices[languageButtons[i]] = l
		}
		prompt, _ := m.opts.Library.Resolve(session.SFXFile(session.SoundLangSelect), nil)
		pressed, ok, err := hal.WaitForInput(ctx, m.hw, mask, prompt, m.opts.LanguageTimeout)
		if err != nil {
			return err
		}
		if chosen, found := choices[pressed]; ok && found {
			lang = chosen
		}
	}
	m.lang = lang
	m.story.SetLanguage(lang)
	m.logger.Info("language selected",
		logging.String(logging.FieldEventType, "language_selected"),
		logging.String("language", lang),
	)
	m.transition(ctx, Play)
	return nil
}

func (m *Machine) play(ctx context.Context) error {
	m.session = session.New(m.opts.Library.RecordingsDir, m.logger)
	m.open = true
	m.played = 0
	ctx = services.WithSessionID(ctx, m.session.ID)
	if m.opts.Recorder != nil {
		if err := m.opts.Recorder.StartSession(ctx, m.session); err != nil {
			logging.WarnWithContext(m.logger, "session not recorded in ledger", "ledger_write_failed",
				logging.Error(err),
				logging.String(logging.FieldSessionID, m.session.ID),
				logging.String(logging.FieldImpact, "the session is missing from pizzabox sessions"),
			)
		}
	}
	logging.WithContext(ctx, m.logger).Info("session started",
		logging.String(logging.FieldEventType, "session_started"),
		logging.String("dir", m.session.Dir),
	)

	m.story.Attach(m.hw, m.session, m.opts.Library)
	for m.story.HasNext() && m.hw.LidOpen() {
		if err := m.story.PlayCurrentChapter(ctx); err != nil {
			return err
		}
		m.played++
		if _, err := m.story.AdvanceToNextChapter(ctx); err != nil {
			return err
		}
	}
	m.transition(ctx, PostProcess)
	return nil
}

func (m *Machine) postProcess(ctx context.Context) error {
	var kept []string
	for _, src := range m.story.Videos() {
		if _, err := os.Stat(src); err != nil {
			m.logger.Debug("video missing; skipping correction", logging.String("path", src))
			continue
		}
		if m.opts.Corrector == nil {
			kept = append(kept, src)
			continue
		}
		dst, err := m.opts.Corrector.Correct(ctx, src)
		if err != nil {
			logging.WarnWithContext(m.logger, "video correction failed", "video_correction_failed",
				logging.String("path", src),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, services.Hint(err)),
				logging.String(logging.FieldImpact, "the raw clip stays uncorrected"),
			)
			kept = append(kept, src)
			continue
		}
		kept = append(kept, dst)
	}
	m.story.ClearVideos()
	if err := m.hw.Flush(); err != nil {
		return err
	}
	outcome := OutcomeCompleted
	if m.story.HasNext() {
		outcome = OutcomeInterrupted
	}
	m.finishSession(ctx, outcome, kept)
	m.transition(ctx, Rewind)
	return nil
}

func (m *Machine) rewind(ctx context.Context) error {
	if err := hal.TurnOff(ctx, m.hw); err != nil {
		return err
	}
	m.story.SetSkip(false)
	if err := m.story.RewindAll(ctx); err != nil {
		return err
	}
	m.transition(ctx, IdleEnd)
	return nil
}

func (m *Machine) idleEnd(ctx context.Context) error {
	if err := m.hw.Reset(); err != nil {
		return err
	}
	m.connected = false
	m.story.Detach()
	m.session = nil
	m.lang = ""
	m.story.SetLanguage("")
	if m.opts.Loop {
		m.transition(ctx, PowerOnSelfTest)
		return nil
	}
	m.transition(ctx, Shutdown)
	return nil
}

func (m *Machine) finishSession(ctx context.Context, outcome string, videos []string) {
	if m.session == nil || !m.open {
		return
	}
	m.open = false
	if m.opts.Recorder == nil {
		return
	}
	summary := session.Summary{
		Language:   m.lang,
		FinalState: outcome,
		Chapters:   m.played,
		Videos:     videos,
		FinishedAt: time.Now(),
	}
	if err := m.opts.Recorder.FinishSession(context.WithoutCancel(ctx), m.session.ID, summary); err != nil {
		m.logger.Warn("session end not recorded",
			logging.Error(err),
			logging.String(logging.FieldEventType, "ledger_write_failed"),
			logging.String(logging.FieldSessionID, m.session.ID),
		)
	}
}

// prompt plays a controller sound to completion. Failures are logged only.
func (m *Machine) prompt(ctx context.Context, f session.File) {
	path, err := m.opts.Library.Resolve(f, nil)
	if err == nil {
		_, err = hal.PlaySound(ctx, m.hw, path)
	}
	if err != nil {
		m.logger.Warn("prompt not played",
			logging.String("sound", f.String()),
			logging.Error(err),
			logging.String(logging.FieldEventType, "prompt_failed"),
		)
	}
}

// safeStop turns the lights off and lowers HELO1 after a cancelled run.
// It runs on a detached context; failures are logged only.
func (m *Machine) safeStop(ctx context.Context) {
	if !m.connected {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), safeStopLimit)
	defer cancel()
	if err := hal.TurnOff(ctx, m.hw); err != nil {
		m.logger.Warn("lights not turned off",
			logging.Error(err),
			logging.String(logging.FieldEventType, "safe_stop_failed"),
		)
	}
	if err := m.hw.Reset(); err != nil {
		m.logger.Warn("HELO1 not lowered",
			logging.Error(err),
			logging.String(logging.FieldEventType, "safe_stop_failed"),
		)
	}
	m.connected = false
}

// notify tells the visitor something went wrong, in their language when one
// was chosen and the neutral sound otherwise. Any failure here is swallowed.
func (m *Machine) notify(ctx context.Context) {
	sounds := []session.File{session.ErrorSound("")}
	if m.lang != "" {
		sounds = append([]session.File{session.ErrorSound(m.lang)}, sounds...)
	}
	played := false
	for i, f := range sounds {
		path, err := m.opts.Library.Resolve(f, nil)
		if err == nil && i < len(sounds)-1 {
			_, err = os.Stat(path)
		}
		if err == nil {
			err = m.hw.Play(ctx, path)
		}
		if err == nil {
			played = true
			break
		}
		m.logger.Debug("error notification failed", logging.String("sound", f.String()), logging.Error(err))
	}
	if !played {
		return
	}
	deadline := time.Now().Add(errorSoundLimit)
	for m.hw.Playing() && time.Now().Before(deadline) {
		select {
		case <-ctx.Done():
			m.hw.StopPlayback()
			return
		case <-time.After(m.opts.IdlePoll):
		}
	}
}

func (m *Machine) shutdown() {
	m.hw.StopPlayback()
	m.story.Detach()
	if err := m.hw.Close(); err != nil {
		m.logger.Debug("hardware close failed", logging.Error(err))
	}
	m.logger.Info("shutdown", logging.String(logging.FieldEventType, "shutdown"))
	m.state = Shutdown
}
