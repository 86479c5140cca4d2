package main

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"pizzabox/internal/config"
	"pizzabox/internal/ledger"
	"pizzabox/internal/lifecycle"
	"pizzabox/internal/logging"
	"pizzabox/internal/preflight"
	"pizzabox/internal/storage"
	"pizzabox/internal/storyboard"
)

type runOverrides struct {
	loop   bool
	test   bool
	noMove bool
}

func newRunCommand(ctx *commandContext) *cobra.Command {
	var overrides runOverrides

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the installation until shutdown",
		Long: `Run powers on the box, waits for visitors, and plays the configured
storyboard. With --loop the box returns to its self test after every visitor.
The process exits 0 on a normal shutdown and 2 when the box ended in its
error state.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withLock(func() error {
				return runController(cmd.Context(), ctx, overrides)
			})
		},
	}

	cmd.Flags().BoolVar(&overrides.loop, "loop", false, "Return to the self test after each session")
	cmd.Flags().BoolVar(&overrides.test, "test", false, "Test mode: skip the recording stick check and the lid wait")
	cmd.Flags().BoolVar(&overrides.noMove, "no-move", false, "Disable scroll movement between chapters")
	return cmd
}

func runController(cmdCtx context.Context, ctx *commandContext, overrides runOverrides) error {
	signalCtx, cancel := signal.NotifyContext(cmdCtx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, err := ctx.ensureConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if overrides.loop {
		cfg.Session.Loop = true
	}
	if overrides.test {
		cfg.Session.Test = true
	}
	if overrides.noMove {
		cfg.Story.Move = false
	}

	runID := time.Now().UTC().Format("20060102T150405.000Z")
	logger, logPath, err := logging.NewRun(cfg, runID)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	logging.PruneRunLogs(logger, cfg.Paths.LogDir, cfg.Logging.RetentionDays, logPath)

	reportPreflight(logger, preflight.RunAll(cfg))

	story, err := storyboard.Load(cfg.Story.Storyboard, logger)
	if err != nil {
		return fmt.Errorf("load storyboard: %w", err)
	}

	store, err := ledger.Open(cfg.Paths.LedgerPath)
	if err != nil {
		logger.Error("open session ledger", logging.Error(err))
		return err
	}
	defer store.Close()

	monitor := storage.NewMonitor(logger, nil)
	if err := monitor.Start(signalCtx); err != nil {
		logger.Warn("storage monitor start", logging.Error(err))
	}
	defer monitor.Stop()

	box, err := openBox(cfg, logger)
	if err != nil {
		return err
	}

	machine := lifecycle.New(box, story, machineOptions(cfg, store, logger), logger)
	logger.Info("pizzabox starting",
		logging.String("storyboard", story.Name),
		logging.Bool("loop", cfg.Session.Loop),
		logging.Bool("test", cfg.Session.Test),
	)
	code := machine.Run(signalCtx)
	logger.Info("pizzabox stopped", logging.Int("exit_code", code))
	if code != lifecycle.ExitOK {
		return exitCodeError{code: code}
	}
	return nil
}

func machineOptions(cfg *config.Config, recorder lifecycle.Recorder, logger *slog.Logger) lifecycle.Options {
	return lifecycle.Options{
		Languages:       cfg.Story.Languages,
		DefaultLanguage: cfg.Story.DefaultLanguage,
		LanguageSelect:  cfg.Story.LanguageSelect,
		Loop:            cfg.Session.Loop,
		Test:            cfg.Session.Test,
		Move:            cfg.Story.Move,
		Library:         libraryFor(cfg),
		StorageMarker:   cfg.Paths.StorageMarker,
		MinFreeMiB:      cfg.Session.MinFreeMiB,
		Corrector:       newCorrector(cfg, logger),
		Recorder:        recorder,
	}
}

func reportPreflight(logger *slog.Logger, results []preflight.Result) {
	for _, r := range results {
		if r.Passed {
			logger.Debug("preflight check passed", logging.String("check", r.Name), logging.String("detail", r.Detail))
			continue
		}
		eventType := "preflight_failed"
		if r.Optional {
			eventType = "preflight_optional_missing"
		}
		logging.WarnWithContext(logger, "preflight check failed", eventType,
			logging.String("check", r.Name),
			logging.String("detail", r.Detail),
			logging.String(logging.FieldErrorHint, "run `pizzabox check` for the full report"),
		)
	}
}
