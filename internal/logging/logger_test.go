package logging_test

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"pizzabox/internal/config"
	"pizzabox/internal/logging"
	"pizzabox/internal/services"
)

func TestNewFromConfigWritesLogFile(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.LogDir = t.TempDir()

	logger, err := logging.NewFromConfig(&cfg)
	if err != nil {
		t.Fatalf("NewFromConfig returned error: %v", err)
	}
	logger.Info("controller ready")

	content, err := os.ReadFile(filepath.Join(cfg.Paths.LogDir, logging.LogFileName))
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(content), "controller ready") {
		t.Fatalf("expected message in log file, got %q", content)
	}
}

func TestNewRunWritesPerRunFile(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.LogDir = filepath.Join(t.TempDir(), "logs")

	logger, path, err := logging.NewRun(&cfg, "20260101T000000.000Z")
	if err != nil {
		t.Fatalf("NewRun returned error: %v", err)
	}
	if want := filepath.Join(cfg.Paths.LogDir, "pizzabox-20260101T000000.000Z.log"); path != want {
		t.Fatalf("path = %q, want %q", path, want)
	}
	logger.Warn("lid open")

	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read run log: %v", err)
	}
	if !strings.Contains(string(content), "lid open") {
		t.Fatalf("expected message in run log, got %q", content)
	}
}

func TestConsoleOmitsSourceAtInfo(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Level: "info", Console: &buf})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logger.Info("message without caller")

	if strings.Contains(buf.String(), ".go:") {
		t.Fatalf("expected no caller information in info logs, got %q", buf.String())
	}
}

func TestConsoleAddsSourceAtDebug(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Level: "debug", Console: &buf})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logger.Debug("with caller")

	if !strings.Contains(buf.String(), "<logger_test.go:") {
		t.Fatalf("expected caller in debug line, got %q", buf.String())
	}
}

func TestConsoleFoldsStateAndComponentIntoSubject(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Level: "info", Console: &buf})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	ctx := services.WithState(context.Background(), "IdleArmed")
	ctx = services.WithSessionID(ctx, "abc")
	logging.WithContext(ctx, logging.NewComponentLogger(logger, "link")).Info("frame sent", logging.Int("bytes", 4))

	line := buf.String()
	if !strings.Contains(line, "[IdleArmed/link] frame sent") {
		t.Fatalf("expected subject prefix, got %q", line)
	}
	for _, fragment := range []string{"session_id=abc", "bytes=4"} {
		if !strings.Contains(line, fragment) {
			t.Fatalf("expected %q in %q", fragment, line)
		}
	}
	if strings.Contains(line, "state=") || strings.Contains(line, "component=") {
		t.Fatalf("subject fields should not repeat as key/values, got %q", line)
	}
}

func TestConsoleQuotesAndGroups(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Level: "info", Console: &buf})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logger.WithGroup("media").Info("player failed",
		logging.String("file", "intro clip.mp4"),
		logging.Error(errors.New("exit status 1")),
	)

	line := buf.String()
	for _, fragment := range []string{`media.file="intro clip.mp4"`, `media.error="exit status 1"`} {
		if !strings.Contains(line, fragment) {
			t.Fatalf("expected %s in %q", fragment, line)
		}
	}
}

func TestJSONLoggerUsesShortKeys(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Format: "json", Level: "info", Console: &buf})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logger.Warn("lid closed", logging.Event("lid_closed"))

	for _, fragment := range []string{`"level":"warn"`, `"msg":"lid closed"`, `"event_type":"lid_closed"`, `"ts":`} {
		if !strings.Contains(buf.String(), fragment) {
			t.Fatalf("expected %s in %s", fragment, buf.String())
		}
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := logging.New(logging.Options{Format: "xml", Quiet: true}); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestWarnWithContextFillsDefaults(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Level: "info", Console: &buf})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logging.WarnWithContext(logger, "stick missing", "stick_missing",
		logging.String(logging.FieldImpact, "recordings are skipped"))

	line := buf.String()
	for _, fragment := range []string{"event_type=stick_missing", `error_hint="check logs for details"`, `impact="recordings are skipped"`} {
		if !strings.Contains(line, fragment) {
			t.Fatalf("expected %s in %q", fragment, line)
		}
	}
	if strings.Count(line, "impact=") != 1 {
		t.Fatalf("impact should not be duplicated: %q", line)
	}
}

func TestPruneRunLogsKeepsCurrentAndFresh(t *testing.T) {
	dir := t.TempDir()
	old := logging.RunLogPath(dir, "old")
	current := logging.RunLogPath(dir, "current")
	fresh := logging.RunLogPath(dir, "fresh")
	other := filepath.Join(dir, "notes.txt")
	for _, path := range []string{old, current, fresh, other} {
		if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
			t.Fatalf("write %s: %v", path, err)
		}
	}
	past := time.Now().AddDate(0, 0, -10)
	for _, path := range []string{old, current, other} {
		if err := os.Chtimes(path, past, past); err != nil {
			t.Fatalf("chtimes: %v", err)
		}
	}

	if removed := logging.PruneRunLogs(logging.NewNop(), dir, 5, current); removed != 1 {
		t.Fatalf("removed = %d, want 1", removed)
	}
	if _, err := os.Stat(old); !os.IsNotExist(err) {
		t.Fatalf("expected old log removed, stat err=%v", err)
	}
	for _, path := range []string{current, fresh, other} {
		if _, err := os.Stat(path); err != nil {
			t.Fatalf("expected %s kept: %v", path, err)
		}
	}
}

func TestPruneRunLogsDisabled(t *testing.T) {
	dir := t.TempDir()
	path := logging.RunLogPath(dir, "old")
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	past := time.Now().AddDate(-1, 0, 0)
	if err := os.Chtimes(path, past, past); err != nil {
		t.Fatalf("chtimes: %v", err)
	}
	if removed := logging.PruneRunLogs(nil, dir, 0, ""); removed != 0 {
		t.Fatalf("removed = %d, want 0", removed)
	}
}
