package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"pizzabox/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// The sound libraries and recordings directory exist; the storage marker
// does not unless WithStick is applied.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.StoryDir = filepath.Join(base, "story")
	cfgVal.Paths.SFXDir = filepath.Join(base, "sounds")
	cfgVal.Paths.RecordingsDir = filepath.Join(base, "stick")
	cfgVal.Paths.StorageMarker = filepath.Join(base, "stick", ".stick")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Paths.LedgerPath = filepath.Join(base, "state", "sessions.db")
	cfgVal.Paths.LockPath = filepath.Join(base, "state", "pizzabox.lock")
	cfgVal.Story.Storyboard = "builtin:demo"

	for _, dir := range []string{cfgVal.Paths.StoryDir, cfgVal.Paths.SFXDir, cfgVal.Paths.RecordingsDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			t.Fatalf("mkdir %s: %v", dir, err)
		}
	}

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithStick writes the storage marker so the recordings directory looks
// like a prepared stick.
func WithStick() ConfigOption {
	return func(b *configBuilder) {
		WriteFile(b.t, b.cfg.Paths.StorageMarker, "")
	}
}

// WithTestMode enables test mode, which skips the storage check.
func WithTestMode() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Session.Test = true
	}
}

// WithStoryboard overrides the storyboard reference.
func WithStoryboard(ref string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Story.Storyboard = ref
	}
}

// WithStubbedBinaries writes stub executables for the provided names and
// prepends them to PATH. If names is empty, the configured media tools are
// stubbed.
func WithStubbedBinaries(names ...string) ConfigOption {
	return func(b *configBuilder) {
		if len(names) == 0 {
			m := b.cfg.Media
			names = []string{m.Player, m.Recorder, m.Video, m.Still, m.FFmpeg, m.FFprobe}
		}
		binDir := filepath.Join(b.baseDir, "bin")
		for _, name := range names {
			if name == "" {
				continue
			}
			WriteScript(b.t, filepath.Join(binDir, name), "exit 0")
		}

		b.t.Setenv("PATH", binDir+string(os.PathListSeparator)+os.Getenv("PATH"))
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.StoryDir)
}
