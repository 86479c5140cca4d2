package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Serial contains the UART settings for the microcontroller link.
type Serial struct {
	Device         string `toml:"device"`
	BaudRate       int    `toml:"baud_rate"`
	ReadTimeoutMS  int    `toml:"read_timeout_ms"`
	HelloTimeoutMS int    `toml:"hello_timeout_ms"`
	DrainLimit     int    `toml:"drain_limit"`
}

// GPIO contains the sysfs line numbers of the lid switch and HELO pins.
type GPIO struct {
	SysfsRoot    string `toml:"sysfs_root"`
	LidPin       int    `toml:"lid_pin"`
	LidActiveLow bool   `toml:"lid_active_low"`
	HeloOutPin   int    `toml:"helo_out_pin"`
	HeloInPin    int    `toml:"helo_in_pin"`
}

// Paths contains directory configuration.
type Paths struct {
	StoryDir      string `toml:"story_dir"`
	SFXDir        string `toml:"sfx_dir"`
	RecordingsDir string `toml:"recordings_dir"`
	StorageMarker string `toml:"storage_marker"`
	LogDir        string `toml:"log_dir"`
	LedgerPath    string `toml:"ledger_path"`
	LockPath      string `toml:"lock_path"`
}

// Media names the external audio, camera, and transcoding tools.
type Media struct {
	Player       string   `toml:"player"`
	Recorder     string   `toml:"recorder"`
	Video        string   `toml:"video"`
	Still        string   `toml:"still"`
	FFmpeg       string   `toml:"ffmpeg"`
	FFprobe      string   `toml:"ffprobe"`
	SampleRate   int      `toml:"sample_rate"`
	VideoWidth   int      `toml:"video_width"`
	VideoHeight  int      `toml:"video_height"`
	PhotoWidth   int      `toml:"photo_width"`
	PhotoHeight  int      `toml:"photo_height"`
	Keystone     []string `toml:"keystone"`
	Rotation     string   `toml:"rotation"`
	DeleteSource bool     `toml:"delete_source"`
}

// Story selects the storyboard and the visitor languages.
type Story struct {
	Storyboard      string   `toml:"storyboard"`
	Languages       []string `toml:"languages"`
	DefaultLanguage string   `toml:"default_language"`
	LanguageSelect  bool     `toml:"language_select"`
	Move            bool     `toml:"move"`
}

// Session contains run mode switches.
type Session struct {
	Loop       bool `toml:"loop"`
	Test       bool `toml:"test"`
	MinFreeMiB int  `toml:"min_free_mib"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format        string `toml:"format"`
	Level         string `toml:"level"`
	RetentionDays int    `toml:"retention_days"`
}

// Config encapsulates all configuration values for the installation.
//
// Configuration sections by subsystem:
//   - Serial: microcontroller UART
//   - GPIO: lid switch and HELO handshake lines
//   - Paths: sound libraries, recordings, logs, ledger
//   - Media: audio, camera, and post-processing tools
//   - Story: storyboard selection and languages
//   - Session: loop and test modes
//   - Logging: log format, level, and retention
type Config struct {
	Serial  Serial  `toml:"serial"`
	GPIO    GPIO    `toml:"gpio"`
	Paths   Paths   `toml:"paths"`
	Media   Media   `toml:"media"`
	Story   Story   `toml:"story"`
	Session Session `toml:"session"`
	Logging Logging `toml:"logging"`
}

const (
	userConfigPath    = "~/.config/pizzabox/config.toml"
	projectConfigName = "pizzabox.toml"
	systemConfigPath  = "/etc/pizzabox/config.toml"
)

// DefaultConfigPath is where `config init` writes and where Load looks first.
func DefaultConfigPath() (string, error) {
	return expandPath(userConfigPath)
}

// Load reads, normalizes, and validates the configuration. With an explicit
// path only that file is considered; otherwise the user file, ./pizzabox.toml
// and /etc/pizzabox/config.toml are tried in order. A missing file means
// defaults. Load returns the path it settled on and whether it existed.
func Load(path string) (*Config, string, bool, error) {
	candidates, err := configCandidates(path)
	if err != nil {
		return nil, "", false, err
	}
	resolved, exists, err := firstExisting(candidates)
	if err != nil {
		return nil, "", false, err
	}

	cfg := Default()
	if exists {
		data, err := os.ReadFile(resolved)
		if err != nil {
			return nil, "", false, fmt.Errorf("read config: %w", err)
		}
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config %s: %w", resolved, err)
		}
	}
	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}
	return &cfg, resolved, exists, nil
}

func configCandidates(explicit string) ([]string, error) {
	if explicit = strings.TrimSpace(explicit); explicit != "" {
		p, err := expandPath(explicit)
		if err != nil {
			return nil, err
		}
		return []string{p}, nil
	}
	user, err := DefaultConfigPath()
	if err != nil {
		return nil, err
	}
	project, err := expandPath(projectConfigName)
	if err != nil {
		return nil, err
	}
	return []string{user, project, systemConfigPath}, nil
}

// firstExisting returns the first regular file among candidates, or the
// first candidate when none exist.
func firstExisting(candidates []string) (string, bool, error) {
	for _, p := range candidates {
		info, err := os.Stat(p)
		switch {
		case err == nil && !info.IsDir():
			return p, true, nil
		case err != nil && !errors.Is(err, fs.ErrNotExist):
			return "", false, fmt.Errorf("stat config: %w", err)
		}
	}
	return candidates[0], false, nil
}

// EnsureDirectories creates the directories the controller writes to. The
// recordings directory lives on removable storage and is left alone; the
// self test reports it instead.
func (c *Config) EnsureDirectories() error {
	dirs := []string{c.Paths.LogDir, filepath.Dir(c.Paths.LedgerPath), filepath.Dir(c.Paths.LockPath)}
	for _, dir := range dirs {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// ReadTimeout returns the per-read serial timeout.
func (c *Config) ReadTimeout() time.Duration {
	return time.Duration(c.Serial.ReadTimeoutMS) * time.Millisecond
}

// HelloTimeout returns the budget for the HELO pin and handshake exchange.
func (c *Config) HelloTimeout() time.Duration {
	return time.Duration(c.Serial.HelloTimeoutMS) * time.Millisecond
}

// ExpandPath resolves "~" and makes the path absolute. Empty stays empty.
func ExpandPath(p string) (string, error) {
	return expandPath(p)
}

func expandPath(p string) (string, error) {
	if p == "" {
		return "", nil
	}
	if p == "~" || strings.HasPrefix(p, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		p = filepath.Join(home, strings.TrimPrefix(p, "~"))
	}
	abs, err := filepath.Abs(p)
	if err != nil {
		return "", fmt.Errorf("resolve %q: %w", p, err)
	}
	return abs, nil
}

// CreateSample writes the commented sample configuration to path.
func CreateSample(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
