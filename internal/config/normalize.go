package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/text/language"
)

func (c *Config) normalize() error {
	c.applyEnv()
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeSerial()
	c.normalizeMedia()
	if err := c.normalizeStory(); err != nil {
		return err
	}
	c.normalizeLogging()
	return nil
}

// applyEnv lets the appliance override a handful of settings without editing
// the TOML file. Values usually come from a dotenv file loaded by the CLI.
func (c *Config) applyEnv() {
	if value, ok := os.LookupEnv("PIZZABOX_SERIAL_DEVICE"); ok && strings.TrimSpace(value) != "" {
		c.Serial.Device = strings.TrimSpace(value)
	}
	if value, ok := os.LookupEnv("PIZZABOX_STORYBOARD"); ok && strings.TrimSpace(value) != "" {
		c.Story.Storyboard = strings.TrimSpace(value)
	}
	if value, ok := os.LookupEnv("PIZZABOX_LOG_LEVEL"); ok && strings.TrimSpace(value) != "" {
		c.Logging.Level = strings.TrimSpace(value)
	}
	if value, ok := os.LookupEnv("PIZZABOX_RECORDINGS_DIR"); ok && strings.TrimSpace(value) != "" {
		c.Paths.RecordingsDir = strings.TrimSpace(value)
	}
}

func (c *Config) normalizePaths() error {
	var err error
	if c.Paths.StoryDir, err = expandPath(c.Paths.StoryDir); err != nil {
		return fmt.Errorf("paths.story_dir: %w", err)
	}
	if c.Paths.SFXDir, err = expandPath(c.Paths.SFXDir); err != nil {
		return fmt.Errorf("paths.sfx_dir: %w", err)
	}
	if c.Paths.RecordingsDir, err = expandPath(c.Paths.RecordingsDir); err != nil {
		return fmt.Errorf("paths.recordings_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.StorageMarker) == "" && c.Paths.RecordingsDir != "" {
		c.Paths.StorageMarker = filepath.Join(c.Paths.RecordingsDir, defaultStorageMarkerName)
	}
	if c.Paths.StorageMarker, err = expandPath(c.Paths.StorageMarker); err != nil {
		return fmt.Errorf("paths.storage_marker: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LedgerPath) == "" {
		c.Paths.LedgerPath = defaultLedgerPath
	}
	if c.Paths.LedgerPath, err = expandPath(c.Paths.LedgerPath); err != nil {
		return fmt.Errorf("paths.ledger_path: %w", err)
	}
	if strings.TrimSpace(c.Paths.LockPath) == "" {
		c.Paths.LockPath = defaultLockPath
	}
	if c.Paths.LockPath, err = expandPath(c.Paths.LockPath); err != nil {
		return fmt.Errorf("paths.lock_path: %w", err)
	}
	return nil
}

func (c *Config) normalizeSerial() {
	c.Serial.Device = strings.TrimSpace(c.Serial.Device)
	if c.Serial.DrainLimit <= 0 {
		c.Serial.DrainLimit = defaultDrainLimit
	}
	if strings.TrimSpace(c.GPIO.SysfsRoot) == "" {
		c.GPIO.SysfsRoot = defaultSysfsRoot
	}
}

func (c *Config) normalizeMedia() {
	trimOr := func(value, fallback string) string {
		if v := strings.TrimSpace(value); v != "" {
			return v
		}
		return fallback
	}
	c.Media.Player = trimOr(c.Media.Player, defaultPlayer)
	c.Media.Recorder = trimOr(c.Media.Recorder, defaultRecorder)
	c.Media.Video = trimOr(c.Media.Video, defaultVideoTool)
	c.Media.Still = trimOr(c.Media.Still, defaultStillTool)
	c.Media.FFmpeg = trimOr(c.Media.FFmpeg, defaultFFmpeg)
	c.Media.FFprobe = trimOr(c.Media.FFprobe, defaultFFprobe)
	c.Media.Rotation = strings.TrimSpace(c.Media.Rotation)
	if c.Media.SampleRate <= 0 {
		c.Media.SampleRate = defaultSampleRate
	}
	if len(c.Media.Keystone) == 0 {
		c.Media.Keystone = append([]string(nil), defaultKeystone...)
	}
}

// normalizeStory canonicalizes language codes so "DE", "de-DE", and "deu" all
// resolve to the same base language.
func (c *Config) normalizeStory() error {
	c.Story.Storyboard = strings.TrimSpace(c.Story.Storyboard)
	if c.Story.Storyboard == "" {
		c.Story.Storyboard = defaultStoryboard
	}
	langs := make([]string, 0, len(c.Story.Languages))
	for _, raw := range c.Story.Languages {
		code, err := canonicalLanguage(raw)
		if err != nil {
			return fmt.Errorf("story.languages: %w", err)
		}
		langs = append(langs, code)
	}
	c.Story.Languages = langs
	if strings.TrimSpace(c.Story.DefaultLanguage) == "" && len(langs) > 0 {
		c.Story.DefaultLanguage = langs[0]
	}
	if strings.TrimSpace(c.Story.DefaultLanguage) != "" {
		code, err := canonicalLanguage(c.Story.DefaultLanguage)
		if err != nil {
			return fmt.Errorf("story.default_language: %w", err)
		}
		c.Story.DefaultLanguage = code
	}
	return nil
}

func canonicalLanguage(raw string) (string, error) {
	tag, err := language.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "", fmt.Errorf("parse %q: %w", raw, err)
	}
	base, _ := tag.Base()
	return base.String(), nil
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if c.Logging.RetentionDays < 0 {
		c.Logging.RetentionDays = 0
	}
}
