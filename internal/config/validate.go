package config

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

// SupportedLanguages lists the language codes the controller has sounds for.
var SupportedLanguages = []string{"de", "en", "tr"}

// MaxLanguages bounds the language select menu to the available buttons.
const MaxLanguages = 3

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateSerial(); err != nil {
		return err
	}
	if err := c.validateGPIO(); err != nil {
		return err
	}
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateStory(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateSerial() error {
	if c.Serial.Device == "" {
		return errors.New("serial.device must be set")
	}
	if c.Serial.BaudRate <= 0 {
		return errors.New("serial.baud_rate must be positive")
	}
	if c.Serial.ReadTimeoutMS <= 0 {
		return errors.New("serial.read_timeout_ms must be positive")
	}
	if c.Serial.HelloTimeoutMS <= 0 {
		return errors.New("serial.hello_timeout_ms must be positive")
	}
	return nil
}

func (c *Config) validateGPIO() error {
	pins := map[int]string{}
	for name, pin := range map[string]int{
		"gpio.lid_pin":      c.GPIO.LidPin,
		"gpio.helo_out_pin": c.GPIO.HeloOutPin,
		"gpio.helo_in_pin":  c.GPIO.HeloInPin,
	} {
		if pin < 0 {
			return fmt.Errorf("%s must not be negative", name)
		}
		if other, ok := pins[pin]; ok {
			return fmt.Errorf("%s and %s share pin %d", other, name, pin)
		}
		pins[pin] = name
	}
	return nil
}

func (c *Config) validatePaths() error {
	if c.Paths.RecordingsDir == "" {
		return errors.New("paths.recordings_dir must be set")
	}
	if c.Paths.SFXDir == "" {
		return errors.New("paths.sfx_dir must be set")
	}
	return nil
}

func (c *Config) validateStory() error {
	if len(c.Story.Languages) > MaxLanguages {
		return fmt.Errorf("story.languages supports at most %d entries, got %d", MaxLanguages, len(c.Story.Languages))
	}
	seen := map[string]struct{}{}
	for _, lang := range c.Story.Languages {
		if !slices.Contains(SupportedLanguages, lang) {
			return fmt.Errorf("story.languages: unsupported language %q (supported: %s)", lang, strings.Join(SupportedLanguages, ", "))
		}
		if _, dup := seen[lang]; dup {
			return fmt.Errorf("story.languages: duplicate language %q", lang)
		}
		seen[lang] = struct{}{}
	}
	if c.Story.DefaultLanguage != "" && len(c.Story.Languages) > 0 && !slices.Contains(c.Story.Languages, c.Story.DefaultLanguage) {
		return fmt.Errorf("story.default_language %q is not listed in story.languages", c.Story.DefaultLanguage)
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
	return nil
}
