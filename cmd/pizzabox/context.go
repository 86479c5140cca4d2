package main

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"strings"

	"github.com/gofrs/flock"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"pizzabox/internal/config"
	"pizzabox/internal/logging"
)

const (
	defaultEnvFile = ".env"
	// skipConfigLoad marks commands that must work without a loadable config.
	skipConfigLoad = "skipConfigLoad"
)

// commandContext carries the global flags and lazily loaded shared state.
// Cobra runs one command per process, so no locking is needed.
type commandContext struct {
	configFlag *string
	envFlag    *string

	config *config.Config
	logger *slog.Logger
}

func newCommandContext(configFlag, envFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag, envFlag: envFlag}
}

func (c *commandContext) configPath() string {
	if c.configFlag == nil {
		return ""
	}
	return strings.TrimSpace(*c.configFlag)
}

// loadEnv reads the dotenv file into the process environment. Variables
// already set win. Only an explicitly named file has to exist.
func (c *commandContext) loadEnv() error {
	path, explicit := defaultEnvFile, false
	if c.envFlag != nil {
		if named := strings.TrimSpace(*c.envFlag); named != "" {
			path, explicit = named, true
		}
	}
	err := godotenv.Load(path)
	switch {
	case err == nil:
		return nil
	case !explicit && errors.Is(err, fs.ErrNotExist):
		return nil
	}
	return fmt.Errorf("load env file %s: %w", path, err)
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	if c.config != nil {
		return c.config, nil
	}
	cfg, _, _, err := config.Load(c.configPath())
	if err != nil {
		return nil, err
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, err
	}
	c.config = cfg
	return cfg, nil
}

func (c *commandContext) ensureLogger() (*slog.Logger, error) {
	if c.logger != nil {
		return c.logger, nil
	}
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	logger, err := logging.NewFromConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	c.logger = logger
	return logger, nil
}

// withLock runs fn while holding the controller lock. Only one process may
// own the UART and the GPIO lines.
func (c *commandContext) withLock(fn func() error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	lock := flock.New(cfg.Paths.LockPath)
	locked, err := lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !locked {
		return fmt.Errorf("another pizzabox process holds %s", cfg.Paths.LockPath)
	}
	defer func() { _ = lock.Unlock() }()
	return fn()
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations[skipConfigLoad] == "true" {
			return true
		}
	}
	return false
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
