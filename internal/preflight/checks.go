package preflight

import (
	"fmt"
	"os"
	"strings"

	"golang.org/x/sys/unix"

	"pizzabox/internal/config"
	"pizzabox/internal/deps"
	"pizzabox/internal/logging"
	"pizzabox/internal/storage"
	"pizzabox/internal/storyboard"
)

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckReadable verifies that a sound library directory can be listed.
func CheckReadable(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: not readable: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: path}
}

// CheckSerialDevice verifies that the UART device node exists.
func CheckSerialDevice(path string) Result {
	const name = "Serial device"
	info, err := os.Stat(path)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: %v)", path, err)}
	}
	if info.Mode()&os.ModeCharDevice == 0 {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: not a character device)", path)}
	}
	return Result{Name: name, Passed: true, Detail: path}
}

// CheckStorage runs the same marker and free space check as the power-on
// self test.
func CheckStorage(cfg *config.Config) Result {
	const name = "Recording stick"
	if err := storage.Check(cfg.Paths.RecordingsDir, cfg.Paths.StorageMarker, cfg.Session.MinFreeMiB); err != nil {
		return Result{Name: name, Detail: err.Error()}
	}
	free, err := storage.FreeMiB(cfg.Paths.RecordingsDir)
	if err != nil {
		return Result{Name: name, Passed: true, Detail: cfg.Paths.RecordingsDir}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (%d MiB free)", cfg.Paths.RecordingsDir, free)}
}

// CheckStoryboard loads and validates the configured storyboard.
func CheckStoryboard(ref string) Result {
	const name = "Storyboard"
	story, err := storyboard.Load(ref, logging.NewNop())
	if err != nil {
		return Result{Name: name, Detail: err.Error()}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (%d chapters)", story.Name, len(story.Chapters()))}
}

// CheckSystemDeps evaluates the media tools named by cfg.
func CheckSystemDeps(cfg *config.Config) []deps.Status {
	return deps.CheckBinaries(deps.MediaRequirements(cfg))
}

func statusResult(s deps.Status) Result {
	detail := s.Path
	if !s.Available {
		detail = s.Detail
		if s.Optional {
			detail += " (optional)"
		}
	}
	return Result{
		Name:     s.Name,
		Passed:   s.Available,
		Optional: s.Optional,
		Detail:   strings.TrimSpace(detail),
	}
}
