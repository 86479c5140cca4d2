package media

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"sync"

	"pizzabox/internal/logging"
	"pizzabox/internal/services"
)

// Player plays wav files through an external command-line player, one at a
// time. Starting a new sound stops the current one.
type Player struct {
	binary string
	logger *slog.Logger

	mu    sync.Mutex
	cmd   *exec.Cmd
	done  chan struct{}
	cache map[string]struct{}
}

// NewPlayer builds a player around binary (typically aplay).
func NewPlayer(binary string, logger *slog.Logger) *Player {
	return &Player{
		binary: binary,
		logger: logging.NewComponentLogger(logger, "player"),
		cache:  map[string]struct{}{},
	}
}

// Preload verifies the files exist and remembers them so later playback
// skips the check. Missing files are reported together.
func (p *Player) Preload(paths ...string) error {
	var missing []error
	for _, path := range paths {
		if _, err := os.Stat(path); err != nil {
			missing = append(missing, err)
			continue
		}
		p.Cache(path)
	}
	if len(missing) > 0 {
		return services.Wrap(services.ErrFileSystem, "player", "preload",
			fmt.Sprintf("%d sounds unavailable", len(missing)), errors.Join(missing...))
	}
	return nil
}

// Cache marks path as known-good.
func (p *Player) Cache(path string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.cache[path] = struct{}{}
}

// Start begins playback of path and returns immediately.
func (p *Player) Start(ctx context.Context, path string) error {
	p.Stop()

	p.mu.Lock()
	_, cached := p.cache[path]
	p.mu.Unlock()
	if !cached {
		if _, err := os.Stat(path); err != nil {
			return services.Wrap(services.ErrFileSystem, "player", "start", path, err)
		}
	}

	cmd := exec.CommandContext(ctx, p.binary, "-q", path)
	if err := cmd.Start(); err != nil {
		return services.Wrap(services.ErrExternalTool, "player", "start", p.binary, err)
	}
	done := make(chan struct{})
	go func() {
		if err := cmd.Wait(); err != nil && ctx.Err() == nil {
			p.logger.Debug("playback ended with error", logging.String("path", path), logging.Error(err))
		}
		close(done)
	}()

	p.mu.Lock()
	p.cmd = cmd
	p.done = done
	p.mu.Unlock()
	p.logger.Debug("playback started", logging.String("path", path))
	return nil
}

// Playing reports whether a sound is still running.
func (p *Player) Playing() bool {
	p.mu.Lock()
	done := p.done
	p.mu.Unlock()
	if done == nil {
		return false
	}
	select {
	case <-done:
		return false
	default:
		return true
	}
}

// Stop ends playback and waits for the player process to exit.
func (p *Player) Stop() {
	p.mu.Lock()
	cmd, done := p.cmd, p.done
	p.cmd, p.done = nil, nil
	p.mu.Unlock()
	if cmd == nil {
		return
	}
	select {
	case <-done:
		return
	default:
	}
	if cmd.Process != nil {
		_ = cmd.Process.Kill()
	}
	<-done
}
