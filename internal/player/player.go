// Package player hands scene videos to an external media player.
package player

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"sync"
)

// ErrNoCommand is returned by NewExec when no player command is configured.
var ErrNoCommand = errors.New("player command is empty")

// Player starts and stops video playback.
type Player interface {
	Play(ctx context.Context, ref string) error
	Stop() error
}

var (
	_ Player = (*Exec)(nil)
	_ Player = Nop{}
)

// Nop ignores playback requests. It is used when no player is configured.
type Nop struct{}

func (Nop) Play(context.Context, string) error { return nil }
func (Nop) Stop() error                        { return nil }

// Exec runs argv followed by the video reference as a child process. At
// most one video plays at a time.
type Exec struct {
	argv   []string
	logger *slog.Logger

	mu   sync.Mutex
	cmd  *exec.Cmd
	done chan struct{}
}

// NewExec returns a player that launches argv[0] with argv[1:] and the
// video reference as arguments.
func NewExec(argv []string, logger *slog.Logger) (*Exec, error) {
	if len(argv) == 0 || argv[0] == "" {
		return nil, ErrNoCommand
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Exec{argv: append([]string(nil), argv...), logger: logger}, nil
}

// Play stops any current video and starts ref. The lock is held from the
// stop through the start, so overlapping calls leave exactly one child.
func (p *Exec) Play(ctx context.Context, ref string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.stopLocked(); err != nil {
		return err
	}

	args := append(append([]string(nil), p.argv[1:]...), ref)
	cmd := exec.CommandContext(ctx, p.argv[0], args...)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start player: %w", err)
	}
	done := make(chan struct{})
	p.cmd = cmd
	p.done = done

	go func() {
		err := cmd.Wait()
		close(done)
		p.mu.Lock()
		if p.cmd == cmd {
			p.cmd = nil
			p.done = nil
		}
		p.mu.Unlock()
		if err != nil {
			p.logger.Debug("player exited", "video", ref, "error", err)
		}
	}()
	p.logger.Info("playing video", "video", ref, "pid", cmd.Process.Pid)
	return nil
}

// Stop kills the current video, if any, and waits for it to exit.
func (p *Exec) Stop() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stopLocked()
}

// stopLocked must be called with mu held. The wait goroutine closes done
// before it takes mu, so waiting here cannot deadlock.
func (p *Exec) stopLocked() error {
	cmd, done := p.cmd, p.done
	if cmd == nil {
		return nil
	}
	if err := cmd.Process.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
		return fmt.Errorf("stop player: %w", err)
	}
	<-done
	p.cmd = nil
	p.done = nil
	return nil
}

// Playing reports whether a child process is still running.
func (p *Exec) Playing() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cmd != nil
}
