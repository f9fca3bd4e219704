package player

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"testing"
	"time"
)

func TestNewExec_EmptyCommand(t *testing.T) {
	for _, argv := range [][]string{nil, {""}} {
		if _, err := NewExec(argv, nil); !errors.Is(err, ErrNoCommand) {
			t.Fatalf("NewExec(%q) error = %v, want ErrNoCommand", argv, err)
		}
	}
}

func TestExec_PlayAndStop(t *testing.T) {
	if _, err := exec.LookPath("sleep"); err != nil {
		t.Skip("sleep not available")
	}
	p, err := NewExec([]string{"sleep"}, nil)
	if err != nil {
		t.Fatalf("NewExec returned error: %v", err)
	}
	ctx := context.Background()

	if err := p.Play(ctx, "30"); err != nil {
		t.Fatalf("Play returned error: %v", err)
	}
	if !p.Playing() {
		t.Fatalf("Playing = false after Play")
	}
	// A second Play replaces the first video.
	if err := p.Play(ctx, "30"); err != nil {
		t.Fatalf("second Play returned error: %v", err)
	}
	if err := p.Stop(); err != nil {
		t.Fatalf("Stop returned error: %v", err)
	}
	if p.Playing() {
		t.Fatalf("Playing = true after Stop")
	}
	if err := p.Stop(); err != nil {
		t.Fatalf("repeated Stop returned error: %v", err)
	}
}

func TestExec_ConcurrentPlayLeavesNoStrays(t *testing.T) {
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
	pidFile := filepath.Join(t.TempDir(), "pids")
	// Each child records its pid, then becomes the sleep.
	script := `echo $$ >> "$1"; exec sleep 30`
	p, err := NewExec([]string{"sh", "-c", script, "sh", pidFile}, nil)
	if err != nil {
		t.Fatalf("NewExec returned error: %v", err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := p.Play(context.Background(), "scene.mp4"); err != nil {
				t.Errorf("Play returned error: %v", err)
			}
		}()
	}
	wg.Wait()
	if !p.Playing() {
		t.Fatalf("Playing = false after concurrent Play")
	}
	if err := p.Stop(); err != nil {
		t.Fatalf("Stop returned error: %v", err)
	}

	data, err := os.ReadFile(pidFile)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("ReadFile: %v", err)
	}
	for _, field := range strings.Fields(string(data)) {
		pid, err := strconv.Atoi(field)
		if err != nil {
			t.Fatalf("bad pid %q", field)
		}
		if err := syscall.Kill(pid, 0); !errors.Is(err, syscall.ESRCH) {
			_ = syscall.Kill(pid, syscall.SIGKILL)
			t.Fatalf("child %d still running after Stop", pid)
		}
	}
}

func TestExec_ChildExitClearsState(t *testing.T) {
	if _, err := exec.LookPath("true"); err != nil {
		t.Skip("true not available")
	}
	p, err := NewExec([]string{"true"}, nil)
	if err != nil {
		t.Fatalf("NewExec returned error: %v", err)
	}
	if err := p.Play(context.Background(), "ignored"); err != nil {
		t.Fatalf("Play returned error: %v", err)
	}
	deadline := time.Now().Add(5 * time.Second)
	for p.Playing() {
		if time.Now().After(deadline) {
			t.Fatalf("Playing still true after child exit")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestExec_MissingBinary(t *testing.T) {
	p, err := NewExec([]string{"brickview-no-such-player"}, nil)
	if err != nil {
		t.Fatalf("NewExec returned error: %v", err)
	}
	if err := p.Play(context.Background(), "a.mp4"); err == nil {
		t.Fatalf("Play returned nil error for missing binary")
	}
}

func TestNop(t *testing.T) {
	var p Player = Nop{}
	if err := p.Play(context.Background(), "a.mp4"); err != nil {
		t.Fatalf("Nop.Play returned error: %v", err)
	}
	if err := p.Stop(); err != nil {
		t.Fatalf("Nop.Stop returned error: %v", err)
	}
}
