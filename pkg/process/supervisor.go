// Package process owns the single backend child process: parsing its
// start command, spawning it, and delivering the signal escalation
// (SIGTERM then SIGKILL) the lifecycle controller asks for when RCON is
// unavailable. Command parsing is grounded on the shell-like word
// splitting the msh (Minecraft Server Hibernation) project uses for the
// same purpose. The stop-requested flag uses go.uber.org/atomic.Bool,
// the same per-connection flag type the teacher proxy uses in
// pkg/proxy/session_client_play.go.
package process

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"runtime"
	"syscall"
	"time"

	"github.com/google/shlex"
	"go.uber.org/atomic"
)

// ExitResult carries how the backend process terminated.
type ExitResult struct {
	Code     int
	Err      error
	Crashed  bool // true if it exited on its own, outside a requested stop
}

// Handle is a running backend child process.
type Handle struct {
	PID int

	cmd    *exec.Cmd
	done   chan ExitResult
	stopRq atomic.Bool // set by MarkStopRequested (also called by Terminate and Kill), so wait() can tell crash apart from requested exit
}

// Supervisor spawns and owns at most one backend process at a time.
type Supervisor struct {
	StartCommand string
	WorkingDir   string
	Stdout       io.Writer
	Stderr       io.Writer
}

// Spawn parses StartCommand by shell-like word splitting and starts the
// backend process. Only one Handle may be alive at a time; the
// lifecycle controller enforces this invariant by never calling Spawn
// while a previous Handle's Done channel is unclosed.
func (s *Supervisor) Spawn(ctx context.Context) (*Handle, error) {
	words, err := shlex.Split(s.StartCommand)
	if err != nil {
		return nil, fmt.Errorf("process: parsing start_command: %w", err)
	}
	if len(words) == 0 {
		return nil, fmt.Errorf("process: start_command is empty")
	}

	cmd := exec.Command(words[0], words[1:]...)
	cmd.Dir = s.WorkingDir
	cmd.Stdout = s.Stdout
	cmd.Stderr = s.Stderr
	if cmd.Stdout == nil {
		cmd.Stdout = os.Stdout
	}
	if cmd.Stderr == nil {
		cmd.Stderr = os.Stderr
	}
	setPlatformAttrs(cmd)

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("process: spawn failed: %w", err)
	}

	h := &Handle{
		PID:  cmd.Process.Pid,
		cmd:  cmd,
		done: make(chan ExitResult, 1),
	}
	go h.wait()
	return h, nil
}

func (h *Handle) wait() {
	err := h.cmd.Wait()
	code := 0
	if h.cmd.ProcessState != nil {
		code = h.cmd.ProcessState.ExitCode()
	}
	h.done <- ExitResult{
		Code:    code,
		Err:     err,
		Crashed: !h.stopRq.Load(),
	}
	close(h.done)
}

// Done reports when the process has exited.
func (h *Handle) Done() <-chan ExitResult { return h.done }

// MarkStopRequested records that the controller itself asked the
// process to exit, so a subsequent exit is not reported as a crash.
func (h *Handle) MarkStopRequested() { h.stopRq.Store(true) }

// Signal sends sig to the process, if still running.
func (h *Handle) Signal(sig os.Signal) error {
	if h.cmd.Process == nil {
		return fmt.Errorf("process: no running process")
	}
	return h.cmd.Process.Signal(sig)
}

// Terminate asks the process to exit gracefully (SIGTERM on Unix), then
// escalates to SIGKILL if it has not exited by deadline. On Windows,
// where SIGTERM cannot be delivered to an arbitrary process, it kills
// immediately — callers should prefer RCON-based shutdown there (the
// lifecycle controller enforces this per the component design).
func (h *Handle) Terminate(ctx context.Context, deadline time.Duration) error {
	h.MarkStopRequested()
	if runtime.GOOS != "windows" {
		_ = h.Signal(syscall.SIGTERM)
	} else {
		return h.Kill()
	}

	select {
	case <-h.done:
		return nil
	case <-time.After(deadline):
		return h.Kill()
	case <-ctx.Done():
		return h.Kill()
	}
}

// Kill forcibly terminates the process.
func (h *Handle) Kill() error {
	h.MarkStopRequested()
	if h.cmd.Process == nil {
		return nil
	}
	return h.cmd.Process.Kill()
}
