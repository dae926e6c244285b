package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"syscall"
	"time"

	"golang.org/x/sys/unix"

	"fischpipe/internal/services"
)

// commandWaitDelay bounds how long Wait blocks on inherited pipes after the
// process group has been killed.
const commandWaitDelay = 2 * time.Second

// Command runs an external process in its own process group. On cancellation
// or timeout the whole group is killed so adapter subprocesses cannot outlive
// the step.
type Command struct {
	Args      []string
	Dir       string
	Env       []string
	TailBytes int
}

// Execute implements Executor.
func (c Command) Execute(ctx context.Context) (Output, error) {
	if len(c.Args) == 0 || strings.TrimSpace(c.Args[0]) == "" {
		return Output{}, services.Wrap(services.ErrConfiguration, "command", "execute", "no command configured", nil)
	}

	stdout := newTailBuffer(c.TailBytes)
	stderr := newTailBuffer(c.TailBytes)

	cmd := exec.CommandContext(ctx, c.Args[0], c.Args[1:]...)
	cmd.Dir = c.Dir
	if len(c.Env) > 0 {
		cmd.Env = append(os.Environ(), c.Env...)
	}
	cmd.Stdout = stdout
	cmd.Stderr = stderr
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Cancel = func() error {
		if cmd.Process == nil {
			return nil
		}
		return unix.Kill(-cmd.Process.Pid, unix.SIGKILL)
	}
	cmd.WaitDelay = commandWaitDelay

	runErr := cmd.Run()
	out := Output{StdoutTail: stdout.String(), StderrTail: stderr.String()}
	if runErr == nil {
		return out, nil
	}

	label := strings.Join(c.Args, " ")
	if ctxErr := ctx.Err(); ctxErr != nil {
		if errors.Is(ctxErr, context.DeadlineExceeded) {
			return out, services.Wrap(services.ErrTimeout, "command", label, "killed after timeout", ctxErr)
		}
		return out, services.Wrap(services.ErrStep, "command", label, "cancelled", ctxErr)
	}
	var exitErr *exec.ExitError
	if errors.As(runErr, &exitErr) {
		return out, services.Wrap(services.ErrStep, "command", label, fmt.Sprintf("exit status %d", exitErr.ExitCode()), runErr)
	}
	return out, services.Wrap(services.ErrStep, "command", label, "failed to run", runErr)
}
