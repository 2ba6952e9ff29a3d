package tools

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"time"
)

// ShellExecTool runs a shell command with a bounded run time and captures
// its output.
type ShellExecTool struct {
	timeout time.Duration
}

// NewShellExecTool creates the tool with the given default timeout.
// A zero timeout falls back to 30 seconds.
func NewShellExecTool(timeout time.Duration) *ShellExecTool {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &ShellExecTool{timeout: timeout}
}

func (t *ShellExecTool) Name() string { return "shell_exec" }

func (t *ShellExecTool) Description() string {
	return "Runs a shell command and captures stdout, stderr, and the exit code. Argument 'command' is required."
}

func (t *ShellExecTool) Execute(ctx context.Context, args map[string]any) Result {
	command, ok := requireString(args, "command")
	if !ok {
		return Fail("missing required argument: command")
	}

	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, "sh", "-c", command) //nolint:gosec // running caller commands is this tool's purpose
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	if ctx.Err() == context.DeadlineExceeded {
		return Fail("command timed out after %s", t.timeout)
	}

	exitCode := 0
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			exitCode = exitErr.ExitCode()
		} else {
			return Fail("running command: %v", err)
		}
	}

	return OK(map[string]any{
		"stdout":    stdout.String(),
		"stderr":    stderr.String(),
		"exit_code": exitCode,
	})
}
