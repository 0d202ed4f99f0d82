package run

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/rs/zerolog"

	"strata/internal/logging"
)

// Runner is the single contract through which all disk, package and chroot
// operations are expressed: run an external command, observe its exit
// status. Implementations must record every command's exit status against
// the command name.
type Runner interface {
	// Run executes a command, streaming output to the log writer.
	Run(ctx context.Context, name string, args ...string) error
	// Output executes a command and captures its stdout.
	Output(ctx context.Context, name string, args ...string) ([]byte, error)
	// RunInput executes a command with the given string on stdin. Used for
	// chpasswd so credentials never appear in an argument vector.
	RunInput(ctx context.Context, input, name string, args ...string) error
	// RunInteractive executes a command wired to the controlling terminal,
	// for interactive partitioning tools.
	RunInteractive(ctx context.Context, name string, args ...string) error
	// LookPath reports whether a command is available.
	LookPath(name string) (string, error)
}

// ExecRunner runs commands with os/exec.
type ExecRunner struct {
	// Output sink for non-interactive commands. Defaults to os.Stdout.
	LogWriter io.Writer
}

// NewExecRunner returns a Runner writing command output to stdout.
func NewExecRunner() *ExecRunner {
	return &ExecRunner{LogWriter: os.Stdout}
}

// logger is resolved per call so command statuses land in the sinks
// installed by logging.Setup, not in the pre-Setup default logger.
func logger() zerolog.Logger {
	return logging.GetLogger("run")
}

func (r *ExecRunner) writer() io.Writer {
	if r.LogWriter != nil {
		return r.LogWriter
	}
	return os.Stdout
}

func (r *ExecRunner) Run(ctx context.Context, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = r.writer()
	cmd.Stderr = r.writer()
	err := cmd.Run()
	logging.CommandStatus(logger(), name, args, exitCode(cmd, err), err)
	if err != nil {
		return fmt.Errorf("%s %s: %w", name, strings.Join(args, " "), err)
	}
	return nil
}

func (r *ExecRunner) Output(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stderr = r.writer()
	out, err := cmd.Output()
	logging.CommandStatus(logger(), name, args, exitCode(cmd, err), err)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", name, strings.Join(args, " "), err)
	}
	return out, nil
}

func (r *ExecRunner) RunInput(ctx context.Context, input, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdin = strings.NewReader(input)
	cmd.Stdout = r.writer()
	cmd.Stderr = r.writer()
	err := cmd.Run()
	logging.CommandStatus(logger(), name, args, exitCode(cmd, err), err)
	if err != nil {
		return fmt.Errorf("%s %s: %w", name, strings.Join(args, " "), err)
	}
	return nil
}

func (r *ExecRunner) RunInteractive(ctx context.Context, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	err := cmd.Run()
	logging.CommandStatus(logger(), name, args, exitCode(cmd, err), err)
	if err != nil {
		return fmt.Errorf("%s %s: %w", name, strings.Join(args, " "), err)
	}
	return nil
}

func (r *ExecRunner) LookPath(name string) (string, error) {
	return exec.LookPath(name)
}

func exitCode(cmd *exec.Cmd, err error) int {
	if cmd.ProcessState != nil {
		return cmd.ProcessState.ExitCode()
	}
	if err != nil {
		return -1
	}
	return 0
}
