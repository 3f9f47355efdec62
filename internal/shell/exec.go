// Package shell runs the external tools (yum, pip, git, docker, aws) that
// provisioning drives.
package shell

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/charmbracelet/log"
)

type (
	// ExecCommandFunc is the function signature for creating exec.Cmd.
	// Tests inject a helper-process implementation through WithExecCommand.
	ExecCommandFunc func(ctx context.Context, name string, arg ...string) *exec.Cmd

	// Option configures an Executor.
	Option func(*Executor)

	// Command is a single external tool invocation.
	Command struct {
		Name string
		Args []string
		// Privileged commands are prefixed with sudo when the executor has sudo enabled.
		Privileged bool
		// Stdin, when set, is fed to the process. Used for docker login --password-stdin.
		Stdin io.Reader
	}

	// Executor runs Commands as child processes, blocking until each exits.
	Executor struct {
		execCommand ExecCommandFunc
		sudo        bool
		dryRun      bool
		stdout      io.Writer
		stderr      io.Writer
		logger      *log.Logger
	}
)

// WithExecCommand overrides the exec.Cmd factory.
func WithExecCommand(fn ExecCommandFunc) Option {
	return func(e *Executor) { e.execCommand = fn }
}

// WithSudo enables the sudo prefix for privileged commands.
func WithSudo(sudo bool) Option {
	return func(e *Executor) { e.sudo = sudo }
}

// WithDryRun makes Run, Output and Remove print the command line instead of acting.
func WithDryRun(dryRun bool) Option {
	return func(e *Executor) { e.dryRun = dryRun }
}

// WithOutput sets where child stdout and stderr are streamed.
func WithOutput(stdout, stderr io.Writer) Option {
	return func(e *Executor) {
		e.stdout = stdout
		e.stderr = stderr
	}
}

// WithLogger sets the logger used for command tracing.
func WithLogger(logger *log.Logger) Option {
	return func(e *Executor) { e.logger = logger }
}

// NewExecutor creates an Executor that streams to the process stdout/stderr.
func NewExecutor(opts ...Option) *Executor {
	e := &Executor{
		execCommand: exec.CommandContext,
		stdout:      os.Stdout,
		stderr:      os.Stderr,
		logger:      log.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Argv returns the full argument vector, including any sudo prefix.
func (e *Executor) Argv(c Command) []string {
	argv := make([]string, 0, len(c.Args)+2)
	if c.Privileged && e.sudo {
		argv = append(argv, "sudo")
	}
	argv = append(argv, c.Name)
	return append(argv, c.Args...)
}

// String renders the command line as it would be typed.
func (c Command) String() string {
	if len(c.Args) == 0 {
		return c.Name
	}
	return c.Name + " " + strings.Join(c.Args, " ")
}

// Run executes c with stdout/stderr streamed to the executor's writers.
func (e *Executor) Run(ctx context.Context, c Command) error {
	argv := e.Argv(c)
	line := strings.Join(argv, " ")
	if e.dryRun {
		fmt.Fprintf(e.stdout, "+ %s\n", line)
		return nil
	}

	e.logger.Debug("exec", "cmd", line)
	cmd := e.create(ctx, argv, c)
	cmd.Stdout = e.stdout
	cmd.Stderr = e.stderr

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("command %q failed: %w", line, err)
	}
	return nil
}

// Output executes c and returns its stdout. Stderr is still streamed.
// In dry-run mode the command line is printed and the output is empty.
func (e *Executor) Output(ctx context.Context, c Command) (string, error) {
	argv := e.Argv(c)
	line := strings.Join(argv, " ")
	if e.dryRun {
		fmt.Fprintf(e.stdout, "+ %s\n", line)
		return "", nil
	}

	e.logger.Debug("exec", "cmd", line, "capture", true)

	cmd := e.create(ctx, argv, c)
	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = e.stderr

	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("command %q failed: %w", line, err)
	}
	return out.String(), nil
}

func (e *Executor) create(ctx context.Context, argv []string, c Command) *exec.Cmd {
	cmd := e.execCommand(ctx, argv[0], argv[1:]...)
	if c.Stdin != nil {
		cmd.Stdin = c.Stdin
	}
	return cmd
}

// Remove deletes path and everything under it, like rm -rf. A missing path
// is not an error. In dry-run mode the equivalent command line is printed.
func (e *Executor) Remove(path string) error {
	if e.dryRun {
		fmt.Fprintf(e.stdout, "+ rm -rf %s\n", path)
		return nil
	}
	e.logger.Debug("remove", "path", path)
	return os.RemoveAll(path)
}
