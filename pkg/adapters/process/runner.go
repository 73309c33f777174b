// Package process runs allow-listed local commands as navigation ports: a recoverer that
// restarts or refreshes the session after a failed hop, and a base-state preparer run
// before root hops.
package process

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"

	"github.com/aretw0/navgraph/internal/logging"
	"github.com/aretw0/navgraph/pkg/ports"
)

// ErrNotRegistered is returned when a command name is not on the allow-list.
var ErrNotRegistered = errors.New("process command not registered")

// Runner executes local processes.
// It follows a Strict Registry pattern for security (Allow-Listing).
type Runner struct {
	registry map[string]CommandConfig
	baseDir  string
	logger   *slog.Logger
}

// RunnerOption configures the runner.
type RunnerOption func(*Runner)

// WithRegistry populates the allow-list from a loaded config.
func WithRegistry(cmds map[string]CommandConfig) RunnerOption {
	return func(r *Runner) {
		for name, c := range cmds {
			c.Name = name
			r.registry[name] = c
		}
	}
}

// WithBaseDir sets the working directory for executed processes.
func WithBaseDir(dir string) RunnerOption {
	return func(r *Runner) {
		r.baseDir = dir
	}
}

// WithLogger sets the runner logger.
func WithLogger(logger *slog.Logger) RunnerOption {
	return func(r *Runner) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// NewRunner creates a new Process Runner.
func NewRunner(opts ...RunnerOption) *Runner {
	r := &Runner{
		registry: make(map[string]CommandConfig),
		logger:   logging.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register adds a trusted script/command to the allow-list.
func (r *Runner) Register(name string, command string, args ...string) {
	r.registry[name] = CommandConfig{Name: name, Command: command, Args: args}
}

// Run executes the named command and returns its trimmed stdout.
// Values in env are exposed to the process as NAVGRAPH_<KEY> variables; nothing is
// passed as command-line flags.
func (r *Runner) Run(ctx context.Context, name string, env map[string]string) (string, error) {
	c, ok := r.registry[name]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrNotRegistered, name)
	}

	if c.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, c.Command, c.Args...)
	cmd.Dir = r.baseDir
	cmd.Env = cmd.Environ()
	for k, v := range c.Environment {
		cmd.Env = append(cmd.Env, k+"="+v)
	}
	for k, v := range env {
		cmd.Env = append(cmd.Env, "NAVGRAPH_"+strings.ToUpper(k)+"="+v)
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	r.logger.DebugContext(ctx, "running command", "command", name)
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("command %s failed: %w. Stderr: %s", name, err, strings.TrimSpace(stderr.String()))
	}
	return strings.TrimSpace(stdout.String()), nil
}

// Recoverer returns a ports.Recoverer running the named command. The failure that
// triggered recovery is passed as NAVGRAPH_CAUSE.
func (r *Runner) Recoverer(name string) ports.Recoverer {
	return ports.RecovererFunc(func(ctx context.Context, cause error) error {
		env := map[string]string{}
		if cause != nil {
			env["cause"] = cause.Error()
		}
		out, err := r.Run(ctx, name, env)
		if err != nil {
			return err
		}
		r.logger.InfoContext(ctx, "session recovered by command", "command", name, "output", out)
		return nil
	})
}

// BaseState returns a ports.BaseState running the named command.
func (r *Runner) BaseState(name string) ports.BaseState {
	return ports.BaseStateFunc(func(ctx context.Context) error {
		_, err := r.Run(ctx, name, nil)
		return err
	})
}
