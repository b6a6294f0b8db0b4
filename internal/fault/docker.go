package fault

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// DefaultCommandTimeout bounds each docker invocation. This is
// independent of the calling test's own deadline: a hung restore
// command must not stall the whole run.
const DefaultCommandTimeout = 30 * time.Second

// ExecResult is the outcome of one external command invocation.
type ExecResult struct {
	ExitCode int
	Output   string
}

// Runner is the process/container control contract. Each method issues
// a single external command bounded by its own timeout.
type Runner interface {
	Stop(ctx context.Context, name string) (ExecResult, error)
	Start(ctx context.Context, name string) (ExecResult, error)
	Disconnect(ctx context.Context, name, network string) (ExecResult, error)
	Connect(ctx context.Context, name, network string) (ExecResult, error)
}

// DockerRunner drives the docker CLI. The zero value uses the "docker"
// binary from PATH and DefaultCommandTimeout.
type DockerRunner struct {
	// Binary overrides the docker executable, e.g. "podman".
	Binary string

	// Timeout bounds each invocation.
	Timeout time.Duration
}

// Stop stops a named container.
func (r *DockerRunner) Stop(ctx context.Context, name string) (ExecResult, error) {
	return r.run(ctx, "stop", name)
}

// Start starts a named container.
func (r *DockerRunner) Start(ctx context.Context, name string) (ExecResult, error) {
	return r.run(ctx, "start", name)
}

// Disconnect detaches a container from a virtual network.
func (r *DockerRunner) Disconnect(ctx context.Context, name, network string) (ExecResult, error) {
	return r.run(ctx, "network", "disconnect", network, name)
}

// Connect reattaches a container to a virtual network.
func (r *DockerRunner) Connect(ctx context.Context, name, network string) (ExecResult, error) {
	return r.run(ctx, "network", "connect", network, name)
}

func (r *DockerRunner) run(ctx context.Context, args ...string) (ExecResult, error) {
	binary := r.Binary
	if binary == "" {
		binary = "docker"
	}
	timeout := r.Timeout
	if timeout <= 0 {
		timeout = DefaultCommandTimeout
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, binary, args...)
	out, err := cmd.CombinedOutput()
	res := ExecResult{Output: strings.TrimSpace(string(out))}

	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			res.ExitCode = exitErr.ExitCode()
		} else {
			res.ExitCode = -1
		}
		return res, fmt.Errorf("%s %s: %w (output: %s)",
			binary, strings.Join(args, " "), err, res.Output)
	}
	return res, nil
}
