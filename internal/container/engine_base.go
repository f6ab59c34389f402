// SPDX-License-Identifier: MPL-2.0

package container

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
)

var logger = log.NewWithOptions(os.Stderr, log.Options{
	Prefix: "container",
})

type (
	// ExecCommandFunc is the function signature for creating exec.Cmd.
	// This allows injection of mock implementations for testing.
	ExecCommandFunc func(ctx context.Context, name string, arg ...string) *exec.Cmd

	// BaseCLIEngineOption configures a BaseCLIEngine.
	BaseCLIEngineOption func(*BaseCLIEngine)

	// BaseCLIEngine provides common implementation for CLI-based container
	// engines. Docker and Podman engines embed this struct; methods identical
	// across engines (Pull, ImageExists, Extract) live here, engine-specific
	// probes (Name, Available, Version) remain on the concrete types.
	BaseCLIEngine struct {
		binaryPath  string
		execCommand ExecCommandFunc
	}
)

// WithExecCommand overrides command creation (used by tests).
func WithExecCommand(fn ExecCommandFunc) BaseCLIEngineOption {
	return func(e *BaseCLIEngine) { e.execCommand = fn }
}

// NewBaseCLIEngine creates a base engine for the given CLI binary path.
func NewBaseCLIEngine(binaryPath string, opts ...BaseCLIEngineOption) *BaseCLIEngine {
	e := &BaseCLIEngine{
		binaryPath:  binaryPath,
		execCommand: exec.CommandContext,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// BinaryPath returns the resolved CLI binary path ("" when not found).
func (e *BaseCLIEngine) BinaryPath() string {
	return e.binaryPath
}

// CreateCommand builds an exec.Cmd for the engine binary with the given args.
func (e *BaseCLIEngine) CreateCommand(ctx context.Context, args ...string) *exec.Cmd {
	return e.execCommand(ctx, e.binaryPath, args...)
}

// RunCommandWithOutput runs the engine CLI and returns its stdout.
func (e *BaseCLIEngine) RunCommandWithOutput(ctx context.Context, args ...string) (string, error) {
	var stdout, stderr bytes.Buffer
	cmd := e.CreateCommand(ctx, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return "", fmt.Errorf("%w: %s", err, msg)
		}
		return "", err
	}
	return stdout.String(), nil
}

// RunCommandStatus runs the engine CLI, discarding output, returning only the
// exit status.
func (e *BaseCLIEngine) RunCommandStatus(ctx context.Context, args ...string) error {
	var stderr bytes.Buffer
	cmd := e.CreateCommand(ctx, args...)
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return fmt.Errorf("%w: %s", err, msg)
		}
		return err
	}
	return nil
}

// Pull fetches an image from a registry.
func (e *BaseCLIEngine) Pull(ctx context.Context, image string) error {
	logger.Debug("pulling image", "image", image)
	return e.RunCommandStatus(ctx, "pull", image)
}

// ImageExists checks if an image is present locally. A nonzero inspect exit
// means the image is absent; any other failure (binary missing, daemon
// unreachable) is returned as an error.
func (e *BaseCLIEngine) ImageExists(ctx context.Context, image string) (bool, error) {
	err := e.RunCommandStatus(ctx, "image", "inspect", image)
	if err == nil {
		return true, nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return false, nil
	}
	return false, err
}

// Extract copies the bundle directory out of an image into dest. It creates
// a stopped container from the image, copies BundlePathInImage out of it, and
// removes the container again; the image itself is never run.
func (e *BaseCLIEngine) Extract(ctx context.Context, image, dest string) error {
	name := "bundlectl-unpack-" + uuid.NewString()[:8]

	out, err := e.RunCommandWithOutput(ctx, "create", "--name", name, image)
	if err != nil {
		return fmt.Errorf("failed to create container from %s: %w", image, err)
	}
	containerID := strings.TrimSpace(out)
	if containerID == "" {
		containerID = name
	}

	defer func() {
		if rmErr := e.RunCommandStatus(ctx, "rm", "-f", containerID); rmErr != nil {
			logger.Warn("failed to remove unpack container", "container", containerID, "err", rmErr)
		}
	}()

	logger.Debug("extracting bundle from image", "image", image, "dest", dest)
	if err := e.RunCommandStatus(ctx, "cp", containerID+":"+BundlePathInImage+"/.", dest); err != nil {
		return fmt.Errorf("failed to copy bundle out of %s: %w", image, err)
	}
	return nil
}
