// SPDX-License-Identifier: MPL-2.0

package provider

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"bundlectl/internal/container"
	"bundlectl/internal/issue"
)

const (
	// DockerProviderName is the identifier bundle descriptors use for the
	// docker backend.
	DockerProviderName = "docker"

	// appLabel marks containers started by bundlectl so Undeploy can find
	// them again without remembering container IDs.
	appLabel = "bundlectl.app"
)

// DockerProvider runs rendered artifacts as plain containers. Each rendered
// artifact file is a whitespace-separated list of `docker run` arguments
// (image plus flags); Undeploy resolves the containers back via the appLabel.
type DockerProvider struct {
	engine container.Engine
}

// NewDockerProvider creates a docker provider. With a nil engine the
// container engine is auto-detected on first use.
func NewDockerProvider(engine container.Engine) *DockerProvider {
	return &DockerProvider{engine: engine}
}

// Name returns the provider identifier.
func (p *DockerProvider) Name() string {
	return DockerProviderName
}

func (p *DockerProvider) resolveEngine() (container.Engine, error) {
	if p.engine != nil {
		return p.engine, nil
	}
	engine, err := container.AutoDetectEngine()
	if err != nil {
		return nil, issue.NewErrorContext().
			WithKind(issue.KindEngine).
			WithOperation("locate container engine").
			WithSuggestion("Install podman or docker").
			Wrap(err).
			BuildError()
	}
	p.engine = engine
	return engine, nil
}

// Deploy starts one detached container per rendered argument file.
func (p *DockerProvider) Deploy(ctx context.Context, req DeployRequest) error {
	engine, err := p.resolveEngine()
	if err != nil {
		return err
	}

	files, err := argFiles(req.ArtifactsDir)
	if err != nil {
		return err
	}

	for _, file := range files {
		runArgs, err := readRunArgs(file)
		if err != nil {
			return err
		}
		args := []string{"run", "-d", "--label", appLabel + "=" + req.Namespace}
		args = append(args, runArgs...)

		if req.DryRun {
			logger.Info("dryrun: would start container", "args", strings.Join(args, " "))
			continue
		}
		logger.Debug("starting container", "file", filepath.Base(file))
		if err := runEngine(ctx, engine, args...); err != nil {
			return issue.WrapWithOperation(err, issue.KindEngine, "start container from "+filepath.Base(file))
		}
	}
	return nil
}

// Undeploy stops and removes every container carrying this app's label.
func (p *DockerProvider) Undeploy(ctx context.Context, req DeployRequest) error {
	engine, err := p.resolveEngine()
	if err != nil {
		return err
	}

	out, err := outputEngine(ctx, engine, "ps", "-q", "--filter", "label="+appLabel+"="+req.Namespace)
	if err != nil {
		return issue.WrapWithOperation(err, issue.KindEngine, "list labeled containers")
	}

	ids := strings.Fields(out)
	if len(ids) == 0 {
		logger.Debug("no containers to stop", "label", appLabel+"="+req.Namespace)
		return nil
	}

	for _, id := range ids {
		if req.DryRun {
			logger.Info("dryrun: would remove container", "container", id)
			continue
		}
		if err := runEngine(ctx, engine, "rm", "-f", id); err != nil {
			return issue.WrapWithOperation(err, issue.KindEngine, "remove container "+id)
		}
	}
	return nil
}

// argFiles lists the rendered argument files, sorted for deterministic order.
func argFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, issue.NewErrorContext().
			WithKind(issue.KindIO).
			WithOperation("read rendered artifacts directory").
			WithResource(dir).
			Wrap(err).
			BuildError()
	}
	files := make([]string, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() {
			files = append(files, filepath.Join(dir, entry.Name()))
		}
	}
	return files, nil
}

// readRunArgs parses one artifact file into docker run arguments. Lines
// starting with # are comments; all remaining whitespace-separated tokens
// become arguments.
func readRunArgs(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, issue.NewErrorContext().
			WithKind(issue.KindIO).
			WithOperation("read rendered artifact").
			WithResource(path).
			Wrap(err).
			BuildError()
	}

	var args []string
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		args = append(args, strings.Fields(line)...)
	}
	if len(args) == 0 {
		return nil, issue.NewErrorContext().
			WithKind(issue.KindConfiguration).
			WithOperation("parse rendered artifact").
			WithResource(path).
			WithSuggestion("Docker artifacts must contain 'docker run' arguments, at minimum an image reference").
			BuildError()
	}
	return args, nil
}

// runEngine and outputEngine bridge to the engine CLI. The Engine interface
// is scoped to unpack operations; providers need raw subcommand access, which
// BaseCLIEngine exposes on the concrete types.
func runEngine(ctx context.Context, engine container.Engine, args ...string) error {
	return engineCLI(engine).RunCommandStatus(ctx, args...)
}

func outputEngine(ctx context.Context, engine container.Engine, args ...string) (string, error) {
	return engineCLI(engine).RunCommandWithOutput(ctx, args...)
}

type cliRunner interface {
	RunCommandStatus(ctx context.Context, args ...string) error
	RunCommandWithOutput(ctx context.Context, args ...string) (string, error)
}

func engineCLI(engine container.Engine) cliRunner {
	if r, ok := engine.(cliRunner); ok {
		return r
	}
	// Engines that do not expose the raw CLI cannot be driven by this
	// provider; fall back to a fresh docker CLI runner.
	return container.NewDockerEngine()
}
