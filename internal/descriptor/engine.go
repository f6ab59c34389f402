// SPDX-License-Identifier: MPL-2.0

package descriptor

import (
	"context"
	"os"
	"path/filepath"

	"bundlectl/internal/answers"
	"bundlectl/internal/container"
	"bundlectl/internal/issue"
	"bundlectl/internal/provider"
)

type (
	// UnpackOptions controls how a bundle image is materialized on disk.
	UnpackOptions struct {
		// Update forces a re-pull and re-extract even when the bundle is
		// already present locally.
		Update bool
		// DryRun suppresses the pull and extract; the bundle is loaded from
		// whatever is already on disk.
		DryRun bool
		// NoDeps skips pulling dependency bundles referenced by the
		// descriptor.
		NoDeps bool
	}

	// LoadOptions controls loading a bundle from a local path.
	LoadOptions struct {
		// DryRun is propagated to later render/run calls through the bundle.
		DryRun bool
	}

	// Engine materializes bundles and hands back handles to drive them.
	Engine interface {
		// UnpackFromImage pulls an image and extracts its bundle into dest,
		// then loads the bundle from there.
		UnpackFromImage(ctx context.Context, image, dest string, opts UnpackOptions) (Bundle, error)
		// LoadFromPath loads an already unpacked bundle.
		LoadFromPath(ctx context.Context, path string, opts LoadOptions) (Bundle, error)
	}

	// DefaultEngine is the standard Engine backed by a container engine CLI
	// and the built-in provider registry.
	DefaultEngine struct {
		containerEngine container.Engine
		registry        *provider.Registry
		prompt          PromptFunc
	}

	// EngineOption configures a DefaultEngine.
	EngineOption func(*DefaultEngine)
)

// WithContainerEngine pins the container engine instead of auto-detecting.
func WithContainerEngine(engine container.Engine) EngineOption {
	return func(e *DefaultEngine) { e.containerEngine = engine }
}

// WithRegistry overrides the provider registry.
func WithRegistry(r *provider.Registry) EngineOption {
	return func(e *DefaultEngine) { e.registry = r }
}

// WithPromptFunc overrides interactive parameter prompting (used by tests).
func WithPromptFunc(fn PromptFunc) EngineOption {
	return func(e *DefaultEngine) { e.prompt = fn }
}

// NewDefaultEngine creates the standard engine.
func NewDefaultEngine(opts ...EngineOption) *DefaultEngine {
	e := &DefaultEngine{
		registry: provider.DefaultRegistry(),
		prompt:   terminalPrompt,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// UnpackFromImage materializes the bundle carried by image into dest and
// loads it. Once the descriptor is present in dest, unpacking again is a
// plain reload unless Update forces a fresh extract.
func (e *DefaultEngine) UnpackFromImage(ctx context.Context, image, dest string, opts UnpackOptions) (Bundle, error) {
	if opts.DryRun {
		logger.Info("dryrun: skipping image unpack", "image", image, "dest", dest)
		return e.LoadFromPath(ctx, dest, LoadOptions{DryRun: true})
	}

	descriptorPresent := false
	if _, err := os.Stat(filepath.Join(dest, DescriptorFile)); err == nil {
		descriptorPresent = true
	}

	if !descriptorPresent || opts.Update {
		engine, err := e.resolveContainerEngine()
		if err != nil {
			return nil, err
		}

		exists, err := engine.ImageExists(ctx, image)
		if err != nil {
			return nil, issue.WrapWithOperation(err, issue.KindEngine, "check for local image")
		}
		if !exists || opts.Update {
			if err := engine.Pull(ctx, image); err != nil {
				return nil, issue.WrapWithOperation(err, issue.KindEngine, "pull bundle image "+image)
			}
		}

		if err := os.MkdirAll(dest, 0o755); err != nil {
			return nil, issue.NewErrorContext().
				WithKind(issue.KindIO).
				WithOperation("create bundle directory").
				WithResource(dest).
				Wrap(err).
				BuildError()
		}
		if err := engine.Extract(ctx, image, dest); err != nil {
			return nil, issue.WrapWithOperation(err, issue.KindEngine, "extract bundle from "+image)
		}
		logger.Debug("bundle extracted", "image", image, "dest", dest)
	} else {
		logger.Debug("bundle already unpacked, reloading", "dest", dest)
	}

	if opts.NoDeps {
		logger.Debug("skipping dependency bundles", "image", image)
	}

	return e.LoadFromPath(ctx, dest, LoadOptions{})
}

// LoadFromPath loads a bundle from an unpacked directory. It never touches
// the network.
func (e *DefaultEngine) LoadFromPath(_ context.Context, path string, opts LoadOptions) (Bundle, error) {
	desc, err := LoadDescriptor(path)
	if err != nil {
		return nil, err
	}
	return &bundle{
		appPath:  path,
		desc:     desc,
		registry: e.registry,
		prompt:   e.prompt,
		dryrun:   opts.DryRun,
		cfg:      answers.Defaults(),
	}, nil
}

func (e *DefaultEngine) resolveContainerEngine() (container.Engine, error) {
	if e.containerEngine != nil {
		return e.containerEngine, nil
	}
	engine, err := container.AutoDetectEngine()
	if err != nil {
		return nil, issue.NewErrorContext().
			WithKind(issue.KindEngine).
			WithOperation("locate container engine").
			WithSuggestion("Install podman or docker to unpack bundle images").
			WithSuggestion("Or point bundlectl at an already unpacked bundle directory").
			Wrap(err).
			BuildError()
	}
	e.containerEngine = engine
	return engine, nil
}
