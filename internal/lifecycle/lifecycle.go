// SPDX-License-Identifier: MPL-2.0

// Package lifecycle orchestrates the bundle state machine: it resolves where
// the bundle lives, merges layered answers, selects a provider, and drives
// the descriptor engine through unpack, configure, render, run, stop,
// uninstall and clean.
package lifecycle

import (
	"context"
	"os"
	"path/filepath"

	"bundlectl/internal/answers"
	"bundlectl/internal/descriptor"
	"bundlectl/internal/issue"
	"bundlectl/internal/location"
	"bundlectl/internal/platform"
	"bundlectl/internal/provider"

	"github.com/charmbracelet/log"
)

var logger = log.NewWithOptions(os.Stderr, log.Options{
	Prefix: "lifecycle",
})

type (
	// Options configures a Manager.
	Options struct {
		// Source is the bundle specifier: an image reference or a local path.
		Source string
		// Destination is where the bundle is materialized. Empty keeps a
		// local bundle in place (or derives a cache dir for an image); the
		// "none" sentinel requests a fresh temp dir.
		Destination string
		// AnswersFile is an explicit answers file path. Empty means probe
		// the conventional name inside the app path.
		AnswersFile string
		// CLIAnswers are --set key=value overrides, merged into the global
		// section above file-loaded answers.
		CLIAnswers map[string]string
		// Root rebases absolute input paths, for operation inside an
		// isolated root filesystem.
		Root string
		// CacheRoot overrides the image cache directory root.
		CacheRoot string
		// WorkDir is where genanswers writes its sample file. Empty means
		// the process working directory.
		WorkDir string

		// Engine overrides the descriptor engine (tests, alternate stacks).
		Engine descriptor.Engine
		// Detector overrides managed-platform detection.
		Detector *platform.Detector
	}

	// GenAnswersOptions configures GenAnswers.
	GenAnswersOptions struct {
		DryRun bool
		Format answers.Format
	}

	// InstallOptions configures Install.
	InstallOptions struct {
		NoDeps bool
		Update bool
		DryRun bool
		Format answers.Format
	}

	// RunOptions configures Run.
	RunOptions struct {
		// Provider picks the execution provider explicitly.
		Provider string
		// AnswersOutput additionally exports the runtime answers here.
		AnswersOutput string
		// Ask forces prompting for every parameter.
		Ask    bool
		Format answers.Format
		DryRun bool
		NoDeps bool
		Update bool
	}

	// StopOptions configures Stop.
	StopOptions struct {
		Provider string
		DryRun   bool
	}

	// Manager drives one bundle through its lifecycle. It is built for a
	// single caller; concurrent operations on the same app path are not
	// coordinated here.
	Manager struct {
		loc      location.AppLocation
		store    *answers.Store
		engine   descriptor.Engine
		detector *platform.Detector
		workdir  string
		state    State
	}
)

// New resolves the bundle location and answers sources and returns a manager
// in the uninitialized state. The location is immutable afterward.
func New(opts Options) (*Manager, error) {
	resolver := location.NewResolver(opts.Root, opts.CacheRoot)
	loc, answersFile, err := resolver.Resolve(opts.Source, opts.Destination, opts.AnswersFile)
	if err != nil {
		return nil, err
	}

	engine := opts.Engine
	if engine == nil {
		engine = descriptor.NewDefaultEngine()
	}
	detector := opts.Detector
	if detector == nil {
		detector = platform.NewDetector()
	}
	workdir := opts.WorkDir
	if workdir == "" {
		if workdir, err = os.Getwd(); err != nil {
			return nil, issue.WrapWithOperation(err, issue.KindIO, "determine working directory")
		}
	}

	return &Manager{
		loc:      loc,
		store:    answers.NewStore(loc.AppPath, answersFile, opts.CLIAnswers),
		engine:   engine,
		detector: detector,
		workdir:  workdir,
		state:    StateUninitialized,
	}, nil
}

// Location returns the resolved bundle location.
func (m *Manager) Location() location.AppLocation {
	return m.loc
}

// State returns the current lifecycle state.
func (m *Manager) State() State {
	return m.state
}

// resolveAnswers builds the effective answers document: defaults, then the
// answers file (full replace), then CLI overrides, then platform detection
// on top of everything.
func (m *Manager) resolveAnswers() (answers.Document, error) {
	doc, err := m.store.Resolve()
	if err != nil {
		return nil, err
	}

	info, detected, err := m.detector.Detect()
	if err != nil {
		return nil, err
	}
	if detected {
		logger.Debug("managed platform detected", "provider", info.Provider, "namespace", info.Namespace)
		doc = answers.WithPlatform(doc, info)
	}
	return doc, nil
}

// Unpack materializes the bundle: pulling and extracting the image for a
// remote source, or loading the descriptor in place for a local one. Safe to
// re-invoke; once the bundle is local this is a reload.
func (m *Manager) Unpack(ctx context.Context, opts descriptor.UnpackOptions) (descriptor.Bundle, error) {
	var (
		b   descriptor.Bundle
		err error
	)
	if m.loc.SourceKind == location.SourceRemoteImage {
		b, err = m.engine.UnpackFromImage(ctx, m.loc.ImageReference, m.loc.AppPath, opts)
	} else {
		b, err = m.engine.LoadFromPath(ctx, m.loc.AppPath, descriptor.LoadOptions{DryRun: opts.DryRun})
	}
	if err != nil {
		return nil, err
	}
	if err := m.advance(StateUnpacked); err != nil {
		return nil, err
	}
	return b, nil
}

// GenAnswers writes a starter answers file into the working directory. It
// refuses to run when an answers.conf or a previously generated sample
// already exists there.
func (m *Manager) GenAnswers(ctx context.Context, opts GenAnswersOptions) error {
	for _, name := range []string{answers.File, answers.SampleFile} {
		conflict := filepath.Join(m.workdir, name)
		if _, err := os.Stat(conflict); err == nil {
			return issue.NewErrorContext().
				WithKind(issue.KindConfiguration).
				WithOperation("generate answers file").
				WithResource(conflict).
				WithSuggestion("Move the existing " + name + " aside and rerun").
				BuildError()
		}
	}

	m.store.SetFormatHint(opts.Format)
	b, err := m.Unpack(ctx, descriptor.UnpackOptions{DryRun: opts.DryRun})
	if err != nil {
		return err
	}
	doc, err := m.resolveAnswers()
	if err != nil {
		return err
	}
	if err := b.LoadConfig(doc, descriptor.LoadConfigOptions{SkipAsking: true}); err != nil {
		return err
	}
	if err := m.advance(StateConfigured); err != nil {
		return err
	}

	runtime := answers.DeriveRuntime(b.Config(), "")
	target := filepath.Join(m.workdir, answers.SampleFile)
	if opts.DryRun {
		logger.Info("dryrun: would write sample answers", "path", target)
		return nil
	}
	return answers.Serialize(runtime, target, opts.Format)
}

// Install unpacks the bundle and writes a sample answers file inside the app
// path. The caller's working directory is untouched.
func (m *Manager) Install(ctx context.Context, opts InstallOptions) error {
	m.store.SetFormatHint(opts.Format)
	b, err := m.Unpack(ctx, descriptor.UnpackOptions{
		Update: opts.Update,
		DryRun: opts.DryRun,
		NoDeps: opts.NoDeps,
	})
	if err != nil {
		return err
	}
	doc, err := m.resolveAnswers()
	if err != nil {
		return err
	}
	if err := b.LoadConfig(doc, descriptor.LoadConfigOptions{SkipAsking: true}); err != nil {
		return err
	}
	if err := m.advance(StateConfigured); err != nil {
		return err
	}

	runtime := answers.DeriveRuntime(b.Config(), "")
	target := filepath.Join(m.loc.AppPath, answers.SampleFile)
	if opts.DryRun {
		logger.Info("dryrun: would write sample answers", "path", target)
		return nil
	}
	return answers.Serialize(runtime, target, opts.Format)
}

// Run unpacks, configures, renders and executes the bundle, then persists
// the runtime answers snapshot for a later Stop.
func (m *Manager) Run(ctx context.Context, opts RunOptions) error {
	m.store.SetFormatHint(opts.Format)
	b, err := m.Unpack(ctx, descriptor.UnpackOptions{
		Update: opts.Update,
		DryRun: opts.DryRun,
		NoDeps: opts.NoDeps,
	})
	if err != nil {
		return err
	}

	// A bundle-embedded answers file only becomes visible after unpacking;
	// the store re-probes when no file was found earlier.
	doc, err := m.resolveAnswers()
	if err != nil {
		return err
	}

	choice := provider.Choose(opts.Provider, b.Providers())
	if err := b.LoadConfig(doc, descriptor.LoadConfigOptions{Ask: opts.Ask}); err != nil {
		return err
	}
	if err := m.advance(StateConfigured); err != nil {
		return err
	}

	if err := b.Render(choice.Provider, opts.DryRun); err != nil {
		return err
	}
	if err := m.advance(StateRendered); err != nil {
		return err
	}

	if err := b.Run(ctx, choice.Provider, opts.DryRun); err != nil {
		return err
	}
	if err := m.advance(StateRunning); err != nil {
		return err
	}

	effective := choice.Provider
	if effective == "" {
		effective = b.Config().GlobalString(answers.ProviderKey)
	}
	runtime := answers.DeriveRuntime(b.Config(), effective)

	if opts.DryRun {
		logger.Info("dryrun: skipping runtime answers write")
		return nil
	}
	target := filepath.Join(m.loc.AppPath, answers.RuntimeFile)
	if err := answers.Serialize(runtime, target, opts.Format); err != nil {
		return err
	}
	if opts.AnswersOutput != "" {
		if err := answers.Serialize(runtime, opts.AnswersOutput, opts.Format); err != nil {
			return err
		}
	}
	logger.Info("application running", "provider", effective, "answers", target)
	return nil
}

// Stop reloads the runtime answers snapshot a prior Run persisted, reloads
// the bundle from the local app path (never re-pulls), and tears the
// workloads down. Durable across processes.
func (m *Manager) Stop(ctx context.Context, opts StopOptions) error {
	_, err := m.stop(ctx, opts)
	return err
}

func (m *Manager) stop(ctx context.Context, opts StopOptions) (descriptor.Bundle, error) {
	m.store.SetExplicitFile(filepath.Join(m.loc.AppPath, answers.RuntimeFile))
	doc, err := m.resolveAnswers()
	if err != nil {
		return nil, err
	}

	b, err := m.engine.LoadFromPath(ctx, m.loc.AppPath, descriptor.LoadOptions{DryRun: opts.DryRun})
	if err != nil {
		return nil, err
	}
	if err := m.advance(StateUnpacked); err != nil {
		return nil, err
	}

	if err := b.LoadConfig(doc, descriptor.LoadConfigOptions{SkipAsking: true}); err != nil {
		return nil, err
	}
	if err := m.advance(StateConfigured); err != nil {
		return nil, err
	}

	effective := opts.Provider
	if effective == "" {
		effective = doc.GlobalString(answers.ProviderKey)
	}

	// Stop artifacts can depend on render-time data, so render again.
	if err := b.Render(effective, opts.DryRun); err != nil {
		return nil, err
	}
	if err := m.advance(StateRendered); err != nil {
		return nil, err
	}

	if err := b.Stop(ctx, effective, opts.DryRun); err != nil {
		return nil, err
	}
	if err := m.advance(StateStopped); err != nil {
		return nil, err
	}
	return b, nil
}

// Uninstall stops the application, then removes what rendering left behind.
// It takes the same provider and dryrun arguments as Stop.
func (m *Manager) Uninstall(ctx context.Context, opts StopOptions) error {
	b, err := m.stop(ctx, opts)
	if err != nil {
		return err
	}
	if err := b.Uninstall(ctx); err != nil {
		return err
	}
	return m.advance(StateUninstalled)
}

// Clean uninstalls the application and removes the app path when the manager
// created it (cache or temp dir). force removes a caller-supplied app path
// too, and presses on past uninstall failures.
func (m *Manager) Clean(ctx context.Context, opts StopOptions, force bool) error {
	if err := m.Uninstall(ctx, opts); err != nil {
		if !force {
			return err
		}
		logger.Warn("uninstall failed, continuing because of --force", "err", err)
	}

	if m.loc.Generated || force {
		if err := os.RemoveAll(m.loc.AppPath); err != nil {
			return issue.NewErrorContext().
				WithKind(issue.KindIO).
				WithOperation("remove app path").
				WithResource(m.loc.AppPath).
				Wrap(err).
				BuildError()
		}
		logger.Info("app path removed", "path", m.loc.AppPath)
	} else {
		logger.Info("app path kept (caller-supplied); pass --force to remove", "path", m.loc.AppPath)
	}

	m.state = StateUninitialized
	return nil
}
