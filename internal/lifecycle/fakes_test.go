// SPDX-License-Identifier: MPL-2.0

package lifecycle

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"bundlectl/internal/answers"
	"bundlectl/internal/descriptor"
	"bundlectl/internal/platform"
)

// fakeBundle records the calls the manager makes against a loaded bundle.
type fakeBundle struct {
	providers []string
	cfg       answers.Document

	loadedDocs  []answers.Document
	loadedOpts  []descriptor.LoadConfigOptions
	rendered    []string
	ran         []string
	stopped     []string
	uninstalled int

	failRun error
}

func (f *fakeBundle) LoadConfig(doc answers.Document, opts descriptor.LoadConfigOptions) error {
	f.loadedDocs = append(f.loadedDocs, doc)
	f.loadedOpts = append(f.loadedOpts, opts)
	f.cfg = doc.Clone()
	return nil
}

func (f *fakeBundle) Render(providerID string, dryrun bool) error {
	f.rendered = append(f.rendered, providerID)
	return nil
}

func (f *fakeBundle) Run(_ context.Context, providerID string, dryrun bool) error {
	if f.failRun != nil {
		return f.failRun
	}
	f.ran = append(f.ran, providerID)
	return nil
}

func (f *fakeBundle) Stop(_ context.Context, providerID string, dryrun bool) error {
	f.stopped = append(f.stopped, providerID)
	return nil
}

func (f *fakeBundle) Uninstall(context.Context) error {
	f.uninstalled++
	return nil
}

func (f *fakeBundle) Config() answers.Document {
	return f.cfg
}

func (f *fakeBundle) Providers() []string {
	return f.providers
}

// fakeEngine hands out a fixed bundle and records how it was asked for it.
type fakeEngine struct {
	bundle *fakeBundle

	unpackedImages []string
	unpackedOpts   []descriptor.UnpackOptions
	loadedPaths    []string

	// embeddedAnswers, when set, is written as answers.conf into the unpack
	// destination, simulating a bundle that ships its own answers file.
	embeddedAnswers string
}

func (f *fakeEngine) UnpackFromImage(_ context.Context, image, dest string, opts descriptor.UnpackOptions) (descriptor.Bundle, error) {
	f.unpackedImages = append(f.unpackedImages, image)
	f.unpackedOpts = append(f.unpackedOpts, opts)
	if f.embeddedAnswers != "" && !opts.DryRun {
		if err := os.MkdirAll(dest, 0o755); err != nil {
			return nil, err
		}
		if err := os.WriteFile(filepath.Join(dest, answers.File), []byte(f.embeddedAnswers), 0o644); err != nil {
			return nil, err
		}
	}
	return f.bundle, nil
}

func (f *fakeEngine) LoadFromPath(_ context.Context, path string, _ descriptor.LoadOptions) (descriptor.Bundle, error) {
	f.loadedPaths = append(f.loadedPaths, path)
	return f.bundle, nil
}

// offClusterDetector never fires.
func offClusterDetector() *platform.Detector {
	return platform.NewDetector(platform.WithStat(func(string) (os.FileInfo, error) {
		return nil, os.ErrNotExist
	}))
}

// inClusterDetector fires with a complete set of credentials.
func inClusterDetector(t *testing.T) *platform.Detector {
	t.Helper()
	env := map[string]string{
		platform.AccessTokenEnv:   "pod-token",
		platform.NamespaceEnv:     "pod-ns",
		"KUBERNETES_SERVICE_HOST": "10.0.0.1",
		"KUBERNETES_SERVICE_PORT": "443",
	}
	return platform.NewDetector(
		platform.WithServiceAccountDir(t.TempDir()),
		platform.WithGetenv(func(key string) string { return env[key] }),
	)
}

// newTestManager builds a manager over a throwaway local bundle dir.
func newTestManager(t *testing.T, engine *fakeEngine, mutate func(*Options)) (*Manager, string) {
	t.Helper()

	appDir := t.TempDir()
	opts := Options{
		Source:   appDir,
		WorkDir:  t.TempDir(),
		Engine:   engine,
		Detector: offClusterDetector(),
	}
	if mutate != nil {
		mutate(&opts)
	}

	m, err := New(opts)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return m, appDir
}
