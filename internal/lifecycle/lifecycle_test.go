// SPDX-License-Identifier: MPL-2.0

package lifecycle

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"bundlectl/internal/answers"
	"bundlectl/internal/issue"
)

func TestRunSingleProviderAutoSelected(t *testing.T) {
	engine := &fakeEngine{bundle: &fakeBundle{providers: []string{"docker"}}}
	m, appDir := newTestManager(t, engine, nil)

	if err := m.Run(context.Background(), RunOptions{}); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if got := engine.bundle.ran; len(got) != 1 || got[0] != "docker" {
		t.Errorf("ran = %v, want [docker]", got)
	}
	if m.State() != StateRunning {
		t.Errorf("State() = %v, want running", m.State())
	}

	// The runtime answers snapshot records the auto-selected provider.
	doc, err := answers.Load(filepath.Join(appDir, answers.RuntimeFile))
	if err != nil {
		t.Fatalf("runtime answers missing: %v", err)
	}
	if got := doc.GlobalString(answers.ProviderKey); got != "docker" {
		t.Errorf("runtime provider = %q, want %q", got, "docker")
	}
	if got := doc.GlobalString(answers.NamespaceKey); got != answers.DefaultNamespace {
		t.Errorf("runtime namespace = %q, want default", got)
	}
}

func TestRunExplicitProviderWins(t *testing.T) {
	engine := &fakeEngine{bundle: &fakeBundle{providers: []string{"docker", "kubernetes"}}}
	m, _ := newTestManager(t, engine, nil)

	if err := m.Run(context.Background(), RunOptions{Provider: "kubernetes"}); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if got := engine.bundle.rendered; len(got) != 1 || got[0] != "kubernetes" {
		t.Errorf("rendered = %v, want [kubernetes]", got)
	}
	if got := engine.bundle.ran; len(got) != 1 || got[0] != "kubernetes" {
		t.Errorf("ran = %v, want [kubernetes]", got)
	}
}

func TestRunDryRunPersistsNothing(t *testing.T) {
	engine := &fakeEngine{bundle: &fakeBundle{providers: []string{"docker"}}}
	m, appDir := newTestManager(t, engine, nil)

	if err := m.Run(context.Background(), RunOptions{DryRun: true}); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if _, err := os.Stat(filepath.Join(appDir, answers.RuntimeFile)); !os.IsNotExist(err) {
		t.Error("dryrun Run wrote a runtime answers file")
	}
	if !engine.unpackedOptsDryRun() && len(engine.unpackedOpts) > 0 {
		t.Error("dryrun not propagated to unpack")
	}
}

func (f *fakeEngine) unpackedOptsDryRun() bool {
	for _, o := range f.unpackedOpts {
		if !o.DryRun {
			return false
		}
	}
	return true
}

func TestRunExportsAnswersOutput(t *testing.T) {
	engine := &fakeEngine{bundle: &fakeBundle{providers: []string{"docker"}}}
	out := filepath.Join(t.TempDir(), "exported.conf")
	m, _ := newTestManager(t, engine, nil)

	if err := m.Run(context.Background(), RunOptions{AnswersOutput: out}); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	doc, err := answers.Load(out)
	if err != nil {
		t.Fatalf("exported answers missing: %v", err)
	}
	if got := doc.GlobalString(answers.ProviderKey); got != "docker" {
		t.Errorf("exported provider = %q, want %q", got, "docker")
	}
}

func TestRunCLIAnswersOverrideFile(t *testing.T) {
	engine := &fakeEngine{bundle: &fakeBundle{providers: []string{"docker"}}}
	m, appDir := newTestManager(t, engine, func(opts *Options) {
		opts.CLIAnswers = map[string]string{answers.NamespaceKey: "from-cli"}
	})

	content := "[" + answers.GlobalSection + "]\n" + answers.NamespaceKey + " = \"from-file\"\n"
	if err := os.WriteFile(filepath.Join(appDir, answers.File), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := m.Run(context.Background(), RunOptions{}); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	doc := engine.bundle.loadedDocs[0]
	if got := doc.GlobalString(answers.NamespaceKey); got != "from-cli" {
		t.Errorf("namespace = %q, want CLI override to win", got)
	}
}

func TestRunPicksUpEmbeddedAnswersPostUnpack(t *testing.T) {
	engine := &fakeEngine{
		bundle: &fakeBundle{providers: []string{"docker"}},
		embeddedAnswers: "[" + answers.GlobalSection + "]\n" +
			answers.NamespaceKey + " = \"embedded\"\n",
	}

	m, err := New(Options{
		Source:    "myapp:1.0",
		CacheRoot: t.TempDir(),
		WorkDir:   t.TempDir(),
		Engine:    engine,
		Detector:  offClusterDetector(),
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if err := m.Run(context.Background(), RunOptions{}); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	// The answers file only existed after unpack; resolution must see it.
	doc := engine.bundle.loadedDocs[0]
	if got := doc.GlobalString(answers.NamespaceKey); got != "embedded" {
		t.Errorf("namespace = %q, want the bundle-embedded value", got)
	}
	if len(engine.unpackedImages) != 1 || engine.unpackedImages[0] != "myapp:1.0" {
		t.Errorf("unpacked = %v, want [myapp:1.0]", engine.unpackedImages)
	}
}

func TestRunPlatformDetectionWinsOverEverything(t *testing.T) {
	engine := &fakeEngine{bundle: &fakeBundle{providers: []string{"docker", "kubernetes"}}}
	m, appDir := newTestManager(t, engine, func(opts *Options) {
		opts.Detector = inClusterDetector(t)
		opts.CLIAnswers = map[string]string{answers.NamespaceKey: "from-cli"}
	})

	content := "[" + answers.GlobalSection + "]\nprovider = \"docker\"\n"
	if err := os.WriteFile(filepath.Join(appDir, answers.File), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := m.Run(context.Background(), RunOptions{}); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	doc := engine.bundle.loadedDocs[0]
	if got := doc.GlobalString(answers.ProviderKey); got != "kubernetes" {
		t.Errorf("provider = %q, want platform detection to win", got)
	}
	if got := doc.GlobalString(answers.NamespaceKey); got != "pod-ns" {
		t.Errorf("namespace = %q, want platform value over CLI", got)
	}
	if got := doc.GlobalString(answers.AccessTokenKey); got != "pod-token" {
		t.Errorf("accesstoken = %q, want platform token", got)
	}

	// And the effective provider lands in the runtime answers.
	rt, err := answers.Load(filepath.Join(appDir, answers.RuntimeFile))
	if err != nil {
		t.Fatalf("runtime answers missing: %v", err)
	}
	if got := rt.GlobalString(answers.ProviderKey); got != "kubernetes" {
		t.Errorf("runtime provider = %q, want kubernetes", got)
	}
}

func TestStopReloadsRuntimeAnswers(t *testing.T) {
	engine := &fakeEngine{bundle: &fakeBundle{providers: []string{"docker", "kubernetes"}}}
	m, appDir := newTestManager(t, engine, nil)

	content := "[" + answers.GlobalSection + "]\n" +
		"provider = \"kubernetes\"\nnamespace = \"staging\"\n"
	if err := os.WriteFile(filepath.Join(appDir, answers.RuntimeFile), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := m.Stop(context.Background(), StopOptions{}); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}

	// The provider and namespace come from the persisted snapshot; the
	// bundle is reloaded from disk, never re-pulled.
	if got := engine.bundle.stopped; len(got) != 1 || got[0] != "kubernetes" {
		t.Errorf("stopped = %v, want [kubernetes]", got)
	}
	if len(engine.unpackedImages) != 0 {
		t.Errorf("Stop must not unpack images, got %v", engine.unpackedImages)
	}
	if len(engine.loadedPaths) != 1 || engine.loadedPaths[0] != appDir {
		t.Errorf("loadedPaths = %v, want [%s]", engine.loadedPaths, appDir)
	}
	if got := engine.bundle.loadedDocs[0].GlobalString(answers.NamespaceKey); got != "staging" {
		t.Errorf("namespace = %q, want value from runtime answers", got)
	}
	if m.State() != StateStopped {
		t.Errorf("State() = %v, want stopped", m.State())
	}
}

func TestStopWithoutRuntimeAnswers(t *testing.T) {
	engine := &fakeEngine{bundle: &fakeBundle{providers: []string{"docker"}}}
	m, _ := newTestManager(t, engine, nil)

	err := m.Stop(context.Background(), StopOptions{})
	if err == nil {
		t.Fatal("Stop() expected error without a runtime answers file")
	}
	if !errors.Is(err, issue.ErrConfiguration) {
		t.Errorf("error should be a configuration error, got %v", err)
	}
}

func TestGenAnswersWritesSample(t *testing.T) {
	engine := &fakeEngine{bundle: &fakeBundle{providers: []string{"docker", "kubernetes"}}}
	workdir := t.TempDir()
	m, _ := newTestManager(t, engine, func(opts *Options) {
		opts.WorkDir = workdir
	})

	if err := m.GenAnswers(context.Background(), GenAnswersOptions{}); err != nil {
		t.Fatalf("GenAnswers() error = %v", err)
	}

	doc, err := answers.Load(filepath.Join(workdir, answers.SampleFile))
	if err != nil {
		t.Fatalf("sample answers missing: %v", err)
	}
	if got := doc.GlobalString(answers.NamespaceKey); got != answers.DefaultNamespace {
		t.Errorf("sample namespace = %q, want default", got)
	}
	// No provider was selected, so none may be recorded.
	if got := doc.GlobalString(answers.ProviderKey); got != "" {
		t.Errorf("sample provider = %q, want none", got)
	}
	// Prompting is always disabled for genanswers.
	if opts := engine.bundle.loadedOpts[0]; !opts.SkipAsking {
		t.Error("GenAnswers must disable prompting")
	}
}

func TestGenAnswersRefusesConflict(t *testing.T) {
	engine := &fakeEngine{bundle: &fakeBundle{providers: []string{"docker"}}}
	workdir := t.TempDir()
	m, _ := newTestManager(t, engine, func(opts *Options) {
		opts.WorkDir = workdir
	})

	existing := filepath.Join(workdir, answers.File)
	if err := os.WriteFile(existing, []byte("precious"), 0o644); err != nil {
		t.Fatal(err)
	}

	err := m.GenAnswers(context.Background(), GenAnswersOptions{})
	if err == nil {
		t.Fatal("GenAnswers() expected error with existing answers.conf")
	}
	if !errors.Is(err, issue.ErrConfiguration) {
		t.Errorf("error should be a configuration error, got %v", err)
	}

	// The existing file is never touched.
	data, readErr := os.ReadFile(existing)
	if readErr != nil || string(data) != "precious" {
		t.Errorf("existing file modified: %q, %v", data, readErr)
	}
	// And nothing was unpacked.
	if len(engine.unpackedImages)+len(engine.loadedPaths) != 0 {
		t.Error("GenAnswers touched the engine despite the conflict")
	}
}

func TestGenAnswersRefusesToOverwriteSample(t *testing.T) {
	engine := &fakeEngine{bundle: &fakeBundle{providers: []string{"docker"}}}
	workdir := t.TempDir()
	m, _ := newTestManager(t, engine, func(opts *Options) {
		opts.WorkDir = workdir
	})

	if err := m.GenAnswers(context.Background(), GenAnswersOptions{}); err != nil {
		t.Fatalf("GenAnswers() error = %v", err)
	}
	sample := filepath.Join(workdir, answers.SampleFile)
	first, err := os.ReadFile(sample)
	if err != nil {
		t.Fatalf("sample answers missing after first call: %v", err)
	}

	// A second manager in the same working directory, as a fresh process
	// would be.
	m2, _ := newTestManager(t, engine, func(opts *Options) {
		opts.WorkDir = workdir
	})
	err = m2.GenAnswers(context.Background(), GenAnswersOptions{})
	if err == nil {
		t.Fatal("GenAnswers() expected error with existing sample file")
	}
	if !errors.Is(err, issue.ErrConfiguration) {
		t.Errorf("error should be a configuration error, got %v", err)
	}

	second, readErr := os.ReadFile(sample)
	if readErr != nil || string(second) != string(first) {
		t.Errorf("second GenAnswers modified the sample file: %v", readErr)
	}
}

func TestInstallWritesSampleInsideAppPath(t *testing.T) {
	engine := &fakeEngine{bundle: &fakeBundle{providers: []string{"docker"}}}
	workdir := t.TempDir()
	m, appDir := newTestManager(t, engine, func(opts *Options) {
		opts.WorkDir = workdir
	})

	if err := m.Install(context.Background(), InstallOptions{}); err != nil {
		t.Fatalf("Install() error = %v", err)
	}

	if _, err := os.Stat(filepath.Join(appDir, answers.SampleFile)); err != nil {
		t.Errorf("sample answers not written to app path: %v", err)
	}
	if _, err := os.Stat(filepath.Join(workdir, answers.SampleFile)); !os.IsNotExist(err) {
		t.Error("Install wrote into the working directory")
	}
	if m.State() != StateConfigured {
		t.Errorf("State() = %v, want configured", m.State())
	}
}

func TestInstallPropagatesUpdate(t *testing.T) {
	engine := &fakeEngine{bundle: &fakeBundle{providers: []string{"docker"}}}
	m, err := New(Options{
		Source:    "myapp:1.0",
		CacheRoot: t.TempDir(),
		WorkDir:   t.TempDir(),
		Engine:    engine,
		Detector:  offClusterDetector(),
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if err := m.Install(context.Background(), InstallOptions{Update: true, NoDeps: true}); err != nil {
		t.Fatalf("Install() error = %v", err)
	}

	if len(engine.unpackedOpts) != 1 {
		t.Fatalf("unpack calls = %d, want 1", len(engine.unpackedOpts))
	}
	if got := engine.unpackedOpts[0]; !got.Update || !got.NoDeps {
		t.Errorf("unpack opts = %+v, want Update and NoDeps set", got)
	}
}

func TestUninstall(t *testing.T) {
	engine := &fakeEngine{bundle: &fakeBundle{providers: []string{"docker"}}}
	m, appDir := newTestManager(t, engine, nil)

	content := "[" + answers.GlobalSection + "]\nprovider = \"docker\"\n"
	if err := os.WriteFile(filepath.Join(appDir, answers.RuntimeFile), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := m.Uninstall(context.Background(), StopOptions{}); err != nil {
		t.Fatalf("Uninstall() error = %v", err)
	}

	if engine.bundle.uninstalled != 1 {
		t.Errorf("uninstalled = %d, want 1", engine.bundle.uninstalled)
	}
	if len(engine.bundle.stopped) != 1 {
		t.Errorf("stopped = %v, want one stop before uninstall", engine.bundle.stopped)
	}
	if m.State() != StateUninstalled {
		t.Errorf("State() = %v, want uninstalled", m.State())
	}
}

func TestCleanRemovesGeneratedAppPath(t *testing.T) {
	engine := &fakeEngine{bundle: &fakeBundle{providers: []string{"docker"}}}
	cacheRoot := t.TempDir()
	m, err := New(Options{
		Source:    "myapp:1.0",
		CacheRoot: cacheRoot,
		WorkDir:   t.TempDir(),
		Engine:    engine,
		Detector:  offClusterDetector(),
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	appPath := m.Location().AppPath

	content := "[" + answers.GlobalSection + "]\nprovider = \"docker\"\n"
	if err := os.WriteFile(filepath.Join(appPath, answers.RuntimeFile), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := m.Clean(context.Background(), StopOptions{}, false); err != nil {
		t.Fatalf("Clean() error = %v", err)
	}

	if _, err := os.Stat(appPath); !os.IsNotExist(err) {
		t.Error("generated app path still present after Clean")
	}
	if m.State() != StateUninitialized {
		t.Errorf("State() = %v, want uninitialized", m.State())
	}
}

func TestCleanKeepsCallerSuppliedPath(t *testing.T) {
	engine := &fakeEngine{bundle: &fakeBundle{providers: []string{"docker"}}}
	m, appDir := newTestManager(t, engine, nil)

	content := "[" + answers.GlobalSection + "]\nprovider = \"docker\"\n"
	if err := os.WriteFile(filepath.Join(appDir, answers.RuntimeFile), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := m.Clean(context.Background(), StopOptions{}, false); err != nil {
		t.Fatalf("Clean() error = %v", err)
	}
	if _, err := os.Stat(appDir); err != nil {
		t.Errorf("caller-supplied app path removed without --force: %v", err)
	}
}

func TestCleanForceRemovesDespiteFailure(t *testing.T) {
	engine := &fakeEngine{bundle: &fakeBundle{providers: []string{"docker"}}}
	m, appDir := newTestManager(t, engine, nil)

	// No runtime answers file: the embedded uninstall fails.
	if err := m.Clean(context.Background(), StopOptions{}, true); err != nil {
		t.Fatalf("Clean(force) error = %v", err)
	}
	if _, err := os.Stat(appDir); !os.IsNotExist(err) {
		t.Error("forced Clean kept the app path")
	}
}

func TestAdvanceRejectsOutOfOrderTransition(t *testing.T) {
	engine := &fakeEngine{bundle: &fakeBundle{providers: []string{"docker"}}}
	m, _ := newTestManager(t, engine, nil)

	err := m.advance(StateRunning)
	if err == nil {
		t.Fatal("advance() expected error for uninitialized→running")
	}
	if !errors.Is(err, issue.ErrConfiguration) {
		t.Errorf("error should be a configuration error, got %v", err)
	}
	if m.State() != StateUninitialized {
		t.Errorf("failed advance changed state to %v", m.State())
	}
}

func TestStateStrings(t *testing.T) {
	t.Parallel()

	states := map[State]string{
		StateUninitialized: "uninitialized",
		StateUnpacked:      "unpacked",
		StateConfigured:    "configured",
		StateRendered:      "rendered",
		StateRunning:       "running",
		StateStopped:       "stopped",
		StateUninstalled:   "uninstalled",
		State(99):          "unknown",
	}
	for s, want := range states {
		if got := s.String(); got != want {
			t.Errorf("State(%d).String() = %q, want %q", int(s), got, want)
		}
	}
}
