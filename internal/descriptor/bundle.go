// SPDX-License-Identifier: MPL-2.0

package descriptor

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"bundlectl/internal/answers"
	"bundlectl/internal/issue"
	"bundlectl/internal/provider"
)

type (
	// PromptFunc asks the user for a parameter value. current is the value
	// already resolved from answers or the default ("" when none).
	PromptFunc func(param Param, current string) (string, error)

	// LoadConfigOptions controls parameter resolution.
	LoadConfigOptions struct {
		// Ask forces a prompt for every parameter, even those that already
		// have a value.
		Ask bool
		// SkipAsking disables prompting entirely; a parameter with no value
		// and no default becomes a configuration error.
		SkipAsking bool
	}

	// Bundle is a loaded application bundle ready to be configured, rendered
	// and executed.
	Bundle interface {
		// LoadConfig resolves every declared parameter against the answers
		// document, prompting where allowed.
		LoadConfig(doc answers.Document, opts LoadConfigOptions) error
		// Render expands artifact templates for one provider into the
		// rendered directory.
		Render(providerID string, dryrun bool) error
		// Run deploys the rendered artifacts through the provider plugin.
		Run(ctx context.Context, providerID string, dryrun bool) error
		// Stop tears down the workloads previously deployed.
		Stop(ctx context.Context, providerID string, dryrun bool) error
		// Uninstall removes everything Render left in the bundle directory.
		Uninstall(ctx context.Context) error
		// Config returns the answers document with resolved parameter values
		// folded into the global section.
		Config() answers.Document
		// Providers lists the provider identifiers the bundle has artifacts
		// for, sorted.
		Providers() []string
	}

	bundle struct {
		appPath  string
		desc     *Descriptor
		registry *provider.Registry
		prompt   PromptFunc
		dryrun   bool

		cfg    answers.Document
		params map[string]string
	}
)

// terminalPrompt reads a parameter value from stdin.
func terminalPrompt(param Param, current string) (string, error) {
	if param.Description != "" {
		fmt.Fprintf(os.Stderr, "%s (%s)", param.Name, param.Description)
	} else {
		fmt.Fprint(os.Stderr, param.Name)
	}
	if current != "" {
		fmt.Fprintf(os.Stderr, " [%s]", current)
	}
	fmt.Fprint(os.Stderr, ": ")

	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil {
		return "", err
	}
	line = strings.TrimSpace(line)
	if line == "" {
		return current, nil
	}
	return line, nil
}

func (b *bundle) LoadConfig(doc answers.Document, opts LoadConfigOptions) error {
	cfg := doc.Clone()
	if cfg == nil {
		cfg = answers.Defaults()
	}
	if cfg[answers.GlobalSection] == nil {
		cfg[answers.GlobalSection] = answers.Section{}
	}
	params := make(map[string]string, len(b.desc.Params))

	for _, p := range b.desc.Params {
		value := cfg.GlobalString(p.Name)
		if value == "" {
			value = p.Default
		}

		mustPrompt := opts.Ask || value == ""
		if mustPrompt && !opts.SkipAsking {
			answered, err := b.prompt(p, value)
			if err != nil {
				return issue.WrapWithOperation(err, issue.KindConfiguration, "prompt for parameter "+p.Name)
			}
			value = answered
		}

		if value == "" {
			return issue.NewErrorContext().
				WithKind(issue.KindConfiguration).
				WithOperation("resolve parameter " + p.Name).
				WithResource(b.desc.ID).
				WithSuggestion("Add '" + p.Name + "' to the [general] section of your answers file").
				WithSuggestion("Or pass it directly: --set " + p.Name + "=<value>").
				BuildError()
		}

		params[p.Name] = value
		cfg.Global()[p.Name] = value
	}

	b.cfg = cfg
	b.params = params
	logger.Debug("configuration loaded", "bundle", b.desc.ID, "params", len(params))
	return nil
}

func (b *bundle) Render(providerID string, dryrun bool) error {
	id, err := b.effectiveProvider(providerID)
	if err != nil {
		return err
	}

	artifacts, ok := b.desc.Artifacts[id]
	if !ok {
		return issue.NewErrorContext().
			WithKind(issue.KindConfiguration).
			WithOperation("render artifacts").
			WithResource(id).
			WithSuggestion("The bundle ships artifacts for: " + strings.Join(b.Providers(), ", ")).
			BuildError()
	}

	if dryrun {
		logger.Info("dryrun: skipping artifact render", "provider", id, "artifacts", len(artifacts))
		return nil
	}

	dir := b.renderedDir(id)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return issue.NewErrorContext().
			WithKind(issue.KindIO).
			WithOperation("create rendered artifacts directory").
			WithResource(dir).
			Wrap(err).
			BuildError()
	}

	for _, artifact := range artifacts {
		if err := b.renderArtifact(artifact, dir); err != nil {
			return err
		}
	}
	logger.Debug("artifacts rendered", "provider", id, "dir", dir)
	return nil
}

// renderArtifact expands ${param} references in one template and writes the
// result under the rendered directory.
func (b *bundle) renderArtifact(relPath, dir string) error {
	src := filepath.Join(b.appPath, relPath)
	data, err := os.ReadFile(src)
	if err != nil {
		return issue.NewErrorContext().
			WithKind(issue.KindIO).
			WithOperation("read artifact template").
			WithResource(src).
			Wrap(err).
			BuildError()
	}

	var missing []string
	rendered := os.Expand(string(data), func(name string) string {
		if value, ok := b.params[name]; ok {
			return value
		}
		missing = append(missing, name)
		return ""
	})
	if len(missing) > 0 {
		return issue.NewErrorContext().
			WithKind(issue.KindConfiguration).
			WithOperation("expand artifact template").
			WithResource(relPath).
			WithSuggestion("Declare the referenced parameters in bundle.cue: " + strings.Join(missing, ", ")).
			BuildError()
	}

	target := filepath.Join(dir, filepath.Base(relPath))
	if err := os.WriteFile(target, []byte(rendered), 0o644); err != nil {
		return issue.NewErrorContext().
			WithKind(issue.KindIO).
			WithOperation("write rendered artifact").
			WithResource(target).
			Wrap(err).
			BuildError()
	}
	return nil
}

func (b *bundle) Run(ctx context.Context, providerID string, dryrun bool) error {
	return b.deploy(ctx, providerID, dryrun, false)
}

func (b *bundle) Stop(ctx context.Context, providerID string, dryrun bool) error {
	return b.deploy(ctx, providerID, dryrun, true)
}

func (b *bundle) deploy(ctx context.Context, providerID string, dryrun, down bool) error {
	id, err := b.effectiveProvider(providerID)
	if err != nil {
		return err
	}
	plugin, err := b.registry.Get(id)
	if err != nil {
		return err
	}

	namespace := b.cfg.GlobalString(answers.NamespaceKey)
	if namespace == "" {
		namespace = answers.DefaultNamespace
	}
	req := provider.DeployRequest{
		ArtifactsDir: b.renderedDir(id),
		Namespace:    namespace,
		AccessToken:  b.cfg.GlobalString(answers.AccessTokenKey),
		APIEndpoint:  b.cfg.GlobalString(answers.APIEndpointKey),
		DryRun:       dryrun || b.dryrun,
	}

	if down {
		return plugin.Undeploy(ctx, req)
	}
	return plugin.Deploy(ctx, req)
}

// Uninstall removes the rendered artifacts directory for every provider.
func (b *bundle) Uninstall(_ context.Context) error {
	dir := filepath.Join(b.appPath, RenderedDirName)
	if err := os.RemoveAll(dir); err != nil {
		return issue.NewErrorContext().
			WithKind(issue.KindIO).
			WithOperation("remove rendered artifacts").
			WithResource(dir).
			Wrap(err).
			BuildError()
	}
	logger.Debug("rendered artifacts removed", "bundle", b.desc.ID)
	return nil
}

func (b *bundle) Config() answers.Document {
	return b.cfg
}

func (b *bundle) Providers() []string {
	return b.desc.Providers()
}

func (b *bundle) renderedDir(providerID string) string {
	return filepath.Join(b.appPath, RenderedDirName, providerID)
}

// effectiveProvider resolves which provider to target: an explicit choice
// wins, then a provider named in the answers document (file, --set, or a
// detected platform all land there), then a bundle with a single provider
// needs no choice. Anything else is a configuration error.
func (b *bundle) effectiveProvider(providerID string) (string, error) {
	if providerID != "" {
		return providerID, nil
	}
	if configured := b.cfg.GlobalString(answers.ProviderKey); configured != "" {
		return configured, nil
	}
	available := b.Providers()
	if len(available) == 1 {
		return available[0], nil
	}
	return "", issue.NewErrorContext().
		WithKind(issue.KindConfiguration).
		WithOperation("select provider").
		WithResource(b.desc.ID).
		WithSuggestion("Pass --provider with one of: " + strings.Join(available, ", ")).
		WithSuggestion("Or set 'provider' in your answers file").
		BuildError()
}
