// SPDX-License-Identifier: MPL-2.0

// Package provider hosts the pluggable execution backends a bundle's rendered
// artifacts can be deployed to, plus the pure selection rule that picks one
// when the caller did not.
package provider

import (
	"context"
	"os"
	"strings"

	"bundlectl/internal/issue"

	"github.com/charmbracelet/log"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

var logger = log.NewWithOptions(os.Stderr, log.Options{
	Prefix: "provider",
})

type (
	// DeployRequest carries everything a provider needs to deploy or tear down
	// one bundle's rendered artifacts.
	DeployRequest struct {
		// ArtifactsDir is the directory holding the rendered artifacts for
		// this provider.
		ArtifactsDir string
		// Namespace is the target namespace (always set, defaulted upstream).
		Namespace string
		// AccessToken authenticates against the provider API (optional).
		AccessToken string
		// APIEndpoint is the provider API server URL (optional).
		APIEndpoint string
		// DryRun suppresses every mutating call.
		DryRun bool
	}

	// Provider deploys and tears down rendered artifacts on one backend.
	Provider interface {
		// Name returns the provider identifier as used in bundle descriptors.
		Name() string
		// Deploy creates the workloads described by the rendered artifacts.
		Deploy(ctx context.Context, req DeployRequest) error
		// Undeploy stops the workloads previously created from the artifacts.
		Undeploy(ctx context.Context, req DeployRequest) error
	}

	// Registry maps provider identifiers to plugins.
	Registry struct {
		providers map[string]Provider
	}
)

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{providers: make(map[string]Provider)}
}

// DefaultRegistry returns a registry with the built-in providers.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(NewKubernetesProvider())
	r.Register(NewDockerProvider(nil))
	return r
}

// Register adds a provider, replacing any previous one with the same name.
func (r *Registry) Register(p Provider) {
	r.providers[p.Name()] = p
}

// Names returns the registered provider identifiers, sorted.
func (r *Registry) Names() []string {
	names := maps.Keys(r.providers)
	slices.Sort(names)
	return names
}

// Get returns the provider registered under name, or a configuration error
// when no such plugin exists.
func (r *Registry) Get(name string) (Provider, error) {
	if p, ok := r.providers[name]; ok {
		return p, nil
	}
	return nil, issue.NewErrorContext().
		WithKind(issue.KindConfiguration).
		WithOperation("look up provider plugin").
		WithResource(name).
		WithSuggestion("Run 'bundlectl run <app> --provider <name>' with one of: " +
			strings.Join(r.Names(), ", ")).
		BuildError()
}
