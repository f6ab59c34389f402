// SPDX-License-Identifier: MPL-2.0

package provider

import (
	"context"
	"os/exec"

	"bundlectl/internal/container"
	"bundlectl/internal/issue"
)

// KubernetesProviderName is the identifier bundle descriptors use for the
// kubernetes backend.
const KubernetesProviderName = "kubernetes"

// KubernetesProvider deploys rendered artifacts with kubectl. Artifacts are
// expected to be plain manifests; the provider applies or deletes the whole
// rendered directory recursively.
type KubernetesProvider struct {
	cli *container.BaseCLIEngine
}

// NewKubernetesProvider creates a kubernetes provider driving the kubectl CLI.
func NewKubernetesProvider(opts ...container.BaseCLIEngineOption) *KubernetesProvider {
	path, _ := exec.LookPath("kubectl")
	return &KubernetesProvider{
		cli: container.NewBaseCLIEngine(path, opts...),
	}
}

// Name returns the provider identifier.
func (p *KubernetesProvider) Name() string {
	return KubernetesProviderName
}

// Deploy applies the rendered manifests.
func (p *KubernetesProvider) Deploy(ctx context.Context, req DeployRequest) error {
	return p.kubectl(ctx, "apply", req)
}

// Undeploy deletes the workloads created from the rendered manifests.
func (p *KubernetesProvider) Undeploy(ctx context.Context, req DeployRequest) error {
	return p.kubectl(ctx, "delete", req)
}

func (p *KubernetesProvider) kubectl(ctx context.Context, verb string, req DeployRequest) error {
	if p.cli.BinaryPath() == "" {
		return issue.NewErrorContext().
			WithKind(issue.KindEngine).
			WithOperation("locate kubectl").
			WithSuggestion("Install kubectl and ensure it is on PATH").
			WithSuggestion("Or target the docker provider: --provider docker").
			BuildError()
	}

	args := []string{verb, "-R", "-f", req.ArtifactsDir, "--namespace", req.Namespace}
	if req.AccessToken != "" {
		args = append(args, "--token", req.AccessToken)
	}
	if req.APIEndpoint != "" {
		args = append(args, "--server", req.APIEndpoint)
	}
	if verb == "delete" {
		args = append(args, "--ignore-not-found")
	}
	if req.DryRun {
		args = append(args, "--dry-run=client")
	}

	logger.Debug("running kubectl", "verb", verb, "namespace", req.Namespace, "dryrun", req.DryRun)
	if err := p.cli.RunCommandStatus(ctx, args...); err != nil {
		return issue.WrapWithOperation(err, issue.KindEngine, "kubectl "+verb+" rendered artifacts")
	}
	return nil
}
