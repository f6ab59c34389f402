// SPDX-License-Identifier: MPL-2.0

// Package platform detects whether bundlectl is running inside a managed
// cluster pod and, when it is, harvests the credentials the platform injects
// into the environment. Detection results force-override any statically
// configured answers: a workload running in-cluster always talks to the
// cluster it runs in.
package platform

import (
	"net"
	"os"

	"bundlectl/internal/issue"
)

const (
	// ProviderName is the provider forced into the answers document when
	// in-cluster detection fires.
	ProviderName = "kubernetes"

	// AccessTokenEnv holds the API access token injected into the pod.
	AccessTokenEnv = "POD_TOKEN"

	// NamespaceEnv holds the namespace the pod runs in (downward API).
	NamespaceEnv = "POD_NAMESPACE"

	serviceHostEnv = "KUBERNETES_SERVICE_HOST"
	servicePortEnv = "KUBERNETES_SERVICE_PORT"

	// serviceAccountDir existing is the detection signal for running inside
	// a managed cluster pod.
	serviceAccountDir = "/var/run/secrets/kubernetes.io/serviceaccount"
)

type (
	// Info carries the platform-provided values applied over the answers
	// document with highest absolute precedence.
	Info struct {
		Provider    string
		AccessToken string
		Namespace   string
		APIEndpoint string
	}

	// Detector probes the environment for a managed platform. The probe
	// functions are injectable so tests can simulate in-cluster conditions.
	Detector struct {
		getenv func(string) string
		stat   func(string) (os.FileInfo, error)
		saDir  string
	}

	// DetectorOption configures a Detector.
	DetectorOption func(*Detector)
)

// WithGetenv overrides the environment lookup function.
func WithGetenv(fn func(string) string) DetectorOption {
	return func(d *Detector) { d.getenv = fn }
}

// WithStat overrides the filesystem stat function.
func WithStat(fn func(string) (os.FileInfo, error)) DetectorOption {
	return func(d *Detector) { d.stat = fn }
}

// WithServiceAccountDir overrides the detection signal path.
func WithServiceAccountDir(dir string) DetectorOption {
	return func(d *Detector) { d.saDir = dir }
}

// NewDetector creates a Detector backed by the real environment.
func NewDetector(opts ...DetectorOption) *Detector {
	d := &Detector{
		getenv: os.Getenv,
		stat:   os.Stat,
		saDir:  serviceAccountDir,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Detect reports whether bundlectl runs inside a managed cluster pod.
//
// When detection fires, every expected environment value must be present;
// a partial set is a fatal environment error rather than a silent fallback,
// because a half-configured in-cluster run would target the wrong cluster or
// namespace without any warning.
func (d *Detector) Detect() (Info, bool, error) {
	if _, err := d.stat(d.saDir); err != nil {
		return Info{}, false, nil
	}

	token := d.getenv(AccessTokenEnv)
	namespace := d.getenv(NamespaceEnv)
	host := d.getenv(serviceHostEnv)
	port := d.getenv(servicePortEnv)

	missing := ""
	switch {
	case token == "":
		missing = AccessTokenEnv
	case namespace == "":
		missing = NamespaceEnv
	case host == "":
		missing = serviceHostEnv
	case port == "":
		missing = servicePortEnv
	}
	if missing != "" {
		return Info{}, true, issue.NewErrorContext().
			WithKind(issue.KindEnvironment).
			WithOperation("read managed platform credentials").
			WithResource(missing).
			WithSuggestion("Expose the value to the pod via its manifest (secret or downward API)").
			WithSuggestion("Or run bundlectl outside the cluster and configure answers explicitly").
			BuildError()
	}

	return Info{
		Provider:    ProviderName,
		AccessToken: token,
		Namespace:   namespace,
		APIEndpoint: "https://" + net.JoinHostPort(host, port),
	}, true, nil
}
