// SPDX-License-Identifier: MPL-2.0

// Package answers owns the layered configuration ("answers") that controls
// how an application bundle is rendered and run.
//
// Precedence is expressed as an ordered pipeline of pure transforms over an
// immutable Document, lowest to highest:
//
//	Defaults -> file-loaded answers (full replace) -> CLI overrides ->
//	platform-detected overrides -> explicit provider at derive time
//
// Each transform returns a new Document and never mutates its input, so
// every precedence rule is testable in isolation.
package answers

import (
	"bundlectl/internal/platform"
)

const (
	// GlobalSection is the distinguished section holding cross-component keys.
	GlobalSection = "general"

	// NamespaceKey is the target namespace key in the global section.
	NamespaceKey = "namespace"
	// ProviderKey is the selected provider key in the global section.
	ProviderKey = "provider"
	// AccessTokenKey is the platform access token key in the global section.
	AccessTokenKey = "accesstoken"
	// APIEndpointKey is the provider API endpoint key in the global section.
	APIEndpointKey = "providerapi"

	// DefaultNamespace is used whenever no namespace was configured.
	DefaultNamespace = "default"

	// File is the conventional answers file name, supplied by the user or
	// embedded in a bundle.
	File = "answers.conf"
	// SampleFile is the generated sample answers file name.
	SampleFile = "answers.conf.sample"
	// RuntimeFile is the answers snapshot written after a run and read back
	// by stop.
	RuntimeFile = "answers.conf.gen"
)

type (
	// Section is a flat-ish mapping of configuration keys to values.
	Section map[string]any

	// Document is a nested mapping of sections (the global section plus one
	// section per bundle component) to key/value pairs.
	Document map[string]Section
)

// Defaults returns the lowest-precedence document: a global section with the
// default namespace.
func Defaults() Document {
	return Document{
		GlobalSection: Section{
			NamespaceKey: DefaultNamespace,
		},
	}
}

// Clone returns a deep copy of the document. Nested maps and slices inside
// values are copied as well, so mutating the clone never leaks into the
// original.
func (d Document) Clone() Document {
	if d == nil {
		return nil
	}
	out := make(Document, len(d))
	for name, section := range d {
		s := make(Section, len(section))
		for k, v := range section {
			s[k] = cloneValue(v)
		}
		out[name] = s
	}
	return out
}

// Global returns the global section, or nil if the document has none.
func (d Document) Global() Section {
	return d[GlobalSection]
}

func cloneValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		m := make(map[string]any, len(val))
		for k, inner := range val {
			m[k] = cloneValue(inner)
		}
		return m
	case []any:
		s := make([]any, len(val))
		for i, inner := range val {
			s[i] = cloneValue(inner)
		}
		return s
	default:
		return v
	}
}

// WithCLIOverrides merges CLI-provided key/value pairs into the global
// section, key by key. CLI values win over anything already in the document.
func WithCLIOverrides(d Document, overrides map[string]string) Document {
	if len(overrides) == 0 {
		return d.Clone()
	}
	out := d.Clone()
	if out == nil {
		out = Document{}
	}
	if out[GlobalSection] == nil {
		out[GlobalSection] = Section{}
	}
	for k, v := range overrides {
		out[GlobalSection][k] = v
	}
	return out
}

// WithPlatform force-sets the provider, access token, namespace and API
// endpoint from platform-detected values. Applied last among static sources;
// platform detection always wins.
func WithPlatform(d Document, info platform.Info) Document {
	out := d.Clone()
	if out == nil {
		out = Document{}
	}
	if out[GlobalSection] == nil {
		out[GlobalSection] = Section{}
	}
	out[GlobalSection][ProviderKey] = info.Provider
	out[GlobalSection][AccessTokenKey] = info.AccessToken
	out[GlobalSection][NamespaceKey] = info.Namespace
	out[GlobalSection][APIEndpointKey] = info.APIEndpoint
	return out
}

// DeriveRuntime produces the runtime answers snapshot for a document: a deep
// copy with the global section guaranteed to exist, the namespace defaulted
// if absent, and the provider overwritten when an explicit one is supplied.
//
// Pure function: no I/O, input document never mutated.
func DeriveRuntime(d Document, explicitProvider string) Document {
	out := d.Clone()
	if out == nil {
		out = Document{}
	}
	if out[GlobalSection] == nil {
		out[GlobalSection] = Section{}
	}
	if ns, ok := out[GlobalSection][NamespaceKey]; !ok || ns == "" {
		out[GlobalSection][NamespaceKey] = DefaultNamespace
	}
	if explicitProvider != "" {
		out[GlobalSection][ProviderKey] = explicitProvider
	}
	return out
}

// GlobalString returns the string value of a global-section key, or "" when
// the key is absent or not a string.
func (d Document) GlobalString(key string) string {
	g := d.Global()
	if g == nil {
		return ""
	}
	s, _ := g[key].(string)
	return s
}
