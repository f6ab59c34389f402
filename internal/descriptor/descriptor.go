// SPDX-License-Identifier: MPL-2.0

// Package descriptor loads and drives application bundles: parsing the
// bundle.cue descriptor, resolving parameter values against answers,
// rendering artifact templates, and delegating execution to a provider
// plugin.
package descriptor

import (
	_ "embed"
	"os"
	"path/filepath"

	"bundlectl/internal/issue"
	"bundlectl/pkg/cueutil"

	"github.com/charmbracelet/log"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

//go:embed bundle_schema.cue
var bundleSchema []byte

var logger = log.NewWithOptions(os.Stderr, log.Options{
	Prefix: "descriptor",
})

const (
	// DescriptorFile is the conventional descriptor filename at the bundle root.
	DescriptorFile = "bundle.cue"

	// RenderedDirName is the directory (under the bundle root) rendered
	// artifacts are written to, one subdirectory per provider.
	RenderedDirName = ".rendered"
)

type (
	// Param is one configurable value declared by a descriptor.
	Param struct {
		Name        string `json:"name"`
		Description string `json:"description,omitempty"`
		Default     string `json:"default,omitempty"`
	}

	// Descriptor is the decoded bundle.cue.
	Descriptor struct {
		ID        string              `json:"id"`
		Name      string              `json:"name,omitempty"`
		Version   string              `json:"version,omitempty"`
		Params    []Param             `json:"params,omitempty"`
		Artifacts map[string][]string `json:"artifacts"`
	}
)

// Providers returns the provider identifiers the descriptor ships artifacts
// for, sorted.
func (d *Descriptor) Providers() []string {
	names := maps.Keys(d.Artifacts)
	slices.Sort(names)
	return names
}

// LoadDescriptor parses and validates <appPath>/bundle.cue.
func LoadDescriptor(appPath string) (*Descriptor, error) {
	path := filepath.Join(appPath, DescriptorFile)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, issue.NewErrorContext().
			WithKind(issue.KindEngine).
			WithOperation("read bundle descriptor").
			WithResource(path).
			WithSuggestion("Every bundle needs a " + DescriptorFile + " at its root").
			Wrap(err).
			BuildError()
	}

	result, err := cueutil.ParseAndDecode[Descriptor](bundleSchema, data, "#Bundle",
		cueutil.WithFilename(path))
	if err != nil {
		return nil, issue.NewErrorContext().
			WithKind(issue.KindEngine).
			WithOperation("parse bundle descriptor").
			WithResource(path).
			WithSuggestion("See 'bundlectl issues' for a valid descriptor example").
			Wrap(err).
			BuildError()
	}

	logger.Debug("loaded descriptor", "id", result.Value.ID, "providers", result.Value.Providers())
	return result.Value, nil
}
