// SPDX-License-Identifier: MPL-2.0

package answers

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"bundlectl/internal/issue"

	"github.com/charmbracelet/log"
	"github.com/spf13/viper"
)

var logger = log.NewWithOptions(os.Stderr, log.Options{
	Prefix: "answers",
})

type (
	// Store resolves the answers document for one app path: it knows where
	// the explicit answers file is (if any), probes the conventional file
	// name inside the app path otherwise, and merges CLI overrides on top.
	Store struct {
		appPath      string
		explicitFile string
		cliOverrides map[string]string
		formatHint   Format
	}
)

// NewStore creates a Store for the given app path. explicitFile may be empty,
// in which case Resolve probes <appPath>/answers.conf. cliOverrides are merged
// into the global section with highest precedence among static sources.
func NewStore(appPath, explicitFile string, cliOverrides map[string]string) *Store {
	return &Store{
		appPath:      appPath,
		explicitFile: explicitFile,
		cliOverrides: cliOverrides,
	}
}

// SetExplicitFile forces the answers file to a specific path, discarding any
// earlier resolution. Stop uses this to reload the runtime answers snapshot.
func (s *Store) SetExplicitFile(path string) {
	s.explicitFile = path
}

// ResolvedFile returns the currently resolved answers file path, or "".
func (s *Store) ResolvedFile() string {
	return s.explicitFile
}

// SetFormatHint names the format the answers file is expected to be in. The
// hint decides how a file without a recognized extension is parsed; an
// unambiguous extension still wins.
func (s *Store) SetFormatHint(f Format) {
	s.formatHint = f
}

// Resolve produces the answers document from the static sources.
//
// If no explicit answers file is known yet, the conventional file name inside
// the app path is probed; when found it is loaded and fully replaces the
// defaults. CLI overrides are then merged into the global section.
//
// Resolve is idempotent for fixed inputs, but a bundle-embedded answers file
// only becomes visible after unpacking — callers that found no file before
// unpack must call Resolve again afterwards.
func (s *Store) Resolve() (Document, error) {
	if s.explicitFile == "" {
		probe := filepath.Join(s.appPath, File)
		if info, err := os.Stat(probe); err == nil && !info.IsDir() {
			logger.Debug("found answers file in app path", "path", probe)
			s.explicitFile = probe
		}
	}

	doc := Defaults()
	if s.explicitFile != "" {
		loaded, err := LoadWithFormat(s.explicitFile, s.formatHint)
		if err != nil {
			return nil, err
		}
		doc = loaded
	}

	return WithCLIOverrides(doc, s.cliOverrides), nil
}

// Load reads an answers file into a Document. The format is detected from the
// file extension when it is unambiguous (.toml/.yaml/.yml/.json); otherwise
// the known formats are tried in order, TOML first, so the conventional
// answers.conf and its .sample/.gen siblings load regardless of the format
// they were serialized in.
//
// A missing, unreadable, or malformed file is a configuration error.
func Load(path string) (Document, error) {
	return LoadWithFormat(path, "")
}

// LoadWithFormat is Load with a caller-supplied format hint. When the file
// extension does not name a format and hint is non-empty, only that format is
// tried; an unambiguous extension overrides the hint.
func LoadWithFormat(path string, hint Format) (Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, issue.NewErrorContext().
			WithKind(issue.KindConfiguration).
			WithOperation("read answers file").
			WithResource(path).
			WithSuggestion("Verify the file exists and is readable").
			Wrap(err).
			BuildError()
	}

	var types []string
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		types = []string{"toml"}
	case ".yaml", ".yml":
		types = []string{"yaml"}
	case ".json":
		types = []string{"json"}
	default:
		if hint != "" {
			types = []string{string(hint)}
		} else {
			types = []string{"toml", "json", "yaml"}
		}
	}

	var lastErr error
	for _, typ := range types {
		v := viper.New()
		v.SetConfigType(typ)
		if err := v.ReadConfig(bytes.NewReader(data)); err != nil {
			lastErr = err
			continue
		}
		doc := fromSettings(v.AllSettings())
		logger.Debug("loaded answers file", "path", path, "format", typ)
		return doc, nil
	}

	return nil, issue.NewErrorContext().
		WithKind(issue.KindConfiguration).
		WithOperation("parse answers file").
		WithResource(path).
		WithSuggestion("Check the file for syntax errors").
		WithSuggestion(fmt.Sprintf("Supported formats: %s, %s, %s", FormatTOML, FormatYAML, FormatJSON)).
		Wrap(lastErr).
		BuildError()
}

// fromSettings converts viper's settings map into a Document. Top-level maps
// become sections; top-level scalars are collected into the global section.
func fromSettings(settings map[string]any) Document {
	doc := Document{}
	for key, val := range settings {
		if m, ok := val.(map[string]any); ok {
			section := make(Section, len(m))
			for k, v := range m {
				section[k] = v
			}
			doc[key] = section
			continue
		}
		if doc[GlobalSection] == nil {
			doc[GlobalSection] = Section{}
		}
		doc[GlobalSection][key] = val
	}
	return doc
}
