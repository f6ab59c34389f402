// SPDX-License-Identifier: MPL-2.0

package answers

import (
	"encoding/json"
	"fmt"
	"os"

	"bundlectl/internal/issue"

	"github.com/goccy/go-yaml"
	"github.com/pelletier/go-toml/v2"
)

// Format names a structured-data serialization format for answers files.
type Format string

const (
	FormatTOML Format = "toml"
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"

	// DefaultFormat is used when the caller does not request a format.
	DefaultFormat = FormatTOML
)

// ParseFormat validates a user-supplied format name. The empty string selects
// DefaultFormat; anything unrecognized is a configuration error.
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case "":
		return DefaultFormat, nil
	case FormatTOML, FormatYAML, FormatJSON:
		return Format(s), nil
	default:
		return "", issue.NewErrorContext().
			WithKind(issue.KindConfiguration).
			WithOperation("parse answers format").
			WithResource(s).
			WithSuggestion(fmt.Sprintf("Use one of: %s, %s, %s", FormatTOML, FormatYAML, FormatJSON)).
			BuildError()
	}
}

// Serialize writes the document to path in the requested format, overwriting
// any existing content. Marshalling problems are configuration errors; write
// failures are I/O errors.
func Serialize(doc Document, path string, format Format) error {
	if format == "" {
		format = DefaultFormat
	}

	data, err := marshal(doc, format)
	if err != nil {
		return issue.NewErrorContext().
			WithKind(issue.KindConfiguration).
			WithOperation("serialize answers").
			WithResource(path).
			Wrap(err).
			BuildError()
	}

	logger.Debug("writing answers file", "path", path, "format", format)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return issue.NewErrorContext().
			WithKind(issue.KindIO).
			WithOperation("write answers file").
			WithResource(path).
			WithSuggestion("Check directory permissions and free disk space").
			Wrap(err).
			BuildError()
	}
	return nil
}

func marshal(doc Document, format Format) ([]byte, error) {
	// Marshal through a plain nested map so encoders don't need to know the
	// Section type.
	plain := make(map[string]map[string]any, len(doc))
	for name, section := range doc {
		plain[name] = section
	}

	switch format {
	case FormatTOML:
		return toml.Marshal(plain)
	case FormatYAML:
		return yaml.Marshal(plain)
	case FormatJSON:
		out, err := json.MarshalIndent(plain, "", "  ")
		if err != nil {
			return nil, err
		}
		return append(out, '\n'), nil
	default:
		return nil, fmt.Errorf("unknown answers format: %s", format)
	}
}
