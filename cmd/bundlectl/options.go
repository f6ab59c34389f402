// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"strings"

	"bundlectl/internal/issue"
	"bundlectl/internal/lifecycle"
)

// parseSetFlags turns repeated --set key=value flags into a CLI answers map.
func parseSetFlags(values []string) (map[string]string, error) {
	if len(values) == 0 {
		return nil, nil
	}
	overrides := make(map[string]string, len(values))
	for _, v := range values {
		key, value, ok := strings.Cut(v, "=")
		if !ok || key == "" {
			return nil, issue.NewErrorContext().
				WithKind(issue.KindConfiguration).
				WithOperation("parse --set flag").
				WithResource(v).
				WithSuggestion("Use --set key=value, e.g. --set namespace=staging").
				BuildError()
		}
		overrides[key] = value
	}
	return overrides, nil
}

// newManager builds a lifecycle manager for a bundle source plus the shared
// location/answers flags.
func newManager(source, destination, answersFile string, set []string) (*lifecycle.Manager, error) {
	overrides, err := parseSetFlags(set)
	if err != nil {
		return nil, err
	}
	return lifecycle.New(lifecycle.Options{
		Source:      source,
		Destination: destination,
		AnswersFile: answersFile,
		CLIAnswers:  overrides,
	})
}
