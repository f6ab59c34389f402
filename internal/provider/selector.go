// SPDX-License-Identifier: MPL-2.0

package provider

type (
	// Choice is the outcome of provider selection.
	Choice struct {
		// Provider is the selected identifier, or "" when no choice was made.
		Provider string
		// Explicit is true when the caller named the provider directly.
		Explicit bool
	}
)

// Choose picks the provider to use. An explicit choice always wins, without
// validation against the available set (an invalid choice surfaces later,
// from the plugin lookup). With no explicit choice, a single available
// provider is auto-selected; zero or multiple available providers defer the
// decision downstream.
func Choose(explicit string, available []string) Choice {
	if explicit != "" {
		return Choice{Provider: explicit, Explicit: true}
	}
	if len(available) == 1 {
		return Choice{Provider: available[0]}
	}
	return Choice{}
}
