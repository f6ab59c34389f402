// SPDX-License-Identifier: MPL-2.0

// Package cmd contains all CLI commands for bundlectl.
//
// This package implements the Cobra command hierarchy: the root command plus
// the lifecycle subcommands (run, stop, install, genanswers, uninstall,
// clean) and the issue catalog browser.
package cmd
