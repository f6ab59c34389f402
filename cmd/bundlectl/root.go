// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"bundlectl/internal/issue"

	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"
)

var (
	// Version is the semantic version (set via -ldflags).
	Version = "dev"
	// Commit is the git commit hash (set via -ldflags).
	Commit = "unknown"
	// BuildDate is the build timestamp (set via -ldflags).
	BuildDate = "unknown"

	// verbose enables verbose output
	verbose bool

	// rootCmd represents the base command when called without any subcommands
	rootCmd = &cobra.Command{
		Use:   "bundlectl",
		Short: "Lifecycle controller for application bundles",
		Long: TitleStyle.Render("bundlectl") + SubtitleStyle.Render(" - Lifecycle controller for application bundles") + `

bundlectl unpacks provider-agnostic application bundles from images or
local directories, merges layered answers files, and drives the bundle
through render, run, stop, uninstall and clean against a pluggable
provider (kubernetes or docker).

` + SubtitleStyle.Render("Quick Start:") + `
  1. Generate a starter answers file:  bundlectl genanswers myapp:1.0
  2. Edit answers.conf.sample and rename it to answers.conf
  3. Run the application:              bundlectl run myapp:1.0

` + SubtitleStyle.Render("Examples:") + `
  bundlectl run myapp:1.0 --provider kubernetes
  bundlectl run ./myapp-bundle --set namespace=staging
  bundlectl stop ./myapp-bundle
  bundlectl clean myapp:1.0 --force`,
	}
)

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(installCmd)
	rootCmd.AddCommand(genanswersCmd)
	rootCmd.AddCommand(stopCmd)
	rootCmd.AddCommand(uninstallCmd)
	rootCmd.AddCommand(cleanCmd)
	rootCmd.AddCommand(issuesCmd)
}

// getVersionString returns a formatted version string for display.
func getVersionString() string {
	if Version == "dev" {
		return "dev (built from source)"
	}
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildDate)
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := fang.Execute(
		context.Background(),
		rootCmd,
		fang.WithVersion(getVersionString()),
		fang.WithNotifySignal(os.Interrupt),
	); err != nil {
		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			os.Exit(exitErr.Code)
		}
		os.Exit(1)
	}
}

// formatErrorForDisplay formats an error for user display.
// If the error is an ActionableError, it uses the Format method.
// In verbose mode, shows the full error chain.
func formatErrorForDisplay(err error, verboseMode bool) string {
	var ae *issue.ActionableError
	if errors.As(err, &ae) {
		return ae.Format(verboseMode)
	}
	return err.Error()
}

// GetVerbose returns the verbose flag value
func GetVerbose() bool {
	return verbose
}
