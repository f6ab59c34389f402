// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"

	"bundlectl/internal/lifecycle"

	"github.com/spf13/cobra"
)

var (
	cleanProvider string
	cleanDryRun   bool
	cleanForce    bool

	cleanCmd = &cobra.Command{
		Use:   "clean <image|path>",
		Short: "Uninstall an application and remove its unpacked files",
		Long: `Clean uninstalls the application and removes the app path when bundlectl
created it (an image cache directory or a generated temp directory). A
caller-supplied path is kept unless --force is given; --force also presses
on when the uninstall itself fails.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := newManager(args[0], "", "", nil)
			if err != nil {
				return err
			}

			if err := m.Clean(cmd.Context(), lifecycle.StopOptions{
				Provider: cleanProvider,
				DryRun:   cleanDryRun,
			}, cleanForce); err != nil {
				fmt.Fprintln(cmd.ErrOrStderr(), ErrorStyle.Render("Error: ")+formatErrorForDisplay(err, verbose))
				return &ExitError{Code: 1, Err: err}
			}

			fmt.Fprintln(cmd.OutOrStdout(), SuccessStyle.Render("✓")+" cleaned")
			return nil
		},
	}
)

func init() {
	cleanCmd.Flags().StringVar(&cleanProvider, "provider", "", "override the provider recorded in the runtime answers")
	cleanCmd.Flags().BoolVar(&cleanDryRun, "dry-run", false, "skip every persistent mutation")
	cleanCmd.Flags().BoolVar(&cleanForce, "force", false, "remove caller-supplied paths and ignore uninstall failures")
}
