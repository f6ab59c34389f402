// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"

	"bundlectl/internal/lifecycle"

	"github.com/spf13/cobra"
)

var (
	uninstallProvider string
	uninstallDryRun   bool

	uninstallCmd = &cobra.Command{
		Use:   "uninstall <path>",
		Short: "Stop an application and remove its rendered artifacts",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := newManager(args[0], "", "", nil)
			if err != nil {
				return err
			}

			if err := m.Uninstall(cmd.Context(), lifecycle.StopOptions{
				Provider: uninstallProvider,
				DryRun:   uninstallDryRun,
			}); err != nil {
				fmt.Fprintln(cmd.ErrOrStderr(), ErrorStyle.Render("Error: ")+formatErrorForDisplay(err, verbose))
				return &ExitError{Code: 1, Err: err}
			}

			fmt.Fprintln(cmd.OutOrStdout(), SuccessStyle.Render("✓")+" application uninstalled")
			return nil
		},
	}
)

func init() {
	uninstallCmd.Flags().StringVar(&uninstallProvider, "provider", "", "override the provider recorded in the runtime answers")
	uninstallCmd.Flags().BoolVar(&uninstallDryRun, "dry-run", false, "skip every persistent mutation")
}
