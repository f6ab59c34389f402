// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"

	"bundlectl/internal/answers"
	"bundlectl/internal/lifecycle"

	"github.com/spf13/cobra"
)

var (
	stopProvider string
	stopDryRun   bool

	stopCmd = &cobra.Command{
		Use:   "stop <path>",
		Short: "Stop a running application",
		Long: `Stop reloads the ` + answers.RuntimeFile + ` snapshot a prior 'run'
persisted in the app path, so the provider and namespace need not be passed
again, and tears the workloads down. The bundle is reloaded from disk;
nothing is pulled.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := newManager(args[0], "", "", nil)
			if err != nil {
				return err
			}

			if err := m.Stop(cmd.Context(), lifecycle.StopOptions{
				Provider: stopProvider,
				DryRun:   stopDryRun,
			}); err != nil {
				fmt.Fprintln(cmd.ErrOrStderr(), ErrorStyle.Render("Error: ")+formatErrorForDisplay(err, verbose))
				return &ExitError{Code: 1, Err: err}
			}

			fmt.Fprintln(cmd.OutOrStdout(), SuccessStyle.Render("✓")+" application stopped")
			return nil
		},
	}
)

func init() {
	stopCmd.Flags().StringVar(&stopProvider, "provider", "", "override the provider recorded in the runtime answers")
	stopCmd.Flags().BoolVar(&stopDryRun, "dry-run", false, "skip every persistent mutation")
}
