// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"

	"bundlectl/internal/answers"
	"bundlectl/internal/lifecycle"

	"github.com/spf13/cobra"
)

var (
	runDestination   string
	runAnswersFile   string
	runSet           []string
	runProvider      string
	runAnswersOutput string
	runAsk           bool
	runAnswersFormat string
	runDryRun        bool
	runNoDeps        bool
	runUpdate        bool

	runCmd = &cobra.Command{
		Use:   "run <image|path>",
		Short: "Unpack, configure, render and run an application bundle",
		Long: `Run drives a bundle through its full forward lifecycle: the bundle is
unpacked (or reloaded when already local), answers are resolved and merged,
artifacts are rendered for the selected provider, and the workloads are
started. The effective answers are persisted as ` + answers.RuntimeFile + `
inside the app path so a later 'stop' needs no extra arguments.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := answers.ParseFormat(runAnswersFormat)
			if err != nil {
				return err
			}
			m, err := newManager(args[0], runDestination, runAnswersFile, runSet)
			if err != nil {
				return err
			}

			if err := m.Run(cmd.Context(), lifecycle.RunOptions{
				Provider:      runProvider,
				AnswersOutput: runAnswersOutput,
				Ask:           runAsk,
				Format:        format,
				DryRun:        runDryRun,
				NoDeps:        runNoDeps,
				Update:        runUpdate,
			}); err != nil {
				fmt.Fprintln(cmd.ErrOrStderr(), ErrorStyle.Render("Error: ")+formatErrorForDisplay(err, verbose))
				return &ExitError{Code: 1, Err: err}
			}

			fmt.Fprintln(cmd.OutOrStdout(), SuccessStyle.Render("✓")+" application running from "+CmdStyle.Render(m.Location().AppPath))
			return nil
		},
	}
)

func init() {
	runCmd.Flags().StringVar(&runDestination, "destination", "", "unpack destination ('none' for a fresh temp dir)")
	runCmd.Flags().StringVar(&runAnswersFile, "answers", "", "path to an answers file")
	runCmd.Flags().StringArrayVar(&runSet, "set", nil, "answers override, key=value (repeatable)")
	runCmd.Flags().StringVar(&runProvider, "provider", "", "execution provider (kubernetes, docker)")
	runCmd.Flags().StringVar(&runAnswersOutput, "answers-output", "", "additionally export the runtime answers to this path")
	runCmd.Flags().BoolVar(&runAsk, "ask", false, "prompt for every parameter, even those with values")
	runCmd.Flags().StringVar(&runAnswersFormat, "answers-format", "", "answers file format (toml, yaml, json)")
	runCmd.Flags().BoolVar(&runDryRun, "dry-run", false, "skip every persistent mutation")
	runCmd.Flags().BoolVar(&runNoDeps, "no-deps", false, "skip dependency bundles")
	runCmd.Flags().BoolVar(&runUpdate, "update", false, "re-pull and re-extract the bundle image")
}
