// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"path/filepath"

	"bundlectl/internal/answers"
	"bundlectl/internal/lifecycle"

	"github.com/spf13/cobra"
)

var (
	installDestination   string
	installAnswersFile   string
	installSet           []string
	installAnswersFormat string
	installDryRun        bool
	installNoDeps        bool
	installUpdate        bool

	installCmd = &cobra.Command{
		Use:   "install <image|path>",
		Short: "Unpack a bundle and write a sample answers file into it",
		Long: `Install materializes the bundle on disk and writes ` + answers.SampleFile + `
inside the app path, pre-filled with defaults. The working directory is
never touched; use 'genanswers' for a starter file in the current
directory instead.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := answers.ParseFormat(installAnswersFormat)
			if err != nil {
				return err
			}
			m, err := newManager(args[0], installDestination, installAnswersFile, installSet)
			if err != nil {
				return err
			}

			if err := m.Install(cmd.Context(), lifecycle.InstallOptions{
				NoDeps: installNoDeps,
				Update: installUpdate,
				DryRun: installDryRun,
				Format: format,
			}); err != nil {
				fmt.Fprintln(cmd.ErrOrStderr(), ErrorStyle.Render("Error: ")+formatErrorForDisplay(err, verbose))
				return &ExitError{Code: 1, Err: err}
			}

			sample := filepath.Join(m.Location().AppPath, answers.SampleFile)
			fmt.Fprintln(cmd.OutOrStdout(), SuccessStyle.Render("✓")+" bundle installed, sample answers at "+CmdStyle.Render(sample))
			return nil
		},
	}
)

func init() {
	installCmd.Flags().StringVar(&installDestination, "destination", "", "unpack destination ('none' for a fresh temp dir)")
	installCmd.Flags().StringVar(&installAnswersFile, "answers", "", "path to an answers file")
	installCmd.Flags().StringArrayVar(&installSet, "set", nil, "answers override, key=value (repeatable)")
	installCmd.Flags().StringVar(&installAnswersFormat, "answers-format", "", "answers file format (toml, yaml, json)")
	installCmd.Flags().BoolVar(&installDryRun, "dry-run", false, "skip every persistent mutation")
	installCmd.Flags().BoolVar(&installNoDeps, "no-deps", false, "skip dependency bundles")
	installCmd.Flags().BoolVar(&installUpdate, "update", false, "re-pull and re-extract the bundle image")
}
