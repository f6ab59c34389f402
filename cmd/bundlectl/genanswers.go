// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"

	"bundlectl/internal/answers"
	"bundlectl/internal/lifecycle"

	"github.com/spf13/cobra"
)

var (
	genanswersFormat string
	genanswersDryRun bool

	genanswersCmd = &cobra.Command{
		Use:   "genanswers <image|path>",
		Short: "Generate a starter answers file in the current directory",
		Long: `Genanswers unpacks the bundle into a throwaway directory and writes
` + answers.SampleFile + ` into the current directory, pre-filled with the
bundle's parameter defaults. It refuses to run when an ` + answers.File + `
already exists here.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := answers.ParseFormat(genanswersFormat)
			if err != nil {
				return err
			}
			// A temp dir keeps the generated sample as the only artifact
			// left behind in the caller's world.
			m, err := newManager(args[0], "none", "", nil)
			if err != nil {
				return err
			}

			if err := m.GenAnswers(cmd.Context(), lifecycle.GenAnswersOptions{
				DryRun: genanswersDryRun,
				Format: format,
			}); err != nil {
				fmt.Fprintln(cmd.ErrOrStderr(), ErrorStyle.Render("Error: ")+formatErrorForDisplay(err, verbose))
				return &ExitError{Code: 1, Err: err}
			}

			fmt.Fprintln(cmd.OutOrStdout(), SuccessStyle.Render("✓")+" wrote "+CmdStyle.Render(answers.SampleFile))
			return nil
		},
	}
)

func init() {
	genanswersCmd.Flags().StringVar(&genanswersFormat, "answers-format", "", "answers file format (toml, yaml, json)")
	genanswersCmd.Flags().BoolVar(&genanswersDryRun, "dry-run", false, "skip every persistent mutation")
}
