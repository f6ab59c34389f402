// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"

	"bundlectl/internal/issue"

	"github.com/spf13/cobra"
	"golang.org/x/exp/slices"
)

var issuesCmd = &cobra.Command{
	Use:   "issues",
	Short: "Browse the catalog of known issues and their fixes",
	Long: `Issues renders the catalog of known failure modes (missing answers
files, descriptor parse errors, absent container engines, ...) with the
suggested fixes for each.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		catalog := issue.Values()
		slices.SortFunc(catalog, func(a, b *issue.Issue) int {
			return int(a.Id()) - int(b.Id())
		})
		for _, i := range catalog {
			out, err := i.Render("dark")
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), out)
		}
		return nil
	},
}
