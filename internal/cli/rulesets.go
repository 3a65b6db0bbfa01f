package cli

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ppiankov/crmimport/internal/rules"
)

var showColumns bool

// rulesetsCmd lists the built-in rule sets
var rulesetsCmd = &cobra.Command{
	Use:   "rulesets",
	Short: "List available rule sets",
	Long: `List the built-in rule sets with the entity kinds each one creates.

With --columns the recognized header labels are listed as well.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		catalog := rules.Default()

		for _, name := range catalog.Names() {
			rs, err := catalog.Get(name)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "%s\n", rs.Name)
			if rs.Description != "" {
				fmt.Fprintf(out, "  %s\n", rs.Description)
			}

			kinds := make([]string, 0, len(rs.Rules))
			for _, k := range rs.Kinds() {
				kinds = append(kinds, string(k))
			}
			fmt.Fprintf(out, "  kinds:   %s\n", strings.Join(kinds, ", "))

			if showColumns {
				labels := make([]string, 0, len(rs.Columns))
				for label, field := range rs.Columns {
					labels = append(labels, fmt.Sprintf("%q -> %s", label, field))
				}
				sort.Strings(labels)
				fmt.Fprintf(out, "  columns:\n")
				for _, l := range labels {
					fmt.Fprintf(out, "    %s\n", l)
				}
			}
			fmt.Fprintln(out)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(rulesetsCmd)
	rulesetsCmd.Flags().BoolVar(&showColumns, "columns", false, "list recognized header labels")
}
