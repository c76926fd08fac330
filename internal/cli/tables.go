package cli

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/noah-isme/olympiad-api/internal/tables"
)

func newTablesCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tables",
		Short: "Inspect the reference tables",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "validate",
		Short: "Load and validate the tables file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path := opts.resolvedTablesPath()
			t, err := tables.Load(path)
			if err != nil {
				return err
			}
			printTablesSummary(cmd, path, t)
			return nil
		},
	})
	return cmd
}

func printTablesSummary(cmd *cobra.Command, path string, t *tables.Tables) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "tables %s ok\n", path)
	fmt.Fprintf(out, "categories: %d\n", len(t.Categories))
	for _, tier := range t.Categories {
		upper := "+"
		if !tier.Unbounded() {
			upper = fmt.Sprintf("-%d", *tier.Max)
		}
		fmt.Fprintf(out, "  %-18s %d%s  share %d\n", tier.Name, tier.Min, upper, tier.PerStudentShare)
	}
	fmt.Fprintf(out, "engagement bonuses: %d\n", len(t.EngagementBonuses))

	names := make([]string, 0, len(t.Tests))
	for name := range t.Tests {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		test := t.Tests[name]
		fmt.Fprintf(out, "test %s: max score %d, global %d, country %d, state %d entries\n",
			name, test.MaxScore, len(test.Global), len(test.Country), len(test.State))
	}
}
