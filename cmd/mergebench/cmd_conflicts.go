package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"mergebench/internal/conflict"
	"mergebench/internal/format"
)

var conflictsCmd = &cobra.Command{
	Use:   "conflicts <file>",
	Short: "Print the conflict regions left in a merged file",
	Args:  cobra.ExactArgs(1),
	RunE:  runConflicts,
}

func runConflicts(cmd *cobra.Command, args []string) error {
	conflicts, err := conflict.ParseFile(args[0])
	if err != nil {
		return err
	}
	if len(conflicts) == 0 {
		fmt.Fprintf(cmd.OutOrStdout(), "%s: no conflicts\n", args[0])
		return nil
	}

	tbl := format.NewTable(format.ASCII)
	tbl.Header("#", "Left lines", "Right lines", "Total")
	tbl.Columns(
		format.ColumnConfig{Number: 2, Align: format.AlignRight},
		format.ColumnConfig{Number: 3, Align: format.AlignRight},
		format.ColumnConfig{Number: 4, Align: format.AlignRight},
	)
	total := 0
	for i, c := range conflicts {
		tbl.Row(i+1, len(c.Left), len(c.Right), c.NumLines())
		total += c.NumLines()
	}
	tbl.Footer("", "", "", total)

	fmt.Fprintln(cmd.OutOrStdout(), tbl.String())
	fmt.Fprintf(cmd.OutOrStdout(), "%d conflicts, %d conflicting lines\n", len(conflicts), total)
	return nil
}
