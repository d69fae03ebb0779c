package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"mergebench/internal/format"
	"mergebench/internal/store"
)

var runsFlags struct {
	dbPath string
}

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List stored evaluation runs",
	RunE:  runRuns,
}

func init() {
	runsCmd.Flags().StringVar(&runsFlags.dbPath, "db", defaultDBPath, "Run database path")
}

func runRuns(cmd *cobra.Command, _ []string) error {
	st, err := store.Open(runsFlags.dbPath)
	if err != nil {
		return err
	}
	defer st.Close()

	runs, err := st.ListRuns()
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "no stored runs")
		return nil
	}

	tbl := format.NewTable(format.ASCII)
	tbl.Header("Label", "ID", "Created", "Age", "Records")
	tbl.Columns(format.ColumnConfig{Number: 5, Align: format.AlignRight})
	for _, r := range runs {
		tbl.Row(r.Label, r.ID, r.CreatedAt.Format(time.RFC3339),
			format.FmtDuration(time.Since(r.CreatedAt)), r.Records)
	}
	fmt.Fprintln(cmd.OutOrStdout(), tbl.String())
	return nil
}
