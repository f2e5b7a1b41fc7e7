package cmd

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"github.com/sarchlab/prefetchsweep/datarecording"
	"github.com/sarchlab/prefetchsweep/runner"
)

var (
	runsState string
	runsLimit int
)

var runsCmd = &cobra.Command{
	Use:   "runs [db-file]",
	Short: "Show the runs recorded by launch",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		reader, err := datarecording.NewReader(args[0])
		if err != nil {
			return err
		}
		defer reader.Close()

		tables, err := reader.ListTables(cmd.Context())
		if err != nil {
			return err
		}

		if !lo.Contains(tables, runner.RunsTableName) {
			return fmt.Errorf("%s has no %s table", args[0], runner.RunsTableName)
		}

		reader.MapTable(runner.RunsTableName, runner.RunRecord{})

		params := datarecording.QueryParams{
			OrderBy: "StartUnixNano",
			Limit:   runsLimit,
		}
		if runsState != "" {
			params.Where = "State = ?"
			params.Args = []any{runsState}
		}

		records, total, err := reader.Query(cmd.Context(),
			runner.RunsTableName, params)
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "JOB\tSTATE\tCAUSE\tEXIT\tDURATION\tPEAK RSS")

		for _, r := range records {
			rec := r.(*runner.RunRecord)
			duration := time.Duration(rec.DurationSecond * float64(time.Second))

			fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\t%d\n",
				rec.JobID, rec.State, rec.Cause, rec.ExitCode,
				duration.Round(time.Millisecond), rec.PeakRSS)
		}

		if err := w.Flush(); err != nil {
			return err
		}

		fmt.Fprintf(cmd.ErrOrStderr(), "%d of %d runs shown\n",
			len(records), total)

		return nil
	},
}

func init() {
	runsCmd.Flags().StringVar(&runsState, "state", "",
		"Only show runs in this state, such as completed or failed.")
	runsCmd.Flags().IntVar(&runsLimit, "limit", 0,
		"Maximum number of runs to show, 0 for all.")

	rootCmd.AddCommand(runsCmd)
}
