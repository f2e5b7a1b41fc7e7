package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/sarchlab/prefetchsweep/config"
	"github.com/sarchlab/prefetchsweep/sweep"
)

var listJSON bool

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "Print the jobs of the sweep without running them",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		paths, err := config.Resolve(false)
		if err != nil {
			return err
		}

		dims, err := loadDimensions(paths.LabPath)
		if err != nil {
			return err
		}

		jobs := sweep.Enumerate(dims, sweep.Layout{
			OutputRoot:    paths.Results,
			BenchmarkRoot: labRelative(paths.LabPath, benchRoot),
			Simulator:     paths.Simulator,
		})

		if listJSON {
			enc := json.NewEncoder(cmd.OutOrStdout())
			for _, j := range jobs {
				if err := enc.Encode(j); err != nil {
					return err
				}
			}

			return nil
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "JOB\tREPORT\tOUTPUT DIR")

		for _, j := range jobs {
			report := "missing"
			if _, err := os.Stat(sweep.Layout{OutputRoot: paths.Results}.
				ReportPath(j.Key)); err == nil {
				report = "present"
			}

			fmt.Fprintf(w, "%s\t%s\t%s\n", j.ID, report, j.OutputDir)
		}

		return w.Flush()
	},
}

func init() {
	listCmd.Flags().BoolVar(&listJSON, "json", false,
		"Print one JSON job per line.")

	rootCmd.AddCommand(listCmd)
}
